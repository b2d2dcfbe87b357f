package user

import (
	"context"
	defError "errors"
	"strings"

	"screenplay-collab/internal/db"
	"screenplay-collab/internal/domain"
	"screenplay-collab/internal/errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service defines the interface for user business logic
type Service interface {
	Register(ctx context.Context, user *domain.User) error
	Login(ctx context.Context, email, password string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uint64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uint64, input ProfileInput) (*domain.User, error)
	ChangeRole(ctx context.Context, actorID, userID uint64, role domain.UserRole) (*domain.User, error)
	DeactivateUser(ctx context.Context, actorID, userID uint64) error
	IncreaseTokenVersion(ctx context.Context, id uint64) error
}

// ProfileInput holds the editable profile fields, nil means unchanged
type ProfileInput struct {
	Name      *string
	Bio       *string
	AvatarURL *string
}

// DefaultService implements Service
type DefaultService struct {
	repository UserRepository
}

// NewService creates a new user service
func NewService(repository UserRepository) Service {
	return &DefaultService{repository: repository}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register registers a new user
func (s *DefaultService) Register(ctx context.Context, user *domain.User) error {
	user.Email = normalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = domain.UserRoleWriter
	}
	if !user.Role.Valid() {
		return errors.Validation("Role must be writer or monitor", nil)
	}

	// Check if user with email already exists
	_, err := s.repository.FindByEmail(ctx, user.Email)
	if err != nil && !defError.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil {
		return errors.Conflict("User already registered", nil)
	}

	// Hash the password before saving
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.UnprocessableEntity("Can't hash password", err)
	}
	user.PasswordHash = string(hashedPassword)
	user.Password = ""
	user.IsActive = true
	user.IsAdmin = false

	// Create user, the unique index catches a concurrent registration
	if err := s.repository.Create(ctx, user); err != nil {
		if db.IsDuplicateKey(err) {
			return errors.Conflict("User already registered", err)
		}
		return err
	}
	return nil
}

// Login authenticates a user
func (s *DefaultService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	// Find user by email
	user, err := s.repository.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Unauthorized("Wrong email or password", err)
		}
		return nil, err
	}

	// Check password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.Unauthorized("Wrong email or password", err)
	}

	// Check if user is active
	if !user.IsActive {
		return nil, errors.Forbidden("User is not active", nil)
	}

	return user, nil
}

// GetUserByID gets a user by ID
func (s *DefaultService) GetUserByID(ctx context.Context, id uint64) (*domain.User, error) {
	user, err := s.repository.FindByID(ctx, id)
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("User not found", err)
	}
	return user, err
}

// GetUserByEmail gets a user by email
func (s *DefaultService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.repository.FindByEmail(ctx, normalizeEmail(email))
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("User not found", err)
	}
	return user, err
}

func (s *DefaultService) UpdateProfile(ctx context.Context, id uint64, input ProfileInput) (*domain.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var columns []string
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.Validation("Name cannot be empty", nil)
		}
		user.Name = name
		columns = append(columns, "name")
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
		columns = append(columns, "bio")
	}
	if input.AvatarURL != nil {
		user.AvatarURL = *input.AvatarURL
		columns = append(columns, "avatar_url")
	}
	if len(columns) == 0 {
		return user, nil
	}

	if err := s.repository.UpdateFields(ctx, user, columns...); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangeRole changes an account's role. Roles are fixed at registration
// and only an admin may change them afterwards.
func (s *DefaultService) ChangeRole(ctx context.Context, actorID, userID uint64, role domain.UserRole) (*domain.User, error) {
	if !role.Valid() {
		return nil, errors.Validation("Role must be writer or monitor", nil)
	}

	actor, err := s.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin {
		return nil, errors.Forbidden("Only an admin can change roles", nil)
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}

	user.Role = role
	if err := s.repository.UpdateFields(ctx, user, "role"); err != nil {
		return nil, err
	}
	return user, nil
}

// DeactivateUser deactivates a user, allowed for the user itself or an admin
func (s *DefaultService) DeactivateUser(ctx context.Context, actorID, userID uint64) error {
	if actorID != userID {
		actor, err := s.GetUserByID(ctx, actorID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin {
			return errors.Forbidden("Only an admin can deactivate other users", nil)
		}
	}

	if _, err := s.GetUserByID(ctx, userID); err != nil {
		return err
	}
	return s.repository.Deactivate(ctx, userID)
}

// IncreaseTokenVersion invalidates every token issued so far
func (s *DefaultService) IncreaseTokenVersion(ctx context.Context, id uint64) error {
	return s.repository.IncrementTokenVersion(ctx, id)
}
