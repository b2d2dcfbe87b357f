package sharelink

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	defError "errors"
	"time"

	"screenplay-collab/internal/access"
	"screenplay-collab/internal/activity"
	"screenplay-collab/internal/domain"
	"screenplay-collab/internal/errors"
	"screenplay-collab/internal/worker"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// tokenBytes is the entropy of a share token before encoding
const tokenBytes = 32

type Service interface {
	Create(ctx context.Context, scriptID, issuerID uint64, input CreateInput) (*domain.ShareLink, error)
	Resolve(ctx context.Context, token, password string) (*AccessGrant, error)
	Revoke(ctx context.Context, linkID, actorID uint64) error
	List(ctx context.Context, scriptID, userID uint64) ([]domain.ShareLink, error)
}

type CreateInput struct {
	Permission domain.SharePermission
	ExpiresAt  *time.Time
	Password   string
}

// AccessGrant is what a valid token gives its holder
type AccessGrant struct {
	ScriptID   uint64                 `json:"script_id"`
	Title      string                 `json:"title"`
	Content    string                 `json:"content"`
	Permission domain.SharePermission `json:"permission"`
	ExpiresAt  *time.Time             `json:"expires_at,omitempty"`
}

type DefaultService struct {
	repository ShareLinkRepository
	access     *access.Resolver
	pool       worker.Submitter
	activity   *activity.Recorder
	log        zerolog.Logger
	now        func() time.Time
}

func NewService(
	repository ShareLinkRepository,
	resolver *access.Resolver,
	pool worker.Submitter,
	recorder *activity.Recorder,
	log zerolog.Logger,
) Service {
	return &DefaultService{
		repository: repository,
		access:     resolver,
		pool:       pool,
		activity:   recorder,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// NewToken returns a url safe random token
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *DefaultService) Create(ctx context.Context, scriptID, issuerID uint64, input CreateInput) (*domain.ShareLink, error) {
	if !input.Permission.Valid() {
		return nil, errors.Validation("Permission must be view, comment or edit", nil)
	}
	if input.ExpiresAt != nil && !input.ExpiresAt.After(s.now()) {
		return nil, errors.Validation("Expiry must be in the future", nil)
	}

	_, role, err := s.access.Require(ctx, scriptID, issuerID, access.Editors, "Only the owner or an editor can share the script")
	if err != nil {
		return nil, err
	}
	if input.Permission == domain.SharePermissionEdit && role != access.RoleOwner {
		return nil, errors.Forbidden("Only the owner can create edit links", nil)
	}

	token, err := NewToken()
	if err != nil {
		return nil, errors.Internal(err)
	}
	link := &domain.ShareLink{
		ScriptID:   scriptID,
		CreatedBy:  issuerID,
		Token:      token,
		Permission: input.Permission,
		ExpiresAt:  input.ExpiresAt,
		IsActive:   true,
	}
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.Internal(err)
		}
		link.PasswordHash = string(hash)
	}

	if err := s.repository.Create(ctx, link); err != nil {
		return nil, err
	}

	s.activity.Record(issuerID, scriptID, domain.ActivityShareLinkCreated, domain.ActivityDetails{ShareLinkID: link.ID, To: string(link.Permission)})
	return link, nil
}

// Resolve checks a token in a fixed order: existence, expiry, revocation,
// then password. An expired link reports expired even if it was revoked.
func (s *DefaultService) Resolve(ctx context.Context, token, password string) (*AccessGrant, error) {
	link, err := s.repository.FindByToken(ctx, token)
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("Share link not found", err)
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if link.ExpiredAt(now) {
		return nil, errors.Expired("Share link has expired", nil)
	}
	if !link.IsActive {
		return nil, errors.Inactive("Share link was revoked", nil)
	}
	if link.HasPassword() {
		if password == "" {
			return nil, errors.PasswordRequired("This link is password protected", nil)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(link.PasswordHash), []byte(password)); err != nil {
			return nil, errors.PasswordMismatch("Wrong password", nil)
		}
	}

	script, err := s.access.Script(ctx, link.ScriptID)
	if err != nil {
		return nil, err
	}

	linkID := link.ID
	s.pool.Submit("sharelink:view", func(ctx context.Context) error {
		return s.repository.RecordView(ctx, linkID, now)
	})

	return &AccessGrant{
		ScriptID:   script.ID,
		Title:      script.Title,
		Content:    script.Content,
		Permission: link.Permission,
		ExpiresAt:  link.ExpiresAt,
	}, nil
}

// Revoke deactivates the link. Revoking an inactive link succeeds.
func (s *DefaultService) Revoke(ctx context.Context, linkID, actorID uint64) error {
	link, err := s.repository.FindByID(ctx, linkID)
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound("Share link not found", err)
	}
	if err != nil {
		return err
	}

	script, role, err := s.access.Require(ctx, link.ScriptID, actorID, access.Any, "No access to this script")
	if err != nil {
		if errors.HasCode(err, errors.CodeNotFound) {
			return errors.NotFound("Share link not found", err)
		}
		return err
	}
	if role != access.RoleOwner && link.CreatedBy != actorID {
		return errors.Forbidden("Only the owner or the issuer can revoke this link", nil)
	}
	if !link.IsActive {
		return nil
	}

	if err := s.repository.Deactivate(ctx, link.ID); err != nil {
		return err
	}
	s.activity.Record(actorID, script.ID, domain.ActivityShareLinkRevoked, domain.ActivityDetails{ShareLinkID: link.ID})
	return nil
}

func (s *DefaultService) List(ctx context.Context, scriptID, userID uint64) ([]domain.ShareLink, error) {
	if _, _, err := s.access.Require(ctx, scriptID, userID, access.Editors, "Only the owner or an editor can see share links"); err != nil {
		return nil, err
	}
	return s.repository.ListByScript(ctx, scriptID)
}
