package user

import (
	"context"
	"testing"

	"screenplay-collab/internal/db/dbtest"
	"screenplay-collab/internal/domain"
	"screenplay-collab/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) Service {
	return NewService(NewRepository(dbtest.New(t)))
}

func register(t *testing.T, s Service, email string) *domain.User {
	t.Helper()
	u := &domain.User{Name: "Writer", Email: email, Password: "password123"}
	require.NoError(t, s.Register(context.Background(), u))
	return u
}

func TestService_RegisterAndLogin(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	u := register(t, s, "Jane@Example.com ")
	assert.Equal(t, "jane@example.com", u.Email)
	assert.Equal(t, domain.UserRoleWriter, u.Role)
	assert.NotEmpty(t, u.PasswordHash)
	assert.Empty(t, u.Password)

	logged, err := s.Login(ctx, "JANE@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	_, err = s.Login(ctx, "jane@example.com", "wrong")
	assert.True(t, errors.HasCode(err, errors.CodeUnauthorized))

	_, err = s.Login(ctx, "nobody@example.com", "password123")
	assert.True(t, errors.HasCode(err, errors.CodeUnauthorized))
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	s := newService(t)
	register(t, s, "dup@example.com")

	err := s.Register(context.Background(), &domain.User{Name: "Other", Email: "DUP@example.com", Password: "password123"})
	assert.True(t, errors.HasCode(err, errors.CodeConflict))
}

func TestService_RegisterInvalidRole(t *testing.T) {
	s := newService(t)
	err := s.Register(context.Background(), &domain.User{Name: "X", Email: "x@example.com", Password: "password123", Role: "director"})
	assert.True(t, errors.HasCode(err, errors.CodeValidation))
}

func TestService_ChangeRoleRequiresAdmin(t *testing.T) {
	gdb := dbtest.New(t)
	s := NewService(NewRepository(gdb))
	ctx := context.Background()

	writer := register(t, s, "writer@example.com")
	admin := register(t, s, "admin@example.com")
	require.NoError(t, gdb.Model(&domain.User{}).Where("id = ?", admin.ID).Update("is_admin", true).Error)

	_, err := s.ChangeRole(ctx, writer.ID, writer.ID, domain.UserRoleMonitor)
	assert.True(t, errors.HasCode(err, errors.CodeForbidden))

	updated, err := s.ChangeRole(ctx, admin.ID, writer.ID, domain.UserRoleMonitor)
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleMonitor, updated.Role)
}

func TestService_DeactivateAndTokenVersion(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	a := register(t, s, "a@example.com")
	b := register(t, s, "b@example.com")

	err := s.DeactivateUser(ctx, a.ID, b.ID)
	assert.True(t, errors.HasCode(err, errors.CodeForbidden))

	require.NoError(t, s.IncreaseTokenVersion(ctx, a.ID))
	require.NoError(t, s.DeactivateUser(ctx, a.ID, a.ID))

	got, err := s.GetUserByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, uint(2), got.TokenVersion)

	_, err = s.Login(ctx, "a@example.com", "password123")
	assert.True(t, errors.HasCode(err, errors.CodeForbidden))
}

func TestService_UpdateProfile(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	u := register(t, s, "p@example.com")

	bio := "Writes westerns"
	empty := "  "
	updated, err := s.UpdateProfile(ctx, u.ID, ProfileInput{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, bio, updated.Bio)
	assert.Equal(t, "Writer", updated.Name)

	_, err = s.UpdateProfile(ctx, u.ID, ProfileInput{Name: &empty})
	assert.True(t, errors.HasCode(err, errors.CodeValidation))

	_, err = s.GetUserByID(ctx, 999)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}

// interleavedRepo runs before() right ahead of the next profile write
type interleavedRepo struct {
	UserRepository
	before func()
}

func (r *interleavedRepo) UpdateFields(ctx context.Context, user *domain.User, columns ...string) error {
	if r.before != nil {
		r.before()
		r.before = nil
	}
	return r.UserRepository.UpdateFields(ctx, user, columns...)
}

func TestService_UpdateProfileKeepsConcurrentDeactivation(t *testing.T) {
	repo := &interleavedRepo{UserRepository: NewRepository(dbtest.New(t))}
	s := NewService(repo)
	ctx := context.Background()
	u := register(t, s, "p@example.com")

	repo.before = func() {
		require.NoError(t, s.DeactivateUser(ctx, u.ID, u.ID))
	}

	bio := "Writes westerns"
	_, err := s.UpdateProfile(ctx, u.ID, ProfileInput{Bio: &bio})
	require.NoError(t, err)

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, bio, got.Bio)
	assert.False(t, got.IsActive)
	assert.Equal(t, uint(1), got.TokenVersion)
}
