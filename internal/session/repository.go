package session

import (
	"context"
	"time"

	"screenplay-collab/internal/domain"

	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	FindByID(ctx context.Context, id string) (*domain.Session, error)
	Touch(ctx context.Context, id string, scriptID *uint64, seenAt, expiresAt time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
	ListByScript(ctx context.Context, scriptID uint64) ([]domain.Session, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type SessionRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) SessionRepository {
	return &SessionRepositoryImpl{db: db}
}

func (r *SessionRepositoryImpl) Create(ctx context.Context, session *domain.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *SessionRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	var session domain.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// Touch extends a session and, when scriptID is set, moves it to that script.
// It reports false when the session was closed or swept in the meantime.
func (r *SessionRepositoryImpl) Touch(ctx context.Context, id string, scriptID *uint64, seenAt, expiresAt time.Time) (bool, error) {
	fields := map[string]interface{}{
		"last_seen_at": seenAt,
		"expires_at":   expiresAt,
	}
	if scriptID != nil {
		fields["script_id"] = *scriptID
	}
	res := r.db.WithContext(ctx).Model(&domain.Session{}).
		Where("id = ?", id).
		Updates(fields)
	return res.RowsAffected > 0, res.Error
}

func (r *SessionRepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Session{}).Error
}

// ListByScript returns every stored session of the script, expired or not
func (r *SessionRepositoryImpl) ListByScript(ctx context.Context, scriptID uint64) ([]domain.Session, error) {
	sessions := []domain.Session{}
	err := r.db.WithContext(ctx).
		Where("script_id = ?", scriptID).
		Order("last_seen_at DESC").
		Find(&sessions).Error
	return sessions, err
}

func (r *SessionRepositoryImpl) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", before).Delete(&domain.Session{})
	return res.RowsAffected, res.Error
}
