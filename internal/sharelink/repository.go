package sharelink

import (
	"context"
	"time"

	"screenplay-collab/internal/domain"

	"gorm.io/gorm"
)

type ShareLinkRepository interface {
	Create(ctx context.Context, link *domain.ShareLink) error
	FindByID(ctx context.Context, id uint64) (*domain.ShareLink, error)
	FindByToken(ctx context.Context, token string) (*domain.ShareLink, error)
	Deactivate(ctx context.Context, id uint64) error
	RecordView(ctx context.Context, id uint64, at time.Time) error
	ListByScript(ctx context.Context, scriptID uint64) ([]domain.ShareLink, error)
}

type ShareLinkRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) ShareLinkRepository {
	return &ShareLinkRepositoryImpl{db: db}
}

func (r *ShareLinkRepositoryImpl) Create(ctx context.Context, link *domain.ShareLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *ShareLinkRepositoryImpl) FindByID(ctx context.Context, id uint64) (*domain.ShareLink, error) {
	var link domain.ShareLink
	if err := r.db.WithContext(ctx).First(&link, id).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *ShareLinkRepositoryImpl) FindByToken(ctx context.Context, token string) (*domain.ShareLink, error) {
	var link domain.ShareLink
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *ShareLinkRepositoryImpl) Deactivate(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Model(&domain.ShareLink{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now().UTC()}).Error
}

// RecordView bumps the counter in the database so concurrent views add up
func (r *ShareLinkRepositoryImpl) RecordView(ctx context.Context, id uint64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.ShareLink{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"view_count":       gorm.Expr("view_count + ?", 1),
			"last_accessed_at": at,
		}).Error
}

func (r *ShareLinkRepositoryImpl) ListByScript(ctx context.Context, scriptID uint64) ([]domain.ShareLink, error) {
	links := []domain.ShareLink{}
	err := r.db.WithContext(ctx).
		Where("script_id = ?", scriptID).
		Order("created_at DESC, id DESC").
		Find(&links).Error
	return links, err
}
