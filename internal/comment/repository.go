package comment

import (
	"context"
	"time"

	"screenplay-collab/internal/domain"

	"gorm.io/gorm"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	FindByID(ctx context.Context, id uint64) (*domain.Comment, error)
	UpdateContent(ctx context.Context, id uint64, content string, at time.Time) (bool, error)
	SetResolved(ctx context.Context, id uint64, resolved bool, by *uint64, at *time.Time) error
	DeleteTree(ctx context.Context, rootID uint64) (int64, error)
	ListByScript(ctx context.Context, scriptID uint64) ([]domain.Comment, error)
}

type CommentRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) CommentRepository {
	return &CommentRepositoryImpl{db: db}
}

func (r *CommentRepositoryImpl) Create(ctx context.Context, comment *domain.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *CommentRepositoryImpl) FindByID(ctx context.Context, id uint64) (*domain.Comment, error) {
	var comment domain.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// UpdateContent rewrites the text only, resolution is left to SetResolved.
// It reports false when the comment is gone.
func (r *CommentRepositoryImpl) UpdateContent(ctx context.Context, id uint64, content string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Comment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"content":    content,
			"updated_at": at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *CommentRepositoryImpl) SetResolved(ctx context.Context, id uint64, resolved bool, by *uint64, at *time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Comment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"resolved":    resolved,
			"resolved_by": by,
			"resolved_at": at,
			"updated_at":  time.Now().UTC(),
		}).Error
}

// DeleteTree removes a comment and every reply below it in one transaction.
// The subtree is collected level by level so it works on every dialect.
func (r *CommentRepositoryImpl) DeleteTree(ctx context.Context, rootID uint64) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := []uint64{rootID}
		frontier := []uint64{rootID}
		for len(frontier) > 0 {
			var children []uint64
			if err := tx.Model(&domain.Comment{}).
				Where("parent_id IN ?", frontier).
				Pluck("id", &children).Error; err != nil {
				return err
			}
			ids = append(ids, children...)
			frontier = children
		}

		res := tx.Where("id IN ?", ids).Delete(&domain.Comment{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

func (r *CommentRepositoryImpl) ListByScript(ctx context.Context, scriptID uint64) ([]domain.Comment, error) {
	comments := []domain.Comment{}
	err := r.db.WithContext(ctx).
		Where("script_id = ?", scriptID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}
