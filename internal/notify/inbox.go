package notify

import (
	"context"

	"screenplay-collab/internal/domain"
	"screenplay-collab/internal/errors"

	"gorm.io/gorm"
)

type Inbox interface {
	List(ctx context.Context, userID uint64, unreadOnly bool, page, pageSize int) ([]domain.Notification, int64, error)
	MarkRead(ctx context.Context, id, userID uint64) error
	MarkAllRead(ctx context.Context, userID uint64) (int64, error)
}

type DefaultInbox struct {
	db *gorm.DB
}

func NewInbox(db *gorm.DB) Inbox {
	return &DefaultInbox{db: db}
}

func (i *DefaultInbox) List(ctx context.Context, userID uint64, unreadOnly bool, page, pageSize int) ([]domain.Notification, int64, error) {
	q := i.db.WithContext(ctx).Model(&domain.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	notifications := []domain.Notification{}
	err := q.Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&notifications).Error
	return notifications, total, err
}

func (i *DefaultInbox) MarkRead(ctx context.Context, id, userID uint64) error {
	res := i.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := i.db.WithContext(ctx).Model(&domain.Notification{}).
			Where("id = ? AND user_id = ?", id, userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errors.NotFound("Notification not found", nil)
		}
	}
	return nil
}

func (i *DefaultInbox) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	res := i.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
