package activity

import (
	"context"

	"screenplay-collab/internal/db"
	"screenplay-collab/internal/domain"
	"screenplay-collab/internal/worker"

	"gorm.io/gorm"
)

// Recorder appends to the activity log. Writes go through the worker pool
// and a failed write is only logged.
type Recorder struct {
	db   *gorm.DB
	pool worker.Submitter
}

func NewRecorder(db *gorm.DB, pool worker.Submitter) *Recorder {
	return &Recorder{db: db, pool: pool}
}

func (r *Recorder) Record(userID, scriptID uint64, action domain.ActivityAction, details domain.ActivityDetails) {
	if r == nil {
		return
	}
	entry := domain.ActivityLog{
		UserID:  userID,
		Action:  action,
		Details: details,
	}
	if scriptID != 0 {
		entry.ScriptID = &scriptID
	}

	r.pool.Submit("activity:"+string(action), func(ctx context.Context) error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if entry.ScriptID != nil {
				ok, err := db.ScriptExists(tx, *entry.ScriptID)
				if err != nil || !ok {
					return err
				}
			}
			return tx.Create(&entry).Error
		})
	})
}

// List returns the newest entries for a script
func (r *Recorder) List(ctx context.Context, scriptID uint64, limit int) ([]domain.ActivityLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	entries := []domain.ActivityLog{}
	err := r.db.WithContext(ctx).
		Where("script_id = ?", scriptID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
