package script

import (
	"context"

	"screenplay-collab/internal/domain"

	"gorm.io/gorm"
)

type ScriptRepository interface {
	Create(ctx context.Context, script *domain.Script) error
	FindByID(ctx context.Context, id uint64) (*domain.Script, error)
	ListByOwner(ctx context.Context, ownerID uint64, page, pageSize int) ([]ScriptSummary, ScriptsMeta, error)
	ListShared(ctx context.Context, userID uint64, page, pageSize int) ([]ScriptSummary, ScriptsMeta, error)
	UpdateFields(ctx context.Context, script *domain.Script, columns ...string) error
	UpdateStatus(ctx context.Context, id uint64, from, to domain.ScriptStatus) (bool, error)
	DeleteCascade(ctx context.Context, id uint64) error
}

type ScriptRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) ScriptRepository {
	return &ScriptRepositoryImpl{db: db}
}

type ScriptsMeta struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalPage   int   `json:"total_page"`
}

func newMeta(total int64, page, pageSize int) ScriptsMeta {
	return ScriptsMeta{
		Total:       total,
		CurrentPage: page,
		PerPage:     pageSize,
		TotalPage:   int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
}

// summaryColumns leaves the content out of list queries
var summaryColumns = []string{
	"scripts.id", "scripts.owner_id", "scripts.title", "scripts.category", "scripts.genre",
	"scripts.status", "scripts.privacy", "scripts.word_count", "scripts.page_count",
	"scripts.created_at", "scripts.updated_at",
}

func (r *ScriptRepositoryImpl) Create(ctx context.Context, script *domain.Script) error {
	return r.db.WithContext(ctx).Create(script).Error
}

func (r *ScriptRepositoryImpl) FindByID(ctx context.Context, id uint64) (*domain.Script, error) {
	var script domain.Script
	if err := r.db.WithContext(ctx).First(&script, id).Error; err != nil {
		return nil, err
	}
	return &script, nil
}

func (r *ScriptRepositoryImpl) ListByOwner(ctx context.Context, ownerID uint64, page, pageSize int) ([]ScriptSummary, ScriptsMeta, error) {
	scripts := []ScriptSummary{}
	var total int64

	q := r.db.WithContext(ctx).Model(&domain.Script{}).Where("owner_id = ?", ownerID).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return scripts, ScriptsMeta{}, err
	}

	err := q.Select(summaryColumns).
		Order("updated_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&scripts).Error
	for i := range scripts {
		scripts[i].Role = "owner"
	}

	return scripts, newMeta(total, page, pageSize), err
}

// ListShared returns scripts where the user holds an accepted collaboration
func (r *ScriptRepositoryImpl) ListShared(ctx context.Context, userID uint64, page, pageSize int) ([]ScriptSummary, ScriptsMeta, error) {
	scripts := []ScriptSummary{}
	var total int64

	q := r.db.WithContext(ctx).Model(&domain.Script{}).
		Joins("JOIN collaborators ON collaborators.script_id = scripts.id").
		Where("collaborators.user_id = ? AND collaborators.status = ?", userID, domain.CollaboratorAccepted).
		Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return scripts, ScriptsMeta{}, err
	}

	err := q.Select(append(summaryColumns, "collaborators.role AS role")).
		Order("scripts.updated_at DESC, scripts.id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&scripts).Error

	return scripts, newMeta(total, page, pageSize), err
}

// UpdateFields writes only the named columns of script. Status and content
// have their own writers and are never part of this update. A script deleted
// since it was read comes back as gorm.ErrRecordNotFound.
func (r *ScriptRepositoryImpl) UpdateFields(ctx context.Context, script *domain.Script, columns ...string) error {
	res := r.db.WithContext(ctx).Model(script).
		Select(append(columns, "updated_at")).
		Updates(script)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateStatus moves the script from one status to another. The from guard
// turns two racing transitions into one winner and one false.
func (r *ScriptRepositoryImpl) UpdateStatus(ctx context.Context, id uint64, from, to domain.ScriptStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Script{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected == 1, res.Error
}

// DeleteCascade removes the script and everything that hangs off it.
// Sessions survive, they only lose their script reference.
func (r *ScriptRepositoryImpl) DeleteCascade(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dependents := []interface{}{
			&domain.Comment{},
			&domain.ScriptVersion{},
			&domain.Collaborator{},
			&domain.ShareLink{},
			&domain.ActivityLog{},
			&domain.Notification{},
		}
		for _, model := range dependents {
			if err := tx.Where("script_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&domain.Session{}).
			Where("script_id = ?", id).
			Update("script_id", nil).Error; err != nil {
			return err
		}

		res := tx.Delete(&domain.Script{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
