package version

import (
	"context"
	defError "errors"
	"time"

	"screenplay-collab/internal/db"
	"screenplay-collab/internal/domain"

	"gorm.io/gorm"
)

var (
	// ErrHashExists means a version with the same content hash is stored
	ErrHashExists = defError.New("content hash already committed")
	// ErrNumberTaken means another commit took the next number first
	ErrNumberTaken = defError.New("version number already taken")
)

type VersionRepository interface {
	Commit(ctx context.Context, version *domain.ScriptVersion) error
	HashExists(ctx context.Context, hash string) (bool, error)
	List(ctx context.Context, scriptID uint64, page, pageSize int) ([]VersionSummary, VersionsMeta, error)
	FindByNumber(ctx context.Context, scriptID, number uint64) (*domain.ScriptVersion, error)
	Latest(ctx context.Context, scriptID uint64) (*domain.ScriptVersion, error)
}

type VersionRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) VersionRepository {
	return &VersionRepositoryImpl{db: db}
}

type VersionsMeta struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalPage   int   `json:"total_page"`
}

// VersionSummary is a version without its content
type VersionSummary struct {
	ID            uint64    `json:"id"`
	ScriptID      uint64    `json:"script_id"`
	AuthorID      uint64    `json:"author_id"`
	VersionNumber uint64    `json:"version_number"`
	ContentHash   string    `json:"content_hash"`
	Message       string    `json:"message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Commit assigns the next version number and stores the version together
// with the script's new current content, all in one transaction.
func (r *VersionRepositoryImpl) Commit(ctx context.Context, version *domain.ScriptVersion) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. reject content that is already in the chain
		var exists bool
		if err := tx.Model(&domain.ScriptVersion{}).
			Select("count(1) > 0").
			Where("content_hash = ?", version.ContentHash).
			Find(&exists).Error; err != nil {
			return err
		}
		if exists {
			return ErrHashExists
		}

		// 2. next number, the unique index catches a concurrent writer
		var last uint64
		if err := tx.Model(&domain.ScriptVersion{}).
			Where("script_id = ?", version.ScriptID).
			Select("COALESCE(MAX(version_number), 0)").
			Scan(&last).Error; err != nil {
			return err
		}
		version.VersionNumber = last + 1

		if err := tx.Create(version).Error; err != nil {
			return err
		}

		// 3. move the script's current content forward
		words, pages := domain.ContentStats(version.Content)
		res := tx.Model(&domain.Script{}).
			Where("id = ?", version.ScriptID).
			Updates(map[string]interface{}{
				"content":    version.Content,
				"word_count": words,
				"page_count": pages,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})

	if err != nil && db.IsDuplicateKey(err) {
		version.ID = 0
		version.VersionNumber = 0
		return ErrNumberTaken
	}
	return err
}

func (r *VersionRepositoryImpl) HashExists(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := r.db.WithContext(ctx).Model(&domain.ScriptVersion{}).
		Select("count(1) > 0").
		Where("content_hash = ?", hash).
		Find(&exists).Error
	return exists, err
}

func (r *VersionRepositoryImpl) List(ctx context.Context, scriptID uint64, page, pageSize int) ([]VersionSummary, VersionsMeta, error) {
	versions := []VersionSummary{}
	var total int64

	q := r.db.WithContext(ctx).Model(&domain.ScriptVersion{}).Where("script_id = ?", scriptID).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return versions, VersionsMeta{}, err
	}

	err := q.Select("id", "script_id", "author_id", "version_number", "content_hash", "message", "created_at").
		Order("version_number DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&versions).Error

	return versions, VersionsMeta{
		Total:       total,
		CurrentPage: page,
		PerPage:     pageSize,
		TotalPage:   int((total + int64(pageSize) - 1) / int64(pageSize)),
	}, err
}

func (r *VersionRepositoryImpl) FindByNumber(ctx context.Context, scriptID, number uint64) (*domain.ScriptVersion, error) {
	var v domain.ScriptVersion
	err := r.db.WithContext(ctx).
		Where("script_id = ? AND version_number = ?", scriptID, number).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VersionRepositoryImpl) Latest(ctx context.Context, scriptID uint64) (*domain.ScriptVersion, error) {
	var v domain.ScriptVersion
	err := r.db.WithContext(ctx).
		Where("script_id = ?", scriptID).
		Order("version_number DESC").
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}
