package domain

import "time"

// ScriptVersion is an immutable snapshot of a script's content
type ScriptVersion struct {
	ID            uint64    `gorm:"primaryKey" json:"id"`
	ScriptID      uint64    `gorm:"not null;uniqueIndex:idx_script_version_number,priority:1" json:"script_id"`
	AuthorID      uint64    `gorm:"not null;index" json:"author_id"`
	VersionNumber uint64    `gorm:"not null;uniqueIndex:idx_script_version_number,priority:2" json:"version_number"`
	Content       string    `gorm:"size:4294967295" json:"content,omitempty"`
	ContentHash   string    `gorm:"size:64;not null;uniqueIndex" json:"content_hash"`
	Message       string    `gorm:"size:500" json:"message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
