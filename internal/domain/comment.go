package domain

import "time"

// CommentRange is the span of the script a comment is anchored to
type CommentRange struct {
	LineStart int `gorm:"not null;default:0" json:"line_start"`
	LineEnd   int `gorm:"not null;default:0" json:"line_end"`
	CharStart int `gorm:"not null;default:0" json:"char_start"`
	CharEnd   int `gorm:"not null;default:0" json:"char_end"`
}

// Valid reports whether the range is non-negative and not inverted
func (r CommentRange) Valid() bool {
	if r.LineStart < 0 || r.LineEnd < 0 || r.CharStart < 0 || r.CharEnd < 0 {
		return false
	}
	if r.LineEnd < r.LineStart {
		return false
	}
	if r.LineEnd == r.LineStart && r.CharEnd < r.CharStart {
		return false
	}
	return true
}

type Comment struct {
	ID         uint64       `gorm:"primaryKey" json:"id"`
	ScriptID   uint64       `gorm:"not null;index" json:"script_id"`
	UserID     uint64       `gorm:"not null;index" json:"user_id"`
	ParentID   *uint64      `gorm:"index" json:"parent_id,omitempty"`
	Content    string       `gorm:"type:text;not null" json:"content"`
	Range      CommentRange `gorm:"embedded" json:"range"`
	Resolved   bool         `gorm:"not null;default:false" json:"resolved"`
	ResolvedBy *uint64      `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time   `json:"resolved_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
