package domain

import "time"

type SharePermission string

const (
	SharePermissionView    SharePermission = "view"
	SharePermissionComment SharePermission = "comment"
	SharePermissionEdit    SharePermission = "edit"
)

func (p SharePermission) Valid() bool {
	switch p {
	case SharePermissionView, SharePermissionComment, SharePermissionEdit:
		return true
	}
	return false
}

type ShareLink struct {
	ID             uint64          `gorm:"primaryKey" json:"id"`
	ScriptID       uint64          `gorm:"not null;index" json:"script_id"`
	CreatedBy      uint64          `gorm:"not null" json:"created_by"`
	Token          string          `gorm:"size:64;not null;uniqueIndex" json:"token"`
	Permission     SharePermission `gorm:"size:20;not null" json:"permission"`
	PasswordHash   string          `gorm:"size:255" json:"-"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
	IsActive       bool            `gorm:"not null;default:true" json:"is_active"`
	ViewCount      uint64          `gorm:"not null;default:0" json:"view_count"`
	LastAccessedAt *time.Time      `json:"last_accessed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// HasPassword reports whether the link is password protected
func (l *ShareLink) HasPassword() bool {
	return l.PasswordHash != ""
}

// ExpiredAt reports whether the link is past its expiry at now
func (l *ShareLink) ExpiredAt(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}
