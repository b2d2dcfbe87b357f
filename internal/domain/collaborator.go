package domain

import "time"

type CollaboratorRole string

const (
	CollaboratorRoleEditor    CollaboratorRole = "editor"
	CollaboratorRoleViewer    CollaboratorRole = "viewer"
	CollaboratorRoleCommenter CollaboratorRole = "commenter"
)

func (r CollaboratorRole) Valid() bool {
	switch r {
	case CollaboratorRoleEditor, CollaboratorRoleViewer, CollaboratorRoleCommenter:
		return true
	}
	return false
}

type CollaboratorStatus string

const (
	CollaboratorPending  CollaboratorStatus = "pending"
	CollaboratorAccepted CollaboratorStatus = "accepted"
	CollaboratorDeclined CollaboratorStatus = "declined"
)

// Cursor is the last known caret position of a collaborator
type Cursor struct {
	Line         int `json:"line"`
	Column       int `json:"column"`
	SelectionEnd int `json:"selection_end,omitempty"`
}

type Collaborator struct {
	ID          uint64             `gorm:"primaryKey" json:"id"`
	ScriptID    uint64             `gorm:"not null;uniqueIndex:idx_collaborator_script_user,priority:1" json:"script_id"`
	UserID      uint64             `gorm:"not null;uniqueIndex:idx_collaborator_script_user,priority:2;index" json:"user_id"`
	Role        CollaboratorRole   `gorm:"size:20;not null" json:"role"`
	Status      CollaboratorStatus `gorm:"size:20;not null;default:pending" json:"status"`
	InvitedBy   uint64             `gorm:"not null" json:"invited_by"`
	InvitedAt   time.Time          `json:"invited_at"`
	RespondedAt *time.Time         `json:"responded_at,omitempty"`

	// presence, written outside the access grant state machine
	IsOnline   bool       `gorm:"not null;default:false" json:"is_online"`
	Cursor     *Cursor    `gorm:"column:cursor_position;type:text;serializer:json" json:"cursor_position,omitempty"`
	LastActive *time.Time `json:"last_active,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
