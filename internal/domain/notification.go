package domain

import "time"

type NotificationType string

const (
	NotificationCommentAdded        NotificationType = "comment_added"
	NotificationCollaboratorInvited NotificationType = "collaborator_invited"
	NotificationVersionCommitted    NotificationType = "version_committed"
)

type Notification struct {
	ID        uint64           `gorm:"primaryKey" json:"id"`
	UserID    uint64           `gorm:"not null;index" json:"user_id"`
	ScriptID  *uint64          `gorm:"index" json:"script_id,omitempty"`
	ActorID   uint64           `gorm:"not null" json:"actor_id"`
	Type      NotificationType `gorm:"size:50;not null" json:"type"`
	Title     string           `gorm:"size:255;not null" json:"title"`
	Message   string           `gorm:"type:text" json:"message"`
	IsRead    bool             `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
