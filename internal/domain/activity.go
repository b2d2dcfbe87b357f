package domain

import "time"

type ActivityAction string

const (
	ActivityScriptCreated       ActivityAction = "script_created"
	ActivityScriptUpdated       ActivityAction = "script_updated"
	ActivityStatusChanged       ActivityAction = "status_changed"
	ActivityVersionCommitted    ActivityAction = "version_committed"
	ActivityCollaboratorInvited ActivityAction = "collaborator_invited"
	ActivityInviteAnswered      ActivityAction = "invite_answered"
	ActivityCollaboratorRemoved ActivityAction = "collaborator_removed"
	ActivityRoleChanged         ActivityAction = "role_changed"
	ActivityCommentAdded        ActivityAction = "comment_added"
	ActivityCommentResolved     ActivityAction = "comment_resolved"
	ActivityCommentDeleted      ActivityAction = "comment_deleted"
	ActivityShareLinkCreated    ActivityAction = "share_link_created"
	ActivityShareLinkRevoked    ActivityAction = "share_link_revoked"
)

// ActivityDetails carries the optional context of an activity entry
type ActivityDetails struct {
	VersionNumber uint64 `json:"version_number,omitempty"`
	CommentID     uint64 `json:"comment_id,omitempty"`
	TargetUserID  uint64 `json:"target_user_id,omitempty"`
	ShareLinkID   uint64 `json:"share_link_id,omitempty"`
	From          string `json:"from,omitempty"`
	To            string `json:"to,omitempty"`
}

type ActivityLog struct {
	ID        uint64          `gorm:"primaryKey" json:"id"`
	UserID    uint64          `gorm:"not null;index" json:"user_id"`
	ScriptID  *uint64         `gorm:"index" json:"script_id,omitempty"`
	Action    ActivityAction  `gorm:"size:50;not null" json:"action"`
	Details   ActivityDetails `gorm:"type:text;serializer:json" json:"details"`
	CreatedAt time.Time       `json:"created_at"`
}
