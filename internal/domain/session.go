package domain

import "time"

type Session struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     uint64    `gorm:"not null;index" json:"user_id"`
	ScriptID   *uint64   `gorm:"index" json:"script_id,omitempty"`
	IPAddress  string    `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent  string    `gorm:"size:255" json:"user_agent,omitempty"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expires_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// ExpiredAt reports whether the session is past its expiry at now
func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
