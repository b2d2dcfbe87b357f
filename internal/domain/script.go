package domain

import (
	"strings"
	"time"
)

type ScriptStatus string

const (
	ScriptStatusDraft      ScriptStatus = "draft"
	ScriptStatusInProgress ScriptStatus = "in-progress"
	ScriptStatusReview     ScriptStatus = "review"
	ScriptStatusCompleted  ScriptStatus = "completed"
	ScriptStatusArchived   ScriptStatus = "archived"
)

var statusRank = map[ScriptStatus]int{
	ScriptStatusDraft:      0,
	ScriptStatusInProgress: 1,
	ScriptStatusReview:     2,
	ScriptStatusCompleted:  3,
	ScriptStatusArchived:   4,
}

func (s ScriptStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanAdvanceTo reports whether moving from s to next is a forward move.
// Going back is only possible through an explicit reopen.
func (s ScriptStatus) CanAdvanceTo(next ScriptStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// CanReopen reports whether a script in status s can be moved back to in-progress
func (s ScriptStatus) CanReopen() bool {
	return statusRank[s] > statusRank[ScriptStatusInProgress]
}

type ScriptPrivacy string

const (
	ScriptPrivacyPrivate ScriptPrivacy = "private"
	ScriptPrivacyShared  ScriptPrivacy = "shared"
	ScriptPrivacyPublic  ScriptPrivacy = "public"
)

func (p ScriptPrivacy) Valid() bool {
	switch p {
	case ScriptPrivacyPrivate, ScriptPrivacyShared, ScriptPrivacyPublic:
		return true
	}
	return false
}

// ScriptSettings holds per script editor preferences
type ScriptSettings struct {
	PageFormat string `json:"page_format,omitempty"`
	FontFamily string `json:"font_family,omitempty"`
	FontSize   int    `json:"font_size,omitempty"`
	AutoSave   bool   `json:"auto_save"`
}

func DefaultScriptSettings() ScriptSettings {
	return ScriptSettings{
		PageFormat: "us-letter",
		FontFamily: "Courier Prime",
		FontSize:   12,
		AutoSave:   true,
	}
}

type Script struct {
	ID          uint64         `gorm:"primaryKey" json:"id"`
	OwnerID     uint64         `gorm:"not null;index" json:"owner_id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	Category    string         `gorm:"size:50;index" json:"category,omitempty"`
	Genre       string         `gorm:"size:50" json:"genre,omitempty"`
	Status      ScriptStatus   `gorm:"size:20;not null;default:draft;index" json:"status"`
	Privacy     ScriptPrivacy  `gorm:"size:20;not null;default:private" json:"privacy"`
	Tags        []string       `gorm:"type:text;serializer:json" json:"tags"`
	Settings    ScriptSettings `gorm:"type:text;serializer:json" json:"settings"`
	Content     string         `gorm:"size:4294967295" json:"content,omitempty"` // longtext on mysql, text elsewhere
	WordCount   int            `gorm:"not null;default:0" json:"word_count"`
	PageCount   int            `gorm:"not null;default:0" json:"page_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// linesPerPage approximates one page of a screenplay in standard format
const linesPerPage = 55

// ContentStats returns the word and page counts of a screenplay body
func ContentStats(content string) (words, pages int) {
	if strings.TrimSpace(content) == "" {
		return 0, 0
	}
	words = len(strings.Fields(content))
	lines := strings.Count(content, "\n") + 1
	pages = (lines + linesPerPage - 1) / linesPerPage
	return words, pages
}
