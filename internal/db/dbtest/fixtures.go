package dbtest

import (
	"testing"

	"screenplay-collab/internal/domain"

	"gorm.io/gorm"
)

// User inserts an active writer. The password hash is a placeholder since
// fixtures never log in.
func User(t testing.TB, gdb *gorm.DB, email string) *domain.User {
	t.Helper()
	u := &domain.User{
		Name:         email,
		Email:        email,
		PasswordHash: "x",
		Role:         domain.UserRoleWriter,
		IsActive:     true,
	}
	if err := gdb.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// Script inserts a private draft owned by ownerID
func Script(t testing.TB, gdb *gorm.DB, ownerID uint64, title string) *domain.Script {
	t.Helper()
	s := &domain.Script{
		OwnerID:  ownerID,
		Title:    title,
		Status:   domain.ScriptStatusDraft,
		Privacy:  domain.ScriptPrivacyPrivate,
		Settings: domain.DefaultScriptSettings(),
	}
	if err := gdb.Create(s).Error; err != nil {
		t.Fatalf("create script: %v", err)
	}
	return s
}

// Collaborator inserts a roster row in the given state
func Collaborator(t testing.TB, gdb *gorm.DB, scriptID, userID uint64, role domain.CollaboratorRole, status domain.CollaboratorStatus) *domain.Collaborator {
	t.Helper()
	c := &domain.Collaborator{
		ScriptID: scriptID,
		UserID:   userID,
		Role:     role,
		Status:   status,
	}
	if err := gdb.Create(c).Error; err != nil {
		t.Fatalf("create collaborator: %v", err)
	}
	return c
}
