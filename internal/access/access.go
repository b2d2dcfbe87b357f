package access

import (
	"context"
	defError "errors"

	"screenplay-collab/internal/domain"
	"screenplay-collab/internal/errors"

	"gorm.io/gorm"
)

type Role string

const (
	RoleOwner     Role = "owner"
	RoleEditor    Role = "editor"
	RoleCommenter Role = "commenter"
	RoleViewer    Role = "viewer"
	RoleNone      Role = "none"
)

// CanRead reports whether the role may open the script
func (r Role) CanRead() bool {
	return r != RoleNone && r != ""
}

// CanComment reports whether the role may add comments
func (r Role) CanComment() bool {
	return r == RoleOwner || r == RoleEditor || r == RoleCommenter
}

// CanEdit reports whether the role may change content
func (r Role) CanEdit() bool {
	return r == RoleOwner || r == RoleEditor
}

// Resolver answers "what may this user do on this script" from the store.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Script loads the script or returns a NotFound APIError
func (r *Resolver) Script(ctx context.Context, scriptID uint64) (*domain.Script, error) {
	var script domain.Script
	err := r.db.WithContext(ctx).First(&script, scriptID).Error
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("Script not found", err)
	}
	if err != nil {
		return nil, err
	}
	return &script, nil
}

// Role returns the effective role of userID on scriptID. Only accepted
// collaborations grant access; public scripts are readable by anyone.
func (r *Resolver) Role(ctx context.Context, scriptID, userID uint64) (Role, error) {
	script, err := r.Script(ctx, scriptID)
	if err != nil {
		return RoleNone, err
	}
	return r.RoleOn(ctx, script, userID)
}

// RoleOn is Role for an already loaded script
func (r *Resolver) RoleOn(ctx context.Context, script *domain.Script, userID uint64) (Role, error) {
	if script.OwnerID == userID {
		return RoleOwner, nil
	}

	var collab domain.Collaborator
	err := r.db.WithContext(ctx).
		Where("script_id = ? AND user_id = ? AND status = ?", script.ID, userID, domain.CollaboratorAccepted).
		First(&collab).Error
	if err == nil {
		return Role(collab.Role), nil
	}
	if !defError.Is(err, gorm.ErrRecordNotFound) {
		return RoleNone, err
	}

	if script.Privacy == domain.ScriptPrivacyPublic {
		return RoleViewer, nil
	}
	return RoleNone, nil
}

// Require loads the script and checks allowed(role). A user without any
// access gets NotFound so private scripts don't leak their existence.
func (r *Resolver) Require(ctx context.Context, scriptID, userID uint64, allowed func(Role) bool, message string) (*domain.Script, Role, error) {
	script, err := r.Script(ctx, scriptID)
	if err != nil {
		return nil, RoleNone, err
	}
	role, err := r.RoleOn(ctx, script, userID)
	if err != nil {
		return nil, RoleNone, err
	}
	if !role.CanRead() {
		return nil, role, errors.NotFound("Script not found", nil)
	}
	if !allowed(role) {
		return nil, role, errors.Forbidden(message, nil)
	}
	return script, role, nil
}

// Members returns the owner and every accepted collaborator of the script
func (r *Resolver) Members(ctx context.Context, scriptID uint64) ([]uint64, error) {
	script, err := r.Script(ctx, scriptID)
	if err != nil {
		return nil, err
	}

	var ids []uint64
	if err := r.db.WithContext(ctx).Model(&domain.Collaborator{}).
		Where("script_id = ? AND status = ?", scriptID, domain.CollaboratorAccepted).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}

	return append([]uint64{script.OwnerID}, ids...), nil
}

// Any accepts every role with read access
func Any(r Role) bool { return r.CanRead() }

// OwnerOnly accepts only the owner
func OwnerOnly(r Role) bool { return r == RoleOwner }

func Editors(r Role) bool    { return r.CanEdit() }
func Commenters(r Role) bool { return r.CanComment() }
