package collaborator

import (
	"context"
	"time"

	"screenplay-collab/internal/domain"

	"gorm.io/gorm"
)

type CollaboratorRepository interface {
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uint64) (*domain.Collaborator, error)
	FindByScriptAndUser(ctx context.Context, scriptID, userID uint64) (*domain.Collaborator, error)
	Create(ctx context.Context, collab *domain.Collaborator) error
	Reinvite(ctx context.Context, id uint64, from domain.CollaboratorStatus, role domain.CollaboratorRole, invitedBy uint64, at time.Time) (bool, error)
	UpdateRole(ctx context.Context, id uint64, status domain.CollaboratorStatus, role domain.CollaboratorRole, at time.Time) (bool, error)
	UpdateStatus(ctx context.Context, id uint64, from, to domain.CollaboratorStatus, at time.Time) (bool, error)
	Delete(ctx context.Context, id uint64) error
	ListByScript(ctx context.Context, scriptID uint64) ([]Member, error)
	ListPendingForUser(ctx context.Context, userID uint64) ([]Invitation, error)
	UpdatePresence(ctx context.Context, scriptID, userID uint64, online bool, cursor *domain.Cursor, at time.Time) error
	ListOnline(ctx context.Context, scriptID uint64) ([]domain.Collaborator, error)
}

type CollaboratorRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) CollaboratorRepository {
	return &CollaboratorRepositoryImpl{db: db}
}

// Member is a roster row joined with the user it grants access to
type Member struct {
	domain.Collaborator
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Invitation is a pending row as seen by the invitee
type Invitation struct {
	ID          uint64                  `json:"id"`
	ScriptID    uint64                  `json:"script_id"`
	ScriptTitle string                  `json:"script_title"`
	Role        domain.CollaboratorRole `json:"role"`
	InvitedBy   uint64                  `json:"invited_by"`
	InvitedAt   time.Time               `json:"invited_at"`
}

func (r *CollaboratorRepositoryImpl) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *CollaboratorRepositoryImpl) FindByID(ctx context.Context, id uint64) (*domain.Collaborator, error) {
	var collab domain.Collaborator
	if err := r.db.WithContext(ctx).First(&collab, id).Error; err != nil {
		return nil, err
	}
	return &collab, nil
}

func (r *CollaboratorRepositoryImpl) FindByScriptAndUser(ctx context.Context, scriptID, userID uint64) (*domain.Collaborator, error) {
	var collab domain.Collaborator
	err := r.db.WithContext(ctx).
		Where("script_id = ? AND user_id = ?", scriptID, userID).
		First(&collab).Error
	if err != nil {
		return nil, err
	}
	return &collab, nil
}

func (r *CollaboratorRepositoryImpl) Create(ctx context.Context, collab *domain.Collaborator) error {
	return r.db.WithContext(ctx).Create(collab).Error
}

// Reinvite puts a pending or declined row back to pending with a fresh role.
// Only the grant columns are written, presence is left alone. It reports
// false when the row is gone or no longer in the from status.
func (r *CollaboratorRepositoryImpl) Reinvite(ctx context.Context, id uint64, from domain.CollaboratorStatus, role domain.CollaboratorRole, invitedBy uint64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Collaborator{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":       domain.CollaboratorPending,
			"role":         role,
			"invited_by":   invitedBy,
			"invited_at":   at,
			"responded_at": nil,
			"updated_at":   at,
		})
	return res.RowsAffected > 0, res.Error
}

// UpdateRole changes the role of a row that is still in status
func (r *CollaboratorRepositoryImpl) UpdateRole(ctx context.Context, id uint64, status domain.CollaboratorStatus, role domain.CollaboratorRole, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Collaborator{}).
		Where("id = ? AND status = ?", id, status).
		Updates(map[string]interface{}{
			"role":       role,
			"updated_at": at,
		})
	return res.RowsAffected > 0, res.Error
}

// UpdateStatus moves a row from one status to another and reports false
// when the row was no longer in the expected state.
func (r *CollaboratorRepositoryImpl) UpdateStatus(ctx context.Context, id uint64, from, to domain.CollaboratorStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Collaborator{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":       to,
			"responded_at": at,
			"updated_at":   at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *CollaboratorRepositoryImpl) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&domain.Collaborator{}, id).Error
}

func (r *CollaboratorRepositoryImpl) ListByScript(ctx context.Context, scriptID uint64) ([]Member, error) {
	members := []Member{}
	err := r.db.WithContext(ctx).
		Model(&domain.Collaborator{}).
		Select("collaborators.*, users.name AS name, users.email AS email").
		Joins("JOIN users ON users.id = collaborators.user_id").
		Where("collaborators.script_id = ?", scriptID).
		Order("collaborators.id ASC").
		Scan(&members).Error
	return members, err
}

func (r *CollaboratorRepositoryImpl) ListPendingForUser(ctx context.Context, userID uint64) ([]Invitation, error) {
	invitations := []Invitation{}
	err := r.db.WithContext(ctx).
		Model(&domain.Collaborator{}).
		Select("collaborators.id, collaborators.script_id, scripts.title AS script_title, collaborators.role, collaborators.invited_by, collaborators.invited_at").
		Joins("JOIN scripts ON scripts.id = collaborators.script_id").
		Where("collaborators.user_id = ? AND collaborators.status = ?", userID, domain.CollaboratorPending).
		Order("collaborators.invited_at DESC").
		Scan(&invitations).Error
	return invitations, err
}

// UpdatePresence mirrors presence onto the roster row. It is a single
// statement outside any transaction; concurrent writers overwrite each other.
func (r *CollaboratorRepositoryImpl) UpdatePresence(ctx context.Context, scriptID, userID uint64, online bool, cursor *domain.Cursor, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Collaborator{}).
		Where("script_id = ? AND user_id = ?", scriptID, userID).
		Select("is_online", "cursor_position", "last_active").
		Updates(&domain.Collaborator{IsOnline: online, Cursor: cursor, LastActive: &at}).Error
}

func (r *CollaboratorRepositoryImpl) ListOnline(ctx context.Context, scriptID uint64) ([]domain.Collaborator, error) {
	rows := []domain.Collaborator{}
	err := r.db.WithContext(ctx).
		Where("script_id = ? AND is_online = ?", scriptID, true).
		Order("user_id ASC").
		Find(&rows).Error
	return rows, err
}
