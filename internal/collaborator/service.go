package collaborator

import (
	"context"
	defError "errors"
	"fmt"
	"strings"
	"time"

	"screenplay-collab/internal/access"
	"screenplay-collab/internal/activity"
	"screenplay-collab/internal/db"
	"screenplay-collab/internal/domain"
	"screenplay-collab/internal/errors"
	"screenplay-collab/internal/notify"
	"screenplay-collab/internal/redis"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Service interface {
	Invite(ctx context.Context, scriptID, inviterID uint64, email string, role domain.CollaboratorRole) (*domain.Collaborator, error)
	BulkInvite(ctx context.Context, scriptID, inviterID uint64, raw string, role domain.CollaboratorRole) (*BulkResult, error)
	Respond(ctx context.Context, collaboratorID, userID uint64, accept bool) (*domain.Collaborator, error)
	Invitations(ctx context.Context, userID uint64) ([]Invitation, error)
	ChangeRole(ctx context.Context, scriptID, actorID, userID uint64, role domain.CollaboratorRole) (*domain.Collaborator, error)
	Remove(ctx context.Context, scriptID, actorID, userID uint64) error
	Leave(ctx context.Context, scriptID, userID uint64) error
	List(ctx context.Context, scriptID, userID uint64) ([]Member, error)
	UpdatePresence(ctx context.Context, scriptID, userID uint64, input PresenceInput) (*redis.PresenceEntry, error)
	ListPresence(ctx context.Context, scriptID, userID uint64) ([]redis.PresenceEntry, error)
}

type PresenceInput struct {
	Online bool
	Cursor *domain.Cursor
}

// InviteOutcome is the result for one address of a bulk invite
type InviteOutcome struct {
	Email          string `json:"email"`
	Invited        bool   `json:"invited"`
	CollaboratorID uint64 `json:"collaborator_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

type BulkResult struct {
	Results []InviteOutcome `json:"results"`
	Invited int             `json:"invited"`
	Failed  int             `json:"failed"`
}

type DefaultService struct {
	repository CollaboratorRepository
	access     *access.Resolver
	presence   *redis.PresenceStore
	notifier   *notify.Notifier
	activity   *activity.Recorder
	log        zerolog.Logger
}

func NewService(
	repository CollaboratorRepository,
	resolver *access.Resolver,
	presence *redis.PresenceStore,
	notifier *notify.Notifier,
	recorder *activity.Recorder,
	log zerolog.Logger,
) Service {
	return &DefaultService{
		repository: repository,
		access:     resolver,
		presence:   presence,
		notifier:   notifier,
		activity:   recorder,
		log:        log,
	}
}

func (s *DefaultService) Invite(ctx context.Context, scriptID, inviterID uint64, email string, role domain.CollaboratorRole) (*domain.Collaborator, error) {
	if !role.Valid() {
		return nil, errors.Validation("Role must be editor, viewer or commenter", nil)
	}
	script, _, err := s.access.Require(ctx, scriptID, inviterID, access.OwnerOnly, "Only the owner can invite collaborators")
	if err != nil {
		return nil, err
	}

	invitee, err := s.repository.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("No user with that email", err)
	}
	if err != nil {
		return nil, err
	}
	if invitee.ID == script.OwnerID || invitee.ID == inviterID {
		return nil, errors.Validation("The owner can't be invited to their own script", nil)
	}

	now := time.Now().UTC()
	collab, err := s.repository.FindByScriptAndUser(ctx, scriptID, invitee.ID)
	switch {
	case err == nil:
		if collab.Status == domain.CollaboratorAccepted {
			return nil, errors.Conflict("User is already a collaborator", nil)
		}
		// the existing row is reused so (script, user) stays unique
		ok, err := s.repository.Reinvite(ctx, collab.ID, collab.Status, role, inviterID, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Conflict("Invitation changed concurrently, retry", nil)
		}
		if collab, err = s.repository.FindByID(ctx, collab.ID); err != nil {
			return nil, err
		}
	case defError.Is(err, gorm.ErrRecordNotFound):
		collab = &domain.Collaborator{
			ScriptID:  scriptID,
			UserID:    invitee.ID,
			Role:      role,
			Status:    domain.CollaboratorPending,
			InvitedBy: inviterID,
			InvitedAt: now,
		}
		if err := s.repository.Create(ctx, collab); err != nil {
			if db.IsDuplicateKey(err) {
				return nil, errors.Conflict("User was invited concurrently", err)
			}
			return nil, err
		}
	default:
		return nil, err
	}

	s.activity.Record(inviterID, scriptID, domain.ActivityCollaboratorInvited, domain.ActivityDetails{TargetUserID: invitee.ID, To: string(role)})
	s.notifier.Notify(notify.Event{
		Type:       domain.NotificationCollaboratorInvited,
		ScriptID:   scriptID,
		ActorID:    inviterID,
		Recipients: []uint64{invitee.ID},
		Title:      "Invitation to " + script.Title,
		Message:    fmt.Sprintf("You were invited as %s", role),
	})

	return collab, nil
}

func (s *DefaultService) BulkInvite(ctx context.Context, scriptID, inviterID uint64, raw string, role domain.CollaboratorRole) (*BulkResult, error) {
	if !role.Valid() {
		return nil, errors.Validation("Role must be editor, viewer or commenter", nil)
	}
	if _, _, err := s.access.Require(ctx, scriptID, inviterID, access.OwnerOnly, "Only the owner can invite collaborators"); err != nil {
		return nil, err
	}

	valid, invalid := ParseInviteList(raw)
	if len(valid)+len(invalid) == 0 {
		return nil, errors.Validation("No email addresses given", nil)
	}
	if len(valid)+len(invalid) > maxBulkInvites {
		return nil, errors.Validation(fmt.Sprintf("At most %d addresses per request", maxBulkInvites), nil)
	}

	result := &BulkResult{Results: make([]InviteOutcome, 0, len(valid)+len(invalid))}
	for _, email := range valid {
		outcome := InviteOutcome{Email: email}
		collab, err := s.Invite(ctx, scriptID, inviterID, email, role)
		if err != nil {
			var apiErr *errors.APIError
			if !defError.As(err, &apiErr) || apiErr.Status >= 500 {
				return nil, err
			}
			outcome.Error = apiErr.Message
			result.Failed++
		} else {
			outcome.Invited = true
			outcome.CollaboratorID = collab.ID
			result.Invited++
		}
		result.Results = append(result.Results, outcome)
	}
	for _, email := range invalid {
		result.Results = append(result.Results, InviteOutcome{Email: email, Error: "Not a valid email address"})
		result.Failed++
	}

	return result, nil
}

func (s *DefaultService) Respond(ctx context.Context, collaboratorID, userID uint64, accept bool) (*domain.Collaborator, error) {
	collab, err := s.repository.FindByID(ctx, collaboratorID)
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("Invitation not found", err)
	}
	if err != nil {
		return nil, err
	}
	if collab.UserID != userID {
		return nil, errors.Forbidden("Only the invitee can respond", nil)
	}
	if collab.Status != domain.CollaboratorPending {
		return nil, errors.InvalidTransition(fmt.Sprintf("Invitation is already %s", collab.Status), nil)
	}

	to := domain.CollaboratorDeclined
	if accept {
		to = domain.CollaboratorAccepted
	}
	now := time.Now().UTC()
	ok, err := s.repository.UpdateStatus(ctx, collab.ID, domain.CollaboratorPending, to, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.InvalidTransition("Invitation was answered concurrently", nil)
	}

	collab.Status = to
	collab.RespondedAt = &now
	s.activity.Record(userID, collab.ScriptID, domain.ActivityInviteAnswered, domain.ActivityDetails{To: string(to)})
	return collab, nil
}

func (s *DefaultService) Invitations(ctx context.Context, userID uint64) ([]Invitation, error) {
	return s.repository.ListPendingForUser(ctx, userID)
}

func (s *DefaultService) ChangeRole(ctx context.Context, scriptID, actorID, userID uint64, role domain.CollaboratorRole) (*domain.Collaborator, error) {
	if !role.Valid() {
		return nil, errors.Validation("Role must be editor, viewer or commenter", nil)
	}
	if _, _, err := s.access.Require(ctx, scriptID, actorID, access.OwnerOnly, "Only the owner can change roles"); err != nil {
		return nil, err
	}

	collab, err := s.member(ctx, scriptID, userID)
	if err != nil {
		return nil, err
	}
	from := collab.Role
	ok, err := s.repository.UpdateRole(ctx, collab.ID, collab.Status, role, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := s.member(ctx, scriptID, userID); err != nil {
			return nil, err
		}
		return nil, errors.Conflict("Collaborator changed concurrently, reload and retry", nil)
	}
	if collab, err = s.repository.FindByID(ctx, collab.ID); err != nil {
		return nil, err
	}

	s.activity.Record(actorID, scriptID, domain.ActivityRoleChanged, domain.ActivityDetails{TargetUserID: userID, From: string(from), To: string(role)})
	return collab, nil
}

func (s *DefaultService) Remove(ctx context.Context, scriptID, actorID, userID uint64) error {
	if _, _, err := s.access.Require(ctx, scriptID, actorID, access.OwnerOnly, "Only the owner can remove collaborators"); err != nil {
		return err
	}
	return s.drop(ctx, scriptID, actorID, userID)
}

func (s *DefaultService) Leave(ctx context.Context, scriptID, userID uint64) error {
	script, err := s.access.Script(ctx, scriptID)
	if err != nil {
		return err
	}
	if script.OwnerID == userID {
		return errors.Validation("The owner can't leave their own script", nil)
	}
	return s.drop(ctx, scriptID, userID, userID)
}

func (s *DefaultService) drop(ctx context.Context, scriptID, actorID, userID uint64) error {
	collab, err := s.member(ctx, scriptID, userID)
	if err != nil {
		return err
	}
	if err := s.repository.Delete(ctx, collab.ID); err != nil {
		return err
	}

	if err := s.presence.Remove(ctx, scriptID, userID); err != nil {
		s.log.Warn().Err(err).Uint64("script_id", scriptID).Uint64("user_id", userID).Msg("failed to drop presence")
	}
	s.activity.Record(actorID, scriptID, domain.ActivityCollaboratorRemoved, domain.ActivityDetails{TargetUserID: userID})
	return nil
}

func (s *DefaultService) member(ctx context.Context, scriptID, userID uint64) (*domain.Collaborator, error) {
	collab, err := s.repository.FindByScriptAndUser(ctx, scriptID, userID)
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("Collaborator not found", err)
	}
	return collab, err
}

func (s *DefaultService) List(ctx context.Context, scriptID, userID uint64) ([]Member, error) {
	if _, _, err := s.access.Require(ctx, scriptID, userID, access.Any, "No access to this script"); err != nil {
		return nil, err
	}
	return s.repository.ListByScript(ctx, scriptID)
}

// UpdatePresence records where a reader is in the script. Presence is last
// writer wins and never fails the caller once access is checked.
func (s *DefaultService) UpdatePresence(ctx context.Context, scriptID, userID uint64, input PresenceInput) (*redis.PresenceEntry, error) {
	if _, _, err := s.access.Require(ctx, scriptID, userID, access.Any, "No access to this script"); err != nil {
		return nil, err
	}

	entry := &redis.PresenceEntry{
		UserID:     userID,
		Online:     input.Online,
		Cursor:     input.Cursor,
		LastActive: time.Now().UTC(),
	}
	if err := s.presence.Put(ctx, scriptID, *entry); err != nil {
		s.log.Warn().Err(err).Uint64("script_id", scriptID).Msg("presence write failed")
	}
	if err := s.repository.UpdatePresence(ctx, scriptID, userID, entry.Online, entry.Cursor, entry.LastActive); err != nil {
		s.log.Warn().Err(err).Uint64("script_id", scriptID).Msg("presence mirror failed")
	}
	return entry, nil
}

// ListPresence reads redis and falls back to the roster columns when redis
// is not configured.
func (s *DefaultService) ListPresence(ctx context.Context, scriptID, userID uint64) ([]redis.PresenceEntry, error) {
	if _, _, err := s.access.Require(ctx, scriptID, userID, access.Any, "No access to this script"); err != nil {
		return nil, err
	}

	if s.presence.Enabled() {
		return s.presence.List(ctx, scriptID)
	}

	rows, err := s.repository.ListOnline(ctx, scriptID)
	if err != nil {
		return nil, err
	}
	entries := make([]redis.PresenceEntry, 0, len(rows))
	for _, row := range rows {
		e := redis.PresenceEntry{UserID: row.UserID, Online: row.IsOnline, Cursor: row.Cursor}
		if row.LastActive != nil {
			e.LastActive = *row.LastActive
		}
		entries = append(entries, e)
	}
	return entries, nil
}
