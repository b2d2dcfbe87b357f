package script

import (
	"context"
	defError "errors"
	"fmt"
	"strings"
	"time"

	"screenplay-collab/internal/access"
	"screenplay-collab/internal/activity"
	"screenplay-collab/internal/domain"
	"screenplay-collab/internal/errors"
	"screenplay-collab/internal/redis"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, ownerID uint64, input CreateInput) (*domain.Script, error)
	Get(ctx context.Context, scriptID, userID uint64) (*ScriptResponse, error)
	ListOwned(ctx context.Context, userID uint64, page, pageSize int) (*PaginatedScripts, error)
	ListShared(ctx context.Context, userID uint64, page, pageSize int) (*PaginatedScripts, error)
	Update(ctx context.Context, scriptID, userID uint64, input UpdateInput) (*domain.Script, error)
	ChangeStatus(ctx context.Context, scriptID, userID uint64, status domain.ScriptStatus) (*domain.Script, error)
	Reopen(ctx context.Context, scriptID, userID uint64) (*domain.Script, error)
	Delete(ctx context.Context, scriptID, userID uint64) error
}

type CreateInput struct {
	Title       string
	Description string
	Category    string
	Genre       string
	Privacy     domain.ScriptPrivacy
	Tags        []string
	Settings    *domain.ScriptSettings
}

// UpdateInput holds the editable fields, nil means unchanged
type UpdateInput struct {
	Title       *string
	Description *string
	Category    *string
	Genre       *string
	Privacy     *domain.ScriptPrivacy
	Tags        []string
	Settings    *domain.ScriptSettings
}

// ScriptSummary is the list representation, without content
type ScriptSummary struct {
	ID        uint64               `json:"id"`
	OwnerID   uint64               `json:"owner_id"`
	Title     string               `json:"title"`
	Category  string               `json:"category,omitempty"`
	Genre     string               `json:"genre,omitempty"`
	Status    domain.ScriptStatus  `json:"status"`
	Privacy   domain.ScriptPrivacy `json:"privacy"`
	WordCount int                  `json:"word_count"`
	PageCount int                  `json:"page_count"`
	Role      string               `json:"role"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

type PaginatedScripts struct {
	Data []ScriptSummary `json:"data"`
	Meta ScriptsMeta     `json:"meta"`
}

type ScriptResponse struct {
	domain.Script
	Role access.Role `json:"role"`
}

type DefaultService struct {
	repository ScriptRepository
	access     *access.Resolver
	cache      *redis.Cache
	presence   *redis.PresenceStore
	activity   *activity.Recorder
	log        zerolog.Logger
}

func NewService(
	repository ScriptRepository,
	resolver *access.Resolver,
	cache *redis.Cache,
	presence *redis.PresenceStore,
	recorder *activity.Recorder,
	log zerolog.Logger,
) Service {
	return &DefaultService{
		repository: repository,
		access:     resolver,
		cache:      cache,
		presence:   presence,
		activity:   recorder,
		log:        log,
	}
}

// OwnerListVersionKey is bumped whenever one of the owner's scripts changes
func OwnerListVersionKey(ownerID uint64) string {
	return fmt.Sprintf("user:%d:scripts:version", ownerID)
}

func (s *DefaultService) invalidateOwner(ctx context.Context, ownerID uint64) {
	s.cache.IncrementVersion(ctx, OwnerListVersionKey(ownerID))
}

func cleanTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func (s *DefaultService) Create(ctx context.Context, ownerID uint64, input CreateInput) (*domain.Script, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.Validation("Title cannot be empty", nil)
	}
	if input.Privacy == "" {
		input.Privacy = domain.ScriptPrivacyPrivate
	}
	if !input.Privacy.Valid() {
		return nil, errors.Validation("Privacy must be private, shared or public", nil)
	}

	settings := domain.DefaultScriptSettings()
	if input.Settings != nil {
		settings = *input.Settings
	}

	script := &domain.Script{
		OwnerID:     ownerID,
		Title:       title,
		Description: input.Description,
		Category:    input.Category,
		Genre:       input.Genre,
		Status:      domain.ScriptStatusDraft,
		Privacy:     input.Privacy,
		Tags:        cleanTags(input.Tags),
		Settings:    settings,
	}
	if err := s.repository.Create(ctx, script); err != nil {
		return nil, err
	}

	s.invalidateOwner(ctx, ownerID)
	s.activity.Record(ownerID, script.ID, domain.ActivityScriptCreated, domain.ActivityDetails{})
	return script, nil
}

func (s *DefaultService) Get(ctx context.Context, scriptID, userID uint64) (*ScriptResponse, error) {
	script, role, err := s.access.Require(ctx, scriptID, userID, access.Any, "No access to this script")
	if err != nil {
		return nil, err
	}
	return &ScriptResponse{Script: *script, Role: role}, nil
}

func (s *DefaultService) ListOwned(ctx context.Context, userID uint64, page, pageSize int) (*PaginatedScripts, error) {
	// Get the current data version for this user's scripts
	v := s.cache.GetVersion(ctx, OwnerListVersionKey(userID))
	cacheKey := fmt.Sprintf("scripts:u:%d:v:%d:p:%d:ps:%d", userID, v, page, pageSize)

	var result PaginatedScripts
	// get data from cache
	if found, _ := s.cache.Get(ctx, cacheKey, &result); found {
		return &result, nil
	}

	scripts, meta, err := s.repository.ListByOwner(ctx, userID, page, pageSize)
	if err != nil {
		return nil, err
	}
	result = PaginatedScripts{Data: scripts, Meta: meta}
	s.cache.Set(ctx, cacheKey, result, time.Hour)

	return &result, nil
}

func (s *DefaultService) ListShared(ctx context.Context, userID uint64, page, pageSize int) (*PaginatedScripts, error) {
	scripts, meta, err := s.repository.ListShared(ctx, userID, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &PaginatedScripts{Data: scripts, Meta: meta}, nil
}

func (s *DefaultService) Update(ctx context.Context, scriptID, userID uint64, input UpdateInput) (*domain.Script, error) {
	script, role, err := s.access.Require(ctx, scriptID, userID, access.Editors, "Only the owner or an editor can update the script")
	if err != nil {
		return nil, err
	}

	var columns []string
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, errors.Validation("Title cannot be empty", nil)
		}
		script.Title = title
		columns = append(columns, "title")
	}
	if input.Description != nil {
		script.Description = *input.Description
		columns = append(columns, "description")
	}
	if input.Category != nil {
		script.Category = *input.Category
		columns = append(columns, "category")
	}
	if input.Genre != nil {
		script.Genre = *input.Genre
		columns = append(columns, "genre")
	}
	if input.Tags != nil {
		script.Tags = cleanTags(input.Tags)
		columns = append(columns, "tags")
	}
	if input.Settings != nil {
		script.Settings = *input.Settings
		columns = append(columns, "settings")
	}
	if input.Privacy != nil {
		if role != access.RoleOwner {
			return nil, errors.Forbidden("Only the owner can change privacy", nil)
		}
		if !input.Privacy.Valid() {
			return nil, errors.Validation("Privacy must be private, shared or public", nil)
		}
		script.Privacy = *input.Privacy
		columns = append(columns, "privacy")
	}
	if len(columns) == 0 {
		return script, nil
	}

	if err := s.repository.UpdateFields(ctx, script, columns...); err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Script not found", err)
		}
		return nil, err
	}
	// status and content may have moved on since the read
	if fresh, err := s.repository.FindByID(ctx, script.ID); err == nil {
		script = fresh
	}

	s.invalidateOwner(ctx, script.OwnerID)
	s.activity.Record(userID, script.ID, domain.ActivityScriptUpdated, domain.ActivityDetails{})
	return script, nil
}

// ChangeStatus moves the script forward in its lifecycle
func (s *DefaultService) ChangeStatus(ctx context.Context, scriptID, userID uint64, status domain.ScriptStatus) (*domain.Script, error) {
	if !status.Valid() {
		return nil, errors.Validation("Unknown status", nil)
	}

	script, _, err := s.access.Require(ctx, scriptID, userID, access.Editors, "Only the owner or an editor can change the status")
	if err != nil {
		return nil, err
	}
	if !script.Status.CanAdvanceTo(status) {
		return nil, errors.InvalidTransition(
			fmt.Sprintf("Can't move from %s to %s, use reopen to go back", script.Status, status), nil)
	}

	return s.transition(ctx, script, userID, status)
}

// Reopen is the one backwards move: any later status goes back to in-progress
func (s *DefaultService) Reopen(ctx context.Context, scriptID, userID uint64) (*domain.Script, error) {
	script, _, err := s.access.Require(ctx, scriptID, userID, access.OwnerOnly, "Only the owner can reopen the script")
	if err != nil {
		return nil, err
	}
	if !script.Status.CanReopen() {
		return nil, errors.InvalidTransition(fmt.Sprintf("Can't reopen a script in %s", script.Status), nil)
	}

	return s.transition(ctx, script, userID, domain.ScriptStatusInProgress)
}

func (s *DefaultService) transition(ctx context.Context, script *domain.Script, userID uint64, to domain.ScriptStatus) (*domain.Script, error) {
	from := script.Status
	ok, err := s.repository.UpdateStatus(ctx, script.ID, from, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Conflict("Status was changed concurrently, reload and retry", nil)
	}

	script.Status = to
	s.invalidateOwner(ctx, script.OwnerID)
	s.activity.Record(userID, script.ID, domain.ActivityStatusChanged, domain.ActivityDetails{From: string(from), To: string(to)})
	return script, nil
}

func (s *DefaultService) Delete(ctx context.Context, scriptID, userID uint64) error {
	script, _, err := s.access.Require(ctx, scriptID, userID, access.OwnerOnly, "Only the owner can delete the script")
	if err != nil {
		return err
	}

	if err := s.repository.DeleteCascade(ctx, script.ID); err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Script not found", err)
		}
		return err
	}

	s.invalidateOwner(ctx, script.OwnerID)
	if err := s.presence.Clear(ctx, script.ID); err != nil {
		s.log.Warn().Err(err).Uint64("script_id", script.ID).Msg("failed to clear presence")
	}
	return nil
}
