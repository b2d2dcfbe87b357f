package session

import (
	"context"
	defError "errors"
	"time"
	"unicode/utf8"

	"screenplay-collab/internal/access"
	"screenplay-collab/internal/domain"
	"screenplay-collab/internal/errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Service interface {
	Open(ctx context.Context, userID uint64, input OpenInput) (*domain.Session, error)
	Heartbeat(ctx context.Context, sessionID string, userID uint64, scriptID *uint64) (*domain.Session, error)
	Get(ctx context.Context, sessionID string, userID uint64) (*domain.Session, error)
	Close(ctx context.Context, sessionID string, userID uint64) error
	ActiveForScript(ctx context.Context, scriptID, userID uint64) ([]domain.Session, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

type OpenInput struct {
	ScriptID  *uint64
	IPAddress string
	UserAgent string
}

type DefaultService struct {
	repository SessionRepository
	access     *access.Resolver
	ttl        time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

func NewService(repository SessionRepository, resolver *access.Resolver, ttl time.Duration, log zerolog.Logger) Service {
	return &DefaultService{
		repository: repository,
		access:     resolver,
		ttl:        ttl,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *DefaultService) Open(ctx context.Context, userID uint64, input OpenInput) (*domain.Session, error) {
	if input.ScriptID != nil {
		if _, _, err := s.access.Require(ctx, *input.ScriptID, userID, access.Any, "No access to this script"); err != nil {
			return nil, err
		}
	}

	now := s.now()
	session := &domain.Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		ScriptID:   input.ScriptID,
		IPAddress:  input.IPAddress,
		UserAgent:  truncate(input.UserAgent, 255),
		ExpiresAt:  now.Add(s.ttl),
		LastSeenAt: now,
	}
	if err := s.repository.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Heartbeat extends a live session and optionally moves it to another script
func (s *DefaultService) Heartbeat(ctx context.Context, sessionID string, userID uint64, scriptID *uint64) (*domain.Session, error) {
	session, err := s.Get(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	var moveTo *uint64
	if scriptID != nil && (session.ScriptID == nil || *session.ScriptID != *scriptID) {
		if _, _, err := s.access.Require(ctx, *scriptID, userID, access.Any, "No access to this script"); err != nil {
			return nil, err
		}
		moveTo = scriptID
	}

	now := s.now()
	ok, err := s.repository.Touch(ctx, session.ID, moveTo, now, now.Add(s.ttl))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NotFound("Session not found", nil)
	}

	if moveTo != nil {
		session.ScriptID = moveTo
	}
	session.LastSeenAt = now
	session.ExpiresAt = now.Add(s.ttl)
	return session, nil
}

// Get returns the caller's session. Expiry is judged at read time, the
// sweeper only reclaims storage.
func (s *DefaultService) Get(ctx context.Context, sessionID string, userID uint64) (*domain.Session, error) {
	session, err := s.repository.FindByID(ctx, sessionID)
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("Session not found", err)
	}
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, errors.NotFound("Session not found", nil)
	}
	if session.ExpiredAt(s.now()) {
		return nil, errors.Expired("Session has expired", nil)
	}
	return session, nil
}

func (s *DefaultService) Close(ctx context.Context, sessionID string, userID uint64) error {
	session, err := s.repository.FindByID(ctx, sessionID)
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound("Session not found", err)
	}
	if err != nil {
		return err
	}
	if session.UserID != userID {
		return errors.NotFound("Session not found", nil)
	}
	return s.repository.Delete(ctx, session.ID)
}

func (s *DefaultService) ActiveForScript(ctx context.Context, scriptID, userID uint64) ([]domain.Session, error) {
	if _, _, err := s.access.Require(ctx, scriptID, userID, access.Any, "No access to this script"); err != nil {
		return nil, err
	}

	sessions, err := s.repository.ListByScript(ctx, scriptID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	active := make([]domain.Session, 0, len(sessions))
	for _, session := range sessions {
		if !session.ExpiredAt(now) {
			active = append(active, session)
		}
	}
	return active, nil
}

func (s *DefaultService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repository.DeleteExpired(ctx, s.now())
}

// truncate cuts v to at most n bytes without splitting a UTF-8 sequence
func truncate(v string, n int) string {
	if len(v) <= n {
		return v
	}
	for n > 0 && !utf8.RuneStart(v[n]) {
		n--
	}
	return v[:n]
}
