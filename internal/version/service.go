package version

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	defError "errors"
	"fmt"
	"strconv"
	"strings"

	"screenplay-collab/internal/access"
	"screenplay-collab/internal/activity"
	"screenplay-collab/internal/domain"
	"screenplay-collab/internal/errors"
	"screenplay-collab/internal/notify"
	"screenplay-collab/internal/redis"
	"screenplay-collab/internal/script"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Service interface {
	Commit(ctx context.Context, scriptID, authorID uint64, input CommitInput) (*domain.ScriptVersion, error)
	List(ctx context.Context, scriptID, userID uint64, page, pageSize int) (*PaginatedVersions, error)
	Get(ctx context.Context, scriptID, userID, number uint64) (*domain.ScriptVersion, error)
	Latest(ctx context.Context, scriptID, userID uint64) (*domain.ScriptVersion, error)
	Diff(ctx context.Context, scriptID, userID, from, to uint64) (*DiffResult, error)
}

type CommitInput struct {
	Content string
	Message string
}

type PaginatedVersions struct {
	Data []VersionSummary `json:"data"`
	Meta VersionsMeta     `json:"meta"`
}

// DiffResult summarises the line changes between two versions
type DiffResult struct {
	From    uint64 `json:"from"`
	To      uint64 `json:"to"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
	Unified string `json:"unified"`
}

type DefaultService struct {
	repository VersionRepository
	access     *access.Resolver
	cache      *redis.Cache
	notifier   *notify.Notifier
	activity   *activity.Recorder
	log        zerolog.Logger
}

func NewService(
	repository VersionRepository,
	resolver *access.Resolver,
	cache *redis.Cache,
	notifier *notify.Notifier,
	recorder *activity.Recorder,
	log zerolog.Logger,
) Service {
	return &DefaultService{
		repository: repository,
		access:     resolver,
		cache:      cache,
		notifier:   notifier,
		activity:   recorder,
		log:        log,
	}
}

// ContentHash fingerprints content within one script. The script id is part
// of the input so two scripts can hold identical text.
func ContentHash(scriptID uint64, content string) string {
	h := sha256.New()
	h.Write([]byte(strconv.FormatUint(scriptID, 10)))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}

func (s *DefaultService) Commit(ctx context.Context, scriptID, authorID uint64, input CommitInput) (*domain.ScriptVersion, error) {
	sc, _, err := s.access.Require(ctx, scriptID, authorID, access.Editors, "Only the owner or an editor can commit versions")
	if err != nil {
		return nil, err
	}

	version := &domain.ScriptVersion{
		ScriptID:    scriptID,
		AuthorID:    authorID,
		Content:     input.Content,
		ContentHash: ContentHash(scriptID, input.Content),
		Message:     strings.TrimSpace(input.Message),
	}

	// a lost race on the number is retried once against a fresh max
	for attempt := 0; ; attempt++ {
		err = s.repository.Commit(ctx, version)
		if !defError.Is(err, ErrNumberTaken) {
			break
		}
		// the collision may have been on the hash index instead
		if exists, herr := s.repository.HashExists(ctx, version.ContentHash); herr == nil && exists {
			err = ErrHashExists
			break
		}
		if attempt == 1 {
			return nil, errors.ConcurrentVersionConflict("Another version was committed at the same time, retry", err)
		}
		s.log.Debug().Uint64("script_id", scriptID).Msg("version number taken, retrying commit")
	}
	switch {
	case defError.Is(err, ErrHashExists):
		return nil, errors.DuplicateHash("This content is already committed as a version", err)
	case defError.Is(err, gorm.ErrRecordNotFound):
		return nil, errors.NotFound("Script not found", err)
	case err != nil:
		return nil, err
	}

	s.cache.IncrementVersion(ctx, script.OwnerListVersionKey(sc.OwnerID))
	s.activity.Record(authorID, scriptID, domain.ActivityVersionCommitted, domain.ActivityDetails{VersionNumber: version.VersionNumber})

	members, err := s.access.Members(ctx, scriptID)
	if err != nil {
		s.log.Warn().Err(err).Uint64("script_id", scriptID).Msg("failed to load members for notification")
	} else {
		s.notifier.Notify(notify.Event{
			Type:       domain.NotificationVersionCommitted,
			ScriptID:   scriptID,
			ActorID:    authorID,
			Recipients: members,
			Title:      "New version of " + sc.Title,
			Message:    fmt.Sprintf("Version %d was committed", version.VersionNumber),
		})
	}

	return version, nil
}

func (s *DefaultService) List(ctx context.Context, scriptID, userID uint64, page, pageSize int) (*PaginatedVersions, error) {
	if _, _, err := s.access.Require(ctx, scriptID, userID, access.Any, "No access to this script"); err != nil {
		return nil, err
	}
	versions, meta, err := s.repository.List(ctx, scriptID, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &PaginatedVersions{Data: versions, Meta: meta}, nil
}

func (s *DefaultService) Get(ctx context.Context, scriptID, userID, number uint64) (*domain.ScriptVersion, error) {
	if _, _, err := s.access.Require(ctx, scriptID, userID, access.Any, "No access to this script"); err != nil {
		return nil, err
	}
	return s.find(ctx, scriptID, number)
}

func (s *DefaultService) Latest(ctx context.Context, scriptID, userID uint64) (*domain.ScriptVersion, error) {
	if _, _, err := s.access.Require(ctx, scriptID, userID, access.Any, "No access to this script"); err != nil {
		return nil, err
	}
	v, err := s.repository.Latest(ctx, scriptID)
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("Script has no versions yet", err)
	}
	return v, err
}

// Diff compares two versions line by line
func (s *DefaultService) Diff(ctx context.Context, scriptID, userID, from, to uint64) (*DiffResult, error) {
	if _, _, err := s.access.Require(ctx, scriptID, userID, access.Any, "No access to this script"); err != nil {
		return nil, err
	}

	a, err := s.find(ctx, scriptID, from)
	if err != nil {
		return nil, err
	}
	b, err := s.find(ctx, scriptID, to)
	if err != nil {
		return nil, err
	}

	return diffVersions(a, b)
}

func (s *DefaultService) find(ctx context.Context, scriptID, number uint64) (*domain.ScriptVersion, error) {
	v, err := s.repository.FindByNumber(ctx, scriptID, number)
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound(fmt.Sprintf("Version %d not found", number), err)
	}
	return v, err
}

func diffVersions(a, b *domain.ScriptVersion) (*DiffResult, error) {
	before := difflib.SplitLines(a.Content)
	after := difflib.SplitLines(b.Content)

	result := &DiffResult{From: a.VersionNumber, To: b.VersionNumber}
	for _, op := range difflib.NewMatcher(before, after).GetOpCodes() {
		switch op.Tag {
		case 'r':
			result.Removed += op.I2 - op.I1
			result.Added += op.J2 - op.J1
		case 'd':
			result.Removed += op.I2 - op.I1
		case 'i':
			result.Added += op.J2 - op.J1
		}
	}

	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        before,
		B:        after,
		FromFile: fmt.Sprintf("v%d", a.VersionNumber),
		ToFile:   fmt.Sprintf("v%d", b.VersionNumber),
		Context:  2,
	})
	if err != nil {
		return nil, err
	}
	result.Unified = unified
	return result, nil
}
