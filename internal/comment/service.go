package comment

import (
	"context"
	defError "errors"
	"strings"
	"time"

	"screenplay-collab/internal/access"
	"screenplay-collab/internal/activity"
	"screenplay-collab/internal/domain"
	"screenplay-collab/internal/errors"
	"screenplay-collab/internal/notify"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Service interface {
	Add(ctx context.Context, scriptID, authorID uint64, input AddInput) (*domain.Comment, error)
	Resolve(ctx context.Context, commentID, userID uint64) (*domain.Comment, error)
	Reopen(ctx context.Context, commentID, userID uint64) (*domain.Comment, error)
	Edit(ctx context.Context, commentID, userID uint64, content string) (*domain.Comment, error)
	Delete(ctx context.Context, commentID, userID uint64) error
	List(ctx context.Context, scriptID, userID uint64, includeResolved bool) ([]*Thread, error)
}

type AddInput struct {
	Content  string
	Range    domain.CommentRange
	ParentID *uint64
}

// Thread is a comment with its replies, oldest first
type Thread struct {
	domain.Comment
	Replies []*Thread `json:"replies"`
}

type DefaultService struct {
	repository CommentRepository
	access     *access.Resolver
	notifier   *notify.Notifier
	activity   *activity.Recorder
	log        zerolog.Logger
}

func NewService(
	repository CommentRepository,
	resolver *access.Resolver,
	notifier *notify.Notifier,
	recorder *activity.Recorder,
	log zerolog.Logger,
) Service {
	return &DefaultService{
		repository: repository,
		access:     resolver,
		notifier:   notifier,
		activity:   recorder,
		log:        log,
	}
}

func (s *DefaultService) Add(ctx context.Context, scriptID, authorID uint64, input AddInput) (*domain.Comment, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, errors.Validation("Comment cannot be empty", nil)
	}
	if !input.Range.Valid() {
		return nil, errors.Validation("Invalid comment range", nil)
	}

	script, _, err := s.access.Require(ctx, scriptID, authorID, access.Commenters, "Your role can't comment on this script")
	if err != nil {
		return nil, err
	}

	var parent *domain.Comment
	if input.ParentID != nil {
		parent, err = s.repository.FindByID(ctx, *input.ParentID)
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.InvalidParent("Parent comment not found", err)
		}
		if err != nil {
			return nil, err
		}
		if parent.ScriptID != scriptID {
			return nil, errors.InvalidParent("Parent comment belongs to another script", nil)
		}
	}

	comment := &domain.Comment{
		ScriptID: scriptID,
		UserID:   authorID,
		ParentID: input.ParentID,
		Content:  content,
		Range:    input.Range,
	}
	if err := s.repository.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.activity.Record(authorID, scriptID, domain.ActivityCommentAdded, domain.ActivityDetails{CommentID: comment.ID})

	recipients, err := s.access.Members(ctx, scriptID)
	if err != nil {
		s.log.Warn().Err(err).Uint64("script_id", scriptID).Msg("failed to load members for notification")
	}
	if parent != nil {
		recipients = append(recipients, parent.UserID)
	}
	s.notifier.Notify(notify.Event{
		Type:       domain.NotificationCommentAdded,
		ScriptID:   scriptID,
		ActorID:    authorID,
		Recipients: recipients,
		Title:      "New comment on " + script.Title,
		Message:    preview(content),
	})

	return comment, nil
}

func preview(content string) string {
	const limit = 120
	r := []rune(content)
	if len(r) <= limit {
		return content
	}
	return string(r[:limit]) + "..."
}

// load returns the comment after checking that userID passes allowed on its script
func (s *DefaultService) load(ctx context.Context, commentID, userID uint64, allowed func(access.Role) bool, message string) (*domain.Comment, *domain.Script, error) {
	comment, err := s.repository.FindByID(ctx, commentID)
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, errors.NotFound("Comment not found", err)
	}
	if err != nil {
		return nil, nil, err
	}

	script, _, err := s.access.Require(ctx, comment.ScriptID, userID, allowed, message)
	if err != nil {
		if errors.HasCode(err, errors.CodeNotFound) {
			return nil, nil, errors.NotFound("Comment not found", err)
		}
		return nil, nil, err
	}
	return comment, script, nil
}

// Resolve marks the comment resolved. Resolving twice is a no-op.
func (s *DefaultService) Resolve(ctx context.Context, commentID, userID uint64) (*domain.Comment, error) {
	comment, _, err := s.load(ctx, commentID, userID, access.Commenters, "Your role can't resolve comments")
	if err != nil {
		return nil, err
	}
	if comment.Resolved {
		return comment, nil
	}

	now := time.Now().UTC()
	if err := s.repository.SetResolved(ctx, comment.ID, true, &userID, &now); err != nil {
		return nil, err
	}
	comment.Resolved = true
	comment.ResolvedBy = &userID
	comment.ResolvedAt = &now

	s.activity.Record(userID, comment.ScriptID, domain.ActivityCommentResolved, domain.ActivityDetails{CommentID: comment.ID})
	return comment, nil
}

func (s *DefaultService) Reopen(ctx context.Context, commentID, userID uint64) (*domain.Comment, error) {
	comment, _, err := s.load(ctx, commentID, userID, access.Commenters, "Your role can't reopen comments")
	if err != nil {
		return nil, err
	}
	if !comment.Resolved {
		return comment, nil
	}

	if err := s.repository.SetResolved(ctx, comment.ID, false, nil, nil); err != nil {
		return nil, err
	}
	comment.Resolved = false
	comment.ResolvedBy = nil
	comment.ResolvedAt = nil
	return comment, nil
}

func (s *DefaultService) Edit(ctx context.Context, commentID, userID uint64, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.Validation("Comment cannot be empty", nil)
	}

	comment, _, err := s.load(ctx, commentID, userID, access.Any, "No access to this script")
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, errors.Forbidden("Only the author can edit a comment", nil)
	}

	ok, err := s.repository.UpdateContent(ctx, comment.ID, content, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NotFound("Comment not found", nil)
	}
	return s.repository.FindByID(ctx, comment.ID)
}

// Delete removes the comment together with all replies below it
func (s *DefaultService) Delete(ctx context.Context, commentID, userID uint64) error {
	comment, script, err := s.load(ctx, commentID, userID, access.Any, "No access to this script")
	if err != nil {
		return err
	}
	if comment.UserID != userID && script.OwnerID != userID {
		return errors.Forbidden("Only the author or the script owner can delete a comment", nil)
	}

	deleted, err := s.repository.DeleteTree(ctx, comment.ID)
	if err != nil {
		return err
	}

	s.log.Debug().Uint64("comment_id", comment.ID).Int64("deleted", deleted).Msg("comment thread deleted")
	s.activity.Record(userID, comment.ScriptID, domain.ActivityCommentDeleted, domain.ActivityDetails{CommentID: comment.ID})
	return nil
}

// List returns the script's comments as threads. Without includeResolved a
// resolved comment is hidden together with its replies.
func (s *DefaultService) List(ctx context.Context, scriptID, userID uint64, includeResolved bool) ([]*Thread, error) {
	if _, _, err := s.access.Require(ctx, scriptID, userID, access.Any, "No access to this script"); err != nil {
		return nil, err
	}

	comments, err := s.repository.ListByScript(ctx, scriptID)
	if err != nil {
		return nil, err
	}
	return buildThreads(comments, includeResolved), nil
}

func buildThreads(comments []domain.Comment, includeResolved bool) []*Thread {
	nodes := make(map[uint64]*Thread, len(comments))
	for i := range comments {
		nodes[comments[i].ID] = &Thread{Comment: comments[i], Replies: []*Thread{}}
	}

	roots := []*Thread{}
	// comments arrive oldest first, so appending keeps replies ordered
	for i := range comments {
		node := nodes[comments[i].ID]
		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*node.ParentID]; ok {
			parent.Replies = append(parent.Replies, node)
		}
	}

	if includeResolved {
		return roots
	}
	return prune(roots)
}

func prune(threads []*Thread) []*Thread {
	out := make([]*Thread, 0, len(threads))
	for _, t := range threads {
		if t.Resolved {
			continue
		}
		t.Replies = prune(t.Replies)
		out = append(out, t)
	}
	return out
}
