package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"screenplay-collab/internal/db/dbtest"
	"screenplay-collab/internal/domain"
	"screenplay-collab/internal/worker"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockWriter) Close() error {
	return m.Called().Error(0)
}

type failingDispatcher struct{}

func (failingDispatcher) Dispatch(ctx context.Context, event Event) error {
	return errors.New("down")
}

func TestStoreDispatcher_SkipsActorAndDuplicates(t *testing.T) {
	gdb := dbtest.New(t)
	d := NewStoreDispatcher(gdb)
	script := dbtest.Script(t, gdb, dbtest.User(t, gdb, "owner@example.com").ID, "Heat")

	err := d.Dispatch(context.Background(), Event{
		Type:       domain.NotificationCommentAdded,
		ScriptID:   script.ID,
		ActorID:    1,
		Recipients: []uint64{1, 2, 3, 2},
		Title:      "New comment",
	})
	require.NoError(t, err)

	var rows []domain.Notification
	require.NoError(t, gdb.Order("user_id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, uint64(2), rows[0].UserID)
	assert.Equal(t, uint64(3), rows[1].UserID)
	assert.Equal(t, script.ID, *rows[0].ScriptID)
}

func TestStoreDispatcher_SkipsDeletedScript(t *testing.T) {
	gdb := dbtest.New(t)
	d := NewStoreDispatcher(gdb)

	err := d.Dispatch(context.Background(), Event{
		Type:       domain.NotificationVersionCommitted,
		ScriptID:   404,
		ActorID:    1,
		Recipients: []uint64{2},
	})
	require.NoError(t, err)

	var count int64
	gdb.Model(&domain.Notification{}).Count(&count)
	assert.Zero(t, count)
}

func TestKafkaPublisher_KeysByScript(t *testing.T) {
	w := new(mockWriter)
	p := &KafkaPublisher{writer: w}

	w.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		if len(msgs) != 1 || string(msgs[0].Key) != "12" {
			return false
		}
		var e Event
		return json.Unmarshal(msgs[0].Value, &e) == nil && e.Type == domain.NotificationVersionCommitted
	})).Return(nil)

	err := p.Dispatch(context.Background(), Event{Type: domain.NotificationVersionCommitted, ScriptID: 12})
	require.NoError(t, err)
	w.AssertExpectations(t)
}

func TestMulti_JoinsErrorsButRunsAll(t *testing.T) {
	gdb := dbtest.New(t)
	m := Multi{failingDispatcher{}, NewStoreDispatcher(gdb)}
	script := dbtest.Script(t, gdb, dbtest.User(t, gdb, "owner@example.com").ID, "Heat")

	err := m.Dispatch(context.Background(), Event{Type: domain.NotificationCollaboratorInvited, ScriptID: script.ID, ActorID: 1, Recipients: []uint64{2}})
	assert.Error(t, err)

	var count int64
	gdb.Model(&domain.Notification{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestNotifier_AndInbox(t *testing.T) {
	gdb := dbtest.New(t)
	n := NewNotifier(NewStoreDispatcher(gdb), worker.Inline{Log: zerolog.Nop()}, zerolog.Nop())
	script := dbtest.Script(t, gdb, dbtest.User(t, gdb, "owner@example.com").ID, "Heat")

	n.Notify(Event{Type: domain.NotificationCommentAdded, ScriptID: script.ID, ActorID: 1, Recipients: []uint64{2}, Title: "a"})
	n.Notify(Event{Type: domain.NotificationCommentAdded, ScriptID: script.ID, ActorID: 1, Recipients: []uint64{2}, Title: "b"})

	inbox := NewInbox(gdb)
	ctx := context.Background()

	list, total, err := inbox.List(ctx, 2, true, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)

	require.NoError(t, inbox.MarkRead(ctx, list[0].ID, 2))
	_, total, err = inbox.List(ctx, 2, true, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	err = inbox.MarkRead(ctx, list[0].ID, 3)
	assert.Error(t, err)

	updated, err := inbox.MarkAllRead(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)
}
