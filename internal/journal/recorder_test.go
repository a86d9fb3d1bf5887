package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/pinchboard/internal/engine"
	"github.com/ayusman/pinchboard/internal/gesture"
	"github.com/ayusman/pinchboard/internal/store"
	"github.com/ayusman/pinchboard/internal/ui"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func reactionEvent(r ui.Reaction, at time.Time) engine.Event {
	return engine.Event{
		Kind:   engine.EventReaction,
		Action: ui.ReactionAction(r),
		Label:  r.String(),
		Cursor: gesture.Point{X: 60, Y: 50},
		At:     at,
	}
}

func TestRecorder_Start(t *testing.T) {
	s := newTestStore(t)
	log, _ := test.NewNullLogger()
	r := NewRecorder(s, 0, log)

	assert.Empty(t, r.SessionID())

	id, err := r.Start(640, 480, time.Now())
	require.NoError(t, err)

	_, err = uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, id, r.SessionID())

	sess, err := s.Sessions().GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, 640, sess.CanvasWidth)
	assert.Nil(t, sess.EndedAt)
}

func TestRecorder_RunWithoutStart(t *testing.T) {
	r := NewRecorder(newTestStore(t), 0, nil)

	assert.ErrorIs(t, r.Run(context.Background()), ErrNotStarted)
}

func TestRecorder_WritesEventsAndEndsSession(t *testing.T) {
	s := newTestStore(t)
	log, _ := test.NewNullLogger()
	r := NewRecorder(s, 16, log)

	id, err := r.Start(640, 480, time.Now())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	now := time.Now()
	assert.True(t, r.Record(reactionEvent(ui.ReactionHeart, now)))
	assert.True(t, r.Record(engine.Event{
		Kind:   engine.EventColorSelected,
		Action: ui.SwatchAction(0),
		Label:  "crimson",
		Color:  "crimson",
		Cursor: gesture.Point{X: 35, Y: 305},
		At:     now.Add(time.Second),
	}))

	require.Eventually(t, func() bool { return r.Written() == 2 }, 3*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	events, err := s.Events().ListBySession(id)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "reaction", events[0].Kind)
	assert.Equal(t, "heart", events[0].Action)
	assert.Equal(t, "color_selected", events[1].Kind)
	assert.Equal(t, "swatch_0", events[1].Action)
	assert.Equal(t, "crimson", events[1].Color)

	sess, err := s.Sessions().GetByID(id)
	require.NoError(t, err)
	assert.NotNil(t, sess.EndedAt)
}

func TestRecorder_DrainsOnShutdown(t *testing.T) {
	s := newTestStore(t)
	r := NewRecorder(s, 64, nil)
	id, err := r.Start(640, 480, time.Now())
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.True(t, r.Record(reactionEvent(ui.ReactionClap, time.Now())))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, r.Run(ctx))

	events, err := s.Events().ListBySession(id)
	require.NoError(t, err)
	assert.Len(t, events, 10)
	assert.Equal(t, uint64(10), r.Written())
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	log, hook := test.NewNullLogger()
	r := NewRecorder(newTestStore(t), 2, log)

	assert.True(t, r.Record(reactionEvent(ui.ReactionHeart, time.Now())))
	assert.True(t, r.Record(reactionEvent(ui.ReactionHeart, time.Now())))
	assert.False(t, r.Record(reactionEvent(ui.ReactionHeart, time.Now())))

	assert.Equal(t, uint64(1), r.Dropped())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "journal buffer full, dropping event", hook.LastEntry().Message)
}
