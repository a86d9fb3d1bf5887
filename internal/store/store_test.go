package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore creates a Store backed by a file in a per-test directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func createSession(t *testing.T, s *Store, id string, started time.Time) *Session {
	t.Helper()
	sess := &Session{ID: id, StartedAt: started, CanvasWidth: 640, CanvasHeight: 480}
	require.NoError(t, s.Sessions().Create(sess))
	return sess
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	_, err := os.Stat(dbPath)
	require.True(t, os.IsNotExist(err))

	s, err := New(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
	assert.Equal(t, dbPath, s.Path())
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"sessions", "events", "settings"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		assert.NoError(t, err, "table %q should exist after migrations", table)
	}

	version, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, len(schema), version)
}

func TestNewStore_RejectsNewerSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	require.NoError(t, err)
	_, err = s.DB().Exec(fmt.Sprintf("PRAGMA user_version = %d", len(schema)+1))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = New(dbPath)
	assert.ErrorContains(t, err, "newer than this build")
}

func TestNewStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	require.NoError(t, err)
	createSession(t, s, "s1", time.Now())
	require.NoError(t, s.Close())

	s, err = New(dbPath)
	require.NoError(t, err)
	defer s.Close()

	sess, err := s.Sessions().GetByID("s1")
	require.NoError(t, err)
	assert.Equal(t, 640, sess.CanvasWidth)
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.Error(t, s.DB().Ping(), "database should be closed")
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	started := time.Now().Add(-time.Minute).Truncate(time.Second)
	createSession(t, s, "s1", started)

	sess, err := s.Sessions().GetByID("s1")
	require.NoError(t, err)

	assert.Equal(t, "s1", sess.ID)
	assert.True(t, sess.StartedAt.Equal(started))
	assert.Nil(t, sess.EndedAt)
	assert.Equal(t, 480, sess.CanvasHeight)
	assert.Zero(t, sess.EventCount)
}

func TestSessionRepository_CreateDefaultsStart(t *testing.T) {
	s := newTestStore(t)
	sess := &Session{ID: "s1", CanvasWidth: 640, CanvasHeight: 480}

	require.NoError(t, s.Sessions().Create(sess))

	assert.False(t, sess.StartedAt.IsZero())
}

func TestSessionRepository_GetNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Sessions().GetByID("missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRepository_End(t *testing.T) {
	s := newTestStore(t)
	createSession(t, s, "s1", time.Now())
	ended := time.Now().Add(time.Hour).Truncate(time.Second)

	require.NoError(t, s.Sessions().End("s1", ended))

	sess, err := s.Sessions().GetByID("s1")
	require.NoError(t, err)
	require.NotNil(t, sess.EndedAt)
	assert.True(t, sess.EndedAt.Equal(ended))

	assert.ErrorIs(t, s.Sessions().End("missing", ended), ErrNotFound)
}

func TestSessionRepository_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().Truncate(time.Second)
	createSession(t, s, "old", base.Add(-2*time.Hour))
	createSession(t, s, "mid", base.Add(-time.Hour))
	createSession(t, s, "new", base)

	all, err := s.Sessions().List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "new", all[0].ID)
	assert.Equal(t, "old", all[2].ID)

	limited, err := s.Sessions().List(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSessionRepository_DeleteCascades(t *testing.T) {
	s := newTestStore(t)
	createSession(t, s, "s1", time.Now())
	require.NoError(t, s.Events().Create(&Event{SessionID: "s1", Kind: "reaction", Action: "heart"}))

	require.NoError(t, s.Sessions().Delete("s1"))

	events, err := s.Events().ListBySession("s1")
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.ErrorIs(t, s.Sessions().Delete("s1"), ErrNotFound)
}

func TestEventRepository_CreateAndList(t *testing.T) {
	s := newTestStore(t)
	createSession(t, s, "s1", time.Now())

	first := &Event{SessionID: "s1", Kind: "reaction", Action: "heart", Label: "heart", X: 260, Y: 50}
	second := &Event{SessionID: "s1", Kind: "color_selected", Action: "swatch_0", Color: "crimson", X: 35, Y: 305}
	require.NoError(t, s.Events().Create(first))
	require.NoError(t, s.Events().Create(second))
	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)

	events, err := s.Events().ListBySession("s1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "reaction", events[0].Kind)
	assert.Equal(t, "crimson", events[1].Color)
	assert.Equal(t, 305.0, events[1].Y)
	assert.False(t, events[0].CreatedAt.IsZero())

	sess, err := s.Sessions().GetByID("s1")
	require.NoError(t, err)
	assert.Equal(t, 2, sess.EventCount)
}

func TestEventRepository_RequiresSession(t *testing.T) {
	s := newTestStore(t)

	err := s.Events().Create(&Event{SessionID: "missing", Kind: "reaction", Action: "heart"})

	assert.Error(t, err, "foreign key should reject unknown sessions")
}

func TestEventRepository_CreateBatch(t *testing.T) {
	s := newTestStore(t)
	createSession(t, s, "s1", time.Now())

	batch := []*Event{
		{SessionID: "s1", Kind: "reaction", Action: "clap"},
		{SessionID: "s1", Kind: "reaction", Action: "heart"},
		{SessionID: "s1", Kind: "full_clear", Action: "full_clear"},
	}
	require.NoError(t, s.Events().CreateBatch(batch))
	require.NoError(t, s.Events().CreateBatch(nil))

	for _, e := range batch {
		assert.NotZero(t, e.ID)
	}

	counts, err := s.Events().CountByKind("s1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"reaction": 2, "full_clear": 1}, counts)
}

func TestEventRepository_CreateBatchIsAtomic(t *testing.T) {
	s := newTestStore(t)
	createSession(t, s, "s1", time.Now())

	err := s.Events().CreateBatch([]*Event{
		{SessionID: "s1", Kind: "reaction", Action: "clap"},
		{SessionID: "missing", Kind: "reaction", Action: "heart"},
	})
	require.Error(t, err)

	events, err := s.Events().ListBySession("s1")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSettingsRepository(t *testing.T) {
	s := newTestStore(t)
	settings := s.Settings()

	_, err := settings.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, settings.Set("k", "v1"))
	require.NoError(t, settings.Set("k", "v2"))
	v, err := settings.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)

	assert.True(t, settings.GetBool(SettingTrackingEnabled, true))
	require.NoError(t, settings.SetBool(SettingTrackingEnabled, false))
	assert.False(t, settings.GetBool(SettingTrackingEnabled, true))

	require.NoError(t, settings.Set("junk", "maybe"))
	assert.True(t, settings.GetBool("junk", true))
}
