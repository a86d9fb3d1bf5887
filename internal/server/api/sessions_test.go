package api

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/pinchboard/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func seedSession(t *testing.T, s *store.Store, id string, started time.Time) {
	t.Helper()
	require.NoError(t, s.Sessions().Create(&store.Session{
		ID:           id,
		StartedAt:    started,
		CanvasWidth:  640,
		CanvasHeight: 480,
	}))
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSessionHandler_List(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedSession(t, s, "older", base)
	seedSession(t, s, "newer", base.Add(time.Hour))
	handler := NewSessionHandler(s)

	rec := serve(handler, http.MethodGet, "/api/sessions")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var response listSessionsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	require.Len(t, response.Sessions, 2)
	assert.Equal(t, "newer", response.Sessions[0].ID)
	assert.Equal(t, "older", response.Sessions[1].ID)
	assert.Empty(t, response.Sessions[0].EndedAt)
}

func TestSessionHandler_ListLimit(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		seedSession(t, s, id, base.Add(time.Duration(i)*time.Minute))
	}
	handler := NewSessionHandler(s)

	rec := serve(handler, http.MethodGet, "/api/sessions?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var response listSessionsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Len(t, response.Sessions, 2)

	rec = serve(handler, http.MethodGet, "/api/sessions?limit=lots")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionHandler_ListEmpty(t *testing.T) {
	handler := NewSessionHandler(newTestStore(t))

	rec := serve(handler, http.MethodGet, "/api/sessions")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sessions":[]}`, rec.Body.String())
}

func TestSessionHandler_Get(t *testing.T) {
	s := newTestStore(t)
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedSession(t, s, "sess-1", started)
	require.NoError(t, s.Sessions().End("sess-1", started.Add(time.Minute)))
	handler := NewSessionHandler(s)

	t.Run("existing", func(t *testing.T) {
		rec := serve(handler, http.MethodGet, "/api/sessions/sess-1")
		require.Equal(t, http.StatusOK, rec.Code)

		var response sessionResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "sess-1", response.ID)
		assert.Equal(t, 640, response.CanvasWidth)
		assert.NotEmpty(t, response.EndedAt)
	})

	t.Run("missing", func(t *testing.T) {
		rec := serve(handler, http.MethodGet, "/api/sessions/nope")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSessionHandler_Events(t *testing.T) {
	s := newTestStore(t)
	seedSession(t, s, "sess-1", time.Now())
	require.NoError(t, s.Events().CreateBatch([]*store.Event{
		{SessionID: "sess-1", Kind: "reaction", Action: "reaction:heart", Label: "heart", X: 20, Y: 20},
		{SessionID: "sess-1", Kind: "reaction", Action: "reaction:heart", Label: "heart", X: 21, Y: 20},
		{SessionID: "sess-1", Kind: "full_clear", Action: "delete:all", Label: "all", X: 500, Y: 60},
	}))
	handler := NewSessionHandler(s)

	rec := serve(handler, http.MethodGet, "/api/sessions/sess-1/events")
	require.Equal(t, http.StatusOK, rec.Code)

	var response sessionEventsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, "sess-1", response.SessionID)
	assert.Len(t, response.Events, 3)
	assert.Equal(t, 2, response.Counts["reaction"])
	assert.Equal(t, 1, response.Counts["full_clear"])

	rec = serve(handler, http.MethodGet, "/api/sessions/nope/events")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	seedSession(t, s, "sess-1", time.Now())
	handler := NewSessionHandler(s)

	rec := serve(handler, http.MethodDelete, "/api/sessions/sess-1")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := s.Sessions().GetByID("sess-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	rec = serve(handler, http.MethodDelete, "/api/sessions/sess-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionHandler_Routing(t *testing.T) {
	handler := NewSessionHandler(newTestStore(t))

	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"post collection", http.MethodPost, "/api/sessions", http.StatusMethodNotAllowed},
		{"put item", http.MethodPut, "/api/sessions/x", http.StatusMethodNotAllowed},
		{"post events", http.MethodPost, "/api/sessions/x/events", http.StatusMethodNotAllowed},
		{"unknown subresource", http.MethodGet, "/api/sessions/x/frames", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(handler, tt.method, tt.target)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
