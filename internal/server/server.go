// Package server provides the HTTP surface of the board: health, live state,
// the MJPEG stream, the event WebSocket and the session journal API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/pinchboard/internal/engine"
	"github.com/ayusman/pinchboard/internal/server/api"
	"github.com/ayusman/pinchboard/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Board is the running board as seen by HTTP clients.
type Board interface {
	State() engine.State
	ReactionCount() int
	TrackingEnabled() bool
	SetTrackingEnabled(enabled bool) error
	ClearBoard()
	FrameSource
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Board     Board
	Hub       *Hub
	StreamFPS int
	Log       logrus.FieldLogger
}

// Server is the HTTP server for the board.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	log    logrus.FieldLogger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	log := config.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		log:    log.WithField("component", "server"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		sessions := api.NewSessionHandler(s.config.Store)
		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)
	}

	if s.config.Board != nil {
		s.mux.HandleFunc("/api/state", s.handleState)
		s.mux.HandleFunc("/api/clear", s.handleClear)
		s.mux.HandleFunc("/api/tracking", s.handleTracking)
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Board, s.config.StreamFPS, s.log))
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/events", s.config.Hub)
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Hub != nil {
		response["clients"] = s.config.Hub.Clients()
	}

	writeJSON(w, http.StatusOK, response)
}

type stateResponse struct {
	Tracking          bool       `json:"tracking"`
	Stroking          bool       `json:"stroking"`
	ShowDeleteOptions bool       `json:"show_delete_options"`
	ShowColorOptions  bool       `json:"show_color_options"`
	PartialErase      bool       `json:"partial_erase"`
	Color             string     `json:"color"`
	DeleteChoices     []string   `json:"delete_choices"`
	Reactions         int        `json:"reactions"`
	LastRelease       *time.Time `json:"last_release,omitempty"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	st := s.config.Board.State()
	resp := stateResponse{
		Tracking:          s.config.Board.TrackingEnabled(),
		Stroking:          st.Stroking(),
		ShowDeleteOptions: st.ShowDeleteOptions,
		ShowColorOptions:  st.ShowColorOptions,
		PartialErase:      st.PartialErase,
		Color:             st.CurrentColor.Name,
		DeleteChoices:     make([]string, 0, len(st.DeleteChoices)),
		Reactions:         s.config.Board.ReactionCount(),
	}
	for _, c := range st.DeleteChoices {
		resp.DeleteChoices = append(resp.DeleteChoices, c.Label)
	}
	if !st.LastRelease.IsZero() {
		at := st.LastRelease
		resp.LastRelease = &at
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.config.Board.ClearBoard()
	s.log.Info("board cleared over HTTP")
	w.WriteHeader(http.StatusNoContent)
}

type trackingRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) handleTracking(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]bool{"enabled": s.config.Board.TrackingEnabled()})
	case http.MethodPut:
		var req trackingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "enabled is required"})
			return
		}
		if err := s.config.Board.SetTrackingEnabled(*req.Enabled); err != nil {
			s.log.WithError(err).Warn("persist tracking setting")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to save setting"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"enabled": *req.Enabled})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	if s.config.Hub != nil {
		s.config.Hub.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
