// Package journal records engine events to the store without blocking the
// render tick.
package journal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/pinchboard/internal/engine"
	"github.com/ayusman/pinchboard/internal/store"
)

// DefaultBuffer is the number of events that may wait for the writer.
const DefaultBuffer = 256

// flushInterval bounds how long a partial batch waits before it is written.
const flushInterval = 500 * time.Millisecond

// ErrNotStarted is returned by Run when Start was not called first.
var ErrNotStarted = errors.New("journal: session not started")

// Recorder writes engine events for one session. Record never blocks: when
// the buffer is full the event is dropped and counted.
type Recorder struct {
	store *store.Store
	log   logrus.FieldLogger
	queue chan engine.Event

	mu        sync.Mutex
	sessionID string

	dropped atomic.Uint64
	written atomic.Uint64
}

// NewRecorder creates a Recorder over s. buffer <= 0 uses DefaultBuffer.
func NewRecorder(s *store.Store, buffer int, log logrus.FieldLogger) *Recorder {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Recorder{
		store: s,
		log:   log.WithField("component", "journal"),
		queue: make(chan engine.Event, buffer),
	}
}

// Start opens a new session for a width x height canvas and returns its ID.
func (r *Recorder) Start(width, height int, now time.Time) (string, error) {
	sess := &store.Session{
		ID:           uuid.NewString(),
		StartedAt:    now,
		CanvasWidth:  width,
		CanvasHeight: height,
	}
	if err := r.store.Sessions().Create(sess); err != nil {
		return "", err
	}

	r.mu.Lock()
	r.sessionID = sess.ID
	r.mu.Unlock()

	r.log.WithField("session", sess.ID).Info("session started")
	return sess.ID, nil
}

// SessionID returns the current session, or "" before Start.
func (r *Recorder) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionID
}

// Record queues ev for writing. It reports whether the event was accepted.
func (r *Recorder) Record(ev engine.Event) bool {
	select {
	case r.queue <- ev:
		return true
	default:
		n := r.dropped.Add(1)
		r.log.WithFields(logrus.Fields{
			"kind":    ev.Kind.String(),
			"dropped": n,
		}).Warn("journal buffer full, dropping event")
		return false
	}
}

// Dropped returns the number of events discarded because the buffer was full.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Written returns the number of events persisted.
func (r *Recorder) Written() uint64 {
	return r.written.Load()
}

// Run writes queued events until ctx is cancelled, then drains the queue and
// ends the session.
func (r *Recorder) Run(ctx context.Context) error {
	sessionID := r.SessionID()
	if sessionID == "" {
		return ErrNotStarted
	}

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	var batch []*store.Event
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := r.store.Events().CreateBatch(batch); err != nil {
			r.log.WithError(err).WithField("events", len(batch)).Error("failed to write events")
		} else {
			r.written.Add(uint64(len(batch)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case ev := <-r.queue:
			batch = append(batch, toStoreEvent(sessionID, ev))
			if len(batch) >= cap(r.queue) {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
		drain:
			for {
				select {
				case ev := <-r.queue:
					batch = append(batch, toStoreEvent(sessionID, ev))
				default:
					break drain
				}
			}
			flush()
			return r.end(sessionID)
		}
	}
}

func (r *Recorder) end(sessionID string) error {
	if err := r.store.Sessions().End(sessionID, time.Now()); err != nil {
		r.log.WithError(err).Error("failed to end session")
		return err
	}
	r.log.WithFields(logrus.Fields{
		"session": sessionID,
		"written": r.Written(),
		"dropped": r.Dropped(),
	}).Info("session ended")
	return nil
}

func toStoreEvent(sessionID string, ev engine.Event) *store.Event {
	return &store.Event{
		SessionID: sessionID,
		Kind:      ev.Kind.String(),
		Action:    ev.Action.String(),
		Label:     ev.Label,
		Color:     ev.Color,
		X:         ev.Cursor.X,
		Y:         ev.Cursor.Y,
		CreatedAt: ev.At,
	}
}
