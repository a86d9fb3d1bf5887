// Package app wires the hand tracker, the interaction engine and the board
// renderer into the running application.
package app

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/pinchboard/internal/board"
	"github.com/ayusman/pinchboard/internal/engine"
	"github.com/ayusman/pinchboard/internal/gesture"
	"github.com/ayusman/pinchboard/internal/reaction"
	"github.com/ayusman/pinchboard/internal/store"
	"github.com/ayusman/pinchboard/internal/tracker"
	"github.com/ayusman/pinchboard/internal/ui"
)

// DefaultRenderFPS is the tick rate used when Config.RenderFPS is not set.
const DefaultRenderFPS = 30

// ErrNoFrame is returned by LatestJPEG before the first tick has rendered.
var ErrNoFrame = errors.New("no frame rendered yet")

// HandSource is the producer side of the board: the latest hand snapshot
// plus the camera frame it came from. *tracker.Tracker implements it.
type HandSource interface {
	Latest() tracker.Snapshot
	SetEnabled(enabled bool)
	Enabled() bool
	WithFrame(fn func(frame *gocv.Mat)) bool
}

// Listener receives every event the engine emits, on the tick goroutine.
// Listeners must not block.
type Listener func(engine.Event)

// Config holds configuration options for the application.
type Config struct {
	Width          int
	Height         int
	PinchThreshold float64
	Engine         engine.Config
	RenderFPS      int

	// Settings, when set, persists the tracking toggle across runs.
	Settings *store.SettingsRepository
	Log      logrus.FieldLogger
}

// App is the consumer side of the board. Tick runs the classifier, the
// engine and the renderer once; Run calls Tick at the render rate.
type App struct {
	config     Config
	hands      HandSource
	classifier *gesture.Classifier
	engine     *engine.Engine
	canvas     *board.Canvas
	renderer   *board.Renderer
	fx         *reaction.FX
	log        logrus.FieldLogger

	mu        sync.RWMutex
	state     engine.State
	obs       gesture.Observation
	jpeg      []byte
	listeners []Listener

	clearRequested atomic.Bool
}

// New creates an App drawing on a fresh canvas. The layout is built for the
// configured size and validated by the engine.
func New(config Config, hands HandSource) (*App, error) {
	if config.Width <= 0 || config.Height <= 0 {
		return nil, errors.New("app: canvas size must be positive")
	}
	if hands == nil {
		return nil, errors.New("app: nil hand source")
	}
	if config.RenderFPS <= 0 {
		config.RenderFPS = DefaultRenderFPS
	}
	if config.Engine == (engine.Config{}) {
		config.Engine = engine.DefaultConfig()
	}
	log := config.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	layout := ui.NewLayout(config.Width, config.Height)
	canvas := board.NewCanvas(config.Width, config.Height)
	fx := reaction.NewFX(config.Width, config.Height)

	eng, err := engine.New(config.Engine, layout, canvas, fx)
	if err != nil {
		canvas.Close()
		return nil, err
	}

	a := &App{
		config:     config,
		hands:      hands,
		classifier: gesture.NewClassifier(config.Width, config.PinchThreshold),
		engine:     eng,
		canvas:     canvas,
		renderer:   board.NewRenderer(layout, canvas, config.Engine.EraseRadius),
		fx:         fx,
		log:        log.WithField("component", "app"),
		state:      engine.InitialState(),
	}

	if config.Settings != nil {
		enabled := config.Settings.GetBool(store.SettingTrackingEnabled, true)
		hands.SetEnabled(enabled)
	}

	return a, nil
}

// Subscribe adds a listener for engine events.
func (a *App) Subscribe(l Listener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, l)
}

// State returns a copy of the current interaction state.
func (a *App) State() engine.State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.Clone()
}

// Observation returns the classifier output of the last tick.
func (a *App) Observation() gesture.Observation {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.obs
}

// LatestJPEG returns the most recently rendered frame.
func (a *App) LatestJPEG() ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.jpeg == nil {
		return nil, ErrNoFrame
	}
	return a.jpeg, nil
}

// ReactionCount returns the number of live reaction animations.
func (a *App) ReactionCount() int {
	return a.fx.Len()
}

// TrackingEnabled reports whether hand detection is running.
func (a *App) TrackingEnabled() bool {
	return a.hands.Enabled()
}

// SetTrackingEnabled pauses or resumes hand detection and remembers the
// choice when settings are configured.
func (a *App) SetTrackingEnabled(enabled bool) error {
	a.hands.SetEnabled(enabled)
	if a.config.Settings == nil {
		return nil
	}
	return a.config.Settings.SetBool(store.SettingTrackingEnabled, enabled)
}

// ClearBoard asks the next tick to wipe the canvas, the same as choosing
// "all" in the delete menu.
func (a *App) ClearBoard() {
	a.clearRequested.Store(true)
}

// Canvas returns the drawing surface.
func (a *App) Canvas() *board.Canvas {
	return a.canvas
}

// Engine returns the interaction engine.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Close releases the canvas. The app must not be ticked afterwards.
func (a *App) Close() error {
	a.fx.Reset()
	return a.canvas.Close()
}

func (a *App) emit(events []engine.Event) {
	if len(events) == 0 {
		return
	}

	a.mu.RLock()
	listeners := a.listeners
	a.mu.RUnlock()

	for _, ev := range events {
		a.log.WithFields(logrus.Fields{
			"kind":   ev.Kind.String(),
			"action": ev.Action.String(),
			"x":      int(ev.Cursor.X),
			"y":      int(ev.Cursor.Y),
		}).Info("action triggered")
		for _, l := range listeners {
			l(ev)
		}
	}
}

func (a *App) remoteClear(s engine.State, now time.Time) (engine.State, engine.Event) {
	a.canvas.Clear()
	s.PreviousCursor = nil
	s.PartialErase = false
	return s, engine.Event{
		Kind:   engine.EventFullClear,
		Action: ui.ActionFullClear,
		Label:  "remote",
		At:     now,
	}
}
