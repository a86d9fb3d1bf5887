package engine

import (
	"fmt"
	"time"

	"github.com/ayusman/pinchboard/internal/cooldown"
	"github.com/ayusman/pinchboard/internal/gesture"
	"github.com/ayusman/pinchboard/internal/ui"
)

// Default engine constants, in display pixels.
const (
	DefaultDrawFloor   = 100.0
	DefaultStrokeWidth = 4.0
	DefaultEraseRadius = 25.0
)

// Board is the persistent raster the engine draws on.
type Board interface {
	DrawSegment(from, to gesture.Point, c ui.Color, width float64)
	EraseDisc(center gesture.Point, radius float64)
	Clear()
}

// Spawner starts the cosmetic animation for a reaction button.
type Spawner interface {
	Spawn(r ui.Reaction, origin gesture.Point)
}

// Config holds the engine constants.
type Config struct {
	// DrawFloor keeps strokes out of the button strip: pinching at
	// y <= DrawFloor draws nothing and ends the open stroke.
	DrawFloor   float64
	StrokeWidth float64
	EraseRadius float64
	Cooldown    time.Duration
}

// DefaultConfig returns the standard engine constants.
func DefaultConfig() Config {
	return Config{
		DrawFloor:   DefaultDrawFloor,
		StrokeWidth: DefaultStrokeWidth,
		EraseRadius: DefaultEraseRadius,
		Cooldown:    cooldown.DefaultWindow,
	}
}

// Engine is the per-frame interaction state machine. It owns the wiring
// (layout, board, spawner, cooldowns) but not the mode state, which callers
// thread through Step.
//
// Step must be called from a single goroutine.
type Engine struct {
	config    Config
	layout    *ui.Layout
	board     Board
	spawner   Spawner
	cooldowns *cooldown.Debouncer[ui.ActionID]
}

// New creates an Engine. The layout is validated first; overlapping or
// off-canvas regions are a configuration error.
func New(config Config, layout *ui.Layout, board Board, spawner Spawner) (*Engine, error) {
	if layout == nil {
		return nil, fmt.Errorf("%w: nil layout", ui.ErrInvalidLayout)
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if board == nil {
		return nil, fmt.Errorf("engine: nil board")
	}
	if spawner == nil {
		spawner = noopSpawner{}
	}

	return &Engine{
		config:    config,
		layout:    layout,
		board:     board,
		spawner:   spawner,
		cooldowns: cooldown.New[ui.ActionID](config.Cooldown),
	}, nil
}

// Layout returns the engine's layout.
func (e *Engine) Layout() *ui.Layout {
	return e.layout
}

// Cooldowns exposes the debouncer so callers can compact it.
func (e *Engine) Cooldowns() *cooldown.Debouncer[ui.ActionID] {
	return e.cooldowns
}

// Step advances the state machine by one frame.
//
//   - No hand: the stroke breaks and nothing else happens.
//   - Pinch: erase at the cursor in partial-erase mode, otherwise extend the
//     stroke when the cursor is below the draw floor.
//   - Open hand: the stroke breaks and regions are checked in order:
//     reactions, clear, palette, delete choices, swatches. Later checks win
//     on shared flags.
func (e *Engine) Step(s State, obs gesture.Observation, now time.Time) (State, []Event) {
	if !obs.Present {
		s.PreviousCursor = nil
		return s, nil
	}

	if obs.Pinch {
		return e.pinch(s, obs.Cursor), nil
	}

	s.PreviousCursor = nil
	s.LastRelease = now

	var events []Event
	s, events = e.checkReactions(s, obs.Cursor, now, events)
	s, events = e.checkClear(s, obs.Cursor, now, events)
	s, events = e.checkPalette(s, obs.Cursor, now, events)
	if s.ShowDeleteOptions {
		s, events = e.checkDeleteChoices(s, obs.Cursor, now, events)
	}
	if s.ShowColorOptions {
		s, events = e.checkSwatches(s, obs.Cursor, now, events)
	}

	return s, events
}

func (e *Engine) pinch(s State, cursor gesture.Point) State {
	if s.PartialErase {
		e.board.EraseDisc(cursor, e.config.EraseRadius)
		s.PreviousCursor = nil
		return s
	}

	if cursor.Y <= e.config.DrawFloor {
		s.PreviousCursor = nil
		return s
	}

	if s.PreviousCursor != nil {
		e.board.DrawSegment(*s.PreviousCursor, cursor, s.CurrentColor, e.config.StrokeWidth)
	}
	c := cursor
	s.PreviousCursor = &c
	return s
}

func (e *Engine) checkReactions(s State, p gesture.Point, now time.Time, events []Event) (State, []Event) {
	for _, btn := range e.layout.Reactions {
		if !btn.Rect.Contains(p) {
			continue
		}
		if !e.cooldowns.TryFire(btn.Action, now) {
			continue
		}
		e.spawner.Spawn(btn.Reaction, btn.Rect.Center())
		events = append(events, newEvent(EventReaction, btn, p, now))
	}
	return s, events
}

func (e *Engine) checkClear(s State, p gesture.Point, now time.Time, events []Event) (State, []Event) {
	if !e.layout.Clear.Rect.Contains(p) {
		return s, events
	}

	if !s.ShowDeleteOptions {
		events = append(events, newEvent(EventDeleteMenuOpened, e.layout.Clear, p, now))
	}
	s.ShowDeleteOptions = true
	if len(s.DeleteChoices) == 0 {
		s.DeleteChoices = e.layout.DeleteChoices()
	}
	return s, events
}

func (e *Engine) checkPalette(s State, p gesture.Point, now time.Time, events []Event) (State, []Event) {
	if !e.layout.Palette.Rect.Contains(p) {
		return s, events
	}

	if !s.ShowColorOptions {
		events = append(events, newEvent(EventPaletteOpened, e.layout.Palette, p, now))
	}
	s.ShowColorOptions = true
	return s, events
}

func (e *Engine) checkDeleteChoices(s State, p gesture.Point, now time.Time, events []Event) (State, []Event) {
	for _, opt := range s.DeleteChoices {
		if !opt.Rect.Contains(p) {
			continue
		}
		if !e.cooldowns.TryFire(opt.Action, now) {
			continue
		}

		switch opt.Action {
		case ui.ActionFullClear:
			e.board.Clear()
			s.PartialErase = false
			events = append(events, newEvent(EventFullClear, opt, p, now))
		case ui.ActionPartialErase:
			s.PartialErase = true
			events = append(events, newEvent(EventPartialErase, opt, p, now))
		}

		s.ShowDeleteOptions = false
		s.DeleteChoices = nil
		break
	}
	return s, events
}

func (e *Engine) checkSwatches(s State, p gesture.Point, now time.Time, events []Event) (State, []Event) {
	for _, sw := range e.layout.Swatches {
		if !sw.Rect.Contains(p) {
			continue
		}
		if !e.cooldowns.TryFire(sw.Action, now) {
			continue
		}

		s.PartialErase = false
		s.CurrentColor = sw.Color
		s.ShowColorOptions = false

		ev := newEvent(EventColorSelected, sw, p, now)
		ev.Color = sw.Color.Name
		events = append(events, ev)
	}
	return s, events
}

func newEvent(kind EventKind, r ui.Region, p gesture.Point, now time.Time) Event {
	return Event{
		Kind:   kind,
		Action: r.Action,
		Label:  r.Label,
		Cursor: p,
		At:     now,
	}
}

type noopSpawner struct{}

func (noopSpawner) Spawn(ui.Reaction, gesture.Point) {}
