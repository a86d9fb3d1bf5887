// Package engine turns per-frame gesture observations into board commands,
// button actions and mode changes.
package engine

import (
	"time"

	"github.com/ayusman/pinchboard/internal/gesture"
	"github.com/ayusman/pinchboard/internal/ui"
)

// State is the interaction state carried from one tick to the next. It is a
// plain value: Step receives the current State and returns the next one.
type State struct {
	// PreviousCursor is the last point of the stroke in progress, or nil when
	// no stroke is open.
	PreviousCursor *gesture.Point `json:"previous_cursor"`

	ShowDeleteOptions bool     `json:"show_delete_options"`
	ShowColorOptions  bool     `json:"show_color_options"`
	PartialErase      bool     `json:"partial_erase"`
	CurrentColor      ui.Color `json:"current_color"`

	// DeleteChoices holds the delete-choice regions while the delete menu is
	// open. They are created on the first clear-button hit and discarded once
	// a choice fires.
	DeleteChoices []ui.Region `json:"delete_choices"`

	// LastRelease is the time of the most recent frame with a visible,
	// non-pinching hand.
	LastRelease time.Time `json:"last_release"`
}

// InitialState returns the state at session start: black ink, no menus, no
// stroke in progress.
func InitialState() State {
	return State{CurrentColor: ui.Black}
}

// Clone returns a deep copy of s, safe to hand to another goroutine.
func (s State) Clone() State {
	out := s
	if s.PreviousCursor != nil {
		p := *s.PreviousCursor
		out.PreviousCursor = &p
	}
	if s.DeleteChoices != nil {
		out.DeleteChoices = append([]ui.Region(nil), s.DeleteChoices...)
	}
	return out
}

// Stroking reports whether a stroke is open.
func (s State) Stroking() bool {
	return s.PreviousCursor != nil
}
