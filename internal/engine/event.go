package engine

import (
	"fmt"
	"time"

	"github.com/ayusman/pinchboard/internal/gesture"
	"github.com/ayusman/pinchboard/internal/ui"
)

// EventKind classifies a discrete outcome of a tick.
type EventKind int

const (
	EventReaction EventKind = iota
	EventDeleteMenuOpened
	EventPaletteOpened
	EventFullClear
	EventPartialErase
	EventColorSelected
)

func (k EventKind) String() string {
	switch k {
	case EventReaction:
		return "reaction"
	case EventDeleteMenuOpened:
		return "delete_menu_opened"
	case EventPaletteOpened:
		return "palette_opened"
	case EventFullClear:
		return "full_clear"
	case EventPartialErase:
		return "partial_erase"
	case EventColorSelected:
		return "color_selected"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event describes something the user triggered during a tick. Events are
// informational: nothing in the engine reads them back.
type Event struct {
	Kind   EventKind     `json:"kind"`
	Action ui.ActionID   `json:"action"`
	Label  string        `json:"label"`
	Color  string        `json:"color,omitempty"`
	Cursor gesture.Point `json:"cursor"`
	At     time.Time     `json:"at"`
}
