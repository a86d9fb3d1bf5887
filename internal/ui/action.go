package ui

import "fmt"

// ActionID identifies a debounced action. Cooldowns are tracked per ActionID.
type ActionID int

const (
	ActionNone ActionID = iota
	ActionThumbsUp
	ActionThumbsDown
	ActionHeart
	ActionClap
	ActionOpenDeleteMenu
	ActionOpenPalette
	ActionFullClear
	ActionPartialErase

	// actionSwatchBase is the ActionID of swatch 0; swatch i is base+i.
	actionSwatchBase
)

// ReactionAction returns the ActionID of a reaction button.
func ReactionAction(r Reaction) ActionID {
	return ActionThumbsUp + ActionID(r)
}

// SwatchAction returns the ActionID of the swatch at index i.
func SwatchAction(i int) ActionID {
	return actionSwatchBase + ActionID(i)
}

// SwatchIndex returns the swatch index of a, or false when a is not a swatch action.
func (a ActionID) SwatchIndex() (int, bool) {
	if a < actionSwatchBase {
		return 0, false
	}
	return int(a - actionSwatchBase), true
}

func (a ActionID) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionThumbsUp:
		return "thumbs_up"
	case ActionThumbsDown:
		return "thumbs_down"
	case ActionHeart:
		return "heart"
	case ActionClap:
		return "clap"
	case ActionOpenDeleteMenu:
		return "open_delete_menu"
	case ActionOpenPalette:
		return "open_palette"
	case ActionFullClear:
		return "full_clear"
	case ActionPartialErase:
		return "partial_erase"
	}
	if i, ok := a.SwatchIndex(); ok {
		return fmt.Sprintf("swatch_%d", i)
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// MarshalText encodes the action by name so journal rows and JSON payloads
// stay readable.
func (a ActionID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}
