// Package plugin runs external programs in response to board events. Each
// plugin lives in its own directory with a plugin.json manifest and receives
// one JSON Request on stdin per event it subscribes to.
package plugin

import (
	"slices"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/ayusman/pinchboard/internal/engine"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Manifest describes a plugin and the events it wants.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Executable  string `json:"executable"`

	// Events lists event kinds (e.g. "reaction", "full_clear"). Empty means
	// every kind.
	Events []string `json:"events,omitempty"`
	// Actions narrows delivery to these action names (e.g. "heart"). Empty
	// means every action.
	Actions []string `json:"actions,omitempty"`

	// Config is passed through to the plugin untouched.
	Config jsoniter.RawMessage `json:"config,omitempty"`
}

// Wants reports whether the plugin subscribes to ev.
func (m Manifest) Wants(ev engine.Event) bool {
	if len(m.Events) > 0 && !slices.Contains(m.Events, ev.Kind.String()) {
		return false
	}
	if len(m.Actions) > 0 && !slices.Contains(m.Actions, ev.Action.String()) {
		return false
	}
	return true
}

// Request is sent to a plugin on stdin.
type Request struct {
	Event  string              `json:"event"`
	Action string              `json:"action"`
	Label  string              `json:"label,omitempty"`
	Color  string              `json:"color,omitempty"`
	X      float64             `json:"x"`
	Y      float64             `json:"y"`
	At     time.Time           `json:"at"`
	Config jsoniter.RawMessage `json:"config,omitempty"`
}

// NewRequest builds the request for ev addressed to p.
func NewRequest(p *Plugin, ev engine.Event) *Request {
	return &Request{
		Event:  ev.Kind.String(),
		Action: ev.Action.String(),
		Label:  ev.Label,
		Color:  ev.Color,
		X:      ev.Cursor.X,
		Y:      ev.Cursor.Y,
		At:     ev.At,
		Config: p.Manifest.Config,
	}
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool                `json:"success"`
	Error   string              `json:"error,omitempty"`
	Data    jsoniter.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
