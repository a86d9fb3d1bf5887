// Command system-control is a pinchboard plugin for macOS that maps board
// actions to volume, brightness and media controls. Bindings come from the
// manifest config:
//
//	{"bindings": {"clap": "media-play-pause", "heart": "volume-up"}}
//
// An action without a binding posts a notification naming it.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type request struct {
	Event  string              `json:"event"`
	Action string              `json:"action"`
	Label  string              `json:"label"`
	Config jsoniter.RawMessage `json:"config"`
}

type response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// mediaKey presses a media key by its System Events key code.
func mediaKey(code int) string {
	return fmt.Sprintf("tell application \"System Events\" to key code %d", code)
}

// controls maps control names to AppleScript.
var controls = map[string]string{
	"volume-up":        `set volume output volume ((output volume of (get volume settings)) + 10)`,
	"volume-down":      `set volume output volume ((output volume of (get volume settings)) - 10)`,
	"volume-mute":      `set volume output muted (not (output muted of (get volume settings)))`,
	"brightness-up":    mediaKey(144),
	"brightness-down":  mediaKey(145),
	"media-play-pause": mediaKey(100),
	"media-next":       mediaKey(101),
	"media-prev":       mediaKey(98),
}

func main() {
	data, err := handle()
	resp := response{Success: err == nil, Data: data}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

func handle() (any, error) {
	var req request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}

	var cfg struct {
		Bindings map[string]string `json:"bindings"`
	}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	script, control, err := scriptFor(req, cfg.Bindings)
	if err != nil {
		return nil, err
	}
	if out, err := exec.Command("osascript", "-e", script).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", control, err, strings.TrimSpace(string(out)))
	}
	return map[string]string{"control": control}, nil
}

// scriptFor picks the AppleScript for req: its bound control, or a
// notification when the action is unbound.
func scriptFor(req request, bindings map[string]string) (script, control string, err error) {
	control, ok := bindings[req.Action]
	if !ok {
		label := req.Label
		if label == "" {
			label = req.Action
		}
		return fmt.Sprintf(`display notification %q with title "Pinchboard" subtitle %q`, label, req.Event), "notify", nil
	}

	script, ok = controls[control]
	if !ok {
		return "", control, fmt.Errorf("unknown control %q bound to %s", control, req.Action)
	}
	return script, control, nil
}
