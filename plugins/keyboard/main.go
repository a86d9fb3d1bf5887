// Command keyboard is a pinchboard plugin for macOS that presses a shortcut
// when a board action fires, so a thumbs-up can advance a slide deck.
// Bindings come from the manifest config:
//
//	{"bindings": {"thumbs_up": {"key": "]", "modifiers": ["command"]}}}
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type request struct {
	Event  string              `json:"event"`
	Action string              `json:"action"`
	Config jsoniter.RawMessage `json:"config"`
}

type response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Keystroke is one shortcut. Modifiers are command, option, control or
// shift, or their short forms.
type Keystroke struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"`
}

var modifiers = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
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
		Bindings map[string]Keystroke `json:"bindings"`
	}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// The manifest may subscribe more broadly than it binds.
	ks, ok := cfg.Bindings[req.Action]
	if !ok {
		return nil, nil
	}

	script, err := keystrokeScript(ks)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Action, err)
	}
	if out, err := exec.Command("osascript", "-e", script).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", req.Action, err, strings.TrimSpace(string(out)))
	}
	return map[string]string{"pressed": ks.Key}, nil
}

// keystrokeScript builds the System Events command for ks. Unknown
// modifiers are ignored.
func keystrokeScript(ks Keystroke) (string, error) {
	if ks.Key == "" {
		return "", errors.New("key is required")
	}

	cmd := `tell application "System Events" to keystroke ` + strconv.Quote(ks.Key)

	var using []string
	for _, m := range ks.Modifiers {
		if as, ok := modifiers[strings.ToLower(m)]; ok {
			using = append(using, as)
		}
	}
	if len(using) > 0 {
		cmd += " using {" + strings.Join(using, ", ") + "}"
	}
	return cmd, nil
}
