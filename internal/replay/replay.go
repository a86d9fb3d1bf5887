// Package replay plays scripted hand traces in place of the camera tracker,
// for demos and end-to-end tests.
package replay

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"gocv.io/x/gocv"

	"github.com/ayusman/pinchboard/internal/detector"
	"github.com/ayusman/pinchboard/internal/tracker"
	"github.com/ayusman/pinchboard/internal/ui"
)

//go:embed traces/*.json
var tracesFS embed.FS

// pinchGap is the thumb-to-index distance used for pinching frames.
const pinchGap = 5

// TraceFrame is one frame of a trace, in display coordinates.
type TraceFrame struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Pinch  bool    `json:"pinch"`
	Absent bool    `json:"absent"`
	Repeat int     `json:"repeat"`
}

// Trace is a scripted sequence of hand frames.
type Trace struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Width       int          `json:"width"`
	FrameMs     int          `json:"frame_ms"`
	Frames      []TraceFrame `json:"frames"`
}

// LoadTrace loads an embedded trace by name, without the .json extension.
func LoadTrace(name string) (*Trace, error) {
	data, err := tracesFS.ReadFile("traces/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load trace %s: %w", name, err)
	}
	return parseTrace(name, data)
}

// ReadTrace loads a trace from a JSON file on disk.
func ReadTrace(file string) (*Trace, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return parseTrace(file, data)
}

// Open loads nameOrPath as a file when it exists, otherwise as an embedded
// trace name.
func Open(nameOrPath string) (*Trace, error) {
	if _, err := os.Stat(nameOrPath); err == nil {
		return ReadTrace(nameOrPath)
	}
	return LoadTrace(nameOrPath)
}

// parseTrace decodes data, applies defaults and expands repeated frames.
func parseTrace(name string, data []byte) (*Trace, error) {
	var raw Trace
	if err := jsoniter.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode trace %s: %w", name, err)
	}
	if len(raw.Frames) == 0 {
		return nil, fmt.Errorf("decode trace %s: no frames", name)
	}
	if raw.Width <= 0 {
		raw.Width = ui.DefaultWidth
	}
	if raw.FrameMs <= 0 {
		raw.FrameMs = 33
	}

	expanded := raw
	expanded.Frames = nil
	for _, f := range raw.Frames {
		n := max(f.Repeat, 1)
		f.Repeat = 0
		for range n {
			expanded.Frames = append(expanded.Frames, f)
		}
	}
	return &expanded, nil
}

// TraceNames lists the embedded traces.
func TraceNames() ([]string, error) {
	entries, err := tracesFS.ReadDir("traces")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), path.Ext(entry.Name())))
	}
	return names, nil
}

// FrameInterval returns the time between frames.
func (t *Trace) FrameInterval() time.Duration {
	return time.Duration(t.FrameMs) * time.Millisecond
}

// Hand returns frame i as camera-space landmarks, or nil when the hand is
// absent. The camera image is unmirrored, so x is flipped against the width.
func (t *Trace) Hand(i int) *detector.HandLandmarks {
	f := t.Frames[i]
	if f.Absent {
		return nil
	}

	x := float64(t.Width) - f.X
	var h detector.HandLandmarks
	if f.Pinch {
		h = detector.PinchLandmarks(x, f.Y, pinchGap)
	} else {
		h = detector.OpenHandLandmarks(x, f.Y)
	}
	return &h
}

// Player replays a trace as a hand source: Latest returns the current frame
// until Advance moves to the next one. It never has a camera frame.
type Player struct {
	trace *Trace
	loop  bool

	mu      sync.Mutex
	pos     int
	enabled bool
}

// NewPlayer starts t at its first frame. A looping player wraps around to
// the first frame instead of finishing.
func NewPlayer(t *Trace, loop bool) *Player {
	return &Player{trace: t, loop: loop, enabled: true}
}

// Run advances one frame per trace interval until ctx is cancelled or a
// non-looping trace ends.
func (p *Player) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.trace.FrameInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !p.Advance() {
				return nil
			}
		}
	}
}

// Latest returns the snapshot for the current frame.
func (p *Player) Latest() tracker.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled || p.pos >= len(p.trace.Frames) {
		return tracker.Snapshot{Seq: uint64(p.pos)}
	}
	return tracker.Snapshot{Hand: p.trace.Hand(p.pos), Seq: uint64(p.pos), Active: true}
}

// Advance moves to the next frame and reports whether one remains.
func (p *Player) Advance() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pos < len(p.trace.Frames) {
		p.pos++
	}
	if p.loop && p.pos == len(p.trace.Frames) {
		p.pos = 0
	}
	return p.pos < len(p.trace.Frames)
}

// Done reports whether every frame has been played.
func (p *Player) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos >= len(p.trace.Frames)
}

// SetEnabled hides the hand while disabled.
func (p *Player) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

// Enabled reports whether the player shows its hand.
func (p *Player) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// WithFrame always reports no camera frame.
func (p *Player) WithFrame(func(*gocv.Mat)) bool {
	return false
}
