package app

import (
	"context"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/pinchboard/internal/board"
	"github.com/ayusman/pinchboard/internal/engine"
)

// compactInterval is how often expired cooldown entries are dropped.
const compactInterval = time.Second

// Tick processes one render frame:
//  1. Read the latest hand snapshot (never blocks on the tracker)
//  2. Classify it into pinch + cursor
//  3. Step the engine, which draws on the canvas and fires buttons
//  4. Apply a pending remote clear
//  5. Advance reaction animations
//  6. Render the composed frame and publish it
//  7. Hand the tick's events to listeners
//
// Tick must be called from one goroutine at a time.
func (a *App) Tick(now time.Time) error {
	snap := a.hands.Latest()
	obs := a.classifier.Classify(snap.Hand)

	state, events := a.engine.Step(a.state, obs, now)

	if a.clearRequested.Swap(false) {
		var ev engine.Event
		state, ev = a.remoteClear(state, now)
		events = append(events, ev)
	}

	a.fx.Update()

	frame := board.Frame{
		State:       state,
		Observation: obs,
		Reactions:   a.fx.Instances(),
	}

	var jpeg []byte
	var err error
	rendered := a.hands.WithFrame(func(m *gocv.Mat) {
		frame.Camera = m
		jpeg, err = a.renderer.RenderJPEG(frame)
	})
	if !rendered {
		jpeg, err = a.renderer.RenderJPEG(frame)
	}

	a.mu.Lock()
	a.state = state
	a.obs = obs
	if err == nil {
		a.jpeg = jpeg
	}
	a.mu.Unlock()

	a.emit(events)
	return err
}

// Run ticks at the render rate until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(a.config.RenderFPS))
	defer ticker.Stop()

	compact := time.NewTicker(compactInterval)
	defer compact.Stop()

	a.log.WithField("fps", a.config.RenderFPS).Info("render loop started")

	failing := false
	for {
		select {
		case <-ctx.Done():
			a.log.Info("render loop stopped")
			return nil

		case now := <-ticker.C:
			err := a.Tick(now)
			switch {
			case err != nil && !failing:
				a.log.WithError(err).Warn("render failed")
				failing = true
			case err == nil && failing:
				a.log.Info("render recovered")
				failing = false
			}

		case now := <-compact.C:
			if n := a.engine.Cooldowns().Compact(now); n > 0 {
				a.log.WithField("expired", n).Debug("cooldowns compacted")
			}
		}
	}
}
