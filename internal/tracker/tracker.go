// Package tracker runs the camera → motion → hand detection loop and
// publishes the latest hand for the render tick to pick up.
package tracker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/pinchboard/internal/capture"
	"github.com/ayusman/pinchboard/internal/detector"
)

// Pipeline timing defaults.
const (
	// DefaultIdleFPS is the frame rate when no motion is detected.
	DefaultIdleFPS = 5
	// DefaultActiveFPS is the frame rate while a hand may be in view.
	DefaultActiveFPS = 15
	// DefaultIdleTimeout is how long without motion before dropping back to idle.
	DefaultIdleTimeout = 2 * time.Second
)

// Snapshot is one published detection result. Hand is nil when no hand was
// seen; otherwise its points are in camera pixel coordinates (not mirrored).
type Snapshot struct {
	Hand   *detector.HandLandmarks
	Seq    uint64
	At     time.Time
	Active bool
}

// Config holds the tracker settings.
type Config struct {
	Width       int
	Height      int
	IdleFPS     int
	ActiveFPS   int
	IdleTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.Width <= 0 {
		c.Width = capture.DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = capture.DefaultHeight
	}
	if c.IdleFPS <= 0 {
		c.IdleFPS = DefaultIdleFPS
	}
	if c.ActiveFPS <= 0 {
		c.ActiveFPS = DefaultActiveFPS
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
}

// Tracker is the single producer of hand snapshots.
type Tracker struct {
	config   Config
	camera   capture.Camera
	motion   *capture.MotionDetector
	detector detector.Detector
	log      logrus.FieldLogger

	latest  atomic.Pointer[Snapshot]
	seq     atomic.Uint64
	enabled atomic.Bool
	active  atomic.Bool

	// Owned by the goroutine calling process.
	lastMotionTime time.Time

	frameMu  sync.Mutex
	frame    gocv.Mat
	hasFrame bool
}

// New creates a Tracker. det may be nil, in which case frames are captured
// for display but no hand is ever reported.
func New(config Config, camera capture.Camera, motion *capture.MotionDetector, det detector.Detector, log logrus.FieldLogger) *Tracker {
	config.setDefaults()
	if log == nil {
		log = logrus.StandardLogger()
	}
	if motion == nil {
		motion = capture.NewMotionDetector(capture.DefaultMotionThreshold)
	}

	t := &Tracker{
		config:   config,
		camera:   camera,
		motion:   motion,
		detector: det,
		log:      log.WithField("component", "tracker"),
	}
	t.enabled.Store(true)
	return t
}

// Latest returns the most recent snapshot without blocking. Before anything
// is published it returns the zero Snapshot, which has no hand.
func (t *Tracker) Latest() Snapshot {
	if s := t.latest.Load(); s != nil {
		return *s
	}
	return Snapshot{}
}

// SetEnabled pauses or resumes detection. Pausing publishes an empty
// snapshot so consumers see the hand disappear.
func (t *Tracker) SetEnabled(enabled bool) {
	if t.enabled.Swap(enabled) == enabled {
		return
	}
	if !enabled {
		t.publish(nil, time.Now())
	}
	t.log.WithField("enabled", enabled).Info("tracking toggled")
}

// Enabled reports whether detection is running.
func (t *Tracker) Enabled() bool {
	return t.enabled.Load()
}

// Active reports whether the loop is in active (high frame rate) mode.
func (t *Tracker) Active() bool {
	return t.active.Load()
}

// WithFrame calls fn with the latest mirrored camera frame while holding the
// frame lock. It returns false without calling fn when no frame is stored.
func (t *Tracker) WithFrame(fn func(frame *gocv.Mat)) bool {
	t.frameMu.Lock()
	defer t.frameMu.Unlock()

	if !t.hasFrame {
		return false
	}
	fn(&t.frame)
	return true
}

// Run opens the camera and processes frames until ctx is cancelled. The
// camera and detector are closed on return.
func (t *Tracker) Run(ctx context.Context) error {
	if t.camera == nil {
		return errors.New("tracker: no camera")
	}
	if err := t.camera.Open(); err != nil {
		return err
	}
	defer t.shutdown()

	t.camera.SetFPS(t.config.IdleFPS)
	interval := t.interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	t.log.WithFields(logrus.Fields{
		"idle_fps":   t.config.IdleFPS,
		"active_fps": t.config.ActiveFPS,
	}).Info("tracker started")

	for {
		select {
		case <-ctx.Done():
			t.log.Info("tracker stopped")
			return nil
		case now := <-ticker.C:
			if !t.Enabled() {
				continue
			}
			t.process(now)
			if next := t.interval(); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

func (t *Tracker) interval() time.Duration {
	fps := t.config.IdleFPS
	if t.active.Load() {
		fps = t.config.ActiveFPS
	}
	return time.Second / time.Duration(fps)
}

// process handles one camera frame.
func (t *Tracker) process(now time.Time) {
	frame, err := t.camera.ReadFrame()
	if err != nil {
		t.log.WithError(err).Warn("error reading frame")
		return
	}
	defer frame.Close()

	capture.Fit(frame, t.config.Width, t.config.Height)
	t.storeFrame(frame)

	motionDetected, changePercent := t.motion.Detect(frame)
	if motionDetected {
		t.lastMotionTime = now
		if !t.active.Load() {
			t.setActive(true, changePercent)
		}
	} else if t.active.Load() && now.Sub(t.lastMotionTime) > t.config.IdleTimeout {
		t.setActive(false, changePercent)
	}

	// While idle the scene is static, so the last snapshot still holds.
	if !t.active.Load() || t.detector == nil {
		return
	}

	hands, err := t.detector.Detect(frame)
	if err != nil {
		t.log.WithError(err).Warn("error detecting hands")
		t.publish(nil, now)
		return
	}
	if len(hands) == 0 {
		t.publish(nil, now)
		return
	}

	t.publish(hands[0].Denormalize(t.config.Width, t.config.Height), now)
}

func (t *Tracker) setActive(active bool, changePercent float64) {
	t.active.Store(active)
	fps := t.config.IdleFPS
	if active {
		fps = t.config.ActiveFPS
	}
	t.camera.SetFPS(fps)
	if !active {
		t.motion.Reset()
	}

	mode := "idle"
	if active {
		mode = "active"
	}
	t.log.WithFields(logrus.Fields{
		"fps":    fps,
		"change": changePercent,
	}).Debugf("switched to %s mode", mode)
}

func (t *Tracker) publish(hand *detector.HandLandmarks, now time.Time) {
	t.latest.Store(&Snapshot{
		Hand:   hand,
		Seq:    t.seq.Add(1),
		At:     now,
		Active: t.active.Load(),
	})
}

func (t *Tracker) storeFrame(frame *gocv.Mat) {
	mirrored := capture.Mirror(frame)

	t.frameMu.Lock()
	defer t.frameMu.Unlock()

	if t.hasFrame {
		t.frame.Close()
	}
	t.frame = mirrored
	t.hasFrame = true
}

func (t *Tracker) shutdown() {
	if err := t.camera.Close(); err != nil {
		t.log.WithError(err).Warn("error closing camera")
	}
	t.motion.Close()
	if t.detector != nil {
		if err := t.detector.Close(); err != nil {
			t.log.WithError(err).Warn("error closing detector")
		}
	}

	t.frameMu.Lock()
	defer t.frameMu.Unlock()
	if t.hasFrame {
		t.frame.Close()
		t.hasFrame = false
	}
}
