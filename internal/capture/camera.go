// Package capture reads webcam frames through GoCV (OpenCV) and gates them
// on motion.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

const (
	DefaultFPS    = 5
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	ErrCameraNotOpen = errors.New("camera is not open")
	ErrEmptyFrame    = errors.New("captured frame is empty")
)

// Camera is a frame source the tracker can throttle.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame; the caller closes it.
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// Config selects the capture device and the requested frame size.
type Config struct {
	DeviceID int
	Width    int
	Height   int
}

// Webcam captures from a local video device. Frames are resized to the
// configured size when the driver picks a different mode.
type Webcam struct {
	cfg Config

	mu  sync.Mutex
	dev *gocv.VideoCapture
	fps int
}

// NewCamera returns a closed Webcam. A zero frame size means 640x480.
func NewCamera(config Config) Camera {
	if config.Width <= 0 {
		config.Width = DefaultWidth
	}
	if config.Height <= 0 {
		config.Height = DefaultHeight
	}
	return &Webcam{cfg: config, fps: DefaultFPS}
}

// Open starts capturing. Opening an open camera is a no-op.
func (w *Webcam) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dev != nil {
		return nil
	}

	dev, err := gocv.OpenVideoCapture(w.cfg.DeviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", w.cfg.DeviceID, err)
	}
	w.dev = dev

	// Drivers treat these as hints.
	w.dev.Set(gocv.VideoCaptureFrameWidth, float64(w.cfg.Width))
	w.dev.Set(gocv.VideoCaptureFrameHeight, float64(w.cfg.Height))
	w.dev.Set(gocv.VideoCaptureFPS, float64(w.fps))
	return nil
}

func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dev == nil {
		return nil
	}
	err := w.dev.Close()
	w.dev = nil
	return err
}

func (w *Webcam) ReadFrame() (*gocv.Mat, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dev == nil {
		return nil, ErrCameraNotOpen
	}

	frame := gocv.NewMat()
	if !w.dev.Read(&frame) || frame.Empty() {
		frame.Close()
		return nil, fmt.Errorf("camera %d: %w", w.cfg.DeviceID, ErrEmptyFrame)
	}
	Fit(&frame, w.cfg.Width, w.cfg.Height)
	return &frame, nil
}

// SetFPS changes the requested capture rate. Non-positive values are ignored.
func (w *Webcam) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.fps = fps
	if w.dev != nil {
		w.dev.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (w *Webcam) FPS() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fps
}

func (w *Webcam) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dev != nil
}
