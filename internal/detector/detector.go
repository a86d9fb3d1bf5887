package detector

import "gocv.io/x/gocv"

// Detector finds hands in a camera frame.
type Detector interface {
	// Detect returns the hands found in frame, in normalized [0,1]
	// coordinates. No hand is an empty result, not an error.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)
	Close() error
}

// Config tunes the MediaPipe hand landmarker.
type Config struct {
	// MaxHands caps the hands reported per frame. Only the first one drives
	// the board.
	MaxHands        int
	MinConfidence   float64
	MinTrackingConf float64

	// IdleShutdownMs stops the inference subprocess after this long without
	// a frame; zero keeps it running.
	IdleShutdownMs int
}

func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		IdleShutdownMs:  30000,
	}
}
