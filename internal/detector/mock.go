package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It returns either a fixed set of hands or, when a sequence is scripted,
// one entry of the sequence per Detect call.
type MockDetector struct {
	hands    []HandLandmarks
	sequence [][]HandLandmarks
	next     int
	calls    int
	err      error
	mu       sync.Mutex
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by every Detect call.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
	m.sequence = nil
	m.next = 0
}

// SetSequence scripts the result of consecutive Detect calls. Once the
// sequence is exhausted the last entry keeps being returned.
func (m *MockDetector) SetSequence(seq [][]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = seq
	m.next = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}

	if len(m.sequence) > 0 {
		idx := m.next
		if idx >= len(m.sequence) {
			idx = len(m.sequence) - 1
		} else {
			m.next++
		}
		return m.sequence[idx], nil
	}

	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// PinchLandmarks returns a right hand whose index tip sits at (x, y) and whose
// thumb tip touches it, in the same coordinate space as x and y.
// gap is the thumb-to-index distance along the y axis.
func PinchLandmarks(x, y, gap float64) HandLandmarks {
	h := OpenHandLandmarks(x, y)
	h.Points[ThumbTip] = Point3D{X: x, Y: y + gap}
	h.Points[ThumbIP] = Point3D{X: x + gap, Y: y + 2*gap}
	return h
}

// OpenHandLandmarks returns a right hand with the index finger extended and
// its tip at (x, y). The thumb tip is held well away from the index tip.
// The offsets assume pixel coordinates on a 640x480 frame.
func OpenHandLandmarks(x, y float64) HandLandmarks {
	h := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	h.Points[Wrist] = Point3D{X: x, Y: y + 160}

	h.Points[ThumbCMC] = Point3D{X: x - 30, Y: y + 140}
	h.Points[ThumbMCP] = Point3D{X: x - 55, Y: y + 115}
	h.Points[ThumbIP] = Point3D{X: x - 70, Y: y + 90}
	h.Points[ThumbTip] = Point3D{X: x - 80, Y: y + 70}

	h.Points[IndexMCP] = Point3D{X: x, Y: y + 90}
	h.Points[IndexPIP] = Point3D{X: x, Y: y + 55}
	h.Points[IndexDIP] = Point3D{X: x, Y: y + 25}
	h.Points[IndexTip] = Point3D{X: x, Y: y}

	h.Points[MiddleMCP] = Point3D{X: x + 20, Y: y + 95}
	h.Points[MiddlePIP] = Point3D{X: x + 22, Y: y + 80}
	h.Points[MiddleDIP] = Point3D{X: x + 20, Y: y + 95}
	h.Points[MiddleTip] = Point3D{X: x + 18, Y: y + 105}

	h.Points[RingMCP] = Point3D{X: x + 38, Y: y + 100}
	h.Points[RingPIP] = Point3D{X: x + 40, Y: y + 88}
	h.Points[RingDIP] = Point3D{X: x + 38, Y: y + 100}
	h.Points[RingTip] = Point3D{X: x + 36, Y: y + 110}

	h.Points[PinkyMCP] = Point3D{X: x + 54, Y: y + 108}
	h.Points[PinkyPIP] = Point3D{X: x + 56, Y: y + 98}
	h.Points[PinkyDIP] = Point3D{X: x + 54, Y: y + 108}
	h.Points[PinkyTip] = Point3D{X: x + 52, Y: y + 116}

	return h
}

// Normalized scales pixel landmarks on a width x height frame back into the
// [0,1] space a real Detector reports.
func Normalized(h HandLandmarks, width, height int) HandLandmarks {
	w := float64(width)
	ht := float64(height)
	for i := range h.Points {
		h.Points[i].X /= w
		h.Points[i].Y /= ht
		h.Points[i].Z /= w
	}
	return h
}
