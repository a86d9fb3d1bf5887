package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// DefaultMotionThreshold is the share of changed pixels, in percent, above
// which a frame counts as motion.
const DefaultMotionThreshold = 1.0

const (
	blurKernel = 21
	// pixelDelta is the blurred gray-level difference at which a pixel
	// counts as changed.
	pixelDelta = 25
)

// MotionDetector compares each frame with the one before it. The tracker
// uses it to switch between idle and active frame rates.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64

	// baseline is the blurred gray previous frame; empty until the first
	// Detect.
	baseline gocv.Mat
	gray     gocv.Mat
	blurred  gocv.Mat
	diff     gocv.Mat
}

// NewMotionDetector creates a MotionDetector. Non-positive thresholds use
// DefaultMotionThreshold.
func NewMotionDetector(threshold float64) *MotionDetector {
	if threshold <= 0 {
		threshold = DefaultMotionThreshold
	}
	m := &MotionDetector{threshold: threshold}
	m.alloc()
	return m
}

func (m *MotionDetector) alloc() {
	m.baseline = gocv.NewMat()
	m.gray = gocv.NewMat()
	m.blurred = gocv.NewMat()
	m.diff = gocv.NewMat()
}

// Detect reports whether frame changed more than the threshold since the
// previous frame, and the changed-pixel percentage. The first frame, and any
// frame whose size differs from the baseline, only records a baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	if frame == nil || frame.Empty() {
		return false, 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &m.gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&m.gray)
	}
	gocv.GaussianBlur(m.gray, &m.blurred, image.Pt(blurKernel, blurKernel), 0, 0, gocv.BorderDefault)
	defer m.blurred.CopyTo(&m.baseline)

	if m.baseline.Empty() || m.baseline.Cols() != m.blurred.Cols() || m.baseline.Rows() != m.blurred.Rows() {
		return false, 0
	}

	gocv.AbsDiff(m.blurred, m.baseline, &m.diff)
	gocv.Threshold(m.diff, &m.diff, pixelDelta, 255, gocv.ThresholdBinary)

	changed := 100 * float64(gocv.CountNonZero(m.diff)) / float64(m.diff.Total())
	return changed > m.threshold, changed
}

// Reset forgets the baseline.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseline.Close()
	m.baseline = gocv.NewMat()
}

// Close releases the detector's buffers. A closed detector can still be used
// and starts over with a new baseline.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mat := range []*gocv.Mat{&m.baseline, &m.gray, &m.blurred, &m.diff} {
		mat.Close()
	}
	m.alloc()
}

// SetThreshold changes the threshold. Non-positive values are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

func (m *MotionDetector) Threshold() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threshold
}
