// Package gesture reduces hand landmarks to the per-frame pinch signal and
// cursor position that drive the board.
package gesture

import (
	"math"

	"github.com/ayusman/pinchboard/internal/detector"
)

// DefaultPinchThreshold is the thumb-to-index distance, in source-frame
// pixels, below which the hand counts as pinching.
const DefaultPinchThreshold = 20.0

// Point is a position in display coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Observation is the classifier output for one frame.
// Cursor and Thumb are meaningful only when Present is true.
type Observation struct {
	Present  bool    `json:"present"`
	Pinch    bool    `json:"pinch"`
	Cursor   Point   `json:"cursor"`
	Thumb    Point   `json:"thumb"`
	Distance float64 `json:"distance"`
}

// Absent is the observation for a frame without a detected hand.
var Absent = Observation{}

// Classifier maps hand landmarks in source-frame pixels to an Observation.
// Every frame is classified on its own: there is no smoothing and no
// hysteresis, so a distance that jitters around the threshold flips Pinch
// from frame to frame.
type Classifier struct {
	displayWidth   float64
	pinchThreshold float64
}

// NewClassifier creates a Classifier for a display of the given width.
// A threshold less than or equal to 0 falls back to DefaultPinchThreshold.
func NewClassifier(displayWidth int, pinchThreshold float64) *Classifier {
	if pinchThreshold <= 0 {
		pinchThreshold = DefaultPinchThreshold
	}
	return &Classifier{
		displayWidth:   float64(displayWidth),
		pinchThreshold: pinchThreshold,
	}
}

// Threshold returns the configured pinch threshold.
func (c *Classifier) Threshold() float64 {
	return c.pinchThreshold
}

// Classify reduces hand to a cursor and pinch flag. A nil hand yields Absent.
// The camera feed is shown mirrored, so x coordinates are flipped against
// the display width before anything else is computed.
func (c *Classifier) Classify(hand *detector.HandLandmarks) Observation {
	if hand == nil {
		return Absent
	}

	index := c.mirror(hand.IndexTip())
	thumb := c.mirror(hand.ThumbTip())
	d := thumb.Dist(index)

	return Observation{
		Present:  true,
		Pinch:    d < c.pinchThreshold,
		Cursor:   index,
		Thumb:    thumb,
		Distance: d,
	}
}

func (c *Classifier) mirror(p detector.Point3D) Point {
	return Point{X: c.displayWidth - p.X, Y: p.Y}
}
