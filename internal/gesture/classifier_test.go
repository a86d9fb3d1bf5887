package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ayusman/pinchboard/internal/detector"
)

func handWithTips(index, thumb detector.Point3D) *detector.HandLandmarks {
	h := &detector.HandLandmarks{Handedness: "Right", Score: 0.9}
	h.Points[detector.IndexTip] = index
	h.Points[detector.ThumbTip] = thumb
	return h
}

func TestClassifier_NoHand(t *testing.T) {
	c := NewClassifier(640, DefaultPinchThreshold)

	obs := c.Classify(nil)

	assert.False(t, obs.Present)
	assert.False(t, obs.Pinch)
	assert.Equal(t, Absent, obs)
}

func TestClassifier_MirrorsCursor(t *testing.T) {
	c := NewClassifier(640, DefaultPinchThreshold)

	obs := c.Classify(handWithTips(
		detector.Point3D{X: 100, Y: 150},
		detector.Point3D{X: 300, Y: 300},
	))

	assert.True(t, obs.Present)
	assert.Equal(t, Point{X: 540, Y: 150}, obs.Cursor)
	assert.Equal(t, Point{X: 340, Y: 300}, obs.Thumb)
}

func TestClassifier_PinchBoundary(t *testing.T) {
	c := NewClassifier(640, DefaultPinchThreshold)
	index := detector.Point3D{X: 200, Y: 200}

	tests := []struct {
		name      string
		thumb     detector.Point3D
		wantPinch bool
	}{
		{name: "touching", thumb: detector.Point3D{X: 200, Y: 200}, wantPinch: true},
		{name: "just under threshold", thumb: detector.Point3D{X: 200, Y: 219.999}, wantPinch: true},
		{name: "exactly threshold", thumb: detector.Point3D{X: 200, Y: 220}, wantPinch: false},
		{name: "exactly threshold diagonally", thumb: detector.Point3D{X: 212, Y: 216}, wantPinch: false},
		{name: "above threshold", thumb: detector.Point3D{X: 200, Y: 240}, wantPinch: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := c.Classify(handWithTips(index, tt.thumb))
			assert.Equal(t, tt.wantPinch, obs.Pinch, "distance %f", obs.Distance)
		})
	}
}

func TestClassifier_IgnoresDepth(t *testing.T) {
	c := NewClassifier(640, DefaultPinchThreshold)

	obs := c.Classify(handWithTips(
		detector.Point3D{X: 200, Y: 200, Z: 0},
		detector.Point3D{X: 205, Y: 200, Z: 500},
	))

	assert.True(t, obs.Pinch)
}

// Classification is frame-independent: a distance oscillating around the
// threshold produces an oscillating pinch signal. Nothing filters this.
func TestClassifier_NoHysteresis(t *testing.T) {
	c := NewClassifier(640, DefaultPinchThreshold)
	index := detector.Point3D{X: 300, Y: 300}
	gaps := []float64{19, 21, 19, 21, 19}

	var got []bool
	for _, g := range gaps {
		got = append(got, c.Classify(handWithTips(index, detector.Point3D{X: 300, Y: 300 + g})).Pinch)
	}

	assert.Equal(t, []bool{true, false, true, false, true}, got)
}

func TestClassifier_PresetHands(t *testing.T) {
	c := NewClassifier(640, DefaultPinchThreshold)

	pinch := detector.PinchLandmarks(320, 240, 5)
	open := detector.OpenHandLandmarks(320, 240)

	assert.True(t, c.Classify(&pinch).Pinch)
	assert.False(t, c.Classify(&open).Pinch)
	assert.Equal(t, Point{X: 320, Y: 240}, c.Classify(&open).Cursor)
}

func TestNewClassifier_DefaultThreshold(t *testing.T) {
	assert.Equal(t, DefaultPinchThreshold, NewClassifier(640, 0).Threshold())
	assert.Equal(t, 35.0, NewClassifier(640, 35).Threshold())
}
