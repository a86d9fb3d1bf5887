package capture

import (
	"image"

	"gocv.io/x/gocv"
)

// Fit resizes frame in place to width x height when it differs. Every stage
// after capture assumes the canvas size.
func Fit(frame *gocv.Mat, width, height int) {
	if frame == nil || frame.Empty() {
		return
	}
	if frame.Cols() == width && frame.Rows() == height {
		return
	}
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(*frame, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
	resized.CopyTo(frame)
}

// Mirror returns a horizontally flipped copy of frame, so the display moves
// like a mirror. The caller owns the result.
func Mirror(frame *gocv.Mat) gocv.Mat {
	out := gocv.NewMat()
	if frame == nil || frame.Empty() {
		return out
	}
	gocv.Flip(*frame, &out, 1)
	return out
}

// SolidFrame returns a width x height BGR frame filled with one gray level.
func SolidFrame(width, height int, level float64) gocv.Mat {
	m := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	m.SetTo(gocv.NewScalar(level, level, level, 0))
	return m
}
