// Package board holds the persistent drawing raster and composes it with the
// camera frame and the UI overlay.
package board

import (
	"errors"
	"image"
	"image/color"
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/pinchboard/internal/gesture"
	"github.com/ayusman/pinchboard/internal/ui"
)

// ErrCanvasClosed is returned when using a canvas after Close.
var ErrCanvasClosed = errors.New("canvas is closed")

// transparent is the fully cleared BGRA pixel.
var transparent = color.RGBA{}

// Canvas is a transparent BGRA raster that accumulates strokes. Painted
// pixels are opaque; erased or never-painted pixels have alpha 0.
//
// Canvas implements engine.Board.
type Canvas struct {
	mu     sync.Mutex
	mat    gocv.Mat
	width  int
	height int
	closed bool
}

// NewCanvas creates an empty width x height canvas.
func NewCanvas(width, height int) *Canvas {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC4)
	mat.SetTo(gocv.NewScalar(0, 0, 0, 0))

	return &Canvas{
		mat:    mat,
		width:  width,
		height: height,
	}
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() (width, height int) {
	return c.width, c.height
}

// DrawSegment paints a straight stroke from one point to another.
func (c *Canvas) DrawSegment(from, to gesture.Point, col ui.Color, width float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	rgba := col.RGBA
	rgba.A = 255
	gocv.Line(&c.mat, toImagePoint(from), toImagePoint(to), rgba, thickness(width))
}

// EraseDisc clears every pixel within radius of center back to transparent.
func (c *Canvas) EraseDisc(center gesture.Point, radius float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	gocv.Circle(&c.mat, toImagePoint(center), int(math.Round(radius)), transparent, -1)
}

// Clear resets the whole canvas to transparent.
func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.mat.SetTo(gocv.NewScalar(0, 0, 0, 0))
}

// Composite copies the painted pixels over dst, a BGR frame of the same size.
func (c *Canvas) Composite(dst *gocv.Mat) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCanvasClosed
	}
	if dst == nil || dst.Empty() {
		return errors.New("composite: empty destination")
	}
	if dst.Cols() != c.width || dst.Rows() != c.height {
		return errors.New("composite: destination size mismatch")
	}

	channels := gocv.Split(c.mat)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()
	alpha := channels[3]

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(c.mat, &bgr, gocv.ColorBGRAToBGR)

	bgr.CopyToWithMask(dst, alpha)
	return nil
}

// Painted returns the number of opaque pixels.
func (c *Canvas) Painted() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0
	}

	channels := gocv.Split(c.mat)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()
	return gocv.CountNonZero(channels[3])
}

// IsPainted reports whether the pixel at p is opaque.
func (c *Canvas) IsPainted(p gesture.Point) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	ip := toImagePoint(p)
	if c.closed || ip.X < 0 || ip.Y < 0 || ip.X >= c.width || ip.Y >= c.height {
		return false
	}
	return c.mat.GetVecbAt(ip.Y, ip.X)[3] != 0
}

// EncodePNG returns the canvas as a PNG with transparency.
func (c *Canvas) EncodePNG() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrCanvasClosed
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, c.mat)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}

// Close releases the underlying Mat.
func (c *Canvas) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.mat.Close()
}

func toImagePoint(p gesture.Point) image.Point {
	return image.Point{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}

func thickness(width float64) int {
	t := int(math.Round(width))
	if t < 1 {
		return 1
	}
	return t
}
