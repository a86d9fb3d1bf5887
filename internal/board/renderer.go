package board

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/pinchboard/internal/engine"
	"github.com/ayusman/pinchboard/internal/gesture"
	"github.com/ayusman/pinchboard/internal/reaction"
	"github.com/ayusman/pinchboard/internal/ui"
)

// Overlay colors.
var (
	background   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	buttonColor  = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	menuFill     = color.RGBA{R: 235, G: 235, B: 235, A: 255}
	eraseColor   = color.RGBA{R: 255, G: 99, B: 71, A: 255}
	textColor    = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	reactionInks = map[reaction.Kind]color.RGBA{
		reaction.KindHeart:    {R: 230, G: 30, B: 80, A: 255},
		reaction.KindThumb:    {R: 250, G: 190, B: 40, A: 255},
		reaction.KindApplause: {R: 255, G: 140, B: 0, A: 255},
		reaction.KindDefault:  {R: 90, G: 90, B: 90, A: 255},
	}
)

const (
	cursorRadius = 8
	outline      = 2
)

// Frame is everything the renderer needs for one composed image.
type Frame struct {
	Camera      *gocv.Mat
	State       engine.State
	Observation gesture.Observation
	Reactions   []reaction.Instance
}

// Renderer composes the camera frame, the canvas and the UI overlay.
type Renderer struct {
	layout      *ui.Layout
	canvas      *Canvas
	eraseRadius float64
}

// NewRenderer creates a Renderer for layout and canvas.
func NewRenderer(layout *ui.Layout, canvas *Canvas, eraseRadius float64) *Renderer {
	return &Renderer{
		layout:      layout,
		canvas:      canvas,
		eraseRadius: eraseRadius,
	}
}

// Render draws f into a new BGR Mat sized to the layout. The caller owns the
// returned Mat. A missing or mis-sized camera frame falls back to a white
// background.
func (r *Renderer) Render(f Frame) (gocv.Mat, error) {
	out := r.base(f.Camera)

	if err := r.canvas.Composite(&out); err != nil {
		out.Close()
		return gocv.NewMat(), err
	}

	r.drawButtons(&out)
	if f.State.ShowDeleteOptions {
		r.drawDeleteChoices(&out, f.State.DeleteChoices)
	}
	if f.State.ShowColorOptions {
		r.drawSwatches(&out)
	}
	r.drawReactions(&out, f.Reactions)
	r.drawCursor(&out, f.State, f.Observation)

	return out, nil
}

// RenderJPEG renders f and encodes it as JPEG.
func (r *Renderer) RenderJPEG(f Frame) ([]byte, error) {
	mat, err := r.Render(f)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}

func (r *Renderer) base(camera *gocv.Mat) gocv.Mat {
	w, h := r.layout.Width, r.layout.Height
	if camera != nil && !camera.Empty() && camera.Cols() == w && camera.Rows() == h && camera.Channels() == 3 {
		return camera.Clone()
	}

	out := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	out.SetTo(gocv.NewScalar(float64(background.B), float64(background.G), float64(background.R), 0))
	return out
}

func (r *Renderer) drawButtons(dst *gocv.Mat) {
	for _, btn := range r.layout.Reactions {
		gocv.Rectangle(dst, toRect(btn.Rect), buttonColor, outline)
		gocv.Circle(dst, toImagePoint(btn.Rect.Center()), int(btn.Rect.W/4), reactionInks[reaction.KindOf(btn.Reaction)], -1)
	}

	gocv.Rectangle(dst, toRect(r.layout.Clear.Rect), buttonColor, outline)
	c := r.layout.Clear.Rect
	gocv.Line(dst,
		image.Pt(int(c.X+c.W/4), int(c.Y+c.H/4)),
		image.Pt(int(c.X+3*c.W/4), int(c.Y+3*c.H/4)),
		eraseColor, 3)
	gocv.Line(dst,
		image.Pt(int(c.X+3*c.W/4), int(c.Y+c.H/4)),
		image.Pt(int(c.X+c.W/4), int(c.Y+3*c.H/4)),
		eraseColor, 3)

	gocv.Rectangle(dst, toRect(r.layout.Palette.Rect), buttonColor, outline)
	p := r.layout.Palette.Rect
	for i, sw := range r.layout.Swatches[:min(4, len(r.layout.Swatches))] {
		cx := p.X + p.W/4 + float64(i%2)*p.W/2
		cy := p.Y + p.H/4 + float64(i/2)*p.H/2
		gocv.Circle(dst, image.Pt(int(cx), int(cy)), int(p.W/8), sw.Color.RGBA, -1)
	}
}

func (r *Renderer) drawDeleteChoices(dst *gocv.Mat, choices []ui.Region) {
	for _, opt := range choices {
		rect := toRect(opt.Rect)
		gocv.Rectangle(dst, rect, menuFill, -1)
		gocv.Rectangle(dst, rect, buttonColor, outline)

		label := "all"
		if opt.Action == ui.ActionPartialErase {
			label = "part"
		}
		gocv.PutText(dst, label, image.Pt(rect.Min.X+8, rect.Max.Y-12), gocv.FontHersheySimplex, 0.6, textColor, 2)
	}
}

func (r *Renderer) drawSwatches(dst *gocv.Mat) {
	for _, sw := range r.layout.Swatches {
		rect := toRect(sw.Rect)
		gocv.Rectangle(dst, rect, sw.Color.RGBA, -1)
		gocv.Rectangle(dst, rect, buttonColor, 1)
	}
}

func (r *Renderer) drawReactions(dst *gocv.Mat, instances []reaction.Instance) {
	for _, in := range instances {
		if in.Y < 0 || in.Y >= float64(r.layout.Height) {
			continue
		}
		// Fading shrinks the particle instead of blending it.
		radius := int(math.Round(in.Size / 2 * float64(in.Alpha) / reaction.MaxAlpha))
		if radius < 1 {
			continue
		}
		gocv.Circle(dst, image.Pt(int(in.X), int(in.Y)), radius, reactionInks[in.Kind], -1)
	}
}

func (r *Renderer) drawCursor(dst *gocv.Mat, s engine.State, obs gesture.Observation) {
	if !obs.Present {
		return
	}

	center := toImagePoint(obs.Cursor)
	if s.PartialErase {
		gocv.Circle(dst, center, int(math.Round(r.eraseRadius)), eraseColor, outline)
	}

	ink := s.CurrentColor.RGBA
	ink.A = 255
	if obs.Pinch {
		gocv.Circle(dst, center, cursorRadius, ink, -1)
		return
	}
	gocv.Circle(dst, center, cursorRadius, ink, outline)
}

func toRect(r ui.Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)), int(math.Round(r.Y)),
		int(math.Round(r.X+r.W)), int(math.Round(r.Y+r.H)),
	)
}
