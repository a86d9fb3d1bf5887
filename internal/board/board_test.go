package board

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/pinchboard/internal/engine"
	"github.com/ayusman/pinchboard/internal/gesture"
	"github.com/ayusman/pinchboard/internal/reaction"
	"github.com/ayusman/pinchboard/internal/ui"
)

var red = ui.Color{Name: "red", RGBA: ui.DefaultPalette[0].RGBA}

func skipShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}
}

func TestCanvas_StartsTransparent(t *testing.T) {
	skipShort(t)

	c := NewCanvas(640, 480)
	defer c.Close()

	assert.Zero(t, c.Painted())
	w, h := c.Size()
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
}

func TestCanvas_DrawSegment(t *testing.T) {
	skipShort(t)

	c := NewCanvas(640, 480)
	defer c.Close()

	c.DrawSegment(gesture.Point{X: 100, Y: 200}, gesture.Point{X: 300, Y: 200}, red, 4)

	assert.True(t, c.IsPainted(gesture.Point{X: 200, Y: 200}))
	assert.False(t, c.IsPainted(gesture.Point{X: 200, Y: 260}))
	assert.Greater(t, c.Painted(), 200*3)
}

func TestCanvas_EraseDisc(t *testing.T) {
	skipShort(t)

	c := NewCanvas(640, 480)
	defer c.Close()

	c.DrawSegment(gesture.Point{X: 50, Y: 150}, gesture.Point{X: 350, Y: 150}, red, 4)
	c.EraseDisc(gesture.Point{X: 100, Y: 150}, 25)

	assert.False(t, c.IsPainted(gesture.Point{X: 100, Y: 150}))
	assert.False(t, c.IsPainted(gesture.Point{X: 120, Y: 150}))
	assert.True(t, c.IsPainted(gesture.Point{X: 200, Y: 150}), "outside the radius stays painted")
}

func TestCanvas_Clear(t *testing.T) {
	skipShort(t)

	c := NewCanvas(640, 480)
	defer c.Close()

	c.DrawSegment(gesture.Point{X: 100, Y: 200}, gesture.Point{X: 300, Y: 300}, red, 4)
	require.NotZero(t, c.Painted())

	c.Clear()

	assert.Zero(t, c.Painted())
}

func TestCanvas_Composite(t *testing.T) {
	skipShort(t)

	c := NewCanvas(640, 480)
	defer c.Close()
	c.DrawSegment(gesture.Point{X: 100, Y: 200}, gesture.Point{X: 300, Y: 200}, red, 4)

	dst := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer dst.Close()
	dst.SetTo(gocv.NewScalar(255, 255, 255, 0))

	require.NoError(t, c.Composite(&dst))

	painted := dst.GetVecbAt(200, 200)
	assert.Equal(t, red.RGBA.B, painted[0])
	assert.Equal(t, red.RGBA.G, painted[1])
	assert.Equal(t, red.RGBA.R, painted[2])

	untouched := dst.GetVecbAt(400, 400)
	assert.Equal(t, uint8(255), untouched[0])
}

func TestCanvas_CompositeRejectsMismatchedFrame(t *testing.T) {
	skipShort(t)

	c := NewCanvas(640, 480)
	defer c.Close()

	dst := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer dst.Close()

	assert.Error(t, c.Composite(&dst))
	assert.Error(t, c.Composite(nil))
}

func TestCanvas_EncodePNG(t *testing.T) {
	skipShort(t)

	c := NewCanvas(64, 48)
	defer c.Close()

	data, err := c.EncodePNG()
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())
}

func TestCanvas_UseAfterClose(t *testing.T) {
	skipShort(t)

	c := NewCanvas(64, 48)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	c.Clear()
	c.DrawSegment(gesture.Point{X: 1, Y: 1}, gesture.Point{X: 10, Y: 10}, red, 4)
	assert.Zero(t, c.Painted())

	_, err := c.EncodePNG()
	assert.ErrorIs(t, err, ErrCanvasClosed)
}

func TestRenderer_RenderWithoutCamera(t *testing.T) {
	skipShort(t)

	layout := ui.NewLayout(ui.DefaultWidth, ui.DefaultHeight)
	c := NewCanvas(layout.Width, layout.Height)
	defer c.Close()
	r := NewRenderer(layout, c, engine.DefaultEraseRadius)

	state := engine.InitialState()
	state.ShowColorOptions = true
	state.ShowDeleteOptions = true
	state.DeleteChoices = layout.DeleteChoices()

	out, err := r.Render(Frame{
		State:       state,
		Observation: gesture.Observation{Present: true, Pinch: true, Cursor: gesture.Point{X: 320, Y: 400}},
		Reactions:   []reaction.Instance{{Kind: reaction.KindThumb, X: 320, Y: 240, Alpha: 255, Size: reaction.ThumbSize}},
	})
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, layout.Width, out.Cols())
	assert.Equal(t, layout.Height, out.Rows())
	assert.Equal(t, 3, out.Channels())

	// Swatch interiors are filled with their color.
	sw := layout.Swatches[0]
	center := sw.Rect.Center()
	px := out.GetVecbAt(int(center.Y), int(center.X))
	assert.Equal(t, sw.Color.RGBA.R, px[2])

	// Background stays white away from the overlay.
	bg := out.GetVecbAt(450, 600)
	assert.Equal(t, []uint8{255, 255, 255}, []uint8{bg[0], bg[1], bg[2]})
}

func TestRenderer_RenderUsesCameraFrame(t *testing.T) {
	skipShort(t)

	layout := ui.NewLayout(ui.DefaultWidth, ui.DefaultHeight)
	c := NewCanvas(layout.Width, layout.Height)
	defer c.Close()
	r := NewRenderer(layout, c, engine.DefaultEraseRadius)

	camera := gocv.NewMatWithSize(layout.Height, layout.Width, gocv.MatTypeCV8UC3)
	defer camera.Close()
	camera.SetTo(gocv.NewScalar(10, 20, 30, 0))

	out, err := r.Render(Frame{Camera: &camera, State: engine.InitialState()})
	require.NoError(t, err)
	defer out.Close()

	px := out.GetVecbAt(450, 600)
	assert.Equal(t, uint8(10), px[0])
	assert.Equal(t, uint8(30), px[2])
}

func TestRenderer_RenderJPEG(t *testing.T) {
	skipShort(t)

	layout := ui.NewLayout(ui.DefaultWidth, ui.DefaultHeight)
	c := NewCanvas(layout.Width, layout.Height)
	defer c.Close()
	r := NewRenderer(layout, c, engine.DefaultEraseRadius)

	data, err := r.RenderJPEG(Frame{State: engine.InitialState()})
	require.NoError(t, err)
	require.Greater(t, len(data), 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, data[:2])
}
