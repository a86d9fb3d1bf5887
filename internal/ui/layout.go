package ui

import (
	"errors"
	"fmt"
	"image/color"
)

// Default canvas size. Region coordinates are fixed pixels relative to it.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// Layout constants for the button strip and menus.
const (
	buttonSize     = 80
	buttonMargin   = 20
	buttonTop      = 10
	reactionStride = 100
	paletteTop     = 200
	menuGap        = 10
	choiceHeight   = 40
	choiceStride   = 50
	swatchSize     = 30
	swatchGap      = 10
	swatchCols     = 5
	swatchRows     = 2
)

// Delete choice labels.
const (
	LabelFullClear    = "full_clear"
	LabelPartialErase = "partial_erase"
)

// ErrInvalidLayout is returned by Validate when regions break a placement invariant.
var ErrInvalidLayout = errors.New("invalid layout")

// Black is the initial drawing color.
var Black = Color{Name: "black", RGBA: color.RGBA{R: 0, G: 0, B: 0, A: 255}}

// DefaultPalette lists the swatch colors in grid order, row by row.
var DefaultPalette = []Color{
	{Name: "crimson", RGBA: color.RGBA{R: 220, G: 20, B: 60, A: 255}},
	{Name: "gold", RGBA: color.RGBA{R: 255, G: 215, B: 0, A: 255}},
	{Name: "limegreen", RGBA: color.RGBA{R: 50, G: 205, B: 50, A: 255}},
	{Name: "deepskyblue", RGBA: color.RGBA{R: 0, G: 191, B: 255, A: 255}},
	{Name: "darkviolet", RGBA: color.RGBA{R: 148, G: 0, B: 211, A: 255}},
	{Name: "orange", RGBA: color.RGBA{R: 255, G: 165, B: 0, A: 255}},
	{Name: "gray", RGBA: color.RGBA{R: 128, G: 128, B: 128, A: 255}},
	{Name: "saddlebrown", RGBA: color.RGBA{R: 139, G: 69, B: 19, A: 255}},
	{Name: "magenta", RGBA: color.RGBA{R: 255, G: 0, B: 255, A: 255}},
	{Name: "cyan", RGBA: color.RGBA{R: 0, G: 255, B: 255, A: 255}},
}

// Layout holds the static regions of the board UI. It is built once at
// startup and never mutated; delete choices are derived on demand.
type Layout struct {
	Width     int      `json:"width"`
	Height    int      `json:"height"`
	Reactions []Region `json:"reactions"`
	Clear     Region   `json:"clear"`
	Palette   Region   `json:"palette"`
	Swatches  []Region `json:"swatches"`
}

// NewLayout lays out the standard UI on a width x height canvas: reaction
// buttons along the top left, the clear button top right, the palette on the
// left edge with a 2x5 swatch grid beneath it.
func NewLayout(width, height int) *Layout {
	l := &Layout{Width: width, Height: height}

	for i, r := range Reactions {
		l.Reactions = append(l.Reactions, Region{
			Rect:     Rect{X: float64(buttonMargin + i*reactionStride), Y: buttonTop, W: buttonSize, H: buttonSize},
			Kind:     KindReaction,
			Action:   ReactionAction(r),
			Label:    r.String(),
			Reaction: r,
		})
	}

	l.Clear = Region{
		Rect:   Rect{X: float64(width - 100), Y: buttonTop, W: buttonSize, H: buttonSize},
		Kind:   KindClear,
		Action: ActionOpenDeleteMenu,
		Label:  "clear",
	}

	l.Palette = Region{
		Rect:   Rect{X: buttonMargin, Y: paletteTop, W: buttonSize, H: buttonSize},
		Kind:   KindPalette,
		Action: ActionOpenPalette,
		Label:  "palette",
	}

	startX := l.Palette.Rect.X
	startY := l.Palette.Rect.Y + l.Palette.Rect.H + menuGap
	for row := 0; row < swatchRows; row++ {
		for col := 0; col < swatchCols; col++ {
			idx := row*swatchCols + col
			c := DefaultPalette[idx]
			l.Swatches = append(l.Swatches, Region{
				Rect: Rect{
					X: startX + float64(col*(swatchSize+swatchGap)),
					Y: startY + float64(row*(swatchSize+swatchGap)),
					W: swatchSize,
					H: swatchSize,
				},
				Kind:   KindSwatch,
				Action: SwatchAction(idx),
				Label:  c.Name,
				Color:  c,
			})
		}
	}

	return l
}

// DeleteChoices returns fresh full-clear and partial-erase regions stacked
// directly beneath the clear button.
func (l *Layout) DeleteChoices() []Region {
	c := l.Clear.Rect
	return []Region{
		{
			Rect:   Rect{X: c.X, Y: c.Y + c.H + menuGap, W: c.W, H: choiceHeight},
			Kind:   KindDeleteChoice,
			Action: ActionFullClear,
			Label:  LabelFullClear,
		},
		{
			Rect:   Rect{X: c.X, Y: c.Y + c.H + menuGap + choiceStride, W: c.W, H: choiceHeight},
			Kind:   KindDeleteChoice,
			Action: ActionPartialErase,
			Label:  LabelPartialErase,
		},
	}
}

// Regions returns every region the layout can ever show, delete choices
// included, in hit-test order.
func (l *Layout) Regions() []Region {
	all := make([]Region, 0, len(l.Reactions)+4+len(l.Swatches))
	all = append(all, l.Reactions...)
	all = append(all, l.Clear, l.Palette)
	all = append(all, l.DeleteChoices()...)
	all = append(all, l.Swatches...)
	return all
}

// Validate checks the placement invariants the engine relies on: every region
// has a positive size and fits on the canvas, no two regions overlap, action
// identities are unique, and swatch colors are distinct.
func (l *Layout) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("%w: canvas size %dx%d", ErrInvalidLayout, l.Width, l.Height)
	}

	regions := l.Regions()
	for _, r := range regions {
		if r.Rect.W <= 0 || r.Rect.H <= 0 {
			return fmt.Errorf("%w: region %q has non-positive size", ErrInvalidLayout, r.Label)
		}
		if r.Rect.X < 0 || r.Rect.Y < 0 ||
			r.Rect.X+r.Rect.W > float64(l.Width) || r.Rect.Y+r.Rect.H > float64(l.Height) {
			return fmt.Errorf("%w: region %q lies outside the %dx%d canvas", ErrInvalidLayout, r.Label, l.Width, l.Height)
		}
	}

	for i := range regions {
		for j := i + 1; j < len(regions); j++ {
			if regions[i].Rect.Overlaps(regions[j].Rect) {
				return fmt.Errorf("%w: regions %q and %q overlap", ErrInvalidLayout, regions[i].Label, regions[j].Label)
			}
		}
	}

	actions := make(map[ActionID]string, len(regions))
	for _, r := range regions {
		if prev, ok := actions[r.Action]; ok {
			return fmt.Errorf("%w: regions %q and %q share action %s", ErrInvalidLayout, prev, r.Label, r.Action)
		}
		actions[r.Action] = r.Label
	}

	colors := make(map[string]bool, len(l.Swatches))
	for _, s := range l.Swatches {
		if colors[s.Color.Name] {
			return fmt.Errorf("%w: duplicate swatch color %q", ErrInvalidLayout, s.Color.Name)
		}
		colors[s.Color.Name] = true
	}

	return nil
}
