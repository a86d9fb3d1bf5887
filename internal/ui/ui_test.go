package ui

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/pinchboard/internal/gesture"
)

func pt(x, y float64) gesture.Point {
	return gesture.Point{X: x, Y: y}
}

func TestRect_ContainsIsBoundaryExclusive(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 80, H: 40}

	tests := []struct {
		name string
		p    gesture.Point
		want bool
	}{
		{name: "center", p: pt(50, 40), want: true},
		{name: "just inside top left", p: pt(10.001, 20.001), want: true},
		{name: "left edge", p: pt(10, 40), want: false},
		{name: "right edge", p: pt(90, 40), want: false},
		{name: "top edge", p: pt(50, 20), want: false},
		{name: "bottom edge", p: pt(50, 60), want: false},
		{name: "corner", p: pt(10, 20), want: false},
		{name: "outside", p: pt(200, 200), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Contains(tt.p))
		})
	}
}

func TestRect_Overlaps(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}

	assert.True(t, a.Overlaps(Rect{X: 5, Y: 5, W: 10, H: 10}))
	assert.True(t, a.Overlaps(Rect{X: 2, Y: 2, W: 2, H: 2}), "containment overlaps")
	assert.False(t, a.Overlaps(Rect{X: 10, Y: 0, W: 10, H: 10}), "shared edge is not overlap")
	assert.False(t, a.Overlaps(Rect{X: 0, Y: 20, W: 10, H: 10}))
}

func TestHitTest(t *testing.T) {
	regions := []Region{
		{Rect: Rect{X: 0, Y: 0, W: 50, H: 50}, Label: "a"},
		{Rect: Rect{X: 100, Y: 0, W: 50, H: 50}, Label: "b"},
	}

	hits := HitTest(regions, pt(25, 25))
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].Label)

	assert.Empty(t, HitTest(regions, pt(50, 25)), "edge between regions hits nothing")
	assert.Empty(t, HitTest(nil, pt(25, 25)))
}

func TestNewLayout_Positions(t *testing.T) {
	l := NewLayout(DefaultWidth, DefaultHeight)

	require.Len(t, l.Reactions, 4)
	assert.Equal(t, Rect{X: 20, Y: 10, W: 80, H: 80}, l.Reactions[0].Rect)
	assert.Equal(t, Rect{X: 320, Y: 10, W: 80, H: 80}, l.Reactions[3].Rect)
	assert.Equal(t, ReactionHeart, l.Reactions[2].Reaction)
	assert.Equal(t, ActionHeart, l.Reactions[2].Action)

	assert.Equal(t, Rect{X: 540, Y: 10, W: 80, H: 80}, l.Clear.Rect)
	assert.Equal(t, Rect{X: 20, Y: 200, W: 80, H: 80}, l.Palette.Rect)

	require.Len(t, l.Swatches, 10)
	assert.Equal(t, Rect{X: 20, Y: 290, W: 30, H: 30}, l.Swatches[0].Rect)
	assert.Equal(t, Rect{X: 180, Y: 290, W: 30, H: 30}, l.Swatches[4].Rect)
	assert.Equal(t, Rect{X: 20, Y: 330, W: 30, H: 30}, l.Swatches[5].Rect)
	assert.Equal(t, "crimson", l.Swatches[0].Color.Name)
	assert.Equal(t, "cyan", l.Swatches[9].Color.Name)
}

func TestLayout_DeleteChoices(t *testing.T) {
	l := NewLayout(DefaultWidth, DefaultHeight)

	choices := l.DeleteChoices()

	require.Len(t, choices, 2)
	assert.Equal(t, ActionFullClear, choices[0].Action)
	assert.Equal(t, Rect{X: 540, Y: 100, W: 80, H: 40}, choices[0].Rect)
	assert.Equal(t, ActionPartialErase, choices[1].Action)
	assert.Equal(t, Rect{X: 540, Y: 150, W: 80, H: 40}, choices[1].Rect)
}

func TestLayout_Validate(t *testing.T) {
	t.Run("default layout is valid", func(t *testing.T) {
		assert.NoError(t, NewLayout(DefaultWidth, DefaultHeight).Validate())
	})

	t.Run("overlapping regions are rejected", func(t *testing.T) {
		l := NewLayout(DefaultWidth, DefaultHeight)
		l.Palette.Rect = Rect{X: 30, Y: 20, W: 80, H: 80}

		err := l.Validate()

		assert.ErrorIs(t, err, ErrInvalidLayout)
		assert.ErrorContains(t, err, "overlap")
	})

	t.Run("delete choices count toward overlap", func(t *testing.T) {
		l := NewLayout(DefaultWidth, DefaultHeight)
		l.Swatches[9].Rect = Rect{X: 560, Y: 120, W: 10, H: 10}

		assert.ErrorIs(t, l.Validate(), ErrInvalidLayout)
	})

	t.Run("narrow canvas pushes clear onto reactions", func(t *testing.T) {
		assert.ErrorIs(t, NewLayout(420, DefaultHeight).Validate(), ErrInvalidLayout)
	})

	t.Run("regions outside canvas are rejected", func(t *testing.T) {
		assert.ErrorIs(t, NewLayout(DefaultWidth, 300).Validate(), ErrInvalidLayout)
	})

	t.Run("duplicate swatch colors are rejected", func(t *testing.T) {
		l := NewLayout(DefaultWidth, DefaultHeight)
		l.Swatches[1].Color = l.Swatches[0].Color

		err := l.Validate()

		assert.ErrorIs(t, err, ErrInvalidLayout)
		assert.ErrorContains(t, err, "duplicate swatch color")
	})

	t.Run("zero sized regions are rejected", func(t *testing.T) {
		l := NewLayout(DefaultWidth, DefaultHeight)
		l.Reactions[0].Rect.W = 0

		assert.ErrorIs(t, l.Validate(), ErrInvalidLayout)
	})

	t.Run("empty canvas is rejected", func(t *testing.T) {
		assert.ErrorIs(t, (&Layout{}).Validate(), ErrInvalidLayout)
	})
}

func TestActionID(t *testing.T) {
	assert.Equal(t, ActionThumbsUp, ReactionAction(ReactionThumbsUp))
	assert.Equal(t, ActionClap, ReactionAction(ReactionClap))

	idx, ok := SwatchAction(7).SwatchIndex()
	assert.True(t, ok)
	assert.Equal(t, 7, idx)

	_, ok = ActionFullClear.SwatchIndex()
	assert.False(t, ok)

	assert.Equal(t, "swatch_3", SwatchAction(3).String())
	assert.Equal(t, "partial_erase", ActionPartialErase.String())
}

func TestRegion_JSON(t *testing.T) {
	l := NewLayout(DefaultWidth, DefaultHeight)

	data, err := jsoniter.Marshal(l.Swatches[2])
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, jsoniter.Unmarshal(data, &decoded))
	assert.Equal(t, "swatch", decoded["kind"])
	assert.Equal(t, "swatch_2", decoded["action"])
	assert.Equal(t, "limegreen", decoded["label"])
}
