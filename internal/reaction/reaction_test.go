package reaction

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/pinchboard/internal/gesture"
	"github.com/ayusman/pinchboard/internal/ui"
)

func newTestFX() *FX {
	return NewFXWithRand(640, 480, rand.New(rand.NewPCG(1, 2)))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindThumb, KindOf(ui.ReactionThumbsUp))
	assert.Equal(t, KindDefault, KindOf(ui.ReactionThumbsDown))
	assert.Equal(t, KindHeart, KindOf(ui.ReactionHeart))
	assert.Equal(t, KindApplause, KindOf(ui.ReactionClap))
}

func TestSpawn_Counts(t *testing.T) {
	tests := []struct {
		reaction ui.Reaction
		want     int
	}{
		{ui.ReactionHeart, 10},
		{ui.ReactionThumbsUp, 1},
		{ui.ReactionClap, 5},
		{ui.ReactionThumbsDown, 1},
	}

	for _, tt := range tests {
		t.Run(tt.reaction.String(), func(t *testing.T) {
			fx := newTestFX()
			fx.Spawn(tt.reaction, gesture.Point{})
			assert.Equal(t, tt.want, fx.Len())
		})
	}
}

func TestSpawn_Positions(t *testing.T) {
	fx := newTestFX()
	fx.Spawn(ui.ReactionHeart, gesture.Point{})
	fx.Spawn(ui.ReactionClap, gesture.Point{})
	fx.Spawn(ui.ReactionThumbsUp, gesture.Point{X: 10, Y: 10})

	for _, in := range fx.Instances() {
		assert.Equal(t, MaxAlpha, in.Alpha)
		assert.GreaterOrEqual(t, in.Speed, 1.0)
		assert.Less(t, in.Speed, 3.0)

		switch in.Kind {
		case KindHeart:
			assert.GreaterOrEqual(t, in.X, 0.0)
			assert.Less(t, in.X, 640.0)
			assert.LessOrEqual(t, in.Y, -20.0)
			assert.Greater(t, in.Y, -100.0)
		case KindApplause:
			assert.InDelta(t, 320, in.X, 50)
			assert.InDelta(t, 240, in.Y, 50)
		case KindThumb:
			assert.Equal(t, 320.0, in.X)
			assert.Equal(t, 240.0, in.Y)
			assert.Equal(t, ThumbSize, in.Size)
		}
	}
}

func TestUpdate_MovesAndFades(t *testing.T) {
	fx := newTestFX()
	fx.Spawn(ui.ReactionHeart, gesture.Point{})
	fx.Spawn(ui.ReactionThumbsDown, gesture.Point{})
	before := fx.Instances()

	fx.Update()

	after := fx.Instances()
	require.Len(t, after, len(before))
	for i := range after {
		assert.Equal(t, MaxAlpha-1, after[i].Alpha)
		if after[i].Kind == KindHeart {
			assert.InDelta(t, before[i].Y+before[i].Speed, after[i].Y, 1e-9)
		} else {
			assert.InDelta(t, before[i].Y-before[i].Speed, after[i].Y, 1e-9)
		}
	}
}

func TestUpdate_RemovesFadedInstances(t *testing.T) {
	fx := newTestFX()
	fx.Spawn(ui.ReactionClap, gesture.Point{})

	for i := 0; i < MaxAlpha-1; i++ {
		fx.Update()
	}
	assert.Equal(t, 5, fx.Len())

	fx.Update()
	assert.Equal(t, 0, fx.Len())
}

func TestInstances_ReturnsCopy(t *testing.T) {
	fx := newTestFX()
	fx.Spawn(ui.ReactionThumbsUp, gesture.Point{})

	got := fx.Instances()
	got[0].Alpha = 0

	assert.Equal(t, MaxAlpha, fx.Instances()[0].Alpha)
}

func TestReset(t *testing.T) {
	fx := newTestFX()
	fx.Spawn(ui.ReactionHeart, gesture.Point{})

	fx.Reset()

	assert.Zero(t, fx.Len())
}
