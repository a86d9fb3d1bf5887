// Package reaction animates the short-lived particles spawned by the reaction
// buttons.
package reaction

import (
	"math/rand/v2"
	"sync"

	"github.com/ayusman/pinchboard/internal/gesture"
	"github.com/ayusman/pinchboard/internal/ui"
)

// Kind selects the animation style of an instance.
type Kind string

const (
	KindHeart    Kind = "heart"
	KindThumb    Kind = "thumb"
	KindApplause Kind = "applause"
	KindDefault  Kind = "default"
)

// Animation constants.
const (
	MaxAlpha       = 255
	heartCount     = 10
	applauseCount  = 5
	applauseSpread = 50
	minSpeed       = 1.0
	maxSpeed       = 3.0
	heartMinLift   = 20.0
	heartMaxLift   = 100.0

	// Sizes are the nominal glyph heights in pixels.
	DefaultSize = 64.0
	ThumbSize   = 100.0
)

// KindOf maps a reaction button to its animation style.
func KindOf(r ui.Reaction) Kind {
	switch r {
	case ui.ReactionHeart:
		return KindHeart
	case ui.ReactionThumbsUp:
		return KindThumb
	case ui.ReactionClap:
		return KindApplause
	default:
		return KindDefault
	}
}

// Instance is one animated particle.
type Instance struct {
	Reaction ui.Reaction `json:"reaction"`
	Kind     Kind        `json:"kind"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Speed    float64     `json:"speed"`
	Alpha    int         `json:"alpha"`
	Size     float64     `json:"size"`
}

// FX owns the live reaction instances. It satisfies engine.Spawner.
type FX struct {
	width, height float64
	rng           *rand.Rand

	mu        sync.Mutex
	instances []Instance
}

// NewFX creates an FX for a width x height canvas.
func NewFX(width, height int) *FX {
	return NewFXWithRand(width, height, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}

// NewFXWithRand creates an FX drawing jitter from rng.
func NewFXWithRand(width, height int, rng *rand.Rand) *FX {
	return &FX{
		width:  float64(width),
		height: float64(height),
		rng:    rng,
	}
}

// Spawn starts the animation for r. Hearts rain from above the top edge at
// random x; the other styles start around the canvas center, so origin is
// ignored.
func (f *FX) Spawn(r ui.Reaction, _ gesture.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()

	kind := KindOf(r)
	cx, cy := f.width/2, f.height/2

	switch kind {
	case KindHeart:
		for i := 0; i < heartCount; i++ {
			f.add(r, kind, f.uniform(0, f.width), -f.uniform(heartMinLift, heartMaxLift))
		}
	case KindApplause:
		for i := 0; i < applauseCount; i++ {
			f.add(r, kind,
				cx+f.uniform(-applauseSpread, applauseSpread),
				cy+f.uniform(-applauseSpread, applauseSpread))
		}
	default:
		f.add(r, kind, cx, cy)
	}
}

func (f *FX) add(r ui.Reaction, kind Kind, x, y float64) {
	size := DefaultSize
	if kind == KindThumb {
		size = ThumbSize
	}
	f.instances = append(f.instances, Instance{
		Reaction: r,
		Kind:     kind,
		X:        x,
		Y:        y,
		Speed:    f.uniform(minSpeed, maxSpeed),
		Alpha:    MaxAlpha,
		Size:     size,
	})
}

func (f *FX) uniform(lo, hi float64) float64 {
	return lo + f.rng.Float64()*(hi-lo)
}

// Update advances every instance by one frame: hearts fall, everything else
// rises, all fade by one alpha step. Faded instances are removed.
func (f *FX) Update() {
	f.mu.Lock()
	defer f.mu.Unlock()

	live := f.instances[:0]
	for _, in := range f.instances {
		if in.Kind == KindHeart {
			in.Y += in.Speed
		} else {
			in.Y -= in.Speed
		}
		in.Alpha--
		if in.Alpha > 0 {
			live = append(live, in)
		}
	}
	clear(f.instances[len(live):])
	f.instances = live
}

// Instances returns a copy of the live instances.
func (f *FX) Instances() []Instance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Instance(nil), f.instances...)
}

// Len returns the number of live instances.
func (f *FX) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.instances)
}

// Reset drops every instance.
func (f *FX) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.instances = nil
}
