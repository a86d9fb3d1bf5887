// Package ui models the interactive regions drawn over the board: reaction
// buttons, the clear button with its delete choices, and the palette with its
// color swatches.
package ui

import (
	"fmt"
	"image/color"

	"github.com/ayusman/pinchboard/internal/gesture"
)

// Rect is an axis-aligned rectangle in display coordinates.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Contains reports whether p lies strictly inside the rectangle.
// Points on an edge are outside.
func (r Rect) Contains(p gesture.Point) bool {
	return p.X > r.X && p.X < r.X+r.W &&
		p.Y > r.Y && p.Y < r.Y+r.H
}

// Overlaps reports whether the open interiors of r and o intersect.
// Rectangles that only share an edge do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W &&
		r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() gesture.Point {
	return gesture.Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Kind identifies the family a region belongs to.
type Kind int

const (
	KindReaction Kind = iota
	KindClear
	KindPalette
	KindDeleteChoice
	KindSwatch
)

func (k Kind) String() string {
	switch k {
	case KindReaction:
		return "reaction"
	case KindClear:
		return "clear"
	case KindPalette:
		return "palette"
	case KindDeleteChoice:
		return "delete_choice"
	case KindSwatch:
		return "swatch"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Reaction identifies a reaction button.
type Reaction int

const (
	ReactionThumbsUp Reaction = iota
	ReactionThumbsDown
	ReactionHeart
	ReactionClap
)

// Reactions lists every reaction in button order, left to right.
var Reactions = []Reaction{ReactionThumbsUp, ReactionThumbsDown, ReactionHeart, ReactionClap}

func (r Reaction) String() string {
	switch r {
	case ReactionThumbsUp:
		return "thumbs_up"
	case ReactionThumbsDown:
		return "thumbs_down"
	case ReactionHeart:
		return "heart"
	case ReactionClap:
		return "clap"
	default:
		return fmt.Sprintf("reaction(%d)", int(r))
	}
}

// MarshalText encodes the reaction by name.
func (r Reaction) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Color is a named drawing color.
type Color struct {
	Name string     `json:"name"`
	RGBA color.RGBA `json:"rgba"`
}

// Region is a rectangular hit zone bound to an action.
type Region struct {
	Rect     Rect     `json:"rect"`
	Kind     Kind     `json:"kind"`
	Action   ActionID `json:"action"`
	Label    string   `json:"label"`
	Color    Color    `json:"color"`
	Reaction Reaction `json:"reaction"`
}

// HitTest returns every region whose rectangle strictly contains p, in the
// order they were given.
func HitTest(regions []Region, p gesture.Point) []Region {
	var hits []Region
	for _, r := range regions {
		if r.Rect.Contains(p) {
			hits = append(hits, r)
		}
	}
	return hits
}
