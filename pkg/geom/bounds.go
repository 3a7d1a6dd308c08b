package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Bounds is an axis-aligned box in some coordinate space.
// A Bounds with Min > Max on any axis is empty.
type Bounds struct {
	Min r3.Vec `json:"min" toml:"min"`
	Max r3.Vec `json:"max" toml:"max"`
}

// NewBounds returns the box spanned by the two points, in any order.
func NewBounds(a, b r3.Vec) Bounds {
	return Bounds{
		Min: r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)},
		Max: r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)},
	}
}

// EmptyBounds returns a box that contains nothing. Extending it with a point
// yields a zero-size box at that point.
func EmptyBounds() Bounds {
	inf := math.Inf(1)
	return Bounds{
		Min: r3.Vec{X: inf, Y: inf, Z: inf},
		Max: r3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
}

// IsEmpty reports whether b contains no points.
func (b Bounds) IsEmpty() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y || b.Max.Z < b.Min.Z
}

// Extend returns b grown to include p.
func (b Bounds) Extend(p r3.Vec) Bounds {
	return Bounds{
		Min: r3.Vec{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)},
		Max: r3.Vec{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)},
	}
}

// Union returns the smallest box containing both b and o.
// Empty operands are ignored.
func (b Bounds) Union(o Bounds) Bounds {
	if o.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return o
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Center returns the midpoint of b.
func (b Bounds) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// Size returns the extent of b along each axis.
func (b Bounds) Size() r3.Vec {
	return r3.Sub(b.Max, b.Min)
}

// Corners returns the eight corners of b. Bit 0 of the index selects Max.X,
// bit 1 Max.Y and bit 2 Max.Z.
func (b Bounds) Corners() [8]r3.Vec {
	var c [8]r3.Vec
	for i := range c {
		p := b.Min
		if i&1 != 0 {
			p.X = b.Max.X
		}
		if i&2 != 0 {
			p.Y = b.Max.Y
		}
		if i&4 != 0 {
			p.Z = b.Max.Z
		}
		c[i] = p
	}
	return c
}

// Transform maps the corners of b through a and returns their bounds.
// The result is axis-aligned in the destination space, so it is generally
// larger than b when a rotates.
func (b Bounds) Transform(a Affine) Bounds {
	if b.IsEmpty() {
		return b
	}
	out := EmptyBounds()
	for _, c := range b.Corners() {
		out = out.Extend(a.Point(c))
	}
	return out
}

// Extremal returns the corner of b that minimizes (max == false) or
// maximizes (max == true) the dot product with dir. Ties keep the first
// corner in [Bounds.Corners] order.
func Extremal(b Bounds, dir r3.Vec, max bool) r3.Vec {
	corners := b.Corners()
	best := corners[0]
	bestDot := r3.Dot(best, dir)
	for _, c := range corners[1:] {
		d := r3.Dot(c, dir)
		if (max && d > bestDot) || (!max && d < bestDot) {
			best, bestDot = c, d
		}
	}
	return best
}

// HalfSpan returns half the length of b's projection onto axis.
// axis should be unit length; the result scales with its norm otherwise.
func HalfSpan(b Bounds, axis r3.Vec) float64 {
	lo := r3.Dot(Extremal(b, axis, false), axis)
	hi := r3.Dot(Extremal(b, axis, true), axis)
	return (hi - lo) / 2
}
