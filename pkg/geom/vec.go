package geom

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

// Common directions.
var (
	Up      = r3.Vec{Y: 1}
	Right   = r3.Vec{X: 1}
	Forward = r3.Vec{Z: 1}
)

// VecEqual reports exact component-wise equality.
func VecEqual(a, b r3.Vec) bool {
	return a.X == b.X && a.Y == b.Y && a.Z == b.Z
}

// VecNear reports whether every component of a and b differs by at most eps.
func VecNear(a, b r3.Vec, eps float64) bool {
	return scalar.EqualWithinAbs(a.X, b.X, eps) &&
		scalar.EqualWithinAbs(a.Y, b.Y, eps) &&
		scalar.EqualWithinAbs(a.Z, b.Z, eps)
}

// Vec converts a [3]float64 tuple.
func Vec(t [3]float64) r3.Vec { return r3.Vec{X: t[0], Y: t[1], Z: t[2]} }

// Tuple converts v to a [3]float64.
func Tuple(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

// Unit returns v normalized, and false when v has (near) zero length.
func Unit(v r3.Vec) (r3.Vec, bool) {
	n := r3.Norm(v)
	if n < 1e-12 {
		return r3.Vec{}, false
	}
	return r3.Scale(1/n, v), true
}

// Perpendicular returns a unit vector orthogonal to dir, preferring the
// component of ref that is orthogonal to dir. When dir is parallel to ref it
// falls back to world X, then world Z.
func Perpendicular(dir, ref r3.Vec) r3.Vec {
	dd := r3.Dot(dir, dir)
	if dd == 0 {
		return Right
	}
	for _, cand := range []r3.Vec{ref, Right, Forward} {
		p := r3.Sub(cand, r3.Scale(r3.Dot(cand, dir)/dd, dir))
		if r3.Norm(p) > 1e-6 {
			return r3.Scale(1/r3.Norm(p), p)
		}
	}
	return Right
}

// AngleBetween returns the angle between a and b in radians, using a
// clamped dot product so rounding never yields NaN.
func AngleBetween(a, b r3.Vec) float64 {
	ua, okA := Unit(a)
	ub, okB := Unit(b)
	if !okA || !okB {
		return 0
	}
	return math.Acos(Clamp(r3.Dot(ua, ub), -1, 1))
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
