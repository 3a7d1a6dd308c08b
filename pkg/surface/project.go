package surface

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/errors"
	"github.com/sticky3d/deskgeom/pkg/geom"
)

const (
	// parallelEps is the largest |N·dir| treated as a ray parallel to the plane.
	parallelEps = 1e-6

	// singularEps is the largest |det| of the Gram matrix treated as singular.
	singularEps = 1e-8
)

// Ray is a half-line. Dir need not be unit length.
type Ray struct {
	Origin r3.Vec `json:"origin"`
	Dir    r3.Vec `json:"dir"`
}

// At returns the point at parameter t.
func (r Ray) At(t float64) r3.Vec { return r3.Add(r.Origin, r3.Scale(t, r.Dir)) }

// Hit is the result of projecting a ray onto a surface. U and V are not
// clamped; see [Hit.Inside].
type Hit struct {
	Hit   bool    `json:"hit"`
	U     float64 `json:"u,omitempty"`
	V     float64 `json:"v,omitempty"`
	T     float64 `json:"t,omitempty"`
	Point r3.Vec  `json:"point"`
}

// Inside reports whether the hit lies within the surface rectangle.
func (h Hit) Inside() bool {
	return h.Hit && h.U >= 0 && h.U <= 1 && h.V >= 0 && h.V <= 1
}

// Project intersects r with the plane of s and solves for the in-plane
// coordinates.
//
// The hit point P is expressed relative to the origin and (u, v) solve the
// Gram system
//
//	[U·U  U·V] [u]   [PO·U]
//	[U·V  V·V] [v] = [PO·V]
//
// by Cramer's rule. Parallel rays, hits behind the ray origin and singular
// Gram matrices all yield Hit{Hit: false}.
//
// A ray counts as parallel when |N·Dir| < 1e-6 for the unit normal N. Dir is
// not normalized, so a very short direction also misses.
func Project(r Ray, s Surface) Hit {
	n, ok := geom.Unit(r3.Cross(s.UAxis, s.VAxis))
	if !ok {
		return Hit{}
	}
	denom := r3.Dot(n, r.Dir)
	if math.Abs(denom) < parallelEps {
		return Hit{}
	}

	t := r3.Dot(n, r3.Sub(s.Origin, r.Origin)) / denom
	if t < 0 {
		return Hit{}
	}

	p := r.At(t)
	u, v, ok := solveUV(r3.Sub(p, s.Origin), s.UAxis, s.VAxis)
	if !ok {
		return Hit{}
	}
	return Hit{Hit: true, U: u, V: v, T: t, Point: p}
}

// ProjectChecked is [Project] for callers that must distinguish a miss from
// malformed input: a surface whose Gram matrix is singular yields a
// SINGULAR_SYSTEM error instead of a silent miss.
func ProjectChecked(r Ray, s Surface) (Hit, error) {
	a := r3.Dot(s.UAxis, s.UAxis)
	b := r3.Dot(s.UAxis, s.VAxis)
	d := r3.Dot(s.VAxis, s.VAxis)
	if det := a*d - b*b; math.Abs(det) < singularEps {
		return Hit{}, errors.New(errors.ErrCodeSingularSystem, "surface %q: gram determinant %g", s.ID, det)
	}
	return Project(r, s), nil
}

// WorldToUV expresses p, assumed to lie on the plane of s, in surface
// coordinates. ok is false when the surface axes are degenerate.
func WorldToUV(p r3.Vec, s Surface) (u, v float64, ok bool) {
	return solveUV(r3.Sub(p, s.Origin), s.UAxis, s.VAxis)
}

func solveUV(po, U, V r3.Vec) (float64, float64, bool) {
	a := r3.Dot(U, U)
	b := r3.Dot(U, V)
	d := r3.Dot(V, V)
	det := a*d - b*b
	if math.Abs(det) < singularEps {
		return 0, 0, false
	}
	pu := r3.Dot(po, U)
	pv := r3.Dot(po, V)
	return (pu*d - b*pv) / det, (a*pv - b*pu) / det, true
}

// GramCondition returns the 2-norm condition number of the surface's Gram
// matrix. Large values flag nearly parallel axes before projection starts
// failing outright.
func GramCondition(s Surface) float64 {
	g := mat.NewSymDense(2, []float64{
		r3.Dot(s.UAxis, s.UAxis), r3.Dot(s.UAxis, s.VAxis),
		r3.Dot(s.UAxis, s.VAxis), r3.Dot(s.VAxis, s.VAxis),
	})
	return mat.Cond(g, 2)
}
