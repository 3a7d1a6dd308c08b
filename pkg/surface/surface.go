package surface

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/errors"
	"github.com/sticky3d/deskgeom/pkg/geom"
)

// degenerateCross is the smallest |U×V| accepted for a surface.
const degenerateCross = 1e-12

// Surface is a planar frame. UAxis and VAxis are not unit length: their
// lengths are the surface's world extent along each axis, so (u, v) in
// [0,1]² covers the surface rectangle.
type Surface struct {
	ID     string `json:"id"`
	Kind   Kind   `json:"kind"`
	Origin r3.Vec `json:"origin"`
	UAxis  r3.Vec `json:"u_axis"`
	VAxis  r3.Vec `json:"v_axis"`

	// N is the outward unit normal. Zero means unit(UAxis × VAxis).
	N r3.Vec `json:"normal,omitempty"`

	// ZLift offsets objects resting on the surface along its normal.
	ZLift *float64 `json:"z_lift,omitempty"`
}

// Normal returns the outward unit normal.
func (s Surface) Normal() r3.Vec {
	if s.N != (r3.Vec{}) {
		return s.N
	}
	n, _ := geom.Unit(r3.Cross(s.UAxis, s.VAxis))
	return n
}

// Validate reports a DEGENERATE_GEOMETRY error when UAxis × VAxis vanishes.
func (s Surface) Validate() error {
	if r3.Norm(r3.Cross(s.UAxis, s.VAxis)) < degenerateCross {
		return errors.New(errors.ErrCodeDegenerateGeometry, "surface %q: u and v axes are parallel or zero", s.ID)
	}
	return nil
}

// UVToWorld maps surface coordinates to a world point on the plane.
func (s Surface) UVToWorld(u, v float64) r3.Vec {
	return r3.Add(s.Origin, r3.Add(r3.Scale(u, s.UAxis), r3.Scale(v, s.VAxis)))
}

// Lift returns ZLift or zero.
func (s Surface) Lift() float64 {
	if s.ZLift == nil {
		return 0
	}
	return *s.ZLift
}

// Center returns the world point at (0.5, 0.5).
func (s Surface) Center() r3.Vec { return s.UVToWorld(0.5, 0.5) }

// Meta derives descriptive data for s. Thickness is unknown for surfaces
// that were not extracted from geometry and is reported as zero.
func (s Surface) Meta() Meta {
	u, _ := geom.Unit(s.UAxis)
	v, _ := geom.Unit(s.VAxis)
	return Meta{
		Center: s.Center(),
		Normal: s.Normal(),
		UDir:   u,
		VDir:   v,
		Extents: Extents{
			U: r3.Norm(s.UAxis),
			V: r3.Norm(s.VAxis),
		},
	}
}

// Equal reports structural equality: identical tuples and scalars.
func Equal(a, b Surface) bool {
	if a.ID != b.ID || a.Kind != b.Kind {
		return false
	}
	if !geom.VecEqual(a.Origin, b.Origin) || !geom.VecEqual(a.UAxis, b.UAxis) ||
		!geom.VecEqual(a.VAxis, b.VAxis) || !geom.VecEqual(a.N, b.N) {
		return false
	}
	switch {
	case a.ZLift == nil && b.ZLift == nil:
		return true
	case a.ZLift == nil || b.ZLift == nil:
		return false
	}
	return *a.ZLift == *b.ZLift
}

// Extents are the measured sizes of a surface slab.
type Extents struct {
	U         float64 `json:"u"`
	V         float64 `json:"v"`
	Thickness float64 `json:"thickness"`
}

// Meta is derived descriptive data for a surface.
type Meta struct {
	Center  r3.Vec  `json:"center"`
	Normal  r3.Vec  `json:"normal"`
	UDir    r3.Vec  `json:"u_dir"`
	VDir    r3.Vec  `json:"v_dir"`
	Extents Extents `json:"extents"`
}
