package placement

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/geom"
	"github.com/sticky3d/deskgeom/pkg/layout"
)

// Separation is the signed gap between the lowest point of b along normal
// and the plane through top.
func Separation(top, normal r3.Vec, b geom.Bounds) float64 {
	bottom := geom.Extremal(b, normal, false)
	return r3.Dot(r3.Sub(bottom, top), normal)
}

// ClearanceDelta is how far b must move along normal so that its lowest
// point sits exactly clearance above the plane through top. Negative values
// move it down.
func ClearanceDelta(top, normal r3.Vec, b geom.Bounds, clearance float64) float64 {
	return clearance - Separation(top, normal, b)
}

// ClampOffset limits |offset| to deskHalf − objHalf − margin, or to zero
// when the object does not fit.
func ClampOffset(deskHalf, objHalf, margin, offset float64) float64 {
	limit := math.Max(0, deskHalf-objHalf-margin)
	return geom.Clamp(offset, -limit, limit)
}

// ClampToDesk clamps a lateral/depth offset of obj so it stays inside desk
// along the frame's right and forward axes.
func ClampToDesk(f layout.Frame, desk, obj geom.Bounds, lateral, depth, margin float64) (float64, float64) {
	lateral = ClampOffset(geom.HalfSpan(desk, f.Right), geom.HalfSpan(obj, f.Right), margin, lateral)
	depth = ClampOffset(geom.HalfSpan(desk, f.Forward), geom.HalfSpan(obj, f.Forward), margin, depth)
	return lateral, depth
}
