// Package layout derives the desk layout frame and the default camera framing.
//
// The [Frame] is the orthonormal basis every dependent placement is expressed
// in. [SolveCamera] frames the desk and all placed objects, and [CameraState]
// decides when the live camera follows a new default pose.
package layout

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/geom"
	"github.com/sticky3d/deskgeom/pkg/surface"
)

// Frame is an orthonormal right/up/forward basis anchored at the desk
// surface center.
type Frame struct {
	Center  r3.Vec          `json:"center"`
	Up      r3.Vec          `json:"up"`
	Right   r3.Vec          `json:"right"`
	Forward r3.Vec          `json:"forward"`
	Extents surface.Extents `json:"extents"`
	Bounds  geom.Bounds     `json:"bounds"`
}

// BuildFrame builds the layout frame from the desk surface meta and desk
// bounds. It reports false when either input is not available yet or the
// meta axes are degenerate.
//
// right is re-derived from up × forward so the basis is orthogonal even when
// the meta's u direction drifts off the plane.
func BuildFrame(meta *surface.Meta, bounds *geom.Bounds) (Frame, bool) {
	if meta == nil || bounds == nil || bounds.IsEmpty() {
		return Frame{}, false
	}
	up, ok := geom.Unit(meta.Normal)
	if !ok {
		return Frame{}, false
	}
	right, ok := geom.Unit(meta.UDir)
	if !ok {
		return Frame{}, false
	}
	forward, ok := geom.Unit(r3.Cross(right, up))
	if !ok {
		return Frame{}, false
	}
	right, _ = geom.Unit(r3.Cross(up, forward))

	return Frame{
		Center:  meta.Center,
		Up:      up,
		Right:   right,
		Forward: forward,
		Extents: meta.Extents,
		Bounds:  *bounds,
	}, true
}

// Local expresses a world point as (right, up, forward) coordinates relative
// to the frame center.
func (f Frame) Local(p r3.Vec) r3.Vec {
	d := r3.Sub(p, f.Center)
	return r3.Vec{X: r3.Dot(d, f.Right), Y: r3.Dot(d, f.Up), Z: r3.Dot(d, f.Forward)}
}

// World is the inverse of [Frame.Local].
func (f Frame) World(l r3.Vec) r3.Vec {
	p := r3.Add(f.Center, r3.Scale(l.X, f.Right))
	p = r3.Add(p, r3.Scale(l.Y, f.Up))
	return r3.Add(p, r3.Scale(l.Z, f.Forward))
}
