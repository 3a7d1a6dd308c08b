package placement

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/geom"
	"github.com/sticky3d/deskgeom/pkg/layout"
)

// MonitorPlacement is a solved monitor transform.
type MonitorPlacement struct {
	Position r3.Vec     `json:"position"`
	Rotation geom.Euler `json:"rotation"`
}

// MonitorInput collects what [SolveMonitor] reads. Frame and Bounds are nil
// until the desk and monitor meshes have been measured.
type MonitorInput struct {
	Frame *layout.Frame

	// Bounds is the monitor's world box at Position.
	Bounds   *geom.Bounds
	Position r3.Vec
	Rotation geom.Euler

	DeskYaw    float64
	Clearance  float64
	EdgeMargin float64

	// DeskLift raises the resting plane above the frame center along Up.
	DeskLift float64

	// Align centres the monitor laterally and faces it along the desk.
	Align bool
}

// SolveMonitor rests the monitor clearance above the desk top, raised by
// DeskLift, along the desk normal and keeps its box inside the desk edges.
// The box center, not the pivot, is what gets clamped. It returns nil when
// data is missing.
func SolveMonitor(in MonitorInput) *MonitorPlacement {
	if in.Frame == nil || in.Bounds == nil || in.Bounds.IsEmpty() {
		return nil
	}
	f := *in.Frame

	top := r3.Add(f.Center, r3.Scale(in.DeskLift, f.Up))
	lift := ClearanceDelta(top, f.Up, *in.Bounds, in.Clearance)

	center := f.Local(in.Bounds.Center())
	pivot := r3.Sub(f.Local(in.Position), center)

	lateral, depth := center.X, center.Z
	if in.Align {
		lateral = 0
	}
	lateral, depth = ClampToDesk(f, f.Bounds, *in.Bounds, lateral, depth, in.EdgeMargin)

	local := r3.Add(r3.Vec{X: lateral, Y: center.Y + lift, Z: depth}, pivot)

	rot := in.Rotation
	if in.Align {
		rot = geom.Euler{Y: geom.NormalizeRadians(in.DeskYaw)}
	}
	return &MonitorPlacement{Position: f.World(local), Rotation: rot}
}

// PlacementsEqual reports whether every component of a and b is within eps.
func PlacementsEqual(a, b MonitorPlacement, eps float64) bool {
	return geom.VecNear(a.Position, b.Position, eps) &&
		math.Abs(a.Rotation.X-b.Rotation.X) <= eps &&
		math.Abs(a.Rotation.Y-b.Rotation.Y) <= eps &&
		math.Abs(a.Rotation.Z-b.Rotation.Z) <= eps
}

// Stabilize picks the placement to publish. A nil next keeps prev, and a
// next indistinguishable from prev within eps also keeps prev so readers
// see an unchanged value.
func Stabilize(prev, next *MonitorPlacement, eps float64) *MonitorPlacement {
	if next == nil {
		return prev
	}
	if prev != nil && PlacementsEqual(*prev, *next, eps) {
		return prev
	}
	return next
}
