// Package placement solves where desk accessories go.
//
// Docked objects store a desk-relative [DockOffset]; their world transform is
// derived from the current layout frame by [SolveDock] and written back
// through a [Setter]. The monitor is placed by [SolveMonitor], which rests it
// on the desk with clearance and keeps it inside the desk edges.
//
// Functions that need measured data return nil (or false) while that data is
// missing. Callers keep their previous value in that case.
package placement

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/geom"
	"github.com/sticky3d/deskgeom/pkg/layout"
)

// DockOffset is a placement relative to the desk frame. Yaw is in radians,
// relative to the desk's own yaw.
type DockOffset struct {
	Lateral float64 `json:"lateral"`
	Depth   float64 `json:"depth"`
	Lift    float64 `json:"lift"`
	Yaw     float64 `json:"yaw"`
}

// Transform is a solved world position and rotation.
type Transform struct {
	Position r3.Vec     `json:"position"`
	Rotation geom.Euler `json:"rotation"`
}

// SolveDock returns the world transform for off in frame f. Docked objects
// are upright, so only yaw is set.
func SolveDock(f layout.Frame, off DockOffset, deskYaw float64) Transform {
	p := r3.Add(f.Center, r3.Scale(off.Lateral, f.Right))
	p = r3.Add(p, r3.Scale(off.Depth, f.Forward))
	p = r3.Add(p, r3.Scale(off.Lift, f.Up))
	return Transform{
		Position: p,
		Rotation: geom.Yaw(geom.NormalizeRadians(off.Yaw + deskYaw)),
	}
}

// CaptureOffset is the inverse of [SolveDock]: it expresses a world position
// and yaw in desk-relative terms.
func CaptureOffset(f layout.Frame, pos r3.Vec, yaw, deskYaw float64) DockOffset {
	l := f.Local(pos)
	return DockOffset{
		Lateral: l.X,
		Lift:    l.Y,
		Depth:   l.Z,
		Yaw:     geom.NormalizeRadians(yaw - deskYaw),
	}
}

// FramesEqual reports whether two frames have identical centers and axes.
// Extents and bounds do not affect docking and are ignored.
func FramesEqual(a, b layout.Frame) bool {
	return geom.VecEqual(a.Center, b.Center) &&
		geom.VecEqual(a.Up, b.Up) &&
		geom.VecEqual(a.Right, b.Right) &&
		geom.VecEqual(a.Forward, b.Forward)
}

// Docked is one docked object.
type Docked struct {
	ID     string
	Offset DockOffset
}

// Setter writes a solved transform back to the object store.
type Setter func(id string, t Transform)

// Docker re-solves docked objects when their inputs change. The zero value
// is ready to use.
type Docker struct {
	frame   layout.Frame
	deskYaw float64
	offsets map[string]DockOffset
	primed  bool
}

// Update writes transforms for every docked object and returns how many were
// written. When the frame, desk yaw and offsets all match the previous call
// nothing is written.
func (d *Docker) Update(f layout.Frame, deskYaw float64, objects []Docked, set Setter) int {
	if d.primed && FramesEqual(d.frame, f) && d.deskYaw == deskYaw && d.sameOffsets(objects) {
		return 0
	}

	sorted := make([]Docked, len(objects))
	copy(sorted, objects)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	offsets := make(map[string]DockOffset, len(sorted))
	for _, o := range sorted {
		set(o.ID, SolveDock(f, o.Offset, deskYaw))
		offsets[o.ID] = o.Offset
	}
	d.frame, d.deskYaw, d.offsets, d.primed = f, deskYaw, offsets, true
	return len(sorted)
}

// Invalidate forces the next Update to write.
func (d *Docker) Invalidate() { d.primed = false }

func (d *Docker) sameOffsets(objects []Docked) bool {
	if len(objects) != len(d.offsets) {
		return false
	}
	for _, o := range objects {
		prev, ok := d.offsets[o.ID]
		if !ok || prev != o.Offset {
			return false
		}
	}
	return true
}
