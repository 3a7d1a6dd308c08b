package surface

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/errors"
	"github.com/sticky3d/deskgeom/pkg/geom"
	"github.com/sticky3d/deskgeom/pkg/scene"
)

// minThickness is the smallest local extent accepted along the thinnest axis.
const minThickness = 1e-6

// DebugInfo carries the intermediate values of an extraction for
// diagnostics.
type DebugInfo struct {
	NodeName    string      `json:"node"`
	Center      r3.Vec      `json:"center"`
	Normal      r3.Vec      `json:"normal"`
	Extents     Extents     `json:"extents"`
	LocalBounds geom.Bounds `json:"local_bounds"`
	Axes        [3]int      `json:"axes"` // local axis indices for u, v, thickness
}

// Extract derives a surface from the meshes at or below node.
//
// The node-local bounding box is the union of every descendant mesh's box
// carried into the node's frame. The longest local axis becomes u, the
// second longest v and the shortest the thickness. Directions come from the
// node's world rotation; the normal is uDir × vDir, flipped to agree with the
// thickness axis and flipped again for [SideNegative]. The origin sits at the
// minimum corner along u and v and at the min, max or middle of the slab
// depending on side.
//
// A DEGENERATE_GEOMETRY error is returned when there is no geometry or the
// slab has no thickness.
func Extract(node *scene.Node, id string, kind Kind, side Side) (Surface, Meta, DebugInfo, error) {
	if err := errors.ValidateID(id); err != nil {
		return Surface{}, Meta{}, DebugInfo{}, err
	}
	if node == nil {
		return Surface{}, Meta{}, DebugInfo{}, errors.New(errors.ErrCodeDegenerateGeometry, "surface %q: nil node", id)
	}

	local := node.LocalBounds()
	if local.IsEmpty() {
		return Surface{}, Meta{}, DebugInfo{}, errors.New(errors.ErrCodeDegenerateGeometry,
			"surface %q: node %q has no mesh geometry", id, node.Name)
	}

	size := local.Size()
	ext := [3]float64{size.X, size.Y, size.Z}
	axes := [3]int{0, 1, 2}
	sort.SliceStable(axes[:], func(i, j int) bool { return ext[axes[i]] > ext[axes[j]] })
	ui, vi, ti := axes[0], axes[1], axes[2]

	if ext[ti] < minThickness {
		return Surface{}, Meta{}, DebugInfo{}, errors.New(errors.ErrCodeDegenerateGeometry,
			"surface %q: node %q has near-zero thickness (%g)", id, node.Name, ext[ti])
	}

	world := node.World()
	rot := world.Rotation()
	uDir := rot.Column(ui)
	vDir := rot.Column(vi)
	normal, ok := geom.Unit(r3.Cross(uDir, vDir))
	if !ok {
		return Surface{}, Meta{}, DebugInfo{}, errors.New(errors.ErrCodeDegenerateGeometry,
			"surface %q: node %q world axes are degenerate", id, node.Name)
	}
	if r3.Dot(normal, rot.Column(ti)) < 0 {
		normal = r3.Scale(-1, normal)
	}
	if side == SideNegative {
		normal = r3.Scale(-1, normal)
	}

	lo := [3]float64{local.Min.X, local.Min.Y, local.Min.Z}
	hi := [3]float64{local.Max.X, local.Max.Y, local.Max.Z}
	var o [3]float64
	o[ui] = lo[ui]
	o[vi] = lo[vi]
	switch side {
	case SidePositive:
		o[ti] = hi[ti]
	case SideNegative:
		o[ti] = lo[ti]
	case SideCenter:
		o[ti] = (lo[ti] + hi[ti]) / 2
	}

	var uLocal, vLocal [3]float64
	uLocal[ui] = ext[ui]
	vLocal[vi] = ext[vi]

	s := Surface{
		ID:     id,
		Kind:   kind,
		Origin: world.Point(geom.Vec(o)),
		UAxis:  world.Dir(geom.Vec(uLocal)),
		VAxis:  world.Dir(geom.Vec(vLocal)),
		N:      normal,
	}
	if err := s.Validate(); err != nil {
		return Surface{}, Meta{}, DebugInfo{}, err
	}

	thickness := ext[ti] * r3.Norm(world.Column(ti))
	meta := Meta{
		Center: s.Center(),
		Normal: normal,
		UDir:   uDir,
		VDir:   vDir,
		Extents: Extents{
			U:         r3.Norm(s.UAxis),
			V:         r3.Norm(s.VAxis),
			Thickness: thickness,
		},
	}
	dbg := DebugInfo{
		NodeName:    node.Name,
		Center:      meta.Center,
		Normal:      normal,
		Extents:     meta.Extents,
		LocalBounds: local,
		Axes:        [3]int{ui, vi, ti},
	}
	return s, meta, dbg, nil
}
