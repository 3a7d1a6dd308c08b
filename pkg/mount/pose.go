// Package mount synthesizes and verifies a monitor stand between a desk
// surface and a monitor surface.
//
// [Pose] turns the two surfaces and their anchors into world anchor points
// with right-handed bases. [Build] lays out the base, neck and plate parts.
// [Verify] checks clearance, socket alignment and neck axis, raising the
// base by at most the configured cap. Constraint violations are reported in
// the [VerifySummary]; only malformed geometry is an error.
package mount

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/errors"
	"github.com/sticky3d/deskgeom/pkg/geom"
	"github.com/sticky3d/deskgeom/pkg/surface"
)

// Anchor is a point on a surface: (U, V) surface coordinates plus a lift
// along the surface normal in metres.
type Anchor struct {
	U    float64 `json:"u"`
	V    float64 `json:"v"`
	Lift float64 `json:"lift"`
}

// PoseOutputs holds both world anchors with their local bases. Each
// (U, V, N) triple is orthonormal and right-handed.
type PoseOutputs struct {
	PDesk r3.Vec `json:"p_desk"`
	UD    r3.Vec `json:"u_d"`
	VD    r3.Vec `json:"v_d"`
	ND    r3.Vec `json:"n_d"`

	PSock r3.Vec `json:"p_sock"`
	UM    r3.Vec `json:"u_m"`
	VM    r3.Vec `json:"v_m"`
	NM    r3.Vec `json:"n_m"`
}

// Pose computes the world anchors on desk and monitor.
func Pose(desk, monitor surface.Surface, deskAnchor, socket Anchor) (PoseOutputs, error) {
	pd, ud, vd, nd, err := anchorFrame(desk, deskAnchor)
	if err != nil {
		return PoseOutputs{}, err
	}
	pm, um, vm, nm, err := anchorFrame(monitor, socket)
	if err != nil {
		return PoseOutputs{}, err
	}
	return PoseOutputs{
		PDesk: pd, UD: ud, VD: vd, ND: nd,
		PSock: pm, UM: um, VM: vm, NM: nm,
	}, nil
}

func anchorFrame(s surface.Surface, a Anchor) (p, u, v, n r3.Vec, err error) {
	if err = s.Validate(); err != nil {
		return
	}
	n = s.Normal()
	// U is made orthogonal to an explicit normal that is not exactly U×V.
	var ok bool
	u, ok = geom.Unit(r3.Sub(s.UAxis, r3.Scale(r3.Dot(s.UAxis, n), n)))
	if !ok {
		err = errors.New(errors.ErrCodeDegenerateGeometry, "surface %q: u axis is parallel to its normal", s.ID)
		return
	}
	v = r3.Cross(n, u)
	p = r3.Add(s.UVToWorld(a.U, a.V), r3.Scale(a.Lift, n))
	return
}

func (p PoseOutputs) validate() error {
	for _, b := range []struct {
		name string
		v    r3.Vec
	}{
		{"u_d", p.UD}, {"v_d", p.VD}, {"n_d", p.ND},
		{"u_m", p.UM}, {"v_m", p.VM}, {"n_m", p.NM},
	} {
		if _, ok := geom.Unit(b.v); !ok {
			return errors.New(errors.ErrCodeDegenerateGeometry, "mount pose: %s has zero length", b.name)
		}
	}
	return nil
}
