package mount

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/geom"
)

const mm = 1e-3

// Part is an oriented box. Basis columns are the part's local axes and its
// origin is the part center. Size is in metres along X, Y and Z.
type Part struct {
	Name  string      `json:"name"`
	Basis geom.Affine `json:"basis"`
	Size  r3.Vec      `json:"size"`
}

// Center returns the part center.
func (p Part) Center() r3.Vec { return p.Basis.Origin }

// Axis returns the part's unit local +Y axis.
func (p Part) Axis() r3.Vec { return p.Basis.Y }

// Corners returns the eight world corners of the part.
func (p Part) Corners() [8]r3.Vec {
	half := geom.NewBounds(r3.Scale(-0.5, p.Size), r3.Scale(0.5, p.Size))
	var out [8]r3.Vec
	for i, c := range half.Corners() {
		out[i] = p.Basis.Point(c)
	}
	return out
}

// Parts is a built mount.
type Parts struct {
	Base  Part `json:"base"`
	Neck  Part `json:"neck"`
	Plate Part `json:"plate"`
}

// BaseTop is the center of the base's upper face.
func (ps Parts) BaseTop() r3.Vec {
	return r3.Add(ps.Base.Center(), r3.Scale(ps.Base.Size.Y/2, ps.Base.Axis()))
}

// BaseBottom is the center of the base's lower face.
func (ps Parts) BaseBottom() r3.Vec {
	return r3.Sub(ps.Base.Center(), r3.Scale(ps.Base.Size.Y/2, ps.Base.Axis()))
}

// NeckTop is where the realized neck ends.
func (ps Parts) NeckTop() r3.Vec {
	return r3.Add(ps.Neck.Center(), r3.Scale(ps.Neck.Size.Y/2, ps.Neck.Axis()))
}

// Build lays out the parts for a pose.
func Build(p PoseOutputs, cfg Config) Parts {
	thick := cfg.BaseThicknessMM * mm
	lift := thick/2 + (cfg.Tolerances.MinClearanceMM+cfg.BaseOffsetMM)*mm

	base := Part{
		Name: "base",
		Basis: geom.Affine{
			X:      p.UD,
			Y:      p.ND,
			Z:      r3.Cross(p.UD, p.ND),
			Origin: r3.Add(p.PDesk, r3.Scale(lift, p.ND)),
		},
		Size: r3.Vec{X: cfg.BaseWidthMM * mm, Y: thick, Z: cfg.BaseDepthMM * mm},
	}
	parts := Parts{Base: base}
	parts.Neck = neck(parts.BaseTop(), p.PSock, p.ND, cfg)
	parts.Plate = Part{
		Name: "plate",
		Basis: geom.Affine{
			X:      p.UM,
			Y:      p.VM,
			Z:      p.NM,
			Origin: r3.Add(p.PSock, r3.Scale(cfg.PlateEpsilonMM*mm, p.NM)),
		},
		Size: r3.Vec{X: cfg.PlateWidthMM * mm, Y: cfg.PlateHeightMM * mm, Z: cfg.PlateThicknessMM * mm},
	}
	return parts
}

// neck spans from top toward socket along the ideal direction.
func neck(top, socket, fallback r3.Vec, cfg Config) Part {
	span := r3.Sub(socket, top)
	dir, ok := geom.Unit(span)
	if !ok {
		dir = fallback
	}
	return neckAlong(top, dir, r3.Norm(span), cfg)
}

func neckAlong(top, dir r3.Vec, length float64, cfg Config) Part {
	x, z := neckBasis(dir)
	return Part{
		Name:  "neck",
		Basis: geom.Affine{X: x, Y: dir, Z: z, Origin: r3.Add(top, r3.Scale(length/2, dir))},
		Size:  r3.Vec{X: 2 * cfg.NeckRadiusMM * mm, Y: length, Z: 2 * cfg.NeckRadiusMM * mm},
	}
}

// neckBasis completes dir to a right-handed frame using world up as the
// reference. A dir parallel to world up uses world right instead.
func neckBasis(dir r3.Vec) (x, z r3.Vec) {
	ref := geom.Up
	if math.Abs(r3.Dot(dir, ref)) > 1-1e-9 {
		ref = geom.Right
	}
	z, _ = geom.Unit(r3.Cross(ref, dir))
	x = r3.Cross(dir, z)
	return x, z
}
