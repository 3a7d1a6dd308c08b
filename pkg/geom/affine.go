package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Affine is a 3D affine transform stored as the images of the three basis
// vectors (the columns of its linear part) plus a translation.
type Affine struct {
	X      r3.Vec `json:"x"`
	Y      r3.Vec `json:"y"`
	Z      r3.Vec `json:"z"`
	Origin r3.Vec `json:"origin"`
}

// Identity returns the identity transform.
func Identity() Affine {
	return Affine{X: r3.Vec{X: 1}, Y: r3.Vec{Y: 1}, Z: r3.Vec{Z: 1}}
}

// Point maps a position through a.
func (a Affine) Point(p r3.Vec) r3.Vec {
	return r3.Add(a.Dir(p), a.Origin)
}

// Dir maps a direction through the linear part of a (no translation).
func (a Affine) Dir(d r3.Vec) r3.Vec {
	return r3.Add(r3.Add(r3.Scale(d.X, a.X), r3.Scale(d.Y, a.Y)), r3.Scale(d.Z, a.Z))
}

// Mul returns a∘b: applying the result equals applying b first, then a.
func (a Affine) Mul(b Affine) Affine {
	return Affine{
		X:      a.Dir(b.X),
		Y:      a.Dir(b.Y),
		Z:      a.Dir(b.Z),
		Origin: a.Point(b.Origin),
	}
}

// Column returns basis column i (0, 1 or 2).
func (a Affine) Column(i int) r3.Vec {
	switch i {
	case 0:
		return a.X
	case 1:
		return a.Y
	case 2:
		return a.Z
	}
	panic("geom: column index out of range")
}

// Rotation returns a copy of a with each column normalized and the
// translation dropped. For transforms without shear this is the pure
// rotation part.
func (a Affine) Rotation() Affine {
	return Affine{X: safeUnit(a.X), Y: safeUnit(a.Y), Z: safeUnit(a.Z)}
}

// Euler is a rotation in radians applied in X, then Y, then Z intrinsic
// order (the matrix is Rx·Ry·Rz).
type Euler struct {
	X float64 `json:"x" toml:"x"`
	Y float64 `json:"y" toml:"y"`
	Z float64 `json:"z" toml:"z"`
}

// Yaw returns a rotation about world up by rad radians.
func Yaw(rad float64) Euler { return Euler{Y: rad} }

// Matrix returns the rotation as an [Affine] with zero translation.
func (e Euler) Matrix() Affine {
	a, b := math.Cos(e.X), math.Sin(e.X)
	c, d := math.Cos(e.Y), math.Sin(e.Y)
	ce, f := math.Cos(e.Z), math.Sin(e.Z)
	ae, af, be, bf := a*ce, a*f, b*ce, b*f
	return Affine{
		X: r3.Vec{X: c * ce, Y: af + be*d, Z: bf - ae*d},
		Y: r3.Vec{X: -c * f, Y: ae - bf*d, Z: be + af*d},
		Z: r3.Vec{X: d, Y: -b * c, Z: a * c},
	}
}

// Compose builds translate·rotate·scale.
func Compose(pos r3.Vec, rot Euler, scale r3.Vec) Affine {
	r := rot.Matrix()
	return Affine{
		X:      r3.Scale(scale.X, r.X),
		Y:      r3.Scale(scale.Y, r.Y),
		Z:      r3.Scale(scale.Z, r.Z),
		Origin: pos,
	}
}

func safeUnit(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return v
	}
	return r3.Scale(1/n, v)
}
