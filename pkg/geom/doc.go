// Package geom provides the small amount of 3D geometry shared by the solver
// packages: axis-aligned bounds, extremal points, affine transforms and
// angle helpers.
//
// Vectors are [r3.Vec] values from gonum's spatial/r3 package. All lengths
// are in metres unless a name says otherwise (for example BaseRaiseMM in
// package mount).
//
// # Extremal Points
//
// [Extremal] generalizes "bottom of the box" to an arbitrary direction: it
// tests all eight corners of a [Bounds] and returns the one with the smallest
// or largest dot product against the direction. Clearance checks and desk
// edge clamping are both built on it.
//
//	b := geom.NewBounds(r3.Vec{}, r3.Vec{X: 1, Y: 2, Z: 3})
//	bottom := geom.Extremal(b, r3.Vec{Y: 1}, false) // y == 0
//	top := geom.Extremal(b, r3.Vec{Y: 1}, true)     // y == 2
package geom
