package scene

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/geom"
)

// DockSpec is a stored desk-relative placement. Lengths are metres along the
// desk frame axes; YawDeg is relative to the desk's own yaw.
type DockSpec struct {
	Lateral float64
	Depth   float64
	Lift    float64
	YawDeg  float64
}

// Object is a placed prop instance.
type Object struct {
	ID       string
	Prop     string
	Position r3.Vec
	Rotation geom.Euler
	Scale    r3.Vec

	// Bounds is the last measured world bounding box; nil until measured.
	Bounds *geom.Bounds

	// Dock is set while the object is docked to the desk.
	Dock *DockSpec

	// Root is the object's instantiated prop tree, or nil when the prop has
	// no geometry description. Its root node carries the object transform.
	Root *Node
}

// Transform returns the object's world transform.
func (o *Object) Transform() geom.Affine {
	return geom.Compose(o.Position, o.Rotation, o.Scale)
}

// Instantiate attaches a copy of prop under a new root carrying the object's
// transform, replacing any previous instance.
func (o *Object) Instantiate(prop *Node) {
	root := NewNode(o.ID)
	root.Position, root.Rotation, root.Scale = o.Position, o.Rotation, o.Scale
	root.Add(prop.Clone())
	o.Root = root
}

// SyncRoot copies the object's transform onto its instantiated root after
// Position, Rotation or Scale changed.
func (o *Object) SyncRoot() {
	if o.Root != nil {
		o.Root.Position, o.Root.Rotation, o.Root.Scale = o.Position, o.Rotation, o.Scale
	}
}

// Measure recomputes Bounds from the instantiated prop tree. It leaves
// Bounds untouched and returns false when there is no geometry to measure.
func (o *Object) Measure() bool {
	if o.Root == nil {
		return false
	}
	o.SyncRoot()
	b := o.Root.boundsIn(o.Root.Local())
	if b.IsEmpty() {
		return false
	}
	o.Bounds = &b
	return true
}
