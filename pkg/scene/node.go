package scene

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/geom"
)

// Mesh is the geometry attached to a node. Only its object-space bounding
// box matters to the solvers.
type Mesh struct {
	Bounds geom.Bounds
}

// Node is one element of a prop's node tree.
type Node struct {
	Name     string
	Position r3.Vec
	Rotation geom.Euler
	Scale    r3.Vec
	Mesh     *Mesh
	Children []*Node

	parent *Node
}

// NewNode returns a node with identity transform.
func NewNode(name string) *Node {
	return &Node{Name: name, Scale: r3.Vec{X: 1, Y: 1, Z: 1}}
}

// Add attaches children to n and returns n for chaining.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		c.parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// Parent returns the node n is attached to, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Local returns n's transform relative to its parent.
func (n *Node) Local() geom.Affine {
	return geom.Compose(n.Position, n.Rotation, n.Scale)
}

// World returns n's transform relative to the root of its tree.
func (n *Node) World() geom.Affine {
	if n.parent == nil {
		return n.Local()
	}
	return n.parent.World().Mul(n.Local())
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns the first node named name in depth-first order, or nil.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Name == name {
			found = c
			return false
		}
		return true
	})
	return found
}

// LocalBounds returns the union of every mesh at or below n, expressed in
// n's own local frame (n's transform is not applied; descendants' are).
// The result is empty when no mesh is present.
func (n *Node) LocalBounds() geom.Bounds {
	return n.boundsIn(geom.Identity())
}

func (n *Node) boundsIn(toFrame geom.Affine) geom.Bounds {
	out := geom.EmptyBounds()
	if n.Mesh != nil {
		out = out.Union(n.Mesh.Bounds.Transform(toFrame))
	}
	for _, c := range n.Children {
		out = out.Union(c.boundsIn(toFrame.Mul(c.Local())))
	}
	return out
}

// Clone returns a deep copy of the subtree rooted at n. The copy is a root.
func (n *Node) Clone() *Node {
	cp := &Node{
		Name:     n.Name,
		Position: n.Position,
		Rotation: n.Rotation,
		Scale:    n.Scale,
	}
	if n.Mesh != nil {
		m := *n.Mesh
		cp.Mesh = &m
	}
	for _, c := range n.Children {
		cp.Add(c.Clone())
	}
	return cp
}
