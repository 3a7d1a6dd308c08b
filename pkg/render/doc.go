// Package render groups the output renderers for solved scenes.
//
// The [diagram] subpackage draws the scene graph (objects, surfaces,
// docking and the mount chain) through Graphviz.
//
// [diagram]: github.com/sticky3d/deskgeom/pkg/render/diagram
package render
