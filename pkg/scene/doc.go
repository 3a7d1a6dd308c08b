// Package scene models the inputs the solvers consume: prop node trees with
// mesh bounds, placed objects with their transforms and measured bounds, and
// the TOML scene files the CLI and API read.
//
// # Node Trees
//
// A [Node] mirrors what a mesh loader hands over: a name, a local
// translate/rotate/scale, an optional [Mesh] carrying its object-space
// bounding box, and children. [Node.World] composes local transforms up to
// the root.
//
// # Objects
//
// An [Object] is a placed prop. Its Bounds is the last measured world box
// and is nil until a measurement exists; solvers treat nil as "not yet
// resolvable" rather than as an error.
//
// # Scene Files
//
// Scenes are TOML documents:
//
//	id = "home-office"
//	desk = "desk"        # surface id of the desk top
//	monitor = "monitor"  # object id placed by the monitor solver
//
//	[[props]]
//	name = "desk"
//	[props.root]
//	name = "Desk"
//	[[props.root.children]]
//	name = "DeskTop"
//	position = [0.0, 0.73, 0.0]
//	mesh = { min = [-0.7, -0.02, -0.35], max = [0.7, 0.02, 0.35] }
//
//	[[objects]]
//	id = "desk"
//	prop = "desk"
//
//	[[surfaces]]
//	id = "desk"
//	object = "desk"
//	node = "DeskTop"
//	kind = "desk"
//
// Use [ReadFile] or [Decode] to load one.
package scene
