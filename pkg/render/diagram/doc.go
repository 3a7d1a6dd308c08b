// Package diagram renders a solved scene as a Graphviz graph.
//
// Objects are boxes, extracted surfaces are ellipses hanging off the object
// they came from, and the desk surface links to docked objects and to the
// mount chain (base, neck, plate). Mount parts are green when their check
// passed and red when it failed; objects named in a validation issue are
// red as well. Surfaces that could not be extracted are drawn dashed.
//
//	dot := diagram.ToDOT(sc, result, diagram.Options{Detailed: true})
//	svg, err := diagram.Render(ctx, dot, diagram.FormatSVG)
//
// SVG and PNG layout runs in-process through [github.com/goccy/go-graphviz];
// no Graphviz install is needed.
package diagram
