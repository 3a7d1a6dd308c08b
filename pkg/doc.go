// Package pkg holds the deskgeom libraries.
//
// # Overview
//
// deskgeom keeps a furnished desk consistent while its geometry changes:
// planar surfaces are extracted from prop meshes, accessories stay docked at
// desk-relative offsets, the monitor rests on the desk, a default camera
// frames the whole scene, and a monitor mount is generated and verified.
//
// # Layout
//
//  1. [geom] - vectors, bounds, affine transforms and angles on gonum's r3
//  2. [scene] - the scene graph and its TOML file format
//  3. [surface], [registry] - surface extraction, ray projection and the
//     surface table with change notifications
//  4. [layout], [placement] - desk frame, camera framing, docking and
//     monitor placement
//  5. [mount], [validate] - mount pose, parts and verification; issue checks
//  6. [pipeline] - orchestration of one solve, with caching and dock storage
//  7. [cache], [store], [config], [props], [observability] - infrastructure
//  8. [render/diagram] - Graphviz diagrams of a solved scene
//
// # Data Flow
//
//	scene TOML
//	     ↓
//	[surface] extract → [registry]
//	     ↓
//	[layout] desk frame → [placement] docks + monitor
//	     ↓
//	[layout] camera   [mount] pose → parts → verify
//	     ↓
//	[validate] issues → [pipeline] Result
//
// # Quick Start
//
//	s, err := scene.ReadFile("office.toml")
//	if err != nil {
//	    return err
//	}
//	res, err := pipeline.Solve(ctx, s, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	for _, is := range res.Issues {
//	    fmt.Println(is.Code, is.Object, is.Message)
//	}
package pkg
