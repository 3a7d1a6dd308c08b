// Package surface derives planar coordinate frames from mesh geometry and
// intersects rays with them.
//
// A [Surface] is an origin plus two axis vectors whose lengths are the
// surface's world extents, so surface coordinates (u, v) in [0,1]² cover its
// rectangle. [Extract] builds one from a scene node's bounding geometry,
// [Project] solves a ray hit back into (u, v), and [Surface.UVToWorld] goes
// the other way.
//
// # Kinds
//
// [Kind] is a closed set (desk, screen, wall, monitor-arm). Behaviour that
// differs by kind switches over it exhaustively, for example [Kind.Supports].
//
// # Errors
//
// Malformed geometry (no mesh, zero thickness, parallel axes) is reported as
// a DEGENERATE_GEOMETRY error from package errors. Callers that extract many
// surfaces should log the failure with the node name and skip that surface.
package surface
