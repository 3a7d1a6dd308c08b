// Package pipeline runs the full desk solve for the CLI and the HTTP API.
//
// # Stages
//
//  1. Extract: surfaces named by the scene are extracted from prop geometry
//     and registered on top of the configured base surfaces.
//  2. Frame: the desk surface meta and desk bounds give the layout frame.
//  3. Dock: docked objects are re-solved from their desk-relative offsets.
//  4. Monitor: the monitor is rested on the desk and kept inside its edges.
//  5. Refresh: surfaces of moved objects are extracted again.
//  6. Camera: the default view is framed and the follow rule applied.
//  7. Mount: the stand is generated and verified.
//  8. Validate: coded issues are collected.
//
// Stages whose inputs are not available yet are skipped, not failed: a scene
// whose desk has not been measured still solves, with a nil Frame.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Solve(ctx, sc, pipeline.Options{Config: cfg})
//	if err != nil {
//	    return err
//	}
//	for _, issue := range result.Issues {
//	    fmt.Println(issue.Code, issue.Message)
//	}
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/config"
	"github.com/sticky3d/deskgeom/pkg/geom"
	"github.com/sticky3d/deskgeom/pkg/layout"
	"github.com/sticky3d/deskgeom/pkg/mount"
	"github.com/sticky3d/deskgeom/pkg/placement"
	"github.com/sticky3d/deskgeom/pkg/props"
	"github.com/sticky3d/deskgeom/pkg/scene"
	"github.com/sticky3d/deskgeom/pkg/surface"
	"github.com/sticky3d/deskgeom/pkg/validate"
)

// Options controls a solve.
type Options struct {
	// Config supplies every tolerance; nil uses config.Default().
	Config *config.Config

	// Catalog, when set, rescales objects whose prop is in the catalog to
	// their real-world size before solving.
	Catalog *props.Catalog

	// Refresh bypasses cached results.
	Refresh bool

	// Docker, when set, keeps docking change detection across solves so an
	// unchanged desk frame and dock offsets write nothing. Reuse it only for
	// solves of the same *scene.Scene value.
	Docker *placement.Docker

	Logger *log.Logger
}

func (o *Options) setDefaults() {
	if o.Config == nil {
		o.Config = config.Default()
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
}

// Result is a solved scene.
type Result struct {
	SceneID   string `json:"scene_id"`
	SceneHash string `json:"scene_hash"`

	Surfaces []surface.Surface `json:"surfaces"`
	Skipped  []Skipped         `json:"skipped,omitempty"`

	Frame   *layout.Frame               `json:"frame,omitempty"`
	Docked  []Docked                    `json:"docked,omitempty"`
	Monitor *placement.MonitorPlacement `json:"monitor,omitempty"`
	Camera  *layout.Camera              `json:"camera,omitempty"`
	View    layout.CameraState          `json:"view"`
	Mount   *mount.Result               `json:"mount,omitempty"`
	Issues  []validate.Issue            `json:"issues"`

	// Objects is the final state of every object, for callers that did not
	// hand over the scene (cache hits, HTTP clients).
	Objects []ObjectState `json:"objects"`

	Stats    Stats `json:"stats"`
	CacheHit bool  `json:"cache_hit"`
}

// Skipped is a surface that could not be extracted.
type Skipped struct {
	ID    string `json:"id"`
	Node  string `json:"node"`
	Error string `json:"error"`
}

// Docked is one re-solved docked object.
type Docked struct {
	ID        string               `json:"id"`
	Offset    placement.DockOffset `json:"offset"`
	Transform placement.Transform  `json:"transform"`
}

// ObjectState is an object's solved transform.
type ObjectState struct {
	ID       string       `json:"id"`
	Position r3.Vec       `json:"position"`
	Rotation geom.Euler   `json:"rotation"`
	Scale    r3.Vec       `json:"scale"`
	Bounds   *geom.Bounds `json:"bounds,omitempty"`
}

// Stats summarizes a solve.
type Stats struct {
	Duration       time.Duration `json:"duration"`
	Surfaces       int           `json:"surfaces"`
	SurfaceChanges int           `json:"surface_changes"`
	DockWrites     int           `json:"dock_writes"`
}

// Apply writes the solved object transforms and camera state back into s.
// Objects in the result that s does not have are ignored.
func (r *Result) Apply(s *scene.Scene) {
	for _, st := range r.Objects {
		o, ok := s.Object(st.ID)
		if !ok {
			continue
		}
		o.Position, o.Rotation, o.Scale = st.Position, st.Rotation, st.Scale
		o.SyncRoot()
		if st.Bounds != nil {
			b := *st.Bounds
			o.Bounds = &b
		}
	}
	s.Camera = cameraSpec(r.View)
}

// OK reports whether the solve produced no issues.
func (r *Result) OK() bool { return len(r.Issues) == 0 }
