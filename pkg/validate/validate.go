// Package validate checks a solved scene and reports coded issues.
//
// Issues are data, not errors: a scene with issues is still a valid scene.
// The codes are stable and meant for machines:
//
//	monitor-below-desk   monitor box dips under the desk clearance
//	object-below-desk    an object box sinks into the desk top
//	object-outside-desk  an object's center lies beyond the desk edges
//	mount-failed         the mount verifier reported a failure
package validate

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/geom"
	"github.com/sticky3d/deskgeom/pkg/mount"
	"github.com/sticky3d/deskgeom/pkg/placement"
	"github.com/sticky3d/deskgeom/pkg/surface"
)

// Issue codes.
const (
	CodeMonitorBelowDesk  = "monitor-below-desk"
	CodeObjectBelowDesk   = "object-below-desk"
	CodeObjectOutsideDesk = "object-outside-desk"
	CodeMountFailed       = "mount-failed"
)

// rounding slack for a monitor placed exactly at the clearance
const clearanceEps = 1e-9

// Issue is one finding. Value is the measured quantity that tripped the
// check: a signed separation in metres, a distance past the edge in metres,
// or the number of mount failures.
type Issue struct {
	Code    string  `json:"code"`
	Object  string  `json:"object,omitempty"`
	Value   float64 `json:"value"`
	Message string  `json:"message"`
}

// Config holds the validator thresholds in metres.
type Config struct {
	MonitorClearance float64 `toml:"monitor_clearance" json:"monitor_clearance"`
	// ObjectTolerance is how far an object may sink into the desk before
	// it is reported.
	ObjectTolerance float64 `toml:"object_tolerance" json:"object_tolerance"`
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{MonitorClearance: 0.0015, ObjectTolerance: 1e-4}
}

// Input is a solved scene snapshot. Nil fields are skipped.
type Input struct {
	Desk      *surface.Surface
	MonitorID string
	Monitor   *geom.Bounds
	Objects   map[string]geom.Bounds
	Mount     *mount.VerifySummary
}

// Run checks in and returns issues ordered by check, then object id.
func Run(in Input, cfg Config) []Issue {
	var issues []Issue

	if in.Desk != nil {
		n := in.Desk.Normal()
		top := r3.Add(in.Desk.Origin, r3.Scale(in.Desk.Lift(), n))

		if in.Monitor != nil && !in.Monitor.IsEmpty() {
			sep := placement.Separation(top, n, *in.Monitor)
			if sep < cfg.MonitorClearance-clearanceEps {
				issues = append(issues, Issue{
					Code:    CodeMonitorBelowDesk,
					Object:  in.MonitorID,
					Value:   sep,
					Message: fmt.Sprintf("monitor sits %.4f m above the desk, needs %.4f m", sep, cfg.MonitorClearance),
				})
			}
		}

		for _, id := range sortedIDs(in.Objects) {
			b := in.Objects[id]
			if b.IsEmpty() {
				continue
			}
			if sep := placement.Separation(top, n, b); sep < -cfg.ObjectTolerance {
				issues = append(issues, Issue{
					Code:    CodeObjectBelowDesk,
					Object:  id,
					Value:   sep,
					Message: fmt.Sprintf("%s sinks %.4f m into the desk", id, -sep),
				})
			}
		}

		for _, id := range sortedIDs(in.Objects) {
			b := in.Objects[id]
			if b.IsEmpty() {
				continue
			}
			if over := outside(*in.Desk, b); over > 0 {
				issues = append(issues, Issue{
					Code:    CodeObjectOutsideDesk,
					Object:  id,
					Value:   over,
					Message: fmt.Sprintf("%s center is %.4f m past the desk edge", id, over),
				})
			}
		}
	}

	if in.Mount != nil && !in.Mount.OK() {
		msg := in.Mount.Fail
		if msg == "" && len(in.Mount.Failures) > 0 {
			msg = in.Mount.Failures[0].Message
		}
		issues = append(issues, Issue{
			Code:    CodeMountFailed,
			Value:   float64(len(in.Mount.Failures)),
			Message: msg,
		})
	}
	return issues
}

// outside returns how far the center of b lies beyond the desk rectangle,
// measured in the desk plane, or zero when it is inside.
func outside(desk surface.Surface, b geom.Bounds) float64 {
	u, v, ok := surface.WorldToUV(b.Center(), desk)
	if !ok {
		return 0
	}
	du := math.Max(0, math.Max(-u, u-1)) * desk.Meta().Extents.U
	dv := math.Max(0, math.Max(-v, v-1)) * desk.Meta().Extents.V
	return math.Hypot(du, dv)
}

func sortedIDs(m map[string]geom.Bounds) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
