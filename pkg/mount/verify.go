package mount

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/geom"
	"github.com/sticky3d/deskgeom/pkg/surface"
)

// Check names used in [Failure].
const (
	CheckClearance = "clearance"
	CheckSocket    = "socket"
	CheckAxis      = "axis"
)

// gapEpsMM absorbs rounding in the clearance comparison.
const gapEpsMM = 1e-6

// Failure is one violated constraint. Value and Limit share the check's unit
// (millimetres, or degrees for the axis check).
type Failure struct {
	Check   string  `json:"check"`
	Value   float64 `json:"value"`
	Limit   float64 `json:"limit"`
	Message string  `json:"message"`
}

// Adjusted records automatic corrections.
type Adjusted struct {
	BaseRaiseMM float64 `json:"base_raise_mm"`
}

// VerifySummary is the verifier outcome.
//
// Fail holds the message of the last socket or axis check that failed, so a
// mount failing both reports only the axis. Failures lists every violation,
// including clearance still missing after the raise cap, which never sets
// Fail because BaseOK is true once the base has been raised.
type VerifySummary struct {
	BaseOK      bool      `json:"base_ok"`
	SocketOK    bool      `json:"socket_ok"`
	AxisOK      bool      `json:"axis_ok"`
	AxisDeg     float64   `json:"axis_deg"`
	SocketErrMM float64   `json:"socket_err_mm"`
	GapMM       float64   `json:"gap_mm"`
	Adjusted    Adjusted  `json:"adjusted"`
	Fail        string    `json:"fail,omitempty"`
	Failures    []Failure `json:"failures,omitempty"`
}

// OK reports whether no check failed.
func (s VerifySummary) OK() bool { return s.Fail == "" && len(s.Failures) == 0 }

// Verify checks parts against the pose and returns the corrected parts.
// It fails only for malformed pose bases.
func Verify(p PoseOutputs, parts Parts, cfg Config) (Parts, VerifySummary, error) {
	if err := p.validate(); err != nil {
		return parts, VerifySummary{}, err
	}
	tol := cfg.Tolerances
	var sum VerifySummary

	sum.GapMM = r3.Dot(r3.Sub(parts.BaseBottom(), p.PDesk), p.ND) / mm
	sum.BaseOK = true
	if sum.GapMM < tol.MinClearanceMM-gapEpsMM {
		needed := tol.MinClearanceMM - sum.GapMM
		raise := math.Min(needed, tol.RaiseCapMM)
		parts.Base.Basis.Origin = r3.Add(parts.Base.Basis.Origin, r3.Scale(raise*mm, p.ND))
		sum.Adjusted.BaseRaiseMM = raise
		sum.GapMM += raise
		if residual := needed - raise; residual > gapEpsMM {
			sum.Failures = append(sum.Failures, Failure{
				Check:   CheckClearance,
				Value:   sum.GapMM,
				Limit:   tol.MinClearanceMM,
				Message: fmt.Sprintf("base clearance %.2f mm below %.2f mm after %.2f mm raise", sum.GapMM, tol.MinClearanceMM, raise),
			})
		}
	}

	top := parts.BaseTop()
	ideal, ok := geom.Unit(r3.Sub(p.PSock, top))
	if !ok {
		ideal = p.ND
	}
	axis := tiltLimited(ideal, p.ND, cfg.MaxTiltDeg)
	length := neckLength(r3.Norm(r3.Sub(p.PSock, top)), cfg)
	parts.Neck = neckAlong(top, axis, length, cfg)

	realized := r3.Add(top, r3.Scale(length, axis))
	sum.SocketErrMM = r3.Norm(r3.Sub(realized, p.PSock)) / mm
	sum.SocketOK = sum.SocketErrMM <= tol.AnchorMM
	sum.AxisDeg = geom.Rad2Deg(geom.AngleBetween(axis, ideal))
	sum.AxisOK = sum.AxisDeg <= tol.AxisDeg

	if !sum.SocketOK {
		f := Failure{
			Check: CheckSocket, Value: sum.SocketErrMM, Limit: tol.AnchorMM,
			Message: fmt.Sprintf("neck ends %.2f mm from socket (tolerance %.2f mm)", sum.SocketErrMM, tol.AnchorMM),
		}
		sum.Failures = append(sum.Failures, f)
		sum.Fail = f.Message
	}
	if !sum.AxisOK {
		f := Failure{
			Check: CheckAxis, Value: sum.AxisDeg, Limit: tol.AxisDeg,
			Message: fmt.Sprintf("neck axis %.2f° off socket direction (tolerance %.2f°)", sum.AxisDeg, tol.AxisDeg),
		}
		sum.Failures = append(sum.Failures, f)
		sum.Fail = f.Message
	}
	return parts, sum, nil
}

// neckLength applies the configured travel bounds to span, in metres.
func neckLength(span float64, cfg Config) float64 {
	if cfg.NeckMinMM > 0 {
		span = math.Max(span, cfg.NeckMinMM*mm)
	}
	if cfg.NeckMaxMM > 0 {
		span = math.Min(span, cfg.NeckMaxMM*mm)
	}
	return span
}

// tiltLimited leans dir back toward normal until it is within maxDeg of it.
func tiltLimited(dir, normal r3.Vec, maxDeg float64) r3.Vec {
	if maxDeg <= 0 {
		return dir
	}
	limit := geom.Deg2Rad(maxDeg)
	if geom.AngleBetween(dir, normal) <= limit {
		return dir
	}
	side, ok := geom.Unit(r3.Sub(dir, r3.Scale(r3.Dot(dir, normal), normal)))
	if !ok {
		return dir
	}
	return r3.Add(r3.Scale(math.Cos(limit), normal), r3.Scale(math.Sin(limit), side))
}

// Result is a generated mount.
type Result struct {
	Pose    PoseOutputs   `json:"pose"`
	Parts   Parts         `json:"parts"`
	Summary VerifySummary `json:"summary"`
}

// Generate runs Pose, Build and Verify.
func Generate(desk, monitor surface.Surface, deskAnchor, socket Anchor, cfg Config) (Result, error) {
	p, err := Pose(desk, monitor, deskAnchor, socket)
	if err != nil {
		return Result{}, err
	}
	parts, sum, err := Verify(p, Build(p, cfg), cfg)
	if err != nil {
		return Result{}, err
	}
	return Result{Pose: p, Parts: parts, Summary: sum}, nil
}
