package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/geom"
)

// CameraConfig holds the default framing constants. Angles are in degrees,
// distances in metres.
type CameraConfig struct {
	AzimuthDeg   float64 `toml:"azimuth_deg" json:"azimuth_deg"`
	ElevationDeg float64 `toml:"elevation_deg" json:"elevation_deg"`
	Margin       float64 `toml:"margin" json:"margin"`
	FovDeg       float64 `toml:"fov_deg" json:"fov_deg"`
	MinDolly     float64 `toml:"min_dolly" json:"min_dolly"`
	MaxDolly     float64 `toml:"max_dolly" json:"max_dolly"`

	// Target bias along the frame axes, away from the box center.
	TargetForward float64 `toml:"target_forward" json:"target_forward"`
	TargetRight   float64 `toml:"target_right" json:"target_right"`
	TargetUp      float64 `toml:"target_up" json:"target_up"`

	// FollowEpsilon decides when a new default pose replaces the stored
	// one. LooseEpsilon decides whether the live pose still sits on the old
	// default.
	FollowEpsilon float64 `toml:"follow_epsilon" json:"follow_epsilon"`
	LooseEpsilon  float64 `toml:"loose_epsilon" json:"loose_epsilon"`
}

// DefaultCameraConfig returns the stock framing.
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		AzimuthDeg:    35,
		ElevationDeg:  28,
		Margin:        1.25,
		FovDeg:        50,
		MinDolly:      0.6,
		MaxDolly:      6.0,
		TargetForward: 0.08,
		TargetUp:      0.05,
		FollowEpsilon: 1e-4,
		LooseEpsilon:  1e-3,
	}
}

// Pose is an orbit pose around a target: yaw and pitch in radians, dolly in
// metres.
type Pose struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Dolly float64 `json:"dolly"`
}

// Camera is the solved default view.
type Camera struct {
	Target r3.Vec      `json:"target"`
	Pose   Pose        `json:"pose"`
	Eye    r3.Vec      `json:"eye"`
	Radius float64     `json:"radius"`
	Bounds geom.Bounds `json:"bounds"`
}

// SolveCamera frames the desk and every placed object. Objects with empty
// bounds are skipped. It reports false when the union box is empty.
func SolveCamera(f Frame, objects []geom.Bounds, cfg CameraConfig) (Camera, bool) {
	box := f.Bounds
	for _, b := range objects {
		box = box.Union(b)
	}
	if box.IsEmpty() {
		return Camera{}, false
	}

	target := box.Center()
	target = r3.Add(target, r3.Scale(cfg.TargetForward, f.Forward))
	target = r3.Add(target, r3.Scale(cfg.TargetRight, f.Right))
	target = r3.Add(target, r3.Scale(cfg.TargetUp, f.Up))

	az := geom.Deg2Rad(cfg.AzimuthDeg)
	el := geom.Deg2Rad(cfg.ElevationDeg)
	dir := r3.Scale(math.Cos(el)*math.Cos(az), f.Forward)
	dir = r3.Add(dir, r3.Scale(math.Cos(el)*math.Sin(az), f.Right))
	dir = r3.Add(dir, r3.Scale(math.Sin(el), f.Up))
	dir, _ = geom.Unit(dir)

	var radius float64
	for _, c := range box.Corners() {
		radius = math.Max(radius, r3.Norm(r3.Sub(c, target)))
	}

	half := geom.Deg2Rad(cfg.FovDeg) / 2
	dolly := radius / math.Tan(half) * cfg.Margin
	dolly = geom.Clamp(dolly, cfg.MinDolly, cfg.MaxDolly)

	pose := Pose{
		Yaw:   math.Atan2(dir.X, dir.Z),
		Pitch: math.Asin(geom.Clamp(dir.Y, -1, 1)),
		Dolly: dolly,
	}
	return Camera{
		Target: target,
		Pose:   pose,
		Eye:    r3.Add(target, r3.Scale(dolly, dir)),
		Radius: radius,
		Bounds: box,
	}, true
}

// PosesEqual compares poses component-wise. Yaw is compared modulo 2π.
func PosesEqual(a, b Pose, eps float64) bool {
	dyaw := geom.NormalizeRadians(a.Yaw - b.Yaw)
	return math.Abs(dyaw) <= eps &&
		math.Abs(a.Pitch-b.Pitch) <= eps &&
		math.Abs(a.Dolly-b.Dolly) <= eps
}
