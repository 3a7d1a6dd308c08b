package layout

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/geom"
	"github.com/sticky3d/deskgeom/pkg/surface"
)

func deskMeta(normal, udir r3.Vec) *surface.Meta {
	return &surface.Meta{
		Center:  r3.Vec{Y: 0.75},
		Normal:  normal,
		UDir:    udir,
		Extents: surface.Extents{U: 1.4, V: 0.7, Thickness: 0.04},
	}
}

func deskBounds() *geom.Bounds {
	b := geom.NewBounds(r3.Vec{X: -0.7, Y: 0.71, Z: -0.35}, r3.Vec{X: 0.7, Y: 0.75, Z: 0.35})
	return &b
}

func TestBuildFrameOrthonormal(t *testing.T) {
	const tol = 1e-9
	cases := []struct {
		name         string
		normal, udir r3.Vec
	}{
		{"axis aligned", r3.Vec{Y: 1}, r3.Vec{X: 1}},
		{"unnormalized", r3.Vec{Y: 3}, r3.Vec{X: 0.5}},
		{"drifted u", r3.Vec{Y: 1}, r3.Vec{X: 1, Y: 0.02, Z: 0.001}},
		{"tilted", r3.Vec{X: 0.1, Y: 1, Z: -0.2}, r3.Vec{X: 1, Z: 0.3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, ok := BuildFrame(deskMeta(tc.normal, tc.udir), deskBounds())
			if !ok {
				t.Fatal("BuildFrame reported not ready")
			}
			for _, v := range []r3.Vec{f.Up, f.Right, f.Forward} {
				if !scalar.EqualWithinAbs(r3.Norm(v), 1, tol) {
					t.Errorf("|%v| = %v", v, r3.Norm(v))
				}
			}
			pairs := [][2]r3.Vec{{f.Up, f.Right}, {f.Up, f.Forward}, {f.Right, f.Forward}}
			for _, p := range pairs {
				if d := r3.Dot(p[0], p[1]); math.Abs(d) > tol {
					t.Errorf("dot(%v, %v) = %v", p[0], p[1], d)
				}
			}
		})
	}
}

func TestBuildFrameAxisAligned(t *testing.T) {
	f, _ := BuildFrame(deskMeta(r3.Vec{Y: 1}, r3.Vec{X: 1}), deskBounds())
	if !geom.VecNear(f.Forward, r3.Vec{Z: 1}, 1e-12) {
		t.Errorf("forward = %v, want +Z", f.Forward)
	}
	l := f.Local(r3.Vec{X: 0.2, Y: 0.8, Z: -0.1})
	if !geom.VecNear(l, r3.Vec{X: 0.2, Y: 0.05, Z: -0.1}, 1e-12) {
		t.Errorf("Local = %v", l)
	}
	if w := f.World(l); !geom.VecNear(w, r3.Vec{X: 0.2, Y: 0.8, Z: -0.1}, 1e-12) {
		t.Errorf("World(Local(p)) = %v", w)
	}
}

func TestBuildFrameNotReady(t *testing.T) {
	empty := geom.EmptyBounds()
	cases := []struct {
		name   string
		meta   *surface.Meta
		bounds *geom.Bounds
	}{
		{"no meta", nil, deskBounds()},
		{"no bounds", deskMeta(r3.Vec{Y: 1}, r3.Vec{X: 1}), nil},
		{"empty bounds", deskMeta(r3.Vec{Y: 1}, r3.Vec{X: 1}), &empty},
		{"zero normal", deskMeta(r3.Vec{}, r3.Vec{X: 1}), deskBounds()},
		{"u along normal", deskMeta(r3.Vec{Y: 1}, r3.Vec{Y: 2}), deskBounds()},
	}
	for _, tc := range cases {
		if _, ok := BuildFrame(tc.meta, tc.bounds); ok {
			t.Errorf("%s: BuildFrame should report false", tc.name)
		}
	}
}

func TestSolveCamera(t *testing.T) {
	f, _ := BuildFrame(deskMeta(r3.Vec{Y: 1}, r3.Vec{X: 1}), deskBounds())
	cfg := DefaultCameraConfig()

	monitor := geom.NewBounds(r3.Vec{X: -0.3, Y: 0.76, Z: -0.2}, r3.Vec{X: 0.3, Y: 1.2, Z: -0.1})
	cam, ok := SolveCamera(f, []geom.Bounds{monitor, geom.EmptyBounds()}, cfg)
	if !ok {
		t.Fatal("SolveCamera reported false")
	}

	if cam.Bounds.Max.Y != 1.2 || cam.Bounds.Min.Y != 0.71 {
		t.Errorf("union bounds = %+v", cam.Bounds)
	}
	wantTarget := r3.Add(cam.Bounds.Center(), r3.Vec{Y: cfg.TargetUp, Z: cfg.TargetForward})
	if !geom.VecNear(cam.Target, wantTarget, 1e-12) {
		t.Errorf("target = %v, want %v", cam.Target, wantTarget)
	}

	// Radius is the farthest corner, not the half diagonal.
	half := r3.Norm(cam.Bounds.Size()) / 2
	if cam.Radius <= half {
		t.Errorf("radius %v should exceed half diagonal %v for an offset target", cam.Radius, half)
	}

	wantDolly := cam.Radius / math.Tan(geom.Deg2Rad(cfg.FovDeg)/2) * cfg.Margin
	if !scalar.EqualWithinAbs(cam.Pose.Dolly, wantDolly, 1e-12) {
		t.Errorf("dolly = %v, want %v", cam.Pose.Dolly, wantDolly)
	}
	if !scalar.EqualWithinAbs(cam.Pose.Pitch, geom.Deg2Rad(cfg.ElevationDeg), 1e-12) {
		t.Errorf("pitch = %v", cam.Pose.Pitch)
	}
	if !scalar.EqualWithinAbs(cam.Pose.Yaw, geom.Deg2Rad(cfg.AzimuthDeg), 1e-12) {
		t.Errorf("yaw = %v", cam.Pose.Yaw)
	}
	if d := r3.Norm(r3.Sub(cam.Eye, cam.Target)); !scalar.EqualWithinAbs(d, cam.Pose.Dolly, 1e-12) {
		t.Errorf("eye distance = %v", d)
	}
}

func TestSolveCameraClampsDolly(t *testing.T) {
	tiny := geom.NewBounds(r3.Vec{}, r3.Vec{X: 0.01, Y: 0.01, Z: 0.01})
	f := Frame{Up: r3.Vec{Y: 1}, Right: r3.Vec{X: 1}, Forward: r3.Vec{Z: 1}, Bounds: tiny}
	cfg := DefaultCameraConfig()
	cfg.TargetForward, cfg.TargetUp = 0, 0

	cam, _ := SolveCamera(f, nil, cfg)
	if cam.Pose.Dolly != cfg.MinDolly {
		t.Errorf("dolly = %v, want min %v", cam.Pose.Dolly, cfg.MinDolly)
	}

	f.Bounds = geom.NewBounds(r3.Vec{X: -10, Y: -10, Z: -10}, r3.Vec{X: 10, Y: 10, Z: 10})
	cam, _ = SolveCamera(f, nil, cfg)
	if cam.Pose.Dolly != cfg.MaxDolly {
		t.Errorf("dolly = %v, want max %v", cam.Pose.Dolly, cfg.MaxDolly)
	}
}

func TestApplyDefault(t *testing.T) {
	cfg := DefaultCameraConfig()
	old := Pose{Yaw: 0.6, Pitch: 0.5, Dolly: 2}
	next := Pose{Yaw: 0.6, Pitch: 0.5, Dolly: 2.5}

	tests := []struct {
		name        string
		state       CameraState
		pose        Pose
		wantChanged bool
		wantSnapped bool
		wantLive    *Pose
	}{
		{
			name:     "within follow epsilon",
			state:    CameraState{Mode: ModeDesk, Live: &old, Default: &old},
			pose:     Pose{Yaw: 0.6, Pitch: 0.5, Dolly: 2 + 1e-5},
			wantLive: &old,
		},
		{
			name:        "live on default follows",
			state:       CameraState{Mode: ModeDesk, Live: &Pose{Yaw: 0.6005, Pitch: 0.5, Dolly: 2}, Default: &old},
			pose:        next,
			wantChanged: true,
			wantSnapped: true,
			wantLive:    &next,
		},
		{
			name:        "user orbited away",
			state:       CameraState{Mode: ModeDesk, Live: &Pose{Yaw: 1.2, Pitch: 0.5, Dolly: 2}, Default: &old},
			pose:        next,
			wantChanged: true,
			wantLive:    &Pose{Yaw: 1.2, Pitch: 0.5, Dolly: 2},
		},
		{
			name:        "free mode never snaps",
			state:       CameraState{Mode: ModeFree, Live: &old, Default: &old},
			pose:        next,
			wantChanged: true,
			wantLive:    &old,
		},
		{
			name:        "first default in desk mode",
			state:       CameraState{Mode: ModeDesk},
			pose:        next,
			wantChanged: true,
			wantSnapped: true,
			wantLive:    &next,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := tt.state
			changed, snapped := st.ApplyDefault(tt.pose, cfg)
			if changed != tt.wantChanged || snapped != tt.wantSnapped {
				t.Fatalf("ApplyDefault = (%v, %v), want (%v, %v)", changed, snapped, tt.wantChanged, tt.wantSnapped)
			}
			if st.Live == nil || *st.Live != *tt.wantLive {
				t.Errorf("live = %v, want %v", st.Live, *tt.wantLive)
			}
			if tt.wantChanged && *st.Default != tt.pose {
				t.Errorf("default = %v, want %v", *st.Default, tt.pose)
			}
		})
	}
}

func TestPosesEqualWrapsYaw(t *testing.T) {
	a := Pose{Yaw: math.Pi - 1e-6, Pitch: 0.1, Dolly: 1}
	b := Pose{Yaw: -math.Pi + 1e-6, Pitch: 0.1, Dolly: 1}
	if !PosesEqual(a, b, 1e-4) {
		t.Error("yaw on either side of ±π should compare equal")
	}
}
