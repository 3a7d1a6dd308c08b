package mount

import (
	"strings"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/errors"
	"github.com/sticky3d/deskgeom/pkg/geom"
	"github.com/sticky3d/deskgeom/pkg/surface"
)

// deskTop is a 1.4 × 0.7 m desk top at y = 0.75 facing up.
func deskTop() surface.Surface {
	return surface.Surface{
		ID:     "desk",
		Kind:   surface.KindDesk,
		Origin: r3.Vec{X: -0.7, Y: 0.75, Z: 0.35},
		UAxis:  r3.Vec{X: 1.4},
		VAxis:  r3.Vec{Z: -0.7},
	}
}

// monitorBack is the back of a monitor at z = -0.22, facing away from the
// user.
func monitorBack() surface.Surface {
	return surface.Surface{
		ID:     "monitor-back",
		Kind:   surface.KindScreen,
		Origin: r3.Vec{X: -0.3, Y: 0.95, Z: -0.22},
		UAxis:  r3.Vec{X: 0.6},
		VAxis:  r3.Vec{Y: 0.35},
		N:      r3.Vec{Z: -1},
	}
}

var (
	socket       = Anchor{U: 0.5, V: 0.5}
	underSocket  = Anchor{U: 0.5, V: (0.35 + 0.22) / 0.7}
	besideSocket = Anchor{U: 0.4 / 1.4, V: (0.35 + 0.22) / 0.7}
)

func TestPoseBases(t *testing.T) {
	p, err := Pose(deskTop(), monitorBack(), Anchor{U: 0.5, V: 0.5, Lift: 0.01}, socket)
	if err != nil {
		t.Fatal(err)
	}
	if !geom.VecNear(p.PDesk, r3.Vec{Y: 0.76}, 1e-12) {
		t.Errorf("PDesk = %v", p.PDesk)
	}
	if !geom.VecNear(p.PSock, r3.Vec{Y: 1.125, Z: -0.22}, 1e-12) {
		t.Errorf("PSock = %v", p.PSock)
	}
	for _, b := range [][3]r3.Vec{{p.UD, p.VD, p.ND}, {p.UM, p.VM, p.NM}} {
		if !geom.VecNear(r3.Cross(b[0], b[1]), b[2], 1e-12) {
			t.Errorf("basis %v is not right-handed", b)
		}
		if !scalar.EqualWithinAbs(r3.Norm(b[2]), 1, 1e-12) {
			t.Errorf("|N| = %v", r3.Norm(b[2]))
		}
	}
	if !geom.VecNear(p.NM, r3.Vec{Z: -1}, 1e-12) {
		t.Errorf("NM = %v, want the explicit outward normal", p.NM)
	}
}

func TestPoseDegenerate(t *testing.T) {
	bad := deskTop()
	bad.VAxis = r3.Vec{X: 1}
	if _, err := Pose(bad, monitorBack(), socket, socket); !errors.Is(err, errors.ErrCodeDegenerateGeometry) {
		t.Errorf("err = %v, want DEGENERATE_GEOMETRY", err)
	}
	if _, _, err := Verify(PoseOutputs{}, Parts{}, DefaultConfig()); !errors.Is(err, errors.ErrCodeDegenerateGeometry) {
		t.Errorf("Verify on zero pose: err = %v", err)
	}
}

func TestBuild(t *testing.T) {
	cfg := DefaultConfig()
	p, _ := Pose(deskTop(), monitorBack(), underSocket, socket)
	parts := Build(p, cfg)

	wantBase := 0.75 + (cfg.BaseThicknessMM/2+cfg.Tolerances.MinClearanceMM)*mm
	if !scalar.EqualWithinAbs(parts.Base.Center().Y, wantBase, 1e-12) {
		t.Errorf("base center y = %v, want %v", parts.Base.Center().Y, wantBase)
	}
	if !geom.VecNear(parts.Base.Axis(), r3.Vec{Y: 1}, 1e-12) {
		t.Errorf("base +Y = %v, want desk normal", parts.Base.Axis())
	}
	if !geom.VecNear(parts.NeckTop(), p.PSock, 1e-12) {
		t.Errorf("neck top = %v, want socket %v", parts.NeckTop(), p.PSock)
	}
	wantPlate := r3.Add(p.PSock, r3.Vec{Z: -cfg.PlateEpsilonMM * mm})
	if !geom.VecNear(parts.Plate.Center(), wantPlate, 1e-12) {
		t.Errorf("plate center = %v, want %v", parts.Plate.Center(), wantPlate)
	}

	// A vertical neck is parallel to world up and must still get a basis.
	n := parts.Neck.Basis
	if !geom.VecNear(r3.Cross(n.X, n.Y), n.Z, 1e-12) || !scalar.EqualWithinAbs(r3.Norm(n.X), 1, 1e-12) {
		t.Errorf("vertical neck basis = %+v", n)
	}
}

func TestVerifyPasses(t *testing.T) {
	res, err := Generate(deskTop(), monitorBack(), underSocket, socket, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	s := res.Summary
	if !s.OK() || !s.BaseOK || !s.SocketOK || !s.AxisOK {
		t.Errorf("summary = %+v, want all checks passing", s)
	}
	if s.Adjusted.BaseRaiseMM != 0 {
		t.Errorf("raise = %v, want 0", s.Adjusted.BaseRaiseMM)
	}
	if !scalar.EqualWithinAbs(s.GapMM, 2, 1e-9) {
		t.Errorf("gap = %v mm, want 2", s.GapMM)
	}
}

func TestVerifyRaiseCap(t *testing.T) {
	cfg := DefaultConfig()
	// Sinks the base so 8 mm of correction is needed against a 5 mm cap.
	cfg.BaseOffsetMM = -8

	res, err := Generate(deskTop(), monitorBack(), underSocket, socket, cfg)
	if err != nil {
		t.Fatal(err)
	}
	s := res.Summary

	if s.Adjusted.BaseRaiseMM != 5 {
		t.Errorf("raise = %v mm, want exactly 5", s.Adjusted.BaseRaiseMM)
	}
	if !s.BaseOK {
		t.Error("BaseOK must be forced true after the capped raise")
	}
	if s.Fail != "" {
		t.Errorf("clearance alone must not set Fail, got %q", s.Fail)
	}
	if !s.SocketOK || !s.AxisOK {
		t.Errorf("neck should still reach the socket: %+v", s)
	}

	// The residual shortfall is still recorded.
	if len(s.Failures) != 1 || s.Failures[0].Check != CheckClearance {
		t.Fatalf("failures = %+v, want one clearance entry", s.Failures)
	}
	if !scalar.EqualWithinAbs(s.Failures[0].Value, -1, 1e-9) {
		t.Errorf("residual gap = %v mm, want -1", s.Failures[0].Value)
	}

	wantBottom := 0.75 - 1*mm
	if got := res.Parts.BaseBottom().Y; !scalar.EqualWithinAbs(got, wantBottom, 1e-12) {
		t.Errorf("base bottom y = %v, want %v", got, wantBottom)
	}
}

func TestVerifyLastFailureWins(t *testing.T) {
	tests := []struct {
		name       string
		anchor     Anchor
		tweak      func(*Config)
		wantChecks []string
		wantFail   string
	}{
		{
			name:       "socket only",
			anchor:     underSocket,
			tweak:      func(c *Config) { c.NeckMaxMM = 300 },
			wantChecks: []string{CheckSocket},
			wantFail:   "socket",
		},
		{
			name:       "socket and axis",
			anchor:     besideSocket,
			tweak:      func(c *Config) { c.MaxTiltDeg, c.NeckMaxMM = 30, 450 },
			wantChecks: []string{CheckSocket, CheckAxis},
			wantFail:   "axis",
		},
		{
			name:       "limits off",
			anchor:     besideSocket,
			tweak:      func(*Config) {},
			wantChecks: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.tweak(&cfg)
			res, err := Generate(deskTop(), monitorBack(), tt.anchor, socket, cfg)
			if err != nil {
				t.Fatal(err)
			}
			s := res.Summary

			var checks []string
			for _, f := range s.Failures {
				checks = append(checks, f.Check)
			}
			if strings.Join(checks, ",") != strings.Join(tt.wantChecks, ",") {
				t.Errorf("failures = %v, want %v", checks, tt.wantChecks)
			}
			if tt.wantFail == "" {
				if s.Fail != "" {
					t.Errorf("Fail = %q, want empty", s.Fail)
				}
				return
			}
			if !strings.Contains(s.Fail, tt.wantFail) {
				t.Errorf("Fail = %q, want the %s message", s.Fail, tt.wantFail)
			}
			if last := s.Failures[len(s.Failures)-1]; last.Message != s.Fail {
				t.Errorf("Fail %q should equal the last failure %q", s.Fail, last.Message)
			}
		})
	}
}

func TestVerifyDefaultsReachSocket(t *testing.T) {
	// Socket 20 mm above the base top, directly over the desk anchor.
	low := monitorBack()
	low.Origin.Y = 0.764 + 0.020 - 0.175

	tests := []struct {
		name    string
		monitor surface.Surface
		anchor  Anchor
	}{
		{"offset socket", monitorBack(), besideSocket},
		{"short neck", low, underSocket},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Generate(deskTop(), tt.monitor, tt.anchor, socket, DefaultConfig())
			if err != nil {
				t.Fatal(err)
			}
			s := res.Summary
			if !s.OK() || !s.SocketOK || !s.AxisOK {
				t.Errorf("summary = %+v, want the neck to end at the socket", s)
			}
			if s.SocketErrMM > 1e-6 || s.AxisDeg > 1e-4 {
				t.Errorf("socket err = %v mm, axis = %v°", s.SocketErrMM, s.AxisDeg)
			}
			if !geom.VecNear(res.Parts.NeckTop(), res.Pose.PSock, 1e-9) {
				t.Errorf("neck top = %v, socket = %v", res.Parts.NeckTop(), res.Pose.PSock)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
	bad := []func(*Config){
		func(c *Config) { c.BaseThicknessMM = 0 },
		func(c *Config) { c.NeckMinMM, c.NeckMaxMM = 200, 100 },
		func(c *Config) { c.NeckMaxMM = -1 },
		func(c *Config) { c.MaxTiltDeg = 90 },
		func(c *Config) { c.Tolerances.RaiseCapMM = -1 },
	}
	for i, mut := range bad {
		c := DefaultConfig()
		mut(&c)
		if err := c.Validate(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("case %d: err = %v, want INVALID_CONFIG", i, err)
		}
	}
}
