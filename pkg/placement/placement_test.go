package placement

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/geom"
	"github.com/sticky3d/deskgeom/pkg/layout"
)

func deskFrame() layout.Frame {
	return layout.Frame{
		Center:  r3.Vec{Y: 0.75},
		Up:      r3.Vec{Y: 1},
		Right:   r3.Vec{X: 1},
		Forward: r3.Vec{Z: 1},
		Bounds:  geom.NewBounds(r3.Vec{X: -0.5, Y: 0.71, Z: -0.35}, r3.Vec{X: 0.5, Y: 0.75, Z: 0.35}),
	}
}

// yawedFrame is deskFrame rotated about world up by yaw.
func yawedFrame(yaw float64) layout.Frame {
	f := deskFrame()
	rot := geom.Yaw(yaw).Matrix()
	f.Right = rot.Dir(f.Right)
	f.Forward = rot.Dir(f.Forward)
	f.Center = r3.Vec{X: 0.3, Y: 0.75, Z: -0.1}
	return f
}

func TestSolveDock(t *testing.T) {
	f := deskFrame()
	off := DockOffset{Lateral: 0.3, Depth: -0.1, Lift: 0.02, Yaw: geom.Deg2Rad(170)}
	tr := SolveDock(f, off, geom.Deg2Rad(30))

	if !geom.VecNear(tr.Position, r3.Vec{X: 0.3, Y: 0.77, Z: -0.1}, 1e-12) {
		t.Errorf("position = %v", tr.Position)
	}
	if tr.Rotation.X != 0 || tr.Rotation.Z != 0 {
		t.Errorf("docked objects must be upright, got %+v", tr.Rotation)
	}
	if got := geom.Rad2Deg(tr.Rotation.Y); !scalar.EqualWithinAbs(got, -160, 1e-9) {
		t.Errorf("yaw = %v°, want -160°", got)
	}
}

func TestCaptureOffsetRoundTrip(t *testing.T) {
	for _, deskYaw := range []float64{0, 0.4, -2.5, math.Pi} {
		f := yawedFrame(deskYaw)
		want := DockOffset{Lateral: -0.21, Depth: 0.12, Lift: 0.004, Yaw: 0.9}
		tr := SolveDock(f, want, deskYaw)
		got := CaptureOffset(f, tr.Position, tr.Rotation.Y, deskYaw)

		for _, c := range [][2]float64{
			{got.Lateral, want.Lateral}, {got.Depth, want.Depth},
			{got.Lift, want.Lift}, {got.Yaw, want.Yaw},
		} {
			if !scalar.EqualWithinAbs(c[0], c[1], 1e-9) {
				t.Errorf("deskYaw %v: captured %+v, want %+v", deskYaw, got, want)
				break
			}
		}
	}
}

func TestDockerIdempotent(t *testing.T) {
	f := yawedFrame(0.4)
	objects := []Docked{
		{ID: "lamp", Offset: DockOffset{Lateral: 0.4, Depth: 0.1, Yaw: 0.2}},
		{ID: "mouse", Offset: DockOffset{Lateral: 0.25, Depth: 0.2}},
	}
	store := map[string]Transform{}
	set := func(id string, tr Transform) { store[id] = tr }

	var d Docker
	if n := d.Update(f, 0.4, objects, set); n != 2 {
		t.Fatalf("first Update wrote %d, want 2", n)
	}
	first := map[string]Transform{}
	for k, v := range store {
		first[k] = v
	}

	if n := d.Update(f, 0.4, objects, set); n != 0 {
		t.Errorf("second Update wrote %d, want 0", n)
	}
	// Forced recompute must also be bit-identical.
	d.Invalidate()
	d.Update(f, 0.4, objects, set)
	for id, tr := range first {
		if store[id] != tr {
			t.Errorf("%s: %+v changed to %+v", id, tr, store[id])
		}
	}

	if n := d.Update(f, 0.5, objects, set); n != 2 {
		t.Errorf("desk yaw change wrote %d, want 2", n)
	}
	moved := f
	moved.Center.Y += 0.01
	if n := d.Update(moved, 0.5, objects, set); n != 2 {
		t.Errorf("frame change wrote %d, want 2", n)
	}
	objects[1].Offset.Depth = 0.25
	if n := d.Update(moved, 0.5, objects, set); n != 2 {
		t.Errorf("offset change wrote %d, want 2", n)
	}
	if n := d.Update(moved, 0.5, objects[:1], set); n != 1 {
		t.Errorf("undock wrote %d, want 1", n)
	}
}

func TestFramesEqualIgnoresBounds(t *testing.T) {
	a := deskFrame()
	b := deskFrame()
	b.Bounds = geom.EmptyBounds()
	if !FramesEqual(a, b) {
		t.Error("bounds should not affect frame equality")
	}
	b.Up.X = 1e-15
	if FramesEqual(a, b) {
		t.Error("any axis difference must break equality")
	}
}

func TestClampOffset(t *testing.T) {
	tests := []struct {
		name                     string
		deskHalf, objHalf, margin float64
		offset                   float64
		want                     float64
	}{
		{"edge containment", 0.5, 0.2, 0.012, 0.4, 0.5 - 0.2 - 0.012},
		{"negative side", 0.5, 0.2, 0.012, -0.4, -(0.5 - 0.2 - 0.012)},
		{"inside", 0.5, 0.2, 0.012, 0.1, 0.1},
		{"does not fit", 0.2, 0.25, 0.012, 0.05, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampOffset(tt.deskHalf, tt.objHalf, tt.margin, tt.offset); got != tt.want {
				t.Errorf("ClampOffset = %v, want %v", got, tt.want)
			}
		})
	}
	if got := ClampOffset(0.5, 0.2, 0.012, 0.4); !scalar.EqualWithinAbs(got, 0.288, 1e-12) {
		t.Errorf("ClampOffset = %v, want 0.288", got)
	}
}

func TestClampToDeskUsesFrameAxes(t *testing.T) {
	f := deskFrame()
	obj := geom.NewBounds(r3.Vec{X: -0.2, Z: -0.05}, r3.Vec{X: 0.2, Y: 0.3, Z: 0.05})
	lat, dep := ClampToDesk(f, f.Bounds, obj, 0.4, -0.5, 0.012)
	if !scalar.EqualWithinAbs(lat, 0.288, 1e-12) {
		t.Errorf("lateral = %v", lat)
	}
	if !scalar.EqualWithinAbs(dep, -(0.35 - 0.05 - 0.012), 1e-12) {
		t.Errorf("depth = %v", dep)
	}
}

func TestClearanceDeltaTiltedNormal(t *testing.T) {
	n, _ := geom.Unit(r3.Vec{X: 0.2, Y: 1})
	b := geom.NewBounds(r3.Vec{X: -0.1, Y: 1, Z: -0.1}, r3.Vec{X: 0.1, Y: 1.2, Z: 0.1})
	top := r3.Vec{Y: 0.75}

	sep := Separation(top, n, b)
	bottom := r3.Vec{X: -0.1, Y: 1, Z: -0.1}
	if want := r3.Dot(r3.Sub(bottom, top), n); !scalar.EqualWithinAbs(sep, want, 1e-12) {
		t.Errorf("separation = %v, want %v", sep, want)
	}
	if d := ClearanceDelta(top, n, b, 0.002); !scalar.EqualWithinAbs(d, 0.002-sep, 1e-12) {
		t.Errorf("delta = %v", d)
	}
}

func TestSolveMonitor(t *testing.T) {
	f := deskFrame()
	// Pivot at the bottom center of the box, floating 5 cm above the desk
	// and pushed past the right edge.
	pos := r3.Vec{X: 0.45, Y: 0.80, Z: 0}
	b := geom.NewBounds(r3.Vec{X: 0.15, Y: 0.80, Z: -0.05}, r3.Vec{X: 0.75, Y: 1.2, Z: 0.05})

	p := SolveMonitor(MonitorInput{
		Frame: &f, Bounds: &b, Position: pos,
		Clearance: 0.0015, EdgeMargin: 0.012,
	})
	if p == nil {
		t.Fatal("SolveMonitor returned nil")
	}
	want := r3.Vec{X: 0.5 - 0.3 - 0.012, Y: 0.7515, Z: 0}
	if !geom.VecNear(p.Position, want, 1e-12) {
		t.Errorf("position = %v, want %v", p.Position, want)
	}

	aligned := SolveMonitor(MonitorInput{
		Frame: &f, Bounds: &b, Position: pos, Rotation: geom.Yaw(1),
		DeskYaw: 0.25, Clearance: 0.0015, Align: true,
	})
	if aligned.Position.X != 0 || aligned.Rotation.Y != 0.25 {
		t.Errorf("aligned = %+v", aligned)
	}
}

func TestSolveMonitorDeskLift(t *testing.T) {
	f := deskFrame()
	pos := r3.Vec{Y: 0.80}
	b := geom.NewBounds(r3.Vec{X: -0.3, Y: 0.80, Z: -0.05}, r3.Vec{X: 0.3, Y: 1.2, Z: 0.05})

	p := SolveMonitor(MonitorInput{
		Frame: &f, Bounds: &b, Position: pos,
		DeskLift: 0.01, Clearance: 0.0015,
	})
	if p == nil {
		t.Fatal("SolveMonitor returned nil")
	}
	if !geom.VecNear(p.Position, r3.Vec{Y: 0.7615}, 1e-12) {
		t.Errorf("position = %v, want the monitor 1.5 mm above the lifted top", p.Position)
	}
}

func TestSolveMonitorMissingData(t *testing.T) {
	f := deskFrame()
	b := geom.NewBounds(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	if SolveMonitor(MonitorInput{Bounds: &b}) != nil {
		t.Error("missing frame should give nil")
	}
	if SolveMonitor(MonitorInput{Frame: &f}) != nil {
		t.Error("missing bounds should give nil")
	}
}

func TestStabilize(t *testing.T) {
	prev := &MonitorPlacement{Position: r3.Vec{X: 0.1, Y: 0.75}}
	jitter := &MonitorPlacement{Position: r3.Vec{X: 0.1 + 1e-9, Y: 0.75}}
	moved := &MonitorPlacement{Position: r3.Vec{X: 0.2, Y: 0.75}}

	if got := Stabilize(prev, jitter, 1e-6); got != prev {
		t.Error("jitter should keep the previous placement")
	}
	if got := Stabilize(prev, moved, 1e-6); got != moved {
		t.Error("a real move should publish the new placement")
	}
	if got := Stabilize(prev, nil, 1e-6); got != prev {
		t.Error("missing data must retain the previous placement")
	}
	if got := Stabilize(nil, nil, 1e-6); got != nil {
		t.Error("nothing to publish yet")
	}
}
