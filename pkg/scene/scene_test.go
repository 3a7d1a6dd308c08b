package scene

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/errors"
	"github.com/sticky3d/deskgeom/pkg/geom"
)

const deskScene = `
id = "office"
desk = "desk"
monitor = "monitor"

[[props]]
name = "desk"
[props.root]
name = "Desk"
[[props.root.children]]
name = "DeskTop"
position = [0.0, 0.73, 0.0]
mesh = { min = [-0.7, -0.02, -0.35], max = [0.7, 0.02, 0.35] }

[[props]]
name = "monitor"
[props.root]
name = "Monitor"
[[props.root.children]]
name = "Screen"
mesh = { min = [-0.3, 0.0, -0.02], max = [0.3, 0.35, 0.02] }

[[props]]
name = "plant"
[props.root]
name = "Plant"
mesh = { min = [-0.06, 0.0, -0.06], max = [0.06, 0.25, 0.06] }

[[objects]]
id = "desk"
prop = "desk"
position = [0.0, 0.0, 0.0]
rotation_deg = [0.0, 0.0, 0.0]

[[objects]]
id = "monitor"
prop = "monitor"
position = [0.1, 0.8, -0.1]
rotation_deg = [0.0, 0.0, 0.0]

[[objects]]
id = "plant"
prop = "plant"
position = [0.3, 0.75, 0.1]
rotation_deg = [0.0, 0.0, 0.0]
scale = [2.0, 2.0, 2.0]
dock = { lateral = 0.3, depth = 0.1, lift = 0.0, yaw_deg = 45.0 }

[[surfaces]]
id = "desk"
object = "desk"
node = "DeskTop"
kind = "desk"

[[surfaces]]
id = "monitor-back"
object = "monitor"
node = "Screen"
kind = "screen"
side = "negative"

[mount]
desk_surface = "desk"
monitor_surface = "monitor-back"
desk_anchor = { u = 0.5, v = 0.8, lift = 0.0 }
socket = { u = 0.5, v = 0.5, lift = 0.01 }
base_offset_mm = 2.0

[camera]
mode = "desk"
default = { yaw = 0.5, pitch = -0.3, dolly = 1.8 }
`

func decode(t *testing.T, src string) *Scene {
	t.Helper()
	s, err := Decode(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return s
}

func near(a, b r3.Vec) bool { return geom.VecNear(a, b, 1e-9) }

func TestDecode(t *testing.T) {
	s := decode(t, deskScene)

	if s.ID != "office" || s.Desk != "desk" || s.Monitor != "monitor" {
		t.Errorf("header = %q %q %q", s.ID, s.Desk, s.Monitor)
	}
	if len(s.Objects) != 3 || len(s.Surfaces) != 2 {
		t.Fatalf("objects=%d surfaces=%d", len(s.Objects), len(s.Surfaces))
	}

	plant, ok := s.Object("plant")
	if !ok {
		t.Fatal("plant not indexed")
	}
	if plant.Bounds == nil {
		t.Fatal("plant should be measured on decode")
	}
	wantMin := r3.Vec{X: 0.18, Y: 0.75, Z: -0.02}
	wantMax := r3.Vec{X: 0.42, Y: 1.25, Z: 0.22}
	if !near(plant.Bounds.Min, wantMin) || !near(plant.Bounds.Max, wantMax) {
		t.Errorf("plant bounds = %+v, want %v..%v", *plant.Bounds, wantMin, wantMax)
	}
	if plant.Dock == nil || plant.Dock.YawDeg != 45 {
		t.Errorf("plant dock = %+v", plant.Dock)
	}

	if desk, ok := s.DeskObject(); !ok || desk.ID != "desk" {
		t.Errorf("DeskObject = %v, %v", desk, ok)
	}
	if s.Mount == nil || s.Mount.Socket.Lift != 0.01 || s.Mount.BaseOffsetMM != 2 {
		t.Errorf("mount = %+v", s.Mount)
	}
	if s.Camera.Mode != "desk" || s.Camera.Default == nil || s.Camera.Default.Dolly != 1.8 || s.Camera.Live != nil {
		t.Errorf("camera = %+v", s.Camera)
	}
}

func TestDecodeInstantiatesCopies(t *testing.T) {
	s := decode(t, deskScene)
	desk, _ := s.Object("desk")

	top := desk.Root.Find("DeskTop")
	if top == nil {
		t.Fatal("DeskTop not found under the desk instance")
	}
	top.Position.Y = 2
	if s.Props["desk"].Find("DeskTop").Position.Y != 0.73 {
		t.Error("editing an instance must not change the prop")
	}
	if top.Parent().Parent() != desk.Root {
		t.Error("prop tree should hang under the object root")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code errors.Code
	}{
		{"bad toml", `id = `, errors.ErrCodeInvalidScene},
		{"no desk", `id = "x"`, errors.ErrCodeInvalidScene},
		{
			"duplicate object",
			"id = \"x\"\ndesk = \"d\"\n[[objects]]\nid = \"a\"\n[[objects]]\nid = \"a\"\n",
			errors.ErrCodeInvalidScene,
		},
		{
			"surface on unknown object",
			"id = \"x\"\ndesk = \"d\"\n[[surfaces]]\nid = \"d\"\nobject = \"ghost\"\nnode = \"Top\"\nkind = \"desk\"\n",
			errors.ErrCodeObjectNotFound,
		},
		{
			"surface on object without geometry",
			"id = \"x\"\ndesk = \"d\"\n[[objects]]\nid = \"a\"\n[[surfaces]]\nid = \"d\"\nobject = \"a\"\nnode = \"Top\"\nkind = \"desk\"\n",
			errors.ErrCodeInvalidScene,
		},
		{
			"unknown monitor",
			"id = \"x\"\ndesk = \"d\"\nmonitor = \"m\"\n",
			errors.ErrCodeObjectNotFound,
		},
		{
			"bad object id",
			"id = \"x\"\ndesk = \"d\"\n[[objects]]\nid = \"a b\"\n",
			errors.ErrCodeInvalidID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.src))
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	s := decode(t, deskScene)
	plant, _ := s.Object("plant")
	plant.Position = r3.Vec{X: -0.2, Y: 0.75, Z: 0.05}
	plant.Measure()

	var buf bytes.Buffer
	if err := Encode(s, &buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back := decode(t, buf.String())

	got, _ := back.Object("plant")
	if !near(got.Position, plant.Position) {
		t.Errorf("position = %v, want %v", got.Position, plant.Position)
	}
	if got.Bounds == nil || !near(got.Bounds.Min, plant.Bounds.Min) {
		t.Errorf("bounds = %+v, want %+v", got.Bounds, plant.Bounds)
	}

	h1, err := s.Hash()
	if err != nil {
		t.Fatal(err)
	}
	h2, err := back.Hash()
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Error("re-decoded scene should hash identically")
	}
}

func TestHashTracksTransforms(t *testing.T) {
	s := decode(t, deskScene)
	before, _ := s.Hash()

	m, _ := s.Object("monitor")
	m.Rotation = geom.Yaw(math.Pi / 4)
	after, _ := s.Hash()

	if before == after {
		t.Error("hash should change with an object transform")
	}
}

func TestNodeWorld(t *testing.T) {
	root := NewNode("root")
	root.Position = r3.Vec{X: 1}
	root.Rotation = geom.Yaw(math.Pi / 2)
	child := NewNode("child")
	child.Position = r3.Vec{X: 1}
	root.Add(child)

	// Yaw +90° turns +X into -Z.
	got := child.World().Point(r3.Vec{})
	if !near(got, r3.Vec{X: 1, Z: -1}) {
		t.Errorf("child origin = %v, want (1, 0, -1)", got)
	}
	if root.Find("child") != child || root.Find("missing") != nil {
		t.Error("Find returned the wrong node")
	}
}

func TestMeasureWithoutGeometry(t *testing.T) {
	o := &Object{ID: "ghost", Scale: r3.Vec{X: 1, Y: 1, Z: 1}}
	if o.Measure() || o.Bounds != nil {
		t.Error("an object without a prop tree cannot be measured")
	}
}
