package scene

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/sticky3d/deskgeom/pkg/errors"
	"github.com/sticky3d/deskgeom/pkg/geom"
)

// =============================================================================
// Wire Format
// =============================================================================

type fileScene struct {
	ID       string        `toml:"id"`
	Desk     string        `toml:"desk"`
	Monitor  string        `toml:"monitor,omitempty"`
	Props    []fileProp    `toml:"props"`
	Objects  []fileObject  `toml:"objects"`
	Surfaces []fileSurface `toml:"surfaces"`
	Mount    *fileMount    `toml:"mount,omitempty"`
	Camera   *fileCamera   `toml:"camera,omitempty"`
}

type fileProp struct {
	Name string   `toml:"name"`
	Root fileNode `toml:"root"`
}

type fileNode struct {
	Name        string      `toml:"name"`
	Position    *[3]float64 `toml:"position,omitempty"`
	RotationDeg *[3]float64 `toml:"rotation_deg,omitempty"`
	Scale       *[3]float64 `toml:"scale,omitempty"`
	Mesh        *fileBounds `toml:"mesh,omitempty"`
	Children    []fileNode  `toml:"children,omitempty"`
}

type fileBounds struct {
	Min [3]float64 `toml:"min"`
	Max [3]float64 `toml:"max"`
}

type fileObject struct {
	ID          string      `toml:"id"`
	Prop        string      `toml:"prop,omitempty"`
	Position    [3]float64  `toml:"position"`
	RotationDeg [3]float64  `toml:"rotation_deg"`
	Scale       *[3]float64 `toml:"scale,omitempty"`
	Bounds      *fileBounds `toml:"bounds,omitempty"`
	Dock        *fileDock   `toml:"dock,omitempty"`
}

type fileDock struct {
	Lateral float64 `toml:"lateral"`
	Depth   float64 `toml:"depth"`
	Lift    float64 `toml:"lift"`
	YawDeg  float64 `toml:"yaw_deg"`
}

type fileSurface struct {
	ID     string `toml:"id"`
	Object string `toml:"object"`
	Node   string `toml:"node"`
	Kind   string `toml:"kind"`
	Side   string `toml:"side,omitempty"`
	ZLift  *float64 `toml:"z_lift,omitempty"`
}

type fileAnchor struct {
	U    float64 `toml:"u"`
	V    float64 `toml:"v"`
	Lift float64 `toml:"lift"`
}

type fileMount struct {
	DeskSurface    string     `toml:"desk_surface"`
	MonitorSurface string     `toml:"monitor_surface"`
	DeskAnchor     fileAnchor `toml:"desk_anchor"`
	Socket         fileAnchor `toml:"socket"`
	BaseOffsetMM   float64    `toml:"base_offset_mm,omitempty"`
}

type filePose struct {
	Yaw   float64 `toml:"yaw"`
	Pitch float64 `toml:"pitch"`
	Dolly float64 `toml:"dolly"`
}

type fileCamera struct {
	Mode    string    `toml:"mode"`
	Live    *filePose `toml:"live,omitempty"`
	Default *filePose `toml:"default,omitempty"`
}

// =============================================================================
// Decoding
// =============================================================================

// ReadFile reads and decodes a TOML scene file.
func ReadFile(path string) (*Scene, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scene %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "read %s", path)
	}
	return Decode(bytes.NewReader(data))
}

// Decode reads a TOML scene from r, instantiates prop trees, measures
// objects that have geometry but no explicit bounds, and validates cross
// references.
func Decode(r io.Reader) (*Scene, error) {
	var f fileScene
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "decode scene")
	}

	s := New(f.ID)
	s.Desk = f.Desk
	s.Monitor = f.Monitor

	for _, p := range f.Props {
		if _, dup := s.Props[p.Name]; dup {
			return nil, errors.New(errors.ErrCodeInvalidScene, "duplicate prop %q", p.Name)
		}
		s.Props[p.Name] = p.Root.build()
	}

	for _, fo := range f.Objects {
		o := fo.build()
		if err := s.AddObject(o); err != nil {
			return nil, err
		}
		if o.Bounds == nil {
			o.Measure()
		}
	}

	for _, fs := range f.Surfaces {
		s.Surfaces = append(s.Surfaces, SurfaceSpec(fs))
	}

	if f.Mount != nil {
		s.Mount = &MountSpec{
			DeskSurface:    f.Mount.DeskSurface,
			MonitorSurface: f.Mount.MonitorSurface,
			DeskAnchor:     Anchor(f.Mount.DeskAnchor),
			Socket:         Anchor(f.Mount.Socket),
			BaseOffsetMM:   f.Mount.BaseOffsetMM,
		}
	}

	if f.Camera != nil {
		s.Camera.Mode = f.Camera.Mode
		if f.Camera.Live != nil {
			p := PoseSpec(*f.Camera.Live)
			s.Camera.Live = &p
		}
		if f.Camera.Default != nil {
			p := PoseSpec(*f.Camera.Default)
			s.Camera.Default = &p
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (n fileNode) build() *Node {
	node := NewNode(n.Name)
	if n.Position != nil {
		node.Position = geom.Vec(*n.Position)
	}
	if n.RotationDeg != nil {
		node.Rotation = eulerDeg(*n.RotationDeg)
	}
	if n.Scale != nil {
		node.Scale = geom.Vec(*n.Scale)
	}
	if n.Mesh != nil {
		node.Mesh = &Mesh{Bounds: n.Mesh.bounds()}
	}
	for _, c := range n.Children {
		node.Add(c.build())
	}
	return node
}

func (o fileObject) build() *Object {
	obj := &Object{
		ID:       o.ID,
		Prop:     o.Prop,
		Position: geom.Vec(o.Position),
		Rotation: eulerDeg(o.RotationDeg),
		Scale:    r3.Vec{X: 1, Y: 1, Z: 1},
	}
	if o.Scale != nil {
		obj.Scale = geom.Vec(*o.Scale)
	}
	if o.Bounds != nil {
		b := o.Bounds.bounds()
		obj.Bounds = &b
	}
	if o.Dock != nil {
		d := DockSpec(*o.Dock)
		obj.Dock = &d
	}
	return obj
}

func (b fileBounds) bounds() geom.Bounds {
	return geom.NewBounds(geom.Vec(b.Min), geom.Vec(b.Max))
}

func eulerDeg(d [3]float64) geom.Euler {
	return geom.Euler{X: geom.Deg2Rad(d[0]), Y: geom.Deg2Rad(d[1]), Z: geom.Deg2Rad(d[2])}
}

// =============================================================================
// Encoding
// =============================================================================

// Encode writes s as TOML. Object transforms are written as they currently
// are, so a solved scene round-trips with its corrected placements.
func Encode(s *Scene, w io.Writer) error {
	f := fileScene{ID: s.ID, Desk: s.Desk, Monitor: s.Monitor}

	names := make([]string, 0, len(s.Props))
	for name := range s.Props {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f.Props = append(f.Props, fileProp{Name: name, Root: encodeNode(s.Props[name])})
	}

	for _, o := range s.Objects {
		fo := fileObject{
			ID:          o.ID,
			Prop:        o.Prop,
			Position:    geom.Tuple(o.Position),
			RotationDeg: [3]float64{geom.Rad2Deg(o.Rotation.X), geom.Rad2Deg(o.Rotation.Y), geom.Rad2Deg(o.Rotation.Z)},
		}
		sc := geom.Tuple(o.Scale)
		fo.Scale = &sc
		if o.Bounds != nil {
			fo.Bounds = &fileBounds{Min: geom.Tuple(o.Bounds.Min), Max: geom.Tuple(o.Bounds.Max)}
		}
		if o.Dock != nil {
			d := fileDock(*o.Dock)
			fo.Dock = &d
		}
		f.Objects = append(f.Objects, fo)
	}

	for _, sp := range s.Surfaces {
		f.Surfaces = append(f.Surfaces, fileSurface(sp))
	}

	if s.Mount != nil {
		f.Mount = &fileMount{
			DeskSurface:    s.Mount.DeskSurface,
			MonitorSurface: s.Mount.MonitorSurface,
			DeskAnchor:     fileAnchor(s.Mount.DeskAnchor),
			Socket:         fileAnchor(s.Mount.Socket),
			BaseOffsetMM:   s.Mount.BaseOffsetMM,
		}
	}

	if s.Camera.Mode != "" || s.Camera.Live != nil || s.Camera.Default != nil {
		fc := &fileCamera{Mode: s.Camera.Mode}
		if s.Camera.Live != nil {
			p := filePose(*s.Camera.Live)
			fc.Live = &p
		}
		if s.Camera.Default != nil {
			p := filePose(*s.Camera.Default)
			fc.Default = &p
		}
		f.Camera = fc
	}

	if err := toml.NewEncoder(w).Encode(f); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode scene")
	}
	return nil
}

// Marshal encodes s to TOML bytes.
func Marshal(s *Scene) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(s, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Hash returns the hex SHA-256 of the encoded scene. Scenes that encode
// identically hash identically.
func (s *Scene) Hash() (string, error) {
	data, err := Marshal(s)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func encodeNode(n *Node) fileNode {
	pos := geom.Tuple(n.Position)
	rot := [3]float64{geom.Rad2Deg(n.Rotation.X), geom.Rad2Deg(n.Rotation.Y), geom.Rad2Deg(n.Rotation.Z)}
	sc := geom.Tuple(n.Scale)
	fn := fileNode{Name: n.Name, Position: &pos, RotationDeg: &rot, Scale: &sc}
	if n.Mesh != nil {
		fn.Mesh = &fileBounds{Min: geom.Tuple(n.Mesh.Bounds.Min), Max: geom.Tuple(n.Mesh.Bounds.Max)}
	}
	for _, c := range n.Children {
		fn.Children = append(fn.Children, encodeNode(c))
	}
	return fn
}
