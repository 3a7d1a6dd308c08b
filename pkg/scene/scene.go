package scene

import (
	"github.com/sticky3d/deskgeom/pkg/errors"
)

// SurfaceSpec names a sub-node of an object's prop tree to extract as a
// surface. Kind and Side are parsed by package surface.
type SurfaceSpec struct {
	ID     string
	Object string
	Node   string
	Kind   string
	Side   string
	// ZLift raises the plane objects rest on, in metres.
	ZLift *float64
}

// Anchor is a surface-relative point: (U, V) in [0,1]² plus a lift along the
// surface normal in metres.
type Anchor struct {
	U, V, Lift float64
}

// MountSpec asks for a stand between two surfaces.
type MountSpec struct {
	DeskSurface    string
	MonitorSurface string
	DeskAnchor     Anchor
	Socket         Anchor
	BaseOffsetMM   float64
}

// CameraSpec is the persisted camera state. Live and Default are nil when
// never set.
type CameraSpec struct {
	Mode    string
	Live    *PoseSpec
	Default *PoseSpec
}

// PoseSpec is an orbit pose; angles in radians, dolly in metres.
type PoseSpec struct {
	Yaw, Pitch, Dolly float64
}

// Scene is a complete solver input.
type Scene struct {
	ID       string
	Desk     string // surface id of the desk top
	Monitor  string // object id placed by the monitor solver, optional
	Props    map[string]*Node
	Objects  []*Object
	Surfaces []SurfaceSpec
	Mount    *MountSpec
	Camera   CameraSpec

	index map[string]*Object
}

// New returns an empty scene.
func New(id string) *Scene {
	return &Scene{ID: id, Props: make(map[string]*Node), index: make(map[string]*Object)}
}

// AddObject appends o, instantiating its prop tree when the prop is known.
func (s *Scene) AddObject(o *Object) error {
	if err := errors.ValidateID(o.ID); err != nil {
		return err
	}
	if _, dup := s.index[o.ID]; dup {
		return errors.New(errors.ErrCodeInvalidScene, "duplicate object id %q", o.ID)
	}
	if o.Prop != "" {
		if tree, ok := s.Props[o.Prop]; ok {
			o.Instantiate(tree)
		}
	}
	s.Objects = append(s.Objects, o)
	s.index[o.ID] = o
	return nil
}

// Object returns the object with the given id.
func (s *Scene) Object(id string) (*Object, bool) {
	o, ok := s.index[id]
	return o, ok
}

// DeskObject returns the object that owns the desk surface, if any.
func (s *Scene) DeskObject() (*Object, bool) {
	for _, sp := range s.Surfaces {
		if sp.ID == s.Desk {
			return s.Object(sp.Object)
		}
	}
	return nil, false
}

// Validate checks cross references between surfaces, objects and the mount.
func (s *Scene) Validate() error {
	if s.Desk == "" {
		return errors.New(errors.ErrCodeInvalidScene, "scene %q has no desk surface", s.ID)
	}
	known := make(map[string]bool, len(s.Surfaces))
	for _, sp := range s.Surfaces {
		if err := errors.ValidateID(sp.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidScene, err, "surface")
		}
		if known[sp.ID] {
			return errors.New(errors.ErrCodeInvalidScene, "duplicate surface id %q", sp.ID)
		}
		known[sp.ID] = true
		o, ok := s.Object(sp.Object)
		if !ok {
			return errors.New(errors.ErrCodeObjectNotFound, "surface %q references unknown object %q", sp.ID, sp.Object)
		}
		if o.Root == nil {
			return errors.New(errors.ErrCodeInvalidScene, "surface %q: object %q has no prop geometry", sp.ID, sp.Object)
		}
	}
	if s.Monitor != "" {
		if _, ok := s.Object(s.Monitor); !ok {
			return errors.New(errors.ErrCodeObjectNotFound, "monitor object %q not found", s.Monitor)
		}
	}
	return nil
}
