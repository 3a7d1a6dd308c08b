package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sticky3d/deskgeom/pkg/config"
	"github.com/sticky3d/deskgeom/pkg/errors"
	"github.com/sticky3d/deskgeom/pkg/geom"
	"github.com/sticky3d/deskgeom/pkg/layout"
	"github.com/sticky3d/deskgeom/pkg/mount"
	"github.com/sticky3d/deskgeom/pkg/observability"
	"github.com/sticky3d/deskgeom/pkg/placement"
	"github.com/sticky3d/deskgeom/pkg/props"
	"github.com/sticky3d/deskgeom/pkg/registry"
	"github.com/sticky3d/deskgeom/pkg/scene"
	"github.com/sticky3d/deskgeom/pkg/surface"
	"github.com/sticky3d/deskgeom/pkg/validate"
)

// Solve runs every stage on s without caching. Object transforms and the
// camera state in s are updated in place.
func Solve(ctx context.Context, s *scene.Scene, opts Options) (*Result, error) {
	opts.setDefaults()
	start := time.Now()

	observability.Solver().OnSolveStart(ctx, s.ID, len(s.Objects))
	res, err := solve(ctx, s, opts)
	observability.Solver().OnSolveComplete(ctx, s.ID, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	res.Stats.Duration = time.Since(start)
	opts.Logger.Info("solved scene",
		"scene", s.ID,
		"surfaces", res.Stats.Surfaces,
		"docked", len(res.Docked),
		"issues", len(res.Issues),
		"duration", res.Stats.Duration)
	return res, nil
}

// solver carries one solve's state between stages.
type solver struct {
	ctx    context.Context
	s      *scene.Scene
	cfg    *config.Config
	logger *log.Logger
	reg    *registry.Registry
	docker *placement.Docker
	specs  []surfaceSpec
	res    *Result
}

type surfaceSpec struct {
	scene.SurfaceSpec
	kind surface.Kind
	side surface.Side
}

func solve(ctx context.Context, s *scene.Scene, opts Options) (*Result, error) {
	sv, err := newSolver(ctx, s, opts)
	if err != nil {
		return nil, err
	}
	changes := 0
	cancel := sv.reg.Subscribe(func(registry.Event) { changes++ })
	defer cancel()

	if opts.Catalog != nil {
		sv.rescale(opts.Catalog)
	}
	sv.extract(nil)

	frame, deskYaw := sv.frame()
	moved := make(map[string]bool)
	if frame != nil {
		sv.res.Frame = frame
		sv.dock(*frame, deskYaw, moved)
		sv.placeMonitor(*frame, deskYaw, moved)
	} else {
		sv.logger.Warn("desk not measured yet, skipping placement", "surface", s.Desk)
	}
	if len(moved) > 0 {
		sv.extract(moved)
	}

	if frame != nil {
		sv.camera(*frame)
	}
	if err := sv.mount(); err != nil {
		return nil, err
	}
	sv.validate()

	for _, id := range sv.reg.IDs() {
		if surf, ok := sv.reg.Lookup(id); ok {
			sv.res.Surfaces = append(sv.res.Surfaces, surf)
		}
	}
	for _, o := range s.Objects {
		st := ObjectState{ID: o.ID, Position: o.Position, Rotation: o.Rotation, Scale: o.Scale}
		if o.Bounds != nil {
			b := *o.Bounds
			st.Bounds = &b
		}
		sv.res.Objects = append(sv.res.Objects, st)
	}
	sv.res.Stats.Surfaces = len(sv.res.Surfaces)
	sv.res.Stats.SurfaceChanges = changes
	return sv.res, nil
}

func newSolver(ctx context.Context, s *scene.Scene, opts Options) (*solver, error) {
	opts.setDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	base, err := opts.Config.BaseSurfaces()
	if err != nil {
		return nil, err
	}
	specs := make([]surfaceSpec, 0, len(s.Surfaces))
	for _, sp := range s.Surfaces {
		kind, err := surface.ParseKind(sp.Kind)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "surface %q", sp.ID)
		}
		side, err := surface.ParseSide(sp.Side)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "surface %q", sp.ID)
		}
		specs = append(specs, surfaceSpec{SurfaceSpec: sp, kind: kind, side: side})
	}
	hash, err := s.Hash()
	if err != nil {
		return nil, err
	}
	return &solver{
		ctx:    ctx,
		s:      s,
		cfg:    opts.Config,
		logger: opts.Logger,
		reg:    registry.New(base...),
		docker: opts.Docker,
		specs:  specs,
		res:    &Result{SceneID: s.ID, SceneHash: hash, Issues: []validate.Issue{}},
	}, nil
}

// rescale sizes catalogued props to their real-world size.
func (sv *solver) rescale(c *props.Catalog) {
	for _, o := range sv.s.Objects {
		p, ok := c.Get(o.Prop)
		if !ok || p.Skip {
			continue
		}
		tree, ok := sv.s.Props[o.Prop]
		if !ok {
			continue
		}
		k := p.ScaleFor(tree.LocalBounds())
		o.Scale = geom.Vec([3]float64{k, k, k})
		o.Measure()
		sv.logger.Debug("rescaled prop", "object", o.ID, "prop", o.Prop, "scale", k)
	}
}

// extract registers every surface spec, or only those owned by objects in
// only when it is non-nil. Failures are logged and the surface skipped.
func (sv *solver) extract(only map[string]bool) {
	var skipped []Skipped
	for _, sp := range sv.specs {
		if only != nil && !only[sp.Object] {
			continue
		}
		o, _ := sv.s.Object(sp.Object)
		node := o.Root
		if sp.Node != "" {
			node = o.Root.Find(sp.Node)
		}
		if node == nil {
			err := errors.New(errors.ErrCodeNotFound, "node %q not found in %q", sp.Node, sp.Object)
			skipped = append(skipped, sv.skip(sp, err))
			continue
		}
		surf, meta, dbg, err := surface.Extract(node, sp.ID, sp.kind, sp.side)
		if err != nil {
			skipped = append(skipped, sv.skip(sp, err))
			continue
		}
		surf.ZLift = sp.ZLift
		observability.Solver().OnExtract(sv.ctx, sp.ID, nil)
		changed, err := sv.reg.RegisterWithMeta(surf, meta)
		if err != nil {
			skipped = append(skipped, sv.skip(sp, err))
			continue
		}
		sv.logger.Debug("extracted surface",
			"surface", sp.ID,
			"node", dbg.NodeName,
			"thickness", meta.Extents.Thickness,
			"changed", changed)
	}
	if only == nil {
		sv.res.Skipped = skipped
	} else {
		sv.res.Skipped = append(sv.res.Skipped, skipped...)
	}
}

func (sv *solver) skip(sp surfaceSpec, err error) Skipped {
	observability.Solver().OnExtract(sv.ctx, sp.ID, err)
	sv.logger.Warn("skipping surface", "surface", sp.ID, "node", sp.Node, "err", err)
	return Skipped{ID: sp.ID, Node: sp.Node, Error: err.Error()}
}

// frame returns the desk frame, or nil when the desk surface or desk bounds
// are not available.
func (sv *solver) frame() (*layout.Frame, float64) {
	meta, ok := sv.reg.Meta(sv.s.Desk)
	if !ok {
		return nil, 0
	}
	desk, ok := sv.s.DeskObject()
	if !ok || desk.Bounds == nil {
		return nil, 0
	}
	f, ok := layout.BuildFrame(&meta, desk.Bounds)
	if !ok {
		return nil, 0
	}
	return &f, desk.Rotation.Y
}

func (sv *solver) dock(f layout.Frame, deskYaw float64, moved map[string]bool) {
	desk, _ := sv.s.DeskObject()
	var docks []placement.Docked
	for _, o := range sv.s.Objects {
		if o.Dock == nil || o == desk {
			continue
		}
		docks = append(docks, placement.Docked{ID: o.ID, Offset: DockOffset(*o.Dock)})
	}

	d := sv.docker
	if d == nil {
		d = new(placement.Docker)
	}
	writes := d.Update(f, deskYaw, docks, func(id string, tr placement.Transform) {
		o, _ := sv.s.Object(id)
		if o.Position != tr.Position || o.Rotation != tr.Rotation {
			moved[id] = true
		}
		o.Position, o.Rotation = tr.Position, tr.Rotation
		o.Measure()
		sv.res.Docked = append(sv.res.Docked, Docked{ID: id, Offset: DockOffset(*o.Dock), Transform: tr})
	})
	sv.res.Stats.DockWrites = writes
	if writes > 0 {
		return
	}
	// Nothing changed since the last solve: report the transforms in place.
	sort.Slice(docks, func(i, j int) bool { return docks[i].ID < docks[j].ID })
	for _, dk := range docks {
		o, _ := sv.s.Object(dk.ID)
		tr := placement.Transform{Position: o.Position, Rotation: o.Rotation}
		sv.res.Docked = append(sv.res.Docked, Docked{ID: dk.ID, Offset: dk.Offset, Transform: tr})
	}
}

func (sv *solver) placeMonitor(f layout.Frame, deskYaw float64, moved map[string]bool) {
	if sv.s.Monitor == "" || !sv.cfg.Placement.AutoMonitor {
		return
	}
	o, _ := sv.s.Object(sv.s.Monitor)
	if o.Dock != nil {
		return
	}
	p := sv.cfg.Placement
	var lift float64
	if desk, ok := sv.reg.Lookup(sv.s.Desk); ok {
		lift = desk.Lift()
	}
	next := placement.SolveMonitor(placement.MonitorInput{
		Frame:      &f,
		DeskLift:   lift,
		Bounds:     o.Bounds,
		Position:   o.Position,
		Rotation:   o.Rotation,
		DeskYaw:    deskYaw,
		Clearance:  p.MonitorClearance,
		EdgeMargin: p.EdgeMargin,
		Align:      p.Align,
	})
	if next == nil {
		sv.logger.Debug("monitor not measured yet", "object", o.ID)
		return
	}
	prev := &placement.MonitorPlacement{Position: o.Position, Rotation: o.Rotation}
	chosen := placement.Stabilize(prev, next, p.HysteresisEpsilon)
	sv.res.Monitor = chosen
	if chosen == prev {
		return
	}
	o.Position, o.Rotation = chosen.Position, chosen.Rotation
	o.Measure()
	moved[o.ID] = true
}

func (sv *solver) camera(f layout.Frame) {
	desk, _ := sv.s.DeskObject()
	var boxes []geom.Bounds
	for _, o := range sv.s.Objects {
		if o != desk && o.Bounds != nil {
			boxes = append(boxes, *o.Bounds)
		}
	}
	cam, ok := layout.SolveCamera(f, boxes, sv.cfg.Camera)
	if !ok {
		return
	}
	sv.res.Camera = &cam

	state := cameraState(sv.s.Camera)
	changed, snapped := state.ApplyDefault(cam.Pose, sv.cfg.Camera)
	sv.s.Camera = cameraSpec(state)
	sv.res.View = state
	sv.logger.Debug("camera default", "changed", changed, "snapped", snapped, "dolly", cam.Pose.Dolly)
}

func (sv *solver) mount() error {
	m := sv.s.Mount
	if m == nil {
		return nil
	}
	desk, okD := sv.reg.Lookup(m.DeskSurface)
	mon, okM := sv.reg.Lookup(m.MonitorSurface)
	if !okD || !okM {
		sv.logger.Warn("mount surfaces not available, skipping mount",
			"desk", m.DeskSurface, "monitor", m.MonitorSurface)
		return nil
	}
	cfg := sv.cfg.Mount
	cfg.BaseOffsetMM = m.BaseOffsetMM
	r, err := mount.Generate(desk, mon, mount.Anchor(m.DeskAnchor), mount.Anchor(m.Socket), cfg)
	if err != nil {
		return errors.Wrap(errors.GetCode(err), err, "mount")
	}
	observability.Solver().OnMountVerify(sv.ctx, r.Summary.OK(), r.Summary.Adjusted.BaseRaiseMM)
	if !r.Summary.OK() {
		sv.logger.Warn("mount verification failed", "fail", r.Summary.Fail, "failures", len(r.Summary.Failures))
	}
	sv.res.Mount = &r
	return nil
}

func (sv *solver) validate() {
	in := validate.Input{MonitorID: sv.s.Monitor, Objects: make(map[string]geom.Bounds)}
	if desk, ok := sv.reg.Lookup(sv.s.Desk); ok {
		if desk.Kind.Supports() {
			in.Desk = &desk
		} else {
			sv.logger.Warn("desk surface cannot support objects, skipping clearance checks",
				"surface", desk.ID, "kind", desk.Kind)
		}
	}
	deskObj, _ := sv.s.DeskObject()
	for _, o := range sv.s.Objects {
		if o == deskObj || o.Bounds == nil {
			continue
		}
		if o.ID == sv.s.Monitor {
			b := *o.Bounds
			in.Monitor = &b
			continue
		}
		in.Objects[o.ID] = *o.Bounds
	}
	if sv.res.Mount != nil {
		in.Mount = &sv.res.Mount.Summary
	}
	sv.res.Issues = append(sv.res.Issues, validate.Run(in, sv.cfg.ValidateConfig())...)
}

// DeskFrame extracts the desk surface of s and returns its layout frame.
// It returns nil without error when the desk cannot be framed yet.
func DeskFrame(ctx context.Context, s *scene.Scene, opts Options) (*layout.Frame, float64, error) {
	sv, err := newSolver(ctx, s, opts)
	if err != nil {
		return nil, 0, err
	}
	sv.extract(nil)
	f, yaw := sv.frame()
	return f, yaw, nil
}

// DockOffset converts a stored dock spec, whose yaw is in degrees.
func DockOffset(d scene.DockSpec) placement.DockOffset {
	return placement.DockOffset{Lateral: d.Lateral, Depth: d.Depth, Lift: d.Lift, Yaw: geom.Deg2Rad(d.YawDeg)}
}

// DockSpec is the inverse of [DockOffset].
func DockSpec(o placement.DockOffset) scene.DockSpec {
	return scene.DockSpec{Lateral: o.Lateral, Depth: o.Depth, Lift: o.Lift, YawDeg: geom.NormalizeDegrees(geom.Rad2Deg(o.Yaw))}
}

func cameraState(c scene.CameraSpec) layout.CameraState {
	st := layout.CameraState{Mode: c.Mode}
	if st.Mode == "" {
		st.Mode = layout.ModeDesk
	}
	if c.Live != nil {
		p := layout.Pose(*c.Live)
		st.Live = &p
	}
	if c.Default != nil {
		p := layout.Pose(*c.Default)
		st.Default = &p
	}
	return st
}

func cameraSpec(st layout.CameraState) scene.CameraSpec {
	c := scene.CameraSpec{Mode: st.Mode}
	if st.Live != nil {
		p := scene.PoseSpec(*st.Live)
		c.Live = &p
	}
	if st.Default != nil {
		p := scene.PoseSpec(*st.Default)
		c.Default = &p
	}
	return c
}
