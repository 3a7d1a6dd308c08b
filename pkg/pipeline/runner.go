package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sticky3d/deskgeom/pkg/cache"
	"github.com/sticky3d/deskgeom/pkg/errors"
	"github.com/sticky3d/deskgeom/pkg/observability"
	"github.com/sticky3d/deskgeom/pkg/placement"
	"github.com/sticky3d/deskgeom/pkg/scene"
	"github.com/sticky3d/deskgeom/pkg/store"
)

// Runner wraps [Solve] with result caching and persisted dock offsets.
// Both the CLI and the HTTP API use it.
//
// The Runner keeps no per-scene state of its own; multiple goroutines may
// share one as long as they do not share a scene.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  store.Store
	TTL    time.Duration
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// Dock offsets live in memory until Store is replaced.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Store:  store.NewMemoryStore(),
		TTL:    24 * time.Hour,
		Logger: logger,
	}
}

// Solve loads the scene's stored dock offsets, then returns a cached result
// for identical inputs or runs [Solve] and caches what it produced. On a
// cache hit the cached transforms are applied to s, so s ends up the same
// either way.
func (r *Runner) Solve(ctx context.Context, s *scene.Scene, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	opts.setDefaults()

	if err := r.loadDocks(ctx, s); err != nil {
		return nil, err
	}

	key, err := r.solveKey(s, opts)
	if err != nil {
		return nil, err
	}

	if !opts.Refresh {
		if res, ok := r.cached(ctx, key); ok {
			res.Apply(s)
			opts.Logger.Debug("solve cache hit", "scene", s.ID)
			return res, nil
		}
	}

	res, err := Solve(ctx, s, opts)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(res); err == nil {
		if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
			opts.Logger.Warn("cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, key, len(data))
		}
	}
	return res, nil
}

func (r *Runner) cached(ctx context.Context, key string) (*Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, key)
		return nil, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		// Stale format; recompute.
		observability.Cache().OnCacheMiss(ctx, key)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, key)
	res.CacheHit = true
	return &res, true
}

// solveKey hashes the scene together with every setting that changes a
// solve. Cache, store and server settings are left out.
func (r *Runner) solveKey(s *scene.Scene, opts Options) (string, error) {
	sceneHash, err := s.Hash()
	if err != nil {
		return "", err
	}
	cfg := opts.Config
	data, err := json.Marshal(struct {
		Mount     any  `json:"mount"`
		Camera    any  `json:"camera"`
		Placement any  `json:"placement"`
		Surfaces  any  `json:"surfaces"`
		AutoScale bool `json:"auto_scale"`
	}{cfg.Mount, cfg.Camera, cfg.Placement, cfg.Surfaces, opts.Catalog != nil})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "hash config")
	}
	return r.Keyer.SolveKey(sceneHash, cache.SolveKeyOpts{
		ConfigHash: cache.Hash(data),
		Align:      cfg.Placement.Align,
	}), nil
}

// loadDocks overrides scene dock specs with stored records.
func (r *Runner) loadDocks(ctx context.Context, s *scene.Scene) error {
	records, err := r.Store.List(ctx, s.ID)
	if err != nil {
		return err
	}
	for _, rec := range records {
		o, ok := s.Object(rec.ObjectID)
		if !ok {
			r.Logger.Warn("stored dock for unknown object", "scene", s.ID, "object", rec.ObjectID)
			continue
		}
		d := DockSpec(rec.Offset)
		o.Dock = &d
	}
	return nil
}

// Dock captures the object's current placement as a desk-relative offset
// and stores it. The desk must be measurable.
func (r *Runner) Dock(ctx context.Context, s *scene.Scene, objectID string, opts Options) (placement.DockOffset, error) {
	r.applyLogger(&opts)
	o, ok := s.Object(objectID)
	if !ok {
		return placement.DockOffset{}, errors.New(errors.ErrCodeObjectNotFound, "object %q not found", objectID)
	}
	f, deskYaw, err := DeskFrame(ctx, s, opts)
	if err != nil {
		return placement.DockOffset{}, err
	}
	if f == nil {
		return placement.DockOffset{}, errors.New(errors.ErrCodeSurfaceNotFound, "desk %q cannot be framed", s.Desk)
	}
	off := placement.CaptureOffset(*f, o.Position, o.Rotation.Y, deskYaw)
	if err := r.SetDock(ctx, s, objectID, off); err != nil {
		return placement.DockOffset{}, err
	}
	opts.Logger.Info("docked object", "scene", s.ID, "object", objectID,
		"lateral", off.Lateral, "depth", off.Depth, "lift", off.Lift)
	return off, nil
}

// SetDock stores off for the object and docks it in s.
func (r *Runner) SetDock(ctx context.Context, s *scene.Scene, objectID string, off placement.DockOffset) error {
	o, ok := s.Object(objectID)
	if !ok {
		return errors.New(errors.ErrCodeObjectNotFound, "object %q not found", objectID)
	}
	if err := r.Store.Put(ctx, store.Record{SceneID: s.ID, ObjectID: objectID, Offset: off}); err != nil {
		return err
	}
	d := DockSpec(off)
	o.Dock = &d
	return nil
}

// Undock forgets the object's offset. The object keeps its last transform.
func (r *Runner) Undock(ctx context.Context, s *scene.Scene, objectID string) error {
	o, ok := s.Object(objectID)
	if !ok {
		return errors.New(errors.ErrCodeObjectNotFound, "object %q not found", objectID)
	}
	if err := r.Store.Delete(ctx, s.ID, objectID); err != nil {
		return err
	}
	o.Dock = nil
	r.Logger.Info("undocked object", "scene", s.ID, "object", objectID)
	return nil
}

// Close releases the cache and the store.
func (r *Runner) Close() error {
	var first error
	if r.Cache != nil {
		first = r.Cache.Close()
	}
	if r.Store != nil {
		if err := r.Store.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
