// Package registry maps surface identifiers to their current frames.
//
// A [Registry] is an explicit object owned by whoever owns the scene; there
// is no package-level instance, so independent scenes (and parallel tests)
// never share state.
//
// Lookups consult registered overrides first and fall back to a static base
// table supplied at construction (typically from configuration). [Registry.Get]
// fails with SURFACE_NOT_FOUND; [Registry.Lookup] never fails and is what
// solvers use for optional surfaces.
//
// Subscribers are notified only when the effective surface for an id changes
// structurally, so re-registering an identical surface is free downstream.
package registry

import (
	"sort"
	"sync"

	"github.com/sticky3d/deskgeom/pkg/errors"
	"github.com/sticky3d/deskgeom/pkg/surface"
)

// Event describes a change to the effective surface of an id.
// Surface is nil when the id no longer resolves.
type Event struct {
	ID      string
	Surface *surface.Surface
}

type entry struct {
	surface surface.Surface
	meta    *surface.Meta
}

// Registry is safe for concurrent use. Subscribers run synchronously on the
// goroutine that made the change, after the registry lock is released.
type Registry struct {
	mu        sync.RWMutex
	base      map[string]surface.Surface
	overrides map[string]entry
	subs      map[int]func(Event)
	nextSub   int
}

// New creates a registry whose fallback table holds base.
func New(base ...surface.Surface) *Registry {
	r := &Registry{
		base:      make(map[string]surface.Surface, len(base)),
		overrides: make(map[string]entry),
		subs:      make(map[int]func(Event)),
	}
	for _, s := range base {
		r.base[s.ID] = s
	}
	return r
}

// Register inserts or replaces the override for s.ID. It reports whether the
// effective surface changed; subscribers are notified only in that case.
// Degenerate surfaces are rejected.
func (r *Registry) Register(s surface.Surface) (bool, error) {
	return r.register(s, nil)
}

// RegisterWithMeta is [Registry.Register] that also stores the extraction
// meta (which carries thickness) for the surface.
func (r *Registry) RegisterWithMeta(s surface.Surface, meta surface.Meta) (bool, error) {
	return r.register(s, &meta)
}

func (r *Registry) register(s surface.Surface, meta *surface.Meta) (bool, error) {
	if err := errors.ValidateID(s.ID); err != nil {
		return false, err
	}
	if err := s.Validate(); err != nil {
		return false, err
	}

	r.mu.Lock()
	before, had := r.lookupLocked(s.ID)
	r.overrides[s.ID] = entry{surface: s, meta: meta}
	changed := !had || !surface.Equal(before, s)
	subs := r.subscribersLocked(changed)
	r.mu.Unlock()

	if changed {
		notify(subs, Event{ID: s.ID, Surface: &s})
	}
	return changed, nil
}

// Unregister removes the override for id. Lookups fall back to the base
// table afterwards. It reports whether an override existed.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	before, had := r.lookupLocked(id)
	if _, ok := r.overrides[id]; !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.overrides, id)
	after, has := r.lookupLocked(id)
	changed := had != has || (has && !surface.Equal(before, after))
	subs := r.subscribersLocked(changed)
	r.mu.Unlock()

	if changed {
		ev := Event{ID: id}
		if has {
			ev.Surface = &after
		}
		notify(subs, ev)
	}
	return true
}

// SetMeta attaches extraction meta to an already registered override.
// It reports false when id has no override.
func (r *Registry) SetMeta(id string, meta surface.Meta) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.overrides[id]
	if !ok {
		return false
	}
	e.meta = &meta
	r.overrides[id] = e
	return true
}

// Get returns the effective surface for id or a SURFACE_NOT_FOUND error.
func (r *Registry) Get(id string) (surface.Surface, error) {
	if s, ok := r.Lookup(id); ok {
		return s, nil
	}
	return surface.Surface{}, errors.New(errors.ErrCodeSurfaceNotFound, "surface %q not registered", id)
}

// Lookup returns the effective surface for id. It never fails.
func (r *Registry) Lookup(id string) (surface.Surface, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(id)
}

// Meta returns the stored extraction meta for id, or meta derived from the
// surface itself (with zero thickness) when none was stored.
func (r *Registry) Meta(id string) (surface.Meta, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.overrides[id]; ok {
		if e.meta != nil {
			return *e.meta, true
		}
		return e.surface.Meta(), true
	}
	if s, ok := r.base[id]; ok {
		return s.Meta(), true
	}
	return surface.Meta{}, false
}

// IDs returns every resolvable id in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool, len(r.base)+len(r.overrides))
	for id := range r.base {
		seen[id] = true
	}
	for id := range r.overrides {
		seen[id] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Subscribe registers fn for change events and returns a function that
// removes it.
func (r *Registry) Subscribe(fn func(Event)) (cancel func()) {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
		})
	}
}

func (r *Registry) lookupLocked(id string) (surface.Surface, bool) {
	if e, ok := r.overrides[id]; ok {
		return e.surface, true
	}
	s, ok := r.base[id]
	return s, ok
}

func (r *Registry) subscribersLocked(changed bool) []func(Event) {
	if !changed || len(r.subs) == 0 {
		return nil
	}
	keys := make([]int, 0, len(r.subs))
	for k := range r.subs {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]func(Event), len(keys))
	for i, k := range keys {
		out[i] = r.subs[k]
	}
	return out
}

func notify(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
