// Package store persists dock offsets between sessions.
//
// A dock offset lives from the moment an object is docked until it is
// undocked. While docked, the offset is the only authority on where the
// object goes; its absolute transform is recomputed from the desk frame.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sticky3d/deskgeom/pkg/errors"
	"github.com/sticky3d/deskgeom/pkg/placement"
)

// Record is one docked object.
type Record struct {
	SceneID   string               `json:"scene_id" bson:"scene_id"`
	ObjectID  string               `json:"object_id" bson:"object_id"`
	Offset    placement.DockOffset `json:"offset" bson:"offset"`
	UpdatedAt time.Time            `json:"updated_at" bson:"updated_at"`
}

// Store holds dock records.
type Store interface {
	// Put inserts or replaces the record for (SceneID, ObjectID).
	Put(ctx context.Context, r Record) error
	// Get returns NOT_FOUND when the object is not docked.
	Get(ctx context.Context, sceneID, objectID string) (Record, error)
	// List returns the scene's records ordered by object id.
	List(ctx context.Context, sceneID string) ([]Record, error)
	// Delete undocks an object. Deleting a missing record is not an error.
	Delete(ctx context.Context, sceneID, objectID string) error
	Close() error
}

func validateKey(sceneID, objectID string) error {
	if err := errors.ValidateID(sceneID); err != nil {
		return err
	}
	return errors.ValidateID(objectID)
}

func notFound(sceneID, objectID string) error {
	return errors.New(errors.ErrCodeNotFound, "object %q in scene %q is not docked", objectID, sceneID)
}

type key struct{ scene, object string }

// MemoryStore keeps records in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[key]Record
	now     func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[key]Record), now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, r Record) error {
	if err := validateKey(r.SceneID, r.ObjectID); err != nil {
		return err
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = s.now().UTC()
	}
	s.mu.Lock()
	s.records[key{r.SceneID, r.ObjectID}] = r
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sceneID, objectID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[key{sceneID, objectID}]
	if !ok {
		return Record{}, notFound(sceneID, objectID)
	}
	return r, nil
}

func (s *MemoryStore) List(_ context.Context, sceneID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for k, r := range s.records {
		if k.scene == sceneID {
			out = append(out, r)
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, sceneID, objectID string) error {
	s.mu.Lock()
	delete(s.records, key{sceneID, objectID})
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) all() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SceneID != out[j].SceneID {
			return out[i].SceneID < out[j].SceneID
		}
		return out[i].ObjectID < out[j].ObjectID
	})
	return out
}

func sortRecords(rs []Record) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].ObjectID < rs[j].ObjectID })
}

var _ Store = (*MemoryStore)(nil)

// Options selects a backend for [Open].
type Options struct {
	Backend string // "memory", "file" or "mongo"
	Path    string
	Mongo   MongoOptions
}

// Open creates the configured store.
func Open(ctx context.Context, o Options) (Store, error) {
	switch o.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file":
		return OpenFileStore(o.Path)
	case "mongo":
		return OpenMongoStore(ctx, o.Mongo)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", o.Backend)
	}
}
