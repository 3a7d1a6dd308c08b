package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/sticky3d/deskgeom/pkg/errors"
)

// FileStore keeps records in a single JSON file. Every mutation rewrites
// the file through a temporary file and rename.
type FileStore struct {
	path string
	mu   sync.Mutex
	mem  *MemoryStore
}

// OpenFileStore loads path if it exists.
func OpenFileStore(path string) (*FileStore, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	s := &FileStore{path: path, mem: NewMemoryStore()}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", path)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", path)
	}
	for _, r := range records {
		if err := s.mem.Put(context.Background(), r); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *FileStore) Put(ctx context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mem.Put(ctx, r); err != nil {
		return err
	}
	return s.flush()
}

func (s *FileStore) Get(ctx context.Context, sceneID, objectID string) (Record, error) {
	return s.mem.Get(ctx, sceneID, objectID)
}

func (s *FileStore) List(ctx context.Context, sceneID string) ([]Record, error) {
	return s.mem.List(ctx, sceneID)
}

func (s *FileStore) Delete(ctx context.Context, sceneID, objectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.mem.Get(ctx, sceneID, objectID); err != nil {
		return nil
	}
	if err := s.mem.Delete(ctx, sceneID, objectID); err != nil {
		return err
	}
	return s.flush()
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) flush() error {
	data, err := json.MarshalIndent(s.mem.all(), "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode dock records")
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".docks-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", s.path)
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmp.Name())
		return errors.New(errors.ErrCodeInternal, "write %s: %v", s.path, firstErr(werr, cerr))
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", s.path)
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

var _ Store = (*FileStore)(nil)
