// Package cache stores solved results keyed by content hashes.
//
// Three backends share the [Cache] interface: [FileCache] for the CLI,
// [RedisCache] for the HTTP server, and [NullCache] when caching is off.
// Keys come from a [Keyer] so the same inputs always map to the same entry.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
// Get reports a miss with ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// SolveKey keys a full pipeline result.
	SolveKey(sceneHash string, opts SolveKeyOpts) string
	// DiagramKey keys a rendered scene diagram.
	DiagramKey(solveHash string, opts DiagramKeyOpts) string
}

// SolveKeyOpts are the inputs besides the scene that change a solve.
type SolveKeyOpts struct {
	ConfigHash string `json:"config"`
	Align      bool   `json:"align"`
}

// DiagramKeyOpts select a diagram rendering.
type DiagramKeyOpts struct {
	Format string `json:"format"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SolveKey returns "solve:" followed by a hash of the inputs.
func (DefaultKeyer) SolveKey(sceneHash string, opts SolveKeyOpts) string {
	return hashKey("solve", sceneHash, opts)
}

// DiagramKey returns "diagram:" followed by a hash of the inputs.
func (DefaultKeyer) DiagramKey(solveHash string, opts DiagramKeyOpts) string {
	return hashKey("diagram", solveHash, opts)
}
