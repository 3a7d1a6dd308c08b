package cache

// ScopedKeyer prefixes every key of an inner Keyer. The HTTP server uses it
// so entries it writes to a shared Redis never collide with CLI entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "api:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner uses
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SolveKey returns the prefixed solve key.
func (k *ScopedKeyer) SolveKey(sceneHash string, opts SolveKeyOpts) string {
	return k.prefix + k.inner.SolveKey(sceneHash, opts)
}

// DiagramKey returns the prefixed diagram key.
func (k *ScopedKeyer) DiagramKey(solveHash string, opts DiagramKeyOpts) string {
	return k.prefix + k.inner.DiagramKey(solveHash, opts)
}
