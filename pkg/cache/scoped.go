package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one Redis database without colliding.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "revdeps:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// TreeKey generates a prefixed key for a dependent tree.
func (k *ScopedKeyer) TreeKey(snapshotHash, root string, opts TreeKeyOpts) string {
	return k.prefix + k.inner.TreeKey(snapshotHash, root, opts)
}

// CompatKey generates a prefixed key for compatibility findings.
func (k *ScopedKeyer) CompatKey(snapshotHash, root string) string {
	return k.prefix + k.inner.CompatKey(snapshotHash, root)
}
