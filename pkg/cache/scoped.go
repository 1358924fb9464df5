package cache

// ScopedKeyer wraps a Keyer with a prefix so separate projects or runs can
// share one cache directory without key collisions.
//
// Example usage:
//
//	// design-specific keys
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "chip42:")
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

// CongestionKey generates a prefixed key for congestion estimate caching.
func (k *ScopedKeyer) CongestionKey(layoutHash string, opts CongestionKeyOpts) string {
	return k.prefix + k.inner.CongestionKey(layoutHash, opts)
}

// ResultKey generates a prefixed key for placement result caching.
func (k *ScopedKeyer) ResultKey(netlistHash string, opts ResultKeyOpts) string {
	return k.prefix + k.inner.ResultKey(netlistHash, opts)
}
