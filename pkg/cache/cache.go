// Package cache provides caching for expensive placement collaborators.
//
// Router congestion estimates and full placement results are both pure
// functions of their inputs, so the CLI caches them keyed by content hash:
// an unchanged netlist and configuration reuse the previous run's data
// instead of re-querying the router or re-placing.
//
// Two backends are provided: FileCache for CLI usage and NullCache for
// disabling caching. Cache operations report hits, misses, and writes
// through the observability hooks.
package cache

import (
	"context"
	"time"
)

// Cache is the storage backend interface.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with an optional TTL; ttl == 0 means no expiry,
	// and any other value fixes the expiration time.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// CongestionKeyOpts are the inputs that distinguish one congestion
// estimate from another for the same layout.
type CongestionKeyOpts struct {
	NX     int  `json:"nx"`
	NY     int  `json:"ny"`
	SkipIO bool `json:"skip_io"`
}

// ResultKeyOpts are the configuration inputs that distinguish one
// placement result from another for the same netlist.
type ResultKeyOpts struct {
	BinsX         int     `json:"bins_x"`
	BinsY         int     `json:"bins_y"`
	TargetDensity float64 `json:"target_density"`
	MaxIter       int     `json:"max_iter"`
}

// Keyer generates cache keys for the placement domain.
type Keyer interface {
	// CongestionKey keys a router congestion estimate by layout hash and
	// grid shape.
	CongestionKey(layoutHash string, opts CongestionKeyOpts) string

	// ResultKey keys a placement result by netlist hash and configuration.
	ResultKey(netlistHash string, opts ResultKeyOpts) string
}

// DefaultKeyer is the standard key scheme: a type prefix plus a SHA-256
// hash over the identifying inputs.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// CongestionKey generates a key for congestion estimate caching.
func (k *DefaultKeyer) CongestionKey(layoutHash string, opts CongestionKeyOpts) string {
	return hashKey("congestion", layoutHash, opts)
}

// ResultKey generates a key for placement result caching.
func (k *DefaultKeyer) ResultKey(netlistHash string, opts ResultKeyOpts) string {
	return hashKey("result", netlistHash, opts)
}
