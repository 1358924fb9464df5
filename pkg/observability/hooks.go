// Package observability provides hooks for instrumenting placement runs.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers can register
// hooks at startup to receive events about placement phases, optimizer
// steps, and cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Step hooks receive read-only [Snapshot] values taken at step boundaries,
// which is also how debug observers plug in: the engine never exposes live
// session state to callbacks.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPlacementHooks(&myPlacementHooks{})
//	    // ... run placement
//	}
//
// The engine calls hooks as it works:
//
//	observability.Placement().OnStepComplete(ctx, snapshot)
package observability

import (
	"context"
	"sync"
	"time"
)

// Snapshot is a read-only view of optimizer state at a step boundary.
type Snapshot struct {
	// SessionID identifies the placement session emitting the event.
	SessionID string
	// Iter is the completed iteration index.
	Iter int
	// HPWL is the weighted half-perimeter wire length after the step.
	HPWL float64
	// Overflow is the area-weighted aggregate overflow after the step.
	Overflow float64
	// DensityPenalty is the current density penalty factor.
	DensityPenalty float64
	// StepLength is the step length used by the committed update.
	StepLength float64
}

// =============================================================================
// Placement Hooks
// =============================================================================

// PlacementHooks receives events from the placement engine.
type PlacementHooks interface {
	// Phase events
	OnInitialStart(ctx context.Context, sessionID string, numMovable int)
	OnInitialComplete(ctx context.Context, sessionID string, hpwl float64, duration time.Duration, err error)
	OnNesterovStart(ctx context.Context, sessionID string, startIter int)
	OnNesterovComplete(ctx context.Context, sessionID string, status string, iters int, duration time.Duration)

	// Step events
	OnStepComplete(ctx context.Context, snap Snapshot)

	// Feedback events. kind is "routability" or "timing"; applied reports
	// whether the feedback changed any inflation or net weight.
	OnFeedback(ctx context.Context, sessionID, kind string, applied bool)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPlacementHooks is a no-op implementation of PlacementHooks.
type NoopPlacementHooks struct{}

func (NoopPlacementHooks) OnInitialStart(context.Context, string, int) {}
func (NoopPlacementHooks) OnInitialComplete(context.Context, string, float64, time.Duration, error) {
}
func (NoopPlacementHooks) OnNesterovStart(context.Context, string, int) {}
func (NoopPlacementHooks) OnNesterovComplete(context.Context, string, string, int, time.Duration) {
}
func (NoopPlacementHooks) OnStepComplete(context.Context, Snapshot)         {}
func (NoopPlacementHooks) OnFeedback(context.Context, string, string, bool) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	placementHooks PlacementHooks = NoopPlacementHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	hooksMu        sync.RWMutex
)

// SetPlacementHooks registers custom placement hooks.
// This should be called once at application startup before any placement runs.
func SetPlacementHooks(h PlacementHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		placementHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Placement returns the registered placement hooks.
func Placement() PlacementHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return placementHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	placementHooks = NoopPlacementHooks{}
	cacheHooks = NoopCacheHooks{}
}
