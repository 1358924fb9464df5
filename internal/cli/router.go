package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/gplace-dev/gplace/pkg/cache"
	"github.com/gplace-dev/gplace/pkg/netlist"
	"github.com/gplace-dev/gplace/pkg/route"
	"github.com/gplace-dev/gplace/pkg/timing"
)

// congestionTTL bounds how long a cached router estimate is reused.
const congestionTTL = 24 * time.Hour

// =============================================================================
// File-Backed Router
// =============================================================================

// congestionFile is the TOML schema for a router congestion dump: per-bin
// usage and capacity in row-major order.
type congestionFile struct {
	NX       int       `toml:"nx"`
	NY       int       `toml:"ny"`
	Usage    []float64 `toml:"usage"`
	Capacity []float64 `toml:"capacity"`
}

// fileRouter serves congestion estimates from a dump produced by an
// external global router. The file is re-read on every call so a long
// optimization can pick up refreshed estimates.
type fileRouter struct {
	path string
}

func (r *fileRouter) EstimateCongestion(ctx context.Context, nl *netlist.Netlist) (*route.Congestion, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cache.ErrCollaborator, err)
	}

	var f congestionFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse congestion: %v", cache.ErrCollaborator, err)
	}
	if f.NX <= 0 || f.NY <= 0 || len(f.Usage) != f.NX*f.NY || len(f.Capacity) != f.NX*f.NY {
		return nil, fmt.Errorf("%w: congestion grid %dx%d does not match %d/%d entries",
			cache.ErrCollaborator, f.NX, f.NY, len(f.Usage), len(f.Capacity))
	}

	return &route.Congestion{NX: f.NX, NY: f.NY, Usage: f.Usage, Capacity: f.Capacity}, nil
}

// =============================================================================
// Caching Router Wrapper
// =============================================================================

// cachedRouter wraps a Router with content-keyed caching and retry. The
// key covers the current layout and grid shape, so a repeated evaluation
// of an unchanged layout skips the router entirely.
type cachedRouter struct {
	inner route.Router
	cache cache.Cache
	keyer cache.Keyer
}

func newCachedRouter(inner route.Router, c cache.Cache, keyer cache.Keyer) *cachedRouter {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &cachedRouter{inner: inner, cache: c, keyer: keyer}
}

func (r *cachedRouter) EstimateCongestion(ctx context.Context, nl *netlist.Netlist) (*route.Congestion, error) {
	key := r.keyer.CongestionKey(layoutHash(nl), cache.CongestionKeyOpts{})

	if data, hit, err := r.cache.Get(ctx, key); err == nil && hit {
		var cong route.Congestion
		if err := json.Unmarshal(data, &cong); err == nil {
			return &cong, nil
		}
		// corrupt entry, fall through to the router
		_ = r.cache.Delete(ctx, key)
	}

	var cong *route.Congestion
	err := cache.RetryWithBackoff(ctx, func() error {
		c, err := r.inner.EstimateCongestion(ctx, nl)
		if err != nil {
			// external routers are flaky; worth retrying
			return cache.Retryable(err)
		}
		cong = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(cong); err == nil {
		_ = r.cache.Set(ctx, key, data, congestionTTL)
	}
	return cong, nil
}

// =============================================================================
// File-Backed Timing Engine
// =============================================================================

// criticalityFile is the TOML schema for a timing engine dump: net indices
// with their criticality in [0, 1].
type criticalityFile struct {
	Nets []struct {
		Index       int     `toml:"index"`
		Criticality float64 `toml:"criticality"`
	} `toml:"nets"`
}

// fileEngine serves critical-net data from a dump produced by an external
// timing engine.
type fileEngine struct {
	path string
}

func (e *fileEngine) CriticalNets(ctx context.Context, nl *netlist.Netlist) (map[int]float64, error) {
	data, err := os.ReadFile(e.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cache.ErrCollaborator, err)
	}

	var f criticalityFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse criticality: %v", cache.ErrCollaborator, err)
	}

	crit := make(map[int]float64, len(f.Nets))
	for _, n := range f.Nets {
		if n.Index < 0 || n.Index >= len(nl.Nets) {
			continue
		}
		crit[n.Index] = n.Criticality
	}
	return crit, nil
}

// interface checks
var (
	_ route.Router  = (*fileRouter)(nil)
	_ route.Router  = (*cachedRouter)(nil)
	_ timing.Engine = (*fileEngine)(nil)
)
