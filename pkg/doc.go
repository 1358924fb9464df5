// Package pkg provides the core libraries for gplace analytic placement.
//
// # Overview
//
// gplace spreads the movable objects of a netlist across a fixed region so
// that total wire length is low and no part of the region is overfull. The
// pkg directory is organized into three main areas:
//
//  1. Domain logic - netlist model, bin grid, sparse solver, placement phases
//  2. Infrastructure - caching, observability hooks, execution kernels
//  3. Orchestration - the place facade tying the phases together
//
// # Architecture
//
// The typical data flow through gplace:
//
//	Design file / physical design database
//	         ↓
//	    [netlist] package (objects, nets, region)
//	         ↓
//	    [initial] package (B2B quadratic placement via [sparse])
//	         ↓
//	    [nesterov] package (gradient loop over the [density] grid,
//	                        consulting [route] and [timing] feedback)
//	         ↓
//	    placed coordinates written back
//
// # Quick Start
//
// Build a netlist and run the full flow:
//
//	import (
//	    "context"
//	    "github.com/gplace-dev/gplace/pkg/netlist"
//	    "github.com/gplace-dev/gplace/pkg/place"
//	)
//
//	nl, _ := netlist.New(region, objects, nets)
//	p, _ := place.New(place.Config{}, nl, nil, nil)
//	result, _ := p.Run(context.Background())
//
// # Main Packages
//
// [netlist] - The shared placement model: region, objects, pins, nets, and
// the wirelength metric. Owned by one session at a time.
//
// [density] - The bin grid: area accumulation, per-bin overflow, and the
// spreading force field sampled by the optimizer.
//
// [sparse] - CSR matrices and the BiCGSTAB iterative solver used by the
// initial placement.
//
// [initial] - Bound-to-bound net decomposition and the per-axis quadratic
// solve producing the starting layout.
//
// [nesterov] - The accelerated gradient loop balancing wirelength against
// density, with adaptive penalty and step-length control.
//
// [route] - Routability feedback: turns router congestion estimates into
// object inflation.
//
// [timing] - Timing feedback: boosts critical net weights as overflow
// milestones are reached.
//
// [kernel] - Serial and parallel execution kernels for the per-object and
// per-net loops.
//
// [place] - The session facade: validated configuration, phase sequencing,
// and incremental re-entry.
//
// [cache] - Content-keyed caching for collaborator results (router
// congestion, placement results).
//
// [observability] - Hook registry for step snapshots, phase events, and
// cache metrics.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/nesterov/... # Specific package
//	go test -run Example       # Examples only
//
// [netlist]: https://pkg.go.dev/github.com/gplace-dev/gplace/pkg/netlist
// [density]: https://pkg.go.dev/github.com/gplace-dev/gplace/pkg/density
// [sparse]: https://pkg.go.dev/github.com/gplace-dev/gplace/pkg/sparse
// [initial]: https://pkg.go.dev/github.com/gplace-dev/gplace/pkg/initial
// [nesterov]: https://pkg.go.dev/github.com/gplace-dev/gplace/pkg/nesterov
// [route]: https://pkg.go.dev/github.com/gplace-dev/gplace/pkg/route
// [timing]: https://pkg.go.dev/github.com/gplace-dev/gplace/pkg/timing
// [kernel]: https://pkg.go.dev/github.com/gplace-dev/gplace/pkg/kernel
// [place]: https://pkg.go.dev/github.com/gplace-dev/gplace/pkg/place
// [cache]: https://pkg.go.dev/github.com/gplace-dev/gplace/pkg/cache
// [observability]: https://pkg.go.dev/github.com/gplace-dev/gplace/pkg/observability
package pkg
