// Package place provides the top-level placement facade.
//
// This package wires the phase packages together: the quadratic initial
// placement, the Nesterov-accelerated global placement loop, and the
// routability and timing feedback phases that run inside it. By centralizing
// the session wiring here, the CLI and library callers share one validated
// configuration surface and one lifecycle.
//
// # Architecture
//
// A session is built from a netlist and a Config:
//
//  1. Initial: solve the B2B quadratic system per axis for a low-wirelength
//     starting layout
//  2. Nesterov: iterate wirelength + density gradients until the overflow
//     target, invoking feedback phases at their configured cadence
//
// Shared session state (netlist positions, bin grid) is owned by the
// session; the router and timing engine are read-only oracles consumed by
// the feedback phases.
//
// # Usage
//
// Create a session and run the full flow:
//
//	p, err := place.New(cfg, nl, router, engine)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := p.Run(ctx)
//
// Run phases individually:
//
//	// initial placement only
//	err := p.RunInitial(ctx)
//
//	// iterative optimization from a given iteration index
//	status, err := p.RunNesterov(ctx, 0)
//
//	// resume after a small netlist perturbation
//	status, err := p.RunIncremental(ctx)
package place
