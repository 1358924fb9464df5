// Package initial computes a low-wirelength starting layout by solving one
// sparse linear system per axis.
//
// Each net is decomposed with the bound-to-bound (B2B) model: the extreme
// pins along an axis are connected to every other pin by spring edges whose
// weight falls off with pin distance, floored at a configured minimum so
// coincident pins cannot produce singular weights. Nets above the fanout
// cap keep only a bounded, deterministic subset of edges.
//
// The per-axis systems are solved with BiCGSTAB ([sparse.BiCGSTAB]); the
// build-solve cycle repeats for a configured number of outer iterations,
// re-centering fixed terms each time. Solver non-convergence is a logged
// diagnostic, never an error: the best iterate is used.
package initial
