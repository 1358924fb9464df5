// Package timing raises the weights of timing-critical nets as placement
// converges.
//
// The external timing engine is a read-only oracle: given the current
// netlist it returns per-net criticality. This package arms one trigger per
// configured overflow threshold; each fires at most once, when the
// optimizer's aggregate overflow first drops through it. Net weights are
// the only netlist field this package writes, and they never exceed the
// configured cap or fall below the floor.
//
// A failing engine skips the interval; repeated failure disables
// timing-driven mode for the rest of the run.
package timing
