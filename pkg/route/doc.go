// Package route feeds global-routing congestion back into placement by
// inflating objects that sit in congested bins.
//
// The external global router is a read-only oracle: it receives the current
// layout and returns per-bin usage and capacity. This package translates
// that estimate into an RC metric (a k1..k4 weighted blend of average and
// worst-bin congestion), derives per-bin inflation ratios, and writes them
// onto movable objects. Inflation is the only netlist field this package
// writes.
//
// Feedback is inert unless routability-driven mode is enabled, and a failed
// or empty router response skips the interval instead of failing the run.
package route
