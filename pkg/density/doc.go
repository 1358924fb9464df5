// Package density models the placement region as a uniform bin grid and
// measures how crowded each bin is.
//
// The grid is sized once from configured counts and never resized mid-run.
// Each optimizer step calls [Grid.Accumulate] to redistribute object area
// into bins (split proportionally across the bins an object overlaps), then
// reads per-bin overflow and the overflow gradient that drives the density
// force.
//
// Overflow is max(0, occupied density - target density); it is never
// negative. The global convergence metric is the area-weighted aggregate
// [Grid.SumOverflow], matching the ratio of overflowing area to movable
// area.
package density
