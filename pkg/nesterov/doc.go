// Package nesterov implements the iterative nonlinear placement solver: a
// momentum-accelerated gradient scheme balancing a smooth wirelength model
// against a bin-density penalty.
//
// Each step evaluates the weighted-average (WA) wirelength gradient and an
// electrostatic-style density force at a look-ahead point, commits a
// momentum-extrapolated update, and re-estimates the step length from a
// local Lipschitz bound with a backtracking loop. The density penalty
// adapts between steps: it ratchets up whenever overflow stalls and
// otherwise follows the wirelength trend, clamped to the configured phi
// coefficients.
//
// The optimizer is a state machine: NotStarted -> Running -> one of
// Converged, MaxIterReached, or Diverged. Resume re-enters Running from
// saved state for incremental placement after small netlist perturbations.
// Routability and timing feedback are consulted at a configured iteration
// interval; their effects (inflation, net weights) are picked up by the
// next step's gradient evaluation.
package nesterov
