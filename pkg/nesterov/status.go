package nesterov

// Status is the optimizer lifecycle state.
type Status int

const (
	// NotStarted: Run has not been called.
	NotStarted Status = iota
	// Running: between steps of an active session.
	Running
	// Converged: aggregate overflow reached the target.
	Converged
	// MaxIterReached: the iteration cap expired before convergence; the
	// best-effort layout is kept.
	MaxIterReached
	// Diverged: a NaN or Inf slipped into the gradients or step length and
	// the last finite layout was kept.
	Diverged
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Converged:
		return "converged"
	case MaxIterReached:
		return "max iterations reached"
	case Diverged:
		return "diverged"
	default:
		return "unknown"
	}
}

// Done reports whether the optimizer reached a terminal state.
func (s Status) Done() bool {
	return s == Converged || s == MaxIterReached || s == Diverged
}
