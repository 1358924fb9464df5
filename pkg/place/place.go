package place

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gplace-dev/gplace/pkg/density"
	"github.com/gplace-dev/gplace/pkg/initial"
	"github.com/gplace-dev/gplace/pkg/kernel"
	"github.com/gplace-dev/gplace/pkg/nesterov"
	"github.com/gplace-dev/gplace/pkg/netlist"
	"github.com/gplace-dev/gplace/pkg/observability"
	"github.com/gplace-dev/gplace/pkg/route"
	"github.com/gplace-dev/gplace/pkg/timing"
)

// Placer drives one placement session over a shared netlist. The session
// owns object positions for its lifetime; the router and timing engine are
// consulted by the feedback phases and never mutate placer state.
//
// A Placer is not safe for concurrent use. Run one session per netlist at
// a time; Reset starts a fresh session over the same netlist.
type Placer struct {
	cfg    Config
	nl     *netlist.Netlist
	router route.Router
	engine timing.Engine
	logger *log.Logger

	sessionID string
	grid      *density.Grid
	krn       kernel.Kernel
	opt       *nesterov.Optimizer
}

// Result contains the outputs of a full session run.
type Result struct {
	// SessionID identifies the run in logs and observability snapshots.
	SessionID string

	// HPWL is the weighted half-perimeter wirelength of the final layout.
	HPWL float64

	// Overflow is the area-weighted aggregate bin overflow of the final
	// layout.
	Overflow float64

	// Status is the optimizer's terminal state.
	Status nesterov.Status

	// Iterations is the number of completed optimizer iterations.
	Iterations int

	// Stats contains phase timings.
	Stats Stats
}

// Stats contains session timing information.
type Stats struct {
	InitialTime  time.Duration
	NesterovTime time.Duration
}

// New creates a placement session. router and engine may be nil when the
// corresponding feedback mode is disabled.
func New(cfg Config, nl *netlist.Netlist, router route.Router, engine timing.Engine) (*Placer, error) {
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Routability.Enabled && router == nil {
		return nil, fmt.Errorf("invalid config: routability driven mode requires a router")
	}
	if cfg.Timing.Enabled && engine == nil {
		return nil, fmt.Errorf("invalid config: timing driven mode requires a timing engine")
	}

	p := &Placer{
		cfg:    cfg,
		nl:     nl,
		router: router,
		engine: engine,
		logger: cfg.Logger,
	}
	if err := p.buildSession(); err != nil {
		return nil, err
	}
	return p, nil
}

// buildSession allocates the per-session state: grid, kernel, feedback
// phases, optimizer, and a fresh session ID.
func (p *Placer) buildSession() error {
	nx, ny := p.cfg.BinsX, p.cfg.BinsY
	if nx == 0 {
		nx = autoBinCount(p.nl.NumMovable())
	}
	if ny == 0 {
		ny = autoBinCount(p.nl.NumMovable())
	}

	grid, err := density.NewGrid(p.nl.Region, nx, ny, p.cfg.TargetDensity)
	if err != nil {
		return fmt.Errorf("bin grid: %w", err)
	}
	grid.SetPadding(p.cfg.PadLeft, p.cfg.PadRight)

	p.sessionID = uuid.NewString()
	p.grid = grid
	p.krn = kernel.Select(p.cfg.ForceSerial)

	rb := route.New(p.cfg.Routability, p.router, p.logger)
	tb := timing.New(p.cfg.Timing, p.engine, p.logger)
	p.opt = nesterov.New(p.cfg.Nesterov, p.nl, grid, rb, tb, p.krn, p.logger, p.sessionID)

	p.logger.Debug("placement session created",
		"session", p.sessionID,
		"bins", fmt.Sprintf("%dx%d", nx, ny),
		"movable", p.nl.NumMovable())
	return nil
}

// Reset discards all session state (optimizer momentum, feedback budgets,
// bin occupancy) and starts a fresh session over the same netlist. Object
// positions are kept; they belong to the netlist, not the session.
func (p *Placer) Reset() error {
	return p.buildSession()
}

// SessionID returns the identifier of the current session.
func (p *Placer) SessionID() string { return p.sessionID }

// Grid exposes the session's bin grid for read-only inspection.
func (p *Placer) Grid() *density.Grid { return p.grid }

// RunInitial runs the quadratic initial placement, writing positions into
// the netlist.
func (p *Placer) RunInitial(ctx context.Context) error {
	start := time.Now()
	observability.Placement().OnInitialStart(ctx, p.sessionID, p.nl.NumMovable())

	err := initial.New(p.cfg.Initial, p.nl, p.logger).Run(ctx)

	observability.Placement().OnInitialComplete(ctx, p.sessionID, p.nl.HPWL(), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("initial placement: %w", err)
	}
	return nil
}

// RunNesterov runs the iterative optimizer from startIter until a terminal
// state or context cancellation.
func (p *Placer) RunNesterov(ctx context.Context, startIter int) (nesterov.Status, error) {
	status, err := p.opt.Run(ctx, startIter)
	if err != nil {
		return status, fmt.Errorf("nesterov placement: %w", err)
	}
	return status, nil
}

// RunIncremental resumes the optimizer from its last saved state instead
// of reinitializing, for small netlist perturbations made between runs.
func (p *Placer) RunIncremental(ctx context.Context) (nesterov.Status, error) {
	status, err := p.opt.Resume(ctx)
	if err != nil {
		return status, fmt.Errorf("incremental placement: %w", err)
	}
	return status, nil
}

// Run executes the complete initial → nesterov flow and reports the final
// layout metrics.
func (p *Placer) Run(ctx context.Context) (*Result, error) {
	result := &Result{SessionID: p.sessionID}

	initStart := time.Now()
	if err := p.RunInitial(ctx); err != nil {
		return nil, err
	}
	result.Stats.InitialTime = time.Since(initStart)

	p.logger.Info("initial placement complete",
		"hpwl", p.nl.HPWL(),
		"duration", result.Stats.InitialTime)

	nesterovStart := time.Now()
	status, err := p.RunNesterov(ctx, 0)
	if err != nil {
		return nil, err
	}
	result.Stats.NesterovTime = time.Since(nesterovStart)

	result.Status = status
	result.Iterations = p.opt.Iter()
	result.HPWL = p.opt.HPWL()
	result.Overflow = p.opt.Overflow()

	p.logger.Info("global placement complete",
		"status", status.String(),
		"iterations", result.Iterations,
		"hpwl", result.HPWL,
		"overflow", result.Overflow,
		"duration", result.Stats.NesterovTime)
	return result, nil
}
