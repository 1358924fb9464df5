package nesterov

import (
	"context"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/floats"

	"github.com/gplace-dev/gplace/pkg/density"
	"github.com/gplace-dev/gplace/pkg/kernel"
	"github.com/gplace-dev/gplace/pkg/netlist"
	"github.com/gplace-dev/gplace/pkg/observability"
	"github.com/gplace-dev/gplace/pkg/route"
	"github.com/gplace-dev/gplace/pkg/timing"
)

// Config holds the optimizer knobs. Zero values take the defaults below.
type Config struct {
	// MaxIter caps optimizer iterations.
	MaxIter int
	// MaxBackTrack caps the step-length backtracking loop inside one step.
	MaxBackTrack int
	// TargetOverflow is the aggregate overflow at which the run converges.
	TargetOverflow float64
	// InitDensityPenalty seeds the density penalty factor, scaled by the
	// initial wirelength/density gradient ratio.
	InitDensityPenalty float64
	// InitWireLengthCoef scales the base WA wirelength coefficient.
	InitWireLengthCoef float64
	// MinPhiCoef and MaxPhiCoef clamp the per-step density penalty
	// multiplier.
	MinPhiCoef float64
	MaxPhiCoef float64
	// ReferenceHPWL normalizes the wirelength delta that drives the phi
	// coefficient.
	ReferenceHPWL float64
	// InitialPrevCoordiUpdateCoef scales the synthetic previous point used
	// to seed the Lipschitz step estimate.
	InitialPrevCoordiUpdateCoef float64
	// FeedbackInterval is the step cadence at which routability and timing
	// feedback are consulted.
	FeedbackInterval int
}

func (c *Config) setDefaults() {
	if c.MaxIter <= 0 {
		c.MaxIter = 1000
	}
	if c.MaxBackTrack <= 0 {
		c.MaxBackTrack = 10
	}
	if c.TargetOverflow <= 0 {
		c.TargetOverflow = 0.1
	}
	if c.InitDensityPenalty <= 0 {
		c.InitDensityPenalty = 8e-5
	}
	if c.InitWireLengthCoef <= 0 {
		c.InitWireLengthCoef = 0.25
	}
	if c.MinPhiCoef <= 0 {
		c.MinPhiCoef = 0.95
	}
	if c.MaxPhiCoef <= 0 {
		c.MaxPhiCoef = 1.05
	}
	if c.ReferenceHPWL <= 0 {
		c.ReferenceHPWL = 446000000
	}
	if c.InitialPrevCoordiUpdateCoef <= 0 {
		c.InitialPrevCoordiUpdateCoef = 100
	}
	if c.FeedbackInterval <= 0 {
		c.FeedbackInterval = 10
	}
}

type pinRef struct {
	net int
	pin netlist.Pin
}

// Optimizer is the Nesterov-accelerated placement solver. It owns object
// positions for the duration of a session; routability feedback writes
// inflation and timing feedback writes net weights, each through their own
// Evaluate calls made from inside the step loop.
type Optimizer struct {
	cfg       Config
	nl        *netlist.Netlist
	grid      *density.Grid
	rb        *route.Feedback
	tb        *timing.Feedback
	krn       kernel.Kernel
	logger    *log.Logger
	sessionID string

	objPins [][]pinRef
	netWA   []waNet

	// look-ahead (SLP) points and their gradients
	curSLP, prevSLP, nextSLP field
	curGrad, nextGrad        field
	// true positions
	curCoordi, nextCoordi field
	// gradient scratch
	wlTmp, denTmp field

	ak             float64
	stepLength     float64
	densityPenalty float64
	baseWlCoef     float64
	wlCoef         float64

	overflow float64
	hpwl     float64
	prevHpwl float64

	// best overflow seen so far and the wirelength at that point, for the
	// late-run blow-up check
	minOverflow       float64
	hpwlAtMinOverflow float64

	iter   int
	status Status
}

// New creates an optimizer over a shared session: the netlist and grid are
// owned by the caller and shared with the feedback phases. rb and tb may be
// nil when the corresponding mode is off.
func New(cfg Config, nl *netlist.Netlist, grid *density.Grid, rb *route.Feedback, tb *timing.Feedback, krn kernel.Kernel, logger *log.Logger, sessionID string) *Optimizer {
	cfg.setDefaults()
	if logger == nil {
		logger = log.Default()
	}
	if krn == nil {
		krn = kernel.Serial{}
	}

	o := &Optimizer{
		cfg:       cfg,
		nl:        nl,
		grid:      grid,
		rb:        rb,
		tb:        tb,
		krn:       krn,
		logger:    logger,
		sessionID: sessionID,
		objPins:   make([][]pinRef, len(nl.Objects)),
		netWA:     make([]waNet, len(nl.Nets)),
		status:    NotStarted,
	}
	for ni := range nl.Nets {
		for _, p := range nl.Nets[ni].Pins {
			o.objPins[p.Object] = append(o.objPins[p.Object], pinRef{net: ni, pin: p})
		}
	}
	return o
}

// Status returns the optimizer lifecycle state.
func (o *Optimizer) Status() Status { return o.status }

// Iter returns the number of completed iterations.
func (o *Optimizer) Iter() int { return o.iter }

// Overflow returns the aggregate overflow after the last completed step.
func (o *Optimizer) Overflow() float64 { return o.overflow }

// HPWL returns the wirelength after the last completed step.
func (o *Optimizer) HPWL() float64 { return o.hpwl }

// DensityPenalty returns the current density penalty factor.
func (o *Optimizer) DensityPenalty() float64 { return o.densityPenalty }

// Run drives the optimizer from startIter until convergence, the iteration
// cap, divergence, or context cancellation (checked at step boundaries
// only, the single supported cancellation point).
func (o *Optimizer) Run(ctx context.Context, startIter int) (Status, error) {
	start := time.Now()
	observability.Placement().OnNesterovStart(ctx, o.sessionID, startIter)

	if o.status == NotStarted {
		o.init()
	}
	o.status = Running
	if startIter > o.iter {
		o.iter = startIter
	}

	for o.iter < o.cfg.MaxIter {
		if err := ctx.Err(); err != nil {
			return o.status, err
		}
		o.step(ctx)
		if o.status.Done() {
			break
		}
	}
	if o.status == Running {
		o.status = MaxIterReached
		o.logger.Warn("nesterov hit iteration cap", "iter", o.iter, "overflow", o.overflow)
	}

	observability.Placement().OnNesterovComplete(ctx, o.sessionID, o.status.String(), o.iter, time.Since(start))
	o.logger.Info("nesterov finished",
		"status", o.status.String(), "iter", o.iter, "hpwl", o.hpwl, "overflow", o.overflow)
	return o.status, nil
}

// Resume re-enters the step loop from saved momentum state instead of
// reinitializing, for incremental placement after small perturbations.
// The netlist is the source of truth for positions: anything moved
// between runs is folded back into the saved state before stepping.
func (o *Optimizer) Resume(ctx context.Context) (Status, error) {
	if o.status == NotStarted {
		return o.Run(ctx, 0)
	}

	o.nl.ClampToRegion()
	o.nl.Positions(o.curCoordi.X, o.curCoordi.Y)
	o.curSLP.copyFrom(o.curCoordi)
	o.grid.Accumulate(o.nl)
	o.overflow = o.grid.SumOverflow()
	o.hpwl = o.nl.HPWL()
	o.prevHpwl = o.hpwl
	o.minOverflow = math.Inf(1)
	o.hpwlAtMinOverflow = o.hpwl
	o.wirelengthGrad(o.wlTmp, o.wlCoef)
	o.densityGrad(o.denTmp)
	o.combineGrad(o.curGrad)

	o.status = Running
	return o.Run(ctx, o.iter)
}

// init seeds the momentum state: evaluates the gradient at the starting
// layout, balances the density penalty against the wirelength force, and
// estimates the first step length from a synthetic previous point.
func (o *Optimizer) init() {
	n := o.nl.NumMovable()
	o.curSLP = newField(n)
	o.prevSLP = newField(n)
	o.nextSLP = newField(n)
	o.curCoordi = newField(n)
	o.nextCoordi = newField(n)
	o.curGrad = newField(n)
	o.nextGrad = newField(n)
	o.wlTmp = newField(n)
	o.denTmp = newField(n)

	o.nl.ClampToRegion()
	o.nl.Positions(o.curSLP.X, o.curSLP.Y)
	o.curCoordi.copyFrom(o.curSLP)

	o.grid.Accumulate(o.nl)
	o.overflow = o.grid.SumOverflow()

	o.baseWlCoef = o.cfg.InitWireLengthCoef / (0.5 * (o.grid.BinW() + o.grid.BinH()))
	o.wlCoef = o.baseWlCoef * wlFactor(o.overflow)

	// balance the density penalty against the wirelength force
	o.wirelengthGrad(o.wlTmp, o.wlCoef)
	o.densityGrad(o.denTmp)
	o.densityPenalty = o.cfg.InitDensityPenalty
	if denSum := gradSumAbs(o.denTmp); denSum > 0 {
		o.densityPenalty = o.cfg.InitDensityPenalty * gradSumAbs(o.wlTmp) / denSum
	}
	o.combineGrad(o.curGrad)

	// synthetic previous point seeds the Lipschitz step estimate
	prevGrad := newField(n)
	for i := 0; i < n; i++ {
		o.prevSLP.X[i] = o.clampX(o.curSLP.X[i] - o.cfg.InitialPrevCoordiUpdateCoef*o.curGrad.X[i])
		o.prevSLP.Y[i] = o.clampY(o.curSLP.Y[i] - o.cfg.InitialPrevCoordiUpdateCoef*o.curGrad.Y[i])
	}
	o.evalGradAt(o.prevSLP, prevGrad)
	o.stepLength = o.lipschitzStep(o.prevSLP, o.curSLP, prevGrad, o.curGrad)

	// back to the starting layout
	o.nl.SetPositions(o.curCoordi.X, o.curCoordi.Y)
	o.grid.Accumulate(o.nl)

	o.ak = 1
	o.hpwl = o.nl.HPWL()
	o.prevHpwl = o.hpwl
	o.minOverflow = math.Inf(1)
	o.hpwlAtMinOverflow = o.hpwl
	o.iter = 0

	o.logger.Debug("nesterov init",
		"overflow", o.overflow,
		"densityPenalty", o.densityPenalty,
		"stepLength", o.stepLength,
		"wlCoef", o.wlCoef)
}

// step performs one accelerated update, adapts the penalty and wirelength
// coefficient, runs due feedback phases, and checks convergence.
func (o *Optimizer) step(ctx context.Context) {
	prevA := o.ak
	o.ak = (1 + math.Sqrt(4*prevA*prevA+1)) / 2
	coeff := (prevA - 1) / o.ak

	n := o.nl.NumMovable()
	diverged := false

	for bt := 0; bt < o.cfg.MaxBackTrack; bt++ {
		for i := 0; i < n; i++ {
			nx := o.clampX(o.curSLP.X[i] + o.stepLength*o.curGrad.X[i])
			ny := o.clampY(o.curSLP.Y[i] + o.stepLength*o.curGrad.Y[i])
			o.nextCoordi.X[i], o.nextCoordi.Y[i] = nx, ny
			o.nextSLP.X[i] = o.clampX(nx + coeff*(nx-o.curCoordi.X[i]))
			o.nextSLP.Y[i] = o.clampY(ny + coeff*(ny-o.curCoordi.Y[i]))
		}

		o.evalGradAt(o.nextSLP, o.nextGrad)
		if !o.nextGrad.finite() {
			diverged = true
			break
		}

		newStep := o.lipschitzStep(o.curSLP, o.nextSLP, o.curGrad, o.nextGrad)
		if newStep > o.stepLength*0.95 {
			o.stepLength = newStep
			break
		}
		o.stepLength = newStep
	}

	if diverged {
		// keep the last finite layout
		o.nl.SetPositions(o.curCoordi.X, o.curCoordi.Y)
		o.grid.Accumulate(o.nl)
		o.status = Diverged
		o.logger.Error("nesterov diverged at gradient evaluation", "iter", o.iter)
		return
	}

	// commit
	o.prevSLP.copyFrom(o.curSLP)
	o.curSLP.copyFrom(o.nextSLP)
	o.curGrad.copyFrom(o.nextGrad)
	o.curCoordi.copyFrom(o.nextCoordi)
	o.iter++

	// metrics at the committed layout
	o.nl.SetPositions(o.curCoordi.X, o.curCoordi.Y)
	o.grid.Accumulate(o.nl)
	prevOverflow := o.overflow
	o.overflow = o.grid.SumOverflow()
	o.hpwl = o.nl.HPWL()

	if o.overflow < o.minOverflow {
		o.minOverflow = o.overflow
		o.hpwlAtMinOverflow = o.hpwl
	}
	if o.hpwlDiverged() {
		o.status = Diverged
		o.logger.Error("nesterov diverged on wirelength growth",
			"iter", o.iter, "overflow", o.overflow, "hpwl", o.hpwl, "bestOverflow", o.minOverflow)
		return
	}

	o.adaptPenalty(prevOverflow)
	o.wlCoef = o.baseWlCoef * wlFactor(o.overflow)

	observability.Placement().OnStepComplete(ctx, observability.Snapshot{
		SessionID:      o.sessionID,
		Iter:           o.iter,
		HPWL:           o.hpwl,
		Overflow:       o.overflow,
		DensityPenalty: o.densityPenalty,
		StepLength:     o.stepLength,
	})
	o.logger.Debug("nesterov step",
		"iter", o.iter, "hpwl", o.hpwl, "overflow", o.overflow,
		"penalty", o.densityPenalty, "step", o.stepLength)

	if o.iter%o.cfg.FeedbackInterval == 0 {
		o.runFeedback(ctx)
	}

	if o.overflow <= o.cfg.TargetOverflow {
		o.status = Converged
		return
	}
	if o.iter >= o.cfg.MaxIter {
		o.status = MaxIterReached
	}
}

// Late-run blow-up thresholds: overflow below the ceiling counts as a
// low-overflow regime, and inside it a bounce above the best overflow
// combined with wirelength past the ratio marks divergence.
const (
	divergeOverflowCeil = 0.3
	divergeOverflowRise = 0.02
	divergeHpwlRatio    = 1.2
)

// hpwlDiverged reports the finite blow-up mode: overflow was driven low
// and has since bounced off its best value while wirelength grew well
// past the level it had there.
func (o *Optimizer) hpwlDiverged() bool {
	return o.overflow < divergeOverflowCeil &&
		o.overflow-o.minOverflow > divergeOverflowRise &&
		o.hpwlAtMinOverflow*divergeHpwlRatio < o.hpwl
}

// adaptPenalty ratchets the density penalty: up at MaxPhiCoef whenever
// overflow failed to improve, otherwise following the wirelength trend,
// always clamped to [MinPhiCoef, MaxPhiCoef].
func (o *Optimizer) adaptPenalty(prevOverflow float64) {
	scaledDiff := (o.hpwl - o.prevHpwl) / o.cfg.ReferenceHPWL
	phi := o.cfg.MaxPhiCoef
	if scaledDiff > 0 {
		phi = o.cfg.MaxPhiCoef * math.Pow(o.cfg.MaxPhiCoef, -scaledDiff)
	}
	if o.overflow >= prevOverflow {
		phi = o.cfg.MaxPhiCoef
	}
	phi = math.Min(math.Max(phi, o.cfg.MinPhiCoef), o.cfg.MaxPhiCoef)

	o.densityPenalty *= phi
	o.prevHpwl = o.hpwl
}

// runFeedback consults the feedback phases; their writes (inflation, net
// weights) take effect at the next step's gradient evaluation.
func (o *Optimizer) runFeedback(ctx context.Context) {
	if o.tb != nil && o.tb.ShouldTrigger(o.overflow) {
		applied := o.tb.Evaluate(ctx, o.nl, o.overflow)
		observability.Placement().OnFeedback(ctx, o.sessionID, "timing", applied)
	}
	if o.rb != nil && o.rb.Enabled() && !o.rb.Exhausted() {
		applied := o.rb.Evaluate(ctx, o.nl, o.grid)
		observability.Placement().OnFeedback(ctx, o.sessionID, "routability", applied)
	}
}

// evalGradAt moves the session layout to pos, refreshes bin occupancy, and
// fills dst with the combined gradient.
func (o *Optimizer) evalGradAt(pos field, dst field) {
	o.nl.SetPositions(pos.X, pos.Y)
	o.grid.Accumulate(o.nl)
	o.wirelengthGrad(o.wlTmp, o.wlCoef)
	o.densityGrad(o.denTmp)
	o.combineGrad(dst)
}

// combineGrad forms total = wirelength + densityPenalty * density from the
// scratch fields.
func (o *Optimizer) combineGrad(dst field) {
	for i := range dst.X {
		dst.X[i] = o.wlTmp.X[i] + o.densityPenalty*o.denTmp.X[i]
		dst.Y[i] = o.wlTmp.Y[i] + o.densityPenalty*o.denTmp.Y[i]
	}
}

// lipschitzStep estimates the step length as |dx| / |dg| between two
// evaluated points. Degenerate or non-finite estimates fall back to the
// previous step length (or a bin-relative floor) instead of propagating
// NaN.
func (o *Optimizer) lipschitzStep(p0, p1, g0, g1 field) float64 {
	dx := math.Hypot(floats.Distance(p0.X, p1.X, 2), floats.Distance(p0.Y, p1.Y, 2))
	dg := math.Hypot(floats.Distance(g0.X, g1.X, 2), floats.Distance(g0.Y, g1.Y, 2))

	minStep := 0.01 * math.Min(o.grid.BinW(), o.grid.BinH())
	maxStep := math.Hypot(o.nl.Region.Width(), o.nl.Region.Height())

	if dg <= 0 || math.IsNaN(dg) || math.IsInf(dg, 0) || math.IsNaN(dx) {
		if o.stepLength > 0 {
			return o.stepLength
		}
		return minStep
	}
	step := dx / dg
	if math.IsNaN(step) || math.IsInf(step, 0) {
		return minStep
	}
	return math.Min(math.Max(step, minStep), maxStep)
}

func (o *Optimizer) clampX(x float64) float64 {
	return math.Min(math.Max(x, o.nl.Region.MinX), o.nl.Region.MaxX)
}

func (o *Optimizer) clampY(y float64) float64 {
	return math.Min(math.Max(y, o.nl.Region.MinY), o.nl.Region.MaxY)
}

// wlFactor is the overflow-driven schedule for the WA coefficient: loose
// smoothing while the layout is dense, sharp once overflow is low.
func wlFactor(overflow float64) float64 {
	switch {
	case overflow > 1:
		return 0.1
	case overflow < 0.1:
		return 10
	default:
		return 1.0 / math.Pow(10, (overflow-0.1)*20.0/9.0-1.0)
	}
}
