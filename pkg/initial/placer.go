package initial

import (
	"context"
	"math"

	"github.com/charmbracelet/log"

	"github.com/gplace-dev/gplace/pkg/netlist"
	"github.com/gplace-dev/gplace/pkg/sparse"
)

// Config holds initial-placement knobs. Zero values are replaced with the
// defaults below by Placer construction.
type Config struct {
	// MaxIter is the number of outer build-solve iterations.
	MaxIter int
	// MaxSolverIter caps BiCGSTAB inner iterations per solve.
	MaxSolverIter int
	// MinDiffLength floors the pin distance in B2B edge weights.
	MinDiffLength float64
	// MaxFanout caps the number of B2B edges emitted per net.
	MaxFanout int
	// NetWeightScale is a global multiplier on net weights.
	NetWeightScale float64
	// Tolerance is the solver's relative residual target.
	Tolerance float64
}

func (c *Config) setDefaults() {
	if c.MaxIter <= 0 {
		c.MaxIter = 20
	}
	if c.MaxSolverIter <= 0 {
		c.MaxSolverIter = 100
	}
	if c.MinDiffLength <= 0 {
		c.MinDiffLength = 1.5
	}
	if c.MaxFanout <= 0 {
		c.MaxFanout = 200
	}
	if c.NetWeightScale <= 0 {
		c.NetWeightScale = 800
	}
	if c.Tolerance <= 0 {
		c.Tolerance = 1e-6
	}
}

// Placer owns the transient per-axis solver state for one initial
// placement. State is rebuilt every outer iteration and discarded when Run
// returns.
type Placer struct {
	cfg    Config
	nl     *netlist.Netlist
	logger *log.Logger

	slot []int // object index -> unknown slot, -1 for fixed
}

// New creates an initial placer over the given netlist.
func New(cfg Config, nl *netlist.Netlist, logger *log.Logger) *Placer {
	cfg.setDefaults()
	if logger == nil {
		logger = log.Default()
	}

	slot := make([]int, len(nl.Objects))
	for i := range slot {
		slot[i] = -1
	}
	for k, i := range nl.Movable() {
		slot[i] = k
	}

	return &Placer{cfg: cfg, nl: nl, logger: logger, slot: slot}
}

// Run solves for low-wirelength positions and writes them back into the
// netlist. It is deterministic: identical inputs produce identical
// positions. The context is checked between outer iterations only.
func (p *Placer) Run(ctx context.Context) error {
	n := p.nl.NumMovable()
	xs := make([]float64, n)
	ys := make([]float64, n)

	for iter := 0; iter < p.cfg.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		p.nl.Positions(xs, ys)
		prevX := append([]float64(nil), xs...)
		prevY := append([]float64(nil), ys...)

		resX := p.solveAxis(axisX, xs)
		resY := p.solveAxis(axisY, ys)

		p.nl.SetPositions(xs, ys)
		p.nl.ClampToRegion()

		delta := maxShift(prevX, xs)
		if dy := maxShift(prevY, ys); dy > delta {
			delta = dy
		}

		p.logger.Debug("initial place iteration",
			"iter", iter+1,
			"hpwl", p.nl.HPWL(),
			"maxShift", delta,
			"residX", resX.Residual,
			"residY", resY.Residual)

		if !resX.Converged || !resY.Converged {
			// best-effort iterate kept, per the error-handling contract
			p.logger.Debug("solver hit iteration cap",
				"iter", iter+1,
				"iterX", resX.Iterations,
				"iterY", resY.Iterations)
		}

		if delta < p.cfg.MinDiffLength {
			break
		}
	}

	p.logger.Info("initial placement done", "hpwl", p.nl.HPWL())
	return nil
}

type axis int

const (
	axisX axis = iota
	axisY
)

// solveAxis builds the B2B system for one axis and solves it in place into
// sol, which enters holding the current coordinates as the initial guess.
func (p *Placer) solveAxis(ax axis, sol []float64) sparse.Result {
	n := p.nl.NumMovable()
	b := sparse.NewBuilder(n)
	rhs := make([]float64, n)

	for ni := range p.nl.Nets {
		p.stampNet(ax, &p.nl.Nets[ni], b, rhs)
	}

	// Anchor any unconnected object at its current position so the system
	// stays non-singular.
	m := b.Build()
	anchored := false
	for i := 0; i < n; i++ {
		if m.At(i, i) == 0 {
			b.Add(i, i, 1)
			rhs[i] += sol[i]
			anchored = true
		}
	}
	if anchored {
		m = b.Build()
	}

	return sparse.BiCGSTAB(m, sol, rhs, p.cfg.MaxSolverIter, p.cfg.Tolerance)
}

// stampNet emits the B2B edges of one net into the builder. Single-pin
// nets contribute nothing.
func (p *Placer) stampNet(ax axis, net *netlist.Net, b *sparse.Builder, rhs []float64) {
	pins := net.Pins
	if len(pins) < 2 {
		return
	}

	// locate extreme pins along the axis
	lo, hi := 0, 0
	loPos, hiPos := p.pinCoord(ax, pins[0]), p.pinCoord(ax, pins[0])
	for i := 1; i < len(pins); i++ {
		c := p.pinCoord(ax, pins[i])
		if c < loPos {
			lo, loPos = i, c
		}
		if c > hiPos {
			hi, hiPos = i, c
		}
	}
	if lo == hi {
		// all pins coincide on this axis; connect first to last
		hi = len(pins) - 1
		if lo == hi {
			lo = 0
		}
	}

	weight := p.cfg.NetWeightScale * net.Weight * 2.0 / float64(len(pins)-1)

	// High-fanout clipping: edges are emitted in pin order and capped at
	// 2*MaxFanout, keeping the decomposition deterministic.
	budget := 2 * p.cfg.MaxFanout

	p.stampEdge(ax, pins[lo], pins[hi], weight, b, rhs)
	budget--

	for i := range pins {
		if i == lo || i == hi || budget <= 0 {
			continue
		}
		p.stampEdge(ax, pins[lo], pins[i], weight, b, rhs)
		budget--
		if budget <= 0 {
			continue
		}
		p.stampEdge(ax, pins[hi], pins[i], weight, b, rhs)
		budget--
	}
}

// stampEdge stamps one spring edge between pins pa and pb. Fixed endpoints
// fold into the right-hand side.
func (p *Placer) stampEdge(ax axis, pa, pb netlist.Pin, weight float64, b *sparse.Builder, rhs []float64) {
	ca := p.pinCoord(ax, pa)
	cb := p.pinCoord(ax, pb)

	dist := math.Abs(ca - cb)
	if dist < p.cfg.MinDiffLength {
		dist = p.cfg.MinDiffLength
	}
	w := weight / dist

	offA := pinOffset(ax, pa)
	offB := pinOffset(ax, pb)
	sa := p.slot[pa.Object]
	sb := p.slot[pb.Object]

	if sa >= 0 {
		b.Add(sa, sa, w)
		if sb >= 0 {
			b.Add(sa, sb, -w)
			rhs[sa] += w * (offB - offA)
		} else {
			rhs[sa] += w * (cb - offA)
		}
	}
	if sb >= 0 {
		b.Add(sb, sb, w)
		if sa >= 0 {
			b.Add(sb, sa, -w)
			rhs[sb] += w * (offA - offB)
		} else {
			rhs[sb] += w * (ca - offB)
		}
	}
}

func (p *Placer) pinCoord(ax axis, pin netlist.Pin) float64 {
	x, y := p.nl.PinPos(pin)
	if ax == axisX {
		return x
	}
	return y
}

func pinOffset(ax axis, pin netlist.Pin) float64 {
	if ax == axisX {
		return pin.OffX
	}
	return pin.OffY
}

func maxShift(prev, cur []float64) float64 {
	var m float64
	for i := range prev {
		if d := math.Abs(cur[i] - prev[i]); d > m {
			m = d
		}
	}
	return m
}
