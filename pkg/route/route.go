package route

import (
	"context"
	"math"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/gplace-dev/gplace/pkg/density"
	"github.com/gplace-dev/gplace/pkg/netlist"
)

// Congestion is a per-bin routing estimate returned by the router. The grid
// shape must match the placer's bin grid; Usage and Capacity are indexed
// row-major like density.Grid bins.
type Congestion struct {
	NX, NY   int
	Usage    []float64
	Capacity []float64
}

// Ratio returns usage/capacity for bin i, or 0 for unroutable data.
func (c *Congestion) Ratio(i int) float64 {
	if i >= len(c.Usage) || i >= len(c.Capacity) || c.Capacity[i] <= 0 {
		return 0
	}
	return c.Usage[i] / c.Capacity[i]
}

// Router is the external global-router collaborator. It must not mutate
// placer state; it only reads the layout and returns an estimate.
type Router interface {
	EstimateCongestion(ctx context.Context, nl *netlist.Netlist) (*Congestion, error)
}

// Config holds routability-feedback knobs.
type Config struct {
	// Enabled gates the whole feedback path (routability-driven mode).
	Enabled bool
	// CheckOverflow: inflation applies only while aggregate overflow
	// exceeds this value.
	CheckOverflow float64
	// MaxDensity: inflation applies only while the peak bin density
	// exceeds this value.
	MaxDensity float64
	// TargetRC is the congestion level considered acceptable; feedback
	// stops once the measured RC metric drops to it.
	TargetRC float64
	// InflationRatioCoef is the exponent mapping bin congestion to an
	// inflation ratio.
	InflationRatioCoef float64
	// MaxInflationRatio caps per-object inflation.
	MaxInflationRatio float64
	// K1..K4 weight the RC metric terms: mean, top-5%, top-2%, worst bin.
	K1, K2, K3, K4 float64
	// MaxBloatIter and MaxInflationIter cap the feedback sub-loops.
	MaxBloatIter     int
	MaxInflationIter int
	// SkipIO excludes bins touching the region boundary.
	SkipIO bool
}

func (c *Config) setDefaults() {
	if c.CheckOverflow <= 0 {
		c.CheckOverflow = 0.2
	}
	if c.MaxDensity <= 0 {
		c.MaxDensity = 0.99
	}
	if c.TargetRC <= 0 {
		c.TargetRC = 1.25
	}
	if c.InflationRatioCoef <= 0 {
		c.InflationRatioCoef = 2.5
	}
	if c.MaxInflationRatio <= 0 {
		c.MaxInflationRatio = 2.5
	}
	if c.K1 == 0 && c.K2 == 0 && c.K3 == 0 && c.K4 == 0 {
		c.K1, c.K2 = 1, 1
	}
	if c.MaxBloatIter <= 0 {
		c.MaxBloatIter = 1
	}
	if c.MaxInflationIter <= 0 {
		c.MaxInflationIter = 4
	}
}

// Feedback owns the routability sub-loop state for one session.
type Feedback struct {
	cfg    Config
	router Router
	logger *log.Logger

	bloatCalls     int
	inflationCalls int
}

// New creates a routability feedback phase. router may be nil, which
// behaves like a permanently unavailable collaborator.
func New(cfg Config, router Router, logger *log.Logger) *Feedback {
	cfg.setDefaults()
	if logger == nil {
		logger = log.Default()
	}
	return &Feedback{cfg: cfg, router: router, logger: logger}
}

// Enabled reports whether routability-driven mode is on.
func (f *Feedback) Enabled() bool { return f.cfg.Enabled }

// Exhausted reports whether the inflation sub-loop budget is spent.
func (f *Feedback) Exhausted() bool {
	return f.inflationCalls >= f.cfg.MaxInflationIter
}

// Evaluate queries the router and applies inflation when the layout is both
// congested and still dense enough to matter. It returns true when any
// object's inflation changed. Router failure or empty data skips the
// interval; optimization continues on wirelength and density forces alone.
func (f *Feedback) Evaluate(ctx context.Context, nl *netlist.Netlist, grid *density.Grid) bool {
	if !f.cfg.Enabled || f.router == nil || f.Exhausted() {
		return false
	}

	overflow := grid.SumOverflow()
	if overflow <= f.cfg.CheckOverflow {
		return false
	}
	if peakBinDensity(grid) <= f.cfg.MaxDensity {
		return false
	}

	cong, err := f.router.EstimateCongestion(ctx, nl)
	if err != nil {
		f.logger.Warn("router unavailable, skipping routability feedback", "err", err)
		return false
	}
	if cong == nil || len(cong.Usage) == 0 {
		f.logger.Warn("router returned empty congestion data, skipping")
		return false
	}

	rc := f.rcMetric(cong)
	f.logger.Debug("routability check", "rc", rc, "targetRC", f.cfg.TargetRC, "overflow", overflow)
	if rc <= f.cfg.TargetRC {
		return false
	}

	f.inflationCalls++
	applied := false
	for bloat := 0; bloat < f.cfg.MaxBloatIter; bloat++ {
		if f.applyInflation(nl, grid, cong) {
			applied = true
		}
		f.bloatCalls++
	}

	if applied {
		f.logger.Info("inflated congested objects",
			"rc", rc, "inflationIter", f.inflationCalls)
	}
	return applied
}

// rcMetric blends bin congestion ratios into one scalar: K1 weights the
// mean, K2 the top 5%, K3 the top 2%, K4 the single worst bin.
func (f *Feedback) rcMetric(cong *Congestion) float64 {
	n := len(cong.Usage)
	ratios := make([]float64, n)
	for i := range ratios {
		ratios[i] = cong.Ratio(i)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ratios)))

	var sum float64
	for _, r := range ratios {
		sum += r
	}
	mean := sum / float64(n)

	return f.cfg.K1*mean +
		f.cfg.K2*topMean(ratios, (n+19)/20) +
		f.cfg.K3*topMean(ratios, (n+49)/50) +
		f.cfg.K4*ratios[0]
}

// applyInflation raises inflation on movable objects sitting in congested
// bins. Ratios are always capped at MaxInflationRatio and never lowered.
func (f *Feedback) applyInflation(nl *netlist.Netlist, grid *density.Grid, cong *Congestion) bool {
	changed := false
	for _, i := range nl.Movable() {
		o := &nl.Objects[i]
		ix, iy := grid.BinIndex(o.X, o.Y)
		if f.cfg.SkipIO && grid.BoundaryBin(ix, iy) {
			continue
		}
		r := cong.Ratio(congIndex(cong, grid, ix, iy))
		if r <= 1 {
			continue
		}
		want := math.Min(f.cfg.MaxInflationRatio, math.Pow(r, f.cfg.InflationRatioCoef))
		if want > o.Inflation {
			o.Inflation = want
			changed = true
		}
	}
	return changed
}

// congIndex maps a grid bin to the congestion array, tolerating routers
// that report on a grid of a different shape by clamping proportionally.
func congIndex(cong *Congestion, grid *density.Grid, ix, iy int) int {
	cx, cy := ix, iy
	if cong.NX != grid.NX() && cong.NX > 0 {
		cx = ix * cong.NX / grid.NX()
	}
	if cong.NY != grid.NY() && cong.NY > 0 {
		cy = iy * cong.NY / grid.NY()
	}
	return cy*cong.NX + cx
}

func peakBinDensity(grid *density.Grid) float64 {
	binArea := grid.BinW() * grid.BinH()
	var peak float64
	for iy := 0; iy < grid.NY(); iy++ {
		for ix := 0; ix < grid.NX(); ix++ {
			if d := grid.Occupied(ix, iy) / binArea; d > peak {
				peak = d
			}
		}
	}
	return peak
}

func topMean(sortedDesc []float64, k int) float64 {
	if k <= 0 {
		k = 1
	}
	if k > len(sortedDesc) {
		k = len(sortedDesc)
	}
	var sum float64
	for _, r := range sortedDesc[:k] {
		sum += r
	}
	return sum / float64(k)
}
