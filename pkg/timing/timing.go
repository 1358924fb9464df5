package timing

import (
	"context"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/gplace-dev/gplace/pkg/netlist"
)

// Engine is the external timing/resizer collaborator. It returns a map from
// net index to criticality in [0, inf); nets absent from the map are not
// critical. It must not mutate placer state.
type Engine interface {
	CriticalNets(ctx context.Context, nl *netlist.Netlist) (map[int]float64, error)
}

// Config holds timing-feedback knobs.
type Config struct {
	// Enabled gates the whole feedback path (timing-driven mode).
	Enabled bool
	// OverflowThresholds lists the aggregate-overflow values at which net
	// reweighting triggers, each at most once. Order does not matter.
	OverflowThresholds []float64
	// NetWeightMax caps net weights after boosting.
	NetWeightMax float64
	// NetWeightFloor is the minimum net weight; boosting never lowers a
	// weight, but reloads clamp up to this.
	NetWeightFloor float64
}

func (c *Config) setDefaults() {
	if c.NetWeightMax <= 0 {
		c.NetWeightMax = 1.9
	}
	if c.NetWeightFloor <= 0 {
		c.NetWeightFloor = 1
	}
}

// maxEngineFailures is how many failed oracle calls are tolerated before
// timing-driven mode shuts itself off for the run.
const maxEngineFailures = 2

// Feedback owns the timing-driven trigger state for one session.
type Feedback struct {
	cfg    Config
	engine Engine
	logger *log.Logger

	thresholds []float64 // sorted descending, consumed front to back
	next       int
	failures   int
	disabled   bool
}

// New creates a timing feedback phase. engine may be nil, which behaves
// like a permanently unavailable collaborator.
func New(cfg Config, engine Engine, logger *log.Logger) *Feedback {
	cfg.setDefaults()
	if logger == nil {
		logger = log.Default()
	}

	th := append([]float64(nil), cfg.OverflowThresholds...)
	sort.Sort(sort.Reverse(sort.Float64Slice(th)))

	return &Feedback{cfg: cfg, engine: engine, logger: logger, thresholds: th}
}

// Enabled reports whether timing-driven mode is still active.
func (f *Feedback) Enabled() bool { return f.cfg.Enabled && !f.disabled }

// ShouldTrigger reports whether overflow has dropped through the next
// un-consumed threshold. It does not consume the threshold; Evaluate does.
func (f *Feedback) ShouldTrigger(overflow float64) bool {
	return f.Enabled() && f.next < len(f.thresholds) && overflow <= f.thresholds[f.next]
}

// Evaluate consumes every threshold the given overflow has crossed, asks
// the timing engine for critical nets, and boosts their weights. It returns
// true when any weight changed. Engine failure skips the interval without
// consuming thresholds; repeated failure disables timing-driven mode.
func (f *Feedback) Evaluate(ctx context.Context, nl *netlist.Netlist, overflow float64) bool {
	if !f.ShouldTrigger(overflow) {
		return false
	}
	if f.engine == nil {
		f.fail(nil)
		return false
	}

	crit, err := f.engine.CriticalNets(ctx, nl)
	if err != nil {
		f.fail(err)
		return false
	}
	f.failures = 0

	// consume all thresholds crossed by this overflow value
	consumed := 0
	for f.next < len(f.thresholds) && overflow <= f.thresholds[f.next] {
		f.next++
		consumed++
	}

	changed := false
	for ni, c := range crit {
		if ni < 0 || ni >= len(nl.Nets) || c <= 0 {
			continue
		}
		n := &nl.Nets[ni]
		w := n.Weight * (1 + c)
		if w > f.cfg.NetWeightMax {
			w = f.cfg.NetWeightMax
		}
		if w < f.cfg.NetWeightFloor {
			w = f.cfg.NetWeightFloor
		}
		if w != n.Weight {
			n.Weight = w
			changed = true
		}
	}

	f.logger.Info("timing-driven reweight",
		"overflow", overflow,
		"thresholdsConsumed", consumed,
		"criticalNets", len(crit),
		"changed", changed)
	return changed
}

func (f *Feedback) fail(err error) {
	f.failures++
	if f.failures >= maxEngineFailures {
		f.disabled = true
		f.logger.Warn("timing engine unavailable, disabling timing-driven mode", "err", err)
		return
	}
	f.logger.Warn("timing engine failed, skipping interval", "err", err)
}
