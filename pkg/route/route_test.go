package route

import (
	"context"
	"errors"
	"testing"

	"github.com/gplace-dev/gplace/pkg/density"
	"github.com/gplace-dev/gplace/pkg/netlist"
)

// stubRouter records calls and returns a canned estimate.
type stubRouter struct {
	calls int
	cong  *Congestion
	err   error
}

func (s *stubRouter) EstimateCongestion(_ context.Context, _ *netlist.Netlist) (*Congestion, error) {
	s.calls++
	return s.cong, s.err
}

// crowdedSession piles enough area into one corner bin that overflow and
// peak density both exceed the feedback gates.
func crowdedSession(t *testing.T) (*netlist.Netlist, *density.Grid) {
	t.Helper()
	region := netlist.Region{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	objs := []netlist.Object{
		{ID: "a", Width: 24, Height: 24, X: 12.5, Y: 12.5},
		{ID: "b", Width: 10, Height: 10, X: 62.5, Y: 62.5},
	}
	nl, err := netlist.New(region, objs, nil)
	if err != nil {
		t.Fatalf("netlist.New() error = %v", err)
	}
	grid, err := density.NewGrid(region, 4, 4, 0.7)
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}
	grid.Accumulate(nl)
	return nl, grid
}

func hotCornerCongestion() *Congestion {
	c := &Congestion{NX: 4, NY: 4, Usage: make([]float64, 16), Capacity: make([]float64, 16)}
	for i := range c.Capacity {
		c.Capacity[i] = 1
		c.Usage[i] = 0.5
	}
	c.Usage[0] = 3 // bin (0,0) heavily congested
	return c
}

func TestEvaluate_DisabledNeverCallsRouter(t *testing.T) {
	nl, grid := crowdedSession(t)
	r := &stubRouter{cong: hotCornerCongestion()}

	f := New(Config{Enabled: false}, r, nil)
	for i := 0; i < 5; i++ {
		if f.Evaluate(context.Background(), nl, grid) {
			t.Fatalf("Evaluate() = true with routability disabled")
		}
	}
	if r.calls != 0 {
		t.Errorf("router called %d times with routability disabled, want 0", r.calls)
	}
}

func TestEvaluate_InflatesCongestedBin(t *testing.T) {
	nl, grid := crowdedSession(t)
	r := &stubRouter{cong: hotCornerCongestion()}

	f := New(Config{Enabled: true, CheckOverflow: 0.01, MaxDensity: 0.5}, r, nil)
	if !f.Evaluate(context.Background(), nl, grid) {
		t.Fatalf("Evaluate() = false, want inflation applied")
	}

	if got := nl.Objects[0].Inflation; got <= 1 {
		t.Errorf("object in congested bin has inflation %v, want > 1", got)
	}
	if got := nl.Objects[1].Inflation; got != 1 {
		t.Errorf("object in calm bin has inflation %v, want 1", got)
	}
}

func TestEvaluate_InflationNeverExceedsCap(t *testing.T) {
	nl, grid := crowdedSession(t)
	cong := hotCornerCongestion()
	cong.Usage[0] = 100 // absurd congestion
	r := &stubRouter{cong: cong}

	f := New(Config{Enabled: true, CheckOverflow: 0.01, MaxDensity: 0.5, MaxInflationRatio: 2.5}, r, nil)
	f.Evaluate(context.Background(), nl, grid)

	for i := range nl.Objects {
		if infl := nl.Objects[i].Inflation; infl > 2.5 {
			t.Errorf("object %d inflation = %v, want <= 2.5", i, infl)
		}
	}
}

func TestEvaluate_RouterFailureSkips(t *testing.T) {
	nl, grid := crowdedSession(t)
	r := &stubRouter{err: errors.New("router down")}

	f := New(Config{Enabled: true, CheckOverflow: 0.01, MaxDensity: 0.5}, r, nil)
	if f.Evaluate(context.Background(), nl, grid) {
		t.Errorf("Evaluate() = true on router failure, want skip")
	}
	for i := range nl.Objects {
		if nl.Objects[i].Inflation != 1 {
			t.Errorf("object %d inflated despite router failure", i)
		}
	}
}

func TestEvaluate_EmptyDataSkips(t *testing.T) {
	nl, grid := crowdedSession(t)
	r := &stubRouter{cong: &Congestion{}}

	f := New(Config{Enabled: true, CheckOverflow: 0.01, MaxDensity: 0.5}, r, nil)
	if f.Evaluate(context.Background(), nl, grid) {
		t.Errorf("Evaluate() = true on empty congestion data, want skip")
	}
}

func TestEvaluate_StopsAfterInflationBudget(t *testing.T) {
	nl, grid := crowdedSession(t)
	r := &stubRouter{cong: hotCornerCongestion()}

	f := New(Config{
		Enabled: true, CheckOverflow: 0.01, MaxDensity: 0.5, MaxInflationIter: 2,
	}, r, nil)

	for i := 0; i < 5; i++ {
		f.Evaluate(context.Background(), nl, grid)
	}
	if r.calls > 2 {
		t.Errorf("router called %d times, want <= MaxInflationIter (2)", r.calls)
	}
	if !f.Exhausted() {
		t.Errorf("Exhausted() = false after budget spent")
	}
}

func TestEvaluate_LowOverflowSkips(t *testing.T) {
	region := netlist.Region{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	objs := []netlist.Object{{ID: "a", Width: 2, Height: 2, X: 50, Y: 50}}
	nl, err := netlist.New(region, objs, nil)
	if err != nil {
		t.Fatalf("netlist.New() error = %v", err)
	}
	grid, _ := density.NewGrid(region, 4, 4, 0.7)
	grid.Accumulate(nl)

	r := &stubRouter{cong: hotCornerCongestion()}
	f := New(Config{Enabled: true}, r, nil)
	if f.Evaluate(context.Background(), nl, grid) {
		t.Errorf("Evaluate() = true with no overflow, want skip")
	}
	if r.calls != 0 {
		t.Errorf("router called with no overflow; spreading is not a routing problem")
	}
}

func TestEvaluate_SkipIOExcludesBoundaryBins(t *testing.T) {
	nl, grid := crowdedSession(t)
	r := &stubRouter{cong: hotCornerCongestion()}

	f := New(Config{Enabled: true, CheckOverflow: 0.01, MaxDensity: 0.5, SkipIO: true}, r, nil)
	f.Evaluate(context.Background(), nl, grid)

	// the congested bin (0,0) is a boundary bin; its object must be spared.
	if got := nl.Objects[0].Inflation; got != 1 {
		t.Errorf("boundary-bin object inflated to %v in skip-IO mode, want 1", got)
	}
}
