package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gplace-dev/gplace/pkg/cache"
	"github.com/gplace-dev/gplace/pkg/netlist"
	"github.com/gplace-dev/gplace/pkg/route"
)

func testNetlist(t *testing.T) *netlist.Netlist {
	t.Helper()
	nl, err := netlist.New(
		netlist.Region{MaxX: 100, MaxY: 100},
		[]netlist.Object{{ID: "a", Width: 4, Height: 4, X: 50, Y: 50}},
		nil,
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return nl
}

func writeCongestion(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "congestion.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write congestion: %v", err)
	}
	return path
}

func TestFileRouter(t *testing.T) {
	path := writeCongestion(t, `
nx = 2
ny = 2
usage = [1.0, 2.0, 3.0, 4.0]
capacity = [2.0, 2.0, 2.0, 2.0]
`)
	r := &fileRouter{path: path}

	cong, err := r.EstimateCongestion(context.Background(), testNetlist(t))
	if err != nil {
		t.Fatalf("EstimateCongestion: %v", err)
	}
	if cong.NX != 2 || cong.NY != 2 {
		t.Errorf("grid = %dx%d, want 2x2", cong.NX, cong.NY)
	}
	if got := cong.Ratio(3); got != 2.0 {
		t.Errorf("Ratio(3) = %v, want 2", got)
	}
}

func TestFileRouterRejectsMismatchedGrid(t *testing.T) {
	path := writeCongestion(t, `
nx = 2
ny = 2
usage = [1.0]
capacity = [2.0]
`)
	r := &fileRouter{path: path}

	if _, err := r.EstimateCongestion(context.Background(), testNetlist(t)); err == nil {
		t.Error("mismatched grid should fail")
	}
}

func TestFileRouterMissingFile(t *testing.T) {
	r := &fileRouter{path: filepath.Join(t.TempDir(), "nope.toml")}
	if _, err := r.EstimateCongestion(context.Background(), testNetlist(t)); err == nil {
		t.Error("missing file should fail")
	}
}

// countingRouter records how many times the inner router is consulted.
type countingRouter struct {
	calls int
	cong  *route.Congestion
}

func (r *countingRouter) EstimateCongestion(ctx context.Context, nl *netlist.Netlist) (*route.Congestion, error) {
	r.calls++
	return r.cong, nil
}

func TestCachedRouterSkipsRepeatedLayouts(t *testing.T) {
	ctx := context.Background()
	nl := testNetlist(t)
	inner := &countingRouter{cong: &route.Congestion{
		NX: 1, NY: 1, Usage: []float64{3}, Capacity: []float64{2},
	}}

	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := newCachedRouter(inner, backend, nil)

	c1, err := r.EstimateCongestion(ctx, nl)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	c2, err := r.EstimateCongestion(ctx, nl)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner router called %d times, want 1", inner.calls)
	}
	if c1.Ratio(0) != c2.Ratio(0) {
		t.Error("cached estimate differs from the original")
	}

	// moving an object invalidates the layout key
	nl.Objects[0].X = 10
	if _, err := r.EstimateCongestion(ctx, nl); err != nil {
		t.Fatalf("third call: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner router called %d times after a move, want 2", inner.calls)
	}
}

func TestFileEngine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crit.toml")
	content := `
[[nets]]
index = 0
criticality = 0.8

[[nets]]
index = 99
criticality = 0.5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write criticality: %v", err)
	}

	nl, err := netlist.New(
		netlist.Region{MaxX: 100, MaxY: 100},
		[]netlist.Object{
			{ID: "a", Width: 4, Height: 4, X: 10, Y: 10},
			{ID: "b", Width: 4, Height: 4, X: 90, Y: 90},
		},
		[]netlist.Net{{Pins: []netlist.Pin{{Object: 0}, {Object: 1}}}},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	e := &fileEngine{path: path}
	crit, err := e.CriticalNets(context.Background(), nl)
	if err != nil {
		t.Fatalf("CriticalNets: %v", err)
	}
	if got := crit[0]; got != 0.8 {
		t.Errorf("crit[0] = %v, want 0.8", got)
	}
	if _, ok := crit[99]; ok {
		t.Error("out-of-range net index should be dropped")
	}
}
