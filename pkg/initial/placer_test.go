package initial

import (
	"context"
	"math"
	"testing"

	"github.com/gplace-dev/gplace/pkg/netlist"
)

func region100() netlist.Region {
	return netlist.Region{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
}

func twoObjectNetlist(t *testing.T) *netlist.Netlist {
	t.Helper()
	objs := []netlist.Object{
		{ID: "a", Width: 2, Height: 2, X: 10, Y: 10},
		{ID: "b", Width: 2, Height: 2, X: 90, Y: 90},
	}
	nets := []netlist.Net{{Pins: []netlist.Pin{{Object: 0}, {Object: 1}}}}
	nl, err := netlist.New(region100(), objs, nets)
	if err != nil {
		t.Fatalf("netlist.New() error = %v", err)
	}
	return nl
}

func TestRun_TwoObjectsConvergeTogether(t *testing.T) {
	nl := twoObjectNetlist(t)
	p := New(Config{}, nl, nil)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	a, b := nl.Objects[0], nl.Objects[1]
	dist := math.Hypot(a.X-b.X, a.Y-b.Y)
	if dist > 2*p.cfg.MinDiffLength {
		t.Errorf("pin distance after initial place = %v, want <= %v", dist, 2*p.cfg.MinDiffLength)
	}
	if !nl.Region.Contains(a.X, a.Y) || !nl.Region.Contains(b.X, b.Y) {
		t.Errorf("objects left the region: a=(%v,%v) b=(%v,%v)", a.X, a.Y, b.X, b.Y)
	}
}

func TestRun_Deterministic(t *testing.T) {
	first := twoObjectNetlist(t)
	second := twoObjectNetlist(t)

	if err := New(Config{}, first, nil).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := New(Config{}, second, nil).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for i := range first.Objects {
		if first.Objects[i].X != second.Objects[i].X || first.Objects[i].Y != second.Objects[i].Y {
			t.Errorf("object %d placed at (%v,%v) vs (%v,%v); solve must be deterministic",
				i, first.Objects[i].X, first.Objects[i].Y, second.Objects[i].X, second.Objects[i].Y)
		}
	}
}

func TestRun_MovableAttractedToFixed(t *testing.T) {
	objs := []netlist.Object{
		{ID: "pad", Width: 2, Height: 2, X: 80, Y: 60, Fixed: true},
		{ID: "a", Width: 2, Height: 2, X: 5, Y: 5},
	}
	nets := []netlist.Net{{Pins: []netlist.Pin{{Object: 0}, {Object: 1}}}}
	nl, err := netlist.New(region100(), objs, nets)
	if err != nil {
		t.Fatalf("netlist.New() error = %v", err)
	}

	if err := New(Config{}, nl, nil).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	a := nl.Objects[1]
	if math.Hypot(a.X-80, a.Y-60) > 5 {
		t.Errorf("movable object at (%v, %v), want near fixed pad (80, 60)", a.X, a.Y)
	}
	if nl.Objects[0].X != 80 || nl.Objects[0].Y != 60 {
		t.Errorf("fixed object moved to (%v, %v)", nl.Objects[0].X, nl.Objects[0].Y)
	}
}

func TestRun_StarNetCenter(t *testing.T) {
	// four fixed pads at the corners of a square, one movable object on a
	// net touching all of them: any point inside the pad bounding box
	// minimizes wirelength, so the solve must pull it in there.
	objs := []netlist.Object{
		{ID: "p1", Width: 1, Height: 1, X: 20, Y: 20, Fixed: true},
		{ID: "p2", Width: 1, Height: 1, X: 80, Y: 20, Fixed: true},
		{ID: "p3", Width: 1, Height: 1, X: 20, Y: 80, Fixed: true},
		{ID: "p4", Width: 1, Height: 1, X: 80, Y: 80, Fixed: true},
		{ID: "m", Width: 1, Height: 1, X: 3, Y: 97},
	}
	nets := []netlist.Net{{Pins: []netlist.Pin{
		{Object: 0}, {Object: 1}, {Object: 2}, {Object: 3}, {Object: 4},
	}}}
	nl, err := netlist.New(region100(), objs, nets)
	if err != nil {
		t.Fatalf("netlist.New() error = %v", err)
	}

	if err := New(Config{}, nl, nil).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	m := nl.Objects[4]
	if m.X < 19 || m.X > 81 || m.Y < 19 || m.Y > 81 {
		t.Errorf("movable object at (%v, %v), want inside pad bbox [20,80]x[20,80]", m.X, m.Y)
	}
}

func TestRun_SinglePinNetIgnored(t *testing.T) {
	objs := []netlist.Object{
		{ID: "a", Width: 2, Height: 2, X: 30, Y: 40},
	}
	nets := []netlist.Net{{Pins: []netlist.Pin{{Object: 0}}}}
	nl, err := netlist.New(region100(), objs, nets)
	if err != nil {
		t.Fatalf("netlist.New() error = %v", err)
	}

	if err := New(Config{}, nl, nil).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// nothing pulls on it; the anchor keeps it where it started.
	if nl.Objects[0].X != 30 || nl.Objects[0].Y != 40 {
		t.Errorf("object drifted to (%v, %v), want (30, 40)", nl.Objects[0].X, nl.Objects[0].Y)
	}
}

func TestRun_HighFanoutClipped(t *testing.T) {
	// a 30-pin net with MaxFanout 4 must still produce a finite, sane
	// system and keep every object inside the region.
	objs := make([]netlist.Object, 30)
	pins := make([]netlist.Pin, 30)
	for i := range objs {
		objs[i] = netlist.Object{
			ID: string(rune('a' + i%26)) + string(rune('0'+i/26)),
			Width: 1, Height: 1,
			X: float64(3 * (i + 1)), Y: float64(97 - 3*i),
		}
		pins[i] = netlist.Pin{Object: i}
	}
	nl, err := netlist.New(region100(), objs, []netlist.Net{{Pins: pins}})
	if err != nil {
		t.Fatalf("netlist.New() error = %v", err)
	}

	if err := New(Config{MaxFanout: 4}, nl, nil).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for i := range nl.Objects {
		o := nl.Objects[i]
		if !nl.Region.Contains(o.X, o.Y) {
			t.Fatalf("object %d at (%v, %v) outside region", i, o.X, o.Y)
		}
		if math.IsNaN(o.X) || math.IsNaN(o.Y) {
			t.Fatalf("object %d has NaN position", i)
		}
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	nl := twoObjectNetlist(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := New(Config{}, nl, nil).Run(ctx); err == nil {
		t.Errorf("Run() with cancelled context = nil, want context error")
	}
}
