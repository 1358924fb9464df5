package netlist

import (
	"errors"
	"math"
	"testing"
)

func testRegion() Region {
	return Region{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
}

func TestNew_EmptyRegion(t *testing.T) {
	_, err := New(Region{MinX: 10, MaxX: 10, MinY: 0, MaxY: 50}, []Object{{ID: "a"}}, nil)
	if !errors.Is(err, ErrEmptyRegion) {
		t.Errorf("New() error = %v, want ErrEmptyRegion", err)
	}
}

func TestNew_NoMovable(t *testing.T) {
	_, err := New(testRegion(), []Object{{ID: "a", Fixed: true}}, nil)
	if !errors.Is(err, ErrNoMovable) {
		t.Errorf("New() error = %v, want ErrNoMovable", err)
	}
}

func TestNew_BadPin(t *testing.T) {
	objs := []Object{{ID: "a", Width: 1, Height: 1}}
	nets := []Net{{Pins: []Pin{{Object: 3}}}}
	_, err := New(testRegion(), objs, nets)
	if !errors.Is(err, ErrBadPin) {
		t.Errorf("New() error = %v, want ErrBadPin", err)
	}
}

func TestNew_DuplicateID(t *testing.T) {
	objs := []Object{{ID: "a"}, {ID: "a"}}
	_, err := New(testRegion(), objs, nil)
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("New() error = %v, want ErrDuplicateID", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	objs := []Object{{ID: "a", Width: 2, Height: 3}}
	nets := []Net{{Pins: []Pin{{Object: 0}}, Weight: -1}}
	nl, err := New(testRegion(), objs, nets)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := nl.Objects[0].Inflation; got != 1 {
		t.Errorf("Inflation = %v, want 1", got)
	}
	if got := nl.Objects[0].DensityWeight; got != 1 {
		t.Errorf("DensityWeight = %v, want 1", got)
	}
	if got := nl.Nets[0].Weight; got != 1 {
		t.Errorf("Weight = %v, want 1", got)
	}
}

func TestHPWL(t *testing.T) {
	objs := []Object{
		{ID: "a", Width: 2, Height: 2, X: 10, Y: 10},
		{ID: "b", Width: 2, Height: 2, X: 40, Y: 20},
	}
	nets := []Net{
		{Pins: []Pin{{Object: 0}, {Object: 1}}, Weight: 2},
		{Pins: []Pin{{Object: 0}}}, // single-pin net contributes nothing
	}
	nl, err := New(testRegion(), objs, nets)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// bbox is 30 wide, 10 tall, weight 2.
	want := 2.0 * (30 + 10)
	if got := nl.HPWL(); math.Abs(got-want) > 1e-12 {
		t.Errorf("HPWL() = %v, want %v", got, want)
	}
}

func TestHPWL_PinOffsets(t *testing.T) {
	objs := []Object{
		{ID: "a", Width: 4, Height: 4, X: 10, Y: 10},
		{ID: "b", Width: 4, Height: 4, X: 20, Y: 10},
	}
	nets := []Net{{
		Pins: []Pin{{Object: 0, OffX: 2}, {Object: 1, OffX: -2}},
	}}
	nl, err := New(testRegion(), objs, nets)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// pin positions are 12 and 18: span 6, no vertical extent.
	if got, want := nl.HPWL(), 6.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("HPWL() = %v, want %v", got, want)
	}
}

func TestClampToRegion(t *testing.T) {
	objs := []Object{
		{ID: "a", Width: 1, Height: 1, X: -5, Y: 130},
		{ID: "f", Width: 1, Height: 1, X: 200, Y: 200, Fixed: true},
	}
	nl, err := New(testRegion(), objs, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	nl.ClampToRegion()

	if x, y := nl.Objects[0].X, nl.Objects[0].Y; x != 0 || y != 100 {
		t.Errorf("movable clamped to (%v, %v), want (0, 100)", x, y)
	}
	if x, y := nl.Objects[1].X, nl.Objects[1].Y; x != 200 || y != 200 {
		t.Errorf("fixed object moved to (%v, %v), want (200, 200)", x, y)
	}
}

func TestClone_Isolated(t *testing.T) {
	objs := []Object{{ID: "a", Width: 1, Height: 1, X: 5, Y: 5}}
	nets := []Net{{Pins: []Pin{{Object: 0}}}}
	nl, err := New(testRegion(), objs, nets)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	cp := nl.Clone()
	cp.Objects[0].X = 99
	cp.Nets[0].Weight = 42

	if nl.Objects[0].X != 5 {
		t.Errorf("original X = %v after clone mutation, want 5", nl.Objects[0].X)
	}
	if nl.Nets[0].Weight != 1 {
		t.Errorf("original Weight = %v after clone mutation, want 1", nl.Nets[0].Weight)
	}
}

func TestPositionsRoundTrip(t *testing.T) {
	objs := []Object{
		{ID: "a", Width: 1, Height: 1, X: 1, Y: 2},
		{ID: "f", Width: 1, Height: 1, X: 9, Y: 9, Fixed: true},
		{ID: "b", Width: 1, Height: 1, X: 3, Y: 4},
	}
	nl, err := New(testRegion(), objs, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	xs := make([]float64, nl.NumMovable())
	ys := make([]float64, nl.NumMovable())
	nl.Positions(xs, ys)

	xs[0], ys[0] = 11, 12
	nl.SetPositions(xs, ys)

	if nl.Objects[0].X != 11 || nl.Objects[0].Y != 12 {
		t.Errorf("object a at (%v, %v), want (11, 12)", nl.Objects[0].X, nl.Objects[0].Y)
	}
	if nl.Objects[1].X != 9 {
		t.Errorf("fixed object moved: X = %v, want 9", nl.Objects[1].X)
	}
}
