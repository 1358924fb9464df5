package netlist

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors for netlist construction.
var (
	// ErrEmptyRegion is returned when the placement region has non-positive extent.
	ErrEmptyRegion = errors.New("placement region has non-positive extent")

	// ErrNoMovable is returned when no object in the netlist is movable.
	ErrNoMovable = errors.New("netlist has no movable objects")

	// ErrBadPin is returned when a pin references an object index that does not exist.
	ErrBadPin = errors.New("pin references unknown object")

	// ErrDuplicateID is returned when two objects share an ID.
	ErrDuplicateID = errors.New("duplicate object id")
)

// Region is the fixed placement area. Objects are placed by center
// coordinate inside [MinX, MaxX] x [MinY, MaxY].
type Region struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Width returns the horizontal extent of the region.
func (r Region) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent of the region.
func (r Region) Height() float64 { return r.MaxY - r.MinY }

// Contains reports whether the point (x, y) lies inside the region.
func (r Region) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Object is a placeable cell.
//
// X and Y are the center coordinates. Inflation is a multiplier on the
// object's effective area, set by routability feedback; it is always >= 1.
// DensityWeight scales the object's contribution to bin occupancy.
type Object struct {
	ID     string
	Width  float64
	Height float64
	X, Y   float64
	Fixed  bool

	Inflation     float64
	DensityWeight float64
}

// Area returns the raw (uninflated) area of the object.
func (o *Object) Area() float64 { return o.Width * o.Height }

// Pin is an immutable connection point: an object index plus an offset
// from the object's center.
type Pin struct {
	Object   int
	OffX     float64
	OffY     float64
}

// Net connects two or more pins. Weight starts uniform and is raised by
// timing feedback; it never drops below the configured floor.
type Net struct {
	Pins   []Pin
	Weight float64
}

// Netlist is the placement database view the placer works on.
type Netlist struct {
	Region  Region
	Objects []Object
	Nets    []Net

	movable []int
	index   map[string]int
}

// New builds a validated netlist. Objects with zero Inflation or
// DensityWeight get the neutral value 1. Nets with non-positive weight get
// weight 1.
func New(region Region, objects []Object, nets []Net) (*Netlist, error) {
	if region.Width() <= 0 || region.Height() <= 0 {
		return nil, fmt.Errorf("%w: %.3g x %.3g", ErrEmptyRegion, region.Width(), region.Height())
	}

	nl := &Netlist{
		Region:  region,
		Objects: objects,
		Nets:    nets,
		index:   make(map[string]int, len(objects)),
	}

	for i := range nl.Objects {
		o := &nl.Objects[i]
		if _, dup := nl.index[o.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, o.ID)
		}
		nl.index[o.ID] = i
		if o.Inflation < 1 {
			o.Inflation = 1
		}
		if o.DensityWeight <= 0 {
			o.DensityWeight = 1
		}
		if !o.Fixed {
			nl.movable = append(nl.movable, i)
		}
	}
	if len(nl.movable) == 0 {
		return nil, ErrNoMovable
	}

	for ni := range nl.Nets {
		n := &nl.Nets[ni]
		if n.Weight <= 0 {
			n.Weight = 1
		}
		for _, p := range n.Pins {
			if p.Object < 0 || p.Object >= len(nl.Objects) {
				return nil, fmt.Errorf("%w: net %d, object index %d", ErrBadPin, ni, p.Object)
			}
		}
	}

	return nl, nil
}

// Lookup returns the index of the object with the given ID.
func (nl *Netlist) Lookup(id string) (int, bool) {
	i, ok := nl.index[id]
	return i, ok
}

// Movable returns the indices of movable objects, in netlist order.
// The returned slice is shared; callers must not modify it.
func (nl *Netlist) Movable() []int { return nl.movable }

// NumMovable returns the number of movable objects.
func (nl *Netlist) NumMovable() int { return len(nl.movable) }

// PinPos returns the absolute position of a pin given current object
// centers.
func (nl *Netlist) PinPos(p Pin) (x, y float64) {
	o := &nl.Objects[p.Object]
	return o.X + p.OffX, o.Y + p.OffY
}

// NetBBox returns the bounding box of a net's pins at current positions.
// ok is false for nets with fewer than one pin.
func (nl *Netlist) NetBBox(n *Net) (minX, minY, maxX, maxY float64, ok bool) {
	if len(n.Pins) == 0 {
		return 0, 0, 0, 0, false
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range n.Pins {
		x, y := nl.PinPos(p)
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}
	return minX, minY, maxX, maxY, true
}

// HPWL returns the weighted half-perimeter wire length over all nets.
// Single-pin nets contribute nothing.
func (nl *Netlist) HPWL() float64 {
	var sum float64
	for i := range nl.Nets {
		n := &nl.Nets[i]
		if len(n.Pins) < 2 {
			continue
		}
		minX, minY, maxX, maxY, ok := nl.NetBBox(n)
		if !ok {
			continue
		}
		sum += n.Weight * ((maxX - minX) + (maxY - minY))
	}
	return sum
}

// ClampToRegion moves every movable object center back inside the region.
// Fixed objects are left alone even when they sit outside.
func (nl *Netlist) ClampToRegion() {
	r := nl.Region
	for _, i := range nl.movable {
		o := &nl.Objects[i]
		o.X = math.Min(math.Max(o.X, r.MinX), r.MaxX)
		o.Y = math.Min(math.Max(o.Y, r.MinY), r.MaxY)
	}
}

// MovableArea returns the total raw area of movable objects.
func (nl *Netlist) MovableArea() float64 {
	var sum float64
	for _, i := range nl.movable {
		sum += nl.Objects[i].Area()
	}
	return sum
}

// Positions copies the centers of movable objects into dst, laid out as
// x values followed by nothing; dstX and dstY must each have length
// NumMovable.
func (nl *Netlist) Positions(dstX, dstY []float64) {
	for k, i := range nl.movable {
		dstX[k] = nl.Objects[i].X
		dstY[k] = nl.Objects[i].Y
	}
}

// SetPositions writes movable object centers from the per-axis slices,
// which must each have length NumMovable.
func (nl *Netlist) SetPositions(xs, ys []float64) {
	for k, i := range nl.movable {
		nl.Objects[i].X = xs[k]
		nl.Objects[i].Y = ys[k]
	}
}

// Clone returns a deep copy of the netlist. Snapshots handed to observers
// use this so callbacks can never mutate live session state.
func (nl *Netlist) Clone() *Netlist {
	cp := &Netlist{
		Region:  nl.Region,
		Objects: append([]Object(nil), nl.Objects...),
		Nets:    make([]Net, len(nl.Nets)),
		movable: append([]int(nil), nl.movable...),
		index:   make(map[string]int, len(nl.index)),
	}
	for i := range nl.Nets {
		cp.Nets[i] = Net{
			Pins:   append([]Pin(nil), nl.Nets[i].Pins...),
			Weight: nl.Nets[i].Weight,
		}
	}
	for id, i := range nl.index {
		cp.index[id] = i
	}
	return cp
}
