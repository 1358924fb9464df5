package density

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/gplace-dev/gplace/pkg/netlist"
)

// Sentinel errors for grid construction.
var (
	// ErrZeroGrid is returned when a grid dimension is not positive.
	ErrZeroGrid = errors.New("bin grid dimension must be positive")

	// ErrBadTargetDensity is returned when a target density is outside (0, 1].
	ErrBadTargetDensity = errors.New("target density must be in (0, 1]")
)

// Grid partitions the placement region into nx x ny equal-size bins and
// accumulates object area into them. Bins are indexed row-major:
// bin (ix, iy) is at iy*nx + ix.
type Grid struct {
	region netlist.Region
	nx, ny int
	binW   float64
	binH   float64

	target   []float64
	occupied []float64
	overflow []float64

	padLeft, padRight float64

	// inflated movable area accumulated by the last Accumulate call;
	// the denominator of SumOverflow.
	movableArea float64
}

// NewGrid builds a grid over region with the given bin counts and a uniform
// target density.
func NewGrid(region netlist.Region, nx, ny int, targetDensity float64) (*Grid, error) {
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrZeroGrid, nx, ny)
	}
	if targetDensity <= 0 || targetDensity > 1 {
		return nil, fmt.Errorf("%w: %g", ErrBadTargetDensity, targetDensity)
	}

	g := &Grid{
		region:   region,
		nx:       nx,
		ny:       ny,
		binW:     region.Width() / float64(nx),
		binH:     region.Height() / float64(ny),
		target:   make([]float64, nx*ny),
		occupied: make([]float64, nx*ny),
		overflow: make([]float64, nx*ny),
	}
	for i := range g.target {
		g.target[i] = targetDensity
	}
	return g, nil
}

// NX returns the horizontal bin count.
func (g *Grid) NX() int { return g.nx }

// NY returns the vertical bin count.
func (g *Grid) NY() int { return g.ny }

// BinW returns the width of one bin.
func (g *Grid) BinW() float64 { return g.binW }

// BinH returns the height of one bin.
func (g *Grid) BinH() float64 { return g.binH }

// Region returns the region the grid covers.
func (g *Grid) Region() netlist.Region { return g.region }

// SetPadding sets the left/right pad margins added to every object's
// effective width during accumulation. These really belong to the physical
// design database; they sit here until it grows them.
func (g *Grid) SetPadding(left, right float64) {
	g.padLeft, g.padRight = left, right
}

// SetTargetAt overrides the target density of a single bin, for per-region
// density constraints.
func (g *Grid) SetTargetAt(ix, iy int, d float64) error {
	if d <= 0 || d > 1 {
		return fmt.Errorf("%w: %g", ErrBadTargetDensity, d)
	}
	g.target[iy*g.nx+ix] = d
	return nil
}

// BinIndex returns the bin containing the point (x, y), clamped to the
// grid.
func (g *Grid) BinIndex(x, y float64) (ix, iy int) {
	ix = int((x - g.region.MinX) / g.binW)
	iy = int((y - g.region.MinY) / g.binH)
	if ix < 0 {
		ix = 0
	} else if ix >= g.nx {
		ix = g.nx - 1
	}
	if iy < 0 {
		iy = 0
	} else if iy >= g.ny {
		iy = g.ny - 1
	}
	return ix, iy
}

// effectiveSize returns the width and height an object occupies for density
// purposes: inflation scales area, pad margins widen the footprint.
func (g *Grid) effectiveSize(o *netlist.Object) (w, h float64) {
	s := math.Sqrt(o.Inflation)
	return o.Width*s + g.padLeft + g.padRight, o.Height * s
}

// Accumulate recomputes per-bin occupied area from current object
// positions. Zero-area objects contribute nothing; objects straddling bin
// boundaries split their area proportionally to overlap. Safe to call
// repeatedly; each call starts from a zeroed grid.
func (g *Grid) Accumulate(nl *netlist.Netlist) {
	for i := range g.occupied {
		g.occupied[i] = 0
	}
	g.movableArea = 0

	for i := range nl.Objects {
		o := &nl.Objects[i]
		if o.Area() <= 0 {
			continue
		}
		w, h := o.Width, o.Height
		weight := o.DensityWeight
		if !o.Fixed {
			w, h = g.effectiveSize(o)
			g.movableArea += w * h * weight
		}
		g.spread(o.X, o.Y, w, h, weight)
	}

	g.computeOverflow()
}

// spread distributes the rectangle centered at (x, y) across the bins it
// overlaps.
func (g *Grid) spread(x, y, w, h, weight float64) {
	lx := x - w/2
	ux := x + w/2
	ly := y - h/2
	uy := y + h/2

	// Clip to the region; area outside contributes nothing.
	lx = math.Max(lx, g.region.MinX)
	ly = math.Max(ly, g.region.MinY)
	ux = math.Min(ux, g.region.MaxX)
	uy = math.Min(uy, g.region.MaxY)
	if ux <= lx || uy <= ly {
		return
	}

	ix0, iy0 := g.BinIndex(lx, ly)
	ix1, iy1 := g.BinIndex(ux, uy)

	for iy := iy0; iy <= iy1; iy++ {
		binLoY := g.region.MinY + float64(iy)*g.binH
		oy := math.Min(uy, binLoY+g.binH) - math.Max(ly, binLoY)
		if oy <= 0 {
			continue
		}
		for ix := ix0; ix <= ix1; ix++ {
			binLoX := g.region.MinX + float64(ix)*g.binW
			ox := math.Min(ux, binLoX+g.binW) - math.Max(lx, binLoX)
			if ox <= 0 {
				continue
			}
			g.occupied[iy*g.nx+ix] += ox * oy * weight
		}
	}
}

func (g *Grid) computeOverflow() {
	binArea := g.binW * g.binH
	for i := range g.overflow {
		g.overflow[i] = math.Max(0, g.occupied[i]/binArea-g.target[i])
	}
}

// Occupied returns the occupied area of bin (ix, iy).
func (g *Grid) Occupied(ix, iy int) float64 { return g.occupied[iy*g.nx+ix] }

// TotalOccupied returns the sum of occupied area over all bins.
func (g *Grid) TotalOccupied() float64 { return floats.Sum(g.occupied) }

// OverflowAt returns the overflow density of bin (ix, iy), always >= 0.
func (g *Grid) OverflowAt(ix, iy int) float64 { return g.overflow[iy*g.nx+ix] }

// MaxOverflow returns the largest per-bin overflow density.
func (g *Grid) MaxOverflow() float64 {
	if len(g.overflow) == 0 {
		return 0
	}
	return floats.Max(g.overflow)
}

// SumOverflow returns the area-weighted aggregate overflow: total
// overflowing area divided by the movable area from the last Accumulate.
// Zero when nothing movable has been accumulated.
func (g *Grid) SumOverflow() float64 {
	if g.movableArea <= 0 {
		return 0
	}
	binArea := g.binW * g.binH
	var sum float64
	for _, ov := range g.overflow {
		sum += ov * binArea
	}
	return sum / g.movableArea
}

// ForceAt returns the density force at point (x, y): the negated central
// difference of the overflow field, pointing from crowded bins toward free
// ones. Points in a flat field get a zero force.
func (g *Grid) ForceAt(x, y float64) (fx, fy float64) {
	ix, iy := g.BinIndex(x, y)

	left := g.overflow[iy*g.nx+max(ix-1, 0)]
	right := g.overflow[iy*g.nx+min(ix+1, g.nx-1)]
	down := g.overflow[max(iy-1, 0)*g.nx+ix]
	up := g.overflow[min(iy+1, g.ny-1)*g.nx+ix]

	fx = -(right - left) / (2 * g.binW)
	fy = -(up - down) / (2 * g.binH)
	return fx, fy
}

// BoundaryBin reports whether bin (ix, iy) touches the region edge. Used by
// routability feedback in skip-I/O mode.
func (g *Grid) BoundaryBin(ix, iy int) bool {
	return ix == 0 || iy == 0 || ix == g.nx-1 || iy == g.ny-1
}
