package nesterov

import "math"

// field holds one per-movable-object value pair per axis.
type field struct {
	X, Y []float64
}

func newField(n int) field {
	return field{X: make([]float64, n), Y: make([]float64, n)}
}

func (f field) copyFrom(src field) {
	copy(f.X, src.X)
	copy(f.Y, src.Y)
}

func (f field) finite() bool {
	for i := range f.X {
		if math.IsNaN(f.X[i]) || math.IsInf(f.X[i], 0) ||
			math.IsNaN(f.Y[i]) || math.IsInf(f.Y[i], 0) {
			return false
		}
	}
	return true
}

// waNet caches the per-net exponential sums of the weighted-average
// wirelength model for one axis pair. All sums use exponents shifted by
// the net extreme so they stay in (0, 1].
type waNet struct {
	minX, maxX float64
	minY, maxY float64

	sumMaxX, sumWMaxX float64 // sum a_i, sum x_i a_i with a_i = exp(c(x_i - maxX))
	sumMinX, sumWMinX float64 // sum b_i, sum x_i b_i with b_i = exp(c(minX - x_i))
	sumMaxY, sumWMaxY float64
	sumMinY, sumWMinY float64

	skip bool // true for nets with fewer than two pins
}

// updateWA recomputes the per-net WA sums for net ni at current positions.
// c is the wirelength coefficient.
func (o *Optimizer) updateWA(ni int, c float64) {
	n := &o.nl.Nets[ni]
	w := &o.netWA[ni]
	*w = waNet{}
	if len(n.Pins) < 2 {
		w.skip = true
		return
	}

	w.minX, w.minY = math.Inf(1), math.Inf(1)
	w.maxX, w.maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range n.Pins {
		x, y := o.nl.PinPos(p)
		w.minX = math.Min(w.minX, x)
		w.maxX = math.Max(w.maxX, x)
		w.minY = math.Min(w.minY, y)
		w.maxY = math.Max(w.maxY, y)
	}

	for _, p := range n.Pins {
		x, y := o.nl.PinPos(p)

		ax := math.Exp(c * (x - w.maxX))
		bx := math.Exp(c * (w.minX - x))
		w.sumMaxX += ax
		w.sumWMaxX += x * ax
		w.sumMinX += bx
		w.sumWMinX += x * bx

		ay := math.Exp(c * (y - w.maxY))
		by := math.Exp(c * (w.minY - y))
		w.sumMaxY += ay
		w.sumWMaxY += y * ay
		w.sumMinY += by
		w.sumWMinY += y * by
	}
}

// waPinGrad returns the derivative of the net's WA wirelength with respect
// to one pin coordinate on one axis, given the cached sums.
func waPinGrad(x, lo, hi, sMax, wMax, sMin, wMin, c float64) float64 {
	a := math.Exp(c * (x - hi))
	b := math.Exp(c * (lo - x))

	dMax := a * (sMax*(1+c*x) - c*wMax) / (sMax * sMax)
	dMin := b * (sMin*(1-c*x) + c*wMin) / (sMin * sMin)
	return dMax - dMin
}

// wirelengthGrad fills dst with the WA wirelength force (the negated
// wirelength gradient) for every movable object at current positions.
// Per-net sums must be refreshed first; both passes run on the kernel.
func (o *Optimizer) wirelengthGrad(dst field, c float64) {
	o.krn.Run(len(o.nl.Nets), func(ni int) {
		o.updateWA(ni, c)
	})

	movable := o.nl.Movable()
	o.krn.Run(len(movable), func(k int) {
		var gx, gy float64
		for _, pr := range o.objPins[movable[k]] {
			w := &o.netWA[pr.net]
			if w.skip {
				continue
			}
			weight := o.nl.Nets[pr.net].Weight
			x, y := o.nl.PinPos(pr.pin)
			gx += weight * waPinGrad(x, w.minX, w.maxX, w.sumMaxX, w.sumWMaxX, w.sumMinX, w.sumWMinX, c)
			gy += weight * waPinGrad(y, w.minY, w.maxY, w.sumMaxY, w.sumWMaxY, w.sumMinY, w.sumWMinY, c)
		}
		dst.X[k] = -gx
		dst.Y[k] = -gy
	})
}

// densityGrad fills dst with the density force for every movable object at
// current positions: the overflow-field gradient scaled by the object's
// effective area. Zero-area objects are skipped.
func (o *Optimizer) densityGrad(dst field) {
	movable := o.nl.Movable()
	o.krn.Run(len(movable), func(k int) {
		obj := &o.nl.Objects[movable[k]]
		area := obj.Area() * obj.Inflation * obj.DensityWeight
		if area <= 0 {
			dst.X[k], dst.Y[k] = 0, 0
			return
		}
		fx, fy := o.grid.ForceAt(obj.X, obj.Y)
		dst.X[k] = fx * area
		dst.Y[k] = fy * area
	})
}

// gradSumAbs returns the L1 norm of a field, used to balance the initial
// density penalty against the wirelength force.
func gradSumAbs(f field) float64 {
	var sum float64
	for i := range f.X {
		sum += math.Abs(f.X[i]) + math.Abs(f.Y[i])
	}
	return sum
}
