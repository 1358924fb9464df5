// Package sparse provides a compressed sparse row matrix and the
// bi-conjugate gradient stabilized solver used by initial placement.
//
// Systems are assembled as triplets with [Builder.Add] and compressed once
// with [Builder.Build]; duplicate entries are summed, which lets callers
// stamp spring edges without tracking prior contributions. The resulting
// [CSR] implements gonum's mat.Matrix, so tests can cross-check against
// dense reference math.
package sparse

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Builder accumulates triplet entries for a square system.
type Builder struct {
	n    int
	rows []int
	cols []int
	vals []float64
}

// NewBuilder creates a builder for an n x n system.
func NewBuilder(n int) *Builder {
	return &Builder{n: n}
}

// N returns the system dimension.
func (b *Builder) N() int { return b.n }

// Add accumulates v at (row, col). Out-of-range indices are ignored so
// callers can stamp edges that touch fixed terms without branching.
func (b *Builder) Add(row, col int, v float64) {
	if row < 0 || row >= b.n || col < 0 || col >= b.n || v == 0 {
		return
	}
	b.rows = append(b.rows, row)
	b.cols = append(b.cols, col)
	b.vals = append(b.vals, v)
}

// Build compresses the accumulated triplets into CSR form, summing
// duplicates. The builder can be reused afterwards by calling Reset.
func (b *Builder) Build() *CSR {
	order := make([]int, len(b.vals))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		oi, oj := order[i], order[j]
		if b.rows[oi] != b.rows[oj] {
			return b.rows[oi] < b.rows[oj]
		}
		return b.cols[oi] < b.cols[oj]
	})

	m := &CSR{
		n:      b.n,
		rowPtr: make([]int, b.n+1),
	}
	prevRow, prevCol := -1, -1
	for _, k := range order {
		r, c, v := b.rows[k], b.cols[k], b.vals[k]
		if r == prevRow && c == prevCol {
			m.vals[len(m.vals)-1] += v
			continue
		}
		m.cols = append(m.cols, c)
		m.vals = append(m.vals, v)
		m.rowPtr[r+1]++
		prevRow, prevCol = r, c
	}
	for i := 1; i <= b.n; i++ {
		m.rowPtr[i] += m.rowPtr[i-1]
	}
	return m
}

// Reset clears accumulated triplets, keeping capacity.
func (b *Builder) Reset() {
	b.rows = b.rows[:0]
	b.cols = b.cols[:0]
	b.vals = b.vals[:0]
}

// CSR is a square sparse matrix in compressed sparse row form.
type CSR struct {
	n      int
	rowPtr []int
	cols   []int
	vals   []float64
}

// Dims returns the matrix dimensions. Part of mat.Matrix.
func (m *CSR) Dims() (r, c int) { return m.n, m.n }

// At returns the element at (i, j). Part of mat.Matrix. Rows are sorted by
// column, so this is a linear scan of one row; it exists for testing and
// interop, not for hot paths.
func (m *CSR) At(i, j int) float64 {
	for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
		if m.cols[k] == j {
			return m.vals[k]
		}
	}
	return 0
}

// T returns the transpose view. Part of mat.Matrix.
func (m *CSR) T() mat.Matrix { return mat.Transpose{Matrix: m} }

// NNZ returns the number of stored entries.
func (m *CSR) NNZ() int { return len(m.vals) }

// MulVecTo computes dst = M * x. dst and x must both have length N and must
// not alias.
func (m *CSR) MulVecTo(dst, x []float64) {
	for i := 0; i < m.n; i++ {
		var sum float64
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			sum += m.vals[k] * x[m.cols[k]]
		}
		dst[i] = sum
	}
}
