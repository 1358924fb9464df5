package sparse

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestBuilder_SumsDuplicates(t *testing.T) {
	b := NewBuilder(3)
	b.Add(0, 0, 1)
	b.Add(0, 0, 2)
	b.Add(1, 2, -1)
	b.Add(2, 1, 4)
	m := b.Build()

	if got := m.At(0, 0); got != 3 {
		t.Errorf("At(0, 0) = %v, want 3 (duplicates summed)", got)
	}
	if got := m.At(1, 2); got != -1 {
		t.Errorf("At(1, 2) = %v, want -1", got)
	}
	if got := m.NNZ(); got != 3 {
		t.Errorf("NNZ() = %v, want 3", got)
	}
}

func TestBuilder_IgnoresOutOfRange(t *testing.T) {
	b := NewBuilder(2)
	b.Add(-1, 0, 5)
	b.Add(0, 7, 5)
	b.Add(1, 1, 5)
	m := b.Build()

	if got := m.NNZ(); got != 1 {
		t.Errorf("NNZ() = %v, want 1 (out-of-range adds ignored)", got)
	}
}

func TestCSR_MulVec(t *testing.T) {
	// | 2 -1  0 |   |1|   | 1 |
	// |-1  2 -1 | * |1| = | 0 |
	// | 0 -1  2 |   |1|   | 1 |
	b := NewBuilder(3)
	for i := 0; i < 3; i++ {
		b.Add(i, i, 2)
	}
	b.Add(0, 1, -1)
	b.Add(1, 0, -1)
	b.Add(1, 2, -1)
	b.Add(2, 1, -1)
	m := b.Build()

	dst := make([]float64, 3)
	m.MulVecTo(dst, []float64{1, 1, 1})

	want := []float64{1, 0, 1}
	for i := range want {
		if math.Abs(dst[i]-want[i]) > 1e-12 {
			t.Errorf("MulVecTo[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
}

func laplacian(n int) *CSR {
	b := NewBuilder(n)
	for i := 0; i < n; i++ {
		b.Add(i, i, 2.5)
		if i > 0 {
			b.Add(i, i-1, -1)
		}
		if i < n-1 {
			b.Add(i, i+1, -1)
		}
	}
	return b.Build()
}

func TestBiCGSTAB_SolvesSPDSystem(t *testing.T) {
	const n = 50
	m := laplacian(n)

	// manufactured solution
	want := make([]float64, n)
	for i := range want {
		want[i] = float64(i%7) - 3
	}
	rhs := make([]float64, n)
	m.MulVecTo(rhs, want)

	x := make([]float64, n)
	res := BiCGSTAB(m, x, rhs, 200, 1e-10)

	if !res.Converged {
		t.Fatalf("BiCGSTAB did not converge: residual %v after %d iterations", res.Residual, res.Iterations)
	}
	for i := range want {
		if math.Abs(x[i]-want[i]) > 1e-6 {
			t.Fatalf("x[%d] = %v, want %v", i, x[i], want[i])
		}
	}
}

func TestBiCGSTAB_NonConvergenceReturnsBestIterate(t *testing.T) {
	const n = 50
	m := laplacian(n)
	rhs := make([]float64, n)
	for i := range rhs {
		rhs[i] = 1
	}

	x := make([]float64, n)
	res := BiCGSTAB(m, x, rhs, 2, 1e-14) // cap far too low

	if res.Converged {
		t.Fatalf("expected non-convergence with 2 iterations")
	}
	// the iterate must still be an improvement over the zero guess.
	tmp := make([]float64, n)
	m.MulVecTo(tmp, x)
	var resid float64
	for i := range tmp {
		d := tmp[i] - rhs[i]
		resid += d * d
	}
	var zero float64
	for i := range rhs {
		zero += rhs[i] * rhs[i]
	}
	if resid >= zero {
		t.Errorf("best iterate residual %v not better than zero guess %v", resid, zero)
	}
}

func TestBiCGSTAB_ZeroRHS(t *testing.T) {
	m := laplacian(4)
	x := make([]float64, 4)
	res := BiCGSTAB(m, x, make([]float64, 4), 10, 1e-12)
	if !res.Converged {
		t.Errorf("zero RHS with zero guess must converge immediately, got %+v", res)
	}
}

func TestCSR_MatchesDenseReference(t *testing.T) {
	m := laplacian(6)

	dense := mat.NewDense(6, 6, nil)
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			dense.Set(i, j, m.At(i, j))
		}
	}

	x := []float64{1, -2, 3, -4, 5, -6}
	got := make([]float64, 6)
	m.MulVecTo(got, x)

	var ref mat.VecDense
	ref.MulVec(dense, mat.NewVecDense(6, x))

	for i := 0; i < 6; i++ {
		if math.Abs(got[i]-ref.AtVec(i)) > 1e-12 {
			t.Errorf("MulVecTo[%d] = %v, dense reference %v", i, got[i], ref.AtVec(i))
		}
	}
}
