package sparse

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Result reports the outcome of a BiCGSTAB solve. Non-convergence is not an
// error: the best available iterate is always returned and the caller
// decides whether it is good enough.
type Result struct {
	// Converged is true when the residual dropped below the tolerance.
	Converged bool
	// Iterations is the number of inner iterations performed.
	Iterations int
	// Residual is the final relative residual norm.
	Residual float64
}

// BiCGSTAB solves M x = b for x using the bi-conjugate gradient stabilized
// method, without preconditioning. x holds the initial guess on entry and
// the best iterate on return. maxIter caps inner iterations; tol is the
// relative residual target.
//
// Breakdowns (rho or omega collapsing to zero) stop the iteration and
// return the current iterate with Converged reporting whether the residual
// already met the target.
func BiCGSTAB(m *CSR, x, b []float64, maxIter int, tol float64) Result {
	n := m.n
	r := make([]float64, n)
	rhat := make([]float64, n)
	v := make([]float64, n)
	p := make([]float64, n)
	s := make([]float64, n)
	t := make([]float64, n)
	tmp := make([]float64, n)

	// r = b - M x
	m.MulVecTo(tmp, x)
	copy(r, b)
	floats.AddScaled(r, -1, tmp)
	copy(rhat, r)

	normB := floats.Norm(b, 2)
	if normB == 0 {
		normB = 1
	}

	res := Result{Residual: floats.Norm(r, 2) / normB}
	if res.Residual <= tol {
		res.Converged = true
		return res
	}

	rho, alpha, omega := 1.0, 1.0, 1.0

	for iter := 0; iter < maxIter; iter++ {
		res.Iterations = iter + 1

		rhoNext := floats.Dot(rhat, r)
		if math.Abs(rhoNext) < 1e-300 {
			break // breakdown
		}

		beta := (rhoNext / rho) * (alpha / omega)
		// p = r + beta*(p - omega*v)
		floats.AddScaled(p, -omega, v)
		floats.Scale(beta, p)
		floats.Add(p, r)

		m.MulVecTo(v, p)
		den := floats.Dot(rhat, v)
		if math.Abs(den) < 1e-300 {
			break
		}
		alpha = rhoNext / den

		// s = r - alpha*v
		copy(s, r)
		floats.AddScaled(s, -alpha, v)

		if floats.Norm(s, 2)/normB <= tol {
			floats.AddScaled(x, alpha, p)
			res.Residual = floats.Norm(s, 2) / normB
			res.Converged = true
			return res
		}

		m.MulVecTo(t, s)
		tt := floats.Dot(t, t)
		if tt < 1e-300 {
			break
		}
		omega = floats.Dot(t, s) / tt
		if math.Abs(omega) < 1e-300 {
			break
		}

		// x += alpha*p + omega*s
		floats.AddScaled(x, alpha, p)
		floats.AddScaled(x, omega, s)

		// r = s - omega*t
		copy(r, s)
		floats.AddScaled(r, -omega, t)

		rho = rhoNext

		res.Residual = floats.Norm(r, 2) / normB
		if res.Residual <= tol {
			res.Converged = true
			return res
		}
	}

	return res
}
