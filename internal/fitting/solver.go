package fitting

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/linlab/internal/errs"
)

const (
	initialDamping = 1e-3
	minDamping     = 1e-12
	maxDamping     = 1e16
	minCurvature   = 1e-12
)

type solution struct {
	params     []float64
	iterations int
	cost       float64
}

// solver is a Levenberg-Marquardt least squares solver with a
// forward-difference Jacobian and Marquardt diagonal scaling.
type solver struct {
	maxIterations int
	tolerance     float64
}

func (s solver) solve(ctx context.Context, f Func, x, y, p0 []float64) (solution, error) {
	n, k := len(x), len(p0)
	p := append([]float64(nil), p0...)
	r := make([]float64, n)
	cost, ok := residuals(f, x, y, p, r)
	if !ok {
		return solution{}, errors.Wrap(errs.ErrDomain, "model undefined at the starting guess")
	}

	jac := mat.NewDense(n, k, nil)
	jtj := mat.NewSymDense(k, nil)
	damped := mat.NewSymDense(k, nil)
	grad := mat.NewVecDense(k, nil)
	var step mat.VecDense
	var chol mat.Cholesky
	trial := make([]float64, k)
	rTrial := make([]float64, n)
	lambda := initialDamping

	for iter := 1; iter <= s.maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return solution{}, errors.Wrapf(errs.ErrNoConvergence, "stopped after %d iterations: %v", iter-1, err)
		}
		if cost == 0 {
			return solution{params: p, iterations: iter - 1, cost: cost}, nil
		}
		if !jacobian(f, x, y, r, p, jac) {
			return solution{}, errors.Wrap(errs.ErrDomain, "non-finite jacobian")
		}
		jtj.SymOuterK(1, jac.T())
		grad.MulVec(jac.T(), mat.NewVecDense(n, r))
		if mat.Norm(grad, math.Inf(1)) == 0 {
			return solution{params: p, iterations: iter, cost: cost}, nil
		}

		for {
			damped.CopySym(jtj)
			for j := 0; j < k; j++ {
				d := jtj.At(j, j)
				damped.SetSym(j, j, d+lambda*math.Max(d, minCurvature))
			}

			accepted := false
			if chol.Factorize(damped) && chol.SolveVecTo(&step, grad) == nil {
				for j := range trial {
					trial[j] = p[j] + step.AtVec(j)
				}
				if next, ok := residuals(f, x, y, trial, rTrial); ok && next < cost {
					decrease := cost - next
					copy(p, trial)
					copy(r, rTrial)
					cost = next
					lambda = math.Max(lambda/10, minDamping)
					if decrease <= s.tolerance*cost || mat.Norm(&step, 2) <= s.tolerance*(floats.Norm(p, 2)+s.tolerance) {
						return solution{params: p, iterations: iter, cost: cost}, nil
					}
					accepted = true
				}
			}
			if accepted {
				break
			}
			lambda *= 10
			if lambda > maxDamping {
				// No descent direction is left, so p is stationary.
				return solution{params: p, iterations: iter, cost: cost}, nil
			}
		}
	}
	return solution{}, errors.Wrapf(errs.ErrNoConvergence, "no convergence in %d iterations", s.maxIterations)
}

// residuals fills r with y - f(x, p) and returns the sum of squares. ok is
// false when any value is not finite.
func residuals(f Func, x, y, p, r []float64) (float64, bool) {
	sum := 0.0
	for i := range x {
		r[i] = y[i] - f(x[i], p)
		sum += r[i] * r[i]
	}
	return sum, !math.IsNaN(sum) && !math.IsInf(sum, 0)
}

// jacobian fills jac with d f(x_i, p)/d p_j by forward differences around
// the model values y - r.
func jacobian(f Func, x, y, r, p []float64, jac *mat.Dense) bool {
	shifted := append([]float64(nil), p...)
	for j := range p {
		h := math.Sqrt(2.2e-16) * math.Max(math.Abs(p[j]), 1)
		shifted[j] = p[j] + h
		for i := range x {
			d := (f(x[i], shifted) - (y[i] - r[i])) / h
			if math.IsNaN(d) || math.IsInf(d, 0) {
				return false
			}
			jac.Set(i, j, d)
		}
		shifted[j] = p[j]
	}
	return true
}
