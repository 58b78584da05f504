package fitting

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/linlab/internal/dataset"
	"github.com/san-kum/linlab/internal/errs"
)

// noisy samples f at xs and adds Gaussian noise of the given standard
// deviation from a generator seeded with seed.
func noisy(t *testing.T, xs []float64, f func(float64) float64, sigma float64, seed int64) dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = f(x) + sigma*rng.NormFloat64()
	}
	d, err := dataset.FromValues("x", xs, "y", ys)
	require.NoError(t, err)
	return d
}

func line(x float64) float64 { return 2*x + 3 }

// straightLine returns y = 2x + 3 with noise of standard deviation 0.05.
func straightLine(t *testing.T, xs []float64) dataset.Dataset {
	t.Helper()
	return noisy(t, xs, line, 0.05, 1)
}

func span(from, to float64) []float64 {
	var xs []float64
	for x := from; x <= to; x++ {
		xs = append(xs, x)
	}
	return xs
}

// TestCatalogue verifies names, arities and the all-ones starting guess.
func TestCatalogue(t *testing.T) {
	require.Equal(t, []string{
		"Linear", "Quadratic", "Cubic",
		"Exponential increase", "Exponential decrease",
		"Logarithmic", "Logistic", "Gaussian", "Sinusoidal",
	}, ModelNames())

	arity := map[string]int{
		"Linear": 2, "Quadratic": 3, "Cubic": 4,
		"Exponential increase": 3, "Exponential decrease": 3,
		"Logarithmic": 3, "Logistic": 3, "Gaussian": 3, "Sinusoidal": 4,
	}
	for _, m := range Catalogue {
		require.Equal(t, arity[m.Name], m.Arity(), m.Name)
		for _, g := range m.Guess() {
			require.Equal(t, 1.0, g)
		}
	}

	m, ok := ModelByName("gaussian")
	require.True(t, ok)
	require.Equal(t, "Gaussian", m.Name)
	_, ok = ModelByName("spline")
	require.False(t, ok)
}

// TestModelEval spot checks the closed forms.
func TestModelEval(t *testing.T) {
	eval := func(name string, x float64, p ...float64) float64 {
		m, ok := ModelByName(name)
		require.True(t, ok)
		return m.Eval(x, p)
	}

	require.InDelta(t, 7.0, eval("Linear", 2, 2, 3), 1e-12)
	require.InDelta(t, 17.0, eval("Quadratic", 2, 3, 2, 1), 1e-12)
	require.InDelta(t, 15.0, eval("Cubic", 2, 1, 1, 1, 1), 1e-12)
	require.InDelta(t, 2*math.Exp(1)+1, eval("Exponential increase", 1, 2, 1, 1), 1e-12)
	require.InDelta(t, 2*math.Exp(-1)+1, eval("Exponential decrease", 1, 2, 1, 1), 1e-12)
	require.InDelta(t, 3*math.Log(2)+1, eval("Logarithmic", 1, 3, 2, 1), 1e-12)
	require.InDelta(t, 2.0, eval("Logistic", 5, 4, 1, 5), 1e-12)
	require.InDelta(t, 3.0, eval("Gaussian", 1, 3, 1, 2), 1e-12)
	require.InDelta(t, 1.0, eval("Sinusoidal", 0, 2, 1, 0, 1), 1e-12)
}

// TestLogarithmicClamp verifies non-positive arguments evaluate to the
// additive constant.
func TestLogarithmicClamp(t *testing.T) {
	m, _ := ModelByName("Logarithmic")
	p := []float64{2, 1, 5}

	require.Equal(t, 5.0, m.Eval(-1, p))
	require.Equal(t, 5.0, m.Eval(0, p))
	require.InDelta(t, 5.0, m.Eval(1, p), 1e-12)
	require.False(t, m.Domain(0, p))
	require.True(t, m.Domain(0.5, p))
	require.True(t, m.Domain(-1, []float64{2, -1, 5}))
}

// TestFitAllPicksLinear verifies a straight line with Gaussian noise is
// attributed to the linear model at several noise levels.
func TestFitAllPicksLinear(t *testing.T) {
	for _, sigma := range []float64{0.01, 0.05, 0.1, 0.5, 2} {
		t.Run(fmt.Sprintf("sigma=%g", sigma), func(t *testing.T) {
			d := noisy(t, span(1, 20), line, sigma, 1)
			f := NewFitter(DefaultOptions())

			results, err := f.FitAll(context.Background(), d)
			require.NoError(t, err)
			require.Len(t, results, len(Catalogue))

			best, err := f.Best(results)
			require.NoError(t, err)
			require.Equal(t, "Linear", best.Model)
			require.Equal(t, 20, best.Points)
			require.Greater(t, best.RSquared, 0.9)
			require.InDelta(t, 2.0, best.Params[0], 0.25*sigma)
			require.InDelta(t, 3.0, best.Params[1], 3*sigma)

			m, _ := ModelByName(best.Model)
			require.Less(t, RMSE(m, best.Params, d), 2*sigma)
		})
	}
}

// TestFitAllPicksQuadratic verifies that genuine curvature still wins over
// the straight line.
func TestFitAllPicksQuadratic(t *testing.T) {
	parabola := func(x float64) float64 { return 0.5*x*x - x + 2 }
	d := noisy(t, span(1, 20), parabola, 0.1, 2)
	f := NewFitter(DefaultOptions())

	results, err := f.FitAll(context.Background(), d)
	require.NoError(t, err)

	best, err := f.Best(results)
	require.NoError(t, err)
	require.Equal(t, "Quadratic", best.Model)
	require.InDelta(t, 0.5, best.Params[0], 1e-2)
	require.InDelta(t, -1.0, best.Params[1], 0.2)
	require.InDelta(t, 2.0, best.Params[2], 0.5)
}

// TestFitAllLogarithmicMixedSigns verifies that points outside the
// logarithm's domain are clamped instead of failing the fit.
func TestFitAllLogarithmicMixedSigns(t *testing.T) {
	xs := []float64{-2, -1, 0.5, 1, 2, 3}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 1
		if x > 0 {
			ys[i] = 2*math.Log(x) + 1
		}
	}
	d, err := dataset.FromValues("x", xs, "y", ys)
	require.NoError(t, err)

	logarithmic, _ := ModelByName("Logarithmic")
	results, err := NewFitter(DefaultOptions(), logarithmic).FitAll(context.Background(), d)
	require.NoError(t, err)

	r := results["Logarithmic"]
	require.True(t, r.OK(), "%v", r.Err)
	require.Greater(t, r.RSquared, 0.999)
	require.InDelta(t, 2.0, r.Params[0], 1e-3)
	require.InDelta(t, 1.0, r.Params[1], 1e-3)
	require.InDelta(t, 1.0, r.Params[2], 1e-3)
}

// TestFitAllIsolatesFailures verifies that an undefined model fails alone.
func TestFitAllIsolatesFailures(t *testing.T) {
	d := straightLine(t, span(-10, -1))
	results, err := NewFitter(DefaultOptions()).FitAll(context.Background(), d)
	require.NoError(t, err)

	logFit := results["Logarithmic"]
	require.NotNil(t, logFit)
	require.Error(t, logFit.Err)
	require.True(t, errors.Is(logFit.Err, errs.ErrDomain))

	var ff *errs.FitFailure
	require.True(t, errors.As(logFit.Err, &ff))
	require.Equal(t, "Logarithmic", ff.Model)

	for _, name := range []string{"Linear", "Quadratic"} {
		require.True(t, results[name].OK(), name)
		require.Greater(t, results[name].RSquared, 0.95, name)
	}
}

// TestFitAllNoUsableModel verifies the error when every model fails.
func TestFitAllNoUsableModel(t *testing.T) {
	broken := Model{
		Name:   "Broken",
		Params: []string{"a"},
		Eval:   func(float64, []float64) float64 { return math.NaN() },
	}
	panicky := Model{
		Name:   "Panicky",
		Params: []string{"a"},
		Eval:   func(float64, []float64) float64 { panic("boom") },
	}

	results, err := NewFitter(Options{}, broken, panicky).FitAll(context.Background(), straightLine(t, span(1, 5)))
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.ErrNoUsableModel))
	require.Len(t, results, 2)
	require.Contains(t, results["Panicky"].Err.Error(), "boom")

	_, err = Best(results, 0, 0)
	require.True(t, errors.Is(err, errs.ErrNoUsableModel))
}

// TestFitAllIterationBudget verifies the per-model iteration cap.
func TestFitAllIterationBudget(t *testing.T) {
	linear, _ := ModelByName("Linear")
	results, err := NewFitter(Options{MaxIterations: 1}, linear).FitAll(context.Background(), straightLine(t, span(1, 10)))
	require.Error(t, err)
	require.True(t, errors.Is(results["Linear"].Err, errs.ErrNoConvergence))
}

// TestFitAllRejectsInvalidData verifies validation happens before fitting.
func TestFitAllRejectsInvalidData(t *testing.T) {
	d := dataset.Dataset{
		X: dataset.Series{Title: "x", Values: []float64{1, 2}},
		Y: dataset.Series{Title: "y", Values: []float64{1, 2}},
	}
	results, err := NewFitter(DefaultOptions()).FitAll(context.Background(), d)
	require.Nil(t, results)
	require.True(t, errors.Is(err, errs.ErrValidation))
}

// TestBest verifies the tie tolerance and the F-test on extra parameters.
func TestBest(t *testing.T) {
	results := map[string]*Result{
		"Linear":    {Model: "Linear", Index: 0, Points: 20, Params: make([]float64, 2), RSquared: 0.9900000},
		"Quadratic": {Model: "Quadratic", Index: 1, Points: 20, Params: make([]float64, 3), RSquared: 0.9900004},
		"Cubic":     {Model: "Cubic", Index: 2, Points: 20, Params: make([]float64, 4), RSquared: 0.9990000},
		"Gaussian":  {Model: "Gaussian", Index: 7, Err: errs.ErrNoConvergence},
	}

	best, err := Best(results, 1e-6, 1e-3)
	require.NoError(t, err)
	require.Equal(t, "Cubic", best.Model)

	delete(results, "Cubic")
	best, err = Best(results, 1e-6, 1e-3)
	require.NoError(t, err)
	require.Equal(t, "Linear", best.Model)

	best, err = Best(results, 0, 1e-3)
	require.NoError(t, err)
	require.Equal(t, "Linear", best.Model)

	best, err = Best(results, 0, 0)
	require.NoError(t, err)
	require.Equal(t, "Quadratic", best.Model)

	ranked := Ranked(results)
	require.Equal(t, "Quadratic", ranked[0].Model)
	require.Equal(t, "Gaussian", ranked[len(ranked)-1].Model)
}

// TestBestExtraTermNotSignificant verifies that a higher R² bought by one
// more parameter is rejected when the F statistic is small.
func TestBestExtraTermNotSignificant(t *testing.T) {
	results := map[string]*Result{
		"Linear":    {Model: "Linear", Index: 0, Points: 20, Params: make([]float64, 2), RSquared: 0.999983128},
		"Quadratic": {Model: "Quadratic", Index: 1, Points: 20, Params: make([]float64, 3), RSquared: 0.999986965},
	}

	// F is about 5.0 on (1, 17) degrees of freedom, p about 0.04.
	best, err := Best(results, 1e-6, 1e-3)
	require.NoError(t, err)
	require.Equal(t, "Linear", best.Model)

	best, err = Best(results, 1e-6, 0.05)
	require.NoError(t, err)
	require.Equal(t, "Quadratic", best.Model)
}

// TestCurve verifies sampling bounds.
func TestCurve(t *testing.T) {
	linear, _ := ModelByName("Linear")
	xs, ys := Curve(linear, []float64{2, 3}, 0, 10, 11)
	require.Len(t, xs, 11)
	require.Equal(t, 0.0, xs[0])
	require.InDelta(t, 10.0, xs[10], 1e-12)
	require.InDelta(t, 23.0, ys[10], 1e-12)
}
