// Package fitting fits a fixed catalogue of nonlinear models to a dataset
// and picks the one with the highest coefficient of determination. A model
// with more parameters than the current pick must also pass a partial F-test
// against it before it is preferred.
//
// Every model is fitted independently, in its own goroutine, on its own copy
// of the data. A model that fails is recorded in its Result and never stops
// the others.
package fitting

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/linlab/internal/dataset"
	"github.com/san-kum/linlab/internal/errs"
)

// Options bound each model's solve. Budgets apply per model.
type Options struct {
	MaxIterations int           `yaml:"max_iterations"`
	Timeout       time.Duration `yaml:"timeout"`
	Tolerance     float64       `yaml:"tolerance"`
	Workers       int           `yaml:"workers"`
	TieTolerance  float64       `yaml:"tie_tolerance"`
	Significance  float64       `yaml:"significance"`
}

func DefaultOptions() Options {
	return Options{
		MaxIterations: 5000,
		Timeout:       5 * time.Second,
		Tolerance:     1e-12,
		Workers:       runtime.NumCPU(),
		TieTolerance:  1e-6,
		Significance:  1e-3,
	}
}

// Result is the outcome of fitting one model. Err is set, and the numeric
// fields are zero, when the fit failed.
type Result struct {
	Model      string        `json:"model" yaml:"model"`
	Index      int           `json:"-" yaml:"-"`
	Params     []float64     `json:"params,omitempty" yaml:"params,omitempty"`
	RSquared   float64       `json:"r_squared" yaml:"r_squared"`
	Points     int           `json:"points" yaml:"points"`
	Iterations int           `json:"iterations" yaml:"iterations"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
	Err        error         `json:"-" yaml:"-"`
}

func (r *Result) OK() bool { return r != nil && r.Err == nil }

// Fitter runs the catalogue against datasets.
type Fitter struct {
	models []Model
	opts   Options
	log    *logrus.Entry
}

// NewFitter returns a fitter over models, or over Catalogue when none are
// given. Zero-valued options fall back to DefaultOptions.
func NewFitter(opts Options, models ...Model) *Fitter {
	def := DefaultOptions()
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = def.MaxIterations
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = def.Tolerance
	}
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.TieTolerance < 0 {
		opts.TieTolerance = 0
	}
	if opts.Significance <= 0 || opts.Significance >= 1 {
		opts.Significance = def.Significance
	}
	if len(models) == 0 {
		models = Catalogue
	}
	return &Fitter{
		models: models,
		opts:   opts,
		log:    logrus.WithField("module", "fitting"),
	}
}

// Models returns the models in tie-break order.
func (f *Fitter) Models() []Model { return f.models }

// FitAll fits every model to d and returns the results keyed by model name.
// The error is non-nil only when d is invalid or when no model could be
// fitted; in the latter case the failed results are still returned.
func (f *Fitter) FitAll(ctx context.Context, d dataset.Dataset) (map[string]*Result, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	results := make([]*Result, len(f.models))
	sem := make(chan struct{}, f.opts.Workers)

	var wg sync.WaitGroup
	for i := range f.models {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			x := append([]float64(nil), d.X.Values...)
			y := append([]float64(nil), d.Y.Values...)
			results[idx] = f.fit(ctx, idx, x, y)
		}(i)
	}
	wg.Wait()

	out := make(map[string]*Result, len(results))
	var failures errs.Collection
	for _, r := range results {
		out[r.Model] = r
		failures.Add(r.Err)
	}
	if failures.Len() == len(results) {
		return out, errors.Wrap(errs.ErrNoUsableModel, failures.ErrIfAny().Error())
	}
	return out, nil
}

func (f *Fitter) fit(ctx context.Context, idx int, x, y []float64) (res *Result) {
	m := f.models[idx]
	res = &Result{Model: m.Name, Index: idx, Points: len(x)}
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			res.Params, res.RSquared = nil, 0
			res.Err = &errs.FitFailure{Model: m.Name, Err: errors.Errorf("solver panic: %v", p)}
		}
		res.Duration = time.Since(start)
	}()

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	guess := m.Guess()
	if !m.covers(x, guess) {
		res.Err = &errs.FitFailure{Model: m.Name, Err: errors.Wrap(errs.ErrDomain, "model undefined at the starting guess")}
		f.log.WithField("model", m.Name).Debug("fit failed: no point inside the domain")
		return res
	}

	s := solver{maxIterations: f.opts.MaxIterations, tolerance: f.opts.Tolerance}
	sol, err := s.solve(ctx, m.Eval, x, y, guess)
	if err == nil && !m.covers(x, sol.params) {
		err = errors.Wrap(errs.ErrDomain, "model undefined at the solution")
	}
	if err != nil {
		res.Err = &errs.FitFailure{Model: m.Name, Err: err}
		f.log.WithFields(logrus.Fields{"model": m.Name, "error": err}).Debug("fit failed")
		return res
	}

	r2 := rSquared(m, sol.params, x, y)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		res.Err = &errs.FitFailure{Model: m.Name, Err: errors.Wrap(errs.ErrDomain, "coefficient of determination undefined")}
		f.log.WithField("model", m.Name).Debug("fit failed: undefined r squared")
		return res
	}

	res.Params = sol.params
	res.RSquared = r2
	res.Iterations = sol.iterations
	f.log.WithFields(logrus.Fields{
		"model":      m.Name,
		"r_squared":  r2,
		"iterations": sol.iterations,
	}).Debug("fit converged")
	return res
}

func rSquared(m Model, p, x, y []float64) float64 {
	est := make([]float64, len(x))
	for i := range x {
		est[i] = m.Eval(x[i], p)
	}
	return stat.RSquaredFrom(est, y, nil)
}

// Best returns the successful result with the largest R², walking the
// results in catalogue order. A result replaces the current pick only when
// its R² is higher by more than tieTolerance; when it also has more
// parameters, the extra terms must pass a partial F-test at the given
// significance level.
func Best(results map[string]*Result, tieTolerance, significance float64) (*Result, error) {
	ordered := make([]*Result, 0, len(results))
	for _, r := range results {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	var best *Result
	for _, r := range ordered {
		if !r.OK() {
			continue
		}
		if best == nil || improves(r, best, tieTolerance, significance) {
			best = r
		}
	}
	if best == nil {
		return nil, errs.ErrNoUsableModel
	}
	return best, nil
}

// improves reports whether r should replace best.
func improves(r, best *Result, tieTolerance, significance float64) bool {
	if r.RSquared <= best.RSquared+tieTolerance {
		return false
	}
	extra := len(r.Params) - len(best.Params)
	dof := r.Points - len(r.Params)
	if extra <= 0 || significance <= 0 || dof <= 0 {
		return true
	}

	// Both fits share the total sum of squares, so 1 - R² stands in for
	// the residual sum of squares.
	unexplained := 1 - r.RSquared
	if unexplained <= 0 {
		return true
	}
	fstat := ((r.RSquared - best.RSquared) / float64(extra)) / (unexplained / float64(dof))
	return distuv.F{D1: float64(extra), D2: float64(dof)}.Survival(fstat) < significance
}

// Best applies the fitter's tie tolerance and significance level.
func (f *Fitter) Best(results map[string]*Result) (*Result, error) {
	return Best(results, f.opts.TieTolerance, f.opts.Significance)
}

// Ranked returns the results sorted by descending R², failures last.
func Ranked(results map[string]*Result) []*Result {
	out := make([]*Result, 0, len(results))
	for _, r := range results {
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.OK() != b.OK() {
			return a.OK()
		}
		if a.OK() && a.RSquared != b.RSquared {
			return a.RSquared > b.RSquared
		}
		return a.Index < b.Index
	})
	return out
}

// RMSE is the root mean square of y - Eval(x) over d.
func RMSE(m Model, params []float64, d dataset.Dataset) float64 {
	sum := 0.0
	for i, x := range d.X.Values {
		r := d.Y.Values[i] - m.Eval(x, params)
		sum += r * r
	}
	return math.Sqrt(sum / float64(d.Len()))
}

// Curve samples the model at n evenly spaced points across [lo, hi].
func Curve(m Model, params []float64, lo, hi float64, n int) (xs, ys []float64) {
	if n < 2 {
		n = 2
	}
	xs = make([]float64, n)
	ys = make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range xs {
		xs[i] = lo + float64(i)*step
		ys[i] = m.Eval(xs[i], params)
	}
	return xs, ys
}
