// Package synth simulates measurements of catalogue laws: it sweeps the
// independent variable, evaluates the isolated dependent variable and adds
// seeded Gaussian noise, reporting per-point uncertainties.
package synth

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/linlab/internal/dataset"
	"github.com/san-kum/linlab/internal/errs"
	"github.com/san-kum/linlab/internal/symbolic"
)

type Options struct {
	Points int
	// Noise is the relative standard deviation applied to Y.
	Noise float64
	// XError is the absolute uncertainty of every X reading.
	XError float64
	Seed   int64
}

type Generator struct {
	opts       Options
	randSource *rand.Rand
	log        *logrus.Entry
}

func New(opts Options) *Generator {
	return &Generator{
		opts:       opts,
		randSource: rand.New(rand.NewSource(opts.Seed)),
		log:        logrus.WithField("module", "synth"),
	}
}

// Generate produces a dataset for law. The Y uncertainty combines the
// relative noise with the X uncertainty carried through dY/dX.
func (g *Generator) Generate(law Law) (dataset.Dataset, error) {
	if g.opts.Points < dataset.MinPoints {
		return dataset.Dataset{}, &errs.ValidationError{Field: "points", Msg: "too few points to simulate"}
	}
	if g.opts.Noise < 0 || g.opts.XError < 0 {
		return dataset.Dataset{}, &errs.ValidationError{Field: "noise", Msg: "must not be negative"}
	}

	lhs, rhs, err := law.Equation.Sides()
	if err != nil {
		return dataset.Dataset{}, err
	}
	f, err := symbolic.Isolate(lhs, rhs, law.Y)
	if err != nil {
		return dataset.Dataset{}, errors.Wrapf(err, "solve %s for %s", law.Equation.Name, law.Y)
	}
	slope := symbolic.Diff(f, law.X)

	n := g.opts.Points
	xs := make([]float64, n)
	ys := make([]float64, n)
	xErr := make([]float64, n)
	yErr := make([]float64, n)

	env := make(map[string]float64, len(law.Params)+1)
	for k, v := range law.Params {
		env[k] = v
	}
	step := (law.To - law.From) / float64(n-1)
	for i := 0; i < n; i++ {
		x := law.From + float64(i)*step
		env[law.X] = x
		y, err := f.Eval(env)
		if err != nil {
			return dataset.Dataset{}, errors.Wrapf(err, "evaluate %s at %s=%g", law.Y, law.X, x)
		}
		dy, err := slope.Eval(env)
		if err != nil {
			return dataset.Dataset{}, errors.Wrapf(err, "differentiate %s at %s=%g", law.Y, law.X, x)
		}

		sigma := g.opts.Noise * math.Abs(y)
		xs[i] = x
		ys[i] = y + sigma*g.randSource.NormFloat64()
		xErr[i] = g.opts.XError
		yErr[i] = math.Hypot(sigma, dy*g.opts.XError)
	}

	g.log.WithFields(logrus.Fields{
		"equation": law.Equation.Name,
		"points":   n,
		"noise":    g.opts.Noise,
	}).Debug("simulated dataset")

	xSeries, err := dataset.NewSeries(law.X, xs, xErr)
	if err != nil {
		return dataset.Dataset{}, err
	}
	ySeries, err := dataset.NewSeries(law.Y, ys, yErr)
	if err != nil {
		return dataset.Dataset{}, err
	}
	return dataset.New(xSeries, ySeries)
}
