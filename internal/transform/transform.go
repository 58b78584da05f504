// Package transform applies axis transforms to measured data and propagates
// per-point uncertainty with first-order (delta method) rules.
//
//	| label        | value   | uncertainty           | rejected when |
//	| natural-log  | ln v    | σ/v                   | v <= 0        |
//	| exponential  | e^v     | e^v·σ                 |               |
//	| power(n)     | v^n     | |n·v^(n-1)·σ|         | v = 0, n < 0  |
//	|              |         |                       | v < 0, n ∉ ℤ  |
//	| reciprocal   | 1/v     | σ/v²                  | v = 0         |
//	| square-root  | √v      | σ/(2√v)               | v < 0         |
//
// Square-root and power(n) with 0 < n < 1 have an unbounded derivative at
// zero. An exact zero (σ = 0) maps to an exact zero; a zero carrying a
// positive uncertainty is rejected.
//
// A series without uncertainties yields a series without uncertainties.
// Inputs are never modified.
package transform

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/linlab/internal/dataset"
	"github.com/san-kum/linlab/internal/errs"
)

// domain reports whether v is an admissible input for l.
func (l Label) domain(v float64) bool {
	switch l.Kind {
	case NaturalLog:
		return v > 0
	case Reciprocal:
		return v != 0
	case SquareRoot:
		return v >= 0
	case Power:
		if v < 0 && l.N != math.Trunc(l.N) {
			return false
		}
		return !(l.N < 0 && v == 0)
	}
	return true
}

// singular reports whether the derivative of l is unbounded at v.
func (l Label) singular(v float64) bool {
	if v != 0 {
		return false
	}
	return l.Kind == SquareRoot || (l.Kind == Power && l.N > 0 && l.N < 1)
}

// Value maps a single value.
func (l Label) Value(v float64) float64 {
	switch l.Kind {
	case NaturalLog:
		return math.Log(v)
	case Exponential:
		return math.Exp(v)
	case Power:
		return math.Pow(v, l.N)
	case Reciprocal:
		return 1 / v
	case SquareRoot:
		return math.Sqrt(v)
	}
	return v
}

// Uncertainty propagates sigma through l at v.
func (l Label) Uncertainty(v, sigma float64) float64 {
	if sigma == 0 {
		return 0
	}
	switch l.Kind {
	case NaturalLog:
		return sigma / v
	case Exponential:
		return math.Exp(v) * sigma
	case Power:
		return math.Abs(l.N * math.Pow(v, l.N-1) * sigma)
	case Reciprocal:
		return sigma / (v * v)
	case SquareRoot:
		return sigma / (2 * math.Sqrt(v))
	}
	return sigma
}

// Series transforms one series. axis names the series in errors. The whole
// series is checked before anything is computed.
func Series(s dataset.Series, l Label, axis string) (dataset.Series, error) {
	if l.IsIdentity() {
		return s.Clone(), nil
	}
	for i, v := range s.Values {
		var reason error
		switch {
		case !l.domain(v):
			reason = errs.ErrDomain
		case s.HasUncertainty() && s.Uncertainties[i] != 0 && l.singular(v):
			reason = errors.Wrap(errs.ErrDomain, "propagated uncertainty is unbounded")
		}
		if reason != nil {
			return dataset.Series{}, &errs.TransformError{
				Axis:   axis,
				Label:  l.String(),
				Index:  i,
				Value:  v,
				Reason: reason,
			}
		}
	}

	out := dataset.Series{
		Title:  l.Title(s.Title),
		Values: make([]float64, len(s.Values)),
	}
	for i, v := range s.Values {
		out.Values[i] = l.Value(v)
	}
	if s.HasUncertainty() {
		out.Uncertainties = make([]float64, len(s.Uncertainties))
		for i, sigma := range s.Uncertainties {
			out.Uncertainties[i] = l.Uncertainty(s.Values[i], sigma)
		}
	}

	logrus.WithFields(logrus.Fields{
		"module": "transform",
		"axis":   axis,
		"label":  l.String(),
		"points": len(out.Values),
	}).Debug("series transformed")
	return out, nil
}

// Apply transforms both axes of d. On error d is unaffected and no partial
// dataset is returned.
func Apply(d dataset.Dataset, x, y Label) (dataset.Dataset, error) {
	tx, err := Series(d.X, x, "x")
	if err != nil {
		return dataset.Dataset{}, err
	}
	ty, err := Series(d.Y, y, "y")
	if err != nil {
		return dataset.Dataset{}, err
	}
	return dataset.Dataset{X: tx, Y: ty}, nil
}

// ApplyNamed parses the two labels and applies them.
func ApplyNamed(d dataset.Dataset, x, y string) (dataset.Dataset, error) {
	lx, err := ParseLabel(x)
	if err != nil {
		return dataset.Dataset{}, &errs.TransformError{Axis: "x", Label: x, Index: -1, Reason: err}
	}
	ly, err := ParseLabel(y)
	if err != nil {
		return dataset.Dataset{}, &errs.TransformError{Axis: "y", Label: y, Index: -1, Reason: err}
	}
	return Apply(d, lx, ly)
}
