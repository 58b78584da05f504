// Package dataset holds measured series and the paired X/Y datasets built
// from them. Values are never mutated after construction; every operation
// that changes data returns a new Dataset.
package dataset

import (
	"fmt"
	"math"

	"github.com/san-kum/linlab/internal/errs"
)

// MinPoints is the smallest dataset that can be analysed.
const MinPoints = 3

// Series is one measured quantity. A nil Uncertainties slice means the
// uncertainty is unknown, which is different from zero uncertainty.
type Series struct {
	Title         string    `json:"title"`
	Values        []float64 `json:"values"`
	Uncertainties []float64 `json:"uncertainties,omitempty"`
}

// NewSeries copies values and uncertainties into a validated series.
func NewSeries(title string, values, uncertainties []float64) (Series, error) {
	s := Series{Title: title, Values: clone(values), Uncertainties: clone(uncertainties)}
	if err := s.Validate(title); err != nil {
		return Series{}, err
	}
	return s, nil
}

func (s Series) Len() int             { return len(s.Values) }
func (s Series) HasUncertainty() bool { return s.Uncertainties != nil }

// Clone returns a deep copy.
func (s Series) Clone() Series {
	return Series{Title: s.Title, Values: clone(s.Values), Uncertainties: clone(s.Uncertainties)}
}

// Validate checks finiteness and the uncertainty length; field names the
// series in the returned error.
func (s Series) Validate(field string) error {
	if field == "" {
		field = "series"
	}
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &errs.ValidationError{Field: field, Msg: fmt.Sprintf("value %d is not finite", i)}
		}
	}
	if s.Uncertainties == nil {
		return nil
	}
	if len(s.Uncertainties) != len(s.Values) {
		return &errs.ValidationError{
			Field: field,
			Msg:   fmt.Sprintf("%d uncertainties for %d values", len(s.Uncertainties), len(s.Values)),
		}
	}
	for i, u := range s.Uncertainties {
		if math.IsNaN(u) || math.IsInf(u, 0) {
			return &errs.ValidationError{Field: field, Msg: fmt.Sprintf("uncertainty %d is not finite", i)}
		}
		if u < 0 {
			return &errs.ValidationError{Field: field, Msg: fmt.Sprintf("uncertainty %d is negative", i)}
		}
	}
	return nil
}

// Dataset pairs an X and a Y series of equal length.
type Dataset struct {
	X Series `json:"x"`
	Y Series `json:"y"`
}

// New validates x and y and returns a dataset owning copies of them.
func New(x, y Series) (Dataset, error) {
	d := Dataset{X: x.Clone(), Y: y.Clone()}
	if err := d.Validate(); err != nil {
		return Dataset{}, err
	}
	return d, nil
}

// FromValues builds a dataset without uncertainties.
func FromValues(xTitle string, x []float64, yTitle string, y []float64) (Dataset, error) {
	return New(Series{Title: xTitle, Values: x}, Series{Title: yTitle, Values: y})
}

func (d Dataset) Len() int { return d.X.Len() }

func (d Dataset) Clone() Dataset { return Dataset{X: d.X.Clone(), Y: d.Y.Clone()} }

// Validate enforces the shape invariants shared by every analysis.
func (d Dataset) Validate() error {
	if err := d.X.Validate("x"); err != nil {
		return err
	}
	if err := d.Y.Validate("y"); err != nil {
		return err
	}
	if d.X.Len() != d.Y.Len() {
		return &errs.ValidationError{
			Field: "dataset",
			Msg:   fmt.Sprintf("x has %d points, y has %d", d.X.Len(), d.Y.Len()),
		}
	}
	if d.X.Len() < MinPoints {
		return &errs.ValidationError{
			Field: "dataset",
			Msg:   fmt.Sprintf("need at least %d points, got %d", MinPoints, d.X.Len()),
		}
	}
	return nil
}

// WithResolution fills unknown uncertainties with half the instrument
// resolution of each axis. Known uncertainties and non-positive steps are
// left untouched.
func (d Dataset) WithResolution(xStep, yStep float64) Dataset {
	out := d.Clone()
	fill := func(s *Series, step float64) {
		if s.HasUncertainty() || step <= 0 {
			return
		}
		s.Uncertainties = make([]float64, s.Len())
		for i := range s.Uncertainties {
			s.Uncertainties[i] = step / 2
		}
	}
	fill(&out.X, xStep)
	fill(&out.Y, yStep)
	return out
}

func clone(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
