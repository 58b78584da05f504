// Package errs defines the error taxonomy shared by the analysis packages.
//
// Every typed error unwraps to one of the sentinel values below, so callers
// can branch with errors.Is and recover detail with errors.As:
//
//	var te *errs.TransformError
//	if errors.As(err, &te) {
//	    fmt.Printf("point %d on %s axis: %v\n", te.Index, te.Axis, te.Value)
//	}
package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for analysis operations.
var (
	// ErrParse indicates a malformed equation or expression string.
	ErrParse = errors.New("linlab: malformed expression")

	// ErrValidation indicates a dataset shape invariant was violated.
	ErrValidation = errors.New("linlab: invalid dataset")

	// ErrNotIsolable indicates the plotted Y variable appears on neither or both sides.
	ErrNotIsolable = errors.New("linlab: dependent variable not isolable")

	// ErrNotLinearizable indicates no supported transform yields a straight line.
	ErrNotLinearizable = errors.New("linlab: equation not reducible to linear form")

	// ErrSameVariable indicates both measured variables are the same symbol.
	ErrSameVariable = errors.New("linlab: select two different variables")

	// ErrDomain indicates a transform was applied outside its domain.
	ErrDomain = errors.New("linlab: value outside transform domain")

	// ErrUnknownTransform indicates a transform label that is not supported.
	ErrUnknownTransform = errors.New("linlab: unknown transform")

	// ErrNoConvergence indicates the solver hit its iteration or time budget.
	ErrNoConvergence = errors.New("linlab: solver did not converge")

	// ErrNoUsableModel indicates every catalogue model failed to fit.
	ErrNoUsableModel = errors.New("linlab: no model could be fitted")
)

// ParseError reports where an expression stopped making sense.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	if e.Pos < 0 {
		return fmt.Sprintf("parse %q: %s", e.Input, e.Msg)
	}
	return fmt.Sprintf("parse %q at offset %d: %s", e.Input, e.Pos, e.Msg)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// ValidationError names the dataset field that broke an invariant.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// LinearizationError wraps a linearization failure with the axis roles tried.
type LinearizationError struct {
	X, Y   string
	Reason error
	Detail string
}

func (e *LinearizationError) Error() string {
	msg := fmt.Sprintf("linearize (x=%s, y=%s): %v", e.X, e.Y, e.Reason)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *LinearizationError) Unwrap() error { return e.Reason }

// TransformError identifies the first offending point of a rejected transform.
type TransformError struct {
	Axis   string
	Label  string
	Index  int
	Value  float64
	Reason error
}

func (e *TransformError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s axis %s: %v", e.Axis, e.Label, e.Reason)
	}
	return fmt.Sprintf("%s axis %s: point %d (%g): %v", e.Axis, e.Label, e.Index, e.Value, e.Reason)
}

func (e *TransformError) Unwrap() error { return e.Reason }

// FitFailure records why a single model could not be fitted.
type FitFailure struct {
	Model string
	Err   error
}

func (e *FitFailure) Error() string {
	return fmt.Sprintf("fit %s: %v", e.Model, e.Err)
}

func (e *FitFailure) Unwrap() error { return e.Err }
