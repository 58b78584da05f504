package transform

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/san-kum/linlab/internal/errs"
	"github.com/san-kum/linlab/internal/symbolic"
)

// Kind enumerates the supported axis transforms.
type Kind int

const (
	Identity Kind = iota
	NaturalLog
	Exponential
	Power
	Reciprocal
	SquareRoot
)

var kindNames = map[Kind]string{
	Identity:    "identity",
	NaturalLog:  "natural-log",
	Exponential: "exponential",
	Power:       "power",
	Reciprocal:  "reciprocal",
	SquareRoot:  "square-root",
}

// Label names the transform applied to one axis. N is the exponent of a
// Power label and zero otherwise.
type Label struct {
	Kind Kind
	N    float64
}

var (
	LabelIdentity    = Label{Kind: Identity}
	LabelNaturalLog  = Label{Kind: NaturalLog}
	LabelExponential = Label{Kind: Exponential}
	LabelReciprocal  = Label{Kind: Reciprocal}
	LabelSquareRoot  = Label{Kind: SquareRoot}
)

// PowerOf returns the label for v^n, using the dedicated labels for the
// exponents 1, -1 and 1/2.
func PowerOf(n float64) Label {
	switch n {
	case 1:
		return LabelIdentity
	case -1:
		return LabelReciprocal
	case 0.5:
		return LabelSquareRoot
	}
	return Label{Kind: Power, N: n}
}

func (l Label) IsIdentity() bool { return l.Kind == Identity }

func (l Label) String() string {
	if l.Kind == Power {
		return "power(" + strconv.FormatFloat(l.N, 'g', -1, 64) + ")"
	}
	return kindNames[l.Kind]
}

// MarshalText lets labels appear as plain strings in JSON and YAML.
func (l Label) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Label) UnmarshalText(b []byte) error {
	parsed, err := ParseLabel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLabel accepts the names produced by String plus a few short aliases.
func ParseLabel(s string) (Label, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "identity", "none":
		return LabelIdentity, nil
	case "natural-log", "ln", "log":
		return LabelNaturalLog, nil
	case "exponential", "exp":
		return LabelExponential, nil
	case "reciprocal", "inverse":
		return LabelReciprocal, nil
	case "square-root", "sqrt":
		return LabelSquareRoot, nil
	}
	if strings.HasPrefix(s, "power(") && strings.HasSuffix(s, ")") {
		n, err := strconv.ParseFloat(s[len("power("):len(s)-1], 64)
		if err != nil || n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
			return Label{}, errors.Wrapf(errs.ErrUnknownTransform, "bad exponent in %q", s)
		}
		return PowerOf(n), nil
	}
	return Label{}, errors.Wrapf(errs.ErrUnknownTransform, "%q", s)
}

// Inverse returns the label that undoes l.
func Inverse(l Label) Label {
	switch l.Kind {
	case NaturalLog:
		return LabelExponential
	case Exponential:
		return LabelNaturalLog
	case Power:
		return PowerOf(1 / l.N)
	case SquareRoot:
		return PowerOf(2)
	}
	return l
}

// Title renders the transformed axis name, e.g. ln(A) or t^2.
func (l Label) Title(name string) string {
	if name == "" {
		name = "v"
	}
	return l.Expr(symbolic.S(name)).String()
}

// Expr applies the label to a symbolic expression.
func (l Label) Expr(e symbolic.Expr) symbolic.Expr {
	switch l.Kind {
	case NaturalLog:
		return symbolic.LnOf(e)
	case Exponential:
		return symbolic.ExpOf(e)
	case Power:
		r, ok := new(big.Rat).SetString(strconv.FormatFloat(l.N, 'g', -1, 64))
		if !ok {
			return symbolic.PowOf(e, symbolic.N(int64(l.N)))
		}
		return symbolic.PowOf(e, symbolic.NRat(r))
	case Reciprocal:
		return symbolic.PowOf(e, symbolic.N(-1))
	case SquareRoot:
		return symbolic.SqrtOf(e)
	}
	return e
}
