package equation

import (
	"regexp"
	"sort"
	"strings"

	"github.com/san-kum/linlab/internal/errs"
	"github.com/san-kum/linlab/internal/symbolic"
)

// Class tags the kind of linearisation a law is expected to need.
type Class string

const (
	ClassLinear      Class = "linear"
	ClassQuadratic   Class = "quadratic"
	ClassReciprocal  Class = "reciprocal"
	ClassPower       Class = "power"
	ClassExponential Class = "exponential"
	ClassCustom      Class = "custom"
)

// Hints carries canonical meanings for a well-known linear form. They apply
// when X and Y match the plotted variables; empty X/Y match any choice.
type Hints struct {
	X         string `yaml:"x,omitempty" json:"x,omitempty"`
	Y         string `yaml:"y,omitempty" json:"y,omitempty"`
	Gradient  string `yaml:"gradient" json:"gradient"`
	Intercept string `yaml:"intercept" json:"intercept"`
}

// Applies reports whether the hints describe the (x, y) axis choice.
func (h *Hints) Applies(x, y string) bool {
	if h == nil {
		return false
	}
	return (h.X == "" || h.X == x) && (h.Y == "" || h.Y == y)
}

// Equation is a physical law. It is read-only once constructed.
type Equation struct {
	Name       string            `yaml:"name" json:"name"`
	Expression string            `yaml:"expression" json:"expression"`
	Variables  map[string]string `yaml:"variables" json:"variables"`
	Class      Class             `yaml:"class" json:"class"`
	Hints      *Hints            `yaml:"hints,omitempty" json:"hints,omitempty"`
}

// Symbols returns the variable names in sorted order.
func (e Equation) Symbols() []string {
	out := make([]string, 0, len(e.Variables))
	for name := range e.Variables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Meaning returns the human-readable meaning of sym, or sym itself.
func (e Equation) Meaning(sym string) string {
	if m, ok := e.Variables[sym]; ok && m != "" {
		return m
	}
	return sym
}

// HasVariable reports whether sym is one of the declared variables.
func (e Equation) HasVariable(sym string) bool {
	_, ok := e.Variables[sym]
	return ok
}

// Sides parses the expression into its two sides.
func (e Equation) Sides() (symbolic.Expr, symbolic.Expr, error) {
	return symbolic.ParseEquation(e.Expression)
}

// Validate checks that the expression parses and that every free symbol is a
// declared variable.
func (e Equation) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return &errs.ParseError{Input: e.Expression, Pos: -1, Msg: "equation has no name"}
	}
	lhs, rhs, err := e.Sides()
	if err != nil {
		return err
	}
	for _, side := range []symbolic.Expr{lhs, rhs} {
		for _, sym := range symbolic.FreeSymbols(side) {
			if !e.HasVariable(sym) {
				return &errs.ParseError{Input: e.Expression, Pos: -1, Msg: "undeclared variable " + sym}
			}
		}
	}
	return nil
}

var identifier = regexp.MustCompile(`[\p{L}_][\p{L}\p{N}_]*`)

// ParseCustom builds an ad hoc equation from a "variable = expression" string.
// Every identifier that is not a known function or constant becomes a
// variable; at least two distinct variables are required.
func ParseCustom(input string) (Equation, error) {
	if _, _, err := symbolic.ParseEquation(input); err != nil {
		return Equation{}, err
	}

	vars := map[string]string{}
	for _, loc := range identifier.FindAllStringIndex(input, -1) {
		tok := input[loc[0]:loc[1]]
		if loc[0] > 0 && isNumberPrefix(input[:loc[0]]) {
			continue
		}
		if symbolic.IsFunction(tok) || symbolic.IsConstant(tok) {
			continue
		}
		vars[tok] = ""
	}
	if len(vars) < 2 {
		return Equation{}, &errs.ParseError{Input: input, Pos: -1, Msg: "need at least two distinct variables"}
	}

	return Equation{
		Name:       strings.TrimSpace(input),
		Expression: strings.TrimSpace(input),
		Variables:  vars,
		Class:      ClassCustom,
	}, nil
}

// isNumberPrefix reports whether the text before an identifier ends in a
// numeric literal, so the e of 1.5e3 is not taken for a variable.
func isNumberPrefix(before string) bool {
	last := before[len(before)-1]
	return last >= '0' && last <= '9' || last == '.'
}
