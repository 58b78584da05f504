package symbolic

import (
	"fmt"
	"math"
)

// Func is a named elementary function applied to one argument.
type Func struct {
	name string
	arg  Expr
}

var functions = map[string]func(float64) float64{
	"exp":   math.Exp,
	"ln":    math.Log,
	"log10": math.Log10,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"sinh":  math.Sinh,
	"cosh":  math.Cosh,
	"tanh":  math.Tanh,
	"asinh": math.Asinh,
	"acosh": math.Acosh,
	"atanh": math.Atanh,
	"abs":   math.Abs,
}

var inverses = map[string]string{
	"exp":   "ln",
	"ln":    "exp",
	"sin":   "asin",
	"asin":  "sin",
	"cos":   "acos",
	"acos":  "cos",
	"tan":   "atan",
	"atan":  "tan",
	"sinh":  "asinh",
	"asinh": "sinh",
	"cosh":  "acosh",
	"acosh": "cosh",
	"tanh":  "atanh",
	"atanh": "tanh",
}

// IsFunction reports whether name is understood as a function by the parser.
func IsFunction(name string) bool {
	if _, ok := functions[name]; ok {
		return true
	}
	return name == "log" || name == "sqrt"
}

// Apply builds name(arg), resolving the aliases log (natural log) and sqrt.
func Apply(name string, arg Expr) (Expr, error) {
	switch name {
	case "log":
		name = "ln"
	case "sqrt":
		return SqrtOf(arg), nil
	}
	if _, ok := functions[name]; !ok {
		return nil, fmt.Errorf("symbolic: unknown function %q", name)
	}
	return (&Func{name: name, arg: arg}).Simplify(), nil
}

func ExpOf(arg Expr) Expr  { return (&Func{name: "exp", arg: arg}).Simplify() }
func LnOf(arg Expr) Expr   { return (&Func{name: "ln", arg: arg}).Simplify() }
func SqrtOf(arg Expr) Expr { return PowOf(arg, F(1, 2)) }

func (f *Func) Name() string { return f.name }
func (f *Func) Arg() Expr    { return f.arg }

func (f *Func) Simplify() Expr {
	arg := f.arg.Simplify()
	switch f.name {
	case "exp":
		if isNum(arg, 0) {
			return N(1)
		}
		if in, ok := arg.(*Func); ok && in.name == "ln" {
			return in.arg
		}
	case "ln":
		if isNum(arg, 1) {
			return N(0)
		}
		if in, ok := arg.(*Func); ok && in.name == "exp" {
			return in.arg
		}
	case "log10":
		if isNum(arg, 1) {
			return N(0)
		}
	case "sin", "tan", "asin", "atan", "sinh", "tanh", "asinh", "atanh":
		if isNum(arg, 0) {
			return N(0)
		}
	case "cos", "cosh":
		if isNum(arg, 0) {
			return N(1)
		}
	case "abs":
		if n, ok := arg.(*Num); ok {
			if n.IsNegative() {
				return numNeg(n)
			}
			return n
		}
	}
	return &Func{name: f.name, arg: arg}
}

func (f *Func) String() string { return f.name + "(" + f.arg.String() + ")" }

func (f *Func) Sub(name string, value Expr) Expr {
	return (&Func{name: f.name, arg: f.arg.Sub(name, value)}).Simplify()
}

func (f *Func) Eval(env map[string]float64) (float64, error) {
	v, err := f.arg.Eval(env)
	if err != nil {
		return 0, err
	}
	out := functions[f.name](v)
	if math.IsNaN(out) {
		return 0, fmt.Errorf("symbolic: %s(%g) is undefined", f.name, v)
	}
	return out, nil
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

// invert returns the expression u with f(u) = rhs, when f has an inverse.
func (f *Func) invert(rhs Expr) (Expr, bool) {
	if f.name == "log10" {
		return PowOf(N(10), rhs), true
	}
	inv, ok := inverses[f.name]
	if !ok {
		return nil, false
	}
	return (&Func{name: inv, arg: rhs}).Simplify(), true
}
