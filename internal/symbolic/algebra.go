package symbolic

import (
	"sort"

	"github.com/pkg/errors"
)

// ErrNoSolution is returned when a symbol cannot be isolated.
var ErrNoSolution = errors.New("symbolic: cannot isolate symbol")

const maxSteps = 64

func children(e Expr) []Expr {
	switch v := e.(type) {
	case *Add:
		return v.terms
	case *Mul:
		return v.factors
	case *Pow:
		return []Expr{v.base, v.exp}
	case *Func:
		return []Expr{v.arg}
	}
	return nil
}

// FreeSymbols lists the variable names in e, sorted, excluding constants.
func FreeSymbols(e Expr) []string {
	seen := map[string]bool{}
	var walk func(Expr)
	walk = func(e Expr) {
		if s, ok := e.(*Sym); ok {
			if !IsConstant(s.name) {
				seen[s.name] = true
			}
			return
		}
		for _, c := range children(e) {
			walk(c)
		}
	}
	walk(e)
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Contains reports whether the symbol name occurs anywhere in e.
func Contains(e Expr, name string) bool {
	if s, ok := e.(*Sym); ok {
		return s.name == name
	}
	for _, c := range children(e) {
		if Contains(c, name) {
			return true
		}
	}
	return false
}

// DependsOnly reports whether name is the only free symbol of e.
func DependsOnly(e Expr, name string) bool {
	syms := FreeSymbols(e)
	return len(syms) == 1 && syms[0] == name
}

// Expand distributes products over sums and small integer powers of sums.
func Expand(e Expr) Expr {
	switch v := e.(type) {
	case *Add:
		out := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			out[i] = Expand(t)
		}
		return AddOf(out...)
	case *Mul:
		acc := []Expr{N(1)}
		for _, f := range v.factors {
			acc = distribute(acc, termsOf(Expand(f)))
		}
		return AddOf(acc...)
	case *Pow:
		base := Expand(v.base)
		if n, ok := v.exp.(*Num); ok && n.IsInteger() {
			if k := n.val.Num().Int64(); k >= 2 && k <= 10 {
				if add, ok := base.(*Add); ok {
					acc := add.terms
					for i := int64(1); i < k; i++ {
						acc = distribute(acc, add.terms)
					}
					return AddOf(acc...)
				}
			}
		}
		return PowOf(base, Expand(v.exp))
	case *Func:
		return (&Func{name: v.name, arg: Expand(v.arg)}).Simplify()
	}
	return e
}

func termsOf(e Expr) []Expr {
	if a, ok := e.(*Add); ok {
		return a.terms
	}
	return []Expr{e}
}

func distribute(a, b []Expr) []Expr {
	out := make([]Expr, 0, len(a)*len(b))
	for _, x := range a {
		for _, y := range b {
			out = append(out, MulOf(x, y))
		}
	}
	return out
}

// ExpandLog rewrites ln of products, powers and exponentials as sums, treating
// every base as positive. Logarithms of negative products are left alone.
func ExpandLog(e Expr) Expr {
	switch v := e.(type) {
	case *Func:
		arg := ExpandLog(v.arg)
		if v.name != "ln" {
			return (&Func{name: v.name, arg: arg}).Simplify()
		}
		return expandLn(arg)
	case *Add:
		out := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			out[i] = ExpandLog(t)
		}
		return AddOf(out...)
	case *Mul:
		out := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			out[i] = ExpandLog(f)
		}
		return MulOf(out...)
	case *Pow:
		return PowOf(ExpandLog(v.base), ExpandLog(v.exp))
	}
	return e
}

func expandLn(arg Expr) Expr {
	switch a := arg.(type) {
	case *Mul:
		if c, _ := splitCoeff(a); c.IsNegative() {
			return LnOf(a)
		}
		terms := make([]Expr, len(a.factors))
		for i, f := range a.factors {
			terms[i] = expandLn(f)
		}
		return AddOf(terms...)
	case *Pow:
		if n, ok := a.base.(*Num); ok && n.IsNegative() {
			return LnOf(a)
		}
		return MulOf(a.exp, expandLn(a.base))
	}
	return LnOf(arg)
}

// Affine decomposes e as slope*u + intercept where every term that mentions
// x carries the same x-dependent factor u. It does not expand e first.
func Affine(e Expr, x string) (slope, intercept, u Expr, ok bool) {
	var coeffs, rest []Expr
	for _, t := range termsOf(e) {
		if !Contains(t, x) {
			rest = append(rest, t)
			continue
		}
		var with, without []Expr
		for _, f := range factorsOf(t) {
			if Contains(f, x) {
				with = append(with, f)
			} else {
				without = append(without, f)
			}
		}
		tu := MulOf(with...)
		if u == nil {
			u = tu
		} else if !u.Equal(tu) {
			return nil, nil, nil, false
		}
		coeffs = append(coeffs, MulOf(without...))
	}
	if u == nil {
		return nil, nil, nil, false
	}
	return AddOf(coeffs...), AddOf(rest...), u, true
}

func factorsOf(e Expr) []Expr {
	if m, ok := e.(*Mul); ok {
		return m.factors
	}
	return []Expr{e}
}

// Isolate solves lhs = rhs for the symbol name.
func Isolate(lhs, rhs Expr, name string) (Expr, error) {
	_, other, err := reduce(lhs, rhs, name, func(side Expr) bool {
		s, ok := side.(*Sym)
		return ok && s.name == name
	})
	return other, err
}

// Separate rearranges lhs = rhs into side = other where side mentions no
// symbol but name and other does not mention name at all.
func Separate(lhs, rhs Expr, name string) (side, other Expr, err error) {
	return reduce(lhs, rhs, name, func(side Expr) bool { return DependsOnly(side, name) })
}

func reduce(lhs, rhs Expr, name string, done func(Expr) bool) (Expr, Expr, error) {
	inL, inR := Contains(lhs, name), Contains(rhs, name)
	var side, other Expr
	switch {
	case inL && inR:
		return linearSolve(SubOf(lhs, rhs), name)
	case inL:
		side, other = lhs, rhs
	case inR:
		side, other = rhs, lhs
	default:
		return nil, nil, errors.Wrapf(ErrNoSolution, "%s does not occur", name)
	}

	for step := 0; step < maxSteps; step++ {
		if done(side) {
			return side, other, nil
		}
		switch v := side.(type) {
		case *Add:
			var with, without []Expr
			for _, t := range v.terms {
				if Contains(t, name) {
					with = append(with, t)
				} else {
					without = append(without, t)
				}
			}
			if len(without) == 0 {
				return linearSolve(SubOf(side, other), name)
			}
			other = SubOf(other, AddOf(without...))
			side = AddOf(with...)
		case *Mul:
			var with, without []Expr
			for _, f := range v.factors {
				if Contains(f, name) {
					with = append(with, f)
				} else {
					without = append(without, f)
				}
			}
			if len(without) == 0 {
				return linearSolve(SubOf(side, other), name)
			}
			other = DivOf(other, MulOf(without...))
			side = MulOf(with...)
		case *Pow:
			switch {
			case Contains(v.base, name) && !Contains(v.exp, name):
				other = PowOf(other, DivOf(N(1), v.exp))
				side = v.base
			case !Contains(v.base, name) && Contains(v.exp, name):
				other = DivOf(LnOf(other), LnOf(v.base))
				side = v.exp
			default:
				return nil, nil, errors.Wrapf(ErrNoSolution, "%s occurs in base and exponent of %s", name, v)
			}
		case *Func:
			inv, ok := v.invert(other)
			if !ok {
				return nil, nil, errors.Wrapf(ErrNoSolution, "%s has no inverse", v.name)
			}
			side, other = v.arg, inv
		default:
			return nil, nil, errors.Wrapf(ErrNoSolution, "cannot reduce %s", side)
		}
	}
	return nil, nil, errors.Wrapf(ErrNoSolution, "no progress isolating %s", name)
}

// linearSolve handles residual = 0 when the residual is first degree in name.
func linearSolve(residual Expr, name string) (Expr, Expr, error) {
	slope, intercept, u, ok := Affine(Expand(residual), name)
	if !ok || !u.Equal(S(name)) || isNum(slope, 0) {
		return nil, nil, errors.Wrapf(ErrNoSolution, "%s is not first degree in %s", residual, name)
	}
	return S(name), DivOf(MulOf(N(-1), intercept), slope), nil
}

var derivatives = map[string]func(u Expr) Expr{
	"exp":   func(u Expr) Expr { return ExpOf(u) },
	"ln":    func(u Expr) Expr { return PowOf(u, N(-1)) },
	"log10": func(u Expr) Expr { return DivOf(N(1), MulOf(u, LnOf(N(10)))) },
	"sin":   func(u Expr) Expr { return &Func{name: "cos", arg: u} },
	"cos":   func(u Expr) Expr { return MulOf(N(-1), &Func{name: "sin", arg: u}) },
	"tan":   func(u Expr) Expr { return AddOf(N(1), PowOf(&Func{name: "tan", arg: u}, N(2))) },
	"asin":  func(u Expr) Expr { return PowOf(SubOf(N(1), PowOf(u, N(2))), F(-1, 2)) },
	"acos":  func(u Expr) Expr { return MulOf(N(-1), PowOf(SubOf(N(1), PowOf(u, N(2))), F(-1, 2))) },
	"atan":  func(u Expr) Expr { return PowOf(AddOf(N(1), PowOf(u, N(2))), N(-1)) },
	"sinh":  func(u Expr) Expr { return &Func{name: "cosh", arg: u} },
	"cosh":  func(u Expr) Expr { return &Func{name: "sinh", arg: u} },
	"tanh":  func(u Expr) Expr { return SubOf(N(1), PowOf(&Func{name: "tanh", arg: u}, N(2))) },
	"asinh": func(u Expr) Expr { return PowOf(AddOf(PowOf(u, N(2)), N(1)), F(-1, 2)) },
	"acosh": func(u Expr) Expr { return PowOf(SubOf(PowOf(u, N(2)), N(1)), F(-1, 2)) },
	"atanh": func(u Expr) Expr { return PowOf(SubOf(N(1), PowOf(u, N(2))), N(-1)) },
	"abs":   func(u Expr) Expr { return DivOf(u, &Func{name: "abs", arg: u}) },
}

// Diff differentiates e with respect to name.
func Diff(e Expr, name string) Expr {
	if !Contains(e, name) {
		return N(0)
	}
	switch v := e.(type) {
	case *Sym:
		return N(1)
	case *Add:
		out := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			out[i] = Diff(t, name)
		}
		return AddOf(out...)
	case *Mul:
		out := make([]Expr, 0, len(v.factors))
		for i := range v.factors {
			prod := make([]Expr, 0, len(v.factors))
			for j, f := range v.factors {
				if i == j {
					prod = append(prod, Diff(f, name))
				} else {
					prod = append(prod, f)
				}
			}
			out = append(out, MulOf(prod...))
		}
		return AddOf(out...)
	case *Pow:
		if !Contains(v.exp, name) {
			return MulOf(v.exp, PowOf(v.base, SubOf(v.exp, N(1))), Diff(v.base, name))
		}
		if !Contains(v.base, name) {
			return MulOf(v, LnOf(v.base), Diff(v.exp, name))
		}
		return MulOf(v, AddOf(
			MulOf(Diff(v.exp, name), LnOf(v.base)),
			MulOf(v.exp, Diff(v.base, name), PowOf(v.base, N(-1))),
		))
	case *Func:
		return MulOf(derivatives[v.name](v.arg), Diff(v.arg, name))
	}
	return N(0)
}

// Engine exposes the package functions as a value so callers can depend on
// an interface rather than on this package.
type Engine struct{}

func (Engine) Parse(s string) (Expr, error) { return Parse(s) }

func (Engine) ParseEquation(s string) (Expr, Expr, error) { return ParseEquation(s) }

func (Engine) Isolate(lhs, rhs Expr, name string) (Expr, error) { return Isolate(lhs, rhs, name) }

func (Engine) Separate(lhs, rhs Expr, name string) (Expr, Expr, error) {
	return Separate(lhs, rhs, name)
}
