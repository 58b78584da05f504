package symbolic

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"
)

// Add is a sum of terms kept in canonical order: like terms collected,
// sorted by their printed form, numeric constant last.
type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

// SubOf returns a - b.
func SubOf(a, b Expr) Expr { return AddOf(a, MulOf(N(-1), b)) }

func (a *Add) Terms() []Expr { return a.terms }

func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}

	constant := N(0)
	coeffs := map[string]*Num{}
	bodies := map[string]Expr{}
	keys := []string{}
	for _, t := range flat {
		if n, ok := t.(*Num); ok {
			constant = numAdd(constant, n)
			continue
		}
		c, body := splitCoeff(t)
		k := body.String()
		if _, seen := coeffs[k]; !seen {
			keys = append(keys, k)
			coeffs[k] = N(0)
			bodies[k] = body
		}
		coeffs[k] = numAdd(coeffs[k], c)
	}
	sort.Strings(keys)

	out := make([]Expr, 0, len(keys)+1)
	for _, k := range keys {
		c := coeffs[k]
		switch {
		case c.IsZero():
		case c.IsOne():
			out = append(out, bodies[k])
		default:
			out = append(out, MulOf(c, bodies[k]))
		}
	}
	if !constant.IsZero() {
		out = append(out, constant)
	}
	switch len(out) {
	case 0:
		return N(0)
	case 1:
		return out[0]
	}
	return &Add{terms: out}
}

func (a *Add) String() string {
	var b strings.Builder
	for i, t := range a.terms {
		if i == 0 {
			b.WriteString(t.String())
			continue
		}
		if neg, ok := negated(t); ok {
			b.WriteString(" - ")
			b.WriteString(wrapFactor(neg))
			continue
		}
		b.WriteString(" + ")
		b.WriteString(t.String())
	}
	return b.String()
}

func (a *Add) Sub(name string, value Expr) Expr {
	out := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		out[i] = t.Sub(name, value)
	}
	return AddOf(out...)
}

func (a *Add) Eval(env map[string]float64) (float64, error) {
	sum := 0.0
	for _, t := range a.terms {
		v, err := t.Eval(env)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum, nil
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

// Mul is a product with at most one leading numeric coefficient; factors
// sharing a base are merged into a single power.
type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

// DivOf returns a / b.
func DivOf(a, b Expr) Expr { return MulOf(a, PowOf(b, N(-1))) }

func (m *Mul) Factors() []Expr { return m.factors }

func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}

	type group struct {
		first Expr
		base  Expr
		exps  []Expr
	}
	coeff := N(1)
	groups := map[string]*group{}
	keys := []string{}
	for _, f := range flat {
		if n, ok := f.(*Num); ok {
			coeff = numMul(coeff, n)
			continue
		}
		base, exp := f, Expr(N(1))
		if p, ok := f.(*Pow); ok {
			base, exp = p.base, p.exp
		}
		k := base.String()
		g, ok := groups[k]
		if !ok {
			g = &group{first: f, base: base}
			groups[k] = g
			keys = append(keys, k)
		}
		g.exps = append(g.exps, exp)
	}
	if coeff.IsZero() {
		return N(0)
	}

	others := make([]Expr, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		f := g.first
		if len(g.exps) > 1 {
			f = PowOf(g.base, AddOf(g.exps...))
		}
		switch v := f.(type) {
		case *Num:
			coeff = numMul(coeff, v)
		case *Mul:
			for _, ff := range v.factors {
				if n, ok := ff.(*Num); ok {
					coeff = numMul(coeff, n)
				} else {
					others = append(others, ff)
				}
			}
		default:
			others = append(others, f)
		}
	}
	if coeff.IsZero() {
		return N(0)
	}
	if len(others) == 0 {
		return coeff
	}
	sortByString(others)
	if coeff.IsOne() {
		if len(others) == 1 {
			return others[0]
		}
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{coeff}, others...)}
}

func (m *Mul) String() string {
	coeff, rest := splitCoeff(m)
	sign := ""
	if coeff.IsNegative() {
		sign = "-"
		coeff = numNeg(coeff)
	}

	var num, den []string
	switch cs := coeff.String(); {
	case coeff.IsOne():
	case !strings.Contains(cs, "/"):
		num = append(num, cs)
	default:
		if p := coeff.val.Num(); !(p.IsInt64() && p.Int64() == 1) {
			num = append(num, p.String())
		}
		den = append(den, coeff.val.Denom().String())
	}

	factors := []Expr{rest}
	if rm, ok := rest.(*Mul); ok {
		factors = rm.factors
	}
	for _, f := range factors {
		if p, ok := f.(*Pow); ok {
			if e, ok := p.exp.(*Num); ok && e.IsNegative() {
				den = append(den, wrapFactor(PowOf(p.base, numNeg(e))))
				continue
			}
		}
		num = append(num, wrapFactor(f))
	}

	s := "1"
	if len(num) > 0 {
		s = strings.Join(num, "*")
	}
	switch len(den) {
	case 0:
	case 1:
		s += "/" + den[0]
	default:
		s += "/(" + strings.Join(den, "*") + ")"
	}
	return sign + s
}

func (m *Mul) Sub(name string, value Expr) Expr {
	out := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		out[i] = f.Sub(name, value)
	}
	return MulOf(out...)
}

func (m *Mul) Eval(env map[string]float64) (float64, error) {
	prod := 1.0
	for _, f := range m.factors {
		v, err := f.Eval(env)
		if err != nil {
			return 0, err
		}
		prod *= v
	}
	return prod, nil
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

// Pow is base^exp. Simplification assumes positive real bases, which is the
// regime of physical quantities: (a*b)^n = a^n*b^n and (a^m)^n = a^(m*n).
type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func (p *Pow) Base() Expr     { return p.base }
func (p *Pow) Exponent() Expr { return p.exp }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	if en, ok := exp.(*Num); ok {
		if en.IsZero() {
			return N(1)
		}
		if en.IsOne() {
			return base
		}
	}

	if bn, ok := base.(*Num); ok {
		if bn.IsZero() {
			if en, ok := exp.(*Num); ok && en.IsNegative() {
				return &Pow{base: base, exp: exp}
			}
			return N(0)
		}
		if bn.IsOne() {
			return N(1)
		}
		if en, ok := exp.(*Num); ok {
			if r, ok := ratPow(bn, en); ok {
				return r
			}
		}
		return &Pow{base: base, exp: exp}
	}

	switch b := base.(type) {
	case *Pow:
		return PowOf(b.base, MulOf(b.exp, exp))
	case *Mul:
		fs := make([]Expr, len(b.factors))
		for i, f := range b.factors {
			fs[i] = PowOf(f, exp)
		}
		return MulOf(fs...)
	case *Func:
		if b.name == "exp" {
			return ExpOf(MulOf(b.arg, exp))
		}
	}
	return &Pow{base: base, exp: exp}
}

func (p *Pow) String() string {
	if e, ok := p.exp.(*Num); ok {
		if e.IsNegative() {
			return "1/" + wrapFactor(PowOf(p.base, numNeg(e)))
		}
		if e.Equal(F(1, 2)) {
			return "sqrt(" + p.base.String() + ")"
		}
	}
	return wrapBase(p.base) + "^" + wrapExp(p.exp)
}

func (p *Pow) Sub(name string, value Expr) Expr {
	return PowOf(p.base.Sub(name, value), p.exp.Sub(name, value))
}

func (p *Pow) Eval(env map[string]float64) (float64, error) {
	b, err := p.base.Eval(env)
	if err != nil {
		return 0, err
	}
	e, err := p.exp.Eval(env)
	if err != nil {
		return 0, err
	}
	v := math.Pow(b, e)
	if math.IsNaN(v) {
		return 0, fmt.Errorf("symbolic: %g^%g is not real", b, e)
	}
	return v, nil
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

// ratPow evaluates b^e exactly when the result is rational.
func ratPow(b, e *Num) (*Num, bool) {
	if e.IsInteger() {
		k := e.val.Num()
		if !k.IsInt64() || k.Int64() > 64 || k.Int64() < -64 {
			return nil, false
		}
		n := k.Int64()
		neg := n < 0
		if neg {
			n = -n
		}
		num := new(big.Int).Exp(b.val.Num(), big.NewInt(n), nil)
		den := new(big.Int).Exp(b.val.Denom(), big.NewInt(n), nil)
		r := &Num{val: new(big.Rat).SetFrac(num, den)}
		if neg {
			return numRecip(r), true
		}
		return r, true
	}
	if b.IsNegative() || !e.val.Denom().IsInt64() {
		return nil, false
	}
	q := e.val.Denom().Int64()
	num, ok1 := intRoot(b.val.Num(), q)
	den, ok2 := intRoot(b.val.Denom(), q)
	if !ok1 || !ok2 {
		return nil, false
	}
	root := &Num{val: new(big.Rat).SetFrac(num, den)}
	return ratPow(root, &Num{val: new(big.Rat).SetInt(e.val.Num())})
}

func intRoot(x *big.Int, q int64) (*big.Int, bool) {
	if !x.IsInt64() || q > 16 {
		return nil, false
	}
	r := int64(math.Round(math.Pow(float64(x.Int64()), 1/float64(q))))
	cand := big.NewInt(r)
	if new(big.Int).Exp(cand, big.NewInt(q), nil).Cmp(x) == 0 {
		return cand, true
	}
	return nil, false
}

// splitCoeff separates a leading numeric coefficient from the rest of a term.
func splitCoeff(e Expr) (*Num, Expr) {
	m, ok := e.(*Mul)
	if !ok || len(m.factors) < 2 {
		return N(1), e
	}
	c, ok := m.factors[0].(*Num)
	if !ok {
		return N(1), e
	}
	rest := m.factors[1:]
	if len(rest) == 1 {
		return c, rest[0]
	}
	return c, &Mul{factors: rest}
}

// negated returns -e when e carries a negative leading coefficient.
func negated(e Expr) (Expr, bool) {
	switch v := e.(type) {
	case *Num:
		if v.IsNegative() {
			return numNeg(v), true
		}
	case *Mul:
		c, rest := splitCoeff(v)
		if c.IsNegative() {
			return MulOf(numNeg(c), rest), true
		}
	}
	return nil, false
}

func sortByString(es []Expr) {
	keys := make(map[Expr]string, len(es))
	for _, e := range es {
		keys[e] = e.String()
	}
	sort.SliceStable(es, func(i, j int) bool { return keys[es[i]] < keys[es[j]] })
}

func wrapFactor(e Expr) string {
	if _, ok := e.(*Add); ok {
		return "(" + e.String() + ")"
	}
	return e.String()
}

func wrapBase(e Expr) string {
	switch v := e.(type) {
	case *Add, *Mul, *Pow:
		return "(" + e.String() + ")"
	case *Num:
		if v.IsNegative() || !v.IsInteger() {
			return "(" + e.String() + ")"
		}
	}
	return e.String()
}

func wrapExp(e Expr) string {
	switch v := e.(type) {
	case *Sym:
		return e.String()
	case *Num:
		if v.IsInteger() && !v.IsNegative() {
			return e.String()
		}
	}
	return "(" + e.String() + ")"
}
