package symbolic

import (
	"fmt"
	"math"
	"math/big"
)

// Expr is a node of an immutable expression tree. Constructors such as
// AddOf and MulOf return simplified trees; callers never mutate nodes.
type Expr interface {
	Simplify() Expr
	String() string
	Sub(name string, value Expr) Expr
	Eval(env map[string]float64) (float64, error)
	Equal(other Expr) bool
}

// Num is an exact rational constant.
type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }

func F(p, q int64) *Num {
	if q == 0 {
		panic("symbolic: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// NRat copies r into a new constant.
func NRat(r *big.Rat) *Num { return &Num{val: new(big.Rat).Set(r)} }

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) Float64() float64      { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.Cmp(big.NewRat(1, 1)) == 0 }
func (n *Num) IsNegOne() bool        { return n.val.Cmp(big.NewRat(-1, 1)) == 0 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }
func (n *Num) Rat() *big.Rat         { return new(big.Rat).Set(n.val) }

func (n *Num) Eval(map[string]float64) (float64, error) { return n.Float64(), nil }

// String prints integers plainly, terminating decimals as decimals and
// everything else as p/q.
func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	for prec := 1; prec <= 12; prec++ {
		s := n.val.FloatString(prec)
		if r, ok := new(big.Rat).SetString(s); ok && r.Cmp(n.val) == 0 {
			return s
		}
	}
	return n.val.RatString()
}

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numNeg(a *Num) *Num    { return &Num{val: new(big.Rat).Neg(a.val)} }

func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic("symbolic: division by zero")
	}
	return &Num{val: new(big.Rat).Inv(a.val)}
}

// Sym is a named symbol. The names in constants evaluate to fixed values and
// are never reported as free variables.
type Sym struct{ name string }

var constants = map[string]float64{
	"pi": math.Pi,
	"π":  math.Pi,
}

// IsConstant reports whether name denotes a built-in constant.
func IsConstant(name string) bool {
	_, ok := constants[name]
	return ok
}

func S(name string) *Sym { return &Sym{name: name} }

func (s *Sym) Simplify() Expr        { return s }
func (s *Sym) String() string        { return s.name }
func (s *Sym) Name() string          { return s.name }
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }

func (s *Sym) Sub(name string, value Expr) Expr {
	if s.name == name {
		return value
	}
	return s
}

func (s *Sym) Eval(env map[string]float64) (float64, error) {
	if v, ok := env[s.name]; ok {
		return v, nil
	}
	if v, ok := constants[s.name]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("symbolic: no value for %q", s.name)
}

func isNum(e Expr, v int64) bool {
	n, ok := e.(*Num)
	return ok && n.val.Cmp(big.NewRat(v, 1)) == 0
}
