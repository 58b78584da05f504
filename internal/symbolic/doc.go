// Package symbolic provides the small computer-algebra kernel used to reason
// about physical laws.
//
// Expressions are immutable trees built from:
//
//   - [Num]: exact rational constant
//   - [Sym]: named variable (pi and π are constants)
//   - [Add], [Mul], [Pow]: canonical sums, products and powers
//   - [Func]: elementary functions such as exp, ln and sin
//
// Constructors ([AddOf], [MulOf], [PowOf]) always return simplified trees,
// so structural equality via [Expr.Equal] is meaningful after construction.
//
// # Example
//
//	lhs, rhs, _ := symbolic.ParseEquation("A = A0*exp(-λ*t)")
//	logged := symbolic.ExpandLog(symbolic.LnOf(rhs))
//	slope, intercept, _, _ := symbolic.Affine(logged, "t")
//	// slope = -λ, intercept = ln(A0)
//
// # Assumptions
//
// Simplification treats symbols as positive reals, which is the regime of
// measured physical quantities. Numeric evaluation reports non-real results
// as errors instead of returning NaN.
package symbolic
