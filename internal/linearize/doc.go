// Package linearize rearranges a two-variable physical law into the straight
// line form Y' = m·X' + c.
//
// Both axis assignments are attempted. Each one isolates the Y variable,
// then looks for an affine dependence on X, on a single transform of X, or
// on X after taking logarithms of both sides. Successful candidates are
// scored by a list of [Rule] functions against a [Convention] of which
// quantities belong on which axis, and the lowest score wins.
//
// # Example
//
//	eq := equation.Equation{
//		Name:       "Radioactive decay",
//		Expression: "A = A0*exp(-λ*t)",
//		Variables:  map[string]string{"A": "activity", "A0": "initial activity", "λ": "decay constant", "t": "time"},
//	}
//	res, err := linearize.New().Linearize(eq, "A", "t", "λ")
//	if err != nil {
//		return err
//	}
//	fmt.Println(res.Form)           // ln(A) = -λ·t + ln(A0)
//	fmt.Println(res.TargetSolution) // λ = -m
package linearize
