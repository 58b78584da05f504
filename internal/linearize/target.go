package linearize

import (
	"strings"

	"github.com/san-kum/linlab/internal/symbolic"
)

// TargetValue evaluates the target variable from a fitted gradient and
// intercept. ok is false when every solution still depends on another
// unknown symbol.
func (r *Result) TargetValue(gradient, intercept float64) (value float64, ok bool) {
	if r.TargetSolution == "" {
		return 0, false
	}
	for _, sol := range strings.Split(r.TargetSolution, "; ") {
		parts := strings.SplitN(sol, " = ", 2)
		if len(parts) != 2 {
			continue
		}
		e, err := symbolic.Parse(parts[1])
		if err != nil {
			continue
		}
		env := map[string]float64{"m": gradient, "c": intercept}
		if symbolic.Contains(e, "gradient") || symbolic.Contains(e, "intercept") {
			env = map[string]float64{"gradient": gradient, "intercept": intercept}
		}
		v, err := e.Eval(env)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}
