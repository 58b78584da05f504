package fitting

import (
	"math"
	"strings"
)

// Func evaluates a model at x for the parameter vector p.
type Func func(x float64, p []float64) float64

// Model is one entry of the fit catalogue. Adding a model is a matter of
// appending to Catalogue.
type Model struct {
	Name    string
	Formula string
	Params  []string
	Eval    Func

	// Domain, when set, reports whether x lies where the closed form is
	// defined. Eval clamps points outside it, and a fit needs at least one
	// point inside.
	Domain func(x float64, p []float64) bool
}

// Arity returns the number of free parameters.
func (m Model) Arity() int { return len(m.Params) }

// Guess returns the starting point of the solver: every parameter is one.
func (m Model) Guess() []float64 {
	p := make([]float64, m.Arity())
	for i := range p {
		p[i] = 1
	}
	return p
}

// covers reports whether some x lies inside the model's domain for p.
func (m Model) covers(x, p []float64) bool {
	if m.Domain == nil {
		return true
	}
	for _, v := range x {
		if m.Domain(v, p) {
			return true
		}
	}
	return false
}

// Catalogue lists the models fitted by FitAll, in tie-break order.
var Catalogue = []Model{
	{
		Name:    "Linear",
		Formula: "a*x + b",
		Params:  []string{"a", "b"},
		Eval:    func(x float64, p []float64) float64 { return p[0]*x + p[1] },
	},
	{
		Name:    "Quadratic",
		Formula: "a*x^2 + b*x + c",
		Params:  []string{"a", "b", "c"},
		Eval:    func(x float64, p []float64) float64 { return (p[0]*x+p[1])*x + p[2] },
	},
	{
		Name:    "Cubic",
		Formula: "a*x^3 + b*x^2 + c*x + d",
		Params:  []string{"a", "b", "c", "d"},
		Eval:    func(x float64, p []float64) float64 { return ((p[0]*x+p[1])*x+p[2])*x + p[3] },
	},
	{
		Name:    "Exponential increase",
		Formula: "a*exp(b*x) + c",
		Params:  []string{"a", "b", "c"},
		Eval:    func(x float64, p []float64) float64 { return p[0]*math.Exp(p[1]*x) + p[2] },
	},
	{
		Name:    "Exponential decrease",
		Formula: "a*exp(-b*x) + c",
		Params:  []string{"a", "b", "c"},
		Eval:    func(x float64, p []float64) float64 { return p[0]*math.Exp(-p[1]*x) + p[2] },
	},
	{
		Name:    "Logarithmic",
		Formula: "a*ln(b*x) + c",
		Params:  []string{"a", "b", "c"},
		Eval: func(x float64, p []float64) float64 {
			bx := p[1] * x
			if bx <= 0 {
				return p[2]
			}
			return p[0]*math.Log(bx) + p[2]
		},
		Domain: func(x float64, p []float64) bool { return p[1]*x > 0 },
	},
	{
		Name:    "Logistic",
		Formula: "a/(1 + exp(-b*(x - c)))",
		Params:  []string{"a", "b", "c"},
		Eval:    func(x float64, p []float64) float64 { return p[0] / (1 + math.Exp(-p[1]*(x-p[2]))) },
	},
	{
		Name:    "Gaussian",
		Formula: "a*exp(-(x - b)^2/(2*c^2))",
		Params:  []string{"a", "b", "c"},
		Eval: func(x float64, p []float64) float64 {
			d := x - p[1]
			return p[0] * math.Exp(-d*d/(2*p[2]*p[2]))
		},
	},
	{
		Name:    "Sinusoidal",
		Formula: "a*sin(b*x + c) + d",
		Params:  []string{"a", "b", "c", "d"},
		Eval:    func(x float64, p []float64) float64 { return p[0]*math.Sin(p[1]*x+p[2]) + p[3] },
	},
}

// ModelByName finds a catalogue model, ignoring case.
func ModelByName(name string) (Model, bool) {
	for _, m := range Catalogue {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return Model{}, false
}

// ModelNames returns the catalogue names in order.
func ModelNames() []string {
	names := make([]string, len(Catalogue))
	for i, m := range Catalogue {
		names[i] = m.Name
	}
	return names
}
