package synth

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/san-kum/linlab/internal/config"
	"github.com/san-kum/linlab/internal/equation"
)

// Law is a catalogue equation with the constants and sweep needed to
// simulate an experiment. X is swept over [From, To]; Y is computed.
type Law struct {
	Equation equation.Equation
	X, Y     string
	Params   map[string]float64
	From, To float64
}

type Registry struct {
	laws map[string]func() Law
}

func NewRegistry() *Registry {
	r := &Registry{laws: make(map[string]func() Law)}

	r.register("kinematics", "mechanics", "kinematics", "t", "v", 0, 5, map[string]float64{"u": 2, "a": 9.81})
	r.register("displacement", "mechanics", "displacement", "t", "s", 0.1, 2, map[string]float64{"a": 9.81})
	r.register("pendulum", "mechanics", "pendulum", "L", "T", 0.2, 1.2, map[string]float64{"g": 9.81})
	r.register("hooke", "mechanics", "hooke", "x", "F", 0.01, 0.1, map[string]float64{"k": 25})
	r.register("boyle", "thermal", "boyle", "V", "p", 1, 10, map[string]float64{"k": 100})
	r.register("cooling", "thermal", "cooling", "t", "θ", 0, 60, map[string]float64{"θ0": 60, "k": 0.05})
	r.register("ohm", "electricity", "ohm", "I", "V", 0.01, 0.2, map[string]float64{"R": 47})
	r.register("capacitor", "electricity", "capacitor_discharge", "t", "V", 0, 5, map[string]float64{"V0": 12, "R": 1000, "C": 0.001})
	r.register("decay", "nuclear", "decay", "t", "A", 0, 10, map[string]float64{"A0": 1000, "λ": 0.3})
	r.register("inverse_square", "nuclear", "inverse_square", "d", "I", 0.1, 1, map[string]float64{"k": 500})
	r.register("lens", "waves", "thin_lens", "u", "v", 0.15, 0.6, map[string]float64{"f": 0.1})
	r.register("power_law", "general", "power_law", "x", "y", 1, 10, map[string]float64{"k": 3, "n": 1.5})

	return r
}

func (r *Registry) register(name, topic, preset, x, y string, from, to float64, params map[string]float64) {
	r.laws[name] = func() Law {
		p := make(map[string]float64, len(params))
		for k, v := range params {
			p[k] = v
		}
		return Law{
			Equation: *config.GetPreset(topic, preset),
			X:        x,
			Y:        y,
			Params:   p,
			From:     from,
			To:       to,
		}
	}
}

func (r *Registry) Get(name string) (Law, error) {
	fn, ok := r.laws[name]
	if !ok {
		return Law{}, errors.Errorf("unknown law: %s", name)
	}
	return fn(), nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.laws))
	for name := range r.laws {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
