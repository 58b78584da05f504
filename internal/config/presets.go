package config

import (
	"sort"

	"github.com/san-kum/linlab/internal/equation"
)

// Presets is the built-in equation catalogue grouped by topic.
var Presets = map[string]map[string]*equation.Equation{
	"mechanics": {
		"kinematics": {
			Name:       "Uniform acceleration",
			Expression: "v = u + a*t",
			Variables:  map[string]string{"v": "final velocity", "u": "initial velocity", "a": "acceleration", "t": "time"},
			Class:      equation.ClassLinear,
			Hints:      &equation.Hints{X: "t", Y: "v", Gradient: "acceleration", Intercept: "initial velocity"},
		},
		"displacement": {
			Name:       "Displacement from rest",
			Expression: "s = 0.5*a*t^2",
			Variables:  map[string]string{"s": "displacement", "a": "acceleration", "t": "time"},
			Class:      equation.ClassQuadratic,
			Hints:      &equation.Hints{X: "t", Y: "s", Gradient: "half the acceleration", Intercept: "zero"},
		},
		"pendulum": {
			Name:       "Simple pendulum",
			Expression: "T = 2*pi*sqrt(L/g)",
			Variables:  map[string]string{"T": "period", "L": "length", "g": "gravitational field strength"},
			Class:      equation.ClassPower,
			Hints:      &equation.Hints{X: "L", Y: "T", Gradient: "2π/√g", Intercept: "zero"},
		},
		"hooke": {
			Name:       "Hooke's law",
			Expression: "F = k*x",
			Variables:  map[string]string{"F": "force", "k": "spring constant", "x": "extension"},
			Class:      equation.ClassLinear,
			Hints:      &equation.Hints{X: "x", Y: "F", Gradient: "spring constant", Intercept: "zero"},
		},
		"kinetic_energy": {
			Name:       "Kinetic energy",
			Expression: "E = 0.5*m*v^2",
			Variables:  map[string]string{"E": "kinetic energy", "m": "mass", "v": "speed"},
			Class:      equation.ClassQuadratic,
		},
	},
	"thermal": {
		"boyle": {
			Name:       "Boyle's law",
			Expression: "p*V = k",
			Variables:  map[string]string{"p": "pressure", "V": "volume", "k": "constant of proportionality"},
			Class:      equation.ClassReciprocal,
			Hints:      &equation.Hints{X: "V", Y: "p", Gradient: "pV constant", Intercept: "zero"},
		},
		"cooling": {
			Name:       "Newton's law of cooling",
			Expression: "θ = θ0*exp(-k*t)",
			Variables:  map[string]string{"θ": "temperature excess", "θ0": "initial temperature excess", "k": "cooling constant", "t": "time"},
			Class:      equation.ClassExponential,
			Hints:      &equation.Hints{X: "t", Y: "θ", Gradient: "-cooling constant", Intercept: "ln(initial temperature excess)"},
		},
		"stefan_boltzmann": {
			Name:       "Stefan-Boltzmann law",
			Expression: "P = σ*A*T^4",
			Variables:  map[string]string{"P": "radiated power", "σ": "Stefan-Boltzmann constant", "A": "surface area", "T": "temperature"},
			Class:      equation.ClassPower,
			Hints:      &equation.Hints{X: "T", Y: "P", Gradient: "σA", Intercept: "zero"},
		},
	},
	"electricity": {
		"ohm": {
			Name:       "Ohm's law",
			Expression: "V = I*R",
			Variables:  map[string]string{"V": "potential difference", "I": "current", "R": "resistance"},
			Class:      equation.ClassLinear,
			Hints:      &equation.Hints{X: "I", Y: "V", Gradient: "resistance", Intercept: "zero"},
		},
		"capacitor_discharge": {
			Name:       "Capacitor discharge",
			Expression: "V = V0*exp(-t/(R*C))",
			Variables:  map[string]string{"V": "voltage", "V0": "initial voltage", "t": "time", "R": "resistance", "C": "capacitance"},
			Class:      equation.ClassExponential,
			Hints:      &equation.Hints{X: "t", Y: "V", Gradient: "-1/(RC)", Intercept: "ln(initial voltage)"},
		},
		"capacitor_charge": {
			Name:       "Capacitor charging",
			Expression: "Q = Q0*(1 - exp(-t/(R*C)))",
			Variables:  map[string]string{"Q": "charge", "Q0": "final charge", "t": "time", "R": "resistance", "C": "capacitance"},
			Class:      equation.ClassExponential,
		},
	},
	"nuclear": {
		"decay": {
			Name:       "Radioactive decay",
			Expression: "A = A0*exp(-λ*t)",
			Variables:  map[string]string{"A": "activity", "A0": "initial activity", "λ": "decay constant", "t": "time"},
			Class:      equation.ClassExponential,
			Hints:      &equation.Hints{X: "t", Y: "A", Gradient: "-decay constant", Intercept: "ln(initial activity)"},
		},
		"inverse_square": {
			Name:       "Inverse square law",
			Expression: "I = k/d^2",
			Variables:  map[string]string{"I": "intensity", "k": "source strength", "d": "distance"},
			Class:      equation.ClassPower,
			Hints:      &equation.Hints{X: "d", Y: "I", Gradient: "source strength", Intercept: "zero"},
		},
	},
	"waves": {
		"wave_speed": {
			Name:       "Wave equation",
			Expression: "v = f*λ",
			Variables:  map[string]string{"v": "wave speed", "f": "frequency", "λ": "wavelength"},
			Class:      equation.ClassLinear,
		},
		"thin_lens": {
			Name:       "Thin lens",
			Expression: "1/v + 1/u = 1/f",
			Variables:  map[string]string{"v": "image distance", "u": "object distance", "f": "focal length"},
			Class:      equation.ClassReciprocal,
			Hints:      &equation.Hints{X: "u", Y: "v", Gradient: "-1", Intercept: "1/focal length"},
		},
	},
	"general": {
		"power_law": {
			Name:       "Power law",
			Expression: "y = k*x^n",
			Variables:  map[string]string{"y": "", "k": "", "x": "", "n": ""},
			Class:      equation.ClassPower,
			Hints:      &equation.Hints{X: "x", Y: "y", Gradient: "exponent n", Intercept: "ln(k)"},
		},
	},
}

func GetPreset(topic, preset string) *equation.Equation {
	topicPresets, ok := Presets[topic]
	if !ok {
		return nil
	}
	eq, ok := topicPresets[preset]
	if !ok {
		return nil
	}
	return eq
}

func ListPresets(topic string) []string {
	topicPresets, ok := Presets[topic]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(topicPresets))
	for name := range topicPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Topics() []string {
	topics := make([]string, 0, len(Presets))
	for t := range Presets {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// BuiltinCatalogue collects every preset, ordered by topic and key.
func BuiltinCatalogue() (*equation.Catalogue, error) {
	var eqs []equation.Equation
	for _, topic := range Topics() {
		for _, key := range ListPresets(topic) {
			eqs = append(eqs, *Presets[topic][key])
		}
	}
	return equation.NewCatalogue(eqs...)
}
