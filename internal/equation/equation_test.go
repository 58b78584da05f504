package equation

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/linlab/internal/errs"
)

var (
	kinematics = Equation{
		Name:       "Uniform acceleration",
		Expression: "v = u + a*t",
		Variables:  map[string]string{"v": "final velocity", "u": "initial velocity", "a": "acceleration", "t": "time"},
		Class:      ClassLinear,
	}
	decay = Equation{
		Name:       "Radioactive decay",
		Expression: "A = A0*exp(-λ*t)",
		Variables:  map[string]string{"A": "activity", "A0": "initial activity", "λ": "decay constant", "t": "time"},
		Class:      ClassExponential,
		Hints:      &Hints{X: "t", Y: "A", Gradient: "-decay constant", Intercept: "ln(initial activity)"},
	}
)

// TestParseCustom verifies variables are extracted from identifier tokens
func TestParseCustom(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"y = m*x + c", []string{"c", "m", "x", "y"}},
		{"y = sin(x)", []string{"x", "y"}},
		{"E = 1.5e3*m", []string{"E", "m"}},
		{"T = 2*pi*sqrt(L/g)", []string{"L", "T", "g"}},
		{"I = I0*exp(-μ*d)", []string{"I", "I0", "d", "μ"}},
	}

	for _, tt := range tests {
		eq, err := ParseCustom(tt.input)
		require.NoError(t, err, tt.input)
		require.Equal(t, tt.expected, eq.Symbols(), tt.input)
		require.Equal(t, ClassCustom, eq.Class)
		require.NoError(t, eq.Validate())
	}
}

// TestParseCustomRejects verifies malformed or underdetermined input is a ParseError
func TestParseCustomRejects(t *testing.T) {
	for _, in := range []string{"y = 2*pi", "y = (x", "y + x", "y = x = z"} {
		_, err := ParseCustom(in)
		require.Error(t, err, in)
		require.True(t, errors.Is(err, errs.ErrParse), in)
	}
}

// TestEquationMeaning verifies meanings fall back to the symbol
func TestEquationMeaning(t *testing.T) {
	require.Equal(t, "decay constant", decay.Meaning("λ"))
	require.Equal(t, "q", decay.Meaning("q"))
	require.True(t, decay.HasVariable("A0"))
	require.False(t, decay.HasVariable("B"))
}

// TestHintsApplies verifies hints only match their declared axes
func TestHintsApplies(t *testing.T) {
	require.True(t, decay.Hints.Applies("t", "A"))
	require.False(t, decay.Hints.Applies("A", "t"))
	require.True(t, (&Hints{}).Applies("x", "y"))

	var none *Hints
	require.False(t, none.Applies("t", "A"))
}

// TestValidate verifies undeclared symbols are rejected
func TestValidate(t *testing.T) {
	bad := kinematics
	bad.Variables = map[string]string{"v": "", "u": "", "a": ""}
	require.Error(t, bad.Validate())

	unnamed := kinematics
	unnamed.Name = ""
	require.Error(t, unnamed.Validate())

	require.NoError(t, kinematics.Validate())
}

// TestCatalogue verifies lookup, search and duplicate rejection
func TestCatalogue(t *testing.T) {
	c, err := NewCatalogue(kinematics, decay)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	eq, ok := c.Get("Radioactive decay")
	require.True(t, ok)
	require.Equal(t, "A = A0*exp(-λ*t)", eq.Expression)

	_, ok = c.Get("radioactive decay")
	require.False(t, ok, "lookup is exact")

	require.Len(t, c.Search("decay"), 1)
	require.Len(t, c.Search("TIME"), 2)
	require.Len(t, c.Search("initial velocity"), 1)
	require.Empty(t, c.Search("pendulum"))

	_, err = c.With(decay)
	require.Error(t, err)
}

// TestCatalogueSaveLoad verifies YAML persistence keeps hints and meanings
func TestCatalogueSaveLoad(t *testing.T) {
	c, err := NewCatalogue(kinematics, decay)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "catalogue.yaml")
	require.NoError(t, c.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, c.List(), loaded.List())
}
