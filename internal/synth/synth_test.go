package synth

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/linlab/internal/fitting"
	"github.com/san-kum/linlab/internal/transform"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	names := r.List()
	if len(names) == 0 {
		t.Fatal("expected registered laws")
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("names not sorted: %v", names)
		}
	}
	if _, err := r.Get("perpetual_motion"); err == nil {
		t.Error("expected error for unknown law")
	}
}

func TestRegistryCopiesParams(t *testing.T) {
	r := NewRegistry()
	a, _ := r.Get("decay")
	a.Params["λ"] = 99
	b, _ := r.Get("decay")
	if b.Params["λ"] != 0.3 {
		t.Errorf("expected λ 0.3, got %g", b.Params["λ"])
	}
}

func TestGenerateAll(t *testing.T) {
	r := NewRegistry()
	g := New(Options{Points: 10, Noise: 0.02, XError: 0.001, Seed: 7})

	for _, name := range r.List() {
		law, err := r.Get(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		d, err := g.Generate(law)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if d.Len() != 10 {
			t.Errorf("%s: expected 10 points, got %d", name, d.Len())
		}
		if d.X.Title != law.X || d.Y.Title != law.Y {
			t.Errorf("%s: expected titles %s/%s, got %s/%s", name, law.X, law.Y, d.X.Title, d.Y.Title)
		}
		for i, v := range d.Y.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("%s: point %d not finite", name, i)
			}
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	law, _ := NewRegistry().Get("pendulum")
	opts := Options{Points: 8, Noise: 0.05, Seed: 42}

	a, err := New(opts).Generate(law)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(opts).Generate(law)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Y.Values {
		if a.Y.Values[i] != b.Y.Values[i] {
			t.Errorf("point %d: %g != %g", i, a.Y.Values[i], b.Y.Values[i])
		}
	}
}

func TestGenerateExact(t *testing.T) {
	law, _ := NewRegistry().Get("decay")
	d, err := New(Options{Points: 11, XError: 0.01}).Generate(law)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(d.Y.Values[0]-1000) > 1e-9 {
		t.Errorf("expected A(0)=1000, got %g", d.Y.Values[0])
	}
	// |dA/dt| = λ·A0 at t = 0
	if math.Abs(d.Y.Uncertainties[0]-3) > 1e-9 {
		t.Errorf("expected uncertainty 3, got %g", d.Y.Uncertainties[0])
	}
	if d.X.Uncertainties[5] != 0.01 {
		t.Errorf("expected x uncertainty 0.01, got %g", d.X.Uncertainties[5])
	}
}

func TestGenerateRejectsOptions(t *testing.T) {
	law, _ := NewRegistry().Get("ohm")
	if _, err := New(Options{Points: 2}).Generate(law); err == nil {
		t.Error("expected error for too few points")
	}
	if _, err := New(Options{Points: 5, Noise: -0.1}).Generate(law); err == nil {
		t.Error("expected error for negative noise")
	}
}

func TestDecayStraightens(t *testing.T) {
	law, _ := NewRegistry().Get("decay")
	d, err := New(Options{Points: 12}).Generate(law)
	if err != nil {
		t.Fatal(err)
	}
	logged, err := transform.Apply(d, transform.LabelIdentity, transform.LabelNaturalLog)
	if err != nil {
		t.Fatal(err)
	}

	linear, _ := fitting.ModelByName("Linear")
	results, err := fitting.NewFitter(fitting.Options{}, linear).FitAll(context.Background(), logged)
	if err != nil {
		t.Fatal(err)
	}
	fit := results["Linear"]
	if math.Abs(fit.Params[0]+0.3) > 1e-6 {
		t.Errorf("expected gradient -0.3, got %g", fit.Params[0])
	}
	if math.Abs(fit.Params[1]-math.Log(1000)) > 1e-6 {
		t.Errorf("expected intercept ln(1000), got %g", fit.Params[1])
	}
}
