package problems

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/odestep/internal/dynamo"
)

func TestRegistryBuildsAll(t *testing.T) {
	r := NewRegistry()
	names := r.List()
	if len(names) != 7 {
		t.Fatalf("expected 7 problems, got %v", names)
	}

	for _, name := range names {
		sys, err := r.Get(name, nil)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if sys.Label() != name {
			t.Errorf("label %q for problem %q", sys.Label(), name)
		}
		u0 := sys.Initial()
		if len(u0) != sys.Size() {
			t.Errorf("%s: initial state has %d values, size %d", name, len(u0), sys.Size())
		}
		if sys.EndTime() <= 0 {
			t.Errorf("%s: end time %v", name, sys.EndTime())
		}
		out := make(dynamo.State, sys.Size())
		dynamo.Derivative(sys, u0, 0, out)
		if !out.IsValid() {
			t.Errorf("%s: invalid derivative %v", name, out)
		}
		if r.Describe(name) == "" {
			t.Errorf("%s: missing description", name)
		}
	}
}

func TestRegistryParams(t *testing.T) {
	r := NewRegistry()

	sys, err := r.Get("twoscale", map[string]float64{"fast": 50})
	if err != nil {
		t.Fatal(err)
	}
	if got := sys.(dynamo.Configurable).GetParams()["fast"]; got != 50 {
		t.Errorf("fast = %v, want 50", got)
	}

	if _, err := r.Get("decay", map[string]float64{"bogus": 1}); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("unknown parameter: err = %v", err)
	}
	if _, err := r.Get("nope", nil); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("unknown problem: err = %v", err)
	}
}

// TestExactSolutions checks that the closed forms satisfy the equations.
func TestExactSolutions(t *testing.T) {
	systems := []dynamo.System{NewDecay(), NewTwoScale(), NewOscillator()}
	const h = 1e-6

	for _, sys := range systems {
		ex := sys.(dynamo.Exact)
		if d := ex.Solution(0).Distance(sys.Initial()); d > 1e-12 {
			t.Errorf("%s: solution(0) differs from initial state by %v", sys.Label(), d)
		}
		for _, tt := range []float64{0.01, 0.3, 1.7} {
			u := ex.Solution(tt)
			f := make(dynamo.State, sys.Size())
			dynamo.Derivative(sys, u, tt, f)
			plus, minus := ex.Solution(tt+h), ex.Solution(tt-h)
			for i := range u {
				fd := (plus[i] - minus[i]) / (2 * h)
				if math.Abs(fd-f[i]) > 1e-5*math.Max(1, math.Abs(f[i])) {
					t.Errorf("%s: t=%v component %d: derivative %v, finite difference %v", sys.Label(), tt, i, f[i], fd)
				}
			}
		}
	}
}

func TestOscillatorEnergy(t *testing.T) {
	o := NewOscillator()
	e0 := o.Energy(o.Initial())
	if e0 != 0.5 {
		t.Errorf("initial energy = %v, want 0.5", e0)
	}
	if e := o.Energy(o.Solution(3.3)); math.Abs(e-e0) > 1e-12 {
		t.Errorf("energy drifts along the exact solution: %v", e)
	}
}

func TestDuffingForcing(t *testing.T) {
	d := NewDuffing()
	u := dynamo.State{0, 0}
	// at rest in the origin only the forcing term remains
	if got := d.Derive(u, 0, 1); got != d.Gamma {
		t.Errorf("a(0) = %v, want %v", got, d.Gamma)
	}
	half := math.Pi / d.Omega
	if got := d.Derive(u, half, 1); math.Abs(got+d.Gamma) > 1e-12 {
		t.Errorf("a(pi/omega) = %v, want %v", got, -d.Gamma)
	}
	if err := d.SetParam("mass", 1); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("unknown param: %v", err)
	}
}

func TestRosslerFixedPoint(t *testing.T) {
	r := NewRossler()
	check := func(name string, got, want float64) {
		t.Helper()
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
	u := dynamo.State{0, 0, 0}
	check("x'", r.Derive(u, 0, 0), 0)
	check("y'", r.Derive(u, 0, 1), 0)
	check("z'", r.Derive(u, 0, 2), r.b)
}
