package adaptivity

import (
	"math"
	"testing"

	"github.com/san-kum/odestep/internal/config"
	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/rhs"
	"github.com/san-kum/odestep/internal/solution"
)

type decay struct{ rate float64 }

func (d decay) Size() int             { return 1 }
func (d decay) EndTime() float64      { return 1 }
func (d decay) Initial() dynamo.State { return dynamo.State{1} }
func (d decay) Label() string         { return "decay" }
func (d decay) Derive(u dynamo.State, _ float64, _ int) float64 {
	return -d.rate * u[0]
}

type elements []int

func (e elements) Elements() []int { return e }

func solverConfig() config.SolverConfig {
	cfg := config.DefaultConfig().Solver
	cfg.InitialStep = 0.1
	cfg.Tolerance = 1e-3
	return cfg
}

// converged builds one cG(1) element over [0, k] holding the exact trapezoidal value.
func converged(t *testing.T, rate, k float64) (*solution.Solution, *rhs.Function, elements) {
	t.Helper()
	sys := decay{rate: rate}
	u, err := solution.New(sys)
	if err != nil {
		t.Fatalf("solution: %v", err)
	}
	id := u.Add(0, 0, k)
	u.Element(id).U1 = (1 - rate*k/2) / (1 + rate*k/2)
	return u, rhs.New(sys, u), elements{id}
}

func TestNewClipsInitialStep(t *testing.T) {
	cfg := solverConfig()
	cfg.InitialStep = 5
	c := New(3, 2, cfg)
	for i := 0; i < 3; i++ {
		if c.Timestep(i) != 2 {
			t.Errorf("step %d = %v, want end time 2", i, c.Timestep(i))
		}
	}
}

func TestAccept(t *testing.T) {
	c := New(1, 1, solverConfig())

	_, f, slab := converged(t, 1, 0.1)
	if c.Accept(slab, f) {
		t.Errorf("expected rejection, error estimate %.3e > tol", c.Error())
	}

	_, f, slab = converged(t, 0.01, 0.1)
	if !c.Accept(slab, f) {
		t.Errorf("expected acceptance, error estimate %.3e", c.Error())
	}
}

func TestShiftShrinksOnLargeResidual(t *testing.T) {
	c := New(1, 1, solverConfig())
	u, f, _ := converged(t, 1, 0.1)

	c.Shift(u, f)

	est := 0.1 * math.Abs((u.Element(0).U1-1)/0.1+u.Element(0).U1)
	want := 0.9 * 0.1 * math.Sqrt(1e-3/est)
	if math.Abs(c.Timestep(0)-want) > 1e-12 {
		t.Errorf("step = %v, want %v", c.Timestep(0), want)
	}
	if c.Timestep(0) >= 0.1 {
		t.Error("step should shrink")
	}
}

func TestShiftLimitsGrowth(t *testing.T) {
	c := New(1, 1, solverConfig())
	u, f, _ := converged(t, 0, 0.1)

	c.Shift(u, f)
	if got := c.Timestep(0); got > 0.2+1e-15 {
		t.Errorf("step grew to %v, limit is twice the previous step", got)
	}
	if got := c.Timestep(0); got <= 0.1 {
		t.Errorf("step should grow on zero residual, got %v", got)
	}
}

func TestStabilizeFreezesGrowth(t *testing.T) {
	c := New(1, 1, solverConfig())
	c.Stabilize(0.04, 2)

	if c.Timestep(0) != 0.04 {
		t.Fatalf("step = %v, want 0.04", c.Timestep(0))
	}

	for i := 0; i < 2; i++ {
		u, f, _ := converged(t, 0, 0.04)
		c.Shift(u, f)
		if c.Timestep(0) != 0.04 {
			t.Errorf("shift %d: step grew to %v during stabilization", i, c.Timestep(0))
		}
	}
	if c.Stabilizing() != 0 {
		t.Errorf("countdown = %d, want 0", c.Stabilizing())
	}

	u, f, _ := converged(t, 0, 0.04)
	c.Shift(u, f)
	if c.Timestep(0) <= 0.04 {
		t.Error("step should grow once stabilization ends")
	}
}

func TestFixedModeRestoresStep(t *testing.T) {
	cfg := solverConfig()
	cfg.FixedStep = true
	c := New(1, 1, cfg)
	if !c.Fixed() {
		t.Fatal("controller should be fixed")
	}

	u, f, _ := converged(t, 1, 0.1)
	c.Shift(u, f)
	if c.Timestep(0) != 0.1 {
		t.Errorf("fixed step changed to %v", c.Timestep(0))
	}

	c.Stabilize(0.05, 1)
	c.Shift(u, f)
	if c.Timestep(0) != 0.05 {
		t.Errorf("step = %v, want stabilized 0.05", c.Timestep(0))
	}
	c.Shift(u, f)
	if c.Timestep(0) != 0.1 {
		t.Errorf("step = %v, want fixed 0.1 after stabilization", c.Timestep(0))
	}
}

func TestLimitBelowMinimumCollapses(t *testing.T) {
	cfg := solverConfig()
	cfg.MinStep = 1e-6
	c := New(2, 1, cfg)

	c.Limit(1e-3)
	if c.Collapsed() {
		t.Fatal("1e-3 is above the floor")
	}
	c.Limit(1e-9)
	if !c.Collapsed() {
		t.Error("expected collapse below the minimum step")
	}
	if c.MinTimestep() != 1e-9 {
		t.Errorf("min step = %v", c.MinTimestep())
	}
}
