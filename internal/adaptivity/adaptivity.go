// Package adaptivity implements the step-size controller of the time stepper.
//
// The controller keeps one step size per component. After every accepted slab
// Shift recomputes the steps from the residual of each component's last
// element. After a failed fixed-point iteration Stabilize caps all steps and
// freezes growth for a number of slabs.
package adaptivity

import (
	"math"

	"github.com/san-kum/odestep/internal/config"
	"github.com/san-kum/odestep/internal/rhs"
	"github.com/san-kum/odestep/internal/solution"
)

const maxGrowth = 2.0

// Slab is the part of a time slab the controller needs.
type Slab interface {
	Elements() []int
}

type Controller struct {
	steps     []float64
	fixedStep float64
	kmin      float64
	kmax      float64
	tol       float64
	safety    float64
	fixed     bool
	method    string

	countdown int
	collapsed bool
	lastError float64
}

// New creates a controller for n components on [0, T].
func New(n int, T float64, cfg config.SolverConfig) *Controller {
	kmax := cfg.MaxStep
	if kmax <= 0 || kmax > T {
		kmax = T
	}
	k0 := math.Min(cfg.InitialStep, kmax)

	steps := make([]float64, n)
	for i := range steps {
		steps[i] = k0
	}
	return &Controller{
		steps:     steps,
		fixedStep: k0,
		kmin:      cfg.MinStep,
		kmax:      kmax,
		tol:       cfg.Tolerance,
		safety:    cfg.Safety,
		fixed:     cfg.FixedStep,
		method:    cfg.Method,
	}
}

func (c *Controller) Fixed() bool            { return c.fixed }
func (c *Controller) Timestep(i int) float64 { return c.steps[i] }
func (c *Controller) Collapsed() bool        { return c.collapsed }
func (c *Controller) Stabilizing() int       { return c.countdown }

// Error is the largest error estimate seen by the last Accept.
func (c *Controller) Error() float64 { return c.lastError }

// Steps returns a copy of the per-component steps.
func (c *Controller) Steps() []float64 {
	out := make([]float64, len(c.steps))
	copy(out, c.steps)
	return out
}

// MinTimestep is the smallest component step.
func (c *Controller) MinTimestep() float64 {
	k := c.steps[0]
	for _, s := range c.steps[1:] {
		k = math.Min(k, s)
	}
	return k
}

// Accept reports whether every element of a converged slab meets the tolerance.
func (c *Controller) Accept(slab Slab, f *rhs.Function) bool {
	u := f.Solution()
	worst := 0.0
	for _, id := range slab.Elements() {
		e := u.Element(id)
		est := e.Length() * c.residual(u, f, id)
		if !(est <= worst) {
			worst = est
		}
	}
	c.lastError = worst
	return worst <= c.tol
}

// Shift updates the steps from the tentative solution of the last slab.
func (c *Controller) Shift(u *solution.Solution, f *rhs.Function) {
	if c.fixed {
		if c.countdown > 0 {
			c.countdown--
			return
		}
		for i := range c.steps {
			c.steps[i] = c.fixedStep
		}
		return
	}

	for i := range c.steps {
		id, ok := u.Last(i)
		if !ok {
			continue
		}
		k := u.Element(id).Length()
		est := k * c.residual(u, f, id)

		var next float64
		switch {
		case math.IsNaN(est) || math.IsInf(est, 0):
			next = 0.5 * k
		case est == 0:
			next = c.kmax
		default:
			next = c.safety * k * math.Sqrt(c.tol/est)
		}

		prev := c.steps[i]
		if next > prev {
			next = math.Min(2*prev*next/(prev+next), maxGrowth*prev)
			if c.countdown > 0 {
				next = prev
			}
		}
		c.steps[i] = c.clip(next)
	}

	if c.countdown > 0 {
		c.countdown--
	}
}

// Stabilize caps every step at k and blocks growth for the next m slabs.
func (c *Controller) Stabilize(k float64, m int) {
	c.Limit(k)
	if m > c.countdown {
		c.countdown = m
	}
}

// Limit caps every step at k.
func (c *Controller) Limit(k float64) {
	if !(k > 0) || k < c.kmin {
		c.collapsed = true
	}
	for i := range c.steps {
		if k < c.steps[i] {
			c.steps[i] = k
		}
	}
}

func (c *Controller) clip(k float64) float64 {
	if k > c.kmax {
		return c.kmax
	}
	if k < c.kmin {
		c.collapsed = true
		return c.kmin
	}
	return k
}

// residual compares the element slope with the derivative: at the right end
// for cG(1), at the left end for dG(0), where the converged equations make
// the other comparison vanish.
func (c *Controller) residual(u *solution.Solution, f *rhs.Function, id int) float64 {
	e := u.Element(id)
	v0 := u.StartValue(id)
	slope := (e.U1 - v0) / e.Length()
	t := e.End
	if c.method == config.MethodDG {
		t = e.Start
	}
	return math.Abs(slope - f.Eval(e.Component, t))
}
