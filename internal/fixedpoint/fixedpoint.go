// Package fixedpoint solves the discrete equations of a time slab by
// Gauss-Seidel iteration over its elements.
package fixedpoint

import (
	"math"

	"github.com/san-kum/odestep/internal/config"
	"github.com/san-kum/odestep/internal/rhs"
	"github.com/san-kum/odestep/internal/solution"
)

// maxRho bounds the contraction estimate after a non-finite sweep.
const maxRho = 1e3

type Slab interface {
	Elements() []int
}

// Report holds running totals of the engine.
type Report struct {
	Sweeps   int
	Slabs    int
	Failures int
}

type Engine struct {
	u       *solution.Solution
	f       *rhs.Function
	method  string
	maxIter int
	tol     float64

	rho       float64
	lastSweep int
	report    Report
}

func New(u *solution.Solution, f *rhs.Function, cfg config.SolverConfig) *Engine {
	return &Engine{
		u:       u,
		f:       f,
		method:  cfg.Method,
		maxIter: cfg.MaxIterations,
		tol:     cfg.IterationTolerance,
		rho:     1,
	}
}

// Iterate sweeps the slab until the largest relative increment drops below
// the tolerance. It returns false when the increments grow for two sweeps in
// a row, become non-finite, or the sweep limit is reached.
func (e *Engine) Iterate(slab Slab) bool {
	e.report.Slabs++
	ids := slab.Elements()

	prev := math.Inf(1)
	growing := 0
	rho := 0.0

	for sweep := 1; sweep <= e.maxIter; sweep++ {
		d, rel := e.sweep(ids)
		e.report.Sweeps++
		e.lastSweep = sweep

		if math.IsNaN(d) || math.IsInf(d, 0) {
			return e.fail(maxRho)
		}
		if rel <= e.tol {
			return true
		}

		if sweep > 1 && prev > 0 {
			ratio := d / prev
			rho = math.Max(rho, ratio)
			if ratio > 1 {
				growing++
				if growing >= 2 {
					return e.fail(rho)
				}
			} else {
				growing = 0
			}
		}
		prev = d
	}
	return e.fail(rho)
}

// sweep updates every element once and returns the largest absolute and
// relative increments.
func (e *Engine) sweep(ids []int) (float64, float64) {
	worst, rel := 0.0, 0.0
	for _, id := range ids {
		el := e.u.Element(id)
		v0 := e.u.StartValue(id)
		k := el.Length()

		var next float64
		switch e.method {
		case config.MethodDG:
			next = v0 + k*e.f.Eval(el.Component, el.End)
		default:
			fa := e.f.Eval(el.Component, el.Start)
			fb := e.f.Eval(el.Component, el.End)
			next = v0 + 0.5*k*(fa+fb)
		}

		d := math.Abs(next - el.U1)
		el.U1 = next
		if !(d <= worst) {
			worst = d
		}
		if r := d / math.Max(1, math.Abs(next)); !(r <= rel) {
			rel = r
		}
	}
	return worst, rel
}

func (e *Engine) fail(rho float64) bool {
	e.report.Failures++
	if math.IsNaN(rho) || rho > maxRho {
		rho = maxRho
	}
	e.rho = rho
	return false
}

// Stabilization returns the damping factor alpha and the number of slabs m
// derived from the contraction estimate of the last failed iteration.
func (e *Engine) Stabilization() (float64, int) {
	alpha := 1 / (1 + e.rho)
	m := int(math.Ceil(math.Log2(1 + e.rho)))
	return alpha, max(m, 1)
}

// Sweeps is the number of sweeps of the last Iterate.
func (e *Engine) Sweeps() int { return e.lastSweep }

func (e *Engine) Report() Report { return e.report }
