// Package rhs evaluates the right-hand side of a system on the tentative solution.
package rhs

import (
	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/solution"
)

type Function struct {
	sys   dynamo.System
	u     *solution.Solution
	buf   dynamo.State
	evals int
}

func New(sys dynamo.System, u *solution.Solution) *Function {
	return &Function{
		sys: sys,
		u:   u,
		buf: make(dynamo.State, sys.Size()),
	}
}

// Eval returns f_i(u(t), t).
func (f *Function) Eval(i int, t float64) float64 {
	f.u.Vector(t, f.buf)
	f.evals++
	return f.sys.Derive(f.buf, t, i)
}

// Vector fills out with f(u(t), t).
func (f *Function) Vector(t float64, out dynamo.State) {
	f.u.Vector(t, f.buf)
	dynamo.Derivative(f.sys, f.buf, t, out)
	f.evals += len(out)
}

// Solution returns the solution the function reads from.
func (f *Function) Solution() *solution.Solution { return f.u }

// Evaluations is the number of component evaluations so far.
func (f *Function) Evaluations() int { return f.evals }
