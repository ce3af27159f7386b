// Package dynamo provides the core primitives shared by the time-slab solver.
//
// The package defines the fundamental interfaces and types for the numerical
// solution of systems of ordinary differential equations (ODEs):
//
//   - [State]: vector of component values
//   - [System]: interface for ODE problems (du_i/dt = f_i(u, t))
//   - [Exact]: optional closed-form solution used for error analysis
//   - [StepError]: terminal failure raised by the time stepper
//
// # Example
//
//	sys := problems.NewDecay()
//	report, err := stepper.Solve(ctx, sys, config.DefaultConfig())
//
// # Components
//
// Right-hand sides are evaluated one component at a time. This is what lets
// the multi-rate stepper advance each component with its own step size: a
// component evaluated inside a short sub-slab only pays for its own f_i.
package dynamo
