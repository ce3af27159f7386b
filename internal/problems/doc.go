// Package problems provides built-in initial value problems.
//
// Each problem implements [dynamo.System] and [dynamo.Configurable]:
//
//   - [Decay]: scalar exponential decay, exact solution known
//   - [TwoScale]: a slow and a fast decaying component, the multi-rate test case
//   - [Oscillator]: harmonic oscillator, exact solution and energy known
//   - [VanDerPol]: relaxation oscillator, stiff for large mu
//   - [Lorenz]: butterfly attractor
//
// Problems are built by name through a [Registry]:
//
//	sys, err := problems.NewRegistry().Get("twoscale", map[string]float64{"fast": 100})
package problems

import (
	"fmt"

	"github.com/san-kum/odestep/internal/dynamo"
)

func unknownParam(problem, name string) error {
	return fmt.Errorf("%w: %s has no parameter %q", dynamo.ErrInvalidConfig, problem, name)
}
