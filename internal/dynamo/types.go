package dynamo

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Norm returns the Euclidean norm.
func (s State) Norm() float64 {
	if len(s) == 0 {
		return 0
	}
	return floats.Norm(s, 2)
}

// MaxNorm returns the largest absolute component.
func (s State) MaxNorm() float64 {
	if len(s) == 0 {
		return 0
	}
	return floats.Norm(s, math.Inf(1))
}

// Distance returns the max-norm distance between s and other.
func (s State) Distance(other State) float64 {
	if len(s) == 0 {
		return 0
	}
	return floats.Distance(s, other, math.Inf(1))
}

// System is an initial value problem u' = f(u, t), u(0) = Initial(), on [0, EndTime()].
type System interface {
	Size() int
	EndTime() float64
	Initial() State
	// Derive returns component i of f(u, t).
	Derive(u State, t float64, i int) float64
	Label() string
}

// Exact is implemented by problems with a closed-form solution.
type Exact interface {
	Solution(t float64) State
}

// Configurable exposes named model parameters.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Derivative fills out with f(u, t) for all components.
func Derivative(sys System, u State, t float64, out State) {
	for i := range out {
		out[i] = sys.Derive(u, t, i)
	}
}

// Hamiltonian is implemented by conservative problems.
type Hamiltonian interface {
	Energy(u State) float64
}
