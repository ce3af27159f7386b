package problems

import (
	"math"

	"github.com/san-kum/odestep/internal/dynamo"
)

// Oscillator is the harmonic oscillator x” = -omega^2 x.
// State: [x, v]
type Oscillator struct {
	omega  float64
	x0, v0 float64
	end    float64
}

func NewOscillator() *Oscillator { return &Oscillator{omega: 1, x0: 1, end: 20} }

func (o *Oscillator) Size() int             { return 2 }
func (o *Oscillator) EndTime() float64      { return o.end }
func (o *Oscillator) Label() string         { return "oscillator" }
func (o *Oscillator) Initial() dynamo.State { return dynamo.State{o.x0, o.v0} }

func (o *Oscillator) Derive(u dynamo.State, _ float64, i int) float64 {
	if i == 0 {
		return u[1]
	}
	return -o.omega * o.omega * u[0]
}

func (o *Oscillator) Solution(t float64) dynamo.State {
	s, c := math.Sincos(o.omega * t)
	return dynamo.State{
		o.x0*c + o.v0/o.omega*s,
		-o.x0*o.omega*s + o.v0*c,
	}
}

// Energy is the total energy per unit mass.
func (o *Oscillator) Energy(u dynamo.State) float64 {
	return 0.5*u[1]*u[1] + 0.5*o.omega*o.omega*u[0]*u[0]
}

func (o *Oscillator) GetParams() map[string]float64 {
	return map[string]float64{"omega": o.omega, "x0": o.x0, "v0": o.v0}
}

func (o *Oscillator) SetParam(name string, value float64) error {
	switch name {
	case "omega":
		o.omega = value
	case "x0":
		o.x0 = value
	case "v0":
		o.v0 = value
	default:
		return unknownParam(o.Label(), name)
	}
	return nil
}
