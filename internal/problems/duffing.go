package problems

import (
	"math"

	"github.com/san-kum/odestep/internal/dynamo"
)

// Duffing is the forced nonlinear oscillator
// x” + delta x' + alpha x + beta x^3 = gamma cos(omega t).
type Duffing struct {
	Alpha, Beta, Delta, Gamma, Omega float64
	end                              float64
}

func NewDuffing() *Duffing {
	return &Duffing{Alpha: -1.0, Beta: 1.0, Delta: 0.3, Gamma: 0.5, Omega: 1.2, end: 50}
}

func (d *Duffing) Size() int             { return 2 }
func (d *Duffing) EndTime() float64      { return d.end }
func (d *Duffing) Label() string         { return "duffing" }
func (d *Duffing) Initial() dynamo.State { return dynamo.State{1.0, 0.0} }

func (d *Duffing) Derive(s dynamo.State, t float64, i int) float64 {
	if i == 0 {
		return s[1]
	}
	x, v := s[0], s[1]
	return -d.Delta*v - d.Alpha*x - d.Beta*x*x*x + d.Gamma*math.Cos(d.Omega*t)
}

// Energy is the unforced part. It is only conserved for delta = gamma = 0.
func (d *Duffing) Energy(s dynamo.State) float64 {
	x, v := s[0], s[1]
	return 0.5*v*v + 0.5*d.Alpha*x*x + 0.25*d.Beta*x*x*x*x
}

func (d *Duffing) GetParams() map[string]float64 {
	return map[string]float64{"alpha": d.Alpha, "beta": d.Beta, "delta": d.Delta, "gamma": d.Gamma, "omega": d.Omega}
}

func (d *Duffing) SetParam(n string, v float64) error {
	switch n {
	case "alpha":
		d.Alpha = v
	case "beta":
		d.Beta = v
	case "delta":
		d.Delta = v
	case "gamma":
		d.Gamma = v
	case "omega":
		d.Omega = v
	default:
		return unknownParam(d.Label(), n)
	}
	return nil
}
