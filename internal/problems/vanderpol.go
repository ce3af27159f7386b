package problems

import "github.com/san-kum/odestep/internal/dynamo"

// VanDerPol implements the Van der Pol oscillator.
// State: [x, y] where y = dx/dt
// Equations:
//
//	dx/dt = y
//	dy/dt = μ(1 - x²)y - x
type VanDerPol struct {
	mu  float64
	end float64
}

func NewVanDerPol() *VanDerPol {
	return &VanDerPol{
		mu:  1.0, // limit cycle
		end: 20,
	}
}

func (v *VanDerPol) Size() int             { return 2 }
func (v *VanDerPol) EndTime() float64      { return v.end }
func (v *VanDerPol) Label() string         { return "vanderpol" }
func (v *VanDerPol) Initial() dynamo.State { return dynamo.State{2.0, 0.0} }

func (v *VanDerPol) Derive(u dynamo.State, _ float64, i int) float64 {
	x, y := u[0], u[1]
	if i == 0 {
		return y
	}
	return v.mu*(1-x*x)*y - x
}

func (v *VanDerPol) GetParams() map[string]float64 {
	return map[string]float64{"mu": v.mu}
}

func (v *VanDerPol) SetParam(name string, value float64) error {
	if name != "mu" {
		return unknownParam(v.Label(), name)
	}
	v.mu = value
	return nil
}
