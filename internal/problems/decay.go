package problems

import (
	"math"

	"github.com/san-kum/odestep/internal/dynamo"
)

// Decay is y' = -rate*y, y(0) = y0.
type Decay struct {
	rate float64
	y0   float64
	end  float64
}

func NewDecay() *Decay { return &Decay{rate: 1, y0: 1, end: 1} }

func (d *Decay) Size() int             { return 1 }
func (d *Decay) EndTime() float64      { return d.end }
func (d *Decay) Label() string         { return "decay" }
func (d *Decay) Initial() dynamo.State { return dynamo.State{d.y0} }

func (d *Decay) Derive(u dynamo.State, _ float64, _ int) float64 {
	return -d.rate * u[0]
}

func (d *Decay) Solution(t float64) dynamo.State {
	return dynamo.State{d.y0 * math.Exp(-d.rate*t)}
}

func (d *Decay) GetParams() map[string]float64 {
	return map[string]float64{"rate": d.rate, "y0": d.y0}
}

func (d *Decay) SetParam(name string, value float64) error {
	switch name {
	case "rate":
		d.rate = value
	case "y0":
		d.y0 = value
	default:
		return unknownParam(d.Label(), name)
	}
	return nil
}
