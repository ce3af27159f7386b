package problems

import (
	"math"

	"github.com/san-kum/odestep/internal/dynamo"
)

// TwoScale decays two independent components at different rates:
//
//	u0' = -slow*u0
//	u1' = -fast*u1
//
// The fast component needs much shorter steps than the slow one.
type TwoScale struct {
	slow, fast float64
	end        float64
}

func NewTwoScale() *TwoScale { return &TwoScale{slow: 1, fast: 100, end: 2} }

func (p *TwoScale) Size() int             { return 2 }
func (p *TwoScale) EndTime() float64      { return p.end }
func (p *TwoScale) Label() string         { return "twoscale" }
func (p *TwoScale) Initial() dynamo.State { return dynamo.State{1, 1} }

func (p *TwoScale) Derive(u dynamo.State, _ float64, i int) float64 {
	if i == 0 {
		return -p.slow * u[0]
	}
	return -p.fast * u[1]
}

func (p *TwoScale) Solution(t float64) dynamo.State {
	return dynamo.State{math.Exp(-p.slow * t), math.Exp(-p.fast * t)}
}

func (p *TwoScale) GetParams() map[string]float64 {
	return map[string]float64{"slow": p.slow, "fast": p.fast}
}

func (p *TwoScale) SetParam(name string, value float64) error {
	switch name {
	case "slow":
		p.slow = value
	case "fast":
		p.fast = value
	default:
		return unknownParam(p.Label(), name)
	}
	return nil
}
