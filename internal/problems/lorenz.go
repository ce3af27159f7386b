package problems

import "github.com/san-kum/odestep/internal/dynamo"

type Lorenz struct {
	sigma, rho, beta float64
	end              float64
}

func NewLorenz() *Lorenz { return &Lorenz{sigma: 10, rho: 28, beta: 8.0 / 3.0, end: 10} }

func (l *Lorenz) Size() int             { return 3 }
func (l *Lorenz) EndTime() float64      { return l.end }
func (l *Lorenz) Label() string         { return "lorenz" }
func (l *Lorenz) Initial() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }

func (l *Lorenz) Derive(s dynamo.State, _ float64, i int) float64 {
	switch i {
	case 0:
		return l.sigma * (s[1] - s[0])
	case 1:
		return s[0]*(l.rho-s[2]) - s[1]
	}
	return s[0]*s[1] - l.beta*s[2]
}

func (l *Lorenz) GetParams() map[string]float64 {
	return map[string]float64{"sigma": l.sigma, "rho": l.rho, "beta": l.beta}
}

func (l *Lorenz) SetParam(n string, v float64) error {
	switch n {
	case "sigma":
		l.sigma = v
	case "rho":
		l.rho = v
	case "beta":
		l.beta = v
	default:
		return unknownParam(l.Label(), n)
	}
	return nil
}
