package problems

import "github.com/san-kum/odestep/internal/dynamo"

// Rossler spends most of its orbit slow in z and then spikes, so z wants
// much smaller steps than x and y near the spike.
type Rossler struct{ a, b, c, end float64 }

func NewRossler() *Rossler { return &Rossler{a: 0.2, b: 0.2, c: 5.7, end: 50} }

func (r *Rossler) Size() int             { return 3 }
func (r *Rossler) EndTime() float64      { return r.end }
func (r *Rossler) Label() string         { return "rossler" }
func (r *Rossler) Initial() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }

func (r *Rossler) Derive(s dynamo.State, _ float64, i int) float64 {
	switch i {
	case 0:
		return -s[1] - s[2]
	case 1:
		return s[0] + r.a*s[1]
	}
	return r.b + s[2]*(s[0]-r.c)
}

func (r *Rossler) GetParams() map[string]float64 {
	return map[string]float64{"a": r.a, "b": r.b, "c": r.c}
}

func (r *Rossler) SetParam(n string, v float64) error {
	switch n {
	case "a":
		r.a = v
	case "b":
		r.b = v
	case "c":
		r.c = v
	default:
		return unknownParam(r.Label(), n)
	}
	return nil
}
