package problems

import (
	"fmt"
	"sort"

	"github.com/san-kum/odestep/internal/dynamo"
)

type entry struct {
	build       func() dynamo.System
	description string
}

type Registry struct {
	problems map[string]entry
}

func NewRegistry() *Registry {
	r := &Registry{problems: make(map[string]entry)}

	r.problems["decay"] = entry{func() dynamo.System { return NewDecay() }, "exponential decay y' = -rate*y"}
	r.problems["twoscale"] = entry{func() dynamo.System { return NewTwoScale() }, "slow and fast decay, multi-rate test case"}
	r.problems["oscillator"] = entry{func() dynamo.System { return NewOscillator() }, "harmonic oscillator"}
	r.problems["vanderpol"] = entry{func() dynamo.System { return NewVanDerPol() }, "Van der Pol relaxation oscillator"}
	r.problems["lorenz"] = entry{func() dynamo.System { return NewLorenz() }, "Lorenz attractor"}
	r.problems["rossler"] = entry{func() dynamo.System { return NewRossler() }, "Rossler attractor, spiking z component"}
	r.problems["duffing"] = entry{func() dynamo.System { return NewDuffing() }, "forced Duffing oscillator, time-dependent right-hand side"}

	return r
}

// Get builds the named problem and applies params over its defaults.
func (r *Registry) Get(name string, params map[string]float64) (dynamo.System, error) {
	e, ok := r.problems[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown problem: %s", dynamo.ErrInvalidConfig, name)
	}
	sys := e.build()
	if len(params) == 0 {
		return sys, nil
	}
	c, ok := sys.(dynamo.Configurable)
	if !ok {
		return nil, fmt.Errorf("%w: %s takes no parameters", dynamo.ErrInvalidConfig, name)
	}
	for _, k := range sortedKeys(params) {
		if err := c.SetParam(k, params[k]); err != nil {
			return nil, err
		}
	}
	return sys, nil
}

func (r *Registry) Describe(name string) string { return r.problems[name].description }

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.problems))
	for name := range r.problems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
