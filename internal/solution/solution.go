// Package solution holds the solution state of a time-slab run.
//
// Values live in two buffers. The committed buffer holds u at the base time
// of the current slab and only changes on Shift. The tentative buffer is an
// element table: each element is a linear piece of one component over one
// sub-interval of the slab being attempted. An element starts where the
// previous element of the same component ends, or at the committed value for
// the first element. Reset drops the element table; Shift evaluates it at the
// new base time and commits the result.
package solution

import (
	"fmt"
	"sort"

	"github.com/san-kum/odestep/internal/dynamo"
)

// Element is one linear piece of a component over [Start, End].
type Element struct {
	Component  int
	Start, End float64
	U1         float64
	prev       int
}

func (e *Element) Length() float64 { return e.End - e.Start }

type Solution struct {
	label  string
	t0     float64
	u0     dynamo.State
	elems  []Element
	byComp [][]int
	next   dynamo.State
}

func New(sys dynamo.System) (*Solution, error) {
	n := sys.Size()
	u0 := sys.Initial()
	if n <= 0 {
		return nil, fmt.Errorf("%w: system size must be positive, got %d", dynamo.ErrInvalidConfig, n)
	}
	if len(u0) != n {
		return nil, fmt.Errorf("%w: initial state has %d components, system has %d", dynamo.ErrDimensionMismatch, len(u0), n)
	}
	if !u0.IsValid() {
		return nil, dynamo.ErrInvalidState
	}
	return &Solution{
		label:  sys.Label(),
		u0:     u0.Clone(),
		byComp: make([][]int, n),
		next:   make(dynamo.State, n),
	}, nil
}

func (s *Solution) Size() int       { return len(s.u0) }
func (s *Solution) Label() string   { return s.label }
func (s *Solution) Time() float64   { return s.t0 }
func (s *Solution) Elements() int   { return len(s.elems) }
func (s *Solution) Count(i int) int { return len(s.byComp[i]) }

// Committed returns a copy of the committed values at Time().
func (s *Solution) Committed() dynamo.State { return s.u0.Clone() }

// Add creates a tentative element for component i over [a, b]. Elements of a
// component must be added in time order. The end value starts at the element's
// start value.
func (s *Solution) Add(i int, a, b float64) int {
	prev := -1
	if ids := s.byComp[i]; len(ids) > 0 {
		prev = ids[len(ids)-1]
	}
	id := len(s.elems)
	s.elems = append(s.elems, Element{Component: i, Start: a, End: b, prev: prev})
	s.elems[id].U1 = s.StartValue(id)
	s.byComp[i] = append(s.byComp[i], id)
	return id
}

// Element returns the element with the given id. The pointer is valid until
// the next Add, Reset or Shift.
func (s *Solution) Element(id int) *Element { return &s.elems[id] }

// StartValue is the value at the left end of the element.
func (s *Solution) StartValue(id int) float64 {
	if p := s.elems[id].prev; p >= 0 {
		return s.elems[p].U1
	}
	return s.u0[s.elems[id].Component]
}

// Last returns the latest element of component i.
func (s *Solution) Last(i int) (int, bool) {
	ids := s.byComp[i]
	if len(ids) == 0 {
		return -1, false
	}
	return ids[len(ids)-1], true
}

// Value evaluates the tentative solution of component i at t.
func (s *Solution) Value(i int, t float64) float64 {
	ids := s.byComp[i]
	if len(ids) == 0 {
		return s.u0[i]
	}
	j := sort.Search(len(ids), func(j int) bool { return s.elems[ids[j]].End >= t })
	if j == len(ids) {
		return s.elems[ids[j-1]].U1
	}
	id := ids[j]
	e := &s.elems[id]
	v0 := s.StartValue(id)
	if t <= e.Start {
		return v0
	}
	return v0 + (e.U1-v0)*(t-e.Start)/(e.End-e.Start)
}

// Vector evaluates all components at t into out.
func (s *Solution) Vector(t float64, out dynamo.State) {
	for i := range s.u0 {
		out[i] = s.Value(i, t)
	}
}

// Reset discards the tentative elements.
func (s *Solution) Reset() {
	s.elems = s.elems[:0]
	for i := range s.byComp {
		s.byComp[i] = s.byComp[i][:0]
	}
}

// Shift commits the tentative solution at t as the new base state.
func (s *Solution) Shift(t float64) error {
	s.Vector(t, s.next)
	if !s.next.IsValid() {
		return dynamo.ErrInvalidState
	}
	copy(s.u0, s.next)
	s.t0 = t
	s.Reset()
	return nil
}
