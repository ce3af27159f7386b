// Package timeslab builds the tentative intervals solved by the fixed-point engine.
//
// A slab is a tree of nodes stored in an [Arena]. Each node owns one element
// per component of its group over the node interval. The uniform slab is a
// single node holding every component. The recursive slab lets the partition
// pick the components with the largest steps for the root and covers the
// remaining components with child nodes that tile the root interval, each
// splitting its components again. Fast components therefore take many short
// elements inside one slab while slow components take one.
//
// Building a slab resets the arena, so only one slab per arena is alive at a
// time. The solution must hold no tentative elements when a slab is built.
package timeslab

import (
	"math"

	"github.com/san-kum/odestep/internal/partition"
	"github.com/san-kum/odestep/internal/solution"
)

// Controller supplies the current step size of each component.
type Controller interface {
	Timestep(i int) float64
}

type Slab interface {
	Start() float64
	End() float64
	Length() float64
	Finished() bool
	// Elements returns element ids in solve order: a node's own elements
	// before the elements of its children, children in time order.
	Elements() []int
	Nodes() int
	Depth() int
	Subslabs(i int) int
}

type node struct {
	start, end     float64
	depth          int
	firstChild     int
	nextSibling    int
	elemLo, elemHi int
}

// Arena holds the nodes and element order of the current slab. Its storage
// is reused by every slab built on it.
type Arena struct {
	nodes []node
	order []int
	comps []int
}

func NewArena(n int) *Arena {
	return &Arena{
		nodes: make([]node, 0, 16),
		order: make([]int, 0, n),
		comps: make([]int, 0, n),
	}
}

func (a *Arena) reset() {
	a.nodes = a.nodes[:0]
	a.order = a.order[:0]
}

func (a *Arena) add(start, end float64, depth int) int {
	id := len(a.nodes)
	a.nodes = append(a.nodes, node{
		start:       start,
		end:         end,
		depth:       depth,
		firstChild:  -1,
		nextSibling: -1,
		elemLo:      len(a.order),
		elemHi:      len(a.order),
	})
	return id
}

type base struct {
	arena *Arena
	u     *solution.Solution
	T     float64
}

func (b *base) Start() float64  { return b.arena.nodes[0].start }
func (b *base) End() float64    { return b.arena.nodes[0].end }
func (b *base) Length() float64 { return b.End() - b.Start() }
func (b *base) Finished() bool  { return b.End() == b.T }
func (b *base) Elements() []int { return b.arena.order }

// Nodes is the number of slab nodes, the root included.
func (b *base) Nodes() int { return len(b.arena.nodes) }

// Depth is the deepest nesting level; a single node has depth 0.
func (b *base) Depth() int {
	d := 0
	for _, n := range b.arena.nodes {
		d = max(d, n.depth)
	}
	return d
}

// Subslabs is the number of elements component i takes inside the slab.
func (b *base) Subslabs(i int) int { return b.u.Count(i) }

// Uniform covers all components with one interval of the smallest step.
type Uniform struct {
	base
}

func NewUniform(t0, T float64, u *solution.Solution, ctrl Controller, arena *Arena) *Uniform {
	arena.reset()

	k := ctrl.Timestep(0)
	for i := 1; i < u.Size(); i++ {
		k = math.Min(k, ctrl.Timestep(i))
	}
	end := snap(t0, k, T)

	id := arena.add(t0, end, 0)
	for i := 0; i < u.Size(); i++ {
		arena.order = append(arena.order, u.Add(i, t0, end))
	}
	arena.nodes[id].elemHi = len(arena.order)

	return &Uniform{base{arena: arena, u: u, T: T}}
}

// Recursive is the multi-rate slab.
type Recursive struct {
	base
	part     *partition.Partition
	ctrl     Controller
	maxDepth int
}

// NewRecursive builds a multi-rate slab starting at t0. Nodes at maxDepth-1
// take all of their components with the smallest step, so the tree never
// nests deeper than maxDepth levels.
func NewRecursive(t0, T float64, u *solution.Solution, ctrl Controller, part *partition.Partition, arena *Arena, maxDepth int) *Recursive {
	arena.reset()
	arena.comps = part.Components(arena.comps)

	s := &Recursive{
		base:     base{arena: arena, u: u, T: T},
		part:     part,
		ctrl:     ctrl,
		maxDepth: max(maxDepth, 1),
	}
	s.build(t0, T, arena.comps, 0)
	return s
}

func (s *Recursive) build(t0, limit float64, comps []int, depth int) int {
	a := s.arena

	var g int
	var k float64
	if depth >= s.maxDepth-1 {
		g = len(comps)
		k = s.ctrl.Timestep(comps[0])
		for _, i := range comps[1:] {
			k = math.Min(k, s.ctrl.Timestep(i))
		}
	} else {
		g, k = s.part.Split(comps, s.ctrl.Timestep)
	}
	end := snap(t0, k, limit)

	id := a.add(t0, end, depth)
	for _, i := range comps[:g] {
		a.order = append(a.order, s.u.Add(i, t0, end))
	}
	a.nodes[id].elemHi = len(a.order)

	if g == len(comps) {
		return id
	}

	last := -1
	for t := t0; t < end; {
		child := s.build(t, end, comps[g:], depth+1)
		if last < 0 {
			a.nodes[id].firstChild = child
		} else {
			a.nodes[last].nextSibling = child
		}
		last = child
		t = a.nodes[child].end
	}
	return id
}

// snap returns t0+k clipped to limit. Ends that would leave a sliver shorter
// than a billionth of the step before limit land on limit exactly.
func snap(t0, k, limit float64) float64 {
	end := t0 + k
	eps := math.Max(1e-9*k, 4*(math.Nextafter(limit, math.Inf(1))-limit))
	if end >= limit-eps {
		return limit
	}
	if end <= t0 {
		return math.Nextafter(t0, limit)
	}
	return end
}
