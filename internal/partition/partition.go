// Package partition groups ODE components that can share a step size.
//
// A Partition is built once from the problem size and never changes. The
// multi-rate time slab asks it to split a set of components: the leading group
// holds every component whose step is within a factor Threshold of the largest
// step, and that group advances with the smallest step among its members. The
// remaining components are handed to finer sub-slabs.
package partition

import (
	"fmt"
	"sort"

	"github.com/san-kum/odestep/internal/dynamo"
)

type Partition struct {
	n         int
	threshold float64
}

func New(n int, threshold float64) (*Partition, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: partition size must be positive, got %d", dynamo.ErrInvalidConfig, n)
	}
	if !(threshold > 0) || threshold > 1 {
		return nil, fmt.Errorf("%w: partition threshold must be in (0, 1], got %g", dynamo.ErrInvalidConfig, threshold)
	}
	return &Partition{n: n, threshold: threshold}, nil
}

func (p *Partition) Size() int          { return p.n }
func (p *Partition) Threshold() float64 { return p.threshold }

// Components fills dst with all component indices in base order.
func (p *Partition) Components(dst []int) []int {
	dst = dst[:0]
	for i := 0; i < p.n; i++ {
		dst = append(dst, i)
	}
	return dst
}

// Split reorders comps by descending step (ties by index) and returns the size
// of the leading group and the group's common step. comps is caller-owned
// scratch space; it must be non-empty.
func (p *Partition) Split(comps []int, step func(int) float64) (int, float64) {
	sort.SliceStable(comps, func(a, b int) bool {
		ka, kb := step(comps[a]), step(comps[b])
		if ka != kb {
			return ka > kb
		}
		return comps[a] < comps[b]
	})

	limit := p.threshold * step(comps[0])
	end := 1
	for end < len(comps) && step(comps[end]) >= limit {
		end++
	}
	return end, step(comps[end-1])
}
