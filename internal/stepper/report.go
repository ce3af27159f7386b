package stepper

import (
	"fmt"
	"strings"
	"time"
)

// Report summarizes a run.
type Report struct {
	Problem        string
	Components     int
	EndTime        float64
	Time           float64
	Finished       bool
	Elapsed        time.Duration
	Accepted       int
	Diverged       int
	Rejected       int
	Iterations     int
	Stabilizations int
	Evaluations    int
	Samples        int
	MaxDepth       int
	// Elements counts the accepted elements of each component.
	Elements []int
}

// Attempts is the number of slabs tried.
func (r Report) Attempts() int { return r.Accepted + r.Diverged + r.Rejected }

func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "problem:         %s (%d components)\n", r.Problem, r.Components)
	fmt.Fprintf(&b, "time:            %.6g / %.6g\n", r.Time, r.EndTime)
	fmt.Fprintf(&b, "elapsed:         %v\n", r.Elapsed.Round(time.Microsecond))
	fmt.Fprintf(&b, "slabs:           %d accepted, %d diverged, %d rejected\n", r.Accepted, r.Diverged, r.Rejected)
	fmt.Fprintf(&b, "iterations:      %d\n", r.Iterations)
	fmt.Fprintf(&b, "slab depth:      %d\n", r.MaxDepth)
	fmt.Fprintf(&b, "stabilizations:  %d\n", r.Stabilizations)
	fmt.Fprintf(&b, "rhs evaluations: %d\n", r.Evaluations)
	fmt.Fprintf(&b, "samples:         %d\n", r.Samples)
	return b.String()
}
