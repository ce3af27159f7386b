package stepper

import (
	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/logging"
)

type EventKind int

const (
	Accepted EventKind = iota
	Diverged
	Rejected
)

func (k EventKind) String() string {
	switch k {
	case Accepted:
		return "accepted"
	case Diverged:
		return "diverged"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Event describes one slab attempt.
type Event struct {
	Kind       EventKind
	Start      float64
	End        float64
	Length     float64
	Time       float64 // stepper time after the attempt
	Progress   float64
	Iterations int
	Error      float64 // residual error estimate, zero when not checked
	Nodes      int     // slab tree size
	Depth      int
	// Stabilizing is the number of coming slabs whose steps may not grow.
	Stabilizing int
}

type Observer interface {
	OnSlab(ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnSlab(ev Event) { f(ev) }

// Sample is the solution and its derivative at one output time.
type Sample struct {
	Time float64
	U    dynamo.State
	F    dynamo.State
}

type SampleSink interface {
	WriteSample(s Sample) error
}

type Option func(*Stepper)

func WithLogger(l logging.Logger) Option {
	return func(s *Stepper) {
		if l != nil {
			s.log = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Stepper) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

func WithSampleSink(sink SampleSink) Option {
	return func(s *Stepper) {
		if sink != nil {
			s.sinks = append(s.sinks, sink)
		}
	}
}
