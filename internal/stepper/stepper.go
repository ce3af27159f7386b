// Package stepper advances an ODE system from t = 0 to its end time in
// adaptive time slabs.
//
// Each Step builds a slab as long as the controller allows, solves it with
// the fixed-point engine and asks the controller to accept it. Rejected
// slabs are rolled back and retried with smaller steps until one is
// accepted, so time only moves forward.
package stepper

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/san-kum/odestep/internal/adaptivity"
	"github.com/san-kum/odestep/internal/config"
	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/fixedpoint"
	"github.com/san-kum/odestep/internal/logging"
	"github.com/san-kum/odestep/internal/partition"
	"github.com/san-kum/odestep/internal/rhs"
	"github.com/san-kum/odestep/internal/solution"
	"github.com/san-kum/odestep/internal/timeslab"
)

type Stepper struct {
	mu sync.Mutex

	sys    dynamo.System
	cfg    config.SolverConfig
	output config.OutputConfig

	u      *solution.Solution
	f      *rhs.Function
	engine *fixedpoint.Engine
	ctrl   *adaptivity.Controller
	part   *partition.Partition
	arena  *timeslab.Arena

	t        float64
	T        float64
	progress float64
	finished bool

	sampleStep float64
	nextSample int
	uBuf, fBuf dynamo.State

	started  time.Time
	report   Report
	elements []int

	log       logging.Logger
	observers []Observer
	sinks     []SampleSink
}

// New validates the configuration and prepares a stepper at t = 0. The end
// time is cfg.EndTime when set and the system's own end time otherwise.
func New(sys dynamo.System, cfg *config.Config, opts ...Option) (*Stepper, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := sys.Size()
	if n <= 0 {
		return nil, fmt.Errorf("%w: system has %d components", dynamo.ErrInvalidConfig, n)
	}
	T := cfg.EndTime
	if T == 0 {
		T = sys.EndTime()
	}
	if !(T > 0) || math.IsInf(T, 0) {
		return nil, fmt.Errorf("%w: end time must be positive, got %g for %s", dynamo.ErrInvalidConfig, T, sys.Label())
	}
	if k0 := math.Min(cfg.Solver.InitialStep, T); k0 < cfg.Solver.MinStep {
		return nil, fmt.Errorf("%w: initial step %g below min_step %g", dynamo.ErrInvalidConfig, k0, cfg.Solver.MinStep)
	}

	u, err := solution.New(sys)
	if err != nil {
		return nil, err
	}
	part, err := partition.New(n, cfg.Solver.Threshold)
	if err != nil {
		return nil, err
	}
	f := rhs.New(sys, u)

	s := &Stepper{
		sys:        sys,
		cfg:        cfg.Solver,
		output:     cfg.Output,
		u:          u,
		f:          f,
		engine:     fixedpoint.New(u, f, cfg.Solver),
		ctrl:       adaptivity.New(n, T, cfg.Solver),
		part:       part,
		arena:      timeslab.NewArena(n),
		T:          T,
		sampleStep: T / float64(cfg.Output.SampleCount),
		uBuf:       make(dynamo.State, n),
		fBuf:       make(dynamo.State, n),
		elements:   make([]int, n),
		started:    time.Now(),
		log:        logging.Noop(),
		report: Report{
			Problem:    sys.Label(),
			Components: n,
			EndTime:    T,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logging.String("problem", sys.Label()))

	s.log.Warn(context.Background(), "ODE solver is EXPERIMENTAL",
		logging.String("method", s.cfg.Method),
		logging.Bool("fixed_step", s.cfg.FixedStep),
		logging.Int("components", n),
		logging.Float("end_time", T),
	)
	return s, nil
}

// Step advances to the end of the next accepted slab and returns the new
// time. Rejected attempts are retried internally. The returned error is
// ErrFinished after the end time was reached, or a *dynamo.StepError when
// the step size collapses or too many attempts in a row are rejected.
func (s *Stepper) Step() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return s.t, dynamo.ErrFinished
	}

	for attempts := 1; ; attempts++ {
		ok, length, err := s.createTimeSlab()
		if err != nil {
			return s.t, &dynamo.StepError{Time: s.t, Length: length, Attempts: attempts, Wrapped: err}
		}
		if ok {
			return s.t, nil
		}

		if s.ctrl.Collapsed() || !(s.T+s.ctrl.MinTimestep() > s.T) {
			s.log.Error(context.Background(), "step size collapsed",
				logging.Float("t", s.t), logging.Float("k", s.ctrl.MinTimestep()))
			return s.t, &dynamo.StepError{Time: s.t, Length: length, Attempts: attempts, Wrapped: dynamo.ErrStepCollapse}
		}
		if attempts >= s.cfg.MaxRetries {
			s.log.Error(context.Background(), "too many rejected slabs",
				logging.Float("t", s.t), logging.Int("attempts", attempts))
			return s.t, &dynamo.StepError{Time: s.t, Length: length, Attempts: attempts, Wrapped: dynamo.ErrTooManyRetries}
		}
	}
}

// createTimeSlab makes one attempt and reports whether it was accepted
// together with the attempted slab length.
func (s *Stepper) createTimeSlab() (bool, float64, error) {
	first := s.t == 0

	var slab timeslab.Slab
	if first {
		slab = timeslab.NewUniform(s.t, s.T, s.u, s.ctrl, s.arena)
	} else {
		slab = timeslab.NewRecursive(s.t, s.T, s.u, s.ctrl, s.part, s.arena, s.cfg.MaxDepth)
	}
	length := slab.Length()
	ev := Event{Start: slab.Start(), End: slab.End(), Length: length, Nodes: slab.Nodes(), Depth: slab.Depth()}

	converged := s.engine.Iterate(slab)
	ev.Iterations = s.engine.Sweeps()

	if !converged {
		alpha, m := s.stabilize(length)
		s.u.Reset()
		s.log.Warn(context.Background(), "fixed-point iteration diverged, stabilizing",
			logging.Float("t", s.t),
			logging.Float("k", length),
			logging.Float("alpha", alpha),
			logging.Int("m", m),
		)
		s.emit(ev, Diverged)
		return false, length, nil
	}

	if s.checkResidual(first) {
		accepted := s.ctrl.Accept(slab, s.f)
		ev.Error = s.ctrl.Error()
		if !accepted {
			s.ctrl.Shift(s.u, s.f)
			s.ctrl.Limit(0.5 * length)
			s.u.Reset()
			s.report.Rejected++
			s.log.Info(context.Background(), "residual too large, rejecting slab",
				logging.Float("t", s.t),
				logging.Float("k", length),
				logging.Float("error", ev.Error),
			)
			s.emit(ev, Rejected)
			return false, length, nil
		}
	}

	end := slab.End()
	finished := slab.Finished()
	if err := s.save(slab.Start(), end, finished); err != nil {
		s.u.Reset()
		return false, length, err
	}
	for i := range s.elements {
		s.elements[i] += slab.Subslabs(i)
	}
	s.report.MaxDepth = max(s.report.MaxDepth, ev.Depth)
	s.ctrl.Shift(s.u, s.f)
	if err := s.u.Shift(end); err != nil {
		s.u.Reset()
		return false, length, err
	}

	s.t = end
	s.progress = s.t / s.T
	s.report.Accepted++
	if finished {
		s.finished = true
		s.progress = 1
		s.report.Elapsed = time.Since(s.started)
	}

	s.log.Debug(context.Background(), "slab accepted",
		logging.Float("t", s.t),
		logging.Float("k", length),
		logging.Int("iterations", ev.Iterations),
		logging.Int("depth", ev.Depth),
		logging.Int("stabilizing", s.ctrl.Stabilizing()),
	)
	s.emit(ev, Accepted)
	if s.finished {
		s.log.Info(context.Background(), "end time reached", s.reportFields()...)
	}
	return true, length, nil
}

// stabilize damps the steps after a failed iteration on a slab of length k.
func (s *Stepper) stabilize(k float64) (float64, int) {
	alpha, m := s.engine.Stabilization()
	s.ctrl.Stabilize(math.Min(alpha, 0.5)*k, m)
	s.report.Stabilizations++
	return alpha, m
}

func (s *Stepper) checkResidual(first bool) bool {
	if s.ctrl.Fixed() {
		return false
	}
	switch s.cfg.ResidualCheck {
	case config.ResidualCheckFirst:
		return first
	case config.ResidualCheckDisabled:
		return false
	}
	return true
}

// save writes the samples falling in [start, end), plus the end time on the
// final slab, from the tentative solution.
func (s *Stepper) save(start, end float64, final bool) error {
	if !s.output.SaveSolution || len(s.sinks) == 0 {
		return nil
	}
	for ; s.nextSample < s.output.SampleCount; s.nextSample++ {
		t := float64(s.nextSample) * s.sampleStep
		if t >= end {
			break
		}
		if t < start {
			continue
		}
		if err := s.write(t); err != nil {
			return err
		}
	}
	if final {
		s.nextSample = s.output.SampleCount
		return s.write(end)
	}
	return nil
}

func (s *Stepper) write(t float64) error {
	s.u.Vector(t, s.uBuf)
	s.f.Vector(t, s.fBuf)
	sample := Sample{Time: t, U: s.uBuf.Clone(), F: s.fBuf.Clone()}
	for _, sink := range s.sinks {
		if err := sink.WriteSample(sample); err != nil {
			return fmt.Errorf("write sample at t=%g: %w", t, err)
		}
	}
	s.report.Samples++
	return nil
}

func (s *Stepper) emit(ev Event, kind EventKind) {
	ev.Kind = kind
	ev.Time = s.t
	ev.Progress = s.progress
	ev.Stabilizing = s.ctrl.Stabilizing()
	for _, o := range s.observers {
		o.OnSlab(ev)
	}
}

func (s *Stepper) reportFields() []logging.Field {
	r := s.reportLocked()
	return []logging.Field{
		logging.Int("accepted", r.Accepted),
		logging.Int("diverged", r.Diverged),
		logging.Int("rejected", r.Rejected),
		logging.Int("iterations", r.Iterations),
		logging.Int("evaluations", r.Evaluations),
		logging.Any("elapsed", r.Elapsed),
	}
}

func (s *Stepper) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

func (s *Stepper) Time() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t
}

func (s *Stepper) EndTime() float64 { return s.T }

// Progress is t/T, exactly 1 once finished.
func (s *Stepper) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Steps returns the current per-component step sizes.
func (s *Stepper) Steps() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Steps()
}

// State returns a copy of the committed solution at Time().
func (s *Stepper) State() dynamo.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.u.Committed()
}

func (s *Stepper) Report() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reportLocked()
}

func (s *Stepper) reportLocked() Report {
	r := s.report
	fp := s.engine.Report()
	r.Iterations = fp.Sweeps
	r.Diverged = fp.Failures
	r.Time = s.t
	r.Finished = s.finished
	r.Evaluations = s.f.Evaluations()
	r.Elements = append([]int(nil), s.elements...)
	if !s.finished {
		r.Elapsed = time.Since(s.started)
	}
	return r
}

// Solve runs sys to its end time. The context is checked between steps.
func Solve(ctx context.Context, sys dynamo.System, cfg *config.Config, opts ...Option) (Report, error) {
	s, err := New(sys, cfg, opts...)
	if err != nil {
		return Report{}, err
	}
	for !s.Finished() {
		if err := ctx.Err(); err != nil {
			return s.Report(), fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, err)
		}
		if _, err := s.Step(); err != nil {
			return s.Report(), err
		}
	}
	return s.Report(), nil
}
