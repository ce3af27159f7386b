package stepper_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/odestep/internal/config"
	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/problems"
	"github.com/san-kum/odestep/internal/stepper"
)

type recorder struct {
	events []stepper.Event
}

func (r *recorder) OnSlab(ev stepper.Event) { r.events = append(r.events, ev) }

func (r *recorder) accepted() []stepper.Event {
	var out []stepper.Event
	for _, ev := range r.events {
		if ev.Kind == stepper.Accepted {
			out = append(out, ev)
		}
	}
	return out
}

type sink struct {
	samples []stepper.Sample
}

func (s *sink) WriteSample(sample stepper.Sample) error {
	s.samples = append(s.samples, sample)
	return nil
}

// unbounded is a system without its own end time.
type unbounded struct{ dynamo.System }

func (unbounded) EndTime() float64 { return 0 }

func decay(rate float64) dynamo.System {
	d := problems.NewDecay()
	Expect(d.SetParam("rate", rate)).To(Succeed())
	return d
}

func run(s *stepper.Stepper) {
	for !s.Finished() {
		_, err := s.Step()
		Expect(err).NotTo(HaveOccurred())
	}
}

var _ = Describe("Stepper", func() {
	var rec *recorder

	BeforeEach(func() {
		rec = &recorder{}
	})

	Describe("construction", func() {
		It("rejects invalid configurations", func() {
			cfg := config.DefaultConfig()
			cfg.Output.SampleCount = 0
			_, err := stepper.New(decay(1), cfg)
			Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
		})

		It("rejects an initial step below the minimum step", func() {
			cfg := config.DefaultConfig()
			cfg.Solver.InitialStep = 1e-6
			cfg.Solver.MinStep = 1e-3
			cfg.Solver.MaxStep = 1
			_, err := stepper.New(decay(1), cfg)
			Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
		})

		It("rejects a negative end time instead of using the system end time", func() {
			cfg := config.DefaultConfig()
			cfg.EndTime = -5
			s, err := stepper.New(decay(1), cfg)
			Expect(s).To(BeNil())
			Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("end_time"))
		})

		It("rejects a run when neither config nor system gives an end time", func() {
			cfg := config.DefaultConfig()
			cfg.EndTime = 0
			s, err := stepper.New(unbounded{decay(1)}, cfg)
			Expect(s).To(BeNil())
			Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
		})

		It("uses the config end time for a system without one", func() {
			cfg := config.DefaultConfig()
			cfg.EndTime = 2
			s, err := stepper.New(unbounded{decay(1)}, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.EndTime()).To(Equal(2.0))
		})

		It("falls back to the system end time", func() {
			cfg := config.DefaultConfig()
			cfg.EndTime = 0
			s, err := stepper.New(decay(1), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.EndTime()).To(Equal(1.0))
			Expect(s.Time()).To(BeZero())
			Expect(s.State()).To(Equal(dynamo.State{1}))
		})
	})

	Describe("fixed-step decay", func() {
		var s *stepper.Stepper

		BeforeEach(func() {
			var err error
			s, err = stepper.New(decay(1), config.GetPreset("decay", "fixed"), stepper.WithObserver(rec))
			Expect(err).NotTo(HaveOccurred())
		})

		It("takes ten slabs of 0.1 without rejections", func() {
			for j := 1; j <= 10; j++ {
				t, err := s.Step()
				Expect(err).NotTo(HaveOccurred())
				Expect(t).To(BeNumerically("~", 0.1*float64(j), 1e-12))
			}
			Expect(s.Finished()).To(BeTrue())
			Expect(s.Time()).To(Equal(1.0))
			Expect(s.Progress()).To(Equal(1.0))

			r := s.Report()
			Expect(r.Accepted).To(Equal(10))
			Expect(r.Diverged + r.Rejected).To(BeZero())
			Expect(rec.events).To(HaveLen(10))
		})

		It("matches the trapezoidal rule", func() {
			run(s)
			x := 0.05
			Expect(s.State()[0]).To(BeNumerically("~", math.Pow((1-x)/(1+x), 10), 1e-9))
		})

		It("refuses to step past the end time", func() {
			run(s)
			t, err := s.Step()
			Expect(errors.Is(err, dynamo.ErrFinished)).To(BeTrue())
			Expect(t).To(Equal(1.0))
		})
	})

	Describe("fixed-step mode", func() {
		It("never rejects on the residual", func() {
			cfg := config.DefaultConfig()
			cfg.EndTime = 0.1
			cfg.Solver.FixedStep = true
			cfg.Solver.InitialStep = 0.01
			cfg.Solver.Tolerance = 1e-12

			s, err := stepper.New(decay(50), cfg)
			Expect(err).NotTo(HaveOccurred())
			run(s)

			r := s.Report()
			Expect(r.Rejected).To(BeZero())
			Expect(r.Accepted).To(Equal(10))
		})
	})

	Describe("sampling", func() {
		It("samples at multiples of T/n and at the end time", func() {
			cfg := config.DefaultConfig()
			cfg.EndTime = 10
			cfg.Output.SampleCount = 5
			out := &sink{}

			s, err := stepper.New(decay(1), cfg, stepper.WithSampleSink(out))
			Expect(err).NotTo(HaveOccurred())
			run(s)

			times := make([]float64, len(out.samples))
			for i, sm := range out.samples {
				times[i] = sm.Time
				Expect(sm.U[0]).To(BeNumerically("~", math.Exp(-sm.Time), 1e-2))
				Expect(sm.F[0]).To(BeNumerically("~", -sm.U[0], 1e-12))
			}
			Expect(times).To(Equal([]float64{0, 2, 4, 6, 8, 10}))
			Expect(s.Report().Samples).To(Equal(6))
		})

		It("writes nothing when saving is disabled", func() {
			cfg := config.DefaultConfig()
			cfg.Output.SaveSolution = false
			out := &sink{}

			s, err := stepper.New(decay(1), cfg, stepper.WithSampleSink(out))
			Expect(err).NotTo(HaveOccurred())
			run(s)
			Expect(out.samples).To(BeEmpty())
		})
	})

	Describe("adaptive runs", func() {
		It("advances time monotonically", func() {
			sys, err := problems.NewRegistry().Get("vanderpol", nil)
			Expect(err).NotTo(HaveOccurred())
			cfg := config.GetPreset("vanderpol", "classic")
			cfg.EndTime = 5

			s, err := stepper.New(sys, cfg, stepper.WithObserver(rec))
			Expect(err).NotTo(HaveOccurred())

			last := 0.0
			for !s.Finished() {
				t, err := s.Step()
				Expect(err).NotTo(HaveOccurred())
				Expect(t).To(BeNumerically(">", last))
				last = t
			}
			Expect(last).To(Equal(5.0))

			prev := 0.0
			for _, ev := range rec.events {
				if ev.Kind == stepper.Accepted {
					Expect(ev.Start).To(Equal(prev))
					Expect(ev.Time).To(Equal(ev.End))
					prev = ev.End
				} else {
					Expect(ev.Time).To(Equal(prev))
				}
			}
		})

		It("gives the fast component more elements", func() {
			sys, err := problems.NewRegistry().Get("twoscale", map[string]float64{"fast": 100, "slow": 1})
			Expect(err).NotTo(HaveOccurred())
			cfg := config.GetPreset("twoscale", "stiff")
			cfg.EndTime = 0.5

			s, err := stepper.New(sys, cfg, stepper.WithObserver(rec))
			Expect(err).NotTo(HaveOccurred())
			run(s)

			r := s.Report()
			Expect(r.Elements).To(HaveLen(2))
			Expect(r.Elements[1]).To(BeNumerically(">", r.Elements[0]))
			Expect(r.MaxDepth).To(BeNumerically(">=", 1))

			acc := rec.accepted()
			Expect(acc[0].Nodes).To(Equal(1))
			Expect(acc[0].Depth).To(BeZero())
			nested := 0
			for _, ev := range acc {
				Expect(ev.Depth).To(BeNumerically("<=", r.MaxDepth))
				if ev.Nodes > 1 {
					nested++
				}
			}
			Expect(nested).To(BeNumerically(">", 0))
			Expect(s.State()[0]).To(BeNumerically("~", math.Exp(-0.5), 1e-2))
		})

		It("reports through Solve", func() {
			r, err := stepper.Solve(context.Background(), decay(1), config.GetPreset("decay", "adaptive"))
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Finished).To(BeTrue())
			Expect(r.Time).To(Equal(5.0))
			Expect(r.Evaluations).To(BeNumerically(">", 0))
			Expect(r.String()).To(ContainSubstring("accepted"))
		})

		It("stops on a canceled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := stepper.Solve(ctx, decay(1), nil)
			Expect(errors.Is(err, dynamo.ErrContextCanceled)).To(BeTrue())
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	Describe("rejection", func() {
		var cfg *config.Config

		BeforeEach(func() {
			cfg = config.DefaultConfig()
			cfg.EndTime = 1
			cfg.Solver.InitialStep = 0.1
		})

		It("rolls back and shrinks the slab by at least half", func() {
			s, err := stepper.New(decay(1000), cfg, stepper.WithObserver(rec))
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Step()
			Expect(err).NotTo(HaveOccurred())

			Expect(len(rec.events)).To(BeNumerically(">", 1))
			Expect(rec.events[0].Kind).To(Equal(stepper.Diverged))
			for i := 1; i < len(rec.events); i++ {
				Expect(rec.events[i].Start).To(BeZero())
				Expect(rec.events[i].Length).To(BeNumerically("<=", 0.5*rec.events[i-1].Length))
			}

			Expect(rec.events[0].Stabilizing).To(BeNumerically(">=", 1))

			r := s.Report()
			Expect(r.Diverged).To(BeNumerically(">=", 1))
			Expect(r.Stabilizations).To(Equal(r.Diverged))
			sweeps := 0
			for _, ev := range rec.events {
				sweeps += ev.Iterations
			}
			Expect(r.Iterations).To(Equal(sweeps))

			acc := rec.accepted()
			Expect(acc).To(HaveLen(1))
			x := 1000 * acc[0].Length / 2
			Expect(s.State()[0]).To(BeNumerically("~", (1-x)/(1+x), 1e-8))
			Expect(s.Time()).To(Equal(acc[0].End))
		})

		It("fails when the step collapses below the minimum", func() {
			cfg.Solver.InitialStep = 0.01
			cfg.Solver.MinStep = 1e-3
			s, err := stepper.New(decay(1e4), cfg)
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Step()
			Expect(errors.Is(err, dynamo.ErrStepCollapse)).To(BeTrue())
			var se *dynamo.StepError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Attempts).To(Equal(1))
			Expect(s.Time()).To(BeZero())
		})

		It("fails after too many consecutive rejections", func() {
			cfg.Solver.MaxRetries = 1
			s, err := stepper.New(decay(1000), cfg)
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Step()
			Expect(errors.Is(err, dynamo.ErrTooManyRetries)).To(BeTrue())
			Expect(s.State()).To(Equal(dynamo.State{1}))
		})

		It("checks the residual only on the first slab when configured", func() {
			cfg.Solver.ResidualCheck = config.ResidualCheckFirst
			cfg.Solver.InitialStep = 0.01
			s, err := stepper.New(decay(1), cfg, stepper.WithObserver(rec))
			Expect(err).NotTo(HaveOccurred())
			run(s)

			for _, ev := range rec.accepted()[1:] {
				Expect(ev.Error).To(BeZero())
			}
			Expect(rec.accepted()[0].Error).To(BeNumerically(">", 0))
		})
	})
})
