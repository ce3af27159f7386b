// Package metrics exports stepper activity as Prometheus metrics.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/odestep/internal/stepper"
)

// Collector bundles the solver metrics and serves them over HTTP.
type Collector struct {
	gatherer prometheus.Gatherer

	Slabs      *prometheus.CounterVec
	Iterations *prometheus.CounterVec
	SlabLength *prometheus.HistogramVec
	SimTime    *prometheus.GaugeVec
	Progress   *prometheus.GaugeVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// Prometheus registry when nil. Registering twice on the same registry
// returns the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	slabs, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odestep_slabs_total",
		Help: "Slab attempts, labeled by problem and outcome (accepted, diverged, rejected).",
	}, []string{"problem", "outcome"}), "odestep_slabs_total")
	if err != nil {
		return nil, err
	}

	iterations, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odestep_fixed_point_iterations_total",
		Help: "Fixed-point sweeps over all slab attempts.",
	}, []string{"problem"}), "odestep_fixed_point_iterations_total")
	if err != nil {
		return nil, err
	}

	length, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "odestep_slab_length",
		Help:    "Length of accepted slabs in units of problem time.",
		Buckets: prometheus.ExponentialBuckets(1e-6, 10, 8),
	}, []string{"problem"}), "odestep_slab_length")
	if err != nil {
		return nil, err
	}

	simTime, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "odestep_time",
		Help: "Current solver time.",
	}, []string{"problem"}), "odestep_time")
	if err != nil {
		return nil, err
	}

	progress, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "odestep_progress_ratio",
		Help: "Fraction of the time interval covered.",
	}, []string{"problem"}), "odestep_progress_ratio")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:   gatherer,
		Slabs:      slabs,
		Iterations: iterations,
		SlabLength: length,
		SimTime:    simTime,
		Progress:   progress,
	}, nil
}

// Observer records the events of one run under the given problem label.
func (c *Collector) Observer(problem string) stepper.Observer {
	return stepper.ObserverFunc(func(ev stepper.Event) {
		if c == nil {
			return
		}
		c.Slabs.WithLabelValues(problem, ev.Kind.String()).Inc()
		c.Iterations.WithLabelValues(problem).Add(float64(ev.Iterations))
		if ev.Kind == stepper.Accepted {
			c.SlabLength.WithLabelValues(problem).Observe(ev.Length)
		}
		c.SimTime.WithLabelValues(problem).Set(ev.Time)
		c.Progress.WithLabelValues(problem).Set(ev.Progress)
	})
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
