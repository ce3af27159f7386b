package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/odestep/internal/dynamo"
)

const (
	DefaultEndTime        = 10.0
	DefaultInitialStep    = 0.01
	DefaultMinStep        = 1e-10
	DefaultTolerance      = 1e-3
	DefaultThreshold      = 0.5
	DefaultMaxDepth       = 16
	DefaultMaxIterations  = 50
	DefaultIterationTol   = 1e-10
	DefaultMaxRetries     = 100
	DefaultSafety         = 0.9
	DefaultSampleCount    = 100
	DefaultDataDir        = ".odestep"
	MethodCG              = "cg"
	MethodDG              = "dg"
	ResidualCheckAll      = "all"
	ResidualCheckFirst    = "first"
	ResidualCheckDisabled = "none"
)

type Config struct {
	Problem string             `yaml:"problem"`
	EndTime float64            `yaml:"end_time"`
	Params  map[string]float64 `yaml:"params,omitempty"`
	Solver  SolverConfig       `yaml:"solver"`
	Output  OutputConfig       `yaml:"output"`
	Log     LogConfig          `yaml:"log"`
}

type SolverConfig struct {
	Method             string  `yaml:"method"`
	InitialStep        float64 `yaml:"initial_step"`
	MaxStep            float64 `yaml:"max_step"`
	MinStep            float64 `yaml:"min_step"`
	Tolerance          float64 `yaml:"tolerance"`
	FixedStep          bool    `yaml:"fixed_step"`
	Threshold          float64 `yaml:"threshold"`
	MaxDepth           int     `yaml:"max_depth"`
	MaxIterations      int     `yaml:"max_iterations"`
	IterationTolerance float64 `yaml:"iteration_tolerance"`
	MaxRetries         int     `yaml:"max_retries"`
	ResidualCheck      string  `yaml:"residual_check"`
	Safety             float64 `yaml:"safety"`
}

type OutputConfig struct {
	SampleCount  int    `yaml:"sample_count"`
	SaveSolution bool   `yaml:"save_solution"`
	Dir          string `yaml:"dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Problem: "decay",
		EndTime: DefaultEndTime,
		Solver: SolverConfig{
			Method:             MethodCG,
			InitialStep:        DefaultInitialStep,
			MinStep:            DefaultMinStep,
			Tolerance:          DefaultTolerance,
			Threshold:          DefaultThreshold,
			MaxDepth:           DefaultMaxDepth,
			MaxIterations:      DefaultMaxIterations,
			IterationTolerance: DefaultIterationTol,
			MaxRetries:         DefaultMaxRetries,
			ResidualCheck:      ResidualCheckAll,
			Safety:             DefaultSafety,
		},
		Output: OutputConfig{
			SampleCount:  DefaultSampleCount,
			SaveSolution: true,
			Dir:          DefaultDataDir,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects configurations that cannot produce a run.
func (c *Config) Validate() error {
	s := c.Solver
	switch {
	case c.EndTime < 0 || math.IsNaN(c.EndTime) || math.IsInf(c.EndTime, 0):
		return invalid("end_time must be zero or positive, got %g", c.EndTime)
	case c.Output.SampleCount <= 0:
		return invalid("sample_count must be positive, got %d", c.Output.SampleCount)
	case !(s.InitialStep > 0) || math.IsInf(s.InitialStep, 0):
		return invalid("initial_step must be positive, got %g", s.InitialStep)
	case s.MaxStep < 0:
		return invalid("max_step must not be negative, got %g", s.MaxStep)
	case s.MinStep < 0:
		return invalid("min_step must not be negative, got %g", s.MinStep)
	case s.MaxStep > 0 && s.MinStep > s.MaxStep:
		return invalid("min_step %g exceeds max_step %g", s.MinStep, s.MaxStep)
	case !(s.Tolerance > 0):
		return invalid("tolerance must be positive, got %g", s.Tolerance)
	case !(s.Threshold > 0) || s.Threshold > 1:
		return invalid("threshold must be in (0, 1], got %g", s.Threshold)
	case s.MaxDepth <= 0:
		return invalid("max_depth must be positive, got %d", s.MaxDepth)
	case s.MaxIterations <= 0:
		return invalid("max_iterations must be positive, got %d", s.MaxIterations)
	case !(s.IterationTolerance > 0):
		return invalid("iteration_tolerance must be positive, got %g", s.IterationTolerance)
	case s.MaxRetries <= 0:
		return invalid("max_retries must be positive, got %d", s.MaxRetries)
	case !(s.Safety > 0) || s.Safety > 1:
		return invalid("safety must be in (0, 1], got %g", s.Safety)
	}
	switch s.Method {
	case MethodCG, MethodDG:
	default:
		return invalid("unknown method %q (want %s or %s)", s.Method, MethodCG, MethodDG)
	}
	switch s.ResidualCheck {
	case ResidualCheckAll, ResidualCheckFirst, ResidualCheckDisabled:
	default:
		return invalid("unknown residual_check %q", s.ResidualCheck)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{dynamo.ErrInvalidConfig}, args...)...)
}
