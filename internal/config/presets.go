package config

var Presets = map[string]map[string]*Config{
	"decay": {
		"fixed": {
			Problem: "decay", EndTime: 1.0,
			Params: map[string]float64{"rate": 1.0, "y0": 1.0},
			Solver: SolverConfig{InitialStep: 0.1, FixedStep: true},
			Output: OutputConfig{SampleCount: 10, SaveSolution: true},
		},
		"adaptive": {
			Problem: "decay", EndTime: 5.0,
			Params: map[string]float64{"rate": 1.0, "y0": 1.0},
			Solver: SolverConfig{InitialStep: 0.01, Tolerance: 1e-4},
			Output: OutputConfig{SampleCount: 50, SaveSolution: true},
		},
	},
	"twoscale": {
		"stiff": {
			Problem: "twoscale", EndTime: 2.0,
			Params: map[string]float64{"fast": 100.0, "slow": 1.0},
			Solver: SolverConfig{InitialStep: 0.001, Tolerance: 1e-3},
			Output: OutputConfig{SampleCount: 100, SaveSolution: true},
		},
		"mild": {
			Problem: "twoscale", EndTime: 5.0,
			Params: map[string]float64{"fast": 10.0, "slow": 0.5},
			Solver: SolverConfig{InitialStep: 0.01, Tolerance: 1e-3},
			Output: OutputConfig{SampleCount: 100, SaveSolution: true},
		},
	},
	"oscillator": {
		"unit": {
			Problem: "oscillator", EndTime: 20.0,
			Params: map[string]float64{"omega": 1.0, "x0": 1.0, "v0": 0.0},
			Solver: SolverConfig{InitialStep: 0.01, Tolerance: 1e-4},
			Output: OutputConfig{SampleCount: 200, SaveSolution: true},
		},
	},
	"vanderpol": {
		"classic": {
			Problem: "vanderpol", EndTime: 20.0,
			Params: map[string]float64{"mu": 1.0},
			Solver: SolverConfig{InitialStep: 0.01, Tolerance: 1e-3},
			Output: OutputConfig{SampleCount: 400, SaveSolution: true},
		},
		"stiff": {
			Problem: "vanderpol", EndTime: 10.0,
			Params: map[string]float64{"mu": 10.0},
			Solver: SolverConfig{InitialStep: 0.001, Tolerance: 1e-3},
			Output: OutputConfig{SampleCount: 400, SaveSolution: true},
		},
	},
	"lorenz": {
		"butterfly": {
			Problem: "lorenz", EndTime: 10.0,
			Params: map[string]float64{"sigma": 10.0, "rho": 28.0, "beta": 8.0 / 3.0},
			Solver: SolverConfig{InitialStep: 0.001, Tolerance: 1e-2},
			Output: OutputConfig{SampleCount: 1000, SaveSolution: true},
		},
	},
	"rossler": {
		"spiral": {
			Problem: "rossler", EndTime: 50.0,
			Params: map[string]float64{"a": 0.2, "b": 0.2, "c": 5.7},
			Solver: SolverConfig{InitialStep: 0.01, Tolerance: 1e-3},
			Output: OutputConfig{SampleCount: 1000, SaveSolution: true},
		},
	},
	"duffing": {
		"chaotic": {
			Problem: "duffing", EndTime: 100.0,
			Params: map[string]float64{"gamma": 0.5, "delta": 0.3},
			Solver: SolverConfig{InitialStep: 0.01, Tolerance: 1e-3},
			Output: OutputConfig{SampleCount: 1000, SaveSolution: true},
		},
	},
}

// GetPreset returns the preset merged over DefaultConfig, or nil if unknown.
func GetPreset(problem, name string) *Config {
	byName, ok := Presets[problem]
	if !ok {
		return nil
	}
	p, ok := byName[name]
	if !ok {
		return nil
	}

	cfg := DefaultConfig()
	cfg.Problem = p.Problem
	cfg.EndTime = p.EndTime
	cfg.Params = make(map[string]float64, len(p.Params))
	for k, v := range p.Params {
		cfg.Params[k] = v
	}
	cfg.Solver.FixedStep = p.Solver.FixedStep
	if p.Solver.InitialStep > 0 {
		cfg.Solver.InitialStep = p.Solver.InitialStep
	}
	if p.Solver.Tolerance > 0 {
		cfg.Solver.Tolerance = p.Solver.Tolerance
	}
	if p.Output.SampleCount > 0 {
		cfg.Output.SampleCount = p.Output.SampleCount
	}
	cfg.Output.SaveSolution = p.Output.SaveSolution
	return cfg
}

func ListPresets(problem string) []string {
	byName, ok := Presets[problem]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	return names
}
