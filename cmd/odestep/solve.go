package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/odestep/internal/config"
	"github.com/san-kum/odestep/internal/logging"
	"github.com/san-kum/odestep/internal/metrics"
	"github.com/san-kum/odestep/internal/problems"
	"github.com/san-kum/odestep/internal/stepper"
	"github.com/san-kum/odestep/internal/storage"
	"github.com/san-kum/odestep/internal/viz"
)

func solve(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	var log logging.Logger
	if live {
		log = logging.Noop()
	} else {
		lc := logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}
		if !cmd.Flags().Changed("log-level") && !cmd.Flags().Changed("log-format") {
			lc = logging.FromEnv(lc)
		}
		log = logging.New(lc)
	}

	sys, err := problems.NewRegistry().Get(cfg.Problem, cfg.Params)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []stepper.Option{stepper.WithLogger(log)}

	var run *storage.Run
	if cfg.Output.SaveSolution {
		dir := dataDir
		if !cmd.Flags().Changed("data") && cfg.Output.Dir != "" {
			dir = cfg.Output.Dir
		}
		st := storage.New(dir)
		if err := st.Init(); err != nil {
			return err
		}
		run, err = st.Create(sys.Label(), storage.RunMetadata{
			Problem:    cfg.Problem,
			Label:      sys.Label(),
			Components: sys.Size(),
			EndTime:    endTimeOf(cfg, sys.EndTime()),
			Method:     cfg.Solver.Method,
			Tolerance:  cfg.Solver.Tolerance,
			FixedStep:  cfg.Solver.FixedStep,
			Params:     cfg.Params,
		})
		if err != nil {
			return err
		}
		opts = append(opts, stepper.WithSampleSink(run))
	}

	if metricsAddr != "" {
		collector, err := metrics.NewCollector(nil)
		if err != nil {
			return err
		}
		srv := &http.Server{Addr: metricsAddr, Handler: collector.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(ctx, "metrics server failed", logging.Err(err))
			}
		}()
		defer srv.Close()
		log.Info(ctx, "serving metrics", logging.String("addr", metricsAddr))
		opts = append(opts, stepper.WithObserver(collector.Observer(cfg.Problem)))
	}

	var report stepper.Report
	if live {
		report, err = solveLive(ctx, sys.Label(), endTimeOf(cfg, sys.EndTime()), func(ctx context.Context, o ...stepper.Option) (stepper.Report, error) {
			return stepper.Solve(ctx, sys, cfg, append(opts, o...)...)
		})
	} else {
		report, err = stepper.Solve(ctx, sys, cfg, opts...)
	}

	if run != nil {
		if cerr := run.Close(report); cerr != nil && err == nil {
			err = cerr
		}
	}

	fmt.Println(viz.RenderReport(styles(), report))
	if run != nil {
		fmt.Printf("run saved: %s\n", run.ID())
	}
	return err
}

func solveLive(ctx context.Context, label string, endTime float64, solveFn func(context.Context, ...stepper.Option) (stepper.Report, error)) (stepper.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(viz.NewProgress(styles(), label, endTime, cancel))

	type result struct {
		report stepper.Report
		err    error
	}
	done := make(chan result, 1)
	go func() {
		r, err := solveFn(ctx, stepper.WithObserver(viz.Observer(p)))
		done <- result{r, err}
		p.Send(viz.DoneMsg{Report: r, Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return stepper.Report{}, err
	}
	r := <-done
	return r.report, r.err
}

func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	fromFile := false

	problem := cfg.Problem
	if len(args) > 0 {
		problem = args[0]
	}

	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg, fromFile = loaded, true
		if len(args) > 0 {
			cfg.Problem = problem
		}
	case preset != "":
		cfg = config.GetPreset(problem, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(problem))
		}
		fromFile = true
	default:
		cfg.Problem = problem
	}

	flags := cmd.Flags()
	switch {
	case flags.Changed("time"):
		cfg.EndTime = endTime
	case !fromFile:
		cfg.EndTime = 0
	}
	if flags.Changed("method") {
		cfg.Solver.Method = method
	}
	if flags.Changed("tol") {
		cfg.Solver.Tolerance = tolerance
	}
	if flags.Changed("k0") {
		cfg.Solver.InitialStep = initialStep
	}
	if flags.Changed("kmax") {
		cfg.Solver.MaxStep = maxStep
	}
	if flags.Changed("kmin") {
		cfg.Solver.MinStep = minStep
	}
	if flags.Changed("fixed") {
		cfg.Solver.FixedStep = fixedStep
	}
	if flags.Changed("threshold") {
		cfg.Solver.Threshold = threshold
	}
	if flags.Changed("max-depth") {
		cfg.Solver.MaxDepth = maxDepth
	}
	if flags.Changed("max-retries") {
		cfg.Solver.MaxRetries = maxRetries
	}
	if flags.Changed("residual-check") {
		cfg.Solver.ResidualCheck = residualCheck
	}
	if flags.Changed("samples") {
		cfg.Output.SampleCount = sampleCount
	}
	if noSave {
		cfg.Output.SaveSolution = false
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}

	ps, err := parseParams(params)
	if err != nil {
		return nil, err
	}
	if len(ps) > 0 && cfg.Params == nil {
		cfg.Params = make(map[string]float64, len(ps))
	}
	for k, v := range ps {
		cfg.Params[k] = v
	}

	return cfg, cfg.Validate()
}

func parseParams(raw []string) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid param %q (want name=value)", kv)
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid param %q: %w", kv, err)
		}
		out[strings.TrimSpace(name)] = v
	}
	return out, nil
}

func endTimeOf(cfg *config.Config, fallback float64) float64 {
	if cfg.EndTime != 0 {
		return cfg.EndTime
	}
	return fallback
}
