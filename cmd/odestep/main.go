package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/odestep/internal/analysis"
	"github.com/san-kum/odestep/internal/config"
	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/problems"
	"github.com/san-kum/odestep/internal/storage"
	"github.com/san-kum/odestep/internal/viz"
)

var (
	dataDir string
	theme   string

	// solve
	configFile    string
	preset        string
	endTime       float64
	method        string
	tolerance     float64
	initialStep   float64
	maxStep       float64
	minStep       float64
	fixedStep     bool
	threshold     float64
	maxDepth      int
	maxRetries    int
	residualCheck string
	sampleCount   int
	noSave        bool
	params        []string
	logLevel      string
	logFormat     string
	live          bool
	metricsAddr   string

	// plot, analyze, phase, export
	components []int
	component  int
	xAxis      int
	yAxis      int
	outFile    string
	format     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "odestep",
		Short:         "adaptive multi-rate time-slab ODE solver",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "ocean", "color theme (ocean, minimal)")

	solveCmd := &cobra.Command{
		Use:   "solve [problem]",
		Short: "solve a problem and record the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  solve,
	}
	solveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	solveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	solveCmd.Flags().Float64Var(&endTime, "time", config.DefaultEndTime, "end time")
	solveCmd.Flags().StringVar(&method, "method", config.MethodCG, "element method (cg, dg)")
	solveCmd.Flags().Float64Var(&tolerance, "tol", config.DefaultTolerance, "residual tolerance")
	solveCmd.Flags().Float64Var(&initialStep, "k0", config.DefaultInitialStep, "initial step")
	solveCmd.Flags().Float64Var(&maxStep, "kmax", 0, "largest step (0 for the end time)")
	solveCmd.Flags().Float64Var(&minStep, "kmin", config.DefaultMinStep, "smallest step before giving up")
	solveCmd.Flags().BoolVar(&fixedStep, "fixed", false, "keep the initial step, skip residual rejection")
	solveCmd.Flags().Float64Var(&threshold, "threshold", config.DefaultThreshold, "multi-rate grouping threshold in (0, 1]")
	solveCmd.Flags().IntVar(&maxDepth, "max-depth", config.DefaultMaxDepth, "deepest slab nesting")
	solveCmd.Flags().IntVar(&maxRetries, "max-retries", config.DefaultMaxRetries, "consecutive rejections before giving up")
	solveCmd.Flags().StringVar(&residualCheck, "residual-check", config.ResidualCheckAll, "residual check on all, first or none of the slabs")
	solveCmd.Flags().IntVar(&sampleCount, "samples", config.DefaultSampleCount, "number of output samples")
	solveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not record samples")
	solveCmd.Flags().StringArrayVar(&params, "param", nil, "problem parameter name=value (repeatable)")
	solveCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	solveCmd.Flags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	solveCmd.Flags().BoolVar(&live, "live", false, "show live progress")
	solveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntSliceVar(&components, "components", nil, "components to plot (default all, at most 6)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectrum and error analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&component, "component", 0, "component for the spectrum plot")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase space plot",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 0, "component for the x-axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 1, "component for the y-axis")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to JSON or SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	exportCmd.Flags().StringVar(&format, "format", "json", "output format (json, svg)")
	exportCmd.Flags().IntSliceVar(&components, "components", nil, "components to draw in svg (default all)")

	problemsCmd := &cobra.Command{
		Use:   "problems",
		Short: "list built-in problems",
		RunE:  listProblems,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [problem]",
		Short: "list available presets for a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for problem: %s\n", args[0])
				return nil
			}
			sort.Strings(presets)
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [problem] [preset]",
		Short: "write a config file with defaults or a preset",
		Args:  cobra.MaximumNArgs(2),
		RunE:  writeConfig,
	}
	configCmd.Flags().StringVarP(&outFile, "out", "o", "odestep.yaml", "output file")

	rootCmd.AddCommand(solveCmd, listCmd, plotCmd, analyzeCmd, phaseCmd, exportCmd, problemsCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func styles() viz.Styles { return viz.NewStyles(viz.ThemeByName(theme)) }

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROBLEM\tTIME\tEND\tMETHOD\tTOL\tSLABS\tSTATUS")

	for _, run := range runs {
		slabs, status := "-", "running"
		if r := run.Report; r != nil {
			slabs = fmt.Sprint(r.Accepted)
			status = "finished"
			if !r.Finished {
				status = "stopped"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4g\t%s\t%.0e\t%s\t%s\n",
			run.ID,
			run.Problem,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.EndTime,
			run.Method,
			run.Tolerance,
			slabs,
			status,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	comps := components
	if len(comps) == 0 {
		for i := 0; i < min(meta.Components, 6); i++ {
			comps = append(comps, i)
		}
	}

	s := styles()
	fmt.Println(s.Title.Render(meta.ID))
	fmt.Printf("problem: %s, samples: %d\n\n", meta.Problem, len(samples))
	fmt.Print(viz.PlotComponents(samples, comps, 80, 10))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if component < 0 || component >= meta.Components {
		return fmt.Errorf("component %d out of range (run has %d)", component, meta.Components)
	}

	s := styles()
	fmt.Println(s.Title.Render("analysis: " + meta.ID))
	fmt.Printf("problem: %s\n\n", meta.Problem)

	ps := analysis.PowerSpectrum(analysis.Component(samples, component))
	if len(ps) > 1 {
		fmt.Println(viz.PlotSeries(ps[:max(len(ps)/4, 2)], fmt.Sprintf("power spectrum (u%d)", component), 80, 12))
		fmt.Println()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMPONENT\tFREQUENCY\tPERIOD\tPOWER")
	for i := 0; i < meta.Components; i++ {
		freq, power, err := analysis.DominantFrequency(samples, i)
		if err != nil {
			return err
		}
		period := "-"
		if freq > 0 {
			period = fmt.Sprintf("%.4g", 1/freq)
		}
		fmt.Fprintf(w, "u%d\t%.4g\t%s\t%.4g\n", i, freq, period, power)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	sys, err := problems.NewRegistry().Get(meta.Problem, meta.Params)
	if err != nil {
		return nil
	}
	if ex, ok := sys.(dynamo.Exact); ok {
		e := analysis.CompareExact(samples, ex)
		fmt.Printf("\nerror vs exact: max %.3e (t=%.4g), rms %.3e, final %.3e\n", e.Max, e.At, e.RMS, e.Final)
	}
	if h, ok := sys.(dynamo.Hamiltonian); ok {
		fmt.Printf("energy drift: %.3e\n", analysis.EnergyDrift(samples, h))
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}

	portrait := analysis.NewPhasePortrait(samples, xAxis, yAxis)
	if portrait == nil {
		return fmt.Errorf("no data or axes out of range for %d components", meta.Components)
	}

	fmt.Println(styles().Title.Render("phase space: " + meta.ID))
	fmt.Printf("x-axis: u%d, y-axis: u%d\n\n", xAxis, yAxis)
	fmt.Print(portrait.ASCII(70, 24))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}

	var write func(io.Writer) error
	switch format {
	case "json":
		write = func(w io.Writer) error { return storage.ExportJSON(w, *meta, samples) }
	case "svg":
		comps := components
		if len(comps) == 0 {
			for i := 0; i < meta.Components; i++ {
				comps = append(comps, i)
			}
		}
		write = func(w io.Writer) error {
			return viz.WriteSVG(w, samples, comps, 800, 400, viz.ThemeByName(theme))
		}
	default:
		return fmt.Errorf("unknown format: %s (want json or svg)", format)
	}

	if outFile == "" {
		return write(os.Stdout)
	}
	file, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := write(file); err != nil {
		return err
	}
	fmt.Printf("exported %d samples to %s\n", len(samples), outFile)
	return nil
}

func listProblems(cmd *cobra.Command, args []string) error {
	reg := problems.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROBLEM\tSIZE\tEND\tPARAMS\tDESCRIPTION")
	for _, name := range reg.List() {
		sys, err := reg.Get(name, nil)
		if err != nil {
			return err
		}
		ps := "-"
		if c, ok := sys.(dynamo.Configurable); ok {
			data, _ := json.Marshal(c.GetParams())
			ps = string(data)
		}
		fmt.Fprintf(w, "%s\t%d\t%.4g\t%s\t%s\n", name, sys.Size(), sys.EndTime(), ps, reg.Describe(name))
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	switch len(args) {
	case 1:
		cfg.Problem = args[0]
	case 2:
		cfg = config.GetPreset(args[0], args[1])
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", args[1], config.ListPresets(args[0]))
		}
	}
	if err := config.Save(outFile, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}
