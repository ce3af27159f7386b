package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/odestep/internal/config"
	"github.com/san-kum/odestep/internal/dynamo"
)

func TestParseParams(t *testing.T) {
	got, err := parseParams([]string{"rate=2.5", "y0=1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"rate": 2.5, "y0": 1}, got)

	_, err = parseParams([]string{"rate"})
	assert.Error(t, err)
	_, err = parseParams([]string{"rate=fast"})
	assert.Error(t, err)
	_, err = parseParams([]string{"=1"})
	assert.Error(t, err)
}

func newSolveCmd(t *testing.T) *cobra.Command {
	t.Helper()
	configFile, preset, params = "", "", nil
	noSave = false

	cmd := &cobra.Command{Use: "solve"}
	cmd.Flags().StringVar(&configFile, "config", "", "")
	cmd.Flags().StringVar(&preset, "preset", "", "")
	cmd.Flags().Float64Var(&endTime, "time", config.DefaultEndTime, "")
	cmd.Flags().Float64Var(&tolerance, "tol", config.DefaultTolerance, "")
	cmd.Flags().BoolVar(&fixedStep, "fixed", false, "")
	cmd.Flags().StringArrayVar(&params, "param", nil, "")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "")
	return cmd
}

func TestBuildConfigUsesProblemEndTime(t *testing.T) {
	cmd := newSolveCmd(t)
	require.NoError(t, cmd.ParseFlags(nil))

	cfg, err := buildConfig(cmd, []string{"oscillator"})
	require.NoError(t, err)
	assert.Equal(t, "oscillator", cfg.Problem)
	assert.Zero(t, cfg.EndTime)
	assert.Equal(t, 20.0, endTimeOf(cfg, 20))
}

func TestBuildConfigFlagsOverridePreset(t *testing.T) {
	cmd := newSolveCmd(t)
	require.NoError(t, cmd.ParseFlags([]string{"--preset", "fixed", "--time", "2", "--tol", "1e-6", "--param", "rate=3", "--no-save"}))

	cfg, err := buildConfig(cmd, []string{"decay"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.EndTime)
	assert.Equal(t, 1e-6, cfg.Solver.Tolerance)
	assert.True(t, cfg.Solver.FixedStep)
	assert.Equal(t, 0.1, cfg.Solver.InitialStep)
	assert.Equal(t, 3.0, cfg.Params["rate"])
	assert.False(t, cfg.Output.SaveSolution)
}

func TestBuildConfigUnknownPreset(t *testing.T) {
	cmd := newSolveCmd(t)
	require.NoError(t, cmd.ParseFlags([]string{"--preset", "nope"}))

	_, err := buildConfig(cmd, []string{"decay"})
	assert.ErrorContains(t, err, "unknown preset")
}

func TestBuildConfigValidates(t *testing.T) {
	cmd := newSolveCmd(t)
	require.NoError(t, cmd.ParseFlags([]string{"--tol", "0"}))

	_, err := buildConfig(cmd, nil)
	assert.Error(t, err)
}

func TestBuildConfigRejectsNegativeTime(t *testing.T) {
	cmd := newSolveCmd(t)
	require.NoError(t, cmd.ParseFlags([]string{"--time=-5"}))

	_, err := buildConfig(cmd, []string{"decay"})
	require.Error(t, err)
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}
