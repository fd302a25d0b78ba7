// SPDX-License-Identifier: MIT

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/dqmc/config"
	"github.com/katalvlaran/dqmc/stack"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 4.0, cfg.Beta)
	assert.Equal(t, 80, cfg.TimeSlices)
	assert.Equal(t, 10, cfg.StabilizationPace)
	assert.Equal(t, stack.SVD, cfg.DecompositionKind())
	assert.Equal(t, config.Lattice{Lx: 4, Ly: 4}, cfg.Lattice)
	assert.Equal(t, []string{"filling_number", "double_occupancy", "kinetic_energy"}, cfg.Observables)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Parallel()
	path := writeFile(t, `
beta: 2.5
time_slices: 50
stabilization_pace: 5
decomposition: qr
signed_ratios: true
lattice:
  lx: 6
  ly: 2
model:
  onsite_u: 2
  chemical_potential: -0.5
sweeps:
  warmup: 3
  bins: 2
  bin_size: 4
observables: [greens_functions, sign]
log:
  level: debug
  format: json
`)
	cfg, err := config.Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.Beta)
	assert.Equal(t, 50, cfg.TimeSlices)
	assert.Equal(t, stack.PivotedQR, cfg.DecompositionKind())
	assert.True(t, cfg.SignedRatios)
	assert.Equal(t, config.Lattice{Lx: 6, Ly: 2}, cfg.Lattice)
	assert.Equal(t, config.Model{Hopping: 1, OnsiteU: 2, ChemicalPotential: -0.5}, cfg.Model)
	assert.Equal(t, config.Sweeps{Warmup: 3, Bins: 2, BinSize: 4}, cfg.Sweeps)
	assert.Equal(t, []string{"greens_functions", "sign"}, cfg.Observables)
	assert.Equal(t, config.Log{Level: "debug", Format: "json"}, cfg.Log)
}

func TestLoad_ExplicitValuesWin(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "beta: 2\n")
	v := viper.New()
	v.Set(config.KeyBeta, 8.0)

	cfg, err := config.Load(v, path)
	require.NoError(t, err)
	assert.Equal(t, 8.0, cfg.Beta)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	_, err := config.Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, config.ErrInvalidConfig)

	_, err = config.Load(viper.New(), writeFile(t, "beta: [1, 2\n"))
	require.Error(t, err)

	_, err = config.Load(viper.New(), writeFile(t, "time_slices: 0\n"))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() config.Config {
		return config.Config{
			Beta: 1, TimeSlices: 10, StabilizationPace: 5, Decomposition: "svd",
			Lattice: config.Lattice{Lx: 2, Ly: 2},
			Sweeps:  config.Sweeps{Bins: 1, BinSize: 1},
		}
	}
	base := valid()
	require.NoError(t, base.Validate())

	cases := map[string]func(*config.Config){
		"beta":          func(c *config.Config) { c.Beta = 0 },
		"slices":        func(c *config.Config) { c.TimeSlices = -1 },
		"pace":          func(c *config.Config) { c.StabilizationPace = 0 },
		"drift":         func(c *config.Config) { c.DriftBound = -1 },
		"lattice":       func(c *config.Config) { c.Lattice.Ly = 0 },
		"onsite":        func(c *config.Config) { c.Model.OnsiteU = -2 },
		"warmup":        func(c *config.Config) { c.Sweeps.Warmup = -1 },
		"bins":          func(c *config.Config) { c.Sweeps.Bins = 0 },
		"bin size":      func(c *config.Config) { c.Sweeps.BinSize = 0 },
		"decomposition": func(c *config.Config) { c.Decomposition = "lu" },
		"level":         func(c *config.Config) { c.Log.Level = "chatty" },
		"format":        func(c *config.Config) { c.Log.Format = "xml" },
	}
	for name, mutate := range cases {
		c := valid()
		mutate(&c)
		assert.ErrorIs(t, c.Validate(), config.ErrInvalidConfig, name)
	}
}
