// SPDX-License-Identifier: MIT

// Package config loads simulation parameters with viper.
//
// Sources, lowest precedence first: built-in defaults, a YAML file, then
// whatever the caller bound on the *viper.Viper (command-line flags, DQMC_*
// environment variables). A missing file is not an error when no explicit
// path was given.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/katalvlaran/dqmc/logging"
	"github.com/katalvlaran/dqmc/stack"
)

// Keys.
const (
	KeyBeta              = "beta"
	KeyTimeSlices        = "time_slices"
	KeyStabilizationPace = "stabilization_pace"
	KeyDecomposition     = "decomposition"
	KeySignedRatios      = "signed_ratios"
	KeyDriftBound        = "drift_bound"
	KeySeed              = "seed"
	KeyLatticeLx         = "lattice.lx"
	KeyLatticeLy         = "lattice.ly"
	KeyHopping           = "model.hopping"
	KeyOnsiteU           = "model.onsite_u"
	KeyChemicalPotential = "model.chemical_potential"
	KeyWarmup            = "sweeps.warmup"
	KeyBins              = "sweeps.bins"
	KeyBinSize           = "sweeps.bin_size"
	KeyObservables       = "observables"
	KeyLogLevel          = "log.level"
	KeyLogFormat         = "log.format"
	KeyMetricsAddr       = "metrics.addr"

	configName = "dqmc"
	configType = "yaml"
	envPrefix  = "DQMC"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Lattice is the square lattice extent.
type Lattice struct {
	Lx int `mapstructure:"lx" yaml:"lx"`
	Ly int `mapstructure:"ly" yaml:"ly"`
}

// Model holds the Hubbard couplings.
type Model struct {
	Hopping           float64 `mapstructure:"hopping" yaml:"hopping"`
	OnsiteU           float64 `mapstructure:"onsite_u" yaml:"onsite_u"`
	ChemicalPotential float64 `mapstructure:"chemical_potential" yaml:"chemical_potential"`
}

// Sweeps is the Monte Carlo schedule: Warmup forward/backward pairs, then
// Bins bins of BinSize pairs each.
type Sweeps struct {
	Warmup  int `mapstructure:"warmup" yaml:"warmup"`
	Bins    int `mapstructure:"bins" yaml:"bins"`
	BinSize int `mapstructure:"bin_size" yaml:"bin_size"`
}

// Log selects the logger.
type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Metrics configures the Prometheus endpoint; an empty Addr disables it.
type Metrics struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Config is the full run configuration.
type Config struct {
	Beta              float64  `mapstructure:"beta" yaml:"beta"`
	TimeSlices        int      `mapstructure:"time_slices" yaml:"time_slices"`
	StabilizationPace int      `mapstructure:"stabilization_pace" yaml:"stabilization_pace"`
	Decomposition     string   `mapstructure:"decomposition" yaml:"decomposition"`
	SignedRatios      bool     `mapstructure:"signed_ratios" yaml:"signed_ratios"`
	DriftBound        float64  `mapstructure:"drift_bound" yaml:"drift_bound"`
	Seed              int64    `mapstructure:"seed" yaml:"seed"`
	Lattice           Lattice  `mapstructure:"lattice" yaml:"lattice"`
	Model             Model    `mapstructure:"model" yaml:"model"`
	Sweeps            Sweeps   `mapstructure:"sweeps" yaml:"sweeps"`
	Observables       []string `mapstructure:"observables" yaml:"observables"`
	Log               Log      `mapstructure:"log" yaml:"log"`
	Metrics           Metrics  `mapstructure:"metrics" yaml:"metrics"`
}

// SetDefaults installs the defaults on v: a 4×4 half-filled Hubbard model at
// β = 4, U = 4 with 80 slices stabilized every 10.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyBeta, 4.0)
	v.SetDefault(KeyTimeSlices, 80)
	v.SetDefault(KeyStabilizationPace, 10)
	v.SetDefault(KeyDecomposition, stack.SVD.String())
	v.SetDefault(KeySignedRatios, false)
	v.SetDefault(KeyDriftBound, 1e-6)
	v.SetDefault(KeySeed, 1)
	v.SetDefault(KeyLatticeLx, 4)
	v.SetDefault(KeyLatticeLy, 4)
	v.SetDefault(KeyHopping, 1.0)
	v.SetDefault(KeyOnsiteU, 4.0)
	v.SetDefault(KeyChemicalPotential, 0.0)
	v.SetDefault(KeyWarmup, 100)
	v.SetDefault(KeyBins, 10)
	v.SetDefault(KeyBinSize, 20)
	v.SetDefault(KeyObservables, []string{"filling_number", "double_occupancy", "kinetic_energy"})
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, logging.FormatText)
	v.SetDefault(KeyMetricsAddr, "")
}

// Load reads the configuration into a Config and validates it.
//
// With a non-empty path that file must exist. With an empty path, dqmc.yaml
// is looked up in the working directory and silently skipped when absent.
//
// Errors: file read errors, ErrInvalidConfig.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks ranges and enumerations.
// Errors: ErrInvalidConfig naming the offending key.
func (c *Config) Validate() error {
	switch {
	case !(c.Beta > 0) || math.IsInf(c.Beta, 0):
		return invalid(KeyBeta, "must be positive and finite, got %g", c.Beta)
	case c.TimeSlices <= 0:
		return invalid(KeyTimeSlices, "must be > 0, got %d", c.TimeSlices)
	case c.StabilizationPace <= 0:
		return invalid(KeyStabilizationPace, "must be > 0, got %d", c.StabilizationPace)
	case c.DriftBound < 0:
		return invalid(KeyDriftBound, "must be >= 0, got %g", c.DriftBound)
	case c.Lattice.Lx <= 0 || c.Lattice.Ly <= 0:
		return invalid("lattice", "extent must be positive, got %dx%d", c.Lattice.Lx, c.Lattice.Ly)
	case c.Model.OnsiteU < 0:
		return invalid(KeyOnsiteU, "must be >= 0, got %g", c.Model.OnsiteU)
	case c.Sweeps.Warmup < 0:
		return invalid(KeyWarmup, "must be >= 0, got %d", c.Sweeps.Warmup)
	case c.Sweeps.Bins <= 0:
		return invalid(KeyBins, "must be > 0, got %d", c.Sweeps.Bins)
	case c.Sweeps.BinSize <= 0:
		return invalid(KeyBinSize, "must be > 0, got %d", c.Sweeps.BinSize)
	}
	if _, err := stack.ParseDecomposition(c.Decomposition); err != nil {
		return invalid(KeyDecomposition, "%v", err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid(KeyLogLevel, "%v", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		return invalid(KeyLogFormat, "unknown format %q", c.Log.Format)
	}

	return nil
}

// DecompositionKind returns the parsed decomposition; Validate guarantees it parses.
func (c *Config) DecompositionKind() stack.Decomposition {
	d, _ := stack.ParseDecomposition(c.Decomposition)

	return d
}

func invalid(key, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, key, fmt.Sprintf(format, args...))
}
