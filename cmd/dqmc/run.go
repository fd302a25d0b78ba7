// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/dqmc/config"
	"github.com/katalvlaran/dqmc/logging"
	"github.com/katalvlaran/dqmc/metrics"
	"github.com/katalvlaran/dqmc/simulation"
)

const shutdownTimeout = 5 * time.Second

// runFlags maps flag names to config keys; flag names equal the keys.
var runFlags = []struct {
	key, usage string
	def        any
}{
	{config.KeyBeta, "inverse temperature β", 0.0},
	{config.KeyTimeSlices, "number of imaginary-time slices L", 0},
	{config.KeyStabilizationPace, "slices between stabilization checkpoints", 0},
	{config.KeyDecomposition, "stack decomposition: svd or qr", ""},
	{config.KeySignedRatios, "accept negative update ratios and track the sign", false},
	{config.KeyDriftBound, "wrap error above which a checkpoint counts as drift", 0.0},
	{config.KeySeed, "random seed", int64(0)},
	{config.KeyLatticeLx, "lattice extent in x", 0},
	{config.KeyLatticeLy, "lattice extent in y", 0},
	{config.KeyHopping, "hopping amplitude t", 0.0},
	{config.KeyOnsiteU, "on-site repulsion U", 0.0},
	{config.KeyChemicalPotential, "chemical potential μ", 0.0},
	{config.KeyWarmup, "warm-up steps", 0},
	{config.KeyBins, "measurement bins", 0},
	{config.KeyBinSize, "steps per bin", 0},
	{config.KeyObservables, "observables to measure", []string(nil)},
	{config.KeyLogLevel, "log level", ""},
	{config.KeyLogFormat, "log format: text or json", ""},
	{config.KeyMetricsAddr, "serve Prometheus /metrics on this address", ""},
}

func newRunCmd() *cobra.Command {
	var cfgFile, output string
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return errors.Wrap(err, "load configuration")
			}
			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return errors.Wrap(err, "create report file")
				}
				defer f.Close()
				out = f
			}

			return runSimulation(cmd.Context(), cfg, out, cmd.ErrOrStderr())
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfgFile, "config", "c", "", "YAML config file (default ./dqmc.yaml when present)")
	fs.StringVarP(&output, "output", "o", "", "write the report to this file instead of stdout")
	for _, f := range runFlags {
		switch def := f.def.(type) {
		case float64:
			fs.Float64(f.key, def, f.usage)
		case int:
			fs.Int(f.key, def, f.usage)
		case int64:
			fs.Int64(f.key, def, f.usage)
		case bool:
			fs.Bool(f.key, def, f.usage)
		case string:
			fs.String(f.key, def, f.usage)
		case []string:
			fs.StringSlice(f.key, def, f.usage)
		}
		// only flags the user set override file and defaults
		_ = v.BindPFlag(f.key, fs.Lookup(f.key))
	}

	return cmd
}

func runSimulation(ctx context.Context, cfg *config.Config, out, logOut io.Writer) error {
	logger, err := logging.NewWithWriter(logOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return errors.Wrap(err, "configure logging")
	}
	log := logrus.NewEntry(logger)

	deps := simulation.Deps{Logger: log}
	if cfg.Metrics.Addr != "" {
		rec := metrics.NewRecorder()
		deps.Observer = rec
		stop, err := serveMetrics(cfg.Metrics.Addr, rec.Handler(), log)
		if err != nil {
			return err
		}
		defer stop()
	}

	report, runErr := simulation.Run(ctx, cfg, deps)
	if report != nil {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return errors.Wrap(err, "encode report")
		}
		if err := enc.Close(); err != nil {
			return errors.Wrap(err, "encode report")
		}
	}

	return errors.Wrap(runErr, "simulation")
}

// serveMetrics starts a /metrics server and returns its shutdown function.
func serveMetrics(addr string, h http.Handler, log *logrus.Entry) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen on %s", addr)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: shutdownTimeout}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped")
		}
	}()
	log.WithField("addr", ln.Addr().String()).Info("serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
