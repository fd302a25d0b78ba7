// SPDX-License-Identifier: MIT

// Package simulation drives a complete DQMC run: it wires lattice, Hubbard
// model, walker and measurement handler from a config.Config, performs the
// warm-up and the binned measurement sweeps, and returns a Report.
//
// Schedule. One step is a forward sweep followed by a backward sweep, each
// followed by an equal-time measurement when one is requested. With a
// dynamic observable the step continues with a dynamic sweep (field frozen),
// the dynamic measurement and another backward sweep. Warm-up steps measure
// nothing. The context is checked between sweeps; a cancelled run returns
// the partial report together with the context error.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/katalvlaran/dqmc/config"
	"github.com/katalvlaran/dqmc/lattice"
	"github.com/katalvlaran/dqmc/logging"
	"github.com/katalvlaran/dqmc/measure"
	"github.com/katalvlaran/dqmc/model"
	"github.com/katalvlaran/dqmc/walker"
)

// Deps are the optional collaborators of a run.
type Deps struct {
	Logger   *logrus.Entry   // nil: discard
	Observer walker.Observer // e.g. a metrics.Recorder; nil: none
}

// Report is the outcome of a run.
type Report struct {
	RunID          string           `yaml:"run_id"`
	Started        time.Time        `yaml:"started"`
	Elapsed        time.Duration    `yaml:"elapsed"`
	Sweeps         int              `yaml:"sweeps"`
	AcceptanceRate float64          `yaml:"acceptance_rate"`
	MaxWrapError   float64          `yaml:"max_wrap_error"`
	DriftEvents    int              `yaml:"drift_events"`
	Completed      bool             `yaml:"completed"`
	Config         config.Config    `yaml:"config"`
	Results        []measure.Result `yaml:"results"`
}

// tally is the run's own sweep observer; it forwards to the caller's.
type tally struct {
	next    walker.Observer
	sweeps  int
	maxWrap float64
}

func (t *tally) SweepDone(rep walker.SweepReport) {
	t.sweeps++
	t.maxWrap = math.Max(t.maxWrap, rep.WrapError)
	if t.next != nil {
		t.next.SweepDone(rep)
	}
}

// run bundles what a step needs.
type run struct {
	ctx     context.Context
	hub     *model.Hubbard
	w       *walker.Walker
	handler *measure.Handler
}

// Run executes the simulation described by cfg.
//
// Errors: config.ErrInvalidConfig, measure.ErrUnknownObservable, walker
// errors (see walker.SweepError) and the context's error on cancellation.
func Run(ctx context.Context, cfg *config.Config, deps Deps) (*Report, error) {
	if cfg == nil {
		return nil, fmt.Errorf("simulation: %w: nil config", config.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := deps.Logger
	if log == nil {
		log = logging.Discard()
	}
	report := &Report{RunID: uuid.NewString(), Started: time.Now(), Config: *cfg}
	log = log.WithField("run_id", report.RunID)

	lat, err := lattice.NewSquare(cfg.Lattice.Lx, cfg.Lattice.Ly)
	if err != nil {
		return nil, fmt.Errorf("simulation: lattice: %w", err)
	}
	handler, err := measure.NewHandler(cfg.Observables, lat, cfg.Model.Hopping)
	if err != nil {
		return nil, fmt.Errorf("simulation: %w", err)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	hub, err := model.NewHubbard(model.HubbardParams{
		Hopping:           cfg.Model.Hopping,
		OnsiteU:           cfg.Model.OnsiteU,
		ChemicalPotential: cfg.Model.ChemicalPotential,
	}, lat, cfg.TimeSlices, cfg.Beta, rng)
	if err != nil {
		return nil, fmt.Errorf("simulation: model: %w", err)
	}

	stats := &tally{next: deps.Observer}
	opts := []walker.Option{
		walker.WithLogger(log),
		walker.WithRand(rng),
		walker.WithDecomposition(cfg.DecompositionKind()),
		walker.WithDriftBound(cfg.DriftBound),
		walker.WithObserver(stats),
	}
	if cfg.SignedRatios {
		opts = append(opts, walker.WithSignedRatios())
	}
	b := walker.NewBuilder(opts...)
	if err = b.SetPhysicalParams(cfg.Beta, cfg.TimeSlices); err != nil {
		return nil, err
	}
	if err = b.SetStabilizationPace(cfg.StabilizationPace); err != nil {
		return nil, err
	}
	w, err := b.Initial(hub, lat, handler)
	if err != nil {
		return nil, err
	}

	r := &run{ctx: ctx, hub: hub, w: w, handler: handler}
	defer func() {
		report.Elapsed = time.Since(report.Started)
		report.Sweeps = stats.sweeps
		report.MaxWrapError = stats.maxWrap
		report.AcceptanceRate = w.Acceptance().Rate()
		report.DriftEvents = w.DriftEvents()
		report.Results = handler.Results()
	}()

	for i := 0; i < cfg.Sweeps.Warmup; i++ {
		if err = r.step(false); err != nil {
			return report, err
		}
	}
	log.WithField("steps", cfg.Sweeps.Warmup).Info("warm-up done")

	for bin := 0; bin < cfg.Sweeps.Bins; bin++ {
		for i := 0; i < cfg.Sweeps.BinSize; i++ {
			if err = r.step(true); err != nil {
				return report, err
			}
		}
		if err = handler.Bin(); err != nil {
			if !errors.Is(err, measure.ErrEmptyBin) {
				return report, err
			}
			log.WithError(err).WithField("bin", bin).Warn("bin dropped")

			continue
		}
		log.WithFields(logrus.Fields{
			"bin":        bin,
			"sign":       w.ConfigSign(),
			"wrap_error": stats.maxWrap,
		}).Info("bin closed")
	}
	report.Completed = true

	return report, nil
}

// step performs one schedule step; sample selects whether samples are taken.
func (r *run) step(sample bool) error {
	if err := r.sweep(r.w.SweepForward); err != nil {
		return err
	}
	if err := r.measureEqualTime(sample); err != nil {
		return err
	}
	if err := r.sweep(r.w.SweepBackward); err != nil {
		return err
	}
	if err := r.measureEqualTime(sample); err != nil {
		return err
	}
	if !sample || !r.handler.IsDynamic() {
		return nil
	}
	if err := r.sweep(r.w.SweepDynamic); err != nil {
		return err
	}
	if err := r.handler.MeasureDynamic(r.w); err != nil {
		return err
	}
	if err := r.sweep(r.w.SweepBackward); err != nil {
		return err
	}

	return r.measureEqualTime(sample)
}

func (r *run) sweep(fn func(model.Propagator) error) error {
	if err := r.ctx.Err(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}

	return fn(r.hub)
}

func (r *run) measureEqualTime(on bool) error {
	if !on || !r.handler.IsEqualTime() {
		return nil
	}

	return r.handler.MeasureEqualTime(r.w)
}
