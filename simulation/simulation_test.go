// SPDX-License-Identifier: MIT

package simulation_test

import (
	"context"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/dqmc/config"
	"github.com/katalvlaran/dqmc/measure"
	"github.com/katalvlaran/dqmc/simulation"
	"github.com/katalvlaran/dqmc/walker"
)

func small() *config.Config {
	return &config.Config{
		Beta:              1,
		TimeSlices:        8,
		StabilizationPace: 4,
		Decomposition:     "svd",
		DriftBound:        1e-6,
		Seed:              11,
		Lattice:           config.Lattice{Lx: 2, Ly: 2},
		Model:             config.Model{Hopping: 1, OnsiteU: 2},
		Sweeps:            config.Sweeps{Warmup: 2, Bins: 3, BinSize: 2},
		Observables:       []string{measure.FillingNumber, measure.DoubleOccupancy, measure.GreensFunctions},
	}
}

type counter struct{ byDir map[walker.Direction]int }

func (c *counter) SweepDone(rep walker.SweepReport) { c.byDir[rep.Direction]++ }

func find(t *testing.T, rep *simulation.Report, name string) measure.Result {
	t.Helper()
	for _, r := range rep.Results {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("missing result %q", name)

	return measure.Result{}
}

func TestRun_HalfFilledHubbard(t *testing.T) {
	t.Parallel()
	obs := &counter{byDir: map[walker.Direction]int{}}
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)

	rep, err := simulation.Run(context.Background(), small(), simulation.Deps{
		Logger:   logrus.NewEntry(logger),
		Observer: obs,
	})
	require.NoError(t, err)
	require.True(t, rep.Completed)
	assert.NotEmpty(t, rep.RunID)

	// warm-up: 2 × (F, B); bins: 6 × (F, B, D, B)
	assert.Equal(t, 2+6, obs.byDir[walker.Forward])
	assert.Equal(t, 2+12, obs.byDir[walker.Backward])
	assert.Equal(t, 6, obs.byDir[walker.Dynamic])
	assert.Equal(t, 2*2+6*4, rep.Sweeps)
	assert.Less(t, rep.MaxWrapError, 1e-8)
	assert.Greater(t, rep.AcceptanceRate, 0.0)

	// the square lattice at μ = 0 is particle-hole symmetric: n = 1 exactly
	// for every field configuration.
	fill := find(t, rep, measure.FillingNumber)
	assert.Equal(t, 3, fill.Bins)
	assert.InDelta(t, 1.0, fill.Mean[0], 1e-8)

	docc, _ := find(t, rep, measure.DoubleOccupancy).Scalar()
	assert.Greater(t, docc, 0.0)
	assert.Less(t, docc, 0.25)

	// the last component is G(β,0) = I − G(β): its trace is n/2
	g := find(t, rep, measure.GreensFunctions)
	require.Len(t, g.Mean, 8)
	assert.InDelta(t, 0.5, g.Mean[7], 1e-8)
	for _, v := range g.Mean {
		assert.False(t, math.IsNaN(v))
	}
	s, _ := find(t, rep, measure.Sign).Scalar()
	assert.Equal(t, 1.0, s)

	var binLogs int
	for _, e := range hook.AllEntries() {
		if e.Message == "bin closed" {
			binLogs++
			assert.Equal(t, rep.RunID, e.Data["run_id"])
		}
	}
	assert.Equal(t, 3, binLogs)
}

func TestRun_DeterministicPerSeed(t *testing.T) {
	t.Parallel()
	cfg := small()
	cfg.Observables = []string{measure.DoubleOccupancy}
	cfg.Decomposition = "qr"

	a, err := simulation.Run(context.Background(), cfg, simulation.Deps{})
	require.NoError(t, err)
	b, err := simulation.Run(context.Background(), cfg, simulation.Deps{})
	require.NoError(t, err)
	assert.Equal(t, a.Results, b.Results)
	assert.Equal(t, a.AcceptanceRate, b.AcceptanceRate)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := simulation.Run(ctx, small(), simulation.Deps{})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rep)
	assert.False(t, rep.Completed)
	assert.Zero(t, rep.Sweeps)
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	_, err := simulation.Run(context.Background(), nil, simulation.Deps{})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	cfg := small()
	cfg.TimeSlices = 0
	_, err = simulation.Run(context.Background(), cfg, simulation.Deps{})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	cfg = small()
	cfg.Observables = []string{"magnetization"}
	_, err = simulation.Run(context.Background(), cfg, simulation.Deps{})
	assert.ErrorIs(t, err, measure.ErrUnknownObservable)
}
