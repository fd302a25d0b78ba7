// SPDX-License-Identifier: MIT

// Package walker implements the DQMC sweep and wrap engine.
//
// A Walker owns the equal-time Green's functions G↑(t), G↓(t), optionally the
// time-displaced G(t,0) and G(0,t), and four stabilized stacks (left/right ×
// up/down). Left stacks hold chunks of B(t,0); right stacks hold chunks of
// B(β,t)ᵀ so that both directions push by left multiplication. A chunk is the
// product of `pace` consecutive propagators; the last one may be shorter.
//
// Sweeps:
//
//   - SweepForward  (AtZero → AtBeta): wrap across τ, update the sites of τ,
//     checkpoint when τ+1 is a multiple of the pace or equals L.
//   - SweepBackward (AtBeta → AtZero): update the sites of τ, wrap back
//     across τ, checkpoint when τ is a multiple of the pace.
//   - SweepDynamic  (AtZero → AtBeta): field frozen; propagates G(t,0) and
//     G(0,t) alongside G(t).
//
// At a checkpoint the Green's function is recomputed from the stacks, the
// max-abs difference to the wrapped value is recorded as wrap error and the
// recomputed value replaces the wrapped one. Both spin channels are processed
// concurrently at every wrap and checkpoint.
//
// Errors are *SweepError values matching ErrConfiguration,
// ErrStabilizationFailure or ErrModelContract; all are fatal for the sweep.
package walker

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/dqmc/model"
	"github.com/katalvlaran/dqmc/stack"
)

// Walker is the sweep engine. Build it with Builder; hold it as a Handle.
// A Walker is not safe for concurrent use.
type Walker struct {
	n      int
	slices int
	beta   float64
	dtau   float64
	pace   int

	equalTime bool
	dynamic   bool

	slice    int // G_tt holds G(slice), slice ∈ [0, L]
	state    State
	position Position

	gtt   [2]*mat.Dense
	gt0   [2]*mat.Dense
	g0t   [2]*mat.Dense
	chunk [2]*mat.Dense

	recTT   [2][]*mat.Dense
	recT0   [2][]*mat.Dense
	rec0T   [2][]*mat.Dense
	recSign []float64

	left  [2]*stack.Stack
	right [2]*stack.Stack

	sign        float64
	wrapError   float64
	checkpoints []Checkpoint
	acceptance  Acceptance
	driftEvents int

	opts Options
	log  *logrus.Entry
}

var _ Handle = (*Walker)(nil)

// forSpins runs fn for both channels concurrently and returns the first error.
func forSpins(fn func(s model.Spin) error) error {
	var g errgroup.Group
	for _, s := range model.Spins {
		g.Go(func() error { return fn(s) })
	}

	return g.Wait()
}

// GreenTT returns the equal-time Green's function G(t) of channel s.
func (w *Walker) GreenTT(s model.Spin) mat.Matrix { return view(w.gtt[s]) }

// GreenT0 returns G(t,0), or nil when dynamic measurement is off.
func (w *Walker) GreenT0(s model.Spin) mat.Matrix { return view(w.gt0[s]) }

// Green0T returns G(0,t), or nil when dynamic measurement is off.
func (w *Walker) Green0T(s model.Spin) mat.Matrix { return view(w.g0t[s]) }

// RecordsTT returns the per-slice equal-time records of the last sweep:
// entry τ is G(τ+1) right after the sites of slice τ were processed.
func (w *Walker) RecordsTT(s model.Spin) []mat.Matrix { return views(w.recTT[s]) }

// RecordsT0 returns G(τ+1,0) per slice τ from the last dynamic sweep.
func (w *Walker) RecordsT0(s model.Spin) []mat.Matrix { return views(w.recT0[s]) }

// Records0T returns G(0,τ+1) per slice τ from the last dynamic sweep.
func (w *Walker) Records0T(s model.Spin) []mat.Matrix { return views(w.rec0T[s]) }

// RecordSigns returns the configuration sign recorded with each slice.
func (w *Walker) RecordSigns() []float64 {
	if w.recSign == nil {
		return nil
	}
	out := make([]float64, len(w.recSign))
	copy(out, w.recSign)

	return out
}

// WrapError returns the largest checkpoint discrepancy of the last sweep.
func (w *Walker) WrapError() float64 { return w.wrapError }

// CheckpointErrors returns the checkpoints of the last sweep in order.
func (w *Walker) CheckpointErrors() []Checkpoint {
	out := make([]Checkpoint, len(w.checkpoints))
	copy(out, w.checkpoints)

	return out
}

// ConfigSign returns the running sign of the accepted ratios.
func (w *Walker) ConfigSign() float64 { return w.sign }

// TimeSliceNum returns L.
func (w *Walker) TimeSliceNum() int { return w.slices }

// Beta returns the inverse temperature β.
func (w *Walker) Beta() float64 { return w.beta }

// TimeInterval returns Δτ = β/L.
func (w *Walker) TimeInterval() float64 { return w.dtau }

// StabilizationPace returns the number of slices between checkpoints.
func (w *Walker) StabilizationPace() int { return w.pace }

// SpaceSize returns N, the number of sites.
func (w *Walker) SpaceSize() int { return w.n }

// CurrentSlice returns t of the held G(t).
func (w *Walker) CurrentSlice() int { return w.slice }

// Acceptance returns the proposal counters accumulated since Initial or Reset.
func (w *Walker) Acceptance() Acceptance { return w.acceptance }

// State returns the sweep state.
func (w *Walker) State() State { return w.state }

// Position returns where on the time axis the walker rests.
func (w *Walker) Position() Position { return w.position }

// DriftEvents returns how many checkpoints exceeded the drift bound.
func (w *Walker) DriftEvents() int { return w.driftEvents }

// IsEqualTimeEnabled reports whether equal-time records are kept.
func (w *Walker) IsEqualTimeEnabled() bool { return w.equalTime }

// IsDynamicEnabled reports whether SweepDynamic is available.
func (w *Walker) IsDynamicEnabled() bool { return w.dynamic }

// readOnly exposes a walker-owned matrix without its *mat.Dense mutators.
type readOnly struct{ m *mat.Dense }

func (r readOnly) Dims() (rows, cols int) { return r.m.Dims() }
func (r readOnly) At(i, j int) float64    { return r.m.At(i, j) }
func (r readOnly) T() mat.Matrix          { return mat.Transpose{Matrix: r} }

func view(m *mat.Dense) mat.Matrix {
	if m == nil {
		return nil
	}

	return readOnly{m: m}
}

func views(recs []*mat.Dense) []mat.Matrix {
	if recs == nil {
		return nil
	}
	out := make([]mat.Matrix, len(recs))
	for i, r := range recs {
		out[i] = view(r)
	}

	return out
}
