// SPDX-License-Identifier: MIT

package walker

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/katalvlaran/dqmc/matrix"
	"github.com/katalvlaran/dqmc/model"
	"github.com/katalvlaran/dqmc/stack"
)

// Operation name constants for error context.
const (
	opSweepForward  = "SweepForward"
	opSweepBackward = "SweepBackward"
	opSweepDynamic  = "SweepDynamic"
	opWrapForward   = "WrapFromZeroToBeta"
	opWrapBackward  = "WrapFromBetaToZero"
)

// SweepForward runs one Monte Carlo sweep from slice 0 to L.
//
// Implementation, for τ = 0 … L−1:
//   - Stage 1: wrap G(τ) → G(τ+1) = B_τ·G·B_τ⁻¹ (both spins).
//   - Stage 2: Metropolis update of every site of τ; accepted flips apply the
//     model's rank-one update, commit the flip and update the sign.
//   - Stage 3: left-multiply B_τ (with the updated field) into the chunk.
//   - Stage 4: when τ+1 is a multiple of the pace or equals L, push the chunk
//     onto the left stacks, pop the right stacks and replace G(τ+1) by the
//     stabilized recomputation, recording the discrepancy.
//
// Requires Idle, AtZero; ends AtBeta.
// Errors: ErrConfiguration, ErrStabilizationFailure, ErrModelContract.
// Complexity: O(L·N·c_update + L·c_wrap + ⌈L/pace⌉·N³).
func (w *Walker) SweepForward(m model.Propagator) error {
	if err := w.begin(opSweepForward, m, AtZero, SweepingForward); err != nil {
		return err
	}
	start, acc0, drift0 := time.Now(), w.acceptance, w.driftEvents
	w.resetChunks()
	for t := 0; t < w.slices; t++ {
		if err := w.wrapForward(opSweepForward, m, t); err != nil {
			return w.fail(err)
		}
		if err := w.updateSlice(opSweepForward, m, t); err != nil {
			return w.fail(err)
		}
		if err := w.accumulate(opSweepForward, m, t, false); err != nil {
			return w.fail(err)
		}
		if (t+1)%w.pace == 0 || t+1 == w.slices {
			if err := w.checkpointForward(opSweepForward, t+1, false); err != nil {
				return w.fail(err)
			}
		}
		w.record(t, false)
	}
	w.finish(Forward, start, acc0, drift0)

	return nil
}

// SweepBackward runs one Monte Carlo sweep from slice L down to 0.
//
// Implementation, for τ = L−1 … 0:
//   - Stage 1: Metropolis update of every site of τ on G(τ+1).
//   - Stage 2: left-multiply B_τᵀ into the chunk.
//   - Stage 3: wrap G(τ+1) → G(τ) = B_τ⁻¹·G·B_τ.
//   - Stage 4: when τ is a multiple of the pace, pop the left stacks, push
//     the chunk onto the right stacks and replace G(τ) by the recomputation.
//
// Requires Idle, AtBeta; ends AtZero.
// Errors: ErrConfiguration, ErrStabilizationFailure, ErrModelContract.
func (w *Walker) SweepBackward(m model.Propagator) error {
	if err := w.begin(opSweepBackward, m, AtBeta, SweepingBackward); err != nil {
		return err
	}
	start, acc0, drift0 := time.Now(), w.acceptance, w.driftEvents
	w.resetChunks()
	for t := w.slices - 1; t >= 0; t-- {
		if err := w.updateSlice(opSweepBackward, m, t); err != nil {
			return w.fail(err)
		}
		w.record(t, false)
		if err := w.accumulate(opSweepBackward, m, t, true); err != nil {
			return w.fail(err)
		}
		if err := w.wrapBackward(opSweepBackward, m, t); err != nil {
			return w.fail(err)
		}
		if t%w.pace == 0 {
			if err := w.checkpointBackward(opSweepBackward, t); err != nil {
				return w.fail(err)
			}
		}
	}
	w.finish(Backward, start, acc0, drift0)

	return nil
}

// SweepDynamic propagates the time-displaced Green's functions from slice 0
// to L with the field frozen:
//
//	G(0,0) = G(0),  G(0,0)ᵗᵒ = G(0) − I,
//	G(τ+1,0) = B_τ·G(τ,0),  G(0,τ+1) = G(0,τ)·B_τ⁻¹,
//
// while G(t) wraps as in SweepForward. At checkpoints all three are replaced
// by the stabilized recomputation; the wrap error compares G(t) only.
// No update is proposed. The sweep runs from 0 towards β, the direction in
// which both recursions above hold with the field frozen; a backward pass
// from β would need B_τ⁻¹ on G(τ,0) instead.
//
// Requires the dynamic flag, Idle and AtZero; ends AtBeta.
// Errors: ErrConfiguration, ErrStabilizationFailure, ErrModelContract.
func (w *Walker) SweepDynamic(m model.Propagator) error {
	if !w.dynamic {
		return configErrorf(opSweepDynamic, "dynamic measurement is not enabled")
	}
	if err := w.begin(opSweepDynamic, m, AtZero, SweepingDynamic); err != nil {
		return err
	}
	start, acc0, drift0 := time.Now(), w.acceptance, w.driftEvents
	for _, s := range model.Spins {
		w.gt0[s].Copy(w.gtt[s])
		w.g0t[s].Copy(w.gtt[s])
		for i := 0; i < w.n; i++ {
			w.g0t[s].Set(i, i, w.g0t[s].At(i, i)-1)
		}
	}
	w.resetChunks()
	for t := 0; t < w.slices; t++ {
		if err := w.wrapForward(opSweepDynamic, m, t); err != nil {
			return w.fail(err)
		}
		err := forSpins(func(s model.Spin) error {
			if err := m.MultBLeft(w.gt0[s], t, s); err != nil {
				return newError(KindModelContract, opSweepDynamic, t, -1, s, err)
			}
			if err := m.MultInvBRight(w.g0t[s], t, s); err != nil {
				return newError(KindModelContract, opSweepDynamic, t, -1, s, err)
			}

			return nil
		})
		if err != nil {
			return w.fail(err)
		}
		if err = w.accumulate(opSweepDynamic, m, t, false); err != nil {
			return w.fail(err)
		}
		if (t+1)%w.pace == 0 || t+1 == w.slices {
			if err = w.checkpointForward(opSweepDynamic, t+1, true); err != nil {
				return w.fail(err)
			}
		}
		w.record(t, true)
	}
	w.finish(Dynamic, start, acc0, drift0)

	return nil
}

// begin checks the preconditions of a sweep and enters state st.
func (w *Walker) begin(op string, m model.Propagator, want Position, st State) error {
	if m == nil {
		return configErrorf(op, "nil model")
	}
	if m.SpaceSize() != w.n {
		return configErrorf(op, "model size %d does not match walker size %d", m.SpaceSize(), w.n)
	}
	if w.state != Idle {
		return configErrorf(op, "walker is %s", w.state)
	}
	if w.position != want {
		return configErrorf(op, "sweep requires %s, walker is %s", want, w.position)
	}
	w.state = st
	w.checkpoints = w.checkpoints[:0]
	w.wrapError = 0

	return nil
}

// fail leaves the walker Idle but Between: only Builder.Reset recovers it.
func (w *Walker) fail(err error) error {
	w.state = Idle
	w.position = Between
	w.log.WithError(err).Error("walker aborted")

	return err
}

func (w *Walker) finish(dir Direction, start time.Time, acc0 Acceptance, drift0 int) {
	w.state = Idle
	w.updatePosition()
	report := SweepReport{
		Direction:   dir,
		WrapError:   w.wrapError,
		Checkpoints: len(w.checkpoints),
		DriftEvents: w.driftEvents - drift0,
		Acceptance: Acceptance{
			Proposals: w.acceptance.Proposals - acc0.Proposals,
			Accepted:  w.acceptance.Accepted - acc0.Accepted,
		},
		ConfigSign: w.sign,
		Duration:   time.Since(start),
	}
	w.log.WithFields(logrus.Fields{
		"direction":  dir,
		"wrap_error": report.WrapError,
		"accepted":   report.Acceptance.Accepted,
		"sign":       w.sign,
	}).Debug("sweep done")
	if w.opts.Observer != nil {
		w.opts.Observer.SweepDone(report)
	}
}

func (w *Walker) updatePosition() {
	switch {
	case w.slice == 0 && w.left[model.SpinUp].IsEmpty():
		w.position = AtZero
	case w.slice == w.slices && w.right[model.SpinUp].IsEmpty():
		w.position = AtBeta
	default:
		w.position = Between
	}
}

func (w *Walker) resetChunks() {
	for _, s := range model.Spins {
		matrix.SetIdentity(w.chunk[s])
	}
}

// updateSlice proposes a flip at every site of slice t, in site order.
func (w *Walker) updateSlice(op string, m model.Propagator, t int) error {
	for i := 0; i < w.n; i++ {
		if err := w.metropolis(op, m, i, t); err != nil {
			return err
		}
	}

	return nil
}

// metropolis accepts a flip with probability min(1, |r|) and multiplies the
// configuration sign by sign(r) on acceptance.
func (w *Walker) metropolis(op string, m model.Propagator, site, t int) error {
	up, dn := w.gtt[model.SpinUp], w.gtt[model.SpinDown]
	r := m.UpdateRatio(up, dn, site, t)
	w.acceptance.Proposals++
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return newError(KindModelContract, op, t, site, bothSpins, fmt.Errorf("update ratio %g", r))
	}
	if r < 0 && !w.opts.SignedRatios {
		return newError(KindModelContract, op, t, site, bothSpins, fmt.Errorf("negative update ratio %g", r))
	}
	if !(w.opts.Rand.Float64() < math.Min(1, math.Abs(r))) {
		return nil
	}
	if err := m.UpdateGreens(up, dn, site, t); err != nil {
		return newError(KindModelContract, op, t, site, bothSpins, err)
	}
	m.FlipField(site, t)
	if r < 0 {
		w.sign = -w.sign
	}
	w.acceptance.Accepted++

	return nil
}

// accumulate left-multiplies B_t (or B_tᵀ) into the chunk of each spin.
func (w *Walker) accumulate(op string, m model.Propagator, t int, transpose bool) error {
	return forSpins(func(s model.Spin) error {
		var err error
		if transpose {
			err = m.MultTransBLeft(w.chunk[s], t, s)
		} else {
			err = m.MultBLeft(w.chunk[s], t, s)
		}
		if err != nil {
			return newError(KindModelContract, op, t, -1, s, err)
		}

		return nil
	})
}

// checkpointForward: push chunk left, pop right, recompute G(t).
func (w *Walker) checkpointForward(op string, t int, displaced bool) error {
	var diff [2]float64
	err := forSpins(func(s model.Spin) error {
		if err := w.left[s].Push(w.chunk[s]); err != nil {
			return newError(KindStabilization, op, t, -1, s, err)
		}
		if err := w.right[s].Pop(); err != nil {
			return newError(KindConfiguration, op, t, -1, s, err)
		}
		matrix.SetIdentity(w.chunk[s])

		return w.recompute(op, t, s, displaced, &diff[s])
	})
	if err != nil {
		return err
	}

	return w.noteCheckpoint(op, t, math.Max(diff[0], diff[1]))
}

// checkpointBackward: pop left, push chunk right, recompute G(t).
func (w *Walker) checkpointBackward(op string, t int) error {
	var diff [2]float64
	err := forSpins(func(s model.Spin) error {
		if err := w.left[s].Pop(); err != nil {
			return newError(KindConfiguration, op, t, -1, s, err)
		}
		if err := w.right[s].Push(w.chunk[s]); err != nil {
			return newError(KindStabilization, op, t, -1, s, err)
		}
		matrix.SetIdentity(w.chunk[s])

		return w.recompute(op, t, s, false, &diff[s])
	})
	if err != nil {
		return err
	}

	return w.noteCheckpoint(op, t, math.Max(diff[0], diff[1]))
}

// recompute replaces G(t) (and, if displaced, G(t,0) and G(0,t)) of channel
// s by the stabilized value from the stacks and stores the max-abs change of
// G(t) in diff.
func (w *Walker) recompute(op string, t int, s model.Spin, displaced bool, diff *float64) error {
	left, right := w.left[s].Product(), w.right[s].Product()
	if displaced {
		gtt, gt0, g0t, err := stack.Displaced(left, right)
		if err != nil {
			return newError(KindStabilization, op, t, -1, s, err)
		}
		if *diff, err = matrix.MaxAbsDiff(gtt, w.gtt[s]); err != nil {
			return newError(KindStabilization, op, t, -1, s, err)
		}
		w.gtt[s].Copy(gtt)
		w.gt0[s].Copy(gt0)
		w.g0t[s].Copy(g0t)

		return nil
	}
	g, err := stack.EqualTime(left, right)
	if err != nil {
		return newError(KindStabilization, op, t, -1, s, err)
	}
	if *diff, err = matrix.MaxAbsDiff(g, w.gtt[s]); err != nil {
		return newError(KindStabilization, op, t, -1, s, err)
	}
	w.gtt[s].Copy(g)

	return nil
}

// noteCheckpoint records the discrepancy of checkpoint t. Drift above the
// bound is logged and counted, never fatal; a NaN discrepancy is.
func (w *Walker) noteCheckpoint(op string, t int, e float64) error {
	if math.IsNaN(e) {
		return newError(KindStabilization, op, t, -1, bothSpins, fmt.Errorf("non-finite wrap error"))
	}
	w.checkpoints = append(w.checkpoints, Checkpoint{Slice: t, WrapError: e})
	if e > w.wrapError {
		w.wrapError = e
	}
	fields := logrus.Fields{"op": op, "slice": t, "wrap_error": e}
	w.log.WithFields(fields).Debug("checkpoint")
	if w.opts.DriftBound > 0 && e > w.opts.DriftBound {
		w.driftEvents++
		w.log.WithFields(fields).WithField("bound", w.opts.DriftBound).Warn("wrap error above drift bound")
	}

	return nil
}

// record stores the current Green's functions as the records of slice t.
func (w *Walker) record(t int, dynamic bool) {
	if w.recSign == nil {
		return
	}
	w.recSign[t] = w.sign
	for _, s := range model.Spins {
		w.recTT[s][t].Copy(w.gtt[s])
		if dynamic && w.recT0[s] != nil {
			w.recT0[s][t].Copy(w.gt0[s])
			w.rec0T[s][t].Copy(w.g0t[s])
		}
	}
}
