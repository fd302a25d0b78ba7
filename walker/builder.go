// SPDX-License-Identifier: MIT

package walker

import (
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/dqmc/matrix"
	"github.com/katalvlaran/dqmc/model"
	"github.com/katalvlaran/dqmc/stack"
)

// Operation name constants for error context.
const (
	opSetPhysical = "SetPhysicalParams"
	opSetPace     = "SetStabilizationPace"
	opInitial     = "Initial"
	opReset       = "Reset"
)

// Builder is the only way to construct or reset a Walker.
//
// Usage:
//
//	b := walker.NewBuilder(walker.WithSeed(7))
//	_ = b.SetPhysicalParams(4.0, 80)
//	_ = b.SetStabilizationPace(10)
//	w, err := b.Initial(model, lattice, handler)
//
// The returned *Walker is handed off; the Builder keeps no reference to it.
type Builder struct {
	beta   float64
	slices int
	pace   int
	opts   []Option

	physicalSet bool
	paceSet     bool
}

// NewBuilder returns a Builder; opts are applied to every walker it builds.
func NewBuilder(opts ...Option) *Builder {
	return &Builder{opts: opts}
}

// SetPhysicalParams sets the inverse temperature β and the number of slices L.
// Errors: ErrConfiguration for β ≤ 0 (or non-finite) and L ≤ 0.
func (b *Builder) SetPhysicalParams(beta float64, slices int) error {
	if !(beta > 0) || math.IsInf(beta, 0) {
		return configErrorf(opSetPhysical, "beta=%g must be positive and finite", beta)
	}
	if slices <= 0 {
		return configErrorf(opSetPhysical, "time slices=%d must be > 0", slices)
	}
	b.beta, b.slices, b.physicalSet = beta, slices, true

	return nil
}

// SetStabilizationPace sets the number of slices between checkpoints.
// Errors: ErrConfiguration for pace ≤ 0.
func (b *Builder) SetStabilizationPace(pace int) error {
	if pace <= 0 {
		return configErrorf(opSetPace, "stabilization pace=%d must be > 0", pace)
	}
	b.pace, b.paceSet = pace, true

	return nil
}

// Initial builds a walker for model m on lattice lat.
//
// Implementation:
//   - Stage 1: check that parameters were set and that N agrees between
//     model and lattice.
//   - Stage 2: allocate four stacks of capacity ⌈L/pace⌉, the equal-time
//     Green's functions and, as flags ask, time-displaced matrices and
//     per-slice records.
//   - Stage 3: Reset: build the right stacks from slice L−1 down to 0 and
//     compute G(0) from them.
//
// Errors: ErrConfiguration, ErrStabilizationFailure, ErrModelContract.
// Complexity: O(L·N³).
func (b *Builder) Initial(m model.Propagator, lat Lattice, flags MeasureFlags) (*Walker, error) {
	if !b.physicalSet || !b.paceSet {
		return nil, configErrorf(opInitial, "physical params and stabilization pace must be set first")
	}
	if m == nil || lat == nil {
		return nil, configErrorf(opInitial, "nil model or lattice")
	}
	n := lat.SpaceSize()
	if n <= 0 || m.SpaceSize() != n {
		return nil, configErrorf(opInitial, "model size %d does not match lattice size %d", m.SpaceSize(), n)
	}
	if flags == nil {
		flags = Flags{}
	}

	o := DefaultOptions()
	for _, opt := range b.opts {
		opt(&o)
	}
	chunks := (b.slices + b.pace - 1) / b.pace

	w := &Walker{
		n:         n,
		slices:    b.slices,
		beta:      b.beta,
		dtau:      b.beta / float64(b.slices),
		pace:      b.pace,
		equalTime: flags.IsEqualTime(),
		dynamic:   flags.IsDynamic(),
		opts:      o,
		log:       o.Logger.WithField("component", "walker"),
	}
	for _, s := range model.Spins {
		var err error
		if w.left[s], err = stack.New(n, chunks, stack.WithDecomposition(o.Decomposition)); err != nil {
			return nil, configErrorf(opInitial, "left stack: %w", err)
		}
		if w.right[s], err = stack.New(n, chunks, stack.WithDecomposition(o.Decomposition)); err != nil {
			return nil, configErrorf(opInitial, "right stack: %w", err)
		}
		w.gtt[s] = mat.NewDense(n, n, nil)
		w.chunk[s] = mat.NewDense(n, n, nil)
		if w.dynamic {
			w.gt0[s] = mat.NewDense(n, n, nil)
			w.g0t[s] = mat.NewDense(n, n, nil)
			w.recT0[s] = newRecords(b.slices, n)
			w.rec0T[s] = newRecords(b.slices, n)
		}
		if w.equalTime || w.dynamic {
			w.recTT[s] = newRecords(b.slices, n)
		}
	}
	if w.equalTime || w.dynamic {
		w.recSign = make([]float64, b.slices)
	}

	if err := b.Reset(w, m); err != nil {
		return nil, err
	}
	w.log.WithFields(logrus.Fields{
		"sites":  n,
		"slices": b.slices,
		"beta":   b.beta,
		"pace":   b.pace,
		"decomp": o.Decomposition.String(),
	}).Info("walker initialized")

	return w, nil
}

// Reset rebuilds the stacks and G(0) of w from the current field of m and
// clears sign, wrap error and counters. The walker ends Idle, AtZero.
//
// Errors: ErrConfiguration, ErrStabilizationFailure, ErrModelContract.
// Complexity: O(L·N³).
func (b *Builder) Reset(w *Walker, m model.Propagator) error {
	if w == nil || m == nil {
		return configErrorf(opReset, "nil walker or model")
	}
	if m.SpaceSize() != w.n {
		return configErrorf(opReset, "model size %d does not match walker size %d", m.SpaceSize(), w.n)
	}

	err := forSpins(func(s model.Spin) error {
		w.left[s].Clear()
		w.right[s].Clear()
		matrix.SetIdentity(w.chunk[s])
		for t := w.slices - 1; t >= 0; t-- {
			if err := m.MultTransBLeft(w.chunk[s], t, s); err != nil {
				return newError(KindModelContract, opReset, t, -1, s, err)
			}
			if t%w.pace == 0 {
				if err := w.right[s].Push(w.chunk[s]); err != nil {
					return newError(KindStabilization, opReset, t, -1, s, err)
				}
				matrix.SetIdentity(w.chunk[s])
			}
		}
		g, err := stack.EqualTime(w.left[s].Product(), w.right[s].Product())
		if err != nil {
			return newError(KindStabilization, opReset, 0, -1, s, err)
		}
		w.gtt[s].Copy(g)

		return nil
	})
	if err != nil {
		return err
	}

	w.slice = 0
	w.state = Idle
	w.position = AtZero
	w.sign = 1
	w.wrapError = 0
	w.checkpoints = w.checkpoints[:0]
	w.acceptance = Acceptance{}
	w.driftEvents = 0

	return nil
}

func newRecords(l, n int) []*mat.Dense {
	out := make([]*mat.Dense, l)
	for i := range out {
		out[i] = mat.NewDense(n, n, nil)
	}

	return out
}
