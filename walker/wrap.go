// SPDX-License-Identifier: MIT

package walker

import (
	"github.com/katalvlaran/dqmc/model"
)

// WrapFromZeroToBeta propagates the equal-time Green's functions one slice
// forward, G(t) → G(t+1) = B_t·G(t)·B_t⁻¹, without touching stacks or field.
// The walker must currently hold G(t).
//
// Errors: ErrConfiguration (t ∉ [0, L), t ≠ current slice, nil or
// mismatched model, walker busy), ErrModelContract. A propagator failure
// may leave one channel wrapped and the other not, so it moves the walker
// Between; only Builder.Reset recovers it.
// Complexity: two propagator applications per spin.
func (w *Walker) WrapFromZeroToBeta(m model.Propagator, t int) error {
	if err := w.checkWrap(opWrapForward, m, t, t); err != nil {
		return err
	}
	if err := w.wrapForward(opWrapForward, m, t); err != nil {
		return w.fail(err)
	}
	w.updatePosition()

	return nil
}

// WrapFromBetaToZero propagates one slice backward,
// G(t+1) → G(t) = B_t⁻¹·G(t+1)·B_t. The walker must currently hold G(t+1).
//
// Errors: as WrapFromZeroToBeta.
func (w *Walker) WrapFromBetaToZero(m model.Propagator, t int) error {
	if err := w.checkWrap(opWrapBackward, m, t, t+1); err != nil {
		return err
	}
	if err := w.wrapBackward(opWrapBackward, m, t); err != nil {
		return w.fail(err)
	}
	w.updatePosition()

	return nil
}

func (w *Walker) checkWrap(op string, m model.Propagator, t, holds int) error {
	if m == nil || m.SpaceSize() != w.n {
		return configErrorf(op, "nil or mismatched model")
	}
	if w.state != Idle {
		return configErrorf(op, "walker is %s", w.state)
	}
	if t < 0 || t >= w.slices {
		return newError(KindConfiguration, op, t, -1, bothSpins, errSliceRange(t, w.slices))
	}
	if w.slice != holds {
		return configErrorf(op, "walker holds G(%d), wrap across slice %d needs G(%d)", w.slice, t, holds)
	}

	return nil
}

// wrapForward: G ← B_t·G·B_t⁻¹ for both spins; current slice becomes t+1.
func (w *Walker) wrapForward(op string, m model.Propagator, t int) error {
	err := forSpins(func(s model.Spin) error {
		if err := m.MultBLeft(w.gtt[s], t, s); err != nil {
			return newError(KindModelContract, op, t, -1, s, err)
		}
		if err := m.MultInvBRight(w.gtt[s], t, s); err != nil {
			return newError(KindModelContract, op, t, -1, s, err)
		}

		return nil
	})
	if err != nil {
		return err
	}
	w.slice = t + 1

	return nil
}

// wrapBackward: G ← B_t⁻¹·G·B_t for both spins; current slice becomes t.
func (w *Walker) wrapBackward(op string, m model.Propagator, t int) error {
	err := forSpins(func(s model.Spin) error {
		if err := m.MultInvBLeft(w.gtt[s], t, s); err != nil {
			return newError(KindModelContract, op, t, -1, s, err)
		}
		if err := m.MultBRight(w.gtt[s], t, s); err != nil {
			return newError(KindModelContract, op, t, -1, s, err)
		}

		return nil
	})
	if err != nil {
		return err
	}
	w.slice = t

	return nil
}
