// SPDX-License-Identifier: MIT

package walker

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/dqmc/model"
)

// Sentinel errors, one per fatal error kind. Every error returned by a walker
// operation matches exactly one of them through errors.Is.
var (
	// ErrConfiguration covers invalid parameters, size mismatches between
	// model and walker, slice indices out of range and sweeps called in the
	// wrong order.
	ErrConfiguration = errors.New("walker: configuration error")

	// ErrStabilizationFailure indicates that a stack decomposition or a
	// stabilized recomputation broke down.
	ErrStabilizationFailure = errors.New("walker: stabilization failure")

	// ErrModelContract indicates that the model returned a NaN, infinite or
	// (outside signed mode) negative ratio, or failed a propagator call.
	ErrModelContract = errors.New("walker: model contract violation")
)

// Kind classifies a SweepError.
type Kind int

const (
	KindConfiguration Kind = iota
	KindStabilization
	KindModelContract
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindStabilization:
		return "stabilization"
	case KindModelContract:
		return "model-contract"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindStabilization:
		return ErrStabilizationFailure
	case KindModelContract:
		return ErrModelContract
	default:
		return ErrConfiguration
	}
}

// bothSpins marks an error that is not tied to a single channel.
const bothSpins = model.Spin(-1)

// SweepError carries the (slice, spin) context of a fatal error.
// Slice and Site are −1 when not applicable.
type SweepError struct {
	Kind  Kind
	Op    string
	Slice int
	Site  int
	Spin  model.Spin
	Err   error
}

func (e *SweepError) Error() string {
	spin := "both"
	if e.Spin == model.SpinUp || e.Spin == model.SpinDown {
		spin = e.Spin.String()
	}

	return fmt.Sprintf("%s: %s (slice=%d site=%d spin=%s): %v", e.Op, e.Kind, e.Slice, e.Site, spin, e.Err)
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *SweepError) Unwrap() []error {
	return []error{e.Kind.sentinel(), e.Err}
}

func newError(kind Kind, op string, slice, site int, spin model.Spin, err error) *SweepError {
	return &SweepError{Kind: kind, Op: op, Slice: slice, Site: site, Spin: spin, Err: err}
}

func errSliceRange(t, l int) error {
	return fmt.Errorf("time slice %d outside [0,%d)", t, l)
}

func configErrorf(op, format string, args ...any) error {
	return newError(KindConfiguration, op, -1, -1, bothSpins, fmt.Errorf(format, args...))
}
