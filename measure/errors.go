// SPDX-License-Identifier: MIT

package measure

import "errors"

// Sentinel errors for measurement.
var (
	// ErrUnknownObservable indicates an observable name the handler does not support.
	ErrUnknownObservable = errors.New("measure: unknown observable")

	// ErrNilGeometry indicates a missing lattice.
	ErrNilGeometry = errors.New("measure: nil geometry")

	// ErrNotDynamic indicates a dynamic measurement without time-displaced records.
	ErrNotDynamic = errors.New("measure: walker holds no time-displaced records")

	// ErrEmptyBin indicates Bin was called with no samples, or samples whose
	// signs sum to zero.
	ErrEmptyBin = errors.New("measure: empty bin")

	// ErrDimensionMismatch indicates Green's functions that do not match the lattice.
	ErrDimensionMismatch = errors.New("measure: dimension mismatch")
)
