// SPDX-License-Identifier: MIT

package stack

import "errors"

// Sentinel errors for stack operations.
var (
	// ErrInvalidDimensions indicates a non-positive matrix size or capacity.
	ErrInvalidDimensions = errors.New("stack: size and capacity must be > 0")

	// ErrDimensionMismatch indicates a pushed factor or an assembled triple
	// whose size differs from the stack size.
	ErrDimensionMismatch = errors.New("stack: dimension mismatch")

	// ErrEmptyStack is returned by Pop on an empty stack.
	ErrEmptyStack = errors.New("stack: pop from empty stack")

	// ErrStackFull is returned by Push when the capacity is exhausted.
	ErrStackFull = errors.New("stack: capacity exhausted")

	// ErrDecompositionFailed indicates that the stabilizing decomposition or
	// the inner inversion of an assembly broke down. It is always fatal.
	ErrDecompositionFailed = errors.New("stack: decomposition failed")

	// ErrUnknownDecomposition indicates an unsupported Decomposition value.
	ErrUnknownDecomposition = errors.New("stack: unknown decomposition")
)
