// SPDX-License-Identifier: MIT

package stack

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Operation name constants for error wrapping.
const (
	opNew       = "New"
	opPush      = "Push"
	opPop       = "Pop"
	opEqualTime = "EqualTime"
	opDisplaced = "Displaced"
)

// Decomposition selects the factorization used to re-stabilize on Push.
type Decomposition int

const (
	// SVD uses a full singular value decomposition. Default.
	SVD Decomposition = iota
	// PivotedQR uses a column-pivoted Householder QR.
	PivotedQR
)

// String returns the configuration name of the decomposition.
func (d Decomposition) String() string {
	switch d {
	case SVD:
		return "svd"
	case PivotedQR:
		return "qr"
	default:
		return fmt.Sprintf("Decomposition(%d)", int(d))
	}
}

// ParseDecomposition maps a configuration name ("svd", "qr") to a Decomposition.
func ParseDecomposition(s string) (Decomposition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "svd":
		return SVD, nil
	case "qr", "pivoted_qr", "pivotedqr":
		return PivotedQR, nil
	default:
		return SVD, fmt.Errorf("%q: %w", s, ErrUnknownDecomposition)
	}
}

// Triple is the stabilized form U·diag(D)·V of a product.
// The matrices are owned by the stack; callers must treat them as read-only.
type Triple struct {
	U *mat.Dense // orthogonal
	D []float64  // positive scales
	V *mat.Dense // well conditioned
}

// Dim returns the matrix size of the triple.
func (t Triple) Dim() int { return len(t.D) }

// Options configures a Stack.
type Options struct {
	Decomposition Decomposition
}

// Option represents a functional option for New.
type Option func(*Options)

// WithDecomposition selects the stabilizing decomposition.
func WithDecomposition(d Decomposition) Option {
	return func(o *Options) {
		o.Decomposition = d
	}
}

// DefaultOptions returns Options with SVD stabilization.
func DefaultOptions() Options {
	return Options{Decomposition: SVD}
}

func stackErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}
