// SPDX-License-Identifier: MIT

// Package matrix - row-major helpers on top of gonum's *mat.Dense.
//
// Purpose:
//   - Keep diagonal scalings in place (ScaleRows/ScaleCols) so that callers
//     never materialize diag(d) as an N×N matrix.
//   - Provide the scale split used by the stabilized Green's-function assembly.
//   - Centralize the discrepancy metric (MaxAbsDiff) used for wrap errors.
//
// Complexity quicksheet:
//   - Identity: O(n²); ScaleRows/ScaleCols: O(r*c); MaxAbsDiff: O(r*c);
//     SplitScales: O(n); Inverse: O(n³).

package matrix

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Operation name constants for unified error wrapping and reducing magic strings.
const (
	opIdentity   = "Identity"
	opScaleRows  = "ScaleRows"
	opScaleCols  = "ScaleCols"
	opMaxAbsDiff = "MaxAbsDiff"
	opInverse    = "Inverse"
	opSVD        = "SVD"
	opPivotedQR  = "PivotedQR"
)

// Identity returns a freshly allocated n×n identity matrix.
// Errors: ErrInvalidDimensions when n <= 0.
func Identity(n int) (*mat.Dense, error) {
	if n <= 0 {
		return nil, matrixErrorf(opIdentity, ErrInvalidDimensions)
	}
	id := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		id.Set(i, i, 1)
	}

	return id, nil
}

// SetIdentity overwrites a square m with the identity in place.
func SetIdentity(m *mat.Dense) {
	m.Zero()
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		m.Set(i, i, 1)
	}
}

// ScaleRows replaces m with diag(d)·m, i.e. row i is multiplied by d[i].
//
// Implementation:
//   - Stage 1: validate len(d) == Rows(m).
//   - Stage 2: walk the raw row-major buffer row by row (stride aware).
//
// Errors: ErrNilMatrix, ErrDimensionMismatch.
// Complexity: Time O(r*c), Space O(1).
func ScaleRows(m *mat.Dense, d []float64) error {
	if err := ValidateNotNil(m); err != nil {
		return matrixErrorf(opScaleRows, err)
	}
	raw := m.RawMatrix()
	if err := ValidateVecLen(d, raw.Rows); err != nil {
		return matrixErrorf(opScaleRows, err)
	}
	var i, j, off int
	var s float64
	for i = 0; i < raw.Rows; i++ {
		s = d[i]
		off = i * raw.Stride
		for j = 0; j < raw.Cols; j++ {
			raw.Data[off+j] *= s
		}
	}

	return nil
}

// ScaleCols replaces m with m·diag(d), i.e. column j is multiplied by d[j].
//
// Errors: ErrNilMatrix, ErrDimensionMismatch.
// Complexity: Time O(r*c), Space O(1).
func ScaleCols(m *mat.Dense, d []float64) error {
	if err := ValidateNotNil(m); err != nil {
		return matrixErrorf(opScaleCols, err)
	}
	raw := m.RawMatrix()
	if err := ValidateVecLen(d, raw.Cols); err != nil {
		return matrixErrorf(opScaleCols, err)
	}
	var i, j, off int
	for i = 0; i < raw.Rows; i++ {
		off = i * raw.Stride
		for j = 0; j < raw.Cols; j++ {
			raw.Data[off+j] *= d[j]
		}
	}

	return nil
}

// MaxAbsDiff returns max_{i,j} |a[i,j] - b[i,j]|.
// This is the discrepancy metric used for wrap errors: it is scale-free with
// respect to N and matches an element-wise tolerance check.
//
// Errors: ErrNilMatrix, ErrDimensionMismatch.
// Complexity: O(r*c).
func MaxAbsDiff(a, b mat.Matrix) (float64, error) {
	if err := ValidateSameShape(a, b); err != nil {
		return 0, matrixErrorf(opMaxAbsDiff, err)
	}
	r, c := a.Dims()
	var out, d float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d = math.Abs(a.At(i, j) - b.At(i, j))
			if d > out || math.IsNaN(d) {
				out = d
			}
		}
	}

	return out, nil
}

// SplitScales splits a positive scale vector d into dmax = max(d, 1) and
// dmin = min(d, 1) so that d = dmax ⊙ dmin, with every dmax entry ≥ 1 and
// every dmin entry ≤ 1. Large and small scales can then be applied on the
// side where they do not amplify rounding errors.
// Complexity: O(n).
func SplitScales(d []float64) (dmax, dmin []float64) {
	dmax = make([]float64, len(d))
	dmin = make([]float64, len(d))
	for i, v := range d {
		if v > 1 {
			dmax[i], dmin[i] = v, 1
		} else {
			dmax[i], dmin[i] = 1, v
		}
	}

	return dmax, dmin
}

// Reciprocal returns 1/d element-wise.
func Reciprocal(d []float64) []float64 {
	out := make([]float64, len(d))
	for i, v := range d {
		out[i] = 1 / v
	}

	return out
}

// Inverse computes a⁻¹ through gonum's LU with partial pivoting.
// A finite mat.Condition warning is tolerated (the result is still computed);
// gonum reports an exactly singular input as Condition(+Inf), which, like a
// non-finite result, is reported as ErrSingular.
//
// Errors: ErrNilMatrix, ErrNonSquare, ErrSingular.
// Complexity: O(n³).
func Inverse(a mat.Matrix) (*mat.Dense, error) {
	if err := ValidateSquare(a); err != nil {
		return nil, matrixErrorf(opInverse, err)
	}
	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, matrixErrorf(opInverse, ErrSingular)
		}
	}
	if err := ValidateFinite(&inv); err != nil {
		return nil, matrixErrorf(opInverse, ErrSingular)
	}

	return &inv, nil
}
