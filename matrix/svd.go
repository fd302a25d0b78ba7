// SPDX-License-Identifier: MIT

package matrix

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// SVD computes the full singular value decomposition a = U·diag(s)·Vᵀ.
// Implementation:
//   - Stage 1: Validate a (not nil, square, finite).
//   - Stage 2: Factorize with gonum mat.SVD (mat.SVDFull).
//   - Stage 3: Extract U, s (descending) and Vᵀ; reject zero or non-finite s.
//
// Behavior highlights:
//   - U and Vᵀ are orthogonal; the magnitude range of a lives entirely in s.
//   - An exactly rank-deficient input is a failure, not a silent truncation:
//     the stack divides by s later on.
//
// Inputs:
//   - a: square matrix (n×n).
//
// Returns:
//   - *mat.Dense: U (n×n, orthogonal).
//   - []float64: s, singular values in non-increasing order, all > 0.
//   - *mat.Dense: Vᵀ (n×n, orthogonal).
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrNaNInf (input), ErrDecompositionFailed.
//
// Complexity:
//   - Time O(n³), Space O(n²).
func SVD(a mat.Matrix) (*mat.Dense, []float64, *mat.Dense, error) {
	if err := ValidateSquare(a); err != nil {
		return nil, nil, nil, matrixErrorf(opSVD, err)
	}
	if err := ValidateFinite(a); err != nil {
		return nil, nil, nil, matrixErrorf(opSVD, err)
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return nil, nil, nil, matrixErrorf(opSVD, ErrDecompositionFailed)
	}
	s := svd.Values(nil)
	for _, v := range s {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil, nil, matrixErrorf(opSVD, ErrDecompositionFailed)
		}
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	vt := mat.DenseCopyOf(v.T())

	return &u, s, vt, nil
}
