// SPDX-License-Identifier: MIT

package matrix

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// NormZero is the additive identity for norm and accumulation operations.
const NormZero = 0.0

// ZeroSum is the initial sum value for reflector applications.
const ZeroSum = 0.0

// PivotedQR computes a Householder factorization with column pivoting such
// that A·P = Q·R.
// Implementation:
//   - Stage 1: Validate m (not nil, square, finite); copy A into a private
//     row-major buffer; init the reflector accumulator H to identity.
//   - Stage 2: For k=0..n-1, pick the remaining column with the largest
//     norm over rows k..n-1, swap it into position k, build a reflector for
//     it and apply the reflector to A (forming R) and to H.
//   - Stage 3: Q = Hᵀ (H·A·P = R), zero the strict lower triangle of R.
//
// Behavior highlights:
//   - Pivoting orders |R[k,k]| non-increasingly, so diag(R) carries the
//     graded scales of A the way singular values do, at QR cost.
//   - Column norms are recomputed at every step rather than downdated; this
//     costs O(n²) per step and never suffers cancellation.
//
// Inputs:
//   - m: square matrix (n×n).
//
// Returns:
//   - *mat.Dense: Q (orthogonal, n×n).
//   - *mat.Dense: R (upper triangular, n×n).
//   - []int: perm, A[:,perm[j]] = (Q·R)[:,j].
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrNaNInf, ErrDecompositionFailed when a
//     pivot column is exactly zero (rank-deficient input).
//
// Determinism:
//   - Fixed k→{i,j} visitation; ties in the pivot search pick the lowest index.
//
// Complexity:
//   - Time O(n³), Space O(n²).
func PivotedQR(m mat.Matrix) (*mat.Dense, *mat.Dense, []int, error) {
	if err := ValidateSquare(m); err != nil {
		return nil, nil, nil, matrixErrorf(opPivotedQR, err)
	}
	if err := ValidateFinite(m); err != nil {
		return nil, nil, nil, matrixErrorf(opPivotedQR, err)
	}
	n, _ := m.Dims()

	// Working copy A with stride n, and reflector accumulator H = I.
	Ad := mat.DenseCopyOf(m)
	a := Ad.RawMatrix().Data
	Hd, _ := Identity(n)
	h := Hd.RawMatrix().Data

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	v := make([]float64, n)
	var (
		i, j, k, p  int
		norm, best  float64
		beta, alpha float64
		tau, sum    float64
		aij         float64
	)
	for k = 0; k < n; k++ {
		// P.1: pivot = column j>=k with the largest trailing norm.
		p, best = k, -1
		for j = k; j < n; j++ {
			norm = NormZero
			for i = k; i < n; i++ {
				aij = a[i*n+j]
				norm += aij * aij
			}
			if norm > best {
				p, best = j, norm
			}
		}
		if p != k {
			for i = 0; i < n; i++ {
				a[i*n+k], a[i*n+p] = a[i*n+p], a[i*n+k]
			}
			perm[k], perm[p] = perm[p], perm[k]
		}
		norm = math.Sqrt(best)
		if norm == NormZero {
			return nil, nil, nil, matrixErrorf(opPivotedQR, ErrDecompositionFailed)
		}

		// P.2: alpha = -sign(A[k,k]) * norm
		alpha = -math.Copysign(norm, a[k*n+k])

		// P.3: Householder vector v (zero above k).
		for i = 0; i < k; i++ {
			v[i] = 0
		}
		for i = k; i < n; i++ {
			v[i] = a[i*n+k]
		}
		v[k] -= alpha

		// P.4: β = vᵀv and τ = 2/β
		beta = NormZero
		for i = k; i < n; i++ {
			beta += v[i] * v[i]
		}
		if beta == NormZero {
			// column already in reflected form
			continue
		}
		tau = 2.0 / beta

		// P.5: apply reflection to A (update R)
		for j = k; j < n; j++ {
			sum = ZeroSum
			for i = k; i < n; i++ {
				sum += v[i] * a[i*n+j]
			}
			for i = k; i < n; i++ {
				a[i*n+j] -= tau * v[i] * sum
			}
		}

		// P.6: apply reflection to H
		for j = 0; j < n; j++ {
			sum = ZeroSum
			for i = k; i < n; i++ {
				sum += v[i] * h[i*n+j]
			}
			for i = k; i < n; i++ {
				h[i*n+j] -= tau * v[i] * sum
			}
		}
	}

	// Clean the strict lower triangle: those entries are rounding residue.
	for i = 1; i < n; i++ {
		for j = 0; j < i; j++ {
			a[i*n+j] = 0
		}
	}
	for i = 0; i < n; i++ {
		aij = a[i*n+i]
		if aij == 0 || math.IsNaN(aij) || math.IsInf(aij, 0) {
			return nil, nil, nil, matrixErrorf(opPivotedQR, ErrDecompositionFailed)
		}
	}

	q := mat.DenseCopyOf(Hd.T())

	return q, Ad, perm, nil
}
