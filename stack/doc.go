// SPDX-License-Identifier: MIT

// Package stack implements the stabilized matrix-product stack and the
// stabilized assembly of equal-time and time-displaced Green's functions.
//
// A Stack represents a running product P = A_k ··· A_2·A_1 of N×N factors as a
// triple (U, D, V) with P = U·diag(D)·V, where U is orthogonal, D is a positive
// scale vector and V is well conditioned (orthogonal under SVD). Each Push
// re-factorizes A·U·diag(D), so the magnitude range of the product, which can
// span dozens of orders of magnitude, lives entirely in D and never pollutes
// the orthogonal factors.
//
// Decompositions:
//
//   - SVD (default): gonum full SVD; V is orthogonal.
//   - PivotedQR: column-pivoted Householder QR; cheaper, V is upper
//     triangular up to a permutation with unit-magnitude diagonal.
//
// History:
//
//	Every Push stores its triple in an arena indexed by push order, so Pop is
//	exact (the previous triple is restored bit for bit). No incremental
//	"undo" arithmetic is ever done on a triple.
//
// Assembly:
//
//	EqualTime and Displaced combine a left triple (for B(t,0)) and a right
//	triple (for B(β,t)ᵀ) into G(t), G(t,0) and G(0,t) using the max/min scale
//	split, so the inverted inner matrix is always well conditioned.
//
// Complexity:
//
//	Push O(N³); Pop, Product, Len O(1); assembly O(N³).
package stack
