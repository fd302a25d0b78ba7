// SPDX-License-Identifier: MIT

// Package matrix offers the dense numeric kernels used by the stabilized
// matrix-product stack and the walker.
//
// The matrix package provides:
//
//   - Sentinel errors and validators for shapes, nil operands and finiteness.
//   - In-place diagonal scalings (ScaleRows, ScaleCols) so diag(d) is never
//     materialized as an N×N matrix.
//   - SVD (gonum, full) and a column-pivoted Householder QR, the two
//     decompositions the stack can stabilize with.
//   - Inverse via LU with partial pivoting for well-conditioned inner blocks.
//
// Storage is gonum's row-major *mat.Dense; hot loops work on RawMatrix()
// buffers with explicit strides.
package matrix
