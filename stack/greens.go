// SPDX-License-Identifier: MIT

package stack

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/dqmc/matrix"
)

// assembly holds the scale split and the inverted inner matrix shared by
// EqualTime and Displaced:
//
//	M = Dlmax⁻¹·(U_Lᵀ·U_R)·Drmax⁻¹ + Dlmin·(V_L·V_Rᵀ)·Drmin
//
// newAssembly validates every shape, so the ScaleRows and ScaleCols calls
// on n×n matrices with length-n scales that follow cannot fail.
type assembly struct {
	minv        *mat.Dense
	dlmaxInv    []float64
	dlmin       []float64
	drmaxInv    []float64
	drmin       []float64
	left, right Triple
}

func newAssembly(left, right Triple) (*assembly, error) {
	n := left.Dim()
	if n == 0 || right.Dim() != n {
		return nil, ErrDimensionMismatch
	}
	for _, m := range []mat.Matrix{left.U, left.V, right.U, right.V} {
		if err := matrix.ValidateSquareOfSize(m, n); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDimensionMismatch, err)
		}
	}
	dlmax, dlmin := matrix.SplitScales(left.D)
	drmax, drmin := matrix.SplitScales(right.D)
	a := &assembly{
		dlmaxInv: matrix.Reciprocal(dlmax),
		dlmin:    dlmin,
		drmaxInv: matrix.Reciprocal(drmax),
		drmin:    drmin,
		left:     left,
		right:    right,
	}

	// Stage 1: orthogonal overlap scaled by the large parts.
	m := mat.NewDense(n, n, nil)
	m.Mul(left.U.T(), right.U)
	_ = matrix.ScaleRows(m, a.dlmaxInv)
	_ = matrix.ScaleCols(m, a.drmaxInv)

	// Stage 2: conditioned overlap scaled by the small parts.
	w := mat.NewDense(n, n, nil)
	w.Mul(left.V, right.V.T())
	_ = matrix.ScaleRows(w, dlmin)
	_ = matrix.ScaleCols(w, drmin)
	m.Add(m, w)

	// Stage 3: every entry of M is O(1); invert with LU.
	minv, err := matrix.Inverse(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompositionFailed, err)
	}
	a.minv = minv

	return a, nil
}

// EqualTime assembles G(t) = (I + B(t,0)·B(β,t))⁻¹ from the left triple of
// B(t,0) and the right triple of B(β,t)ᵀ:
//
//	G(t) = U_R·Drmax⁻¹·M⁻¹·Dlmax⁻¹·U_Lᵀ
//
// Empty stacks contribute identity triples, so EqualTime(I, R) is G(0) and
// EqualTime(L, I) is G(β).
//
// Errors: ErrDimensionMismatch, ErrDecompositionFailed.
// Complexity: O(N³).
func EqualTime(left, right Triple) (*mat.Dense, error) {
	a, err := newAssembly(left, right)
	if err != nil {
		return nil, stackErrorf(opEqualTime, err)
	}

	return a.equalTime(), nil
}

// Displaced assembles the time-displaced pair
//
//	G(t,0) = U_R·Drmax⁻¹·M⁻¹·Dlmin·V_L
//	G(0,t) = −V_Rᵀ·Drmin·M⁻¹·Dlmax⁻¹·U_Lᵀ
//
// together with the equal-time G(t), from the same inverted inner matrix.
//
// Errors: ErrDimensionMismatch, ErrDecompositionFailed.
// Complexity: O(N³).
func Displaced(left, right Triple) (gtt, gt0, g0t *mat.Dense, err error) {
	a, err := newAssembly(left, right)
	if err != nil {
		return nil, nil, nil, stackErrorf(opDisplaced, err)
	}
	n := left.Dim()

	// G(t,0)
	x := mat.DenseCopyOf(a.minv)
	_ = matrix.ScaleRows(x, a.drmaxInv)
	_ = matrix.ScaleCols(x, a.dlmin)
	y := mat.NewDense(n, n, nil)
	y.Mul(x, a.left.V)
	gt0 = mat.NewDense(n, n, nil)
	gt0.Mul(a.right.U, y)

	// G(0,t)
	x = mat.DenseCopyOf(a.minv)
	_ = matrix.ScaleRows(x, a.drmin)
	_ = matrix.ScaleCols(x, a.dlmaxInv)
	y = mat.NewDense(n, n, nil)
	y.Mul(x, a.left.U.T())
	g0t = mat.NewDense(n, n, nil)
	g0t.Mul(a.right.V.T(), y)
	g0t.Scale(-1, g0t)

	return a.equalTime(), gt0, g0t, nil
}

func (a *assembly) equalTime() *mat.Dense {
	n := a.left.Dim()
	x := mat.DenseCopyOf(a.minv)
	_ = matrix.ScaleRows(x, a.drmaxInv)
	_ = matrix.ScaleCols(x, a.dlmaxInv)
	y := mat.NewDense(n, n, nil)
	y.Mul(x, a.left.U.T())
	g := mat.NewDense(n, n, nil)
	g.Mul(a.right.U, y)

	return g
}
