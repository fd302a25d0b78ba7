// SPDX-License-Identifier: MIT

package stack

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/dqmc/matrix"
)

// Stack is a stabilized running product of N×N factors.
// A Stack is not safe for concurrent use; the walker owns one per
// (direction, spin) and never shares it.
type Stack struct {
	n        int
	capacity int
	decomp   Decomposition

	// arena[k] is the triple after k+1 pushes; slots above size are stale.
	arena []Triple
	size  int

	identity Triple
}

// New creates an empty stack for n×n factors holding at most capacity pushes.
//
// Errors: ErrInvalidDimensions, ErrUnknownDecomposition.
// Complexity: O(n²).
func New(n, capacity int, opts ...Option) (*Stack, error) {
	if n <= 0 || capacity <= 0 {
		return nil, stackErrorf(opNew, ErrInvalidDimensions)
	}
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Decomposition != SVD && o.Decomposition != PivotedQR {
		return nil, stackErrorf(opNew, ErrUnknownDecomposition)
	}
	u, _ := matrix.Identity(n)
	v, _ := matrix.Identity(n)
	d := make([]float64, n)
	for i := range d {
		d[i] = 1
	}

	return &Stack{
		n:        n,
		capacity: capacity,
		decomp:   o.Decomposition,
		arena:    make([]Triple, capacity),
		identity: Triple{U: u, D: d, V: v},
	}, nil
}

// Dim returns N.
func (s *Stack) Dim() int { return s.n }

// Len returns the number of pushed factors.
func (s *Stack) Len() int { return s.size }

// Cap returns the maximum number of pushes.
func (s *Stack) Cap() int { return s.capacity }

// IsEmpty reports whether no factor is on the stack.
func (s *Stack) IsEmpty() bool { return s.size == 0 }

// Decomposition returns the stabilizing decomposition in use.
func (s *Stack) Decomposition() Decomposition { return s.decomp }

// Clear empties the stack. Arena storage is kept for reuse.
func (s *Stack) Clear() {
	for i := 0; i < s.size; i++ {
		s.arena[i] = Triple{}
	}
	s.size = 0
}

// Product returns the stabilized triple of the accumulated product,
// or the identity triple when the stack is empty.
// The returned matrices are read-only views owned by the stack.
// Complexity: O(1).
func (s *Stack) Product() Triple {
	if s.size == 0 {
		return s.identity
	}

	return s.arena[s.size-1]
}

// Push left-multiplies the accumulated product by factor:
// P ← factor·P, then re-stabilizes.
//
// Implementation:
//   - Stage 1: validate factor (n×n) and capacity.
//   - Stage 2: X = factor·U·diag(D); the old V is not touched.
//   - Stage 3: decompose X = U'·diag(D')·W and set V' = W·V.
//   - Stage 4: store (U', D', V') in the arena slot of this push.
//
// Errors: ErrDimensionMismatch, ErrStackFull, ErrDecompositionFailed.
// Complexity: O(n³).
func (s *Stack) Push(factor mat.Matrix) error {
	if err := matrix.ValidateSquareOfSize(factor, s.n); err != nil {
		return fmt.Errorf("%s: %w: %w", opPush, ErrDimensionMismatch, err)
	}
	if s.size == s.capacity {
		return stackErrorf(opPush, ErrStackFull)
	}
	cur := s.Product()

	x := mat.NewDense(s.n, s.n, nil)
	x.Mul(factor, cur.U)
	if err := matrix.ScaleCols(x, cur.D); err != nil {
		return stackErrorf(opPush, err)
	}

	var (
		next Triple
		err  error
	)
	switch s.decomp {
	case PivotedQR:
		next, err = decomposeQR(x, cur.V)
	default:
		next, err = decomposeSVD(x, cur.V)
	}
	if err != nil {
		return fmt.Errorf("%s: %w: %w", opPush, ErrDecompositionFailed, err)
	}
	s.arena[s.size] = next
	s.size++

	return nil
}

// Pop removes the most recent factor and restores the previous triple exactly.
//
// Errors: ErrEmptyStack.
// Complexity: O(1).
func (s *Stack) Pop() error {
	if s.size == 0 {
		return stackErrorf(opPop, ErrEmptyStack)
	}
	s.size--
	s.arena[s.size] = Triple{}

	return nil
}

// decomposeSVD: x = U'·diag(s)·Wᵀ, V' = Wᵀ·v.
func decomposeSVD(x *mat.Dense, v *mat.Dense) (Triple, error) {
	u, d, wt, err := matrix.SVD(x)
	if err != nil {
		return Triple{}, err
	}
	nv := mat.NewDense(len(d), len(d), nil)
	nv.Mul(wt, v)

	return Triple{U: u, D: d, V: nv}, nil
}

// decomposeQR: x·P = Q·R, D' = |diag R|, T = D'⁻¹·R·Pᵀ, V' = T·v.
func decomposeQR(x *mat.Dense, v *mat.Dense) (Triple, error) {
	q, r, perm, err := matrix.PivotedQR(x)
	if err != nil {
		return Triple{}, err
	}
	n := len(perm)
	d := make([]float64, n)
	for i := 0; i < n; i++ {
		d[i] = math.Abs(r.At(i, i))
	}
	t := mat.NewDense(n, n, nil)
	var i, j int
	for i = 0; i < n; i++ {
		for j = i; j < n; j++ {
			t.Set(i, perm[j], r.At(i, j)/d[i])
		}
	}
	nv := mat.NewDense(n, n, nil)
	nv.Mul(t, v)
	if err = matrix.ValidateFinite(nv); err != nil {
		return Triple{}, errors.Join(matrix.ErrDecompositionFailed, err)
	}

	return Triple{U: q, D: d, V: nv}, nil
}
