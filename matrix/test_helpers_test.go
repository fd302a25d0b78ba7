// SPDX-License-Identifier: MIT
// Package matrix_test contains test helpers
//
// Purpose:
//   • Provide small, deterministic test fixtures and utilities for kernels.
//   • Keep all data finite and well-formed to avoid numeric-policy interference.

package matrix_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// hide WRAPS a mat.Matrix to hide its concrete type from type assertions.
// Kernels that accept mat.Matrix must not depend on *mat.Dense.
type hide struct{ mat.Matrix }

// NewFilledDense BUILDS r×c *mat.Dense from a row-major flat slice.
// The slice is copied so fixtures can be reused across subtests.
func NewFilledDense(t testing.TB, r, c int, vals []float64) *mat.Dense {
	t.Helper()
	if len(vals) != r*c {
		t.Fatalf("NewFilledDense: want %d values, got %d", r*c, len(vals))
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)

	return mat.NewDense(r, c, cp)
}

// RandFilledDense RETURNS an r×c matrix with deterministic U(-1,1) entries.
func RandFilledDense(t testing.TB, r, c int, seed int64) *mat.Dense {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, r*c)
	for i := range data {
		data[i] = rng.Float64()*2 - 1
	}

	return mat.NewDense(r, c, data)
}

// GradedDense RETURNS Q1·diag(scales)·Q2 for random orthogonal Q1, Q2, an
// n×n matrix whose singular values are exactly the given scales.
func GradedDense(t testing.TB, scales []float64, seed int64) *mat.Dense {
	t.Helper()
	n := len(scales)
	var q1, q2 mat.QR
	q1.Factorize(RandFilledDense(t, n, n, seed))
	q2.Factorize(RandFilledDense(t, n, n, seed+1))
	var a, b mat.Dense
	q1.QTo(&a)
	q2.QTo(&b)
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, a.At(i, j)*scales[j])
		}
	}
	var res mat.Dense
	res.Mul(out, &b)

	return &res
}

// CompareClose ASSERTS |a-b| ≤ atol + rtol*|b| element-wise.
func CompareClose(t testing.TB, a, b mat.Matrix, rtol, atol float64) {
	t.Helper()
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		t.Fatalf("shape mismatch: %dx%d vs %dx%d", ar, ac, br, bc)
	}
	var av, bv float64
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			av, bv = a.At(i, j), b.At(i, j)
			if math.Abs(av-bv) > atol+rtol*math.Abs(bv) {
				t.Fatalf("mismatch at (%d,%d): got %.15g, want %.15g", i, j, av, bv)
			}
		}
	}
}

// AssertOrthogonal ASSERTS QᵀQ ≈ I within tol.
func AssertOrthogonal(t testing.TB, q mat.Matrix, tol float64) {
	t.Helper()
	n, _ := q.Dims()
	var qtq mat.Dense
	qtq.Mul(q.T(), q)
	id := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		id.Set(i, i, 1)
	}
	CompareClose(t, &qtq, id, 0, tol)
}

// AssertErrorIs ASSERTS errors.Is(err, target) with a readable failure.
func AssertErrorIs(t testing.TB, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("want error %v, got %v", target, err)
	}
}
