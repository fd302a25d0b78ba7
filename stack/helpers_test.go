// SPDX-License-Identifier: MIT

package stack_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/dqmc/stack"
)

// randFactor RETURNS I + scale·X with X uniform in (-1,1); well conditioned
// for small scale.
func randFactor(n int, scale float64, rng *rand.Rand) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, scale*(rng.Float64()*2-1))
		}
		m.Set(i, i, m.At(i, i)+1)
	}

	return m
}

// gradedFactor RETURNS Q·diag(e^{g_i})·Qᵀ for a fixed random orthogonal Q,
// the shape of a propagator with a large spread of scales.
func gradedFactor(n int, spread float64, seed int64) *mat.Dense {
	rng := rand.New(rand.NewSource(seed))
	var qr mat.QR
	qr.Factorize(randFactor(n, 1, rng))
	var q mat.Dense
	qr.QTo(&q)
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		d.Set(i, i, math.Exp(spread*(float64(i)/float64(n-1)-0.5)))
	}
	var qd, out mat.Dense
	qd.Mul(&q, d)
	out.Mul(&qd, q.T())

	return &out
}

// dense MULTIPLIES a triple out; tests only.
func dense(tr stack.Triple) *mat.Dense {
	n := tr.Dim()
	ud := mat.DenseCopyOf(tr.U)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			ud.Set(i, j, ud.At(i, j)*tr.D[j])
		}
	}
	out := mat.NewDense(n, n, nil)
	out.Mul(ud, tr.V)

	return out
}

// snapshot COPIES a triple so later pushes cannot alias it.
func snapshot(tr stack.Triple) stack.Triple {
	d := make([]float64, len(tr.D))
	copy(d, tr.D)

	return stack.Triple{U: mat.DenseCopyOf(tr.U), D: d, V: mat.DenseCopyOf(tr.V)}
}

// requireClose ASSERTS |a-b| ≤ tol·max(1, max|b|) element-wise.
func requireClose(t testing.TB, a, b mat.Matrix, tol float64) {
	t.Helper()
	scale := math.Max(1, mat.Norm(b, math.Inf(1)))
	require.True(t, mat.EqualApprox(a, b, tol*scale),
		"matrices differ:\n%v\n%v", mat.Formatted(a), mat.Formatted(b))
}

func logOf(x float64) float64 { return math.Log(x) }

func decompositions() []stack.Decomposition {
	return []stack.Decomposition{stack.SVD, stack.PivotedQR}
}
