// SPDX-License-Identifier: MIT

package stack_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/dqmc/matrix"
	"github.com/katalvlaran/dqmc/stack"
)

func TestEqualTime_IdentityTriples(t *testing.T) {
	l, err := stack.New(3, 1)
	require.NoError(t, err)
	r, err := stack.New(3, 1)
	require.NoError(t, err)

	gtt, gt0, g0t, err := stack.Displaced(l.Product(), r.Product())
	require.NoError(t, err)

	half := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		half.Set(i, i, 0.5)
	}
	requireClose(t, gtt, half, 1e-15)
	requireClose(t, gt0, half, 1e-15)
	half.Scale(-1, half)
	requireClose(t, g0t, half, 1e-15)
}

// With well-conditioned factors the stabilized assembly agrees with the
// textbook formulas evaluated densely.
func TestAssembly_MatchesDenseFormulas(t *testing.T) {
	const n = 4
	for _, d := range decompositions() {
		t.Run(d.String(), func(t *testing.T) {
			rng := rand.New(rand.NewSource(21))
			left, err := stack.New(n, 3, stack.WithDecomposition(d))
			require.NoError(t, err)
			right, err := stack.New(n, 3, stack.WithDecomposition(d))
			require.NoError(t, err)

			bl, _ := matrix.Identity(n)
			brT, _ := matrix.Identity(n)
			for i := 0; i < 3; i++ {
				f := randFactor(n, 0.3, rng)
				require.NoError(t, left.Push(f))
				var nl mat.Dense
				nl.Mul(f, bl)
				bl = &nl

				g := randFactor(n, 0.3, rng)
				require.NoError(t, right.Push(g))
				var nr mat.Dense
				nr.Mul(g, brT)
				brT = &nr
			}
			br := mat.DenseCopyOf(brT.T())

			// G = (I + BL·BR)⁻¹, G(t,0) = G·BL, G(0,t) = −BR·G
			var sum mat.Dense
			sum.Mul(bl, br)
			id, _ := matrix.Identity(n)
			sum.Add(&sum, id)
			want, err := matrix.Inverse(&sum)
			require.NoError(t, err)
			var wantT0, want0T mat.Dense
			wantT0.Mul(want, bl)
			want0T.Mul(br, want)
			want0T.Scale(-1, &want0T)

			gtt, gt0, g0t, err := stack.Displaced(left.Product(), right.Product())
			require.NoError(t, err)
			requireClose(t, gtt, want, 1e-10)
			requireClose(t, gt0, &wantT0, 1e-10)
			requireClose(t, g0t, &want0T, 1e-10)

			eq, err := stack.EqualTime(left.Product(), right.Product())
			require.NoError(t, err)
			assert.True(t, mat.Equal(eq, gtt))
		})
	}
}

// At t = 0 the left product is the identity and G(0,0)ᵗᵒ = G(0) − I.
func TestDisplaced_AtZero(t *testing.T) {
	const n = 3
	rng := rand.New(rand.NewSource(8))
	left, err := stack.New(n, 1)
	require.NoError(t, err)
	right, err := stack.New(n, 2)
	require.NoError(t, err)
	require.NoError(t, right.Push(randFactor(n, 0.4, rng)))
	require.NoError(t, right.Push(randFactor(n, 0.4, rng)))

	gtt, gt0, g0t, err := stack.Displaced(left.Product(), right.Product())
	require.NoError(t, err)
	requireClose(t, gt0, gtt, 1e-12)

	id, _ := matrix.Identity(n)
	var want mat.Dense
	want.Sub(gtt, id)
	requireClose(t, g0t, &want, 1e-12)
}

// Far beyond double-precision range the checkpoint value at t+1 equals the
// wrapped value f·G(t)·f⁻¹, and both decompositions agree.
func TestEqualTime_IllConditionedWrap(t *testing.T) {
	const n, k, spread = 4, 5, 12.0
	f := gradedFactor(n, spread, 9)
	finv, err := matrix.Inverse(f)
	require.NoError(t, err)

	results := make([]*mat.Dense, 0, 2)
	for _, d := range decompositions() {
		left, err := stack.New(n, k+1, stack.WithDecomposition(d))
		require.NoError(t, err)
		right, err := stack.New(n, k, stack.WithDecomposition(d))
		require.NoError(t, err)
		for i := 0; i < k; i++ {
			require.NoError(t, left.Push(f))
			require.NoError(t, right.Push(f.T()))
		}
		g, err := stack.EqualTime(left.Product(), right.Product())
		require.NoError(t, err)
		require.NoError(t, matrix.ValidateFinite(g))

		var fg, wrapped mat.Dense
		fg.Mul(f, g)
		wrapped.Mul(&fg, finv)

		require.NoError(t, left.Push(f))
		require.NoError(t, right.Pop())
		next, err := stack.EqualTime(left.Product(), right.Product())
		require.NoError(t, err)

		diff, err := matrix.MaxAbsDiff(next, &wrapped)
		require.NoError(t, err)
		assert.Less(t, diff, 1e-6, "decomposition %s", d)
		results = append(results, g)
	}
	requireClose(t, results[0], results[1], 1e-8)
}

func TestAssembly_DimensionMismatch(t *testing.T) {
	a, err := stack.New(2, 1)
	require.NoError(t, err)
	b, err := stack.New(3, 1)
	require.NoError(t, err)

	_, err = stack.EqualTime(a.Product(), b.Product())
	assert.ErrorIs(t, err, stack.ErrDimensionMismatch)
	_, _, _, err = stack.Displaced(stack.Triple{}, b.Product())
	assert.ErrorIs(t, err, stack.ErrDimensionMismatch)

	// a V of the wrong size is rejected before any scaling or product
	bad := a.Product()
	bad.V = mat.NewDense(3, 3, nil)
	_, err = stack.EqualTime(bad, a.Product())
	assert.ErrorIs(t, err, stack.ErrDimensionMismatch)
	_, _, _, err = stack.Displaced(a.Product(), bad)
	assert.ErrorIs(t, err, stack.ErrDimensionMismatch)
}
