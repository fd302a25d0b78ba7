// SPDX-License-Identifier: MIT

package lattice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/dqmc/lattice"
)

func TestNewSquare_Errors(t *testing.T) {
	cases := []struct {
		name   string
		lx, ly int
	}{
		{"ZeroX", 0, 3},
		{"ZeroY", 3, 0},
		{"Negative", -1, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := lattice.NewSquare(tc.lx, tc.ly)
			assert.ErrorIs(t, err, lattice.ErrEmptyLattice)
		})
	}
}

func TestSquare_IndexCoords(t *testing.T) {
	sq, err := lattice.NewSquare(4, 3)
	require.NoError(t, err)
	assert.Equal(t, 12, sq.SpaceSize())

	for i := 0; i < sq.SpaceSize(); i++ {
		x, y, err := sq.Coords(i)
		require.NoError(t, err)
		j, err := sq.Index(x, y)
		require.NoError(t, err)
		assert.Equal(t, i, j)
	}
	_, err = sq.Index(4, 0)
	assert.ErrorIs(t, err, lattice.ErrSiteIndex)
	_, _, err = sq.Coords(12)
	assert.ErrorIs(t, err, lattice.ErrSiteIndex)
	_, err = sq.Neighbors(-1)
	assert.ErrorIs(t, err, lattice.ErrSiteIndex)
}

func TestSquare_NeighborsPeriodic(t *testing.T) {
	sq, err := lattice.NewSquare(4, 4)
	require.NoError(t, err)

	// corner (0,0): N=(0,3)=12, E=(1,0)=1, S=(0,1)=4, W=(3,0)=3
	nb, err := sq.Neighbors(0)
	require.NoError(t, err)
	assert.Equal(t, []int{12, 1, 4, 3}, nb)
}

func TestSquare_SmallDirectionsDeduplicate(t *testing.T) {
	cases := []struct {
		name   string
		lx, ly int
		deg    int
	}{
		{"Ring", 6, 1, 2},
		{"TwoSiteChain", 2, 1, 1},
		{"SingleSite", 1, 1, 0},
		{"TwoByTwo", 2, 2, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sq, err := lattice.NewSquare(tc.lx, tc.ly)
			require.NoError(t, err)
			for i := 0; i < sq.SpaceSize(); i++ {
				nb, err := sq.Neighbors(i)
				require.NoError(t, err)
				assert.Len(t, nb, tc.deg, "site %d", i)
				assert.NotContains(t, nb, i)
			}
		})
	}
}

func TestSquare_AdjacencySymmetric(t *testing.T) {
	sq, err := lattice.NewSquare(3, 2)
	require.NoError(t, err)
	a := sq.Adjacency()
	assert.True(t, mat.Equal(a, a.T()))

	n := sq.SpaceSize()
	for i := 0; i < n; i++ {
		assert.Zero(t, a.At(i, i))
		nb, _ := sq.Neighbors(i)
		row := 0.0
		for j := 0; j < n; j++ {
			row += a.At(i, j)
		}
		assert.Equal(t, float64(len(nb)), row)
	}
}
