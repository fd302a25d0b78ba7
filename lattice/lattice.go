// SPDX-License-Identifier: MIT

// Package lattice provides the periodic square lattice used by the
// reference model: site indexing, nearest-neighbour tables and the dense
// adjacency matrix from which the hopping matrix is built.
//
// Sites are numbered row-major, i = y·Lx + x. Boundaries are periodic in both
// directions; Ly = 1 gives a ring (chain with periodic ends).
package lattice

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ErrEmptyLattice indicates a lattice with no sites in some direction.
var ErrEmptyLattice = errors.New("lattice: Lx and Ly must be >= 1")

// ErrSiteIndex indicates a site index or coordinate out of range.
var ErrSiteIndex = errors.New("lattice: site out of range")

// Square is an Lx×Ly periodic square lattice with 4-connectivity.
// It is immutable once built.
type Square struct {
	Lx, Ly int

	neighborOffsets [][2]int
	neighbors       [][]int
}

// NewSquare builds the lattice and precomputes its neighbour table.
// Neighbour lists are de-duplicated and never contain the site itself, so a
// 2-site direction contributes one bond, not two.
// Complexity: O(Lx·Ly).
func NewSquare(lx, ly int) (*Square, error) {
	if lx < 1 || ly < 1 {
		return nil, ErrEmptyLattice
	}
	sq := &Square{
		Lx:              lx,
		Ly:              ly,
		neighborOffsets: [][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}},
	}
	n := lx * ly
	sq.neighbors = make([][]int, n)
	for i := 0; i < n; i++ {
		x, y := i%lx, i/lx
		seen := make(map[int]struct{}, 4)
		list := make([]int, 0, 4)
		for _, d := range sq.neighborOffsets {
			j := sq.index(mod(x+d[0], lx), mod(y+d[1], ly))
			if j == i {
				continue
			}
			if _, dup := seen[j]; dup {
				continue
			}
			seen[j] = struct{}{}
			list = append(list, j)
		}
		sq.neighbors[i] = list
	}

	return sq, nil
}

// SpaceSize returns the number of sites N = Lx·Ly.
func (s *Square) SpaceSize() int { return s.Lx * s.Ly }

// Index maps (x, y) to the row-major site index.
func (s *Square) Index(x, y int) (int, error) {
	if x < 0 || x >= s.Lx || y < 0 || y >= s.Ly {
		return 0, ErrSiteIndex
	}

	return s.index(x, y), nil
}

// Coords maps a site index back to (x, y).
func (s *Square) Coords(i int) (x, y int, err error) {
	if i < 0 || i >= s.SpaceSize() {
		return 0, 0, ErrSiteIndex
	}

	return i % s.Lx, i / s.Lx, nil
}

// Neighbors returns the nearest neighbours of site i.
// The returned slice is shared; callers must not modify it.
func (s *Square) Neighbors(i int) ([]int, error) {
	if i < 0 || i >= s.SpaceSize() {
		return nil, ErrSiteIndex
	}

	return s.neighbors[i], nil
}

// Adjacency returns the symmetric N×N nearest-neighbour matrix A with
// A[i,j] = 1 for every bond.
// Complexity: O(N²) memory.
func (s *Square) Adjacency() *mat.Dense {
	n := s.SpaceSize()
	a := mat.NewDense(n, n, nil)
	for i, list := range s.neighbors {
		for _, j := range list {
			a.Set(i, j, 1)
		}
	}

	return a
}

func (s *Square) index(x, y int) int { return y*s.Lx + x }

func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}

	return r
}
