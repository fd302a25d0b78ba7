// SPDX-License-Identifier: MIT

// Package model defines the propagator contract the walker consumes and a
// reference implementation for the repulsive Hubbard model.
//
// The walker never sees a propagator B_τ^σ as a matrix. Everything it needs
// goes through Propagator: in-place applications of B, B⁻¹ and Bᵀ from either
// side, the local update ratio of a field flip, the rank-one Green's-function
// update that follows an accepted flip, and the flip itself.
package model

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Spin labels a spin channel.
type Spin int

const (
	// SpinUp is the σ = +1 channel.
	SpinUp Spin = iota
	// SpinDown is the σ = −1 channel.
	SpinDown
)

// Spins lists both channels in walker order.
var Spins = [2]Spin{SpinUp, SpinDown}

// Sign returns σ = ±1.
func (s Spin) Sign() float64 {
	if s == SpinDown {
		return -1
	}

	return 1
}

func (s Spin) String() string {
	switch s {
	case SpinUp:
		return "up"
	case SpinDown:
		return "down"
	default:
		return fmt.Sprintf("Spin(%d)", int(s))
	}
}

// Sentinel errors for model operations.
var (
	// ErrInvalidParams indicates non-physical construction parameters.
	ErrInvalidParams = errors.New("model: invalid parameters")

	// ErrSliceRange indicates a time slice outside [0, L).
	ErrSliceRange = errors.New("model: time slice out of range")

	// ErrSiteRange indicates a site outside [0, N).
	ErrSiteRange = errors.New("model: site out of range")

	// ErrDimensionMismatch indicates a Green's function that is not N×N.
	ErrDimensionMismatch = errors.New("model: dimension mismatch")
)

// Propagator is the capability a model offers the walker.
//
// Applications are in place on an N×N *mat.Dense. Calls for different spin
// channels may run concurrently; calls for the same channel never do.
// UpdateGreens is called with the field still in its pre-flip state, then
// FlipField commits the flip.
type Propagator interface {
	// SpaceSize returns N, the number of sites.
	SpaceSize() int

	// UpdateRatio returns the determinant ratio of flipping the field at
	// (site, slice), given the equal-time Green's functions whose left
	// product ends with B_slice.
	UpdateRatio(up, dn *mat.Dense, site, slice int) float64

	// UpdateGreens applies the rank-one update of an accepted flip.
	UpdateGreens(up, dn *mat.Dense, site, slice int) error

	// FlipField commits the flip at (site, slice).
	FlipField(site, slice int)

	MultBLeft(g *mat.Dense, slice int, spin Spin) error      // g ← B·g
	MultBRight(g *mat.Dense, slice int, spin Spin) error     // g ← g·B
	MultInvBLeft(g *mat.Dense, slice int, spin Spin) error   // g ← B⁻¹·g
	MultInvBRight(g *mat.Dense, slice int, spin Spin) error  // g ← g·B⁻¹
	MultTransBLeft(g *mat.Dense, slice int, spin Spin) error // g ← Bᵀ·g
}

// Rand is the random source used to initialize the auxiliary field.
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Geometry is the lattice information a model needs.
type Geometry interface {
	SpaceSize() int
	Adjacency() *mat.Dense
}

func modelErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}
