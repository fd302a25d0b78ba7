// SPDX-License-Identifier: MIT

// Package dqmc is a determinant quantum Monte Carlo engine: it samples
// auxiliary-field configurations of the Hubbard model while keeping the
// equal-time and time-displaced Green's functions numerically stable over
// long imaginary-time products.
//
// 🚀 What is inside?
//
//   - Stabilized products: matrix-product stacks kept as U·diag(D)·V (SVD or
//     column-pivoted QR), so scales spanning many decades never mix
//   - Green's functions: G(τ), G(τ,0) and G(0,τ) assembled with the
//     large/small scale split, never forming the raw product
//   - Sweeps: forward, backward and dynamic passes with wrapping between
//     checkpoints and wrap-error tracking at every checkpoint
//   - Model: Hubbard propagators with discrete Hubbard–Stratonovich fields,
//     Metropolis ratios and rank-one Green's updates
//   - Measurements: sign-reweighted binned observables
//
// ✨ Ambient stack
//
//   - gonum for dense linear algebra, x/sync errgroup for the two spin channels
//   - logrus logging, viper configuration, cobra CLI, Prometheus metrics
//
// Everything is organized under these subpackages:
//
//	matrix/     validators, scalings, SVD, pivoted QR, inverse
//	stack/      the stabilized product stack and Green's-function assembly
//	lattice/    periodic square lattices and their adjacency
//	model/      the Propagator contract and the Hubbard model
//	walker/     builder, sweeps, wraps, records, sign and acceptance
//	measure/    observables, binning, error bars
//	simulation/ warm-up and measurement schedule
//	config/, logging/, metrics/ ambient infrastructure
//	cmd/dqmc/   the command-line driver
//
// Time-slice conventions:
//
//	B(τ,0) = B_{τ−1}⋯B_0,   B(β,τ) = B_{L−1}⋯B_τ
//	G(τ)   = (I + B(τ,0)·B(β,τ))⁻¹
//
//	go install github.com/katalvlaran/dqmc/cmd/dqmc@latest
package dqmc
