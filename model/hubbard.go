// SPDX-License-Identifier: MIT

package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/dqmc/matrix"
)

// Operation name constants for error wrapping.
const (
	opNewHubbard   = "NewHubbard"
	opUpdateGreens = "UpdateGreens"
	opMult         = "Mult"
	opSetField     = "SetField"
)

// HubbardParams are the Hamiltonian couplings
//
//	H = −t Σ_<ij>σ (c†_jσ c_iσ + h.c.) + U Σ_i (n_i↑ − ½)(n_i↓ − ½) + μ Σ_iσ n_iσ
type HubbardParams struct {
	Hopping           float64 // t
	OnsiteU           float64 // U ≥ 0
	ChemicalPotential float64 // μ
}

// Hubbard is the repulsive Hubbard model with a discrete Ising
// Hubbard-Stratonovich field s(i,τ) = ±1:
//
//	B_τ^σ = diag(exp(σ·α·s(·,τ)))·exp(−Δτ·K),  K = −t·A + μ·I,
//	cosh(α) = exp(Δτ·U/2).
//
// The field is read concurrently by both spin channels during propagation and
// written only by FlipField, which the walker calls between propagations.
type Hubbard struct {
	params HubbardParams
	n      int
	slices int
	dtau   float64
	alpha  float64

	field   *mat.Dense // N×L, entries ±1
	expK    *mat.Dense // exp(−Δτ·K)
	expKInv *mat.Dense // exp(+Δτ·K)

	// scratch[spin] is the product buffer of one channel.
	scratch [2]*mat.Dense
}

// NewHubbard builds the model on a lattice for L = timeSize slices at inverse
// temperature beta and draws a uniformly random field from rng.
//
// Errors: ErrInvalidParams for nil lattice or rng, timeSize ≤ 0, beta ≤ 0,
// U < 0 or non-finite couplings.
// Complexity: O(N³) for the two matrix exponentials.
func NewHubbard(p HubbardParams, lat Geometry, timeSize int, beta float64, rng Rand) (*Hubbard, error) {
	if lat == nil || rng == nil {
		return nil, modelErrorf(opNewHubbard, ErrInvalidParams)
	}
	if timeSize <= 0 || !(beta > 0) || math.IsInf(beta, 0) {
		return nil, fmt.Errorf("%s: beta=%g L=%d: %w", opNewHubbard, beta, timeSize, ErrInvalidParams)
	}
	for _, v := range []float64{p.Hopping, p.OnsiteU, p.ChemicalPotential} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, modelErrorf(opNewHubbard, ErrInvalidParams)
		}
	}
	if p.OnsiteU < 0 {
		return nil, fmt.Errorf("%s: U=%g must be >= 0: %w", opNewHubbard, p.OnsiteU, ErrInvalidParams)
	}
	n := lat.SpaceSize()
	if n <= 0 {
		return nil, modelErrorf(opNewHubbard, ErrInvalidParams)
	}
	adj := lat.Adjacency()
	if err := matrix.ValidateSquareOfSize(adj, n); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", opNewHubbard, ErrInvalidParams, err)
	}

	dtau := beta / float64(timeSize)
	h := &Hubbard{
		params: p,
		n:      n,
		slices: timeSize,
		dtau:   dtau,
		alpha:  math.Acosh(math.Exp(0.5 * dtau * p.OnsiteU)),
		field:  mat.NewDense(n, timeSize, nil),
	}

	// K = −t·A + μ·I
	k := mat.NewDense(n, n, nil)
	k.Scale(-p.Hopping, adj)
	for i := 0; i < n; i++ {
		k.Set(i, i, k.At(i, i)+p.ChemicalPotential)
	}
	var scaled mat.Dense
	scaled.Scale(-dtau, k)
	h.expK = mat.NewDense(n, n, nil)
	h.expK.Exp(&scaled)
	scaled.Scale(dtau, k)
	h.expKInv = mat.NewDense(n, n, nil)
	h.expKInv.Exp(&scaled)

	for i := range h.scratch {
		h.scratch[i] = mat.NewDense(n, n, nil)
	}
	h.RandomizeField(rng)

	return h, nil
}

// SpaceSize returns N.
func (h *Hubbard) SpaceSize() int { return h.n }

// TimeSize returns L.
func (h *Hubbard) TimeSize() int { return h.slices }

// Alpha returns the HS coupling α.
func (h *Hubbard) Alpha() float64 { return h.alpha }

// Params returns the Hamiltonian couplings.
func (h *Hubbard) Params() HubbardParams { return h.params }

// Field returns a read-only N×L view of the auxiliary field.
func (h *Hubbard) Field() mat.Matrix { return h.field }

// RandomizeField draws every s(i,τ) uniformly from {−1, +1}.
func (h *Hubbard) RandomizeField(rng Rand) {
	for i := 0; i < h.n; i++ {
		for t := 0; t < h.slices; t++ {
			if rng.Float64() < 0.5 {
				h.field.Set(i, t, -1)
			} else {
				h.field.Set(i, t, 1)
			}
		}
	}
}

// SetField replaces the field with f (N×L, entries ±1).
// Errors: ErrDimensionMismatch, ErrInvalidParams for entries other than ±1.
func (h *Hubbard) SetField(f mat.Matrix) error {
	if f == nil {
		return modelErrorf(opSetField, ErrDimensionMismatch)
	}
	if r, c := f.Dims(); r != h.n || c != h.slices {
		return modelErrorf(opSetField, ErrDimensionMismatch)
	}
	for i := 0; i < h.n; i++ {
		for t := 0; t < h.slices; t++ {
			if v := f.At(i, t); v != 1 && v != -1 {
				return fmt.Errorf("%s: s(%d,%d)=%g: %w", opSetField, i, t, v, ErrInvalidParams)
			}
		}
	}
	h.field.Copy(f)

	return nil
}

// delta returns Δ_σ = exp(−2σα·s(i,τ)) − 1.
func (h *Hubbard) delta(site, slice int, spin Spin) float64 {
	return math.Exp(-2*spin.Sign()*h.alpha*h.field.At(site, slice)) - 1
}

// UpdateRatio returns r = r↑·r↓ with r_σ = 1 + Δ_σ·(1 − G_σ[i,i]).
// Out-of-range indices yield NaN so that the walker surfaces a contract error.
func (h *Hubbard) UpdateRatio(up, dn *mat.Dense, site, slice int) float64 {
	if !h.inRange(site, slice) {
		return math.NaN()
	}
	ru := 1 + h.delta(site, slice, SpinUp)*(1-up.At(site, site))
	rd := 1 + h.delta(site, slice, SpinDown)*(1-dn.At(site, site))

	return ru * rd
}

// UpdateGreens applies G' = G − (Δ/r)·G[:,i]·(e_i − G[i,:]) to both channels.
// The field must not yet be flipped.
//
// Errors: ErrSiteRange, ErrSliceRange, ErrDimensionMismatch.
// Complexity: O(N²).
func (h *Hubbard) UpdateGreens(up, dn *mat.Dense, site, slice int) error {
	if err := h.checkIndex(site, slice); err != nil {
		return modelErrorf(opUpdateGreens, err)
	}
	for _, g := range []*mat.Dense{up, dn} {
		if err := matrix.ValidateSquareOfSize(g, h.n); err != nil {
			return fmt.Errorf("%s: %w: %w", opUpdateGreens, ErrDimensionMismatch, err)
		}
	}
	for _, s := range Spins {
		g := up
		if s == SpinDown {
			g = dn
		}
		d := h.delta(site, slice, s)
		r := 1 + d*(1-g.At(site, site))
		rankOneUpdate(g, site, d/r)
	}

	return nil
}

// rankOneUpdate: G ← G − f·G[:,i]·(e_i − G[i,:]).
func rankOneUpdate(g *mat.Dense, i int, f float64) {
	n, _ := g.Dims()
	col := make([]float64, n)
	row := make([]float64, n)
	for k := 0; k < n; k++ {
		col[k] = g.At(k, i)
		row[k] = -g.At(i, k)
	}
	row[i]++
	raw := g.RawMatrix()
	var a, b, off int
	var c float64
	for a = 0; a < n; a++ {
		c = f * col[a]
		if c == 0 {
			continue
		}
		off = a * raw.Stride
		for b = 0; b < n; b++ {
			raw.Data[off+b] -= c * row[b]
		}
	}
}

// FlipField commits s(i,τ) ← −s(i,τ).
func (h *Hubbard) FlipField(site, slice int) {
	if !h.inRange(site, slice) {
		return
	}
	h.field.Set(site, slice, -h.field.At(site, slice))
}

// diagonal returns exp(sign·σ·α·s(·,τ)) as a fresh vector.
func (h *Hubbard) diagonal(slice int, spin Spin, sign float64) []float64 {
	v := make([]float64, h.n)
	for i := range v {
		v[i] = math.Exp(sign * spin.Sign() * h.alpha * h.field.At(i, slice))
	}

	return v
}

// MultBLeft: g ← diag(v)·exp(−ΔτK)·g.
func (h *Hubbard) MultBLeft(g *mat.Dense, slice int, spin Spin) error {
	if err := h.checkMult(g, slice, spin); err != nil {
		return err
	}
	tmp := h.scratch[spin]
	tmp.Mul(h.expK, g)
	g.Copy(tmp)

	return matrix.ScaleRows(g, h.diagonal(slice, spin, 1))
}

// MultBRight: g ← g·diag(v)·exp(−ΔτK).
func (h *Hubbard) MultBRight(g *mat.Dense, slice int, spin Spin) error {
	if err := h.checkMult(g, slice, spin); err != nil {
		return err
	}
	if err := matrix.ScaleCols(g, h.diagonal(slice, spin, 1)); err != nil {
		return err
	}
	tmp := h.scratch[spin]
	tmp.Mul(g, h.expK)
	g.Copy(tmp)

	return nil
}

// MultInvBLeft: g ← exp(+ΔτK)·diag(1/v)·g.
func (h *Hubbard) MultInvBLeft(g *mat.Dense, slice int, spin Spin) error {
	if err := h.checkMult(g, slice, spin); err != nil {
		return err
	}
	if err := matrix.ScaleRows(g, h.diagonal(slice, spin, -1)); err != nil {
		return err
	}
	tmp := h.scratch[spin]
	tmp.Mul(h.expKInv, g)
	g.Copy(tmp)

	return nil
}

// MultInvBRight: g ← g·exp(+ΔτK)·diag(1/v).
func (h *Hubbard) MultInvBRight(g *mat.Dense, slice int, spin Spin) error {
	if err := h.checkMult(g, slice, spin); err != nil {
		return err
	}
	tmp := h.scratch[spin]
	tmp.Mul(g, h.expKInv)
	g.Copy(tmp)

	return matrix.ScaleCols(g, h.diagonal(slice, spin, -1))
}

// MultTransBLeft: g ← exp(−ΔτK)ᵀ·diag(v)·g.
func (h *Hubbard) MultTransBLeft(g *mat.Dense, slice int, spin Spin) error {
	if err := h.checkMult(g, slice, spin); err != nil {
		return err
	}
	if err := matrix.ScaleRows(g, h.diagonal(slice, spin, 1)); err != nil {
		return err
	}
	tmp := h.scratch[spin]
	tmp.Mul(h.expK.T(), g)
	g.Copy(tmp)

	return nil
}

func (h *Hubbard) inRange(site, slice int) bool {
	return site >= 0 && site < h.n && slice >= 0 && slice < h.slices
}

func (h *Hubbard) checkIndex(site, slice int) error {
	if site < 0 || site >= h.n {
		return ErrSiteRange
	}
	if slice < 0 || slice >= h.slices {
		return ErrSliceRange
	}

	return nil
}

func (h *Hubbard) checkMult(g *mat.Dense, slice int, spin Spin) error {
	if slice < 0 || slice >= h.slices {
		return fmt.Errorf("%s(slice=%d): %w", opMult, slice, ErrSliceRange)
	}
	if spin != SpinUp && spin != SpinDown {
		return fmt.Errorf("%s: %v: %w", opMult, spin, ErrInvalidParams)
	}
	if err := matrix.ValidateSquareOfSize(g, h.n); err != nil {
		return fmt.Errorf("%s: %w: %w", opMult, ErrDimensionMismatch, err)
	}

	return nil
}
