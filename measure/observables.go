// SPDX-License-Identifier: MIT

package measure

import (
	"gonum.org/v1/gonum/mat"
)

// Observable names.
const (
	FillingNumber   = "filling_number"
	DoubleOccupancy = "double_occupancy"
	KineticEnergy   = "kinetic_energy"
	LocalSpinCorr   = "local_spin_corr"
	GreensFunctions = "greens_functions"
	Sign            = "sign"
)

// equalTimeFunc evaluates an equal-time observable from G↑, G↓.
type equalTimeFunc func(h *Handler, up, dn mat.Matrix) float64

var equalTimeObservables = map[string]equalTimeFunc{
	FillingNumber:   fillingNumber,
	DoubleOccupancy: doubleOccupancy,
	KineticEnergy:   kineticEnergy,
	LocalSpinCorr:   localSpinCorr,
}

var dynamicObservables = map[string]struct{}{
	GreensFunctions: {},
}

func fillingNumber(h *Handler, up, dn mat.Matrix) float64 {
	var sum float64
	for i := 0; i < h.n; i++ {
		sum += 2 - up.At(i, i) - dn.At(i, i)
	}

	return sum / float64(h.n)
}

func doubleOccupancy(h *Handler, up, dn mat.Matrix) float64 {
	var sum float64
	for i := 0; i < h.n; i++ {
		sum += (1 - up.At(i, i)) * (1 - dn.At(i, i))
	}

	return sum / float64(h.n)
}

// kineticEnergy: ⟨c†_i c_j⟩ = δ_ij − G[j,i], so
// E = −t Σ_σ Σ_{i≠j} A_ij (−G_σ[j,i]) / N.
func kineticEnergy(h *Handler, up, dn mat.Matrix) float64 {
	var sum float64
	for i := 0; i < h.n; i++ {
		for _, j := range h.neighbors[i] {
			sum += up.At(j, i) + dn.At(j, i)
		}
	}

	return h.hopping * sum / float64(h.n)
}

func localSpinCorr(h *Handler, up, dn mat.Matrix) float64 {
	var sum, nu, nd float64
	for i := 0; i < h.n; i++ {
		nu, nd = 1-up.At(i, i), 1-dn.At(i, i)
		sum += nu + nd - 2*nu*nd
	}

	return sum / float64(h.n)
}

// greensTrace returns Σ_σ tr G_σ / 2N.
func greensTrace(n int, up, dn mat.Matrix) float64 {
	return (mat.Trace(up) + mat.Trace(dn)) / float64(2*n)
}
