// SPDX-License-Identifier: MIT

// Package measure consumes the walker's Green's functions read-only and
// accumulates sign-reweighted observables into bins.
//
// A Handler is built from a list of observable names. It classifies them into
// equal-time and dynamic ones; IsEqualTime and IsDynamic are the flags the
// walker builder uses to decide which records to keep.
//
// Supported observables (per site, G = ⟨c c†⟩, n_iσ = 1 − G_σ[i,i]):
//
//	filling_number    ⟨n↑ + n↓⟩
//	double_occupancy  ⟨n↑·n↓⟩
//	kinetic_energy    −t Σ_<ij>σ ⟨c†_iσ c_jσ + h.c.⟩ / N
//	local_spin_corr   ⟨(n↑ − n↓)²⟩
//	greens_functions  G(τ,0) averaged over sites and spins, per τ (dynamic)
//	sign              always measured
//
// Every sample carries the configuration sign s. A bin stores ⟨s·O⟩/⟨s⟩;
// Results reports mean and standard error across bins.
package measure
