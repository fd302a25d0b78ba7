// SPDX-License-Identifier: MIT

package walker_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/dqmc/lattice"
	"github.com/katalvlaran/dqmc/matrix"
	"github.com/katalvlaran/dqmc/model"
	"github.com/katalvlaran/dqmc/walker"
)

// stubProp is a diagonal propagator B_τ^σ = diag(diag[σ][τ]) (identity when
// diag is nil) with a scripted update ratio and a no-op Green's update.
type stubProp struct {
	n, l  int
	diag  [2][][]float64
	ratio func(site, slice int) float64

	last     float64
	accepted []float64
	flips    int
}

func newIdentityStub(n, l int, ratio float64) *stubProp {
	return &stubProp{n: n, l: l, ratio: func(int, int) float64 { return ratio }}
}

func (p *stubProp) SpaceSize() int { return p.n }

func (p *stubProp) UpdateRatio(_, _ *mat.Dense, site, slice int) float64 {
	p.last = p.ratio(site, slice)

	return p.last
}

func (p *stubProp) UpdateGreens(_, _ *mat.Dense, _, _ int) error {
	p.accepted = append(p.accepted, p.last)

	return nil
}

func (p *stubProp) FlipField(_, _ int) { p.flips++ }

func (p *stubProp) d(slice int, s model.Spin, inv bool) []float64 {
	out := make([]float64, p.n)
	for i := range out {
		out[i] = 1
		if p.diag[s] != nil {
			out[i] = p.diag[s][slice][i]
		}
		if inv {
			out[i] = 1 / out[i]
		}
	}

	return out
}

func (p *stubProp) MultBLeft(g *mat.Dense, slice int, s model.Spin) error {
	return matrix.ScaleRows(g, p.d(slice, s, false))
}

func (p *stubProp) MultBRight(g *mat.Dense, slice int, s model.Spin) error {
	return matrix.ScaleCols(g, p.d(slice, s, false))
}

func (p *stubProp) MultInvBLeft(g *mat.Dense, slice int, s model.Spin) error {
	return matrix.ScaleRows(g, p.d(slice, s, true))
}

func (p *stubProp) MultInvBRight(g *mat.Dense, slice int, s model.Spin) error {
	return matrix.ScaleCols(g, p.d(slice, s, true))
}

func (p *stubProp) MultTransBLeft(g *mat.Dense, slice int, s model.Spin) error {
	return p.MultBLeft(g, slice, s)
}

// constRand always returns v; 1.0 rejects every proposal.
type constRand float64

func (c constRand) Float64() float64 { return float64(c) }

type sizeOnly int

func (s sizeOnly) SpaceSize() int { return int(s) }

// recorder is a walker.Observer keeping every report.
type recorder struct{ reports []walker.SweepReport }

func (r *recorder) SweepDone(rep walker.SweepReport) { r.reports = append(r.reports, rep) }

func build(t testing.TB, m model.Propagator, lat walker.Lattice, beta float64, l, pace int, flags walker.MeasureFlags, opts ...walker.Option) *walker.Walker {
	t.Helper()
	b := walker.NewBuilder(opts...)
	require.NoError(t, b.SetPhysicalParams(beta, l))
	require.NoError(t, b.SetStabilizationPace(pace))
	w, err := b.Initial(m, lat, flags)
	require.NoError(t, err)

	return w
}

func newHubbard(t testing.TB, lx, ly, l int, beta, u float64, seed int64) (*model.Hubbard, *lattice.Square) {
	t.Helper()
	lat, err := lattice.NewSquare(lx, ly)
	require.NoError(t, err)
	h, err := model.NewHubbard(model.HubbardParams{Hopping: 1, OnsiteU: u}, lat, l, beta, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)

	return h, lat
}

func copyGreens(r walker.Reader) [2]*mat.Dense {
	return [2]*mat.Dense{
		mat.DenseCopyOf(r.GreenTT(model.SpinUp)),
		mat.DenseCopyOf(r.GreenTT(model.SpinDown)),
	}
}

func maxDiff(t testing.TB, a, b mat.Matrix) float64 {
	t.Helper()
	d, err := matrix.MaxAbsDiff(a, b)
	require.NoError(t, err)

	return d
}

func slicesOf(cps []walker.Checkpoint) []int {
	out := make([]int, len(cps))
	for i, c := range cps {
		out[i] = c.Slice
	}

	return out
}

func maxWrap(cps []walker.Checkpoint) float64 {
	m := 0.0
	for _, c := range cps {
		m = math.Max(m, c.WrapError)
	}

	return m
}
