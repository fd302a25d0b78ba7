// SPDX-License-Identifier: MIT

package measure

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/katalvlaran/dqmc/model"
	"github.com/katalvlaran/dqmc/walker"
)

const (
	opNewHandler   = "NewHandler"
	opEqualTime    = "MeasureEqualTime"
	opDynamic      = "MeasureDynamic"
	opBin          = "Bin"
	zeroSignWeight = 0.0
)

// Geometry is the lattice information observables need.
type Geometry interface {
	SpaceSize() int
	Adjacency() *mat.Dense
}

// accumulator collects Σ s·O for one observable within the open bin, and the
// finished bin values across the run.
type accumulator struct {
	sum  []float64
	bins [][]float64
}

func newAccumulator(width int) *accumulator {
	return &accumulator{sum: make([]float64, width)}
}

// Result is the binned estimate of one observable. Scalar observables have
// one component; greens_functions has one per time slice.
type Result struct {
	Name   string    `yaml:"name" json:"name"`
	Mean   []float64 `yaml:"mean" json:"mean"`
	StdErr []float64 `yaml:"stderr" json:"stderr"`
	Bins   int       `yaml:"bins" json:"bins"`
}

// Scalar returns the first component; convenient for equal-time observables.
func (r Result) Scalar() (mean, stderr float64) {
	if len(r.Mean) == 0 {
		return math.NaN(), math.NaN()
	}

	return r.Mean[0], r.StdErr[0]
}

// Handler accumulates sign-reweighted observables. It is not safe for
// concurrent use.
type Handler struct {
	n         int
	hopping   float64
	neighbors [][]int

	equalTime []string // sorted, excludes sign
	dynamic   []string // sorted

	acc map[string]*accumulator

	// open-bin sign bookkeeping, per measurement kind
	signSum    float64
	samples    int
	dynSignSum float64
	dynSamples int

	signBins []float64
}

// NewHandler builds a handler for the named observables on a lattice with
// the given hopping amplitude. Duplicate names are ignored; sign is always
// measured whether listed or not.
//
// Errors: ErrNilGeometry, ErrUnknownObservable.
func NewHandler(names []string, lat Geometry, hopping float64) (*Handler, error) {
	if lat == nil {
		return nil, fmt.Errorf("%s: %w", opNewHandler, ErrNilGeometry)
	}
	h := &Handler{
		n:       lat.SpaceSize(),
		hopping: hopping,
		acc:     make(map[string]*accumulator),
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] || name == Sign {
			continue
		}
		seen[name] = true
		switch {
		case equalTimeObservables[name] != nil:
			h.equalTime = append(h.equalTime, name)
		case isDynamic(name):
			h.dynamic = append(h.dynamic, name)
		default:
			return nil, fmt.Errorf("%s: %w: %q", opNewHandler, ErrUnknownObservable, name)
		}
	}
	sort.Strings(h.equalTime)
	sort.Strings(h.dynamic)

	adj := lat.Adjacency()
	h.neighbors = make([][]int, h.n)
	for i := 0; i < h.n; i++ {
		for j := 0; j < h.n; j++ {
			if i != j && adj.At(i, j) != 0 {
				h.neighbors[i] = append(h.neighbors[i], j)
			}
		}
	}
	for _, name := range h.equalTime {
		h.acc[name] = newAccumulator(1)
	}

	return h, nil
}

func isDynamic(name string) bool {
	_, ok := dynamicObservables[name]

	return ok
}

// IsEqualTime reports whether any equal-time observable is requested.
func (h *Handler) IsEqualTime() bool { return len(h.equalTime) > 0 }

// IsDynamic reports whether any time-displaced observable is requested.
func (h *Handler) IsDynamic() bool { return len(h.dynamic) > 0 }

// Names returns every measured observable, sign included.
func (h *Handler) Names() []string {
	out := make([]string, 0, len(h.equalTime)+len(h.dynamic)+1)
	out = append(out, h.equalTime...)
	out = append(out, h.dynamic...)

	return append(out, Sign)
}

// MeasureEqualTime samples the equal-time observables. With records, every
// recorded slice is one sample weighted by its sign; otherwise the walker's
// current G is used with the configuration sign.
//
// Errors: ErrDimensionMismatch.
func (h *Handler) MeasureEqualTime(r walker.Reader) error {
	if r.SpaceSize() != h.n {
		return fmt.Errorf("%s: %w: walker N=%d, lattice N=%d", opEqualTime, ErrDimensionMismatch, r.SpaceSize(), h.n)
	}
	ups, dns := r.RecordsTT(model.SpinUp), r.RecordsTT(model.SpinDown)
	if len(ups) == 0 {
		h.sampleEqualTime(r.GreenTT(model.SpinUp), r.GreenTT(model.SpinDown), r.ConfigSign())

		return nil
	}
	signs := r.RecordSigns()
	for t := range ups {
		h.sampleEqualTime(ups[t], dns[t], signs[t])
	}

	return nil
}

func (h *Handler) sampleEqualTime(up, dn mat.Matrix, sign float64) {
	for _, name := range h.equalTime {
		h.acc[name].sum[0] += sign * equalTimeObservables[name](h, up, dn)
	}
	h.signSum += sign
	h.samples++
}

// MeasureDynamic samples greens_functions from the time-displaced records of
// the last dynamic sweep: component τ is G(τ+1,0).
//
// Errors: ErrDimensionMismatch, ErrNotDynamic.
func (h *Handler) MeasureDynamic(r walker.Reader) error {
	if !h.IsDynamic() {
		return nil
	}
	if r.SpaceSize() != h.n {
		return fmt.Errorf("%s: %w: walker N=%d, lattice N=%d", opDynamic, ErrDimensionMismatch, r.SpaceSize(), h.n)
	}
	ups, dns := r.RecordsT0(model.SpinUp), r.RecordsT0(model.SpinDown)
	if len(ups) == 0 {
		return fmt.Errorf("%s: %w", opDynamic, ErrNotDynamic)
	}
	acc := h.acc[GreensFunctions]
	if acc == nil {
		acc = newAccumulator(len(ups))
		h.acc[GreensFunctions] = acc
	}
	if len(acc.sum) != len(ups) {
		return fmt.Errorf("%s: %w: %d slices, handler holds %d", opDynamic, ErrDimensionMismatch, len(ups), len(acc.sum))
	}
	sign := r.ConfigSign()
	for t := range ups {
		acc.sum[t] += sign * greensTrace(h.n, ups[t], dns[t])
	}
	h.dynSignSum += sign
	h.dynSamples++

	return nil
}

// Samples returns the number of equal-time samples in the open bin.
func (h *Handler) Samples() int { return h.samples }

// Bin closes the open bin: every observable's bin value is Σ(s·O)/Σ(s), and
// the sign's bin value is Σ(s)/count. Accumulators are reset afterwards.
//
// Errors: ErrEmptyBin when no equal-time or dynamic sample was taken, or when
// the signs of a kind cancel exactly.
func (h *Handler) Bin() error {
	if h.samples == 0 && h.dynSamples == 0 {
		return fmt.Errorf("%s: %w", opBin, ErrEmptyBin)
	}
	if (h.samples > 0 && h.signSum == zeroSignWeight) || (h.dynSamples > 0 && h.dynSignSum == zeroSignWeight) {
		h.resetOpen()

		return fmt.Errorf("%s: %w: sign average vanished", opBin, ErrEmptyBin)
	}
	for _, name := range h.equalTime {
		if h.samples > 0 {
			h.acc[name].close(h.signSum)
		}
	}
	for _, name := range h.dynamic {
		if acc := h.acc[name]; acc != nil && h.dynSamples > 0 {
			acc.close(h.dynSignSum)
		}
	}
	if h.samples > 0 {
		h.signBins = append(h.signBins, h.signSum/float64(h.samples))
	} else {
		h.signBins = append(h.signBins, h.dynSignSum/float64(h.dynSamples))
	}
	h.resetOpen()

	return nil
}

func (a *accumulator) close(weight float64) {
	bin := make([]float64, len(a.sum))
	for i, v := range a.sum {
		bin[i] = v / weight
		a.sum[i] = 0
	}
	a.bins = append(a.bins, bin)
}

func (h *Handler) resetOpen() {
	for _, acc := range h.acc {
		for i := range acc.sum {
			acc.sum[i] = 0
		}
	}
	h.signSum, h.samples = 0, 0
	h.dynSignSum, h.dynSamples = 0, 0
}

// BinCount returns the number of closed bins.
func (h *Handler) BinCount() int { return len(h.signBins) }

// Results returns mean and standard error across closed bins for every
// observable, in Names order. Observables without bins are omitted.
func (h *Handler) Results() []Result {
	out := make([]Result, 0, len(h.acc)+1)
	for _, name := range h.equalTime {
		if res, ok := h.acc[name].result(name); ok {
			out = append(out, res)
		}
	}
	for _, name := range h.dynamic {
		if acc := h.acc[name]; acc != nil {
			if res, ok := acc.result(name); ok {
				out = append(out, res)
			}
		}
	}
	if len(h.signBins) > 0 {
		m, e := meanStdErr(h.signBins)
		out = append(out, Result{Name: Sign, Mean: []float64{m}, StdErr: []float64{e}, Bins: len(h.signBins)})
	}

	return out
}

func (a *accumulator) result(name string) (Result, bool) {
	if len(a.bins) == 0 {
		return Result{}, false
	}
	width := len(a.bins[0])
	res := Result{Name: name, Mean: make([]float64, width), StdErr: make([]float64, width), Bins: len(a.bins)}
	column := make([]float64, len(a.bins))
	for c := 0; c < width; c++ {
		for b, bin := range a.bins {
			column[b] = bin[c]
		}
		res.Mean[c], res.StdErr[c] = meanStdErr(column)
	}

	return res, true
}

// meanStdErr returns the sample mean and its standard error s/√n, where s is
// the unbiased standard deviation; a single bin has zero error.
func meanStdErr(xs []float64) (mean, stderr float64) {
	if len(xs) < 2 {
		return stat.Mean(xs, nil), 0
	}
	mean, std := stat.MeanStdDev(xs, nil)

	return mean, std / math.Sqrt(float64(len(xs)))
}
