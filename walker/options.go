// SPDX-License-Identifier: MIT

package walker

import (
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/katalvlaran/dqmc/logging"
	"github.com/katalvlaran/dqmc/stack"
)

// Rand is the acceptance random source; Float64 returns a value in [0, 1).
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// DefaultSeed seeds the acceptance source when neither WithRand nor WithSeed
// is given.
const DefaultSeed int64 = 1

// Options configures a walker built by a Builder.
//
// Logger        – entry used for checkpoint (Debug) and drift (Warn) logs.
// Rand          – acceptance source for Metropolis decisions.
// SignedRatios  – accept negative ratios with |r| and track their sign.
// DriftBound    – wrap errors above it are logged and counted; 0 disables.
// Observer      – notified after every completed sweep.
// Decomposition – stabilizing decomposition of the four stacks.
type Options struct {
	Logger        *logrus.Entry
	Rand          Rand
	SignedRatios  bool
	DriftBound    float64
	Observer      Observer
	Decomposition stack.Decomposition
}

// Option represents a functional option for NewBuilder.
type Option func(*Options)

// DefaultOptions returns a discard logger, a DefaultSeed source, strict
// ratios, no drift bound, no observer and SVD stabilization.
func DefaultOptions() Options {
	return Options{
		Logger:        logging.Discard(),
		Rand:          rand.New(rand.NewSource(DefaultSeed)),
		Decomposition: stack.SVD,
	}
}

// WithLogger sets the log entry. A nil entry is ignored.
func WithLogger(e *logrus.Entry) Option {
	return func(o *Options) {
		if e != nil {
			o.Logger = e
		}
	}
}

// WithRand sets the acceptance source. A nil source is ignored.
func WithRand(r Rand) Option {
	return func(o *Options) {
		if r != nil {
			o.Rand = r
		}
	}
}

// WithSeed uses a math/rand source seeded with seed.
func WithSeed(seed int64) Option {
	return func(o *Options) {
		o.Rand = rand.New(rand.NewSource(seed))
	}
}

// WithSignedRatios enables sign-problem mode: a negative ratio r is accepted
// with probability min(1, |r|) and the configuration sign picks up sign(r).
func WithSignedRatios() Option {
	return func(o *Options) {
		o.SignedRatios = true
	}
}

// WithDriftBound sets the wrap-error level above which a checkpoint counts as
// a drift event. Drift is never fatal.
func WithDriftBound(tol float64) Option {
	return func(o *Options) {
		o.DriftBound = tol
	}
}

// WithObserver registers a sweep observer.
func WithObserver(obs Observer) Option {
	return func(o *Options) {
		o.Observer = obs
	}
}

// WithDecomposition selects the stack decomposition.
func WithDecomposition(d stack.Decomposition) Option {
	return func(o *Options) {
		o.Decomposition = d
	}
}
