// SPDX-License-Identifier: MIT

package walker

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/dqmc/model"
)

// State is the sweep state machine.
type State int

const (
	// Idle: no sweep in progress; sweeps and wraps may start.
	Idle State = iota
	// SweepingForward: inside SweepForward.
	SweepingForward
	// SweepingBackward: inside SweepBackward.
	SweepingBackward
	// SweepingDynamic: inside SweepDynamic.
	SweepingDynamic
)

// String returns the lower-case hyphenated state name.

func (s State) String() string {
	switch s {
	case SweepingForward:
		return "sweeping-forward"
	case SweepingBackward:
		return "sweeping-backward"
	case SweepingDynamic:
		return "sweeping-dynamic"
	default:
		return "idle"
	}
}

// Position tells which end of the time axis the walker rests at.
type Position int

const (
	// AtZero: current slice 0, left stacks empty, right stacks full.
	AtZero Position = iota
	// AtBeta: current slice L, left stacks full, right stacks empty.
	AtBeta
	// Between: moved off an end by a single-step wrap primitive.
	Between
)

// String returns "at-zero", "at-beta" or "between".
func (p Position) String() string {
	switch p {
	case AtZero:
		return "at-zero"
	case AtBeta:
		return "at-beta"
	default:
		return "between"
	}
}

// Direction labels a completed sweep.
type Direction string

const (
	Forward  Direction = "forward"  // SweepForward, 0 → L
	Backward Direction = "backward" // SweepBackward, L → 0
	Dynamic  Direction = "dynamic"  // SweepDynamic, 0 → L with the field frozen
)

// Lattice is the geometry information the walker checks against the model.
type Lattice interface {
	SpaceSize() int
}

// MeasureFlags selects which Green's-function records the walker keeps.
// The measurement handler implements it.
type MeasureFlags interface {
	IsEqualTime() bool
	IsDynamic() bool
}

// Flags is a plain MeasureFlags value.
type Flags struct {
	EqualTime bool
	Dynamic   bool
}

// IsEqualTime reports f.EqualTime.
func (f Flags) IsEqualTime() bool { return f.EqualTime }

// IsDynamic reports f.Dynamic.
func (f Flags) IsDynamic() bool { return f.Dynamic }

// Checkpoint is one stabilization checkpoint of a sweep.
type Checkpoint struct {
	Slice     int     // time t of the recomputed G(t)
	WrapError float64 // max-abs discrepancy, both spins
}

// Acceptance counts Metropolis proposals.
type Acceptance struct {
	Proposals int64
	Accepted  int64
}

// Rate returns Accepted/Proposals, 0 without proposals.
func (a Acceptance) Rate() float64 {
	if a.Proposals == 0 {
		return 0
	}

	return float64(a.Accepted) / float64(a.Proposals)
}

// SweepReport summarizes one completed sweep.
type SweepReport struct {
	Direction   Direction
	WrapError   float64
	Checkpoints int
	DriftEvents int
	Acceptance  Acceptance // this sweep only
	ConfigSign  float64
	Duration    time.Duration
}

// Observer is notified after every completed sweep. It runs on the sweeping
// goroutine and must not call back into the walker.
type Observer interface {
	SweepDone(SweepReport)
}

// Reader is the read-only view measurement code gets. Matrices are live
// read-only views over walker storage, valid until the next sweep or wrap;
// copy them (mat.DenseCopyOf) to keep a value.
type Reader interface {
	GreenTT(s model.Spin) mat.Matrix
	GreenT0(s model.Spin) mat.Matrix
	Green0T(s model.Spin) mat.Matrix
	RecordsTT(s model.Spin) []mat.Matrix
	RecordsT0(s model.Spin) []mat.Matrix
	Records0T(s model.Spin) []mat.Matrix
	RecordSigns() []float64
	WrapError() float64
	CheckpointErrors() []Checkpoint
	ConfigSign() float64
	TimeSliceNum() int
	Beta() float64
	TimeInterval() float64
	StabilizationPace() int
	SpaceSize() int
	CurrentSlice() int
	Acceptance() Acceptance
}

// Handle is what ordinary callers hold: sweeps, single-step wraps and reads.
// Construction and reset are reserved to Builder.
type Handle interface {
	Reader
	SweepForward(m model.Propagator) error
	SweepBackward(m model.Propagator) error
	SweepDynamic(m model.Propagator) error
	WrapFromZeroToBeta(m model.Propagator, t int) error
	WrapFromBetaToZero(m model.Propagator, t int) error
	State() State
	Position() Position
}
