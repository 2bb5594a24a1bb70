package asa

import (
	"context"
	"time"

	"golang.org/x/exp/constraints"
)

// State tells the caller what it must do next. It is the only externally
// visible indicator of progress through the annealing protocol.
type State int

const (
	// StateUninitialized is the zero value: the annealer was not built with New.
	StateUninitialized State = iota

	// StateNeedsInit means tunables may still be changed with Configure, and
	// Init must be called before anything else.
	StateNeedsInit

	// StateNeedsStep is transient inside Step, after a reanneal completes.
	// Callers never observe it between calls.
	StateNeedsStep

	// StateNeedsObjective means the caller must evaluate the objective at
	// Candidate, hand the value to SetObjective and call Step.
	StateNeedsObjective

	// StateNeedsObjectiveSet means the caller must evaluate the objective at
	// every point of CandidateSet, hand each value to SetSetObjective, and do
	// the same for the pending Candidate with SetObjective, then call Step.
	// The evaluations are independent and may run in parallel.
	StateNeedsObjectiveSet

	// StateDone means the search finished. Best holds the result.
	StateDone
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateNeedsInit:
		return "NeedsInit"
	case StateNeedsStep:
		return "NeedsStep"
	case StateNeedsObjective:
		return "NeedsObjective"
	case StateNeedsObjectiveSet:
		return "NeedsObjectiveSet"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Direction selects whether the objective is minimized or maximized.
type Direction int

const (
	// Minimize descends to the smallest objective value ("downhill"). This is
	// the zero value.
	Minimize Direction = iota

	// Maximize ascends to the largest objective value.
	Maximize
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == Maximize {
		return "maximize"
	}

	return "minimize"
}

// Downhill reports whether the search descends.
func (d Direction) Downhill() bool {
	return d != Maximize
}

// ParameterRange defines the closed interval searched along one dimension.
//
// Type Parameter:
//   - T: The floating point type of the search space (float32 or float64)
//
// Fields:
// - Min: The smallest allowed value (inclusive)
// - Max: The largest allowed value (inclusive)
//
// Usage:
//
//	// A learning rate searched between 0.0001 and 0.1
//	learningRate := ParameterRange[float64]{Min: 0.0001, Max: 0.1}
//
// Validation:
// - Min must be less than or equal to Max
// - Both ends must be finite
type ParameterRange[T constraints.Float] struct {
	// Min is the lower bound (inclusive).
	Min T `json:"min" yaml:"min"`

	// Max is the upper bound (inclusive).
	Max T `json:"max" yaml:"max"`
}

// Width returns Max - Min.
func (r ParameterRange[T]) Width() T {
	return r.Max - r.Min
}

// Mid returns the midpoint of the range.
func (r ParameterRange[T]) Mid() T {
	return (r.Max + r.Min) / 2
}

// Sample is one accepted point and its objective value.
type Sample[T constraints.Float] struct {
	// X is the accepted parameter vector.
	X []T

	// F is the objective value at X.
	F T
}

// Stats holds the running counters of an annealer.
//
// Improved, Worse, WorseAccepted, Accepted and KSinceReanneal are reset each
// time a reanneal completes. The other counters are never reset.
type Stats struct {
	// Improved counts candidates better than the current point.
	Improved int

	// Worse counts candidates not better than the current point.
	Worse int

	// WorseAccepted counts worse candidates that were accepted anyway.
	WorseAccepted int

	// Accepted counts accepted candidates since the last reanneal.
	Accepted int

	// TotalAccepted counts every accepted candidate over the whole run. It is
	// the step index of the acceptance temperature schedule.
	TotalAccepted int

	// Steps counts calls to Step that got past the precondition checks.
	Steps int

	// K is the step index of the generation temperature schedule. Reannealing
	// rewrites it.
	K int

	// KSinceReanneal counts steps since the last reanneal.
	KSinceReanneal int

	// BestRepeats counts accepted points whose objective tied the best.
	BestRepeats int

	// Reanneals counts how many reanneal sample sets were requested.
	Reanneals int

	// Evaluations counts objective values requested from the caller.
	Evaluations int
}

// ObjectiveFunc evaluates the objective at x. Optimize calls it; the
// annealer itself never evaluates anything.
//
// The function must not retain or modify x. When Optimize evaluates a
// reanneal sample set it calls the function concurrently, so it must be safe
// for concurrent use.
//
// Usage example:
//
//	sphere := ObjectiveFunc[float64](func(_ context.Context, x []float64) (float64, error) {
//	    var sum float64
//	    for _, v := range x {
//	        sum += v * v
//	    }
//	    return sum, nil
//	})
type ObjectiveFunc[T constraints.Float] func(ctx context.Context, x []T) (T, error)

// Status tells how an Optimize run ended.
type Status int

const (
	// StatusConverged means the annealer reached StateDone.
	StatusConverged Status = iota

	// StatusBudgetExhausted means Config.MaxSteps was reached first.
	StatusBudgetExhausted

	// StatusCanceled means the context was canceled first.
	StatusCanceled

	// StatusFailed means the objective or the annealer returned an error.
	StatusFailed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusBudgetExhausted:
		return "budget_exhausted"
	case StatusCanceled:
		return "canceled"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ProgressUpdate represents the state of an Optimize run after one step.
type ProgressUpdate[T constraints.Float] struct {
	// RunID identifies the run.
	RunID string

	// State is the annealer state after the step.
	State State

	// Step is the number of steps taken so far.
	Step int

	// Current is the currently accepted point.
	Current []T

	// CurrentObjective is the objective value at Current.
	CurrentObjective T

	// Best is the best point found so far.
	Best []T

	// BestObjective is the objective value at Best.
	BestObjective T

	// MeanTemperature is the mean generation temperature.
	MeanTemperature T
}

// Result is the outcome of an Optimize run.
type Result[T constraints.Float] struct {
	// RunID identifies the run in logs and progress updates.
	RunID string

	// Status tells how the run ended.
	Status Status

	// Best is the best point found.
	Best []T

	// BestObjective is the objective value at Best.
	BestObjective T

	// Stats are the annealer counters at the end of the run.
	Stats Stats

	// History lists every accepted point in order.
	History []Sample[T]

	// Duration is the wall clock time of the run.
	Duration time.Duration
}
