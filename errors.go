package asa

import (
	"errors"
	"fmt"
)

//////
// Sentinel errors.
//////

var (
	// ErrNotConstructed is returned by methods of an Anneal that was not
	// created with New.
	ErrNotConstructed = errors.New("asa: annealer not constructed with New")

	// ErrNotInitialized is returned when Step or an objective setter is called
	// before Init.
	ErrNotInitialized = errors.New("asa: annealer not initialized")

	// ErrWrongState is returned when a method is called in a state that does
	// not allow it.
	ErrWrongState = errors.New("asa: operation not allowed in current state")

	// ErrObjectiveMissing is returned by Step when the objective value(s) the
	// current state demands were not supplied.
	ErrObjectiveMissing = errors.New("asa: objective value not supplied")

	// ErrDone is returned by Step once the search has finished.
	ErrDone = errors.New("asa: search is done")

	// ErrIndexOutOfRange is returned by SetSetObjective for a bad index.
	ErrIndexOutOfRange = errors.New("asa: sample index out of range")

	// ErrDimensionMismatch is returned when the initial point and the ranges
	// disagree on the number of dimensions, or there are none.
	ErrDimensionMismatch = errors.New("asa: dimension mismatch")

	// ErrInvalidBounds is returned for a malformed range or an initial point
	// outside its range.
	ErrInvalidBounds = errors.New("asa: invalid bounds")

	// ErrInvalidConfig is returned when Config fails validation.
	ErrInvalidConfig = errors.New("asa: invalid config")

	// ErrGenerationExhausted is returned when no candidate satisfying the
	// bounds could be drawn within Config.MaxGenerateAttempts.
	ErrGenerationExhausted = errors.New("asa: candidate generation exhausted")

	// ErrNonFiniteSensitivity is returned when a reanneal estimates a NaN or
	// infinite sensitivity. The run cannot continue.
	ErrNonFiniteSensitivity = errors.New("asa: non-finite sensitivity")
)

//////
// Typed errors.
//////

// BoundsError describes a malformed range or an initial value outside it.
type BoundsError struct {
	// Dimension is the offending dimension.
	Dimension int

	// Min and Max are the range of that dimension.
	Min, Max float64

	// Value is the initial value, when the initial point is the problem.
	Value float64

	// Reason says what is wrong.
	Reason string
}

// Error implements error.
func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s: dimension %d [%g, %g]: %s", ErrInvalidBounds, e.Dimension, e.Min, e.Max, e.Reason)
}

// Unwrap returns ErrInvalidBounds.
func (e *BoundsError) Unwrap() error {
	return ErrInvalidBounds
}

// GenerationError reports that the candidate generator gave up.
//
// It is a configuration error: the bounds cannot be satisfied at the current
// temperature (or, when ForceChange is set, cannot be satisfied while moving
// every dimension).
type GenerationError struct {
	// Attempts is the number of draws made.
	Attempts int

	// ForceChange tells whether every dimension was required to move.
	ForceChange bool

	// Temperature is the generation temperature at the time.
	Temperature []float64
}

// Error implements error.
func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %d attempts (force change: %t, temperature: %v)",
		ErrGenerationExhausted, e.Attempts, e.ForceChange, e.Temperature)
}

// Unwrap returns ErrGenerationExhausted.
func (e *GenerationError) Unwrap() error {
	return ErrGenerationExhausted
}

// SensitivityError reports a non-finite sensitivity estimate.
type SensitivityError struct {
	// Dimension is the first dimension with a non-finite estimate.
	Dimension int

	// Value is the estimate.
	Value float64

	// Samples are the objective values supplied for the reanneal set.
	Samples []float64

	// Current is the objective value at the current point.
	Current float64
}

// Error implements error.
func (e *SensitivityError) Error() string {
	return fmt.Sprintf("%s: dimension %d estimated %g (current objective %g, samples %v)",
		ErrNonFiniteSensitivity, e.Dimension, e.Value, e.Current, e.Samples)
}

// Unwrap returns ErrNonFiniteSensitivity.
func (e *SensitivityError) Unwrap() error {
	return ErrNonFiniteSensitivity
}

// MissingSetObjectiveError reports which reanneal samples still lack a value.
type MissingSetObjectiveError struct {
	// Missing lists the indexes of CandidateSet without a value.
	Missing []int
}

// Error implements error.
func (e *MissingSetObjectiveError) Error() string {
	return fmt.Sprintf("%s: reanneal samples %v", ErrObjectiveMissing, e.Missing)
}

// Unwrap returns ErrObjectiveMissing.
func (e *MissingSetObjectiveError) Unwrap() error {
	return ErrObjectiveMissing
}
