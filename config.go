package asa

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/constraints"
)

//////
// Const, vars, types.
//////

// configValidate checks the struct tags of Config.
var configValidate = validator.New(validator.WithRequiredStructEnabled())

// Config holds the tunables of an annealer, plus the ambient collaborators
// and the settings used only by Optimize.
//
// Fields explanation:
// - Direction: Minimize (default) or Maximize the objective
// - TemperatureRatioScale: Sets m = -ln(TemperatureRatioScale), how far temperatures fall
// - TemperatureAnnealScale: Sets n = ln(TemperatureAnnealScale), how many steps the fall takes
// - CostParameterScaleRatio: Scales the acceptance temperature against the generation one
// - AccGenReannealRatio: Reanneal when accepted/generated drops below this
// - ReannealAfterSteps: Reanneal at least this often
// - PartialsSamples: Points sampled to estimate sensitivities when reannealing
// - BestRepeatMax: Stop after the best objective was matched this many times
// - MaxGenerateAttempts: Retry cap of the candidate generator
//
// Usage example:
//
//	config := DefaultConfig[float64]()
//
//	// Look for the maximum instead of the minimum.
//	config.Direction = Maximize
//
//	// Reproducible runs.
//	config.Source = NewSource(42)
//
//	// Demand more confirmations of the best value before stopping.
//	config.BestRepeatMax = 20
//
// Default values follow Ingber's ASA reference settings:
// - TemperatureRatioScale: 1e-5
// - TemperatureAnnealScale: 100
// - CostParameterScaleRatio: 1
// - AccGenReannealRatio: 0.7
// - ReannealAfterSteps: 100
// - PartialsSamples: 2
// - BestRepeatMax: 10
//
// Note:
// - Create separate configs (and Sources) for concurrent runs.
type Config[T constraints.Float] struct {
	// Direction selects minimization or maximization.
	Direction Direction `validate:"oneof=0 1"`

	// TemperatureRatioScale is Ingber's Temperature_Ratio_Scale. Must be in
	// (0, 1). Smaller values make temperatures fall further.
	TemperatureRatioScale T `validate:"gt=0,lt=1"`

	// TemperatureAnnealScale is Ingber's Temperature_Anneal_Scale. Larger
	// values slow the cooling down.
	TemperatureAnnealScale T `validate:"gt=0"`

	// CostParameterScaleRatio is Ingber's Cost_Parameter_Scale_Ratio.
	CostParameterScaleRatio T `validate:"gt=0"`

	// AccGenReannealRatio is the minimum accepted/generated ratio. Below it a
	// reanneal is triggered.
	AccGenReannealRatio T `validate:"gte=0,lte=1"`

	// ReannealAfterSteps forces a reanneal once this many steps passed since
	// the previous one.
	ReannealAfterSteps int `validate:"gte=1"`

	// PartialsSamples is the number of points sampled per reanneal.
	PartialsSamples int `validate:"gte=1"`

	// BestRepeatMax is the number of times the best objective must be matched
	// before the search is done.
	BestRepeatMax int `validate:"gte=1"`

	// MaxGenerateAttempts caps the rejection sampling of the generator.
	MaxGenerateAttempts int `validate:"gte=1"`

	// Source draws the uniform numbers used for generation and acceptance.
	// If nil, a time seeded source is used.
	Source Source

	// Logger receives debug records about reannealing and run progress.
	// If nil, nothing is logged.
	Logger *slog.Logger

	// Metrics, if not nil, is updated on every step.
	Metrics *Metrics

	// MaxSteps is an external step budget for Optimize. Zero means unlimited.
	MaxSteps int `validate:"gte=0"`

	// SetConcurrency caps concurrent evaluations of a reanneal sample set in
	// Optimize. Zero means one goroutine per sample.
	SetConcurrency int `validate:"gte=0"`

	// ProgressChan is used by Optimize to send progress updates. Sends never
	// block; updates are dropped when the channel is full. If nil, no updates
	// are sent.
	ProgressChan chan<- ProgressUpdate[T]
}

//////
// Exported functionalities.
//////

// DefaultConfig returns the reference configuration with a time seeded
// Source.
func DefaultConfig[T constraints.Float]() Config[T] {
	return Config[T]{
		Direction:               Minimize,
		TemperatureRatioScale:   T(1e-5),
		TemperatureAnnealScale:  T(100),
		CostParameterScaleRatio: T(1),
		AccGenReannealRatio:     T(0.7),
		ReannealAfterSteps:      100,
		PartialsSamples:         2,
		BestRepeatMax:           10,
		MaxGenerateAttempts:     100000,
		Source:                  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Validate checks every tunable. The returned error wraps ErrInvalidConfig
// and the validator.ValidationErrors describing each failing field.
func (c Config[T]) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

//////
// Helpers.
//////

// withDefaults fills the nil collaborators.
func (c Config[T]) withDefaults() Config[T] {
	if c.Source == nil {
		c.Source = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}

	return c
}
