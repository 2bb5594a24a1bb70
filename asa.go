package asa

import (
	"fmt"
	"math"

	"github.com/thalesfsp/asa/internal/vec"
	"golang.org/x/exp/constraints"
)

//////
// Const, vars, types.
//////

// Anneal implements Lester Ingber's Adaptive Simulated Annealing as a state
// machine driven by the caller.
//
// The annealer never evaluates the objective itself. Instead State tells the
// caller which values it needs: the objective at Candidate when
// StateNeedsObjective, or at Candidate and every point of CandidateSet when
// StateNeedsObjectiveSet. The caller supplies them and calls Step, until the
// state is StateDone.
//
// Usage example:
//
//	a, err := New([]float64{4}, ParameterRange[float64]{Min: -5, Max: 5})
//	if err != nil {
//	    return err
//	}
//
//	config := DefaultConfig[float64]()
//	config.Source = NewSource(42)
//	if err := a.Configure(config); err != nil {
//	    return err
//	}
//
//	if err := a.Init(); err != nil {
//	    return err
//	}
//
//	for a.State() != StateDone {
//	    switch a.State() {
//	    case StateNeedsObjective:
//	        x := a.Candidate()
//	        _ = a.SetObjective(x[0] * x[0])
//	    case StateNeedsObjectiveSet:
//	        x := a.Candidate()
//	        _ = a.SetObjective(x[0] * x[0])
//	        for i, x := range a.CandidateSet() {
//	            _ = a.SetSetObjective(i, x[0]*x[0])
//	        }
//	    }
//
//	    if err := a.Step(); err != nil {
//	        return err
//	    }
//	}
//
//	best, fBest := a.Best()
//
// Thread safety:
// - Not safe for concurrent use. Drive one annealer from one goroutine.
// - The objective values of Candidate and CandidateSet may be computed in
//   parallel, as long as the setter calls are serialized.
type Anneal[T constraints.Float] struct {
	config Config[T]
	state  State

	// err is the fatal error that stopped the run, if any.
	err error

	// d is the number of dimensions.
	d int

	rangeMin vec.Vector[T]
	rangeMax vec.Vector[T]
	width    vec.Vector[T]
	mid      vec.Vector[T]

	xCand      vec.Vector[T]
	fxCand     T
	candIsSet  bool
	x          vec.Vector[T]
	fx         T
	xBest      vec.Vector[T]
	fxBest     T
	xSet       []vec.Vector[T]
	fxSet      vec.Vector[T]
	fxSetIsSet []bool

	// Cooling schedule. temp drives generation, tempCost acceptance.
	temp      vec.Vector[T]
	temp0     vec.Vector[T]
	tempF     vec.Vector[T]
	tempCost  vec.Vector[T]
	tempCost0 vec.Vector[T]
	m         vec.Vector[T]
	n         vec.Vector[T]
	c         vec.Vector[T]
	cCost     vec.Vector[T]
	kF        int

	// Reannealing sensitivities.
	partials vec.Vector[T]

	stats   Stats
	history []Sample[T]
}

//////
// Factory.
//////

// New creates an annealer searching the box described by ranges, starting
// from initial. The number of dimensions is len(initial) and never changes.
//
// Parameters:
// - initial: The starting point. It is the first candidate to evaluate.
// - ranges: One range per dimension
//
// Returns:
// - *Anneal[T]: The annealer, in StateNeedsInit, using DefaultConfig
// - error: ErrDimensionMismatch or a *BoundsError
//
// Validation:
// - There must be at least one dimension and exactly one range per dimension
// - Every range must be finite with Min <= Max
// - The initial point must lie within the ranges
func New[T constraints.Float](initial []T, ranges ...ParameterRange[T]) (*Anneal[T], error) {
	d := len(initial)
	if d == 0 || d != len(ranges) {
		return nil, fmt.Errorf("%w: %d initial values, %d ranges", ErrDimensionMismatch, d, len(ranges))
	}

	a := &Anneal[T]{
		config:   DefaultConfig[T](),
		d:        d,
		rangeMin: make(vec.Vector[T], d),
		rangeMax: make(vec.Vector[T], d),
	}

	for i, r := range ranges {
		lo, hi := float64(r.Min), float64(r.Max)

		switch {
		case math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0):
			return nil, &BoundsError{Dimension: i, Min: lo, Max: hi, Reason: "range must be finite"}
		case r.Min > r.Max:
			return nil, &BoundsError{Dimension: i, Min: lo, Max: hi, Reason: "min is greater than max"}
		case !(initial[i] >= r.Min && initial[i] <= r.Max):
			return nil, &BoundsError{
				Dimension: i, Min: lo, Max: hi, Value: float64(initial[i]),
				Reason: fmt.Sprintf("initial value %g outside range", float64(initial[i])),
			}
		}

		a.rangeMin[i] = r.Min
		a.rangeMax[i] = r.Max
	}

	a.width = a.rangeMax.Sub(a.rangeMin)
	a.mid = a.rangeMax.Add(a.rangeMin).Scale(0.5)

	a.xCand = vec.Vector[T](initial).Clone()
	a.x = a.xCand.Clone()
	a.xBest = a.xCand.Clone()

	// Tunables may still change through Configure until Init is called.
	a.state = StateNeedsInit

	return a, nil
}

//////
// Methods.
//////

// Configure replaces the configuration. It is only allowed before Init.
func (a *Anneal[T]) Configure(config Config[T]) error {
	switch a.state {
	case StateUninitialized:
		return ErrNotConstructed
	case StateNeedsInit:
		a.config = config

		return nil
	default:
		return fmt.Errorf("%w: configure in state %s", ErrWrongState, a.state)
	}
}

// Config returns the configuration in use.
func (a *Anneal[T]) Config() Config[T] {
	return a.config
}

// Init validates the configuration and seeds the temperatures and control
// parameters. Afterwards the state is StateNeedsObjective: the caller must
// evaluate the initial point.
//
// Mathematical details, per dimension:
//
//	m = -ln(TemperatureRatioScale)
//	n = ln(TemperatureAnnealScale)
//	c = m exp(-n/D)
//	c_cost = c CostParameterScaleRatio
//
// The generation temperatures start at 1 and the acceptance temperatures at
// c_cost.
func (a *Anneal[T]) Init() error {
	switch a.state {
	case StateUninitialized:
		return ErrNotConstructed
	case StateNeedsInit:
	default:
		return fmt.Errorf("%w: init in state %s", ErrWrongState, a.state)
	}

	if err := a.config.Validate(); err != nil {
		return err
	}

	a.config = a.config.withDefaults()

	d := a.d
	dir := a.config.Direction

	a.fxBest = worstObjective[T](dir)
	a.fx = a.fxBest
	a.fxCand = a.fxBest

	a.temp0 = vec.Filled(d, T(1))
	a.temp = a.temp0.Clone()
	a.partials = vec.Filled(d, T(1))

	a.m = vec.Filled(d, T(-math.Log(float64(a.config.TemperatureRatioScale))))
	a.n = vec.Filled(d, T(math.Log(float64(a.config.TemperatureAnnealScale))))

	// Expected final values. Reported only.
	a.tempF = a.temp0.Mul(a.m.Scale(-1).Exp())
	a.kF = int(math.Exp(float64(a.n.Mean())))

	a.c = a.m.Mul(a.n.Scale(-1 / T(d)).Exp())
	a.cCost = a.c.Scale(a.config.CostParameterScaleRatio)
	a.tempCost0 = a.cCost.Clone()
	a.tempCost = a.cCost.Clone()

	a.stats.K = 1
	a.stats.KSinceReanneal = 0

	a.config.Logger.Debug("annealer initialized",
		"dimensions", d,
		"direction", dir.String(),
		"expected_final_steps", a.kF,
		"expected_final_temperature", toFloat64s(a.tempF),
	)

	a.requestCandidate()

	return nil
}

// Step advances the search by one step, consuming the objective value(s)
// supplied since the previous call.
//
// The step, in order:
//  1. Counts the step
//  2. Completes a pending reanneal with the values of CandidateSet
//  3. Stops (StateDone) once the best objective repeated BestRepeatMax times
//  4. Cools the temperatures
//  5. Accepts or rejects the candidate
//  6. Generates the next candidate from the current point
//  7. Requests a reanneal sample set when one is due
//
// Returns:
// - ErrNotInitialized, ErrDone, ErrObjectiveMissing: usage errors, nothing changed
// - *SensitivityError, *GenerationError: fatal, returned again on every later call
func (a *Anneal[T]) Step() error {
	if err := a.checkStep(); err != nil {
		return err
	}

	a.stats.Steps++

	if a.state == StateNeedsObjectiveSet {
		if err := a.completeReanneal(); err != nil {
			return a.fail(err)
		}

		a.state = StateNeedsStep
	}

	if a.stopCheck() {
		a.state = StateDone

		a.config.Logger.Debug("annealer done",
			"steps", a.stats.Steps,
			"best_objective", float64(a.fxBest),
			"best_repeats", a.stats.BestRepeats,
		)

		return nil
	}

	a.coolingSchedule()
	a.config.Metrics.observeStep(float64(a.temp.Mean()), float64(a.tempCost.Mean()))

	a.acceptanceCheck()

	if err := a.generateNext(); err != nil {
		return a.fail(err)
	}

	a.stats.K++
	a.stats.KSinceReanneal++

	due, err := a.reannealTest()
	if err != nil {
		return a.fail(err)
	}

	if due {
		a.requestSet()
	} else {
		a.requestCandidate()
	}

	return nil
}

// State returns what the caller must do next.
func (a *Anneal[T]) State() State {
	return a.state
}

// Err returns the fatal error that stopped the run, or nil.
func (a *Anneal[T]) Err() error {
	return a.err
}

// Dimensions returns the number of dimensions of the search space.
func (a *Anneal[T]) Dimensions() int {
	return a.d
}

// Bounds returns a copy of the per dimension ranges.
func (a *Anneal[T]) Bounds() []ParameterRange[T] {
	out := make([]ParameterRange[T], a.d)
	for i := range out {
		out[i] = ParameterRange[T]{Min: a.rangeMin[i], Max: a.rangeMax[i]}
	}

	return out
}

// Candidate returns a copy of the point to evaluate in StateNeedsObjective.
// In StateNeedsObjectiveSet the candidate is still pending and must be
// evaluated along with the sample set.
func (a *Anneal[T]) Candidate() []T {
	return a.xCand.Clone()
}

// SetObjective records the objective value at Candidate.
func (a *Anneal[T]) SetObjective(f T) error {
	if err := a.checkReady(); err != nil {
		return err
	}

	if a.state != StateNeedsObjective && a.state != StateNeedsObjectiveSet {
		return fmt.Errorf("%w: set objective in state %s", ErrWrongState, a.state)
	}

	a.fxCand = f
	a.candIsSet = true

	return nil
}

// CandidateSet returns copies of the points to evaluate in
// StateNeedsObjectiveSet. It is empty in every other state.
func (a *Anneal[T]) CandidateSet() [][]T {
	if a.state != StateNeedsObjectiveSet {
		return nil
	}

	out := make([][]T, len(a.xSet))
	for i, x := range a.xSet {
		out[i] = x.Clone()
	}

	return out
}

// SetSetObjective records the objective value at CandidateSet()[i].
func (a *Anneal[T]) SetSetObjective(i int, f T) error {
	if err := a.checkReady(); err != nil {
		return err
	}

	if a.state != StateNeedsObjectiveSet {
		return fmt.Errorf("%w: set sample objective in state %s", ErrWrongState, a.state)
	}

	if i < 0 || i >= len(a.xSet) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(a.xSet))
	}

	a.fxSet[i] = f
	a.fxSetIsSet[i] = true

	return nil
}

// Current returns a copy of the currently accepted point and its objective.
func (a *Anneal[T]) Current() ([]T, T) {
	return a.x.Clone(), a.fx
}

// Best returns a copy of the best point found and its objective. Before the
// first accepted candidate the objective is the worst value of the direction
// (+Inf when minimizing).
func (a *Anneal[T]) Best() ([]T, T) {
	return a.xBest.Clone(), a.fxBest
}

// Stats returns the counters.
func (a *Anneal[T]) Stats() Stats {
	return a.stats
}

// History returns the accepted points, oldest first.
func (a *Anneal[T]) History() []Sample[T] {
	out := make([]Sample[T], len(a.history))
	for i, s := range a.history {
		out[i] = Sample[T]{X: clone(s.X), F: s.F}
	}

	return out
}

// Temperatures returns copies of the generation and acceptance temperatures.
func (a *Anneal[T]) Temperatures() (generation, acceptance []T) {
	return a.temp.Clone(), a.tempCost.Clone()
}

// ExpectedFinal returns the step count and generation temperatures the
// schedule is expected to reach, ignoring reannealing. The values are
// advisory; the algorithm does not use them.
func (a *Anneal[T]) ExpectedFinal() (steps int, temperature []T) {
	return a.kF, a.tempF.Clone()
}

//////
// Helpers.
//////

// checkReady rejects calls before Init and after a fatal error.
func (a *Anneal[T]) checkReady() error {
	switch a.state {
	case StateUninitialized:
		return ErrNotConstructed
	case StateNeedsInit:
		return ErrNotInitialized
	}

	return a.err
}

// checkStep verifies the preconditions of Step.
func (a *Anneal[T]) checkStep() error {
	if err := a.checkReady(); err != nil {
		return err
	}

	switch a.state {
	case StateDone:
		return ErrDone
	case StateNeedsObjective:
		if !a.candIsSet {
			return ErrObjectiveMissing
		}
	case StateNeedsObjectiveSet:
		if !a.candIsSet {
			return ErrObjectiveMissing
		}

		var missing []int

		for i, ok := range a.fxSetIsSet {
			if !ok {
				missing = append(missing, i)
			}
		}

		if len(missing) > 0 {
			return &MissingSetObjectiveError{Missing: missing}
		}
	}

	return nil
}

// fail makes err sticky.
func (a *Anneal[T]) fail(err error) error {
	a.err = err

	a.config.Logger.Error("annealer failed", "error", err, "steps", a.stats.Steps)

	return err
}

// requestCandidate asks the caller for the objective at xCand.
func (a *Anneal[T]) requestCandidate() {
	a.candIsSet = false
	a.state = StateNeedsObjective
	a.stats.Evaluations++
	a.config.Metrics.observeEvaluations(1)
}

// requestSet asks the caller for the objectives at xSet. The candidate
// generated in the same step is evaluated with them.
func (a *Anneal[T]) requestSet() {
	a.fxSet = make(vec.Vector[T], len(a.xSet))
	a.fxSetIsSet = make([]bool, len(a.xSet))
	a.candIsSet = false
	a.state = StateNeedsObjectiveSet
	a.stats.Evaluations += len(a.xSet) + 1
	a.config.Metrics.observeEvaluations(len(a.xSet) + 1)
}
