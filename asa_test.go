package asa

import (
	"errors"
	"math"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/constraints"
)

// Budget used by tests that expect the search to finish on its own.
const testStepBudget = 1000000

func sphere[T constraints.Float](x []T) T {
	var sum T
	for _, v := range x {
		sum += v * v
	}

	return sum
}

func shiftedSphere(x []float64) float64 {
	return (x[0]-1)*(x[0]-1) + (x[1]+2)*(x[1]+2)
}

// newTestAnneal builds and initializes an annealer with a seeded source.
func newTestAnneal[T constraints.Float](
	t *testing.T,
	configure func(*Config[T]),
	initial []T,
	ranges ...ParameterRange[T],
) *Anneal[T] {
	t.Helper()

	a, err := New(initial, ranges...)
	require.NoError(t, err)

	config := DefaultConfig[T]()
	config.Source = NewSource(1)

	if configure != nil {
		configure(&config)
	}

	require.NoError(t, a.Configure(config))
	require.NoError(t, a.Init())

	return a
}

// supply hands the annealer every objective value its state asks for.
func supply[T constraints.Float](t *testing.T, a *Anneal[T], f func([]T) T) {
	t.Helper()

	switch a.State() {
	case StateNeedsObjective:
		require.NoError(t, a.SetObjective(f(a.Candidate())))
	case StateNeedsObjectiveSet:
		require.NoError(t, a.SetObjective(f(a.Candidate())))

		for i, x := range a.CandidateSet() {
			require.NoError(t, a.SetSetObjective(i, f(x)))
		}
	default:
		t.Fatalf("nothing to supply in state %s", a.State())
	}
}

// drive runs the protocol until Done or until budget steps were taken.
func drive[T constraints.Float](t *testing.T, a *Anneal[T], f func([]T) T, budget int) {
	t.Helper()

	for a.State() != StateDone && a.Stats().Steps < budget {
		supply(t, a, f)
		require.NoError(t, a.Step())
	}
}

func TestNewValidatesInput(t *testing.T) {
	r := ParameterRange[float64]{Min: -5, Max: 5}

	_, err := New([]float64{}, r)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = New([]float64{1, 2}, r)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = New([]float64{0}, ParameterRange[float64]{Min: 1, Max: -1})
	assert.ErrorIs(t, err, ErrInvalidBounds)

	_, err = New([]float64{0}, ParameterRange[float64]{Min: math.Inf(-1), Max: 1})
	assert.ErrorIs(t, err, ErrInvalidBounds)

	_, err = New([]float64{0}, ParameterRange[float64]{Min: math.NaN(), Max: 1})
	assert.ErrorIs(t, err, ErrInvalidBounds)

	_, err = New([]float64{0, 6}, r, r)

	var boundsErr *BoundsError
	require.ErrorAs(t, err, &boundsErr)
	assert.Equal(t, 1, boundsErr.Dimension)
	assert.Equal(t, 6.0, boundsErr.Value)
}

func TestNewCopiesInitialPoint(t *testing.T) {
	initial := []float64{1, 2}
	r := ParameterRange[float64]{Min: -5, Max: 5}

	a, err := New(initial, r, r)
	require.NoError(t, err)

	initial[0] = 100

	assert.Equal(t, StateNeedsInit, a.State())
	assert.Equal(t, 2, a.Dimensions())
	assert.Equal(t, []float64{1, 2}, a.Candidate())
	assert.Equal(t, []ParameterRange[float64]{r, r}, a.Bounds())

	// Degenerate ranges are allowed.
	_, err = New([]float64{3}, ParameterRange[float64]{Min: 3, Max: 3})
	assert.NoError(t, err)
}

func TestLifecycleUsageErrors(t *testing.T) {
	var zero Anneal[float64]

	assert.Equal(t, StateUninitialized, zero.State())
	assert.ErrorIs(t, zero.Init(), ErrNotConstructed)
	assert.ErrorIs(t, zero.Step(), ErrNotConstructed)
	assert.ErrorIs(t, zero.Configure(DefaultConfig[float64]()), ErrNotConstructed)

	a, err := New([]float64{4}, ParameterRange[float64]{Min: -5, Max: 5})
	require.NoError(t, err)

	assert.ErrorIs(t, a.Step(), ErrNotInitialized)
	assert.ErrorIs(t, a.SetObjective(1), ErrNotInitialized)
	assert.ErrorIs(t, a.SetSetObjective(0, 1), ErrNotInitialized)
	assert.Equal(t, StateNeedsInit, a.State())

	require.NoError(t, a.Init())
	assert.Equal(t, StateNeedsObjective, a.State())

	assert.ErrorIs(t, a.Init(), ErrWrongState)
	assert.ErrorIs(t, a.Configure(DefaultConfig[float64]()), ErrWrongState)

	// Step without the objective changes nothing.
	before := a.Stats()
	assert.ErrorIs(t, a.Step(), ErrObjectiveMissing)
	assert.Equal(t, StateNeedsObjective, a.State())
	assert.Equal(t, before, a.Stats())

	assert.ErrorIs(t, a.SetSetObjective(0, 1), ErrWrongState)
	assert.Nil(t, a.CandidateSet())
}

func TestInitSeedsSchedule(t *testing.T) {
	a := newTestAnneal[float64](t, nil, []float64{4}, ParameterRange[float64]{Min: -5, Max: 5})

	_, fBest := a.Best()
	assert.True(t, math.IsInf(fBest, 1))

	_, fCurrent := a.Current()
	assert.True(t, math.IsInf(fCurrent, 1))

	// c = -ln(1e-5) exp(-ln(100)/1) = ln(10) / 20.
	c := math.Ln10 / 20

	generation, acceptance := a.Temperatures()
	assert.Equal(t, []float64{1}, generation)
	assert.InDeltaSlice(t, []float64{c}, acceptance, 1e-12)

	steps, final := a.ExpectedFinal()
	assert.InDelta(t, 100, steps, 1)
	assert.InDeltaSlice(t, []float64{1e-5}, final, 1e-12)

	stats := a.Stats()
	assert.Equal(t, 1, stats.K)
	assert.Equal(t, 0, stats.KSinceReanneal)
	assert.Equal(t, 1, stats.Evaluations)
	assert.Equal(t, []float64{4}, a.Candidate())
}

func TestInitMaximizeSeedsNegativeInfinity(t *testing.T) {
	a := newTestAnneal(t, func(c *Config[float64]) {
		c.Direction = Maximize
	}, []float64{0}, ParameterRange[float64]{Min: -1, Max: 1})

	_, fBest := a.Best()
	assert.True(t, math.IsInf(fBest, -1))
}

func TestInitRejectsInvalidConfig(t *testing.T) {
	a, err := New([]float64{4}, ParameterRange[float64]{Min: -5, Max: 5})
	require.NoError(t, err)

	config := DefaultConfig[float64]()
	config.TemperatureRatioScale = 1.5
	config.PartialsSamples = 0

	require.NoError(t, a.Configure(config))

	err = a.Init()
	require.ErrorIs(t, err, ErrInvalidConfig)

	var validationErrs validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrs))
	assert.Len(t, validationErrs, 2)

	// A failed Init can be retried with a fixed config.
	assert.Equal(t, StateNeedsInit, a.State())
	require.NoError(t, a.Configure(DefaultConfig[float64]()))
	assert.NoError(t, a.Init())
}

func TestScenarioQuadraticOneDimension(t *testing.T) {
	a := newTestAnneal[float64](t, nil, []float64{4}, ParameterRange[float64]{Min: -5, Max: 5})

	drive(t, a, sphere[float64], testStepBudget)

	require.Equal(t, StateDone, a.State())

	best, fBest := a.Best()
	assert.InDelta(t, 0, best[0], 1e-3)
	assert.InDelta(t, 0, fBest, 1e-6)
	assert.GreaterOrEqual(t, a.Stats().BestRepeats, 10)
	assert.ErrorIs(t, a.Step(), ErrDone)
}

func TestScenarioShiftedSphereTwoDimensions(t *testing.T) {
	r := ParameterRange[float64]{Min: -10, Max: 10}
	a := newTestAnneal(t, nil, []float64{0, 0}, r, r)

	drive(t, a, shiftedSphere, testStepBudget)

	require.Equal(t, StateDone, a.State())

	best, fBest := a.Best()
	assert.InDelta(t, 1, best[0], 1e-2)
	assert.InDelta(t, -2, best[1], 1e-2)
	assert.Less(t, fBest, 1e-4)
	assert.Greater(t, a.Stats().Reanneals, 0)
}

func TestScenarioMaximize(t *testing.T) {
	a := newTestAnneal(t, func(c *Config[float64]) {
		c.Direction = Maximize
	}, []float64{3}, ParameterRange[float64]{Min: -5, Max: 5})

	drive(t, a, func(x []float64) float64 {
		return -(x[0] - 1) * (x[0] - 1)
	}, testStepBudget)

	require.Equal(t, StateDone, a.State())

	best, fBest := a.Best()
	assert.InDelta(t, 1, best[0], 1e-3)
	assert.InDelta(t, 0, fBest, 1e-6)
}

func TestRunInvariants(t *testing.T) {
	r := ParameterRange[float64]{Min: -10, Max: 10}
	a := newTestAnneal(t, func(c *Config[float64]) {
		c.ReannealAfterSteps = 7
	}, []float64{5, -5}, r, r)

	lastBest := math.Inf(1)

	for a.State() != StateDone && a.Stats().Steps < 5000 {
		require.Contains(t, []State{StateNeedsObjective, StateNeedsObjectiveSet}, a.State())

		for _, x := range append([][]float64{a.Candidate()}, a.CandidateSet()...) {
			for i, v := range x {
				require.GreaterOrEqual(t, v, r.Min, "dimension %d", i)
				require.LessOrEqual(t, v, r.Max, "dimension %d", i)
			}
		}

		supply(t, a, shiftedSphere)
		require.NoError(t, a.Step())

		_, fBest := a.Best()
		require.LessOrEqual(t, fBest, lastBest)
		lastBest = fBest

		generation, acceptance := a.Temperatures()
		for _, v := range append(generation, acceptance...) {
			require.Greater(t, v, 0.0)
		}

		_, fCurrent := a.Current()
		require.LessOrEqual(t, fBest, fCurrent)
	}

	history := a.History()
	require.Len(t, history, a.Stats().TotalAccepted)

	best, fBest := a.Best()
	assert.Contains(t, history, Sample[float64]{X: best, F: fBest})
}

func TestDoneExactlyAtRepeatThreshold(t *testing.T) {
	a := newTestAnneal(t, func(c *Config[float64]) {
		c.BestRepeatMax = 3
		c.ReannealAfterSteps = 1000
	}, []float64{1}, ParameterRange[float64]{Min: -5, Max: 5})

	constant := func([]float64) float64 { return 5 }

	// The first value replaces the infinite seed, the next three tie it.
	for i := 1; i <= 4; i++ {
		supply(t, a, constant)
		require.NoError(t, a.Step())
		assert.Equal(t, i-1, a.Stats().BestRepeats)
		assert.Equal(t, StateNeedsObjective, a.State())
	}

	supply(t, a, constant)
	require.NoError(t, a.Step())

	assert.Equal(t, StateDone, a.State())
	assert.Equal(t, 5, a.Stats().Steps)
	assert.Equal(t, 3, a.Stats().BestRepeats)

	// Done is terminal.
	assert.ErrorIs(t, a.Step(), ErrDone)
	assert.ErrorIs(t, a.SetObjective(1), ErrWrongState)
	assert.Equal(t, 5, a.Stats().Steps)
}

func TestForcedReannealRequestsSampleSet(t *testing.T) {
	r := ParameterRange[float64]{Min: -5, Max: 5}
	a := newTestAnneal(t, func(c *Config[float64]) {
		c.ReannealAfterSteps = 1
		c.PartialsSamples = 4
	}, []float64{1, 2, 3}, r, r, r)

	supply(t, a, sphere[float64])
	require.NoError(t, a.Step())

	require.Equal(t, StateNeedsObjectiveSet, a.State())

	current, _ := a.Current()
	set := a.CandidateSet()
	require.Len(t, set, 4)

	for _, x := range set {
		for i := range x {
			assert.NotEqual(t, current[i], x[i], "dimension %d unchanged", i)
			assert.GreaterOrEqual(t, x[i], r.Min)
			assert.LessOrEqual(t, x[i], r.Max)
		}
	}

	stats := a.Stats()
	assert.Equal(t, 1, stats.Reanneals)
	assert.Equal(t, 1+4+1, stats.Evaluations)

	// The set is a copy.
	set[0][0] = 100
	assert.NotEqual(t, 100.0, a.CandidateSet()[0][0])

	supply(t, a, sphere[float64])
	require.NoError(t, a.Step())

	// Completing the reanneal cleared the period counters before this step's trial.
	stats = a.Stats()
	assert.Equal(t, 1, stats.KSinceReanneal)
	assert.Equal(t, 1, stats.Improved+stats.Worse)
	assert.Equal(t, 2, stats.Reanneals)
}

func TestSampleSetObjectivesRequired(t *testing.T) {
	r := ParameterRange[float64]{Min: -5, Max: 5}
	a := newTestAnneal(t, func(c *Config[float64]) {
		c.ReannealAfterSteps = 1
		c.PartialsSamples = 3
	}, []float64{1, 2}, r, r)

	supply(t, a, sphere[float64])
	require.NoError(t, a.Step())
	require.Equal(t, StateNeedsObjectiveSet, a.State())

	// Neither the candidate nor the set.
	assert.ErrorIs(t, a.Step(), ErrObjectiveMissing)

	require.NoError(t, a.SetObjective(1))

	err := a.Step()

	var missingErr *MissingSetObjectiveError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, []int{0, 1, 2}, missingErr.Missing)
	assert.ErrorIs(t, err, ErrObjectiveMissing)

	require.NoError(t, a.SetSetObjective(1, 1))
	require.ErrorAs(t, a.Step(), &missingErr)
	assert.Equal(t, []int{0, 2}, missingErr.Missing)

	assert.ErrorIs(t, a.SetSetObjective(-1, 1), ErrIndexOutOfRange)
	assert.ErrorIs(t, a.SetSetObjective(3, 1), ErrIndexOutOfRange)

	steps := a.Stats().Steps
	assert.Equal(t, StateNeedsObjectiveSet, a.State())

	require.NoError(t, a.SetSetObjective(0, 1))
	require.NoError(t, a.SetSetObjective(2, 1))
	require.NoError(t, a.Step())
	assert.Equal(t, steps+1, a.Stats().Steps)
}

func TestNonFiniteSensitivityIsSticky(t *testing.T) {
	r := ParameterRange[float64]{Min: -5, Max: 5}
	a := newTestAnneal(t, func(c *Config[float64]) {
		c.ReannealAfterSteps = 1
	}, []float64{1}, r)

	supply(t, a, sphere[float64])
	require.NoError(t, a.Step())
	require.Equal(t, StateNeedsObjectiveSet, a.State())

	require.NoError(t, a.SetObjective(1))
	require.NoError(t, a.SetSetObjective(0, math.NaN()))
	require.NoError(t, a.SetSetObjective(1, 1))

	err := a.Step()

	var sensitivityErr *SensitivityError
	require.ErrorAs(t, err, &sensitivityErr)
	assert.Equal(t, 0, sensitivityErr.Dimension)
	assert.ErrorIs(t, err, ErrNonFiniteSensitivity)

	assert.Equal(t, err, a.Err())
	assert.Equal(t, err, a.Step())
	assert.Equal(t, err, a.SetObjective(1))
}

func TestFloat32Run(t *testing.T) {
	r := ParameterRange[float32]{Min: -5, Max: 5}
	a := newTestAnneal[float32](t, nil, []float32{4, -3}, r, r)

	drive(t, a, sphere[float32], 200000)

	best, fBest := a.Best()
	require.Len(t, best, 2)
	assert.Less(t, fBest, float32(1e-2))
	assert.NoError(t, a.Err())
}
