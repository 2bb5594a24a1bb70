package asa

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thalesfsp/asa/internal/vec"
)

// newReannealFixture returns a 2D annealer over [-10, 10]^2 sitting at the
// origin with objective 0 and a pending sample set.
func newReannealFixture(t *testing.T, xSet []vec.Vector[float64], fxSet vec.Vector[float64]) *Anneal[float64] {
	t.Helper()

	r := ParameterRange[float64]{Min: -10, Max: 10}
	a := newTestAnneal(t, nil, []float64{0, 0}, r, r)

	a.x = vec.Vector[float64]{0, 0}
	a.fx = 0
	a.temp = vec.Vector[float64]{1e-3, 1e-3}
	a.xSet = xSet
	a.fxSet = fxSet

	a.stats.K = 50
	a.stats.Improved = 3
	a.stats.Worse = 4
	a.stats.WorseAccepted = 1
	a.stats.Accepted = 2
	a.stats.TotalAccepted = 5
	a.stats.KSinceReanneal = 9

	return a
}

func assertPeriodStatsReset(t *testing.T, stats Stats) {
	t.Helper()

	assert.Equal(t, 0, stats.Improved)
	assert.Equal(t, 0, stats.Worse)
	assert.Equal(t, 0, stats.WorseAccepted)
	assert.Equal(t, 0, stats.Accepted)
	assert.Equal(t, 0, stats.KSinceReanneal)
	assert.Equal(t, 5, stats.TotalAccepted)
}

func TestCompleteReannealRescalesTemperatures(t *testing.T) {
	// partials = (-4, -2), s = (80, 40), so the second temperature doubles.
	a := newReannealFixture(t,
		[]vec.Vector[float64]{{1, 2}},
		vec.Vector[float64]{-4},
	)

	require.NoError(t, a.completeReanneal())

	assert.InDeltaSlice(t, []float64{-4, -2}, a.partials, 1e-12)
	assert.InDeltaSlice(t, []float64{1e-3, 2e-3}, a.temp, 1e-15)

	// c = ln(10)/2 for two dimensions, so ln(1/temp)/c = 2 log10(1/temp):
	// mean(6^2, 5.39794^2) = 32.57.
	assert.Equal(t, 32, a.stats.K)

	assertPeriodStatsReset(t, a.stats)
}

func TestCompleteReannealWithoutSignal(t *testing.T) {
	a := newReannealFixture(t,
		[]vec.Vector[float64]{{1, 2}, {-3, 4}},
		vec.Vector[float64]{0, 0},
	)

	require.NoError(t, a.completeReanneal())

	assert.Equal(t, vec.Vector[float64]{1e-3, 1e-3}, a.temp)
	assert.Equal(t, 50, a.stats.K)
	assertPeriodStatsReset(t, a.stats)
}

func TestCompleteReannealKeepsNonPositiveRescale(t *testing.T) {
	// partials = (-2, 2): the rescaled temperatures have opposite signs.
	a := newReannealFixture(t,
		[]vec.Vector[float64]{{1, -1}},
		vec.Vector[float64]{-2},
	)

	require.NoError(t, a.completeReanneal())

	assert.Equal(t, vec.Vector[float64]{1e-3, 1e-3}, a.temp)
	assert.Equal(t, 50, a.stats.K)
	assertPeriodStatsReset(t, a.stats)
}

func TestCompleteReannealRejectsNonFinitePartials(t *testing.T) {
	a := newReannealFixture(t,
		[]vec.Vector[float64]{{1, 2}},
		vec.Vector[float64]{math.Inf(1)},
	)

	err := a.completeReanneal()

	var sensitivityErr *SensitivityError
	require.ErrorAs(t, err, &sensitivityErr)
	assert.Equal(t, 0, sensitivityErr.Dimension)
	assert.True(t, math.IsInf(sensitivityErr.Value, 1))
	assert.Equal(t, []float64{math.Inf(1)}, sensitivityErr.Samples)

	// Nothing was reset.
	assert.Equal(t, 50, a.stats.K)
	assert.Equal(t, 9, a.stats.KSinceReanneal)
}

func TestBackSolveK(t *testing.T) {
	a := newReannealFixture(t, nil, nil)

	// Hotter than the start maps to the first step.
	assert.Equal(t, 1, a.backSolveK(vec.Vector[float64]{2, 3}))
	assert.Equal(t, 1, a.backSolveK(vec.Vector[float64]{1, 1}))
	assert.InDelta(t, 36, a.backSolveK(vec.Vector[float64]{1e-3, 1e-3}), 1)

	// Eight dimensions make k^(1/D) steep enough to overflow int32.
	r := ParameterRange[float64]{Min: -1, Max: 1}
	ranges := []ParameterRange[float64]{r, r, r, r, r, r, r, r}
	wide := newTestAnneal(t, nil, make([]float64, 8), ranges...)

	assert.Equal(t, math.MaxInt32, wide.backSolveK(vec.Filled(8, 1e-300)))
}

func TestReannealTrigger(t *testing.T) {
	r := ParameterRange[float64]{Min: -5, Max: 5}
	a := newTestAnneal(t, func(c *Config[float64]) {
		c.ReannealAfterSteps = 10
		c.PartialsSamples = 3
	}, []float64{1, 1}, r, r)

	// No trials yet.
	assert.Equal(t, 1.0, a.acceptedVsGenerated())

	due, err := a.reannealTest()
	require.NoError(t, err)
	assert.False(t, due)
	assert.Nil(t, a.xSet)

	// Healthy ratio, few steps.
	a.stats.Improved, a.stats.Worse, a.stats.Accepted = 5, 5, 8
	a.stats.KSinceReanneal = 9

	due, err = a.reannealTest()
	require.NoError(t, err)
	assert.False(t, due)

	// Low ratio.
	a.stats.Accepted = 1

	due, err = a.reannealTest()
	require.NoError(t, err)
	assert.True(t, due)
	assert.Len(t, a.xSet, 3)
	assert.Equal(t, 1, a.stats.Reanneals)

	// Enough steps.
	a.stats.Accepted = 8
	a.stats.KSinceReanneal = 10

	due, err = a.reannealTest()
	require.NoError(t, err)
	assert.True(t, due)
	assert.Equal(t, 2, a.stats.Reanneals)
}
