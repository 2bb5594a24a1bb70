package asa

import (
	"math"

	"github.com/thalesfsp/asa/internal/vec"
)

//////
// Reannealing.
//
// Every so often the annealer estimates how sensitive the objective is to
// each parameter around the current point, then rescales the generation
// temperatures so that dimensions with different sensitivities get a
// comparable share of the search effort.
//////

// reannealTest decides whether a reanneal is due and, if so, samples the
// points whose objectives the caller must compute.
//
// A reanneal is not due while both hold:
// - fewer than ReannealAfterSteps steps passed since the last one
// - the accepted/generated ratio is at least AccGenReannealRatio
func (a *Anneal[T]) reannealTest() (bool, error) {
	if a.stats.KSinceReanneal < a.config.ReannealAfterSteps &&
		a.acceptedVsGenerated() >= a.config.AccGenReannealRatio {
		return false, nil
	}

	xSet := make([]vec.Vector[T], a.config.PartialsSamples)
	for i := range xSet {
		x, err := a.generateParameter(a.x, true)
		if err != nil {
			return false, err
		}

		xSet[i] = x
	}

	a.xSet = xSet
	a.stats.Reanneals++
	a.config.Metrics.observeReanneal()

	a.config.Logger.Debug("reanneal requested",
		"step", a.stats.Steps,
		"k", a.stats.K,
		"steps_since_reanneal", a.stats.KSinceReanneal,
		"accepted_vs_generated", float64(a.acceptedVsGenerated()),
	)

	return true, nil
}

// acceptedVsGenerated returns accepted / (improved + worse). With no trial
// since the last reanneal it returns 1, meaning no reanneal is needed yet.
func (a *Anneal[T]) acceptedVsGenerated() T {
	generated := a.stats.Improved + a.stats.Worse
	if generated == 0 {
		return 1
	}

	return T(a.stats.Accepted) / T(generated)
}

// completeReanneal uses the objectives of the sample set to rescale the
// generation temperatures.
//
// Mathematical details:
//
//	partials[i] = mean_j (f_set[j] - f_x) / (x_set[j][i] - x[i])
//	s[i]        = -width[i] partials[i]
//	temp_re[i]  = temp[i] max(s) / s[i]
//	k           = mean_i (ln(temp0[i] / temp_re[i]) / c[i])^D
//
// Outcomes:
// - A NaN or infinite partial is fatal: *SensitivityError
// - All partials zero: no information, only the statistics are reset
// - temp_re not entirely positive and finite: temperatures and k are kept
// - Otherwise temp and k take the rescaled values
func (a *Anneal[T]) completeReanneal() error {
	partials := vec.Filled(a.d, T(0))

	for j, xs := range a.xSet {
		df := vec.Filled(a.d, a.fxSet[j]-a.fx)
		partials = partials.Add(df.Div(xs.Sub(a.x)))
	}

	partials = partials.Scale(1 / T(len(a.xSet)))
	a.partials = partials

	if i := partials.FirstNonFinite(); i >= 0 {
		return &SensitivityError{
			Dimension: i,
			Value:     float64(partials[i]),
			Samples:   toFloat64s(a.fxSet),
			Current:   float64(a.fx),
		}
	}

	if partials.AllZero() {
		a.config.Logger.Debug("reanneal skipped, all sampled objectives equal", "k", a.stats.K)
		a.config.Metrics.observeRescale(rescaleNoSignal)
		a.resetStats()

		return nil
	}

	s := a.width.Scale(-1).Mul(partials)
	tempRe := vec.Filled(a.d, s.Max()).Div(s).Mul(a.temp)

	if tempRe.AllPositive() && tempRe.FirstNonFinite() < 0 {
		k := a.backSolveK(tempRe)

		a.config.Logger.Debug("reanneal rescaled temperatures",
			"k_before", a.stats.K,
			"k_after", k,
			"temperature_before", toFloat64s(a.temp),
			"temperature_after", toFloat64s(tempRe),
		)

		a.stats.K = k
		a.temp = clampTemperature(tempRe)
		a.config.Metrics.observeRescale(rescaleApplied)
	} else {
		a.config.Logger.Debug("reanneal kept temperatures, rescaled values not positive",
			"k", a.stats.K,
			"temperature_rescaled", toFloat64s(tempRe),
		)
		a.config.Metrics.observeRescale(rescaleNonPositive)
	}

	a.resetStats()

	return nil
}

// backSolveK returns the step index at which the cooling schedule reaches
// tempRe, averaged over dimensions. Rescaled temperatures above temp0 map to
// step 0 for their dimension. The result is at least 1.
func (a *Anneal[T]) backSolveK(tempRe vec.Vector[T]) int {
	var sum float64

	for i := range tempRe {
		r := math.Log(float64(a.temp0[i])/float64(tempRe[i])) / float64(a.c[i])
		if r < 0 {
			r = 0
		}

		sum += math.Pow(r, float64(a.d))
	}

	k := sum / float64(a.d)

	switch {
	case math.IsNaN(k) || k < 1:
		return 1
	case k >= math.MaxInt32:
		return math.MaxInt32
	default:
		return int(k)
	}
}

// resetStats clears the counters describing the trials since the last
// reanneal. TotalAccepted and the history are kept.
func (a *Anneal[T]) resetStats() {
	a.stats.Improved = 0
	a.stats.Worse = 0
	a.stats.WorseAccepted = 0
	a.stats.Accepted = 0
	a.stats.KSinceReanneal = 0
}
