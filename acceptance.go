package asa

import (
	"math"
)

//////
// Acceptance test.
//
// Decides whether the candidate replaces the current point, balancing
// exploitation (always take improvements) with exploration (sometimes take a
// worse point, less and less often as the acceptance temperature falls).
//////

// acceptanceCheck runs the Metropolis test on the candidate, moves the
// current point when it passes, and keeps the statistics and the best record
// up to date.
//
// How it works:
// - The candidate is "improved" when it beats the current objective in the
//   configured direction, "worse" otherwise
// - It is accepted when p > u, with p = acceptanceProbability() and u a
//   uniform draw in [0, 1)
// - Improvements always have p >= 1, so they are always accepted
func (a *Anneal[T]) acceptanceCheck() {
	better := improves(a.config.Direction, a.fxCand, a.fx)
	if better {
		a.stats.Improved++
	} else {
		a.stats.Worse++
	}

	p := a.acceptanceProbability()
	u := a.config.Source.Float64()

	if !(p > u) {
		return
	}

	if !better {
		a.stats.WorseAccepted++
	}

	a.x = a.xCand.Clone()
	a.fx = a.fxCand
	a.history = append(a.history, Sample[T]{X: a.x.Clone(), F: a.fx})
	a.stats.Accepted++
	a.stats.TotalAccepted++
	a.config.Metrics.observeAccepted(!better)

	a.updateBest()
}

// acceptanceProbability returns
//
//	p = exp(-loss / (eps + mean(temp_cost)))
//
// where loss is how much worse the candidate is than the current point
// (negative for an improvement) and eps the machine epsilon of T. A NaN loss,
// from two infinite objectives, yields a NaN p that never passes the test.
func (a *Anneal[T]) acceptanceProbability() float64 {
	loss := float64(a.fxCand) - float64(a.fx)
	if a.config.Direction == Maximize {
		loss = -loss
	}

	denom := float64(epsilon[T]() + a.tempCost.Mean())

	return math.Exp(-loss / denom)
}

// updateBest runs after the current point moved. Both tests compare against
// the best objective as it was before this update, so their order does not
// matter: a tie counts as a repeat, a strict improvement replaces the best
// and clears the repeats.
func (a *Anneal[T]) updateBest() {
	previous := a.fxBest

	if a.fx == previous {
		a.stats.BestRepeats++
	}

	if improves(a.config.Direction, a.fx, previous) {
		a.xBest = a.x.Clone()
		a.fxBest = a.fx
		a.stats.BestRepeats = 0
		a.config.Metrics.observeBest(float64(a.fxBest))
	}
}
