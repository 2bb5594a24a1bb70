package asa

import (
	"math"

	"github.com/thalesfsp/asa/internal/vec"
	"golang.org/x/exp/constraints"
)

// coolingSchedule recomputes both temperature vectors from the current step
// indexes:
//
//	temp[i]      = temp0[i] exp(-c[i] k^(1/D))
//	temp_cost[i] = temp_cost0[i] exp(-c_cost[i] accepted^(1/D))
//
// accepted is the run total. Reannealing resets the per period counters but
// not this one, so the acceptance temperature keeps cooling across reanneals.
// Nothing else is carried over from the previous step, so a reanneal that
// rewrote k takes effect immediately.
func (a *Anneal[T]) coolingSchedule() {
	invD := 1 / float64(a.d)

	kPow := T(math.Pow(float64(a.stats.K), invD))
	accPow := T(math.Pow(float64(a.stats.TotalAccepted), invD))

	a.temp = clampTemperature(a.temp0.Mul(a.c.Scale(-kPow).Exp()))
	a.tempCost = clampTemperature(a.tempCost0.Mul(a.cCost.Scale(-accPow).Exp()))
}

// stopCheck reports whether the best objective repeated often enough.
func (a *Anneal[T]) stopCheck() bool {
	return a.stats.BestRepeats >= a.config.BestRepeatMax
}

// clampTemperature keeps every temperature at or above the smallest normal
// value of T, so the schedule stays strictly positive after underflow.
func clampTemperature[T constraints.Float](t vec.Vector[T]) vec.Vector[T] {
	floor := smallestNormal[T]()

	return t.Map(func(v T) T {
		if !(v >= floor) {
			return floor
		}

		return v
	})
}
