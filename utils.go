package asa

import (
	"math"

	"golang.org/x/exp/constraints"
)

//////
// Helper functions.
//////

// epsilon returns the machine epsilon of T.
func epsilon[T constraints.Float]() T {
	if isSinglePrecision[T]() {
		return T(math.Nextafter32(1, 2) - 1)
	}

	return T(math.Nextafter(1, 2) - 1)
}

// smallestNormal returns the smallest positive normal value of T. Temperatures
// are never allowed below it.
func smallestNormal[T constraints.Float]() T {
	if isSinglePrecision[T]() {
		return T(0x1p-126)
	}

	v := 0x1p-1022

	return T(v)
}

// isSinglePrecision reports whether T only has float32 precision.
func isSinglePrecision[T constraints.Float]() bool {
	// 1 + 2^-30 is representable in float64 but rounds to 1 in float32.
	one := T(1)
	tiny := T(0x1p-30)

	return one+tiny == one
}

// improves reports whether a is strictly better than b in direction d.
func improves[T constraints.Float](d Direction, a, b T) bool {
	if d == Maximize {
		return a > b
	}

	return a < b
}

// worstObjective returns the objective seed for direction d: +Inf when
// minimizing, -Inf when maximizing.
func worstObjective[T constraints.Float](d Direction) T {
	if d == Maximize {
		return T(math.Inf(-1))
	}

	return T(math.Inf(1))
}

// toFloat64s converts a vector for error reports.
func toFloat64s[T constraints.Float](v []T) []float64 {
	out := make([]float64, len(v))
	for i, a := range v {
		out[i] = float64(a)
	}

	return out
}

// clone returns an independent copy of v.
func clone[T constraints.Float](v []T) []T {
	out := make([]T, len(v))
	copy(out, v)

	return out
}
