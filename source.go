package asa

import "math/rand"

// Source is the random number capability of the annealer. Float64 must
// return a uniform value in [0, 1).
//
// *math/rand.Rand satisfies Source. It is not safe for concurrent use, so a
// Source must not be shared between annealers running at the same time.
type Source interface {
	Float64() float64
}

// NewSource returns a deterministic Source seeded with seed. The same seed
// always reproduces the same run.
//
// Usage example:
//
//	config := DefaultConfig[float64]()
//	config.Source = NewSource(42)
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}
