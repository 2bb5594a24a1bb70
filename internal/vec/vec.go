// Package vec provides the small set of elementwise operations the annealer
// needs over fixed-length real vectors.
//
// Every operation has value semantics: the receiver and arguments are never
// modified and a freshly allocated Vector is returned. Binary operations panic
// when the operands differ in length, the same way indexing out of range would.
package vec

import (
	"math"

	"golang.org/x/exp/constraints"
)

//////
// Const, vars, types.
//////

// Vector is an ordered list of real numbers.
type Vector[T constraints.Float] []T

// Source draws uniform values in [0, 1).
type Source interface {
	Float64() float64
}

//////
// Factory.
//////

// Filled returns a vector of length n with every element set to v.
func Filled[T constraints.Float](n int, v T) Vector[T] {
	out := make(Vector[T], n)
	for i := range out {
		out[i] = v
	}

	return out
}

// Random returns a vector of length n filled with uniform draws from src.
func Random[T constraints.Float](n int, src Source) Vector[T] {
	out := make(Vector[T], n)
	for i := range out {
		out[i] = T(src.Float64())
	}

	return out
}

//////
// Methods.
//////

// Clone returns an independent copy of v.
func (v Vector[T]) Clone() Vector[T] {
	out := make(Vector[T], len(v))
	copy(out, v)

	return out
}

// Add returns v + w elementwise.
func (v Vector[T]) Add(w Vector[T]) Vector[T] {
	return v.zip(w, func(a, b T) T { return a + b })
}

// Sub returns v - w elementwise.
func (v Vector[T]) Sub(w Vector[T]) Vector[T] {
	return v.zip(w, func(a, b T) T { return a - b })
}

// Mul returns v * w elementwise.
func (v Vector[T]) Mul(w Vector[T]) Vector[T] {
	return v.zip(w, func(a, b T) T { return a * b })
}

// Div returns v / w elementwise. Division by zero follows IEEE 754.
func (v Vector[T]) Div(w Vector[T]) Vector[T] {
	return v.zip(w, func(a, b T) T { return a / b })
}

// Pow returns v[i] raised to w[i].
func (v Vector[T]) Pow(w Vector[T]) Vector[T] {
	return v.zip(w, func(a, b T) T { return T(math.Pow(float64(a), float64(b))) })
}

// Scale returns v * s.
func (v Vector[T]) Scale(s T) Vector[T] {
	return v.Map(func(a T) T { return a * s })
}

// Shift returns v + s.
func (v Vector[T]) Shift(s T) Vector[T] {
	return v.Map(func(a T) T { return a + s })
}

// PowScalar returns v[i] raised to p.
func (v Vector[T]) PowScalar(p T) Vector[T] {
	return v.Map(func(a T) T { return T(math.Pow(float64(a), float64(p))) })
}

// Exp returns e^v[i].
func (v Vector[T]) Exp() Vector[T] {
	return v.Map(func(a T) T { return T(math.Exp(float64(a))) })
}

// Log returns the natural logarithm of v[i].
func (v Vector[T]) Log() Vector[T] {
	return v.Map(func(a T) T { return T(math.Log(float64(a))) })
}

// Abs returns |v[i]|.
func (v Vector[T]) Abs() Vector[T] {
	return v.Map(func(a T) T { return T(math.Abs(float64(a))) })
}

// Signum returns -1, 0 or 1 according to the sign of v[i].
func (v Vector[T]) Signum() Vector[T] {
	return v.Map(func(a T) T {
		switch {
		case a > 0:
			return 1
		case a < 0:
			return -1
		default:
			return 0
		}
	})
}

// Map applies fn to every element.
func (v Vector[T]) Map(fn func(T) T) Vector[T] {
	out := make(Vector[T], len(v))
	for i, a := range v {
		out[i] = fn(a)
	}

	return out
}

// Sum returns the sum of the elements.
func (v Vector[T]) Sum() T {
	var sum T
	for _, a := range v {
		sum += a
	}

	return sum
}

// Mean returns the arithmetic mean, or 0 for an empty vector.
func (v Vector[T]) Mean() T {
	if len(v) == 0 {
		return 0
	}

	return v.Sum() / T(len(v))
}

// Max returns the largest element. It panics on an empty vector.
func (v Vector[T]) Max() T {
	m := v[0]
	for _, a := range v[1:] {
		if a > m {
			m = a
		}
	}

	return m
}

// Min returns the smallest element. It panics on an empty vector.
func (v Vector[T]) Min() T {
	m := v[0]
	for _, a := range v[1:] {
		if a < m {
			m = a
		}
	}

	return m
}

// AllPositive reports whether every element is strictly greater than zero.
// NaN is not positive.
func (v Vector[T]) AllPositive() bool {
	for _, a := range v {
		if !(a > 0) {
			return false
		}
	}

	return true
}

// AllZero reports whether every element equals zero.
func (v Vector[T]) AllZero() bool {
	for _, a := range v {
		if a != 0 {
			return false
		}
	}

	return true
}

// HasZero reports whether any element equals zero.
func (v Vector[T]) HasZero() bool {
	for _, a := range v {
		if a == 0 {
			return true
		}
	}

	return false
}

// FirstNonFinite returns the index of the first NaN or infinite element, or
// -1 when every element is finite.
func (v Vector[T]) FirstNonFinite() int {
	for i, a := range v {
		f := float64(a)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return i
		}
	}

	return -1
}

// Within reports whether lo[i] <= v[i] <= hi[i] for every i. NaN is never
// within bounds.
func (v Vector[T]) Within(lo, hi Vector[T]) bool {
	if len(lo) != len(v) || len(hi) != len(v) {
		panic("vec: length mismatch")
	}

	for i, a := range v {
		if !(a >= lo[i] && a <= hi[i]) {
			return false
		}
	}

	return true
}

// Equal reports whether v and w hold exactly the same values.
func (v Vector[T]) Equal(w Vector[T]) bool {
	if len(v) != len(w) {
		return false
	}

	for i := range v {
		if v[i] != w[i] {
			return false
		}
	}

	return true
}

//////
// Helpers.
//////

func (v Vector[T]) zip(w Vector[T], fn func(a, b T) T) Vector[T] {
	if len(v) != len(w) {
		panic("vec: length mismatch")
	}

	out := make(Vector[T], len(v))
	for i := range v {
		out[i] = fn(v[i], w[i])
	}

	return out
}
