package asa

import (
	"github.com/thalesfsp/asa/internal/vec"
)

// generateParameter draws a point around xStart from Ingber's generating
// distribution. For each dimension, with u uniform in [0, 1):
//
//	y = sign(u - 1/2) temp ((1 + 1/temp)^|2u - 1| - 1)
//
// The offsets spread over every scale between temp and roughly 1, so the
// search keeps taking occasional long jumps even when cold.
//
// Draws falling outside the bounds are rejected, and so are draws leaving
// some dimension unchanged when forceChange is set. After
// Config.MaxGenerateAttempts rejections a *GenerationError is returned.
func (a *Anneal[T]) generateParameter(xStart vec.Vector[T], forceChange bool) (vec.Vector[T], error) {
	scale := a.temp.Map(func(t T) T { return 1/t + 1 })

	for attempt := 0; attempt < a.config.MaxGenerateAttempts; attempt++ {
		u := vec.Random[T](a.d, a.config.Source)
		u2 := u.Scale(2).Shift(-1).Abs()
		sign := u.Shift(-0.5).Signum()

		y := sign.Mul(a.temp).Mul(scale.Pow(u2).Shift(-1))
		xNew := xStart.Add(y)

		if !xNew.Within(a.rangeMin, a.rangeMax) {
			continue
		}

		if forceChange && xNew.Sub(xStart).HasZero() {
			continue
		}

		return xNew, nil
	}

	return nil, &GenerationError{
		Attempts:    a.config.MaxGenerateAttempts,
		ForceChange: forceChange,
		Temperature: toFloat64s(a.temp),
	}
}

// generateNext draws the next candidate from the current point.
func (a *Anneal[T]) generateNext() error {
	x, err := a.generateParameter(a.x, false)
	if err != nil {
		return err
	}

	a.xCand = x

	return nil
}
