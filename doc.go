// Package asa provides derivative-free global optimization with Lester
// Ingber's Adaptive Simulated Annealing (ASA). It searches a box of real
// parameters for the minimum (or maximum) of a black-box objective.
//
// # Features
//
// The package includes the following key features:
//
//   - Per-dimension temperatures: every parameter has its own generation
//     temperature, cooled on an exponential schedule in k^(1/D)
//   - Reannealing: the objective's sensitivity to each parameter is estimated
//     periodically and the temperatures are rescaled to balance the search
//   - Caller driven: the annealer is a state machine that asks for objective
//     values instead of calling a function, so evaluations can be expensive,
//     remote or batched
//   - Generic Implementation: works with float32 and float64 search spaces
//   - Reproducible: the random source is injected
//   - Convenience driver: Optimize runs the whole protocol against a Go
//     function, with a step budget, cancellation and progress updates
//   - Prometheus metrics and structured logging with log/slog
//
// # Installation
//
// To install the package, use:
//
//	go get github.com/thalesfsp/asa
//
// # Driving the annealer
//
// The caller creates an annealer, optionally changes its configuration, calls
// Init and then loops on State:
//
//   - StateNeedsObjective: evaluate Candidate, call SetObjective
//   - StateNeedsObjectiveSet: evaluate Candidate and every point of
//     CandidateSet, call SetObjective and SetSetObjective
//   - StateDone: read Best
//
// and calls Step after supplying the values. Calling Step without them is a
// usage error (ErrObjectiveMissing) and changes nothing.
//
//	a, _ := New([]float64{4}, ParameterRange[float64]{Min: -5, Max: 5})
//	_ = a.Init()
//	for a.State() != StateDone {
//	    // supply values, then
//	    if err := a.Step(); err != nil {
//	        return err
//	    }
//	}
//
// # Using Optimize
//
// When the objective is a plain Go function, Optimize does the loop:
//
//	config := DefaultConfig[float64]()
//	config.Source = NewSource(42)
//	config.MaxSteps = 200000
//
//	result, err := Optimize(ctx, config, objective, []float64{4},
//	    ParameterRange[float64]{Min: -5, Max: 5})
//
// # Configuration
//
// The Config struct allows customization of the search:
//
//	type Config[T constraints.Float] struct {
//	    Direction               Direction // Minimize or Maximize
//	    TemperatureRatioScale   T         // m = -ln(scale)
//	    TemperatureAnnealScale  T         // n = ln(scale)
//	    CostParameterScaleRatio T         // acceptance vs generation temperature
//	    AccGenReannealRatio     T         // reanneal below this acceptance ratio
//	    ReannealAfterSteps      int       // reanneal at least this often
//	    PartialsSamples         int       // samples per sensitivity estimate
//	    BestRepeatMax           int       // plateau length that ends the search
//	    MaxGenerateAttempts     int       // generator retry cap
//	    ...
//	}
//
// # Errors
//
// Usage errors (ErrNotInitialized, ErrObjectiveMissing, ErrWrongState,
// ErrDone) leave the annealer untouched. A *GenerationError (the bounds
// cannot be met at the current temperature) and a *SensitivityError (the
// objective produced a non-finite sensitivity) end the run: Step keeps
// returning them.
//
// # Thread Safety
//
// An Anneal must be driven by one goroutine. The objective values of a
// reanneal sample set are independent and may be computed in parallel, which
// is what Optimize does.
package asa
