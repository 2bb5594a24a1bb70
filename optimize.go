package asa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/constraints"
	"golang.org/x/sync/errgroup"
)

//////
// Exported functionalities.
//////

// Optimize runs Adaptive Simulated Annealing against objective until the
// annealer is done, the step budget is spent, the context is canceled, or an
// error occurs.
//
// Type Parameter:
//   - T: The floating point type of the search space (float32 or float64)
//
// Parameters:
// - ctx: Cancels the run between steps; also passed to objective
// - config: Tunables and run settings (see Config)
// - objective: The function to minimize (or maximize, see Config.Direction)
// - initial: The starting point
// - ranges: One ParameterRange per dimension
//
// Returns:
// - *Result[T]: The best point found and the run statistics. It is returned
//   whenever the run started, even together with an error.
// - error: nil on convergence or budget exhaustion; ctx.Err() on
//   cancellation; the objective or annealer error otherwise
//
// Usage example:
//
//	config := DefaultConfig[float64]()
//	config.Source = NewSource(42)
//	config.MaxSteps = 100000
//
//	result, err := Optimize(ctx, config,
//	    func(_ context.Context, x []float64) (float64, error) {
//	        return (x[0]-1)*(x[0]-1) + (x[1]+2)*(x[1]+2), nil
//	    },
//	    []float64{0, 0},
//	    ParameterRange[float64]{Min: -10, Max: 10},
//	    ParameterRange[float64]{Min: -10, Max: 10},
//	)
//
// How it works:
// 1. Builds, configures and initializes an Anneal
// 2. For each step:
//   - Evaluates the candidate, or the candidate plus the reanneal sample set
//     concurrently (at most Config.SetConcurrency at a time)
//   - Calls Step
//   - Sends a ProgressUpdate if Config.ProgressChan is set
//
// 3. Returns the best point when the annealer reports StateDone
//
// Important notes:
// - Only the reanneal sample set is evaluated concurrently; objective must be
//   safe for concurrent use
// - Config.MaxSteps is the only guarantee of termination; the stop condition
//   detects a plateau, not convergence
func Optimize[T constraints.Float](
	ctx context.Context,
	config Config[T],
	objective ObjectiveFunc[T],
	initial []T,
	ranges ...ParameterRange[T],
) (*Result[T], error) {
	if objective == nil {
		return nil, fmt.Errorf("%w: nil objective", ErrInvalidConfig)
	}

	a, err := New(initial, ranges...)
	if err != nil {
		return nil, err
	}

	if err := a.Configure(config); err != nil {
		return nil, err
	}

	if err := a.Init(); err != nil {
		return nil, err
	}

	// Init filled the nil collaborators.
	config = a.Config()

	runID := uuid.NewString()
	logger := config.Logger.With(slog.String("run_id", runID))
	start := time.Now()

	result := func(status Status) *Result[T] {
		best, fBest := a.Best()

		return &Result[T]{
			RunID:         runID,
			Status:        status,
			Best:          best,
			BestObjective: fBest,
			Stats:         a.Stats(),
			History:       a.History(),
			Duration:      time.Since(start),
		}
	}

	logger.Info("optimization started",
		"dimensions", a.Dimensions(),
		"direction", config.Direction.String(),
		"max_steps", config.MaxSteps,
	)

	for a.State() != StateDone {
		if err := ctx.Err(); err != nil {
			logger.Warn("optimization canceled", "steps", a.Stats().Steps, "error", err)

			return result(StatusCanceled), err
		}

		if config.MaxSteps > 0 && a.Stats().Steps >= config.MaxSteps {
			r := result(StatusBudgetExhausted)

			logger.Info("optimization stopped, step budget exhausted",
				"steps", r.Stats.Steps,
				"best_objective", float64(r.BestObjective),
			)

			return r, nil
		}

		if err := supplyObjectives(ctx, a, objective, config); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result(StatusCanceled), err
			}

			logger.Error("objective failed", "steps", a.Stats().Steps, "error", err)

			return result(StatusFailed), err
		}

		if err := a.Step(); err != nil {
			return result(StatusFailed), fmt.Errorf("step %d: %w", a.Stats().Steps, err)
		}

		sendProgress(config.ProgressChan, runID, a)
	}

	r := result(StatusConverged)

	logger.Info("optimization complete",
		"elapsed", r.Duration,
		"steps", r.Stats.Steps,
		"evaluations", r.Stats.Evaluations,
		"reanneals", r.Stats.Reanneals,
		"best_objective", float64(r.BestObjective),
	)

	return r, nil
}

//////
// Helpers.
//////

// supplyObjectives evaluates whatever the annealer's state demands.
func supplyObjectives[T constraints.Float](
	ctx context.Context,
	a *Anneal[T],
	objective ObjectiveFunc[T],
	config Config[T],
) error {
	switch a.State() {
	case StateNeedsObjective:
		f, err := evaluate(ctx, objective, a.Candidate(), config.Metrics)
		if err != nil {
			return err
		}

		return a.SetObjective(f)
	case StateNeedsObjectiveSet:
		return supplySet(ctx, a, objective, config)
	default:
		return fmt.Errorf("%w: no objective to supply in state %s", ErrWrongState, a.State())
	}
}

// supplySet evaluates the pending candidate and the reanneal sample set
// concurrently. The annealer is only touched from the calling goroutine.
func supplySet[T constraints.Float](
	ctx context.Context,
	a *Anneal[T],
	objective ObjectiveFunc[T],
	config Config[T],
) error {
	points := append([][]T{a.Candidate()}, a.CandidateSet()...)
	values := make([]T, len(points))

	g, gCtx := errgroup.WithContext(ctx)
	if config.SetConcurrency > 0 {
		g.SetLimit(config.SetConcurrency)
	}

	for i, x := range points {
		g.Go(func() error {
			f, err := evaluate(gCtx, objective, x, config.Metrics)
			if err != nil {
				return err
			}

			values[i] = f

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if err := a.SetObjective(values[0]); err != nil {
		return err
	}

	for i, f := range values[1:] {
		if err := a.SetSetObjective(i, f); err != nil {
			return err
		}
	}

	return nil
}

// evaluate calls objective and records how long it took.
func evaluate[T constraints.Float](ctx context.Context, objective ObjectiveFunc[T], x []T, m *Metrics) (T, error) {
	start := time.Now()
	f, err := objective(ctx, x)
	m.observeEvalDuration(time.Since(start))

	if err != nil {
		return 0, fmt.Errorf("asa: objective at %v: %w", x, err)
	}

	return f, nil
}

// sendProgress publishes the state after a step without blocking.
func sendProgress[T constraints.Float](ch chan<- ProgressUpdate[T], runID string, a *Anneal[T]) {
	if ch == nil {
		return
	}

	current, fCurrent := a.Current()
	best, fBest := a.Best()
	temp, _ := a.Temperatures()

	var mean T
	for _, t := range temp {
		mean += t
	}

	mean /= T(len(temp))

	update := ProgressUpdate[T]{
		RunID:            runID,
		State:            a.State(),
		Step:             a.Stats().Steps,
		Current:          current,
		CurrentObjective: fCurrent,
		Best:             best,
		BestObjective:    fBest,
		MeanTemperature:  mean,
	}

	select {
	case ch <- update:
	default:
		// Skip update if channel is full.
	}
}
