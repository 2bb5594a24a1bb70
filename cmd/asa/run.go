package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/thalesfsp/asa"
	"github.com/thalesfsp/asa/internal/config"
	"gonum.org/v1/gonum/floats"
)

var (
	configPath    string
	function      string
	dims          int
	lower         float64
	upper         float64
	seed          int64
	maximize      bool
	maxSteps      int
	metricsAddr   string
	progressEvery int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one annealing search",
	Long: `Runs Adaptive Simulated Annealing on a benchmark function and prints the
best point found. Settings come from the defaults, then --config, then the
ASA_* environment variables, then the flags given on the command line.`,
	RunE: runAnnealing,
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	runCmd.Flags().StringVar(&function, "function", "rosenbrock", "Benchmark function (see `asa functions`)")
	runCmd.Flags().IntVar(&dims, "dim", 2, "Number of dimensions")
	runCmd.Flags().Float64Var(&lower, "lower", -5, "Lower bound of every dimension")
	runCmd.Flags().Float64Var(&upper, "upper", 5, "Upper bound of every dimension")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	runCmd.Flags().BoolVar(&maximize, "maximize", false, "Maximize instead of minimize")
	runCmd.Flags().IntVar(&maxSteps, "max-steps", 1000000, "Step budget, 0 for unlimited")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	runCmd.Flags().IntVar(&progressEvery, "progress-every", 10000, "Log progress every N steps, 0 to disable")

	rootCmd.AddCommand(runCmd)
}

func runAnnealing(cmd *cobra.Command, args []string) error {
	file, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	b, err := lookupBenchmark(file.Problem.Function, file.Problem.Dimensions)
	if err != nil {
		return err
	}

	cfg, err := file.Config()
	if err != nil {
		return err
	}

	cfg.Logger = logger

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		cfg.Metrics = asa.NewMetrics(reg)

		stopMetrics := serveMetrics(reg, metricsAddr)
		defer stopMetrics()
	}

	if progressEvery > 0 {
		progressChan := make(chan asa.ProgressUpdate[float64], 100)
		defer close(progressChan)

		cfg.ProgressChan = progressChan

		go logProgress(progressChan, progressEvery)
	}

	objective := func(_ context.Context, x []float64) (float64, error) {
		return b.fn(x), nil
	}

	logger.Info("Starting annealing",
		"function", file.Problem.Function,
		"dimensions", file.Problem.Dimensions,
		"direction", cfg.Direction.String(),
		"max_steps", cfg.MaxSteps,
	)

	result, err := asa.Optimize(ctx, cfg, objective, file.InitialPoint(), file.Ranges()...)
	if err != nil && result == nil {
		return err
	}

	logger.Info("Annealing complete",
		"run_id", result.RunID,
		"status", result.Status.String(),
		"elapsed", result.Duration,
		"steps", result.Stats.Steps,
		"evaluations", result.Stats.Evaluations,
		"reanneals", result.Stats.Reanneals,
		"best_objective", result.BestObjective,
	)

	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "status: %s\n", result.Status)
	fmt.Fprintf(out, "best: %v\n", result.Best)
	fmt.Fprintf(out, "objective: %g\n", result.BestObjective)

	if cfg.Direction == asa.Minimize {
		fmt.Fprintf(out, "known minimum: %g\n", b.minimum)

		if b.minimizer != nil {
			fmt.Fprintf(out, "distance to minimizer: %g\n", floats.Distance(result.Best, b.minimizer(len(result.Best)), 2))
		}
	}

	fmt.Fprintf(out, "steps: %d, evaluations: %d, reanneals: %d, elapsed: %s\n",
		result.Stats.Steps, result.Stats.Evaluations, result.Stats.Reanneals, result.Duration)

	return err
}

// loadRunConfig reads --config and lets explicitly set flags win.
func loadRunConfig(cmd *cobra.Command) (config.File, error) {
	file, err := config.Load(configPath)
	if err != nil {
		return file, err
	}

	flags := cmd.Flags()

	if flags.Changed("function") {
		file.Problem.Function = function
	}

	if flags.Changed("dim") {
		file.Problem.Dimensions = dims
	}

	if flags.Changed("lower") {
		file.Problem.Lower = lower
	}

	if flags.Changed("upper") {
		file.Problem.Upper = upper
	}

	if flags.Changed("seed") || file.Run.Seed == nil {
		file.Run.Seed = &seed
	}

	if flags.Changed("maximize") {
		file.Direction = asa.Minimize.String()
		if maximize {
			file.Direction = asa.Maximize.String()
		}
	}

	if flags.Changed("max-steps") {
		file.Run.MaxSteps = maxSteps
	}

	if err := file.Validate(); err != nil {
		return file, fmt.Errorf("invalid settings: %w", err)
	}

	return file, nil
}

// serveMetrics exposes reg on addr until the returned function is called.
func serveMetrics(reg *prometheus.Registry, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Serving metrics", "addr", addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(ctx)
	}
}

// logProgress logs every n-th step until ch is closed.
func logProgress(ch <-chan asa.ProgressUpdate[float64], n int) {
	for update := range ch {
		if update.Step%n != 0 {
			continue
		}

		logger.Info("Progress",
			"run_id", update.RunID,
			"step", update.Step,
			"state", update.State.String(),
			"best_objective", update.BestObjective,
			"current_objective", update.CurrentObjective,
			"mean_temperature", update.MeanTemperature,
		)
	}
}
