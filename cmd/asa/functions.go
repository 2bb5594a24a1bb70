package main

import (
	"fmt"
	"math"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize/functions"
)

// benchmark is a test objective with a known optimum.
type benchmark struct {
	description string

	// dims is the required number of dimensions, 0 for any.
	dims int

	fn func(x []float64) float64

	// minimum is the optimal objective value.
	minimum float64

	// minimizer returns the optimal point, or nil when it is not unique.
	minimizer func(dim int) []float64
}

var benchmarks = map[string]benchmark{
	"sphere": {
		description: "Sum of squares, minimum 0 at the origin",
		fn:          func(x []float64) float64 { return floats.Dot(x, x) },
		minimizer:   filled(0),
	},
	"rastrigin": {
		description: "Highly multimodal, minimum 0 at the origin",
		fn:          rastrigin,
		minimizer:   filled(0),
	},
	"ackley": {
		description: "Nearly flat outer region with a central hole, minimum 0 at the origin",
		fn:          ackley,
		minimizer:   filled(0),
	},
	"rosenbrock": {
		description: "Extended Rosenbrock banana valley, minimum 0 at (1, ..., 1)",
		fn:          functions.ExtendedRosenbrock{}.Func,
		minimizer:   filled(1),
	},
	"beale": {
		description: "Beale, minimum 0 at (3, 0.5)",
		dims:        2,
		fn:          functions.Beale{}.Func,
		minimizer:   func(int) []float64 { return []float64{3, 0.5} },
	},
	"branin": {
		description: "Branin-Hoo, three global minima of 0.397887",
		dims:        2,
		fn:          functions.BraninHoo{}.Func,
		minimum:     0.397887,
	},
	"helical-valley": {
		description: "Helical valley, minimum 0 at (1, 0, 0)",
		dims:        3,
		fn:          functions.HelicalValley{}.Func,
		minimizer:   func(int) []float64 { return []float64{1, 0, 0} },
	},
	"wood": {
		description: "Wood, minimum 0 at (1, 1, 1, 1)",
		dims:        4,
		fn:          functions.Wood{}.Func,
		minimizer:   filled(1),
	},
}

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List the benchmark objectives",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

		fmt.Fprintln(w, "NAME\tDIMENSIONS\tDESCRIPTION")

		for _, name := range benchmarkNames() {
			b := benchmarks[name]

			dims := "any"
			if b.dims > 0 {
				dims = fmt.Sprint(b.dims)
			}

			fmt.Fprintf(w, "%s\t%s\t%s\n", name, dims, b.description)
		}

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(functionsCmd)
}

// lookupBenchmark returns the named benchmark after checking it supports dim.
func lookupBenchmark(name string, dim int) (benchmark, error) {
	b, ok := benchmarks[name]
	if !ok {
		return b, fmt.Errorf("unknown function %q (see `asa functions`)", name)
	}

	if b.dims > 0 && b.dims != dim {
		return b, fmt.Errorf("function %q needs %d dimensions, got %d", name, b.dims, dim)
	}

	return b, nil
}

func benchmarkNames() []string {
	names := make([]string, 0, len(benchmarks))
	for name := range benchmarks {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func filled(v float64) func(int) []float64 {
	return func(dim int) []float64 {
		x := make([]float64, dim)
		for i := range x {
			x[i] = v
		}

		return x
	}
}

func rastrigin(x []float64) float64 {
	sum := 10 * float64(len(x))
	for _, v := range x {
		sum += v*v - 10*math.Cos(2*math.Pi*v)
	}

	return sum
}

func ackley(x []float64) float64 {
	n := float64(len(x))

	var cosSum float64
	for _, v := range x {
		cosSum += math.Cos(2 * math.Pi * v)
	}

	return -20*math.Exp(-0.2*math.Sqrt(floats.Dot(x, x)/n)) - math.Exp(cosSum/n) + 20 + math.E
}
