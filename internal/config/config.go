// Package config loads annealing runs from YAML files.
//
// A file has three sections:
//
//	direction: minimize
//	annealing:
//	  temperature_ratio_scale: 1.0e-5
//	  temperature_anneal_scale: 100
//	  reanneal_after_steps: 100
//	problem:
//	  function: rosenbrock
//	  dimensions: 2
//	  lower: -5
//	  upper: 5
//	run:
//	  seed: 42
//	  max_steps: 200000
//
// Missing keys keep the values of Default. Environment variables prefixed
// with ASA_ override the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/thalesfsp/asa"
	"gopkg.in/yaml.v3"
)

//////
// Const, vars, types.
//////

var validate = validator.New(validator.WithRequiredStructEnabled())

// File is the on-disk configuration of a run.
type File struct {
	// Direction is "minimize" or "maximize".
	Direction string `yaml:"direction" validate:"oneof=minimize maximize"`

	Annealing Annealing `yaml:"annealing"`
	Problem   Problem   `yaml:"problem"`
	Run       Run       `yaml:"run"`
}

// Annealing holds the tunables of the annealer. See asa.Config.
type Annealing struct {
	TemperatureRatioScale   float64 `yaml:"temperature_ratio_scale"`
	TemperatureAnnealScale  float64 `yaml:"temperature_anneal_scale"`
	CostParameterScaleRatio float64 `yaml:"cost_parameter_scale_ratio"`
	AccGenReannealRatio     float64 `yaml:"acc_gen_reanneal_ratio"`
	ReannealAfterSteps      int     `yaml:"reanneal_after_steps"`
	PartialsSamples         int     `yaml:"partials_samples"`
	BestRepeatMax           int     `yaml:"best_repeat_max"`
	MaxGenerateAttempts     int     `yaml:"max_generate_attempts"`
}

// Problem describes the benchmark objective and its search box. Every
// dimension shares the same [Lower, Upper] range.
type Problem struct {
	Function   string    `yaml:"function" validate:"required"`
	Dimensions int       `yaml:"dimensions" validate:"gte=1"`
	Lower      float64   `yaml:"lower"`
	Upper      float64   `yaml:"upper" validate:"gtfield=Lower"`
	Initial    []float64 `yaml:"initial,omitempty"`
}

// Run holds the driver settings.
type Run struct {
	// Seed of the random source. Nil means time seeded.
	Seed *int64 `yaml:"seed,omitempty"`

	MaxSteps       int `yaml:"max_steps" validate:"gte=0"`
	SetConcurrency int `yaml:"set_concurrency" validate:"gte=0"`
}

//////
// Exported functionalities.
//////

// Default returns the reference annealing settings for a 2D Rosenbrock run.
func Default() File {
	c := asa.DefaultConfig[float64]()

	return File{
		Direction: asa.Minimize.String(),
		Annealing: Annealing{
			TemperatureRatioScale:   c.TemperatureRatioScale,
			TemperatureAnnealScale:  c.TemperatureAnnealScale,
			CostParameterScaleRatio: c.CostParameterScaleRatio,
			AccGenReannealRatio:     c.AccGenReannealRatio,
			ReannealAfterSteps:      c.ReannealAfterSteps,
			PartialsSamples:         c.PartialsSamples,
			BestRepeatMax:           c.BestRepeatMax,
			MaxGenerateAttempts:     c.MaxGenerateAttempts,
		},
		Problem: Problem{
			Function:   "rosenbrock",
			Dimensions: 2,
			Lower:      -5,
			Upper:      5,
		},
		Run: Run{
			MaxSteps: 1000000,
		},
	}
}

// Load returns Default overlaid with the file at path (if path is not
// empty) and the ASA_* environment variables, then validates the result.
func Load(path string) (File, error) {
	f := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return f, fmt.Errorf("read config file: %w", err)
		}

		if err := Decode(bytes.NewReader(data), &f); err != nil {
			return f, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&f, os.LookupEnv); err != nil {
		return f, err
	}

	if err := f.Validate(); err != nil {
		return f, fmt.Errorf("invalid config: %w", err)
	}

	return f, nil
}

// Decode reads YAML from r into f. Keys absent from r leave f untouched;
// unknown keys are an error.
func Decode(r io.Reader, f *File) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}

// Validate checks the file level fields and the annealing tunables.
func (f File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return err
	}

	if n := len(f.Problem.Initial); n > 0 && n != f.Problem.Dimensions {
		return fmt.Errorf("problem.initial has %d values for %d dimensions", n, f.Problem.Dimensions)
	}

	_, err := f.Config()

	return err
}

// Config converts the file into an annealer configuration. The ambient
// fields (Logger, Metrics, ProgressChan) are left for the caller.
func (f File) Config() (asa.Config[float64], error) {
	c := asa.DefaultConfig[float64]()

	if f.Direction == asa.Maximize.String() {
		c.Direction = asa.Maximize
	}

	c.TemperatureRatioScale = f.Annealing.TemperatureRatioScale
	c.TemperatureAnnealScale = f.Annealing.TemperatureAnnealScale
	c.CostParameterScaleRatio = f.Annealing.CostParameterScaleRatio
	c.AccGenReannealRatio = f.Annealing.AccGenReannealRatio
	c.ReannealAfterSteps = f.Annealing.ReannealAfterSteps
	c.PartialsSamples = f.Annealing.PartialsSamples
	c.BestRepeatMax = f.Annealing.BestRepeatMax
	c.MaxGenerateAttempts = f.Annealing.MaxGenerateAttempts
	c.MaxSteps = f.Run.MaxSteps
	c.SetConcurrency = f.Run.SetConcurrency

	if f.Run.Seed != nil {
		c.Source = asa.NewSource(*f.Run.Seed)
	}

	if err := c.Validate(); err != nil {
		return c, err
	}

	return c, nil
}

// Ranges returns the search box of the problem.
func (f File) Ranges() []asa.ParameterRange[float64] {
	out := make([]asa.ParameterRange[float64], f.Problem.Dimensions)
	for i := range out {
		out[i] = asa.ParameterRange[float64]{Min: f.Problem.Lower, Max: f.Problem.Upper}
	}

	return out
}

// InitialPoint returns Problem.Initial, or the middle of the box when it is
// not set.
func (f File) InitialPoint() []float64 {
	if len(f.Problem.Initial) > 0 {
		out := make([]float64, len(f.Problem.Initial))
		copy(out, f.Problem.Initial)

		return out
	}

	mid := (f.Problem.Lower + f.Problem.Upper) / 2

	out := make([]float64, f.Problem.Dimensions)
	for i := range out {
		out[i] = mid
	}

	return out
}

//////
// Helpers.
//////

// applyEnv overrides f from the environment.
func applyEnv(f *File, lookup func(string) (string, bool)) error {
	if v, ok := lookup("ASA_DIRECTION"); ok {
		f.Direction = strings.ToLower(v)
	}

	if v, ok := lookup("ASA_FUNCTION"); ok {
		f.Problem.Function = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"ASA_DIMENSIONS", &f.Problem.Dimensions},
		{"ASA_MAX_STEPS", &f.Run.MaxSteps},
		{"ASA_SET_CONCURRENCY", &f.Run.SetConcurrency},
		{"ASA_BEST_REPEAT_MAX", &f.Annealing.BestRepeatMax},
	}

	for _, e := range ints {
		v, ok := lookup(e.name)
		if !ok {
			continue
		}

		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", e.name, err)
		}

		*e.dst = i
	}

	if v, ok := lookup("ASA_SEED"); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("ASA_SEED: %w", err)
		}

		f.Run.Seed = &seed
	}

	return nil
}
