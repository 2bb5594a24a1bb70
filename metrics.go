package asa

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of a reanneal completion, used as the "outcome" label.
const (
	rescaleApplied     = "applied"
	rescaleNoSignal    = "no_signal"
	rescaleNonPositive = "non_positive"
)

// Metrics exposes the progress of annealers as Prometheus collectors.
//
// A nil *Metrics is valid and records nothing. One Metrics may be shared by
// several annealers; the counters then aggregate over all of them.
//
// Usage example:
//
//	config := DefaultConfig[float64]()
//	config.Metrics = NewMetrics(prometheus.DefaultRegisterer)
type Metrics struct {
	steps           prometheus.Counter
	evaluations     prometheus.Counter
	accepted        prometheus.Counter
	worseAccepted   prometheus.Counter
	reanneals       prometheus.Counter
	rescales        *prometheus.CounterVec
	bestObjective   prometheus.Gauge
	temperature     prometheus.Gauge
	costTemperature prometheus.Gauge
	evalDuration    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. It panics if
// registration fails, like promauto does.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		steps: f.NewCounter(prometheus.CounterOpts{
			Name: "asa_steps_total",
			Help: "Annealing steps taken",
		}),
		evaluations: f.NewCounter(prometheus.CounterOpts{
			Name: "asa_objective_evaluations_total",
			Help: "Objective values requested from the caller",
		}),
		accepted: f.NewCounter(prometheus.CounterOpts{
			Name: "asa_accepted_total",
			Help: "Candidates accepted as the current point",
		}),
		worseAccepted: f.NewCounter(prometheus.CounterOpts{
			Name: "asa_worse_accepted_total",
			Help: "Candidates accepted although not better than the current point",
		}),
		reanneals: f.NewCounter(prometheus.CounterOpts{
			Name: "asa_reanneals_total",
			Help: "Reanneal sample sets requested",
		}),
		rescales: f.NewCounterVec(prometheus.CounterOpts{
			Name: "asa_reanneal_completions_total",
			Help: "Reanneal completions by outcome",
		}, []string{"outcome"}),
		bestObjective: f.NewGauge(prometheus.GaugeOpts{
			Name: "asa_best_objective",
			Help: "Best objective value found",
		}),
		temperature: f.NewGauge(prometheus.GaugeOpts{
			Name: "asa_generation_temperature_mean",
			Help: "Mean generation temperature",
		}),
		costTemperature: f.NewGauge(prometheus.GaugeOpts{
			Name: "asa_acceptance_temperature_mean",
			Help: "Mean acceptance temperature",
		}),
		evalDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "asa_objective_duration_seconds",
			Help:    "Time to evaluate the objective",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}),
	}
}

func (m *Metrics) observeStep(temp, costTemp float64) {
	if m == nil {
		return
	}

	m.steps.Inc()
	m.temperature.Set(temp)
	m.costTemperature.Set(costTemp)
}

func (m *Metrics) observeEvaluations(n int) {
	if m == nil {
		return
	}

	m.evaluations.Add(float64(n))
}

func (m *Metrics) observeAccepted(worse bool) {
	if m == nil {
		return
	}

	m.accepted.Inc()

	if worse {
		m.worseAccepted.Inc()
	}
}

func (m *Metrics) observeBest(f float64) {
	if m == nil {
		return
	}

	m.bestObjective.Set(f)
}

func (m *Metrics) observeReanneal() {
	if m == nil {
		return
	}

	m.reanneals.Inc()
}

func (m *Metrics) observeRescale(outcome string) {
	if m == nil {
		return
	}

	m.rescales.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeEvalDuration(d time.Duration) {
	if m == nil {
		return
	}

	m.evalDuration.Observe(d.Seconds())
}
