// Package metrics exposes Prometheus collectors for analysis runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MikeSquared-Agency/Arbiter/internal/analysis"
)

const (
	OutcomeOK           = "ok"
	OutcomeInconsistent = "inconsistent"
	OutcomeError        = "error"
)

// Metrics records analysis outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	analyses    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	consistency prometheus.Histogram
	stability   prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbiter_analyses_total",
			Help: "Analysis runs by method and outcome.",
		}, []string{"method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arbiter_analysis_duration_seconds",
			Help:    "Wall time of an engine run, sensitivity included.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"method"}),
		consistency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arbiter_consistency_ratio",
			Help:    "AHP consistency ratio of accepted and rejected criteria judgments.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.075, 0.1, 0.15, 0.2, 0.3, 0.5, 1},
		}),
		stability: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arbiter_stability_index",
			Help:    "Ranking stability index of completed analyses.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
	}
	reg.MustRegister(m.analyses, m.duration, m.consistency, m.stability)
	return m
}

// ObserveRun counts a finished run and its duration.
func (m *Metrics) ObserveRun(method analysis.Method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(string(method), outcome).Inc()
	m.duration.WithLabelValues(string(method)).Observe(elapsed.Seconds())
}

// ObserveResults records quality indicators of a successful run.
func (m *Metrics) ObserveResults(r *analysis.AnalysisResults) {
	if m == nil || r == nil {
		return
	}
	if r.ConsistencyRatio != nil {
		m.consistency.Observe(*r.ConsistencyRatio)
	}
	if len(r.RankedOptions) > 0 {
		m.stability.Observe(r.Sensitivity.StabilityIndex)
	}
}

// ObserveConsistency records a ratio from a rejected AHP run.
func (m *Metrics) ObserveConsistency(ratio float64) {
	if m == nil {
		return
	}
	m.consistency.Observe(ratio)
}
