package firewalld

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the synchronizer's commit counters and latency histogram.
// A nil *Metrics (the Synchronizer default) disables recording entirely.
type Metrics struct {
	CommitTotal   *prometheus.CounterVec
	CommitLatency prometheus.Histogram
}

// NewMetrics registers commit metrics against reg. Pass
// prometheus.DefaultRegisterer for the global registry, or a fresh
// prometheus.NewRegistry() in tests to avoid collisions across cases.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CommitTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "firewalld_commit_total",
			Help: "Total synchronizer commits, by outcome",
		}, []string{"outcome"}),
		CommitLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "firewalld_commit_duration_seconds",
			Help:    "Synchronizer commit latency",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveCommit records the outcome and latency of one Commit call.
func (m *Metrics) ObserveCommit(success bool, seconds float64) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.CommitTotal.WithLabelValues(outcome).Inc()
	m.CommitLatency.Observe(seconds)
}
