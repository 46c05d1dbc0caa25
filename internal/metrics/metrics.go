// Package metrics provides Prometheus instrumentation for pipeline runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fraudgrid"

// Node outcomes used as label values.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// Metrics groups the collectors of one process. A nil *Metrics is valid and
// records nothing, which keeps instrumentation optional for library callers.
type Metrics struct {
	registry *prometheus.Registry

	// NodeExecutions counts node executions by node and outcome.
	NodeExecutions *prometheus.CounterVec
	// NodeDuration observes node run time.
	NodeDuration *prometheus.HistogramVec
	// Runs counts pipeline runs by result.
	Runs *prometheus.CounterVec
	// Flagged counts rule hits by rule name.
	Flagged *prometheus.CounterVec
	// SourceFailures counts skipped ingestion sources by kind.
	SourceFailures *prometheus.CounterVec
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		NodeExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_executions_total",
				Help:      "Total node executions by node and outcome.",
			},
			[]string{"node", "outcome"},
		),
		NodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "node_duration_seconds",
				Help:      "Node execution duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"node"},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total pipeline runs by result.",
			},
			[]string{"result"},
		),
		Flagged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "flagged_transactions_total",
				Help:      "Total rule hits on transactions by rule.",
			},
			[]string{"rule"},
		),
		SourceFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_failures_total",
				Help:      "Total ingestion sources skipped after an error, by kind.",
			},
			[]string{"kind"},
		),
	}
	m.registry.MustRegister(m.NodeExecutions, m.NodeDuration, m.Runs, m.Flagged, m.SourceFailures)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveNode records one node outcome.
func (m *Metrics) ObserveNode(name, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.NodeExecutions.WithLabelValues(name, outcome).Inc()
	if outcome != OutcomeSkipped {
		m.NodeDuration.WithLabelValues(name).Observe(d.Seconds())
	}
}

// ObserveRun records the result of a whole run.
func (m *Metrics) ObserveRun(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.Runs.WithLabelValues(result).Inc()
}

// ObserveRule records a rule firing on a transaction.
func (m *Metrics) ObserveRule(rule string) {
	if m == nil {
		return
	}
	m.Flagged.WithLabelValues(rule).Inc()
}

// PresetRules exports a zero count for every rule before any fires.
func (m *Metrics) PresetRules(rules ...string) {
	if m == nil {
		return
	}
	for _, rule := range rules {
		m.Flagged.WithLabelValues(rule)
	}
}

// ObserveSourceFailure records a skipped source.
func (m *Metrics) ObserveSourceFailure(kind string) {
	if m == nil {
		return
	}
	m.SourceFailures.WithLabelValues(kind).Inc()
}
