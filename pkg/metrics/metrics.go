// Package metrics publishes leader-election observability via Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "leaderelection"

// Recorder publishes election status, transitions, and errors to Prometheus.
// All methods are safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	status      *prometheus.GaugeVec
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	errors      *prometheus.CounterVec
}

// Config holds configuration for the Prometheus recorder.
type Config struct {
	Namespace string
}

// New creates a Recorder and registers its collectors.
func New(cfg Config) *Recorder {
	if cfg.Namespace == "" {
		cfg.Namespace = defaultNamespace
	}

	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "leader_status",
			Help:      "1 if this instance currently holds the lease, 0 otherwise",
		}, []string{"lease_name", "identity"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "leader_transitions_total",
			Help:      "Total number of leadership transitions",
		}, []string{"lease_name", "identity", "transition"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "leadership_duration_seconds",
			Help:      "Duration of each leadership term in seconds",
			Buckets:   []float64{10, 30, 60, 300, 900, 3600, 14400},
		}, []string{"lease_name", "identity"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "leader_election_errors_total",
			Help:      "Total number of lease-client errors by operation",
		}, []string{"lease_name", "identity", "operation"}),
	}

	registry.MustRegister(r.status, r.transitions, r.duration, r.errors)

	return r
}

// Handler returns an HTTP handler serving the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry for custom integrations.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// SetLeader records whether leaseName/identity currently holds the lease.
func (r *Recorder) SetLeader(leaseName, identity string, isLeader bool) {
	v := 0.0
	if isLeader {
		v = 1.0
	}
	r.status.WithLabelValues(leaseName, identity).Set(v)
}

// RecordTransition increments the transition counter ("elected" or "lost").
func (r *Recorder) RecordTransition(leaseName, identity, transition string) {
	r.transitions.WithLabelValues(leaseName, identity, transition).Inc()
}

// ObserveLeadershipDuration records the length of a completed leadership term.
func (r *Recorder) ObserveLeadershipDuration(leaseName, identity string, seconds float64) {
	r.duration.WithLabelValues(leaseName, identity).Observe(seconds)
}

// RecordError increments the error counter for a failed lease operation.
func (r *Recorder) RecordError(leaseName, identity, operation string) {
	r.errors.WithLabelValues(leaseName, identity, operation).Inc()
}
