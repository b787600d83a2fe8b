// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dispatcher Metrics
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagetracker_commands_total",
			Help: "Total number of commands processed by the dispatcher",
		},
		[]string{"kind", "outcome"}, // outcome: "handled", "deferred", "malformed", "unknown", "panic"
	)

	CommandsPushed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagetracker_commands_pushed_total",
			Help: "Total number of commands appended to the dispatcher mailbox",
		},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagetracker_queue_depth",
			Help: "Commands currently held in the queue awaiting consent or processing",
		},
	)

	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagetracker_retries_total",
			Help: "Total number of commands re-queued after a failed send",
		},
		[]string{"kind"},
	)

	DropsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagetracker_drops_total",
			Help: "Total number of commands permanently dropped",
		},
		[]string{"kind", "reason"}, // reason: "retries_exhausted", "send_failed", "panic", "malformed", "unknown"
	)

	// Transport Metrics
	SendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagetracker_sends_total",
			Help: "Total number of HTTP sends to the collector",
		},
		[]string{"path", "result"}, // result: "success", "failure", "rejected"
	)

	SendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pagetracker_send_duration_seconds",
			Help:    "Duration of HTTP sends to the collector in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pagetracker_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagetracker_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Diagnostics Metrics
	DiagnosticsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagetracker_diagnostics_total",
			Help: "Total number of diagnostic entries by level",
		},
		[]string{"level"},
	)

	DiagnosticForwards = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagetracker_diagnostic_forwards_total",
			Help: "Total number of diagnostic entries forwarded to the collector",
		},
		[]string{"result"}, // result: "sent", "failed", "throttled", "skipped"
	)

	// Intake Metrics
	IntakeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagetracker_intake_requests_total",
			Help: "Total number of intake HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	IntakeRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pagetracker_intake_request_duration_seconds",
			Help:    "Intake HTTP request latency in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"method", "route"},
	)

	// Identity Metrics
	IdentityOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagetracker_identity_operations_total",
			Help: "Total number of identity store operations",
		},
		[]string{"backend", "operation", "result"}, // operation: "get", "set"
	)
)

// RecordCommand records the outcome of processing one command.
func RecordCommand(kind, outcome string) {
	CommandsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordRetry records a command re-queued after a failed send.
func RecordRetry(kind string) {
	RetriesTotal.WithLabelValues(kind).Inc()
}

// RecordDrop records a command that will never be sent.
func RecordDrop(kind, reason string) {
	DropsTotal.WithLabelValues(kind, reason).Inc()
}

// RecordSend records one HTTP send to the collector.
func RecordSend(path, result string, duration time.Duration) {
	SendsTotal.WithLabelValues(path, result).Inc()
	if result != "rejected" {
		SendDuration.WithLabelValues(path).Observe(duration.Seconds())
	}
}

// RecordDiagnostic records a diagnostic entry written locally.
func RecordDiagnostic(level string) {
	DiagnosticsTotal.WithLabelValues(level).Inc()
}

// RecordDiagnosticForward records what happened to an entry's forward.
func RecordDiagnosticForward(result string) {
	DiagnosticForwards.WithLabelValues(result).Inc()
}

// RecordIntakeRequest records an intake HTTP request.
func RecordIntakeRequest(method, route, status string, duration time.Duration) {
	IntakeRequests.WithLabelValues(method, route, status).Inc()
	IntakeRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordIdentityOp records an identity store operation.
func RecordIdentityOp(backend, operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	IdentityOperations.WithLabelValues(backend, operation, result).Inc()
}
