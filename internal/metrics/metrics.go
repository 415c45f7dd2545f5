// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Import Pipeline Metrics
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitalport_imports_total",
			Help: "Total number of import attempts by detected format and outcome",
		},
		[]string{"format", "status"}, // status: success, partial, error, rejected
	)

	ImportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vitalport_import_duration_seconds",
			Help:    "Duration of import runs in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300}, // large archives stream for minutes
		},
		[]string{"format"},
	)

	ImportRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitalport_import_records_total",
			Help: "Total number of mapped entities by entity type and outcome",
		},
		[]string{"entity", "outcome"}, // outcome: imported, duplicate, invalid
	)

	StreamChunksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vitalport_stream_chunks_total",
			Help: "Total number of record-log windows parsed on the streaming path",
		},
	)

	RowErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitalport_row_errors_total",
			Help: "Total number of skipped input rows",
		},
		[]string{"source"}, // record_log, strength_csv, glucose_spreadsheet, validation
	)

	ImportsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vitalport_imports_in_progress",
			Help: "Current number of running imports",
		},
	)

	// Remote Store Metrics
	RemoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vitalport_remote_request_duration_seconds",
			Help:    "Duration of remote store calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	RemoteRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitalport_remote_request_errors_total",
			Help: "Total number of failed remote store calls",
		},
		[]string{"operation"},
	)

	// Local Store Metrics
	LocalQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vitalport_local_query_duration_seconds",
			Help:    "Duration of local store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "entity"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitalport_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vitalport_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		},
		[]string{"method", "endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vitalport_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitalport_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vitalport_circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitalport_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordImport records the outcome of one import run.
func RecordImport(format, status string, duration time.Duration) {
	ImportsTotal.WithLabelValues(format, status).Inc()
	ImportDuration.WithLabelValues(format).Observe(duration.Seconds())
}

// RecordEntities records per-entity outcomes for one dispatched batch.
func RecordEntities(entity string, imported, duplicates, invalid int) {
	if imported > 0 {
		ImportRecordsTotal.WithLabelValues(entity, "imported").Add(float64(imported))
	}
	if duplicates > 0 {
		ImportRecordsTotal.WithLabelValues(entity, "duplicate").Add(float64(duplicates))
	}
	if invalid > 0 {
		ImportRecordsTotal.WithLabelValues(entity, "invalid").Add(float64(invalid))
	}
}

// RecordRowErrors adds n skipped rows for source.
func RecordRowErrors(source string, n int) {
	if n > 0 {
		RowErrorsTotal.WithLabelValues(source).Add(float64(n))
	}
}

// RecordRemoteRequest records a remote store call
func RecordRemoteRequest(operation string, duration time.Duration, err error) {
	RemoteRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		RemoteRequestErrors.WithLabelValues(operation).Inc()
	}
}

// RecordLocalQuery records a local store operation
func RecordLocalQuery(operation, entity string, duration time.Duration) {
	LocalQueryDuration.WithLabelValues(operation, entity).Observe(duration.Seconds())
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackImport tracks running imports
func TrackImport(inc bool) {
	if inc {
		ImportsInProgress.Inc()
	} else {
		ImportsInProgress.Dec()
	}
}
