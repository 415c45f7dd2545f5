// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

/*
Package metrics provides Prometheus instrumentation for the import pipeline.

All collectors are registered with the default registry through promauto and
are exposed at /metrics by the serve command:

	curl http://localhost:8470/metrics

# Available Metrics

Import Metrics:
  - vitalport_imports_total: Import runs (counter)
    Labels: format, status (success, partial, error, rejected)
  - vitalport_import_duration_seconds: Run duration (histogram)
    Labels: format
  - vitalport_import_records_total: Mapped entities (counter)
    Labels: entity, outcome (imported, duplicate, invalid)
  - vitalport_stream_chunks_total: Record-log windows parsed on the streaming path (counter)
  - vitalport_row_errors_total: Skipped input rows (counter)
    Labels: source
  - vitalport_imports_in_progress: Running imports (gauge)

Store Metrics:
  - vitalport_remote_request_duration_seconds / vitalport_remote_request_errors_total
    Labels: operation
  - vitalport_local_query_duration_seconds
    Labels: operation, entity

Circuit Breaker Metrics (remote store):
  - vitalport_circuit_breaker_state: 0=closed, 1=half-open, 2=open
  - vitalport_circuit_breaker_requests_total, vitalport_circuit_breaker_consecutive_failures,
    vitalport_circuit_breaker_state_transitions_total

API Metrics:
  - vitalport_api_requests_total, vitalport_api_request_duration_seconds
    Labels: method, endpoint, status_code

# Usage

	start := time.Now()
	metrics.TrackImport(true)
	defer metrics.TrackImport(false)
	...
	metrics.RecordImport(string(format), string(result.Status), time.Since(start))

# Thread Safety

All helpers are safe for concurrent use.
*/
package metrics
