// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

/*
Package middleware provides HTTP middleware shared by the API router.

Key Components:

  - RequestID: X-Request-ID propagation into the logging context
  - PrometheusMetrics: request count and latency per route pattern
  - MaxBodySize: caps request bodies before handlers read them

Middleware Stack:

The API router applies them in this order:

	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.With(middleware.MaxBodySize(limit)).Post("/imports", h.CreateImport)

Metrics are labeled with the chi route pattern (e.g. /api/v1/imports) rather
than the raw URL path, so query strings and IDs never create new series.
*/
package middleware
