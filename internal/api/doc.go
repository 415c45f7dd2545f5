// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

/*
Package api exposes the import pipeline over HTTP using the Chi router.

Endpoints:

	POST /api/v1/imports     multipart upload (fields: user_id, file); runs one import
	GET  /api/v1/imports     import ledger, newest first (query: user_id, limit)
	GET  /api/v1/summaries   per-entity counts and date range (query: user_id)
	GET  /api/v1/health      liveness and uptime
	GET  /metrics            Prometheus exposition

Every JSON response uses the models.APIResponse envelope. Imports run
synchronously: the response carries the ImportResult, including for files
rejected as unsupported (422) or runs stopped by a remote write failure
(502). A second upload for a user whose import is still running gets 409.

The upload body is spooled to a temporary file because archive extraction
needs random access; the spool is removed when the request ends.
*/
package api
