// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package models

import "time"

// APIResponse is the envelope of every JSON API response.
//
// Status is "success" or "error". On error, Data may still carry a partial
// payload (for example the ImportResult of a rejected file) next to Error.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is the machine-readable error part of an APIResponse.
//
// Codes used by the API:
//   - VALIDATION_ERROR: malformed query or form fields
//   - UNSUPPORTED_FORMAT: the uploaded file was rejected before any write
//   - IMPORT_IN_PROGRESS: another import for the user holds the lock
//   - PAYLOAD_TOO_LARGE: upload exceeded the configured limit
//   - REMOTE_WRITE_FAILED: the remote store failed mid-run
//   - INTERNAL_ERROR: anything else
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
