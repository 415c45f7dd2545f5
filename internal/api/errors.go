// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/vitalport/internal/ingest"
	"github.com/tomtom215/vitalport/internal/lock"
	"github.com/tomtom215/vitalport/internal/persistence"
)

const (
	codeValidation      = "VALIDATION_ERROR"
	codeUnsupported     = "UNSUPPORTED_FORMAT"
	codeInProgress      = "IMPORT_IN_PROGRESS"
	codeTooLarge        = "PAYLOAD_TOO_LARGE"
	codeRemoteWrite     = "REMOTE_WRITE_FAILED"
	codeRemoteDown      = "REMOTE_UNAVAILABLE"
	codeRateLimited     = "RATE_LIMITED"
	codeNotFound        = "NOT_FOUND"
	codeInternal        = "INTERNAL_ERROR"
	maxMultipartMemory  = 1 << 20
	defaultHistoryLimit = 50
)

// ErrMissingFile is returned when an upload has no "file" part.
var ErrMissingFile = errors.New("multipart field \"file\" is required")

// classifyError maps an import or query error to an HTTP status and error code.
func classifyError(err error) (int, string) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, lock.ErrImportInProgress):
		return http.StatusConflict, codeInProgress
	case ingest.IsFormatError(err):
		return http.StatusUnprocessableEntity, codeUnsupported
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, codeTooLarge
	case persistence.IsRemoteWriteError(err):
		return http.StatusBadGateway, codeRemoteWrite
	case errors.Is(err, persistence.ErrRemoteUnavailable):
		return http.StatusServiceUnavailable, codeRemoteDown
	case errors.Is(err, ErrMissingFile):
		return http.StatusBadRequest, codeValidation
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
