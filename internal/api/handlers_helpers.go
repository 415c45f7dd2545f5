// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vitalport/internal/ingest"
	"github.com/tomtom215/vitalport/internal/logging"
	"github.com/tomtom215/vitalport/internal/middleware"
	"github.com/tomtom215/vitalport/internal/models"
	"github.com/tomtom215/vitalport/internal/validation"
)

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func metadata(r *http.Request, start time.Time) models.Metadata {
	md := models.Metadata{
		Timestamp: time.Now(),
		RequestID: middleware.GetRequestID(r.Context()),
	}
	if !start.IsZero() {
		md.QueryTimeMS = time.Since(start).Milliseconds()
	}
	return md
}

func respondSuccess(w http.ResponseWriter, r *http.Request, status int, data interface{}, start time.Time) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: metadata(r, start),
	})
}

// respondError sends an error envelope. data may carry a partial payload.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error, data interface{}) {
	if err != nil && status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Str("code", code).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Data:     data,
		Metadata: metadata(r, time.Time{}),
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: errorDetails(err),
		},
	})
}

// respondClassified maps err via classifyError and sends the envelope.
func respondClassified(w http.ResponseWriter, r *http.Request, err error, data interface{}) {
	status, code := classifyError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	respondError(w, r, status, code, message, err, data)
}

func errorDetails(err error) map[string]interface{} {
	var fe *ingest.FormatError
	if errors.As(err, &fe) && fe.Hint != "" {
		details := map[string]interface{}{"hint": fe.Hint}
		if len(fe.Entries) > 0 {
			details["entries"] = fe.Entries
		}
		return details
	}
	var se *validation.StructError
	if errors.As(err, &se) {
		fields := make(map[string]interface{}, len(se.Fields))
		for _, f := range se.Fields {
			fields[f.Field] = f.Message
		}
		return map[string]interface{}{"fields": fields}
	}
	return nil
}

// validateRequest validates a struct using go-playground/validator.
func validateRequest(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := validation.ValidateStruct(v); err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), err, nil)
		return false
	}
	return true
}

// getIntParam extracts an integer query parameter with a default value.
// Unparseable values come back as -1 so struct validation rejects them.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return intValue
}
