// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnrecognizedFormat is wrapped by the FormatError returned for files no parser accepts.
var ErrUnrecognizedFormat = errors.New("format not recognized")

// FormatError is a fatal problem with the shape of an input file: unknown format,
// missing record-log entry, missing required columns. Message and Hint are shown
// to the user verbatim.
type FormatError struct {
	Format  Format
	Message string
	Hint    string

	// Entries lists archive entry names found, for missing-entry diagnostics.
	Entries []string

	Cause error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Entries) > 0 {
		b.WriteString(" (found: ")
		b.WriteString(strings.Join(e.Entries, ", "))
		b.WriteString(")")
	}
	if e.Hint != "" {
		b.WriteString("; ")
		b.WriteString(e.Hint)
	}
	if e.Cause != nil && !errors.Is(e.Cause, ErrUnrecognizedFormat) {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *FormatError) Unwrap() error {
	return e.Cause
}

// NewUnrecognizedError returns the terminal error for an undetectable file.
func NewUnrecognizedError(name string) *FormatError {
	return &FormatError{
		Format:  FormatUnrecognized,
		Message: fmt.Sprintf("format not recognized for %q", name),
		Hint:    "upload a health export .zip, a strength-training .csv or a glucose .xlsx/.csv",
		Cause:   ErrUnrecognizedFormat,
	}
}

// CapacityError reports a document too large to load directly. It is recoverable
// by the streaming path and fatal only when streaming also fails.
type CapacityError struct {
	Size  int64
	Limit int64
	Cause error
}

// Error implements the error interface.
func (e *CapacityError) Error() string {
	msg := fmt.Sprintf("document too large for direct load (size %d, limit %d)", e.Size, e.Limit)
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *CapacityError) Unwrap() error {
	return e.Cause
}

// IsFormatError reports whether err is or wraps a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsCapacityError reports whether err is or wraps a *CapacityError.
func IsCapacityError(err error) bool {
	var ce *CapacityError
	return errors.As(err, &ce)
}
