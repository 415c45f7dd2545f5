// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package ingest

import "fmt"

// DefaultMaxRowErrorLines caps the number of row-error lines kept per run.
// Further errors are still counted.
const DefaultMaxRowErrorLines = 200

// RowErrors accumulates recoverable row-level problems. A row error never
// aborts a batch; the offending row is skipped and a line is recorded.
// The zero value is ready to use. Not safe for concurrent use.
type RowErrors struct {
	// MaxLines overrides DefaultMaxRowErrorLines when positive.
	MaxLines int

	lines []string
	count int
}

// Addf records one row error.
func (r *RowErrors) Addf(format string, args ...any) {
	r.count++
	if len(r.lines) < r.limit() {
		r.lines = append(r.lines, fmt.Sprintf(format, args...))
	}
}

// Merge appends already formatted lines, e.g. from a parser that collected its own.
func (r *RowErrors) Merge(lines []string) {
	for _, l := range lines {
		r.Addf("%s", l)
	}
}

// Count returns how many row errors were recorded, including truncated ones.
func (r *RowErrors) Count() int {
	return r.count
}

// Lines returns the recorded lines plus a trailer when lines were truncated.
func (r *RowErrors) Lines() []string {
	out := make([]string, len(r.lines), len(r.lines)+1)
	copy(out, r.lines)
	if dropped := r.count - len(r.lines); dropped > 0 {
		out = append(out, fmt.Sprintf("... and %d more row errors", dropped))
	}
	return out
}

func (r *RowErrors) limit() int {
	if r.MaxLines > 0 {
		return r.MaxLines
	}
	return DefaultMaxRowErrorLines
}
