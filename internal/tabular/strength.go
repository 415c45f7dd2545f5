// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package tabular

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tomtom215/vitalport/internal/ingest"
	"github.com/tomtom215/vitalport/internal/models"
)

// RequiredStrengthColumns must all appear in a strength export header.
var RequiredStrengthColumns = []string{"title", "start_time", "end_time", "exercise_title", "weight_kg", "reps"}

const strengthHint = "re-export the workouts as CSV from the training app (Settings > Export data)"

// strengthColumns holds resolved column indexes; optional ones are -1.
type strengthColumns struct {
	title, start, end, exercise, weight, reps int
	distance, duration                        int
}

// StrengthExport is the parsed content of a strength-training CSV.
type StrengthExport struct {
	Sets   []models.StrengthSet
	Rows   int
	Errors []string
}

// Strength CSV timestamps carry no offset; they are the wearer's wall clock.
var strengthTimeLayouts = []string{
	"2 Jan 2006, 15:04",
	"2 Jan 2006 15:04",
	"Jan 2, 2006, 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"02/01/2006 15:04",
	"02/01/2006, 15:04",
}

// ParseStrengthCSV reads a strength-training export. A header missing any
// required column rejects the file before rows are read.
func ParseStrengthCSV(r io.Reader) (*StrengthExport, error) {
	src, err := newCSVSource(r)
	if err != nil {
		return nil, err
	}

	header, err := src.Next()
	if err != nil {
		return nil, &ingest.FormatError{
			Format:  ingest.FormatStrengthCSV,
			Message: "strength export is empty",
			Hint:    strengthHint,
			Cause:   err,
		}
	}

	cols, missing := resolveStrengthColumns(header)
	if len(missing) > 0 {
		return nil, &ingest.FormatError{
			Format:  ingest.FormatStrengthCSV,
			Message: fmt.Sprintf("not a strength-training export: missing columns %s", strings.Join(missing, ", ")),
			Hint:    strengthHint,
		}
	}

	out := &StrengthExport{}
	for {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ingest.FormatError{
				Format:  ingest.FormatStrengthCSV,
				Message: fmt.Sprintf("could not read the CSV after line %d", src.line),
				Hint:    strengthHint,
				Cause:   err,
			}
		}
		if row.Blank() {
			continue
		}
		out.Rows++
		if set, errLine := parseStrengthRow(row, cols); errLine != "" {
			out.Errors = append(out.Errors, errLine)
		} else {
			out.Sets = append(out.Sets, set)
		}
	}
	return out, nil
}

func resolveStrengthColumns(header RawRow) (strengthColumns, []string) {
	names := make([]string, header.Len())
	for i := range names {
		names[i] = strings.ToLower(header.Text(i))
	}

	find := func(key string, exclude ...string) int {
		// An exact name beats a substring match: "title" must not resolve
		// to "exercise_title".
		for i, n := range names {
			if n == key {
				return i
			}
		}
	next:
		for i, n := range names {
			if !strings.Contains(n, key) {
				continue
			}
			for _, ex := range exclude {
				if strings.Contains(n, ex) {
					continue next
				}
			}
			return i
		}
		return -1
	}

	cols := strengthColumns{
		title:    find("title", "exercise"),
		start:    find("start_time"),
		end:      find("end_time"),
		exercise: find("exercise_title"),
		weight:   find("weight_kg"),
		reps:     find("reps"),
		distance: find("distance_km"),
		duration: find("duration_seconds"),
	}

	var missing []string
	for i, idx := range []int{cols.title, cols.start, cols.end, cols.exercise, cols.weight, cols.reps} {
		if idx < 0 {
			missing = append(missing, RequiredStrengthColumns[i])
		}
	}
	return cols, missing
}

// parseStrengthRow returns the set or a row error line.
func parseStrengthRow(row RawRow, c strengthColumns) (models.StrengthSet, string) {
	set := models.StrengthSet{Line: row.Line}

	set.Title = row.Text(c.title)
	if set.Title == "" {
		return set, fmt.Sprintf("line %d: missing workout title", row.Line)
	}
	set.Exercise = row.Text(c.exercise)
	if set.Exercise == "" {
		return set, fmt.Sprintf("line %d: missing exercise_title", row.Line)
	}

	start, ok := parseStrengthTime(row.Text(c.start))
	if !ok {
		return set, fmt.Sprintf("line %d: unrecognized start_time %q", row.Line, row.Text(c.start))
	}
	set.StartTime = start
	if end, ok := parseStrengthTime(row.Text(c.end)); ok {
		set.EndTime = end
	}

	numbers := []struct {
		col  int
		name string
		dst  **float64
	}{
		{c.weight, "weight_kg", &set.WeightKg},
		{c.reps, "reps", &set.Reps},
		{c.distance, "distance_km", &set.DistanceKm},
		{c.duration, "duration_seconds", &set.DurationSec},
	}
	for _, n := range numbers {
		v, present, ok := row.Float(n.col)
		if !present {
			continue
		}
		if !ok || v < 0 {
			return set, fmt.Sprintf("line %d: invalid %s %q", row.Line, n.name, row.Text(n.col))
		}
		*n.dst = &v
	}
	return set, ""
}

func parseStrengthTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range strengthTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
