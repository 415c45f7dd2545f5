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

// ColumnMap holds the column roles of a glucose export, resolved once per file.
// Unresolved optional roles are -1.
type ColumnMap struct {
	HeaderLine int // 0 when the file has no recognized header
	Time       int
	Clock      int // time of day when Time holds only the date
	Glucose    int
	AltGlucose int // second glucose column, e.g. LibreView scan readings
	Unit       int
	Device     int

	// HeaderUnit is the unit named in the glucose column header, if any.
	HeaderUnit string

	// Positional is true when sniffing failed and columns 0 and 1 are assumed.
	Positional bool
}

// GlucoseSheet is the parsed content of a glucose export.
type GlucoseSheet struct {
	Samples []models.GlucoseSample
	Columns ColumnMap
	Profile ingest.VendorProfile
	Rows    int // data rows seen, including skipped ones
	Errors  []string
}

// ParseGlucose reads a glucose export from r. container is the detected
// container; the actual encoding is confirmed from magic bytes.
func ParseGlucose(r io.Reader, container ingest.Container, vendor ingest.VendorProfile) (*GlucoseSheet, error) {
	src, err := openGlucoseSource(r, container)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	return parseGlucoseRows(src, ProfileFor(vendor))
}

func parseGlucoseRows(src rowSource, p Profile) (*GlucoseSheet, error) {
	sheet := &GlucoseSheet{Samples: []models.GlucoseSample{}, Profile: p.Name}

	// Buffer the header search window, then resolve columns once.
	var head []RawRow
	for len(head) < p.HeaderSearchRows {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readError(err)
		}
		if row.Blank() {
			continue
		}
		head = append(head, row)
	}

	cols, dataStart := resolveColumns(head, p)
	sheet.Columns = cols

	for _, row := range head[dataStart:] {
		sheet.addRow(row, p)
	}
	for {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readError(err)
		}
		if row.Blank() {
			continue
		}
		sheet.addRow(row, p)
	}

	if sheet.Rows == 0 {
		sheet.Errors = append(sheet.Errors, "insufficient data: the file has no glucose rows after the header")
	}
	return sheet, nil
}

func readError(err error) error {
	return &ingest.FormatError{
		Format:  ingest.FormatGlucoseSpreadsheet,
		Message: "could not read the glucose export",
		Hint:    "re-export the readings from the sensor app",
		Cause:   err,
	}
}

func (s *GlucoseSheet) rowError(format string, args ...any) {
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

func (s *GlucoseSheet) addRow(row RawRow, p Profile) {
	c := s.Columns
	s.Rows++

	rawTime, ok := row.Cell(c.Time)
	if !ok {
		s.rowError("row %d: missing date", row.Line)
		return
	}
	ts, ok := p.ParseTimestamp(rawTime)
	if !ok {
		s.rowError("row %d: unrecognized date %q", row.Line, rawTime)
		return
	}
	if rawClock, present := row.Cell(c.Clock); present && isMidnight(ts) {
		if ts, ok = withClock(ts, rawClock); !ok {
			s.rowError("row %d: unrecognized time %q", row.Line, rawClock)
			return
		}
	}

	valueCol := c.Glucose
	if _, present := row.Cell(valueCol); !present {
		if _, alt := row.Cell(c.AltGlucose); alt {
			valueCol = c.AltGlucose
		}
	}

	value, present, ok := row.Float(valueCol)
	switch {
	case !present && p.SkipBlankValues:
		s.Rows--
		return
	case !present:
		s.rowError("row %d: missing glucose value", row.Line)
		return
	case !ok:
		s.rowError("row %d: invalid glucose value %q", row.Line, row.Text(valueCol))
		return
	}

	unit := row.Text(c.Unit)
	if unit == "" {
		unit = c.HeaderUnit
	}
	device := row.Text(c.Device)
	if device == "" {
		device = p.Device
	}

	s.Samples = append(s.Samples, models.GlucoseSample{
		Line:   row.Line,
		Time:   ts,
		Value:  value,
		Unit:   unit,
		Device: device,
	})
}

// resolveColumns sniffs the header within the search window. It returns the
// map and the index in head of the first data row.
func resolveColumns(head []RawRow, p Profile) (ColumnMap, int) {
	for i, row := range head {
		if cols, ok := sniffHeader(row, p); ok {
			return cols, i + 1
		}
	}

	cols := ColumnMap{Time: 0, Clock: -1, Glucose: 1, AltGlucose: -1, Unit: -1, Device: -1, Positional: true}
	if len(head) == 0 {
		return cols, 0
	}

	// An unrecognized header still has to be skipped: a first row whose
	// value cell is not numeric and whose date cell does not parse is a label row.
	first := head[0]
	_, _, numeric := first.Float(1)
	if _, isTime := p.ParseTimestamp(first.Text(0)); !numeric && !isTime {
		cols.HeaderLine = first.Line
		return cols, 1
	}
	return cols, 0
}

func sniffHeader(row RawRow, p Profile) (ColumnMap, bool) {
	lower := make([]string, row.Len())
	for i := range lower {
		lower[i] = strings.ToLower(row.Text(i))
	}

	cols := ColumnMap{HeaderLine: row.Line, Time: -1, Clock: -1, Glucose: -1, AltGlucose: -1, Unit: -1, Device: -1}
	taken := map[int]bool{}

	for i, h := range lower {
		if h == "unit" || h == "units" || h == "unidade" || strings.HasPrefix(h, "unit ") {
			cols.Unit = i
			taken[i] = true
			break
		}
	}

	cols.Time = findColumn(lower, p.TimeKeywords, taken)
	if cols.Time < 0 {
		return cols, false
	}
	taken[cols.Time] = true

	// Date and time of day may be split across two columns.
	if !hasKeyword(lower[cols.Time], clockKeywords) {
		cols.Clock = findColumn(lower, clockKeywords, taken)
		if cols.Clock >= 0 {
			taken[cols.Clock] = true
		}
	}

	cols.Glucose = findColumn(lower, p.GlucoseKeywords, taken)
	if cols.Glucose < 0 {
		return cols, false
	}
	taken[cols.Glucose] = true

	cols.AltGlucose = findColumn(lower, []string{"glucose"}, taken)
	if cols.AltGlucose >= 0 {
		taken[cols.AltGlucose] = true
	}
	cols.Device = findColumn(lower, []string{"device", "dispositivo"}, taken)

	switch h := lower[cols.Glucose]; {
	case strings.Contains(h, "mmol"):
		cols.HeaderUnit = "mmol/L"
	case strings.Contains(h, "mg"):
		cols.HeaderUnit = "mg/dL"
	}
	return cols, true
}

var clockKeywords = []string{"time", "hora", "时间"}

func hasKeyword(header string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(header, kw) {
			return true
		}
	}
	return false
}

func isMidnight(t time.Time) bool {
	h, m, sec := t.Clock()
	return h == 0 && m == 0 && sec == 0 && t.Nanosecond() == 0
}

// withClock replaces the time of day of day with the one in a clock cell.
func withClock(day time.Time, raw string) (time.Time, bool) {
	h, m, sec, ok := parseClock(raw)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, sec, 0, day.Location()), true
}

// findColumn returns the first untaken column containing the highest-priority
// keyword, or -1.
func findColumn(headers, keywords []string, taken map[int]bool) int {
	for _, kw := range keywords {
		for i, h := range headers {
			if !taken[i] && h != "" && strings.Contains(h, kw) {
				return i
			}
		}
	}
	return -1
}
