// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package tabular

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/vitalport/internal/ingest"
)

// timestampParser converts one cell to an offset-aware time. Cells without an
// offset come back in UTC and are read as wall-clock time of the wearer.
type timestampParser func(raw string, dayFirst bool) (time.Time, bool)

// Profile is the column-mapping and date-parsing profile of a glucose vendor.
type Profile struct {
	Name   ingest.VendorProfile
	Device string

	// Header keywords in priority order, matched as lower-case substrings.
	TimeKeywords    []string
	GlucoseKeywords []string

	// HeaderSearchRows is how many leading rows may precede the header.
	HeaderSearchRows int

	// DayFirst resolves 03/04/2026 as 3 April.
	DayFirst bool

	// SkipBlankValues drops rows with no glucose value silently. LibreView
	// writes note and insulin rows into the same table.
	SkipBlankValues bool

	parsers []timestampParser
}

var defaultParsers = []timestampParser{
	parseSerial,
	parseISO,
	parseVendorDashed,
	parseSlashed,
}

// ProfileFor returns the profile for a detected vendor. Unknown vendors get
// the generic heuristic profile.
func ProfileFor(v ingest.VendorProfile) Profile {
	switch v {
	case ingest.ProfileSisensing:
		return Profile{
			Name:             ingest.ProfileSisensing,
			Device:           "Sisensing",
			TimeKeywords:     []string{"timestamp", "date", "time", "时间", "hora"},
			GlucoseKeywords:  []string{"glucose", "血糖", "glicose", "mmol", "mg", "value", "valor"},
			HeaderSearchRows: 5,
			DayFirst:         true,
			parsers:          defaultParsers,
		}
	case ingest.ProfileFreestyle:
		return Profile{
			Name:             ingest.ProfileFreestyle,
			Device:           "FreeStyle Libre",
			TimeKeywords:     []string{"timestamp", "date", "time"},
			GlucoseKeywords:  []string{"historic glucose", "glucose", "mmol", "mg", "value"},
			HeaderSearchRows: 3,
			DayFirst:         true,
			SkipBlankValues:  true,
			parsers:          defaultParsers,
		}
	default:
		return Profile{
			Name:             ingest.ProfileGeneric,
			TimeKeywords:     []string{"timestamp", "date", "time"},
			GlucoseKeywords:  []string{"glucose", "glicose", "value", "valor", "mg", "mmol"},
			HeaderSearchRows: 5,
			DayFirst:         true,
			parsers:          defaultParsers,
		}
	}
}

// ParseTimestamp tries each known format in priority order; first match wins.
func (p Profile) ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	parsers := p.parsers
	if len(parsers) == 0 {
		parsers = defaultParsers
	}
	for _, parse := range parsers {
		if t, ok := parse(raw, p.DayFirst); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// Excel serials from 1900-01-01 to 9999-12-31.
const (
	minSerial = 1
	maxSerial = 2958465
)

func parseSerial(raw string, _ bool) (time.Time, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < minSerial || v > maxSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(v, false)
	if err != nil {
		return time.Time{}, false
	}
	// Serials carry sub-second float noise; 08:30 arrives as 08:29:59.99.
	return t.Round(time.Second), true
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseISO(raw string, _ bool) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var (
	dashedPattern  = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})(?:[ T]+(\d{1,2}):(\d{2})(?::(\d{2}))?)?(?:\s*(?:GMT|UTC)\s*(?:([+-])(\d{1,2})(?::?(\d{2}))?)?)?$`)
	slashedPattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})(?:[ ,T]+(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([AaPp][Mm])?)?$`)
)

// parseVendorDashed handles DD-MM-YYYY HH:mm with an optional GMT±N suffix.
// The wall clock is kept in the stated offset.
func parseVendorDashed(raw string, _ bool) (time.Time, bool) {
	m := dashedPattern.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}

	loc := time.UTC
	if m[7] != "" {
		hours := atoi(m[8])
		minutes := atoi(m[9])
		if hours > 14 || minutes > 59 {
			return time.Time{}, false
		}
		offset := hours*3600 + minutes*60
		if m[7] == "-" {
			offset = -offset
		}
		loc = time.FixedZone("", offset)
	}

	return buildTime(atoi(m[3]), atoi(m[2]), atoi(m[1]), atoi(m[4]), atoi(m[5]), atoi(m[6]), loc)
}

// parseSlashed handles DD/MM/YYYY and MM/DD/YYYY with an optional time. A
// component above 12 settles the order; otherwise the profile decides.
func parseSlashed(raw string, dayFirst bool) (time.Time, bool) {
	m := slashedPattern.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}

	a, b := atoi(m[1]), atoi(m[2])
	day, month := a, b
	switch {
	case a > 12:
	case b > 12:
		day, month = b, a
	case !dayFirst:
		day, month = b, a
	}

	hour := atoi(m[4])
	if ampm := strings.ToLower(m[7]); ampm != "" {
		if hour < 1 || hour > 12 {
			return time.Time{}, false
		}
		hour %= 12
		if ampm == "pm" {
			hour += 12
		}
	}

	return buildTime(atoi(m[3]), month, day, hour, atoi(m[5]), atoi(m[6]), time.UTC)
}

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([AaPp][Mm])?$`)

// parseClock reads a time-of-day cell: HH:MM[:SS] with an optional AM/PM,
// or a spreadsheet day fraction in [0, 1).
func parseClock(raw string) (hour, minute, sec int, ok bool) {
	raw = strings.TrimSpace(raw)
	if m := clockPattern.FindStringSubmatch(raw); m != nil {
		hour, minute, sec = atoi(m[1]), atoi(m[2]), atoi(m[3])
		if ampm := strings.ToLower(m[4]); ampm != "" {
			if hour < 1 || hour > 12 {
				return 0, 0, 0, false
			}
			hour %= 12
			if ampm == "pm" {
				hour += 12
			}
		}
		if hour > 23 || minute > 59 || sec > 59 {
			return 0, 0, 0, false
		}
		return hour, minute, sec, true
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v >= 1 {
		return 0, 0, 0, false
	}
	secs := int(math.Round(v * 86400))
	if secs >= 86400 {
		secs = 86399
	}
	return secs / 3600, secs % 3600 / 60, secs % 60, true
}

// buildTime rejects components that time.Date would silently normalize.
func buildTime(year, month, day, hour, minute, sec int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, loc)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
