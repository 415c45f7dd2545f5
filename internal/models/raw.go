// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package models

import "time"

// RawRecord is one vendor measurement line from the record-log document
// (weight, body fat, heart rate, glucose, ...).
type RawRecord struct {
	Kind       string
	Value      float64
	Text       string // non-numeric value, e.g. category records
	Unit       string
	StartTime  time.Time
	EndTime    time.Time
	SourceName string
}

// RawWorkoutRecord is one workout session element from the record-log document.
type RawWorkoutRecord struct {
	ActivityKind    string
	StartTime       time.Time
	EndTime         time.Time
	TotalEnergyKcal *float64
	TotalDistanceKm *float64
	SourceName      string
}

// SleepStage is the normalized sleep stage vocabulary.
type SleepStage string

const (
	SleepStageAwake SleepStage = "awake"
	SleepStageLight SleepStage = "light"
	SleepStageDeep  SleepStage = "deep"
	SleepStageREM   SleepStage = "rem"
	SleepStageInBed SleepStage = "inBed"
)

// SleepStageOrder is the display order used when building stage breakdowns.
var SleepStageOrder = []SleepStage{
	SleepStageInBed,
	SleepStageAwake,
	SleepStageLight,
	SleepStageDeep,
	SleepStageREM,
}

// RawSleepEntry is one sleep interval. Entries are grouped into nights by the mapper.
type RawSleepEntry struct {
	Stage     SleepStage
	StartTime time.Time
	EndTime   time.Time
}

// Duration returns the interval length, never negative.
func (e RawSleepEntry) Duration() time.Duration {
	if e.EndTime.Before(e.StartTime) {
		return 0
	}
	return e.EndTime.Sub(e.StartTime)
}

// RecordLog is the typed output of one record-log parse.
// Both the direct and the streaming parse paths produce this shape.
type RecordLog struct {
	Records  []RawRecord
	Workouts []RawWorkoutRecord
	Sleep    []RawSleepEntry

	// Skipped counts elements of a supported kind that were dropped
	// because a numeric field or timestamp failed to parse.
	Skipped int

	// Errors holds one human-readable line per skipped element.
	Errors []string
}

// Total returns the number of typed items in the log.
func (l *RecordLog) Total() int {
	return len(l.Records) + len(l.Workouts) + len(l.Sleep)
}

// LocalDate returns the YYYY-MM-DD calendar day of t in t's own location.
func LocalDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// LocalClock returns the HH:MM:SS wall clock of t in t's own location.
func LocalClock(t time.Time) string {
	return t.Format("15:04:05")
}

// StrengthSet is one exercise-set row of a strength-training CSV export.
// Optional numeric columns are nil when the cell is empty.
type StrengthSet struct {
	Line        int
	Title       string
	StartTime   time.Time
	EndTime     time.Time // zero when the cell is empty or unparseable
	Exercise    string
	WeightKg    *float64
	Reps        *float64
	DistanceKm  *float64
	DurationSec *float64
}

// GlucoseSample is one glucose row of a CGM spreadsheet before unit
// normalization. Unit is the explicit unit from a unit column or the value
// column header, or "" when the export does not say.
type GlucoseSample struct {
	Line   int
	Time   time.Time
	Value  float64
	Unit   string
	Device string
}
