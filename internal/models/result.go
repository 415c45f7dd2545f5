// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package models

// Batch holds the mapped entities of one import run, grouped by kind.
type Batch struct {
	WeightLogs      []WeightLog
	BodyFatLogs     []BodyFatLog
	Workouts        []Workout
	SleepSessions   []SleepSession
	GlucoseReadings []GlucoseReading
}

// Entities returns the entities of type t as a slice of the Entity interface.
func (b *Batch) Entities(t EntityType) []Entity {
	var out []Entity
	switch t {
	case EntityWeight:
		out = make([]Entity, 0, len(b.WeightLogs))
		for _, e := range b.WeightLogs {
			out = append(out, e)
		}
	case EntityBodyFat:
		out = make([]Entity, 0, len(b.BodyFatLogs))
		for _, e := range b.BodyFatLogs {
			out = append(out, e)
		}
	case EntityWorkout:
		out = make([]Entity, 0, len(b.Workouts))
		for _, e := range b.Workouts {
			out = append(out, e)
		}
	case EntitySleep:
		out = make([]Entity, 0, len(b.SleepSessions))
		for _, e := range b.SleepSessions {
			out = append(out, e)
		}
	case EntityGlucose:
		out = make([]Entity, 0, len(b.GlucoseReadings))
		for _, e := range b.GlucoseReadings {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the total number of entities across all kinds.
func (b *Batch) Len() int {
	return len(b.WeightLogs) + len(b.BodyFatLogs) + len(b.Workouts) +
		len(b.SleepSessions) + len(b.GlucoseReadings)
}

// ImportStatus is the outcome of one import attempt.
type ImportStatus string

const (
	StatusSuccess ImportStatus = "success"
	StatusPartial ImportStatus = "partial"
	StatusError   ImportStatus = "error"
)

// Counts holds the number of newly imported entities per kind.
type Counts struct {
	WeightLogs      int `json:"weight_logs"`
	BodyFatLogs     int `json:"body_fat_logs"`
	Workouts        int `json:"workouts"`
	SleepSessions   int `json:"sleep_sessions"`
	GlucoseReadings int `json:"glucose_readings"`
}

// Add increments the counter for entity type t.
func (c *Counts) Add(t EntityType, n int) {
	switch t {
	case EntityWeight:
		c.WeightLogs += n
	case EntityBodyFat:
		c.BodyFatLogs += n
	case EntityWorkout:
		c.Workouts += n
	case EntitySleep:
		c.SleepSessions += n
	case EntityGlucose:
		c.GlucoseReadings += n
	}
}

// Total returns the sum over all kinds.
func (c Counts) Total() int {
	return c.WeightLogs + c.BodyFatLogs + c.Workouts + c.SleepSessions + c.GlucoseReadings
}

// TargetKind names the persistence target that received a batch.
type TargetKind string

const (
	TargetLocal  TargetKind = "local"
	TargetRemote TargetKind = "remote"
	TargetNone   TargetKind = "none"
)

// ImportResult is returned to the caller of an import. The shape does not
// depend on which persistence target was used.
type ImportResult struct {
	Status            ImportStatus `json:"status"`
	Format            string       `json:"format"`
	Counts            Counts       `json:"counts"`
	DuplicatesSkipped int          `json:"duplicates_skipped"`
	Errors            []string     `json:"errors"`
	Target            TargetKind   `json:"target"`
}

// Imported returns the total number of newly stored entities.
func (r *ImportResult) Imported() int {
	return r.Counts.Total()
}

// EntitySummary is an aggregate over one user's stored entities of one kind.
type EntitySummary struct {
	EntityType EntityType `json:"entity_type"`
	Count      int        `json:"count"`
	FirstDate  string     `json:"first_date,omitempty"`
	LastDate   string     `json:"last_date,omitempty"`
}
