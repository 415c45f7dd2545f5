// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package models

import (
	"testing"
	"time"
)

func TestDedupKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		entity Entity
		want   string
	}{
		{"weight", WeightLog{Date: "2026-01-15", WeightKg: 80}, "2026-01-15"},
		{"body fat", BodyFatLog{Date: "2026-01-15", BodyFatPct: 18}, "2026-01-15"},
		{"workout", Workout{Date: "2026-01-15", Name: "Treino A"}, "2026-01-15|Treino A"},
		{"sleep", SleepSession{Date: "2026-01-14"}, "2026-01-14"},
		{"glucose", GlucoseReading{Date: "2026-01-15", Time: "08:30:00"}, "2026-01-15 08:30:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entity.DedupKey(); got != tt.want {
				t.Errorf("DedupKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocalDateUsesCarriedOffset(t *testing.T) {
	t.Parallel()

	// 23:30 at UTC-3 is already the next day in UTC.
	ts := time.Date(2026, 1, 15, 23, 30, 0, 0, time.FixedZone("", -3*3600))

	if got := LocalDate(ts); got != "2026-01-15" {
		t.Errorf("LocalDate() = %q, want 2026-01-15", got)
	}
	if got := LocalDate(ts.UTC()); got != "2026-01-16" {
		t.Errorf("LocalDate(UTC) = %q, want 2026-01-16", got)
	}
	if got := LocalClock(ts); got != "23:30:00" {
		t.Errorf("LocalClock() = %q, want 23:30:00", got)
	}
}

func TestBatchEntitiesAndCounts(t *testing.T) {
	t.Parallel()

	b := &Batch{
		WeightLogs:      []WeightLog{{Date: "2026-01-01"}, {Date: "2026-01-02"}},
		GlucoseReadings: []GlucoseReading{{Date: "2026-01-01", Time: "08:00:00"}},
	}

	if b.Len() != 3 {
		t.Errorf("Len() = %d, want 3", b.Len())
	}
	if got := len(b.Entities(EntityWeight)); got != 2 {
		t.Errorf("len(Entities(weight)) = %d, want 2", got)
	}
	if got := len(b.Entities(EntityWorkout)); got != 0 {
		t.Errorf("len(Entities(workouts)) = %d, want 0", got)
	}

	var c Counts
	c.Add(EntityWeight, 2)
	c.Add(EntityGlucose, 1)
	c.Add(EntityType("unknown"), 5)
	if c.Total() != 3 {
		t.Errorf("Total() = %d, want 3", c.Total())
	}
}

func TestEntityTypeValid(t *testing.T) {
	t.Parallel()

	for _, et := range EntityTypes {
		if !et.Valid() {
			t.Errorf("%s.Valid() = false, want true", et)
		}
	}
	if EntityType("meals").Valid() {
		t.Error("meals.Valid() = true, want false")
	}
}

func TestSleepStageMinutes(t *testing.T) {
	t.Parallel()

	s := SleepSession{
		TotalMinutes: 480,
		Stages: []StageDuration{
			{Stage: SleepStageLight, DurationMin: 200},
			{Stage: SleepStageDeep, DurationMin: 120},
			{Stage: SleepStageREM, DurationMin: 90},
		},
	}
	if got := s.StageMinutes(); got != 410 {
		t.Errorf("StageMinutes() = %d, want 410", got)
	}

	e := RawSleepEntry{StartTime: time.Unix(100, 0), EndTime: time.Unix(50, 0)}
	if e.Duration() != 0 {
		t.Errorf("Duration() = %v, want 0 for inverted interval", e.Duration())
	}
}
