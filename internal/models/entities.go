// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package models

// EntityType identifies one of the five normalized entity kinds.
type EntityType string

const (
	EntityWeight  EntityType = "weight_logs"
	EntityBodyFat EntityType = "body_fat_logs"
	EntityWorkout EntityType = "workouts"
	EntitySleep   EntityType = "sleep_sessions"
	EntityGlucose EntityType = "glucose_readings"
)

// EntityTypes lists every entity kind in dispatch order.
var EntityTypes = []EntityType{
	EntityWeight,
	EntityBodyFat,
	EntityWorkout,
	EntitySleep,
	EntityGlucose,
}

// Valid reports whether t is a known entity kind.
func (t EntityType) Valid() bool {
	for _, known := range EntityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Entity is implemented by every persisted domain entity.
type Entity interface {
	EntityType() EntityType
	// DedupKey is the per-type uniqueness key within one user's data.
	DedupKey() string
	// EntityDate is the YYYY-MM-DD calendar day of the entity.
	EntityDate() string
}

// WeightLog is one body-weight sample in kilograms.
type WeightLog struct {
	Date     string  `json:"date" validate:"required,localdate"`
	WeightKg float64 `json:"weight_kg" validate:"gt=0,lt=700"`
	Source   string  `json:"source" validate:"required"`
	RawText  string  `json:"raw_text,omitempty"`
}

func (w WeightLog) EntityType() EntityType { return EntityWeight }
func (w WeightLog) DedupKey() string       { return w.Date }
func (w WeightLog) EntityDate() string     { return w.Date }

// BodyFatLog is one body-fat sample in percent.
type BodyFatLog struct {
	Date       string  `json:"date" validate:"required,localdate"`
	BodyFatPct float64 `json:"body_fat_pct" validate:"gt=0,lte=100"`
	Source     string  `json:"source" validate:"required"`
	RawText    string  `json:"raw_text,omitempty"`
}

func (b BodyFatLog) EntityType() EntityType { return EntityBodyFat }
func (b BodyFatLog) DedupKey() string       { return b.Date }
func (b BodyFatLog) EntityDate() string     { return b.Date }

// ExerciseType classifies an exercise entry.
type ExerciseType string

const (
	ExerciseStrength ExerciseType = "strength"
	ExerciseCardio   ExerciseType = "cardio"
	ExerciseOther    ExerciseType = "other"
)

// Exercise is one exercise inside a workout. Optional fields are nil when the
// source does not carry them.
type Exercise struct {
	Name           string       `json:"name" validate:"required"`
	Sets           *int         `json:"sets,omitempty" validate:"omitempty,gte=1"`
	Reps           *int         `json:"reps,omitempty" validate:"omitempty,gte=0"`
	WeightKg       *float64     `json:"weight_kg,omitempty" validate:"omitempty,gte=0"`
	CaloriesBurned *int         `json:"calories_burned,omitempty" validate:"omitempty,gte=0"`
	Type           ExerciseType `json:"type" validate:"required,oneof=strength cardio other"`
}

// Workout is one training session.
type Workout struct {
	Date                string     `json:"date" validate:"required,localdate"`
	Name                string     `json:"name" validate:"required"`
	Exercises           []Exercise `json:"exercises" validate:"required,min=1,dive"`
	TotalDurationMin    *int       `json:"total_duration_min,omitempty" validate:"omitempty,gte=0"`
	TotalCaloriesBurned *int       `json:"total_calories_burned,omitempty" validate:"omitempty,gte=0"`
	Source              string     `json:"source,omitempty"`
	RawText             string     `json:"raw_text,omitempty"`
}

func (w Workout) EntityType() EntityType { return EntityWorkout }
func (w Workout) DedupKey() string       { return w.Date + "|" + w.Name }
func (w Workout) EntityDate() string     { return w.Date }

// StageDuration is one stage of a sleep session breakdown.
type StageDuration struct {
	Stage       SleepStage `json:"stage" validate:"required,oneof=awake light deep rem inBed"`
	DurationMin int        `json:"duration_min" validate:"gt=0"`
	Pct         int        `json:"pct" validate:"gte=0,lte=100"`
}

// SleepSession is one night of sleep. StartTime and EndTime are RFC 3339
// timestamps in the source offset.
type SleepSession struct {
	Date         string          `json:"date" validate:"required,localdate"`
	StartTime    string          `json:"start_time" validate:"required"`
	EndTime      string          `json:"end_time" validate:"required"`
	TotalMinutes int             `json:"total_minutes" validate:"gte=0"`
	Stages       []StageDuration `json:"stages" validate:"dive"`
}

func (s SleepSession) EntityType() EntityType { return EntitySleep }
func (s SleepSession) DedupKey() string       { return s.Date }
func (s SleepSession) EntityDate() string     { return s.Date }

// StageMinutes returns the sum of all stage durations.
func (s SleepSession) StageMinutes() int {
	total := 0
	for _, st := range s.Stages {
		total += st.DurationMin
	}
	return total
}

// MeasurementType classifies a glucose reading.
type MeasurementType string

const (
	MeasurementCGM      MeasurementType = "cgm"
	MeasurementFasting  MeasurementType = "fasting"
	MeasurementPostMeal MeasurementType = "post_meal"
	MeasurementRandom   MeasurementType = "random"
)

// GlucoseReading is one blood glucose value in mg/dL.
type GlucoseReading struct {
	Date            string          `json:"date" validate:"required,localdate"`
	Time            string          `json:"time" validate:"required,clock"`
	GlucoseMgDl     int             `json:"glucose_mg_dl" validate:"gte=20,lte=600"`
	MeasurementType MeasurementType `json:"measurement_type" validate:"required,oneof=cgm fasting post_meal random"`
	Device          string          `json:"device,omitempty"`
}

func (g GlucoseReading) EntityType() EntityType { return EntityGlucose }
func (g GlucoseReading) DedupKey() string       { return g.Date + " " + g.Time }
func (g GlucoseReading) EntityDate() string     { return g.Date }
