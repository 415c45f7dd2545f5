// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package mapper

import (
	"fmt"
	"math"
	"strings"

	"github.com/tomtom215/vitalport/internal/models"
)

var strengthActivities = map[string]bool{
	"HKWorkoutActivityTypeTraditionalStrengthTraining": true,
	"HKWorkoutActivityTypeFunctionalStrengthTraining":  true,
	"HKWorkoutActivityTypeCoreTraining":                true,
	"HKWorkoutActivityTypeCrossTraining":               true,
}

var cardioActivities = map[string]bool{
	"HKWorkoutActivityTypeRunning":                       true,
	"HKWorkoutActivityTypeWalking":                       true,
	"HKWorkoutActivityTypeCycling":                       true,
	"HKWorkoutActivityTypeSwimming":                      true,
	"HKWorkoutActivityTypeRowing":                        true,
	"HKWorkoutActivityTypeElliptical":                    true,
	"HKWorkoutActivityTypeHiking":                        true,
	"HKWorkoutActivityTypeStairClimbing":                 true,
	"HKWorkoutActivityTypeHighIntensityIntervalTraining": true,
	"HKWorkoutActivityTypeMixedCardio":                   true,
}

func activityType(kind string) models.ExerciseType {
	switch {
	case strengthActivities[kind]:
		return models.ExerciseStrength
	case cardioActivities[kind]:
		return models.ExerciseCardio
	default:
		return models.ExerciseOther
	}
}

// workoutFromRecord maps one record-log workout session. The record log has
// no per-exercise detail, so the activity itself is the single exercise.
func (m *Mapper) workoutFromRecord(w models.RawWorkoutRecord) models.Workout {
	name := prettifyActivity(w.ActivityKind)
	out := models.Workout{
		Date:      models.LocalDate(w.StartTime),
		Name:      name,
		Exercises: []models.Exercise{{Name: name, Type: activityType(w.ActivityKind)}},
		Source:    w.SourceName,
		RawText:   describeWorkout(w.ActivityKind, w.TotalDistanceKm),
	}
	if out.Source == "" {
		out.Source = SourceRecordLog
	}
	if mins, ok := minutesBetween(w.StartTime, w.EndTime); ok {
		out.TotalDurationMin = intPtr(mins)
	}
	if w.TotalEnergyKcal != nil {
		out.TotalCaloriesBurned = intPtr(roundInt(*w.TotalEnergyKcal))
	}
	return out
}

type sessionKey struct {
	title string
	date  string
}

type session struct {
	first     models.StrengthSet
	exercises []string
	sets      map[string][]models.StrengthSet
}

// Workouts groups strength sets into one Workout per (title, calendar day of
// start_time), and within a workout into one Exercise per exercise name.
// Output order follows first appearance in the export.
func (m *Mapper) Workouts(sets []models.StrengthSet) []models.Workout {
	var order []sessionKey
	sessions := map[sessionKey]*session{}

	for _, s := range sets {
		key := sessionKey{title: s.Title, date: models.LocalDate(s.StartTime)}
		sess, ok := sessions[key]
		if !ok {
			sess = &session{first: s, sets: map[string][]models.StrengthSet{}}
			sessions[key] = sess
			order = append(order, key)
		}
		if _, seen := sess.sets[s.Exercise]; !seen {
			sess.exercises = append(sess.exercises, s.Exercise)
		}
		sess.sets[s.Exercise] = append(sess.sets[s.Exercise], s)
	}

	out := make([]models.Workout, 0, len(order))
	for _, key := range order {
		out = append(out, m.buildWorkout(key, sessions[key]))
	}
	return out
}

func (m *Mapper) buildWorkout(key sessionKey, sess *session) models.Workout {
	w := models.Workout{
		Date:   key.date,
		Name:   key.title,
		Source: SourceStrengthCSV,
	}
	if mins, ok := minutesBetween(sess.first.StartTime, sess.first.EndTime); ok {
		w.TotalDurationMin = intPtr(mins)
	}

	totalSets := 0
	totalCalories, hasCalories := 0, false
	for _, name := range sess.exercises {
		ex := m.buildExercise(name, sess.sets[name])
		totalSets += *ex.Sets
		if ex.CaloriesBurned != nil {
			totalCalories += *ex.CaloriesBurned
			hasCalories = true
		}
		w.Exercises = append(w.Exercises, ex)
	}
	if hasCalories {
		w.TotalCaloriesBurned = intPtr(totalCalories)
	}
	w.RawText = fmt.Sprintf("%s: %s (%d sets)", key.title, strings.Join(sess.exercises, ", "), totalSets)
	return w
}

// buildExercise aggregates the sets of one exercise. Reps is the rounded mean;
// the calorie estimate uses the unrounded means.
func (m *Mapper) buildExercise(name string, sets []models.StrengthSet) models.Exercise {
	ex := models.Exercise{Name: name, Sets: intPtr(len(sets)), Type: models.ExerciseOther}

	var repSum, weightSum float64
	var repN, weightN int
	cardio := false
	for _, s := range sets {
		if s.Reps != nil {
			repSum += *s.Reps
			repN++
		}
		if s.WeightKg != nil {
			weightSum += *s.WeightKg
			weightN++
		}
		if s.DistanceKm != nil || s.DurationSec != nil {
			cardio = true
		}
	}

	switch {
	case repN > 0:
		ex.Type = models.ExerciseStrength
	case cardio:
		ex.Type = models.ExerciseCardio
	}

	if repN == 0 {
		return ex
	}
	meanReps := repSum / float64(repN)
	ex.Reps = intPtr(roundInt(meanReps))

	if weightN == 0 {
		return ex
	}
	meanWeight := weightSum / float64(weightN)
	kg := math.Round(meanWeight*100) / 100
	ex.WeightKg = &kg
	ex.CaloriesBurned = intPtr(roundInt(float64(len(sets)) * meanReps * meanWeight * m.cfg.CalorieFactor))
	return ex
}
