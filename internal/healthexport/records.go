// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package healthexport

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/vitalport/internal/ingest"
	"github.com/tomtom215/vitalport/internal/models"
)

// Supported record kinds. Records of any other type are skipped silently.
const (
	KindBodyMass      = "HKQuantityTypeIdentifierBodyMass"
	KindBodyFat       = "HKQuantityTypeIdentifierBodyFatPercentage"
	KindHeartRate     = "HKQuantityTypeIdentifierHeartRate"
	KindStepCount     = "HKQuantityTypeIdentifierStepCount"
	KindActiveEnergy  = "HKQuantityTypeIdentifierActiveEnergyBurned"
	KindBloodGlucose  = "HKQuantityTypeIdentifierBloodGlucose"
	KindSleepAnalysis = "HKCategoryTypeIdentifierSleepAnalysis"
)

const (
	elementRecord   = "Record"
	elementWorkout  = "Workout"
	timestampLayout = "2006-01-02 15:04:05 -0700"
)

var quantityKinds = map[string]bool{
	KindBodyMass:     true,
	KindBodyFat:      true,
	KindHeartRate:    true,
	KindStepCount:    true,
	KindActiveEnergy: true,
	KindBloodGlucose: true,
}

var sleepStages = map[string]models.SleepStage{
	"HKCategoryValueSleepAnalysisInBed":             models.SleepStageInBed,
	"HKCategoryValueSleepAnalysisAsleep":            models.SleepStageLight,
	"HKCategoryValueSleepAnalysisAsleepUnspecified": models.SleepStageLight,
	"HKCategoryValueSleepAnalysisAsleepCore":        models.SleepStageLight,
	"HKCategoryValueSleepAnalysisAsleepDeep":        models.SleepStageDeep,
	"HKCategoryValueSleepAnalysisAsleepREM":         models.SleepStageREM,
	"HKCategoryValueSleepAnalysisAwake":             models.SleepStageAwake,
}

// attrFunc returns the unescaped value of an attribute, or "" when absent.
type attrFunc func(name string) string

// collector turns element attributes into typed raw records. The direct and
// streaming parsers both funnel every element through add, which keeps their
// output identical.
type collector struct {
	log *models.RecordLog
}

func newCollector() *collector {
	return &collector{log: &models.RecordLog{}}
}

func (c *collector) skip(format string, args ...any) {
	c.log.Skipped++
	c.log.Errors = append(c.log.Errors, fmt.Sprintf(format, args...))
}

func (c *collector) add(element string, attr attrFunc) {
	switch element {
	case elementRecord:
		c.addRecord(attr)
	case elementWorkout:
		c.addWorkout(attr)
	}
}

func (c *collector) addRecord(attr attrFunc) {
	kind := attr("type")
	if kind != KindSleepAnalysis && !quantityKinds[kind] {
		return
	}

	start, errStart := parseTimestamp(attr("startDate"))
	end, errEnd := parseTimestamp(attr("endDate"))
	if errStart != nil || errEnd != nil {
		c.skip("%s: invalid timestamp %q/%q", shortKind(kind), attr("startDate"), attr("endDate"))
		return
	}

	if kind == KindSleepAnalysis {
		stage, ok := sleepStages[attr("value")]
		if !ok {
			return
		}
		c.log.Sleep = append(c.log.Sleep, models.RawSleepEntry{Stage: stage, StartTime: start, EndTime: end})
		return
	}

	raw := attr("value")
	value, ok := ingest.ParseDecimal(raw)
	if !ok {
		c.skip("%s at %s: invalid value %q", shortKind(kind), attr("startDate"), raw)
		return
	}

	c.log.Records = append(c.log.Records, models.RawRecord{
		Kind:       kind,
		Value:      value,
		Text:       raw,
		Unit:       attr("unit"),
		StartTime:  start,
		EndTime:    end,
		SourceName: attr("sourceName"),
	})
}

func (c *collector) addWorkout(attr attrFunc) {
	start, errStart := parseTimestamp(attr("startDate"))
	end, errEnd := parseTimestamp(attr("endDate"))
	if errStart != nil || errEnd != nil {
		c.skip("workout: invalid timestamp %q/%q", attr("startDate"), attr("endDate"))
		return
	}

	w := models.RawWorkoutRecord{
		ActivityKind: attr("workoutActivityType"),
		StartTime:    start,
		EndTime:      end,
		SourceName:   attr("sourceName"),
	}

	if raw := attr("totalEnergyBurned"); raw != "" {
		v, ok := ingest.ParseDecimal(raw)
		if !ok {
			c.skip("workout at %s: invalid totalEnergyBurned %q", attr("startDate"), raw)
			return
		}
		if attr("totalEnergyBurnedUnit") == "kJ" {
			v /= 4.184
		}
		w.TotalEnergyKcal = &v
	}

	if raw := attr("totalDistance"); raw != "" {
		v, ok := ingest.ParseDecimal(raw)
		if !ok {
			c.skip("workout at %s: invalid totalDistance %q", attr("startDate"), raw)
			return
		}
		switch attr("totalDistanceUnit") {
		case "mi":
			v *= 1.609344
		case "m":
			v /= 1000
		}
		w.TotalDistanceKm = &v
	}

	c.log.Workouts = append(c.log.Workouts, w)
}

// parseTimestamp keeps the offset written in the export. Calendar-day
// assignment happens in the mapper.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(timestampLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func shortKind(kind string) string {
	kind = strings.TrimPrefix(kind, "HKQuantityTypeIdentifier")
	return strings.TrimPrefix(kind, "HKCategoryTypeIdentifier")
}
