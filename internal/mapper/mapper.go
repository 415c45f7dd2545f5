// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package mapper

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tomtom215/vitalport/internal/healthexport"
	"github.com/tomtom215/vitalport/internal/ingest"
	"github.com/tomtom215/vitalport/internal/models"
)

const (
	// DefaultSleepGapThreshold: intervals closer than this belong to one night.
	DefaultSleepGapThreshold = 2 * time.Hour

	// DefaultCalorieFactor is the strength-training calorie placeholder.
	DefaultCalorieFactor = 0.05

	SourceRecordLog   = "apple_health"
	SourceStrengthCSV = "strength_csv"
)

// Config holds mapper tuning.
type Config struct {
	SleepGapThreshold time.Duration
	CalorieFactor     float64
}

// Mapper converts raw rows into domain entities. It holds no state between
// calls and is safe for concurrent use.
type Mapper struct {
	cfg Config
}

// New returns a Mapper with defaults applied to zero fields.
func New(cfg Config) *Mapper {
	if cfg.SleepGapThreshold <= 0 {
		cfg.SleepGapThreshold = DefaultSleepGapThreshold
	}
	if cfg.CalorieFactor <= 0 {
		cfg.CalorieFactor = DefaultCalorieFactor
	}
	return &Mapper{cfg: cfg}
}

// FromRecordLog maps a parsed record log. Body mass and body fat keep the
// latest sample of each calendar day. Records that cannot be normalized are
// reported to errs.
func (m *Mapper) FromRecordLog(log *models.RecordLog, errs *ingest.RowErrors) *models.Batch {
	b := &models.Batch{}
	weightIdx := map[string]int{}
	fatIdx := map[string]int{}
	weightAt := map[string]time.Time{}
	fatAt := map[string]time.Time{}

	for i := range log.Records {
		r := &log.Records[i]
		date := models.LocalDate(r.StartTime)
		source := r.SourceName
		if source == "" {
			source = SourceRecordLog
		}

		switch r.Kind {
		case healthexport.KindBodyMass:
			kg, ok := NormalizeWeightKg(r.Value, r.Unit)
			if !ok {
				errs.Addf("weight on %s: unsupported unit %q", date, r.Unit)
				continue
			}
			w := models.WeightLog{Date: date, WeightKg: kg, Source: source, RawText: rawText(r)}
			if idx, seen := weightIdx[date]; seen {
				if r.StartTime.After(weightAt[date]) {
					b.WeightLogs[idx] = w
					weightAt[date] = r.StartTime
				}
				continue
			}
			weightIdx[date] = len(b.WeightLogs)
			weightAt[date] = r.StartTime
			b.WeightLogs = append(b.WeightLogs, w)

		case healthexport.KindBodyFat:
			f := models.BodyFatLog{Date: date, BodyFatPct: NormalizeBodyFatPct(r.Value), Source: source, RawText: rawText(r)}
			if idx, seen := fatIdx[date]; seen {
				if r.StartTime.After(fatAt[date]) {
					b.BodyFatLogs[idx] = f
					fatAt[date] = r.StartTime
				}
				continue
			}
			fatIdx[date] = len(b.BodyFatLogs)
			fatAt[date] = r.StartTime
			b.BodyFatLogs = append(b.BodyFatLogs, f)

		case healthexport.KindBloodGlucose:
			mgdl := NormalizeGlucose(r.Value, r.Unit)
			if !GlucoseInRange(mgdl) {
				errs.Addf("glucose on %s %s: %d mg/dL outside [%d, %d], dropped as sensor noise",
					date, models.LocalClock(r.StartTime), mgdl, MinGlucoseMgDl, MaxGlucoseMgDl)
				continue
			}
			b.GlucoseReadings = append(b.GlucoseReadings, models.GlucoseReading{
				Date:            date,
				Time:            models.LocalClock(r.StartTime),
				GlucoseMgDl:     mgdl,
				MeasurementType: models.MeasurementRandom,
				Device:          r.SourceName,
			})
		}
	}

	for _, w := range log.Workouts {
		b.Workouts = append(b.Workouts, m.workoutFromRecord(w))
	}
	b.SleepSessions = m.SleepSessions(log.Sleep)
	return b
}

// GlucoseReadings normalizes spreadsheet samples to mg/dL and drops
// out-of-range readings with a row error.
func (m *Mapper) GlucoseReadings(samples []models.GlucoseSample, mt models.MeasurementType, errs *ingest.RowErrors) []models.GlucoseReading {
	out := make([]models.GlucoseReading, 0, len(samples))
	for _, s := range samples {
		mgdl := NormalizeGlucose(s.Value, s.Unit)
		if !GlucoseInRange(mgdl) {
			errs.Addf("row %d: glucose %d mg/dL outside [%d, %d], dropped as sensor noise",
				s.Line, mgdl, MinGlucoseMgDl, MaxGlucoseMgDl)
			continue
		}
		out = append(out, models.GlucoseReading{
			Date:            models.LocalDate(s.Time),
			Time:            models.LocalClock(s.Time),
			GlucoseMgDl:     mgdl,
			MeasurementType: mt,
			Device:          s.Device,
		})
	}
	return out
}

func rawText(r *models.RawRecord) string {
	if r.Unit == "" {
		return r.Text
	}
	return r.Text + " " + r.Unit
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

func intPtr(v int) *int { return &v }

func minutesBetween(start, end time.Time) (int, bool) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return 0, false
	}
	return roundInt(end.Sub(start).Minutes()), true
}

func describeWorkout(kind string, distanceKm *float64) string {
	if distanceKm == nil {
		return kind
	}
	return fmt.Sprintf("%s %.2f km", kind, *distanceKm)
}

// prettifyActivity turns HKWorkoutActivityTypeTraditionalStrengthTraining into
// "Traditional Strength Training".
func prettifyActivity(kind string) string {
	name := strings.TrimPrefix(kind, "HKWorkoutActivityType")
	if name == "" {
		return "Workout"
	}
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := name[i-1]
			if prev < 'A' || prev > 'Z' {
				b.WriteByte(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
