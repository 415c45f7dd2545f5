// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package healthimport

import (
	"github.com/tomtom215/vitalport/internal/ingest"
	"github.com/tomtom215/vitalport/internal/metrics"
	"github.com/tomtom215/vitalport/internal/models"
	"github.com/tomtom215/vitalport/internal/validation"
)

// validateBatch drops entities that fail struct validation and records one
// row error per dropped entity.
func validateBatch(b *models.Batch, errs *ingest.RowErrors) {
	b.WeightLogs = keepValid(b.WeightLogs, errs)
	b.BodyFatLogs = keepValid(b.BodyFatLogs, errs)
	b.Workouts = keepValid(b.Workouts, errs)
	b.SleepSessions = keepValid(b.SleepSessions, errs)
	b.GlucoseReadings = keepValid(b.GlucoseReadings, errs)
}

func keepValid[T models.Entity](items []T, errs *ingest.RowErrors) []T {
	kept := items[:0]
	for _, item := range items {
		if err := validation.ValidateStruct(item); err != nil {
			errs.Addf("%s %s: %v", item.EntityType(), item.DedupKey(), err)
			metrics.RecordEntities(string(item.EntityType()), 0, 0, 1)
			continue
		}
		kept = append(kept, item)
	}
	return kept
}
