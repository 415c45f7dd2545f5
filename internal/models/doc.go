// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

/*
Package models defines the data structures shared by every stage of the import pipeline.

Key Components:

  - Raw records: RawRecord, RawWorkoutRecord and RawSleepEntry are produced by the
    record-log parser and consumed by the entity mapper. They never leave one import run.
  - Domain entities: WeightLog, BodyFatLog, Workout, SleepSession and GlucoseReading are
    the five normalized entities handed to the persistence layer.
  - Batch: the per-run collection of mapped entities, grouped by EntityType.
  - ImportResult: the caller-facing result shape, identical regardless of which store
    received the batch.

Calendar Days:

Every entity carries a Date in YYYY-MM-DD form. The date is always the calendar day in
the offset carried by the source timestamp, never the importing machine's zone. Use
LocalDate and LocalClock for the conversion so the rule lives in one place.

Deduplication:

Entity.DedupKey returns the per-type uniqueness key used by both the local and the
remote stores:

  - weight, body fat, sleep: date
  - workout: date + name
  - glucose: date + time
*/
package models
