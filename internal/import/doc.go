// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

// Package healthimport runs the import pipeline for one uploaded file.
//
// # Pipeline
//
//	file ─► ingest.Detect
//	          ├─ archive ─► healthexport.Extractor ─► mapper.FromRecordLog
//	          ├─ strength csv ─► tabular.ParseStrengthCSV ─► mapper.Workouts
//	          └─ glucose sheet ─► tabular.ParseGlucose ─► mapper.GlucoseReadings
//	        ─► validation ─► persistence.Dispatcher ─► ledger
//
// Each run holds the user's import lock from start to finish, so two imports
// for one user never interleave against the same store. A run either rejects
// the file before any write (format errors) or writes each entity type as one
// batch.
//
// # Errors
//
// Row-level problems never abort a run; they are collected into
// ImportResult.Errors. Fatal problems (unrecognized or malformed files, a
// failed remote write) are returned as errors together with a result whose
// status is error. A concurrent import is rejected with
// lock.ErrImportInProgress and no result.
//
// Every run appends one ledger entry and gets its own correlation ID, which
// is attached to all log lines of the run.
package healthimport
