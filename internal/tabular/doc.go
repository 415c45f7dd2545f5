// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

/*
Package tabular parses row-oriented third-party exports into typed rows.

Two independent parsers live here:

  - ParseStrengthCSV reads a strength-training CSV (one row per exercise set)
    into models.StrengthSet values. The header must carry the columns title,
    start_time, end_time, exercise_title, weight_kg and reps (matched
    case-insensitively as substrings) or the whole file is rejected before any
    row is read.
  - ParseGlucose reads the first sheet of a CGM workbook, or a CSV/TSV glucose
    export, into models.GlucoseSample values. Column roles are resolved once per
    file into a ColumnMap by header sniffing, with a positional fallback.

Rows are read one at a time through a rowSource so neither parser holds the
raw file in memory. Cells are accessed through RawRow, never by raw indexing.

Timestamps:

Each vendor Profile owns a ParseTimestamp function that tries a fixed list of
formats in priority order:

 1. spreadsheet date serial (46037.35)
 2. ISO 8601 (2026-01-15T08:30:00-03:00, 2026-01-15 08:30)
 3. vendor form (15-01-2026 08:30 GMT-3)
 4. generic slash form (15/01/2026 08:30 or 01/15/2026)

Adding a vendor format means appending a parser to a profile's list.
*/
package tabular
