// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

/*
Package ingest selects a parsing strategy for an uploaded file and defines the
error taxonomy shared by every parser.

Detection order is extension first (.zip, .csv, .xlsx/.xls), then a file-name
substring sniff for the glucose vendor profile, then magic bytes for files with
no usable extension:

	d := ingest.Detect("Sisensing_export.xlsx", sample)
	// d.Format == FormatGlucoseSpreadsheet, d.Profile == ProfileSisensing

Error Taxonomy:

  - *FormatError: fatal, no partial recovery, shown verbatim with a hint
  - *CapacityError: document too large to load directly; recovered by streaming
  - row errors: collected in RowErrors, the row is skipped, never fatal
*/
package ingest
