// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

/*
Package healthexport extracts and parses the record log of a health platform
export archive.

The archive is a ZIP container holding one large XML document (export.xml, or a
localized name such as exportar.xml) with one element per measurement, workout
or sleep interval:

	<Record type="HKQuantityTypeIdentifierBodyMass" unit="kg" value="80.5"
	        startDate="2026-01-15 07:00:00 -0300" endDate="..." sourceName="Scale"/>
	<Workout workoutActivityType="HKWorkoutActivityTypeRunning" totalEnergyBurned="312" .../>

Parse Paths:

  - Direct: entries below Config.SizeThreshold are read fully and walked once
    with encoding/xml.
  - Streaming: larger entries, or entries whose direct read fails with a
    capacity error, are decompressed in Config.ChunkSize windows and fed to a
    ChunkParser. Memory for unparsed bytes stays bounded by one window plus the
    carryover of one cut element.

Both paths yield identical RecordLog output for the same document, independent
of window size.

Record kinds outside the supported list are skipped silently. A supported record
whose value or timestamp does not parse is dropped and counted in
RecordLog.Skipped. Timestamps keep the UTC offset written in the export.
*/
package healthexport
