// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package healthexport

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tomtom215/vitalport/internal/ingest"
	"github.com/tomtom215/vitalport/internal/models"
)

const sampleDocument = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE HealthData [
<!ELEMENT HealthData (ExportDate,Me,(Record|Correlation|Workout|ActivitySummary)*)>
<!ATTLIST HealthData
  locale CDATA #REQUIRED
>
<!ELEMENT Record ((MetadataEntry|HeartRateVariabilityMetadataList)*)>
<!ATTLIST Record
  type          CDATA #REQUIRED
  value         CDATA #IMPLIED
>
]>
<HealthData locale="pt_BR">
 <ExportDate value="2026-01-20 10:00:00 -0300"/>
 <Me HKCharacteristicTypeIdentifierBiologicalSex="HKBiologicalSexMale"/>
 <Record type="HKQuantityTypeIdentifierBodyMass" sourceName="Balan&#231;a &amp; Co" unit="kg" creationDate="2026-01-15 07:01:00 -0300" startDate="2026-01-15 07:00:00 -0300" endDate="2026-01-15 07:00:00 -0300" value="80.5"/>
 <Record type="HKQuantityTypeIdentifierBodyFatPercentage" sourceName="Scale" unit="%" startDate="2026-01-15 07:00:00 -0300" endDate="2026-01-15 07:00:00 -0300" value="0.185"/>
 <Record type="HKQuantityTypeIdentifierHeartRate" sourceName="Watch" unit="count/min" startDate="2026-01-15 08:00:00 -0300" endDate="2026-01-15 08:00:00 -0300" value="72">
  <MetadataEntry key="HKMetadataKeyHeartRateMotionContext" value="0"/>
 </Record>
 <Record type="HKQuantityTypeIdentifierDietaryWater" sourceName="App" unit="mL" startDate="2026-01-15 09:00:00 -0300" endDate="2026-01-15 09:00:00 -0300" value="250"/>
 <Record type="HKQuantityTypeIdentifierBodyMass" sourceName="Scale" unit="kg" startDate="2026-01-16 07:00:00 -0300" endDate="2026-01-16 07:00:00 -0300" value="heavy"/>
 <Record type="HKCategoryTypeIdentifierSleepAnalysis" sourceName="Watch" startDate="2026-01-14 23:10:00 -0300" endDate="2026-01-15 01:00:00 -0300" value="HKCategoryValueSleepAnalysisAsleepCore"/>
 <Record type="HKCategoryTypeIdentifierSleepAnalysis" sourceName="Watch" startDate="2026-01-15 01:00:00 -0300" endDate="2026-01-15 02:30:00 -0300" value="HKCategoryValueSleepAnalysisAsleepDeep"/>
 <Record type="HKCategoryTypeIdentifierSleepAnalysis" sourceName="Watch" startDate="2026-01-15 02:30:00 -0300" endDate="2026-01-15 03:00:00 -0300" value="HKCategoryValueSleepAnalysisAwake"/>
 <Record type="HKQuantityTypeIdentifierBloodGlucose" sourceName="Meter" unit="mmol&lt;180.1558800000541&gt;/L" startDate="2026-01-15 08:30:00 -0300" endDate="2026-01-15 08:30:00 -0300" value="5,5"/>
 <Workout workoutActivityType="HKWorkoutActivityTypeRunning" duration="30.5" durationUnit="min" totalDistance="3.1" totalDistanceUnit="mi" totalEnergyBurned="1255.2" totalEnergyBurnedUnit="kJ" sourceName="Watch" startDate="2026-01-15 18:00:00 -0300" endDate="2026-01-15 18:30:30 -0300">
  <WorkoutEvent type="HKWorkoutEventTypePause" date="2026-01-15 18:10:00 -0300"/>
 </Workout>
 <Workout workoutActivityType="HKWorkoutActivityTypeTraditionalStrengthTraining" sourceName="Watch" startDate="2026-01-16 18:00:00 -0300" endDate="2026-01-16 19:00:00 -0300"/>
</HealthData>
`

// markupDocument carries comments around and between elements, and quoted
// attribute values holding '>'.
const markupDocument = `<?xml version="1.0" encoding="UTF-8"?>
<!-- exported by a third-party app -->
<HealthData locale="en_US">
 <!-- <Record type="HKQuantityTypeIdentifierBodyMass" unit="kg" startDate="2026-01-14 07:00:00 -0300" endDate="2026-01-14 07:00:00 -0300" value="70"/> -->
 <Record type="HKQuantityTypeIdentifierBodyMass" sourceName="Scale > Phone" unit="kg" startDate="2026-01-15 07:00:00 -0300" endDate="2026-01-15 07:00:00 -0300" value="80.5"/>
 <!--
   <Workout workoutActivityType="HKWorkoutActivityTypeRunning" startDate="2026-01-14 18:00:00 -0300" endDate="2026-01-14 18:30:00 -0300"/>
 -->
 <Record type='HKQuantityTypeIdentifierBodyFatPercentage' sourceName='a > b' unit='%' startDate='2026-01-15 07:00:00 -0300' endDate='2026-01-15 07:00:00 -0300' value='0.2'/><!--x-->
</HealthData>
`

func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("Write(%s): %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

// flatten renders a RecordLog in a form that compares equal across parse paths.
func flatten(log *models.RecordLog) []string {
	var out []string
	for _, r := range log.Records {
		out = append(out, fmt.Sprintf("R %s %v %q %s %s %s", r.Kind, r.Value, r.Unit,
			r.StartTime.Format("2006-01-02T15:04:05-07:00"), r.EndTime.Format("2006-01-02T15:04:05-07:00"), r.SourceName))
	}
	for _, w := range log.Workouts {
		energy, dist := "nil", "nil"
		if w.TotalEnergyKcal != nil {
			energy = fmt.Sprintf("%.3f", *w.TotalEnergyKcal)
		}
		if w.TotalDistanceKm != nil {
			dist = fmt.Sprintf("%.3f", *w.TotalDistanceKm)
		}
		out = append(out, fmt.Sprintf("W %s %s %s %s %s", w.ActivityKind,
			w.StartTime.Format("2006-01-02T15:04:05-07:00"), w.EndTime.Format("2006-01-02T15:04:05-07:00"), energy, dist))
	}
	for _, s := range log.Sleep {
		out = append(out, fmt.Sprintf("S %s %s %s", s.Stage,
			s.StartTime.Format("2006-01-02T15:04:05-07:00"), s.EndTime.Format("2006-01-02T15:04:05-07:00")))
	}
	out = append(out, fmt.Sprintf("skipped=%d", log.Skipped))
	out = append(out, log.Errors...)
	return out
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestParseDocument(t *testing.T) {
	t.Parallel()

	log, err := ParseDocument([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	// BodyMass, BodyFat, HeartRate, BloodGlucose; DietaryWater is not supported
	// and the second BodyMass has an invalid value.
	if len(log.Records) != 4 {
		t.Errorf("len(Records) = %d, want 4", len(log.Records))
	}
	if len(log.Workouts) != 2 {
		t.Errorf("len(Workouts) = %d, want 2", len(log.Workouts))
	}
	if len(log.Sleep) != 3 {
		t.Errorf("len(Sleep) = %d, want 3", len(log.Sleep))
	}
	if log.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", log.Skipped)
	}
	if len(log.Errors) != 1 || !strings.Contains(log.Errors[0], "heavy") {
		t.Errorf("Errors = %v, want one line mentioning the bad value", log.Errors)
	}

	weight := log.Records[0]
	if weight.SourceName != "Balança & Co" {
		t.Errorf("SourceName = %q, want unescaped %q", weight.SourceName, "Balança & Co")
	}
	if _, offset := weight.StartTime.Zone(); offset != -3*3600 {
		t.Errorf("StartTime offset = %d, want -10800", offset)
	}

	glucose := log.Records[3]
	if glucose.Value != 5.5 {
		t.Errorf("glucose Value = %v, want 5.5 from comma decimal", glucose.Value)
	}
	if !strings.HasPrefix(glucose.Unit, "mmol<") {
		t.Errorf("glucose Unit = %q", glucose.Unit)
	}

	run := log.Workouts[0]
	if run.TotalEnergyKcal == nil || *run.TotalEnergyKcal < 299 || *run.TotalEnergyKcal > 301 {
		t.Errorf("TotalEnergyKcal = %v, want ~300 kcal from kJ", run.TotalEnergyKcal)
	}
	if run.TotalDistanceKm == nil || *run.TotalDistanceKm < 4.98 || *run.TotalDistanceKm > 5.0 {
		t.Errorf("TotalDistanceKm = %v, want ~4.99 km from miles", run.TotalDistanceKm)
	}
	if log.Workouts[1].TotalEnergyKcal != nil {
		t.Error("strength workout TotalEnergyKcal should be nil")
	}

	if log.Sleep[0].Stage != models.SleepStageLight || log.Sleep[1].Stage != models.SleepStageDeep || log.Sleep[2].Stage != models.SleepStageAwake {
		t.Errorf("sleep stages = %v %v %v", log.Sleep[0].Stage, log.Sleep[1].Stage, log.Sleep[2].Stage)
	}
}

func TestStreamingMatchesDirect(t *testing.T) {
	t.Parallel()

	docs := map[string]string{
		"export": sampleDocument,
		"markup": markupDocument,
	}
	for name, doc := range docs {
		direct, err := ParseDocument([]byte(doc))
		if err != nil {
			t.Fatalf("%s: ParseDocument() error = %v", name, err)
		}
		want := flatten(direct)

		for _, chunkSize := range []int{1, 2, 3, 4, 7, 13, 64, 100, 333, 1024, len(doc)} {
			t.Run(fmt.Sprintf("%s/chunk=%d", name, chunkSize), func(t *testing.T) {
				streamed, err := scanDocument([]byte(doc), chunkSize, DefaultMaxElementBytes)
				if err != nil {
					t.Fatalf("scanDocument() error = %v", err)
				}
				if got := flatten(streamed); !equalLines(got, want) {
					t.Errorf("streaming output differs from direct\n got: %v\nwant: %v", got, want)
				}
			})
		}
	}
}

func TestChunkParserSkipsCommentsAndQuotedBrackets(t *testing.T) {
	t.Parallel()

	log, err := scanDocument([]byte(markupDocument), 5, DefaultMaxElementBytes)
	if err != nil {
		t.Fatalf("scanDocument() error = %v", err)
	}
	if len(log.Records) != 2 || len(log.Workouts) != 0 || len(log.Errors) != 0 {
		t.Fatalf("log = %+v, want two records and no workouts or errors", log)
	}
	if r := log.Records[0]; r.Value != 80.5 || r.SourceName != "Scale > Phone" {
		t.Errorf("first record = %+v, want 80.5 kg from %q", r, "Scale > Phone")
	}
	if r := log.Records[1]; r.SourceName != "a > b" {
		t.Errorf("second record source = %q, want %q", r.SourceName, "a > b")
	}
}

func TestChunkParserCarryover(t *testing.T) {
	t.Parallel()

	p := NewChunkParser(0)
	tag := `<Record type="HKQuantityTypeIdentifierBodyMass" unit="kg" startDate="2026-01-15 07:00:00 -0300" endDate="2026-01-15 07:00:00 -0300" value="80"/>`

	if err := p.Feed([]byte("<HealthData>" + tag[:40])); err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if len(p.carry) == 0 {
		t.Fatal("carry is empty after a cut element")
	}
	if err := p.Feed([]byte(tag[40:] + "</HealthData>")); err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if len(p.carry) != 0 {
		t.Errorf("carry = %q, want empty after complete element", p.carry)
	}

	log, sawMarker := p.Finish()
	if !sawMarker {
		t.Error("sawMarker = false")
	}
	if len(log.Records) != 1 || log.Records[0].Value != 80 {
		t.Errorf("Records = %+v, want one 80 kg record", log.Records)
	}
	if p.Chunks() != 2 {
		t.Errorf("Chunks() = %d, want 2", p.Chunks())
	}
}

func TestChunkParserRejectsOversizedElement(t *testing.T) {
	t.Parallel()

	p := NewChunkParser(16)
	err := p.Feed([]byte(`<Record type="HKQuantityTypeIdentifierBodyMass" value="80"`))
	if !ingest.IsCapacityError(err) {
		t.Errorf("Feed() error = %v, want CapacityError", err)
	}
}

func TestExtract(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("direct path", func(t *testing.T) {
		data := buildArchive(t, map[string]string{
			"apple_health_export/export_cda.xml": "<ClinicalDocument/>",
			"apple_health_export/export.xml":     sampleDocument,
		})
		res, err := NewExtractor(Config{}).Extract(ctx, bytes.NewReader(data), int64(len(data)))
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if res.Mode != ModeDirect {
			t.Errorf("Mode = %v, want direct", res.Mode)
		}
		if res.EntryName != "apple_health_export/export.xml" {
			t.Errorf("EntryName = %q", res.EntryName)
		}
		if res.Log.Total() != 9 {
			t.Errorf("Total() = %d, want 9", res.Log.Total())
		}
	})

	t.Run("streaming above threshold", func(t *testing.T) {
		data := buildArchive(t, map[string]string{"apple_health_export/export.xml": sampleDocument})
		ex := NewExtractor(Config{SizeThreshold: 512, ChunkSize: 97})
		res, err := ex.Extract(ctx, bytes.NewReader(data), int64(len(data)))
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if res.Mode != ModeStreaming {
			t.Errorf("Mode = %v, want streaming", res.Mode)
		}
		if res.Chunks < 2 {
			t.Errorf("Chunks = %d, want several windows", res.Chunks)
		}

		direct, _ := ParseDocument([]byte(sampleDocument))
		if !equalLines(flatten(res.Log), flatten(direct)) {
			t.Error("streamed archive output differs from direct parse")
		}
	})

	t.Run("localized entry name", func(t *testing.T) {
		data := buildArchive(t, map[string]string{"apple_health_export/EXPORTAR.XML": sampleDocument})
		res, err := NewExtractor(Config{}).Extract(ctx, bytes.NewReader(data), int64(len(data)))
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if res.Log.Total() == 0 {
			t.Error("no records parsed from exportar.xml")
		}
	})

	t.Run("missing entry lists contents", func(t *testing.T) {
		data := buildArchive(t, map[string]string{
			"apple_health_export/export_cda.xml":       "<ClinicalDocument/>",
			"apple_health_export/workout-routes/r.gpx": "<gpx/>",
		})
		_, err := NewExtractor(Config{}).Extract(ctx, bytes.NewReader(data), int64(len(data)))

		var fe *ingest.FormatError
		if !errors.As(err, &fe) {
			t.Fatalf("Extract() error = %v, want FormatError", err)
		}
		if len(fe.Entries) == 0 {
			t.Fatal("FormatError.Entries is empty")
		}
		found := false
		for _, e := range fe.Entries {
			if e == "apple_health_export/export_cda.xml" || e == "apple_health_export/workout-routes/r.gpx" {
				found = true
			}
		}
		if !found {
			t.Errorf("Entries = %v, want an actual archive entry", fe.Entries)
		}
		if !strings.Contains(err.Error(), "export_cda.xml") && !strings.Contains(err.Error(), "r.gpx") {
			t.Errorf("Error() = %q, want entry names", err.Error())
		}
	})

	t.Run("not a zip", func(t *testing.T) {
		data := []byte("this is not an archive")
		_, err := NewExtractor(Config{}).Extract(ctx, bytes.NewReader(data), int64(len(data)))
		if !ingest.IsFormatError(err) {
			t.Errorf("Extract() error = %v, want FormatError", err)
		}
	})

	t.Run("entry without records", func(t *testing.T) {
		data := buildArchive(t, map[string]string{"export.xml": "<Nothing/>"})
		_, err := NewExtractor(Config{}).Extract(ctx, bytes.NewReader(data), int64(len(data)))
		if !ingest.IsFormatError(err) {
			t.Errorf("Extract() error = %v, want FormatError", err)
		}
	})

	t.Run("cancelled before streaming", func(t *testing.T) {
		data := buildArchive(t, map[string]string{"export.xml": sampleDocument})
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := NewExtractor(Config{SizeThreshold: 1}).Extract(cctx, bytes.NewReader(data), int64(len(data)))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Extract() error = %v, want context.Canceled", err)
		}
	})
}

func TestMaterializeRefusesMisreportedSize(t *testing.T) {
	t.Parallel()

	data := buildArchive(t, map[string]string{"export.xml": sampleDocument})
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	entry := zr.File[0]
	// Simulate an archive that under-reports the entry size.
	entry.UncompressedSize64 = 10

	ex := NewExtractor(Config{SizeThreshold: 100, ChunkSize: 50})
	_, err = ex.materialize(entry)
	if !ingest.IsCapacityError(err) {
		t.Fatalf("materialize() error = %v, want CapacityError", err)
	}

	res, err := ex.extractStreaming(context.Background(), entry)
	if err != nil {
		t.Fatalf("extractStreaming() error = %v", err)
	}
	direct, _ := ParseDocument([]byte(sampleDocument))
	if !equalLines(flatten(res.Log), flatten(direct)) {
		t.Error("streaming fallback output differs from direct parse")
	}
}

func TestMaterializeStopsAtThreshold(t *testing.T) {
	t.Parallel()

	data := buildArchive(t, map[string]string{"export.xml": sampleDocument})
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}

	ex := NewExtractor(Config{SizeThreshold: 100, ChunkSize: 50})
	_, err = ex.materialize(zr.File[0])
	var capErr *ingest.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("materialize() error = %v, want CapacityError", err)
	}
	if capErr.Size != 101 || capErr.Limit != 100 {
		t.Errorf("CapacityError = %+v, want Size 101 (threshold plus one) and Limit 100", capErr)
	}
}
