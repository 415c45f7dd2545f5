// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package healthimport

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/vitalport/internal/config"
	"github.com/tomtom215/vitalport/internal/ingest"
	"github.com/tomtom215/vitalport/internal/ledger"
	"github.com/tomtom215/vitalport/internal/lock"
	"github.com/tomtom215/vitalport/internal/models"
	"github.com/tomtom215/vitalport/internal/persistence"
)

const recordLog = `<?xml version="1.0" encoding="UTF-8"?>
<HealthData locale="en_US">
 <Record type="HKQuantityTypeIdentifierBodyMass" sourceName="Scale" unit="kg" startDate="2026-01-15 07:00:00 -0300" endDate="2026-01-15 07:00:00 -0300" value="80.5"/>
 <Record type="HKQuantityTypeIdentifierBodyMass" sourceName="Scale" unit="kg" startDate="2026-01-16 07:00:00 -0300" endDate="2026-01-16 07:00:00 -0300" value="81"/>
 <Record type="HKQuantityTypeIdentifierBloodGlucose" sourceName="Meter" unit="mg/dL" startDate="2026-01-15 08:30:00 -0300" endDate="2026-01-15 08:30:00 -0300" value="95"/>
</HealthData>`

const strengthExport = `"title","start_time","end_time","exercise_title","weight_kg","reps"
"Treino A","15 Jan 2026, 18:00","15 Jan 2026, 19:05","Supino Reto",80,10
"Treino A","15 Jan 2026, 18:00","15 Jan 2026, 19:05","Supino Reto",80,8
"Treino A","15 Jan 2026, 18:00","15 Jan 2026, 19:05","Supino Reto",80,6
`

type fixture struct {
	importer *Importer
	store    *persistence.MemoryStore
	ledger   *ledger.MemoryStore
	locker   *lock.MemoryLocker
}

func newFixture() *fixture {
	store := persistence.NewMemoryStore()
	ledgerStore := ledger.NewMemoryStore(100)
	locker := lock.NewMemoryLocker()
	cfg := &config.ImportConfig{MaxRowErrors: 50}
	return &fixture{
		importer: NewImporter(cfg, persistence.NewDispatcher(store, nil), ledgerStore, locker),
		store:    store,
		ledger:   ledgerStore,
		locker:   locker,
	}
}

func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func request(user, name string, data []byte) Request {
	return Request{UserID: user, FileName: name, File: bytes.NewReader(data), Size: int64(len(data))}
}

func TestImportArchiveAndReimport(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	data := buildArchive(t, map[string]string{"apple_health_export/export.xml": recordLog})

	first, err := f.importer.Import(ctx, request("u1", "export.zip", data))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if first.Status != models.StatusSuccess {
		t.Errorf("Status = %s, want success (errors %v)", first.Status, first.Errors)
	}
	if first.Format != string(ingest.FormatAppleStyleArchive) {
		t.Errorf("Format = %s", first.Format)
	}
	if first.Target != models.TargetLocal {
		t.Errorf("Target = %s, want local", first.Target)
	}
	if first.Counts.WeightLogs != 2 || first.Counts.GlucoseReadings != 1 || first.Imported() != 3 {
		t.Errorf("Counts = %+v", first.Counts)
	}

	second, err := f.importer.Import(ctx, request("u1", "export.zip", data))
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	if second.Imported() != 0 {
		t.Errorf("re-import Imported = %d, want 0", second.Imported())
	}
	if second.DuplicatesSkipped != first.Imported() {
		t.Errorf("re-import DuplicatesSkipped = %d, want %d", second.DuplicatesSkipped, first.Imported())
	}
	if second.Status != models.StatusError {
		t.Errorf("re-import Status = %s, want error", second.Status)
	}
	if n := len(f.store.Entities("u1", models.EntityWeight)); n != 2 {
		t.Errorf("stored weights = %d, want 2", n)
	}

	entries, err := f.importer.History(ctx, ledger.Filter{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("ledger entries = %d, want 2", len(entries))
	}
	if entries[1].ItemCount != 3 || entries[0].DuplicatesSkipped != 3 {
		t.Errorf("ledger = %+v", entries)
	}
	if entries[0].CorrelationID == "" || entries[0].CorrelationID == entries[1].CorrelationID {
		t.Error("each run should carry its own correlation id")
	}
}

func TestImportGlucoseWorkbook(t *testing.T) {
	t.Parallel()
	f := newFixture()

	wb := excelize.NewFile()
	row := []interface{}{"15-01-2026 08:30 GMT-3", 100}
	if err := wb.SetSheetRow("Sheet1", "A1", &row); err != nil {
		t.Fatal(err)
	}
	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	_ = wb.Close()

	res, err := f.importer.Import(context.Background(), request("u1", "sisensing_export.xlsx", buf.Bytes()))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Counts.GlucoseReadings != 1 {
		t.Fatalf("Counts = %+v, errors = %v", res.Counts, res.Errors)
	}

	stored := f.store.Entities("u1", models.EntityGlucose)
	if len(stored) != 1 {
		t.Fatalf("stored = %d", len(stored))
	}
	g := stored[0].(models.GlucoseReading)
	if g.Date != "2026-01-15" || g.Time != "08:30:00" || g.GlucoseMgDl != 100 {
		t.Errorf("reading = %+v", g)
	}
	if g.MeasurementType != models.MeasurementCGM {
		t.Errorf("MeasurementType = %s, want cgm", g.MeasurementType)
	}
}

func TestImportStrengthCSV(t *testing.T) {
	t.Parallel()
	f := newFixture()

	res, err := f.importer.Import(context.Background(), request("u1", "workouts.csv", []byte(strengthExport)))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Counts.Workouts != 1 || res.Status != models.StatusSuccess {
		t.Fatalf("result = %+v", res)
	}
	w := f.store.Entities("u1", models.EntityWorkout)[0].(models.Workout)
	if w.TotalCaloriesBurned == nil || *w.TotalCaloriesBurned != 96 {
		t.Errorf("TotalCaloriesBurned = %v, want 96", w.TotalCaloriesBurned)
	}
}

func TestImportHeaderOnly(t *testing.T) {
	t.Parallel()
	f := newFixture()
	header := strings.SplitN(strengthExport, "\n", 2)[0] + "\n"

	res, err := f.importer.Import(context.Background(), request("u1", "workouts.csv", []byte(header)))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Imported() != 0 || res.Status != models.StatusError {
		t.Errorf("result = %+v", res)
	}
	if res.Target != models.TargetNone {
		t.Errorf("Target = %s, want none", res.Target)
	}
}

func TestImportFatalFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file string
		data func(t *testing.T) []byte
	}{
		{
			name: "archive without record log",
			file: "export.zip",
			data: func(t *testing.T) []byte {
				return buildArchive(t, map[string]string{"apple_health_export/export_cda.xml": "<ClinicalDocument/>"})
			},
		},
		{
			name: "unknown file",
			file: "notes.txt",
			data: func(*testing.T) []byte { return []byte("hello") },
		},
		{
			name: "foreign csv",
			file: "data.csv",
			data: func(*testing.T) []byte { return []byte("a,b,c\n1,2,3\n") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture()

			res, err := f.importer.Import(context.Background(), request("u1", tt.file, tt.data(t)))
			if !ingest.IsFormatError(err) {
				t.Fatalf("error = %v, want format error", err)
			}
			if res == nil || res.Status != models.StatusError || len(res.Errors) == 0 {
				t.Fatalf("result = %+v", res)
			}
			if res.Errors[0] != err.Error() {
				t.Errorf("Errors[0] = %q, want the fatal message", res.Errors[0])
			}

			entries, _ := f.ledger.List(context.Background(), ledger.Filter{})
			if len(entries) != 1 || entries[0].Message == "" {
				t.Errorf("ledger = %+v", entries)
			}
		})
	}
}

func TestImportRejectedWhileLocked(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	unlock, err := f.locker.TryAcquire(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}

	res, err := f.importer.Import(ctx, request("u1", "workouts.csv", []byte(strengthExport)))
	if !errors.Is(err, lock.ErrImportInProgress) {
		t.Fatalf("error = %v, want ErrImportInProgress", err)
	}
	if res != nil {
		t.Errorf("result = %+v, want nil", res)
	}
	if _, err := f.importer.Summaries(ctx, "u1"); !errors.Is(err, lock.ErrImportInProgress) {
		t.Errorf("Summaries() error = %v, want ErrImportInProgress", err)
	}

	entries, _ := f.ledger.List(ctx, ledger.Filter{UserID: "u1"})
	if len(entries) != 1 || entries[0].Status != ledger.StatusRejected {
		t.Errorf("ledger = %+v", entries)
	}

	// Another user is unaffected.
	if _, err := f.importer.Import(ctx, request("u2", "workouts.csv", []byte(strengthExport))); err != nil {
		t.Errorf("other user Import() error = %v", err)
	}

	if err := unlock(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.importer.Import(ctx, request("u1", "workouts.csv", []byte(strengthExport))); err != nil {
		t.Errorf("Import() after unlock error = %v", err)
	}
}

func TestSummaries(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	data := buildArchive(t, map[string]string{"export.xml": recordLog})

	if _, err := f.importer.Import(ctx, request("u1", "export.zip", data)); err != nil {
		t.Fatal(err)
	}

	got, err := f.importer.Summaries(ctx, "u1")
	if err != nil {
		t.Fatalf("Summaries() error = %v", err)
	}
	if len(got) != len(models.EntityTypes) {
		t.Fatalf("len = %d", len(got))
	}
	weight := got[0]
	if weight.EntityType != models.EntityWeight || weight.Count != 2 {
		t.Errorf("weight summary = %+v", weight)
	}
	if weight.FirstDate != "2026-01-15" || weight.LastDate != "2026-01-16" {
		t.Errorf("weight range = %s..%s", weight.FirstDate, weight.LastDate)
	}
	if got[2].Count != 0 {
		t.Errorf("workouts = %+v, want empty", got[2])
	}
}

// blockingStore pauses Summary reads until release is closed.
type blockingStore struct {
	*persistence.MemoryStore
	reading chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *blockingStore) Summary(ctx context.Context, userID string, t models.EntityType) (models.EntitySummary, error) {
	s.once.Do(func() { close(s.reading) })
	<-s.release
	return s.MemoryStore.Summary(ctx, userID, t)
}

func TestSummariesHoldUserLock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := &blockingStore{
		MemoryStore: persistence.NewMemoryStore(),
		reading:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	locker := lock.NewMemoryLocker()
	importer := NewImporter(&config.ImportConfig{MaxRowErrors: 50},
		persistence.NewDispatcher(store, nil), ledger.NewMemoryStore(10), locker)

	done := make(chan error, 1)
	go func() {
		_, err := importer.Summaries(ctx, "u1")
		done <- err
	}()
	<-store.reading

	if _, err := importer.Import(ctx, request("u1", "workouts.csv", []byte(strengthExport))); !errors.Is(err, lock.ErrImportInProgress) {
		t.Errorf("Import() during summaries error = %v, want ErrImportInProgress", err)
	}
	if _, err := importer.Import(ctx, request("u2", "workouts.csv", []byte(strengthExport))); err != nil {
		t.Errorf("other user Import() error = %v", err)
	}

	close(store.release)
	if err := <-done; err != nil {
		t.Fatalf("Summaries() error = %v", err)
	}
	if held, _ := locker.Held(ctx, "u1"); held {
		t.Error("lock still held after Summaries returned")
	}
	if _, err := importer.Import(ctx, request("u1", "workouts.csv", []byte(strengthExport))); err != nil {
		t.Errorf("Import() after summaries error = %v", err)
	}
}

func TestImportRequiresUser(t *testing.T) {
	t.Parallel()
	f := newFixture()
	if _, err := f.importer.Import(context.Background(), request("", "workouts.csv", []byte(strengthExport))); err == nil {
		t.Error("expected error for empty user id")
	}
}
