// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package healthimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tomtom215/vitalport/internal/config"
	"github.com/tomtom215/vitalport/internal/healthexport"
	"github.com/tomtom215/vitalport/internal/ingest"
	"github.com/tomtom215/vitalport/internal/ledger"
	"github.com/tomtom215/vitalport/internal/lock"
	"github.com/tomtom215/vitalport/internal/logging"
	"github.com/tomtom215/vitalport/internal/mapper"
	"github.com/tomtom215/vitalport/internal/metrics"
	"github.com/tomtom215/vitalport/internal/models"
	"github.com/tomtom215/vitalport/internal/persistence"
	"github.com/tomtom215/vitalport/internal/tabular"
)

// Request is one file to import for one user.
type Request struct {
	UserID   string
	FileName string
	File     io.ReaderAt
	Size     int64
}

// Importer runs the pipeline. It is safe for concurrent use; runs for the
// same user are serialized by the locker.
type Importer struct {
	cfg        *config.ImportConfig
	extractor  *healthexport.Extractor
	mapper     *mapper.Mapper
	dispatcher *persistence.Dispatcher
	ledger     ledger.Store
	locker     lock.Locker
}

// NewImporter wires the pipeline stages.
func NewImporter(cfg *config.ImportConfig, dispatcher *persistence.Dispatcher, ledgerStore ledger.Store, locker lock.Locker) *Importer {
	return &Importer{
		cfg: cfg,
		extractor: healthexport.NewExtractor(healthexport.Config{
			SizeThreshold:     cfg.ArchiveSizeThreshold,
			ChunkSize:         cfg.StreamChunkSize,
			MaxElementBytes:   cfg.MaxElementBytes,
			EntryNames:        cfg.RecordLogEntries,
			DiagnosticEntries: cfg.DiagnosticEntryLimit,
		}),
		mapper: mapper.New(mapper.Config{
			SleepGapThreshold: cfg.SleepGapThreshold,
			CalorieFactor:     cfg.CalorieFactor,
		}),
		dispatcher: dispatcher,
		ledger:     ledgerStore,
		locker:     locker,
	}
}

// Import runs the whole pipeline for req. See the package documentation for
// the error contract.
func (i *Importer) Import(ctx context.Context, req Request) (*models.ImportResult, error) {
	if req.UserID == "" {
		return nil, errors.New("user id is required")
	}

	start := time.Now()
	ctx = logging.ContextWithNewCorrelationID(ctx)
	ctx = logging.ContextWithUserID(ctx, req.UserID)
	logger := logging.Ctx(ctx)

	unlock, err := i.locker.TryAcquire(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, lock.ErrImportInProgress) {
			logger.Warn().Str("file", req.FileName).Msg("Import rejected, another import is running for this user")
			i.appendLedger(ctx, req, "", &models.ImportResult{Status: ledger.StatusRejected, Target: models.TargetNone}, start, err)
			metrics.RecordImport("unknown", string(ledger.StatusRejected), time.Since(start))
		}
		return nil, err
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			logger.Warn().Err(err).Msg("Failed to release import lock")
		}
	}()

	metrics.TrackImport(true)
	defer metrics.TrackImport(false)

	logger.Info().Str("file", req.FileName).Int64("size", req.Size).Msg("Import started")

	result, runErr := i.run(ctx, req)

	i.appendLedger(ctx, req, result.Format, result, start, runErr)
	metrics.RecordImport(result.Format, string(result.Status), time.Since(start))

	event := logger.Info()
	if runErr != nil {
		event = logger.Error().Err(runErr)
	}
	event.Str("format", result.Format).
		Str("status", string(result.Status)).
		Str("target", string(result.Target)).
		Int("imported", result.Imported()).
		Int("duplicates", result.DuplicatesSkipped).
		Int("errors", len(result.Errors)).
		Dur("duration", time.Since(start)).
		Msg("Import finished")

	return result, runErr
}

// run executes detection through dispatch. The returned result is never nil.
func (i *Importer) run(ctx context.Context, req Request) (*models.ImportResult, error) {
	result := &models.ImportResult{
		Status: models.StatusError,
		Format: string(ingest.FormatUnrecognized),
		Errors: []string{},
		Target: models.TargetNone,
	}
	errs := &ingest.RowErrors{MaxLines: i.cfg.MaxRowErrors}

	detection, err := detect(req)
	if err != nil {
		return i.fail(result, errs, err)
	}
	result.Format = string(detection.Format)

	batch, err := i.parse(ctx, req, detection, errs)
	if err != nil {
		return i.fail(result, errs, err)
	}

	validateBatch(batch, errs)

	if batch.Len() == 0 {
		logging.Ctx(ctx).Warn().Int("row_errors", errs.Count()).Msg("Nothing to import after parsing")
		result.Errors = errs.Lines()
		return result, nil
	}

	target := i.dispatcher.Select(ctx)
	result.Target = target.Kind()

	outcome, dispatchErr := i.dispatcher.Dispatch(ctx, target, req.UserID, batch)
	result.Counts = outcome.Counts
	result.DuplicatesSkipped = outcome.DuplicatesSkipped
	if dispatchErr != nil {
		return i.fail(result, errs, dispatchErr)
	}

	result.Status = persistence.Status(result.Imported(), result.DuplicatesSkipped, errs.Count(), false)
	result.Errors = errs.Lines()
	return result, nil
}

// fail marks result as fatal and puts the fatal message first in Errors.
func (i *Importer) fail(result *models.ImportResult, errs *ingest.RowErrors, err error) (*models.ImportResult, error) {
	result.Status = persistence.Status(result.Imported(), result.DuplicatesSkipped, errs.Count(), true)
	result.Errors = append([]string{err.Error()}, errs.Lines()...)
	return result, err
}

func detect(req Request) (ingest.Detection, error) {
	sample := make([]byte, ingest.SampleSize)
	n, err := req.File.ReadAt(sample, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return ingest.Detection{}, fmt.Errorf("read file header: %w", err)
	}

	detection := ingest.Detect(req.FileName, sample[:n])
	if detection.Format == ingest.FormatUnrecognized {
		return detection, ingest.NewUnrecognizedError(req.FileName)
	}
	return detection, nil
}

// parse runs the format-specific parser and mapper.
func (i *Importer) parse(ctx context.Context, req Request, detection ingest.Detection, errs *ingest.RowErrors) (*models.Batch, error) {
	logger := logging.Ctx(ctx)
	body := io.NewSectionReader(req.File, 0, req.Size)

	switch detection.Format {
	case ingest.FormatAppleStyleArchive:
		res, err := i.extractor.Extract(ctx, req.File, req.Size)
		if err != nil {
			return nil, err
		}
		errs.Merge(res.Log.Errors)
		metrics.RecordRowErrors("record_log", res.Log.Skipped)
		logger.Info().Str("entry", res.EntryName).Str("mode", string(res.Mode)).
			Int("records", res.Log.Total()).Int("skipped", res.Log.Skipped).Msg("Record log parsed")
		return i.mapper.FromRecordLog(res.Log, errs), nil

	case ingest.FormatStrengthCSV:
		export, err := tabular.ParseStrengthCSV(body)
		if err != nil {
			return nil, err
		}
		errs.Merge(export.Errors)
		metrics.RecordRowErrors("strength_csv", len(export.Errors))
		logger.Info().Int("rows", export.Rows).Int("sets", len(export.Sets)).Msg("Strength export parsed")
		return &models.Batch{Workouts: i.mapper.Workouts(export.Sets)}, nil

	case ingest.FormatGlucoseSpreadsheet:
		sheet, err := tabular.ParseGlucose(body, detection.Container, detection.Profile)
		if err != nil {
			return nil, err
		}
		errs.Merge(sheet.Errors)
		metrics.RecordRowErrors("glucose_spreadsheet", len(sheet.Errors))
		logger.Info().Str("profile", string(sheet.Profile)).Int("rows", sheet.Rows).
			Int("samples", len(sheet.Samples)).Bool("positional", sheet.Columns.Positional).Msg("Glucose export parsed")
		return &models.Batch{GlucoseReadings: i.mapper.GlucoseReadings(sheet.Samples, models.MeasurementCGM, errs)}, nil
	}

	return nil, ingest.NewUnrecognizedError(req.FileName)
}

func (i *Importer) appendLedger(ctx context.Context, req Request, format string, result *models.ImportResult, start time.Time, runErr error) {
	entry := &ledger.Entry{
		UserID:            req.UserID,
		Source:            req.FileName,
		Format:            format,
		Status:            result.Status,
		ItemCount:         result.Imported(),
		DuplicatesSkipped: result.DuplicatesSkipped,
		ErrorCount:        len(result.Errors),
		Target:            result.Target,
		CorrelationID:     logging.CorrelationIDFromContext(ctx),
		DurationMs:        time.Since(start).Milliseconds(),
	}
	if runErr != nil {
		entry.Message = runErr.Error()
	}
	if err := i.ledger.Append(context.WithoutCancel(ctx), entry); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to append ledger entry")
	}
}

// History lists ledger entries newest-first.
func (i *Importer) History(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	return i.ledger.List(ctx, filter)
}
