// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package healthexport

import (
	"archive/zip"
	"compress/flate"
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"path"
	"strings"
	"time"

	"github.com/tomtom215/vitalport/internal/ingest"
	"github.com/tomtom215/vitalport/internal/logging"
	"github.com/tomtom215/vitalport/internal/metrics"
	"github.com/tomtom215/vitalport/internal/models"
)

const (
	// DefaultSizeThreshold is the uncompressed entry size at which extraction
	// switches from direct load to streaming.
	DefaultSizeThreshold int64 = 100 << 20

	// DefaultChunkSize is the decompressed window fed to the chunk parser.
	DefaultChunkSize = 1 << 20

	// DefaultMaxElementBytes bounds a single element carried across windows.
	DefaultMaxElementBytes = 1 << 20

	// DefaultDiagnosticEntries is how many entry names a missing-entry error lists.
	DefaultDiagnosticEntries = 10
)

// DefaultEntryNames are the record-log file names found in localized exports.
var DefaultEntryNames = []string{"export.xml", "exportar.xml"}

const reexportHint = "re-export the archive from the Health app and upload the .zip unchanged"

// Mode reports which parse path produced a RecordLog.
type Mode string

const (
	ModeDirect    Mode = "direct"
	ModeStreaming Mode = "streaming"
)

// Config holds extractor settings. Zero fields take the package defaults.
type Config struct {
	SizeThreshold     int64
	ChunkSize         int
	MaxElementBytes   int
	EntryNames        []string
	DiagnosticEntries int
}

// Result is the output of one extraction.
type Result struct {
	Log       *models.RecordLog
	Mode      Mode
	EntryName string
	Chunks    int
}

// Extractor opens health export archives and parses their record log.
type Extractor struct {
	cfg Config
}

// NewExtractor returns an Extractor with defaults applied to cfg.
func NewExtractor(cfg Config) *Extractor {
	if cfg.SizeThreshold <= 0 {
		cfg.SizeThreshold = DefaultSizeThreshold
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.MaxElementBytes <= 0 {
		cfg.MaxElementBytes = DefaultMaxElementBytes
	}
	if len(cfg.EntryNames) == 0 {
		cfg.EntryNames = DefaultEntryNames
	}
	if cfg.DiagnosticEntries <= 0 {
		cfg.DiagnosticEntries = DefaultDiagnosticEntries
	}
	return &Extractor{cfg: cfg}
}

// Extract locates the record-log entry in the archive and parses it. Entries
// below the size threshold are loaded and decoded directly; larger entries, or
// entries whose direct load hits a capacity error, are streamed in windows.
func (e *Extractor) Extract(ctx context.Context, r io.ReaderAt, size int64) (*Result, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, &ingest.FormatError{
			Format:  ingest.FormatAppleStyleArchive,
			Message: "file is not a valid zip archive",
			Hint:    reexportHint,
			Cause:   err,
		}
	}

	entry := e.locate(zr)
	if entry == nil {
		return nil, &ingest.FormatError{
			Format:  ingest.FormatAppleStyleArchive,
			Message: fmt.Sprintf("record log (%s) not found in archive", strings.Join(e.cfg.EntryNames, " or ")),
			Hint:    reexportHint,
			Entries: e.entryNames(zr),
		}
	}

	logger := logging.Ctx(ctx)
	declared := int64(entry.UncompressedSize64)

	if declared < e.cfg.SizeThreshold {
		res, err := e.extractDirect(entry)
		if err == nil {
			return res, nil
		}
		if !ingest.IsCapacityError(err) {
			return nil, err
		}
		logger.Warn().
			Err(err).
			Str("entry", entry.Name).
			Int64("declared_size", declared).
			Msg("Direct load exceeded capacity, switching to streaming")
	} else {
		logger.Info().
			Str("entry", entry.Name).
			Int64("declared_size", declared).
			Int64("threshold", e.cfg.SizeThreshold).
			Msg("Record log above size threshold, streaming")
	}

	return e.extractStreaming(ctx, entry)
}

// locate finds the record-log entry by case-insensitive base name.
func (e *Extractor) locate(zr *zip.Reader) *zip.File {
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		base := path.Base(f.Name)
		for _, want := range e.cfg.EntryNames {
			if strings.EqualFold(base, want) {
				return f
			}
		}
	}
	return nil
}

func (e *Extractor) entryNames(zr *zip.Reader) []string {
	n := len(zr.File)
	if n > e.cfg.DiagnosticEntries {
		n = e.cfg.DiagnosticEntries
	}
	names := make([]string, 0, n)
	for _, f := range zr.File[:n] {
		names = append(names, f.Name)
	}
	return names
}

func (e *Extractor) extractDirect(entry *zip.File) (*Result, error) {
	data, err := e.materialize(entry)
	if err != nil {
		return nil, err
	}

	if !hasRecordMarker(data) {
		return nil, &ingest.FormatError{
			Format:  ingest.FormatAppleStyleArchive,
			Message: fmt.Sprintf("%s does not contain health records", entry.Name),
			Hint:    reexportHint,
		}
	}

	log, err := ParseDocument(data)
	if err != nil {
		// Some exports carry markup the XML decoder rejects; the element
		// scanner only needs complete start tags.
		log, err = scanDocument(data, e.cfg.ChunkSize, e.cfg.MaxElementBytes)
		if err != nil {
			return nil, err
		}
	}

	return &Result{Log: log, Mode: ModeDirect, EntryName: entry.Name}, nil
}

// materialize reads the entry fully, refusing to read past the threshold.
// archive/zip reports content longer than the declared size as ErrFormat.
// Both that and content past the threshold are capacity errors so the
// caller can stream.
func (e *Extractor) materialize(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, corruptEntryError(entry.Name, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, e.cfg.SizeThreshold+1))
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return nil, &ingest.CapacityError{Size: int64(entry.UncompressedSize64), Limit: e.cfg.SizeThreshold, Cause: err}
		}
		return nil, corruptEntryError(entry.Name, err)
	}
	if int64(len(data)) > e.cfg.SizeThreshold {
		return nil, &ingest.CapacityError{Size: int64(len(data)), Limit: e.cfg.SizeThreshold}
	}
	return data, nil
}

// openStream decompresses the raw entry bytes without the declared-size check
// applied by zip.File.Open. The CRC is verified by the caller at end of input.
func openStream(entry *zip.File) (io.ReadCloser, error) {
	raw, err := entry.OpenRaw()
	if err != nil {
		return nil, corruptEntryError(entry.Name, err)
	}
	switch entry.Method {
	case zip.Store:
		return io.NopCloser(raw), nil
	case zip.Deflate:
		return flate.NewReader(raw), nil
	default:
		return nil, &ingest.FormatError{
			Format:  ingest.FormatAppleStyleArchive,
			Message: fmt.Sprintf("archive entry %s uses unsupported compression method %d", entry.Name, entry.Method),
			Hint:    reexportHint,
		}
	}
}

func (e *Extractor) extractStreaming(ctx context.Context, entry *zip.File) (*Result, error) {
	start := time.Now()

	rc, err := openStream(entry)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	p := NewChunkParser(e.cfg.MaxElementBytes)
	buf := make([]byte, e.cfg.ChunkSize)
	sum := crc32.NewIEEE()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, readErr := io.ReadFull(rc, buf)
		if n > 0 {
			_, _ = sum.Write(buf[:n])
			if err := p.Feed(buf[:n]); err != nil {
				return nil, streamingExhausted(err)
			}
			metrics.StreamChunksTotal.Inc()
		}
		if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
			break
		}
		if readErr != nil {
			return nil, corruptEntryError(entry.Name, readErr)
		}
	}

	if entry.CRC32 != 0 && sum.Sum32() != entry.CRC32 {
		return nil, corruptEntryError(entry.Name, zip.ErrChecksum)
	}

	log, sawMarker := p.Finish()
	if !sawMarker {
		return nil, &ingest.FormatError{
			Format:  ingest.FormatAppleStyleArchive,
			Message: fmt.Sprintf("%s does not contain health records", entry.Name),
			Hint:    reexportHint,
		}
	}

	logging.Ctx(ctx).Info().
		Str("entry", entry.Name).
		Int("chunks", p.Chunks()).
		Int("items", log.Total()).
		Int("skipped", log.Skipped).
		Dur("duration", time.Since(start)).
		Msg("Streamed record log")

	return &Result{Log: log, Mode: ModeStreaming, EntryName: entry.Name, Chunks: p.Chunks()}, nil
}

// scanDocument runs the chunk scanner over an in-memory document.
func scanDocument(data []byte, chunkSize, maxElement int) (*models.RecordLog, error) {
	p := NewChunkParser(maxElement)
	for off := 0; off < len(data); off += chunkSize {
		end := off + chunkSize
		if end > len(data) {
			end = len(data)
		}
		if err := p.Feed(data[off:end]); err != nil {
			return nil, streamingExhausted(err)
		}
	}
	log, _ := p.Finish()
	return log, nil
}

func corruptEntryError(name string, err error) error {
	return &ingest.FormatError{
		Format:  ingest.FormatAppleStyleArchive,
		Message: fmt.Sprintf("archive entry %s is corrupt", name),
		Hint:    reexportHint,
		Cause:   err,
	}
}

func streamingExhausted(err error) error {
	return fmt.Errorf("file too large for this environment: %w", err)
}
