// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package tabular

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/vitalport/internal/ingest"
)

// RawRow is one row of cells with 1-based source line numbering.
type RawRow struct {
	Line  int
	cells []string
}

// NewRawRow wraps cells read from line.
func NewRawRow(line int, cells []string) RawRow {
	return RawRow{Line: line, cells: cells}
}

// Len returns the number of cells.
func (r RawRow) Len() int {
	return len(r.cells)
}

// Cell returns the trimmed cell at i. ok is false for a missing or blank cell
// and for negative i, so an unresolved column (-1) reads as absent.
func (r RawRow) Cell(i int) (string, bool) {
	if i < 0 || i >= len(r.cells) {
		return "", false
	}
	s := strings.TrimSpace(r.cells[i])
	return s, s != ""
}

// Text returns the trimmed cell at i or "".
func (r RawRow) Text(i int) string {
	s, _ := r.Cell(i)
	return s
}

// Float parses the cell at i with ingest.ParseDecimal. present reports whether
// the cell had content at all, so callers can tell blank from malformed.
func (r RawRow) Float(i int) (v float64, present, ok bool) {
	s, present := r.Cell(i)
	if !present {
		return 0, false, false
	}
	v, ok = ingest.ParseDecimal(s)
	return v, true, ok
}

// Blank reports whether every cell is empty.
func (r RawRow) Blank() bool {
	for _, c := range r.cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// rowSource yields rows until io.EOF.
type rowSource interface {
	Next() (RawRow, error)
	Close() error
}

var utf8BOM = []byte("\xef\xbb\xbf")

// csvSource reads a delimited text file row by row.
type csvSource struct {
	r    *csv.Reader
	line int
}

// newCSVSource strips a UTF-8 BOM and sniffs the delimiter from the first line.
func newCSVSource(r io.Reader) (*csvSource, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	first, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(first)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false
	return &csvSource{r: cr}, nil
}

func (s *csvSource) Next() (RawRow, error) {
	rec, err := s.r.Read()
	if err != nil {
		return RawRow{}, err
	}
	s.line++
	return NewRawRow(s.line, rec), nil
}

func (s *csvSource) Close() error { return nil }

// sniffDelimiter picks the most frequent of comma, semicolon and tab on the
// first line. Comma wins ties.
func sniffDelimiter(sample []byte) rune {
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		sample = sample[:i]
	}
	best, bestCount := ',', bytes.Count(sample, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(sample, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// sheetSource iterates the first sheet of a workbook with raw cell values, so
// date cells arrive as serial numbers rather than display strings.
type sheetSource struct {
	f    *excelize.File
	rows *excelize.Rows
	line int
}

func newSheetSource(r io.Reader) (*sheetSource, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ingest.FormatError{
			Format:  ingest.FormatGlucoseSpreadsheet,
			Message: "file is not a readable spreadsheet",
			Hint:    "open the export in a spreadsheet app and save it as .xlsx",
			Cause:   err,
		}
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, &ingest.FormatError{
			Format:  ingest.FormatGlucoseSpreadsheet,
			Message: "spreadsheet has no sheets",
			Hint:    "re-export the readings from the sensor app",
		}
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open sheet %q: %w", sheets[0], err)
	}
	return &sheetSource{f: f, rows: rows}, nil
}

func (s *sheetSource) Next() (RawRow, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return RawRow{}, err
		}
		return RawRow{}, io.EOF
	}
	s.line++
	cols, err := s.rows.Columns(excelize.Options{RawCellValue: true})
	if err != nil {
		return RawRow{}, fmt.Errorf("read row %d: %w", s.line, err)
	}
	return NewRawRow(s.line, cols), nil
}

func (s *sheetSource) Close() error {
	rowsErr := s.rows.Close()
	if err := s.f.Close(); err != nil {
		return err
	}
	return rowsErr
}

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// openGlucoseSource picks the row reader for a glucose export. Vendors often
// ship tab-separated text under an .xls name, so the container is confirmed
// from magic bytes rather than trusted.
func openGlucoseSource(r io.Reader, container ingest.Container) (rowSource, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(oleMagic))

	switch {
	case bytes.HasPrefix(head, zipMagic):
		return newSheetSource(br)
	case bytes.HasPrefix(head, oleMagic):
		return nil, &ingest.FormatError{
			Format:  ingest.FormatGlucoseSpreadsheet,
			Message: "legacy binary .xls workbooks are not supported",
			Hint:    "open the export in a spreadsheet app and save it as .xlsx or .csv",
		}
	case container == ingest.ContainerXLSX:
		return nil, &ingest.FormatError{
			Format:  ingest.FormatGlucoseSpreadsheet,
			Message: "file has an .xlsx name but is not a workbook",
			Hint:    "re-export the readings from the sensor app",
		}
	default:
		return newCSVSource(br)
	}
}
