// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package api

import (
	"context"
	"time"

	healthimport "github.com/tomtom215/vitalport/internal/import"
	"github.com/tomtom215/vitalport/internal/ledger"
	"github.com/tomtom215/vitalport/internal/models"
)

// ImportService is the part of healthimport.Importer used by the handlers.
type ImportService interface {
	Import(ctx context.Context, req healthimport.Request) (*models.ImportResult, error)
	Summaries(ctx context.Context, userID string) ([]models.EntitySummary, error)
	History(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error)
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_import.go: upload and ledger endpoints
//   - handlers_summary.go: per-entity summaries
//   - handlers_health.go: liveness
type Handler struct {
	importer  ImportService
	version   string
	spoolDir  string
	startTime time.Time
}

// NewHandler creates a handler. spoolDir holds uploads while they are
// imported; empty means os.TempDir().
func NewHandler(importer ImportService, version, spoolDir string) *Handler {
	return &Handler{
		importer:  importer,
		version:   version,
		spoolDir:  spoolDir,
		startTime: time.Now(),
	}
}
