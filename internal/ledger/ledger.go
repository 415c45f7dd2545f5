// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/vitalport/internal/models"
)

// StatusRejected marks an attempt refused before parsing, e.g. while another
// import held the user's lock.
const StatusRejected models.ImportStatus = "rejected"

// Entry is one import attempt.
type Entry struct {
	ID                string              `json:"id"`
	Timestamp         time.Time           `json:"timestamp"`
	UserID            string              `json:"user_id"`
	Source            string              `json:"source"` // uploaded file name
	Format            string              `json:"format"`
	Status            models.ImportStatus `json:"status"`
	ItemCount         int                 `json:"item_count"`
	DuplicatesSkipped int                 `json:"duplicates_skipped"`
	ErrorCount        int                 `json:"error_count"`
	Target            models.TargetKind   `json:"target"`
	CorrelationID     string              `json:"correlation_id,omitempty"`
	DurationMs        int64               `json:"duration_ms"`
	Message           string              `json:"message,omitempty"`
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	UserID string
	Limit  int
}

func (f Filter) matches(e *Entry) bool {
	return f.UserID == "" || e.UserID == f.UserID
}

// Store persists ledger entries.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter) ([]Entry, error)
	// Prune deletes entries recorded before cutoff and returns how many.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
	Close() error
}

// prepare assigns an ID and timestamp when missing.
func prepare(entry *Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
}
