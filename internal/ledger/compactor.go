// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package ledger

import (
	"context"
	"time"

	"github.com/tomtom215/vitalport/internal/logging"
)

// DefaultGCRatio is the value log discard ratio used by compaction.
const DefaultGCRatio = 0.5

// gcRunner is implemented by stores with a reclaimable value log.
type gcRunner interface {
	RunGC(discardRatio float64) error
}

// Compactor applies the retention window and reclaims disk space.
type Compactor struct {
	store     Store
	retention time.Duration
	now       func() time.Time
}

// NewCompactor creates a compactor. A zero retention keeps every entry and
// only runs garbage collection.
func NewCompactor(store Store, retention time.Duration) *Compactor {
	return &Compactor{store: store, retention: retention, now: time.Now}
}

// Compact runs one pass.
func (c *Compactor) Compact(ctx context.Context) error {
	if c.retention > 0 {
		cutoff := c.now().Add(-c.retention)
		n, err := c.store.Prune(ctx, cutoff)
		if err != nil {
			return err
		}
		if n > 0 {
			logging.Info().Int("pruned", n).Time("cutoff", cutoff).Msg("Pruned expired ledger entries")
		}
	}

	if gc, ok := c.store.(gcRunner); ok {
		return gc.RunGC(DefaultGCRatio)
	}
	return nil
}
