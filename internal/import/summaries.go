// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package healthimport

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/vitalport/internal/lock"
	"github.com/tomtom215/vitalport/internal/logging"
	"github.com/tomtom215/vitalport/internal/models"
)

// Summaries returns one aggregate per entity type for userID, in
// models.EntityTypes order. The reads hold the user's import lock, so they
// are refused while an import runs and an import cannot start under them.
// Concurrent Summaries calls for the same user are refused the same way.
func (i *Importer) Summaries(ctx context.Context, userID string) ([]models.EntitySummary, error) {
	unlock, err := i.locker.TryAcquire(ctx, userID)
	if err != nil {
		if errors.Is(err, lock.ErrImportInProgress) {
			return nil, err
		}
		return nil, fmt.Errorf("acquire import lock: %w", err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to release import lock after summaries")
		}
	}()

	target := i.dispatcher.Select(ctx)
	out := make([]models.EntitySummary, len(models.EntityTypes))

	g, gctx := errgroup.WithContext(ctx)
	for idx, t := range models.EntityTypes {
		g.Go(func() error {
			s, err := target.Summary(gctx, userID, t)
			if err != nil {
				return fmt.Errorf("summary %s: %w", t, err)
			}
			out[idx] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
