// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package persistence

import (
	"context"

	"github.com/tomtom215/vitalport/internal/logging"
	"github.com/tomtom215/vitalport/internal/metrics"
	"github.com/tomtom215/vitalport/internal/models"
)

// Dispatcher selects the persistence target for a run and writes mapped
// batches to it, one entity type at a time.
type Dispatcher struct {
	local  LocalStore
	remote RemoteStore
}

// NewDispatcher creates a dispatcher. remote may be nil when no multi-user
// store is configured.
func NewDispatcher(local LocalStore, remote RemoteStore) *Dispatcher {
	return &Dispatcher{local: local, remote: remote}
}

// Select returns the remote target when the remote store answers a health
// check, otherwise the local target.
func (d *Dispatcher) Select(ctx context.Context) PersistenceTarget {
	if d.remote != nil {
		err := d.remote.Ping(ctx)
		if err == nil {
			return NewRemoteTarget(d.remote)
		}
		logging.Ctx(ctx).Warn().Err(err).Msg("Remote store unreachable, using local store for this import")
	}
	return NewLocalTarget(d.local)
}

// Outcome aggregates the writes of one run.
type Outcome struct {
	Target            models.TargetKind
	Counts            models.Counts
	DuplicatesSkipped int
}

// Dispatch writes every non-empty entity type of batch to target. The first
// write error stops the run; types already written stay written and are
// included in the returned outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, target PersistenceTarget, userID string, batch *models.Batch) (*Outcome, error) {
	out := &Outcome{Target: target.Kind()}
	logger := logging.Ctx(ctx)

	for _, typ := range models.EntityTypes {
		entities := batch.Entities(typ)
		if len(entities) == 0 {
			continue
		}

		res, err := target.Write(ctx, userID, typ, entities)
		if err != nil {
			logger.Error().Err(err).Str("entity", string(typ)).Int("records", len(entities)).
				Str("target", string(out.Target)).Msg("Batch write failed, stopping import")
			return out, err
		}

		out.Counts.Add(typ, res.Imported)
		out.DuplicatesSkipped += res.DuplicatesSkipped
		metrics.RecordEntities(string(typ), res.Imported, res.DuplicatesSkipped, 0)

		logger.Debug().Str("entity", string(typ)).Int("imported", res.Imported).
			Int("duplicates", res.DuplicatesSkipped).Msg("Batch written")
	}
	return out, nil
}

// Status maps run totals to the reported import status.
func Status(imported, duplicates, rowErrors int, fatal bool) models.ImportStatus {
	switch {
	case fatal || imported == 0:
		return models.StatusError
	case duplicates > 0 || rowErrors > 0:
		return models.StatusPartial
	default:
		return models.StatusSuccess
	}
}
