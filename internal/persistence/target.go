// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/vitalport/internal/models"
)

// ErrRemoteUnavailable is wrapped by remote stores when a health check fails.
var ErrRemoteUnavailable = errors.New("remote store unavailable")

// BatchResult is the per-entity-type outcome of one write.
type BatchResult struct {
	Imported          int `json:"imported"`
	DuplicatesSkipped int `json:"duplicates_skipped"`
}

// LocalStore is an on-device store. ListExisting returns the dedup keys
// already stored for the user and type; SaveBatch stores all entities in one
// transaction and returns how many rows were written.
type LocalStore interface {
	ListExisting(ctx context.Context, userID string, t models.EntityType) (map[string]struct{}, error)
	SaveBatch(ctx context.Context, userID string, t models.EntityType, entities []models.Entity) (int, error)
	Summary(ctx context.Context, userID string, t models.EntityType) (models.EntitySummary, error)
	Close() error
}

// RemoteStore is a multi-user store that deduplicates on its side.
type RemoteStore interface {
	Ping(ctx context.Context) error
	ImportBatch(ctx context.Context, userID string, t models.EntityType, entities []models.Entity) (BatchResult, error)
	Summary(ctx context.Context, userID string, t models.EntityType) (models.EntitySummary, error)
	Close() error
}

// PersistenceTarget is the destination chosen for one import run.
type PersistenceTarget interface {
	Kind() models.TargetKind
	Write(ctx context.Context, userID string, t models.EntityType, entities []models.Entity) (BatchResult, error)
	Summary(ctx context.Context, userID string, t models.EntityType) (models.EntitySummary, error)
}

// RemoteWriteError reports a batch the remote store rejected or failed.
type RemoteWriteError struct {
	Entity models.EntityType
	Cause  error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("remote store failed to import %s: %v (nothing was written locally; retry the import)", e.Entity, e.Cause)
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Cause
}

// IsRemoteWriteError reports whether err wraps a *RemoteWriteError.
func IsRemoteWriteError(err error) bool {
	var rwe *RemoteWriteError
	return errors.As(err, &rwe)
}

// LocalTarget deduplicates against a LocalStore before saving.
type LocalTarget struct {
	store LocalStore
}

// NewLocalTarget wraps store.
func NewLocalTarget(store LocalStore) *LocalTarget {
	return &LocalTarget{store: store}
}

func (t *LocalTarget) Kind() models.TargetKind { return models.TargetLocal }

// Write saves the entities whose dedup key is neither stored already nor
// repeated earlier in the same batch.
func (t *LocalTarget) Write(ctx context.Context, userID string, typ models.EntityType, entities []models.Entity) (BatchResult, error) {
	existing, err := t.store.ListExisting(ctx, userID, typ)
	if err != nil {
		return BatchResult{}, fmt.Errorf("list existing %s: %w", typ, err)
	}

	fresh := make([]models.Entity, 0, len(entities))
	seen := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		key := e.DedupKey()
		if _, ok := existing[key]; ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		fresh = append(fresh, e)
	}

	saved := 0
	if len(fresh) > 0 {
		saved, err = t.store.SaveBatch(ctx, userID, typ, fresh)
		if err != nil {
			return BatchResult{}, fmt.Errorf("save %s: %w", typ, err)
		}
	}
	return BatchResult{Imported: saved, DuplicatesSkipped: len(entities) - saved}, nil
}

func (t *LocalTarget) Summary(ctx context.Context, userID string, typ models.EntityType) (models.EntitySummary, error) {
	return t.store.Summary(ctx, userID, typ)
}

// RemoteTarget forwards whole batches to a RemoteStore.
type RemoteTarget struct {
	store RemoteStore
}

// NewRemoteTarget wraps store.
func NewRemoteTarget(store RemoteStore) *RemoteTarget {
	return &RemoteTarget{store: store}
}

func (t *RemoteTarget) Kind() models.TargetKind { return models.TargetRemote }

// Write sends the batch in one call and trusts the store's counts.
func (t *RemoteTarget) Write(ctx context.Context, userID string, typ models.EntityType, entities []models.Entity) (BatchResult, error) {
	res, err := t.store.ImportBatch(ctx, userID, typ, entities)
	if err != nil {
		return BatchResult{}, &RemoteWriteError{Entity: typ, Cause: err}
	}
	return res, nil
}

func (t *RemoteTarget) Summary(ctx context.Context, userID string, typ models.EntityType) (models.EntitySummary, error) {
	return t.store.Summary(ctx, userID, typ)
}
