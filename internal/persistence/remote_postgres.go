// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/vitalport/internal/metrics"
	"github.com/tomtom215/vitalport/internal/models"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS health_entities (
	user_id     TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	dedup_key   TEXT NOT NULL,
	entity_date DATE NOT NULL,
	payload     JSONB NOT NULL,
	imported_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, entity_type, dedup_key)
)`

const postgresInsert = `INSERT INTO health_entities (user_id, entity_type, dedup_key, entity_date, payload)
	VALUES ($1, $2, $3, $4::date, $5::jsonb)
	ON CONFLICT (user_id, entity_type, dedup_key) DO NOTHING`

// PostgresStore is a RemoteStore backed directly by a shared Postgres
// database. Uniqueness is enforced by the primary key.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStore wraps an existing pool. The schema must already exist.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.pool.Ping(ctx)
	metrics.RecordRemoteRequest("ping", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	return nil
}

// ImportBatch inserts every entity in one transaction, sent as one pgx batch.
// Conflicting rows are skipped and counted as duplicates.
func (s *PostgresStore) ImportBatch(ctx context.Context, userID string, t models.EntityType, entities []models.Entity) (res BatchResult, err error) {
	start := time.Now()
	defer func() { metrics.RecordRemoteRequest("import_batch", time.Since(start), err) }()

	batch := &pgx.Batch{}
	for _, e := range entities {
		payload, mErr := json.Marshal(e)
		if mErr != nil {
			return BatchResult{}, fmt.Errorf("failed to encode %s %s: %w", t, e.DedupKey(), mErr)
		}
		batch.Queue(postgresInsert, userID, string(t), e.DedupKey(), e.EntityDate(), string(payload))
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return BatchResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	br := tx.SendBatch(ctx, batch)
	imported := 0
	for range entities {
		tag, execErr := br.Exec()
		if execErr != nil {
			_ = br.Close()
			return BatchResult{}, fmt.Errorf("failed to insert %s: %w", t, execErr)
		}
		imported += int(tag.RowsAffected())
	}
	if err = br.Close(); err != nil {
		return BatchResult{}, fmt.Errorf("failed to close batch: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return BatchResult{}, fmt.Errorf("failed to commit batch: %w", err)
	}

	return BatchResult{Imported: imported, DuplicatesSkipped: len(entities) - imported}, nil
}

func (s *PostgresStore) Summary(ctx context.Context, userID string, t models.EntityType) (models.EntitySummary, error) {
	sum := models.EntitySummary{EntityType: t}
	var first, last *string
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), to_char(MIN(entity_date), 'YYYY-MM-DD'), to_char(MAX(entity_date), 'YYYY-MM-DD')
		FROM health_entities WHERE user_id = $1 AND entity_type = $2`,
		userID, string(t)).Scan(&sum.Count, &first, &last)
	if err != nil {
		return sum, fmt.Errorf("failed to query summary: %w", err)
	}
	if first != nil {
		sum.FirstDate = *first
	}
	if last != nil {
		sum.LastDate = *last
	}
	return sum, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
