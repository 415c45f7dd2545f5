// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"

	"github.com/tomtom215/vitalport/internal/logging"
	"github.com/tomtom215/vitalport/internal/metrics"
	"github.com/tomtom215/vitalport/internal/models"
)

const duckdbSchema = `CREATE TABLE IF NOT EXISTS health_entities (
	user_id     VARCHAR NOT NULL,
	entity_type VARCHAR NOT NULL,
	dedup_key   VARCHAR NOT NULL,
	entity_date VARCHAR NOT NULL,
	payload     VARCHAR NOT NULL,
	imported_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
	PRIMARY KEY (user_id, entity_type, dedup_key)
)`

// DuckDBStore is a LocalStore backed by an embedded DuckDB file.
type DuckDBStore struct {
	conn *sql.DB
}

// OpenDuckDB opens (and creates when missing) the store at path. An empty
// path opens an in-memory database.
func OpenDuckDB(path string) (*DuckDBStore, error) {
	target := ":memory:"
	if path != "" {
		// Use 0750 permissions (owner: rwx, group: rx, other: none) per gosec G301
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
		target = path
	}

	// Extensions are not needed; disabling autoload avoids network access on open
	connStr := target + "?access_mode=read_write&autoinstall_known_extensions=false&autoload_known_extensions=false"
	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := conn.Exec(duckdbSchema); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logging.Debug().Str("path", target).Msg("Local store opened")
	return &DuckDBStore{conn: conn}, nil
}

func (s *DuckDBStore) ListExisting(ctx context.Context, userID string, t models.EntityType) (map[string]struct{}, error) {
	start := time.Now()
	defer func() { metrics.RecordLocalQuery("list_existing", string(t), time.Since(start)) }()

	rows, err := s.conn.QueryContext(ctx,
		`SELECT dedup_key FROM health_entities WHERE user_id = ? AND entity_type = ?`,
		userID, string(t))
	if err != nil {
		return nil, fmt.Errorf("failed to query existing keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys[key] = struct{}{}
	}
	return keys, rows.Err()
}

// SaveBatch inserts all entities inside one transaction. Rows whose key is
// already present are skipped by the primary key.
func (s *DuckDBStore) SaveBatch(ctx context.Context, userID string, t models.EntityType, entities []models.Entity) (saved int, err error) {
	start := time.Now()
	defer func() { metrics.RecordLocalQuery("save_batch", string(t), time.Since(start)) }()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() // Explicitly ignore error - the original error is more useful
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO health_entities
		(user_id, entity_type, dedup_key, entity_date, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer closeQuietly(stmt)

	for _, e := range entities {
		payload, mErr := json.Marshal(e)
		if mErr != nil {
			return 0, fmt.Errorf("failed to encode %s %s: %w", t, e.DedupKey(), mErr)
		}
		res, execErr := stmt.ExecContext(ctx, userID, string(t), e.DedupKey(), e.EntityDate(), string(payload))
		if execErr != nil {
			return 0, fmt.Errorf("failed to insert %s %s: %w", t, e.DedupKey(), execErr)
		}
		n, raErr := res.RowsAffected()
		if raErr != nil {
			return 0, fmt.Errorf("failed to read affected rows: %w", raErr)
		}
		saved += int(n)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}
	return saved, nil
}

func (s *DuckDBStore) Summary(ctx context.Context, userID string, t models.EntityType) (models.EntitySummary, error) {
	start := time.Now()
	defer func() { metrics.RecordLocalQuery("summary", string(t), time.Since(start)) }()

	sum := models.EntitySummary{EntityType: t}
	var first, last sql.NullString
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(entity_date), MAX(entity_date)
		FROM health_entities WHERE user_id = ? AND entity_type = ?`,
		userID, string(t)).Scan(&sum.Count, &first, &last)
	if err != nil {
		return sum, fmt.Errorf("failed to query summary: %w", err)
	}
	sum.FirstDate = first.String
	sum.LastDate = last.String
	return sum, nil
}

// Close closes the database.
func (s *DuckDBStore) Close() error {
	return s.conn.Close()
}

// closeQuietly closes a resource and explicitly ignores any error
// Use this for cleanup operations in error paths where Close() errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
