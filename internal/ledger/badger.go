// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key prefix for BadgerDB storage. Keys sort by timestamp:
// ledger:<unix-nanos, zero padded>:<id>
const entryKeyPrefix = "ledger:"

// BadgerStore implements Store using BadgerDB for durable storage.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens a ledger at path. An empty path opens an in-memory
// database.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for ledger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func entryKey(e *Entry) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", entryKeyPrefix, e.Timestamp.UnixNano(), e.ID))
}

// Append stores one entry.
func (s *BadgerStore) Append(_ context.Context, entry *Entry) error {
	prepare(entry)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal ledger entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(entryKey(entry), data); err != nil {
			return fmt.Errorf("set ledger entry: %w", err)
		}
		return nil
	})
}

// List returns matching entries newest-first.
func (s *BadgerStore) List(ctx context.Context, filter Filter) ([]Entry, error) {
	results := []Entry{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		prefix := []byte(entryKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// In reverse mode Seek lands on the largest key <= the seek key.
		for it.Seek([]byte(entryKeyPrefix + "\xff")); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var entry Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return fmt.Errorf("decode ledger entry: %w", err)
			}

			if !filter.matches(&entry) {
				continue
			}
			results = append(results, entry)
			if filter.Limit > 0 && len(results) >= filter.Limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return results, nil
}

// Prune deletes entries recorded before cutoff. Keys sort by timestamp, so
// the scan stops at the first key at or past the cutoff.
func (s *BadgerStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	bound := []byte(fmt.Sprintf("%s%020d", entryKeyPrefix, cutoff.UnixNano()))

	var expired [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(entryKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := it.Item().KeyCopy(nil)
			if bytes.Compare(key, bound) >= 0 {
				break
			}
			expired = append(expired, key)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan expired ledger entries: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range expired {
		if err := wb.Delete(key); err != nil {
			return 0, fmt.Errorf("delete ledger entry: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush ledger deletes: %w", err)
	}
	return len(expired), nil
}

// RunGC reclaims value log space until badger reports nothing to rewrite.
// In-memory databases have no value log and return nil.
func (s *BadgerStore) RunGC(discardRatio float64) error {
	for {
		err := s.db.RunValueLogGC(discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run value log GC: %w", err)
		}
	}
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
