// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package ledger

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store using in-memory storage.
// Data is lost on restart.
type MemoryStore struct {
	entries []Entry
	mu      sync.RWMutex
	maxLen  int
}

// NewMemoryStore creates a store that keeps at most maxLen entries.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &MemoryStore{maxLen: maxLen}
}

// Append stores entry, dropping the oldest tenth when full.
func (s *MemoryStore) Append(_ context.Context, entry *Entry) error {
	prepare(entry)

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) >= s.maxLen {
		removeCount := s.maxLen / 10
		if removeCount == 0 {
			removeCount = 1
		}
		s.entries = s.entries[removeCount:]
	}
	s.entries = append(s.entries, *entry)
	return nil
}

// List returns matching entries newest-first.
func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []Entry{}
	for i := len(s.entries) - 1; i >= 0; i-- {
		if !filter.matches(&s.entries[i]) {
			continue
		}
		results = append(results, s.entries[i])
		if filter.Limit > 0 && len(results) >= filter.Limit {
			break
		}
	}
	return results, nil
}

// Prune drops entries older than cutoff. Entries are kept in append order,
// so the expired ones form a prefix.
func (s *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for n < len(s.entries) && s.entries[n].Timestamp.Before(cutoff) {
		n++
	}
	s.entries = s.entries[n:]
	return n, nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error { return nil }
