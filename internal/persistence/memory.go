// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/vitalport/internal/models"
)

// MemoryStore is a LocalStore that keeps entities in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[models.EntityType]map[string]models.Entity
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[models.EntityType]map[string]models.Entity)}
}

func (s *MemoryStore) ListExisting(_ context.Context, userID string, t models.EntityType) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.data[userID][t]
	keys := make(map[string]struct{}, len(stored))
	for k := range stored {
		keys[k] = struct{}{}
	}
	return keys, nil
}

func (s *MemoryStore) SaveBatch(_ context.Context, userID string, t models.EntityType, entities []models.Entity) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byType, ok := s.data[userID]
	if !ok {
		byType = make(map[models.EntityType]map[string]models.Entity)
		s.data[userID] = byType
	}
	stored, ok := byType[t]
	if !ok {
		stored = make(map[string]models.Entity)
		byType[t] = stored
	}

	saved := 0
	for _, e := range entities {
		key := e.DedupKey()
		if _, exists := stored[key]; exists {
			continue
		}
		stored[key] = e
		saved++
	}
	return saved, nil
}

func (s *MemoryStore) Summary(_ context.Context, userID string, t models.EntityType) (models.EntitySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := models.EntitySummary{EntityType: t}
	for _, e := range s.data[userID][t] {
		sum.Count++
		d := e.EntityDate()
		if sum.FirstDate == "" || d < sum.FirstDate {
			sum.FirstDate = d
		}
		if d > sum.LastDate {
			sum.LastDate = d
		}
	}
	return sum, nil
}

// Entities returns the stored entities of one type ordered by dedup key.
func (s *MemoryStore) Entities(userID string, t models.EntityType) []models.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.data[userID][t]
	out := make([]models.Entity, 0, len(stored))
	for _, e := range stored {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DedupKey() < out[j].DedupKey() })
	return out
}

func (s *MemoryStore) Close() error { return nil }
