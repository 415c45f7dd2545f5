// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

// Package lock serializes import runs per user. A second import for a user
// whose lock is held is rejected with ErrImportInProgress, never queued.
package lock

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrImportInProgress is returned when the user's lock is already held.
var ErrImportInProgress = errors.New("an import is already running for this user")

// Unlock releases a held lock. It is safe to call more than once.
type Unlock func(ctx context.Context) error

// Locker hands out exclusive per-user import locks.
type Locker interface {
	TryAcquire(ctx context.Context, userID string) (Unlock, error)
	Held(ctx context.Context, userID string) (bool, error)
	Close() error
}

// MemoryLocker is an in-process Locker.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]string
}

// NewMemoryLocker creates an empty locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]string)}
}

func (l *MemoryLocker) TryAcquire(_ context.Context, userID string) (Unlock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[userID]; busy {
		return nil, ErrImportInProgress
	}
	token := uuid.NewString()
	l.held[userID] = token

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if l.held[userID] == token {
				delete(l.held, userID)
			}
		})
		return nil
	}, nil
}

func (l *MemoryLocker) Held(_ context.Context, userID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, busy := l.held[userID]
	return busy, nil
}

func (l *MemoryLocker) Close() error { return nil }
