// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/vitalport/internal/logging"
)

// Compacter is satisfied by *ledger.Compactor.
type Compacter interface {
	Compact(ctx context.Context) error
}

// CompactionService runs a Compacter once at start and then every interval.
// A failed pass is logged and retried on the next tick; it does not restart
// the service.
type CompactionService struct {
	compacter Compacter
	interval  time.Duration
	name      string
}

// NewCompactionService creates the service. Non-positive interval means 1h.
func NewCompactionService(name string, c Compacter, interval time.Duration) *CompactionService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CompactionService{compacter: c, interval: interval, name: name}
}

// Serve implements suture.Service.
func (s *CompactionService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.runOnce(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *CompactionService) runOnce(ctx context.Context) {
	start := time.Now()
	if err := s.compacter.Compact(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.Warn().Err(err).Str("service", s.name).Msg("Compaction pass failed")
		return
	}
	logging.Debug().Str("service", s.name).Dur("duration", time.Since(start)).Msg("Compaction pass finished")
}

// String implements fmt.Stringer for suture's event log.
func (s *CompactionService) String() string {
	return fmt.Sprintf("%s-compaction", s.name)
}
