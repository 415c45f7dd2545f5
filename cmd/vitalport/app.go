// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/vitalport/internal/config"
	healthimport "github.com/tomtom215/vitalport/internal/import"
	"github.com/tomtom215/vitalport/internal/ledger"
	"github.com/tomtom215/vitalport/internal/lock"
	"github.com/tomtom215/vitalport/internal/logging"
	"github.com/tomtom215/vitalport/internal/persistence"
)

// app holds the opened stores and the importer built on them.
type app struct {
	importer *healthimport.Importer
	ledger   ledger.Store
	closers  []func() error
}

// openApp opens every store named by cfg. On error, anything already opened
// is closed.
func openApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	local, err := persistence.OpenDuckDB(cfg.Local.DuckDBPath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, local.Close)

	remote, err := openRemote(ctx, &cfg.Remote)
	if err != nil {
		logging.Warn().Err(err).Str("mode", cfg.Remote.Mode).Msg("Remote store unavailable at startup, imports use the local store")
		remote = nil
	}
	if remote != nil {
		a.closers = append(a.closers, remote.Close)
	}

	ledgerStore, err := ledger.OpenBadger(cfg.Ledger.BadgerPath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, ledgerStore.Close)
	a.ledger = ledgerStore

	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.Lock.RedisAddr != "" {
		locker = lock.NewRedisLocker(&cfg.Lock)
	}
	a.closers = append(a.closers, locker.Close)

	a.importer = healthimport.NewImporter(&cfg.Import, persistence.NewDispatcher(local, remote), ledgerStore, locker)

	logging.Info().
		Str("local", describePath(cfg.Local.DuckDBPath)).
		Str("remote", cfg.Remote.Mode).
		Str("ledger", describePath(cfg.Ledger.BadgerPath)).
		Bool("redis_lock", cfg.Lock.RedisAddr != "").
		Msg("Stores opened")
	return a, nil
}

// openRemote returns nil when no remote store is configured.
func openRemote(ctx context.Context, cfg *config.RemoteConfig) (persistence.RemoteStore, error) {
	switch cfg.Mode {
	case config.RemoteModeHTTP:
		return persistence.NewHTTPStore(cfg), nil
	case config.RemoteModePostgres:
		store, err := persistence.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "", config.RemoteModeNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown remote mode %q", cfg.Mode)
	}
}

func describePath(p string) string {
	if p == "" {
		return "memory"
	}
	return p
}

// Close closes the stores in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
