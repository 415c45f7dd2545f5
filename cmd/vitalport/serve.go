// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/vitalport/internal/api"
	"github.com/tomtom215/vitalport/internal/config"
	"github.com/tomtom215/vitalport/internal/ledger"
	"github.com/tomtom215/vitalport/internal/logging"
	"github.com/tomtom215/vitalport/internal/supervisor"
	"github.com/tomtom215/vitalport/internal/supervisor/services"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, root.cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing stores")
		}
	}()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return err
	}

	tree.AddStorageService(services.NewCompactionService("ledger",
		ledger.NewCompactor(a.ledger, cfg.Ledger.Retention), cfg.Ledger.CompactInterval))
	tree.AddAPIService(services.NewHTTPServerService(newHTTPServer(cfg, a), cfg.Server.ShutdownTimeout))

	logging.Info().Str("version", version).Msg("Starting vitalport with supervisor tree")

	err = tree.Serve(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logging.Info().Msg("Shutdown complete")
	return err
}

func newHTTPServer(cfg *config.Config, a *app) *http.Server {
	mw := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		CORSAllowedMethods: []string{"GET", "POST", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		CORSMaxAge:         86400,
		RateLimitRequests:  cfg.Server.RateLimitRequests,
		RateLimitWindow:    cfg.Server.RateLimitWindow,
	})
	handler := api.NewHandler(a.importer, version, "")
	router := api.NewRouter(handler, mw, cfg.Import.MaxUploadBytes)

	return &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
}
