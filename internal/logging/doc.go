// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

/*
Package logging provides the zerolog-based global logger used by every Vitalport
package.

Quick Start:

	logging.Init(logging.Config{Level: "info", Format: "json"})

	logging.Info().Str("file", name).Msg("Import started")
	logging.Ctx(ctx).Warn().Int("skipped", n).Msg("Rows skipped")

Import Context:

Every import run carries a correlation ID and the importing user in its context.
Ctx adds both as fields, so all stages of one run can be grepped together:

	ctx = logging.ContextWithNewCorrelationID(ctx)
	ctx = logging.ContextWithUserID(ctx, "alice")
	logging.Ctx(ctx).Info().Msg("Dispatching batch")
	// {"level":"info","correlation_id":"1f2e3d4c","user_id":"alice","message":"Dispatching batch"}

Suture Integration:

NewSlogLogger returns an slog.Logger backed by the global zerolog logger, which
sutureslog needs for supervisor events.

Always terminate event chains with Msg or Send; an unterminated event is never written.
*/
package logging
