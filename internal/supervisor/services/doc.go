// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

/*
Package services adapts vitalport components to suture.Service.

Each wrapper turns a component with its own lifecycle into a blocking
Serve(ctx) that returns when ctx is canceled:

  - HTTPServerService: ListenAndServe until canceled, then Shutdown
  - CompactionService: runs a Compacter on a fixed interval

Returning an error from Serve makes suture restart the service with backoff.
*/
package services
