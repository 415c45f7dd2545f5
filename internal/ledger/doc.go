// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

/*
Package ledger records one entry per import attempt.

The ledger is append-only. Every run that gets past file selection appends an
Entry with its source, outcome and item counts, including runs that failed or
were rejected because another import held the user's lock. Entries are listed
newest-first.

Two stores are provided:
  - MemoryStore: bounded in-memory ring, for tests and one-shot CLI runs
  - BadgerStore: durable BadgerDB store, keyed by timestamp so a reverse
    iteration yields the newest entries first
*/
package ledger
