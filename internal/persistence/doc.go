// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

/*
Package persistence deduplicates mapped entities and hands them to a store.

One PersistenceTarget is selected per import run by the Dispatcher and then
used for every entity type of that run:

  - RemoteTarget forwards each entity batch to a multi-user RemoteStore in
    one call. The store enforces uniqueness per (user, entity type, dedup
    key) and its imported/duplicate counts are trusted verbatim.
  - LocalTarget reads the existing dedup keys from a LocalStore, drops
    entities already present (including repeats inside the batch) and saves
    the rest in one transaction.

Both targets report the same BatchResult shape, so callers never branch on
which store was used.

# Stores

Local: MemoryStore (tests, ephemeral CLI runs) and DuckDBStore.
Remote: HTTPStore (RPC endpoint through resty, a circuit breaker and a rate
limiter) and PostgresStore (pgx pool, INSERT ... ON CONFLICT DO NOTHING).

# Failure Policy

A failed remote write is returned as *RemoteWriteError and stops the run. It
never falls back to local storage, since that would split one user's data
across two stores.
*/
package persistence
