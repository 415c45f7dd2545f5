// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

/*
Package config loads Vitalport configuration with koanf.

Sources are layered, later ones overriding earlier ones:

 1. Struct defaults (defaultConfig)
 2. A YAML file: the --config flag, CONFIG_PATH, ./vitalport.yaml or
    /etc/vitalport/config.yaml, first match wins
 3. Environment variables from an explicit mapping table (envMappings)

Example file:

	import:
	  archive_size_threshold: 104857600
	  stream_chunk_size: 1048576
	  sleep_gap_threshold: 2h
	  calorie_factor: 0.05
	local:
	  duckdb_path: /data/vitalport.duckdb
	remote:
	  mode: http
	  url: https://health.example.com/rpc
	  api_key: secret
	ledger:
	  badger_path: /data/ledger
	  retention: 2160h
	lock:
	  redis_addr: localhost:6379

Remote Modes:

  - none: every import is written to the local store
  - http: batches are sent to an RPC endpoint (remote.url)
  - postgres: batches are inserted into a shared Postgres database (remote.postgres_dsn)

When the remote store does not answer a ping at the start of a run, the run uses
the local store and reports target "local" in its result.
*/
package config
