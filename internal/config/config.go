// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package config

import "time"

// Remote store modes.
const (
	RemoteModeNone     = "none"
	RemoteModeHTTP     = "http"
	RemoteModePostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Import  ImportConfig  `koanf:"import"`
	Local   LocalConfig   `koanf:"local"`
	Remote  RemoteConfig  `koanf:"remote"`
	Ledger  LedgerConfig  `koanf:"ledger"`
	Lock    LockConfig    `koanf:"lock"`
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
}

// ImportConfig holds parser and mapper tuning.
type ImportConfig struct {
	ArchiveSizeThreshold int64         `koanf:"archive_size_threshold"` // uncompressed bytes; at or above this the record log is streamed
	StreamChunkSize      int           `koanf:"stream_chunk_size"`
	MaxElementBytes      int           `koanf:"max_element_bytes"`
	RecordLogEntries     []string      `koanf:"record_log_entries"`
	DiagnosticEntryLimit int           `koanf:"diagnostic_entry_limit"`
	SleepGapThreshold    time.Duration `koanf:"sleep_gap_threshold"`
	CalorieFactor        float64       `koanf:"calorie_factor"` // strength-training estimate, not a measured value
	MaxUploadBytes       int64         `koanf:"max_upload_bytes"`
	MaxRowErrors         int           `koanf:"max_row_errors"`
}

// LocalConfig holds the on-device store settings.
type LocalConfig struct {
	DuckDBPath string `koanf:"duckdb_path"` // empty keeps everything in memory
}

// RemoteConfig holds the multi-user store settings.
type RemoteConfig struct {
	Mode              string        `koanf:"mode"`
	URL               string        `koanf:"url"`
	APIKey            string        `koanf:"api_key"`
	Timeout           time.Duration `koanf:"timeout"`
	RetryCount        int           `koanf:"retry_count"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	PostgresDSN       string        `koanf:"postgres_dsn"`
	BreakerFailures   uint32        `koanf:"breaker_failures"`
	BreakerTimeout    time.Duration `koanf:"breaker_timeout"`
}

// Enabled reports whether a remote store is configured.
func (r RemoteConfig) Enabled() bool {
	return r.Mode != "" && r.Mode != RemoteModeNone
}

// LedgerConfig holds the import ledger settings.
type LedgerConfig struct {
	BadgerPath      string        `koanf:"badger_path"`      // empty keeps the ledger in memory
	Retention       time.Duration `koanf:"retention"`        // 0 keeps entries forever
	CompactInterval time.Duration `koanf:"compact_interval"` // how often retention and value log GC run
}

// LockConfig holds the per-user import lock settings.
type LockConfig struct {
	RedisAddr     string        `koanf:"redis_addr"` // empty uses an in-process lock
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	TTL           time.Duration `koanf:"ttl"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"` // uploads of large archives stream for minutes
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
