// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when no explicit path is given.
var DefaultConfigPaths = []string{
	"vitalport.yaml",
	"vitalport.yml",
	"/etc/vitalport/config.yaml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Import: ImportConfig{
			ArchiveSizeThreshold: 100 << 20,
			StreamChunkSize:      1 << 20,
			MaxElementBytes:      1 << 20,
			RecordLogEntries:     []string{"export.xml", "exportar.xml"},
			DiagnosticEntryLimit: 10,
			SleepGapThreshold:    2 * time.Hour,
			CalorieFactor:        0.05,
			MaxUploadBytes:       2 << 30,
			MaxRowErrors:         200,
		},
		Remote: RemoteConfig{
			Mode:              RemoteModeNone,
			Timeout:           30 * time.Second,
			RetryCount:        2,
			RequestsPerSecond: 5,
			BreakerFailures:   5,
			BreakerTimeout:    time.Minute,
		},
		Ledger: LedgerConfig{
			CompactInterval: time.Hour,
		},
		Lock: LockConfig{
			TTL: 30 * time.Minute,
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8470,
			ReadTimeout:       5 * time.Minute,
			WriteTimeout:      10 * time.Minute,
			ShutdownTimeout:   30 * time.Second,
			RateLimitRequests: 30,
			RateLimitWindow:   time.Minute,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (or the
// first file found in the search list when path is empty) and the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths accept comma-separated strings from the environment.
var sliceConfigPaths = []string{
	"import.record_log_entries",
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, p := range sliceConfigPaths {
		strVal, ok := k.Get(p).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				trimmed = append(trimmed, part)
			}
		}
		if err := k.Set(p, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", p, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"vitalport_archive_size_threshold": "import.archive_size_threshold",
	"vitalport_stream_chunk_size":      "import.stream_chunk_size",
	"vitalport_max_element_bytes":      "import.max_element_bytes",
	"vitalport_record_log_entries":     "import.record_log_entries",
	"vitalport_sleep_gap_threshold":    "import.sleep_gap_threshold",
	"vitalport_calorie_factor":         "import.calorie_factor",
	"vitalport_max_upload_bytes":       "import.max_upload_bytes",
	"vitalport_max_row_errors":         "import.max_row_errors",

	"duckdb_path": "local.duckdb_path",

	"remote_mode":                "remote.mode",
	"remote_url":                 "remote.url",
	"remote_api_key":             "remote.api_key",
	"remote_timeout":             "remote.timeout",
	"remote_retry_count":         "remote.retry_count",
	"remote_requests_per_second": "remote.requests_per_second",
	"remote_postgres_dsn":        "remote.postgres_dsn",
	"remote_breaker_failures":    "remote.breaker_failures",
	"remote_breaker_timeout":     "remote.breaker_timeout",

	"ledger_path":             "ledger.badger_path",
	"ledger_retention":        "ledger.retention",
	"ledger_compact_interval": "ledger.compact_interval",

	"redis_addr":     "lock.redis_addr",
	"redis_password": "lock.redis_password",
	"redis_db":       "lock.redis_db",
	"lock_ttl":       "lock.ttl",

	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_read_timeout":   "server.read_timeout",
	"http_write_timeout":  "server.write_timeout",
	"shutdown_timeout":    "server.shutdown_timeout",
	"rate_limit_requests": "server.rate_limit_requests",
	"rate_limit_window":   "server.rate_limit_window",
	"cors_origins":        "server.cors_origins",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps known environment variables to koanf paths. Unknown
// variables return "" and are ignored.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
