// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateImport(); err != nil {
		return err
	}
	if err := c.validateRemote(); err != nil {
		return err
	}
	if err := c.validateLedger(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateImport() error {
	imp := c.Import
	if imp.StreamChunkSize < 4096 {
		return fmt.Errorf("import.stream_chunk_size must be at least 4096, got %d", imp.StreamChunkSize)
	}
	if imp.ArchiveSizeThreshold <= int64(imp.StreamChunkSize) {
		return fmt.Errorf("import.archive_size_threshold (%d) must be larger than import.stream_chunk_size (%d)",
			imp.ArchiveSizeThreshold, imp.StreamChunkSize)
	}
	if imp.MaxElementBytes <= 0 {
		return fmt.Errorf("import.max_element_bytes must be positive")
	}
	if len(imp.RecordLogEntries) == 0 {
		return fmt.Errorf("import.record_log_entries must name at least one entry")
	}
	if imp.SleepGapThreshold <= 0 {
		return fmt.Errorf("import.sleep_gap_threshold must be positive, got %s", imp.SleepGapThreshold)
	}
	if imp.CalorieFactor <= 0 {
		return fmt.Errorf("import.calorie_factor must be positive, got %v", imp.CalorieFactor)
	}
	if imp.MaxUploadBytes <= 0 {
		return fmt.Errorf("import.max_upload_bytes must be positive")
	}
	return nil
}

func (c *Config) validateLedger() error {
	if c.Ledger.Retention < 0 {
		return fmt.Errorf("ledger.retention must not be negative, got %s", c.Ledger.Retention)
	}
	if c.Ledger.CompactInterval < time.Minute {
		return fmt.Errorf("ledger.compact_interval must be at least 1m, got %s", c.Ledger.CompactInterval)
	}
	return nil
}

func (c *Config) validateRemote() error {
	r := c.Remote
	switch r.Mode {
	case "", RemoteModeNone:
		return nil
	case RemoteModeHTTP:
		if r.URL == "" {
			return fmt.Errorf("REMOTE_URL is required when REMOTE_MODE=http")
		}
		u, err := url.Parse(r.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("REMOTE_URL must be an http(s) URL, got %q", r.URL)
		}
	case RemoteModePostgres:
		if r.PostgresDSN == "" {
			return fmt.Errorf("REMOTE_POSTGRES_DSN is required when REMOTE_MODE=postgres")
		}
	default:
		return fmt.Errorf("REMOTE_MODE must be one of none, http, postgres, got %q", r.Mode)
	}
	if r.Timeout <= 0 {
		return fmt.Errorf("remote.timeout must be positive")
	}
	if r.RetryCount < 0 {
		return fmt.Errorf("remote.retry_count must not be negative")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, disabled, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
