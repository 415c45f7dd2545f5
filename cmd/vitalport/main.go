// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

// Package main is the vitalport command.
//
// Vitalport imports personal health exports (phone health archives,
// strength-training CSVs, glucose monitor spreadsheets) into one normalized
// store per user.
//
// # Commands
//
//	vitalport import <file> --user <id>   run one import and print the result
//	vitalport ledger [--user <id>]         list past imports, newest first
//	vitalport serve                        run the HTTP API under supervision
//
// # Configuration
//
// Settings come from built-in defaults, then a YAML file (--config, $CONFIG_PATH,
// ./vitalport.yaml or /etc/vitalport/config.yaml), then environment variables.
// See internal/config for every key.
//
// # Exit Codes
//
// 0 when the command ran, including imports that stored nothing. 1 when the
// configuration is invalid, a store cannot be opened, or an import was
// rejected (unsupported file, concurrent import, remote write failure).
package main

import (
	"os"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
