// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	healthimport "github.com/tomtom215/vitalport/internal/import"
	"github.com/tomtom215/vitalport/internal/models"
)

func newImportCmd(root *rootOptions) *cobra.Command {
	var (
		userID string
		output string
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import one export file for a user",
		Long: `Import one export file for a user.

Supported inputs: health export archives (.zip), strength-training CSV exports,
and glucose monitor spreadsheets (.xlsx or .csv). The format is detected from
the file name and its first bytes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(userID) == "" {
				return fmt.Errorf("--user is required")
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			info, err := f.Stat()
			if err != nil {
				return fmt.Errorf("stat %s: %w", args[0], err)
			}

			a, err := openApp(cmd.Context(), root.cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			result, importErr := a.importer.Import(cmd.Context(), healthimport.Request{
				UserID:   userID,
				FileName: filepath.Base(args[0]),
				File:     f,
				Size:     info.Size(),
			})
			if result != nil {
				if err := printResult(cmd.OutOrStdout(), output, result); err != nil {
					return err
				}
			}
			return importErr
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user the data belongs to (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}

func printResult(w io.Writer, format string, r *models.ImportResult) error {
	if format == "json" {
		return writeJSON(w, r)
	}

	fmt.Fprintf(w, "status:     %s\n", r.Status)
	fmt.Fprintf(w, "format:     %s\n", r.Format)
	fmt.Fprintf(w, "target:     %s\n", r.Target)
	fmt.Fprintf(w, "imported:   %d (weight %d, body fat %d, workouts %d, sleep %d, glucose %d)\n",
		r.Imported(), r.Counts.WeightLogs, r.Counts.BodyFatLogs, r.Counts.Workouts,
		r.Counts.SleepSessions, r.Counts.GlucoseReadings)
	fmt.Fprintf(w, "duplicates: %d\n", r.DuplicatesSkipped)
	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "errors:     %d\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
