// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/vitalport/internal/ledger"
)

func newLedgerCmd(root *rootOptions) *cobra.Command {
	var (
		userID string
		limit  int
		output string
	)

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "List past imports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := ledger.OpenBadger(root.cfg.Ledger.BadgerPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.List(cmd.Context(), ledger.Filter{UserID: userID, Limit: limit})
			if err != nil {
				return err
			}

			if output == "json" {
				return writeJSON(cmd.OutOrStdout(), entries)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tUSER\tSOURCE\tFORMAT\tSTATUS\tITEMS\tDUPS\tERRORS\tTARGET")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					e.Timestamp.Local().Format(time.DateTime), e.UserID, e.Source, e.Format,
					e.Status, e.ItemCount, e.DuplicatesSkipped, e.ErrorCount, e.Target)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "only show imports for this user")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to show (0 for all)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}
