package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hal9000y/gmail-scheduler/internal/db"
	"github.com/hal9000y/gmail-scheduler/internal/display"
)

var statusRuns int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the processed-thread ledger and recent runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := db.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("db.Open failed: %w", err)
		}
		defer store.Close()

		size, err := store.LedgerSize(cmd.Context())
		if err != nil {
			return err
		}
		runs, err := store.RecentRuns(cmd.Context(), statusRuns)
		if err != nil {
			return err
		}
		display.Status(os.Stdout, size, runs)
		return nil
	},
}

func init() {
	statusCmd.Flags().IntVarP(&statusRuns, "runs", "n", 10, "Number of recent runs to show")
}
