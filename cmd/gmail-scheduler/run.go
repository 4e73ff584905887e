package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/hal9000y/gmail-scheduler/internal/autoprocess"
	"github.com/hal9000y/gmail-scheduler/internal/display"
	"github.com/hal9000y/gmail-scheduler/internal/scheduler"
)

var jsonOutput bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one capture and resolution pass over the mailbox",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), appOptions{classifier: true})
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireAuthorized(); err != nil {
			return err
		}

		report, err := a.processor.Run(cmd.Context())
		if err != nil {
			return err
		}
		printReport(report)
		return nil
	},
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run auto processing every poll_interval until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), appOptions{classifier: true})
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireAuthorized(); err != nil {
			return err
		}

		d, err := scheduler.NewDaemon(a.processor, cfg.PollInterval, nil, logger)
		if err != nil {
			return err
		}
		return d.Run(cmd.Context())
	},
}

func init() {
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
}

func printReport(r autoprocess.Report) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(r)
		return
	}
	display.Report(os.Stdout, r)
}
