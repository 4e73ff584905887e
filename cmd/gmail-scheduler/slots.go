package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hal9000y/gmail-scheduler/internal/display"
)

var slotsOpts struct {
	duration int
	count    int
	timezone string
}

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "Print the next free business-hours slots",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireAuthorized(); err != nil {
			return err
		}

		tz := slotsOpts.timezone
		if tz == "" {
			tz = cfg.Timezone
		}
		slots, err := a.engine.FindFreeSlots(cmd.Context(), slotsOpts.duration, slotsOpts.count, time.Now(), tz)
		if err != nil {
			return err
		}
		display.Slots(os.Stdout, slots)
		return nil
	},
}

func init() {
	slotsCmd.Flags().IntVarP(&slotsOpts.duration, "duration", "d", 30, "Meeting length in minutes")
	slotsCmd.Flags().IntVarP(&slotsOpts.count, "count", "n", 3, "Number of slots")
	slotsCmd.Flags().StringVar(&slotsOpts.timezone, "timezone", "", "IANA zone, default from config")
}
