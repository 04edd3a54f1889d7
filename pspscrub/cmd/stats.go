package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/psp/scrub"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Scrub for a while and print the error statistics.",
	Long: "`stats` runs the scrub task for the given duration, then stops it " +
		"and prints the error statistics refreshed from the hardware counters.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}

		s, err := newSession(opts)
		if err != nil {
			return err
		}
		defer s.shutdown()

		if err := s.start(); err != nil {
			return err
		}

		if s.scrubber.Snapshot().RunMode == scrub.RunModeManual {
			if err := s.scrubber.Trigger(); err != nil {
				return err
			}
		} else if err := s.scrubber.Enable(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case <-ctx.Done():
		case <-time.After(opts.Duration):
		}

		if err := s.scrubber.Disable(); err != nil {
			return err
		}

		return printStats(cmd.OutOrStdout(), s.scrubber.Stats(true), s.summary())
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().Duration("duration", 5*time.Second, "How long to scrub")
}
