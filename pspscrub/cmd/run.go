package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/psp/monitoring"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scrub task until interrupted.",
	Long: "`run` initializes the scrubber of the simulated board, applies " +
		"the configuration and keeps scrubbing until SIGINT or SIGTERM. " +
		"With a monitor port the scrubber can be inspected and commanded " +
		"over HTTP.",
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

		if opts.MonitorPort != 0 || opts.Open {
			m := monitoring.NewMonitor().
				WithLogger(s.logger).
				WithPortNumber(opts.MonitorPort)
			m.RegisterScrubber(s.scrubber)

			url := m.StartServer()
			if opts.Open {
				if err := browser.OpenURL(url); err != nil {
					s.logger.Warn().Err(err).Msg("unable to open browser")
				}
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s.logger.Info().
			Str("board", s.sim.Board.Name).
			Bool("running", s.scrubber.IsRunning()).
			Msg("scrubber started, interrupt to stop")

		<-ctx.Done()

		s.shutdown()

		return printStats(cmd.OutOrStdout(), s.scrubber.Stats(true), s.summary())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("auto-start", true, "Enable the scrub task right away")
	runCmd.Flags().Int("monitor-port", 0, "Serve the monitoring API on this port")
	runCmd.Flags().Bool("open", false, "Open the monitoring page in a browser")
}
