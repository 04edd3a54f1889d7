package cmd

import (
	"github.com/spf13/cobra"
)

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Run a single manual scrub pass.",
	Long: "`trigger` scrubs the first block of the region once in manual " +
		"mode and prints the configuration and the error statistics.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}

		opts.Mode = "manual"
		opts.AutoStart = false

		s, err := newSession(opts)
		if err != nil {
			return err
		}
		defer s.shutdown()

		if err := s.start(); err != nil {
			return err
		}

		if s.injector != nil {
			for i := 0; i < int(opts.InjectRate); i++ {
				s.injector.InjectOne()
			}
		}

		if err := s.scrubber.Trigger(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if err := printConfig(out, s.scrubber.Snapshot()); err != nil {
			return err
		}

		return printStats(out, s.scrubber.Stats(true), s.summary())
	},
}

func init() {
	rootCmd.AddCommand(triggerCmd)
}
