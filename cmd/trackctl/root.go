package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/tracker"
)

// deps are shared by the subcommands. trackerOpts is appended to the
// options trackctl builds itself.
type deps struct {
	out         io.Writer
	cfgFile     string
	trackerOpts []tracker.Option
}

func newRootCommand(out io.Writer, trackerOpts []tracker.Option) *cobra.Command {
	d := &deps{out: out, trackerOpts: trackerOpts}

	root := &cobra.Command{
		Use:           "trackctl",
		Short:         "Send tracking events to the Conversions API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&d.cfgFile, "config", "config.yml", "config file")

	root.AddCommand(newSendCommand(d))
	return root
}
