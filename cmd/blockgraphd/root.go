package main

import (
	"github.com/spf13/cobra"

	"github.com/blockgraph/runtime/internal/infrastructure/logging"
)

type rootFlags struct {
	manifest string
	verbose  bool
}

func newRootCmd(app *AppContext) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "blockgraphd",
		Short:         "blockgraphd drives a pipe execution graph from a declarative environment manifest",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !flags.verbose {
				return nil
			}
			logger, err := logging.New(logging.Options{Level: "debug", Component: "cli", Layer: "infrastructure"})
			if err != nil {
				return err
			}
			app.Logger = logger
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.manifest, "manifest", "m", "", "Path to the environment manifest (required)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newRunCmd(flags, app))
	cmd.AddCommand(newDashboardCmd(flags, app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
