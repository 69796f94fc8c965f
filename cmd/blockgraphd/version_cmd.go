package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Populated by the release build via -ldflags; development builds keep the
// defaults below.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the blockgraphd version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "blockgraphd %s (commit %s, built %s)\n", version, commit, buildDate)
			return nil
		},
	}
}
