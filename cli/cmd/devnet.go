package cmd

import (
	"github.com/spf13/cobra"

	"github.com/powergrid/powergrid-der/cli/commands/devnet"
)

func devnetCmd() *cobra.Command {
	subCmd := &cobra.Command{
		Use:   "devnet",
		Short: "Devnet process commands",
	}
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "To run the devnet chain, API, and indexer.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			devnet.Serve()
		},
	}

	subCmd.AddCommand(serveCmd)

	return subCmd
}
