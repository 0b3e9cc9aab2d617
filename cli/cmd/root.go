package cmd

import (
	"github.com/spf13/cobra"

	"github.com/powergrid/powergrid-der/cli/conf"
)

func Cmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "powergrid",
		Short: "Interact with the powergrid devnet.",
	}

	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(registryCmd())
	rootCmd.AddCommand(gridCmd())
	rootCmd.AddCommand(govCmd())
	rootCmd.AddCommand(chainCmd())
	rootCmd.AddCommand(devnetCmd())
	rootCmd.AddCommand(oracleCmd())

	rootCmd.Version = conf.GetVersion()

	return rootCmd
}
