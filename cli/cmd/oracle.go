package cmd

import (
	"github.com/spf13/cobra"

	"github.com/powergrid/powergrid-der/cli/commands/oraclecmd"
)

func oracleCmd() *cobra.Command {
	subCmd := &cobra.Command{
		Use:   "oracle",
		Short: "Off-chain metering node commands",
	}
	var configPath string
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "To run the metering node.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			oraclecmd.Run(configPath)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "path to the oracle TOML config")

	subCmd.AddCommand(runCmd)

	return subCmd
}
