package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/powergrid/powergrid-der/cli/commands/token"
)

func tokenCmd() *cobra.Command {
	subCmd := &cobra.Command{
		Use:   "token",
		Short: "Token related commands",
	}
	transferCmd := &cobra.Command{
		Use:   "transfer <sender> <to> <amount>",
		Short: "To transfer tokens.",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			token.Transfer(args[0], args[1], args[2])
		},
	}
	approveCmd := &cobra.Command{
		Use:   "approve <sender> <spender> <amount>",
		Short: "To approve an allowance.",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			token.Approve(args[0], args[1], args[2])
		},
	}
	mintCmd := &cobra.Command{
		Use:   "mint <sender> <to> <amount> <reason>",
		Short: "To mint tokens (minter role).",
		Args:  cobra.ExactArgs(4),
		Run: func(cmd *cobra.Command, args []string) {
			token.Mint(args[0], args[1], args[2], args[3])
		},
	}
	burnCmd := &cobra.Command{
		Use:   "burn <sender> <from> <amount> <reason>",
		Short: "To burn tokens (burner role).",
		Args:  cobra.ExactArgs(4),
		Run: func(cmd *cobra.Command, args []string) {
			token.Burn(args[0], args[1], args[2], args[3])
		},
	}
	freezeCmd := &cobra.Command{
		Use:   "freeze <sender> <account>",
		Short: "To freeze an account.",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			token.Freeze(args[0], args[1])
		},
	}
	unfreezeCmd := &cobra.Command{
		Use:   "unfreeze <sender> <account>",
		Short: "To unfreeze an account.",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			token.Unfreeze(args[0], args[1])
		},
	}
	pauseCmd := &cobra.Command{
		Use:   "pause <sender> <true|false>",
		Short: "To pause or unpause transfers.",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			paused, err := strconv.ParseBool(args[1])
			if err != nil {
				panic(err)
			}
			token.SetPaused(args[0], paused)
		},
	}
	snapshotCmd := &cobra.Command{
		Use:   "snapshot <sender>",
		Short: "To create a balance snapshot.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			token.Snapshot(args[0])
		},
	}
	balanceCmd := &cobra.Command{
		Use:   "balance <account>",
		Short: "To get an account balance.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			token.Balance(args[0])
		},
	}
	supplyCmd := &cobra.Command{
		Use:   "supply",
		Short: "To get the total supply.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			token.Supply()
		},
	}

	subCmd.AddCommand(transferCmd)
	subCmd.AddCommand(approveCmd)
	subCmd.AddCommand(mintCmd)
	subCmd.AddCommand(burnCmd)
	subCmd.AddCommand(freezeCmd)
	subCmd.AddCommand(unfreezeCmd)
	subCmd.AddCommand(pauseCmd)
	subCmd.AddCommand(snapshotCmd)
	subCmd.AddCommand(balanceCmd)
	subCmd.AddCommand(supplyCmd)

	return subCmd
}
