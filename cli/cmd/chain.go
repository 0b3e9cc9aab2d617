package cmd

import (
	"github.com/spf13/cobra"

	"github.com/powergrid/powergrid-der/cli/commands/chaininfo"
)

func chainCmd() *cobra.Command {
	subCmd := &cobra.Command{
		Use:   "chain",
		Short: "Devnet chain related commands",
	}
	addressesCmd := &cobra.Command{
		Use:   "addresses",
		Short: "To get the deployed contract addresses.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			chaininfo.Addresses()
		},
	}
	timeCmd := &cobra.Command{
		Use:   "time",
		Short: "To get the chain clock.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			chaininfo.Time()
		},
	}
	advanceCmd := &cobra.Command{
		Use:   "advance <secs>",
		Short: "To advance the chain clock.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			chaininfo.Advance(args[0])
		},
	}
	eventsCmd := &cobra.Command{
		Use:   "events [afterSeq]",
		Short: "To tail the contract event log.",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			after := ""
			if len(args) == 1 {
				after = args[0]
			}
			chaininfo.Events(after)
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "To query the sqlite event index.",
	}
	historyTransfersCmd := &cobra.Command{
		Use:   "transfers [limit]",
		Short: "To list recent token transfers.",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			limit := ""
			if len(args) == 1 {
				limit = args[0]
			}
			chaininfo.HistoryTransfers(limit)
		},
	}
	historyEventCmd := &cobra.Command{
		Use:   "event <eventID>",
		Short: "To show one grid event's participation history.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			chaininfo.HistoryEvent(args[0])
		},
	}
	historyProposalCmd := &cobra.Command{
		Use:   "proposal <proposalID>",
		Short: "To show one proposal's lifecycle.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			chaininfo.HistoryProposal(args[0])
		},
	}
	historyCmd.AddCommand(historyTransfersCmd)
	historyCmd.AddCommand(historyEventCmd)
	historyCmd.AddCommand(historyProposalCmd)

	subCmd.AddCommand(addressesCmd)
	subCmd.AddCommand(timeCmd)
	subCmd.AddCommand(advanceCmd)
	subCmd.AddCommand(eventsCmd)
	subCmd.AddCommand(historyCmd)

	return subCmd
}
