package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/powergrid/powergrid-der/cli/commands/gov"
)

func govCmd() *cobra.Command {
	subCmd := &cobra.Command{
		Use:   "gov",
		Short: "Governance related commands",
	}
	proposeCmd := &cobra.Command{
		Use:   "propose <sender> <actionJSON> <description>",
		Short: "To submit a proposal. The action is a JSON document.",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			gov.Propose(args[0], args[1], args[2])
		},
	}
	voteCmd := &cobra.Command{
		Use:   "vote <sender> <proposalID> <for|against>",
		Short: "To cast a vote.",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			var support bool
			switch args[2] {
			case "for":
				support = true
			case "against":
				support = false
			default:
				v, err := strconv.ParseBool(args[2])
				if err != nil {
					panic(fmt.Sprintf("support must be for, against, or a boolean. Error: %s", err))
				}
				support = v
			}
			gov.Vote(args[0], args[1], support)
		},
	}
	finalizeCmd := &cobra.Command{
		Use:   "finalize <sender> <proposalID>",
		Short: "To finalize a proposal after voting ends.",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			gov.Finalize(args[0], args[1])
		},
	}
	queueCmd := &cobra.Command{
		Use:   "queue <sender> <proposalID>",
		Short: "To queue a succeeded proposal into the timelock.",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			gov.Queue(args[0], args[1])
		},
	}
	executeCmd := &cobra.Command{
		Use:   "execute <sender> <proposalID>",
		Short: "To execute a queued proposal.",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			gov.Execute(args[0], args[1])
		},
	}
	cancelCmd := &cobra.Command{
		Use:   "cancel <sender> <proposalID>",
		Short: "To cancel a proposal.",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			gov.Cancel(args[0], args[1])
		},
	}
	proposalCmd := &cobra.Command{
		Use:   "proposal <proposalID>",
		Short: "To get one proposal.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			gov.Proposal(args[0])
		},
	}

	subCmd.AddCommand(proposeCmd)
	subCmd.AddCommand(voteCmd)
	subCmd.AddCommand(finalizeCmd)
	subCmd.AddCommand(queueCmd)
	subCmd.AddCommand(executeCmd)
	subCmd.AddCommand(cancelCmd)
	subCmd.AddCommand(proposalCmd)

	return subCmd
}
