package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/powergrid/powergrid-der/cli/commands/grid"
)

func gridCmd() *cobra.Command {
	subCmd := &cobra.Command{
		Use:   "grid",
		Short: "Grid service related commands",
	}
	createEventCmd := &cobra.Command{
		Use:   "create-event <sender> <eventType> <durationMinutes> <rate> <targetKW> <severity>",
		Short: "To create a grid event (operators).",
		Args:  cobra.ExactArgs(6),
		Run: func(cmd *cobra.Command, args []string) {
			grid.CreateEvent(args[0], args[1], args[2], args[3], args[4], args[5])
		},
	}
	participateCmd := &cobra.Command{
		Use:   "participate <sender> <eventID> <committedWh>",
		Short: "To commit energy to an active event.",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			grid.Participate(args[0], args[1], args[2])
		},
	}
	verifyCmd := &cobra.Command{
		Use:   "verify <sender> <eventID> <account> <actualWh>",
		Short: "To verify a participation without paying.",
		Args:  cobra.ExactArgs(4),
		Run: func(cmd *cobra.Command, args []string) {
			grid.Verify(args[0], args[1], args[2], args[3])
		},
	}
	distributeCmd := &cobra.Command{
		Use:   "distribute <sender> <eventID> <account> <actualWh>",
		Short: "To verify and pay one participation.",
		Args:  cobra.ExactArgs(4),
		Run: func(cmd *cobra.Command, args []string) {
			grid.Distribute(args[0], args[1], args[2], args[3])
		},
	}
	completeCmd := &cobra.Command{
		Use:   "complete <sender> <eventID>",
		Short: "To complete an event past its end.",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			grid.Complete(args[0], args[1])
		},
	}
	cancelCmd := &cobra.Command{
		Use:   "cancel <sender> <eventID> <reason>",
		Short: "To cancel an event (governance or guardian).",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			grid.Cancel(args[0], args[1], args[2])
		},
	}
	pauseCmd := &cobra.Command{
		Use:   "pause <sender> <true|false>",
		Short: "To pause or unpause participations.",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			paused, err := strconv.ParseBool(args[1])
			if err != nil {
				panic(err)
			}
			grid.SetPaused(args[0], paused)
		},
	}
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "To list active events.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			grid.Events()
		},
	}
	eventCmd := &cobra.Command{
		Use:   "event <eventID>",
		Short: "To get one event.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			grid.Event(args[0])
		},
	}
	participationsCmd := &cobra.Command{
		Use:   "participations <eventID>",
		Short: "To list an event's participations.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			grid.Participations(args[0])
		},
	}
	totalsCmd := &cobra.Command{
		Use:   "totals",
		Short: "To get lifetime grid totals.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			grid.Totals()
		},
	}

	subCmd.AddCommand(createEventCmd)
	subCmd.AddCommand(participateCmd)
	subCmd.AddCommand(verifyCmd)
	subCmd.AddCommand(distributeCmd)
	subCmd.AddCommand(completeCmd)
	subCmd.AddCommand(cancelCmd)
	subCmd.AddCommand(pauseCmd)
	subCmd.AddCommand(eventsCmd)
	subCmd.AddCommand(eventCmd)
	subCmd.AddCommand(participationsCmd)
	subCmd.AddCommand(totalsCmd)

	return subCmd
}
