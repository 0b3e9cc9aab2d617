package cmd

import (
	"github.com/spf13/cobra"

	"github.com/powergrid/powergrid-der/cli/commands/registry"
)

func registryCmd() *cobra.Command {
	subCmd := &cobra.Command{
		Use:   "registry",
		Short: "Device registry related commands",
	}
	registerCmd := &cobra.Command{
		Use:   "register <sender> <deviceType> <capacityWatts> <location> <manufacturer> <stake>",
		Short: "To register a device with stake.",
		Args:  cobra.ExactArgs(6),
		Run: func(cmd *cobra.Command, args []string) {
			registry.Register(args[0], args[1], args[2], args[3], args[4], args[5])
		},
	}
	increaseStakeCmd := &cobra.Command{
		Use:   "increase-stake <sender> <amount>",
		Short: "To add stake to a registered device.",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			registry.IncreaseStake(args[0], args[1])
		},
	}
	withdrawStakeCmd := &cobra.Command{
		Use:   "withdraw-stake <sender> <amount>",
		Short: "To withdraw stake.",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			registry.WithdrawStake(args[0], args[1])
		},
	}
	slashCmd := &cobra.Command{
		Use:   "slash <sender> <account> <amount> <reason>",
		Short: "To slash a device's stake (authorized callers).",
		Args:  cobra.ExactArgs(4),
		Run: func(cmd *cobra.Command, args []string) {
			registry.Slash(args[0], args[1], args[2], args[3])
		},
	}
	heartbeatCmd := &cobra.Command{
		Use:   "heartbeat <sender>",
		Short: "To record a liveness heartbeat.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			registry.Heartbeat(args[0])
		},
	}
	deviceCmd := &cobra.Command{
		Use:   "device <account>",
		Short: "To get a device record.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			registry.Device(args[0])
		},
	}
	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "To get the registry parameters.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			registry.Params()
		},
	}

	subCmd.AddCommand(registerCmd)
	subCmd.AddCommand(increaseStakeCmd)
	subCmd.AddCommand(withdrawStakeCmd)
	subCmd.AddCommand(slashCmd)
	subCmd.AddCommand(heartbeatCmd)
	subCmd.AddCommand(deviceCmd)
	subCmd.AddCommand(paramsCmd)

	return subCmd
}
