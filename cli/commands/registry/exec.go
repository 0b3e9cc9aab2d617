package registry

import (
	"fmt"
	"strconv"

	"github.com/powergrid/powergrid-der/x/types"
)

func Register(sender, deviceType, capacityWatts, location, manufacturer, stake string) {
	s := NewService(sender)
	capacity, err := strconv.ParseUint(capacityWatts, 10, 64)
	if err != nil {
		panic(fmt.Sprintf("capacity must be an integer. Error: %s", err))
	}
	metadata := types.DeviceMetadata{
		DeviceType:    types.DeviceType(deviceType),
		CapacityWatts: capacity,
		Location:      location,
		Manufacturer:  manufacturer,
	}
	if err := s.Client.RegisterDevice(metadata, parseAmount(stake)); err != nil {
		panic(err)
	}
	fmt.Printf("registered %s device with stake %s\n", deviceType, stake)
}

func IncreaseStake(sender, amount string) {
	s := NewService(sender)
	if err := s.Client.IncreaseStake(parseAmount(amount)); err != nil {
		panic(err)
	}
	fmt.Printf("stake increased by %s\n", amount)
}

func WithdrawStake(sender, amount string) {
	s := NewService(sender)
	if err := s.Client.WithdrawStake(parseAmount(amount)); err != nil {
		panic(err)
	}
	fmt.Printf("stake withdrawn: %s\n", amount)
}

func Slash(sender, account, amount, reason string) {
	s := NewService(sender)
	if err := s.Client.SlashStake(parseAddr(account), parseAmount(amount), reason); err != nil {
		panic(err)
	}
	fmt.Printf("slashed %s by %s\n", account, amount)
}

func Heartbeat(sender string) {
	s := NewService(sender)
	if err := s.Client.Heartbeat(); err != nil {
		panic(err)
	}
	fmt.Println("heartbeat recorded")
}
