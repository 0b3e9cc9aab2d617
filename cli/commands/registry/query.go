package registry

import (
	"encoding/json"
	"fmt"
)

func Device(account string) {
	s := NewQueryService()
	device, err := s.Client.GetDevice(parseAddr(account))
	if err != nil {
		panic(err)
	}
	out, err := json.MarshalIndent(device, "", "  ")
	if err != nil {
		panic(err)
	}
	fmt.Printf("%s\n", out)
}

func Params() {
	s := NewQueryService()
	params, err := s.Client.GetRegistryParams()
	if err != nil {
		panic(err)
	}
	fmt.Printf("min stake:            %s\n", params.MinStake.Dec())
	fmt.Printf("reputation threshold: %d\n", params.ReputationThreshold)
	fmt.Printf("devices:              %d\n", params.DeviceCount)
	fmt.Printf("total staked:         %s\n", params.TotalStaked.Dec())
}
