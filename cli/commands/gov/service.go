package gov

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/powergrid/powergrid-der/cli/conf"
	"github.com/powergrid/powergrid-der/client"
	"github.com/powergrid/powergrid-der/x/types"
)

type Service struct {
	Client *client.Client
}

func NewService(sender string) *Service {
	conf.InitConfig()
	if sender == "" {
		sender = conf.C.API.Sender
	}
	if !common.IsHexAddress(sender) {
		panic(fmt.Sprintf("sender %q is not a hex address", sender))
	}
	return &Service{Client: client.New(conf.C.API.BaseURL, common.HexToAddress(sender))}
}

func NewQueryService() *Service {
	conf.InitConfig()
	return &Service{Client: client.New(conf.C.API.BaseURL, types.ZeroAccount)}
}

func parseID(s string) uint64 {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		panic(fmt.Sprintf("proposal id must be an integer. Error: %s", err))
	}
	return id
}
