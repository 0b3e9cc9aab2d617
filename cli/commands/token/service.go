package token

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

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

func parseAddr(s string) types.Account {
	if !common.IsHexAddress(s) {
		panic(fmt.Sprintf("%q is not a hex address", s))
	}
	return common.HexToAddress(s)
}

// parseAmount reads a decimal amount in base units.
func parseAmount(s string) *uint256.Int {
	amount, err := uint256.FromDecimal(s)
	if err != nil {
		panic(fmt.Sprintf("amount %q must be a decimal integer. Error: %s", s, err))
	}
	return amount
}
