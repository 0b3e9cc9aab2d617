// Package chaininfo covers the devnet meta endpoints: addresses, clock, and
// the raw event log.
package chaininfo

import (
	"fmt"
	"strconv"

	"github.com/powergrid/powergrid-der/cli/conf"
	"github.com/powergrid/powergrid-der/client"
	"github.com/powergrid/powergrid-der/x/types"
)

func newClient() *client.Client {
	conf.InitConfig()
	return client.New(conf.C.API.BaseURL, types.ZeroAccount)
}

func Addresses() {
	c := newClient()
	addrs, err := c.Addresses()
	if err != nil {
		panic(err)
	}
	fmt.Printf("token:      %s\n", addrs.Token.Hex())
	fmt.Printf("registry:   %s\n", addrs.Registry.Hex())
	fmt.Printf("grid:       %s\n", addrs.Grid.Hex())
	fmt.Printf("governance: %s\n", addrs.Governance.Hex())
}

func Time() {
	c := newClient()
	now, err := c.Now()
	if err != nil {
		panic(err)
	}
	fmt.Printf("%d\n", now)
}

func Advance(secs string) {
	n, err := strconv.ParseUint(secs, 10, 64)
	if err != nil {
		panic(fmt.Sprintf("seconds must be an integer. Error: %s", err))
	}
	c := newClient()
	now, err := c.AdvanceTime(n)
	if err != nil {
		panic(err)
	}
	fmt.Printf("%d\n", now)
}

func Events(after string) {
	afterSeq := uint64(0)
	if after != "" {
		n, err := strconv.ParseUint(after, 10, 64)
		if err != nil {
			panic(fmt.Sprintf("after must be an integer. Error: %s", err))
		}
		afterSeq = n
	}
	c := newClient()
	rows, err := c.Events(afterSeq, 100)
	if err != nil {
		panic(err)
	}
	for _, row := range rows {
		fmt.Printf("#%d ts=%d %s/%s %s\n", row.Seq, row.Ts, row.Contract, row.Kind, row.Event)
	}
}
