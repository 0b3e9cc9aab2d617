package token

import "fmt"

func Balance(account string) {
	s := NewQueryService()
	balance, err := s.Client.BalanceOf(parseAddr(account))
	if err != nil {
		panic(err)
	}
	fmt.Printf("%s\n", balance.Dec())
}

func Supply() {
	s := NewQueryService()
	supply, err := s.Client.TotalSupply()
	if err != nil {
		panic(err)
	}
	fmt.Printf("total supply: %s\n", supply.Dec())
}
