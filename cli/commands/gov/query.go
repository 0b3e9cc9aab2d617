package gov

import (
	"encoding/json"
	"fmt"
)

func Proposal(proposalID string) {
	s := NewQueryService()
	p, err := s.Client.GetProposal(parseID(proposalID))
	if err != nil {
		panic(err)
	}
	out, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		panic(err)
	}
	fmt.Printf("%s\n", out)
}
