package gov

import (
	"encoding/json"
	"fmt"

	"github.com/powergrid/powergrid-der/x/types"
)

// Propose submits a proposal whose action arrives as a JSON document, e.g.
// {"update_min_stake": {"amount": "0x1bc16d674ec80000"}}.
func Propose(sender, actionJSON, description string) {
	s := NewService(sender)
	var action types.ProposalAction
	if err := json.Unmarshal([]byte(actionJSON), &action); err != nil {
		panic(fmt.Sprintf("action must be a JSON proposal action. Error: %s", err))
	}
	id, err := s.Client.CreateProposal(action, description)
	if err != nil {
		panic(err)
	}
	fmt.Printf("proposal id: %d\n", id)
}

func Vote(sender, proposalID string, support bool) {
	s := NewService(sender)
	if err := s.Client.Vote(parseID(proposalID), support); err != nil {
		panic(err)
	}
	fmt.Printf("voted support=%t on proposal %s\n", support, proposalID)
}

func Finalize(sender, proposalID string) {
	s := NewService(sender)
	if err := s.Client.FinalizeProposal(parseID(proposalID)); err != nil {
		panic(err)
	}
	fmt.Printf("proposal %s finalized\n", proposalID)
}

func Queue(sender, proposalID string) {
	s := NewService(sender)
	if err := s.Client.QueueProposal(parseID(proposalID)); err != nil {
		panic(err)
	}
	fmt.Printf("proposal %s queued\n", proposalID)
}

func Execute(sender, proposalID string) {
	s := NewService(sender)
	if err := s.Client.ExecuteProposal(parseID(proposalID)); err != nil {
		panic(err)
	}
	fmt.Printf("proposal %s executed\n", proposalID)
}

func Cancel(sender, proposalID string) {
	s := NewService(sender)
	if err := s.Client.CancelProposal(parseID(proposalID)); err != nil {
		panic(err)
	}
	fmt.Printf("proposal %s cancelled\n", proposalID)
}
