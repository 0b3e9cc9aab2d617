package governance

import (
	"github.com/holiman/uint256"

	"github.com/powergrid/powergrid-der/x/types"
)

type ProposalCreated struct {
	ID          uint64        `json:"id"`
	Proposer    types.Account `json:"proposer"`
	Kind        string        `json:"kind"`
	Description string        `json:"description"`
	VotingEnd   uint64        `json:"voting_end"`
	SnapshotID  uint64        `json:"snapshot_id"`
}

func (ProposalCreated) EventKind() string { return "proposal_created" }

type VoteCast struct {
	ProposalID uint64        `json:"proposal_id"`
	Voter      types.Account `json:"voter"`
	Support    bool          `json:"support"`
	Weight     *uint256.Int  `json:"weight"`
}

func (VoteCast) EventKind() string { return "vote_cast" }

type QuorumReached struct {
	ProposalID uint64 `json:"proposal_id"`
}

func (QuorumReached) EventKind() string { return "quorum_reached" }

type ProposalFinalized struct {
	ProposalID uint64              `json:"proposal_id"`
	State      types.ProposalState `json:"state"`
}

func (ProposalFinalized) EventKind() string { return "proposal_finalized" }

type ProposalQueued struct {
	ProposalID  uint64 `json:"proposal_id"`
	TimelockEnd uint64 `json:"timelock_end"`
}

func (ProposalQueued) EventKind() string { return "proposal_queued" }

type ProposalExecuted struct {
	ProposalID uint64 `json:"proposal_id"`
}

func (ProposalExecuted) EventKind() string { return "proposal_executed" }

type ProposalCancelled struct {
	ProposalID uint64        `json:"proposal_id"`
	By         types.Account `json:"by"`
}

func (ProposalCancelled) EventKind() string { return "proposal_cancelled" }

type ProposalExpired struct {
	ProposalID uint64 `json:"proposal_id"`
	Reason     string `json:"reason"`
}

func (ProposalExpired) EventKind() string { return "proposal_expired" }

type SecurityViolation struct {
	Caller    types.Account `json:"caller"`
	Operation string        `json:"operation"`
}

func (SecurityViolation) EventKind() string { return "security_violation" }
