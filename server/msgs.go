package server

import (
	"github.com/holiman/uint256"

	"github.com/powergrid/powergrid-der/x/types"
)

// Execute messages follow the one-pointer-per-operation envelope convention:
// exactly one field is set per request and each field maps to one contract
// call. Amounts travel as 0x-prefixed hex strings.

type TransferMsg struct {
	To     types.Account `json:"to"`
	Amount *uint256.Int  `json:"amount"`
}

type TransferFromMsg struct {
	Owner  types.Account `json:"owner"`
	To     types.Account `json:"to"`
	Amount *uint256.Int  `json:"amount"`
}

type ApproveMsg struct {
	Spender types.Account `json:"spender"`
	Amount  *uint256.Int  `json:"amount"`
}

type MintMsg struct {
	To     types.Account `json:"to"`
	Amount *uint256.Int  `json:"amount"`
	Reason string        `json:"reason"`
}

type BurnMsg struct {
	From   types.Account `json:"from"`
	Amount *uint256.Int  `json:"amount"`
	Reason string        `json:"reason"`
}

type SetPausedMsg struct {
	Paused bool `json:"paused"`
}

type AccountMsg struct {
	Account types.Account `json:"account"`
}

type SetCapMsg struct {
	// Cap of nil or zero clears the limit.
	Cap *uint256.Int `json:"cap"`
}

type TokenExecuteMsg struct {
	Transfer       *TransferMsg     `json:"transfer,omitempty"`
	TransferFrom   *TransferFromMsg `json:"transfer_from,omitempty"`
	Approve        *ApproveMsg      `json:"approve,omitempty"`
	Mint           *MintMsg         `json:"mint,omitempty"`
	Burn           *BurnMsg         `json:"burn,omitempty"`
	SetPaused      *SetPausedMsg    `json:"set_paused,omitempty"`
	AddMinter      *AccountMsg      `json:"add_minter,omitempty"`
	RemoveMinter   *AccountMsg      `json:"remove_minter,omitempty"`
	AddBurner      *AccountMsg      `json:"add_burner,omitempty"`
	RemoveBurner   *AccountMsg      `json:"remove_burner,omitempty"`
	Freeze         *AccountMsg      `json:"freeze,omitempty"`
	Unfreeze       *AccountMsg      `json:"unfreeze,omitempty"`
	SetTransferCap *SetCapMsg       `json:"set_transfer_cap,omitempty"`
	SetDailyCap    *SetCapMsg       `json:"set_daily_cap,omitempty"`
	Snapshot       *struct{}        `json:"snapshot,omitempty"`
}

type RegisterDeviceMsg struct {
	Metadata types.DeviceMetadata `json:"metadata"`
	Stake    *uint256.Int         `json:"stake"`
}

type StakeMsg struct {
	Amount *uint256.Int `json:"amount"`
}

type SlashMsg struct {
	Account types.Account `json:"account"`
	Amount  *uint256.Int  `json:"amount"`
	Reason  string        `json:"reason"`
}

type UpdateMetadataMsg struct {
	Metadata types.DeviceMetadata `json:"metadata"`
}

type HeartbeatMsg struct {
	Account types.Account `json:"account"`
}

type RegistryExecuteMsg struct {
	RegisterDevice *RegisterDeviceMsg `json:"register_device,omitempty"`
	IncreaseStake  *StakeMsg          `json:"increase_stake,omitempty"`
	WithdrawStake  *StakeMsg          `json:"withdraw_stake,omitempty"`
	SlashStake     *SlashMsg          `json:"slash_stake,omitempty"`
	UpdateMetadata *UpdateMetadataMsg `json:"update_metadata,omitempty"`
	Heartbeat      *HeartbeatMsg      `json:"heartbeat,omitempty"`
}

type CreateEventMsg struct {
	EventType         types.GridEventType `json:"event_type"`
	DurationMinutes   uint64              `json:"duration_minutes"`
	Rate              *uint256.Int        `json:"rate"`
	TargetReductionKW uint64              `json:"target_reduction_kw"`
	Severity          uint8               `json:"severity"`
}

type ParticipateMsg struct {
	EventID     uint64 `json:"event_id"`
	CommittedWh uint64 `json:"committed_wh"`
}

type VerifyMsg struct {
	EventID  uint64        `json:"event_id"`
	Account  types.Account `json:"account"`
	ActualWh uint64        `json:"actual_wh"`
}

type BatchDistributeMsg struct {
	EventID  uint64          `json:"event_id"`
	Accounts []types.Account `json:"accounts"`
	Actuals  []uint64        `json:"actuals"`
}

type EventIDMsg struct {
	EventID uint64 `json:"event_id"`
}

type CancelEventMsg struct {
	EventID uint64 `json:"event_id"`
	Reason  string `json:"reason"`
}

type SignalMsg struct {
	Signal types.GridSignal `json:"signal"`
}

type AddRuleMsg struct {
	Predicate    types.RulePredicate `json:"predicate"`
	Template     types.RuleTemplate  `json:"template"`
	CooldownSecs uint64              `json:"cooldown_secs"`
}

type RuleIDMsg struct {
	RuleID uint64 `json:"rule_id"`
}

type GridExecuteMsg struct {
	CreateEvent       *CreateEventMsg     `json:"create_event,omitempty"`
	Participate       *ParticipateMsg     `json:"participate,omitempty"`
	Verify            *VerifyMsg          `json:"verify,omitempty"`
	DistributeRewards *VerifyMsg          `json:"distribute_rewards,omitempty"`
	DistributeBatch   *BatchDistributeMsg `json:"distribute_batch,omitempty"`
	CompleteEvent     *EventIDMsg         `json:"complete_event,omitempty"`
	CancelEvent       *CancelEventMsg     `json:"cancel_event,omitempty"`
	IngestSignal      *SignalMsg          `json:"ingest_signal,omitempty"`
	AddRule           *AddRuleMsg         `json:"add_rule,omitempty"`
	RemoveRule        *RuleIDMsg          `json:"remove_rule,omitempty"`
	SetPaused         *SetPausedMsg       `json:"set_paused,omitempty"`
}

type CreateProposalMsg struct {
	Action      types.ProposalAction `json:"action"`
	Description string               `json:"description"`
}

type VoteMsg struct {
	ProposalID uint64 `json:"proposal_id"`
	Support    bool   `json:"support"`
}

type ProposalIDMsg struct {
	ProposalID uint64 `json:"proposal_id"`
}

type GovExecuteMsg struct {
	CreateProposal *CreateProposalMsg `json:"create_proposal,omitempty"`
	Vote           *VoteMsg           `json:"vote,omitempty"`
	Finalize       *ProposalIDMsg     `json:"finalize,omitempty"`
	Queue          *ProposalIDMsg     `json:"queue,omitempty"`
	Execute        *ProposalIDMsg     `json:"execute,omitempty"`
	Cancel         *ProposalIDMsg     `json:"cancel,omitempty"`
}
