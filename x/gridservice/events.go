package gridservice

import (
	"github.com/holiman/uint256"

	"github.com/powergrid/powergrid-der/x/types"
)

type GridEventCreated struct {
	ID                   uint64              `json:"id"`
	EventType            types.GridEventType `json:"event_type"`
	DurationMinutes      uint64              `json:"duration_minutes"`
	TargetReductionKW    uint64              `json:"target_reduction_kw"`
	BaseCompensationRate *uint256.Int        `json:"base_compensation_rate"`
	Severity             uint8               `json:"severity"`
}

func (GridEventCreated) EventKind() string { return "grid_event_created" }

type ParticipationRecorded struct {
	EventID     uint64        `json:"event_id"`
	Account     types.Account `json:"account"`
	CommittedWh uint64        `json:"committed_wh"`
}

func (ParticipationRecorded) EventKind() string { return "participation_recorded" }

type ParticipationVerified struct {
	EventID  uint64        `json:"event_id"`
	Account  types.Account `json:"account"`
	ActualWh uint64        `json:"actual_wh"`
}

func (ParticipationVerified) EventKind() string { return "participation_verified" }

type ParticipationRejected struct {
	EventID  uint64        `json:"event_id"`
	Account  types.Account `json:"account"`
	ActualWh uint64        `json:"actual_wh"`
	Reason   string        `json:"reason"`
}

func (ParticipationRejected) EventKind() string { return "participation_rejected" }

type RewardDistributed struct {
	EventID uint64        `json:"event_id"`
	Account types.Account `json:"account"`
	Amount  *uint256.Int  `json:"amount"`
}

func (RewardDistributed) EventKind() string { return "reward_distributed" }

type GridEventCompleted struct {
	ID                uint64 `json:"id"`
	TotalParticipants uint32 `json:"total_participants"`
	TotalEnergyWh     uint64 `json:"total_energy_wh"`
}

func (GridEventCompleted) EventKind() string { return "grid_event_completed" }

type GridEventCancelled struct {
	ID     uint64 `json:"id"`
	Reason string `json:"reason"`
}

func (GridEventCancelled) EventKind() string { return "grid_event_cancelled" }

type GridConditionUpdated struct {
	Condition types.GridCondition `json:"condition"`
}

func (GridConditionUpdated) EventKind() string { return "grid_condition_updated" }

type AutoTriggerFired struct {
	RuleID  uint64 `json:"rule_id"`
	EventID uint64 `json:"event_id"`
}

func (AutoTriggerFired) EventKind() string { return "auto_trigger_fired" }

type SecurityViolation struct {
	Caller    types.Account `json:"caller"`
	Operation string        `json:"operation"`
}

func (SecurityViolation) EventKind() string { return "security_violation" }
