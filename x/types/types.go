// Package types holds the shared wire and storage shapes of the powergrid
// protocol. Every enum is a closed set; the contracts switch over them
// exhaustively and reject unknown values at the boundary.
package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Account identifies a token holder, device owner, or contract.
type Account = common.Address

// ZeroAccount is the burn/mint counterparty in Transfer events.
var ZeroAccount = Account{}

type DeviceType string

const (
	DeviceSmartPlug  DeviceType = "smart_plug"
	DeviceSolarPanel DeviceType = "solar_panel"
	DeviceBattery    DeviceType = "battery"
	DeviceHVAC       DeviceType = "hvac"
	DeviceEV         DeviceType = "ev"
	DeviceOther      DeviceType = "other"
)

func (d DeviceType) Valid() bool {
	switch d {
	case DeviceSmartPlug, DeviceSolarPanel, DeviceBattery, DeviceHVAC, DeviceEV, DeviceOther:
		return true
	}
	return false
}

type GridEventType string

const (
	EventDemandResponse      GridEventType = "demand_response"
	EventFrequencyRegulation GridEventType = "frequency_regulation"
	EventPeakShaving         GridEventType = "peak_shaving"
	EventLoadBalancing       GridEventType = "load_balancing"
	EventEmergency           GridEventType = "emergency"
)

func (t GridEventType) Valid() bool {
	switch t {
	case EventDemandResponse, EventFrequencyRegulation, EventPeakShaving, EventLoadBalancing, EventEmergency:
		return true
	}
	return false
}

type EventState string

const (
	EventPending   EventState = "pending"
	EventActive    EventState = "active"
	EventCompleted EventState = "completed"
	EventCancelled EventState = "cancelled"
)

type ParticipationState string

const (
	ParticipationCommitted ParticipationState = "committed"
	ParticipationVerified  ParticipationState = "verified"
	ParticipationRejected  ParticipationState = "rejected"
	ParticipationRewarded  ParticipationState = "rewarded"
)

type ProposalState string

const (
	ProposalActive    ProposalState = "active"
	ProposalDefeated  ProposalState = "defeated"
	ProposalSucceeded ProposalState = "succeeded"
	ProposalQueued    ProposalState = "queued"
	ProposalExecuted  ProposalState = "executed"
	ProposalCancelled ProposalState = "cancelled"
	ProposalExpired   ProposalState = "expired"
)

// ContractID names a pausable contract in governance SetPaused proposals.
type ContractID string

const (
	ContractToken       ContractID = "token"
	ContractGridService ContractID = "grid_service"
)

// DeviceMetadata describes a metered device at registration time.
// CapacityWatts bounds the energy a device may commit to a single event.
type DeviceMetadata struct {
	DeviceType      DeviceType `json:"device_type"`
	CapacityWatts   uint64     `json:"capacity_watts"`
	Location        string     `json:"location"`
	Manufacturer    string     `json:"manufacturer"`
	Model           string     `json:"model"`
	FirmwareVersion string     `json:"firmware_version"`
	InstalledAt     uint64     `json:"installed_at"`
}

func (m DeviceMetadata) Validate() error {
	if !m.DeviceType.Valid() {
		return fmt.Errorf("unknown device type %q", m.DeviceType)
	}
	if m.CapacityWatts == 0 {
		return fmt.Errorf("device capacity must be greater than zero")
	}
	if m.Location == "" {
		return fmt.Errorf("device location cannot be empty")
	}
	if m.Manufacturer == "" {
		return fmt.Errorf("manufacturer cannot be empty")
	}
	return nil
}

// Device is the registry record for one registered account.
type Device struct {
	Metadata           DeviceMetadata `json:"metadata"`
	Stake              *uint256.Int   `json:"stake"`
	Reputation         uint32         `json:"reputation"`
	Active             bool           `json:"active"`
	EventsParticipated uint64         `json:"events_participated"`
	EventsSuccessful   uint64         `json:"events_successful"`
	TotalEnergyWh      uint64         `json:"total_energy_wh"`
	LastUpdated        uint64         `json:"last_updated"`
}

// GridEvent is one authority-declared balancing window.
type GridEvent struct {
	ID                   uint64        `json:"id"`
	EventType            GridEventType `json:"event_type"`
	State                EventState    `json:"state"`
	CreatedAt            uint64        `json:"created_at"`
	DurationMinutes      uint64        `json:"duration_minutes"`
	TargetReductionKW    uint64        `json:"target_reduction_kw"`
	BaseCompensationRate *uint256.Int  `json:"base_compensation_rate"`
	Severity             uint8         `json:"severity"`
	ExpectedEnd          uint64        `json:"expected_end"`
	VerificationDeadline uint64        `json:"verification_deadline"`
	TotalParticipants    uint32        `json:"total_participants"`
	TotalEnergyWh        uint64        `json:"total_energy_wh"`
}

// Participation tracks one device's commitment to one event.
type Participation struct {
	EventID      uint64             `json:"event_id"`
	Account      Account            `json:"account"`
	State        ParticipationState `json:"state"`
	CommittedWh  uint64             `json:"committed_wh"`
	ActualWh     uint64             `json:"actual_wh"`
	CommittedAt  uint64             `json:"committed_at"`
	VerifiedAt   uint64             `json:"verified_at"`
	RewardMinted *uint256.Int       `json:"reward_minted"`
}

// GridSignal is a data-feed push describing current grid stress.
type GridSignal struct {
	EventType         GridEventType `json:"event_type"`
	DurationMinutes   uint64        `json:"duration_minutes"`
	TargetReductionKW uint64        `json:"target_reduction_kw"`
	Severity          uint8         `json:"severity"`
	Start             bool          `json:"start"`
	CompleteEventID   *uint64       `json:"complete_event_id,omitempty"`

	Condition *GridCondition `json:"condition,omitempty"`
}

// GridCondition is the last reported grid telemetry.
type GridCondition struct {
	LoadMW           uint64 `json:"load_mw"`
	CapacityMW       uint64 `json:"capacity_mw"`
	FrequencyCentiHz uint32 `json:"frequency_centihz"`
	VoltageDecivolts uint32 `json:"voltage_decivolts"`
	RenewablePercent uint32 `json:"renewable_percent"`
	ReportedAt       uint64 `json:"reported_at"`
}

// RulePredicate is the closed condition set of an auto-trigger rule.
// Nil fields are not checked; all non-nil fields must hold for the rule to
// fire. At least one field must be set.
type RulePredicate struct {
	MinLoadRatioBP        *uint32 `json:"min_load_ratio_bp,omitempty"`
	FrequencyBelowCentiHz *uint32 `json:"frequency_below_centihz,omitempty"`
	FrequencyAboveCentiHz *uint32 `json:"frequency_above_centihz,omitempty"`
	VoltageBelowDecivolts *uint32 `json:"voltage_below_decivolts,omitempty"`
	VoltageAboveDecivolts *uint32 `json:"voltage_above_decivolts,omitempty"`
	RenewableBelowPercent *uint32 `json:"renewable_below_percent,omitempty"`
}

func (p RulePredicate) Empty() bool {
	return p.MinLoadRatioBP == nil &&
		p.FrequencyBelowCentiHz == nil &&
		p.FrequencyAboveCentiHz == nil &&
		p.VoltageBelowDecivolts == nil &&
		p.VoltageAboveDecivolts == nil &&
		p.RenewableBelowPercent == nil
}

// Holds reports whether every set condition matches c.
func (p RulePredicate) Holds(c GridCondition) bool {
	if p.MinLoadRatioBP != nil {
		if c.CapacityMW == 0 {
			return false
		}
		ratio := c.LoadMW * 10000 / c.CapacityMW
		if ratio < uint64(*p.MinLoadRatioBP) {
			return false
		}
	}
	if p.FrequencyBelowCentiHz != nil && c.FrequencyCentiHz >= *p.FrequencyBelowCentiHz {
		return false
	}
	if p.FrequencyAboveCentiHz != nil && c.FrequencyCentiHz <= *p.FrequencyAboveCentiHz {
		return false
	}
	if p.VoltageBelowDecivolts != nil && c.VoltageDecivolts >= *p.VoltageBelowDecivolts {
		return false
	}
	if p.VoltageAboveDecivolts != nil && c.VoltageDecivolts <= *p.VoltageAboveDecivolts {
		return false
	}
	if p.RenewableBelowPercent != nil && c.RenewablePercent >= *p.RenewableBelowPercent {
		return false
	}
	return true
}

// RuleTemplate is the event blueprint an auto-trigger rule instantiates.
type RuleTemplate struct {
	EventType         GridEventType `json:"event_type"`
	DurationMinutes   uint64        `json:"duration_minutes"`
	TargetReductionKW uint64        `json:"target_reduction_kw"`
	Severity          uint8         `json:"severity"`
}

// TriggerRule couples a predicate with the event it creates.
type TriggerRule struct {
	ID           uint64        `json:"id"`
	Predicate    RulePredicate `json:"predicate"`
	Template     RuleTemplate  `json:"template"`
	CooldownSecs uint64        `json:"cooldown_secs"`
	LastFired    uint64        `json:"last_fired"`
}

type SetRole struct {
	Target Account `json:"target"`
	Grant  bool    `json:"grant"`
}

type UpdateAmount struct {
	Amount *uint256.Int `json:"amount"`
}

type UpdateValue struct {
	Value uint32 `json:"value"`
}

type TreasuryTransfer struct {
	To     Account      `json:"to"`
	Amount *uint256.Int `json:"amount"`
}

type SetPausedAction struct {
	Contract ContractID `json:"contract"`
	Paused   bool       `json:"paused"`
}

// ProposalAction is the closed proposal kind set. Exactly one field must be
// non-nil; each maps to a single downstream contract call.
type ProposalAction struct {
	SetTokenMinter              *SetRole          `json:"set_token_minter,omitempty"`
	SetTokenBurner              *SetRole          `json:"set_token_burner,omitempty"`
	SetRegistryAuthorizedCaller *SetRole          `json:"set_registry_authorized_caller,omitempty"`
	SetGridAuthorizedCaller     *SetRole          `json:"set_grid_authorized_caller,omitempty"`
	UpdateMinStake              *UpdateAmount     `json:"update_min_stake,omitempty"`
	UpdateReputationThreshold   *UpdateValue      `json:"update_reputation_threshold,omitempty"`
	UpdateCompensationRate      *UpdateAmount     `json:"update_compensation_rate,omitempty"`
	TreasuryTransfer            *TreasuryTransfer `json:"treasury_transfer,omitempty"`
	SetPaused                   *SetPausedAction  `json:"set_paused,omitempty"`
	SetEmergencyGuardian        *SetRole          `json:"set_emergency_guardian,omitempty"`
}

// Kind returns the name of the single set action, or an error when the action
// is empty or ambiguous.
func (a ProposalAction) Kind() (string, error) {
	var kinds []string
	if a.SetTokenMinter != nil {
		kinds = append(kinds, "set_token_minter")
	}
	if a.SetTokenBurner != nil {
		kinds = append(kinds, "set_token_burner")
	}
	if a.SetRegistryAuthorizedCaller != nil {
		kinds = append(kinds, "set_registry_authorized_caller")
	}
	if a.SetGridAuthorizedCaller != nil {
		kinds = append(kinds, "set_grid_authorized_caller")
	}
	if a.UpdateMinStake != nil {
		kinds = append(kinds, "update_min_stake")
	}
	if a.UpdateReputationThreshold != nil {
		kinds = append(kinds, "update_reputation_threshold")
	}
	if a.UpdateCompensationRate != nil {
		kinds = append(kinds, "update_compensation_rate")
	}
	if a.TreasuryTransfer != nil {
		kinds = append(kinds, "treasury_transfer")
	}
	if a.SetPaused != nil {
		kinds = append(kinds, "set_paused")
	}
	if a.SetEmergencyGuardian != nil {
		kinds = append(kinds, "set_emergency_guardian")
	}
	if len(kinds) == 0 {
		return "", fmt.Errorf("proposal action is empty")
	}
	if len(kinds) > 1 {
		return "", fmt.Errorf("proposal action sets %d kinds, want exactly one", len(kinds))
	}
	return kinds[0], nil
}

// Proposal is the governance record for one proposal.
type Proposal struct {
	ID                uint64         `json:"id"`
	Proposer          Account        `json:"proposer"`
	Action            ProposalAction `json:"action"`
	Description       string         `json:"description"`
	State             ProposalState  `json:"state"`
	CreatedAt         uint64         `json:"created_at"`
	VotingEnd         uint64         `json:"voting_end"`
	TimelockEnd       uint64         `json:"timelock_end"`
	SnapshotID        uint64         `json:"snapshot_id"`
	SupplySnapshot    *uint256.Int   `json:"supply_snapshot"`
	ForVotes          *uint256.Int   `json:"for_votes"`
	AgainstVotes      *uint256.Int   `json:"against_votes"`
	ExecutionAttempts uint32         `json:"execution_attempts"`
}

// Vote records one account's vote on one proposal.
type Vote struct {
	Support bool         `json:"support"`
	Weight  *uint256.Int `json:"weight"`
}
