package registry

import (
	"github.com/holiman/uint256"

	"github.com/powergrid/powergrid-der/x/types"
)

type DeviceRegistered struct {
	Owner         types.Account    `json:"owner"`
	DeviceType    types.DeviceType `json:"device_type"`
	CapacityWatts uint64           `json:"capacity_watts"`
	Stake         *uint256.Int     `json:"stake"`
}

func (DeviceRegistered) EventKind() string { return "device_registered" }

type DeviceDeactivated struct {
	Owner  types.Account `json:"owner"`
	Reason string        `json:"reason"`
}

func (DeviceDeactivated) EventKind() string { return "device_deactivated" }

type MetadataUpdated struct {
	Owner types.Account `json:"owner"`
}

func (MetadataUpdated) EventKind() string { return "metadata_updated" }

type StakeUpdated struct {
	Owner types.Account `json:"owner"`
	Stake *uint256.Int  `json:"stake"`
}

func (StakeUpdated) EventKind() string { return "stake_updated" }

type ReputationUpdated struct {
	Owner  types.Account `json:"owner"`
	Old    uint32        `json:"old"`
	New    uint32        `json:"new"`
	Reason string        `json:"reason"`
}

func (ReputationUpdated) EventKind() string { return "reputation_updated" }

type Slashed struct {
	Owner types.Account `json:"owner"`
	// Burned is true when the slashed stake was destroyed rather than
	// moved to the treasury.
	Burned bool         `json:"burned"`
	Amount *uint256.Int `json:"amount"`
	Reason string       `json:"reason"`
}

func (Slashed) EventKind() string { return "slashed" }

type SecurityViolation struct {
	Caller    types.Account `json:"caller"`
	Operation string        `json:"operation"`
}

func (SecurityViolation) EventKind() string { return "security_violation" }
