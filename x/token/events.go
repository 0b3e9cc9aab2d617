package token

import (
	"github.com/holiman/uint256"

	"github.com/powergrid/powergrid-der/x/types"
)

// Transfer is emitted on every balance movement. Mints carry the zero
// account as From, burns carry it as To.
type Transfer struct {
	From   types.Account `json:"from"`
	To     types.Account `json:"to"`
	Amount *uint256.Int  `json:"amount"`
}

func (Transfer) EventKind() string { return "transfer" }

type Approval struct {
	Owner   types.Account `json:"owner"`
	Spender types.Account `json:"spender"`
	Amount  *uint256.Int  `json:"amount"`
}

func (Approval) EventKind() string { return "approval" }

type Mint struct {
	To     types.Account `json:"to"`
	Amount *uint256.Int  `json:"amount"`
	Reason string        `json:"reason"`
}

func (Mint) EventKind() string { return "mint" }

type Burn struct {
	From   types.Account `json:"from"`
	Amount *uint256.Int  `json:"amount"`
	Reason string        `json:"reason"`
}

func (Burn) EventKind() string { return "burn" }

type Paused struct {
	By types.Account `json:"by"`
}

func (Paused) EventKind() string { return "paused" }

type Unpaused struct {
	By types.Account `json:"by"`
}

func (Unpaused) EventKind() string { return "unpaused" }

type RoleChanged struct {
	Role    string        `json:"role"`
	Account types.Account `json:"account"`
	Granted bool          `json:"granted"`
}

func (RoleChanged) EventKind() string { return "role_changed" }

type Frozen struct {
	Account types.Account `json:"account"`
}

func (Frozen) EventKind() string { return "frozen" }

type Unfrozen struct {
	Account types.Account `json:"account"`
}

func (Unfrozen) EventKind() string { return "unfrozen" }

type SnapshotCreated struct {
	ID uint64 `json:"id"`
}

func (SnapshotCreated) EventKind() string { return "snapshot_created" }

// SecurityViolation is emitted when a caller without the required role
// attempts a privileged operation.
type SecurityViolation struct {
	Caller    types.Account `json:"caller"`
	Operation string        `json:"operation"`
}

func (SecurityViolation) EventKind() string { return "security_violation" }
