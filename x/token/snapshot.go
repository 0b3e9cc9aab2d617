package token

import (
	"fmt"
	"sort"

	"github.com/holiman/uint256"

	"github.com/powergrid/powergrid-der/x/host"
	"github.com/powergrid/powergrid-der/x/types"
)

// Balance snapshots give governance a deterministic vote weight: weights are
// read at the snapshot taken when a proposal is created, so balance moves
// after creation cannot shift a vote.
//
// Checkpoints are written lazily. A checkpoint (id, value) records the
// balance an account held at the moment snapshot id was taken; it is only
// appended the first time the balance changes after that snapshot. Lookups
// binary-search the checkpoint list, so cost is O(log writes) regardless of
// how many accounts exist.

type checkpoint struct {
	id    uint64
	value *uint256.Int
}

type snapshotState struct {
	currentID uint64
	accounts  map[types.Account][]checkpoint
	supply    []checkpoint
}

func newSnapshotState() snapshotState {
	return snapshotState{accounts: make(map[types.Account][]checkpoint)}
}

// Snapshot creates a new snapshot and returns its id. Restricted to the
// admin or governance; governance takes one per proposal.
func (t *Token) Snapshot(env host.Env) (uint64, error) {
	if !t.isAdminOrGovernance(env.Caller) {
		t.violation(env, "snapshot")
		return 0, host.ErrUnauthorized
	}
	t.snapshots.currentID++
	t.sink.Emit(SnapshotCreated{ID: t.snapshots.currentID})
	return t.snapshots.currentID, nil
}

// CurrentSnapshotID returns the id of the latest snapshot, 0 if none taken.
func (t *Token) CurrentSnapshotID() uint64 {
	return t.snapshots.currentID
}

// BalanceOfAt returns the account balance as of snapshot id.
func (t *Token) BalanceOfAt(a types.Account, id uint64) (*uint256.Int, error) {
	if id == 0 || id > t.snapshots.currentID {
		return nil, fmt.Errorf("snapshot %d: %w", id, host.ErrNotFound)
	}
	if v, ok := lookup(t.snapshots.accounts[a], id); ok {
		return clone(v), nil
	}
	return t.BalanceOf(a), nil
}

// TotalSupplyAt returns the total supply as of snapshot id.
func (t *Token) TotalSupplyAt(id uint64) (*uint256.Int, error) {
	if id == 0 || id > t.snapshots.currentID {
		return nil, fmt.Errorf("snapshot %d: %w", id, host.ErrNotFound)
	}
	if v, ok := lookup(t.snapshots.supply, id); ok {
		return clone(v), nil
	}
	return t.TotalSupply(), nil
}

// snapshotAccount records the pre-write balance for every snapshot taken
// since the account's last write. Must run before the balance mutates.
func (t *Token) snapshotAccount(a types.Account) {
	cur := t.snapshots.currentID
	if cur == 0 {
		return
	}
	cps := t.snapshots.accounts[a]
	if len(cps) > 0 && cps[len(cps)-1].id >= cur {
		return
	}
	t.snapshots.accounts[a] = append(cps, checkpoint{id: cur, value: t.BalanceOf(a)})
}

// snapshotSupply is the supply-side counterpart, run before mint/burn.
func (t *Token) snapshotSupply() {
	cur := t.snapshots.currentID
	if cur == 0 {
		return
	}
	cps := t.snapshots.supply
	if len(cps) > 0 && cps[len(cps)-1].id >= cur {
		return
	}
	t.snapshots.supply = append(cps, checkpoint{id: cur, value: t.TotalSupply()})
}

// lookup finds the first checkpoint at or after id. A hit means the value
// changed after the snapshot and the checkpoint preserves the old value; a
// miss means the live value still stands.
func lookup(cps []checkpoint, id uint64) (*uint256.Int, bool) {
	i := sort.Search(len(cps), func(i int) bool { return cps[i].id >= id })
	if i == len(cps) {
		return nil, false
	}
	return cps[i].value, true
}
