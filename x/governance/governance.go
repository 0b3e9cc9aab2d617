// Package governance implements the proposal/vote/timelock/execute state
// machine that owns every privileged parameter and role change in the
// protocol. Vote weights come from a token balance snapshot taken when the
// proposal is created, so later balance moves cannot shift a vote. Each
// proposal kind dispatches to exactly one downstream contract call.
package governance

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/powergrid/powergrid-der/x/host"
	"github.com/powergrid/powergrid-der/x/types"
)

// TokenAdmin is the capability set governance needs on the token contract.
type TokenAdmin interface {
	BalanceOf(a types.Account) *uint256.Int
	BalanceOfAt(a types.Account, id uint64) (*uint256.Int, error)
	TotalSupplyAt(id uint64) (*uint256.Int, error)
	Snapshot(env host.Env) (uint64, error)
	Transfer(env host.Env, to types.Account, amount *uint256.Int) error
	AddMinter(env host.Env, a types.Account) error
	RemoveMinter(env host.Env, a types.Account) error
	AddBurner(env host.Env, a types.Account) error
	RemoveBurner(env host.Env, a types.Account) error
	SetPaused(env host.Env, paused bool) error
}

// RegistryAdmin is the capability set governance needs on the registry.
type RegistryAdmin interface {
	SetMinStake(env host.Env, value *uint256.Int) error
	SetReputationThreshold(env host.Env, value uint32) error
	SetAuthorizedCaller(env host.Env, a types.Account, grant bool) error
}

// GridAdmin is the capability set governance needs on the grid service.
type GridAdmin interface {
	SetAuthorizedCaller(env host.Env, a types.Account, grant bool) error
	SetDefaultCompensationRate(env host.Env, rate *uint256.Int) error
	SetPaused(env host.Env, paused bool) error
}

// Config pins the voting discipline at deploy.
type Config struct {
	QuorumPercent     uint32
	VotingPeriodSecs  uint64
	TimelockSecs      uint64
	// ExecutionWindowSecs bounds how long after the timelock a queued
	// proposal stays executable.
	ExecutionWindowSecs  uint64
	MinProposalStake     *uint256.Int
	MaxExecutionAttempts uint32
	// EmergencyGuardians seeds the guardian set; later changes go through
	// SetEmergencyGuardian proposals.
	EmergencyGuardians []types.Account
}

// DefaultConfig returns the deploy defaults used by the devnet.
func DefaultConfig(minProposalStake *uint256.Int) Config {
	return Config{
		QuorumPercent:        50,
		VotingPeriodSecs:     3 * 24 * 3600,
		TimelockSecs:         24 * 3600,
		ExecutionWindowSecs:  7 * 24 * 3600,
		MinProposalStake:     minProposalStake,
		MaxExecutionAttempts: 3,
	}
}

// Governance is the governance contract state.
type Governance struct {
	addr  types.Account
	owner types.Account
	sink  host.Sink
	guard host.Guard

	token    TokenAdmin
	registry RegistryAdmin
	grid     GridAdmin

	cfg       Config
	guardians map[types.Account]bool

	nextProposalID uint64
	proposals      map[uint64]*types.Proposal
	votes          map[uint64]map[types.Account]*types.Vote
}

// New deploys governance bound to the three downstream contracts.
func New(addr, owner types.Account, token TokenAdmin, registry RegistryAdmin, grid GridAdmin, cfg Config, sink host.Sink) *Governance {
	if sink == nil {
		sink = host.NopSink{}
	}
	g := &Governance{
		addr:      addr,
		owner:     owner,
		sink:      sink,
		token:     token,
		registry:  registry,
		grid:      grid,
		cfg:       cfg,
		guardians: make(map[types.Account]bool),
		proposals: make(map[uint64]*types.Proposal),
		votes:     make(map[uint64]map[types.Account]*types.Vote),
	}
	for _, a := range cfg.EmergencyGuardians {
		g.guardians[a] = true
	}
	return g
}

// ---------------------------------------------------------------------------
// Queries

func (g *Governance) Address() types.Account { return g.addr }

// IsGuardian reports whether the account holds the emergency guardian role.
// The grid service queries this for emergency event cancels.
func (g *Governance) IsGuardian(a types.Account) bool { return g.guardians[a] }

// GetProposal returns a copy of the proposal record.
func (g *Governance) GetProposal(id uint64) (types.Proposal, bool) {
	p, ok := g.proposals[id]
	if !ok {
		return types.Proposal{}, false
	}
	out := *p
	out.SupplySnapshot = clone(p.SupplySnapshot)
	out.ForVotes = clone(p.ForVotes)
	out.AgainstVotes = clone(p.AgainstVotes)
	return out, true
}

func (g *Governance) HasVoted(id uint64, a types.Account) bool {
	_, ok := g.votes[id][a]
	return ok
}

// GetVote returns the recorded vote, if any.
func (g *Governance) GetVote(id uint64, a types.Account) (types.Vote, bool) {
	v, ok := g.votes[id][a]
	if !ok {
		return types.Vote{}, false
	}
	return types.Vote{Support: v.Support, Weight: clone(v.Weight)}, true
}

func (g *Governance) QuorumPercent() uint32 { return g.cfg.QuorumPercent }

// ---------------------------------------------------------------------------
// Proposal lifecycle

// CreateProposal opens a proposal. The proposer must hold at least the
// minimum proposal stake; a fresh token snapshot fixes vote weights and the
// quorum denominator.
func (g *Governance) CreateProposal(env host.Env, action types.ProposalAction, description string) (uint64, error) {
	kind, err := action.Kind()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", err, host.ErrInvalidArgument)
	}
	if g.token.BalanceOf(env.Caller).Lt(g.cfg.MinProposalStake) {
		return 0, fmt.Errorf("proposer stake below %s: %w", g.cfg.MinProposalStake, host.ErrInsufficientBalance)
	}

	snapID, err := g.token.Snapshot(env.At(g.addr))
	if err != nil {
		return 0, fmt.Errorf("snapshot: %w: %w", host.ErrExternalCall, err)
	}
	supply, err := g.token.TotalSupplyAt(snapID)
	if err != nil {
		return 0, fmt.Errorf("supply snapshot: %w: %w", host.ErrExternalCall, err)
	}

	g.nextProposalID++
	id := g.nextProposalID
	g.proposals[id] = &types.Proposal{
		ID:             id,
		Proposer:       env.Caller,
		Action:         action,
		Description:    description,
		State:          types.ProposalActive,
		CreatedAt:      env.Now,
		VotingEnd:      env.Now + g.cfg.VotingPeriodSecs,
		SnapshotID:     snapID,
		SupplySnapshot: supply,
		ForVotes:       uint256.NewInt(0),
		AgainstVotes:   uint256.NewInt(0),
	}
	g.votes[id] = make(map[types.Account]*types.Vote)

	g.sink.Emit(ProposalCreated{
		ID:          id,
		Proposer:    env.Caller,
		Kind:        kind,
		Description: description,
		VotingEnd:   env.Now + g.cfg.VotingPeriodSecs,
		SnapshotID:  snapID,
	})
	return id, nil
}

// Vote records one vote weighted by the caller's balance at the proposal
// snapshot. One vote per account per proposal.
func (g *Governance) Vote(env host.Env, id uint64, support bool) error {
	p, ok := g.proposals[id]
	if !ok {
		return fmt.Errorf("proposal %d: %w", id, host.ErrNotFound)
	}
	if p.State != types.ProposalActive {
		return fmt.Errorf("proposal %d is %s: %w", id, p.State, host.ErrInvalidState)
	}
	if env.Now > p.VotingEnd {
		return fmt.Errorf("voting ended at %d: %w", p.VotingEnd, host.ErrWindowClosed)
	}
	if _, voted := g.votes[id][env.Caller]; voted {
		return host.ErrAlreadyVoted
	}
	weight, err := g.token.BalanceOfAt(env.Caller, p.SnapshotID)
	if err != nil {
		return fmt.Errorf("vote weight: %w: %w", host.ErrExternalCall, err)
	}
	if weight.IsZero() {
		return fmt.Errorf("no balance at snapshot %d: %w", p.SnapshotID, host.ErrZeroAmount)
	}

	quorumBefore := g.quorumReached(p)
	if support {
		p.ForVotes = new(uint256.Int).Add(p.ForVotes, weight)
	} else {
		p.AgainstVotes = new(uint256.Int).Add(p.AgainstVotes, weight)
	}
	g.votes[id][env.Caller] = &types.Vote{Support: support, Weight: clone(weight)}

	g.sink.Emit(VoteCast{ProposalID: id, Voter: env.Caller, Support: support, Weight: clone(weight)})
	if !quorumBefore && g.quorumReached(p) {
		g.sink.Emit(QuorumReached{ProposalID: id})
	}
	return nil
}

// Finalize settles an active proposal after its voting period: Succeeded when
// the for side wins and quorum is met, Defeated otherwise.
func (g *Governance) Finalize(env host.Env, id uint64) error {
	p, ok := g.proposals[id]
	if !ok {
		return fmt.Errorf("proposal %d: %w", id, host.ErrNotFound)
	}
	if p.State != types.ProposalActive {
		return fmt.Errorf("proposal %d is %s: %w", id, p.State, host.ErrInvalidState)
	}
	if env.Now <= p.VotingEnd {
		return fmt.Errorf("voting open until %d: %w", p.VotingEnd, host.ErrWindowNotOpen)
	}
	if p.ForVotes.Gt(p.AgainstVotes) && g.quorumReached(p) {
		p.State = types.ProposalSucceeded
	} else {
		p.State = types.ProposalDefeated
	}
	g.sink.Emit(ProposalFinalized{ProposalID: id, State: p.State})
	return nil
}

// QueueProposal moves a succeeded proposal into the timelock.
func (g *Governance) QueueProposal(env host.Env, id uint64) error {
	p, ok := g.proposals[id]
	if !ok {
		return fmt.Errorf("proposal %d: %w", id, host.ErrNotFound)
	}
	if p.State != types.ProposalSucceeded {
		return fmt.Errorf("proposal %d is %s: %w", id, p.State, host.ErrInvalidState)
	}
	p.State = types.ProposalQueued
	p.TimelockEnd = env.Now + g.cfg.TimelockSecs
	g.sink.Emit(ProposalQueued{ProposalID: id, TimelockEnd: p.TimelockEnd})
	return nil
}

// ExecuteProposal dispatches a queued proposal's action after the timelock.
// A failed downstream call keeps the proposal queued and counts an attempt;
// exhausting the attempt cap, or touching the proposal after the execution
// window, expires it.
func (g *Governance) ExecuteProposal(env host.Env, id uint64) error {
	p, ok := g.proposals[id]
	if !ok {
		return fmt.Errorf("proposal %d: %w", id, host.ErrNotFound)
	}
	if p.State != types.ProposalQueued {
		return fmt.Errorf("proposal %d is %s: %w", id, p.State, host.ErrInvalidState)
	}
	if env.Now < p.TimelockEnd {
		return fmt.Errorf("timelock until %d: %w", p.TimelockEnd, host.ErrWindowNotOpen)
	}
	if env.Now > p.TimelockEnd+g.cfg.ExecutionWindowSecs {
		p.State = types.ProposalExpired
		g.sink.Emit(ProposalExpired{ProposalID: id, Reason: "execution window passed"})
		return fmt.Errorf("execution window passed: %w", host.ErrWindowClosed)
	}
	if err := g.guard.Enter(); err != nil {
		return err
	}
	defer g.guard.Exit()

	if err := g.dispatch(env, p.Action); err != nil {
		p.ExecutionAttempts++
		if p.ExecutionAttempts >= g.cfg.MaxExecutionAttempts {
			p.State = types.ProposalExpired
			g.sink.Emit(ProposalExpired{ProposalID: id, Reason: "execution attempts exhausted"})
		}
		return fmt.Errorf("proposal %d execution: %w: %w", id, host.ErrExternalCall, err)
	}
	p.State = types.ProposalExecuted
	g.sink.Emit(ProposalExecuted{ProposalID: id})
	return nil
}

// CancelProposal aborts a proposal: the proposer may cancel while voting is
// open, a guardian at any point before a terminal state.
func (g *Governance) CancelProposal(env host.Env, id uint64) error {
	p, ok := g.proposals[id]
	if !ok {
		return fmt.Errorf("proposal %d: %w", id, host.ErrNotFound)
	}
	switch p.State {
	case types.ProposalActive, types.ProposalSucceeded, types.ProposalQueued:
	default:
		return fmt.Errorf("proposal %d is %s: %w", id, p.State, host.ErrInvalidState)
	}
	proposerActive := env.Caller == p.Proposer && p.State == types.ProposalActive
	if !proposerActive && !g.guardians[env.Caller] {
		g.violation(env, "cancel_proposal")
		return host.ErrUnauthorized
	}
	p.State = types.ProposalCancelled
	g.sink.Emit(ProposalCancelled{ProposalID: id, By: env.Caller})
	return nil
}

// ---------------------------------------------------------------------------
// Dispatch

// dispatch is the total function from proposal kind to downstream call.
// types.ProposalAction.Kind guarantees exactly one branch applies.
func (g *Governance) dispatch(env host.Env, a types.ProposalAction) error {
	self := env.At(g.addr)
	switch {
	case a.SetTokenMinter != nil:
		if a.SetTokenMinter.Grant {
			return g.token.AddMinter(self, a.SetTokenMinter.Target)
		}
		return g.token.RemoveMinter(self, a.SetTokenMinter.Target)
	case a.SetTokenBurner != nil:
		if a.SetTokenBurner.Grant {
			return g.token.AddBurner(self, a.SetTokenBurner.Target)
		}
		return g.token.RemoveBurner(self, a.SetTokenBurner.Target)
	case a.SetRegistryAuthorizedCaller != nil:
		return g.registry.SetAuthorizedCaller(self, a.SetRegistryAuthorizedCaller.Target, a.SetRegistryAuthorizedCaller.Grant)
	case a.SetGridAuthorizedCaller != nil:
		return g.grid.SetAuthorizedCaller(self, a.SetGridAuthorizedCaller.Target, a.SetGridAuthorizedCaller.Grant)
	case a.UpdateMinStake != nil:
		return g.registry.SetMinStake(self, a.UpdateMinStake.Amount)
	case a.UpdateReputationThreshold != nil:
		return g.registry.SetReputationThreshold(self, a.UpdateReputationThreshold.Value)
	case a.UpdateCompensationRate != nil:
		return g.grid.SetDefaultCompensationRate(self, a.UpdateCompensationRate.Amount)
	case a.TreasuryTransfer != nil:
		return g.token.Transfer(self, a.TreasuryTransfer.To, a.TreasuryTransfer.Amount)
	case a.SetPaused != nil:
		switch a.SetPaused.Contract {
		case types.ContractToken:
			return g.token.SetPaused(self, a.SetPaused.Paused)
		case types.ContractGridService:
			return g.grid.SetPaused(self, a.SetPaused.Paused)
		default:
			return fmt.Errorf("contract %q: %w", a.SetPaused.Contract, host.ErrInvalidArgument)
		}
	case a.SetEmergencyGuardian != nil:
		if a.SetEmergencyGuardian.Grant {
			g.guardians[a.SetEmergencyGuardian.Target] = true
		} else {
			delete(g.guardians, a.SetEmergencyGuardian.Target)
		}
		return nil
	default:
		return fmt.Errorf("proposal action: %w", host.ErrInvalidArgument)
	}
}

// ---------------------------------------------------------------------------
// Internal

// quorumReached checks for_votes * 100 >= quorum_percent * supply_snapshot.
func (g *Governance) quorumReached(p *types.Proposal) bool {
	lhs, overflow := new(uint256.Int).MulOverflow(p.ForVotes, uint256.NewInt(100))
	if overflow {
		return true
	}
	rhs, overflow := new(uint256.Int).MulOverflow(p.SupplySnapshot, uint256.NewInt(uint64(g.cfg.QuorumPercent)))
	if overflow {
		return false
	}
	return !lhs.Lt(rhs)
}

func (g *Governance) violation(env host.Env, op string) {
	g.sink.Emit(SecurityViolation{Caller: env.Caller, Operation: op})
}

func clone(v *uint256.Int) *uint256.Int {
	if v == nil {
		return nil
	}
	return new(uint256.Int).Set(v)
}
