// Package chain hosts the four contracts in-process: it assigns contract
// addresses, wires the cross-contract capability interfaces so every hop
// carries the calling contract's address, stamps emitted events with a
// sequence number and timestamp, and exposes a manual clock. It is the
// devnet backing the HTTP API, the indexer, and the end-to-end tests.
package chain

import (
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/powergrid/powergrid-der/logger"
	"github.com/powergrid/powergrid-der/x/governance"
	"github.com/powergrid/powergrid-der/x/gridservice"
	"github.com/powergrid/powergrid-der/x/host"
	"github.com/powergrid/powergrid-der/x/registry"
	"github.com/powergrid/powergrid-der/x/token"
	"github.com/powergrid/powergrid-der/x/types"
)

// Addresses holds the deployed contract addresses.
type Addresses struct {
	Token      types.Account `json:"token"`
	Registry   types.Account `json:"registry"`
	Grid       types.Account `json:"grid"`
	Governance types.Account `json:"governance"`
}

// contractAddress derives a stable devnet address from the contract name.
func contractAddress(name string) types.Account {
	h := crypto.Keccak256([]byte("powergrid/" + name))
	var a types.Account
	copy(a[:], h[12:])
	return a
}

// TaggedEvent is one contract event with its log position.
type TaggedEvent struct {
	Seq      uint64     `json:"seq"`
	Ts       uint64     `json:"ts"`
	Contract string     `json:"contract"`
	Kind     string     `json:"kind"`
	Event    host.Event `json:"event"`
}

// Genesis configures the initial deploy.
type Genesis struct {
	Admin            types.Account
	InitialSupply    *uint256.Int
	InitialHolder    types.Account
	MinStake         *uint256.Int
	DefaultRate      *uint256.Int
	MinProposalStake *uint256.Int
	QuorumPercent    uint32
	VotingPeriodSecs uint64
	TimelockSecs     uint64
	Guardians        []types.Account
	Operators        []types.Account
	DataFeeds        []types.Account
	// GrantGridMinter pre-grants the minter role to the grid service so
	// rewards work without a governance round. Production-like setups leave
	// it false and run the proposal.
	GrantGridMinter bool
	StartTime       uint64
}

// DefaultGenesis returns the devnet defaults: one million tokens to the
// holder, 1 T minimum stake, 1 T/kWh default rate.
func DefaultGenesis(admin, holder types.Account) Genesis {
	one := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(18))
	million := new(uint256.Int).Mul(uint256.NewInt(1_000_000), one)
	ten := new(uint256.Int).Mul(uint256.NewInt(10), one)
	return Genesis{
		Admin:            admin,
		InitialSupply:    million,
		InitialHolder:    holder,
		MinStake:         one,
		DefaultRate:      one,
		MinProposalStake: ten,
		QuorumPercent:    50,
		VotingPeriodSecs: 3 * 24 * 3600,
		TimelockSecs:     24 * 3600,
		GrantGridMinter:  true,
		StartTime:        1_700_000_000,
	}
}

// Chain is the in-process devnet.
type Chain struct {
	mu  sync.Mutex
	log logger.Logger

	now uint64
	seq uint64

	events []TaggedEvent

	addrs      Addresses
	Token      *token.Token
	Registry   *registry.Registry
	Grid       *gridservice.GridService
	Governance *governance.Governance
}

// sink tags events with the emitting contract and the chain clock.
type sink struct {
	c        *Chain
	contract string
}

func (s sink) Emit(e host.Event) {
	s.c.seq++
	s.c.events = append(s.c.events, TaggedEvent{
		Seq:      s.c.seq,
		Ts:       s.c.now,
		Contract: s.contract,
		Kind:     e.EventKind(),
		Event:    e,
	})
}

// New deploys and wires the protocol. Deploy order is token, registry, grid
// service, governance; governance is then bound as the privileged address on
// all three.
func New(gen Genesis, log logger.Logger) (*Chain, error) {
	c := &Chain{log: log, now: gen.StartTime}

	c.addrs = Addresses{
		Token:      contractAddress("token"),
		Registry:   contractAddress("registry"),
		Grid:       contractAddress("gridservice"),
		Governance: contractAddress("governance"),
	}

	c.Token = token.New(gen.Admin, token.Config{
		Name:          "PowerGrid Token",
		Symbol:        "PWGD",
		Decimals:      18,
		InitialSupply: gen.InitialSupply,
		InitialHolder: gen.InitialHolder,
	}, sink{c, "token"})

	c.Registry = registry.New(c.addrs.Registry, gen.Admin, c.addrs.Token, c.Token,
		registry.DefaultConfig(gen.MinStake), sink{c, "registry"})

	c.Grid = gridservice.New(c.addrs.Grid, gen.Admin, c.addrs.Token, c.Token,
		c.addrs.Registry, c.Registry,
		gridservice.DefaultConfig(gen.DefaultRate), sink{c, "gridservice"})

	govCfg := governance.DefaultConfig(gen.MinProposalStake)
	govCfg.QuorumPercent = gen.QuorumPercent
	govCfg.VotingPeriodSecs = gen.VotingPeriodSecs
	govCfg.TimelockSecs = gen.TimelockSecs
	govCfg.EmergencyGuardians = gen.Guardians
	c.Governance = governance.New(c.addrs.Governance, gen.Admin,
		c.Token, c.Registry, c.Grid, govCfg, sink{c, "governance"})

	admin := host.Env{Caller: gen.Admin, Now: c.now}
	if err := c.Token.SetGovernanceAddress(admin, c.addrs.Governance); err != nil {
		return nil, err
	}
	if err := c.Registry.SetGovernanceAddress(admin, c.addrs.Governance); err != nil {
		return nil, err
	}
	if err := c.Registry.SetAuthorizedCaller(admin, c.addrs.Grid, true); err != nil {
		return nil, err
	}
	if err := c.Grid.SetGovernanceAddress(admin, c.addrs.Governance, c.Governance); err != nil {
		return nil, err
	}
	for _, op := range gen.Operators {
		if err := c.Grid.SetAuthorizedCaller(admin, op, true); err != nil {
			return nil, err
		}
	}
	for _, feed := range gen.DataFeeds {
		if err := c.Grid.SetDataFeed(admin, feed, true); err != nil {
			return nil, err
		}
	}
	if gen.GrantGridMinter {
		if err := c.Token.AddMinter(admin, c.addrs.Grid); err != nil {
			return nil, err
		}
	}

	log.Info("devnet deployed",
		logger.WithField("token", c.addrs.Token.Hex()),
		logger.WithField("registry", c.addrs.Registry.Hex()),
		logger.WithField("gridservice", c.addrs.Grid.Hex()),
		logger.WithField("governance", c.addrs.Governance.Hex()),
	)
	return c, nil
}

// Addresses returns the deployed contract addresses.
func (c *Chain) Addresses() Addresses { return c.addrs }

// Now returns the chain clock in unix seconds.
func (c *Chain) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *Chain) Advance(secs uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += secs
	c.log.Debug("clock advanced", logger.WithField("now", c.now))
	return c.now
}

// SetTime sets the clock. Refuses to move backwards.
func (c *Chain) SetTime(ts uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ts > c.now {
		c.now = ts
	}
	return c.now
}

// Env builds the call environment for an externally-owned caller.
func (c *Chain) Env(caller types.Account) host.Env {
	c.mu.Lock()
	defer c.mu.Unlock()
	return host.Env{Caller: caller, Now: c.now}
}

// Lock serializes a transaction against the chain, mirroring the host
// chain's one-call-at-a-time execution. Callers run their contract call
// between Lock and Unlock.
func (c *Chain) Lock()   { c.mu.Lock() }
func (c *Chain) Unlock() { c.mu.Unlock() }

// Events returns a copy of the full event log.
func (c *Chain) Events() []TaggedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]TaggedEvent, len(c.events))
	copy(out, c.events)
	return out
}

// EventsSince returns events with seq strictly greater than after.
func (c *Chain) EventsSince(after uint64) []TaggedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []TaggedEvent
	for _, e := range c.events {
		if e.Seq > after {
			out = append(out, e)
		}
	}
	return out
}
