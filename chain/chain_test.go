package chain

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/powergrid/powergrid-der/logger"
	"github.com/powergrid/powergrid-der/x/host"
	"github.com/powergrid/powergrid-der/x/types"
)

var (
	admin = types.Account{0x01}
	alice = types.Account{0xaa}
	bob   = types.Account{0xbb}
	carol = types.Account{0xcc}
	dave  = types.Account{0xdd}
)

func tok(n uint64) *uint256.Int {
	one := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(18))
	return new(uint256.Int).Mul(uint256.NewInt(n), one)
}

func milli(n uint64) *uint256.Int {
	return new(uint256.Int).Div(tok(n), uint256.NewInt(1000))
}

func meta() types.DeviceMetadata {
	return types.DeviceMetadata{
		DeviceType:    types.DeviceSmartPlug,
		CapacityWatts: 2000,
		Location:      "Lisbon, PT",
		Manufacturer:  "SmartCorp",
		Model:         "SP-2000",
	}
}

type DevnetTestSuite struct {
	suite.Suite
	chain *Chain
}

func TestDevnet(t *testing.T) {
	suite.Run(t, new(DevnetTestSuite))
}

func (s *DevnetTestSuite) SetupTest() {
	gen := DefaultGenesis(admin, alice)
	gen.Operators = []types.Account{bob, carol}
	gen.VotingPeriodSecs = 3600
	gen.TimelockSecs = 3600
	gen.GrantGridMinter = false

	c, err := New(gen, logger.NewMockLogger())
	s.Require().NoError(err)
	s.chain = c
}

// passProposal drives a proposal from creation through execution, voting
// with the proposer's own weight.
func (s *DevnetTestSuite) passProposal(proposer types.Account, action types.ProposalAction) {
	c := s.chain
	id, err := c.Governance.CreateProposal(c.Env(proposer), action, "devnet proposal")
	s.Require().NoError(err)
	s.Require().NoError(c.Governance.Vote(c.Env(proposer), id, true))
	c.Advance(3601)
	s.Require().NoError(c.Governance.Finalize(c.Env(proposer), id))
	s.Require().NoError(c.Governance.QueueProposal(c.Env(proposer), id))
	c.Advance(3600)
	s.Require().NoError(c.Governance.ExecuteProposal(c.Env(proposer), id))
}

func (s *DevnetTestSuite) register(owner types.Account, stake *uint256.Int) {
	c := s.chain
	s.Require().NoError(c.Token.Approve(c.Env(owner), c.Addresses().Registry, stake))
	s.Require().NoError(c.Registry.RegisterDevice(c.Env(owner), meta(), stake))
}

func (s *DevnetTestSuite) TestRegisterAndWithdrawRoundTrip() {
	c := s.chain
	s.register(alice, tok(2))

	s.Equal(tok(999_998), c.Token.BalanceOf(alice))
	s.Equal(tok(2), c.Token.BalanceOf(c.Addresses().Registry))
	d, ok := c.Registry.GetDevice(alice)
	s.Require().True(ok)
	s.Equal(tok(2), d.Stake)
	s.True(c.Registry.IsDeviceRegistered(alice))

	s.Require().NoError(c.Registry.WithdrawStake(c.Env(alice), tok(2)))
	s.Equal(tok(1_000_000), c.Token.BalanceOf(alice))
	s.True(c.Token.BalanceOf(c.Addresses().Registry).IsZero())
	s.False(c.Registry.IsDeviceRegistered(alice))
}

func (s *DevnetTestSuite) TestHappyPathGridEvent() {
	c := s.chain
	s.register(alice, tok(2))

	// minter grant goes through a full governance round
	s.passProposal(alice, types.ProposalAction{
		SetTokenMinter: &types.SetRole{Target: c.Addresses().Grid, Grant: true},
	})

	id, err := c.Grid.CreateGridEvent(c.Env(bob), types.EventDemandResponse, 60, tok(1), 100, 1)
	s.Require().NoError(err)
	s.Equal(uint64(1), id)
	ev, _ := c.Grid.GetEvent(id)
	s.Equal(types.EventActive, ev.State)

	s.Require().NoError(c.Grid.ParticipateInEvent(c.Env(alice), id, 500))
	p, ok := c.Grid.GetParticipation(id, alice)
	s.Require().True(ok)
	s.Equal(types.ParticipationCommitted, p.State)
	s.Equal(uint64(500), p.CommittedWh)

	// double participation is rejected with no state change
	err = c.Grid.ParticipateInEvent(c.Env(alice), id, 100)
	s.ErrorIs(err, host.ErrAlreadyParticipated)
	p, _ = c.Grid.GetParticipation(id, alice)
	s.Equal(uint64(500), p.CommittedWh)

	c.Advance(3600)
	reward, err := c.Grid.VerifyAndDistributeRewards(c.Env(carol), id, alice, 500)
	s.Require().NoError(err)
	s.Equal(milli(600), reward)

	// 999_998 T staked balance plus the 0.6 T reward
	want := new(uint256.Int).Add(tok(999_998), milli(600))
	s.Equal(want, c.Token.BalanceOf(alice))
	p, _ = c.Grid.GetParticipation(id, alice)
	s.Equal(types.ParticipationRewarded, p.State)

	// the reward fed back into reputation
	rep, _ := c.Registry.GetDeviceReputation(alice)
	s.Equal(uint32(525), rep)
}

func (s *DevnetTestSuite) TestEventLogOrdering() {
	c := s.chain
	s.register(alice, tok(2))

	events := c.Events()
	s.Require().NotEmpty(events)
	var lastSeq uint64
	for _, e := range events {
		s.Greater(e.Seq, lastSeq)
		lastSeq = e.Seq
	}
	kinds := make(map[string]bool)
	for _, e := range events {
		kinds[e.Contract+"/"+e.Kind] = true
	}
	s.True(kinds["token/transfer"])
	s.True(kinds["registry/device_registered"])

	since := c.EventsSince(lastSeq)
	s.Empty(since)
}

func TestGovernanceParameterUpdate(t *testing.T) {
	gen := DefaultGenesis(admin, admin)
	gen.InitialSupply = tok(100)
	gen.VotingPeriodSecs = 3600
	gen.TimelockSecs = 3600
	c, err := New(gen, logger.NewMockLogger())
	require.NoError(t, err)

	// Dave holds 40 T, ten voters hold 6 T each
	require.NoError(t, c.Token.Transfer(c.Env(admin), dave, tok(40)))
	voters := make([]types.Account, 10)
	for i := range voters {
		voters[i] = types.Account{0x20, byte(i)}
		require.NoError(t, c.Token.Transfer(c.Env(admin), voters[i], tok(6)))
	}

	id, err := c.Governance.CreateProposal(c.Env(dave), types.ProposalAction{
		UpdateMinStake: &types.UpdateAmount{Amount: tok(5)},
	}, "raise the stake floor")
	require.NoError(t, err)

	for _, v := range voters {
		require.NoError(t, c.Governance.Vote(c.Env(v), id, true))
	}

	c.Advance(3601)
	require.NoError(t, c.Governance.Finalize(c.Env(dave), id))
	p, _ := c.Governance.GetProposal(id)
	require.Equal(t, types.ProposalSucceeded, p.State)

	require.NoError(t, c.Governance.QueueProposal(c.Env(dave), id))
	c.Advance(3600)
	require.NoError(t, c.Governance.ExecuteProposal(c.Env(dave), id))

	require.Equal(t, tok(5), c.Registry.MinStake())
}

func TestDeterministicAddresses(t *testing.T) {
	a, err := New(DefaultGenesis(admin, alice), logger.NewMockLogger())
	require.NoError(t, err)
	b, err := New(DefaultGenesis(admin, alice), logger.NewMockLogger())
	require.NoError(t, err)
	require.Equal(t, a.Addresses(), b.Addresses())
	require.NotEqual(t, a.Addresses().Token, a.Addresses().Registry)
}
