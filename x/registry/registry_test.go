package registry

import (
	"fmt"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/powergrid/powergrid-der/x/host"
	"github.com/powergrid/powergrid-der/x/token"
	"github.com/powergrid/powergrid-der/x/types"
)

var (
	deployer     = types.Account{0x01}
	registryAddr = types.Account{0x02}
	gridAddr     = types.Account{0x03}
	govAddr      = types.Account{0x04}
	treasury     = types.Account{0x05}
	alice        = types.Account{0xaa}
	bob          = types.Account{0xbb}
)

func tok(n uint64) *uint256.Int {
	one := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(18))
	return new(uint256.Int).Mul(uint256.NewInt(n), one)
}

func meta() types.DeviceMetadata {
	return types.DeviceMetadata{
		DeviceType:      types.DeviceSmartPlug,
		CapacityWatts:   2000,
		Location:        "Lisbon, PT",
		Manufacturer:    "SmartCorp",
		Model:           "SP-2000",
		FirmwareVersion: "1.0.0",
		InstalledAt:     1_690_000_000,
	}
}

type recordSink struct {
	events []host.Event
}

func (r *recordSink) Emit(e host.Event) { r.events = append(r.events, e) }

type RegistryTestSuite struct {
	suite.Suite
	sink     *recordSink
	token    *token.Token
	registry *Registry
	now      uint64
}

func TestRegistry(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (s *RegistryTestSuite) SetupTest() {
	s.sink = &recordSink{}
	s.now = 1_700_000_000
	s.token = token.New(deployer, token.Config{
		Name: "PowerGrid Token", Symbol: "PWGD", Decimals: 18,
		InitialSupply: tok(1_000_000),
		InitialHolder: alice,
	}, host.NopSink{})
	s.registry = New(registryAddr, deployer, types.Account{0xf0}, s.token, DefaultConfig(tok(1)), s.sink)
	s.Require().NoError(s.registry.SetGovernanceAddress(s.env(deployer), govAddr))
	s.Require().NoError(s.registry.SetAuthorizedCaller(s.env(deployer), gridAddr, true))
}

func (s *RegistryTestSuite) env(caller types.Account) host.Env {
	return host.Env{Caller: caller, Now: s.now}
}

func (s *RegistryTestSuite) register(stake *uint256.Int) {
	s.Require().NoError(s.token.Approve(s.env(alice), registryAddr, stake))
	s.Require().NoError(s.registry.RegisterDevice(s.env(alice), meta(), stake))
}

func (s *RegistryTestSuite) TestRegisterAndWithdrawRoundTrip() {
	s.register(tok(2))

	s.Equal(tok(999_998), s.token.BalanceOf(alice))
	s.Equal(tok(2), s.token.BalanceOf(registryAddr))
	s.True(s.registry.IsDeviceRegistered(alice))
	d, ok := s.registry.GetDevice(alice)
	s.Require().True(ok)
	s.Equal(tok(2), d.Stake)
	s.Equal(uint32(500), d.Reputation)
	s.Equal(uint32(1), s.registry.GetDeviceCount())

	s.Require().NoError(s.registry.WithdrawStake(s.env(alice), tok(2)))
	s.Equal(tok(1_000_000), s.token.BalanceOf(alice))
	s.True(s.token.BalanceOf(registryAddr).IsZero())
	s.False(s.registry.IsDeviceRegistered(alice))
	s.Equal(uint32(0), s.registry.GetDeviceCount())
}

func (s *RegistryTestSuite) TestRegisterBelowMinStake() {
	s.Require().NoError(s.token.Approve(s.env(alice), registryAddr, tok(1)))
	half := new(uint256.Int).Div(tok(1), uint256.NewInt(2))
	err := s.registry.RegisterDevice(s.env(alice), meta(), half)
	s.ErrorIs(err, host.ErrInsufficientStake)
	s.False(s.registry.IsDeviceRegistered(alice))
}

func (s *RegistryTestSuite) TestRegisterWithoutAllowanceIsAtomic() {
	err := s.registry.RegisterDevice(s.env(alice), meta(), tok(2))
	s.ErrorIs(err, host.ErrExternalCall)
	s.False(s.registry.IsDeviceRegistered(alice))
	s.True(s.token.BalanceOf(registryAddr).IsZero())
	s.Equal(uint32(0), s.registry.GetDeviceCount())
}

func (s *RegistryTestSuite) TestRegisterTwice() {
	s.register(tok(2))
	s.Require().NoError(s.token.Approve(s.env(alice), registryAddr, tok(2)))
	err := s.registry.RegisterDevice(s.env(alice), meta(), tok(2))
	s.ErrorIs(err, host.ErrAlreadyRegistered)
}

func (s *RegistryTestSuite) TestRegisterInvalidMetadata() {
	m := meta()
	m.CapacityWatts = 0
	s.Require().NoError(s.token.Approve(s.env(alice), registryAddr, tok(2)))
	err := s.registry.RegisterDevice(s.env(alice), m, tok(2))
	s.ErrorIs(err, host.ErrInvalidArgument)
}

func (s *RegistryTestSuite) TestPartialWithdrawKeepsMinimum() {
	s.register(tok(3))
	// would leave 0.5 T, below the 1 T minimum
	half := new(uint256.Int).Div(tok(5), uint256.NewInt(2))
	err := s.registry.WithdrawStake(s.env(alice), half)
	s.ErrorIs(err, host.ErrInsufficientStake)

	s.Require().NoError(s.registry.WithdrawStake(s.env(alice), tok(2)))
	d, _ := s.registry.GetDevice(alice)
	s.Equal(tok(1), d.Stake)
	s.True(d.Active)
}

func (s *RegistryTestSuite) TestIncreaseStake() {
	s.register(tok(1))
	s.Require().NoError(s.token.Approve(s.env(alice), registryAddr, tok(4)))
	s.Require().NoError(s.registry.IncreaseStake(s.env(alice), tok(4)))
	d, _ := s.registry.GetDevice(alice)
	s.Equal(tok(5), d.Stake)
	s.Equal(tok(5), s.registry.TotalStaked())
}

func (s *RegistryTestSuite) TestSlashBurns() {
	s.register(tok(5))
	supplyBefore := s.token.TotalSupply()

	s.Require().NoError(s.registry.SlashStake(s.env(gridAddr), alice, tok(2), "missed commitment"))

	d, _ := s.registry.GetDevice(alice)
	s.Equal(tok(3), d.Stake)
	s.Equal(uint32(400), d.Reputation)
	s.Equal(tok(3), s.token.BalanceOf(registryAddr))
	wantSupply := new(uint256.Int).Sub(supplyBefore, tok(2))
	s.Equal(wantSupply, s.token.TotalSupply())
}

func (s *RegistryTestSuite) TestSlashToTreasury() {
	s.register(tok(5))
	tr := treasury
	s.Require().NoError(s.registry.SetTreasury(s.env(govAddr), &tr, true))
	supplyBefore := s.token.TotalSupply()

	s.Require().NoError(s.registry.SlashStake(s.env(govAddr), alice, tok(2), "misreport"))

	s.Equal(tok(2), s.token.BalanceOf(treasury))
	s.Equal(supplyBefore, s.token.TotalSupply())
}

func (s *RegistryTestSuite) TestSlashOutRemovesDevice() {
	s.register(tok(2))
	s.Require().NoError(s.registry.SlashStake(s.env(gridAddr), alice, tok(10), "fraud"))
	s.False(s.registry.IsDeviceRegistered(alice))
	_, ok := s.registry.GetDevice(alice)
	s.False(ok)
	s.True(s.registry.TotalStaked().IsZero())
}

func (s *RegistryTestSuite) TestSlashBelowMinimumDeactivates() {
	s.register(tok(2))
	// leaves 0.5 T staked, below the 1 T minimum
	threeHalves := new(uint256.Int).Div(tok(3), uint256.NewInt(2))
	s.Require().NoError(s.registry.SlashStake(s.env(gridAddr), alice, threeHalves, "underdelivery"))
	s.False(s.registry.IsDeviceRegistered(alice))
	d, ok := s.registry.GetDevice(alice)
	s.Require().True(ok)
	s.False(d.Active)

	// topping back up reactivates
	s.Require().NoError(s.token.Approve(s.env(alice), registryAddr, tok(1)))
	s.Require().NoError(s.registry.IncreaseStake(s.env(alice), tok(1)))
	s.True(s.registry.IsDeviceRegistered(alice))
}

func (s *RegistryTestSuite) TestSlashUnauthorized() {
	s.register(tok(2))
	err := s.registry.SlashStake(s.env(bob), alice, tok(1), "grief")
	s.ErrorIs(err, host.ErrUnauthorized)
	var sawViolation bool
	for _, e := range s.sink.events {
		if e.EventKind() == "security_violation" {
			sawViolation = true
		}
	}
	s.True(sawViolation)
}

func (s *RegistryTestSuite) TestUpdatePerformance() {
	s.register(tok(2))

	s.Require().NoError(s.registry.UpdateDevicePerformance(s.env(gridAddr), alice, 500, true))
	d, _ := s.registry.GetDevice(alice)
	s.Equal(uint32(525), d.Reputation)
	s.Equal(uint64(1), d.EventsParticipated)
	s.Equal(uint64(1), d.EventsSuccessful)
	s.Equal(uint64(500), d.TotalEnergyWh)

	s.Require().NoError(s.registry.UpdateDevicePerformance(s.env(gridAddr), alice, 0, false))
	d, _ = s.registry.GetDevice(alice)
	s.Equal(uint32(475), d.Reputation)
	s.Equal(uint64(2), d.EventsParticipated)
	s.Equal(uint64(1), d.EventsSuccessful)

	err := s.registry.UpdateDevicePerformance(s.env(bob), alice, 100, true)
	s.ErrorIs(err, host.ErrUnauthorized)
}

func (s *RegistryTestSuite) TestReputationClamped() {
	s.register(tok(2))
	for i := 0; i < 30; i++ {
		s.Require().NoError(s.registry.UpdateDevicePerformance(s.env(gridAddr), alice, 100, true))
	}
	rep, _ := s.registry.GetDeviceReputation(alice)
	s.Equal(uint32(1000), rep)

	for i := 0; i < 30; i++ {
		s.Require().NoError(s.registry.UpdateDevicePerformance(s.env(gridAddr), alice, 0, false))
	}
	rep, _ = s.registry.GetDeviceReputation(alice)
	s.Equal(uint32(0), rep)
}

func (s *RegistryTestSuite) TestAvailability() {
	s.register(tok(2))
	s.Equal(uint32(0), s.registry.AvailabilityPermille(alice))

	// align to a day boundary so the loop stays inside one bucket
	s.now = (s.now/86400 + 1) * 86400
	for i := 0; i < 12; i++ {
		s.Require().NoError(s.registry.RecordHeartbeat(s.env(gridAddr), alice))
		s.now += 3600
	}
	s.Equal(uint32(12*1000/24), s.registry.AvailabilityPermille(alice))

	// a device may heartbeat for itself; strangers may not report for it
	s.Require().NoError(s.registry.RecordHeartbeat(s.env(alice), alice))
	s.ErrorIs(s.registry.RecordHeartbeat(s.env(bob), alice), host.ErrUnauthorized)
}

func (s *RegistryTestSuite) TestGovernanceGates() {
	s.ErrorIs(s.registry.SetMinStake(s.env(bob), tok(5)), host.ErrUnauthorized)
	s.Require().NoError(s.registry.SetMinStake(s.env(govAddr), tok(5)))
	s.Equal(tok(5), s.registry.MinStake())

	s.ErrorIs(s.registry.SetReputationThreshold(s.env(deployer), 100), host.ErrUnauthorized)
	s.Require().NoError(s.registry.SetReputationThreshold(s.env(govAddr), 100))
	s.Equal(uint32(100), s.registry.ReputationThreshold())
}

// maliciousToken re-enters the registry from inside the escrow call.
type maliciousToken struct {
	registry *Registry
	inner    error
}

func (m *maliciousToken) TransferFrom(env host.Env, owner, to types.Account, amount *uint256.Int) error {
	m.inner = m.registry.RegisterDevice(host.Env{Caller: owner, Now: env.Now}, meta(), amount)
	return fmt.Errorf("reentrant transfer_from: %w", m.inner)
}

func (m *maliciousToken) Transfer(env host.Env, to types.Account, amount *uint256.Int) error {
	return nil
}

func (m *maliciousToken) Burn(env host.Env, from types.Account, amount *uint256.Int, reason string) error {
	return nil
}

func (m *maliciousToken) BalanceOf(a types.Account) *uint256.Int { return uint256.NewInt(0) }

func TestReentrancyGuard(t *testing.T) {
	mal := &maliciousToken{}
	reg := New(registryAddr, deployer, types.Account{0xf0}, mal, DefaultConfig(tok(1)), host.NopSink{})
	mal.registry = reg

	env := host.Env{Caller: alice, Now: 1_700_000_000}
	err := reg.RegisterDevice(env, meta(), tok(2))

	// the inner reentrant call was rejected by the guard and the outer
	// call failed with it, leaving no device behind
	require.ErrorIs(t, mal.inner, host.ErrReentrancy)
	require.Error(t, err)
	require.False(t, reg.IsDeviceRegistered(alice))
	require.Equal(t, uint32(0), reg.GetDeviceCount())
	require.True(t, reg.TotalStaked().IsZero())
}
