package gridservice

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/powergrid/powergrid-der/x/host"
	"github.com/powergrid/powergrid-der/x/token"
	"github.com/powergrid/powergrid-der/x/types"
)

var (
	admin    = types.Account{0x01}
	gridAddr = types.Account{0x02}
	regAddr  = types.Account{0x03}
	govAddr  = types.Account{0x04}
	tokAddr  = types.Account{0x05}
	operator = types.Account{0x10}
	feed     = types.Account{0x11}
	guardian = types.Account{0x12}
	alice    = types.Account{0xaa}
	bob      = types.Account{0xbb}
)

func tok(n uint64) *uint256.Int {
	one := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(18))
	return new(uint256.Int).Mul(uint256.NewInt(n), one)
}

// milli returns n/1000 whole tokens.
func milli(n uint64) *uint256.Int {
	return new(uint256.Int).Div(tok(n), uint256.NewInt(1000))
}

type perfCall struct {
	account  types.Account
	energyWh uint64
	success  bool
}

type stubRegistry struct {
	devices   map[types.Account]*types.Device
	threshold uint32
	avail     map[types.Account]uint32
	perf      []perfCall
	perfErr   error
	onPerf    func(env host.Env)
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{
		devices: make(map[types.Account]*types.Device),
		avail:   make(map[types.Account]uint32),
	}
}

func (r *stubRegistry) addDevice(a types.Account, capacityWatts uint64, reputation uint32) {
	r.devices[a] = &types.Device{
		Metadata:   types.DeviceMetadata{DeviceType: types.DeviceSmartPlug, CapacityWatts: capacityWatts, Location: "x", Manufacturer: "y"},
		Stake:      tok(2),
		Reputation: reputation,
		Active:     true,
	}
}

func (r *stubRegistry) IsDeviceRegistered(a types.Account) bool {
	d, ok := r.devices[a]
	return ok && d.Active
}

func (r *stubRegistry) GetDevice(a types.Account) (types.Device, bool) {
	d, ok := r.devices[a]
	if !ok {
		return types.Device{}, false
	}
	return *d, true
}

func (r *stubRegistry) ReputationThreshold() uint32 { return r.threshold }

func (r *stubRegistry) UpdateDevicePerformance(env host.Env, account types.Account, energyWh uint64, success bool) error {
	r.perf = append(r.perf, perfCall{account: account, energyWh: energyWh, success: success})
	if r.onPerf != nil {
		r.onPerf(env)
	}
	return r.perfErr
}

func (r *stubRegistry) AvailabilityPermille(a types.Account) uint32 { return r.avail[a] }

type stubGuardians map[types.Account]bool

func (g stubGuardians) IsGuardian(a types.Account) bool { return g[a] }

type recordSink struct {
	events []host.Event
}

func (r *recordSink) Emit(e host.Event) { r.events = append(r.events, e) }

func (r *recordSink) kinds() []string {
	var out []string
	for _, e := range r.events {
		out = append(out, e.EventKind())
	}
	return out
}

type GridServiceTestSuite struct {
	suite.Suite
	sink  *recordSink
	token *token.Token
	reg   *stubRegistry
	grid  *GridService
	now   uint64
}

func TestGridService(t *testing.T) {
	suite.Run(t, new(GridServiceTestSuite))
}

func (s *GridServiceTestSuite) SetupTest() {
	s.sink = &recordSink{}
	s.now = 1_700_000_000
	s.token = token.New(admin, token.Config{
		Name: "PowerGrid Token", Symbol: "PWGD", Decimals: 18,
		InitialSupply: tok(1_000_000),
		InitialHolder: alice,
	}, host.NopSink{})
	s.reg = newStubRegistry()
	s.reg.addDevice(alice, 2000, 500)

	s.grid = New(gridAddr, admin, tokAddr, s.token, regAddr, s.reg, DefaultConfig(tok(1)), s.sink)
	s.Require().NoError(s.token.AddMinter(host.Env{Caller: admin, Now: s.now}, gridAddr))
	s.Require().NoError(s.grid.SetAuthorizedCaller(s.env(admin), operator, true))
	s.Require().NoError(s.grid.SetDataFeed(s.env(admin), feed, true))
	s.Require().NoError(s.grid.SetGovernanceAddress(s.env(admin), govAddr, stubGuardians{guardian: true}))
}

func (s *GridServiceTestSuite) env(caller types.Account) host.Env {
	return host.Env{Caller: caller, Now: s.now}
}

func (s *GridServiceTestSuite) createEvent() uint64 {
	id, err := s.grid.CreateGridEvent(s.env(operator), types.EventDemandResponse, 60, tok(1), 100, 2)
	s.Require().NoError(err)
	return id
}

func (s *GridServiceTestSuite) TestCreateEventValidation() {
	_, err := s.grid.CreateGridEvent(s.env(bob), types.EventDemandResponse, 60, tok(1), 100, 2)
	s.ErrorIs(err, host.ErrUnauthorized)
	s.Contains(s.sink.kinds(), "security_violation")

	_, err = s.grid.CreateGridEvent(s.env(operator), "windstorm", 60, tok(1), 100, 2)
	s.ErrorIs(err, host.ErrInvalidArgument)
	_, err = s.grid.CreateGridEvent(s.env(operator), types.EventDemandResponse, 0, tok(1), 100, 2)
	s.ErrorIs(err, host.ErrInvalidArgument)
	_, err = s.grid.CreateGridEvent(s.env(operator), types.EventDemandResponse, 60, tok(1), 0, 2)
	s.ErrorIs(err, host.ErrInvalidArgument)
	_, err = s.grid.CreateGridEvent(s.env(operator), types.EventDemandResponse, 60, tok(1), 100, 6)
	s.ErrorIs(err, host.ErrInvalidArgument)
	_, err = s.grid.CreateGridEvent(s.env(operator), types.EventDemandResponse, 60, uint256.NewInt(0), 100, 2)
	s.ErrorIs(err, host.ErrZeroAmount)

	id := s.createEvent()
	s.Equal(uint64(1), id)
	s.Equal(uint64(2), s.createEvent())

	ev, ok := s.grid.GetEvent(1)
	s.Require().True(ok)
	s.Equal(types.EventActive, ev.State)
	s.Equal(s.now+3600, ev.ExpectedEnd)
	s.Equal(ev.ExpectedEnd+24*3600, ev.VerificationDeadline)
	s.Len(s.grid.GetActiveEvents(), 2)
}

func (s *GridServiceTestSuite) TestHappyPathReward() {
	id := s.createEvent()
	s.Require().NoError(s.grid.ParticipateInEvent(s.env(alice), id, 500))

	p, ok := s.grid.GetParticipation(id, alice)
	s.Require().True(ok)
	s.Equal(types.ParticipationCommitted, p.State)
	s.Equal(uint64(500), p.CommittedWh)

	s.now += 3600
	reward, err := s.grid.VerifyAndDistributeRewards(s.env(operator), id, alice, 500)
	s.Require().NoError(err)

	// 500 Wh at 1 T/kWh with a 20% efficiency bonus and neutral multipliers
	s.Equal(milli(600), reward)
	wantBalance := new(uint256.Int).Add(tok(1_000_000), milli(600))
	s.Equal(wantBalance, s.token.BalanceOf(alice))

	p, _ = s.grid.GetParticipation(id, alice)
	s.Equal(types.ParticipationRewarded, p.State)
	s.Equal(milli(600), p.RewardMinted)
	s.Equal(uint64(500), p.ActualWh)

	s.Require().Len(s.reg.perf, 1)
	s.Equal(perfCall{account: alice, energyWh: 500, success: true}, s.reg.perf[0])

	totals := s.grid.GetTotals()
	s.Equal(uint64(500), totals.EnergyWh)
	s.Equal(milli(600), totals.RewardsMinted)

	// settled participations cannot be paid twice
	_, err = s.grid.VerifyAndDistributeRewards(s.env(operator), id, alice, 500)
	s.ErrorIs(err, host.ErrInvalidState)
}

func (s *GridServiceTestSuite) TestDoubleParticipation() {
	id := s.createEvent()
	s.Require().NoError(s.grid.ParticipateInEvent(s.env(alice), id, 500))
	err := s.grid.ParticipateInEvent(s.env(alice), id, 100)
	s.ErrorIs(err, host.ErrAlreadyParticipated)
	p, _ := s.grid.GetParticipation(id, alice)
	s.Equal(uint64(500), p.CommittedWh)
}

func (s *GridServiceTestSuite) TestParticipationEligibility() {
	id := s.createEvent()

	s.ErrorIs(s.grid.ParticipateInEvent(s.env(bob), id, 100), host.ErrUnauthorized)
	s.ErrorIs(s.grid.ParticipateInEvent(s.env(alice), id, 0), host.ErrZeroAmount)

	// 2000 W for 60 min allows at most 2000 Wh
	s.ErrorIs(s.grid.ParticipateInEvent(s.env(alice), id, 2001), host.ErrCapExceeded)

	s.reg.threshold = 600
	s.ErrorIs(s.grid.ParticipateInEvent(s.env(alice), id, 100), host.ErrBelowMinimum)
	s.reg.threshold = 0

	s.now += 3601
	s.ErrorIs(s.grid.ParticipateInEvent(s.env(alice), id, 100), host.ErrWindowClosed)
}

func (s *GridServiceTestSuite) TestVerificationWindow() {
	id := s.createEvent()
	s.Require().NoError(s.grid.ParticipateInEvent(s.env(alice), id, 500))

	err := s.grid.VerifyParticipation(s.env(operator), id, alice, 500)
	s.ErrorIs(err, host.ErrWindowNotOpen)

	s.now += 3600 + 24*3600 + 1
	err = s.grid.VerifyParticipation(s.env(operator), id, alice, 500)
	s.ErrorIs(err, host.ErrWindowClosed)

	p, _ := s.grid.GetParticipation(id, alice)
	s.Equal(types.ParticipationCommitted, p.State)
}

func (s *GridServiceTestSuite) TestRejectedBelowRatio() {
	id := s.createEvent()
	s.Require().NoError(s.grid.ParticipateInEvent(s.env(alice), id, 500))
	s.now += 3600

	// 100 of 500 Wh is below the 50% floor
	reward, err := s.grid.VerifyAndDistributeRewards(s.env(operator), id, alice, 100)
	s.Require().NoError(err)
	s.True(reward.IsZero())

	p, _ := s.grid.GetParticipation(id, alice)
	s.Equal(types.ParticipationRejected, p.State)
	s.Equal(tok(1_000_000), s.token.BalanceOf(alice))
	s.Require().Len(s.reg.perf, 1)
	s.False(s.reg.perf[0].success)
}

func (s *GridServiceTestSuite) TestVerifiedWithoutBonus() {
	id := s.createEvent()
	s.Require().NoError(s.grid.ParticipateInEvent(s.env(alice), id, 500))
	s.now += 3600

	// 80% delivery verifies but earns no efficiency bonus
	reward, err := s.grid.VerifyAndDistributeRewards(s.env(operator), id, alice, 400)
	s.Require().NoError(err)
	s.Equal(milli(400), reward)
}

func (s *GridServiceTestSuite) TestCompleteIdempotent() {
	id := s.createEvent()
	s.ErrorIs(s.grid.CompleteGridEvent(s.env(operator), id), host.ErrWindowNotOpen)

	s.now += 3600
	s.Require().NoError(s.grid.CompleteGridEvent(s.env(operator), id))
	ev, _ := s.grid.GetEvent(id)
	s.Equal(types.EventCompleted, ev.State)

	countBefore := len(s.sink.events)
	s.Require().NoError(s.grid.CompleteGridEvent(s.env(operator), id))
	s.Len(s.sink.events, countBefore)
}

func (s *GridServiceTestSuite) TestCompleteRequiresAuthorization() {
	id := s.createEvent()
	s.now += 3600

	s.ErrorIs(s.grid.CompleteGridEvent(s.env(bob), id), host.ErrUnauthorized)
	s.Contains(s.sink.kinds(), "security_violation")
	ev, _ := s.grid.GetEvent(id)
	s.Equal(types.EventActive, ev.State)

	// data feeds complete through signal ingestion without the operator role
	s.Require().NoError(s.grid.IngestGridSignal(s.env(feed), types.GridSignal{CompleteEventID: &id}))
	ev, _ = s.grid.GetEvent(id)
	s.Equal(types.EventCompleted, ev.State)
}

func (s *GridServiceTestSuite) TestRewardSurvivesCounterFailure() {
	id := s.createEvent()
	s.Require().NoError(s.grid.ParticipateInEvent(s.env(alice), id, 500))
	s.now += 3600

	s.reg.perfErr = host.ErrUnauthorized
	reward, err := s.grid.VerifyAndDistributeRewards(s.env(operator), id, alice, 500)
	s.Require().NoError(err)
	s.Equal(milli(600), reward)

	p, _ := s.grid.GetParticipation(id, alice)
	s.Equal(types.ParticipationRewarded, p.State)
	wantBalance := new(uint256.Int).Add(tok(1_000_000), milli(600))
	s.Equal(wantBalance, s.token.BalanceOf(alice))
	s.Contains(s.sink.kinds(), "reward_distributed")
}

func (s *GridServiceTestSuite) TestVerifyRejectionHoldsGuard() {
	id := s.createEvent()
	s.Require().NoError(s.grid.ParticipateInEvent(s.env(alice), id, 500))
	s.now += 3600

	var reentry error
	s.reg.onPerf = func(host.Env) {
		reentry = s.grid.VerifyParticipation(s.env(operator), id, alice, 500)
	}
	// 100 of 500 Wh rejects and settles on the registry
	s.Require().NoError(s.grid.VerifyParticipation(s.env(operator), id, alice, 100))
	s.ErrorIs(reentry, host.ErrReentrancy)
}

func (s *GridServiceTestSuite) TestCancelRejectsParticipations() {
	id := s.createEvent()
	s.Require().NoError(s.grid.ParticipateInEvent(s.env(alice), id, 500))

	s.ErrorIs(s.grid.CancelGridEvent(s.env(operator), id, "nope"), host.ErrUnauthorized)

	s.Require().NoError(s.grid.CancelGridEvent(s.env(guardian), id, "false alarm"))
	ev, _ := s.grid.GetEvent(id)
	s.Equal(types.EventCancelled, ev.State)
	p, _ := s.grid.GetParticipation(id, alice)
	s.Equal(types.ParticipationRejected, p.State)

	s.ErrorIs(s.grid.CancelGridEvent(s.env(govAddr), id, "again"), host.ErrInvalidState)
}

func (s *GridServiceTestSuite) TestPauseBlocks() {
	s.Require().NoError(s.grid.SetPaused(s.env(admin), true))
	_, err := s.grid.CreateGridEvent(s.env(operator), types.EventDemandResponse, 60, tok(1), 100, 2)
	s.ErrorIs(err, host.ErrPaused)

	s.Require().NoError(s.grid.SetPaused(s.env(govAddr), false))
	id := s.createEvent()
	s.Require().NoError(s.grid.SetPaused(s.env(admin), true))
	s.ErrorIs(s.grid.ParticipateInEvent(s.env(alice), id, 100), host.ErrPaused)
}

func (s *GridServiceTestSuite) TestSignalStartAndComplete() {
	signal := types.GridSignal{
		EventType:         types.EventEmergency,
		DurationMinutes:   30,
		TargetReductionKW: 500,
		Severity:          5,
		Start:             true,
	}
	s.ErrorIs(s.grid.IngestGridSignal(s.env(bob), signal), host.ErrUnauthorized)
	s.Require().NoError(s.grid.IngestGridSignal(s.env(feed), signal))

	ev, ok := s.grid.GetEvent(1)
	s.Require().True(ok)
	s.Equal(types.EventEmergency, ev.EventType)
	s.Equal(tok(5), ev.BaseCompensationRate)

	s.now += 1800
	one := uint64(1)
	s.Require().NoError(s.grid.IngestGridSignal(s.env(feed), types.GridSignal{CompleteEventID: &one}))
	ev, _ = s.grid.GetEvent(1)
	s.Equal(types.EventCompleted, ev.State)
}

func (s *GridServiceTestSuite) TestAutoTriggerRules() {
	minLoad := uint32(9000)
	template := types.RuleTemplate{
		EventType:         types.EventPeakShaving,
		DurationMinutes:   45,
		TargetReductionKW: 200,
		Severity:          3,
	}
	_, err := s.grid.AddTriggerRule(s.env(operator), types.RulePredicate{MinLoadRatioBP: &minLoad}, template, 7200)
	s.ErrorIs(err, host.ErrUnauthorized)

	ruleID, err := s.grid.AddTriggerRule(s.env(govAddr), types.RulePredicate{MinLoadRatioBP: &minLoad}, template, 7200)
	s.Require().NoError(err)
	s.Equal(uint64(1), ruleID)

	calm := types.GridSignal{Condition: &types.GridCondition{LoadMW: 50, CapacityMW: 100}}
	s.Require().NoError(s.grid.IngestGridSignal(s.env(feed), calm))
	s.Empty(s.grid.GetActiveEvents())

	stressed := types.GridSignal{Condition: &types.GridCondition{LoadMW: 95, CapacityMW: 100}}
	s.Require().NoError(s.grid.IngestGridSignal(s.env(feed), stressed))
	events := s.grid.GetActiveEvents()
	s.Require().Len(events, 1)
	s.Equal(types.EventPeakShaving, events[0].EventType)
	s.Equal(tok(3), events[0].BaseCompensationRate)
	s.Contains(s.sink.kinds(), "auto_trigger_fired")

	// cooldown holds the rule down
	s.now += 3600
	s.Require().NoError(s.grid.IngestGridSignal(s.env(feed), stressed))
	s.Len(s.grid.GetActiveEvents(), 1)

	s.now += 3600
	s.Require().NoError(s.grid.IngestGridSignal(s.env(feed), stressed))
	s.Len(s.grid.GetActiveEvents(), 2)

	s.Require().NoError(s.grid.RemoveTriggerRule(s.env(govAddr), ruleID))
	s.Empty(s.grid.GetTriggerRules())
}

func (s *GridServiceTestSuite) TestBatchDistribution() {
	s.reg.addDevice(bob, 2000, 500)
	id := s.createEvent()
	s.Require().NoError(s.grid.ParticipateInEvent(s.env(alice), id, 500))
	s.Require().NoError(s.grid.ParticipateInEvent(s.env(bob), id, 400))
	s.now += 3600

	err := s.grid.DistributeRewardsBatch(s.env(operator), id, []types.Account{alice, bob}, []uint64{500})
	s.ErrorIs(err, host.ErrInvalidArgument)

	s.Require().NoError(s.grid.DistributeRewardsBatch(s.env(operator), id, []types.Account{alice, bob}, []uint64{500, 400}))
	pa, _ := s.grid.GetParticipation(id, alice)
	pb, _ := s.grid.GetParticipation(id, bob)
	s.Equal(types.ParticipationRewarded, pa.State)
	s.Equal(types.ParticipationRewarded, pb.State)

	parts := s.grid.GetEventParticipations(id)
	s.Require().Len(parts, 2)
	s.Equal(alice, parts[0].Account)
	s.Equal(bob, parts[1].Account)
}

func (s *GridServiceTestSuite) TestReputationWeightedReward() {
	// perfect history on every flexibility component
	s.reg.devices[alice].Reputation = 1000
	s.reg.avail[alice] = 1000
	s.grid.flex[alice] = &flexStats{total: 4, successful: 4, hasAck: true}
	s.Equal(uint32(1000), s.grid.FlexibilityScore(alice))

	id := s.createEvent()
	s.Require().NoError(s.grid.ParticipateInEvent(s.env(alice), id, 1000))
	s.now += 3600

	reward, err := s.grid.VerifyAndDistributeRewards(s.env(operator), id, alice, 1000)
	s.Require().NoError(err)
	// 1 T base, 1.2 T with bonus, x1.2 reputation, x1.5 flexibility
	s.Equal(milli(2160), reward)
}

func TestRewardMath(t *testing.T) {
	// neutral multipliers, full delivery
	r, err := computeReward(tok(1), 500, 500, 500, 500)
	require.NoError(t, err)
	require.Equal(t, new(uint256.Int).Div(tok(6), uint256.NewInt(10)), r)

	// under-delivery loses the bonus only
	r, err = computeReward(tok(1), 400, 500, 500, 500)
	require.NoError(t, err)
	require.Equal(t, new(uint256.Int).Div(tok(4), uint256.NewInt(10)), r)

	// multiplier extremes
	require.Equal(t, uint64(800), reputationMultiplierBP(0))
	require.Equal(t, uint64(1000), reputationMultiplierBP(500))
	require.Equal(t, uint64(1200), reputationMultiplierBP(1000))
	require.Equal(t, uint64(5000), flexibilityMultiplierBP(0))
	require.Equal(t, uint64(10000), flexibilityMultiplierBP(500))
	require.Equal(t, uint64(15000), flexibilityMultiplierBP(1000))

	// zero actual pays zero
	r, err = computeReward(tok(1), 0, 500, 500, 500)
	require.NoError(t, err)
	require.True(t, r.IsZero())
}
