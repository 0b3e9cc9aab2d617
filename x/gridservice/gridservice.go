// Package gridservice implements the grid-event engine: event lifecycle,
// participation, verification, deterministic reward distribution, and
// auto-trigger rules over reported grid conditions. Rewards are minted on the
// token contract; performance counters flow back to the registry. Both hops
// run under the reentrancy guard.
package gridservice

import (
	"fmt"
	"sort"

	"github.com/holiman/uint256"

	"github.com/powergrid/powergrid-der/x/host"
	"github.com/powergrid/powergrid-der/x/types"
)

// TokenCaller is the capability set needed on the token contract. The grid
// service must hold the minter role for reward distribution to succeed.
type TokenCaller interface {
	Mint(env host.Env, to types.Account, amount *uint256.Int, reason string) error
}

// RegistryCaller is the capability set needed on the registry contract.
type RegistryCaller interface {
	IsDeviceRegistered(a types.Account) bool
	GetDevice(a types.Account) (types.Device, bool)
	ReputationThreshold() uint32
	UpdateDevicePerformance(env host.Env, account types.Account, energyWh uint64, success bool) error
	AvailabilityPermille(a types.Account) uint32
}

// GuardianSource answers whether an account holds the emergency guardian
// role. Bound to the governance contract after deploy.
type GuardianSource interface {
	IsGuardian(a types.Account) bool
}

// Config pins event bounds and scoring thresholds at deploy. The default
// compensation rate stays governance-mutable afterwards.
type Config struct {
	DefaultCompensationRate *uint256.Int
	// RateFloor rejects events priced below it. Nil or zero disables the
	// floor.
	RateFloor            *uint256.Int
	MaxDurationMinutes   uint64
	MaxTargetReductionKW uint64
	// VerificationWindowSecs bounds how long after an event's expected end
	// verification stays open.
	VerificationWindowSecs uint64
	// MinVerifyRatioBP is the minimum actual/committed ratio in basis points
	// below which a verification rejects instead.
	MinVerifyRatioBP uint32
	MaxRules         int
	// ResponseT1Secs and ResponseT2Secs bound the response-time flexibility
	// component: full score at or under T1, zero at or over T2.
	ResponseT1Secs uint64
	ResponseT2Secs uint64
}

// DefaultConfig returns the deploy defaults used by the devnet.
func DefaultConfig(defaultRate *uint256.Int) Config {
	return Config{
		DefaultCompensationRate: defaultRate,
		MaxDurationMinutes:      24 * 60,
		MaxTargetReductionKW:    1_000_000,
		VerificationWindowSecs:  24 * 3600,
		MinVerifyRatioBP:        5000,
		MaxRules:                32,
		ResponseT1Secs:          300,
		ResponseT2Secs:          3600,
	}
}

// Totals aggregates protocol-wide counters.
type Totals struct {
	Events         uint64       `json:"events"`
	Participations uint64       `json:"participations"`
	EnergyWh       uint64       `json:"energy_wh"`
	RewardsMinted  *uint256.Int `json:"rewards_minted"`
}

// GridService is the grid-event contract state.
type GridService struct {
	addr  types.Account
	owner types.Account
	sink  host.Sink
	guard host.Guard

	tokenAddr    types.Account
	token        TokenCaller
	registryAddr types.Account
	registry     RegistryCaller

	governance *types.Account
	guardians  GuardianSource
	authorized map[types.Account]bool
	dataFeeds  map[types.Account]bool
	paused     bool

	cfg         Config
	defaultRate *uint256.Int

	nextEventID uint64
	events      map[uint64]*types.GridEvent
	parts       map[uint64]map[types.Account]*types.Participation
	partOrder   map[uint64][]types.Account

	condition  *types.GridCondition
	rules      []*types.TriggerRule
	nextRuleID uint64

	flex map[types.Account]*flexStats

	totalParticipations uint64
	totalEnergyWh       uint64
	totalRewards        *uint256.Int
}

// New deploys the grid service bound to the token and registry contracts.
func New(addr, owner, tokenAddr types.Account, token TokenCaller, registryAddr types.Account, registry RegistryCaller, cfg Config, sink host.Sink) *GridService {
	if sink == nil {
		sink = host.NopSink{}
	}
	return &GridService{
		addr:         addr,
		owner:        owner,
		sink:         sink,
		tokenAddr:    tokenAddr,
		token:        token,
		registryAddr: registryAddr,
		registry:     registry,
		authorized:   make(map[types.Account]bool),
		dataFeeds:    make(map[types.Account]bool),
		cfg:          cfg,
		defaultRate:  clone(cfg.DefaultCompensationRate),
		events:       make(map[uint64]*types.GridEvent),
		parts:        make(map[uint64]map[types.Account]*types.Participation),
		partOrder:    make(map[uint64][]types.Account),
		flex:         make(map[types.Account]*flexStats),
		totalRewards: uint256.NewInt(0),
	}
}

// ---------------------------------------------------------------------------
// Queries

func (g *GridService) Address() types.Account { return g.addr }
func (g *GridService) Paused() bool           { return g.paused }

func (g *GridService) DefaultCompensationRate() *uint256.Int { return clone(g.defaultRate) }

// GetEvent returns a copy of the event record.
func (g *GridService) GetEvent(id uint64) (types.GridEvent, bool) {
	ev, ok := g.events[id]
	if !ok {
		return types.GridEvent{}, false
	}
	out := *ev
	out.BaseCompensationRate = clone(ev.BaseCompensationRate)
	return out, true
}

// GetActiveEvents returns the active events ordered by id.
func (g *GridService) GetActiveEvents() []types.GridEvent {
	var out []types.GridEvent
	for _, ev := range g.events {
		if ev.State == types.EventActive {
			cp := *ev
			cp.BaseCompensationRate = clone(ev.BaseCompensationRate)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetParticipation returns a copy of one participation record.
func (g *GridService) GetParticipation(eventID uint64, a types.Account) (types.Participation, bool) {
	p, ok := g.parts[eventID][a]
	if !ok {
		return types.Participation{}, false
	}
	out := *p
	out.RewardMinted = clone(p.RewardMinted)
	return out, true
}

// GetEventParticipations returns the event's participations in commit order.
func (g *GridService) GetEventParticipations(eventID uint64) []types.Participation {
	accounts := g.partOrder[eventID]
	out := make([]types.Participation, 0, len(accounts))
	for _, a := range accounts {
		p := g.parts[eventID][a]
		cp := *p
		cp.RewardMinted = clone(p.RewardMinted)
		out = append(out, cp)
	}
	return out
}

// GetCondition returns the last reported grid condition.
func (g *GridService) GetCondition() (types.GridCondition, bool) {
	if g.condition == nil {
		return types.GridCondition{}, false
	}
	return *g.condition, true
}

// FlexibilityScore returns the account's current composite score in [0,1000].
func (g *GridService) FlexibilityScore(a types.Account) uint32 {
	return g.flexibilityScore(a)
}

func (g *GridService) GetTotals() Totals {
	return Totals{
		Events:         g.nextEventID,
		Participations: g.totalParticipations,
		EnergyWh:       g.totalEnergyWh,
		RewardsMinted:  clone(g.totalRewards),
	}
}

func (g *GridService) IsAuthorizedCaller(a types.Account) bool { return g.authorized[a] }
func (g *GridService) IsDataFeed(a types.Account) bool         { return g.dataFeeds[a] }

// ---------------------------------------------------------------------------
// Event lifecycle

// CreateGridEvent opens a new active event. Authorized callers or governance.
func (g *GridService) CreateGridEvent(env host.Env, eventType types.GridEventType, durationMinutes uint64, rate *uint256.Int, targetReductionKW uint64, severity uint8) (uint64, error) {
	if !g.isAuthorizedOrGovernance(env.Caller) {
		g.violation(env, "create_grid_event")
		return 0, host.ErrUnauthorized
	}
	return g.createEvent(env, eventType, durationMinutes, rate, targetReductionKW, severity)
}

func (g *GridService) createEvent(env host.Env, eventType types.GridEventType, durationMinutes uint64, rate *uint256.Int, targetReductionKW uint64, severity uint8) (uint64, error) {
	if g.paused {
		return 0, host.ErrPaused
	}
	if !eventType.Valid() {
		return 0, fmt.Errorf("event type %q: %w", eventType, host.ErrInvalidArgument)
	}
	if durationMinutes == 0 || durationMinutes > g.cfg.MaxDurationMinutes {
		return 0, fmt.Errorf("duration %d min: %w", durationMinutes, host.ErrInvalidArgument)
	}
	if targetReductionKW == 0 || targetReductionKW > g.cfg.MaxTargetReductionKW {
		return 0, fmt.Errorf("target %d kW: %w", targetReductionKW, host.ErrInvalidArgument)
	}
	if severity < 1 || severity > 5 {
		return 0, fmt.Errorf("severity %d: %w", severity, host.ErrInvalidArgument)
	}
	if rate == nil || rate.IsZero() {
		return 0, host.ErrZeroAmount
	}
	if g.cfg.RateFloor != nil && rate.Lt(g.cfg.RateFloor) {
		return 0, fmt.Errorf("rate %s below floor %s: %w", rate, g.cfg.RateFloor, host.ErrBelowMinimum)
	}

	g.nextEventID++
	id := g.nextEventID
	end := env.Now + durationMinutes*60
	ev := &types.GridEvent{
		ID:                   id,
		EventType:            eventType,
		State:                types.EventActive,
		CreatedAt:            env.Now,
		DurationMinutes:      durationMinutes,
		TargetReductionKW:    targetReductionKW,
		BaseCompensationRate: clone(rate),
		Severity:             severity,
		ExpectedEnd:          end,
		VerificationDeadline: end + g.cfg.VerificationWindowSecs,
	}
	g.events[id] = ev
	g.parts[id] = make(map[types.Account]*types.Participation)

	g.sink.Emit(GridEventCreated{
		ID:                   id,
		EventType:            eventType,
		DurationMinutes:      durationMinutes,
		TargetReductionKW:    targetReductionKW,
		BaseCompensationRate: clone(rate),
		Severity:             severity,
	})
	return id, nil
}

// CompleteGridEvent transitions Active to Completed once the window has
// elapsed. Authorized callers or governance. Idempotent: completing a
// completed event is a no-op.
func (g *GridService) CompleteGridEvent(env host.Env, eventID uint64) error {
	if !g.isAuthorizedOrGovernance(env.Caller) {
		g.violation(env, "complete_grid_event")
		return host.ErrUnauthorized
	}
	return g.completeEvent(env, eventID)
}

func (g *GridService) completeEvent(env host.Env, eventID uint64) error {
	ev, ok := g.events[eventID]
	if !ok {
		return fmt.Errorf("event %d: %w", eventID, host.ErrNotFound)
	}
	switch ev.State {
	case types.EventCompleted:
		return nil
	case types.EventActive:
	default:
		return fmt.Errorf("event %d is %s: %w", eventID, ev.State, host.ErrInvalidState)
	}
	if env.Now < ev.ExpectedEnd {
		return fmt.Errorf("event %d ends at %d: %w", eventID, ev.ExpectedEnd, host.ErrWindowNotOpen)
	}
	ev.State = types.EventCompleted
	g.sink.Emit(GridEventCompleted{ID: eventID, TotalParticipants: ev.TotalParticipants, TotalEnergyWh: ev.TotalEnergyWh})
	return nil
}

// CancelGridEvent aborts an event. Governance or an emergency guardian.
// Every committed participation is rejected with no reward.
func (g *GridService) CancelGridEvent(env host.Env, eventID uint64, reason string) error {
	if !g.isGovernanceOrGuardian(env.Caller) {
		g.violation(env, "cancel_grid_event")
		return host.ErrUnauthorized
	}
	ev, ok := g.events[eventID]
	if !ok {
		return fmt.Errorf("event %d: %w", eventID, host.ErrNotFound)
	}
	if ev.State != types.EventActive {
		return fmt.Errorf("event %d is %s: %w", eventID, ev.State, host.ErrInvalidState)
	}
	ev.State = types.EventCancelled
	for _, a := range g.partOrder[eventID] {
		p := g.parts[eventID][a]
		if p.State != types.ParticipationCommitted {
			continue
		}
		p.State = types.ParticipationRejected
		g.sink.Emit(ParticipationRejected{EventID: eventID, Account: a, ActualWh: 0, Reason: "event cancelled"})
	}
	g.sink.Emit(GridEventCancelled{ID: eventID, Reason: reason})
	return nil
}

// ---------------------------------------------------------------------------
// Participation

// ParticipateInEvent commits the caller's device to an active event. The
// device must be registered and active, meet the registry reputation
// threshold, and commit no more energy than its capacity over the window.
func (g *GridService) ParticipateInEvent(env host.Env, eventID uint64, committedWh uint64) error {
	if g.paused {
		return host.ErrPaused
	}
	ev, ok := g.events[eventID]
	if !ok {
		return fmt.Errorf("event %d: %w", eventID, host.ErrNotFound)
	}
	if ev.State != types.EventActive {
		return fmt.Errorf("event %d is %s: %w", eventID, ev.State, host.ErrInvalidState)
	}
	if env.Now < ev.CreatedAt || env.Now > ev.ExpectedEnd {
		return fmt.Errorf("event %d window: %w", eventID, host.ErrWindowClosed)
	}
	if _, exists := g.parts[eventID][env.Caller]; exists {
		return host.ErrAlreadyParticipated
	}
	if committedWh == 0 {
		return fmt.Errorf("committed energy: %w", host.ErrZeroAmount)
	}
	if !g.registry.IsDeviceRegistered(env.Caller) {
		return fmt.Errorf("device not registered: %w", host.ErrUnauthorized)
	}
	dev, _ := g.registry.GetDevice(env.Caller)
	if dev.Reputation < g.registry.ReputationThreshold() {
		return fmt.Errorf("reputation %d below threshold %d: %w", dev.Reputation, g.registry.ReputationThreshold(), host.ErrBelowMinimum)
	}
	maxWh := new(uint256.Int).Mul(uint256.NewInt(dev.Metadata.CapacityWatts), uint256.NewInt(ev.DurationMinutes))
	maxWh.Div(maxWh, uint256.NewInt(60))
	if !maxWh.IsZero() && uint256.NewInt(committedWh).Gt(maxWh) {
		return fmt.Errorf("committed %d Wh exceeds device capacity %s Wh: %w", committedWh, maxWh, host.ErrCapExceeded)
	}

	g.parts[eventID][env.Caller] = &types.Participation{
		EventID:     eventID,
		Account:     env.Caller,
		State:       types.ParticipationCommitted,
		CommittedWh: committedWh,
		CommittedAt: env.Now,
	}
	g.partOrder[eventID] = append(g.partOrder[eventID], env.Caller)
	ev.TotalParticipants++
	g.totalParticipations++

	g.sink.Emit(ParticipationRecorded{EventID: eventID, Account: env.Caller, CommittedWh: committedWh})
	return nil
}

// VerifyParticipation records the measured contribution for a committed
// participation. Authorized callers only, after the event window and before
// the verification deadline. A reading of zero or below the minimum ratio of
// the commitment rejects the participation instead.
func (g *GridService) VerifyParticipation(env host.Env, eventID uint64, account types.Account, actualWh uint64) error {
	if !g.isAuthorizedOrGovernance(env.Caller) {
		g.violation(env, "verify_participation")
		return host.ErrUnauthorized
	}
	// the rejection path calls out to the registry
	if err := g.guard.Enter(); err != nil {
		return err
	}
	defer g.guard.Exit()
	_, err := g.verify(env, eventID, account, actualWh)
	return err
}

// verify applies the verification transition and returns the resulting
// participation. The bool path to Rejected also records the failure on the
// registry.
func (g *GridService) verify(env host.Env, eventID uint64, account types.Account, actualWh uint64) (*types.Participation, error) {
	ev, ok := g.events[eventID]
	if !ok {
		return nil, fmt.Errorf("event %d: %w", eventID, host.ErrNotFound)
	}
	if ev.State == types.EventCancelled {
		return nil, fmt.Errorf("event %d cancelled: %w", eventID, host.ErrInvalidState)
	}
	if env.Now < ev.ExpectedEnd {
		return nil, fmt.Errorf("event %d ends at %d: %w", eventID, ev.ExpectedEnd, host.ErrWindowNotOpen)
	}
	if env.Now > ev.VerificationDeadline {
		return nil, fmt.Errorf("verification deadline %d passed: %w", ev.VerificationDeadline, host.ErrWindowClosed)
	}
	p, ok := g.parts[eventID][account]
	if !ok {
		return nil, fmt.Errorf("participation: %w", host.ErrNotFound)
	}
	if p.State != types.ParticipationCommitted {
		return nil, fmt.Errorf("participation is %s: %w", p.State, host.ErrInvalidState)
	}

	p.ActualWh = actualWh
	p.VerifiedAt = env.Now
	threshold := new(uint256.Int).Mul(uint256.NewInt(p.CommittedWh), uint256.NewInt(uint64(g.cfg.MinVerifyRatioBP)))
	threshold.Div(threshold, uint256.NewInt(10000))
	if actualWh == 0 || uint256.NewInt(actualWh).Lt(threshold) {
		p.State = types.ParticipationRejected
		g.sink.Emit(ParticipationRejected{EventID: eventID, Account: account, ActualWh: actualWh, Reason: "below minimum delivery ratio"})
		g.settleRejected(env, account, p)
		return p, nil
	}
	p.State = types.ParticipationVerified
	g.sink.Emit(ParticipationVerified{EventID: eventID, Account: account, ActualWh: actualWh})
	return p, nil
}

func (g *GridService) settleRejected(env host.Env, account types.Account, p *types.Participation) {
	var capacity uint64
	if dev, ok := g.registry.GetDevice(account); ok {
		capacity = dev.Metadata.CapacityWatts
	}
	g.recordOutcome(account, p, capacity, false)
	// counter update failure is not fatal for a rejection
	_ = g.registry.UpdateDevicePerformance(env.At(g.addr), account, p.ActualWh, false)
}

// VerifyAndDistributeRewards verifies a committed participation (if not
// already verified) and mints its reward. The participation moves to
// Rewarded before the mint; a failed mint rolls it back to Verified so the
// call can be retried.
func (g *GridService) VerifyAndDistributeRewards(env host.Env, eventID uint64, account types.Account, actualWh uint64) (*uint256.Int, error) {
	if !g.isAuthorizedOrGovernance(env.Caller) {
		g.violation(env, "verify_and_distribute_rewards")
		return nil, host.ErrUnauthorized
	}
	if err := g.guard.Enter(); err != nil {
		return nil, err
	}
	defer g.guard.Exit()
	return g.distribute(env, eventID, account, actualWh)
}

// DistributeRewardsBatch settles an explicit list of participations. Items
// settle one at a time; the first failure aborts the remainder and reports
// the failing account.
func (g *GridService) DistributeRewardsBatch(env host.Env, eventID uint64, accounts []types.Account, actuals []uint64) error {
	if !g.isAuthorizedOrGovernance(env.Caller) {
		g.violation(env, "distribute_rewards_batch")
		return host.ErrUnauthorized
	}
	if len(accounts) != len(actuals) {
		return fmt.Errorf("accounts/actuals length mismatch: %w", host.ErrInvalidArgument)
	}
	if err := g.guard.Enter(); err != nil {
		return err
	}
	defer g.guard.Exit()

	for i, a := range accounts {
		if _, err := g.distribute(env, eventID, a, actuals[i]); err != nil {
			return fmt.Errorf("account %s: %w", a, err)
		}
	}
	return nil
}

func (g *GridService) distribute(env host.Env, eventID uint64, account types.Account, actualWh uint64) (*uint256.Int, error) {
	p, ok := g.parts[eventID][account]
	if !ok {
		return nil, fmt.Errorf("participation: %w", host.ErrNotFound)
	}
	if p.State == types.ParticipationCommitted {
		var err error
		p, err = g.verify(env, eventID, account, actualWh)
		if err != nil {
			return nil, err
		}
		if p.State == types.ParticipationRejected {
			return uint256.NewInt(0), nil
		}
	}
	if p.State != types.ParticipationVerified {
		return nil, fmt.Errorf("participation is %s: %w", p.State, host.ErrInvalidState)
	}

	ev := g.events[eventID]
	dev, ok := g.registry.GetDevice(account)
	if !ok {
		return nil, fmt.Errorf("device: %w", host.ErrNotFound)
	}
	flex := g.flexibilityScore(account)
	reward, err := computeReward(ev.BaseCompensationRate, p.ActualWh, p.CommittedWh, dev.Reputation, flex)
	if err != nil {
		return nil, err
	}

	p.State = types.ParticipationRewarded
	p.RewardMinted = clone(reward)
	if err := g.token.Mint(env.At(g.addr), account, reward, fmt.Sprintf("grid event %d reward", eventID)); err != nil {
		p.State = types.ParticipationVerified
		p.RewardMinted = nil
		return nil, fmt.Errorf("reward mint: %w: %w", host.ErrExternalCall, err)
	}

	ev.TotalEnergyWh += p.ActualWh
	g.totalEnergyWh += p.ActualWh
	g.totalRewards = new(uint256.Int).Add(g.totalRewards, reward)
	g.recordOutcome(account, p, dev.Metadata.CapacityWatts, true)
	// counter update failure must not undo a minted reward
	_ = g.registry.UpdateDevicePerformance(env.At(g.addr), account, p.ActualWh, true)

	g.sink.Emit(RewardDistributed{EventID: eventID, Account: account, Amount: clone(reward)})
	return reward, nil
}

// ---------------------------------------------------------------------------
// Signals

// IngestGridSignal accepts a data-feed push: it refreshes the grid
// condition, optionally starts or completes an event directly, then
// re-evaluates the auto-trigger rules.
func (g *GridService) IngestGridSignal(env host.Env, signal types.GridSignal) error {
	if !g.dataFeeds[env.Caller] {
		g.violation(env, "ingest_grid_signal")
		return host.ErrUnauthorized
	}
	if signal.Condition != nil {
		c := *signal.Condition
		if c.ReportedAt == 0 {
			c.ReportedAt = env.Now
		}
		g.condition = &c
		g.sink.Emit(GridConditionUpdated{Condition: c})
	}
	if signal.Start {
		if signal.Severity < 1 || signal.Severity > 5 {
			return fmt.Errorf("severity %d: %w", signal.Severity, host.ErrInvalidArgument)
		}
		rate, overflow := new(uint256.Int).MulOverflow(g.defaultRate, uint256.NewInt(uint64(signal.Severity)))
		if overflow {
			return fmt.Errorf("signal rate: %w", host.ErrOverflow)
		}
		if _, err := g.createEvent(env, signal.EventType, signal.DurationMinutes, rate, signal.TargetReductionKW, signal.Severity); err != nil {
			return err
		}
	}
	if signal.CompleteEventID != nil {
		if err := g.completeEvent(env, *signal.CompleteEventID); err != nil {
			return err
		}
	}
	return g.evaluateRules(env)
}

// ---------------------------------------------------------------------------
// Parameters and roles

// SetGovernanceAddress hands parameter control to governance. One-shot,
// owner only. The guardian source is queried for emergency cancels.
func (g *GridService) SetGovernanceAddress(env host.Env, governance types.Account, guardians GuardianSource) error {
	if env.Caller != g.owner {
		g.violation(env, "set_governance_address")
		return host.ErrUnauthorized
	}
	if g.governance != nil {
		return fmt.Errorf("governance address: %w", host.ErrInvalidState)
	}
	g.governance = &governance
	g.guardians = guardians
	return nil
}

// SetPaused toggles the pause flag. Owner keeps this alongside governance
// for emergency response.
func (g *GridService) SetPaused(env host.Env, paused bool) error {
	if !g.isOwnerOrGovernance(env.Caller) {
		g.violation(env, "set_paused")
		return host.ErrUnauthorized
	}
	g.paused = paused
	return nil
}

// SetDefaultCompensationRate updates the rate applied to auto-triggered and
// signal-started events. Governance only.
func (g *GridService) SetDefaultCompensationRate(env host.Env, rate *uint256.Int) error {
	if !g.isGovernance(env.Caller) {
		g.violation(env, "set_default_compensation_rate")
		return host.ErrUnauthorized
	}
	if rate == nil || rate.IsZero() {
		return host.ErrZeroAmount
	}
	g.defaultRate = clone(rate)
	return nil
}

// SetAuthorizedCaller grants or revokes operator rights (event creation and
// verification). Owner before governance handoff, governance after.
func (g *GridService) SetAuthorizedCaller(env host.Env, a types.Account, grant bool) error {
	if !g.isOwnerOrGovernance(env.Caller) {
		g.violation(env, "set_authorized_caller")
		return host.ErrUnauthorized
	}
	if grant {
		g.authorized[a] = true
	} else {
		delete(g.authorized, a)
	}
	return nil
}

// SetDataFeed grants or revokes grid-signal ingestion rights.
func (g *GridService) SetDataFeed(env host.Env, a types.Account, grant bool) error {
	if !g.isOwnerOrGovernance(env.Caller) {
		g.violation(env, "set_data_feed")
		return host.ErrUnauthorized
	}
	if grant {
		g.dataFeeds[a] = true
	} else {
		delete(g.dataFeeds, a)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Internal

func (g *GridService) isGovernance(a types.Account) bool {
	return g.governance != nil && *g.governance == a
}

func (g *GridService) isOwnerOrGovernance(a types.Account) bool {
	return a == g.owner || g.isGovernance(a)
}

func (g *GridService) isAuthorizedOrGovernance(a types.Account) bool {
	return g.authorized[a] || g.isGovernance(a)
}

func (g *GridService) isGovernanceOrGuardian(a types.Account) bool {
	if g.isGovernance(a) {
		return true
	}
	return g.guardians != nil && g.guardians.IsGuardian(a)
}

func (g *GridService) violation(env host.Env, op string) {
	g.sink.Emit(SecurityViolation{Caller: env.Caller, Operation: op})
}

func clone(v *uint256.Int) *uint256.Int {
	if v == nil {
		return nil
	}
	return new(uint256.Int).Set(v)
}
