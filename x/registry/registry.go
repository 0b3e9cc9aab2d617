// Package registry implements the device registry: metadata, stake escrow,
// reputation scoring, and slashing. Stakes are tokens held at the registry's
// own address; the token contract is the only external hop, and every
// operation that crosses it runs under the reentrancy guard.
package registry

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/powergrid/powergrid-der/x/host"
	"github.com/powergrid/powergrid-der/x/types"
)

// TokenCaller is the capability set the registry needs on the token
// contract. Satisfied by *token.Token; tests substitute hostile
// implementations to exercise the reentrancy guard.
type TokenCaller interface {
	TransferFrom(env host.Env, owner, to types.Account, amount *uint256.Int) error
	Transfer(env host.Env, to types.Account, amount *uint256.Int) error
	Burn(env host.Env, from types.Account, amount *uint256.Int, reason string) error
	BalanceOf(a types.Account) *uint256.Int
}

// Config pins registry parameters at deploy. MinStake and
// ReputationThreshold stay governance-mutable afterwards.
type Config struct {
	MinStake            *uint256.Int
	ReputationThreshold uint32
	InitialReputation   uint32
	ReputationGain      uint32
	ReputationLoss      uint32
	SlashReputationLoss uint32
	// Treasury receives slashed stake when SlashToTreasury is set;
	// otherwise slashed stake is burned.
	Treasury        *types.Account
	SlashToTreasury bool
}

// DefaultConfig returns the deploy defaults used by the devnet.
func DefaultConfig(minStake *uint256.Int) Config {
	return Config{
		MinStake:            minStake,
		ReputationThreshold: 0,
		InitialReputation:   500,
		ReputationGain:      25,
		ReputationLoss:      50,
		SlashReputationLoss: 100,
	}
}

type availability struct {
	day      uint64
	lastHour uint64
	hours    uint32
}

// Registry is the device registry contract state.
type Registry struct {
	addr  types.Account
	owner types.Account
	sink  host.Sink
	guard host.Guard

	tokenAddr types.Account
	token     TokenCaller

	governance *types.Account
	authorized map[types.Account]bool

	cfg         Config
	minStake    *uint256.Int
	repThresh   uint32
	treasury    *types.Account
	toTreasury  bool
	devices     map[types.Account]*types.Device
	avail       map[types.Account]*availability
	deviceCount uint32
	totalStaked *uint256.Int
}

// New deploys the registry bound to the token contract.
func New(addr, owner, tokenAddr types.Account, token TokenCaller, cfg Config, sink host.Sink) *Registry {
	if sink == nil {
		sink = host.NopSink{}
	}
	return &Registry{
		addr:        addr,
		owner:       owner,
		sink:        sink,
		tokenAddr:   tokenAddr,
		token:       token,
		authorized:  make(map[types.Account]bool),
		cfg:         cfg,
		minStake:    clone(cfg.MinStake),
		repThresh:   cfg.ReputationThreshold,
		treasury:    cfg.Treasury,
		toTreasury:  cfg.SlashToTreasury,
		devices:     make(map[types.Account]*types.Device),
		avail:       make(map[types.Account]*availability),
		totalStaked: uint256.NewInt(0),
	}
}

// ---------------------------------------------------------------------------
// Queries

func (r *Registry) Address() types.Account { return r.addr }

// IsDeviceRegistered reports whether the account has an active device.
func (r *Registry) IsDeviceRegistered(a types.Account) bool {
	d, ok := r.devices[a]
	return ok && d.Active
}

// GetDevice returns a copy of the device record.
func (r *Registry) GetDevice(a types.Account) (types.Device, bool) {
	d, ok := r.devices[a]
	if !ok {
		return types.Device{}, false
	}
	out := *d
	out.Stake = clone(d.Stake)
	return out, true
}

func (r *Registry) GetDeviceReputation(a types.Account) (uint32, bool) {
	d, ok := r.devices[a]
	if !ok {
		return 0, false
	}
	return d.Reputation, true
}

func (r *Registry) GetDeviceCount() uint32          { return r.deviceCount }
func (r *Registry) MinStake() *uint256.Int          { return clone(r.minStake) }
func (r *Registry) ReputationThreshold() uint32     { return r.repThresh }
func (r *Registry) TotalStaked() *uint256.Int       { return clone(r.totalStaked) }
func (r *Registry) IsAuthorizedCaller(a types.Account) bool { return r.authorized[a] }

// AvailabilityPermille maps today's heartbeat coverage to [0,1000].
func (r *Registry) AvailabilityPermille(a types.Account) uint32 {
	av, ok := r.avail[a]
	if !ok {
		return 0
	}
	h := av.hours
	if h > 24 {
		h = 24
	}
	return h * 1000 / 24
}

// ---------------------------------------------------------------------------
// Registration and stake

// RegisterDevice escrows the stake and creates the device record. The caller
// must have approved the registry for at least stakeAmount beforehand. The
// record is created only after the token call returns success, so a failed
// escrow leaves no trace.
func (r *Registry) RegisterDevice(env host.Env, metadata types.DeviceMetadata, stakeAmount *uint256.Int) error {
	if err := r.guard.Enter(); err != nil {
		return err
	}
	defer r.guard.Exit()

	if stakeAmount == nil || stakeAmount.IsZero() {
		return host.ErrZeroAmount
	}
	if stakeAmount.Lt(r.minStake) {
		return fmt.Errorf("stake %s below min %s: %w", stakeAmount, r.minStake, host.ErrInsufficientStake)
	}
	if _, ok := r.devices[env.Caller]; ok {
		return host.ErrAlreadyRegistered
	}
	if err := metadata.Validate(); err != nil {
		return fmt.Errorf("%s: %w", err, host.ErrInvalidArgument)
	}

	if err := r.token.TransferFrom(env.At(r.addr), env.Caller, r.addr, stakeAmount); err != nil {
		return fmt.Errorf("stake escrow: %w: %w", host.ErrExternalCall, err)
	}

	r.devices[env.Caller] = &types.Device{
		Metadata:    metadata,
		Stake:       clone(stakeAmount),
		Reputation:  r.cfg.InitialReputation,
		Active:      true,
		LastUpdated: env.Now,
	}
	r.deviceCount++
	r.totalStaked = new(uint256.Int).Add(r.totalStaked, stakeAmount)

	r.sink.Emit(DeviceRegistered{
		Owner:         env.Caller,
		DeviceType:    metadata.DeviceType,
		CapacityWatts: metadata.CapacityWatts,
		Stake:         clone(stakeAmount),
	})
	return nil
}

// IncreaseStake escrows additional stake. Reactivates a device that had
// fallen below the minimum.
func (r *Registry) IncreaseStake(env host.Env, amount *uint256.Int) error {
	if err := r.guard.Enter(); err != nil {
		return err
	}
	defer r.guard.Exit()

	if amount == nil || amount.IsZero() {
		return host.ErrZeroAmount
	}
	d, ok := r.devices[env.Caller]
	if !ok {
		return fmt.Errorf("device: %w", host.ErrNotFound)
	}
	newStake, overflow := new(uint256.Int).AddOverflow(d.Stake, amount)
	if overflow {
		return host.ErrOverflow
	}

	if err := r.token.TransferFrom(env.At(r.addr), env.Caller, r.addr, amount); err != nil {
		return fmt.Errorf("stake escrow: %w: %w", host.ErrExternalCall, err)
	}

	d.Stake = newStake
	d.LastUpdated = env.Now
	if !d.Active && !d.Stake.Lt(r.minStake) {
		d.Active = true
	}
	r.totalStaked = new(uint256.Int).Add(r.totalStaked, amount)
	r.sink.Emit(StakeUpdated{Owner: env.Caller, Stake: clone(d.Stake)})
	return nil
}

// WithdrawStake returns stake to the owner. A partial withdrawal must leave
// at least the minimum stake; withdrawing everything deactivates and removes
// the device.
func (r *Registry) WithdrawStake(env host.Env, amount *uint256.Int) error {
	if err := r.guard.Enter(); err != nil {
		return err
	}
	defer r.guard.Exit()

	if amount == nil || amount.IsZero() {
		return host.ErrZeroAmount
	}
	d, ok := r.devices[env.Caller]
	if !ok {
		return fmt.Errorf("device: %w", host.ErrNotFound)
	}
	if amount.Gt(d.Stake) {
		return fmt.Errorf("withdraw %s of %s: %w", amount, d.Stake, host.ErrInsufficientStake)
	}
	remaining := new(uint256.Int).Sub(d.Stake, amount)
	full := remaining.IsZero()
	if !full && remaining.Lt(r.minStake) {
		return fmt.Errorf("remaining stake %s below min: %w", remaining, host.ErrInsufficientStake)
	}

	if err := r.token.Transfer(env.At(r.addr), env.Caller, amount); err != nil {
		return fmt.Errorf("stake release: %w: %w", host.ErrExternalCall, err)
	}

	r.totalStaked = new(uint256.Int).Sub(r.totalStaked, amount)
	if full {
		delete(r.devices, env.Caller)
		delete(r.avail, env.Caller)
		r.deviceCount--
		r.sink.Emit(StakeUpdated{Owner: env.Caller, Stake: uint256.NewInt(0)})
		r.sink.Emit(DeviceDeactivated{Owner: env.Caller, Reason: "stake withdrawn"})
		return nil
	}
	d.Stake = remaining
	d.LastUpdated = env.Now
	r.sink.Emit(StakeUpdated{Owner: env.Caller, Stake: clone(d.Stake)})
	return nil
}

// SlashStake confiscates up to amount of the device's stake. Authorized
// callers and governance only. The slashed amount is burned, or moved to the
// treasury when one is configured.
func (r *Registry) SlashStake(env host.Env, account types.Account, amount *uint256.Int, reason string) error {
	if !r.isAuthorizedOrGovernance(env.Caller) {
		r.violation(env, "slash_stake")
		return host.ErrUnauthorized
	}
	if err := r.guard.Enter(); err != nil {
		return err
	}
	defer r.guard.Exit()

	if amount == nil || amount.IsZero() {
		return host.ErrZeroAmount
	}
	d, ok := r.devices[account]
	if !ok {
		return fmt.Errorf("device: %w", host.ErrNotFound)
	}
	slash := clone(amount)
	if slash.Gt(d.Stake) {
		slash = clone(d.Stake)
	}

	burned := true
	if r.toTreasury && r.treasury != nil {
		burned = false
		if err := r.token.Transfer(env.At(r.addr), *r.treasury, slash); err != nil {
			return fmt.Errorf("slash transfer: %w: %w", host.ErrExternalCall, err)
		}
	} else {
		if err := r.token.Burn(env.At(r.addr), r.addr, slash, "slashed stake: "+reason); err != nil {
			return fmt.Errorf("slash burn: %w: %w", host.ErrExternalCall, err)
		}
	}

	d.Stake = new(uint256.Int).Sub(d.Stake, slash)
	d.LastUpdated = env.Now
	r.totalStaked = new(uint256.Int).Sub(r.totalStaked, slash)
	r.setReputation(env, account, d, sub(d.Reputation, r.cfg.SlashReputationLoss), "slashed: "+reason)

	r.sink.Emit(Slashed{Owner: account, Burned: burned, Amount: clone(slash), Reason: reason})
	r.sink.Emit(StakeUpdated{Owner: account, Stake: clone(d.Stake)})

	if d.Stake.IsZero() {
		delete(r.devices, account)
		delete(r.avail, account)
		r.deviceCount--
		r.sink.Emit(DeviceDeactivated{Owner: account, Reason: "slashed out"})
	} else if d.Stake.Lt(r.minStake) && d.Active {
		d.Active = false
		r.sink.Emit(DeviceDeactivated{Owner: account, Reason: "stake below minimum after slash"})
	}
	return nil
}

// ---------------------------------------------------------------------------
// Performance and metadata

// UpdateDevicePerformance records one event outcome for the device and moves
// reputation by a bounded step. Authorized callers only (the grid service).
func (r *Registry) UpdateDevicePerformance(env host.Env, account types.Account, energyWh uint64, success bool) error {
	if !r.authorized[env.Caller] {
		r.violation(env, "update_device_performance")
		return host.ErrUnauthorized
	}
	d, ok := r.devices[account]
	if !ok {
		return fmt.Errorf("device: %w", host.ErrNotFound)
	}
	d.EventsParticipated++
	d.TotalEnergyWh += energyWh
	d.LastUpdated = env.Now
	if success {
		d.EventsSuccessful++
		r.setReputation(env, account, d, add(d.Reputation, r.cfg.ReputationGain), "successful participation")
	} else {
		r.setReputation(env, account, d, sub(d.Reputation, r.cfg.ReputationLoss), "failed participation")
	}
	return nil
}

// RecordHeartbeat tracks hourly liveness used by the flexibility
// availability component. Devices report for themselves; metering
// gateways need the authorized-caller bit.
func (r *Registry) RecordHeartbeat(env host.Env, account types.Account) error {
	if env.Caller != account && !r.authorized[env.Caller] {
		r.violation(env, "record_heartbeat")
		return host.ErrUnauthorized
	}
	if _, ok := r.devices[account]; !ok {
		return fmt.Errorf("device: %w", host.ErrNotFound)
	}
	day := env.Now / 86400
	hour := env.Now / 3600
	av, ok := r.avail[account]
	if !ok || av.day != day {
		r.avail[account] = &availability{day: day, lastHour: hour, hours: 1}
		return nil
	}
	if hour != av.lastHour {
		av.lastHour = hour
		if av.hours < 24 {
			av.hours++
		}
	}
	return nil
}

// UpdateDeviceMetadata replaces the caller's device metadata.
func (r *Registry) UpdateDeviceMetadata(env host.Env, metadata types.DeviceMetadata) error {
	d, ok := r.devices[env.Caller]
	if !ok {
		return fmt.Errorf("device: %w", host.ErrNotFound)
	}
	if err := metadata.Validate(); err != nil {
		return fmt.Errorf("%s: %w", err, host.ErrInvalidArgument)
	}
	d.Metadata = metadata
	d.LastUpdated = env.Now
	r.sink.Emit(MetadataUpdated{Owner: env.Caller})
	return nil
}

// ---------------------------------------------------------------------------
// Parameters and roles

// SetGovernanceAddress hands parameter control to governance. One-shot,
// owner only.
func (r *Registry) SetGovernanceAddress(env host.Env, governance types.Account) error {
	if env.Caller != r.owner {
		r.violation(env, "set_governance_address")
		return host.ErrUnauthorized
	}
	if r.governance != nil {
		return fmt.Errorf("governance address: %w", host.ErrInvalidState)
	}
	r.governance = &governance
	return nil
}

func (r *Registry) SetMinStake(env host.Env, value *uint256.Int) error {
	if !r.isGovernance(env.Caller) {
		r.violation(env, "set_min_stake")
		return host.ErrUnauthorized
	}
	if value == nil || value.IsZero() {
		return host.ErrZeroAmount
	}
	r.minStake = clone(value)
	return nil
}

func (r *Registry) SetReputationThreshold(env host.Env, value uint32) error {
	if !r.isGovernance(env.Caller) {
		r.violation(env, "set_reputation_threshold")
		return host.ErrUnauthorized
	}
	if value > 1000 {
		return fmt.Errorf("reputation threshold %d: %w", value, host.ErrInvalidArgument)
	}
	r.repThresh = value
	return nil
}

// SetAuthorizedCaller grants or revokes counter-mutation rights, normally
// for the grid service contract. Owner before governance handoff,
// governance after.
func (r *Registry) SetAuthorizedCaller(env host.Env, a types.Account, grant bool) error {
	if !r.isOwnerOrGovernance(env.Caller) {
		r.violation(env, "set_authorized_caller")
		return host.ErrUnauthorized
	}
	if grant {
		r.authorized[a] = true
	} else {
		delete(r.authorized, a)
	}
	return nil
}

// SetTreasury configures the slashed-stake destination.
func (r *Registry) SetTreasury(env host.Env, treasury *types.Account, toTreasury bool) error {
	if !r.isGovernance(env.Caller) {
		r.violation(env, "set_treasury")
		return host.ErrUnauthorized
	}
	r.treasury = treasury
	r.toTreasury = toTreasury && treasury != nil
	return nil
}

// ---------------------------------------------------------------------------
// Internal

func (r *Registry) setReputation(env host.Env, account types.Account, d *types.Device, next uint32, reason string) {
	if next > 1000 {
		next = 1000
	}
	if next == d.Reputation {
		return
	}
	old := d.Reputation
	d.Reputation = next
	r.sink.Emit(ReputationUpdated{Owner: account, Old: old, New: next, Reason: reason})
}

func (r *Registry) isGovernance(a types.Account) bool {
	return r.governance != nil && *r.governance == a
}

func (r *Registry) isOwnerOrGovernance(a types.Account) bool {
	return a == r.owner || r.isGovernance(a)
}

func (r *Registry) isAuthorizedOrGovernance(a types.Account) bool {
	return r.authorized[a] || r.isGovernance(a)
}

func (r *Registry) violation(env host.Env, op string) {
	r.sink.Emit(SecurityViolation{Caller: env.Caller, Operation: op})
}

func add(rep, step uint32) uint32 {
	return rep + step
}

func sub(rep, step uint32) uint32 {
	if step > rep {
		return 0
	}
	return rep - step
}

func clone(v *uint256.Int) *uint256.Int {
	if v == nil {
		return nil
	}
	return new(uint256.Int).Set(v)
}
