// Package token implements the PowerGrid fungible token (PWGD): a ledger
// with role-gated mint/burn, a freeze list, pause, transfer caps, and
// balance snapshots used by governance for deterministic vote weights.
//
// All amounts are integer base units (decimals fixed at construction). Every
// arithmetic step is checked; overflow aborts the call with no state change.
package token

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/powergrid/powergrid-der/x/host"
	"github.com/powergrid/powergrid-der/x/types"
)

const secondsPerDay = 86400

// Config fixes token metadata and safety controls at construction.
type Config struct {
	Name          string
	Symbol        string
	Decimals      uint8
	InitialSupply *uint256.Int
	InitialHolder types.Account
	// MaxSupply caps cumulative supply; nil means uncapped.
	MaxSupply *uint256.Int
	// TransferCap bounds a single transfer; nil means unbounded.
	TransferCap *uint256.Int
	// DailyCap bounds cumulative transfers out of one account per day
	// bucket; nil means unbounded.
	DailyCap *uint256.Int
}

type dailyUsage struct {
	day   uint64
	spent *uint256.Int
}

// Token is the on-chain token contract state.
type Token struct {
	cfg  Config
	sink host.Sink

	admin      types.Account
	governance *types.Account

	balances   map[types.Account]*uint256.Int
	allowances map[types.Account]map[types.Account]*uint256.Int

	totalSupply *uint256.Int
	totalMinted *uint256.Int
	totalBurned *uint256.Int

	minters  map[types.Account]bool
	burners  map[types.Account]bool
	freezers map[types.Account]bool
	frozen   map[types.Account]bool
	paused   bool

	transferCap *uint256.Int
	dailyCap    *uint256.Int
	dailySpent  map[types.Account]*dailyUsage

	snapshots snapshotState
}

// New deploys the token, minting the initial supply to the configured holder.
func New(admin types.Account, cfg Config, sink host.Sink) *Token {
	if sink == nil {
		sink = host.NopSink{}
	}
	t := &Token{
		cfg:         cfg,
		sink:        sink,
		admin:       admin,
		balances:    make(map[types.Account]*uint256.Int),
		allowances:  make(map[types.Account]map[types.Account]*uint256.Int),
		totalSupply: uint256.NewInt(0),
		totalMinted: uint256.NewInt(0),
		totalBurned: uint256.NewInt(0),
		minters:     make(map[types.Account]bool),
		burners:     make(map[types.Account]bool),
		freezers:    make(map[types.Account]bool),
		frozen:      make(map[types.Account]bool),
		transferCap: clone(cfg.TransferCap),
		dailyCap:    clone(cfg.DailyCap),
		dailySpent:  make(map[types.Account]*dailyUsage),
		snapshots:   newSnapshotState(),
	}
	if cfg.InitialSupply != nil && !cfg.InitialSupply.IsZero() {
		holder := cfg.InitialHolder
		if holder == types.ZeroAccount {
			holder = admin
		}
		t.balances[holder] = clone(cfg.InitialSupply)
		t.totalSupply = clone(cfg.InitialSupply)
		t.totalMinted = clone(cfg.InitialSupply)
		t.sink.Emit(Transfer{From: types.ZeroAccount, To: holder, Amount: clone(cfg.InitialSupply)})
	}
	return t
}

// ---------------------------------------------------------------------------
// Queries

func (t *Token) Name() string    { return t.cfg.Name }
func (t *Token) Symbol() string  { return t.cfg.Symbol }
func (t *Token) Decimals() uint8 { return t.cfg.Decimals }

func (t *Token) TotalSupply() *uint256.Int { return clone(t.totalSupply) }
func (t *Token) TotalMinted() *uint256.Int { return clone(t.totalMinted) }
func (t *Token) TotalBurned() *uint256.Int { return clone(t.totalBurned) }

func (t *Token) BalanceOf(a types.Account) *uint256.Int {
	if b, ok := t.balances[a]; ok {
		return clone(b)
	}
	return uint256.NewInt(0)
}

func (t *Token) Allowance(owner, spender types.Account) *uint256.Int {
	if m, ok := t.allowances[owner]; ok {
		if v, ok := m[spender]; ok {
			return clone(v)
		}
	}
	return uint256.NewInt(0)
}

func (t *Token) IsPaused() bool                  { return t.paused }
func (t *Token) IsFrozen(a types.Account) bool   { return t.frozen[a] }
func (t *Token) IsMinter(a types.Account) bool   { return t.minters[a] }
func (t *Token) IsBurner(a types.Account) bool   { return t.burners[a] }
func (t *Token) Admin() types.Account            { return t.admin }
func (t *Token) GovernanceAddress() *types.Account {
	if t.governance == nil {
		return nil
	}
	g := *t.governance
	return &g
}

func (t *Token) TransferCap() *uint256.Int { return clone(t.transferCap) }
func (t *Token) DailyCap() *uint256.Int    { return clone(t.dailyCap) }

// ---------------------------------------------------------------------------
// Transfers

// Transfer moves amount from the caller to the recipient.
func (t *Token) Transfer(env host.Env, to types.Account, amount *uint256.Int) error {
	return t.move(env, env.Caller, to, amount)
}

// TransferFrom moves amount from owner to the recipient, spending the
// caller's allowance. The owner spending its own funds needs no allowance.
func (t *Token) TransferFrom(env host.Env, owner, to types.Account, amount *uint256.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if env.Caller == owner {
		return t.move(env, owner, to, amount)
	}
	allowance := t.Allowance(owner, env.Caller)
	if allowance.Lt(amount) {
		return fmt.Errorf("transfer_from %s: %w", owner, host.ErrInsufficientAllowance)
	}
	// the allowance is spent only once the move has succeeded
	if err := t.move(env, owner, to, amount); err != nil {
		return err
	}
	t.setAllowance(owner, env.Caller, new(uint256.Int).Sub(allowance, amount))
	return nil
}

// Approve overwrites the allowance with the new value; no arithmetic on the
// previous allowance.
func (t *Token) Approve(env host.Env, spender types.Account, amount *uint256.Int) error {
	if amount == nil {
		return host.ErrZeroAmount
	}
	if t.paused {
		return host.ErrPaused
	}
	t.setAllowance(env.Caller, spender, clone(amount))
	t.sink.Emit(Approval{Owner: env.Caller, Spender: spender, Amount: clone(amount)})
	return nil
}

func (t *Token) move(env host.Env, from, to types.Account, amount *uint256.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if t.paused {
		return host.ErrPaused
	}
	if t.frozen[from] || t.frozen[to] {
		return host.ErrFrozen
	}
	if t.transferCap != nil && amount.Gt(t.transferCap) {
		return fmt.Errorf("per-transfer cap: %w", host.ErrCapExceeded)
	}
	if err := t.checkDailyCap(env, from, amount); err != nil {
		return err
	}
	fromBal := t.BalanceOf(from)
	if fromBal.Lt(amount) {
		return host.ErrInsufficientBalance
	}
	if from == to {
		// nothing moves on a self-transfer
		t.sink.Emit(Transfer{From: from, To: to, Amount: clone(amount)})
		return nil
	}
	toBal := t.BalanceOf(to)
	newTo, overflow := new(uint256.Int).AddOverflow(toBal, amount)
	if overflow {
		return host.ErrOverflow
	}
	t.setBalance(from, new(uint256.Int).Sub(fromBal, amount))
	t.setBalance(to, newTo)
	t.recordDailySpend(env, from, amount)
	t.sink.Emit(Transfer{From: from, To: to, Amount: clone(amount)})
	return nil
}

func (t *Token) checkDailyCap(env host.Env, from types.Account, amount *uint256.Int) error {
	if t.dailyCap == nil {
		return nil
	}
	day := env.Now / secondsPerDay
	spent := uint256.NewInt(0)
	if u, ok := t.dailySpent[from]; ok && u.day == day {
		spent = u.spent
	}
	total, overflow := new(uint256.Int).AddOverflow(spent, amount)
	if overflow || total.Gt(t.dailyCap) {
		return fmt.Errorf("daily cap: %w", host.ErrCapExceeded)
	}
	return nil
}

func (t *Token) recordDailySpend(env host.Env, from types.Account, amount *uint256.Int) {
	if t.dailyCap == nil {
		return
	}
	day := env.Now / secondsPerDay
	u, ok := t.dailySpent[from]
	if !ok || u.day != day {
		t.dailySpent[from] = &dailyUsage{day: day, spent: clone(amount)}
		return
	}
	u.spent = new(uint256.Int).Add(u.spent, amount)
}

// ---------------------------------------------------------------------------
// Supply changes

// Mint creates amount for the recipient. Minter role only.
func (t *Token) Mint(env host.Env, to types.Account, amount *uint256.Int, reason string) error {
	if !t.minters[env.Caller] && !t.isAdminOrGovernance(env.Caller) {
		t.violation(env, "mint")
		return host.ErrUnauthorized
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	if t.paused {
		return host.ErrPaused
	}
	if t.frozen[to] {
		return host.ErrFrozen
	}
	newSupply, overflow := new(uint256.Int).AddOverflow(t.totalSupply, amount)
	if overflow {
		return host.ErrOverflow
	}
	if t.cfg.MaxSupply != nil && newSupply.Gt(t.cfg.MaxSupply) {
		return fmt.Errorf("max supply: %w", host.ErrCapExceeded)
	}
	newBal, overflow := new(uint256.Int).AddOverflow(t.BalanceOf(to), amount)
	if overflow {
		return host.ErrOverflow
	}
	t.snapshotSupply()
	t.setBalance(to, newBal)
	t.totalSupply = newSupply
	t.totalMinted = new(uint256.Int).Add(t.totalMinted, amount)
	t.sink.Emit(Transfer{From: types.ZeroAccount, To: to, Amount: clone(amount)})
	t.sink.Emit(Mint{To: to, Amount: clone(amount), Reason: reason})
	return nil
}

// Burn destroys amount held by from. Burner role, or the holder burning its
// own balance.
func (t *Token) Burn(env host.Env, from types.Account, amount *uint256.Int, reason string) error {
	if env.Caller != from && !t.burners[env.Caller] && !t.isAdminOrGovernance(env.Caller) {
		t.violation(env, "burn")
		return host.ErrUnauthorized
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	bal := t.BalanceOf(from)
	if bal.Lt(amount) {
		return host.ErrInsufficientBalance
	}
	t.snapshotSupply()
	t.setBalance(from, new(uint256.Int).Sub(bal, amount))
	t.totalSupply = new(uint256.Int).Sub(t.totalSupply, amount)
	t.totalBurned = new(uint256.Int).Add(t.totalBurned, amount)
	t.sink.Emit(Transfer{From: from, To: types.ZeroAccount, Amount: clone(amount)})
	t.sink.Emit(Burn{From: from, Amount: clone(amount), Reason: reason})
	return nil
}

// ---------------------------------------------------------------------------
// Admin

func (t *Token) SetPaused(env host.Env, paused bool) error {
	if !t.isAdminOrGovernance(env.Caller) {
		t.violation(env, "set_paused")
		return host.ErrUnauthorized
	}
	if t.paused == paused {
		return nil
	}
	t.paused = paused
	if paused {
		t.sink.Emit(Paused{By: env.Caller})
	} else {
		t.sink.Emit(Unpaused{By: env.Caller})
	}
	return nil
}

func (t *Token) AddMinter(env host.Env, a types.Account) error {
	return t.setRole(env, "minter", t.minters, a, true)
}

func (t *Token) RemoveMinter(env host.Env, a types.Account) error {
	return t.setRole(env, "minter", t.minters, a, false)
}

func (t *Token) AddBurner(env host.Env, a types.Account) error {
	return t.setRole(env, "burner", t.burners, a, true)
}

func (t *Token) RemoveBurner(env host.Env, a types.Account) error {
	return t.setRole(env, "burner", t.burners, a, false)
}

func (t *Token) AddFreezer(env host.Env, a types.Account) error {
	return t.setRole(env, "freezer", t.freezers, a, true)
}

func (t *Token) RemoveFreezer(env host.Env, a types.Account) error {
	return t.setRole(env, "freezer", t.freezers, a, false)
}

func (t *Token) setRole(env host.Env, role string, set map[types.Account]bool, a types.Account, grant bool) error {
	if !t.isAdminOrGovernance(env.Caller) {
		t.violation(env, "set_"+role)
		return host.ErrUnauthorized
	}
	if grant {
		set[a] = true
	} else {
		delete(set, a)
	}
	t.sink.Emit(RoleChanged{Role: role, Account: a, Granted: grant})
	return nil
}

func (t *Token) Freeze(env host.Env, a types.Account) error {
	if !t.isAdminOrGovernance(env.Caller) && !t.freezers[env.Caller] {
		t.violation(env, "freeze")
		return host.ErrUnauthorized
	}
	t.frozen[a] = true
	t.sink.Emit(Frozen{Account: a})
	return nil
}

func (t *Token) Unfreeze(env host.Env, a types.Account) error {
	if !t.isAdminOrGovernance(env.Caller) && !t.freezers[env.Caller] {
		t.violation(env, "unfreeze")
		return host.ErrUnauthorized
	}
	delete(t.frozen, a)
	t.sink.Emit(Unfrozen{Account: a})
	return nil
}

// SetTransferCap updates the per-transfer cap; nil removes it.
func (t *Token) SetTransferCap(env host.Env, cap *uint256.Int) error {
	if !t.isAdminOrGovernance(env.Caller) {
		t.violation(env, "set_transfer_cap")
		return host.ErrUnauthorized
	}
	t.transferCap = clone(cap)
	return nil
}

// SetDailyCap updates the per-account daily cap; nil removes it.
func (t *Token) SetDailyCap(env host.Env, cap *uint256.Int) error {
	if !t.isAdminOrGovernance(env.Caller) {
		t.violation(env, "set_daily_cap")
		return host.ErrUnauthorized
	}
	t.dailyCap = clone(cap)
	return nil
}

// SetGovernanceAddress hands privileged control to the governance contract.
// One-shot: only the admin may set it, and only once.
func (t *Token) SetGovernanceAddress(env host.Env, governance types.Account) error {
	if env.Caller != t.admin {
		t.violation(env, "set_governance_address")
		return host.ErrUnauthorized
	}
	if t.governance != nil {
		return fmt.Errorf("governance address: %w", host.ErrInvalidState)
	}
	t.governance = &governance
	return nil
}

// ---------------------------------------------------------------------------
// Internal helpers

func (t *Token) isAdminOrGovernance(a types.Account) bool {
	if a == t.admin {
		return true
	}
	return t.governance != nil && *t.governance == a
}

func (t *Token) violation(env host.Env, op string) {
	t.sink.Emit(SecurityViolation{Caller: env.Caller, Operation: op})
}

func (t *Token) setAllowance(owner, spender types.Account, v *uint256.Int) {
	m, ok := t.allowances[owner]
	if !ok {
		m = make(map[types.Account]*uint256.Int)
		t.allowances[owner] = m
	}
	if v.IsZero() {
		delete(m, spender)
		return
	}
	m[spender] = v
}

func (t *Token) setBalance(a types.Account, v *uint256.Int) {
	t.snapshotAccount(a)
	if v.IsZero() {
		delete(t.balances, a)
		return
	}
	t.balances[a] = v
}

func checkAmount(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return host.ErrZeroAmount
	}
	return nil
}

func clone(v *uint256.Int) *uint256.Int {
	if v == nil {
		return nil
	}
	return new(uint256.Int).Set(v)
}
