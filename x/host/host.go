// Package host models the host-chain execution environment the contracts run
// in: the caller identity and block time of the current call, the event sink,
// and the per-contract reentrancy lock. Contract code never reads wall-clock
// time or global state; everything comes in through Env.
package host

import (
	"github.com/powergrid/powergrid-der/x/types"
)

// Env carries the call context the host chain provides to a contract call.
type Env struct {
	// Caller is the account that invoked the current call. For
	// cross-contract calls this is the calling contract's address.
	Caller types.Account
	// Now is the host block timestamp in unix seconds.
	Now uint64
}

// At returns a copy of e with the caller replaced. Contracts use it to stamp
// their own address on outbound cross-contract calls.
func (e Env) At(caller types.Account) Env {
	e.Caller = caller
	return e
}

// Event is a typed contract event. Kinds are stable strings consumed by the
// indexer and external watchers; field order within an event struct is part
// of the wire contract.
type Event interface {
	EventKind() string
}

// Sink receives events emitted during a call.
type Sink interface {
	Emit(e Event)
}

// NopSink drops all events. Used by unit tests that do not assert on events.
type NopSink struct{}

func (NopSink) Emit(Event) {}

// Guard is the per-contract reentrancy lock. It is scoped to a single
// in-flight call: Enter fails while held, and Exit must run on every path,
// normally via defer.
type Guard struct {
	entered bool
}

func (g *Guard) Enter() error {
	if g.entered {
		return ErrReentrancy
	}
	g.entered = true
	return nil
}

func (g *Guard) Exit() {
	g.entered = false
}

// Held reports whether the guard is currently taken.
func (g *Guard) Held() bool {
	return g.entered
}
