package gridservice

import (
	"github.com/powergrid/powergrid-der/x/types"
)

// The flexibility score aggregates four components, each in [0,250]:
// response time, consistency, commitment range accuracy, and availability.
// The first three come from the per-account tracker below; availability is
// read from the registry's heartbeat counters. An account with no verified
// history scores the neutral 500.
//
// The tracker is updated after a participation's reward is computed, so the
// score applied to a reward never includes the participation being rewarded.

const flexDefaultScore = 500

type flexStats struct {
	total      uint64
	successful uint64
	// worstRangePermille is the largest observed |committed-actual| relative
	// to device capacity, in [0,1000].
	worstRangePermille uint32
	lastAckSecs        uint64
	hasAck             bool
}

func (g *GridService) flexibilityScore(a types.Account) uint32 {
	fs, ok := g.flex[a]
	if !ok || fs.total == 0 {
		return flexDefaultScore
	}
	return g.responseComponent(fs) +
		consistencyComponent(fs) +
		rangeComponent(fs) +
		availabilityComponent(g.registry.AvailabilityPermille(a))
}

// responseComponent is 250 at or under T1 seconds, 0 at or over T2, linear
// in between.
func (g *GridService) responseComponent(fs *flexStats) uint32 {
	if !fs.hasAck {
		return 0
	}
	t1, t2 := g.cfg.ResponseT1Secs, g.cfg.ResponseT2Secs
	switch {
	case fs.lastAckSecs <= t1:
		return 250
	case fs.lastAckSecs >= t2:
		return 0
	default:
		return uint32(250 * (t2 - fs.lastAckSecs) / (t2 - t1))
	}
}

func consistencyComponent(fs *flexStats) uint32 {
	return uint32(fs.successful * 250 / fs.total)
}

// rangeComponent maps the worst observed commitment deviation inversely:
// a perfect record scores 250, a deviation at or above capacity scores 0.
func rangeComponent(fs *flexStats) uint32 {
	dev := fs.worstRangePermille
	if dev > 1000 {
		dev = 1000
	}
	return (1000 - dev) * 250 / 1000
}

func availabilityComponent(permille uint32) uint32 {
	if permille > 1000 {
		permille = 1000
	}
	return permille * 250 / 1000
}

// recordOutcome folds one settled participation into the tracker.
func (g *GridService) recordOutcome(a types.Account, p *types.Participation, capacityWatts uint64, success bool) {
	fs, ok := g.flex[a]
	if !ok {
		fs = &flexStats{}
		g.flex[a] = fs
	}
	fs.total++
	if success {
		fs.successful++
	}
	fs.lastAckSecs = p.CommittedAt - g.events[p.EventID].CreatedAt
	fs.hasAck = true
	if capacityWatts > 0 {
		var dev uint64
		if p.CommittedWh > p.ActualWh {
			dev = p.CommittedWh - p.ActualWh
		} else {
			dev = p.ActualWh - p.CommittedWh
		}
		permille := dev * 1000 / capacityWatts
		if permille > 1000 {
			permille = 1000
		}
		if uint32(permille) > fs.worstRangePermille {
			fs.worstRangePermille = uint32(permille)
		}
	}
}
