package gridservice

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/powergrid/powergrid-der/x/host"
)

// Reward computation is pure integer arithmetic, deterministic for a given
// participation record. Divisions are applied after every multiplication so
// intermediate values stay inside 256 bits for any realistic rate.
//
//	base       = actual_wh * rate / 1000          (rate is per kWh)
//	efficiency = base * 20 / 100  when actual >= committed
//	reward     = (base + efficiency) * rep_bp / 10000 * flex_bp / 10000
//
// Severity is not a factor here: auto-triggered events bake it into the
// event's compensation rate at creation.

const (
	repFloorBP = 800
	repSpanBP  = 400

	flexFloorBP = 5000
	flexStepBP  = 10

	efficiencyBonusPct = 20
)

// reputationMultiplierBP maps reputation [0,1000] linearly onto
// [800,1200] basis points.
func reputationMultiplierBP(reputation uint32) uint64 {
	if reputation > 1000 {
		reputation = 1000
	}
	return repFloorBP + uint64(reputation)*repSpanBP/1000
}

// flexibilityMultiplierBP maps the flexibility score [0,1000] linearly onto
// [5000,15000] basis points.
func flexibilityMultiplierBP(flexibility uint32) uint64 {
	if flexibility > 1000 {
		flexibility = 1000
	}
	return flexFloorBP + uint64(flexibility)*flexStepBP
}

func computeReward(rate *uint256.Int, actualWh, committedWh uint64, reputation, flexibility uint32) (*uint256.Int, error) {
	base, overflow := new(uint256.Int).MulOverflow(rate, uint256.NewInt(actualWh))
	if overflow {
		return nil, fmt.Errorf("base reward: %w", host.ErrOverflow)
	}
	base.Div(base, uint256.NewInt(1000))

	reward := new(uint256.Int).Set(base)
	if actualWh >= committedWh {
		bonus := new(uint256.Int).Mul(base, uint256.NewInt(efficiencyBonusPct))
		bonus.Div(bonus, uint256.NewInt(100))
		var of bool
		reward, of = new(uint256.Int).AddOverflow(reward, bonus)
		if of {
			return nil, fmt.Errorf("efficiency bonus: %w", host.ErrOverflow)
		}
	}

	reward, overflow = new(uint256.Int).MulOverflow(reward, uint256.NewInt(reputationMultiplierBP(reputation)))
	if overflow {
		return nil, fmt.Errorf("reputation multiplier: %w", host.ErrOverflow)
	}
	reward.Div(reward, uint256.NewInt(10000))

	reward, overflow = new(uint256.Int).MulOverflow(reward, uint256.NewInt(flexibilityMultiplierBP(flexibility)))
	if overflow {
		return nil, fmt.Errorf("flexibility multiplier: %w", host.ErrOverflow)
	}
	reward.Div(reward, uint256.NewInt(10000))

	return reward, nil
}
