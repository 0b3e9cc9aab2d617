package gridservice

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/powergrid/powergrid-der/x/host"
	"github.com/powergrid/powergrid-der/x/types"
)

// Auto-trigger rules let the protocol open events without an operator in the
// loop: each signal ingestion re-evaluates every rule against the latest grid
// condition. Rule count is bounded and evaluation is a single linear pass.

// AddTriggerRule registers a rule and returns its id. Governance only.
func (g *GridService) AddTriggerRule(env host.Env, predicate types.RulePredicate, template types.RuleTemplate, cooldownSecs uint64) (uint64, error) {
	if !g.isGovernance(env.Caller) {
		g.violation(env, "add_trigger_rule")
		return 0, host.ErrUnauthorized
	}
	if len(g.rules) >= g.cfg.MaxRules {
		return 0, fmt.Errorf("rule limit %d reached: %w", g.cfg.MaxRules, host.ErrCapExceeded)
	}
	if predicate.Empty() {
		return 0, fmt.Errorf("empty predicate: %w", host.ErrInvalidArgument)
	}
	if !template.EventType.Valid() {
		return 0, fmt.Errorf("event type %q: %w", template.EventType, host.ErrInvalidArgument)
	}
	if template.DurationMinutes == 0 || template.TargetReductionKW == 0 {
		return 0, fmt.Errorf("rule template: %w", host.ErrInvalidArgument)
	}
	if template.Severity < 1 || template.Severity > 5 {
		return 0, fmt.Errorf("severity %d: %w", template.Severity, host.ErrInvalidArgument)
	}
	g.nextRuleID++
	g.rules = append(g.rules, &types.TriggerRule{
		ID:           g.nextRuleID,
		Predicate:    predicate,
		Template:     template,
		CooldownSecs: cooldownSecs,
	})
	return g.nextRuleID, nil
}

// RemoveTriggerRule deletes a rule by id. Governance only.
func (g *GridService) RemoveTriggerRule(env host.Env, id uint64) error {
	if !g.isGovernance(env.Caller) {
		g.violation(env, "remove_trigger_rule")
		return host.ErrUnauthorized
	}
	for i, r := range g.rules {
		if r.ID == id {
			g.rules = append(g.rules[:i], g.rules[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("rule %d: %w", id, host.ErrNotFound)
}

// GetTriggerRules returns a copy of the rule list in evaluation order.
func (g *GridService) GetTriggerRules() []types.TriggerRule {
	out := make([]types.TriggerRule, 0, len(g.rules))
	for _, r := range g.rules {
		out = append(out, *r)
	}
	return out
}

// evaluateRules fires every rule whose predicate holds for the current
// condition and whose cooldown has elapsed. Fired events price the rule's
// severity into their compensation rate.
func (g *GridService) evaluateRules(env host.Env) error {
	if g.condition == nil {
		return nil
	}
	for _, r := range g.rules {
		if !r.Predicate.Holds(*g.condition) {
			continue
		}
		if r.LastFired != 0 && env.Now < r.LastFired+r.CooldownSecs {
			continue
		}
		rate, overflow := new(uint256.Int).MulOverflow(g.defaultRate, uint256.NewInt(uint64(r.Template.Severity)))
		if overflow {
			return fmt.Errorf("rule %d rate: %w", r.ID, host.ErrOverflow)
		}
		id, err := g.createEvent(env, r.Template.EventType, r.Template.DurationMinutes, rate, r.Template.TargetReductionKW, r.Template.Severity)
		if err != nil {
			return fmt.Errorf("rule %d fire: %w", r.ID, err)
		}
		r.LastFired = env.Now
		g.sink.Emit(AutoTriggerFired{RuleID: r.ID, EventID: id})
	}
	return nil
}
