package ruleengine

import (
	"testing"
	"time"

	"github.com/globalprime/inventory-platform/domain/rule"
)

func activeRule(id string, priority int, conditions []rule.Condition, actions []rule.Action) *rule.Rule {
	return &rule.Rule{
		ID:            id,
		Version:       1,
		Type:          rule.TypeInventoryInclusion,
		Priority:      priority,
		Status:        rule.StatusActive,
		EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Conditions:    conditions,
		Actions:       actions,
	}
}

func TestEvaluateMatchesSingleCondition(t *testing.T) {
	snap := &rule.Snapshot{Rules: []*rule.Rule{
		activeRule("R1", 10,
			[]rule.Condition{{Attribute: "market", Operator: rule.OpEquals, Value: "JP"}},
			[]rule.Action{{Type: rule.ActionExcludeSet, Parameters: map[string]interface{}{"category": "slab"}}},
		),
	}}

	facts := Facts(`{"market":"JP"}`)
	out, err := Evaluate(snap, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), rule.TypeInventoryInclusion, "JP", facts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.MatchedRules) != 1 || out.MatchedRules[0] != "R1" {
		t.Errorf("expected R1 matched, got %v", out.MatchedRules)
	}
	if len(out.ExcludeSetDelta) != 1 {
		t.Errorf("expected one exclude delta, got %d", len(out.ExcludeSetDelta))
	}
}

func TestEvaluateSkipsNonMatchingCondition(t *testing.T) {
	snap := &rule.Snapshot{Rules: []*rule.Rule{
		activeRule("R1", 10,
			[]rule.Condition{{Attribute: "market", Operator: rule.OpEquals, Value: "JP"}},
			[]rule.Action{{Type: rule.ActionApprove}},
		),
	}}

	facts := Facts(`{"market":"US"}`)
	out, err := Evaluate(snap, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), rule.TypeInventoryInclusion, "US", facts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.MatchedRules) != 0 {
		t.Errorf("expected no matches, got %v", out.MatchedRules)
	}
	if out.Decision != "" {
		t.Errorf("expected no decision, got %s", out.Decision)
	}
}

func TestEvaluateAndCombinatorRequiresBoth(t *testing.T) {
	conditions := []rule.Condition{
		{Attribute: "market", Operator: rule.OpEquals, Value: "JP", LogicalOp: rule.LogicalAnd},
		{Attribute: "qty", Operator: rule.OpGreaterThan, Value: float64(100)},
	}
	snap := &rule.Snapshot{Rules: []*rule.Rule{
		activeRule("R1", 10, conditions, []rule.Action{{Type: rule.ActionReview}}),
	}}

	facts := Facts(`{"market":"JP","qty":50}`)
	out, _ := Evaluate(snap, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), rule.TypeInventoryInclusion, "JP", facts)
	if len(out.MatchedRules) != 0 {
		t.Errorf("expected AND to fail with qty below threshold, got %v", out.MatchedRules)
	}

	facts = Facts(`{"market":"JP","qty":150}`)
	out, _ = Evaluate(snap, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), rule.TypeInventoryInclusion, "JP", facts)
	if len(out.MatchedRules) != 1 {
		t.Errorf("expected AND to pass with qty above threshold, got %v", out.MatchedRules)
	}
}

func TestEvaluateOrCombinator(t *testing.T) {
	conditions := []rule.Condition{
		{Attribute: "market", Operator: rule.OpEquals, Value: "JP", LogicalOp: rule.LogicalOr},
		{Attribute: "market", Operator: rule.OpEquals, Value: "HK"},
	}
	snap := &rule.Snapshot{Rules: []*rule.Rule{
		activeRule("R1", 10, conditions, []rule.Action{{Type: rule.ActionApprove}}),
	}}

	facts := Facts(`{"market":"HK"}`)
	out, _ := Evaluate(snap, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), rule.TypeInventoryInclusion, "HK", facts)
	if len(out.MatchedRules) != 1 {
		t.Errorf("expected OR to match HK branch, got %v", out.MatchedRules)
	}
}

func TestEvaluateHigherPriorityRuleOverridesDecision(t *testing.T) {
	snap := &rule.Snapshot{Rules: []*rule.Rule{
		activeRule("R-low", 1, nil, []rule.Action{{Type: rule.ActionReject}}),
		activeRule("R-high", 100, nil, []rule.Action{{Type: rule.ActionApprove}}),
	}}

	out, err := Evaluate(snap, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), rule.TypeInventoryInclusion, "", Facts(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Decision != rule.ActionApprove {
		t.Errorf("expected higher-priority rule's approve to win, got %s", out.Decision)
	}
}

func TestEvaluateMissingAttributeDoesNotMatch(t *testing.T) {
	snap := &rule.Snapshot{Rules: []*rule.Rule{
		activeRule("R1", 10,
			[]rule.Condition{{Attribute: "nonexistent", Operator: rule.OpEquals, Value: "x"}},
			[]rule.Action{{Type: rule.ActionApprove}},
		),
	}}

	out, err := Evaluate(snap, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), rule.TypeInventoryInclusion, "", Facts(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.MatchedRules) != 0 {
		t.Errorf("expected no match on missing attribute, got %v", out.MatchedRules)
	}
}

func TestEvaluateInOperator(t *testing.T) {
	snap := &rule.Snapshot{Rules: []*rule.Rule{
		activeRule("R1", 10,
			[]rule.Condition{{Attribute: "market", Operator: rule.OpIn, Value: []interface{}{"JP", "HK", "TW"}}},
			[]rule.Action{{Type: rule.ActionReview}},
		),
	}}

	out, _ := Evaluate(snap, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), rule.TypeInventoryInclusion, "TW", Facts(`{"market":"TW"}`))
	if len(out.MatchedRules) != 1 {
		t.Errorf("expected match via in-list, got %v", out.MatchedRules)
	}
}

func TestEvaluateGvalExpressionThreshold(t *testing.T) {
	snap := &rule.Snapshot{Rules: []*rule.Rule{
		activeRule("R1", 10,
			[]rule.Condition{{Attribute: "qty", Operator: rule.OpGreaterThan, Value: "50.0 * 2"}},
			[]rule.Action{{Type: rule.ActionApprove}},
		),
	}}

	out, err := Evaluate(snap, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), rule.TypeInventoryInclusion, "", Facts(`{"qty":150}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.MatchedRules) != 1 {
		t.Errorf("expected 150 > (50*2) to match, got %v", out.MatchedRules)
	}
}
