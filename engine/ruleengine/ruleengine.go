// Package ruleengine implements the rule engine (C8): evaluation of
// versioned, market-scoped rules against a fact document, composing
// non-conflicting actions and resolving conflicts by priority.
package ruleengine

import (
	"fmt"
	"time"

	"github.com/PaesslerAG/gval"
	"github.com/hashicorp/go-multierror"
	"github.com/tidwall/gjson"

	"github.com/globalprime/inventory-platform/domain/rule"
)

// Facts is the JSON document a rule's conditions are evaluated against:
// security attributes, current availability, running totals, whatever
// the caller assembles for this evaluation.
type Facts []byte

// Get extracts one attribute out of the fact document by gjson path,
// the §4.8 "attribute" half of a condition.
func (f Facts) Get(path string) gjson.Result {
	return gjson.GetBytes(f, path)
}

// Outcome is the structured action record C8 returns to its caller
// (§4.8 step 3): include/exclude set deltas, an approve/reject/review
// decision, and numeric adjustments, composed from every matching rule's
// actions in priority order.
type Outcome struct {
	Decision        rule.ActionType // ActionApprove, ActionReject, ActionReview, or "" if no decision action matched
	IncludeSetDelta []map[string]interface{}
	ExcludeSetDelta []map[string]interface{}
	NumericAdjust   []map[string]interface{}
	MatchedRules    []string
}

// Evaluate runs every candidate rule in snap applicable to (typ, market)
// at t against facts, composing non-conflicting actions and letting
// higher-priority rules override conflicting decisions.
func Evaluate(snap *rule.Snapshot, t time.Time, typ rule.Type, market string, facts Facts) (Outcome, error) {
	var out Outcome
	var errs *multierror.Error

	for _, r := range snap.Candidates(t, typ, market) {
		matched, err := evalConditions(r.Conditions, facts)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("rule %s: %w", r.ID, err))
			continue
		}
		if !matched {
			continue
		}

		out.MatchedRules = append(out.MatchedRules, r.ID)
		for _, a := range r.Actions {
			applyAction(&out, a)
		}
	}

	return out, errs.ErrorOrNil()
}

// applyAction folds one action into the accumulating Outcome. Decision
// actions (approve/reject/review) from a later (higher-priority) rule in
// the candidate order override an earlier one, matching §4.8 "on
// conflict, higher priority wins" since Candidates is priority-ascending.
func applyAction(out *Outcome, a rule.Action) {
	switch a.Type {
	case rule.ActionApprove, rule.ActionReject, rule.ActionReview:
		out.Decision = a.Type
	case rule.ActionIncludeSet:
		out.IncludeSetDelta = append(out.IncludeSetDelta, a.Parameters)
	case rule.ActionExcludeSet:
		out.ExcludeSetDelta = append(out.ExcludeSetDelta, a.Parameters)
	case rule.ActionNumericAdjust:
		out.NumericAdjust = append(out.NumericAdjust, a.Parameters)
	}
}

// evalConditions evaluates an ordered condition list, combining adjacent
// results with each condition's LogicalOp (the operator joining it to the
// next condition; the last condition's LogicalOp is ignored).
func evalConditions(conditions []rule.Condition, facts Facts) (bool, error) {
	if len(conditions) == 0 {
		return true, nil
	}

	result, err := evalCondition(conditions[0], facts)
	if err != nil {
		return false, err
	}

	for i := 1; i < len(conditions); i++ {
		next, err := evalCondition(conditions[i], facts)
		if err != nil {
			return false, err
		}
		switch conditions[i-1].LogicalOp {
		case rule.LogicalOr:
			result = result || next
		default: // rule.LogicalAnd and unset default to AND
			result = result && next
		}
	}

	return result, nil
}

func evalCondition(c rule.Condition, facts Facts) (bool, error) {
	actual := facts.Get(c.Attribute)
	if !actual.Exists() {
		return false, nil
	}

	switch c.Operator {
	case rule.OpEquals:
		return actual.String() == fmt.Sprint(c.Value), nil
	case rule.OpNotEquals:
		return actual.String() != fmt.Sprint(c.Value), nil
	case rule.OpGreaterThan:
		return compareNumeric(actual, c.Value, func(a, b float64) bool { return a > b })
	case rule.OpLessThan:
		return compareNumeric(actual, c.Value, func(a, b float64) bool { return a < b })
	case rule.OpContains:
		return containsString(actual.String(), c.Value), nil
	case rule.OpIn:
		return inList(actual.String(), c.Value), nil
	default:
		return false, fmt.Errorf("unsupported operator %q", c.Operator)
	}
}

func compareNumeric(actual gjson.Result, literal interface{}, cmp func(a, b float64) bool) (bool, error) {
	target, ok := literal.(float64)
	if !ok {
		// Allow expression literals (e.g. "50.0 * 2") via gval for
		// derived numeric thresholds. The expression is evaluated with no
		// parameters, so it cannot reference facts.
		expr, ok := literal.(string)
		if !ok {
			return false, fmt.Errorf("numeric comparison requires a float64 or gval expression literal")
		}
		evaluated, err := gval.Evaluate(expr, nil)
		if err != nil {
			return false, fmt.Errorf("evaluate threshold expression %q: %w", expr, err)
		}
		f, ok := evaluated.(float64)
		if !ok {
			return false, fmt.Errorf("threshold expression %q did not evaluate to a number", expr)
		}
		target = f
	}
	return cmp(actual.Float(), target), nil
}

func containsString(actual string, literal interface{}) bool {
	s, ok := literal.(string)
	if !ok {
		return false
	}
	return len(actual) >= len(s) && indexOf(actual, s) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func inList(actual string, literal interface{}) bool {
	list, ok := literal.([]interface{})
	if !ok {
		return false
	}
	for _, v := range list {
		if fmt.Sprint(v) == actual {
			return true
		}
	}
	return false
}
