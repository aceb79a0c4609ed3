package schema

import (
	"fmt"
)

var dayNames = map[string]bool{
	"mon": true, "tue": true, "wed": true, "thu": true,
	"fri": true, "sat": true, "sun": true,
}

// Validate checks a policy document for structural correctness. It returns a
// *ConflictError for duplicate rule IDs and a *ValidationError collecting
// every other problem found. A document that fails validation must not be
// loaded; there is no partial acceptance.
func Validate(doc *PolicyDocument) error {
	if doc == nil || (doc.Name == "" && len(doc.Rules) == 0) {
		return ErrEmptyDocument
	}

	var errs []string

	if doc.Name == "" {
		errs = append(errs, "document name is required")
	}
	if doc.Version == "" {
		errs = append(errs, "document version is required")
	}
	if len(doc.Rules) == 0 {
		errs = append(errs, "document has no rules")
	}

	seen := make(map[string]bool, len(doc.Rules))
	for i, rule := range doc.Rules {
		if rule == nil {
			errs = append(errs, fmt.Sprintf("rule %d is null", i))
			continue
		}
		if rule.ID == "" {
			errs = append(errs, fmt.Sprintf("rule %d: id is required", i))
		} else if seen[rule.ID] {
			// Duplicate IDs get their own error type so callers can
			// distinguish conflicts from shape problems.
			return &ConflictError{DocumentName: doc.Name, RuleID: rule.ID}
		} else {
			seen[rule.ID] = true
		}

		if !ValidEffect(rule.Action.Effect) {
			errs = append(errs, fmt.Sprintf("rule %q: unknown effect %q", rule.ID, rule.Action.Effect))
		}
		if rule.Action.Approval != nil && rule.Action.Approval.MinApprovers < 0 {
			errs = append(errs, fmt.Sprintf("rule %q: min_approvers cannot be negative", rule.ID))
		}

		if rule.ConditionLogic != nil {
			errs = append(errs, validateLogic(rule.ID, rule.ConditionLogic)...)
		}
		for j, cond := range rule.Conditions {
			errs = append(errs, validateCondition(fmt.Sprintf("rule %q condition %d", rule.ID, j), cond)...)
		}
	}

	if len(errs) > 0 {
		return &ValidationError{DocumentName: doc.Name, Errors: errs}
	}
	return nil
}

// validateLogic checks an explicit condition group.
func validateLogic(ruleID string, logic *ConditionLogic) []string {
	var errs []string

	switch logic.Operator {
	case LogicAnd, LogicOr:
		if len(logic.Conditions) == 0 {
			errs = append(errs, fmt.Sprintf("rule %q: %s group has no conditions", ruleID, logic.Operator))
		}
	case LogicNot:
		if len(logic.Conditions) != 1 {
			errs = append(errs, fmt.Sprintf("rule %q: not group must have exactly one condition, got %d", ruleID, len(logic.Conditions)))
		}
	default:
		errs = append(errs, fmt.Sprintf("rule %q: unknown logic operator %q", ruleID, logic.Operator))
	}

	for i, cond := range logic.Conditions {
		errs = append(errs, validateCondition(fmt.Sprintf("rule %q group condition %d", ruleID, i), cond)...)
	}
	return errs
}

// validateCondition checks the kind-specific fields of one condition.
func validateCondition(where string, cond *PolicyCondition) []string {
	if cond == nil {
		return []string{where + ": condition is null"}
	}

	var errs []string

	switch cond.Kind {
	case KindComplexity:
		if !validCompareOp(cond.Operator) {
			errs = append(errs, fmt.Sprintf("%s: invalid complexity operator %q", where, cond.Operator))
		}

	case KindFilePattern:
		if len(cond.Patterns) == 0 {
			errs = append(errs, where+": file_pattern requires at least one pattern")
		}
		if cond.MatchType != "" && cond.MatchType != MatchInclude && cond.MatchType != MatchExclude {
			errs = append(errs, fmt.Sprintf("%s: file_pattern match_type must be include or exclude, got %q", where, cond.MatchType))
		}

	case KindAuthor:
		// An author condition with no filter lists matches everything.
		// That is a deliberate (if surprising) modeling choice; the
		// engine warns about it at compile time for restrictive effects.

	case KindTimeWindow:
		for _, d := range cond.Days {
			if !dayNames[d] {
				errs = append(errs, fmt.Sprintf("%s: unknown day %q", where, d))
			}
		}
		if cond.StartHour < 0 || cond.StartHour > 23 {
			errs = append(errs, fmt.Sprintf("%s: start_hour %d out of range", where, cond.StartHour))
		}
		if cond.EndHour < 0 || cond.EndHour > 24 {
			errs = append(errs, fmt.Sprintf("%s: end_hour %d out of range", where, cond.EndHour))
		}
		if cond.MatchType != "" && cond.MatchType != MatchDuring && cond.MatchType != MatchOutside {
			errs = append(errs, fmt.Sprintf("%s: time_window match_type must be during or outside, got %q", where, cond.MatchType))
		}

	case KindRepository, KindBranch:
		// Empty filter lists are valid and match everything.

	case KindLabel:
		if cond.MatchType != "" && cond.MatchType != MatchAny && cond.MatchType != MatchAll && cond.MatchType != MatchNone {
			errs = append(errs, fmt.Sprintf("%s: label match_type must be any, all or none, got %q", where, cond.MatchType))
		}

	case KindAgent:
		if cond.Operator != "" && !validCompareOp(cond.Operator) {
			errs = append(errs, fmt.Sprintf("%s: invalid confidence operator %q", where, cond.Operator))
		}

	case KindCustom:
		if cond.Field == "" {
			errs = append(errs, where+": custom condition requires a field")
		}
		if !validCustomOp(cond.CustomOperator) {
			errs = append(errs, fmt.Sprintf("%s: unknown custom operator %q", where, cond.CustomOperator))
		}

	default:
		errs = append(errs, fmt.Sprintf("%s: unknown condition type %q", where, cond.Kind))
	}

	return errs
}

func validCompareOp(op CompareOp) bool {
	switch op {
	case OpGreaterThan, OpGreaterEqual, OpLessThan, OpLessEqual, OpEqual:
		return true
	default:
		return false
	}
}

func validCustomOp(op CustomOp) bool {
	switch op {
	case CustomEqual, CustomNotEqual, CustomGreaterThan, CustomGreaterEqual,
		CustomLessThan, CustomLessEqual, CustomIn, CustomNotIn,
		CustomContains, CustomMatches, CustomExists:
		return true
	default:
		return false
	}
}
