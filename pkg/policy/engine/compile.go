package engine

import (
	"log/slog"

	"argus-hq/argus/pkg/policy/conditions"
	"argus-hq/argus/pkg/policy/schema"
)

// compiledRule is one rule bound to its evaluator closure. The closure is
// built once at load time; evaluation never re-inspects the raw conditions.
type compiledRule struct {
	document string
	rule     *schema.PolicyRule

	// eval is the compiled condition group predicate.
	eval func(*schema.EvaluationRequest) bool

	// explain mirrors eval but reports per-condition detail for dry-run.
	explain func(*schema.EvaluationRequest) []conditions.Explanation

	// loadOrder breaks priority ties: rules loaded earlier win.
	loadOrder int
}

// compiledDocument holds one document's compiled rules.
type compiledDocument struct {
	doc   *schema.PolicyDocument
	rules []*compiledRule
}

// compileDocument validates and compiles every enabled rule of a document.
// The loadOrder base keeps tie-breaking stable across documents.
func compileDocument(doc *schema.PolicyDocument, orderBase int, logger *slog.Logger) (*compiledDocument, error) {
	if err := schema.Validate(doc); err != nil {
		return nil, err
	}

	cd := &compiledDocument{doc: doc}
	for i, rule := range doc.Rules {
		cr := compileRule(doc.Name, rule, orderBase+i)
		cd.rules = append(cd.rules, cr)
		warnOnOpenAuthor(doc.Name, rule, logger)
	}
	return cd, nil
}

// compileRule builds the evaluator closure for one rule. An explicit
// condition_logic group supersedes the implicit AND of the conditions list;
// a rule with no conditions at all always matches.
func compileRule(document string, rule *schema.PolicyRule, loadOrder int) *compiledRule {
	var conds []*schema.PolicyCondition
	var op schema.LogicOperator

	if rule.ConditionLogic != nil {
		conds = rule.ConditionLogic.Conditions
		op = rule.ConditionLogic.Operator
	} else {
		conds = rule.Conditions
		op = schema.LogicAnd
	}

	eval := func(req *schema.EvaluationRequest) bool {
		return evalGroup(op, conds, req)
	}
	explain := func(req *schema.EvaluationRequest) []conditions.Explanation {
		out := make([]conditions.Explanation, 0, len(conds))
		for _, c := range conds {
			out = append(out, conditions.Explain(c, req))
		}
		return out
	}

	return &compiledRule{
		document:  document,
		rule:      rule,
		eval:      eval,
		explain:   explain,
		loadOrder: loadOrder,
	}
}

// evalGroup applies the boolean combinator over the member conditions. Zero
// conditions under AND means the rule always matches.
func evalGroup(op schema.LogicOperator, conds []*schema.PolicyCondition, req *schema.EvaluationRequest) bool {
	switch op {
	case schema.LogicOr:
		for _, c := range conds {
			if conditions.Evaluate(c, req) {
				return true
			}
		}
		return false

	case schema.LogicNot:
		// Validation guarantees exactly one member.
		if len(conds) != 1 {
			return false
		}
		return !conditions.Evaluate(conds[0], req)

	default: // and
		for _, c := range conds {
			if !conditions.Evaluate(c, req) {
				return false
			}
		}
		return true
	}
}

// warnOnOpenAuthor flags author conditions with no filter lists attached to
// restrictive effects: such a condition matches every actor, which is rarely
// what a deny or require_approval rule intends.
func warnOnOpenAuthor(document string, rule *schema.PolicyRule, logger *slog.Logger) {
	if rule.Action.Effect != schema.EffectDeny && rule.Action.Effect != schema.EffectRequireApproval {
		return
	}

	check := func(c *schema.PolicyCondition) {
		if c != nil && c.Kind == schema.KindAuthor &&
			len(c.Authors) == 0 && len(c.Roles) == 0 && len(c.Teams) == 0 {
			logger.Warn("author condition with no filters matches every actor",
				"document", document,
				"rule_id", rule.ID,
				"effect", rule.Action.Effect,
			)
		}
	}

	for _, c := range rule.Conditions {
		check(c)
	}
	if rule.ConditionLogic != nil {
		for _, c := range rule.ConditionLogic.Conditions {
			check(c)
		}
	}
}
