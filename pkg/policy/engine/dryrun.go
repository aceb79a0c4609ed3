package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"argus-hq/argus/pkg/policy/conditions"
	"argus-hq/argus/pkg/policy/schema"
)

// RuleEvaluation reports how one rule fared during a dry run.
type RuleEvaluation struct {
	DocumentName string                   `json:"documentName"`
	RuleID       string                   `json:"ruleId"`
	RuleName     string                   `json:"ruleName,omitempty"`
	Priority     int                      `json:"priority"`
	Effect       schema.Effect            `json:"effect"`
	Matched      bool                     `json:"matched"`
	Conditions   []conditions.Explanation `json:"conditions,omitempty"`
}

// DryRunResult is the outcome of a dry-run evaluation: the decision a live
// evaluation would have produced, plus per-rule and per-condition detail for
// every enabled rule.
type DryRunResult struct {
	// WouldApply is the decision a live Evaluate call would return.
	WouldApply *schema.EvaluationResult `json:"wouldApply"`

	// Rules lists every enabled rule in evaluation order, including those
	// a live evaluation would have skipped after its terminating match.
	Rules []RuleEvaluation `json:"rules"`
}

// DryRun evaluates every enabled rule against the request without
// short-circuiting and without recording metrics. The returned decision
// follows the exact live semantics; the rule list shows what each rule would
// have contributed.
func (e *Engine) DryRun(ctx context.Context, req *schema.EvaluationRequest) (*DryRunResult, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	start := time.Now()
	rules, docCount := e.snapshot()

	var (
		decisive      *compiledRule
		approvalRules []*compiledRule
		channels      []string
		terminated    bool
	)

	evaluations := make([]RuleEvaluation, 0, len(rules))
	for _, cr := range rules {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		matched := cr.eval(req)
		evaluations = append(evaluations, RuleEvaluation{
			DocumentName: cr.document,
			RuleID:       cr.rule.ID,
			RuleName:     cr.rule.Name,
			Priority:     cr.rule.Priority,
			Effect:       cr.rule.Action.Effect,
			Matched:      matched,
			Conditions:   cr.explain(req),
		})

		// Past this point we replay the live decision semantics: once a
		// live scan would have stopped, later matches are recorded above
		// but no longer influence the decision.
		if !matched || terminated {
			continue
		}

		action := cr.rule.Action
		channels = appendChannels(channels, action.Notification)

		switch action.Effect {
		case schema.EffectDeny:
			decisive = cr
			terminated = true

		case schema.EffectRequireApproval:
			if decisive == nil || decisive.rule.Action.Effect == schema.EffectRequireApproval {
				approvalRules = append(approvalRules, cr)
			}
			if decisive == nil {
				decisive = cr
			}
			if e.config.StopOnFirstMatch {
				terminated = true
			}

		case schema.EffectAllow, schema.EffectWarn, schema.EffectLogOnly:
			if decisive == nil {
				decisive = cr
			}
			if !action.ContinueOnMatch {
				terminated = true
			}
		}
	}

	would := e.buildResult(req, decisive, approvalRules, channels)
	would.Metadata = schema.EvaluationMetadata{
		EvaluationID:      uuid.New().String(),
		EvaluatedAt:       start,
		EvaluationTime:    time.Since(start),
		RulesEvaluated:    len(evaluations),
		PoliciesEvaluated: docCount,
	}

	return &DryRunResult{
		WouldApply: would,
		Rules:      evaluations,
	}, nil
}
