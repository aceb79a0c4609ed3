package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"argus-hq/argus/pkg/policy/schema"
	"argus-hq/argus/pkg/telemetry/metrics"
)

// Engine holds the compiled rule sets of all loaded policy documents and
// evaluates requests against them. Construct one Engine per tenant or test;
// there is no shared global state, so separate engines are independent by
// construction.
type Engine struct {
	// mu guards docs and the flattened rule order. Evaluations hold the
	// read lock; Load/Unload hold the write lock.
	mu sync.RWMutex

	// docs maps document name to its compiled rules.
	docs map[string]*compiledDocument

	// ordered is the flattened rule list, sorted descending by priority
	// with load order breaking ties. Rebuilt on every Load/Unload.
	ordered []*compiledRule

	// nextOrder is the monotonically increasing load-order counter.
	nextOrder int

	config  *Config
	logger  *slog.Logger
	metrics *metrics.PolicyMetrics
}

// New creates a policy engine. The metrics argument may be nil, in which
// case no metrics are recorded.
func New(config *Config, logger *slog.Logger, pm *metrics.PolicyMetrics) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		docs:    make(map[string]*compiledDocument),
		config:  config,
		logger:  logger.With("component", "policy.engine"),
		metrics: pm,
	}, nil
}

// Load validates, compiles, and installs a policy document. A document with
// the same name replaces the previous compiled set atomically; evaluations
// in flight see either the old or the new set, never a mixture. A document
// failing validation leaves engine state untouched.
func (e *Engine) Load(doc *schema.PolicyDocument) error {
	if doc == nil {
		return schema.ErrEmptyDocument
	}
	if len(doc.Rules) > e.config.MaxRulesPerDocument {
		return &LimitError{DocumentName: doc.Name, Limit: "rules per document", Max: e.config.MaxRulesPerDocument, Got: len(doc.Rules)}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.docs[doc.Name]; !exists && len(e.docs) >= e.config.MaxDocuments {
		return &LimitError{DocumentName: doc.Name, Limit: "documents", Max: e.config.MaxDocuments, Got: len(e.docs) + 1}
	}

	// Compile outside of engine state: a failure must not leave a
	// half-loaded document behind.
	cd, err := compileDocument(doc, e.nextOrder, e.logger)
	if err != nil {
		return err
	}
	e.nextOrder += len(doc.Rules)

	e.docs[doc.Name] = cd
	e.rebuildOrder()

	e.logger.Info("policy document loaded",
		"document", doc.Name,
		"version", doc.Version,
		"rule_count", len(doc.Rules),
	)
	return nil
}

// Unload removes a document's compiled rules.
func (e *Engine) Unload(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.docs[name]; !ok {
		return &NotFoundError{DocumentName: name}
	}
	delete(e.docs, name)
	e.rebuildOrder()

	e.logger.Info("policy document unloaded", "document", name)
	return nil
}

// DocumentNames returns the names of all loaded documents, sorted.
func (e *Engine) DocumentNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.docs))
	for name := range e.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// rebuildOrder flattens enabled rules across documents into evaluation
// order: descending priority, stable on load order. Callers hold mu.
func (e *Engine) rebuildOrder() {
	var rules []*compiledRule
	for _, cd := range e.docs {
		for _, cr := range cd.rules {
			if cr.rule.IsEnabled() {
				rules = append(rules, cr)
			}
		}
	}
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].rule.Priority != rules[j].rule.Priority {
			return rules[i].rule.Priority > rules[j].rule.Priority
		}
		return rules[i].loadOrder < rules[j].loadOrder
	})
	e.ordered = rules
}

// snapshot returns the current rule order and document count under the read
// lock. The returned slice is never mutated after publication.
func (e *Engine) snapshot() ([]*compiledRule, int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ordered, len(e.docs)
}

// Evaluate decides whether the requested action is allowed. Evaluation of a
// loaded (hence validated) rule set never fails; the only errors are a nil
// request or a cancelled context.
func (e *Engine) Evaluate(ctx context.Context, req *schema.EvaluationRequest) (*schema.EvaluationResult, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	start := time.Now()
	rules, docCount := e.snapshot()

	var (
		decisive      *compiledRule
		approvalRules []*compiledRule
		channels      []string
		evaluated     int
	)

scan:
	for _, cr := range rules {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		evaluated++
		if !cr.eval(req) {
			if e.metrics != nil {
				e.metrics.RecordMiss(cr.rule.ID)
			}
			continue
		}
		if e.metrics != nil {
			e.metrics.RecordHit(cr.rule.ID)
		}

		action := cr.rule.Action
		channels = appendChannels(channels, action.Notification)

		switch action.Effect {
		case schema.EffectDeny:
			// Deny is absolute: continue_on_match is ignored and no
			// later rule can change the outcome.
			decisive = cr
			break scan

		case schema.EffectRequireApproval:
			if decisive == nil || decisive.rule.Action.Effect == schema.EffectRequireApproval {
				approvalRules = append(approvalRules, cr)
			}
			if decisive == nil {
				decisive = cr
			}
			if e.config.StopOnFirstMatch {
				break scan
			}

		case schema.EffectAllow, schema.EffectWarn, schema.EffectLogOnly:
			if decisive == nil {
				decisive = cr
			}
			if !action.ContinueOnMatch {
				break scan
			}
		}
	}

	result := e.buildResult(req, decisive, approvalRules, channels)
	result.Metadata = schema.EvaluationMetadata{
		EvaluationID:      uuid.New().String(),
		EvaluatedAt:       start,
		EvaluationTime:    time.Since(start),
		RulesEvaluated:    evaluated,
		PoliciesEvaluated: docCount,
	}

	if e.metrics != nil {
		ruleID := "default"
		if decisive != nil {
			ruleID = decisive.rule.ID
		}
		e.metrics.RecordEvaluation(ruleID, string(result.Effect), result.Metadata.EvaluationTime)
	}

	e.logger.Debug("request evaluated",
		"evaluation_id", result.Metadata.EvaluationID,
		"effect", result.Effect,
		"allowed", result.Allowed,
		"rules_evaluated", evaluated,
	)

	return result, nil
}

// buildResult assembles the final decision from the scan outcome.
func (e *Engine) buildResult(req *schema.EvaluationRequest, decisive *compiledRule, approvalRules []*compiledRule, channels []string) *schema.EvaluationResult {
	if decisive == nil {
		return &schema.EvaluationResult{
			Allowed: e.config.DefaultEffect != schema.EffectDeny,
			Effect:  e.config.DefaultEffect,
			Reason:  fmt.Sprintf("no rule matched; default effect %q applied", e.config.DefaultEffect),
		}
	}

	action := decisive.rule.Action
	result := &schema.EvaluationResult{
		Effect: action.Effect,
		Reason: action.Reason,
		MatchedRule: &schema.MatchedRuleRef{
			DocumentName: decisive.document,
			RuleID:       decisive.rule.ID,
			RuleName:     decisive.rule.Name,
			Priority:     decisive.rule.Priority,
		},
	}
	if result.Reason == "" {
		result.Reason = fmt.Sprintf("matched rule %q in document %q", decisive.rule.ID, decisive.document)
	}

	switch action.Effect {
	case schema.EffectDeny:
		result.Allowed = false

	case schema.EffectRequireApproval:
		required := computeRequiredActions(approvalRules, req)
		required.NotificationChannels = dedupe(channels)
		result.RequiredActions = required
		result.Allowed = required.ApprovalsNeeded == 0 && len(required.MissingScopes) == 0

	case schema.EffectAllow, schema.EffectWarn, schema.EffectLogOnly:
		result.Allowed = true
	}

	if len(channels) > 0 && result.RequiredActions == nil {
		result.RequiredActions = &schema.RequiredActions{NotificationChannels: dedupe(channels)}
	}
	return result
}

// appendChannels accumulates notification channels from a matching rule.
func appendChannels(channels []string, n *schema.NotificationTarget) []string {
	if n == nil {
		return channels
	}
	return append(channels, n.Channels...)
}

// dedupe removes duplicates preserving first-seen order.
func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
