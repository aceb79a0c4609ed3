package schema

import (
	"time"
)

// EvaluationRequest describes one action a caller wants the policy engine to
// gate. Requests are created fresh per evaluation and never mutated by the
// engine.
type EvaluationRequest struct {
	// Actor is who (or what) is performing the action.
	Actor Actor `json:"actor"`

	// Action is what is being attempted.
	Action ActionInfo `json:"action"`

	// Resource is what the action targets.
	Resource ResourceInfo `json:"resource"`

	// Context carries the logical timestamp and any approvals already
	// granted for this action.
	Context RequestContext `json:"context"`

	// Attributes is an open-ended bag consulted by custom conditions.
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Actor identifies the human, service, or agent performing the action.
type Actor struct {
	ID    string   `json:"id"`
	Roles []string `json:"roles,omitempty"`
	Teams []string `json:"teams,omitempty"`
}

// ActionInfo names the attempted action. AgentType and Confidence are set
// when the actor is an autonomous agent.
type ActionInfo struct {
	Name       string   `json:"name"`
	AgentType  string   `json:"agent_type,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// ResourceInfo describes the target of the action.
type ResourceInfo struct {
	// Complexity is a caller-computed score (e.g. cyclomatic complexity of
	// a change). Nil means unknown; complexity conditions then never match.
	Complexity *float64 `json:"complexity,omitempty"`

	Files      []string `json:"files,omitempty"`
	Repository string   `json:"repository,omitempty"`
	Branch     string   `json:"branch,omitempty"`
	Labels     []string `json:"labels,omitempty"`

	// Protected marks protected-branch resources, which raise the approval
	// floor to two distinct human approvers.
	Protected bool `json:"protected,omitempty"`
}

// RequestContext carries evaluation-time context.
type RequestContext struct {
	// Timestamp is the logical time of the action. Time-window conditions
	// evaluate against this, never against the wall clock.
	Timestamp time.Time `json:"timestamp"`

	// Approvals already granted for this action, consulted when computing
	// missing approval requirements.
	Approvals []ExistingApproval `json:"approvals,omitempty"`
}

// ExistingApproval records one approval already present on the action.
type ExistingApproval struct {
	ApproverID string   `json:"approver_id"`
	Human      bool     `json:"human"`
	Scopes     []string `json:"scopes,omitempty"`
}

// EvaluationResult is the engine's decision for one request. Produced once
// per evaluation call and immutable thereafter.
type EvaluationResult struct {
	// Allowed is false only for deny and for require_approval with unmet
	// requirements.
	Allowed bool `json:"allowed"`

	// Effect is the decisive effect.
	Effect Effect `json:"effect"`

	// Reason explains the decision.
	Reason string `json:"reason,omitempty"`

	// MatchedRule references the decisive rule, nil when the default
	// effect applied.
	MatchedRule *MatchedRuleRef `json:"matched_rule,omitempty"`

	// RequiredActions aggregates outstanding approval and notification
	// requirements for require_approval decisions.
	RequiredActions *RequiredActions `json:"required_actions,omitempty"`

	// Metadata describes the evaluation itself.
	Metadata EvaluationMetadata `json:"metadata"`
}

// MatchedRuleRef points at the rule that produced the decision.
type MatchedRuleRef struct {
	DocumentName string `json:"document_name"`
	RuleID       string `json:"rule_id"`
	RuleName     string `json:"rule_name,omitempty"`
	Priority     int    `json:"priority"`
}

// RequiredActions aggregates what must still happen before the action may
// proceed.
type RequiredActions struct {
	// ApprovalsNeeded is the number of further distinct human approvals
	// required.
	ApprovalsNeeded int `json:"approvals_needed"`

	// MissingScopes are required approval scopes not yet present among
	// existing approvals.
	MissingScopes []string `json:"missing_scopes,omitempty"`

	// NotificationChannels accumulates channels from every matching rule.
	NotificationChannels []string `json:"notification_channels,omitempty"`
}

// EvaluationMetadata describes a single evaluation pass.
type EvaluationMetadata struct {
	// EvaluationID uniquely identifies this evaluation call.
	EvaluationID string `json:"evaluation_id"`

	EvaluatedAt       time.Time     `json:"evaluated_at"`
	EvaluationTime    time.Duration `json:"evaluation_time"`
	RulesEvaluated    int           `json:"rules_evaluated"`
	PoliciesEvaluated int           `json:"policies_evaluated"`
}
