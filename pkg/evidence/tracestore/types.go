package tracestore

import (
	"context"
	"time"
)

// DecisionTrace is one recorded agent decision.
type DecisionTrace struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	RunID     string    `json:"run_id"`
	AgentType string    `json:"agent_type"`
	Timestamp time.Time `json:"timestamp"`

	// Action is what the agent attempted, e.g. "merge", "deploy".
	Action string `json:"action"`

	// Decision is the recorded outcome: "proceed", "abort", "escalate".
	Decision string `json:"decision"`

	// Confidence is the agent's self-reported confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// Sensitive marks decisions touching protected data or resources.
	Sensitive bool `json:"sensitive"`

	Details map[string]interface{} `json:"details,omitempty"`
}

// Filter selects traces. Zero-valued fields are ignored.
type Filter struct {
	TenantID  string
	RunID     string
	AgentType string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
}

// Store is the decision-trace storage contract.
type Store interface {
	// Insert persists one trace.
	Insert(ctx context.Context, trace *DecisionTrace) error

	// Query returns traces matching the filter in ascending timestamp
	// order.
	Query(ctx context.Context, filter *Filter) ([]*DecisionTrace, error)

	// Close releases storage resources.
	Close() error
}
