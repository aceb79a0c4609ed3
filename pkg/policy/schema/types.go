package schema

// Effect is the decision a matching rule produces.
type Effect string

const (
	// EffectAllow explicitly permits the action.
	EffectAllow Effect = "allow"

	// EffectDeny blocks the action. Deny is absolute: once a deny rule
	// matches, evaluation stops and no later rule can change the outcome.
	EffectDeny Effect = "deny"

	// EffectRequireApproval permits the action only once the accumulated
	// approval requirements are satisfied.
	EffectRequireApproval Effect = "require_approval"

	// EffectWarn permits the action but surfaces a warning to the caller.
	EffectWarn Effect = "warn"

	// EffectLogOnly permits the action and only records that the rule matched.
	EffectLogOnly Effect = "log_only"
)

// ValidEffect reports whether e is one of the five known effects.
func ValidEffect(e Effect) bool {
	switch e {
	case EffectAllow, EffectDeny, EffectRequireApproval, EffectWarn, EffectLogOnly:
		return true
	default:
		return false
	}
}

// ConditionKind identifies the variant of a PolicyCondition.
type ConditionKind string

const (
	KindComplexity  ConditionKind = "complexity"
	KindFilePattern ConditionKind = "file_pattern"
	KindAuthor      ConditionKind = "author"
	KindTimeWindow  ConditionKind = "time_window"
	KindRepository  ConditionKind = "repository"
	KindBranch      ConditionKind = "branch"
	KindLabel       ConditionKind = "label"
	KindAgent       ConditionKind = "agent"
	KindCustom      ConditionKind = "custom"
)

// ConditionKinds lists every known condition kind in declaration order.
var ConditionKinds = []ConditionKind{
	KindComplexity, KindFilePattern, KindAuthor, KindTimeWindow,
	KindRepository, KindBranch, KindLabel, KindAgent, KindCustom,
}

// CompareOp is the numeric comparison operator used by the complexity and
// agent-confidence conditions.
type CompareOp string

const (
	OpGreaterThan  CompareOp = "gt"
	OpGreaterEqual CompareOp = "gte"
	OpLessThan     CompareOp = "lt"
	OpLessEqual    CompareOp = "lte"
	OpEqual        CompareOp = "eq"
)

// CustomOp is the operator set available to the custom condition.
type CustomOp string

const (
	CustomEqual        CustomOp = "eq"
	CustomNotEqual     CustomOp = "ne"
	CustomGreaterThan  CustomOp = "gt"
	CustomGreaterEqual CustomOp = "gte"
	CustomLessThan     CustomOp = "lt"
	CustomLessEqual    CustomOp = "lte"
	CustomIn           CustomOp = "in"
	CustomNotIn        CustomOp = "nin"
	CustomContains     CustomOp = "contains"
	CustomMatches      CustomOp = "matches"
	CustomExists       CustomOp = "exists"
)

// MatchType inverts or scopes a condition's match semantics. Its meaning is
// kind-specific: include/exclude for file_pattern, during/outside for
// time_window, any/all/none for label.
type MatchType string

const (
	MatchInclude MatchType = "include"
	MatchExclude MatchType = "exclude"
	MatchDuring  MatchType = "during"
	MatchOutside MatchType = "outside"
	MatchAny     MatchType = "any"
	MatchAll     MatchType = "all"
	MatchNone    MatchType = "none"
)

// LogicOperator combines conditions in a ConditionLogic group.
type LogicOperator string

const (
	LogicAnd LogicOperator = "and"
	LogicOr  LogicOperator = "or"
	LogicNot LogicOperator = "not"
)

// PolicyDocument is a named, versioned set of rules. Documents are immutable
// once loaded into the engine; reloading a document with the same name
// atomically replaces its compiled rule set.
type PolicyDocument struct {
	// Version is the document format version (e.g. "1").
	Version string `yaml:"version" json:"version"`

	// Name identifies the document; it is the key under which the engine
	// stores the compiled rule set.
	Name string `yaml:"name" json:"name"`

	// Rules are evaluated in descending priority order.
	Rules []*PolicyRule `yaml:"rules" json:"rules"`

	// Source is the file the document was loaded from. Set by the loader;
	// empty for documents constructed in memory. Never serialized.
	Source string `yaml:"-" json:"-"`
}

// PolicyRule is a (priority, condition-set, action) triple.
type PolicyRule struct {
	// ID is unique within the owning document.
	ID string `yaml:"id" json:"id"`

	// Name is the human-readable rule name.
	Name string `yaml:"name" json:"name"`

	// Enabled defaults to true when omitted. Disabled rules are never
	// evaluated, not even in dry-run.
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`

	// Priority orders rules across all loaded documents; higher evaluates
	// first. Ties preserve document load order.
	Priority int `yaml:"priority" json:"priority"`

	// Conditions are implicitly AND-ed unless ConditionLogic is present.
	Conditions []*PolicyCondition `yaml:"conditions,omitempty" json:"conditions,omitempty"`

	// ConditionLogic, when present, supersedes the implicit AND of
	// Conditions.
	ConditionLogic *ConditionLogic `yaml:"condition_logic,omitempty" json:"condition_logic,omitempty"`

	// Action is what the rule produces on match.
	Action RuleAction `yaml:"action" json:"action"`
}

// IsEnabled reports whether the rule participates in evaluation.
func (r *PolicyRule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// ConditionLogic is an explicit boolean combination of conditions.
type ConditionLogic struct {
	// Operator is and, or, or not. A not group must contain exactly one
	// condition.
	Operator LogicOperator `yaml:"operator" json:"operator"`

	// Conditions are the group members.
	Conditions []*PolicyCondition `yaml:"conditions" json:"conditions"`
}

// PolicyCondition is a tagged variant: Kind selects which of the remaining
// fields are meaningful. Conditions own no state; each is a pure predicate
// over an EvaluationRequest and safe for concurrent use.
type PolicyCondition struct {
	// Kind selects the condition variant.
	Kind ConditionKind `yaml:"type" json:"type"`

	// Operator and Threshold drive the complexity condition, and the
	// optional confidence comparator of the agent condition.
	Operator  CompareOp `yaml:"operator,omitempty" json:"operator,omitempty"`
	Threshold float64   `yaml:"threshold,omitempty" json:"threshold,omitempty"`

	// Patterns and MatchType drive the file_pattern condition. Globs
	// support *, ** and ?.
	Patterns  []string  `yaml:"patterns,omitempty" json:"patterns,omitempty"`
	MatchType MatchType `yaml:"match_type,omitempty" json:"match_type,omitempty"`

	// Authors, Roles and Teams drive the author condition. When all three
	// are empty the condition matches unconditionally.
	Authors []string `yaml:"authors,omitempty" json:"authors,omitempty"`
	Roles   []string `yaml:"roles,omitempty" json:"roles,omitempty"`
	Teams   []string `yaml:"teams,omitempty" json:"teams,omitempty"`

	// Days, StartHour and EndHour drive the time_window condition. Days are
	// lowercase three-letter names (mon..sun); hours are 0-23 and the
	// window is [StartHour, EndHour).
	Days      []string `yaml:"days,omitempty" json:"days,omitempty"`
	StartHour int      `yaml:"start_hour,omitempty" json:"start_hour,omitempty"`
	EndHour   int      `yaml:"end_hour,omitempty" json:"end_hour,omitempty"`

	// Repositories and Branches drive the repository and branch conditions
	// respectively; entries may be exact names or globs. Empty lists match
	// everything.
	Repositories []string `yaml:"repositories,omitempty" json:"repositories,omitempty"`
	Branches     []string `yaml:"branches,omitempty" json:"branches,omitempty"`

	// Labels drives the label condition together with MatchType
	// (any/all/none).
	Labels []string `yaml:"labels,omitempty" json:"labels,omitempty"`

	// AgentTypes drives the agent condition; Operator/Threshold add an
	// optional confidence comparator.
	AgentTypes []string `yaml:"agent_types,omitempty" json:"agent_types,omitempty"`

	// Field, CustomOperator and Value drive the custom condition against
	// the request's free-form attribute map.
	Field          string      `yaml:"field,omitempty" json:"field,omitempty"`
	CustomOperator CustomOp    `yaml:"custom_operator,omitempty" json:"custom_operator,omitempty"`
	Value          interface{} `yaml:"value,omitempty" json:"value,omitempty"`
}

// RuleAction is what a matching rule produces.
type RuleAction struct {
	// Effect is the decision (allow, deny, require_approval, warn,
	// log_only).
	Effect Effect `yaml:"effect" json:"effect"`

	// Reason is surfaced in the evaluation result.
	Reason string `yaml:"reason,omitempty" json:"reason,omitempty"`

	// Approval declares approval requirements for require_approval rules.
	Approval *ApprovalRequirement `yaml:"approval,omitempty" json:"approval,omitempty"`

	// Notification declares channels to notify when the rule matches.
	Notification *NotificationTarget `yaml:"notification,omitempty" json:"notification,omitempty"`

	// ContinueOnMatch lets evaluation continue past this rule. Ignored for
	// deny, which always terminates evaluation.
	ContinueOnMatch bool `yaml:"continue_on_match,omitempty" json:"continue_on_match,omitempty"`
}

// ApprovalRequirement describes the approvals a require_approval rule demands.
type ApprovalRequirement struct {
	// MinApprovers is the minimum number of distinct human approvers.
	// Protected-branch resources raise the floor to two.
	MinApprovers int `yaml:"min_approvers,omitempty" json:"min_approvers,omitempty"`

	// RequiredScopes are approval scopes (e.g. "security", "release") that
	// must be present among existing approvals.
	RequiredScopes []string `yaml:"required_scopes,omitempty" json:"required_scopes,omitempty"`
}

// NotificationTarget names channels to notify on match. Delivery is the
// caller's concern; the engine only accumulates targets.
type NotificationTarget struct {
	Channels []string `yaml:"channels,omitempty" json:"channels,omitempty"`
	Message  string   `yaml:"message,omitempty" json:"message,omitempty"`
}
