package log

// highRiskActionTypes is the fixed allow-list of action types that are
// flagged high-risk at append time regardless of what the caller set.
var highRiskActionTypes = map[string]bool{
	"force_push":         true,
	"secret_delete":      true,
	"policy_rule_delete": true,
	"bulk_delete":        true,
	"log_seal":           true,
}

// IsHighRiskAction reports whether actionType is on the auto-flag list.
func IsHighRiskAction(actionType string) bool {
	return highRiskActionTypes[actionType]
}
