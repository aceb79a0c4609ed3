package engine

import (
	"sort"

	"argus-hq/argus/pkg/policy/schema"
)

// computeRequiredActions merges approval requirements across every matching
// require_approval rule and subtracts what the request already carries.
//
// The approver floor is 2 for protected resources and 1 otherwise; a rule may
// raise the count above the floor via min_approvers but never lower it.
// Agent-issued approvals never count toward the approver total, and scopes
// they carry never satisfy required scopes.
func computeRequiredActions(rules []*compiledRule, req *schema.EvaluationRequest) *schema.RequiredActions {
	floor := 1
	if req.Resource.Protected {
		floor = 2
	}

	required := floor
	scopeSet := make(map[string]bool)
	for _, cr := range rules {
		approval := cr.rule.Action.Approval
		if approval == nil {
			continue
		}
		if approval.MinApprovers > required {
			required = approval.MinApprovers
		}
		for _, scope := range approval.RequiredScopes {
			scopeSet[scope] = true
		}
	}

	humanApprovers := make(map[string]bool)
	presentScopes := make(map[string]bool)
	for _, a := range req.Context.Approvals {
		if !a.Human {
			continue
		}
		humanApprovers[a.ApproverID] = true
		for _, scope := range a.Scopes {
			presentScopes[scope] = true
		}
	}

	needed := required - len(humanApprovers)
	if needed < 0 {
		needed = 0
	}

	var missing []string
	for scope := range scopeSet {
		if !presentScopes[scope] {
			missing = append(missing, scope)
		}
	}
	sort.Strings(missing)

	return &schema.RequiredActions{
		ApprovalsNeeded: needed,
		MissingScopes:   missing,
	}
}
