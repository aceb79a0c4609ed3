package evidence

import "argus-hq/argus/pkg/audit"

// Relevance scoring is additive from a fixed base, capped at 1.0. The
// increments are calibrated so that an entry has to stack several strong
// signals to reach the cap.
const (
	scoreBase             = 0.5
	scoreSensitive        = 0.2
	scoreFailedOutcome    = 0.1
	scorePolicyCategory   = 0.15
	scoreSecurityCategory = 0.15
	scoreMappedCategory   = 0.2
	scoreCap              = 1.0
)

// ScoreAuditEntry computes the relevance of an audit entry for a control
// mapped to the given categories.
func ScoreAuditEntry(e *audit.Entry, mapped []audit.Category) float64 {
	score := scoreBase

	if e.Action.Sensitive {
		score += scoreSensitive
	}
	if e.Outcome.Status == audit.OutcomeFailure {
		score += scoreFailedOutcome
	}
	if e.Action.Category == audit.CategoryPolicy || e.Action.Category == audit.CategoryApproval {
		score += scorePolicyCategory
	}
	if e.Action.Category == audit.CategorySecurity {
		score += scoreSecurityCategory
	}
	for _, c := range mapped {
		if e.Action.Category == c {
			score += scoreMappedCategory
			break
		}
	}

	if score > scoreCap {
		score = scoreCap
	}
	return score
}
