package conditions

import (
	"fmt"
	"strings"

	"argus-hq/argus/pkg/policy/schema"
)

// Evaluate reports whether a single condition matches the request. Unknown
// condition kinds evaluate to false (fail closed); Evaluate never panics on a
// validated condition.
func Evaluate(cond *schema.PolicyCondition, req *schema.EvaluationRequest) bool {
	if cond == nil {
		return false
	}

	switch cond.Kind {
	case schema.KindComplexity:
		return evalComplexity(cond, req)
	case schema.KindFilePattern:
		return evalFilePattern(cond, req)
	case schema.KindAuthor:
		return evalAuthor(cond, req)
	case schema.KindTimeWindow:
		return evalTimeWindow(cond, req)
	case schema.KindRepository:
		return matchAnyGlob(cond.Repositories, req.Resource.Repository)
	case schema.KindBranch:
		return matchAnyGlob(cond.Branches, req.Resource.Branch)
	case schema.KindLabel:
		return evalLabel(cond, req)
	case schema.KindAgent:
		return evalAgent(cond, req)
	case schema.KindCustom:
		return evalCustom(cond, req)
	default:
		return false
	}
}

// Explanation describes one condition's evaluation for dry-run output.
type Explanation struct {
	// Kind is the condition kind evaluated.
	Kind schema.ConditionKind `json:"kind"`

	// Expected describes what the condition wanted.
	Expected string `json:"expected"`

	// Actual describes what the request carried.
	Actual string `json:"actual"`

	// Matched is the verdict.
	Matched bool `json:"matched"`
}

// Verdict renders a human-readable one-line verdict.
func (e Explanation) Verdict() string {
	if e.Matched {
		return fmt.Sprintf("%s: matched (expected %s, got %s)", e.Kind, e.Expected, e.Actual)
	}
	return fmt.Sprintf("%s: no match (expected %s, got %s)", e.Kind, e.Expected, e.Actual)
}

// Explain evaluates a condition and reports expected vs actual values
// alongside the verdict. It shares all matching semantics with Evaluate.
func Explain(cond *schema.PolicyCondition, req *schema.EvaluationRequest) Explanation {
	ex := Explanation{Kind: cond.Kind, Matched: Evaluate(cond, req)}

	switch cond.Kind {
	case schema.KindComplexity:
		ex.Expected = fmt.Sprintf("complexity %s %v", cond.Operator, cond.Threshold)
		if req.Resource.Complexity == nil {
			ex.Actual = "complexity absent"
		} else {
			ex.Actual = fmt.Sprintf("complexity %v", *req.Resource.Complexity)
		}
	case schema.KindFilePattern:
		ex.Expected = fmt.Sprintf("%s files matching %v", fileMatchType(cond), cond.Patterns)
		ex.Actual = fmt.Sprintf("files %v", req.Resource.Files)
	case schema.KindAuthor:
		ex.Expected = fmt.Sprintf("authors %v roles %v teams %v", cond.Authors, cond.Roles, cond.Teams)
		ex.Actual = fmt.Sprintf("actor %s roles %v teams %v", req.Actor.ID, req.Actor.Roles, req.Actor.Teams)
	case schema.KindTimeWindow:
		ex.Expected = fmt.Sprintf("%s %v %02d:00-%02d:00", timeMatchType(cond), cond.Days, cond.StartHour, cond.EndHour)
		ex.Actual = req.Context.Timestamp.Format("Mon 15:04")
	case schema.KindRepository:
		ex.Expected = fmt.Sprintf("repository in %v", cond.Repositories)
		ex.Actual = "repository " + req.Resource.Repository
	case schema.KindBranch:
		ex.Expected = fmt.Sprintf("branch in %v", cond.Branches)
		ex.Actual = "branch " + req.Resource.Branch
	case schema.KindLabel:
		ex.Expected = fmt.Sprintf("%s of labels %v", labelMatchType(cond), cond.Labels)
		ex.Actual = fmt.Sprintf("labels %v", req.Resource.Labels)
	case schema.KindAgent:
		ex.Expected = agentExpectation(cond)
		ex.Actual = agentActual(req)
	case schema.KindCustom:
		ex.Expected = fmt.Sprintf("attribute %q %s %v", cond.Field, cond.CustomOperator, cond.Value)
		ex.Actual = fmt.Sprintf("attribute %q = %v", cond.Field, req.Attributes[cond.Field])
	default:
		ex.Expected = fmt.Sprintf("unknown condition type %q", cond.Kind)
		ex.Actual = "evaluated to false (fail closed)"
	}

	return ex
}

// evalComplexity compares the resource complexity score against the
// threshold. An absent score never matches.
func evalComplexity(cond *schema.PolicyCondition, req *schema.EvaluationRequest) bool {
	if req.Resource.Complexity == nil {
		return false
	}
	return compare(cond.Operator, *req.Resource.Complexity, cond.Threshold)
}

// evalFilePattern glob-matches the resource's files. An empty file list
// never matches, regardless of match type.
func evalFilePattern(cond *schema.PolicyCondition, req *schema.EvaluationRequest) bool {
	if len(req.Resource.Files) == 0 {
		return false
	}

	hit := false
	for _, file := range req.Resource.Files {
		for _, pattern := range cond.Patterns {
			if GlobMatch(pattern, file) {
				hit = true
				break
			}
		}
		if hit {
			break
		}
	}

	if fileMatchType(cond) == schema.MatchExclude {
		return !hit
	}
	return hit
}

// evalAuthor matches actor identity, roles, or teams. When no filter lists
// are supplied the condition matches unconditionally; that behavior is
// preserved from the source system and flagged at rule compile time.
func evalAuthor(cond *schema.PolicyCondition, req *schema.EvaluationRequest) bool {
	if len(cond.Authors) == 0 && len(cond.Roles) == 0 && len(cond.Teams) == 0 {
		return true
	}

	for _, a := range cond.Authors {
		if a == req.Actor.ID {
			return true
		}
	}
	if overlaps(cond.Roles, req.Actor.Roles) {
		return true
	}
	return overlaps(cond.Teams, req.Actor.Teams)
}

// evalLabel applies any/all/none semantics over the resource's labels.
func evalLabel(cond *schema.PolicyCondition, req *schema.EvaluationRequest) bool {
	have := make(map[string]bool, len(req.Resource.Labels))
	for _, l := range req.Resource.Labels {
		have[l] = true
	}

	switch labelMatchType(cond) {
	case schema.MatchAll:
		for _, l := range cond.Labels {
			if !have[l] {
				return false
			}
		}
		return true
	case schema.MatchNone:
		for _, l := range cond.Labels {
			if have[l] {
				return false
			}
		}
		return true
	default: // any
		for _, l := range cond.Labels {
			if have[l] {
				return true
			}
		}
		return false
	}
}

// evalAgent matches agent type membership plus an optional confidence
// comparator.
func evalAgent(cond *schema.PolicyCondition, req *schema.EvaluationRequest) bool {
	if len(cond.AgentTypes) > 0 {
		found := false
		for _, t := range cond.AgentTypes {
			if t == req.Action.AgentType {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if cond.Operator != "" {
		if req.Action.Confidence == nil {
			return false
		}
		return compare(cond.Operator, *req.Action.Confidence, cond.Threshold)
	}
	return true
}

// compare applies a CompareOp to two float64 values.
func compare(op schema.CompareOp, actual, threshold float64) bool {
	switch op {
	case schema.OpGreaterThan:
		return actual > threshold
	case schema.OpGreaterEqual:
		return actual >= threshold
	case schema.OpLessThan:
		return actual < threshold
	case schema.OpLessEqual:
		return actual <= threshold
	case schema.OpEqual:
		return actual == threshold
	default:
		return false
	}
}

// overlaps reports whether the two string sets share any member.
func overlaps(want, have []string) bool {
	if len(want) == 0 || len(have) == 0 {
		return false
	}
	set := make(map[string]bool, len(want))
	for _, w := range want {
		set[w] = true
	}
	for _, h := range have {
		if set[h] {
			return true
		}
	}
	return false
}

func fileMatchType(cond *schema.PolicyCondition) schema.MatchType {
	if cond.MatchType == schema.MatchExclude {
		return schema.MatchExclude
	}
	return schema.MatchInclude
}

func labelMatchType(cond *schema.PolicyCondition) schema.MatchType {
	switch cond.MatchType {
	case schema.MatchAll, schema.MatchNone:
		return cond.MatchType
	default:
		return schema.MatchAny
	}
}

func timeMatchType(cond *schema.PolicyCondition) schema.MatchType {
	if cond.MatchType == schema.MatchOutside {
		return schema.MatchOutside
	}
	return schema.MatchDuring
}

func agentExpectation(cond *schema.PolicyCondition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "agent type in %v", cond.AgentTypes)
	if cond.Operator != "" {
		fmt.Fprintf(&b, " with confidence %s %v", cond.Operator, cond.Threshold)
	}
	return b.String()
}

func agentActual(req *schema.EvaluationRequest) string {
	if req.Action.Confidence == nil {
		return fmt.Sprintf("agent type %q, confidence absent", req.Action.AgentType)
	}
	return fmt.Sprintf("agent type %q, confidence %v", req.Action.AgentType, *req.Action.Confidence)
}
