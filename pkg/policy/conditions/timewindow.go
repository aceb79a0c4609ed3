package conditions

import (
	"time"

	"argus-hq/argus/pkg/policy/schema"
)

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "mon",
	time.Tuesday:   "tue",
	time.Wednesday: "wed",
	time.Thursday:  "thu",
	time.Friday:    "fri",
	time.Saturday:  "sat",
	time.Sunday:    "sun",
}

// evalTimeWindow evaluates the request's logical timestamp against the
// condition's day-of-week and hour window. The wall clock is never
// consulted; only Context.Timestamp matters, which keeps evaluation
// deterministic and replayable.
func evalTimeWindow(cond *schema.PolicyCondition, req *schema.EvaluationRequest) bool {
	inside := inWindow(cond, req.Context.Timestamp)
	if timeMatchType(cond) == schema.MatchOutside {
		return !inside
	}
	return inside
}

// inWindow reports whether ts falls on one of the configured days and within
// [StartHour, EndHour). An empty day list means every day; StartHour ==
// EndHour == 0 means all hours.
func inWindow(cond *schema.PolicyCondition, ts time.Time) bool {
	if len(cond.Days) > 0 {
		name := weekdayNames[ts.Weekday()]
		found := false
		for _, d := range cond.Days {
			if d == name {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	start, end := cond.StartHour, cond.EndHour
	if start == 0 && end == 0 {
		return true
	}

	hour := ts.Hour()
	if start <= end {
		return hour >= start && hour < end
	}
	// Window wraps midnight (e.g. 22:00-06:00).
	return hour >= start || hour < end
}
