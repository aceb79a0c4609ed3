package tracestore

import (
	"context"

	"argus-hq/argus/pkg/audit"
	"argus-hq/argus/pkg/evidence"
)

// Agent trace relevance is additive like audit scoring but weighs agent
// signals: decisions that were aborted or escalated, and low-confidence
// autonomous decisions, matter more to an auditor than routine proceeds.
const (
	traceScoreBase          = 0.5
	traceScoreSensitive     = 0.2
	traceScoreNonProceed    = 0.15
	traceScoreLowConfidence = 0.1
	traceScoreMappedAgent   = 0.2
	traceScoreCap           = 1.0

	lowConfidenceThreshold = 0.5
)

// ScoreTrace computes the relevance of a decision trace. agentMapped is true
// when the queried control maps the agent category.
func ScoreTrace(t *DecisionTrace, agentMapped bool) float64 {
	score := traceScoreBase

	if t.Sensitive {
		score += traceScoreSensitive
	}
	if t.Decision != "proceed" {
		score += traceScoreNonProceed
	}
	if t.Confidence < lowConfidenceThreshold {
		score += traceScoreLowConfidence
	}
	if agentMapped {
		score += traceScoreMappedAgent
	}

	if score > traceScoreCap {
		score = traceScoreCap
	}
	return score
}

// TraceSource exposes a trace store as an evidence source. Traces are
// surfaced only for controls mapped to the agent category (or for requests
// with no control target at all).
type TraceSource struct {
	store Store
}

// NewTraceSource wraps a trace store as an evidence source.
func NewTraceSource(store Store) *TraceSource {
	return &TraceSource{store: store}
}

// Name implements evidence.Source.
func (s *TraceSource) Name() string {
	return "tracestore"
}

// Collect implements evidence.Source.
func (s *TraceSource) Collect(ctx context.Context, req *evidence.CollectionRequest) ([]*evidence.CollectedEvidence, error) {
	agentMapped, targeted := agentRelevance(req)
	if targeted && !agentMapped {
		// The control doesn't speak to agent behavior; nothing to add.
		return nil, nil
	}

	traces, err := s.store.Query(ctx, &Filter{
		TenantID:  req.TenantID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Limit:     req.Limit,
	})
	if err != nil {
		return nil, err
	}

	var items []*evidence.CollectedEvidence
	for _, t := range traces {
		var controls []string
		if req.ControlID != "" {
			controls = []string{req.ControlID}
		}
		items = append(items, &evidence.CollectedEvidence{
			Ref: evidence.EvidenceReference{
				EntryID:    t.ID,
				Timestamp:  t.Timestamp,
				Category:   audit.CategoryAgent,
				ActionType: t.Action,
				ActorID:    t.AgentType,
				Outcome:    t.Decision,
				Sensitive:  t.Sensitive,
			},
			Source:            s.Name(),
			RelevanceScore:    ScoreTrace(t, agentMapped),
			RelatedControlIDs: controls,
			ChainVerification: evidence.VerificationSkipped,
		})
	}
	return items, nil
}

// agentRelevance reports whether the request's control target maps the agent
// category, and whether there is a control target at all.
func agentRelevance(req *evidence.CollectionRequest) (agentMapped, targeted bool) {
	if req.ControlID != "" {
		cats, ok := evidence.ControlCategories(req.ControlID)
		if !ok {
			return false, true
		}
		for _, c := range cats {
			if c == audit.CategoryAgent {
				return true, true
			}
		}
		return false, true
	}
	if req.ControlCategory != "" {
		return req.ControlCategory == audit.CategoryAgent, true
	}
	return false, false
}
