package evidence

import (
	"context"
	"sort"

	"argus-hq/argus/pkg/audit"
	"argus-hq/argus/pkg/audit/chain"
	auditlog "argus-hq/argus/pkg/audit/log"
)

// AuditSource surfaces audit log entries as compliance evidence. An entry is
// relevant when its action category is in the control's mapped set or when
// it carries the control ID as a tag.
type AuditSource struct {
	log *auditlog.Log
}

// NewAuditSource wraps an audit log as an evidence source.
func NewAuditSource(l *auditlog.Log) *AuditSource {
	return &AuditSource{log: l}
}

// Name implements Source.
func (s *AuditSource) Name() string {
	return "audit:" + s.log.ID()
}

// Collect implements Source.
func (s *AuditSource) Collect(ctx context.Context, req *CollectionRequest) ([]*CollectedEvidence, error) {
	mapped, err := resolveCategories(req)
	if err != nil {
		return nil, err
	}

	res, err := s.log.Query(ctx, &audit.Query{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}, false)
	if err != nil {
		return nil, err
	}

	// Verification covers the queried window as one sequence; a clean
	// result proves internal consistency of the window, not absence of
	// excised entries around it.
	outcome := VerificationSkipped
	if req.VerifyChain {
		if verification := chain.VerifyChain(res.Entries); verification.Valid {
			outcome = VerificationVerified
		} else {
			outcome = VerificationFailed
		}
	}

	var items []*CollectedEvidence
	for _, e := range res.Entries {
		if !entryRelevant(e, req.ControlID, mapped) {
			continue
		}
		items = append(items, &CollectedEvidence{
			Ref: EvidenceReference{
				EntryID:    e.ID,
				LogID:      e.LogID,
				Timestamp:  e.Timestamp,
				Category:   e.Action.Category,
				ActionType: e.Action.Type,
				ActorID:    e.Actor.ID,
				Outcome:    string(e.Outcome.Status),
				Sensitive:  e.Action.Sensitive,
				HighRisk:   e.HighRisk,
			},
			Source:            s.Name(),
			RelevanceScore:    ScoreAuditEntry(e, mapped),
			RelatedControlIDs: relatedControls(e, req.ControlID),
			ChainVerification: outcome,
		})
	}
	return items, nil
}

// resolveCategories turns the request's control target into audit categories.
func resolveCategories(req *CollectionRequest) ([]audit.Category, error) {
	if req.ControlID != "" {
		cats, ok := ControlCategories(req.ControlID)
		if !ok {
			return nil, &UnknownControlError{ControlID: req.ControlID}
		}
		return cats, nil
	}
	if req.ControlCategory != "" {
		return []audit.Category{req.ControlCategory}, nil
	}
	return nil, nil
}

// entryRelevant reports whether e belongs in the result for the control.
func entryRelevant(e *audit.Entry, controlID string, mapped []audit.Category) bool {
	for _, c := range mapped {
		if e.Action.Category == c {
			return true
		}
	}
	if controlID != "" {
		for _, tag := range e.Tags {
			if tag == controlID {
				return true
			}
		}
	}
	// No control target at all: everything in the window is evidence.
	return controlID == "" && len(mapped) == 0
}

// relatedControls lists the controls this entry supports: the queried one
// plus any other mapped control matching the entry's category or tags.
func relatedControls(e *audit.Entry, queried string) []string {
	seen := map[string]bool{}
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	if queried != "" {
		add(queried)
	}
	var extra []string
	for id, cats := range controlCategories {
		for _, c := range cats {
			if e.Action.Category == c && !seen[id] {
				extra = append(extra, id)
				break
			}
		}
	}
	for _, tag := range e.Tags {
		if _, ok := controlCategories[tag]; ok && !seen[tag] {
			extra = append(extra, tag)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		add(id)
	}
	return ids
}
