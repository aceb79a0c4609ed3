package evidence

import (
	"context"
	"io"
	"time"

	"argus-hq/argus/pkg/audit"
)

// VerificationOutcome is the per-item chain verification status.
type VerificationOutcome string

const (
	// VerificationVerified means the item's chain window verified cleanly.
	VerificationVerified VerificationOutcome = "verified"

	// VerificationFailed means verification ran and found a broken chain.
	VerificationFailed VerificationOutcome = "failed"

	// VerificationSkipped means verification was not requested or the
	// source has no chain to verify.
	VerificationSkipped VerificationOutcome = "skipped"
)

// EvidenceReference identifies the underlying record an evidence item cites.
type EvidenceReference struct {
	// EntryID is the source record identifier (audit entry ID or trace ID).
	EntryID string `json:"entry_id"`

	// LogID is set for audit-backed evidence.
	LogID string `json:"log_id,omitempty"`

	Timestamp  time.Time      `json:"timestamp"`
	Category   audit.Category `json:"category,omitempty"`
	ActionType string         `json:"action_type"`
	ActorID    string         `json:"actor_id"`
	Outcome    string         `json:"outcome"`
	Sensitive  bool           `json:"sensitive,omitempty"`
	HighRisk   bool           `json:"high_risk,omitempty"`
}

// CollectedEvidence is one scored evidence item. Derived on every collection
// call; never persisted as its own entity.
type CollectedEvidence struct {
	Ref EvidenceReference `json:"ref"`

	// Source names the registered source that produced this item.
	Source string `json:"source"`

	// RelevanceScore is in [0, 1].
	RelevanceScore float64 `json:"relevance_score"`

	// RelatedControlIDs lists the controls this item supports.
	RelatedControlIDs []string `json:"related_control_ids"`

	// ChainVerification reports the chain check outcome for this item.
	ChainVerification VerificationOutcome `json:"chain_verification"`
}

// CollectionRequest describes one evidence collection run. Exactly one of
// ControlID and ControlCategory selects the relevance target; ControlID wins
// when both are set.
type CollectionRequest struct {
	TenantID string `json:"tenant_id"`

	// ControlID is a compliance control identifier, e.g. "CC6.1".
	ControlID string `json:"control_id,omitempty"`

	// ControlCategory queries one audit category directly instead of going
	// through the control mapping.
	ControlCategory audit.Category `json:"control_category,omitempty"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// VerifyChain enables chain verification of surfaced audit entries.
	VerifyChain bool `json:"verify_chain"`

	// Limit caps the merged result. Zero means unlimited.
	Limit int `json:"limit,omitempty"`
}

// VerificationSummary counts items by chain verification outcome.
type VerificationSummary struct {
	Verified int `json:"verified"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

// CollectionSummary aggregates one collection run.
type CollectionSummary struct {
	BySource     map[string]int      `json:"by_source"`
	ByControl    map[string]int      `json:"by_control"`
	Verification VerificationSummary `json:"verification"`
}

// CollectionResult is the outcome of one collection run: evidence sorted by
// descending relevance plus summaries and any per-source failures.
type CollectionResult struct {
	CollectionID string               `json:"collection_id"`
	CollectedAt  time.Time            `json:"collected_at"`
	Evidence     []*CollectedEvidence `json:"evidence"`
	Summary      CollectionSummary    `json:"summary"`

	// FailedSources names sources that errored and were skipped.
	FailedSources []string `json:"failed_sources,omitempty"`
}

// Exporter writes collected evidence to an output in one format.
type Exporter interface {
	// Export writes the evidence items to w.
	Export(ctx context.Context, items []*CollectedEvidence, w io.Writer) error
}

// Source is one producer of evidence. Implementations must be safe for
// concurrent use.
type Source interface {
	// Name identifies the source in results and logs.
	Name() string

	// Collect returns scored evidence for the request. The returned items
	// carry the source's own relevance scores; the collector merges and
	// sorts but does not rescore.
	Collect(ctx context.Context, req *CollectionRequest) ([]*CollectedEvidence, error)
}
