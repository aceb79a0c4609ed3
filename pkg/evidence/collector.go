package evidence

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"argus-hq/argus/pkg/telemetry/metrics"
)

// Collector merges evidence from registered sources.
type Collector struct {
	sources []Source
	logger  *slog.Logger
	metrics *metrics.EvidenceMetrics
}

// NewCollector creates a collector over the given sources. The metrics
// argument may be nil.
func NewCollector(sources []Source, logger *slog.Logger, em *metrics.EvidenceMetrics) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		sources: sources,
		logger:  logger.With("component", "evidence.collector"),
		metrics: em,
	}
}

// AddSource registers an additional source. Not safe to call concurrently
// with Collect.
func (c *Collector) AddSource(s Source) {
	c.sources = append(c.sources, s)
}

// Collect runs one collection across every registered source. A failing
// source is logged and skipped; the collection continues with the rest.
// Results are sorted by descending relevance, then by timestamp for stable
// ordering, and truncated to req.Limit when set.
func (c *Collector) Collect(ctx context.Context, req *CollectionRequest) (*CollectionResult, error) {
	if req == nil {
		req = &CollectionRequest{}
	}
	// An unknown control is a request error, not a source failure.
	if _, err := resolveCategories(req); err != nil {
		return nil, err
	}
	start := time.Now()

	result := &CollectionResult{
		CollectionID: uuid.New().String(),
		CollectedAt:  start.UTC(),
		Summary: CollectionSummary{
			BySource:  make(map[string]int),
			ByControl: make(map[string]int),
		},
	}

	for _, source := range c.sources {
		items, err := source.Collect(ctx, req)
		if err != nil {
			c.logger.Warn("evidence source failed, continuing",
				"source", source.Name(),
				"control_id", req.ControlID,
				"error", err,
			)
			c.metrics.RecordSourceFailure(source.Name())
			result.FailedSources = append(result.FailedSources, source.Name())
			continue
		}
		result.Evidence = append(result.Evidence, items...)
	}

	sort.SliceStable(result.Evidence, func(i, j int) bool {
		a, b := result.Evidence[i], result.Evidence[j]
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		return a.Ref.Timestamp.Before(b.Ref.Timestamp)
	})
	if req.Limit > 0 && len(result.Evidence) > req.Limit {
		result.Evidence = result.Evidence[:req.Limit]
	}

	for _, item := range result.Evidence {
		result.Summary.BySource[item.Source]++
		for _, id := range item.RelatedControlIDs {
			result.Summary.ByControl[id]++
		}
		switch item.ChainVerification {
		case VerificationVerified:
			result.Summary.Verification.Verified++
		case VerificationFailed:
			result.Summary.Verification.Failed++
		default:
			result.Summary.Verification.Skipped++
		}
	}

	status := "ok"
	if len(result.FailedSources) > 0 {
		status = "partial"
	}
	c.metrics.RecordCollection(req.ControlID, status, time.Since(start), len(result.Evidence))
	c.logger.Info("evidence collection completed",
		"collection_id", result.CollectionID,
		"control_id", req.ControlID,
		"items", len(result.Evidence),
		"failed_sources", len(result.FailedSources),
	)
	return result, nil
}
