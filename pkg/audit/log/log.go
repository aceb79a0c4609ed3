package log

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"argus-hq/argus/pkg/audit"
	"argus-hq/argus/pkg/audit/chain"
	"argus-hq/argus/pkg/telemetry/metrics"
)

// Log is one tenant+scope audit log bound to a storage backend. Safe for
// concurrent use; the append discipline serializes through conditional
// writes, not an in-process lock.
type Log struct {
	storage audit.Storage
	config  *Config
	logger  *slog.Logger
	metrics *metrics.AuditMetrics

	logID    string
	tenantID string
	scope    string

	// now is a clock hook for tests.
	now func() time.Time
}

// Open attaches to the audit log for tenantID and scope, creating it when it
// does not exist yet. The metrics argument may be nil.
func Open(ctx context.Context, storage audit.Storage, tenantID, scope string, config *Config, logger *slog.Logger, am *metrics.AuditMetrics) (*Log, error) {
	if storage == nil {
		return nil, fmt.Errorf("audit log requires a storage backend")
	}
	if tenantID == "" {
		return nil, &audit.ValidationError{Field: "tenantId", Message: "must not be empty"}
	}
	if scope == "" {
		return nil, &audit.ValidationError{Field: "scope", Message: "must not be empty"}
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	l := &Log{
		storage:  storage,
		config:   config,
		logger:   logger.With("component", "audit.log"),
		metrics:  am,
		tenantID: tenantID,
		scope:    scope,
		now:      time.Now,
	}

	meta, err := storage.FindLog(ctx, tenantID, scope)
	switch {
	case err == nil:
		l.logID = meta.LogID

	case isNotFound(err):
		meta = &audit.LogMetadata{
			LogID:          audit.NewLogID(tenantID, scope),
			TenantID:       tenantID,
			Scope:          scope,
			LatestSequence: -1,
			CreatedAt:      l.now().UTC(),
		}
		if err := storage.CreateLog(ctx, meta); err != nil {
			return nil, err
		}
		l.logID = meta.LogID
		l.logger.Info("audit log created",
			"log_id", meta.LogID,
			"tenant_id", tenantID,
			"scope", scope,
		)

	default:
		return nil, err
	}

	return l, nil
}

// ID returns the log identifier (wire format log-{tenantId}-{scope}-{rand}).
func (l *Log) ID() string {
	return l.logID
}

// Metadata returns the current head state of the log.
func (l *Log) Metadata(ctx context.Context) (*audit.LogMetadata, error) {
	return l.storage.GetMetadata(ctx, l.logID)
}

// Append validates input, stamps identity, sequence, and chain linkage, and
// persists the entry. Sequence assignment runs as an optimistic-concurrency
// loop: on a head conflict the append re-reads and retries up to the
// configured bound. A sealed log always rejects with *audit.SealedLogError.
func (l *Log) Append(ctx context.Context, input *audit.EntryInput) (*audit.Entry, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	start := l.now()

	for attempt := 0; attempt < l.config.MaxAppendRetries; attempt++ {
		meta, err := l.storage.GetMetadata(ctx, l.logID)
		if err != nil {
			return nil, err
		}
		if meta.Sealed {
			return nil, &audit.SealedLogError{LogID: l.logID}
		}

		entry, err := l.buildEntry(input, meta)
		if err != nil {
			return nil, err
		}

		err = l.storage.AppendEntry(ctx, entry, audit.HeadState{
			LatestSequence: meta.LatestSequence,
			HeadHash:       meta.HeadHash,
		})
		if errors.Is(err, audit.ErrSequenceConflict) {
			l.metrics.RecordAppendConflict(l.logID)
			l.logger.Debug("append lost head race, retrying",
				"log_id", l.logID,
				"attempt", attempt+1,
			)
			continue
		}
		if err != nil {
			return nil, err
		}

		l.metrics.RecordAppend(l.logID, string(entry.Outcome.Status), l.now().Sub(start), meta.EntryCount+1)
		l.logger.Debug("audit entry appended",
			"log_id", l.logID,
			"entry_id", entry.ID,
			"sequence", entry.Chain.Sequence,
			"category", entry.Action.Category,
			"high_risk", entry.HighRisk,
		)
		return entry, nil
	}

	return nil, fmt.Errorf("append to %s exhausted %d retries: %w",
		l.logID, l.config.MaxAppendRetries, audit.ErrSequenceConflict)
}

// buildEntry stamps one immutable entry from the input and the current head.
func (l *Log) buildEntry(input *audit.EntryInput, meta *audit.LogMetadata) (*audit.Entry, error) {
	ts := input.Timestamp
	if ts.IsZero() {
		ts = l.now()
	}
	ts = ts.UTC()
	sequence := meta.LatestSequence + 1

	entry := &audit.Entry{
		ID:        audit.NewEntryID(ts, sequence),
		LogID:     l.logID,
		Timestamp: ts,
		Actor:     input.Actor,
		Action:    input.Action,
		Resource:  input.Resource,
		Outcome:   input.Outcome,
		Context: audit.EntryContext{
			TenantID: l.tenantID,
			TraceID:  input.TraceID,
			RunID:    input.RunID,
		},
		Tags:     input.Tags,
		HighRisk: input.HighRisk || IsHighRiskAction(input.Action.Type),
		Details:  input.Details,
		Chain: audit.ChainBlock{
			Sequence:   sequence,
			PrevHash:   meta.HeadHash,
			Algorithm:  string(l.config.Algorithm),
			ComputedAt: l.now().UTC(),
		},
	}
	if entry.Outcome.Status == "" {
		entry.Outcome.Status = audit.OutcomeSuccess
	}

	hash, err := chain.ComputeContentHash(entry, l.config.Algorithm)
	if err != nil {
		return nil, err
	}
	entry.Chain.ContentHash = hash
	return entry, nil
}

// Seal permanently closes the log to further appends. Terminal; there is no
// unseal.
func (l *Log) Seal(ctx context.Context) error {
	if err := l.storage.SealLog(ctx, l.logID); err != nil {
		return err
	}
	l.logger.Info("audit log sealed", "log_id", l.logID)
	return nil
}

// QueryResult is one page of entries plus, when requested, an inline chain
// verification of exactly that window.
type QueryResult struct {
	Entries []*audit.Entry
	Total   int64

	// Verification is set only when Query ran with verify=true. It covers
	// the returned window, which proves internal consistency of the window
	// only; full-log tamper detection needs Verify.
	Verification *chain.VerificationResult
}

// Query returns entries matching q in ascending sequence order. The LogID of
// q is overridden with this log's ID. With verify set, the returned window is
// chain-verified inline.
func (l *Log) Query(ctx context.Context, q *audit.Query, verify bool) (*QueryResult, error) {
	if q == nil {
		q = &audit.Query{}
	}
	scoped := *q
	scoped.LogID = l.logID

	res, err := l.storage.Query(ctx, &scoped)
	if err != nil {
		return nil, err
	}

	result := &QueryResult{Entries: res.Entries, Total: res.Total}
	if verify {
		result.Verification = chain.VerifyChain(res.Entries)
		l.metrics.RecordVerification(l.logID, result.Verification.Valid)
	}
	return result, nil
}

// Verify walks the entire log and checks the chain. An invalid chain is
// returned as both a result and a *audit.ChainIntegrityError carrying the
// first offending sequence; this signal must never be swallowed.
func (l *Log) Verify(ctx context.Context) (*chain.VerificationResult, error) {
	res, err := l.storage.Query(ctx, &audit.Query{LogID: l.logID})
	if err != nil {
		return nil, err
	}

	result := chain.VerifyChain(res.Entries)
	l.metrics.RecordVerification(l.logID, result.Valid)

	if !result.Valid {
		seq := int64(-1)
		if result.FirstInvalidSequence != nil {
			seq = *result.FirstInvalidSequence
		}
		l.logger.Error("audit chain verification failed",
			"log_id", l.logID,
			"first_invalid_sequence", seq,
			"error", result.Error,
		)
		return result, &audit.ChainIntegrityError{
			LogID:                l.logID,
			FirstInvalidSequence: seq,
			Reason:               result.Error,
		}
	}
	return result, nil
}

// validateInput rejects malformed entry input before any state change.
func validateInput(input *audit.EntryInput) error {
	if input == nil {
		return &audit.ValidationError{Field: "input", Message: "must not be nil"}
	}
	if input.Actor.ID == "" {
		return &audit.ValidationError{Field: "actor.id", Message: "must not be empty"}
	}
	if input.Actor.Type == "" {
		return &audit.ValidationError{Field: "actor.type", Message: "must not be empty"}
	}
	if !audit.ValidCategory(input.Action.Category) {
		return &audit.ValidationError{Field: "action.category",
			Message: fmt.Sprintf("unknown category %q", input.Action.Category)}
	}
	if input.Action.Type == "" {
		return &audit.ValidationError{Field: "action.type", Message: "must not be empty"}
	}
	if input.Outcome.Status != "" && !audit.ValidOutcome(input.Outcome.Status) {
		return &audit.ValidationError{Field: "outcome.status",
			Message: fmt.Sprintf("unknown status %q", input.Outcome.Status)}
	}
	return nil
}

func isNotFound(err error) bool {
	var nf *audit.NotFoundError
	return errors.As(err, &nf)
}
