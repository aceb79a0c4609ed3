package audit

import (
	"context"
	"time"
)

// Category classifies an audited action.
type Category string

// Audit action categories.
const (
	CategoryAuth     Category = "auth"
	CategorySecurity Category = "security"
	CategoryPolicy   Category = "policy"
	CategoryApproval Category = "approval"
	CategoryData     Category = "data"
	CategoryConfig   Category = "config"
	CategoryAgent    Category = "agent"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryAuth,
	CategorySecurity,
	CategoryPolicy,
	CategoryApproval,
	CategoryData,
	CategoryConfig,
	CategoryAgent,
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// OutcomeStatus is the result of the audited action.
type OutcomeStatus string

// Outcome statuses.
const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
	OutcomeDenied  OutcomeStatus = "denied"
)

// ValidOutcome reports whether s is a known outcome status.
func ValidOutcome(s OutcomeStatus) bool {
	switch s {
	case OutcomeSuccess, OutcomeFailure, OutcomeDenied:
		return true
	}
	return false
}

// ActorType distinguishes who performed the action.
type ActorType string

// Actor types.
const (
	ActorUser    ActorType = "user"
	ActorService ActorType = "service"
	ActorAgent   ActorType = "agent"
	ActorSystem  ActorType = "system"
)

// Entry is one immutable audit log record. All fields are fixed at append
// time; the chain block proves the entry's position and content.
type Entry struct {
	// ID has the wire format alog-{unixMillis}-{sequence}-{6 char random}.
	ID string `json:"id"`

	// LogID is the owning log, format log-{tenantId}-{scope}-{8 char random}.
	LogID string `json:"log_id"`

	// Timestamp is normalized to UTC before hashing.
	Timestamp time.Time `json:"timestamp"`

	Actor    EntryActor     `json:"actor"`
	Action   EntryAction    `json:"action"`
	Resource *EntryResource `json:"resource,omitempty"`
	Outcome  EntryOutcome   `json:"outcome"`
	Context  EntryContext   `json:"context"`

	Tags     []string `json:"tags,omitempty"`
	HighRisk bool     `json:"high_risk"`

	// Details is an open-ended bag of action-specific fields. It is part of
	// the hashed content, so values must be JSON-serializable.
	Details map[string]interface{} `json:"details,omitempty"`

	// Chain is the tamper-evidence block. It is excluded from the content
	// hash it carries.
	Chain ChainBlock `json:"chain"`
}

// EntryActor identifies who performed the action.
type EntryActor struct {
	Type ActorType `json:"type"`
	ID   string    `json:"id"`
	Name string    `json:"name,omitempty"`
}

// EntryAction names the audited action.
type EntryAction struct {
	Category Category `json:"category"`
	Type     string   `json:"type"`

	// Sensitive marks actions touching secrets, credentials, or personal
	// data. Raises evidence relevance.
	Sensitive bool `json:"sensitive,omitempty"`
}

// EntryResource describes the target of the action, when there is one.
type EntryResource struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// EntryOutcome records how the action ended.
type EntryOutcome struct {
	Status     OutcomeStatus `json:"status"`
	ErrorCode  string        `json:"error_code,omitempty"`
	DurationMs int64         `json:"duration_ms,omitempty"`
}

// EntryContext carries correlation identifiers.
type EntryContext struct {
	TenantID string `json:"tenant_id"`
	TraceID  string `json:"trace_id,omitempty"`
	RunID    string `json:"run_id,omitempty"`
}

// ChainBlock links an entry into its log's hash chain.
type ChainBlock struct {
	// Sequence is strictly increasing and gap-free per log, starting at 0.
	Sequence int64 `json:"sequence"`

	// PrevHash is the content hash of the previous entry; empty for the
	// first entry of a log.
	PrevHash string `json:"prev_hash,omitempty"`

	// ContentHash covers every entry field except this chain block.
	ContentHash string `json:"content_hash"`

	// Algorithm names the hash algorithm, e.g. "sha-256".
	Algorithm string `json:"algorithm"`

	ComputedAt time.Time `json:"computed_at"`
}

// EntryInput is what callers submit to Append. Identity, sequencing, and the
// chain block are stamped by the log, never by the caller.
type EntryInput struct {
	// Timestamp defaults to the current time when zero.
	Timestamp time.Time

	Actor    EntryActor
	Action   EntryAction
	Resource *EntryResource
	Outcome  EntryOutcome

	TraceID string
	RunID   string

	Tags     []string
	HighRisk bool
	Details  map[string]interface{}
}

// LogMetadata is the per-log head pointer. Mutated only by the append and
// seal paths.
type LogMetadata struct {
	LogID    string `json:"log_id"`
	TenantID string `json:"tenant_id"`
	Scope    string `json:"scope"`

	// LatestSequence is -1 while the log is empty.
	LatestSequence int64 `json:"latest_sequence"`

	// HeadHash is the content hash of the latest entry; empty while the log
	// is empty.
	HeadHash string `json:"head_hash"`

	EntryCount int64 `json:"entry_count"`

	// Sealed permanently forbids further appends. There is no unseal.
	Sealed bool `json:"sealed"`

	CreatedAt time.Time  `json:"created_at"`
	SealedAt  *time.Time `json:"sealed_at,omitempty"`
}

// HeadState is the expected log head for a conditional append.
type HeadState struct {
	// LatestSequence is -1 for an empty log.
	LatestSequence int64

	HeadHash string
}

// Query filters entries of one log. Zero values mean "no filter".
type Query struct {
	LogID string

	Category   Category
	ActionType string
	Status     OutcomeStatus
	ActorID    string
	ResourceID string
	TraceID    string
	RunID      string
	Tag        string

	// Time range: inclusive start, exclusive end. Zero values disable the
	// bound.
	StartTime time.Time
	EndTime   time.Time

	// Sequence range, inclusive on both ends. Nil disables the bound.
	StartSequence *int64
	EndSequence   *int64

	// Pagination over the sequence-ordered result.
	Limit  int
	Offset int
}

// QueryResult is one page of entries plus the unpaginated total.
type QueryResult struct {
	Entries []*Entry
	Total   int64
}

// Storage is the persistence boundary of the audit log. Implementations must
// make AppendEntry atomic: the entry is persisted and the metadata advanced
// only when the log head still matches the expected state, otherwise
// ErrSequenceConflict is returned and nothing changes.
type Storage interface {
	// CreateLog registers a new log. Fails if the log ID already exists.
	CreateLog(ctx context.Context, meta *LogMetadata) error

	// FindLog returns the metadata of the log for tenantID and scope, or a
	// *NotFoundError.
	FindLog(ctx context.Context, tenantID, scope string) (*LogMetadata, error)

	// GetMetadata returns the metadata of the identified log, or a
	// *NotFoundError.
	GetMetadata(ctx context.Context, logID string) (*LogMetadata, error)

	// AppendEntry persists entry and advances the log head, conditional on
	// the head still matching expected. Returns ErrSequenceConflict when
	// another writer advanced the head first, or a *SealedLogError when the
	// log is sealed.
	AppendEntry(ctx context.Context, entry *Entry, expected HeadState) error

	// SealLog marks the log sealed. Idempotent.
	SealLog(ctx context.Context, logID string) error

	// Query returns entries in ascending sequence order.
	Query(ctx context.Context, q *Query) (*QueryResult, error)

	// Close releases the backend's resources. No other method may be
	// called afterwards.
	Close() error
}
