package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"argus-hq/argus/pkg/audit"
)

// MemoryStorage implements audit.Storage with in-memory maps. Intended for
// tests and embedded use; nothing survives the process.
type MemoryStorage struct {
	mu sync.RWMutex

	// metadata by log ID; entries kept in append (= sequence) order.
	metadata map[string]*audit.LogMetadata
	entries  map[string][]*audit.Entry

	// byScope maps tenantID+"/"+scope to log ID.
	byScope map[string]string
}

// NewMemoryStorage creates an empty in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		metadata: make(map[string]*audit.LogMetadata),
		entries:  make(map[string][]*audit.Entry),
		byScope:  make(map[string]string),
	}
}

func scopeKey(tenantID, scope string) string {
	return tenantID + "/" + scope
}

// CreateLog registers a new log.
func (s *MemoryStorage) CreateLog(ctx context.Context, meta *audit.LogMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.metadata[meta.LogID]; exists {
		return fmt.Errorf("log %s already exists", meta.LogID)
	}
	if _, exists := s.byScope[scopeKey(meta.TenantID, meta.Scope)]; exists {
		return fmt.Errorf("log for tenant %s scope %s already exists", meta.TenantID, meta.Scope)
	}

	metaCopy := *meta
	s.metadata[meta.LogID] = &metaCopy
	s.byScope[scopeKey(meta.TenantID, meta.Scope)] = meta.LogID
	return nil
}

// FindLog returns the metadata for a tenant and scope.
func (s *MemoryStorage) FindLog(ctx context.Context, tenantID, scope string) (*audit.LogMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logID, ok := s.byScope[scopeKey(tenantID, scope)]
	if !ok {
		return nil, &audit.NotFoundError{Kind: "log", ID: scopeKey(tenantID, scope)}
	}
	metaCopy := *s.metadata[logID]
	return &metaCopy, nil
}

// GetMetadata returns the metadata of the identified log.
func (s *MemoryStorage) GetMetadata(ctx context.Context, logID string) (*audit.LogMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.metadata[logID]
	if !ok {
		return nil, &audit.NotFoundError{Kind: "log", ID: logID}
	}
	metaCopy := *meta
	return &metaCopy, nil
}

// AppendEntry persists entry iff the log head still matches expected.
func (s *MemoryStorage) AppendEntry(ctx context.Context, entry *audit.Entry, expected audit.HeadState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, ok := s.metadata[entry.LogID]
	if !ok {
		return &audit.NotFoundError{Kind: "log", ID: entry.LogID}
	}
	if meta.Sealed {
		return &audit.SealedLogError{LogID: entry.LogID}
	}
	if meta.LatestSequence != expected.LatestSequence || meta.HeadHash != expected.HeadHash {
		return audit.ErrSequenceConflict
	}
	if entry.Chain.Sequence != expected.LatestSequence+1 {
		return fmt.Errorf("entry sequence %d does not follow head %d",
			entry.Chain.Sequence, expected.LatestSequence)
	}

	entryCopy := *entry
	s.entries[entry.LogID] = append(s.entries[entry.LogID], &entryCopy)

	meta.LatestSequence = entry.Chain.Sequence
	meta.HeadHash = entry.Chain.ContentHash
	meta.EntryCount++
	return nil
}

// Close releases the backend. A no-op for the in-memory implementation.
func (s *MemoryStorage) Close() error {
	return nil
}

// SealLog marks the log sealed. Idempotent.
func (s *MemoryStorage) SealLog(ctx context.Context, logID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, ok := s.metadata[logID]
	if !ok {
		return &audit.NotFoundError{Kind: "log", ID: logID}
	}
	if !meta.Sealed {
		meta.Sealed = true
		now := time.Now().UTC()
		meta.SealedAt = &now
	}
	return nil
}

// Query returns matching entries in ascending sequence order.
func (s *MemoryStorage) Query(ctx context.Context, q *audit.Query) (*audit.QueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.metadata[q.LogID]; !ok {
		return nil, &audit.NotFoundError{Kind: "log", ID: q.LogID}
	}

	var matched []*audit.Entry
	for _, e := range s.entries[q.LogID] {
		if matchesQuery(e, q) {
			entryCopy := *e
			matched = append(matched, &entryCopy)
		}
	}

	total := int64(len(matched))

	start := q.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}

	return &audit.QueryResult{Entries: matched[start:end], Total: total}, nil
}

// matchesQuery applies every set filter of q to e.
func matchesQuery(e *audit.Entry, q *audit.Query) bool {
	if q.Category != "" && e.Action.Category != q.Category {
		return false
	}
	if q.ActionType != "" && e.Action.Type != q.ActionType {
		return false
	}
	if q.Status != "" && e.Outcome.Status != q.Status {
		return false
	}
	if q.ActorID != "" && e.Actor.ID != q.ActorID {
		return false
	}
	if q.ResourceID != "" && (e.Resource == nil || e.Resource.ID != q.ResourceID) {
		return false
	}
	if q.TraceID != "" && e.Context.TraceID != q.TraceID {
		return false
	}
	if q.RunID != "" && e.Context.RunID != q.RunID {
		return false
	}
	if q.Tag != "" && !hasTag(e.Tags, q.Tag) {
		return false
	}
	if !q.StartTime.IsZero() && e.Timestamp.Before(q.StartTime) {
		return false
	}
	if !q.EndTime.IsZero() && !e.Timestamp.Before(q.EndTime) {
		return false
	}
	if q.StartSequence != nil && e.Chain.Sequence < *q.StartSequence {
		return false
	}
	if q.EndSequence != nil && e.Chain.Sequence > *q.EndSequence {
		return false
	}
	return true
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}
