package audit

import (
	"errors"
	"fmt"
)

// ErrSequenceConflict signals that a conditional append lost the race: the
// log head advanced between read and write. The append path retries on it.
var ErrSequenceConflict = errors.New("audit log head changed concurrently")

// ValidationError indicates a malformed entry input, rejected before any
// state change.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid audit entry: %s: %s", e.Field, e.Message)
}

// SealedLogError indicates an append or seal-sensitive operation on a sealed
// log.
type SealedLogError struct {
	LogID string
}

// Error returns the error message.
func (e *SealedLogError) Error() string {
	return fmt.Sprintf("audit log %s is sealed", e.LogID)
}

// ChainIntegrityError indicates chain verification detected a broken link.
// It is reported, never auto-repaired.
type ChainIntegrityError struct {
	LogID string

	// FirstInvalidSequence is the sequence of the first entry failing
	// verification.
	FirstInvalidSequence int64

	Reason string
}

// Error returns the error message.
func (e *ChainIntegrityError) Error() string {
	return fmt.Sprintf("audit chain broken in log %s at sequence %d: %s",
		e.LogID, e.FirstInvalidSequence, e.Reason)
}

// NotFoundError indicates a lookup for an unknown log or entry.
type NotFoundError struct {
	Kind string // "log" or "entry"
	ID   string
}

// Error returns the error message.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("audit %s not found: %s", e.Kind, e.ID)
}

// StorageError wraps a failure from a storage backend.
type StorageError struct {
	Backend   string
	Operation string
	Cause     error
}

// Error returns the error message.
func (e *StorageError) Error() string {
	return fmt.Sprintf("audit storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}
