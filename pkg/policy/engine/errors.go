package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrInvalidConfig indicates invalid engine configuration.
	ErrInvalidConfig = errors.New("invalid engine configuration")

	// ErrNilRequest indicates Evaluate or DryRun was called with a nil
	// request.
	ErrNilRequest = errors.New("evaluation request cannot be nil")
)

// NotFoundError indicates an operation referenced a document that is not
// loaded.
type NotFoundError struct {
	DocumentName string
}

// Error returns the error message.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("policy document not loaded: %q", e.DocumentName)
}

// LimitError indicates a load would exceed a configured engine limit.
type LimitError struct {
	DocumentName string
	Limit        string
	Max          int
	Got          int
}

// Error returns the error message.
func (e *LimitError) Error() string {
	return fmt.Sprintf("policy document %q: %s limit exceeded: %d (max %d)", e.DocumentName, e.Limit, e.Got, e.Max)
}
