package schema

import (
	"errors"
	"fmt"
)

// ErrEmptyDocument indicates a document with no name or no rules section.
var ErrEmptyDocument = errors.New("policy document is empty")

// ValidationError indicates a malformed policy document. Documents failing
// validation are rejected whole before any engine state changes.
type ValidationError struct {
	DocumentName string
	Errors       []string
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("policy document %q: validation error: %s", e.DocumentName, e.Errors[0])
	}
	return fmt.Sprintf("policy document %q: %d validation errors: %v", e.DocumentName, len(e.Errors), e.Errors)
}

// ConflictError indicates a duplicate rule ID within one document.
type ConflictError struct {
	DocumentName string
	RuleID       string
}

// Error returns the error message.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("policy document %q: duplicate rule id %q", e.DocumentName, e.RuleID)
}

// ParseError indicates the document bytes could not be decoded at all.
type ParseError struct {
	Source string
	Cause  error
}

// Error returns the error message.
func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse policy document %q: %v", e.Source, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Cause
}
