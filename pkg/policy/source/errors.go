package source

import (
	"fmt"
	"strings"
)

// LoadError describes a failure to read a policy file from disk.
type LoadError struct {
	FilePath string
	Message  string
	Cause    error
}

// Error returns the error message.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("load %s: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("load %s: %s", e.FilePath, e.Message)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ErrorList collects per-file errors from a directory load so one bad file
// does not hide the rest.
type ErrorList struct {
	Errors []error
}

// Add appends an error to the list.
func (el *ErrorList) Add(err error) {
	el.Errors = append(el.Errors, err)
}

// Empty reports whether the list holds no errors.
func (el *ErrorList) Empty() bool {
	return len(el.Errors) == 0
}

// Error returns all collected messages joined per line.
func (el *ErrorList) Error() string {
	if el.Empty() {
		return "no errors"
	}
	msgs := make([]string, len(el.Errors))
	for i, err := range el.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d policy file(s) failed to load:\n%s", len(el.Errors), strings.Join(msgs, "\n"))
}
