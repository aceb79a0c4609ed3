package evidence

import "fmt"

// SourceError wraps a failure from one evidence source. The collector logs
// it and continues with the remaining sources.
type SourceError struct {
	// Source is the failing source's name.
	Source string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return fmt.Sprintf("evidence source %s failed: %v", e.Source, e.Cause)
}

// Unwrap returns the underlying error.
func (e *SourceError) Unwrap() error {
	return e.Cause
}

// UnknownControlError reports a control ID with no category mapping.
type UnknownControlError struct {
	ControlID string
}

// Error implements the error interface.
func (e *UnknownControlError) Error() string {
	return fmt.Sprintf("unknown compliance control %q", e.ControlID)
}

// ExportError wraps a failure while exporting collected evidence.
type ExportError struct {
	Format string
	Count  int
	Cause  error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export to %s failed after %d items: %v", e.Format, e.Count, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates an ExportError.
func NewExportError(format string, count int, cause error) *ExportError {
	return &ExportError{Format: format, Count: count, Cause: cause}
}
