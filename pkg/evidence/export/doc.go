// Package export writes collected evidence to interchange formats.
//
// Two exporters are provided: JSON for compliance report templates and
// other programmatic consumers, CSV for spreadsheet review. Both operate on
// the collector's output and never touch the underlying audit log.
package export
