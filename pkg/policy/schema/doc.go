// Package schema defines the policy document data model: documents, rules,
// conditions, and actions, plus the evaluation request/result shapes exchanged
// with the policy engine.
//
// Conditions form a closed tagged union over nine kinds (complexity,
// file_pattern, author, time_window, repository, branch, label, agent,
// custom). Every switch over ConditionKind in this module is exhaustive, so
// adding a tenth kind is a compile-visible change.
//
// Documents are parsed from YAML (or JSON, which YAML subsumes) and validated
// structurally before the engine ever sees them. A malformed document is
// rejected whole; there is no partial load.
package schema
