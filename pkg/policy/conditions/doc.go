// Package conditions implements the predicate library behind policy rules.
//
// Every condition kind is a pure, stateless function of one
// schema.EvaluationRequest: safe to call concurrently and repeatedly, with no
// side effects. Unknown condition kinds fail closed (evaluate to false)
// rather than raising, so a well-formed compiled rule set can never panic the
// evaluation path.
//
// Explain mirrors Evaluate but additionally reports the expected and actual
// values per condition; the engine's dry-run mode is built on it.
package conditions
