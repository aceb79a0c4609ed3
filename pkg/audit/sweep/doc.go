// Package sweep runs scheduled chain verification over registered audit
// logs.
//
// A Sweeper walks every registered log on a cron schedule, re-verifies the
// hash chain end to end, and reports the outcome. Verification never mutates
// the logs; a broken chain is logged, counted, and kept available through
// LastReport so operators can act on it.
package sweep
