// Argus is a multi-tenant policy-as-code engine with a hash-chained audit
// log and compliance evidence collector.
//
// It evaluates actions against declarative YAML policies, records every
// governed action in an append-only, tamper-evident audit log, and collects
// scored evidence for compliance controls.
//
// Usage:
//
//	# Start the daemon with default configuration
//	argus run
//
//	# Start with custom configuration file
//	argus run --config /etc/argus/argus.yaml
//
//	# Validate policy files
//	argus validate ./policies
//
//	# Dry-run a request against the policy set
//	argus simulate request.json
//
//	# Verify audit chain integrity
//	argus verify
//
//	# Collect evidence for a compliance control
//	argus evidence --control CC6.1 --format json
//
//	# Show version information
//	argus version
package main

func main() {
	Execute()
}
