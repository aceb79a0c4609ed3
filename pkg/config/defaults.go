package config

import "time"

// Default values applied to unset fields.
const (
	DefaultScope               = "default"
	DefaultPolicyDir           = "policies"
	DefaultDebounceDelay       = 500 * time.Millisecond
	DefaultEffect              = "allow"
	DefaultMaxDocuments        = 100
	DefaultMaxRulesPerDocument = 200

	DefaultAuditBackend     = "sqlite"
	DefaultAuditDBPath      = "data/audit.db"
	DefaultAlgorithm        = "sha-256"
	DefaultMaxAppendRetries = 5

	DefaultTraceDBPath = "data/traces.db"

	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultMetricsNamespace = "argus"
	DefaultMetricsListen    = ":9464"
)

// ApplyDefaults fills unset fields with defaults. Booleans keep their zero
// value; only empty strings, zero numbers, and zero durations are replaced.
func ApplyDefaults(cfg *Config) {
	if cfg.Tenant.Scope == "" {
		cfg.Tenant.Scope = DefaultScope
	}

	if cfg.Policy.Dir == "" {
		cfg.Policy.Dir = DefaultPolicyDir
	}
	if cfg.Policy.DebounceDelay == 0 {
		cfg.Policy.DebounceDelay = DefaultDebounceDelay
	}
	if cfg.Policy.DefaultEffect == "" {
		cfg.Policy.DefaultEffect = DefaultEffect
	}
	if cfg.Policy.MaxDocuments == 0 {
		cfg.Policy.MaxDocuments = DefaultMaxDocuments
	}
	if cfg.Policy.MaxRulesPerDocument == 0 {
		cfg.Policy.MaxRulesPerDocument = DefaultMaxRulesPerDocument
	}

	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}
	if cfg.Audit.SQLite.Path == "" {
		cfg.Audit.SQLite.Path = DefaultAuditDBPath
	}
	if cfg.Audit.SQLite.MaxOpenConns == 0 {
		cfg.Audit.SQLite.MaxOpenConns = 10
	}
	if cfg.Audit.SQLite.MaxIdleConns == 0 {
		cfg.Audit.SQLite.MaxIdleConns = 5
	}
	if cfg.Audit.SQLite.BusyTimeout == 0 {
		cfg.Audit.SQLite.BusyTimeout = 5 * time.Second
	}
	if cfg.Audit.Algorithm == "" {
		cfg.Audit.Algorithm = DefaultAlgorithm
	}
	if cfg.Audit.MaxAppendRetries == 0 {
		cfg.Audit.MaxAppendRetries = DefaultMaxAppendRetries
	}

	if cfg.Evidence.TraceStore.Path == "" {
		cfg.Evidence.TraceStore.Path = DefaultTraceDBPath
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Listen == "" {
		cfg.Telemetry.Metrics.Listen = DefaultMetricsListen
	}
}
