package config

import "time"

// Config is the root configuration for argus.
type Config struct {
	// Tenant identifies the tenant this instance serves.
	Tenant TenantConfig `yaml:"tenant"`

	// Policy configures policy loading and evaluation.
	Policy PolicyConfig `yaml:"policy"`

	// Audit configures the audit log and its storage.
	Audit AuditConfig `yaml:"audit"`

	// Evidence configures evidence collection sources.
	Evidence EvidenceConfig `yaml:"evidence"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// TenantConfig identifies the tenant and scope.
type TenantConfig struct {
	// ID is the tenant identifier used in audit log IDs.
	ID string `yaml:"id"`

	// Scope partitions the tenant's audit logs, e.g. "prod".
	Scope string `yaml:"scope"`
}

// PolicyConfig configures policy loading and the evaluation engine.
type PolicyConfig struct {
	// Dir is the directory of policy YAML documents.
	Dir string `yaml:"dir"`

	// Watch enables hot reload of the policy directory.
	Watch bool `yaml:"watch"`

	// DebounceDelay coalesces bursts of file events before a reload.
	DebounceDelay time.Duration `yaml:"debounce_delay"`

	// DefaultEffect applies when no rule matches.
	DefaultEffect string `yaml:"default_effect"`

	// StopOnFirstMatch stops the scan at the first matching rule instead
	// of accumulating approval requirements.
	StopOnFirstMatch bool `yaml:"stop_on_first_match"`

	// MaxDocuments caps loaded policy documents.
	MaxDocuments int `yaml:"max_documents"`

	// MaxRulesPerDocument caps rules in one document.
	MaxRulesPerDocument int `yaml:"max_rules_per_document"`
}

// AuditConfig configures the audit log.
type AuditConfig struct {
	// Backend selects the storage backend: "sqlite" or "memory".
	Backend string `yaml:"backend"`

	// SQLite configures the SQLite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Algorithm selects the chain hash algorithm.
	Algorithm string `yaml:"algorithm"`

	// MaxAppendRetries bounds the append conflict retry loop.
	MaxAppendRetries int `yaml:"max_append_retries"`

	// SweepSchedule is a cron expression for periodic chain verification.
	// Empty disables the sweep.
	SweepSchedule string `yaml:"sweep_schedule"`
}

// SQLiteConfig configures a SQLite database file.
type SQLiteConfig struct {
	Path         string        `yaml:"path"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	WALMode      bool          `yaml:"wal_mode"`
	BusyTimeout  time.Duration `yaml:"busy_timeout"`
}

// EvidenceConfig configures evidence collection.
type EvidenceConfig struct {
	// TraceStore configures the optional decision-trace source.
	TraceStore TraceStoreConfig `yaml:"trace_store"`
}

// TraceStoreConfig configures the decision-trace store.
type TraceStoreConfig struct {
	// Enabled wires the trace store as an evidence source.
	Enabled bool `yaml:"enabled"`

	// Path is the trace database file path.
	Path string `yaml:"path"`
}

// TelemetryConfig configures logging and metrics.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled turns metric collection on.
	Enabled bool `yaml:"enabled"`

	// Namespace prefixes every metric name.
	Namespace string `yaml:"namespace"`

	// Listen is the address of the metrics and health HTTP server.
	Listen string `yaml:"listen"`
}
