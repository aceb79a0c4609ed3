package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults, and
// validates. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and then
// applies ARGUS_SECTION_FIELD environment overrides (e.g. ARGUS_TENANT_ID).
// Environment variables always win over the file.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies ARGUS_* environment variables to cfg.
func applyEnvOverrides(cfg *Config) {
	setString := func(key string, target *string) {
		if val := os.Getenv(key); val != "" {
			*target = val
		}
	}
	setBool := func(key string, target *bool) {
		if val := os.Getenv(key); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				*target = b
			}
		}
	}
	setInt := func(key string, target *int) {
		if val := os.Getenv(key); val != "" {
			if i, err := strconv.Atoi(val); err == nil {
				*target = i
			}
		}
	}
	setDuration := func(key string, target *time.Duration) {
		if val := os.Getenv(key); val != "" {
			if d, err := time.ParseDuration(val); err == nil {
				*target = d
			}
		}
	}

	setString("ARGUS_TENANT_ID", &cfg.Tenant.ID)
	setString("ARGUS_TENANT_SCOPE", &cfg.Tenant.Scope)

	setString("ARGUS_POLICY_DIR", &cfg.Policy.Dir)
	setBool("ARGUS_POLICY_WATCH", &cfg.Policy.Watch)
	setDuration("ARGUS_POLICY_DEBOUNCE_DELAY", &cfg.Policy.DebounceDelay)
	setString("ARGUS_POLICY_DEFAULT_EFFECT", &cfg.Policy.DefaultEffect)
	setBool("ARGUS_POLICY_STOP_ON_FIRST_MATCH", &cfg.Policy.StopOnFirstMatch)
	setInt("ARGUS_POLICY_MAX_DOCUMENTS", &cfg.Policy.MaxDocuments)
	setInt("ARGUS_POLICY_MAX_RULES_PER_DOCUMENT", &cfg.Policy.MaxRulesPerDocument)

	setString("ARGUS_AUDIT_BACKEND", &cfg.Audit.Backend)
	setString("ARGUS_AUDIT_SQLITE_PATH", &cfg.Audit.SQLite.Path)
	setInt("ARGUS_AUDIT_SQLITE_MAX_OPEN_CONNS", &cfg.Audit.SQLite.MaxOpenConns)
	setInt("ARGUS_AUDIT_SQLITE_MAX_IDLE_CONNS", &cfg.Audit.SQLite.MaxIdleConns)
	setBool("ARGUS_AUDIT_SQLITE_WAL_MODE", &cfg.Audit.SQLite.WALMode)
	setDuration("ARGUS_AUDIT_SQLITE_BUSY_TIMEOUT", &cfg.Audit.SQLite.BusyTimeout)
	setString("ARGUS_AUDIT_ALGORITHM", &cfg.Audit.Algorithm)
	setInt("ARGUS_AUDIT_MAX_APPEND_RETRIES", &cfg.Audit.MaxAppendRetries)
	setString("ARGUS_AUDIT_SWEEP_SCHEDULE", &cfg.Audit.SweepSchedule)

	setBool("ARGUS_EVIDENCE_TRACE_STORE_ENABLED", &cfg.Evidence.TraceStore.Enabled)
	setString("ARGUS_EVIDENCE_TRACE_STORE_PATH", &cfg.Evidence.TraceStore.Path)

	setString("ARGUS_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	setString("ARGUS_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	setBool("ARGUS_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	setString("ARGUS_TELEMETRY_METRICS_NAMESPACE", &cfg.Telemetry.Metrics.Namespace)
	setString("ARGUS_TELEMETRY_METRICS_LISTEN", &cfg.Telemetry.Metrics.Listen)
}
