package config

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"argus-hq/argus/pkg/audit/chain"
	"argus-hq/argus/pkg/policy/schema"
)

// ValidationError reports one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

// Validate checks the configuration after defaults have been applied.
func Validate(cfg *Config) error {
	if cfg.Tenant.ID == "" {
		return &ValidationError{Field: "tenant.id", Message: "must not be empty"}
	}

	if !schema.ValidEffect(schema.Effect(cfg.Policy.DefaultEffect)) {
		return &ValidationError{Field: "policy.default_effect",
			Message: fmt.Sprintf("unknown effect %q", cfg.Policy.DefaultEffect)}
	}
	if cfg.Policy.MaxDocuments < 1 {
		return &ValidationError{Field: "policy.max_documents", Message: "must be positive"}
	}
	if cfg.Policy.MaxRulesPerDocument < 1 {
		return &ValidationError{Field: "policy.max_rules_per_document", Message: "must be positive"}
	}
	if cfg.Policy.DebounceDelay < 0 {
		return &ValidationError{Field: "policy.debounce_delay", Message: "must not be negative"}
	}

	switch cfg.Audit.Backend {
	case "sqlite", "memory":
	default:
		return &ValidationError{Field: "audit.backend",
			Message: fmt.Sprintf("unknown backend %q, expected sqlite or memory", cfg.Audit.Backend)}
	}
	if cfg.Audit.Backend == "sqlite" && cfg.Audit.SQLite.Path == "" {
		return &ValidationError{Field: "audit.sqlite.path", Message: "must not be empty"}
	}
	if !chain.Algorithm(cfg.Audit.Algorithm).Valid() {
		return &ValidationError{Field: "audit.algorithm",
			Message: fmt.Sprintf("unsupported algorithm %q", cfg.Audit.Algorithm)}
	}
	if cfg.Audit.MaxAppendRetries < 1 {
		return &ValidationError{Field: "audit.max_append_retries", Message: "must be positive"}
	}
	if cfg.Audit.SweepSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Audit.SweepSchedule); err != nil {
			return &ValidationError{Field: "audit.sweep_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err)}
		}
	}

	if cfg.Evidence.TraceStore.Enabled && cfg.Evidence.TraceStore.Path == "" {
		return &ValidationError{Field: "evidence.trace_store.path", Message: "must not be empty"}
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Field: "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q", cfg.Telemetry.Logging.Level)}
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		return &ValidationError{Field: "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q", cfg.Telemetry.Logging.Format)}
	}

	return nil
}
