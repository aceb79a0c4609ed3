package main

import (
	"fmt"
	"strings"
	"time"

	"argus-hq/argus/pkg/audit"
	"argus-hq/argus/pkg/audit/chain"
	auditlog "argus-hq/argus/pkg/audit/log"
	"argus-hq/argus/pkg/audit/storage"
	"argus-hq/argus/pkg/cli"
	"argus-hq/argus/pkg/config"
	"argus-hq/argus/pkg/policy/engine"
	"argus-hq/argus/pkg/policy/schema"
)

// loadConfig loads and validates the configuration file selected by the
// global --config flag, with ARGUS_* environment overrides applied.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err.Error())
	}
	return cfg, nil
}

// openAuditStorage creates the audit storage backend selected by the
// configuration. The caller owns the returned storage and must Close it.
func openAuditStorage(cfg *config.Config) (audit.Storage, error) {
	switch cfg.Audit.Backend {
	case "sqlite":
		store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.Audit.SQLite.Path,
			MaxOpenConns: cfg.Audit.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.Audit.SQLite.MaxIdleConns,
			WALMode:      cfg.Audit.SQLite.WALMode,
			BusyTimeout:  cfg.Audit.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storage: %w", err)
		}
		return store, nil
	case "memory":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported audit backend: %s (supported: sqlite, memory)", cfg.Audit.Backend)
	}
}

// auditLogConfig maps the file configuration to an audit log configuration.
func auditLogConfig(cfg *config.Config) *auditlog.Config {
	return auditlog.DefaultConfig().
		WithAlgorithm(chain.Algorithm(cfg.Audit.Algorithm)).
		WithMaxAppendRetries(cfg.Audit.MaxAppendRetries)
}

// engineConfig maps the file configuration to a policy engine configuration.
func engineConfig(cfg *config.Config) *engine.Config {
	return engine.DefaultConfig().
		WithDefaultEffect(schema.Effect(cfg.Policy.DefaultEffect)).
		WithStopOnFirstMatch(cfg.Policy.StopOnFirstMatch).
		WithMaxDocuments(cfg.Policy.MaxDocuments).
		WithMaxRulesPerDocument(cfg.Policy.MaxRulesPerDocument)
}

// parseTimeRange parses an RFC3339 interval of the form "start/end".
func parseTimeRange(timeRange string) (time.Time, time.Time, error) {
	parts := strings.Split(timeRange, "/")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time range format (expected: start/end)")
	}

	startTime, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}

	endTime, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}

	if !endTime.After(startTime) {
		return time.Time{}, time.Time{}, fmt.Errorf("time range end must be after start")
	}
	return startTime, endTime, nil
}
