package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the audit database schema.
const Schema = `
-- Per-log head pointers. latest_sequence is -1 while the log is empty.
CREATE TABLE IF NOT EXISTS audit_logs (
    log_id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    scope TEXT NOT NULL,
    latest_sequence INTEGER NOT NULL DEFAULT -1,
    head_hash TEXT NOT NULL DEFAULT '',
    entry_count INTEGER NOT NULL DEFAULT 0,
    sealed INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    sealed_at TEXT,

    UNIQUE(tenant_id, scope)
);

-- Append-only entries. The UNIQUE(log_id, sequence) constraint backs the
-- conditional-append discipline: no two entries can ever share a sequence.
CREATE TABLE IF NOT EXISTS audit_entries (
    id TEXT PRIMARY KEY,
    log_id TEXT NOT NULL,
    sequence INTEGER NOT NULL,
    timestamp TEXT NOT NULL,

    -- Actor
    actor_type TEXT NOT NULL,
    actor_id TEXT NOT NULL,
    actor_name TEXT,

    -- Action
    action_category TEXT NOT NULL,
    action_type TEXT NOT NULL,
    action_sensitive INTEGER NOT NULL DEFAULT 0,

    -- Resource (optional)
    resource_type TEXT,
    resource_id TEXT,
    resource_name TEXT,

    -- Outcome
    outcome_status TEXT NOT NULL,
    outcome_error_code TEXT,
    outcome_duration_ms INTEGER,

    -- Context
    tenant_id TEXT NOT NULL,
    trace_id TEXT,
    run_id TEXT,

    tags TEXT,
    high_risk INTEGER NOT NULL DEFAULT 0,
    details TEXT,

    -- Chain block
    prev_hash TEXT NOT NULL DEFAULT '',
    content_hash TEXT NOT NULL,
    algorithm TEXT NOT NULL,
    computed_at TEXT NOT NULL,

    UNIQUE(log_id, sequence)
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_audit_entries_log_seq ON audit_entries(log_id, sequence);
CREATE INDEX IF NOT EXISTS idx_audit_entries_log_time ON audit_entries(log_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_entries_category ON audit_entries(log_id, action_category);
CREATE INDEX IF NOT EXISTS idx_audit_entries_actor ON audit_entries(log_id, actor_id);
CREATE INDEX IF NOT EXISTS idx_audit_entries_trace ON audit_entries(trace_id);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
