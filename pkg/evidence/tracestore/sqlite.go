package tracestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const traceTimeFormat = time.RFC3339Nano

// SQLiteStore implements Store on a SQLite database using the pure-Go
// driver, so trace storage works without cgo.
type SQLiteStore struct {
	db *sql.DB
}

// SQLiteStoreConfig configures the SQLite trace store.
type SQLiteStoreConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore opens (and if needed initializes) a trace database.
func NewSQLiteStore(config *SQLiteStoreConfig) (*SQLiteStore, error) {
	if config == nil || config.Path == "" {
		return nil, fmt.Errorf("trace store requires a database path")
	}
	busyTimeout := config.BusyTimeout
	if busyTimeout == 0 {
		busyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		config.Path, int(busyTimeout.Milliseconds()))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize trace schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS decision_traces (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		run_id TEXT,
		agent_type TEXT,
		timestamp TEXT NOT NULL,
		action TEXT NOT NULL,
		decision TEXT NOT NULL,
		confidence REAL NOT NULL,
		sensitive INTEGER NOT NULL DEFAULT 0,
		details TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_traces_tenant_time ON decision_traces(tenant_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_traces_run ON decision_traces(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Insert persists one trace.
func (s *SQLiteStore) Insert(ctx context.Context, trace *DecisionTrace) error {
	details, err := json.Marshal(trace.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal trace details: %w", err)
	}

	sensitive := 0
	if trace.Sensitive {
		sensitive = 1
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO decision_traces (id, tenant_id, run_id, agent_type, timestamp, action, decision, confidence, sensitive, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trace.ID, trace.TenantID, trace.RunID, trace.AgentType,
		trace.Timestamp.UTC().Format(traceTimeFormat),
		trace.Action, trace.Decision, trace.Confidence, sensitive, string(details),
	)
	if err != nil {
		return fmt.Errorf("failed to insert trace: %w", err)
	}
	return nil
}

// Query returns traces matching the filter in ascending timestamp order.
func (s *SQLiteStore) Query(ctx context.Context, filter *Filter) ([]*DecisionTrace, error) {
	if filter == nil {
		filter = &Filter{}
	}

	conds := []string{"1=1"}
	var args []interface{}
	add := func(cond string, arg interface{}) {
		conds = append(conds, cond)
		args = append(args, arg)
	}

	if filter.TenantID != "" {
		add("tenant_id = ?", filter.TenantID)
	}
	if filter.RunID != "" {
		add("run_id = ?", filter.RunID)
	}
	if filter.AgentType != "" {
		add("agent_type = ?", filter.AgentType)
	}
	if !filter.StartTime.IsZero() {
		add("timestamp >= ?", filter.StartTime.UTC().Format(traceTimeFormat))
	}
	if !filter.EndTime.IsZero() {
		add("timestamp < ?", filter.EndTime.UTC().Format(traceTimeFormat))
	}

	query := `
		SELECT id, tenant_id, run_id, agent_type, timestamp, action, decision, confidence, sensitive, details
		FROM decision_traces
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY timestamp ASC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query traces: %w", err)
	}
	defer rows.Close()

	var traces []*DecisionTrace
	for rows.Next() {
		var (
			t         DecisionTrace
			timestamp string
			sensitive int
			details   sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.TenantID, &t.RunID, &t.AgentType,
			&timestamp, &t.Action, &t.Decision, &t.Confidence, &sensitive, &details); err != nil {
			return nil, fmt.Errorf("failed to scan trace: %w", err)
		}
		if t.Timestamp, err = time.Parse(traceTimeFormat, timestamp); err != nil {
			return nil, fmt.Errorf("failed to parse trace timestamp: %w", err)
		}
		t.Sensitive = sensitive != 0
		if details.Valid && details.String != "" && details.String != "null" {
			if err := json.Unmarshal([]byte(details.String), &t.Details); err != nil {
				return nil, fmt.Errorf("failed to parse trace details: %w", err)
			}
		}
		traces = append(traces, &t)
	}
	return traces, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
