package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"argus-hq/argus/pkg/audit"
)

// timeFormat is the canonical timestamp encoding in the database. The
// fractional part is zero-padded to full nanosecond width so that
// lexicographic comparison of stored values (all UTC) matches chronological
// order; RFC3339Nano would drop trailing zeros and break range predicates.
// Parsing it back yields the exact instant the chain hash covered, so a
// round trip cannot change an entry's content hash.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/audit.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements audit.Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage creates a new SQLite storage backend.
// It initializes the database schema and enables WAL mode if configured.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "audit.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return audit.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return audit.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return audit.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return audit.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return audit.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return audit.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// CreateLog registers a new log.
func (s *SQLiteStorage) CreateLog(ctx context.Context, meta *audit.LogMetadata) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (log_id, tenant_id, scope, latest_sequence, head_hash, entry_count, sealed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.LogID, meta.TenantID, meta.Scope,
		meta.LatestSequence, meta.HeadHash, meta.EntryCount,
		boolToInt(meta.Sealed), meta.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return audit.NewStorageError("sqlite", "create_log", err)
	}
	return nil
}

// FindLog returns the metadata for a tenant and scope.
func (s *SQLiteStorage) FindLog(ctx context.Context, tenantID, scope string) (*audit.LogMetadata, error) {
	row := s.db.QueryRowContext(ctx,
		metadataSelect+" WHERE tenant_id = ? AND scope = ?", tenantID, scope)
	meta, err := scanMetadata(row)
	if err == sql.ErrNoRows {
		return nil, &audit.NotFoundError{Kind: "log", ID: tenantID + "/" + scope}
	}
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "find_log", err)
	}
	return meta, nil
}

// GetMetadata returns the metadata of the identified log.
func (s *SQLiteStorage) GetMetadata(ctx context.Context, logID string) (*audit.LogMetadata, error) {
	row := s.db.QueryRowContext(ctx, metadataSelect+" WHERE log_id = ?", logID)
	meta, err := scanMetadata(row)
	if err == sql.ErrNoRows {
		return nil, &audit.NotFoundError{Kind: "log", ID: logID}
	}
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "get_metadata", err)
	}
	return meta, nil
}

const metadataSelect = `
	SELECT log_id, tenant_id, scope, latest_sequence, head_hash, entry_count, sealed, created_at, sealed_at
	FROM audit_logs`

// scanMetadata reads one audit_logs row.
func scanMetadata(row *sql.Row) (*audit.LogMetadata, error) {
	var (
		meta      audit.LogMetadata
		sealed    int
		createdAt string
		sealedAt  sql.NullString
	)
	err := row.Scan(&meta.LogID, &meta.TenantID, &meta.Scope,
		&meta.LatestSequence, &meta.HeadHash, &meta.EntryCount,
		&sealed, &createdAt, &sealedAt)
	if err != nil {
		return nil, err
	}

	meta.Sealed = sealed != 0
	if meta.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if sealedAt.Valid {
		t, err := time.Parse(timeFormat, sealedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse sealed_at: %w", err)
		}
		meta.SealedAt = &t
	}
	return &meta, nil
}

// AppendEntry persists entry and advances the head in one transaction,
// conditional on the head still matching expected. The conditional UPDATE
// carries the conflict detection; UNIQUE(log_id, sequence) is the backstop.
func (s *SQLiteStorage) AppendEntry(ctx context.Context, entry *audit.Entry, expected audit.HeadState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return audit.NewStorageError("sqlite", "begin_append", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE audit_logs
		SET latest_sequence = ?, head_hash = ?, entry_count = entry_count + 1
		WHERE log_id = ? AND latest_sequence = ? AND head_hash = ? AND sealed = 0`,
		entry.Chain.Sequence, entry.Chain.ContentHash,
		entry.LogID, expected.LatestSequence, expected.HeadHash,
	)
	if err != nil {
		return audit.NewStorageError("sqlite", "advance_head", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return audit.NewStorageError("sqlite", "advance_head", err)
	}
	if affected == 0 {
		return s.classifyAppendFailure(ctx, tx, entry.LogID)
	}

	tags, err := json.Marshal(entry.Tags)
	if err != nil {
		return audit.NewStorageError("sqlite", "marshal_tags", err)
	}
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return audit.NewStorageError("sqlite", "marshal_details", err)
	}

	var resourceType, resourceID, resourceName interface{}
	if entry.Resource != nil {
		resourceType = entry.Resource.Type
		resourceID = entry.Resource.ID
		resourceName = entry.Resource.Name
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_entries (
			id, log_id, sequence, timestamp,
			actor_type, actor_id, actor_name,
			action_category, action_type, action_sensitive,
			resource_type, resource_id, resource_name,
			outcome_status, outcome_error_code, outcome_duration_ms,
			tenant_id, trace_id, run_id,
			tags, high_risk, details,
			prev_hash, content_hash, algorithm, computed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.LogID, entry.Chain.Sequence, entry.Timestamp.UTC().Format(timeFormat),
		string(entry.Actor.Type), entry.Actor.ID, entry.Actor.Name,
		string(entry.Action.Category), entry.Action.Type, boolToInt(entry.Action.Sensitive),
		resourceType, resourceID, resourceName,
		string(entry.Outcome.Status), entry.Outcome.ErrorCode, entry.Outcome.DurationMs,
		entry.Context.TenantID, entry.Context.TraceID, entry.Context.RunID,
		string(tags), boolToInt(entry.HighRisk), string(details),
		entry.Chain.PrevHash, entry.Chain.ContentHash, entry.Chain.Algorithm,
		entry.Chain.ComputedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return audit.ErrSequenceConflict
		}
		return audit.NewStorageError("sqlite", "insert_entry", err)
	}

	if err := tx.Commit(); err != nil {
		return audit.NewStorageError("sqlite", "commit_append", err)
	}
	return nil
}

// classifyAppendFailure distinguishes missing log, sealed log, and lost race
// after a conditional head update matched no row.
func (s *SQLiteStorage) classifyAppendFailure(ctx context.Context, tx *sql.Tx, logID string) error {
	var sealed int
	err := tx.QueryRowContext(ctx,
		"SELECT sealed FROM audit_logs WHERE log_id = ?", logID).Scan(&sealed)
	if err == sql.ErrNoRows {
		return &audit.NotFoundError{Kind: "log", ID: logID}
	}
	if err != nil {
		return audit.NewStorageError("sqlite", "classify_append", err)
	}
	if sealed != 0 {
		return &audit.SealedLogError{LogID: logID}
	}
	return audit.ErrSequenceConflict
}

// SealLog marks the log sealed. Idempotent.
func (s *SQLiteStorage) SealLog(ctx context.Context, logID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE audit_logs SET sealed = 1, sealed_at = COALESCE(sealed_at, ?)
		WHERE log_id = ?`,
		time.Now().UTC().Format(timeFormat), logID)
	if err != nil {
		return audit.NewStorageError("sqlite", "seal_log", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return audit.NewStorageError("sqlite", "seal_log", err)
	}
	if affected == 0 {
		return &audit.NotFoundError{Kind: "log", ID: logID}
	}
	return nil
}

// Query returns matching entries in ascending sequence order.
func (s *SQLiteStorage) Query(ctx context.Context, q *audit.Query) (*audit.QueryResult, error) {
	if _, err := s.GetMetadata(ctx, q.LogID); err != nil {
		return nil, err
	}

	where, args := buildWhere(q)

	var total int64
	countQuery := "SELECT COUNT(*) FROM audit_entries " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, audit.NewStorageError("sqlite", "count", err)
	}

	query := entrySelect + " " + where + " ORDER BY sequence ASC"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", q.Limit, q.Offset)
	} else if q.Offset > 0 {
		query += fmt.Sprintf(" LIMIT -1 OFFSET %d", q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	var entries []*audit.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, audit.NewStorageError("sqlite", "scan", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, audit.NewStorageError("sqlite", "query", err)
	}

	return &audit.QueryResult{Entries: entries, Total: total}, nil
}

const entrySelect = `
	SELECT id, log_id, sequence, timestamp,
		actor_type, actor_id, actor_name,
		action_category, action_type, action_sensitive,
		resource_type, resource_id, resource_name,
		outcome_status, outcome_error_code, outcome_duration_ms,
		tenant_id, trace_id, run_id,
		tags, high_risk, details,
		prev_hash, content_hash, algorithm, computed_at
	FROM audit_entries`

// buildWhere translates the set filters of q into a WHERE clause.
func buildWhere(q *audit.Query) (string, []interface{}) {
	conds := []string{"log_id = ?"}
	args := []interface{}{q.LogID}

	add := func(cond string, arg interface{}) {
		conds = append(conds, cond)
		args = append(args, arg)
	}

	if q.Category != "" {
		add("action_category = ?", string(q.Category))
	}
	if q.ActionType != "" {
		add("action_type = ?", q.ActionType)
	}
	if q.Status != "" {
		add("outcome_status = ?", string(q.Status))
	}
	if q.ActorID != "" {
		add("actor_id = ?", q.ActorID)
	}
	if q.ResourceID != "" {
		add("resource_id = ?", q.ResourceID)
	}
	if q.TraceID != "" {
		add("trace_id = ?", q.TraceID)
	}
	if q.RunID != "" {
		add("run_id = ?", q.RunID)
	}
	if q.Tag != "" {
		// Tags are stored as a JSON array of strings. Match the tag's exact
		// JSON encoding, with LIKE metacharacters escaped so tags containing
		// % or _ compare literally.
		enc, _ := json.Marshal(q.Tag)
		esc := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(string(enc))
		add(`tags LIKE ? ESCAPE '\'`, "%"+esc+"%")
	}
	if !q.StartTime.IsZero() {
		add("timestamp >= ?", q.StartTime.UTC().Format(timeFormat))
	}
	if !q.EndTime.IsZero() {
		add("timestamp < ?", q.EndTime.UTC().Format(timeFormat))
	}
	if q.StartSequence != nil {
		add("sequence >= ?", *q.StartSequence)
	}
	if q.EndSequence != nil {
		add("sequence <= ?", *q.EndSequence)
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

// scanEntry reads one audit_entries row.
func scanEntry(rows *sql.Rows) (*audit.Entry, error) {
	var (
		e                                 audit.Entry
		timestamp, computedAt             string
		actorType, actionCategory, status string
		sensitive, highRisk               int
		actorName                         sql.NullString
		resourceType, resourceID, resName sql.NullString
		errorCode, traceID, runID         sql.NullString
		durationMs                        sql.NullInt64
		tags, details                     sql.NullString
	)

	err := rows.Scan(&e.ID, &e.LogID, &e.Chain.Sequence, &timestamp,
		&actorType, &e.Actor.ID, &actorName,
		&actionCategory, &e.Action.Type, &sensitive,
		&resourceType, &resourceID, &resName,
		&status, &errorCode, &durationMs,
		&e.Context.TenantID, &traceID, &runID,
		&tags, &highRisk, &details,
		&e.Chain.PrevHash, &e.Chain.ContentHash, &e.Chain.Algorithm, &computedAt)
	if err != nil {
		return nil, err
	}

	if e.Timestamp, err = time.Parse(timeFormat, timestamp); err != nil {
		return nil, fmt.Errorf("parse timestamp: %w", err)
	}
	if e.Chain.ComputedAt, err = time.Parse(timeFormat, computedAt); err != nil {
		return nil, fmt.Errorf("parse computed_at: %w", err)
	}

	e.Actor.Type = audit.ActorType(actorType)
	e.Actor.Name = actorName.String
	e.Action.Category = audit.Category(actionCategory)
	e.Action.Sensitive = sensitive != 0
	e.HighRisk = highRisk != 0
	e.Outcome.Status = audit.OutcomeStatus(status)
	e.Outcome.ErrorCode = errorCode.String
	e.Outcome.DurationMs = durationMs.Int64
	e.Context.TraceID = traceID.String
	e.Context.RunID = runID.String

	if resourceID.Valid || resourceType.Valid {
		e.Resource = &audit.EntryResource{
			Type: resourceType.String,
			ID:   resourceID.String,
			Name: resName.String,
		}
	}

	if tags.Valid && tags.String != "" && tags.String != "null" {
		if err := json.Unmarshal([]byte(tags.String), &e.Tags); err != nil {
			return nil, fmt.Errorf("parse tags: %w", err)
		}
	}
	if details.Valid && details.String != "" && details.String != "null" {
		if err := json.Unmarshal([]byte(details.String), &e.Details); err != nil {
			return nil, fmt.Errorf("parse details: %w", err)
		}
	}

	return &e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
