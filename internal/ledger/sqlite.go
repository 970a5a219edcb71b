package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteTimeLayout is fixed-width so stored timestamps compare correctly
// as strings in SQL.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore persists usage records in a local SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a SQLite-backed ledger at config.Path.
func NewSQLiteStore(config SQLiteConfig) (*SQLiteStore, error) {
	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", config.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db, path: config.Path}
	if err := store.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		provider TEXT NOT NULL,
		model_name TEXT NOT NULL,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		cost REAL NOT NULL DEFAULT 0,
		session_id TEXT,
		analysis_type TEXT,
		estimated BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_usage_records_timestamp ON usage_records(timestamp);
	CREATE INDEX IF NOT EXISTS idx_usage_records_session ON usage_records(session_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append inserts one record.
func (s *SQLiteStore) Append(ctx context.Context, record UsageRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_records
			(timestamp, provider, model_name, input_tokens, output_tokens, cost, session_id, analysis_type, estimated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Timestamp.UTC().Format(sqliteTimeLayout),
		record.Provider,
		record.ModelName,
		record.InputTokens,
		record.OutputTokens,
		record.Cost,
		record.SessionID,
		record.AnalysisType,
		record.Estimated,
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}
	return nil
}

// Query returns records with timestamp >= since, oldest first.
func (s *SQLiteStore) Query(ctx context.Context, since time.Time) ([]UsageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, provider, model_name, input_tokens, output_tokens, cost, session_id, analysis_type, estimated
		FROM usage_records
		WHERE timestamp >= ?
		ORDER BY timestamp ASC, id ASC`,
		since.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// SessionRecords returns all records for a session, oldest first.
func (s *SQLiteStore) SessionRecords(ctx context.Context, sessionID string) ([]UsageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, provider, model_name, input_tokens, output_tokens, cost, session_id, analysis_type, estimated
		FROM usage_records
		WHERE session_id = ?
		ORDER BY timestamp ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query session records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// Prune removes records older than before.
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM usage_records WHERE timestamp < ?`,
		before.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(n), nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Health checks the database is reachable.
func (s *SQLiteStore) Health(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("sqlite database is nil")
	}
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM usage_records`).Scan(&n); err != nil {
		return fmt.Errorf("sqlite query test failed: %w", err)
	}
	return nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecords(rows rowScanner) ([]UsageRecord, error) {
	var records []UsageRecord
	for rows.Next() {
		var r UsageRecord
		var ts string
		var sessionID, analysisType sql.NullString
		if err := rows.Scan(&ts, &r.Provider, &r.ModelName, &r.InputTokens, &r.OutputTokens, &r.Cost, &sessionID, &analysisType, &r.Estimated); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse record timestamp %q: %w", ts, err)
		}
		r.Timestamp = parsed
		r.SessionID = sessionID.String
		r.AnalysisType = analysisType.String
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
