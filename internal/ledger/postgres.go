package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore persists usage records in a PostgreSQL document collection.
// Inserts are single-row and need no process-local locking.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to PostgreSQL with a bounded timeout and
// prepares the usage_records table.
func NewPostgresStore(config PostgresConfig) (*PostgresStore, error) {
	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=2",
		config.Host, config.Port, config.Username, config.Password, config.Database, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage_records (
		id BIGSERIAL PRIMARY KEY,
		timestamp TIMESTAMPTZ NOT NULL,
		provider TEXT NOT NULL,
		model_name TEXT NOT NULL,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		cost DOUBLE PRECISION NOT NULL DEFAULT 0,
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
func (s *PostgresStore) Append(ctx context.Context, record UsageRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_records
			(timestamp, provider, model_name, input_tokens, output_tokens, cost, session_id, analysis_type, estimated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.Timestamp.UTC(),
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
func (s *PostgresStore) Query(ctx context.Context, since time.Time) ([]UsageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, provider, model_name, input_tokens, output_tokens, cost,
		       COALESCE(session_id, ''), COALESCE(analysis_type, ''), estimated
		FROM usage_records
		WHERE timestamp >= $1
		ORDER BY timestamp ASC, id ASC`,
		since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanPostgresRecords(rows)
}

// SessionRecords returns all records for a session, oldest first.
func (s *PostgresStore) SessionRecords(ctx context.Context, sessionID string) ([]UsageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, provider, model_name, input_tokens, output_tokens, cost,
		       COALESCE(session_id, ''), COALESCE(analysis_type, ''), estimated
		FROM usage_records
		WHERE session_id = $1
		ORDER BY timestamp ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query session records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanPostgresRecords(rows)
}

// Prune removes records older than before.
func (s *PostgresStore) Prune(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM usage_records WHERE timestamp < $1`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(n), nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Health checks postgres is reachable.
func (s *PostgresStore) Health(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("postgres connection is nil")
	}
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func scanPostgresRecords(rows *sql.Rows) ([]UsageRecord, error) {
	var records []UsageRecord
	for rows.Next() {
		var r UsageRecord
		if err := rows.Scan(&r.Timestamp, &r.Provider, &r.ModelName, &r.InputTokens, &r.OutputTokens, &r.Cost, &r.SessionID, &r.AnalysisType, &r.Estimated); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
