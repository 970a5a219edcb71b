package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// docStore keeps entries in a PostgreSQL table with an explicit expiry
// column checked on read. The upsert is a single statement, so writers
// need no process-local lock.
type docStore struct {
	db *sql.DB
}

func newDocStore(db *sql.DB) (*docStore, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		envelope JSONB NOT NULL,
		expires_at TIMESTAMPTZ
	);

	CREATE INDEX IF NOT EXISTS idx_cache_entries_expires ON cache_entries(expires_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}
	return &docStore{db: db}, nil
}

func (s *docStore) Put(ctx context.Context, key string, env envelope, ttl time.Duration) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	var expiresAt any
	if ttl > 0 {
		expiresAt = env.CreatedAt.Add(ttl)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, envelope, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET envelope = $2, expires_at = $3`,
		key, data, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to write cache entry to doc store: %w", err)
	}
	return nil
}

func (s *docStore) Get(ctx context.Context, key string) (*envelope, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT envelope FROM cache_entries
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > NOW())`,
		key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry from doc store: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return &env, true, nil
}

func (s *docStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = $1`, key)
	return err
}
