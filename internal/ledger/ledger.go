// Package ledger implements the append-only usage ledger: every model call
// becomes one UsageRecord, persisted to a pluggable backend and queryable
// by time window.
package ledger

import (
	"context"
	"fmt"
	"time"
)

// UsageRecord is one model invocation. Records are append-only and never
// mutated after write; cost is computed at insert time from the
// then-current price table and frozen.
type UsageRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Provider     string    `json:"provider"`
	ModelName    string    `json:"model_name"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	Cost         float64   `json:"cost"`
	SessionID    string    `json:"session_id,omitempty"`
	AnalysisType string    `json:"analysis_type,omitempty"`
	Estimated    bool      `json:"estimated,omitempty"`
}

// Store is the persistence interface for usage records.
type Store interface {
	// Append persists one record.
	Append(ctx context.Context, record UsageRecord) error

	// Query returns records with Timestamp >= since, oldest first.
	Query(ctx context.Context, since time.Time) ([]UsageRecord, error)

	// SessionRecords returns all records for a session, oldest first.
	SessionRecords(ctx context.Context, sessionID string) ([]UsageRecord, error)

	// Prune removes records older than before and reports how many were
	// dropped.
	Prune(ctx context.Context, before time.Time) (int, error)

	// Close releases the backing resources.
	Close() error

	// Health checks if the store is reachable and functional.
	Health(ctx context.Context) error
}

// Config selects and configures a ledger backend.
type Config struct {
	// Type is the backend type: "file", "sqlite", or "postgres".
	Type string `json:"type"`

	File     FileConfig     `json:"file,omitempty"`
	SQLite   SQLiteConfig   `json:"sqlite,omitempty"`
	Postgres PostgresConfig `json:"postgres,omitempty"`
}

// FileConfig configures the JSON-file fallback store.
type FileConfig struct {
	Path       string `json:"path"`
	MaxRecords int    `json:"max_records"`
}

// SQLiteConfig configures the local SQLite store.
type SQLiteConfig struct {
	Path string `json:"path"`
}

// PostgresConfig configures the document-store backend.
type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"ssl_mode"`
}

// NewStore creates a ledger store based on the provided configuration.
func NewStore(config Config) (Store, error) {
	switch config.Type {
	case "file":
		return NewFileStore(config.File)
	case "sqlite":
		return NewSQLiteStore(config.SQLite)
	case "postgres":
		return NewPostgresStore(config.Postgres)
	default:
		return nil, fmt.Errorf("unsupported ledger store type: %s", config.Type)
	}
}
