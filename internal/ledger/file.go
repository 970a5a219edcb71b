package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultMaxRecords bounds the JSON fallback ledger; oldest records are
// dropped on overflow.
const DefaultMaxRecords = 10000

// FileStore persists records as a single JSON array ordered oldest to
// newest. It is the always-available fallback backend: a process-local
// mutex serializes the read-modify-write cycle and writes go through temp
// file + rename so readers never observe a partial file.
type FileStore struct {
	path string
	max  int
	mu   sync.Mutex
}

// NewFileStore creates a file-backed ledger at config.Path.
func NewFileStore(config FileConfig) (*FileStore, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("file ledger requires a path")
	}
	max := config.MaxRecords
	if max <= 0 {
		max = DefaultMaxRecords
	}
	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}
	return &FileStore{path: config.Path, max: max}, nil
}

// Append adds a record, dropping the oldest entries when the bound is
// exceeded.
func (s *FileStore) Append(ctx context.Context, record UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return err
	}

	records = append(records, record)
	if len(records) > s.max {
		records = records[len(records)-s.max:]
	}

	return s.writeAll(records)
}

// Query returns records with Timestamp >= since, oldest first.
func (s *FileStore) Query(ctx context.Context, since time.Time) ([]UsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return nil, err
	}

	out := make([]UsageRecord, 0, len(records))
	for _, r := range records {
		if !r.Timestamp.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

// SessionRecords returns all records for a session, oldest first.
func (s *FileStore) SessionRecords(ctx context.Context, sessionID string) ([]UsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return nil, err
	}

	out := make([]UsageRecord, 0)
	for _, r := range records {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Prune removes records older than before.
func (s *FileStore) Prune(ctx context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return 0, err
	}

	kept := make([]UsageRecord, 0, len(records))
	for _, r := range records {
		if !r.Timestamp.Before(before) {
			kept = append(kept, r)
		}
	}

	dropped := len(records) - len(kept)
	if dropped == 0 {
		return 0, nil
	}
	return dropped, s.writeAll(kept)
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}

// Health verifies the ledger file (or its directory) is writable.
func (s *FileStore) Health(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return err
	}
	return s.writeAll(records)
}

func (s *FileStore) readAll() ([]UsageRecord, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []UsageRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger file: %w", err)
	}
	if len(data) == 0 {
		return []UsageRecord{}, nil
	}

	var records []UsageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse ledger file: %w", err)
	}
	return records, nil
}

func (s *FileStore) writeAll(records []UsageRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger records: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(s.path), ".tmp_ledger_")
	if err != nil {
		return fmt.Errorf("failed to create temp ledger file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to write temp ledger file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to close temp ledger file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}
	return nil
}
