package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// fileStore keeps each entry as a blob file plus a sidecar metadata record.
// The metadata rename is the commit point: readers that find the sidecar
// will find a complete blob. TTL is checked on load.
type fileStore struct {
	dir string
	now func() time.Time
}

func newFileStore(dir string) (*fileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &fileStore{dir: dir, now: time.Now}, nil
}

func (s *fileStore) blobPath(key string) string {
	return filepath.Join(s.dir, key+".blob")
}

func (s *fileStore) metaPath(key string) string {
	return filepath.Join(s.dir, key+".meta.json")
}

func (s *fileStore) Put(ctx context.Context, key string, env envelope, ttl time.Duration) error {
	payload, err := env.payload()
	if err != nil {
		return err
	}

	var blob []byte
	switch payload.Kind {
	case KindFrame:
		blob = env.Frame
	case KindText:
		blob = []byte(payload.Text)
	case KindBytes:
		blob = payload.Bytes
	case KindJSON:
		blob = payload.JSON
	}

	if err := writeFileAtomic(s.blobPath(key), blob); err != nil {
		return err
	}

	side := env
	side.Frame = nil
	side.Text = ""
	side.Hex = ""
	side.JSON = nil
	meta, err := json.Marshal(side)
	if err != nil {
		return fmt.Errorf("failed to marshal cache metadata: %w", err)
	}
	return writeFileAtomic(s.metaPath(key), meta)
}

func (s *fileStore) Get(ctx context.Context, key string) (*envelope, bool, error) {
	metaData, err := os.ReadFile(s.metaPath(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache metadata: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(metaData, &env); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cache metadata: %w", err)
	}

	if env.expired(s.now()) {
		return nil, false, nil
	}

	blob, err := os.ReadFile(s.blobPath(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache blob: %w", err)
	}

	switch env.Kind {
	case KindFrame:
		env.Frame = blob
	case KindText:
		env.Text = string(blob)
	case KindBytes:
		env.Hex = hex.EncodeToString(blob)
	case KindJSON:
		env.JSON = blob
	}
	return &env, true, nil
}

func (s *fileStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.metaPath(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Remove(s.blobPath(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// CleanExpired removes entries past their TTL and reports how many were
// dropped.
func (s *fileStore) CleanExpired(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to scan cache directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".meta.json") {
			continue
		}
		key := strings.TrimSuffix(name, ".meta.json")

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		if env.expired(s.now()) {
			if err := s.Delete(ctx, key); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tempFile, err := os.CreateTemp(dir, ".tmp_"+filepath.Base(path)+"_")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
