// Package cache implements the adaptive multi-tier artifact cache: save and
// load by metadata-derived key across an in-memory KV, a document store,
// and the local filesystem, with per-artifact TTL and deterministic
// degradation to file when a remote backend fails.
package cache

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tradingagents/core/internal/backend"
	"github.com/tradingagents/core/internal/envparse"
	"github.com/tradingagents/core/internal/logger"
)

// Entry describes a stored artifact. BackendTag records where the write
// actually landed, which may be "file" after degradation.
type Entry struct {
	Key        string    `json:"key"`
	Meta       Meta      `json:"metadata"`
	CreatedAt  time.Time `json:"created_at"`
	TTLSeconds int       `json:"ttl_seconds"`
	BackendTag string    `json:"backend_tag"`
}

// StatusSource yields the current backend status. *backend.Detector
// satisfies this.
type StatusSource interface {
	Status() backend.Status
}

type entryStore interface {
	Put(ctx context.Context, key string, env envelope, ttl time.Duration) error
	Get(ctx context.Context, key string) (*envelope, bool, error)
	Delete(ctx context.Context, key string) error
}

// Cache routes artifact reads and writes to the primary backend published
// by the detector, falling back to the local file store.
type Cache struct {
	status StatusSource
	kv     entryStore
	doc    entryStore
	file   *fileStore
	now    func() time.Time
}

// Options carries the optional remote backend clients. File storage is
// always configured.
type Options struct {
	FileDir  string
	KVClient *redis.Client
	DocDB    *sql.DB
}

// New builds a Cache. Remote backends are optional; a nil client simply
// leaves that tier unavailable regardless of detector status.
func New(status StatusSource, opts Options) (*Cache, error) {
	file, err := newFileStore(opts.FileDir)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		status: status,
		file:   file,
		now:    time.Now,
	}
	if opts.KVClient != nil {
		c.kv = newKVStore(opts.KVClient)
	}
	if opts.DocDB != nil {
		doc, err := newDocStore(opts.DocDB)
		if err != nil {
			return nil, err
		}
		c.doc = doc
	}
	return c, nil
}

// Save writes payload under the key derived from meta. The write goes to
// the primary backend; on failure it degrades to file and the returned
// entry's BackendTag records that.
func (c *Cache) Save(ctx context.Context, meta Meta, payload Payload) (Entry, error) {
	key := DeriveKey(meta)
	ttl := TTLFor(meta.Symbol, meta.DataType)
	createdAt := c.now().UTC()

	env, err := newEnvelope(payload, meta, createdAt, ttl)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		Key:        key,
		Meta:       meta,
		CreatedAt:  createdAt,
		TTLSeconds: int(ttl / time.Second),
	}

	tag := c.status.Status().PrimaryBackend
	store := c.storeFor(tag)
	if store == nil {
		tag = backend.BackendFile
		store = c.file
	}

	if err := store.Put(ctx, key, env, ttl); err != nil {
		if tag == backend.BackendFile {
			return Entry{}, err
		}
		logger.WarnEvent("cache_degraded",
			"key", key,
			"from", tag,
			"to", backend.BackendFile,
			"error", err.Error())
		if err := c.file.Put(ctx, key, env, ttl); err != nil {
			return Entry{}, err
		}
		tag = backend.BackendFile
	}

	entry.BackendTag = tag
	return entry, nil
}

// Load reads the payload stored under key. Absent or expired entries
// return (nil, false). A primary-tier miss or failure falls through to the
// file tier when fallback is enabled.
func (c *Cache) Load(ctx context.Context, key string) (*Payload, bool) {
	status := c.status.Status()
	tag := status.PrimaryBackend
	store := c.storeFor(tag)
	if store == nil {
		tag = backend.BackendFile
		store = c.file
	}

	env, ok, err := store.Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", "backend", tag, "key", key, "error", err)
	}
	if (err != nil || !ok) && tag != backend.BackendFile && status.FallbackEnabled {
		env, ok, err = c.file.Get(ctx, key)
		if err != nil {
			logger.Warn("cache file fallback read failed", "key", key, "error", err)
		}
	}
	if err != nil || !ok {
		return nil, false
	}

	if env.expired(c.now()) {
		return nil, false
	}

	payload, perr := env.payload()
	if perr != nil {
		logger.Warn("cache entry undecodable", "key", key, "error", perr)
		return nil, false
	}
	return &payload, true
}

// Find recomputes the key for meta and probes Load.
func (c *Cache) Find(ctx context.Context, meta Meta) (string, bool) {
	key := DeriveKey(meta)
	if _, ok := c.Load(ctx, key); !ok {
		return "", false
	}
	return key, true
}

// Invalidate removes the entry from every tier, best effort.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	for _, store := range []entryStore{c.kv, c.doc, c.file} {
		if store == nil {
			continue
		}
		if err := store.Delete(ctx, key); err != nil {
			logger.Debug("cache invalidation failed on one tier", "key", key, "error", err)
		}
	}
}

// CleanExpired removes expired entries from the file tier. The
// SKIP_CACHE_CLEAN toggle disables it.
func (c *Cache) CleanExpired(ctx context.Context) (int, error) {
	if envparse.Bool("SKIP_CACHE_CLEAN", false) {
		return 0, nil
	}
	return c.file.CleanExpired(ctx)
}

func (c *Cache) storeFor(tag string) entryStore {
	switch tag {
	case backend.BackendKV:
		if c.kv != nil {
			return c.kv
		}
	case backend.BackendDoc:
		if c.doc != nil {
			return c.doc
		}
	case backend.BackendFile:
		return c.file
	}
	return nil
}
