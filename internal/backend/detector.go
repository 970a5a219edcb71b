// Package backend probes the storage substrates available to the cache and
// ledger and publishes which one should be primary. The local filesystem is
// always available and always the last resort.
package backend

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	"github.com/tradingagents/core/internal/envparse"
	"github.com/tradingagents/core/internal/logger"
)

// Backend tags, in fixed selection priority order.
const (
	BackendKV   = "kv"
	BackendDoc  = "doc"
	BackendFile = "file"
)

// probeTimeout bounds each channel probe so startup never hangs.
const probeTimeout = 2 * time.Second

// Status is the published availability record.
type Status struct {
	DocStoreAvailable bool   `json:"doc_store_available" yaml:"doc_store_available"`
	KVAvailable       bool   `json:"kv_available" yaml:"kv_available"`
	PrimaryBackend    string `json:"primary_backend" yaml:"primary_backend"`
	FallbackEnabled   bool   `json:"fallback_enabled" yaml:"fallback_enabled"`
}

// KVConfig configures the in-memory KV probe target.
type KVConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database int    `json:"database"`
	Password string `json:"password,omitempty"`
}

// DocConfig configures the document-store probe target.
type DocConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"ssl_mode"`
}

// Detector probes backends and serves the latest Status.
type Detector struct {
	kv  KVConfig
	doc DocConfig

	status atomic.Pointer[Status]

	// probe hooks, replaceable in tests
	probeKV  func(ctx context.Context) error
	probeDoc func(ctx context.Context) error
}

// NewDetector builds a Detector. Call Probe before the first Status read.
func NewDetector(kv KVConfig, doc DocConfig) *Detector {
	d := &Detector{kv: kv, doc: doc}
	d.probeKV = d.pingRedis
	d.probeDoc = d.pingPostgres
	d.status.Store(&Status{PrimaryBackend: BackendFile, FallbackEnabled: true})
	return d
}

// Probe checks each channel with a bounded timeout and publishes the
// result. The ENABLED_KV and ENABLED_DOC toggles force a channel off even
// when reachable.
func (d *Detector) Probe(ctx context.Context) Status {
	status := Status{FallbackEnabled: true}

	if envparse.Bool("ENABLED_KV", true) {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		if err := d.probeKV(probeCtx); err != nil {
			logger.Debug("kv backend unavailable", "error", err)
		} else {
			status.KVAvailable = true
		}
		cancel()
	}

	if envparse.Bool("ENABLED_DOC", true) {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		if err := d.probeDoc(probeCtx); err != nil {
			logger.Debug("doc store unavailable", "error", err)
		} else {
			status.DocStoreAvailable = true
		}
		cancel()
	}

	switch {
	case status.KVAvailable:
		status.PrimaryBackend = BackendKV
	case status.DocStoreAvailable:
		status.PrimaryBackend = BackendDoc
	default:
		status.PrimaryBackend = BackendFile
	}

	d.status.Store(&status)
	logger.Event("backend_status",
		"kv_available", status.KVAvailable,
		"doc_store_available", status.DocStoreAvailable,
		"primary_backend", status.PrimaryBackend)
	return status
}

// Status returns the most recently published status.
func (d *Detector) Status() Status {
	return *d.status.Load()
}

func (d *Detector) pingRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", d.kv.Host, d.kv.Port),
		DB:          d.kv.Database,
		Password:    d.kv.Password,
		DialTimeout: probeTimeout,
	})
	defer func() { _ = client.Close() }()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (d *Detector) pingPostgres(ctx context.Context) error {
	sslMode := d.doc.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=2",
		d.doc.Host, d.doc.Port, d.doc.Username, d.doc.Password, d.doc.Database, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}
