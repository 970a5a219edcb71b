package cmd

import (
	"path/filepath"

	config "github.com/tradingagents/core/config"
	backend "github.com/tradingagents/core/internal/backend"
	envparse "github.com/tradingagents/core/internal/envparse"
	ledger "github.com/tradingagents/core/internal/ledger"
	pricing "github.com/tradingagents/core/internal/pricing"
	tracker "github.com/tradingagents/core/internal/tracker"
)

// ledgerConfig builds the ledger backend selection from settings and
// environment. LEDGER_TYPE picks the backend; file is the default.
func ledgerConfig(settings config.Settings) ledger.Config {
	return ledger.Config{
		Type: envparse.String("LEDGER_TYPE", "file"),
		File: ledger.FileConfig{
			Path:       filepath.Join(settings.DataDir, "usage.json"),
			MaxRecords: settings.MaxUsageRecords,
		},
		SQLite: ledger.SQLiteConfig{
			Path: filepath.Join(settings.DataDir, "usage.db"),
		},
		Postgres: ledger.PostgresConfig{
			Host:     envparse.String("DOC_HOST", "localhost"),
			Port:     envparse.Int("DOC_PORT", 5432),
			Database: envparse.String("DOC_DATABASE", "tradingagents"),
			Username: envparse.String("DOC_USERNAME", "postgres"),
			Password: envparse.String("DOC_PASSWORD", ""),
		},
	}
}

// newTracker wires the ledger store, price book, and settings into a
// cost tracker. The caller owns the returned store.
func newTracker(store *config.Store) (*tracker.Tracker, ledger.Store, error) {
	ledgerStore, err := ledger.NewStore(ledgerConfig(store.Settings()))
	if err != nil {
		return nil, nil, err
	}
	book := pricing.NewBook(store.Pricing())
	return tracker.New(ledgerStore, book, store), ledgerStore, nil
}

// backendConfigs reads the KV and document store endpoints from the
// environment.
func backendConfigs() (backend.KVConfig, backend.DocConfig) {
	kv := backend.KVConfig{
		Host:     envparse.String("KV_HOST", "localhost"),
		Port:     envparse.Int("KV_PORT", 6379),
		Database: envparse.Int("KV_DATABASE", 0),
		Password: envparse.String("KV_PASSWORD", ""),
	}
	doc := backend.DocConfig{
		Host:     envparse.String("DOC_HOST", "localhost"),
		Port:     envparse.Int("DOC_PORT", 5432),
		Database: envparse.String("DOC_DATABASE", "tradingagents"),
		Username: envparse.String("DOC_USERNAME", "postgres"),
		Password: envparse.String("DOC_PASSWORD", ""),
	}
	return kv, doc
}
