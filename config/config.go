// Package config implements the configuration and credential plane: built-in
// defaults, on-disk JSON files in a config directory, and environment
// variables, merged in that order of precedence. Reload is opt-in and swaps
// an immutable snapshot so readers always see a consistent view.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/spf13/viper"
	"github.com/tradingagents/core/internal/logger"
)

const (
	ModelsFile   = "models.json"
	PricingFile  = "pricing.json"
	SettingsFile = "settings.json"
)

// Snapshot is one immutable, fully-merged view of the configuration.
type Snapshot struct {
	Models   []ModelDescriptor
	Pricing  []PriceEntry
	Settings Settings
}

// Store loads and serves configuration snapshots. Reload replaces the
// current snapshot atomically; concurrent readers are never blocked.
type Store struct {
	dir  string
	snap atomic.Pointer[Snapshot]
}

// NewStore creates a Store rooted at dir and performs the initial load.
// Missing files are initialized from defaults; a missing directory is
// created.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = defaultConfigDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}

	s := &Store{dir: dir}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the config directory backing this store.
func (s *Store) Dir() string {
	return s.dir
}

// Reload re-reads all configuration sources and swaps in a new snapshot.
func (s *Store) Reload() error {
	models, err := s.loadModels()
	if err != nil {
		return err
	}

	pricing, err := s.loadPricing()
	if err != nil {
		return err
	}

	settings, err := s.loadSettings()
	if err != nil {
		return err
	}

	snap := &Snapshot{
		Models:   mergeModelEnv(models),
		Pricing:  normalizePricing(pricing),
		Settings: settings.applyEnv(),
	}
	s.snap.Store(snap)

	logger.Debug("configuration reloaded",
		"dir", s.dir,
		"models", len(snap.Models),
		"price_entries", len(snap.Pricing))
	return nil
}

// Models returns the merged model descriptors from the current snapshot.
func (s *Store) Models() []ModelDescriptor {
	return s.snap.Load().Models
}

// Pricing returns the merged price entries from the current snapshot.
func (s *Store) Pricing() []PriceEntry {
	return s.snap.Load().Pricing
}

// Settings returns the merged settings from the current snapshot.
func (s *Store) Settings() Settings {
	return s.snap.Load().Settings
}

// EnabledModels returns only descriptors that survived credential checks.
func (s *Store) EnabledModels() []ModelDescriptor {
	var out []ModelDescriptor
	for _, m := range s.Models() {
		if m.Enabled {
			out = append(out, m)
		}
	}
	return out
}

// SaveModels writes descriptors to models.json and reloads.
func (s *Store) SaveModels(models []ModelDescriptor) error {
	if err := writeJSONAtomic(filepath.Join(s.dir, ModelsFile), models); err != nil {
		return err
	}
	return s.Reload()
}

// SavePricing writes entries to pricing.json and reloads.
func (s *Store) SavePricing(pricing []PriceEntry) error {
	if err := writeJSONAtomic(filepath.Join(s.dir, PricingFile), pricing); err != nil {
		return err
	}
	return s.Reload()
}

// SaveSettings writes settings to settings.json and reloads.
func (s *Store) SaveSettings(settings Settings) error {
	if err := writeJSONAtomic(filepath.Join(s.dir, SettingsFile), settings); err != nil {
		return err
	}
	return s.Reload()
}

// EnsureDirectories idempotently creates the configured data, cache, and
// results directories.
func (s *Store) EnsureDirectories() error {
	settings := s.Settings()
	for _, dir := range []string{settings.DataDir, settings.CacheDir, settings.ResultsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func (s *Store) loadModels() ([]ModelDescriptor, error) {
	path := filepath.Join(s.dir, ModelsFile)
	var models []ModelDescriptor
	ok, err := readJSONList(path, &models)
	if err != nil {
		return nil, err
	}
	if !ok {
		models = DefaultModels()
		if err := writeJSONAtomic(path, models); err != nil {
			logger.Warn("failed to initialize models file from defaults", "path", path, "error", err)
		}
	}
	return models, nil
}

func (s *Store) loadPricing() ([]PriceEntry, error) {
	path := filepath.Join(s.dir, PricingFile)
	var pricing []PriceEntry
	ok, err := readJSONList(path, &pricing)
	if err != nil {
		return nil, err
	}
	if !ok {
		pricing = DefaultPricing()
		if err := writeJSONAtomic(path, pricing); err != nil {
			logger.Warn("failed to initialize pricing file from defaults", "path", path, "error", err)
		}
	}
	return pricing, nil
}

func (s *Store) loadSettings() (Settings, error) {
	path := filepath.Join(s.dir, SettingsFile)
	settings := DefaultSettings()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeJSONAtomic(path, settings); err != nil {
			logger.Warn("failed to initialize settings file from defaults", "path", path, "error", err)
		}
		return settings, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		logger.Warn("malformed settings file, using defaults", "path", path, "error", err)
		return settings, nil
	}
	if err := v.Unmarshal(&settings); err != nil {
		logger.Warn("settings file did not unmarshal cleanly, using defaults", "path", path, "error", err)
		return DefaultSettings(), nil
	}
	return settings, nil
}

// readJSONList reads a top-level JSON array file into out. Returns false
// when the file does not exist. A malformed file is a warning, not an
// error: the caller falls back to defaults.
func readJSONList(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger.Warn("malformed config file, using defaults", "path", path, "error", err)
		return false, nil
	}
	return true, nil
}

// writeJSONAtomic writes v as indented JSON using temp file + rename so
// readers never observe a partial file.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

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

// mergeModelEnv normalizes provider tags, overlays API keys from the
// environment, and disables descriptors with malformed credentials. A valid
// env key implicitly enables its descriptor.
func mergeModelEnv(models []ModelDescriptor) []ModelDescriptor {
	out := make([]ModelDescriptor, len(models))
	for i, m := range models {
		m.Provider = strings.ToLower(strings.TrimSpace(m.Provider))

		if envKey := os.Getenv(apiKeyEnvVar(m.Provider)); envKey != "" {
			m.APIKey = envKey
			if ValidAPIKey(m.Provider, envKey) {
				m.Enabled = true
			}
		}

		if m.APIKey != "" && !ValidAPIKey(m.Provider, m.APIKey) {
			logger.WarnEvent("credential_malformed",
				"provider", m.Provider,
				"model", m.ModelName)
			m.Enabled = false
		}

		out[i] = m
	}
	return out
}

func normalizePricing(pricing []PriceEntry) []PriceEntry {
	out := make([]PriceEntry, len(pricing))
	for i, p := range pricing {
		p.Provider = strings.ToLower(strings.TrimSpace(p.Provider))
		if p.Currency == "" {
			p.Currency = "USD"
		}
		out[i] = p
	}
	return out
}

func defaultConfigDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return ".tradingagents"
	}
	return filepath.Join(wd, ".tradingagents")
}
