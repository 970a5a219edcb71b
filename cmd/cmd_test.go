package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/tradingagents/core/config"
	domain "github.com/tradingagents/core/internal/domain"
)

func testConfigStore(t *testing.T) *config.Store {
	t.Helper()
	store, err := config.NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestPickModelPrefersDefaultProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	store := testConfigStore(t)
	openaiKey := "sk-" + strings.Repeat("a", 48)
	require.NoError(t, store.SaveModels([]config.ModelDescriptor{
		{Provider: "openai", ModelName: "gpt-4o-mini", APIKey: openaiKey, Enabled: true},
		{Provider: "anthropic", ModelName: "claude-sonnet-4-20250514", APIKey: "anthropic-key", Enabled: true},
	}))

	settings := store.Settings()
	settings.DefaultProvider = "anthropic"
	require.NoError(t, store.SaveSettings(settings))

	m, err := pickModel(store)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", m.Provider)
}

func TestPickModelFallsBackToFirstEnabled(t *testing.T) {
	t.Setenv("OLLAMA_API_KEY", "")
	store := testConfigStore(t)
	require.NoError(t, store.SaveModels([]config.ModelDescriptor{
		{Provider: "ollama", ModelName: "llama3.1", Enabled: true},
	}))

	settings := store.Settings()
	settings.DefaultProvider = "openai"
	require.NoError(t, store.SaveSettings(settings))

	m, err := pickModel(store)
	require.NoError(t, err)
	assert.Equal(t, "ollama", m.Provider)
}

func TestPickModelNoEnabledModels(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	store := testConfigStore(t)
	require.NoError(t, store.SaveModels([]config.ModelDescriptor{
		{Provider: "openai", ModelName: "gpt-4o", Enabled: false},
	}))

	_, err := pickModel(store)
	require.Error(t, err)
	assert.Equal(t, domain.KindCredentialMissing, domain.KindOf(err))
}

func TestLedgerConfigDefaultsToFile(t *testing.T) {
	settings := config.DefaultSettings()
	settings.DataDir = "/tmp/ta-data"
	settings.MaxUsageRecords = 500

	cfg := ledgerConfig(settings)
	assert.Equal(t, "file", cfg.Type)
	assert.Equal(t, "/tmp/ta-data/usage.json", cfg.File.Path)
	assert.Equal(t, 500, cfg.File.MaxRecords)
}

func TestLedgerConfigTypeFromEnv(t *testing.T) {
	t.Setenv("LEDGER_TYPE", "sqlite")

	cfg := ledgerConfig(config.DefaultSettings())
	assert.Equal(t, "sqlite", cfg.Type)
}
