package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

func setupSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(SQLiteConfig{Path: filepath.Join(t.TempDir(), "ledger.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	r := UsageRecord{
		Timestamp:    now,
		Provider:     "anthropic",
		ModelName:    "claude-sonnet-4-20250514",
		InputTokens:  1500,
		OutputTokens: 300,
		Cost:         0.009,
		SessionID:    "1733678400-a3f2bc8d",
		AnalysisType: "fundamentals",
		Estimated:    true,
	}
	require.NoError(t, store.Append(ctx, r))

	got, err := store.Query(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, r.Provider, got[0].Provider)
	assert.Equal(t, r.ModelName, got[0].ModelName)
	assert.Equal(t, r.InputTokens, got[0].InputTokens)
	assert.Equal(t, r.OutputTokens, got[0].OutputTokens)
	assert.Equal(t, r.Cost, got[0].Cost)
	assert.Equal(t, r.SessionID, got[0].SessionID)
	assert.Equal(t, r.AnalysisType, got[0].AnalysisType)
	assert.True(t, got[0].Estimated)
	assert.True(t, got[0].Timestamp.Equal(now))
}

func TestSQLiteStore_QueryWindow(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Append(ctx, record(now.Add(-10*24*time.Hour), "old", 0.5)))
	require.NoError(t, store.Append(ctx, record(now.Add(-time.Hour), "recent", 0.1)))
	require.NoError(t, store.Append(ctx, record(now, "now", 0.2)))

	got, err := store.Query(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "recent", got[0].SessionID)
	assert.Equal(t, "now", got[1].SessionID)
}

func TestSQLiteStore_SessionRecordsOrdered(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		r := record(now.Add(time.Duration(i)*time.Second), "sess", float64(i))
		require.NoError(t, store.Append(ctx, r))
	}
	require.NoError(t, store.Append(ctx, record(now, "other", 9.9)))

	got, err := store.SessionRecords(ctx, "sess")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, r := range got {
		assert.Equal(t, float64(i), r.Cost)
	}
}

func TestSQLiteStore_Prune(t *testing.T) {
	store := setupSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Append(ctx, record(now.Add(-100*24*time.Hour), "ancient", 0.1)))
	require.NoError(t, store.Append(ctx, record(now, "fresh", 0.2)))

	dropped, err := store.Prune(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)

	got, err := store.Query(ctx, time.Time{}.Add(time.Second))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].SessionID)
}

func TestSQLiteStore_Health(t *testing.T) {
	store := setupSQLiteStore(t)
	assert.NoError(t, store.Health(context.Background()))
}
