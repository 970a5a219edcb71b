package tracker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"

	"github.com/tradingagents/core/config"
	"github.com/tradingagents/core/internal/ledger"
	"github.com/tradingagents/core/internal/logger"
	"github.com/tradingagents/core/internal/pricing"
)

type fakeSettings struct {
	settings config.Settings
}

func (f *fakeSettings) Settings() config.Settings {
	return f.settings
}

type failingStore struct {
	ledger.Store
}

func (f *failingStore) Append(ctx context.Context, record ledger.UsageRecord) error {
	return errors.New("backend down")
}

func newTestTracker(t *testing.T, settings config.Settings) (*Tracker, ledger.Store) {
	t.Helper()
	store, err := ledger.NewFileStore(ledger.FileConfig{Path: filepath.Join(t.TempDir(), "usage.json")})
	require.NoError(t, err)

	book := pricing.NewBook([]config.PriceEntry{
		{Provider: "openai", ModelName: "gpt-4o-mini", InputPricePer1K: 0.00015, OutputPricePer1K: 0.0006, Currency: "USD"},
	})

	return New(store, book, &fakeSettings{settings: settings}), store
}

func enabledSettings() config.Settings {
	s := config.DefaultSettings()
	s.CostTrackingEnabled = true
	s.CostAlertThreshold = 100.0
	return s
}

func TestTracker_TrackWritesRecord(t *testing.T) {
	tr, store := newTestTracker(t, enabledSettings())
	ctx := context.Background()

	record := tr.Track(ctx, "openai", "gpt-4o-mini", 2000, 1000,
		WithSession("sess-1"), WithAnalysisType("market"))

	require.NotNil(t, record)
	assert.InDelta(t, 0.0009, record.Cost, 1e-9)
	assert.Equal(t, "sess-1", record.SessionID)
	assert.Equal(t, "market", record.AnalysisType)
	assert.False(t, record.Estimated)

	stored, err := store.Query(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, record.Cost, stored[0].Cost)
}

func TestTracker_DisabledReturnsNilAndWritesNothing(t *testing.T) {
	settings := enabledSettings()
	settings.CostTrackingEnabled = false
	tr, store := newTestTracker(t, settings)
	ctx := context.Background()

	assert.Nil(t, tr.Track(ctx, "openai", "gpt-4o-mini", 2000, 1000))

	stored, err := store.Query(ctx, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestTracker_ZeroTokenCallStillWritesRecord(t *testing.T) {
	tr, store := newTestTracker(t, enabledSettings())
	ctx := context.Background()

	record := tr.Track(ctx, "openai", "gpt-4o-mini", 0, 0)
	require.NotNil(t, record)
	assert.Equal(t, 0.0, record.Cost)

	stored, err := store.Query(ctx, time.Time{})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestTracker_PersistenceFailureStillReturnsRecord(t *testing.T) {
	tr, _ := newTestTracker(t, enabledSettings())
	tr.store = &failingStore{}

	record := tr.Track(context.Background(), "openai", "gpt-4o-mini", 1000, 500)
	require.NotNil(t, record, "a tracker failure must not lose the record for the caller")
	assert.InDelta(t, 0.00045, record.Cost, 1e-9)
}

func TestTracker_Estimate(t *testing.T) {
	tr, store := newTestTracker(t, enabledSettings())

	cost := tr.Estimate("openai", "gpt-4o-mini", 2000, 1000)
	assert.InDelta(t, 0.0009, cost, 1e-9)

	stored, err := store.Query(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, stored, "estimate must have no side effect")
}

func TestTracker_SessionCost(t *testing.T) {
	tr, _ := newTestTracker(t, enabledSettings())
	ctx := context.Background()

	tr.Track(ctx, "openai", "gpt-4o-mini", 2000, 1000, WithSession("a"))
	tr.Track(ctx, "openai", "gpt-4o-mini", 2000, 1000, WithSession("a"))
	tr.Track(ctx, "openai", "gpt-4o-mini", 2000, 1000, WithSession("b"))

	assert.InDelta(t, 0.0018, tr.SessionCost(ctx, "a"), 1e-9)
	assert.InDelta(t, 0.0009, tr.SessionCost(ctx, "b"), 1e-9)
	assert.Equal(t, 0.0, tr.SessionCost(ctx, "missing"))
}

func TestTracker_StatisticsAccumulate(t *testing.T) {
	tr, _ := newTestTracker(t, enabledSettings())
	ctx := context.Background()

	const n = 4
	var wantCost float64
	for i := 0; i < n; i++ {
		r := tr.Track(ctx, "openai", "gpt-4o-mini", 2000, 1000)
		require.NotNil(t, r)
		wantCost += r.Cost
	}
	tr.Track(ctx, "acme", "turbo-9", 1000, 500)

	stats, err := tr.Statistics(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, n+1, stats.TotalRequests)
	assert.InDelta(t, wantCost, stats.TotalCost, 1e-9)
	assert.Equal(t, n*2000+1000, stats.TotalInputTokens)
	assert.Equal(t, n*1000+500, stats.TotalOutputTokens)

	openaiStats := stats.ProviderStats["openai"]
	assert.GreaterOrEqual(t, openaiStats.Requests, n)
	assert.InDelta(t, wantCost, openaiStats.Cost, 1e-9)

	acme := stats.ProviderStats["acme"]
	assert.Equal(t, 1, acme.Requests)
	assert.Equal(t, 0.0, acme.Cost, "unknown pricing costs zero")
}

func TestTracker_AlertFiresOncePerCrossing(t *testing.T) {
	logs, restore := logger.CaptureEvents()
	defer restore()

	settings := enabledSettings()
	settings.CostAlertThreshold = 0.001
	tr, _ := newTestTracker(t, settings)
	ctx := context.Background()

	tr.Track(ctx, "openai", "gpt-4o-mini", 2000, 1000) // 0.0009, below
	assert.False(t, tr.alertFired)
	assert.Equal(t, 0, logs.FilterMessage("cost_alert").Len())

	tr.Track(ctx, "openai", "gpt-4o-mini", 2000, 1000) // 0.0018 total, crossed
	assert.True(t, tr.alertFired)

	tr.Track(ctx, "openai", "gpt-4o-mini", 2000, 1000) // still above, no re-alert
	assert.True(t, tr.alertFired)

	alerts := logs.FilterMessage("cost_alert").All()
	require.Len(t, alerts, 1)
	fields := alerts[0].ContextMap()
	assert.Equal(t, 0.001, fields["threshold"])
	assert.InDelta(t, 0.0018, fields["cost"].(float64), 1e-9)
}

func TestTracker_AlertRearmsOnNewDay(t *testing.T) {
	settings := enabledSettings()
	settings.CostAlertThreshold = 0.0001
	tr, _ := newTestTracker(t, settings)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return base }

	tr.Track(ctx, "openai", "gpt-4o-mini", 2000, 1000)
	require.True(t, tr.alertFired)
	assert.Equal(t, "2025-03-10", tr.alertDay)

	tr.now = func() time.Time { return base.Add(24 * time.Hour) }
	tr.Track(ctx, "openai", "gpt-4o-mini", 2000, 1000)
	assert.Equal(t, "2025-03-11", tr.alertDay)
	assert.True(t, tr.alertFired, "new day crossing fires again")
}

func TestTracker_Prune(t *testing.T) {
	tr, store := newTestTracker(t, enabledSettings())
	ctx := context.Background()

	old := ledger.UsageRecord{Timestamp: time.Now().UTC().Add(-90 * 24 * time.Hour), Provider: "openai", ModelName: "gpt-4o-mini"}
	require.NoError(t, store.Append(ctx, old))
	tr.Track(ctx, "openai", "gpt-4o-mini", 100, 100)

	dropped, err := tr.Prune(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
}
