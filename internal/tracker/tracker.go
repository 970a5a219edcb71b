// Package tracker wraps the usage ledger with cost computation, session
// roll-ups, day-window statistics, and threshold alerting. A tracker
// failure never fails the originating model call.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/tradingagents/core/config"
	"github.com/tradingagents/core/internal/ledger"
	"github.com/tradingagents/core/internal/logger"
	"github.com/tradingagents/core/internal/pricing"
)

// SettingsProvider yields the current settings snapshot. *config.Store
// satisfies this.
type SettingsProvider interface {
	Settings() config.Settings
}

// ProviderStats aggregates usage for one provider.
type ProviderStats struct {
	Cost         float64 `json:"cost" yaml:"cost"`
	InputTokens  int     `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int     `json:"output_tokens" yaml:"output_tokens"`
	Requests     int     `json:"requests" yaml:"requests"`
}

// Statistics aggregates usage over a time window.
type Statistics struct {
	TotalCost         float64                  `json:"total_cost" yaml:"total_cost"`
	TotalInputTokens  int                      `json:"total_input_tokens" yaml:"total_input_tokens"`
	TotalOutputTokens int                      `json:"total_output_tokens" yaml:"total_output_tokens"`
	TotalRequests     int                      `json:"total_requests" yaml:"total_requests"`
	ProviderStats     map[string]ProviderStats `json:"provider_stats" yaml:"provider_stats"`
}

// TrackOption customizes a tracked record.
type TrackOption func(*ledger.UsageRecord)

// WithSession attaches a session ID to the record.
func WithSession(sessionID string) TrackOption {
	return func(r *ledger.UsageRecord) { r.SessionID = sessionID }
}

// WithAnalysisType attaches an analysis type to the record.
func WithAnalysisType(analysisType string) TrackOption {
	return func(r *ledger.UsageRecord) { r.AnalysisType = analysisType }
}

// WithEstimated marks the token counts as estimated rather than
// vendor-reported.
func WithEstimated() TrackOption {
	return func(r *ledger.UsageRecord) { r.Estimated = true }
}

// Tracker records model invocations and checks the cost alert threshold.
type Tracker struct {
	store    ledger.Store
	book     *pricing.Book
	settings SettingsProvider

	mu         sync.Mutex
	alertFired bool
	alertDay   string
	now        func() time.Time
}

// New creates a Tracker over the given ledger store and price book.
func New(store ledger.Store, book *pricing.Book, settings SettingsProvider) *Tracker {
	return &Tracker{
		store:    store,
		book:     book,
		settings: settings,
		now:      time.Now,
	}
}

// Track records one model call. Returns nil when cost tracking is disabled.
// Persistence failures are logged and swallowed; the computed record is
// returned regardless so the call is never lost to the caller.
func (t *Tracker) Track(ctx context.Context, provider, model string, inputTokens, outputTokens int, opts ...TrackOption) *ledger.UsageRecord {
	if !t.settings.Settings().CostTrackingEnabled {
		return nil
	}

	record := ledger.UsageRecord{
		Timestamp:    t.now().UTC(),
		Provider:     provider,
		ModelName:    model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         t.book.Cost(provider, model, inputTokens, outputTokens),
	}
	for _, opt := range opts {
		opt(&record)
	}

	if err := t.store.Append(ctx, record); err != nil {
		logger.WarnEvent("accounting_failure",
			"provider", provider,
			"model", model,
			"error", err.Error())
		return &record
	}

	t.checkAlert(ctx)
	return &record
}

// Estimate computes the cost of a hypothetical call with no side effect.
func (t *Tracker) Estimate(provider, model string, inputTokens, outputTokens int) float64 {
	return t.book.Cost(provider, model, inputTokens, outputTokens)
}

// SessionCost sums the cost of every record in a session.
func (t *Tracker) SessionCost(ctx context.Context, sessionID string) float64 {
	records, err := t.store.SessionRecords(ctx, sessionID)
	if err != nil {
		logger.Warn("failed to read session records", "session_id", sessionID, "error", err)
		return 0
	}
	var total float64
	for _, r := range records {
		total += r.Cost
	}
	return total
}

// Statistics aggregates records with timestamp >= now - days.
func (t *Tracker) Statistics(ctx context.Context, days int) (Statistics, error) {
	since := t.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	records, err := t.store.Query(ctx, since)
	if err != nil {
		return Statistics{}, err
	}

	stats := Statistics{ProviderStats: make(map[string]ProviderStats)}
	for _, r := range records {
		stats.TotalCost += r.Cost
		stats.TotalInputTokens += r.InputTokens
		stats.TotalOutputTokens += r.OutputTokens
		stats.TotalRequests++

		ps := stats.ProviderStats[r.Provider]
		ps.Cost += r.Cost
		ps.InputTokens += r.InputTokens
		ps.OutputTokens += r.OutputTokens
		ps.Requests++
		stats.ProviderStats[r.Provider] = ps
	}
	return stats, nil
}

// Prune drops records older than the retention window and reports how many
// were removed.
func (t *Tracker) Prune(ctx context.Context, retainDays int) (int, error) {
	before := t.now().UTC().Add(-time.Duration(retainDays) * 24 * time.Hour)
	return t.store.Prune(ctx, before)
}

// checkAlert fires one cost_alert event per threshold crossing of the
// current UTC day's total. It re-arms when the total drops below the
// threshold or the day changes.
func (t *Tracker) checkAlert(ctx context.Context) {
	threshold := t.settings.Settings().CostAlertThreshold
	if threshold <= 0 {
		return
	}

	now := t.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	records, err := t.store.Query(ctx, dayStart)
	if err != nil {
		logger.Warn("failed to compute day-window cost for alerting", "error", err)
		return
	}

	var dayTotal float64
	for _, r := range records {
		dayTotal += r.Cost
	}

	day := now.Format("2006-01-02")

	t.mu.Lock()
	defer t.mu.Unlock()

	if day != t.alertDay {
		t.alertDay = day
		t.alertFired = false
	}

	if dayTotal < threshold {
		t.alertFired = false
		return
	}
	if t.alertFired {
		return
	}

	t.alertFired = true
	logger.Event("cost_alert", "cost", dayTotal, "threshold", threshold)
}
