package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradingagents/core/internal/adapters"
	"github.com/tradingagents/core/internal/backend"
	"github.com/tradingagents/core/internal/cache"
	"github.com/tradingagents/core/internal/domain"
	"github.com/tradingagents/core/internal/memory"
)

// scriptedAdapter answers each Generate call with a canned response and
// records what it was asked.
type scriptedAdapter struct {
	provider  adapters.Provider
	responses []string
	failures  []error
	calls     int
	prompts   []string
}

func (a *scriptedAdapter) Generate(ctx context.Context, messages []adapters.Message, opts ...adapters.GenOption) (*adapters.Result, error) {
	call := a.calls
	a.calls++
	for _, m := range messages {
		if m.Role == adapters.RoleUser {
			a.prompts = append(a.prompts, m.Content)
		}
	}
	if call < len(a.failures) && a.failures[call] != nil {
		return nil, a.failures[call]
	}
	content := "ok"
	if call < len(a.responses) {
		content = a.responses[call]
	} else if len(a.responses) > 0 {
		content = a.responses[len(a.responses)-1]
	}
	return &adapters.Result{Content: content}, nil
}

func (a *scriptedAdapter) BindTools(tools []adapters.Tool) adapters.Adapter { return a }

func (a *scriptedAdapter) Provider() adapters.Provider {
	if a.provider == "" {
		return adapters.ProviderOpenAI
	}
	return a.provider
}

func (a *scriptedAdapter) Model() string { return "scripted" }

func transportErr() error {
	return domain.NewError(domain.KindProviderTransport, "connection refused", "", nil)
}

func noRetry() RetryConfig {
	return RetryConfig{Enabled: false}
}

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		Enabled:           true,
		MaxAttempts:       attempts,
		InitialBackoffSec: 0,
		BackoffMultiplier: 2,
	}
}

func TestGraphRunsStagesInOrderWithProgress(t *testing.T) {
	var order []string
	var events []Progress

	stages := []Stage{
		{Name: "first", Run: func(ctx context.Context, s *State) error {
			order = append(order, "first")
			return nil
		}},
		{Name: "second", Run: func(ctx context.Context, s *State) error {
			order = append(order, "second")
			return nil
		}},
	}

	g := NewGraph(stages, func(p Progress) { events = append(events, p) })
	err := g.Run(context.Background(), NewState("AAPL", "2026-01-05", "2026-01-09"))
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, order)
	require.Len(t, events, 4)
	assert.Equal(t, Progress{Stage: "first", Message: "started", Step: 1, TotalSteps: 2}, events[0])
	assert.Equal(t, Progress{Stage: "second", Message: "completed", Step: 2, TotalSteps: 2}, events[3])
}

func TestGraphStopsAtFirstFailure(t *testing.T) {
	var ran []string
	stages := []Stage{
		{Name: "ok", Run: func(ctx context.Context, s *State) error {
			ran = append(ran, "ok")
			return nil
		}},
		{Name: "boom", Run: func(ctx context.Context, s *State) error {
			return errors.New("stage blew up")
		}},
		{Name: "never", Run: func(ctx context.Context, s *State) error {
			ran = append(ran, "never")
			return nil
		}},
	}

	g := NewGraph(stages, nil)
	err := g.Run(context.Background(), NewState("AAPL", "2026-01-05", "2026-01-09"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage boom failed")
	assert.Equal(t, []string{"ok"}, ran)
}

func TestGraphHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGraph([]Stage{{Name: "any", Run: func(ctx context.Context, s *State) error {
		t.Fatal("stage should not run")
		return nil
	}}}, nil)

	err := g.Run(ctx, NewState("AAPL", "2026-01-05", "2026-01-09"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipelineProducesDecision(t *testing.T) {
	adapter := &scriptedAdapter{responses: []string{
		"bullish chart", "bull case wins", "buy 100 shares", "size is acceptable", "BUY",
	}}

	state := NewState("AAPL", "2026-01-05", "2026-01-09")
	g := NewGraph(NewPipeline(PipelineConfig{Adapter: adapter, Retry: noRetry()}), nil)
	require.NoError(t, g.Run(context.Background(), state))

	assert.Equal(t, "BUY", state.Decision)
	assert.Equal(t, "bullish chart", state.Transcript(StageAnalyst))
	assert.Equal(t, "size is acceptable", state.Transcript(StageRisk))
	assert.Equal(t, 5, adapter.calls)

	// Later stages see earlier transcripts.
	assert.Contains(t, adapter.prompts[1], "bullish chart")
	assert.Contains(t, adapter.prompts[4], "buy 100 shares")
}

func TestPipelineInsertsIntoProviderTaggedMemory(t *testing.T) {
	adapter := &scriptedAdapter{
		provider:  adapters.ProviderAnthropic,
		responses: []string{"analysis", "debate", "plan", "risk", "HOLD"},
	}
	registry := memory.NewRegistry(memory.NewDisabledChain())

	state := NewState("MSFT", "2026-01-05", "2026-01-09")
	g := NewGraph(NewPipeline(PipelineConfig{
		Adapter: adapter,
		Retry:   noRetry(),
		Memory:  registry,
	}), nil)
	require.NoError(t, g.Run(context.Background(), state))

	assert.Equal(t, 1, registry.Get("anthropic_trader_memory").Size())
}

func TestGenerateRetriesTransportErrors(t *testing.T) {
	adapter := &scriptedAdapter{
		failures:  []error{transportErr(), transportErr(), nil},
		responses: []string{"", "", "recovered"},
	}

	result, err := generate(context.Background(), adapter, fastRetry(3), []adapters.Message{
		{Role: adapters.RoleUser, Content: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", result.Content)
	assert.Equal(t, 3, adapter.calls)
}

func TestGenerateGivesUpAfterMaxAttempts(t *testing.T) {
	adapter := &scriptedAdapter{
		failures: []error{transportErr(), transportErr(), transportErr()},
	}

	_, err := generate(context.Background(), adapter, fastRetry(3), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retry attempts")
	assert.Equal(t, 3, adapter.calls)
}

func TestGenerateDoesNotRetryNonTransportErrors(t *testing.T) {
	adapter := &scriptedAdapter{
		failures: []error{domain.NewError(domain.KindConfigMalformed, "bad descriptor", "", nil)},
	}

	_, err := generate(context.Background(), adapter, fastRetry(3), nil)
	require.Error(t, err)
	assert.Equal(t, 1, adapter.calls)
}

func TestCalculateBackoffCapped(t *testing.T) {
	cfg := RetryConfig{InitialBackoffSec: 1, MaxBackoffSec: 4, BackoffMultiplier: 2}
	assert.Equal(t, 1, calculateBackoff(cfg, 1))
	assert.Equal(t, 2, calculateBackoff(cfg, 2))
	assert.Equal(t, 4, calculateBackoff(cfg, 3))
	assert.Equal(t, 4, calculateBackoff(cfg, 4))
}

type fileStatus struct{}

func (fileStatus) Status() backend.Status {
	return backend.Status{PrimaryBackend: backend.BackendFile, FallbackEnabled: true}
}

func TestCachedFetchFetchesOnceThenHits(t *testing.T) {
	c, err := cache.New(fileStatus{}, cache.Options{FileDir: t.TempDir()})
	require.NoError(t, err)

	meta := cache.Meta{
		Symbol:      "AAPL",
		WindowStart: "2026-01-05",
		WindowEnd:   "2026-01-09",
		Source:      "yfinance",
		DataType:    "news_data",
	}

	fetches := 0
	fetch := func(ctx context.Context) (cache.Payload, error) {
		fetches++
		return cache.TextPayload("headline roundup"), nil
	}

	ctx := context.Background()
	payload, err := CachedFetch(ctx, c, meta, fetch)
	require.NoError(t, err)
	assert.Equal(t, "headline roundup", payload.Text)
	assert.Equal(t, 1, fetches)

	payload, err = CachedFetch(ctx, c, meta, fetch)
	require.NoError(t, err)
	assert.Equal(t, "headline roundup", payload.Text)
	assert.Equal(t, 1, fetches)
}

func TestCachedFetchPropagatesFetchError(t *testing.T) {
	c, err := cache.New(fileStatus{}, cache.Options{FileDir: t.TempDir()})
	require.NoError(t, err)

	wantErr := fmt.Errorf("upstream unavailable")
	_, err = CachedFetch(context.Background(), c, cache.Meta{Symbol: "TSLA", DataType: "news_data"}, func(ctx context.Context) (cache.Payload, error) {
		return cache.Payload{}, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}
