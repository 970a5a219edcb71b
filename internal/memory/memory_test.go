package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradingagents/core/internal/logger"
)

// stubEmbedder maps known texts to fixed vectors and everything else to a
// sentinel.
type stubEmbedder struct {
	vectors map[string][]float32
	dims    int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := s.vectors[text]; ok {
		return vec, nil
	}
	return Sentinel(s.dims), nil
}

func (s *stubEmbedder) Dimensions() int { return s.dims }
func (s *stubEmbedder) Name() string    { return "stub" }

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("connection refused")
}
func (failingEmbedder) Dimensions() int { return 4 }
func (failingEmbedder) Name() string    { return "failing" }

func directionEmbedder() *stubEmbedder {
	return &stubEmbedder{
		dims: 3,
		vectors: map[string][]float32{
			"market strongly bullish": {1, 0, 0},
			"market mildly bullish":   {0.9, 0.1, 0},
			"market bearish":          {-1, 0, 0},
			"earnings season":         {0, 1, 0},
		},
	}
}

func TestCosineSimilarity(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)

	sim, err = CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-9)

	sim, err = CosineSimilarity([]float32{1, 0}, []float32{-1, 0})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-9)

	_, err = CosineSimilarity([]float32{1}, []float32{1, 0})
	assert.Error(t, err)

	sim, err = CosineSimilarity([]float32{0, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.Zero(t, sim)
}

func TestQueryRanksBySimilarity(t *testing.T) {
	col := NewCollection("bull_memory", directionEmbedder())
	ctx := context.Background()

	err := col.Add(ctx, []SituationAdvice{
		{Situation: "market mildly bullish", Advice: "hold"},
		{Situation: "market bearish", Advice: "sell"},
		{Situation: "earnings season", Advice: "wait"},
	})
	require.NoError(t, err)
	require.Equal(t, 3, col.Size())

	matches, err := col.Query(ctx, "market strongly bullish", 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "market mildly bullish", matches[0].Text)
	assert.Equal(t, "hold", matches[0].Advice)
	assert.Greater(t, matches[0].Similarity, matches[1].Similarity)
	assert.InDelta(t, 1-matches[0].Similarity, matches[0].Distance, 1e-9)
}

func TestQueryBoundedByCollectionSize(t *testing.T) {
	col := NewCollection("small", directionEmbedder())
	ctx := context.Background()

	require.NoError(t, col.Add(ctx, []SituationAdvice{
		{Situation: "market bearish", Advice: "sell"},
	}))

	matches, err := col.Query(ctx, "market strongly bullish", 10)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestQueryNonPositiveK(t *testing.T) {
	col := NewCollection("small", directionEmbedder())
	ctx := context.Background()

	require.NoError(t, col.Add(ctx, []SituationAdvice{
		{Situation: "market bearish", Advice: "sell"},
		{Situation: "market mildly bullish", Advice: "hold"},
	}))

	for _, k := range []int{0, -1} {
		matches, err := col.Query(ctx, "market strongly bullish", k)
		require.NoError(t, err)
		assert.Empty(t, matches)
	}
}

func TestQueryEmptyCollection(t *testing.T) {
	col := NewCollection("empty", directionEmbedder())

	matches, err := col.Query(context.Background(), "market strongly bullish", 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestDisabledModeAddSucceedsQueryEmpty(t *testing.T) {
	chain := NewDisabledChain()
	require.True(t, chain.Disabled())

	col := NewCollection("no_credentials", chain)
	ctx := context.Background()

	err := col.Add(ctx, []SituationAdvice{{Situation: "mkt uptrend", Advice: "buy"}})
	require.NoError(t, err)
	assert.Equal(t, 1, col.Size())

	matches, err := col.Query(ctx, "mkt uptrend", 1)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSentinelStoredPairsNeverMatch(t *testing.T) {
	col := NewCollection("mixed", directionEmbedder())
	ctx := context.Background()

	require.NoError(t, col.Add(ctx, []SituationAdvice{
		{Situation: "market bearish", Advice: "sell"},
		{Situation: "unembeddable text", Advice: "ignored"},
	}))

	matches, err := col.Query(ctx, "market strongly bullish", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "market bearish", matches[0].Text)
}

func TestChainRecoversEngineFailureAsSentinel(t *testing.T) {
	chain := &Chain{primary: failingEmbedder{}}

	vec, err := chain.Embed(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, IsSentinel(vec))
	assert.Len(t, vec, 4)
}

func TestChainFallsBackToSecondEngine(t *testing.T) {
	chain := &Chain{
		primary:  failingEmbedder{},
		fallback: directionEmbedder(),
	}

	vec, err := chain.Embed(context.Background(), "market bearish")
	require.NoError(t, err)
	assert.Equal(t, []float32{-1, 0, 0}, vec)
}

func TestChainLengthLimitSkips(t *testing.T) {
	logs, restore := logger.CaptureEvents()
	defer restore()

	chain := &Chain{
		primary:  directionEmbedder(),
		maxLen:   10,
		checkLen: true,
	}

	vec, err := chain.Embed(context.Background(), "market strongly bullish")
	require.NoError(t, err)
	assert.True(t, IsSentinel(vec))

	skips := logs.FilterMessage("length_limit_skip").All()
	require.Len(t, skips, 1)
	assert.Equal(t, int64(10), skips[0].ContextMap()["limit"])

	// Under the limit the engine runs normally.
	chain.maxLen = 1000
	vec, err = chain.Embed(context.Background(), "market bearish")
	require.NoError(t, err)
	assert.Equal(t, []float32{-1, 0, 0}, vec)
}

func TestRegistryGetOrCreate(t *testing.T) {
	reg := NewRegistry(directionEmbedder())

	a := reg.Get("bull_memory")
	b := reg.Get("bull_memory")
	assert.Same(t, a, b)

	other := reg.Get("bear_memory")
	assert.NotSame(t, a, other)
	assert.ElementsMatch(t, []string{"bull_memory", "bear_memory"}, reg.Names())
}

func TestRegistryConcurrentGetSameInstance(t *testing.T) {
	reg := NewRegistry(directionEmbedder())

	const workers = 16
	results := make([]*Collection, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = reg.Get("shared")
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestRegistryDrop(t *testing.T) {
	reg := NewRegistry(directionEmbedder())
	ctx := context.Background()

	col := reg.Get("temp")
	require.NoError(t, col.Add(ctx, []SituationAdvice{
		{Situation: "market bearish", Advice: "sell"},
	}))

	reg.Drop("temp")
	assert.Zero(t, reg.Get("temp").Size())

	reg.Drop("never_existed")
}
