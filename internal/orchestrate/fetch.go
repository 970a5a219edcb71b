package orchestrate

import (
	"context"

	"github.com/tradingagents/core/internal/cache"
	"github.com/tradingagents/core/internal/logger"
)

// FetchFunc produces an artifact from its upstream source.
type FetchFunc func(ctx context.Context) (cache.Payload, error)

// CachedFetch is the path every external-data tool takes: probe the cache
// first, fetch on miss, and save the fetched artifact for the next run. A
// failed save is logged but does not fail the fetch.
func CachedFetch(ctx context.Context, c *cache.Cache, meta cache.Meta, fetch FetchFunc) (cache.Payload, error) {
	if key, ok := c.Find(ctx, meta); ok {
		if payload, ok := c.Load(ctx, key); ok {
			logger.Debug("cache hit",
				"symbol", meta.Symbol,
				"data_type", meta.DataType,
				"key", key)
			return *payload, nil
		}
	}

	payload, err := fetch(ctx)
	if err != nil {
		return cache.Payload{}, err
	}

	if _, err := c.Save(ctx, meta, payload); err != nil {
		logger.Warn("failed to cache fetched artifact",
			"symbol", meta.Symbol,
			"data_type", meta.DataType,
			"error", err)
	}
	return payload, nil
}
