package orchestrate

import (
	"context"
	"fmt"
	"time"

	"github.com/tradingagents/core/internal/adapters"
	"github.com/tradingagents/core/internal/domain"
	"github.com/tradingagents/core/internal/logger"
)

// RetryConfig contains retry settings for adapter calls. Adapters never
// retry on their own; this wrapper is the single place retry policy lives.
type RetryConfig struct {
	Enabled           bool
	MaxAttempts       int
	InitialBackoffSec int
	MaxBackoffSec     int
	BackoffMultiplier int
}

// DefaultRetryConfig retries transport failures three times with
// exponential backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Enabled:           true,
		MaxAttempts:       3,
		InitialBackoffSec: 1,
		MaxBackoffSec:     30,
		BackoffMultiplier: 2,
	}
}

// generate calls the adapter, retrying transport errors per config. Any
// other error returns immediately.
func generate(ctx context.Context, a adapters.Adapter, cfg RetryConfig, messages []adapters.Message, opts ...adapters.GenOption) (*adapters.Result, error) {
	if !cfg.Enabled {
		return a.Generate(ctx, messages, opts...)
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := a.Generate(ctx, messages, opts...)
		if err == nil {
			return result, nil
		}
		if !domain.IsTransport(err) {
			return nil, err
		}

		lastErr = err
		logger.Debug("transport error from adapter",
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"provider", a.Provider(),
			"error", err.Error())

		if attempt < cfg.MaxAttempts {
			backoff := calculateBackoff(cfg, attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(backoff) * time.Second):
			}
		}
	}

	return nil, fmt.Errorf("max retry attempts (%d) exceeded, last error: %w", cfg.MaxAttempts, lastErr)
}

func calculateBackoff(cfg RetryConfig, attempt int) int {
	backoff := cfg.InitialBackoffSec
	for i := 1; i < attempt; i++ {
		backoff *= cfg.BackoffMultiplier
	}
	if cfg.MaxBackoffSec > 0 && backoff > cfg.MaxBackoffSec {
		backoff = cfg.MaxBackoffSec
	}
	return backoff
}
