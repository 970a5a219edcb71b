package memory

import (
	"context"
	"strings"

	"github.com/tradingagents/core/internal/envparse"
	"github.com/tradingagents/core/internal/logger"
)

// EngineConfig selects and parameterizes the embedding provider chain.
type EngineConfig struct {
	// Preferred names the vendor engine to try first: "google" or "openai".
	Preferred string

	GoogleAPIKey string
	GoogleModel  string

	OpenAIEndpoint string
	OpenAIAPIKey   string
	OpenAIModel    string

	// MaxContentLength bounds embeddable text. Texts above it are stored
	// as sentinels instead of being truncated. Zero disables the check.
	MaxContentLength int
	LengthCheck      bool
}

// Chain tries a preferred vendor engine, falls back to an
// OpenAI-compatible engine, and degrades to sentinel vectors when neither
// works. All Chain operations succeed: embedding failures are recovered
// locally, never surfaced to callers.
type Chain struct {
	primary  Embedder
	fallback Embedder

	maxLen   int
	checkLen bool
}

// NewChain assembles the provider chain from cfg. FORCE_OPENAI_EMBEDDING
// skips the vendor engine. With no usable engine at all the chain runs in
// disabled mode.
func NewChain(ctx context.Context, cfg EngineConfig) *Chain {
	c := &Chain{
		maxLen:   cfg.MaxContentLength,
		checkLen: cfg.LengthCheck,
	}

	forceOpenAI := envparse.Bool("FORCE_OPENAI_EMBEDDING", false)

	if !forceOpenAI && strings.EqualFold(cfg.Preferred, "google") && cfg.GoogleAPIKey != "" {
		engine, err := NewGoogleEmbedder(ctx, cfg.GoogleAPIKey, cfg.GoogleModel)
		if err != nil {
			logger.Warn("google embedding engine unavailable", "error", err)
		} else {
			c.primary = engine
		}
	}

	if cfg.OpenAIAPIKey != "" || cfg.OpenAIEndpoint != "" {
		openai := NewOpenAIEmbedder(cfg.OpenAIEndpoint, cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if c.primary == nil {
			c.primary = openai
		} else {
			c.fallback = openai
		}
	}

	if c.primary == nil {
		logger.WarnEvent("embedding_disabled",
			"reason", "no embedding provider configured")
	} else {
		logger.Info("embedding engine selected", "engine", c.primary.Name())
	}
	return c
}

// NewDisabledChain returns a chain with no engines: every Embed yields a
// sentinel.
func NewDisabledChain() *Chain {
	return &Chain{}
}

// Disabled reports whether the chain has no embedding engine at all.
func (c *Chain) Disabled() bool {
	return c.primary == nil
}

// Embed returns a vector for text. Over-length texts and engine failures
// both produce a sentinel vector rather than an error.
func (c *Chain) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.checkLen && c.maxLen > 0 && len(text) > c.maxLen {
		logger.WarnEvent("length_limit_skip",
			"length", len(text),
			"limit", c.maxLen)
		return Sentinel(c.Dimensions()), nil
	}

	if c.primary == nil {
		return Sentinel(c.Dimensions()), nil
	}

	vec, err := c.primary.Embed(ctx, text)
	if err == nil {
		return vec, nil
	}
	logger.Warn("embedding failed on primary engine",
		"engine", c.primary.Name(), "error", err)

	if c.fallback != nil {
		vec, ferr := c.fallback.Embed(ctx, text)
		if ferr == nil {
			return vec, nil
		}
		logger.Warn("embedding failed on fallback engine",
			"engine", c.fallback.Name(), "error", ferr)
	}

	return Sentinel(c.Dimensions()), nil
}

// Dimensions follows the primary engine, or SentinelDimensions in
// disabled mode.
func (c *Chain) Dimensions() int {
	if c.primary != nil {
		return c.primary.Dimensions()
	}
	return SentinelDimensions
}

func (c *Chain) Name() string {
	if c.primary == nil {
		return "disabled"
	}
	if c.fallback != nil {
		return c.primary.Name() + "+" + c.fallback.Name()
	}
	return c.primary.Name()
}
