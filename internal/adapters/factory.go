package adapters

import (
	"context"
	"strings"

	"github.com/tradingagents/core/config"
	"github.com/tradingagents/core/internal/domain"
	"github.com/tradingagents/core/internal/tracker"
)

var defaultEndpoints = map[Provider]string{
	ProviderOpenAI:     "https://api.openai.com",
	ProviderOpenRouter: "https://openrouter.ai/api",
	ProviderOllama:     "http://localhost:11434",
}

// ForDescriptor builds the adapter for a model descriptor. Every valid
// provider tag maps to exactly one adapter family; an unrecognized tag is
// a configuration error, not a fallback.
func ForDescriptor(ctx context.Context, desc config.ModelDescriptor, tr *tracker.Tracker) (Adapter, error) {
	provider := Provider(strings.ToLower(desc.Provider))

	switch provider {
	case ProviderOpenAI, ProviderOpenRouter, ProviderOllama, ProviderCustom:
		endpoint := desc.Endpoint
		if endpoint == "" {
			endpoint = defaultEndpoints[provider]
		}
		if endpoint == "" {
			return nil, domain.NewError(domain.KindConfigMalformed,
				"custom provider requires an endpoint",
				"set the endpoint field on the model descriptor", nil)
		}
		return newOpenAIAdapter(provider, endpoint, desc.APIKey, desc.ModelName, desc.MaxTokens, desc.Temperature, tr), nil

	case ProviderAnthropic:
		return newAnthropicAdapter(desc.Endpoint, desc.APIKey, desc.ModelName, desc.MaxTokens, desc.Temperature, tr), nil

	case ProviderGoogle:
		return newGoogleAdapter(ctx, desc.APIKey, desc.ModelName, desc.MaxTokens, desc.Temperature, tr)

	default:
		return nil, domain.NewError(domain.KindConfigMalformed,
			"unknown provider: "+desc.Provider,
			"supported providers: openai, anthropic, google, openrouter, ollama, custom", nil)
	}
}
