package config

import "strings"

// PriceEntry holds per-model unit prices. Prices are per 1,000 tokens,
// regardless of currency. Lookup is exact on (provider, model_name); there
// is no inheritance and no wildcards.
type PriceEntry struct {
	Provider          string  `json:"provider" mapstructure:"provider"`
	ModelName         string  `json:"model_name" mapstructure:"model_name"`
	InputPricePer1K   float64 `json:"input_price_per_1k" mapstructure:"input_price_per_1k"`
	OutputPricePer1K  float64 `json:"output_price_per_1k" mapstructure:"output_price_per_1k"`
	Currency          string  `json:"currency" mapstructure:"currency"`
}

// Key returns the canonical "provider/model" lookup key.
func (p PriceEntry) Key() string {
	return strings.ToLower(p.Provider) + "/" + p.ModelName
}

// DefaultPricing contains built-in pricing for common models, based on
// publicly available provider price sheets. Users can override these in
// pricing.json.
func DefaultPricing() []PriceEntry {
	return []PriceEntry{
		{Provider: "openai", ModelName: "gpt-4o", InputPricePer1K: 0.0025, OutputPricePer1K: 0.01, Currency: "USD"},
		{Provider: "openai", ModelName: "gpt-4o-mini", InputPricePer1K: 0.00015, OutputPricePer1K: 0.0006, Currency: "USD"},
		{Provider: "openai", ModelName: "gpt-4-turbo", InputPricePer1K: 0.01, OutputPricePer1K: 0.03, Currency: "USD"},
		{Provider: "openai", ModelName: "o1", InputPricePer1K: 0.015, OutputPricePer1K: 0.06, Currency: "USD"},
		{Provider: "openai", ModelName: "o1-mini", InputPricePer1K: 0.003, OutputPricePer1K: 0.012, Currency: "USD"},
		{Provider: "anthropic", ModelName: "claude-sonnet-4-20250514", InputPricePer1K: 0.003, OutputPricePer1K: 0.015, Currency: "USD"},
		{Provider: "anthropic", ModelName: "claude-3-5-haiku-20241022", InputPricePer1K: 0.0008, OutputPricePer1K: 0.004, Currency: "USD"},
		{Provider: "anthropic", ModelName: "claude-3-opus-20240229", InputPricePer1K: 0.015, OutputPricePer1K: 0.075, Currency: "USD"},
		{Provider: "google", ModelName: "gemini-2.0-flash", InputPricePer1K: 0.0, OutputPricePer1K: 0.0, Currency: "USD"},
		{Provider: "google", ModelName: "gemini-1.5-pro", InputPricePer1K: 0.00125, OutputPricePer1K: 0.005, Currency: "USD"},
		{Provider: "google", ModelName: "gemini-1.5-flash", InputPricePer1K: 0.000075, OutputPricePer1K: 0.0003, Currency: "USD"},
		{Provider: "openrouter", ModelName: "deepseek/deepseek-chat", InputPricePer1K: 0.00028, OutputPricePer1K: 0.00042, Currency: "USD"},
		{Provider: "openrouter", ModelName: "deepseek/deepseek-reasoner", InputPricePer1K: 0.00028, OutputPricePer1K: 0.00042, Currency: "USD"},
		{Provider: "ollama", ModelName: "llama3.1", InputPricePer1K: 0.0, OutputPricePer1K: 0.0, Currency: "USD"},
		{Provider: "ollama", ModelName: "llama3.2", InputPricePer1K: 0.0, OutputPricePer1K: 0.0, Currency: "USD"},
	}
}
