package config

import (
	"regexp"
	"strings"
)

// ModelDescriptor identifies a chat model available to the pipeline.
// Descriptors are immutable after load and keyed by (provider, model_name).
type ModelDescriptor struct {
	Provider    string  `json:"provider" mapstructure:"provider"`
	ModelName   string  `json:"model_name" mapstructure:"model_name"`
	Endpoint    string  `json:"endpoint,omitempty" mapstructure:"endpoint"`
	APIKey      string  `json:"api_key,omitempty" mapstructure:"api_key"`
	MaxTokens   int     `json:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
	Enabled     bool    `json:"enabled" mapstructure:"enabled"`
}

// Key returns the canonical "provider/model" lookup key.
func (m ModelDescriptor) Key() string {
	return strings.ToLower(m.Provider) + "/" + m.ModelName
}

// openaiKeyPattern is the documented shape of OpenAI secret keys.
var openaiKeyPattern = regexp.MustCompile(`^sk-[A-Za-z0-9]{48}$`)

// ValidAPIKey reports whether key has an acceptable format for the given
// provider tag. Only OpenAI keys have a fixed documented shape; other
// providers accept any non-empty value.
func ValidAPIKey(provider, key string) bool {
	if key == "" {
		return false
	}
	if strings.ToLower(provider) == "openai" {
		return openaiKeyPattern.MatchString(key)
	}
	return true
}

// apiKeyEnvVar returns the conventional environment variable carrying the
// API key for a provider tag, e.g. OPENAI_API_KEY.
func apiKeyEnvVar(provider string) string {
	return strings.ToUpper(provider) + "_API_KEY"
}

// DefaultModels returns the built-in model descriptors. All start disabled;
// a valid API key (file or env) enables them.
func DefaultModels() []ModelDescriptor {
	return []ModelDescriptor{
		{
			Provider:    "openai",
			ModelName:   "gpt-4o",
			MaxTokens:   4096,
			Temperature: 0.7,
			Enabled:     false,
		},
		{
			Provider:    "openai",
			ModelName:   "gpt-4o-mini",
			MaxTokens:   4096,
			Temperature: 0.7,
			Enabled:     false,
		},
		{
			Provider:    "anthropic",
			ModelName:   "claude-sonnet-4-20250514",
			MaxTokens:   8192,
			Temperature: 0.7,
			Enabled:     false,
		},
		{
			Provider:    "google",
			ModelName:   "gemini-2.0-flash",
			MaxTokens:   8192,
			Temperature: 0.7,
			Enabled:     false,
		},
		{
			Provider:    "openrouter",
			ModelName:   "deepseek/deepseek-chat",
			Endpoint:    "https://openrouter.ai/api",
			MaxTokens:   4096,
			Temperature: 0.7,
			Enabled:     false,
		},
		{
			Provider:    "ollama",
			ModelName:   "llama3.1",
			Endpoint:    "http://localhost:11434",
			MaxTokens:   4096,
			Temperature: 0.7,
			Enabled:     true,
		},
	}
}
