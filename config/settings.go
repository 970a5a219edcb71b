package config

import (
	"github.com/tradingagents/core/internal/envparse"
)

// Settings is the map of scalar process-wide settings stored in
// settings.json. Environment variables override file values on load.
type Settings struct {
	DataDir             string  `json:"data_dir" mapstructure:"data_dir"`
	CacheDir            string  `json:"cache_dir" mapstructure:"cache_dir"`
	ResultsDir          string  `json:"results_dir" mapstructure:"results_dir"`
	DefaultProvider     string  `json:"default_provider" mapstructure:"default_provider"`
	CostTrackingEnabled bool    `json:"cost_tracking_enabled" mapstructure:"cost_tracking_enabled"`
	CostAlertThreshold  float64 `json:"cost_alert_threshold" mapstructure:"cost_alert_threshold"`
	Currency            string  `json:"currency" mapstructure:"currency"`
	MaxUsageRecords     int     `json:"max_usage_records" mapstructure:"max_usage_records"`

	MaxEmbeddingLength   int  `json:"max_embedding_length" mapstructure:"max_embedding_length"`
	EmbeddingLengthCheck bool `json:"embedding_length_check" mapstructure:"embedding_length_check"`
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		DataDir:              "./data",
		CacheDir:             "./data/cache",
		ResultsDir:           "./results",
		DefaultProvider:      "openai",
		CostTrackingEnabled:  true,
		CostAlertThreshold:   100.0,
		Currency:             "USD",
		MaxUsageRecords:      10000,
		MaxEmbeddingLength:   50000,
		EmbeddingLengthCheck: true,
	}
}

// applyEnv overlays environment variables onto s. Env always wins over
// file values.
func (s Settings) applyEnv() Settings {
	s.DataDir = envparse.String("DATA_DIR", s.DataDir)
	s.CacheDir = envparse.String("CACHE_DIR", s.CacheDir)
	s.ResultsDir = envparse.String("RESULTS_DIR", s.ResultsDir)
	s.DefaultProvider = envparse.String("DEFAULT_PROVIDER", s.DefaultProvider)
	s.CostTrackingEnabled = envparse.Bool("COST_TRACKING_ENABLED", s.CostTrackingEnabled)
	s.CostAlertThreshold = envparse.Float("COST_ALERT_THRESHOLD", s.CostAlertThreshold)
	s.Currency = envparse.String("CURRENCY_PREFERENCE", s.Currency)
	s.MaxUsageRecords = envparse.Int("MAX_USAGE_RECORDS", s.MaxUsageRecords)
	s.MaxEmbeddingLength = envparse.Int("MAX_EMBEDDING_CONTENT_LENGTH", s.MaxEmbeddingLength)
	s.EmbeddingLengthCheck = envparse.Bool("ENABLE_EMBEDDING_LENGTH_CHECK", s.EmbeddingLengthCheck)
	return s
}
