package cache

import "time"

// Market tags inferred from symbol shape.
const (
	MarketUS = "us"
	MarketCN = "cn"
)

// DefaultTTL applies to data types without a table entry.
const DefaultTTL = 3600 * time.Second

// ttlTable maps (market, data_type) to entry lifetime. CN data refreshes
// faster because the upstream sources update intraday.
var ttlTable = map[string]map[string]time.Duration{
	MarketUS: {
		"stock_data":        7200 * time.Second,
		"news_data":         21600 * time.Second,
		"fundamentals_data": 86400 * time.Second,
	},
	MarketCN: {
		"stock_data":        3600 * time.Second,
		"news_data":         14400 * time.Second,
		"fundamentals_data": 43200 * time.Second,
	},
}

// InferMarket classifies a symbol by shape: a six-character all-digit code
// is a mainland China listing, anything else is treated as US.
func InferMarket(symbol string) string {
	if len(symbol) == 6 && allDigits(symbol) {
		return MarketCN
	}
	return MarketUS
}

// TTLFor returns the lifetime for a symbol's data type.
func TTLFor(symbol, dataType string) time.Duration {
	market := InferMarket(symbol)
	if ttl, ok := ttlTable[market][dataType]; ok {
		return ttl
	}
	return DefaultTTL
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
