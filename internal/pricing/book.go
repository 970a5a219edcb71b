// Package pricing implements the versioned price book: a pure-function cost
// calculator over (provider, model) price entries.
package pricing

import (
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tradingagents/core/config"
	"github.com/tradingagents/core/internal/logger"
)

// Book computes call costs from a price table. Lookups are exact on
// (provider, model); unknown pairs cost zero and warn once per pair.
type Book struct {
	entries atomic.Pointer[map[string]config.PriceEntry]
	warned  sync.Map
}

// NewBook builds a Book from price entries.
func NewBook(entries []config.PriceEntry) *Book {
	b := &Book{}
	b.Reload(entries)
	return b
}

// Reload replaces the price table. Already-issued unknown-pricing warnings
// stay suppressed.
func (b *Book) Reload(entries []config.PriceEntry) {
	table := make(map[string]config.PriceEntry, len(entries))
	for _, e := range entries {
		table[key(e.Provider, e.ModelName)] = e
	}
	b.entries.Store(&table)
}

// Lookup returns the price entry for (provider, model), if present.
func (b *Book) Lookup(provider, model string) (config.PriceEntry, bool) {
	table := *b.entries.Load()
	e, ok := table[key(provider, model)]
	return e, ok
}

// Cost computes the cost of a call in the entry's currency:
//
//	(in/1000)*input_price + (out/1000)*output_price
//
// rounded to 6 decimal places. A missing entry costs exactly 0.0 and emits
// one unknown_pricing warning per unique (provider, model) pair.
func (b *Book) Cost(provider, model string, inputTokens, outputTokens int) float64 {
	e, ok := b.Lookup(provider, model)
	if !ok {
		k := key(provider, model)
		if _, loaded := b.warned.LoadOrStore(k, struct{}{}); !loaded {
			logger.WarnEvent("unknown_pricing", "provider", provider, "model", model)
		}
		return 0.0
	}

	cost := (float64(inputTokens)/1000.0)*e.InputPricePer1K +
		(float64(outputTokens)/1000.0)*e.OutputPricePer1K
	return round6(cost)
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func key(provider, model string) string {
	return strings.ToLower(provider) + "/" + model
}
