package adapters

import (
	"context"
	"unicode/utf8"

	"github.com/tradingagents/core/internal/tracker"
)

// charsPerToken is the provider-agnostic approximation used when a vendor
// response carries no token counts.
const charsPerToken = 2

// estimateTokens approximates a token count from character length. Length
// is counted in runes so multi-byte text is not over-billed.
func estimateTokens(text string) int {
	return utf8.RuneCountInString(text) / charsPerToken
}

// estimateMessageTokens sums the estimate over a request's messages.
func estimateMessageTokens(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += estimateTokens(m.Content)
	}
	return total
}

// resolveUsage prefers vendor-reported counts and falls back to character
// estimates marked Estimated.
func resolveUsage(vendorIn, vendorOut int, messages []Message, content string) Usage {
	if vendorIn > 0 || vendorOut > 0 {
		return Usage{InputTokens: vendorIn, OutputTokens: vendorOut}
	}
	return Usage{
		InputTokens:  estimateMessageTokens(messages),
		OutputTokens: estimateTokens(content),
		Estimated:    true,
	}
}

// recordUsage reports a successful call to the cost tracker. A nil tracker
// disables accounting.
func recordUsage(ctx context.Context, tr *tracker.Tracker, provider Provider, model string, usage Usage, opts genOptions) {
	if tr == nil {
		return
	}

	trackOpts := make([]tracker.TrackOption, 0, 3)
	if opts.sessionID != "" {
		trackOpts = append(trackOpts, tracker.WithSession(opts.sessionID))
	}
	if opts.analysisType != "" {
		trackOpts = append(trackOpts, tracker.WithAnalysisType(opts.analysisType))
	}
	if usage.Estimated {
		trackOpts = append(trackOpts, tracker.WithEstimated())
	}

	tr.Track(ctx, string(provider), model, usage.InputTokens, usage.OutputTokens, trackOpts...)
}
