package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tradingagents/core/internal/domain"
	"github.com/tradingagents/core/internal/logger"
	"github.com/tradingagents/core/internal/tracker"
)

const defaultRequestTimeout = 120 * time.Second

// openAIAdapter speaks the OpenAI chat completions wire format. It serves
// the openai, openrouter, ollama, and custom provider tags, differing only
// in endpoint and credentials.
type openAIAdapter struct {
	provider Provider
	endpoint string
	apiKey   string
	model    string

	maxTokens   int
	temperature float64

	tools   []Tool
	tracker *tracker.Tracker
	client  *http.Client
}

func newOpenAIAdapter(provider Provider, endpoint, apiKey, model string, maxTokens int, temperature float64, tr *tracker.Tracker) *openAIAdapter {
	return &openAIAdapter{
		provider:    provider,
		endpoint:    baseEndpoint(endpoint),
		apiKey:      apiKey,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		tracker:     tr,
		client:      &http.Client{Timeout: defaultRequestTimeout},
	}
}

func (a *openAIAdapter) Provider() Provider {
	return a.provider
}

func (a *openAIAdapter) Model() string {
	return a.model
}

func (a *openAIAdapter) BindTools(tools []Tool) Adapter {
	bound := *a
	bound.tools = append([]Tool(nil), tools...)
	return &bound
}

type openAIMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Tools       []toolSchema    `json:"tools,omitempty"`
	Stop        []string        `json:"stop,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content   string         `json:"content"`
			ToolCalls []wireToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (a *openAIAdapter) Generate(ctx context.Context, messages []Message, opts ...GenOption) (*Result, error) {
	options := applyGenOptions(opts)

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.client.Timeout)
		defer cancel()
	}

	reqBody := openAIRequest{
		Model:       a.model,
		Messages:    a.wireMessages(messages),
		Tools:       canonicalTools(a.tools),
		Stop:        options.stop,
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+"/v1/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, domain.NewError(domain.KindProviderTransport, "chat request failed", "check network connectivity and endpoint", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewError(domain.KindProviderTransport, "failed to read chat response", "", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewError(domain.KindProviderTransport,
			fmt.Sprintf("chat endpoint returned status %d: %s", resp.StatusCode, truncateBody(body)),
			"verify endpoint and api key", nil)
	}

	var parsed openAIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		logger.Warn("undecodable chat response, returning empty result",
			"provider", a.provider, "model", a.model, "error", err)
		return &Result{}, nil
	}
	if parsed.Error != nil {
		return nil, domain.NewError(domain.KindProviderTransport,
			fmt.Sprintf("chat api error: %s", parsed.Error.Message), "", nil)
	}
	if len(parsed.Choices) == 0 {
		logger.Warn("chat response carried no choices, returning empty result",
			"provider", a.provider, "model", a.model)
		return &Result{}, nil
	}

	choice := parsed.Choices[0]
	result := &Result{
		Content:   choice.Message.Content,
		ToolCalls: normalizeToolCalls(choice.Message.ToolCalls),
	}
	result.Usage = resolveUsage(parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens, messages, result.Content)

	recordUsage(ctx, a.tracker, a.provider, a.model, result.Usage, options)
	return result, nil
}

func (a *openAIAdapter) wireMessages(messages []Message) []openAIMessage {
	wire := make([]openAIMessage, len(messages))
	for i, m := range messages {
		wm := openAIMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			args, err := json.Marshal(tc.Args)
			if err != nil {
				args = []byte("{}")
			}
			var wtc wireToolCall
			wtc.ID = tc.ID
			wtc.Type = "function"
			wtc.Function.Name = tc.Name
			wtc.Function.Arguments = string(args)
			wm.ToolCalls = append(wm.ToolCalls, wtc)
		}
		wire[i] = wm
	}
	return wire
}

// baseEndpoint normalizes a configured endpoint to its base URL. The wire
// paths already carry the /v1 prefix, so a configured "/v1" suffix (common
// in OpenAI-compatible base URLs) is stripped rather than doubled.
func baseEndpoint(endpoint string) string {
	endpoint = strings.TrimRight(endpoint, "/")
	return strings.TrimSuffix(endpoint, "/v1")
}

func truncateBody(body []byte) string {
	const limit = 512
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
