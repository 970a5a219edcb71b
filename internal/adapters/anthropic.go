package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tradingagents/core/internal/domain"
	"github.com/tradingagents/core/internal/logger"
	"github.com/tradingagents/core/internal/tracker"
)

const (
	anthropicVersion          = "2023-06-01"
	anthropicDefaultMaxTokens = 4096
)

// anthropicAdapter speaks the native messages API: system prompt as a
// top-level field, content as typed blocks, tools as input_schema
// declarations.
type anthropicAdapter struct {
	endpoint string
	apiKey   string
	model    string

	maxTokens   int
	temperature float64

	tools   []Tool
	tracker *tracker.Tracker
	client  *http.Client
}

func newAnthropicAdapter(endpoint, apiKey, model string, maxTokens int, temperature float64, tr *tracker.Tracker) *anthropicAdapter {
	if endpoint == "" {
		endpoint = "https://api.anthropic.com"
	}
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}
	return &anthropicAdapter{
		endpoint:    strings.TrimRight(endpoint, "/"),
		apiKey:      apiKey,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		tracker:     tr,
		client:      &http.Client{Timeout: defaultRequestTimeout},
	}
}

func (a *anthropicAdapter) Provider() Provider {
	return ProviderAnthropic
}

func (a *anthropicAdapter) Model() string {
	return a.model
}

func (a *anthropicAdapter) BindTools(tools []Tool) Adapter {
	bound := *a
	bound.tools = append([]Tool(nil), tools...)
	return &bound
}

type anthropicContentBlock struct {
	Type string `json:"type"`

	// type == "text"
	Text string `json:"text,omitempty"`

	// type == "tool_use"
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	// type == "tool_result"
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type anthropicRequest struct {
	Model         string             `json:"model"`
	MaxTokens     int                `json:"max_tokens"`
	System        string             `json:"system,omitempty"`
	Messages      []anthropicMessage `json:"messages"`
	Tools         []anthropicTool    `json:"tools,omitempty"`
	StopSequences []string           `json:"stop_sequences,omitempty"`
	Temperature   float64            `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type  string          `json:"type"`
		Text  string          `json:"text"`
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *anthropicAdapter) Generate(ctx context.Context, messages []Message, opts ...GenOption) (*Result, error) {
	options := applyGenOptions(opts)

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.client.Timeout)
		defer cancel()
	}

	system, wireMsgs := a.wireMessages(messages)

	reqBody := anthropicRequest{
		Model:         a.model,
		MaxTokens:     a.maxTokens,
		System:        system,
		Messages:      wireMsgs,
		Tools:         a.wireTools(),
		StopSequences: options.stop,
		Temperature:   a.temperature,
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal messages request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+"/v1/messages", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create messages request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, domain.NewError(domain.KindProviderTransport, "messages request failed", "check network connectivity", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewError(domain.KindProviderTransport, "failed to read messages response", "", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewError(domain.KindProviderTransport,
			fmt.Sprintf("messages endpoint returned status %d: %s", resp.StatusCode, truncateBody(body)),
			"verify api key", nil)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		logger.Warn("undecodable messages response, returning empty result",
			"model", a.model, "error", err)
		return &Result{}, nil
	}
	if parsed.Error != nil {
		return nil, domain.NewError(domain.KindProviderTransport,
			fmt.Sprintf("messages api error: %s", parsed.Error.Message), "", nil)
	}

	result := &Result{}
	var text strings.Builder
	for _, block := range parsed.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			if block.Name == "" {
				logger.Warn("dropping tool_use block without a name", "id", block.ID)
				continue
			}
			args := map[string]any{}
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &args); err != nil {
					logger.Warn("tool_use input undecodable, using empty args",
						"tool", block.Name, "error", err)
					args = map[string]any{}
				}
			}
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:   block.ID,
				Name: block.Name,
				Args: args,
			})
		}
	}
	result.Content = text.String()
	result.Usage = resolveUsage(parsed.Usage.InputTokens, parsed.Usage.OutputTokens, messages, result.Content)

	recordUsage(ctx, a.tracker, ProviderAnthropic, a.model, result.Usage, options)
	return result, nil
}

// wireMessages extracts system turns into the top-level system prompt and
// converts the rest to content-block form. Tool results travel as user
// turns with tool_result blocks.
func (a *anthropicAdapter) wireMessages(messages []Message) (string, []anthropicMessage) {
	var system strings.Builder
	wire := make([]anthropicMessage, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			if system.Len() > 0 {
				system.WriteString("\n\n")
			}
			system.WriteString(m.Content)
		case RoleTool:
			wire = append(wire, anthropicMessage{
				Role: "user",
				Content: []anthropicContentBlock{{
					Type:      "tool_result",
					ToolUseID: m.ToolCallID,
					Content:   m.Content,
				}},
			})
		case RoleAssistant:
			blocks := make([]anthropicContentBlock, 0, 1+len(m.ToolCalls))
			if m.Content != "" {
				blocks = append(blocks, anthropicContentBlock{Type: "text", Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropicContentBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  tc.Name,
					Input: tc.Args,
				})
			}
			wire = append(wire, anthropicMessage{Role: "assistant", Content: blocks})
		default:
			wire = append(wire, anthropicMessage{
				Role:    "user",
				Content: []anthropicContentBlock{{Type: "text", Text: m.Content}},
			})
		}
	}
	return system.String(), wire
}

func (a *anthropicAdapter) wireTools() []anthropicTool {
	if len(a.tools) == 0 {
		return nil
	}
	tools := make([]anthropicTool, len(a.tools))
	for i, t := range a.tools {
		fn := canonicalTool(t)
		tools[i] = anthropicTool{
			Name:        fn.Name,
			Description: fn.Description,
			InputSchema: fn.Parameters,
		}
	}
	return tools
}
