package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/tradingagents/core/internal/domain"
	"github.com/tradingagents/core/internal/logger"
	"github.com/tradingagents/core/internal/tracker"
)

// googleAdapter drives Gemini models through the genai SDK: tools become
// function declarations, tool calls come back as function call parts.
type googleAdapter struct {
	client *genai.Client
	model  string

	maxTokens   int
	temperature float64

	tools   []Tool
	tracker *tracker.Tracker
}

func newGoogleAdapter(ctx context.Context, apiKey, model string, maxTokens int, temperature float64, tr *tracker.Tracker) (*googleAdapter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &googleAdapter{
		client:      client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		tracker:     tr,
	}, nil
}

func (a *googleAdapter) Provider() Provider {
	return ProviderGoogle
}

func (a *googleAdapter) Model() string {
	return a.model
}

func (a *googleAdapter) BindTools(tools []Tool) Adapter {
	bound := *a
	bound.tools = append([]Tool(nil), tools...)
	return &bound
}

func (a *googleAdapter) Generate(ctx context.Context, messages []Message, opts ...GenOption) (*Result, error) {
	options := applyGenOptions(opts)

	system, contents := a.wireContents(messages)

	cfg := &genai.GenerateContentConfig{
		StopSequences: options.stop,
		Temperature:   genai.Ptr(float32(a.temperature)),
	}
	if a.maxTokens > 0 {
		cfg.MaxOutputTokens = int32(a.maxTokens)
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if decls := a.wireDeclarations(); len(decls) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, cfg)
	if err != nil {
		return nil, domain.NewError(domain.KindProviderTransport, "genai generate failed", "check network connectivity and api key", err)
	}

	result := &Result{}
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		var text strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				text.WriteString(part.Text)
			}
			if part.FunctionCall != nil {
				if part.FunctionCall.Name == "" {
					logger.Warn("dropping function call without a name", "model", a.model)
					continue
				}
				args := part.FunctionCall.Args
				if args == nil {
					args = map[string]any{}
				}
				result.ToolCalls = append(result.ToolCalls, ToolCall{
					ID:   fmt.Sprintf("call_%d", len(result.ToolCalls)),
					Name: part.FunctionCall.Name,
					Args: args,
				})
			}
		}
		result.Content = text.String()
	} else {
		logger.Warn("genai response carried no candidates, returning empty result", "model", a.model)
	}

	var vendorIn, vendorOut int
	if resp.UsageMetadata != nil {
		vendorIn = int(resp.UsageMetadata.PromptTokenCount)
		vendorOut = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	result.Usage = resolveUsage(vendorIn, vendorOut, messages, result.Content)

	recordUsage(ctx, a.tracker, ProviderGoogle, a.model, result.Usage, options)
	return result, nil
}

// wireContents extracts system turns and converts the rest: assistant
// becomes the model role, tool results become function response parts.
func (a *googleAdapter) wireContents(messages []Message) (string, []*genai.Content) {
	var system strings.Builder
	contents := make([]*genai.Content, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			if system.Len() > 0 {
				system.WriteString("\n\n")
			}
			system.WriteString(m.Content)
		case RoleAssistant:
			parts := make([]*genai.Part, 0, 1+len(m.ToolCalls))
			if m.Content != "" {
				parts = append(parts, genai.NewPartFromText(m.Content))
			}
			for _, tc := range m.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{Name: tc.Name, Args: tc.Args},
				})
			}
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
		case RoleTool:
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{
				genai.NewPartFromFunctionResponse(m.ToolCallID, map[string]any{"result": m.Content}),
			}, genai.RoleUser))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return system.String(), contents
}

func (a *googleAdapter) wireDeclarations() []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(a.tools))
	for _, t := range a.tools {
		fn := canonicalTool(t)
		var schema map[string]any
		if err := json.Unmarshal(fn.Parameters, &schema); err != nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:                 fn.Name,
			Description:          fn.Description,
			ParametersJsonSchema: schema,
		})
	}
	return decls
}
