// Package adapters provides a uniform generate/tool-call contract over chat
// LLM providers. One adapter serves each provider family; all of them
// normalize tool calls to the same shape and report token usage to the
// cost tracker. Adapters never retry: transport failures surface to the
// caller and retry policy lives in the orchestrator.
package adapters

import (
	"context"
	"encoding/json"
)

// Provider is the closed set of supported provider families.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
	ProviderGoogle     Provider = "google"
	ProviderOpenRouter Provider = "openrouter"
	ProviderOllama     Provider = "ollama"
	ProviderCustom     Provider = "custom"
)

// Role is a chat message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one provider-agnostic chat turn. Assistant messages may carry
// tool calls; tool messages carry the call they answer in ToolCallID.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a normalized model-requested function invocation. Args is
// always a decoded mapping, never a JSON string.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Tool declares a function the model may call. Parameters is a JSON
// Schema object.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Usage is the token count of one call. Estimated marks counts derived
// from character length because the vendor reported none.
type Usage struct {
	InputTokens  int  `json:"input_tokens"`
	OutputTokens int  `json:"output_tokens"`
	Estimated    bool `json:"estimated"`
}

// Result is the outcome of one generate call.
type Result struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Usage     Usage      `json:"usage"`
}

// Adapter is the uniform chat contract every provider family implements.
type Adapter interface {
	Generate(ctx context.Context, messages []Message, opts ...GenOption) (*Result, error)

	// BindTools returns a copy of the adapter with tools bound; the
	// receiver is unchanged.
	BindTools(tools []Tool) Adapter

	Provider() Provider
	Model() string
}

type genOptions struct {
	stop         []string
	sessionID    string
	analysisType string
}

// GenOption adjusts one Generate call.
type GenOption func(*genOptions)

// WithStop sets stop sequences for the call.
func WithStop(sequences ...string) GenOption {
	return func(o *genOptions) {
		o.stop = append(o.stop, sequences...)
	}
}

// WithSession attributes the call's usage to a session.
func WithSession(sessionID string) GenOption {
	return func(o *genOptions) {
		o.sessionID = sessionID
	}
}

// WithAnalysisType attributes the call's usage to an analysis category.
func WithAnalysisType(analysisType string) GenOption {
	return func(o *genOptions) {
		o.analysisType = analysisType
	}
}

func applyGenOptions(opts []GenOption) genOptions {
	var o genOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
