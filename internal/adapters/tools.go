package adapters

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/tradingagents/core/internal/logger"
)

// wire form for OpenAI-style tool declarations:
// {type:"function", function:{name, description, parameters}}.
type toolSchema struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

var backupParameters = json.RawMessage(`{"type":"object","properties":{}}`)

// canonicalTool validates a tool declaration before it goes on the wire.
// Invalid schemas are replaced with a minimal backup built from the tool's
// name and description, with a warning.
func canonicalTool(t Tool) toolFunction {
	fn := toolFunction{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
	if !validParameters(t.Parameters) {
		logger.Warn("invalid tool schema, substituting backup",
			"tool", t.Name)
		fn.Parameters = backupParameters
	}
	return fn
}

// validParameters requires a JSON object with a "type" field.
func validParameters(params json.RawMessage) bool {
	if len(params) == 0 {
		return false
	}
	var obj map[string]any
	if err := json.Unmarshal(params, &obj); err != nil {
		return false
	}
	if _, ok := obj["type"].(string); !ok {
		return false
	}
	return true
}

func canonicalTools(tools []Tool) []toolSchema {
	if len(tools) == 0 {
		return nil
	}
	schemas := make([]toolSchema, len(tools))
	for i, t := range tools {
		schemas[i] = toolSchema{Type: "function", Function: canonicalTool(t)}
	}
	return schemas
}

// wire form of a returned tool call: {id, function:{name, arguments}}
// where arguments is a JSON string.
type wireToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// normalizeToolCalls rewrites vendor tool calls to the {name, args, id}
// shape. Calls without a name are dropped with a warning; undecodable
// argument strings become empty args rather than dropping the call.
func normalizeToolCalls(raw []wireToolCall) []ToolCall {
	calls := make([]ToolCall, 0, len(raw))
	for _, rc := range raw {
		if rc.Function.Name == "" {
			logger.Warn("dropping tool call without a name", "id", rc.ID)
			continue
		}

		args := map[string]any{}
		if rc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(rc.Function.Arguments), &args); err != nil {
				logger.Warn("tool call arguments undecodable, using empty args",
					"tool", rc.Function.Name, "error", err)
				args = map[string]any{}
			}
		}

		id := rc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}

		calls = append(calls, ToolCall{ID: id, Name: rc.Function.Name, Args: args})
	}
	if len(calls) == 0 {
		return nil
	}
	return calls
}
