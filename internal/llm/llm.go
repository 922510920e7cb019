// Package llm holds the model clients behind structuring and chat: OpenAI
// chat completions, Anthropic messages and Gemini. Every client reports
// failures as *ModelError.
package llm

import (
	"context"
	"encoding/json"
)

// JSONRequest asks a model for one JSON document conforming to Schema.
type JSONRequest struct {
	System     string
	User       string
	SchemaName string
	Schema     map[string]any
}

// JSONGenerator returns the model's raw text answer. The caller owns
// validation; clients do not inspect the content.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, req JSONRequest) (string, error)
	Provider() string
	Model() string
}

// Message is one chat turn in OpenAI wire shape.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the arguments as the model produced them: a JSON
// string that still has to be parsed.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Strict      bool           `json:"strict,omitempty"`
}

// ChatCompleter runs one chat completion that may answer with tool calls.
type ChatCompleter interface {
	Chat(ctx context.Context, messages []Message, tools []Tool) (Message, error)
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
