// Package chat is the conversational front of the pipeline: a two-pass
// chat completion in which the model may call the profile extraction tool.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/profilex/internal/llm"
	"github.com/dgallion1/profilex/internal/profile"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"
)

// SystemPrompt opens every conversation.
const SystemPrompt = `You are a LinkedIn profile assistant. You help users extract their LinkedIn profile and convert it to Markdown, HTML and Word documents.

When a user wants a profile extracted, collect, in order:
1. their LinkedIn email or username
2. their password (tell them it is used for this run only and never stored)
3. the profile URL, which must look like https://www.linkedin.com/in/<name>

Then call the linkedin_highlight_and_extract tool. Explain what the extraction does and, when it finishes, summarize the profile. Never repeat the user's password back to them.`

var (
	ErrEmptyConversation = errors.New("conversation has no messages")
	ErrInvalidMessage    = errors.New("invalid chat message")
)

var allowedRoles = map[string]bool{
	"user":      true,
	"assistant": true,
	"system":    true,
	"developer": true,
	"tool":      true,
}

// Response is the reply to one chat request.
type Response struct {
	Message      llm.Message      `json:"message"`
	ProfileData  *profile.Profile `json:"profile_data"`
	RequiresTool bool             `json:"requires_tool"`
	HTML         string           `json:"html"`
}

// ToolError is returned when a requested tool call did not succeed.
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s failed: %s", e.Tool, e.Message)
}

// Service runs chat turns.
type Service struct {
	model llm.ChatCompleter
	exec  *Executor
	md    goldmark.Markdown
	log   *slog.Logger
}

func NewService(model llm.ChatCompleter, exec *Executor, log *slog.Logger) *Service {
	return &Service{
		model: model,
		exec:  exec,
		md:    goldmark.New(),
		log:   log,
	}
}

// Chat answers the conversation. If the first completion requests tool
// calls they are executed in order and a second completion produces the
// final reply.
func (s *Service) Chat(ctx context.Context, history []llm.Message) (*Response, error) {
	if len(history) == 0 {
		return nil, ErrEmptyConversation
	}
	for i, m := range history {
		if !allowedRoles[m.Role] {
			return nil, fmt.Errorf("%w: message %d has role %q", ErrInvalidMessage, i, m.Role)
		}
	}

	reqID := uuid.New().String()
	log := s.log.With("req_id", reqID)
	tools := []llm.Tool{Definition()}

	msgs := make([]llm.Message, 0, len(history)+4)
	msgs = append(msgs, llm.Message{Role: "system", Content: SystemPrompt})
	msgs = append(msgs, history...)

	first, err := s.model.Chat(ctx, msgs, tools)
	if err != nil {
		log.Error("chat.completion_failed", "pass", 1, "error", err, "kind", llm.KindOf(err))
		return nil, err
	}
	if len(first.ToolCalls) == 0 {
		return s.respond(first, nil)
	}

	msgs = append(msgs, first)
	var data *profile.Profile
	for _, call := range first.ToolCalls {
		log.Info("chat.tool_call", "tool", call.Function.Name, "call_id", call.ID)
		result := s.exec.Execute(ctx, call)
		if !result.Success {
			msg := "unknown error"
			if result.Error != nil {
				msg = *result.Error
			}
			log.Warn("chat.tool_failed", "tool", call.Function.Name, "error", msg)
			return nil, &ToolError{Tool: call.Function.Name, Message: msg}
		}
		if result.Data != nil {
			data = result.Data
		}
		content, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("marshal tool result: %w", err)
		}
		msgs = append(msgs, llm.Message{Role: "tool", Content: string(content), ToolCallID: call.ID})
	}

	final, err := s.model.Chat(ctx, msgs, tools)
	if err != nil {
		log.Error("chat.completion_failed", "pass", 2, "error", err, "kind", llm.KindOf(err))
		return nil, err
	}
	return s.respond(final, data)
}

func (s *Service) respond(msg llm.Message, data *profile.Profile) (*Response, error) {
	html, err := s.RenderHTML(msg.Content)
	if err != nil {
		return nil, err
	}
	return &Response{
		Message:      msg,
		ProfileData:  data,
		RequiresTool: len(msg.ToolCalls) > 0,
		HTML:         html,
	}, nil
}

// RenderHTML converts a Markdown reply to an HTML fragment. Raw HTML in the
// reply is dropped.
func (s *Service) RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(`<div class="chat-response">`)
	if err := s.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render reply: %w", err)
	}
	buf.WriteString(`</div>`)
	return buf.String(), nil
}
