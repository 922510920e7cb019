package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAnthropicGenerateJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "ak" || r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing anthropic headers")
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !strings.Contains(req.System, "JSON Schema") {
			t.Errorf("expected schema in system prompt")
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "raw" {
			t.Errorf("unexpected messages %+v", req.Messages)
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"{\"name\":"},{"type":"text","text":"\"Jane\"}"}]}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{APIKey: "ak", BaseURL: srv.URL}, nil)
	out, err := c.GenerateJSON(context.Background(), JSONRequest{System: "sys", User: "raw", Schema: map[string]any{"type": "object"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"name":"Jane"}` {
		t.Errorf("unexpected content %q", out)
	}
}

func TestAnthropicOverloaded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(529)
		w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{BaseURL: srv.URL}, nil)
	_, err := c.GenerateJSON(context.Background(), JSONRequest{})
	if !IsUnavailable(err) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestAnthropicEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{BaseURL: srv.URL}, nil)
	if _, err := c.GenerateJSON(context.Background(), JSONRequest{}); err == nil {
		t.Fatal("expected error for empty content")
	}
}
