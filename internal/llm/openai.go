package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const providerOpenAI = "openai"

type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	Timeout     time.Duration
}

// OpenAIClient talks to the chat/completions endpoint.
type OpenAIClient struct {
	cfg        OpenAIConfig
	httpClient *http.Client
	stats      *CallStats
}

func NewOpenAIClient(cfg OpenAIConfig, stats *CallStats) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &OpenAIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		stats:      stats,
	}
}

func (c *OpenAIClient) Provider() string { return providerOpenAI }
func (c *OpenAIClient) Model() string    { return c.cfg.Model }

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// GenerateJSON requests a json_schema response. strict is off because
// optional profile fields are nullable rather than required.
func (c *OpenAIClient) GenerateJSON(ctx context.Context, req JSONRequest) (out string, err error) {
	start := time.Now()
	defer func() { c.stats.Observe("structure", time.Since(start), err) }()

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   req.SchemaName,
				"schema": req.Schema,
				"strict": false,
			},
		},
		"messages": []Message{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
	}

	msg, err := c.complete(ctx, body)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(msg.Content), nil
}

// Chat runs one completion with tools offered to the model.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message, tools []Tool) (msg Message, err error) {
	start := time.Now()
	defer func() { c.stats.Observe("chat", time.Since(start), err) }()

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages":    messages,
	}
	if len(tools) > 0 {
		body["tools"] = tools
		body["tool_choice"] = "auto"
	}
	return c.complete(ctx, body)
}

func (c *OpenAIClient) complete(ctx context.Context, body map[string]any) (Message, error) {
	raw, err := c.post(ctx, "/chat/completions", body)
	if err != nil {
		return Message{}, err
	}

	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		return Message{}, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return Message{}, fmt.Errorf("no choices in openai response")
	}
	return cc.Choices[0].Message, nil
}

func (c *OpenAIClient) post(ctx context.Context, path string, body any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(providerOpenAI, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, transportError(providerOpenAI, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(providerOpenAI, resp.StatusCode, resp.Header, respBody)
	}
	return respBody, nil
}

// Close releases idle connections.
func (c *OpenAIClient) Close() {
	c.httpClient.CloseIdleConnections()
}
