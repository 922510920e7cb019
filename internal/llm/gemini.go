package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const providerGemini = "gemini"

type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

// GeminiClient structures text through the Gemini generative API.
type GeminiClient struct {
	client *genai.Client
	cfg    GeminiConfig
	stats  *CallStats
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig, stats *CallStats) (*GeminiClient, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiClient{client: cl, cfg: cfg, stats: stats}, nil
}

func (g *GeminiClient) Provider() string { return providerGemini }
func (g *GeminiClient) Model() string    { return g.cfg.Model }

func (g *GeminiClient) GenerateJSON(ctx context.Context, req JSONRequest) (out string, err error) {
	start := time.Now()
	defer func() { g.stats.Observe("structure", time.Since(start), err) }()

	m := g.client.GenerativeModel(g.cfg.Model)
	m.SetTemperature(g.cfg.Temperature)
	m.ResponseMIMEType = "application/json"
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(req.System + "\n\nReturn ONLY JSON that matches this JSON Schema:\n" + mustJSON(req.Schema))},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(req.User))
	if err != nil {
		return "", classifyGemini(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from gemini")
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// classifyGemini maps REST and gRPC failures onto ModelError kinds.
func classifyGemini(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		me := statusError(providerGemini, gerr.Code, gerr.Header, []byte(gerr.Message))
		me.Err = err
		return me
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &ModelError{Provider: providerGemini, Kind: KindRequest, Message: blocked.Error(), Err: err}
	}

	if st, ok := status.FromError(err); ok {
		kind := KindRequest
		switch st.Code() {
		case codes.ResourceExhausted:
			kind = KindRateLimit
		case codes.Unavailable, codes.NotFound, codes.Internal:
			kind = KindUnavailable
		case codes.DeadlineExceeded:
			kind = KindConnection
		}
		return &ModelError{Provider: providerGemini, Kind: kind, Message: st.Message(), Err: err}
	}

	return transportError(providerGemini, err)
}

func (g *GeminiClient) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
