package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgallion1/profilex/internal/browser"
	"github.com/dgallion1/profilex/internal/config"
	"github.com/dgallion1/profilex/internal/llm"
	"github.com/dgallion1/profilex/internal/pipeline"
	"github.com/dgallion1/profilex/internal/render"
	"github.com/dgallion1/profilex/internal/store"
	"github.com/dgallion1/profilex/internal/structure"
)

// app holds what every command wires from Config.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	stats   *llm.CallStats
	closers []func()
}

// newApp logs to stderr so command output on stdout stays clean.
func newApp() *app {
	cfg := config.Load()
	if flagOutputDir != "" {
		cfg.OutputDir = flagOutputDir
	}
	return &app{
		cfg:   cfg,
		log:   slog.New(slog.NewJSONHandler(os.Stderr, nil)),
		stats: llm.NewCallStats(time.Hour),
	}
}

func newStdoutLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// generator builds the structuring client for the configured provider.
func (a *app) generator(ctx context.Context) (llm.JSONGenerator, error) {
	if err := a.cfg.ValidateModel(); err != nil {
		return nil, err
	}
	switch a.cfg.ModelProvider {
	case config.ProviderAnthropic:
		c := llm.NewAnthropicClient(llm.AnthropicConfig{
			APIKey:  a.cfg.AnthropicAPIKey,
			Model:   a.cfg.AnthropicModel,
			Timeout: a.cfg.LLMTimeout,
		}, a.stats)
		a.closers = append(a.closers, c.Close)
		return c, nil
	case config.ProviderGemini:
		c, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey: a.cfg.GeminiAPIKey,
			Model:  a.cfg.GeminiModel,
		}, a.stats)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = c.Close() })
		return c, nil
	default:
		return a.openAI(), nil
	}
}

func (a *app) openAI() *llm.OpenAIClient {
	c := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:  a.cfg.OpenAIAPIKey,
		Model:   a.cfg.OpenAIModel,
		BaseURL: a.cfg.OpenAIBaseURL,
		Timeout: a.cfg.LLMTimeout,
	}, a.stats)
	a.closers = append(a.closers, c.Close)
	return c
}

func (a *app) browserOptions() browser.Options {
	opts := browser.DefaultOptions()
	opts.Headless = a.cfg.BrowserHeadless
	opts.ExecutablePath = a.cfg.BrowserExecutable
	opts.LoginURL = a.cfg.LoginURL
	opts.NavigationTimeout = a.cfg.NavigationTimeout
	opts.LoginFormTimeout = a.cfg.LoginFormTimeout
	opts.ChallengeProbeDelay = a.cfg.ChallengeProbeDelay
	opts.ChallengeProbeTimeout = a.cfg.ChallengeProbeTimeout
	opts.BodyTimeout = a.cfg.BodyTimeout
	opts.PostLoginSettle = a.cfg.PostLoginSettle
	opts.ProfileSettle = a.cfg.ProfileSettle
	opts.ExpandDelay = a.cfg.ExpandDelay
	return opts
}

// orchestrator wires extraction, structuring and the optional mirror. With
// structuring off no model client is built.
func (a *app) orchestrator(ctx context.Context, caps pipeline.Capabilities) (*pipeline.Orchestrator, error) {
	var st pipeline.Structurer
	if caps.Structure {
		gen, err := a.generator(ctx)
		if err != nil {
			return nil, fmt.Errorf("structuring: %w", err)
		}
		st = structure.New(gen, structure.Options{LenientOptional: a.cfg.LenientOptional}, a.log)
	}

	engine := browser.NewEngine(browser.PlaywrightDriver{}, a.browserOptions(), a.log)
	orch := pipeline.NewOrchestrator(engine, st, pipeline.Options{
		OutputDir:    a.cfg.OutputDir,
		Formats:      render.DefaultFormats(a.cfg.RenderPDF),
		Capabilities: caps,
	}, a.log)

	if a.cfg.S3Bucket != "" {
		m, err := store.NewS3Mirror(ctx, store.S3Config{
			Bucket:          a.cfg.S3Bucket,
			Prefix:          a.cfg.S3Prefix,
			Region:          a.cfg.AWSRegion,
			AccessKeyID:     a.cfg.AWSAccessKeyID,
			SecretAccessKey: a.cfg.AWSSecretAccessKey,
		}, a.log)
		if err != nil {
			return nil, fmt.Errorf("s3 mirror: %w", err)
		}
		orch.SetMirror(m)
	}
	return orch, nil
}

// report prints a run result and turns a Failure into an error.
func report(res *pipeline.Result) error {
	fmt.Printf("run %s: %s\n", res.RunID, res.Outcome)
	if res.RawPath != "" {
		fmt.Printf("  raw:        %s\n", res.RawPath)
	}
	if res.ProvenancePath != "" {
		fmt.Printf("  provenance: %s\n", res.ProvenancePath)
	}
	for _, f := range res.Artifacts.Files() {
		fmt.Printf("  artifact:   %s\n", f)
	}
	for _, f := range res.FailedFormats() {
		fmt.Printf("  failed:     %s: %v\n", f, res.RenderErrors[f])
	}
	switch res.Outcome {
	case pipeline.Failure:
		return fmt.Errorf("failed at %s: %w", res.Stage, res.Err)
	case pipeline.PartialSuccess:
		fmt.Printf("  stopped at %s: %v\n", res.Stage, res.Err)
	}
	return nil
}
