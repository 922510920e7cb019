// Package config loads settings from the environment and an optional .env
// file. The resulting Config is passed explicitly to every constructor.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

type Config struct {
	Port string

	// Auth
	APIKey             string
	CORSAllowedOrigins []string

	// Output
	OutputDir            string
	RenderPDF            bool
	PDFFallbackPdftotext bool

	// Browser
	BrowserHeadless        bool
	BrowserExecutable      string
	LoginURL               string
	NavigationTimeout      time.Duration
	LoginFormTimeout       time.Duration
	ChallengeProbeDelay    time.Duration
	ChallengeProbeTimeout  time.Duration
	BodyTimeout            time.Duration
	PostLoginSettle        time.Duration
	ProfileSettle          time.Duration
	ExpandDelay            time.Duration
	ManualChallengeTimeout time.Duration

	// Model
	ModelProvider   string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	AnthropicModel  string
	GeminiAPIKey    string
	GeminiModel     string
	LLMTimeout      time.Duration
	LenientOptional bool

	// Worker pool
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration

	// S3 mirror
	S3Bucket           string
	S3Prefix           string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
}

// Load reads .env (if present) and then the process environment. Variables
// already set in the environment win over .env entries.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey:             os.Getenv("PROFILEX_API_KEY"),
		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		OutputDir:            envOr("OUTPUT_DIR", "output"),
		RenderPDF:            envBool("RENDER_PDF", false),
		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		BrowserHeadless:        envBool("BROWSER_HEADLESS", false),
		BrowserExecutable:      os.Getenv("BROWSER_EXECUTABLE"),
		LoginURL:               envOr("LINKEDIN_LOGIN_URL", "https://www.linkedin.com/login"),
		NavigationTimeout:      envDuration("NAVIGATION_TIMEOUT", 60*time.Second),
		LoginFormTimeout:       envDuration("LOGIN_FORM_TIMEOUT", 20*time.Second),
		ChallengeProbeDelay:    envDuration("CHALLENGE_PROBE_DELAY", 2*time.Second),
		ChallengeProbeTimeout:  envDuration("CHALLENGE_PROBE_TIMEOUT", 5*time.Second),
		BodyTimeout:            envDuration("BODY_TIMEOUT", 30*time.Second),
		PostLoginSettle:        envDuration("POST_LOGIN_SETTLE", 3*time.Second),
		ProfileSettle:          envDuration("PROFILE_SETTLE", 5*time.Second),
		ExpandDelay:            envDuration("EXPAND_DELAY", time.Second),
		ManualChallengeTimeout: envDuration("MANUAL_CHALLENGE_TIMEOUT", 10*time.Minute),

		ModelProvider:   strings.ToLower(envOr("MODEL_PROVIDER", ProviderOpenAI)),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     envOr("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:   envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     envOr("GEMINI_MODEL", "gemini-1.5-flash"),
		LLMTimeout:      envDuration("LLM_TIMEOUT", 120*time.Second),
		LenientOptional: envBool("LENIENT_OPTIONAL", true),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 20),
		JobTTL:       envDuration("JOB_TTL", 1*time.Hour),

		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3Prefix:           os.Getenv("S3_PREFIX"),
		AWSRegion:          os.Getenv("AWS_REGION"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 20
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 120 * time.Second
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 60 * time.Second
	}
	// Browser waits never fall through to "wait forever".
	if cfg.LoginFormTimeout <= 0 {
		cfg.LoginFormTimeout = 20 * time.Second
	}
	if cfg.ChallengeProbeTimeout <= 0 {
		cfg.ChallengeProbeTimeout = 5 * time.Second
	}
	if cfg.BodyTimeout <= 0 {
		cfg.BodyTimeout = 30 * time.Second
	}
	if cfg.ManualChallengeTimeout <= 0 {
		cfg.ManualChallengeTimeout = 10 * time.Minute
	}

	return cfg
}

// ModelAPIKey returns the key of the selected provider.
func (c Config) ModelAPIKey() string {
	switch c.ModelProvider {
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	default:
		return c.OpenAIAPIKey
	}
}

// ModelName returns the model of the selected provider.
func (c Config) ModelName() string {
	switch c.ModelProvider {
	case ProviderAnthropic:
		return c.AnthropicModel
	case ProviderGemini:
		return c.GeminiModel
	default:
		return c.OpenAIModel
	}
}

// ValidateModel checks what structuring needs.
func (c Config) ValidateModel() error {
	switch c.ModelProvider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("MODEL_PROVIDER %q is not one of openai, anthropic, gemini", c.ModelProvider)
	}
	if c.ModelAPIKey() == "" {
		return fmt.Errorf("%s_API_KEY is required", strings.ToUpper(c.ModelProvider))
	}
	return nil
}

// Validate checks what the HTTP server needs. Chat always runs on OpenAI
// tool calls, whichever provider structures.
func (c Config) Validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, errors.New("PROFILEX_API_KEY is required"))
	}
	if c.OpenAIAPIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required for chat"))
	}
	if err := c.ValidateModel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated value, dropping blanks.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
