package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dgallion1/profilex/internal/browser"
	"github.com/dgallion1/profilex/internal/llm"
	"github.com/dgallion1/profilex/internal/pipeline"
	"github.com/dgallion1/profilex/internal/profile"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ToolName is the one tool the assistant may call.
const ToolName = "linkedin_highlight_and_extract"

const toolDescription = "Extract a LinkedIn profile and convert it to Markdown, HTML and DOCX. " +
	"Call this when the user wants their LinkedIn profile extracted."

// ErrInvalidArgs wraps every argument problem: malformed JSON, a missing
// field, or a field the schema does not declare.
var ErrInvalidArgs = errors.New("invalid tool arguments")

func argsSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"email": map[string]any{
				"type":        "string",
				"description": "LinkedIn login email or username",
			},
			"password": map[string]any{
				"type":        "string",
				"description": "LinkedIn password. Used for this run only and never stored.",
			},
			"profile_url": map[string]any{
				"type":        "string",
				"description": "Full URL of the profile, e.g. https://www.linkedin.com/in/username",
			},
		},
		"required":             []any{"email", "password", "profile_url"},
		"additionalProperties": false,
	}
}

// Definition returns the tool as sent to the model.
func Definition() llm.Tool {
	return llm.Tool{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        ToolName,
			Description: toolDescription,
			Parameters:  argsSchema(),
			Strict:      true,
		},
	}
}

// Args are the tool's three named arguments.
type Args struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	ProfileURL string `json:"profile_url"`
}

func (a Args) String() string {
	return fmt.Sprintf("{email:%s password:[redacted] profile_url:%s}", a.Email, a.ProfileURL)
}

func (a Args) GoString() string { return a.String() }

func (a Args) credentials() browser.Credentials {
	return browser.Credentials{Email: a.Email, Password: a.Password}
}

var (
	argsOnce       sync.Once
	compiledArgs   *jsonschema.Schema
	compileArgsErr error
)

// ParseArgs validates raw JSON arguments strictly before decoding them.
func ParseArgs(raw []byte) (Args, error) {
	argsOnce.Do(func() {
		compiledArgs, compileArgsErr = profile.CompileSchema("tool_args.json", argsSchema())
	})
	if compileArgsErr != nil {
		return Args{}, compileArgsErr
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Args{}, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	if err := compiledArgs.Validate(v); err != nil {
		return Args{}, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	var a Args
	if err := json.Unmarshal(raw, &a); err != nil {
		return Args{}, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	return a, nil
}

// ToolResult is the tool's answer: {success, data, error}. Data and Error
// serialize as null when absent.
type ToolResult struct {
	Success bool             `json:"success"`
	Data    *profile.Profile `json:"data"`
	Error   *string          `json:"error"`
}

func failed(msg string) ToolResult {
	return ToolResult{Error: &msg}
}

// Runner is the pipeline entry point the tool drives.
type Runner interface {
	ExtractAndRender(ctx context.Context, req pipeline.Request) *pipeline.Result
}

// Executor runs tool calls against the pipeline.
type Executor struct {
	run Runner
	log *slog.Logger
}

func NewExecutor(run Runner, log *slog.Logger) *Executor {
	return &Executor{run: run, log: log}
}

// Execute dispatches one model tool call. Unknown tools and bad arguments
// become failed results rather than errors.
func (e *Executor) Execute(ctx context.Context, call llm.ToolCall) ToolResult {
	if call.Function.Name != ToolName {
		return failed(fmt.Sprintf("unknown tool: %s", call.Function.Name))
	}
	args, err := ParseArgs([]byte(call.Function.Arguments))
	if err != nil {
		return failed(err.Error())
	}
	return e.Invoke(ctx, args)
}

// Invoke runs the pipeline with already-parsed arguments. A run that kept
// raw text but could not structure or render everything is still a
// success; its error explains what is missing.
func (e *Executor) Invoke(ctx context.Context, args Args) ToolResult {
	res := e.run.ExtractAndRender(ctx, pipeline.Request{
		ProfileURL:  args.ProfileURL,
		Credentials: args.credentials(),
	})
	e.log.Info("tool.invoked", "tool", ToolName, "run_id", res.RunID,
		"outcome", res.Outcome, "stage", res.Stage)

	out := ToolResult{Success: res.Outcome != pipeline.Failure, Data: res.Profile}
	if res.Err != nil {
		msg := Redact(describe(res), args.Email, args.Password)
		out.Error = &msg
	}
	return out
}

func describe(res *pipeline.Result) string {
	switch res.Outcome {
	case pipeline.PartialSuccess:
		return fmt.Sprintf("partial result (stopped at %s, raw text saved to %s): %v", res.Stage, res.RawPath, res.Err)
	default:
		return fmt.Sprintf("extraction failed at %s: %v", res.Stage, res.Err)
	}
}

// Redact replaces every occurrence of the given secrets in msg.
func Redact(msg string, secrets ...string) string {
	for _, s := range secrets {
		if s == "" {
			continue
		}
		msg = strings.ReplaceAll(msg, s, "[redacted]")
	}
	return msg
}
