package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/dgallion1/profilex/internal/browser"
	"github.com/dgallion1/profilex/internal/llm"
	"github.com/dgallion1/profilex/internal/pipeline"
	"github.com/dgallion1/profilex/internal/profile"
)

const validArgs = `{"email":"jane@example.com","password":"hunter2","profile_url":"https://www.linkedin.com/in/jane/"}`

func testLogger() *slog.Logger { return slog.New(slog.NewJSONHandler(io.Discard, nil)) }

type fakeRunner struct {
	res  *pipeline.Result
	reqs []pipeline.Request
}

func (f *fakeRunner) ExtractAndRender(ctx context.Context, req pipeline.Request) *pipeline.Result {
	f.reqs = append(f.reqs, req)
	return f.res
}

type fakeModel struct {
	replies []llm.Message
	err     error
	calls   [][]llm.Message
}

func (f *fakeModel) Chat(ctx context.Context, messages []llm.Message, tools []llm.Tool) (llm.Message, error) {
	f.calls = append(f.calls, append([]llm.Message(nil), messages...))
	if f.err != nil {
		return llm.Message{}, f.err
	}
	m := f.replies[0]
	f.replies = f.replies[1:]
	return m, nil
}

func janeProfile() *profile.Profile {
	return &profile.Profile{
		Name:       "Jane Doe",
		Headline:   "Engineer",
		Location:   "NYC",
		About:      "Hi",
		Experience: []profile.Experience{},
		Education:  []profile.Education{},
		Skills:     []string{"Go"},
	}
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", validArgs, false},
		{"missing url", `{"email":"a","password":"b"}`, true},
		{"extra field", `{"email":"a","password":"b","profile_url":"c","remember":true}`, true},
		{"wrong type", `{"email":"a","password":1,"profile_url":"c"}`, true},
		{"not json", `email=a`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseArgs([]byte(tt.raw))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgs) {
					t.Fatalf("expected ErrInvalidArgs, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if a.Email != "jane@example.com" || a.Password != "hunter2" || a.ProfileURL != "https://www.linkedin.com/in/jane/" {
				t.Errorf("args = %#v", a)
			}
		})
	}
}

func TestArgsStringRedactsPassword(t *testing.T) {
	a := Args{Email: "jane@example.com", Password: "hunter2"}
	for _, s := range []string{a.String(), a.GoString()} {
		if strings.Contains(s, "hunter2") {
			t.Errorf("password leaked: %s", s)
		}
	}
}

func TestDefinition(t *testing.T) {
	d := Definition()
	if d.Function.Name != ToolName || !d.Function.Strict {
		t.Errorf("definition = %+v", d.Function)
	}
	if d.Function.Parameters["additionalProperties"] != false {
		t.Error("undeclared fields must be rejected")
	}
}

func TestExecutor_Execute(t *testing.T) {
	tests := []struct {
		name        string
		call        llm.ToolCall
		res         *pipeline.Result
		wantSuccess bool
		wantData    bool
		wantErrSub  string
		wantRuns    int
	}{
		{
			name:        "success",
			call:        llm.ToolCall{ID: "1", Function: llm.FunctionCall{Name: ToolName, Arguments: validArgs}},
			res:         &pipeline.Result{Outcome: pipeline.FullSuccess, Profile: janeProfile()},
			wantSuccess: true,
			wantData:    true,
			wantRuns:    1,
		},
		{
			name:       "unknown tool",
			call:       llm.ToolCall{ID: "2", Function: llm.FunctionCall{Name: "delete_account", Arguments: "{}"}},
			wantErrSub: "unknown tool",
		},
		{
			name:       "bad args",
			call:       llm.ToolCall{ID: "3", Function: llm.FunctionCall{Name: ToolName, Arguments: `{"email":"a"}`}},
			wantErrSub: "invalid tool arguments",
		},
		{
			name: "failure redacts credentials",
			call: llm.ToolCall{ID: "4", Function: llm.FunctionCall{Name: ToolName, Arguments: validArgs}},
			res: &pipeline.Result{Outcome: pipeline.Failure, Stage: "logging_in",
				Err: errors.New("login as jane@example.com with hunter2 refused")},
			wantErrSub: "[redacted]",
			wantRuns:   1,
		},
		{
			name: "partial keeps success",
			call: llm.ToolCall{ID: "5", Function: llm.FunctionCall{Name: ToolName, Arguments: validArgs}},
			res: &pipeline.Result{Outcome: pipeline.PartialSuccess, Stage: pipeline.StageStructuring,
				RawPath: "output/raw_profile.txt", Err: errors.New("model unavailable")},
			wantSuccess: true,
			wantErrSub:  "output/raw_profile.txt",
			wantRuns:    1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := &fakeRunner{res: tt.res}
			got := NewExecutor(run, testLogger()).Execute(context.Background(), tt.call)

			if got.Success != tt.wantSuccess {
				t.Errorf("success = %v", got.Success)
			}
			if (got.Data != nil) != tt.wantData {
				t.Errorf("data = %v", got.Data)
			}
			if tt.wantErrSub != "" {
				if got.Error == nil || !strings.Contains(*got.Error, tt.wantErrSub) {
					t.Errorf("error = %v, want substring %q", got.Error, tt.wantErrSub)
				}
				if got.Error != nil && (strings.Contains(*got.Error, "hunter2") || strings.Contains(*got.Error, "jane@example.com")) {
					t.Errorf("credentials leaked: %s", *got.Error)
				}
			} else if got.Error != nil {
				t.Errorf("unexpected error %q", *got.Error)
			}
			if len(run.reqs) != tt.wantRuns {
				t.Fatalf("runs = %d, want %d", len(run.reqs), tt.wantRuns)
			}
			if tt.wantRuns == 1 {
				want := browser.Credentials{Email: "jane@example.com", Password: "hunter2"}
				if run.reqs[0].Credentials != want {
					t.Errorf("credentials not passed through")
				}
			}
		})
	}
}

func TestToolResultJSONShape(t *testing.T) {
	b, err := json.Marshal(failed("boom"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"success":false,"data":null,"error":"boom"}` {
		t.Errorf("got %s", b)
	}
}

func TestChat_NoToolCall(t *testing.T) {
	model := &fakeModel{replies: []llm.Message{{Role: "assistant", Content: "Hello **there**"}}}
	svc := NewService(model, NewExecutor(&fakeRunner{}, testLogger()), testLogger())

	resp, err := svc.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Message.Content != "Hello **there**" || resp.RequiresTool || resp.ProfileData != nil {
		t.Errorf("response = %+v", resp)
	}
	if !strings.Contains(resp.HTML, "<strong>there</strong>") {
		t.Errorf("html = %s", resp.HTML)
	}
	if len(model.calls) != 1 {
		t.Fatalf("calls = %d", len(model.calls))
	}
	if model.calls[0][0].Role != "system" || model.calls[0][0].Content != SystemPrompt {
		t.Error("system prompt should lead the conversation")
	}
}

func TestChat_ToolCallRoundTrip(t *testing.T) {
	call := llm.ToolCall{ID: "call_1", Type: "function", Function: llm.FunctionCall{Name: ToolName, Arguments: validArgs}}
	model := &fakeModel{replies: []llm.Message{
		{Role: "assistant", ToolCalls: []llm.ToolCall{call}},
		{Role: "assistant", Content: "Done. Jane Doe is an Engineer."},
	}}
	run := &fakeRunner{res: &pipeline.Result{Outcome: pipeline.FullSuccess, Profile: janeProfile()}}
	svc := NewService(model, NewExecutor(run, testLogger()), testLogger())

	resp, err := svc.Chat(context.Background(), []llm.Message{{Role: "user", Content: "extract me"}})
	if err != nil {
		t.Fatal(err)
	}
	if resp.ProfileData == nil || resp.ProfileData.Name != "Jane Doe" {
		t.Errorf("profile data = %+v", resp.ProfileData)
	}
	if len(model.calls) != 2 {
		t.Fatalf("calls = %d", len(model.calls))
	}
	second := model.calls[1]
	last := second[len(second)-1]
	if last.Role != "tool" || last.ToolCallID != "call_1" {
		t.Fatalf("last message = %+v", last)
	}
	var tr ToolResult
	if err := json.Unmarshal([]byte(last.Content), &tr); err != nil {
		t.Fatal(err)
	}
	if !tr.Success || tr.Data == nil {
		t.Errorf("tool message = %s", last.Content)
	}
	if len(second[len(second)-2].ToolCalls) != 1 {
		t.Error("assistant tool call message should precede the tool result")
	}
}

func TestChat_ToolFailure(t *testing.T) {
	call := llm.ToolCall{ID: "c", Function: llm.FunctionCall{Name: ToolName, Arguments: validArgs}}
	model := &fakeModel{replies: []llm.Message{{Role: "assistant", ToolCalls: []llm.ToolCall{call}}}}
	run := &fakeRunner{res: &pipeline.Result{Outcome: pipeline.Failure, Stage: "awaiting_manual_challenge", Err: browser.ErrManualChallenge}}
	svc := NewService(model, NewExecutor(run, testLogger()), testLogger())

	_, err := svc.Chat(context.Background(), []llm.Message{{Role: "user", Content: "go"}})
	var te *ToolError
	if !errors.As(err, &te) {
		t.Fatalf("expected ToolError, got %v", err)
	}
	if len(model.calls) != 1 {
		t.Errorf("no second completion expected, got %d calls", len(model.calls))
	}
}

func TestChat_ModelErrorPassesThrough(t *testing.T) {
	model := &fakeModel{err: &llm.ModelError{Provider: "openai", Kind: llm.KindRateLimit, StatusCode: 429}}
	svc := NewService(model, NewExecutor(&fakeRunner{}, testLogger()), testLogger())

	_, err := svc.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	if !llm.IsRateLimit(err) {
		t.Errorf("expected rate limit, got %v", err)
	}
}

func TestChat_InvalidInput(t *testing.T) {
	svc := NewService(&fakeModel{}, NewExecutor(&fakeRunner{}, testLogger()), testLogger())
	if _, err := svc.Chat(context.Background(), nil); !errors.Is(err, ErrEmptyConversation) {
		t.Errorf("empty: %v", err)
	}
	if _, err := svc.Chat(context.Background(), []llm.Message{{Role: "root", Content: "x"}}); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("bad role: %v", err)
	}
}

func TestRenderHTML_DropsRawHTML(t *testing.T) {
	svc := NewService(&fakeModel{}, nil, testLogger())
	out, err := svc.RenderHTML("### Profile\n<script>alert(1)</script>\n\n- Go\n")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("raw html kept: %s", out)
	}
	if !strings.Contains(out, "<h3>Profile</h3>") || !strings.Contains(out, "<li>Go</li>") {
		t.Errorf("html = %s", out)
	}
}

func TestRedact(t *testing.T) {
	got := Redact("user a@b.c pw s3cret", "a@b.c", "s3cret", "")
	if got != "user [redacted] pw [redacted]" {
		t.Errorf("got %q", got)
	}
}
