package browser

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeElement struct {
	err     error
	clicked *int
}

func (e fakeElement) Activate() error {
	if e.err != nil {
		return e.err
	}
	*e.clicked++
	return nil
}

type fakeSession struct {
	mu sync.Mutex

	present   map[string]bool // selectors WaitFor finds
	elements  map[string][]Element
	bodyText  string
	gotoErr   error
	blockGoto chan struct{} // if set, Goto of the profile blocks until Close

	visited []string
	filled  map[string]string
	closed  int
	closeCh chan struct{}
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		present:  map[string]bool{SelectorUsername: true, SelectorBody: true},
		elements: map[string][]Element{},
		bodyText: "Jane Doe\nEngineer",
		filled:   map[string]string{},
		closeCh:  make(chan struct{}),
	}
}

func (s *fakeSession) Goto(url string) error {
	s.mu.Lock()
	s.visited = append(s.visited, url)
	block := s.blockGoto != nil && strings.Contains(url, "/in/")
	s.mu.Unlock()
	if block {
		<-s.closeCh
		return errors.New("target closed")
	}
	return s.gotoErr
}

func (s *fakeSession) WaitFor(selector string, _ time.Duration) error {
	if s.present[selector] {
		return nil
	}
	return ErrWaitTimeout
}

func (s *fakeSession) Fill(selector, value string) error {
	s.filled[selector] = value
	return nil
}

func (s *fakeSession) Click(string) error { return nil }

func (s *fakeSession) QueryAll(selector string) ([]Element, error) {
	return s.elements[selector], nil
}

func (s *fakeSession) Evaluate(script string) (any, error) {
	if script == scriptBodyText {
		return s.bodyText, nil
	}
	return nil, nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	if s.closed == 1 {
		close(s.closeCh)
	}
	return nil
}

func (s *fakeSession) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeDriver struct {
	sess      *fakeSession
	launchErr error
	launches  int
}

func (d *fakeDriver) Launch(context.Context, LaunchOptions) (Session, error) {
	d.launches++
	if d.launchErr != nil {
		return nil, d.launchErr
	}
	return d.sess, nil
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.LoginFormTimeout = time.Millisecond
	opts.ChallengeProbeDelay = 0
	opts.ChallengeProbeTimeout = time.Millisecond
	opts.BodyTimeout = time.Millisecond
	opts.PostLoginSettle = 0
	opts.ProfileSettle = 0
	opts.ExpandDelay = 0
	return opts
}

func testEngine(d Driver) *Engine {
	return NewEngine(d, testOptions(), slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func validRequest() ExtractRequest {
	return ExtractRequest{
		ProfileURL:  "https://www.linkedin.com/in/jane-doe/",
		Credentials: Credentials{Email: "jane@example.com", Password: "secret"},
	}
}

func TestExtract_HappyPath(t *testing.T) {
	sess := newFakeSession()
	clicked := 0
	sess.elements[SelectorSeeMore] = []Element{
		fakeElement{clicked: &clicked},
		fakeElement{clicked: &clicked},
	}
	var states []State
	req := validRequest()
	req.Observe = func(s State) { states = append(states, s) }

	h, err := testEngine(&fakeDriver{sess: sess}).Extract(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Text != "Jane Doe\nEngineer" {
		t.Errorf("unexpected text %q", h.Text)
	}
	if h.SourceURL != "https://www.linkedin.com/in/jane-doe/" || h.ExtractedAt.IsZero() {
		t.Errorf("unexpected provenance %+v", h)
	}
	if clicked != 2 || h.Expanded != 2 {
		t.Errorf("expected 2 expansions, got clicked=%d expanded=%d", clicked, h.Expanded)
	}
	if sess.filled[SelectorUsername] != "jane@example.com" || sess.filled[SelectorPassword] != "secret" {
		t.Errorf("unexpected form fill %v", sess.filled)
	}
	if len(sess.visited) != 2 || sess.visited[0] != DefaultLoginURL {
		t.Errorf("unexpected navigation %v", sess.visited)
	}
	if sess.closeCount() != 1 {
		t.Errorf("expected session closed once, got %d", sess.closeCount())
	}

	want := []State{StateInit, StateLoggingIn, StateChallengeCheck, StateNavigating, StateExpanding, StateHarvesting, StateDone}
	if len(states) != len(want) {
		t.Fatalf("expected states %v, got %v", want, states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("state %d: expected %s, got %s", i, want[i], states[i])
		}
	}
}

func TestExtract_LoginFormMissing(t *testing.T) {
	sess := newFakeSession()
	delete(sess.present, SelectorUsername)

	h, err := testEngine(&fakeDriver{sess: sess}).Extract(context.Background(), validRequest())
	if !errors.Is(err, ErrLoginFormNotFound) {
		t.Fatalf("expected ErrLoginFormNotFound, got %v", err)
	}
	if StageOf(err) != StateLoggingIn {
		t.Errorf("expected failure at logging_in, got %q", StageOf(err))
	}
	if h.Text != "" {
		t.Errorf("expected no partial text, got %q", h.Text)
	}
	if sess.closeCount() != 1 {
		t.Errorf("expected browser released, close count %d", sess.closeCount())
	}
}

func TestExtract_ChallengeWithoutResolver(t *testing.T) {
	sess := newFakeSession()
	sess.present[SelectorChallenge] = true

	_, err := testEngine(&fakeDriver{sess: sess}).Extract(context.Background(), validRequest())
	if !errors.Is(err, ErrManualChallenge) {
		t.Fatalf("expected ErrManualChallenge, got %v", err)
	}
	if StageOf(err) != StateAwaitingManualChallenge {
		t.Errorf("expected awaiting_manual_challenge, got %q", StageOf(err))
	}
	if sess.closeCount() != 1 {
		t.Errorf("expected browser released, close count %d", sess.closeCount())
	}
}

func TestExtract_ChallengeResolved(t *testing.T) {
	sess := newFakeSession()
	sess.present[SelectorChallenge] = true
	resolved := false
	req := validRequest()
	req.Resolver = ResolverFunc(func(context.Context) error {
		resolved = true
		return nil
	})

	h, err := testEngine(&fakeDriver{sess: sess}).Extract(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resolved || h.Text == "" {
		t.Errorf("expected resolver to be called and text harvested")
	}
}

func TestExtract_NoChallengeIsNotAnError(t *testing.T) {
	sess := newFakeSession()
	if _, err := testEngine(&fakeDriver{sess: sess}).Extract(context.Background(), validRequest()); err != nil {
		t.Fatalf("expected probe timeout to mean no challenge, got %v", err)
	}
}

func TestExtract_ExpandFailuresAreSkipped(t *testing.T) {
	sess := newFakeSession()
	clicked := 0
	sess.elements[SelectorSeeMore] = []Element{
		fakeElement{clicked: &clicked},
		fakeElement{err: errors.New("detached"), clicked: &clicked},
		fakeElement{clicked: &clicked},
	}

	h, err := testEngine(&fakeDriver{sess: sess}).Extract(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clicked != 2 || h.Expanded != 2 {
		t.Errorf("expected 2 successful expansions, got clicked=%d expanded=%d", clicked, h.Expanded)
	}
}

func TestExtract_EmptyHarvest(t *testing.T) {
	sess := newFakeSession()
	sess.bodyText = "  \n "

	_, err := testEngine(&fakeDriver{sess: sess}).Extract(context.Background(), validRequest())
	if !errors.Is(err, ErrEmptyHarvest) || StageOf(err) != StateHarvesting {
		t.Fatalf("expected empty harvest failure at harvesting, got %v", err)
	}
}

func TestExtract_NavigationError(t *testing.T) {
	sess := newFakeSession()
	delete(sess.present, SelectorBody)

	_, err := testEngine(&fakeDriver{sess: sess}).Extract(context.Background(), validRequest())
	if StageOf(err) != StateNavigating {
		t.Fatalf("expected failure at navigating, got %v", err)
	}
	if sess.closeCount() != 1 {
		t.Errorf("expected browser released, close count %d", sess.closeCount())
	}
}

func TestExtract_CancellationReleasesSession(t *testing.T) {
	sess := newFakeSession()
	sess.blockGoto = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	req := validRequest()
	req.Observe = func(s State) {
		if s == StateNavigating {
			cancel()
		}
	}

	done := make(chan error, 1)
	go func() {
		_, err := testEngine(&fakeDriver{sess: sess}).Extract(ctx, req)
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if StageOf(err) != StateNavigating {
			t.Errorf("expected failure at navigating, got %q", StageOf(err))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("extract did not return after cancellation")
	}
	if sess.closeCount() != 1 {
		t.Errorf("expected exactly one close, got %d", sess.closeCount())
	}
}

func TestExtract_InvalidInputNeverLaunches(t *testing.T) {
	tests := []struct {
		name string
		req  ExtractRequest
		want error
	}{
		{"missing password", ExtractRequest{ProfileURL: "https://linkedin.com/in/x", Credentials: Credentials{Email: "a@b.c"}}, ErrMissingCredentials},
		{"bad url", ExtractRequest{ProfileURL: "https://example.com/in/x", Credentials: Credentials{Email: "a@b.c", Password: "p"}}, ErrInvalidProfileURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDriver{sess: newFakeSession()}
			_, err := testEngine(d).Extract(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if d.launches != 0 {
				t.Errorf("expected no browser launch, got %d", d.launches)
			}
		})
	}
}

func TestExtract_LaunchFailure(t *testing.T) {
	d := &fakeDriver{launchErr: errors.New("no chromium")}
	_, err := testEngine(d).Extract(context.Background(), validRequest())
	if StageOf(err) != StateInit {
		t.Fatalf("expected failure at init, got %v", err)
	}
}

func TestNewEngine_ZeroTimeoutsFallBackToDefaults(t *testing.T) {
	opts := testOptions()
	opts.NavigationTimeout = 0
	opts.LoginFormTimeout = 0
	opts.ChallengeProbeTimeout = -time.Second
	opts.BodyTimeout = 0

	e := NewEngine(&fakeDriver{}, opts, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	def := DefaultOptions()
	if e.opts.NavigationTimeout != def.NavigationTimeout ||
		e.opts.LoginFormTimeout != def.LoginFormTimeout ||
		e.opts.ChallengeProbeTimeout != def.ChallengeProbeTimeout ||
		e.opts.BodyTimeout != def.BodyTimeout {
		t.Errorf("unexpected waits %+v", e.opts)
	}
	if e.opts.ExpandDelay != 0 {
		t.Errorf("delays are not clamped, got %s", e.opts.ExpandDelay)
	}
}

func TestWaitMillis(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want float64
	}{
		{0, 1},
		{-time.Second, 1},
		{500 * time.Microsecond, 1},
		{1500 * time.Millisecond, 1500},
	}
	for _, tt := range tests {
		if got := waitMillis(tt.in); got != tt.want {
			t.Errorf("waitMillis(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
