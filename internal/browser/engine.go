package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Engine runs extractions. It holds no per-run state and is safe for
// concurrent use; each Extract launches and terminates its own browser.
type Engine struct {
	driver Driver
	opts   Options
	log    *slog.Logger
	now    func() time.Time
}

func NewEngine(driver Driver, opts Options, log *slog.Logger) *Engine {
	def := DefaultOptions()
	if opts.LoginURL == "" {
		opts.LoginURL = def.LoginURL
	}
	if len(opts.ExpandSelectors) == 0 {
		opts.ExpandSelectors = def.ExpandSelectors
	}
	// Playwright treats a zero timeout as no timeout.
	for _, w := range []struct {
		got *time.Duration
		def time.Duration
	}{
		{&opts.NavigationTimeout, def.NavigationTimeout},
		{&opts.LoginFormTimeout, def.LoginFormTimeout},
		{&opts.ChallengeProbeTimeout, def.ChallengeProbeTimeout},
		{&opts.BodyTimeout, def.BodyTimeout},
	} {
		if *w.got <= 0 {
			*w.got = w.def
		}
	}
	return &Engine{driver: driver, opts: opts, log: log, now: time.Now}
}

// ExtractRequest is one run's input.
type ExtractRequest struct {
	ProfileURL  string
	Credentials Credentials
	// Resolver handles a detected challenge. With no resolver the run stops
	// at StateAwaitingManualChallenge.
	Resolver ChallengeResolver
	// Observe, if set, is called on every state entry.
	Observe func(State)
}

// Extract runs Init through Done. Any failure is an *ExtractionError and
// no text is returned with it. The browser is closed on every path,
// including context cancellation.
func (e *Engine) Extract(ctx context.Context, req ExtractRequest) (h Harvest, err error) {
	stage := StateInit
	observe := func(s State) {
		stage = s
		if req.Observe != nil {
			req.Observe(s)
		}
	}
	log := e.log.With("profile_url", req.ProfileURL)

	defer func() {
		if r := recover(); r != nil {
			err = &ExtractionError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
			h = Harvest{}
		}
	}()

	observe(StateInit)
	if err := ValidateCredentials(req.Credentials); err != nil {
		return Harvest{}, &ExtractionError{Stage: stage, Err: err}
	}
	profileURL, err := ValidateProfileURL(req.ProfileURL)
	if err != nil {
		return Harvest{}, &ExtractionError{Stage: stage, Err: err}
	}

	sess, err := e.driver.Launch(ctx, LaunchOptions{
		Headless:          e.opts.Headless,
		ExecutablePath:    e.opts.ExecutablePath,
		NavigationTimeout: e.opts.NavigationTimeout,
	})
	if err != nil {
		return Harvest{}, &ExtractionError{Stage: stage, Err: fmt.Errorf("launch browser: %w", err)}
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			if cerr := sess.Close(); cerr != nil {
				log.Warn("browser.close_failed", "error", cerr)
			}
		})
	}
	defer release()
	stopRelease := context.AfterFunc(ctx, release)
	defer stopRelease()

	fail := func(err error) (Harvest, error) {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w (%v)", ctxErr, err)
		}
		log.Error("browser.extract_failed", "stage", stage, "error", err)
		return Harvest{}, &ExtractionError{Stage: stage, Err: err}
	}

	observe(StateLoggingIn)
	log.Info("browser.login")
	if err := e.login(sess, req.Credentials); err != nil {
		return fail(err)
	}

	observe(StateChallengeCheck)
	challenged, err := e.probeChallenge(ctx, sess)
	if err != nil {
		return fail(err)
	}
	if challenged {
		observe(StateAwaitingManualChallenge)
		log.Warn("browser.challenge_detected", "resolver", req.Resolver != nil)
		if req.Resolver == nil {
			return fail(ErrManualChallenge)
		}
		if err := req.Resolver.AwaitChallenge(ctx); err != nil {
			return fail(fmt.Errorf("await challenge: %w", err))
		}
		log.Info("browser.challenge_resolved")
	}

	observe(StateNavigating)
	if err := e.navigate(ctx, sess, profileURL); err != nil {
		return fail(err)
	}

	observe(StateExpanding)
	expanded, err := e.expand(ctx, sess, log)
	if err != nil {
		return fail(err)
	}

	observe(StateHarvesting)
	text, err := harvest(sess)
	if err != nil {
		return fail(err)
	}
	if ctx.Err() != nil {
		return fail(ctx.Err())
	}

	observe(StateDone)
	log.Info("browser.harvested", "bytes", len(text), "expanded", expanded)
	return Harvest{
		Text:        text,
		SourceURL:   profileURL,
		ExtractedAt: e.now().UTC(),
		Expanded:    expanded,
	}, nil
}

func (e *Engine) login(sess Session, creds Credentials) error {
	if err := sess.Goto(e.opts.LoginURL); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	if err := sess.WaitFor(SelectorUsername, e.opts.LoginFormTimeout); err != nil {
		if errors.Is(err, ErrWaitTimeout) {
			return fmt.Errorf("%w: %s not present after %s", ErrLoginFormNotFound, SelectorUsername, e.opts.LoginFormTimeout)
		}
		return fmt.Errorf("wait for login form: %w", err)
	}
	if err := sess.Fill(SelectorUsername, creds.Email); err != nil {
		return fmt.Errorf("fill username: %w", err)
	}
	if err := sess.Fill(SelectorPassword, creds.Password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}
	if err := sess.Click(SelectorSubmit); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}
	return nil
}

// probeChallenge treats a probe timeout as "no challenge".
func (e *Engine) probeChallenge(ctx context.Context, sess Session) (bool, error) {
	if err := pause(ctx, e.opts.ChallengeProbeDelay); err != nil {
		return false, err
	}
	err := sess.WaitFor(SelectorChallenge, e.opts.ChallengeProbeTimeout)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrWaitTimeout):
		return false, nil
	default:
		return false, fmt.Errorf("probe challenge: %w", err)
	}
}

func (e *Engine) navigate(ctx context.Context, sess Session, profileURL string) error {
	if err := sess.WaitFor(SelectorBody, e.opts.BodyTimeout); err != nil {
		return fmt.Errorf("wait for body: %w", err)
	}
	if err := pause(ctx, e.opts.PostLoginSettle); err != nil {
		return err
	}
	if err := sess.Goto(profileURL); err != nil {
		return fmt.Errorf("open profile: %w", err)
	}
	return pause(ctx, e.opts.ProfileSettle)
}

// expand activates every "see more" element. A failed activation is
// logged and skipped.
func (e *Engine) expand(ctx context.Context, sess Session, log *slog.Logger) (int, error) {
	expanded := 0
	for _, sel := range e.opts.ExpandSelectors {
		elems, err := sess.QueryAll(sel)
		if err != nil {
			if ctx.Err() != nil {
				return expanded, ctx.Err()
			}
			log.Warn("browser.expand_query_failed", "selector", sel, "error", err)
			continue
		}
		for i, el := range elems {
			if ctx.Err() != nil {
				return expanded, ctx.Err()
			}
			if err := el.Activate(); err != nil {
				log.Warn("browser.expand_failed", "selector", sel, "index", i, "error", err)
				continue
			}
			expanded++
			if err := pause(ctx, e.opts.ExpandDelay); err != nil {
				return expanded, err
			}
		}
	}
	return expanded, nil
}

const (
	scriptClearSelection = `() => window.getSelection().removeAllRanges()`
	scriptSelectBody     = `() => { const range = document.createRange(); range.selectNode(document.body); window.getSelection().addRange(range); }`
	scriptBodyText       = `() => document.body.innerText`
)

func harvest(sess Session) (string, error) {
	if _, err := sess.Evaluate(scriptClearSelection); err != nil {
		return "", fmt.Errorf("clear selection: %w", err)
	}
	if _, err := sess.Evaluate(scriptSelectBody); err != nil {
		return "", fmt.Errorf("select body: %w", err)
	}
	v, err := sess.Evaluate(scriptBodyText)
	if err != nil {
		return "", fmt.Errorf("read body text: %w", err)
	}
	text, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("read body text: got %T", v)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyHarvest
	}
	return text, nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
