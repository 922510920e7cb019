package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightDriver launches Chromium through playwright-go.
type PlaywrightDriver struct{}

func (PlaywrightDriver) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(opts.Headless)}
	if opts.ExecutablePath != "" {
		launch.ExecutablePath = playwright.String(opts.ExecutablePath)
	}
	b, err := pw.Chromium.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	page, err := b.NewPage()
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("new page: %w", err)
	}
	if opts.NavigationTimeout > 0 {
		ms := float64(opts.NavigationTimeout.Milliseconds())
		page.SetDefaultTimeout(ms)
		page.SetDefaultNavigationTimeout(ms)
	}
	return &playwrightSession{pw: pw, browser: b, page: page}, nil
}

// InstallChromium downloads the playwright driver and Chromium.
func InstallChromium() error {
	return playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}})
}

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

func (s *playwrightSession) Goto(url string) error {
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (s *playwrightSession) WaitFor(selector string, timeout time.Duration) error {
	err := s.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(waitMillis(timeout)),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %s", ErrWaitTimeout, selector)
	}
	return err
}

func (s *playwrightSession) Fill(selector, value string) error {
	return s.page.Locator(selector).First().Fill(value)
}

func (s *playwrightSession) Click(selector string) error {
	return s.page.Locator(selector).First().Click()
}

func (s *playwrightSession) QueryAll(selector string) ([]Element, error) {
	handles, err := s.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, len(handles))
	for i, h := range handles {
		out[i] = playwrightElement{h}
	}
	return out, nil
}

func (s *playwrightSession) Evaluate(script string) (any, error) {
	return s.page.Evaluate(script)
}

func (s *playwrightSession) Close() error {
	return errors.Join(s.page.Close(), s.browser.Close(), s.pw.Stop())
}

type playwrightElement struct {
	h playwright.ElementHandle
}

func (e playwrightElement) Activate() error {
	_, err := e.h.Evaluate("el => el.click()")
	return err
}

// waitMillis converts timeout for Playwright, where 0 disables the timeout.
// Anything shorter than a millisecond waits one millisecond.
func waitMillis(timeout time.Duration) float64 {
	return float64(max(timeout.Milliseconds(), 1))
}
