package browser

import (
	"context"
	"time"
)

// LaunchOptions configure one browser process.
type LaunchOptions struct {
	Headless          bool
	ExecutablePath    string
	NavigationTimeout time.Duration
}

// Driver starts browser sessions. Each Launch owns one browser process.
type Driver interface {
	Launch(ctx context.Context, opts LaunchOptions) (Session, error)
}

// Session is one page in one browser. Close must be safe to call while
// another method is blocked; it unblocks that call.
type Session interface {
	Goto(url string) error
	// WaitFor blocks until selector is attached or returns ErrWaitTimeout.
	WaitFor(selector string, timeout time.Duration) error
	Fill(selector, value string) error
	Click(selector string) error
	// QueryAll snapshots the elements currently matching selector.
	QueryAll(selector string) ([]Element, error)
	Evaluate(script string) (any, error)
	Close() error
}

// Element is a handle to one DOM element.
type Element interface {
	// Activate invokes the element's click handler from script rather than
	// through a synthesized pointer event.
	Activate() error
}
