package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorKind classifies a failed model call.
type ErrorKind string

const (
	// KindUnavailable: the model or provider is not serving (404, 5xx, overloaded).
	KindUnavailable ErrorKind = "unavailable"
	// KindConnection: the request never got an HTTP answer.
	KindConnection ErrorKind = "connection"
	KindRateLimit  ErrorKind = "rate_limit"
	// KindRequest: anything else the provider rejected.
	KindRequest ErrorKind = "request"
)

// ModelError is a transport or provider failure of a model call.
type ModelError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	RetryAfter time.Duration
	Message    string
	Err        error
}

func (e *ModelError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s (status %d): %s", e.Provider, e.Kind, e.StatusCode, truncate(e.Message, 200))
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s %s: %s", e.Provider, e.Kind, truncate(e.Message, 200))
	}
}

func (e *ModelError) Unwrap() error { return e.Err }

// KindOf returns the kind of the first ModelError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var me *ModelError
	if errors.As(err, &me) {
		return me.Kind
	}
	return ""
}

func IsRateLimit(err error) bool   { return KindOf(err) == KindRateLimit }
func IsUnavailable(err error) bool { return KindOf(err) == KindUnavailable }
func IsConnection(err error) bool  { return KindOf(err) == KindConnection }

// RetryAfter returns the provider's requested delay, if any.
func RetryAfter(err error) time.Duration {
	var me *ModelError
	if errors.As(err, &me) {
		return me.RetryAfter
	}
	return 0
}

// statusError classifies a non-2xx HTTP answer.
func statusError(provider string, code int, header http.Header, body []byte) *ModelError {
	e := &ModelError{Provider: provider, StatusCode: code, Message: string(body), Kind: kindForStatus(code)}
	if e.Kind == KindRateLimit && header != nil {
		e.RetryAfter = parseRetryAfter(header.Get("Retry-After"))
	}
	return e
}

func kindForStatus(code int) ErrorKind {
	switch {
	case code == http.StatusTooManyRequests:
		return KindRateLimit
	case code == http.StatusNotFound, code >= 500:
		// 529 is Anthropic's "overloaded".
		return KindUnavailable
	default:
		return KindRequest
	}
}

// transportError wraps a failure that produced no HTTP response. A caller
// cancellation is returned unchanged.
func transportError(provider string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &ModelError{Provider: provider, Kind: KindConnection, Err: err}
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
