package pipeline

import (
	"math/rand/v2"
	"time"

	"github.com/dgallion1/profilex/internal/llm"
)

// IsRetryable reports whether a structuring error may be retried. Only rate
// limits qualify: schema violations repeat on identical input and an
// unavailable model should fail fast.
func IsRetryable(err error) bool {
	return llm.IsRateLimit(err)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// MaxRetries bounds paid model calls per run to MaxRetries+1.
const MaxRetries = 1

const maxRetryAfter = time.Minute

// retryDelay honors the provider's Retry-After, capped, before falling back
// to backoff.
func retryDelay(err error, attempt int, backoff func(int) time.Duration) time.Duration {
	if d := llm.RetryAfter(err); d > 0 {
		return min(d, maxRetryAfter)
	}
	return backoff(attempt)
}
