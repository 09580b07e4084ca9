package providers

import (
	"errors"
	"fmt"
	"time"
)

// ErrProviderUnavailable is returned when no upstream provider is configured.
var ErrProviderUnavailable = errors.New("provider unavailable")

// RateLimitError captures rate limit and quota responses from upstream providers.
type RateLimitError struct {
	Provider   string
	StatusCode int
	RetryAfter time.Duration
	Remaining  string
	Message    string
}

func (e *RateLimitError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "provider rate limited"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status=%d)", msg, e.StatusCode)
	}
	return msg
}

// AsRateLimitError attempts to unwrap an error into a RateLimitError.
func AsRateLimitError(err error) (*RateLimitError, bool) {
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return rlErr, true
	}
	return nil, false
}

// FailureError is an upstream response that reported failure in its body.
type FailureError struct {
	Provider string
	Reason   string
}

func (e *FailureError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: request failed", e.Provider)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
}

// IsRetryable reports whether repeating the call could succeed. Upstream
// failures and exhausted quotas are final; a rate limit is retryable only
// when the upstream names a short Retry-After.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrProviderUnavailable) {
		return false
	}
	if rl, ok := AsRateLimitError(err); ok {
		return rl.RetryAfter > 0 && rl.RetryAfter <= maxRetryAfter
	}
	var failure *FailureError
	return !errors.As(err, &failure)
}
