package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRateLimitErrorString(t *testing.T) {
	err := &RateLimitError{
		Provider:   "p",
		StatusCode: 429,
		Message:    "rate limited",
	}
	if got := err.Error(); got == "" || got == "rate limited" {
		t.Fatalf("expected status in error string, got %q", got)
	}

	rl, ok := AsRateLimitError(fmt.Errorf("wrapped: %w", err))
	if !ok || rl == nil {
		t.Fatalf("expected to unwrap rate limit error")
	}

	noStatus := &RateLimitError{}
	if got := noStatus.Error(); got == "" {
		t.Fatalf("expected fallback message")
	}
}

func TestFailureErrorString(t *testing.T) {
	if got := (&FailureError{Provider: "cricapi", Reason: "match not found"}).Error(); got != "cricapi: match not found" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := (&FailureError{Provider: "cricapi"}).Error(); got != "cricapi: request failed" {
		t.Fatalf("unexpected fallback %q", got)
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("connection reset"), true},
		{context.DeadlineExceeded, true},
		{&RateLimitError{}, false},
		{&RateLimitError{RetryAfter: 2 * time.Second}, true},
		{&RateLimitError{RetryAfter: time.Hour}, false},
		{fmt.Errorf("lookup: %w", &FailureError{Provider: "x"}), false},
		{ErrProviderUnavailable, false},
	}
	for _, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Fatalf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
