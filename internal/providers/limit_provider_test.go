package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"countycricket-live/internal/domain/matches"
	"countycricket-live/internal/teststubs"
)

func TestRateLimitedProviderSpacesCalls(t *testing.T) {
	inner := &teststubs.StubProvider{Records: map[string]matches.ScoreRecord{"m1": {ID: "m1"}}}
	rl := NewRateLimitedProvider(inner, 20*time.Millisecond, nil)

	start := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := rl.FetchMatch(context.Background(), "m1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Fatalf("expected second call to wait for a token, elapsed %s", elapsed)
	}
	if inner.Calls.Load() != 2 {
		t.Fatalf("expected inner provider called twice, got %d", inner.Calls.Load())
	}
}

func TestRateLimitedProviderRespectsCanceledContext(t *testing.T) {
	inner := &teststubs.StubProvider{}
	rl := NewRateLimitedProvider(inner, time.Minute, nil)
	// Drain the initial burst token.
	_, _ = rl.FetchSeries(context.Background(), "Div", "s1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := rl.FetchSeries(ctx, "Div", "s1"); err == nil {
		t.Fatalf("expected canceled wait to fail")
	}
	if inner.Calls.Load() != 1 {
		t.Fatalf("expected inner provider not called on canceled context")
	}
}

func TestRateLimitedProviderHandlesNilInner(t *testing.T) {
	var inner DataProvider
	rl := NewRateLimitedProvider(inner, time.Millisecond, nil)

	_, err := rl.FetchMatch(context.Background(), "m1")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestRateLimitedProviderDefaultsInterval(t *testing.T) {
	rl := NewRateLimitedProvider(&teststubs.StubProvider{}, 0, nil).(*rateLimitedProvider)
	if got := rl.limiter.Limit(); got != 1 {
		t.Fatalf("expected one call per second by default, got %v", got)
	}
}

func TestRateLimitedStreamProviderSpacesCalls(t *testing.T) {
	inner := &teststubs.StubProvider{Broadcasts: map[string][]matches.Broadcast{"UC-a": {{VideoID: "v"}}}}
	rl := NewRateLimitedStreamProvider(inner, 20*time.Millisecond, nil)

	start := time.Now()
	for i := 0; i < 2; i++ {
		got, err := rl.FetchChannelStreams(context.Background(), "UC-a")
		if err != nil || len(got) != 1 {
			t.Fatalf("unexpected result %+v err=%v", got, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Fatalf("expected second call to wait for a token, elapsed %s", elapsed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := rl.FetchChannelStreams(ctx, "UC-a"); err == nil {
		t.Fatalf("expected canceled wait to fail")
	}
	if inner.Calls.Load() != 2 {
		t.Fatalf("expected inner provider called twice, got %d", inner.Calls.Load())
	}
}

func TestRateLimitedStreamProviderHandlesNilInner(t *testing.T) {
	rl := NewRateLimitedStreamProvider(nil, time.Millisecond, nil)
	if _, err := rl.FetchChannelStreams(context.Background(), "UC-a"); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}
