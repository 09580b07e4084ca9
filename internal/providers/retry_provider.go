package providers

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"countycricket-live/internal/domain/matches"
	"countycricket-live/internal/logging"
	"countycricket-live/internal/metrics"
)

const (
	defaultRetryAttempts = 3
	defaultBackoff       = 200 * time.Millisecond
	maxRetryAfter        = 30 * time.Second
)

type backoffFunc func(attempt int) time.Duration

// retryingProvider wraps a DataProvider with retry/backoff behavior and records attempts.
type retryingProvider struct {
	inner        DataProvider
	logger       *slog.Logger
	metrics      *metrics.Recorder
	providerName string
	maxAttempts  int
	backoffFn    backoffFunc

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewRetryingProvider wraps the given provider with retries. If maxAttempts/backoff are <= 0, defaults are used.
func NewRetryingProvider(inner DataProvider, logger *slog.Logger, recorder *metrics.Recorder, name string, maxAttempts int, backoff time.Duration) DataProvider {
	return NewRetryingProviderWithRNG(inner, logger, recorder, name, nil, maxAttempts, backoff)
}

// NewRetryingProviderWithRNG is NewRetryingProvider with a caller-supplied jitter source.
func NewRetryingProviderWithRNG(inner DataProvider, logger *slog.Logger, recorder *metrics.Recorder, name string, rng *rand.Rand, maxAttempts int, backoff time.Duration) DataProvider {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	if name == "" {
		name = "provider"
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &retryingProvider{
		inner:        inner,
		logger:       logger,
		metrics:      recorder,
		providerName: name,
		maxAttempts:  maxAttempts,
		rng:          rng,
		backoffFn: func(attempt int) time.Duration {
			return time.Duration(attempt) * backoff
		},
	}
}

func (r *retryingProvider) FetchMatch(ctx context.Context, matchID string) (matches.ScoreRecord, error) {
	return retry(ctx, r, "match", func() (matches.ScoreRecord, error) {
		return r.inner.FetchMatch(ctx, matchID)
	})
}

func (r *retryingProvider) FetchSeries(ctx context.Context, competition, seriesID string) ([]matches.Fixture, error) {
	return retry(ctx, r, "series", func() ([]matches.Fixture, error) {
		return r.inner.FetchSeries(ctx, competition, seriesID)
	})
}

func retry[T any](ctx context.Context, r *retryingProvider, op string, call func() (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	if r.inner == nil {
		return zero, ErrProviderUnavailable
	}

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		start := time.Now()
		out, err := call()
		r.record(time.Since(start), err)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if attempt == r.maxAttempts || !IsRetryable(err) {
			break
		}

		r.logWarn(ctx, "provider fetch retry", logging.FieldOperation, op, "attempt", attempt, "max_attempts", r.maxAttempts, logging.FieldError, err)

		// backoff with context awareness
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(r.computeDelay(err, attempt)):
		}
	}

	return zero, lastErr
}

// computeDelay honours an upstream Retry-After and otherwise jitters the
// backoff into [base/2, base].
func (r *retryingProvider) computeDelay(err error, attempt int) time.Duration {
	if rl, ok := AsRateLimitError(err); ok && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	base := r.backoffFn(attempt)
	if base <= 1 {
		return base
	}
	half := base / 2
	r.rngMu.Lock()
	jitter := time.Duration(r.rng.Int63n(int64(half) + 1))
	r.rngMu.Unlock()
	return half + jitter
}

func (r *retryingProvider) record(d time.Duration, err error) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordProviderAttempt(r.providerName, d, err)
	if rl, ok := AsRateLimitError(err); ok {
		r.metrics.RecordRateLimit(r.providerName, rl.RetryAfter)
	}
}

func (r *retryingProvider) logWarn(ctx context.Context, msg string, args ...any) {
	logWithProvider(ctx, logging.FromContext(ctx, r.logger), slog.LevelWarn, r.providerName, msg, args...)
}
