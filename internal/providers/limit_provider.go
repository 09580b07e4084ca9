package providers

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"countycricket-live/internal/domain/matches"
)

// rateLimitedProvider spaces upstream calls to respect the provider quota.
type rateLimitedProvider struct {
	next    DataProvider
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewRateLimitedProvider returns a DataProvider that allows one call per interval.
// Calls block until a token is available or the context ends.
func NewRateLimitedProvider(next DataProvider, interval time.Duration, logger *slog.Logger) DataProvider {
	if interval <= 0 {
		interval = time.Second
	}
	return &rateLimitedProvider{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger,
	}
}

func (p *rateLimitedProvider) FetchMatch(ctx context.Context, matchID string) (matches.ScoreRecord, error) {
	if err := p.wait(ctx); err != nil {
		return matches.ScoreRecord{}, err
	}
	return p.next.FetchMatch(ctx, matchID)
}

func (p *rateLimitedProvider) FetchSeries(ctx context.Context, competition, seriesID string) ([]matches.Fixture, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	return p.next.FetchSeries(ctx, competition, seriesID)
}

func (p *rateLimitedProvider) wait(ctx context.Context) error {
	if p == nil || p.next == nil {
		return ErrProviderUnavailable
	}
	if err := p.limiter.Wait(ctx); err != nil {
		logWithProvider(ctx, p.logger, slog.LevelWarn, "rate-limited", "rate-limited fetch canceled", "error", err)
		return err
	}
	return nil
}

// rateLimitedStreams spaces channel lookups the same way.
type rateLimitedStreams struct {
	next    StreamProvider
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewRateLimitedStreamProvider returns a StreamProvider that allows one call per interval.
func NewRateLimitedStreamProvider(next StreamProvider, interval time.Duration, logger *slog.Logger) StreamProvider {
	if interval <= 0 {
		interval = time.Second
	}
	return &rateLimitedStreams{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger,
	}
}

func (p *rateLimitedStreams) FetchChannelStreams(ctx context.Context, channelID string) ([]matches.Broadcast, error) {
	if p == nil || p.next == nil {
		return nil, ErrProviderUnavailable
	}
	if err := p.limiter.Wait(ctx); err != nil {
		logWithProvider(ctx, p.logger, slog.LevelWarn, "rate-limited", "rate-limited stream fetch canceled", "error", err)
		return nil, err
	}
	return p.next.FetchChannelStreams(ctx, channelID)
}
