package server

import (
	"log/slog"

	"countycricket-live/internal/config"
	"countycricket-live/internal/metrics"
	"countycricket-live/internal/providers"
)

// providerFactory assembles the provider with shared wrappers (rate limit + retry).
type providerFactory struct {
	logger  *slog.Logger
	metrics *metrics.Recorder
}

func newProviderFactory(logger *slog.Logger, metrics *metrics.Recorder) providerFactory {
	return providerFactory{logger: logger, metrics: metrics}
}

// build wraps the configured provider. attempts <= 0 uses the retry default;
// the score generator passes 1 so a failed lookup is never retried.
func (f providerFactory) build(cfg config.CricAPIConfig, attempts int) providers.DataProvider {
	base := selectProvider(cfg, f.logger)
	limited := providers.NewRateLimitedProvider(base, cfg.MinInterval, f.logger)
	return providers.NewRetryingProvider(limited, f.logger, f.metrics, normalizeProviderName(cfg.Provider, base), attempts, 0)
}

// NewProvider builds the upstream data provider for the offline tools.
func NewProvider(cfg config.CricAPIConfig, logger *slog.Logger, recorder *metrics.Recorder, attempts int) providers.DataProvider {
	return newProviderFactory(logger, recorder).build(cfg, attempts)
}

// NewStreamProvider builds the rate-limited broadcast source for the stream updater.
func NewStreamProvider(cfg config.StreamsConfig, logger *slog.Logger) providers.StreamProvider {
	return providers.NewRateLimitedStreamProvider(selectStreamProvider(cfg, logger), cfg.MinInterval, logger)
}
