package server

import (
	"log/slog"

	"countycricket-live/internal/config"
	"countycricket-live/internal/providers"
	"countycricket-live/internal/providers/cricapi"
	"countycricket-live/internal/providers/fixture"
	"countycricket-live/internal/providers/youtube"
)

func selectProvider(cfg config.CricAPIConfig, logger *slog.Logger) providers.DataProvider {
	switch cfg.Provider {
	case "fixture", "":
		return fixture.New()
	case "cricapi":
		return cricapi.NewClient(cricapi.Config{
			BaseURL:  cfg.BaseURL,
			APIKey:   cfg.APIKey,
			CacheTTL: cfg.CacheTTL,
		})
	default:
		if logger != nil {
			logger.Warn("unknown provider, falling back to fixture", slog.String("provider", cfg.Provider))
		}
		return fixture.New()
	}
}

func selectStreamProvider(cfg config.StreamsConfig, logger *slog.Logger) providers.StreamProvider {
	switch cfg.Provider {
	case "fixture":
		return fixture.New()
	case "youtube", "":
		return youtube.NewClient(youtube.Config{
			BaseURL:  cfg.BaseURL,
			APIKey:   cfg.APIKey,
			CacheTTL: cfg.CacheTTL,
		})
	default:
		if logger != nil {
			logger.Warn("unknown stream provider, falling back to fixture", slog.String("provider", cfg.Provider))
		}
		return fixture.New()
	}
}
