package server

import (
	"log/slog"

	"countycricket-live/internal/artifacts"
	"countycricket-live/internal/channels"
	"countycricket-live/internal/config"
	"countycricket-live/internal/fixtures"
	"countycricket-live/internal/logging"
	"countycricket-live/internal/providers"
)

type fixtureComponents struct {
	store     *artifacts.FSStore
	extractor *fixtures.Extractor
	syncer    *fixtures.Syncer
}

func buildFixtures(cfg config.Config, provider providers.FixtureProvider, logger *slog.Logger) fixtureComponents {
	extractor := NewExtractor(cfg, provider, logger)
	syncer := fixtures.NewSyncer(extractor, fixtures.SyncConfig{
		Enabled:      cfg.Fixtures.SyncEnabled,
		DailyHourUTC: cfg.Fixtures.DailyHourUTC,
	}, logger)
	return fixtureComponents{
		store:     artifacts.NewFSStore(artifacts.DataDir(cfg.PublicDir)),
		extractor: extractor,
		syncer:    syncer,
	}
}

// NewExtractor builds a fixture extractor writing under the public data dir.
// A missing channel directory only disables channel annotation.
func NewExtractor(cfg config.Config, provider providers.FixtureProvider, logger *slog.Logger) *fixtures.Extractor {
	dir, err := channels.Load(cfg.CricAPI.ChannelsFile)
	if err != nil {
		logging.Warn(logger, "channel directory unavailable, fixtures will not carry channels",
			logging.FieldFile, cfg.CricAPI.ChannelsFile,
			logging.FieldError, err,
		)
		dir = channels.New(nil)
	}
	writer := artifacts.NewWriter(artifacts.DataDir(cfg.PublicDir), cfg.Fixtures.RetentionDays)
	return fixtures.New(provider, dir, writer, logger,
		fixtures.WithLocation(providers.ResolveTimezone(cfg.Fixtures.Timezone)),
	)
}
