package fixtures

import (
	"context"
	"log/slog"
	"time"

	"countycricket-live/internal/logging"
)

// SyncConfig controls the daily fixture refresh.
type SyncConfig struct {
	Enabled      bool
	DailyHourUTC int
}

// Syncer runs an extraction at start and then once a day.
type Syncer struct {
	extractor *Extractor
	cfg       SyncConfig
	logger    *slog.Logger
	newTicker func(time.Duration) *time.Ticker
}

// NewSyncer constructs a syncer. An out-of-range hour defaults to 02:00 UTC.
func NewSyncer(extractor *Extractor, cfg SyncConfig, logger *slog.Logger) *Syncer {
	if cfg.DailyHourUTC < 0 || cfg.DailyHourUTC > 23 {
		cfg.DailyHourUTC = 2
	}
	return &Syncer{
		extractor: extractor,
		cfg:       cfg,
		logger:    logger,
		newTicker: time.NewTicker,
	}
}

// Run performs one extraction and schedules the daily refresh.
// Callers should run this in a goroutine.
func (s *Syncer) Run(ctx context.Context) {
	if s == nil || !s.cfg.Enabled || s.extractor == nil {
		return
	}
	logging.Info(s.logger, "fixture sync starting", "daily_hour_utc", s.cfg.DailyHourUTC)
	s.extract(ctx)
	go s.daily(ctx)
}

func (s *Syncer) daily(ctx context.Context) {
	ticker := s.newTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if now.UTC().Hour() == s.cfg.DailyHourUTC {
				s.extract(ctx)
			}
		}
	}
}

func (s *Syncer) extract(ctx context.Context) {
	start := time.Now()
	res, err := s.extractor.Run(ctx)
	if err != nil {
		logging.Error(s.logger, "fixture sync failed", err)
		return
	}
	logging.Info(s.logger, "fixture sync complete",
		logging.FieldCount, res.Fixtures,
		logging.FieldDurationMS, time.Since(start).Milliseconds(),
	)
}
