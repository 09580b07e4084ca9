// Command update-streams lists the live and upcoming broadcasts of every
// county channel, joins them to today's fixtures and writes the feed artifact.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"countycricket-live/internal/artifacts"
	"countycricket-live/internal/channels"
	"countycricket-live/internal/config"
	"countycricket-live/internal/logging"
	"countycricket-live/internal/metrics"
	"countycricket-live/internal/providers"
	"countycricket-live/internal/server"
	"countycricket-live/internal/streams"
)

const appVersion = "dev"

var exit = os.Exit

func main() {
	logger := logging.NewLogger(logging.Config{
		Level:   os.Getenv("LOG_LEVEL"),
		Format:  os.Getenv("LOG_FORMAT"),
		Service: "countycricket-update-streams",
		Version: appVersion,
	})
	if err := config.LoadDotEnv(); err != nil {
		logging.Warn(logger, "could not load .env", logging.FieldError, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := run(ctx, config.Load(), logger); err != nil {
		logging.Error(logger, "stream update failed", err)
		stop()
		exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) (streams.Result, error) {
	dir, err := channels.Load(cfg.CricAPI.ChannelsFile)
	if err != nil {
		return streams.Result{}, fmt.Errorf("channel directory: %w", err)
	}
	dataDir := artifacts.DataDir(cfg.PublicDir)
	store := artifacts.NewFSStore(dataDir)

	opts := []streams.Option{
		streams.WithPrevious(store),
		streams.WithConcurrency(cfg.Streams.Concurrency),
		streams.WithOtherCompetition(cfg.Streams.OtherStreams),
		streams.WithLocation(providers.ResolveTimezone(cfg.Fixtures.Timezone)),
	}
	if cfg.Artifacts.PublishEnabled() {
		pub, err := artifacts.NewS3Publisher(ctx, cfg.Artifacts.S3Bucket, cfg.Artifacts.S3Prefix)
		if err != nil {
			logging.Warn(logger, "s3 publishing disabled", logging.FieldError, err)
		} else {
			opts = append(opts, streams.WithPublisher(pub))
		}
	}

	updater := streams.New(
		server.NewStreamProvider(cfg.Streams, logger),
		dir.Channels(),
		store,
		artifacts.NewWriter(dataDir, cfg.Fixtures.RetentionDays),
		logger,
		metrics.NewRecorder(),
		opts...,
	)
	return updater.Run(ctx)
}
