// Command generate-scores looks up the current score of every match in the
// feed artifact and writes the consolidated score artifact next to it.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"countycricket-live/internal/artifacts"
	"countycricket-live/internal/config"
	"countycricket-live/internal/logging"
	"countycricket-live/internal/metrics"
	"countycricket-live/internal/scores"
	"countycricket-live/internal/server"
)

const (
	appVersion = "dev"
	publicDir  = "public"
)

var exit = os.Exit

func main() {
	logger := logging.NewLogger(logging.Config{
		Level:   os.Getenv("LOG_LEVEL"),
		Format:  os.Getenv("LOG_FORMAT"),
		Service: "countycricket-generate-scores",
		Version: appVersion,
	})
	if err := config.LoadDotEnv(); err != nil {
		logging.Warn(logger, "could not load .env", logging.FieldError, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config.Load(), publicDir, logger); err != nil {
		logging.Error(logger, "score generation failed", err)
		stop()
		exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, dir string, logger *slog.Logger) error {
	recorder := metrics.NewRecorder()
	dataDir := artifacts.DataDir(dir)

	// One attempt per match: a failed lookup is omitted, never retried.
	provider := server.NewProvider(cfg.CricAPI, logger, recorder, 1)

	opts := []scores.Option{scores.WithConcurrency(cfg.CricAPI.LookupConcurrency)}
	if cfg.Artifacts.PublishEnabled() {
		pub, err := artifacts.NewS3Publisher(ctx, cfg.Artifacts.S3Bucket, cfg.Artifacts.S3Prefix)
		if err != nil {
			logging.Warn(logger, "s3 publishing disabled", logging.FieldError, err)
		} else {
			opts = append(opts, scores.WithPublisher(pub))
		}
	}

	gen := scores.New(
		artifacts.NewFSStore(dataDir),
		provider,
		artifacts.NewWriter(dataDir, cfg.Fixtures.RetentionDays),
		logger,
		recorder,
		opts...,
	)
	res, err := gen.Run(ctx)
	if err != nil {
		return err
	}
	logging.Info(logger, "score generation complete",
		"requested", res.Requested,
		"written", res.Written,
		"failed", res.Failed,
	)
	return nil
}
