// Command extract-fixtures writes the upcoming County Championship fixtures,
// one file per match day, under the public data directory.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"countycricket-live/internal/config"
	"countycricket-live/internal/fixtures"
	"countycricket-live/internal/logging"
	"countycricket-live/internal/metrics"
	"countycricket-live/internal/server"
)

const appVersion = "dev"

var exit = os.Exit

func main() {
	logger := logging.NewLogger(logging.Config{
		Level:   os.Getenv("LOG_LEVEL"),
		Format:  os.Getenv("LOG_FORMAT"),
		Service: "countycricket-extract-fixtures",
		Version: appVersion,
	})
	if err := config.LoadDotEnv(); err != nil {
		logging.Warn(logger, "could not load .env", logging.FieldError, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := run(ctx, config.Load(), logger); err != nil {
		logging.Error(logger, "fixture extraction failed", err)
		stop()
		exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) (fixtures.Result, error) {
	provider := server.NewProvider(cfg.CricAPI, logger, metrics.NewRecorder(), 0)
	return server.NewExtractor(cfg, provider, logger).Run(ctx)
}
