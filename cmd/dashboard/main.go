package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"countycricket-live/internal/config"
	"countycricket-live/internal/logging"
	"countycricket-live/internal/server"
)

const appVersion = "dev"

func main() {
	if os.Getenv("SKIP_SERVER_RUN") == "1" {
		return
	}

	logger := logging.NewLogger(logging.Config{
		Level:   os.Getenv("LOG_LEVEL"),
		Format:  os.Getenv("LOG_FORMAT"),
		Service: "countycricket-dashboard",
		Version: appVersion,
	})
	if err := config.LoadDotEnv(); err != nil {
		logging.Warn(logger, "could not load .env", logging.FieldError, err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, logger)
	srv.Run(ctx, stop)
}
