package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"countycricket-live/internal/fixtures"
	"countycricket-live/internal/http/requestutil"
	"countycricket-live/internal/logging"
)

// FixtureRunner runs one fixture extraction.
type FixtureRunner interface {
	Run(ctx context.Context) (fixtures.Result, error)
}

// AdminHandler exposes admin-only endpoints (e.g., fixture refresh).
type AdminHandler struct {
	extractor FixtureRunner
	token     string
	logger    *slog.Logger
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(extractor FixtureRunner, token string, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		extractor: extractor,
		token:     token,
		logger:    logger,
	}
}

// RefreshFixtures re-extracts the upcoming fixtures and rewrites the day files.
// Guarded by ADMIN_TOKEN env; returns 401 if missing/invalid.
func (h *AdminHandler) RefreshFixtures(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost, h.logger) {
		return
	}
	if !h.authorize(r) {
		logging.Warn(h.logger, "admin unauthorized",
			slog.String(logging.FieldPath, r.URL.Path),
			slog.String("client_ip", clientIP(r)),
		)
		writeError(w, r, http.StatusUnauthorized, "unauthorized", h.logger)
		return
	}
	if h.extractor == nil {
		writeError(w, r, http.StatusServiceUnavailable, "fixture extractor not configured", h.logger)
		return
	}

	logger := loggerFromContext(r, h.logger)
	res, err := h.extractor.Run(r.Context())
	if err != nil {
		logging.Warn(logger, "admin fixture refresh failed",
			slog.Int("failed_series", res.Failed),
			slog.Any(logging.FieldError, err),
		)
		writeError(w, r, http.StatusBadGateway, "failed to refresh fixtures", logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"fixtures": res.Fixtures,
		"days":     res.Days,
		"failed":   res.Failed,
		"status":   "ok",
	}, logger)
	logging.Info(logger, "admin fixtures refreshed",
		slog.Int(logging.FieldCount, res.Fixtures),
		slog.Int("days", res.Days),
	)
}

// AdminTokenFromEnv reads ADMIN_TOKEN (optional).
func AdminTokenFromEnv() string {
	return os.Getenv("ADMIN_TOKEN")
}

func (h *AdminHandler) authorize(r *http.Request) bool {
	if h.token == "" {
		return false
	}
	return r.Header.Get("Authorization") == "Bearer "+h.token
}

func clientIP(r *http.Request) string {
	return requestutil.ClientIP(r)
}
