package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"countycricket-live/internal/domain/matches"
	"countycricket-live/internal/format"
	"countycricket-live/internal/logging"
	"countycricket-live/internal/poller"
	"countycricket-live/internal/session"
	"countycricket-live/internal/timeutil"
)

// feedErrorMessage is what browsers show while the last refresh is failing.
const feedErrorMessage = "Unable to load the latest matches. Showing the last known data."

type nowFunc func() time.Time

// Dashboard is the read side of the session.
type Dashboard interface {
	Snapshot() session.Snapshot
	Handles() []session.Handle
}

// Refresher triggers an immediate feed refresh.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Toggler flips the autoplay preference.
type Toggler interface {
	ToggleAutoplay() (bool, error)
}

// FixtureStore loads extracted fixtures by date.
type FixtureStore interface {
	LoadFixtures(date string) ([]matches.Fixture, error)
}

// Handler wires HTTP routes to the dashboard session.
type Handler struct {
	dash      Dashboard
	refresher Refresher
	toggler   Toggler
	fixtures  FixtureStore
	logger    *slog.Logger
	now       nowFunc
	statusFn  func() poller.Status
}

// Option customises a Handler.
type Option func(*Handler)

// WithRefresher enables POST /refresh.
func WithRefresher(r Refresher) Option {
	return func(h *Handler) { h.refresher = r }
}

// WithToggler enables POST /autoplay/toggle.
func WithToggler(t Toggler) Option {
	return func(h *Handler) { h.toggler = t }
}

// WithFixtures enables GET /fixtures/{date}.
func WithFixtures(store FixtureStore) Option {
	return func(h *Handler) { h.fixtures = store }
}

// WithClock overrides the clock used for relative start times.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler constructs a Handler with defaults.
func NewHandler(dash Dashboard, logger *slog.Logger, statusFn func() poller.Status, opts ...Option) *Handler {
	h := &Handler{
		dash:     dash,
		logger:   logger,
		now:      time.Now,
		statusFn: statusFn,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health reports the service health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	if err := r.Context().Err(); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "shutting down", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// Ready reports readiness for traffic. The service is ready once the poller
// has applied a feed and is not failing repeatedly.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	if h.statusFn == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"}, h.logger)
		return
	}
	status := h.statusFn()
	if status.IsReady() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"}, h.logger)
		return
	}
	msg := status.LastError
	if msg == "" {
		msg = "not ready"
	}
	writeError(w, r, http.StatusServiceUnavailable, msg, h.logger)
}

type matchView struct {
	matches.Match
	StartsIn            string `json:"startsIn,omitempty"`
	Score               string `json:"score,omitempty"`
	DescriptionHTML     string `json:"descriptionHtml,omitempty"`
	CollapseDescription bool   `json:"collapseDescription"`
}

type competitionView struct {
	Name     string      `json:"name"`
	Live     []matchView `json:"live"`
	Upcoming []matchView `json:"upcoming"`
}

type matchesResponse struct {
	GeneratedAt  time.Time         `json:"generatedAt"`
	HasData      bool              `json:"hasData"`
	Error        bool              `json:"error"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
	FailedAt     *time.Time        `json:"failedAt,omitempty"`
	Autoplay     bool              `json:"autoplay"`
	Competitions []competitionView `json:"competitions"`
}

// Matches returns the current view model with display fields rendered.
func (h *Handler) Matches(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	snap := h.dash.Snapshot()
	now := h.now()
	resp := matchesResponse{
		GeneratedAt:  snap.ViewModel.GeneratedAt,
		HasData:      snap.HasData,
		Error:        snap.Error,
		Autoplay:     snap.Autoplay,
		Competitions: make([]competitionView, 0, len(snap.ViewModel.Competitions)),
	}
	if snap.Error {
		resp.ErrorMessage = feedErrorMessage
		failedAt := snap.FailedAt
		resp.FailedAt = &failedAt
	}
	for _, name := range snap.ViewModel.CompetitionNames() {
		comp := snap.ViewModel.Competitions[name]
		resp.Competitions = append(resp.Competitions, competitionView{
			Name:     name,
			Live:     renderMatches(comp.Live, now),
			Upcoming: renderMatches(comp.Upcoming, now),
		})
	}
	writeJSON(w, http.StatusOK, resp, h.logger)
}

func renderMatches(ms []matches.Match, now time.Time) []matchView {
	out := make([]matchView, 0, len(ms))
	for _, m := range ms {
		v := matchView{
			Match:    m,
			StartsIn: format.TimeUntil(now, m.StartTime),
			Score:    format.Score(m.Innings),
		}
		if m.Stream != nil {
			v.DescriptionHTML = format.Description(m.Stream.Description)
			v.CollapseDescription = format.ShouldCollapse(m.Stream.Description)
		}
		out = append(out, v)
	}
	return out
}

// Players lists every player handle.
func (h *Handler) Players(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"autoplay": h.dash.Snapshot().Autoplay,
		"players":  h.dash.Handles(),
	}, h.logger)
}

// Autoplay reports the autoplay preference.
func (h *Handler) Autoplay(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": h.dash.Snapshot().Autoplay}, h.logger)
}

// ToggleAutoplay flips the preference. A persistence failure still reports
// the new in-memory state with persisted=false.
func (h *Handler) ToggleAutoplay(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost, h.logger) {
		return
	}
	if h.toggler == nil {
		writeError(w, r, http.StatusServiceUnavailable, "autoplay toggle not configured", h.logger)
		return
	}
	logger := loggerFromContext(r, h.logger)
	enabled, err := h.toggler.ToggleAutoplay()
	if err != nil {
		logging.Warn(logger, "autoplay preference not persisted", logging.FieldError, err)
	}
	logging.Info(logger, "autoplay toggled", logging.FieldAutoplay, enabled)
	writeJSON(w, http.StatusOK, map[string]bool{
		"enabled":   enabled,
		"persisted": err == nil,
	}, logger)
}

// Refresh runs one feed refresh immediately.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost, h.logger) {
		return
	}
	if h.refresher == nil {
		writeError(w, r, http.StatusServiceUnavailable, "refresh not configured", h.logger)
		return
	}
	logger := loggerFromContext(r, h.logger)
	// A client that disconnects must not turn the refresh into a feed failure.
	err := h.refresher.Refresh(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, poller.ErrStale):
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "superseded"}, logger)
	case err != nil:
		logging.Warn(logger, "manual refresh failed", logging.FieldError, err)
		writeError(w, r, http.StatusBadGateway, "feed refresh failed", logger)
	default:
		vm := h.dash.Snapshot().ViewModel
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"matches": vm.MatchCount(),
		}, logger)
	}
}

// Fixtures serves the extracted fixtures for one day.
func (h *Handler) Fixtures(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	if h.fixtures == nil {
		writeError(w, r, http.StatusServiceUnavailable, "fixtures not configured", h.logger)
		return
	}
	date := chi.URLParam(r, "date")
	if _, err := timeutil.ParseDate(date); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid date format (expected YYYY-MM-DD)", h.logger)
		return
	}
	fixtures, err := h.fixtures.LoadFixtures(date)
	if err != nil {
		logging.Debug(loggerFromContext(r, h.logger), "fixtures unavailable", "date", date, logging.FieldError, err)
		writeError(w, r, http.StatusNotFound, "no fixtures for date", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":     date,
		"fixtures": fixtures,
	}, h.logger)
}
