package server

import (
	"context"
	"log/slog"
	"net/http"

	"countycricket-live/internal/config"
	"countycricket-live/internal/domain/matches"
	"countycricket-live/internal/embed"
	httpserver "countycricket-live/internal/http"
	"countycricket-live/internal/http/handlers"
	"countycricket-live/internal/http/middleware"
	"countycricket-live/internal/http/ws"
	"countycricket-live/internal/logging"
	"countycricket-live/internal/metrics"
	"countycricket-live/internal/player"
	"countycricket-live/internal/poller"
	"countycricket-live/internal/prefs"
	"countycricket-live/internal/providers"
	"countycricket-live/internal/session"
)

var metricsSetup = metrics.Setup

// Server composes the dashboard: the session, the feed poller, the player
// reconciler, the websocket hub and the HTTP surface.
type Server struct {
	cfg           config.Config
	logger        *slog.Logger
	metrics       *metrics.Recorder
	session       *session.Session
	hub           *ws.Hub
	reconciler    *player.Reconciler
	syncer        syncRunner
	httpServer    httpServer
	metricsServer httpServer
	poller        Poller
	metricsStop   func(context.Context) error
}

type syncRunner interface {
	Run(ctx context.Context)
}

// New constructs a server with default provider and poller wiring.
func New(cfg config.Config, logger *slog.Logger) *Server {
	return newServerWithMetrics(cfg, logger, nil, nil)
}

func newServerWithMetrics(cfg config.Config, logger *slog.Logger, provider providers.DataProvider, recorder *metrics.Recorder) *Server {
	recorder, metricsSrv, metricsShutdown := buildMetrics(cfg, logger, recorder)
	if provider == nil {
		provider = newProviderFactory(logger, recorder).build(cfg.CricAPI, 0)
	}

	sess := session.New(buildPrefs(cfg, logger))
	hub := ws.NewHub(logger, cfg.Dashboard.CORSOrigins)
	rec := player.New(sess, embed.NewFactory(hub, sess), logger, recorder, player.Config{
		Debounce:  cfg.Dashboard.ReconcileDebounce,
		MuteDelay: cfg.Dashboard.MuteDelay,
	})
	embed.Bind(hub, rec, logger)
	hub.OnConnect(func() [][]byte { return embed.Greeting(sess) })

	plr := buildPoller(cfg, sess, rec, hub, logger, recorder)
	fx := buildFixtures(cfg, provider, logger)
	httpSrv := buildHTTPServer(cfg, sess, embed.NewAnnouncer(rec, hub, logger), plr, fx, hub, logger, recorder)

	return &Server{
		cfg:           cfg,
		logger:        logger,
		metrics:       recorder,
		session:       sess,
		hub:           hub,
		reconciler:    rec,
		syncer:        fx.syncer,
		httpServer:    httpSrv,
		metricsServer: metricsSrv,
		poller:        plr,
		metricsStop:   metricsShutdown,
	}
}

// newServerWithDeps is used for testing to inject custom components.
func newServerWithDeps(cfg config.Config, logger *slog.Logger, httpSrv httpServer, plr Poller) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpSrv,
		poller:     plr,
	}
}

// buildPrefs opens the preference file. An unreadable file falls back to an
// in-memory store so the dashboard still starts with autoplay off.
func buildPrefs(cfg config.Config, logger *slog.Logger) prefs.Store {
	if cfg.Dashboard.PrefsFile == "" {
		return prefs.NewMemoryStore()
	}
	store, err := prefs.Open(cfg.Dashboard.PrefsFile)
	if err != nil {
		logging.Warn(logger, "preferences unavailable, using memory store",
			logging.FieldFile, cfg.Dashboard.PrefsFile,
			logging.FieldError, err,
		)
		return prefs.NewMemoryStore()
	}
	return store
}

// buildPoller wires the feed (and optional score) sources to the session.
// Each applied view model is handed to the reconciler and pushed to browsers.
func buildPoller(cfg config.Config, sess *session.Session, rec *player.Reconciler, hub *ws.Hub, logger *slog.Logger, recorder *metrics.Recorder) *poller.Poller {
	opts := []poller.Option{
		poller.WithListener(func(vm matches.ViewModel) {
			rec.Schedule(vm)
			if err := hub.Broadcast(ws.TypeViewModel, vm); err != nil {
				logging.Warn(logger, "view model broadcast failed", logging.FieldError, err)
			}
		}),
	}
	if cfg.Dashboard.ScoresURL != "" {
		opts = append(opts, poller.WithScores(poller.NewHTTPSource(cfg.Dashboard.ScoresURL, nil)))
	}
	return poller.New(poller.NewHTTPSource(cfg.Dashboard.FeedURL, nil), sess, logger, recorder, cfg.Dashboard.PollInterval, opts...)
}

func buildHTTPServer(cfg config.Config, sess *session.Session, toggler handlers.Toggler, plr Poller, fx fixtureComponents, hub *ws.Hub, logger *slog.Logger, recorder *metrics.Recorder) httpServer {
	var statusFn func() poller.Status
	opts := []handlers.Option{handlers.WithToggler(toggler), handlers.WithFixtures(fx.store)}
	if plr != nil {
		statusFn = plr.Status
		opts = append(opts, handlers.WithRefresher(plr))
	}

	routes := httpserver.Routes{
		Handler:        handlers.NewHandler(sess, logger, statusFn, opts...),
		WebSocket:      hub,
		StaticDir:      cfg.PublicDir,
		AllowedOrigins: cfg.Dashboard.CORSOrigins,
	}
	// Admin refresh is only mounted when a token is configured.
	if cfg.Fixtures.AdminToken != "" {
		routes.Admin = handlers.NewAdminHandler(fx.extractor, cfg.Fixtures.AdminToken, logger)
	}
	if logger == nil {
		logger = logging.NewLogger(logging.Config{})
	}
	wrapped := middleware.LoggingMiddleware(logger, recorder, httpserver.NewRouter(routes))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           wrapped,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	return netHTTPServer{srv: srv}
}

// Run starts the hub, the poller and the HTTP server, then waits for context
// cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.startMetrics()
	if s.hub != nil {
		go s.hub.Run(ctx)
	}
	s.startServer(stop)
	s.poller.Start(ctx)
	if s.syncer != nil {
		go s.syncer.Run(ctx)
	}

	<-ctx.Done()
	logging.Info(s.logger, "shutdown signal received")

	s.gracefulShutdown()
}

func (s *Server) startServer(stop context.CancelFunc) {
	logging.Info(s.logger, "http server starting", slog.String("addr", s.httpServer.Addr()))
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	logging.Info(s.logger, "metrics server starting", slog.String("addr", s.metricsServer.Addr()))
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics shutdown failed", logging.FieldError, err)
		}
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics server shutdown failed", logging.FieldError, err)
		}
	}

	if err := s.poller.Stop(shutdownCtx); err != nil {
		logging.Error(s.logger, "failed to stop poller", err)
	}

	if s.reconciler != nil {
		s.reconciler.Close()
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error(s.logger, "graceful shutdown failed", err)
	}

	logging.Info(s.logger, "shutdown complete")
}

func buildMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*metrics.Recorder, httpServer, func(context.Context) error) {
	if recorder != nil {
		return recorder, nil, nil
	}

	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}

	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		logging.Warn(logger, "metrics setup failed, continuing without telemetry", logging.FieldError, err)
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && recCfg.Enabled {
		metricsSrv = netHTTPServer{
			srv: &http.Server{
				Addr:              ":" + recCfg.Port,
				Handler:           handler,
				ReadHeaderTimeout: readHeaderTimeout,
			},
		}
	}

	return rec, metricsSrv, shutdown
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		logging.Debug(logger, "starting "+name+" server", slog.String("addr", srv.Addr()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Warn(logger, name+" server failed", logging.FieldError, err)
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}

// Session exposes the dashboard session (useful for tests).
func (s *Server) Session() *session.Session {
	return s.session
}
