package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"countycricket-live/internal/config"
	"countycricket-live/internal/metrics"
	"countycricket-live/internal/providers/fixture"
	"countycricket-live/internal/testutil"
)

func feedServer(t *testing.T, fail *atomic.Bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("_") == "" {
			t.Errorf("expected cache-busting parameter on %s", r.URL)
		}
		if fail != nil && fail.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testutil.LiveFeedJSON))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, feedURL string) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		Port:      "0",
		PublicDir: dir,
		Dashboard: config.DashboardConfig{
			FeedURL:           feedURL,
			PollInterval:      time.Hour,
			PrefsFile:         filepath.Join(dir, "prefs.json"),
			ReconcileDebounce: -1,
			MuteDelay:         -1,
		},
		CricAPI: config.CricAPIConfig{Provider: "fixture", ChannelsFile: filepath.Join(dir, "channels.json")},
		Metrics: config.MetricsConfig{Enabled: false},
	}
}

type matchesBody struct {
	HasData      bool   `json:"hasData"`
	Error        bool   `json:"error"`
	ErrorMessage string `json:"errorMessage"`
	Competitions []struct {
		Name string `json:"name"`
		Live []struct {
			ID string `json:"id"`
		} `json:"live"`
		Upcoming []struct {
			ID string `json:"id"`
		} `json:"upcoming"`
	} `json:"competitions"`
}

func TestServerServesMatchesAndPlayersAfterRefresh(t *testing.T) {
	feed := feedServer(t, nil)
	srv := newServerWithMetrics(testConfig(t, feed.URL), nil, fixture.New(), metrics.NewRecorder())

	if err := srv.poller.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	router := srv.Handler()
	testutil.AssertStatus(t, testutil.Serve(router, http.MethodGet, "/health", nil), http.StatusOK)
	testutil.AssertStatus(t, testutil.Serve(router, http.MethodGet, "/ready", nil), http.StatusOK)

	rr := testutil.Serve(router, http.MethodGet, "/matches", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	var resp matchesBody
	testutil.DecodeJSON(t, rr, &resp)
	if !resp.HasData || resp.Error || len(resp.Competitions) != 1 {
		t.Fatalf("unexpected matches response %+v", resp)
	}
	if len(resp.Competitions[0].Live) != 1 || resp.Competitions[0].Live[0].ID != "m-live" {
		t.Fatalf("expected one live match, got %+v", resp.Competitions[0].Live)
	}
	if len(resp.Competitions[0].Upcoming) != 1 || resp.Competitions[0].Upcoming[0].ID != "m-next" {
		t.Fatalf("expected one upcoming match, got %+v", resp.Competitions[0].Upcoming)
	}

	handles := srv.Session().Handles()
	if len(handles) != 1 {
		t.Fatalf("expected exactly one player for the one live match, got %+v", handles)
	}
	for _, h := range handles {
		if h.VideoID == "" || h.VideoID == "m-next" {
			t.Fatalf("expected no player for the upcoming match, got %+v", h)
		}
	}
	handle, ok := srv.Session().Handle("abc123")
	if !ok || handle.Target != "player-abc123" {
		t.Fatalf("expected reconciler to create a handle for abc123, got %+v", handle)
	}
	if handle.Playing || handle.Muted {
		t.Fatalf("expected new player paused and unmuted with autoplay off, got %+v", handle)
	}

	if err := srv.reconciler.MarkReady("abc123"); err != nil {
		t.Fatalf("mark ready: %v", err)
	}
	handle, _ = srv.Session().Handle("abc123")
	if !handle.IsReady() || handle.Playing || handle.Muted {
		t.Fatalf("expected ready player to stay paused and unmuted with autoplay off, got %+v", handle)
	}
}

func TestServerFeedFailureKeepsViewModelAndFlagsError(t *testing.T) {
	var fail atomic.Bool
	feed := feedServer(t, &fail)
	srv := newServerWithMetrics(testConfig(t, feed.URL), nil, fixture.New(), metrics.NewRecorder())

	if err := srv.poller.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	fail.Store(true)
	if err := srv.poller.Refresh(context.Background()); err == nil {
		t.Fatalf("expected second refresh to fail")
	}

	var resp matchesBody
	testutil.DecodeJSON(t, testutil.Serve(srv.Handler(), http.MethodGet, "/matches", nil), &resp)
	if !resp.Error || resp.ErrorMessage == "" {
		t.Fatalf("expected error flag, got %+v", resp)
	}
	if len(resp.Competitions) != 1 || len(resp.Competitions[0].Live) != 1 {
		t.Fatalf("expected previous view model retained, got %+v", resp.Competitions)
	}
}

func TestServerRefreshEndpointAndAutoplayToggle(t *testing.T) {
	feed := feedServer(t, nil)
	srv := newServerWithMetrics(testConfig(t, feed.URL), nil, fixture.New(), metrics.NewRecorder())
	router := srv.Handler()

	testutil.AssertStatus(t, testutil.Serve(router, http.MethodPost, "/refresh", nil), http.StatusOK)
	if !srv.Session().Snapshot().HasData {
		t.Fatalf("expected manual refresh to load the feed")
	}

	rr := testutil.Serve(router, http.MethodPost, "/autoplay/toggle", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	var toggled map[string]bool
	testutil.DecodeJSON(t, rr, &toggled)
	if !toggled["enabled"] || !toggled["persisted"] {
		t.Fatalf("unexpected toggle response %v", toggled)
	}
	if !srv.Session().Autoplay() {
		t.Fatalf("expected autoplay enabled in session")
	}
}

func TestServerRestoresPersistedAutoplay(t *testing.T) {
	feed := feedServer(t, nil)
	cfg := testConfig(t, feed.URL)
	first := newServerWithMetrics(cfg, nil, fixture.New(), metrics.NewRecorder())
	testutil.AssertStatus(t, testutil.Serve(first.Handler(), http.MethodPost, "/autoplay/toggle", nil), http.StatusOK)

	second := newServerWithMetrics(cfg, nil, fixture.New(), metrics.NewRecorder())
	if !second.Session().Autoplay() {
		t.Fatalf("expected autoplay preference restored from %s", cfg.Dashboard.PrefsFile)
	}
}

func TestServerMountsAdminOnlyWithToken(t *testing.T) {
	feed := feedServer(t, nil)
	cfg := testConfig(t, feed.URL)
	srv := newServerWithMetrics(cfg, nil, fixture.New(), metrics.NewRecorder())
	testutil.AssertStatus(t, testutil.Serve(srv.Handler(), http.MethodPost, "/admin/fixtures/refresh", nil), http.StatusNotFound)

	cfg.Fixtures.AdminToken = "secret"
	srv = newServerWithMetrics(cfg, nil, fixture.New(), metrics.NewRecorder())
	req := httptest.NewRequest(http.MethodPost, "/admin/fixtures/refresh", nil)
	req.Header.Set("Authorization", "Bearer secret")
	testutil.AssertStatus(t, testutil.ServeRequest(srv.Handler(), req), http.StatusOK)
}

func TestNewConstructsServer(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1/streams.json")
	srv := New(cfg, nil)
	if srv == nil || srv.Handler() == nil {
		t.Fatalf("expected server with handler")
	}
}

func TestBuildPrefsFallsBackToMemoryStore(t *testing.T) {
	dir := t.TempDir()
	store := buildPrefs(config.Config{Dashboard: config.DashboardConfig{PrefsFile: dir}}, nil)
	if err := store.Set("autoplay", "true"); err != nil {
		t.Fatalf("expected memory store to accept writes, got %v", err)
	}
}

func TestGracefulShutdownCallsStopAndShutdown(t *testing.T) {
	p := &testutil.StubPoller{}
	httpSrv := &testutil.StubHTTPServer{}

	srv := newServerWithDeps(config.Config{}, nil, httpSrv, p)
	srv.gracefulShutdown()

	if p.StopCalls != 1 {
		t.Fatalf("expected poller Stop to be called once, got %d", p.StopCalls)
	}
	if httpSrv.ShutdownCalls != 1 {
		t.Fatalf("expected server Shutdown to be called once, got %d", httpSrv.ShutdownCalls)
	}
}

func TestGracefulShutdownTimesOutLongRunningShutdown(t *testing.T) {
	p := &testutil.StubPoller{}
	blocking := &testutil.BlockingHTTPServer{
		AddrVal:    ":0",
		HandlerVal: http.NewServeMux(),
		Unblock:    make(chan struct{}),
	}

	original := shutdownTimeout
	shutdownTimeout = 5 * time.Millisecond
	defer func() { shutdownTimeout = original }()

	srv := newServerWithDeps(config.Config{}, nil, blocking, p)

	start := time.Now()
	srv.gracefulShutdown()
	elapsed := time.Since(start)

	if blocking.ShutdownCalls != 1 {
		t.Fatalf("expected server Shutdown to be called once, got %d", blocking.ShutdownCalls)
	}
	if p.StopCalls != 1 {
		t.Fatalf("expected poller Stop to be called once, got %d", p.StopCalls)
	}
	if elapsed > 200*time.Millisecond {
		t.Fatalf("shutdown took too long: %s", elapsed)
	}
}

func TestGracefulShutdownContinuesWhenPollerStopErrors(t *testing.T) {
	p := &testutil.StubPoller{Err: errors.New("stop failure")}
	httpSrv := &testutil.StubHTTPServer{}

	srv := newServerWithDeps(config.Config{}, nil, httpSrv, p)
	srv.gracefulShutdown()

	if p.StopCalls != 1 || httpSrv.ShutdownCalls != 1 {
		t.Fatalf("expected stop and shutdown once, got %d and %d", p.StopCalls, httpSrv.ShutdownCalls)
	}
}

func TestServerStartHandlesListenErrorAndStops(t *testing.T) {
	srv := newServerWithDeps(config.Config{}, nil, &testutil.ErrHTTPServer{}, &testutil.StubPoller{})

	var wg sync.WaitGroup
	wg.Add(1)
	stopCalled := make(chan struct{})
	stop := func() {
		close(stopCalled)
		wg.Done()
	}

	srv.startServer(stop)

	select {
	case <-stopCalled:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected stop to be called on listen failure")
	}

	wg.Wait()
}

func TestRunCancelsAndStopsComponents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	plr := &testutil.StubPoller{}
	httpSrv := &testutil.CloseableHTTPServer{}

	srv := newServerWithDeps(config.Config{}, nil, httpSrv, plr)

	done := make(chan struct{})
	go func() {
		srv.Run(ctx, cancel)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("run did not return after cancel")
	}

	if plr.StartCalls != 1 {
		t.Fatalf("expected poller Start called once, got %d", plr.StartCalls)
	}
	if plr.StopCalls != 1 {
		t.Fatalf("expected poller Stop called once, got %d", plr.StopCalls)
	}
	if httpSrv.ShutdownCalls != 1 {
		t.Fatalf("expected server Shutdown called once, got %d", httpSrv.ShutdownCalls)
	}
}
