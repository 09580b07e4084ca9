package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"countycricket-live/internal/http/handlers"
	"countycricket-live/internal/prefs"
	"countycricket-live/internal/session"
	"countycricket-live/internal/testutil"
)

func newTestRoutes(t *testing.T) Routes {
	t.Helper()
	sess := session.New(prefs.NewMemoryStore())
	return Routes{
		Handler: handlers.NewHandler(sess, nil, nil, handlers.WithToggler(sess)),
	}
}

func TestRouterRoutesKnownPaths(t *testing.T) {
	router := NewRouter(newTestRoutes(t))

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusOK},
		{http.MethodGet, "/matches", http.StatusOK},
		{http.MethodGet, "/players", http.StatusOK},
		{http.MethodGet, "/autoplay", http.StatusOK},
		{http.MethodPost, "/autoplay/toggle", http.StatusOK},
		{http.MethodPost, "/refresh", http.StatusServiceUnavailable},
		{http.MethodGet, "/fixtures/2024-05-01", http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		rr := testutil.Serve(router, tc.method, tc.path, nil)
		if rr.Code != tc.want {
			t.Fatalf("%s %s expected status %d, got %d", tc.method, tc.path, tc.want, rr.Code)
		}
	}
}

func TestRouterUnknownRouteReturns404(t *testing.T) {
	router := NewRouter(newTestRoutes(t))
	rr := testutil.Serve(router, http.MethodGet, "/does-not-exist", nil)
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestRouterWrongMethodReturns405(t *testing.T) {
	router := NewRouter(newTestRoutes(t))
	rr := testutil.Serve(router, http.MethodGet, "/autoplay/toggle", nil)
	testutil.AssertStatus(t, rr, http.StatusMethodNotAllowed)
}

func TestRouterAdminMountedOnlyWhenConfigured(t *testing.T) {
	routes := newTestRoutes(t)
	rr := testutil.Serve(NewRouter(routes), http.MethodPost, "/admin/fixtures/refresh", nil)
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	routes.Admin = handlers.NewAdminHandler(nil, "secret", nil)
	rr = testutil.Serve(NewRouter(routes), http.MethodPost, "/admin/fixtures/refresh", nil)
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestRouterServesStaticFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "data"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "data", "streams.json"), []byte(testutil.LiveFeedJSON), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	routes := newTestRoutes(t)
	routes.StaticDir = dir

	rr := testutil.Serve(NewRouter(routes), http.MethodGet, "/data/streams.json", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)
	if rr.Body.Len() == 0 {
		t.Fatalf("expected feed body")
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	routes := newTestRoutes(t)
	routes.AllowedOrigins = []string{"https://dash.example"}
	router := NewRouter(routes)

	req := httptest.NewRequest(http.MethodOptions, "/autoplay/toggle", nil)
	req.Header.Set("Origin", "https://dash.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := testutil.ServeRequest(router, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example" {
		t.Fatalf("expected allowed origin echoed, got %q", got)
	}
}
