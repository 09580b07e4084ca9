package http

import (
	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"countycricket-live/internal/http/handlers"
)

// Routes collects the handlers mounted by NewRouter. Nil members are skipped.
type Routes struct {
	Handler        *handlers.Handler
	Admin          *handlers.AdminHandler
	WebSocket      nethttp.Handler
	StaticDir      string
	AllowedOrigins []string
}

// NewRouter registers the dashboard routes on a chi router.
func NewRouter(routes Routes) nethttp.Handler {
	r := chi.NewRouter()
	origins := routes.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{nethttp.MethodGet, nethttp.MethodPost, nethttp.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	h := routes.Handler
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Get("/matches", h.Matches)
	r.Get("/players", h.Players)
	r.Get("/autoplay", h.Autoplay)
	r.Post("/autoplay/toggle", h.ToggleAutoplay)
	r.Post("/refresh", h.Refresh)
	r.Get("/fixtures/{date}", h.Fixtures)

	if routes.Admin != nil {
		r.Post("/admin/fixtures/refresh", routes.Admin.RefreshFixtures)
	}
	if routes.WebSocket != nil {
		r.Handle("/ws", routes.WebSocket)
	}
	if routes.StaticDir != "" {
		r.Handle("/*", nethttp.FileServer(nethttp.Dir(routes.StaticDir)))
	}
	return r
}
