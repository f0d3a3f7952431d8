// Package httpapi assembles the HTTP surface: the LINE webhook, health
// and metrics endpoints, and the staff admin API.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/luminebeauty/booking-assistant/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger          *logging.Logger
	LineWebhook     http.HandlerFunc
	AdminHandler    *AdminHandler
	AdminAuthSecret string
	MetricsHandler  http.Handler
}

// NewRouter creates a chi router with all routes configured.
func NewRouter(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(RequestLogger(cfg.Logger))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.LineWebhook != nil {
			public.Post("/webhook/line", cfg.LineWebhook)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	if cfg.AdminHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/profiles/{id}", cfg.AdminHandler.GetProfile)
			admin.Get("/profiles/{id}/bookings", cfg.AdminHandler.ListBookings)
		})
	}

	return r
}
