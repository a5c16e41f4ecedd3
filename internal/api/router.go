package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Vilin97/TelegramAIbot/internal/api/middleware"
	"github.com/Vilin97/TelegramAIbot/internal/handlers"
)

// RouterConfig carries the transport-level knobs.
type RouterConfig struct {
	AdminTokenHash string
	TurnLimiter    *middleware.TurnLimiter
}

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	r.Use(middleware.MaxBodySize(64 * 1024)) // 64KB max body
	r.Use(middleware.RequireJSON)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", h.Health)

	// Transport surface: one update per incoming chat message
	r.Group(func(r chi.Router) {
		if cfg.TurnLimiter != nil {
			r.Use(cfg.TurnLimiter.Middleware)
		}
		r.Post("/v1/chats/{chatID}/messages", h.HandleUpdate)
	})

	// Operator surface (bearer token, bcrypt-checked)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Admin(cfg.AdminTokenHash))

		r.Get("/v1/chats/{chatID}/history", h.GetHistory)
		r.Post("/v1/chats/{chatID}/reset", h.ResetChat)
		r.Post("/v1/chats/{chatID}/messages/{messageID}/pin", h.PinMessage)
		r.Delete("/v1/chats/{chatID}/messages/{messageID}", h.DeleteMessage)
	})

	return r
}
