package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	cmpHnd "npay-compare/internal/compare/handler"
	"npay-compare/internal/config"
	"npay-compare/internal/middleware"
	"npay-compare/server/http/handlers"
)

func NewRouter(cfg config.Config, logger zerolog.Logger, h *cmpHnd.Handler) *chi.Mux {
	r := chi.NewRouter()

	// order matters: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) * 1024 * 1024))

	r.Get("/health", handlers.Health)

	r.Get("/hospitals", h.Hospitals)
	r.Get("/noncovered", h.NonCovered)

	r.Post("/compare", h.Compare)
	r.Post("/compare/export", h.Export)
	r.Post("/compare/upload", h.Upload)

	return r
}
