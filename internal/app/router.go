package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tempizhere/avbv/internal/config"
	"github.com/tempizhere/avbv/internal/middleware"
	"github.com/tempizhere/avbv/internal/repository"
	"github.com/tempizhere/avbv/internal/service"
	"go.uber.org/zap"
)

// NewRouter собирает маршрутизатор со всеми middleware и обработчиками
func NewRouter(cfg *config.Config, svc *service.Service, db repository.Database, logger *zap.Logger) http.Handler {
	a := NewApp(svc, db, logger)
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.TrustedProxy, logger)

	r := chi.NewRouter()
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(limiter.Middleware)
	r.Use(middleware.GzipMiddleware)

	r.Get("/ping", a.HandlePing)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(svc, svc.TokenTTL(), logger, "DELETE /api/user/videos"))

		r.Post("/", a.HandlePostText)
		r.Get("/{id}", a.HandleConvertText)
		r.Get("/video/{id}", a.HandleRedirect)
		r.Post("/api/convert", a.HandleJSONConvert)
		r.Post("/api/convert/batch", a.HandleBatchConvert)
		r.Get("/api/user/videos", a.HandleUserVideos)
		r.Delete("/api/user/videos", a.HandleDeleteUserVideos)
	})

	r.Route("/api/internal", func(r chi.Router) {
		r.Use(middleware.TrustedSubnetMiddleware(cfg.TrustedSubnet, logger))
		r.Get("/stats", a.HandleStats)
	})

	return r
}
