// Package stockapp предоставляет маршруты для основного приложения.
package stockapp

import (
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/hookahplace/stock-app/internal/http/handlers/bootstrap"
	"github.com/hookahplace/stock-app/internal/http/handlers/health"
	"github.com/hookahplace/stock-app/internal/http/handlers/register"
	"github.com/hookahplace/stock-app/internal/http/handlers/stocks/consume"
	"github.com/hookahplace/stock-app/internal/http/handlers/stocks/grant"
	"github.com/hookahplace/stock-app/internal/http/handlers/stocks/list"
	"github.com/hookahplace/stock-app/internal/http/handlers/stocks/record"
	"github.com/hookahplace/stock-app/internal/http/middlewarectx"
	bootstrapservice "github.com/hookahplace/stock-app/internal/services/bootstrap"
	ledgerservice "github.com/hookahplace/stock-app/internal/services/ledger"
	userservice "github.com/hookahplace/stock-app/internal/services/user"
	"github.com/hookahplace/stock-app/internal/storage/repository"

	"log/slog"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, db *repository.Storage, userService *userservice.UserService, ledgerService *ledgerservice.LedgerService, bootstrapService *bootstrapservice.BootstrapService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger))

		// Открытые конечные точки
		r.Post("/register", register.New(logger, userService).ServeHTTP)
		r.Get("/bootstrap/{tg_id}", bootstrap.New(logger, bootstrapService).ServeHTTP)
		r.Get("/stocks/{tg_id}", list.New(logger, ledgerService).ServeHTTP)
		r.Post("/stocks/{tg_id}", record.New(logger, ledgerService).ServeHTTP)

		// Начисление и списание требуют Telegram ID инициатора в заголовке
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.TelegramIDMiddleware(logger))
			r.Post("/stocks/{tg_id}/grant", grant.New(logger, ledgerService).ServeHTTP)
			r.Post("/stocks/{tg_id}/consume", consume.New(logger, ledgerService).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
