package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/linemk/qris-shop/internal/app/handlers"
	"github.com/linemk/qris-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/qris-shop/internal/lib/logger/handlers/urllog"
	"github.com/linemk/qris-shop/internal/lib/ratelimit"
	"github.com/linemk/qris-shop/internal/service"
)

type RouterDeps struct {
	Auth      service.AuthServiceInterface
	Orders    service.OrderServiceInterface
	Limiter   *ratelimit.PerUser
	JWTSecret string
	ListLimit int
}

// NewRouter собирает HTTP API для шлюза чата
func NewRouter(log *slog.Logger, deps RouterDeps) http.Handler {
	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// эндпоинт для аутентификации
	router.Post("/api/auth", handlers.AuthHandler(log, deps.Auth))

	router.Group(func(r chi.Router) {
		r.Use(jwtmiddleware.NewJWTMiddleware(deps.JWTSecret))

		// открыть меню каталога
		r.Get("/api/catalog", handlers.CatalogHandler(log, deps.Orders))
		r.Get("/api/orders", handlers.ListOrdersHandler(log, deps.Orders, deps.ListLimit))

		// выбор позиции, создание заказа ограничено по частоте
		r.With(deps.Limiter.Middleware(log)).
			Post("/api/orders", handlers.CreateOrderHandler(log, deps.Orders))
	})

	return router
}
