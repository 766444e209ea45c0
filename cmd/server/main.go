package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/linemk/qris-shop/internal/app"
	"github.com/linemk/qris-shop/internal/config"
	"github.com/linemk/qris-shop/internal/lib/logger"
	"github.com/linemk/qris-shop/internal/lib/ratelimit"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// хранилище заказов, доставка оплат и сервисы
	application, err := app.NewApp(ctx, log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.Close()

	limiter := ratelimit.NewPerUser(cfg.Orders.CreateRate, cfg.Orders.CreateBurst)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		application.Reconciler.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		limiter.Run(ctx)
	}()

	router := app.NewRouter(log, app.RouterDeps{
		Auth:      application.Auth,
		Orders:    application.Orders,
		Limiter:   limiter,
		JWTSecret: cfg.JWT.Secret,
		ListLimit: cfg.Orders.ListLimit,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}

	// текущий проход сверки прерывается, хранилище закрывается после него
	cancel()
	wg.Wait()
	log.Info("server gracefully stopped")
}
