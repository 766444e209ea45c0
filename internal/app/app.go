package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/linemk/qris-shop/internal/config"
	"github.com/linemk/qris-shop/internal/feed"
	"github.com/linemk/qris-shop/internal/notify"
	"github.com/linemk/qris-shop/internal/orderstore"
	"github.com/linemk/qris-shop/internal/service"
	"github.com/linemk/qris-shop/internal/storage"
)

// PaidNotifier нотификатор, которого нужно закрыть при остановке
type PaidNotifier interface {
	service.Notifier
	Close() error
}

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *sql.DB // nil при driver: file
	Store    *orderstore.Store
	Notifier PaidNotifier

	Auth       *service.AuthService
	Orders     *service.OrderService
	Reconciler *service.Reconciler
}

// NewApp создаёт новый экземпляр App: хранилище, доставку и сервисы
func NewApp(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: log,
	}

	docs, err := a.openStorage(ctx)
	if err != nil {
		return nil, err
	}

	a.Store, err = orderstore.Open(ctx, log, docs)
	if err != nil {
		a.closeDB()
		return nil, fmt.Errorf("failed to open order store: %w", err)
	}

	if cfg.Kafka.Enabled() {
		writer := notify.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		a.Notifier = notify.NewKafkaNotifier(writer, log)
		log.Info("paid orders are published to kafka", slog.String("topic", cfg.Kafka.Topic))
	} else {
		a.Notifier = notify.NewLogNotifier(log)
	}

	a.Auth, err = service.NewAuthService(log, cfg.BotToken, cfg.JWT.Secret, time.Duration(cfg.JWT.TokenTTL)*time.Minute)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Orders = service.NewOrderService(log, a.Store, cfg.Products, service.PaymentPolicy{
		UniqueDigits:  cfg.Payments.UniqueDigits,
		OrderPrefix:   cfg.Payments.OrderPrefix,
		PaymentWindow: cfg.Payments.PaymentWindow(),
		QRISInfo:      cfg.Payments.QRISInfo,
		QRISImageURL:  cfg.Payments.QRISImageURL,
	})

	feedClient := feed.NewClient(log, feed.Options{
		URL:          cfg.Feed.URL,
		AuthUsername: cfg.Feed.AuthUsername,
		AuthToken:    cfg.Feed.AuthToken,
		Timeout:      cfg.Feed.Timeout,
		VerifySSL:    cfg.Feed.VerifyTLS(),
	})
	a.Reconciler = service.NewReconciler(log, feedClient, a.Store, a.Notifier, cfg.Feed.PollInterval)

	return a, nil
}

func (a *App) openStorage(ctx context.Context) (storage.DocumentStorage, error) {
	switch a.Config.Storage.Driver {
	case config.StoragePostgres:
		db, err := sql.Open("postgres", a.Config.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		a.DB = db
		a.Logger.Info("order document stored in postgres")
		return storage.NewPostgresStorage(db), nil
	default:
		a.Logger.Info("order document stored in file", slog.String("path", a.Config.Storage.Path))
		return storage.NewFileStorage(a.Config.Storage.Path), nil
	}
}

// Close останавливает хранилище и закрывает внешние подключения.
// Вызывается после остановки цикла сверки и HTTP-сервера.
func (a *App) Close() {
	if a.Store != nil {
		a.Store.Close()
	}
	if a.Notifier != nil {
		if err := a.Notifier.Close(); err != nil {
			a.Logger.Error("failed to close notifier", slog.Any("error", err))
		}
	}
	a.closeDB()
}

func (a *App) closeDB() {
	if a.DB == nil {
		return
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("failed to close database", slog.Any("error", err))
	}
}
