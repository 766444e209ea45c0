package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/linemk/qris-shop/internal/domain/models"
	"github.com/linemk/qris-shop/internal/orderstore"
)

// OrderStore доступ к набору заказов. Реализуется orderstore.Store.
type OrderStore interface {
	Mutate(ctx context.Context, fn orderstore.MutateFunc) error
	View(ctx context.Context, fn orderstore.ViewFunc) error
}

// TransactionFeed источник свежих транзакций
type TransactionFeed interface {
	Fetch(ctx context.Context) ([]models.Transaction, error)
}

// Notifier доставляет покупателю оплаченный заказ
type Notifier interface {
	NotifyPaid(ctx context.Context, order models.Order) error
}

// PassOutcome результат применения пакета транзакций к набору заказов
type PassOutcome struct {
	Expired []models.Order
	Paid    []models.Order
}

func (o PassOutcome) Changed() bool {
	return len(o.Expired) > 0 || len(o.Paid) > 0
}

// ApplyPass проходит заказы в порядке вставки и меняет статусы на месте.
//
// Просроченный PENDING заказ уходит в EXPIRED без проверки транзакций.
// Остальные PENDING оплачиваются первой подходящей транзакцией пакета.
// Одна транзакция оплачивает не больше одного заказа: использованная в этом
// проходе запись пакета пропускается, как и транзакция, чей непустой ref
// уже записан в paid_ref оплаченного заказа.
func ApplyPass(book *models.OrderBook, txs []models.Transaction, now time.Time) PassOutcome {
	var out PassOutcome

	settledRefs := make(map[string]struct{})
	for _, o := range book.Orders() {
		if o.Status == models.OrderStatusPaid && o.PaidRef != "" {
			settledRefs[o.PaidRef] = struct{}{}
		}
	}
	used := make([]bool, len(txs))

	for _, order := range book.Orders() {
		if order.Status != models.OrderStatusPending {
			continue
		}

		if order.IsExpired(now) {
			if err := order.MarkAsExpired(); err == nil {
				out.Expired = append(out.Expired, *order)
			}
			continue
		}

		for i, tx := range txs {
			if used[i] {
				continue
			}
			if _, seen := settledRefs[tx.Ref]; tx.Ref != "" && seen {
				continue
			}
			if !Matches(order, tx) {
				continue
			}

			paidAt := tx.Time
			if paidAt == "" {
				paidAt = now.UTC().Format(time.RFC3339)
			}
			if err := order.MarkAsPaid(tx.Ref, paidAt); err != nil {
				break
			}
			used[i] = true
			if tx.Ref != "" {
				settledRefs[tx.Ref] = struct{}{}
			}
			out.Paid = append(out.Paid, *order)
			break
		}
	}

	return out
}

// PassResult итог одного прохода сверки
type PassResult struct {
	Fetched      int
	Expired      []models.Order
	Paid         []models.Order
	NotifyFailed int
	Err          error
}

type Reconciler struct {
	log      *slog.Logger
	feed     TransactionFeed
	store    OrderStore
	notifier Notifier
	interval time.Duration
	now      func() time.Time
}

func NewReconciler(
	log *slog.Logger,
	feed TransactionFeed,
	store OrderStore,
	notifier Notifier,
	interval time.Duration,
) *Reconciler {
	return &Reconciler{
		log:      log.With(slog.String("component", "reconciler")),
		feed:     feed,
		store:    store,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
	}
}

// WithClock подменяет источник текущего времени
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// RunPass: fetch, оценка, одна запись состояния, уведомления.
// Ошибка получения или сохранения прерывает только этот проход.
func (r *Reconciler) RunPass(ctx context.Context) PassResult {
	const op = "service.Reconciler.RunPass"
	logger := r.log.With(slog.String("op", op))

	var res PassResult

	txs, err := r.feed.Fetch(ctx)
	if err != nil {
		logger.Error("failed to fetch transactions", slog.Any("error", err))
		res.Err = fmt.Errorf("%s: fetch: %w", op, err)
		return res
	}
	res.Fetched = len(txs)

	var outcome PassOutcome
	err = r.store.Mutate(ctx, func(book *models.OrderBook) (bool, error) {
		outcome = ApplyPass(book, txs, r.now())
		return outcome.Changed(), nil
	})
	if err != nil {
		logger.Error("failed to apply pass", slog.Any("error", err))
		res.Err = fmt.Errorf("%s: apply: %w", op, err)
		return res
	}
	res.Expired = outcome.Expired
	res.Paid = outcome.Paid

	for _, order := range res.Paid {
		if err := r.dispatch(ctx, order); err != nil {
			res.NotifyFailed++
			logger.Error("failed to notify buyer",
				slog.String("order_id", order.OrderID),
				slog.Int64("user_id", order.UserID),
				slog.Any("error", err),
			)
		}
	}

	if len(res.Paid) > 0 || len(res.Expired) > 0 {
		logger.Info("pass applied",
			slog.Int("fetched", res.Fetched),
			slog.Int("paid", len(res.Paid)),
			slog.Int("expired", len(res.Expired)),
			slog.Int("notify_failed", res.NotifyFailed),
		)
	} else {
		logger.Debug("pass applied", slog.Int("fetched", res.Fetched))
	}
	return res
}

// dispatch не даёт панике в доставщике остановить цикл сверки
func (r *Reconciler) dispatch(ctx context.Context, order models.Order) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("notifier panic: %v", p)
		}
	}()
	return r.notifier.NotifyPaid(ctx, order)
}

// Run повторяет проходы с фиксированной паузой до отмены контекста.
func (r *Reconciler) Run(ctx context.Context) {
	r.log.Info("reconciliation loop started", slog.Duration("interval", r.interval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("reconciliation loop stopped")
			return
		case <-timer.C:
		}

		r.RunPass(ctx)
		timer.Reset(r.interval)
	}
}
