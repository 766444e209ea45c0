package service_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/linemk/qris-shop/internal/domain/models"
	"github.com/linemk/qris-shop/internal/orderstore"
	"github.com/linemk/qris-shop/internal/storage"
	"github.com/stretchr/testify/require"
)

var errFlush = errors.New("disk full")

// memStorage хранит последний сохранённый документ в памяти
type memStorage struct {
	mu      sync.Mutex
	book    *models.OrderBook
	saves   int
	saveErr error
}

var _ storage.DocumentStorage = (*memStorage)(nil)

func (m *memStorage) Load(ctx context.Context) (*models.OrderBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.book == nil {
		return models.NewOrderBook(), nil
	}
	return m.book.Clone(), nil
}

func (m *memStorage) Save(ctx context.Context, book *models.OrderBook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.book = book.Clone()
	m.saves++
	return nil
}

func (m *memStorage) setSaveErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

func (m *memStorage) saved() (*models.OrderBook, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.book == nil {
		return models.NewOrderBook(), m.saves
	}
	return m.book.Clone(), m.saves
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// openStore открывает хранилище с заранее заданными заказами
func openStore(t *testing.T, orders ...*models.Order) (*orderstore.Store, *memStorage) {
	t.Helper()

	book := models.NewOrderBook()
	for _, o := range orders {
		require.NoError(t, book.Add(o))
	}
	mem := &memStorage{book: book}

	store, err := orderstore.Open(context.Background(), testLogger(), mem)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store, mem
}

func snapshot(t *testing.T, store *orderstore.Store, id string) models.Order {
	t.Helper()
	var (
		out models.Order
		ok  bool
	)
	require.NoError(t, store.View(context.Background(), func(book *models.OrderBook) {
		var o *models.Order
		o, ok = book.Get(id)
		if ok {
			out = *o
		}
	}))
	require.True(t, ok, "order %s not found", id)
	return out
}

var baseTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func pendingOrder(id string, userID, amount int64, createdAt time.Time) *models.Order {
	return &models.Order{
		OrderID:        id,
		UserID:         userID,
		ProductCode:    "1",
		ProductName:    "VIP channel",
		AmountExpected: amount,
		Status:         models.OrderStatusPending,
		CreatedAt:      createdAt,
		ExpiresAt:      createdAt.Add(15 * time.Minute),
		InviteLink:     "https://t.me/+vip",
	}
}

func amount(v int64) *int64 {
	return &v
}

type fakeFeed struct {
	txs []models.Transaction
	err error
}

func (f *fakeFeed) Fetch(ctx context.Context) ([]models.Transaction, error) {
	return f.txs, f.err
}

type fakeNotifier struct {
	mu       sync.Mutex
	notified []models.Order
	failFor  map[string]bool
	panicFor map[string]bool
}

func (f *fakeNotifier) NotifyPaid(ctx context.Context, order models.Order) error {
	if f.panicFor[order.OrderID] {
		panic("chat gateway exploded")
	}
	if f.failFor[order.OrderID] {
		return errors.New("chat unreachable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, order)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notified)
}
