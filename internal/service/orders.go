package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/linemk/qris-shop/internal/domain/models"
)

// CancelCode код выбора, закрывающий меню каталога
const CancelCode = "0"

const DefaultListLimit = 10

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrSelectionCancelled = errors.New("selection cancelled")
)

// PaymentPolicy параметры выставления счёта
type PaymentPolicy struct {
	UniqueDigits  int
	OrderPrefix   string
	PaymentWindow time.Duration
	QRISInfo      string
	QRISImageURL  string
}

// PaymentInstructions то, что показывается покупателю после создания заказа
type PaymentInstructions struct {
	Amount       int64     `json:"amount"`
	ExpiresAt    time.Time `json:"expires_at"`
	QRISInfo     string    `json:"qris_info,omitempty"`
	QRISImageURL string    `json:"qris_image_url,omitempty"`
}

type CatalogItem struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type OrderServiceInterface interface {
	Catalog() []CatalogItem
	CreateOrder(ctx context.Context, userID int64, productCode string) (*models.Order, PaymentInstructions, error)
	ListOrders(ctx context.Context, userID int64, limit int) ([]models.Order, error)
}

type OrderService struct {
	log     *slog.Logger
	store   OrderStore
	catalog map[string]models.Product
	policy  PaymentPolicy
	now     func() time.Time
}

func NewOrderService(log *slog.Logger, store OrderStore, catalog map[string]models.Product, policy PaymentPolicy) *OrderService {
	return &OrderService{
		log:     log,
		store:   store,
		catalog: catalog,
		policy:  policy,
		now:     time.Now,
	}
}

// WithClock подменяет источник текущего времени
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

// Catalog возвращает позиции, отсортированные по коду
func (s *OrderService) Catalog() []CatalogItem {
	items := make([]CatalogItem, 0, len(s.catalog))
	for code, p := range s.catalog {
		items = append(items, CatalogItem{Code: code, Name: p.Name, Price: p.Price})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Code < items[j].Code })
	return items
}

// CreateOrder создаёт PENDING заказ с уникальной суммой и сразу сохраняет его.
func (s *OrderService) CreateOrder(ctx context.Context, userID int64, productCode string) (*models.Order, PaymentInstructions, error) {
	const op = "service.OrderService.CreateOrder"
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("user_id", userID),
		slog.String("product_code", productCode),
	)

	if productCode == CancelCode {
		logger.Info("selection cancelled")
		return nil, PaymentInstructions{}, ErrSelectionCancelled
	}

	product, ok := s.catalog[productCode]
	if !ok {
		logger.Warn("unknown product")
		return nil, PaymentInstructions{}, fmt.Errorf("%s: %w", op, ErrProductNotFound)
	}

	now := s.now().UTC()
	order := models.Order{
		OrderID:        NewOrderID(s.policy.OrderPrefix, now),
		UserID:         userID,
		ProductCode:    productCode,
		ProductName:    product.Name,
		AmountExpected: AllocateUniqueAmount(product.Price, s.policy.UniqueDigits),
		Status:         models.OrderStatusPending,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.policy.PaymentWindow),
		InviteLink:     product.InviteLink,
	}

	err := s.store.Mutate(ctx, func(book *models.OrderBook) (bool, error) {
		stored := order
		if err := book.Add(&stored); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		logger.Error("failed to store order", slog.Any("error", err))
		return nil, PaymentInstructions{}, fmt.Errorf("%s: failed to store order: %w", op, err)
	}

	logger.Info("order created",
		slog.String("order_id", order.OrderID),
		slog.Int64("amount", order.AmountExpected),
	)

	return &order, PaymentInstructions{
		Amount:       order.AmountExpected,
		ExpiresAt:    order.ExpiresAt,
		QRISInfo:     s.policy.QRISInfo,
		QRISImageURL: s.policy.QRISImageURL,
	}, nil
}

// ListOrders последние заказы покупателя, новые первыми.
func (s *OrderService) ListOrders(ctx context.Context, userID int64, limit int) ([]models.Order, error) {
	const op = "service.OrderService.ListOrders"

	if limit <= 0 {
		limit = DefaultListLimit
	}

	var orders []models.Order
	err := s.store.View(ctx, func(book *models.OrderBook) {
		for _, o := range book.Orders() {
			if o.UserID == userID {
				orders = append(orders, *o)
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}
