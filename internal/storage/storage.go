package storage

import (
	"context"
	"errors"

	"github.com/linemk/qris-shop/internal/domain/models"
)

// ErrCorruptDocument - сохранённый документ не читается. При старте это фатально,
// автоматически не восстанавливаем.
var ErrCorruptDocument = errors.New("order document is corrupt")

// DocumentStorage описывает долговременное хранение всего набора заказов одним документом.
type DocumentStorage interface {
	// Load читает документ. Если его ещё нет - возвращает пустой набор.
	Load(ctx context.Context) (*models.OrderBook, error)
	// Save атомарно заменяет документ целиком.
	Save(ctx context.Context, book *models.OrderBook) error
}
