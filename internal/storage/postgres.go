package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/linemk/qris-shop/internal/domain/models"
)

// documentID - в таблице order_state всегда одна строка
const documentID = 1

// postgresStorage хранит тот же документ в одной строке таблицы order_state.
// Колонка типа JSON (не JSONB), чтобы порядок ключей не терялся.
type postgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage создаёт хранилище документа поверх Postgres.
func NewPostgresStorage(db *sql.DB) DocumentStorage {
	return &postgresStorage{db: db}
}

func (s *postgresStorage) Load(ctx context.Context) (*models.OrderBook, error) {
	var data []byte
	row := s.db.QueryRowContext(ctx, "SELECT document FROM order_state WHERE id = $1", documentID)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NewOrderBook(), nil
		}
		return nil, fmt.Errorf("failed to load order document: %w", err)
	}

	book := models.NewOrderBook()
	if err := json.Unmarshal(data, book); err != nil {
		return nil, fmt.Errorf("%w: order_state: %v", ErrCorruptDocument, err)
	}
	return book, nil
}

// Save заменяет документ одним upsert-запросом.
// Документ передаётся строкой: []byte lib/pq отправляет как bytea.
func (s *postgresStorage) Save(ctx context.Context, book *models.OrderBook) error {
	data, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("failed to marshal order document: %w", err)
	}

	query := `INSERT INTO order_state (id, document, updated_at) VALUES ($1, $2, NOW())
	          ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()`
	if _, err := s.db.ExecContext(ctx, query, documentID, string(data)); err != nil {
		return fmt.Errorf("failed to save order document: %w", err)
	}
	return nil
}
