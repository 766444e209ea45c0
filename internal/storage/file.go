package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/linemk/qris-shop/internal/domain/models"
)

// fileStorage хранит документ в JSON-файле
type fileStorage struct {
	path string
}

// NewFileStorage создаёт файловое хранилище документа заказов.
func NewFileStorage(path string) DocumentStorage {
	return &fileStorage{path: path}
}

func (s *fileStorage) Load(ctx context.Context) (*models.OrderBook, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.NewOrderBook(), nil
		}
		return nil, fmt.Errorf("failed to read order document: %w", err)
	}

	book := models.NewOrderBook()
	if err := json.Unmarshal(data, book); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, s.path, err)
	}
	return book, nil
}

// Save пишет во временный файл рядом и переименовывает его поверх старого,
// поэтому при падении посередине остаётся предыдущий целый снимок.
func (s *fileStorage) Save(ctx context.Context, book *models.OrderBook) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(book, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal order document: %w", err)
	}

	tmpPath := s.path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write order document: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync order document: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace order document: %w", err)
	}
	return nil
}
