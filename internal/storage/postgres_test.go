package storage_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/linemk/qris-shop/internal/domain/models"
	"github.com/linemk/qris-shop/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// documentContains проверяет, что сохраняемый документ содержит все подстроки в заданном порядке
type documentContains []string

func (d documentContains) Match(v driver.Value) bool {
	rest, ok := v.(string)
	if !ok {
		return false
	}
	for _, part := range d {
		idx := strings.Index(rest, part)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(part):]
	}
	return true
}

func TestPostgresLoad_Success(t *testing.T) {
	// Создаем sqlmock для эмуляции базы данных.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewPostgresStorage(db)

	doc := `{"orders":{"OK-2-B":{"order_id":"OK-2-B","user_id":7,"amount_expected":50234,"status":"PENDING",
		"created_at":"2025-03-01T10:00:00Z","expires_at":"2025-03-01T10:15:00Z"},
		"OK-1-A":{"order_id":"OK-1-A","user_id":7,"amount_expected":50235,"status":"PAID","paid_ref":"TX1",
		"created_at":"2025-03-01T09:00:00Z","expires_at":"2025-03-01T09:15:00Z"}}}`
	rows := sqlmock.NewRows([]string{"document"}).AddRow([]byte(doc))
	mock.ExpectQuery("SELECT document FROM order_state WHERE id = \\$1").
		WithArgs(1).WillReturnRows(rows)

	book, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, book.Len())
	assert.Equal(t, "OK-2-B", book.Orders()[0].OrderID)
	assert.Equal(t, "TX1", book.Orders()[1].PaidRef)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoad_NoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewPostgresStorage(db)

	// Эмулируем ситуацию, когда документа ещё нет.
	mock.ExpectQuery("SELECT document FROM order_state WHERE id = \\$1").
		WithArgs(1).WillReturnRows(sqlmock.NewRows([]string{"document"}))

	book, err := repo.Load(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, book.Len())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoad_Corrupt(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewPostgresStorage(db)

	rows := sqlmock.NewRows([]string{"document"}).AddRow([]byte(`{"orders": [`))
	mock.ExpectQuery("SELECT document FROM order_state WHERE id = \\$1").
		WithArgs(1).WillReturnRows(rows)

	book, err := repo.Load(context.Background())
	assert.Nil(t, book)
	assert.True(t, errors.Is(err, storage.ErrCorruptDocument))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoad_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewPostgresStorage(db)

	// Эмулируем ошибку выполнения запроса.
	mock.ExpectQuery("SELECT document FROM order_state WHERE id = \\$1").
		WithArgs(1).WillReturnError(errors.New("db error"))

	book, err := repo.Load(context.Background())
	assert.Error(t, err)
	assert.Nil(t, book)
	assert.False(t, errors.Is(err, storage.ErrCorruptDocument))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSave_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewPostgresStorage(db)

	book := models.NewOrderBook()
	require.NoError(t, book.Add(&models.Order{OrderID: "OK-9-Z", Status: models.OrderStatusPending}))
	require.NoError(t, book.Add(&models.Order{OrderID: "OK-1-A", Status: models.OrderStatusPending}))

	mock.ExpectExec("INSERT INTO order_state \\(id, document, updated_at\\) VALUES \\(\\$1, \\$2, NOW\\(\\)\\) ON CONFLICT").
		WithArgs(1, documentContains{`"OK-9-Z"`, `"OK-1-A"`}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Save(context.Background(), book)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSave_ExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewPostgresStorage(db)

	mock.ExpectExec("INSERT INTO order_state").
		WithArgs(1, sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	err = repo.Save(context.Background(), models.NewOrderBook())
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
