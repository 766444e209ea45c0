package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/linemk/qris-shop/internal/domain/models"
	"github.com/shopspring/decimal"
)

// Списки допустимых имён полей, берётся первое непустое значение
var (
	ListKeys    = []string{"data", "mutasi", "transactions"}
	AmountKeys  = []string{"amount", "nominal", "credit", "debit"}
	NoteKeys    = []string{"note", "description", "remark"}
	RefKeys     = []string{"ref", "trx_id", "id"}
	TimeKeys    = []string{"time", "timestamp", "date"}
	ErrBadBatch = errors.New("malformed transaction batch")
)

// Normalize разбирает тело ответа фида в список транзакций.
// Ошибка возвращается только если сломан сам пакет; плохая сумма в отдельной
// записи даёт Amount == nil для этой записи.
func Normalize(body map[string]any) ([]models.Transaction, error) {
	list, ok := firstPresent(body, ListKeys)
	if !ok {
		return []models.Transaction{}, nil
	}
	records, ok := list.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: transaction list is %T", ErrBadBatch, list)
	}

	txs := make([]models.Transaction, 0, len(records))
	for i, r := range records {
		rec, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: record %d is %T", ErrBadBatch, i, r)
		}
		txs = append(txs, NormalizeRecord(rec))
	}
	return txs, nil
}

// NormalizeRecord приводит одну запись фида к Transaction
func NormalizeRecord(rec map[string]any) models.Transaction {
	tx := models.Transaction{Raw: rec}

	if v, ok := firstPresent(rec, AmountKeys); ok {
		tx.Amount = ParseAmount(v)
	}
	if v, ok := firstPresent(rec, NoteKeys); ok {
		tx.Note = strings.TrimSpace(toString(v))
	}
	if v, ok := firstPresent(rec, RefKeys); ok {
		tx.Ref = toString(v)
	}
	if v, ok := firstPresent(rec, TimeKeys); ok {
		tx.Time = toString(v)
	}
	return tx
}

// ParseAmount переводит сумму в целые рупии.
// Строки в локальном формате: "." - разделитель тысяч, "," - десятичный ("1.234,56" -> 1234).
// Числа JSON берутся как есть. Дробная часть отбрасывается. nil - если разобрать не удалось.
func ParseAmount(v any) *int64 {
	var (
		d   decimal.Decimal
		err error
	)
	switch val := v.(type) {
	case json.Number:
		d, err = decimal.NewFromString(val.String())
	case float64:
		d = decimal.NewFromFloat(val)
	case string:
		s := strings.TrimSpace(val)
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
		d, err = decimal.NewFromString(s)
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	// вне int64 - не сумма
	whole := d.BigInt()
	if !whole.IsInt64() {
		return nil
	}
	amount := whole.Int64()
	return &amount
}

// firstPresent ищет первый ключ с "истинным" значением: пустые строки, нули и null пропускаются
func firstPresent(m map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || isEmpty(v) {
			continue
		}
		return v, true
	}
	return nil, false
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	case json.Number:
		f, err := val.Float64()
		return err == nil && f == 0
	case float64:
		return val == 0
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	return false
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
