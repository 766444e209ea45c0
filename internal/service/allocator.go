package service

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const orderIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// AllocateUniqueAmount возвращает base + случайная добавка из [1, 10^digits - 1].
// По сумме на общем статическом QR определяется, к какому заказу относится платёж.
//
// Добавка НЕ сверяется с суммами других заказов в PENDING: два одновременно
// открытых заказа могут получить одинаковую сумму, и тогда одна подходящая
// транзакция оплатит только тот, что был создан раньше.
func AllocateUniqueAmount(base int64, digits int) int64 {
	if digits < 1 {
		digits = 1
	}
	ceil := int64(1)
	for i := 0; i < digits; i++ {
		ceil *= 10
	}
	return base + 1 + rand.Int63n(ceil-1)
}

// NewOrderID собирает идентификатор вида <prefix>-<unix>-<6 символов A-Z0-9>
func NewOrderID(prefix string, now time.Time) string {
	var sb strings.Builder
	for i := 0; i < 6; i++ {
		sb.WriteByte(orderIDAlphabet[rand.Intn(len(orderIDAlphabet))])
	}
	return fmt.Sprintf("%s-%d-%s", prefix, now.Unix(), sb.String())
}
