package models

import (
	"errors"
	"time"
)

// OrderStatus статус заказа
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusPaid    OrderStatus = "PAID"
	OrderStatusExpired OrderStatus = "EXPIRED"
)

var ErrOrderNotPending = errors.New("order is not pending")

// Order представляет одну попытку покупки по статическому QR.
// Название продукта, цена и invite-ссылка копируются из каталога в момент создания.
type Order struct {
	OrderID        string      `json:"order_id"`
	UserID         int64       `json:"user_id"`
	ProductCode    string      `json:"product_code"`
	ProductName    string      `json:"product_name"`
	AmountExpected int64       `json:"amount_expected"`
	Status         OrderStatus `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	ExpiresAt      time.Time   `json:"expires_at"`
	PaidRef        string      `json:"paid_ref,omitempty"`
	PaidAt         string      `json:"paid_at,omitempty"` // время из фида как есть, либо RFC 3339
	InviteLink     string      `json:"invite_link"`
}

// IsTerminal - PAID и EXPIRED больше не меняются
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusPaid || o.Status == OrderStatusExpired
}

// IsExpired сравнивает now строго после expires_at
func (o *Order) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// MarkAsPaid переводит PENDING заказ в PAID
func (o *Order) MarkAsPaid(ref, paidAt string) error {
	if o.Status != OrderStatusPending {
		return ErrOrderNotPending
	}
	o.Status = OrderStatusPaid
	o.PaidRef = ref
	o.PaidAt = paidAt
	return nil
}

// MarkAsExpired переводит PENDING заказ в EXPIRED
func (o *Order) MarkAsExpired() error {
	if o.Status != OrderStatusPending {
		return ErrOrderNotPending
	}
	o.Status = OrderStatusExpired
	return nil
}
