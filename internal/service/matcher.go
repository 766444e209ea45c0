package service

import "github.com/linemk/qris-shop/internal/domain/models"

// Matches - транзакция оплачивает заказ только по точному совпадению суммы.
// Примечание, ссылка и время транзакции не учитываются.
func Matches(order *models.Order, tx models.Transaction) bool {
	if tx.Amount == nil {
		return false
	}
	return *tx.Amount == order.AmountExpected
}
