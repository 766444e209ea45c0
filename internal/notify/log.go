package notify

import (
	"context"
	"log/slog"

	"github.com/linemk/qris-shop/internal/domain/models"
)

// LogNotifier пишет оплату в лог. Используется, когда брокер не настроен.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyPaid(_ context.Context, order models.Order) error {
	n.log.Info("order paid",
		slog.String("order_id", order.OrderID),
		slog.Int64("user_id", order.UserID),
		slog.String("product", order.ProductName),
		slog.Int64("amount", order.AmountExpected),
		slog.String("paid_ref", order.PaidRef),
		slog.String("invite_link", order.InviteLink),
	)
	return nil
}

func (n *LogNotifier) Close() error {
	return nil
}
