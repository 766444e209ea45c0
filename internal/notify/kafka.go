package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/linemk/qris-shop/internal/domain/models"
	"github.com/segmentio/kafka-go"
)

const EventOrderPaid = "order.paid"

// OrderPaidEvent сообщение для шлюза чата: по нему покупатель получает invite-ссылку
type OrderPaidEvent struct {
	EventID     string    `json:"event_id"`
	Type        string    `json:"type"`
	OccurredAt  time.Time `json:"occurred_at"`
	OrderID     string    `json:"order_id"`
	UserID      int64     `json:"user_id"`
	ProductCode string    `json:"product_code"`
	ProductName string    `json:"product_name"`
	Amount      int64     `json:"amount"`
	PaidRef     string    `json:"paid_ref,omitempty"`
	PaidAt      string    `json:"paid_at,omitempty"`
	InviteLink  string    `json:"invite_link"`
}

func NewOrderPaidEvent(order models.Order, now time.Time) OrderPaidEvent {
	return OrderPaidEvent{
		EventID:     uuid.NewString(),
		Type:        EventOrderPaid,
		OccurredAt:  now.UTC(),
		OrderID:     order.OrderID,
		UserID:      order.UserID,
		ProductCode: order.ProductCode,
		ProductName: order.ProductName,
		Amount:      order.AmountExpected,
		PaidRef:     order.PaidRef,
		PaidAt:      order.PaidAt,
		InviteLink:  order.InviteLink,
	}
}

// MessageWriter часть kafka.Writer, которой пользуется нотификатор
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaNotifier struct {
	writer       MessageWriter
	log          *slog.Logger
	writeTimeout time.Duration
}

func NewKafkaWriter(brokers []string, topic string, log *slog.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		Logger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Debug(fmt.Sprintf(msg, args...))
		}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Error(fmt.Sprintf(msg, args...))
		}),
	}
}

func NewKafkaNotifier(writer MessageWriter, log *slog.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		writer:       writer,
		log:          log.With(slog.String("component", "kafka_notifier")),
		writeTimeout: 10 * time.Second,
	}
}

// NotifyPaid публикует order.paid синхронно, ключ сообщения - user_id,
// чтобы события одного покупателя шли в одну партицию.
func (n *KafkaNotifier) NotifyPaid(ctx context.Context, order models.Order) error {
	const op = "notify.KafkaNotifier.NotifyPaid"

	value, err := json.Marshal(NewOrderPaidEvent(order, time.Now()))
	if err != nil {
		return fmt.Errorf("%s: failed to marshal event: %w", op, err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, n.writeTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", order.UserID)),
		Value: value,
	}
	if err := n.writer.WriteMessages(writeCtx, msg); err != nil {
		return fmt.Errorf("%s: failed to write message: %w", op, err)
	}

	n.log.Debug("order.paid published",
		slog.String("op", op),
		slog.String("order_id", order.OrderID),
	)
	return nil
}

func (n *KafkaNotifier) Close() error {
	if err := n.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	n.log.Info("kafka writer closed")
	return nil
}
