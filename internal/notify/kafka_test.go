package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/linemk/qris-shop/internal/domain/models"
	"github.com/linemk/qris-shop/internal/notify"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs     []kafka.Message
	err      error
	closed   bool
	deadline bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func paidOrder() models.Order {
	return models.Order{
		OrderID:        "OK-1740823200-AB12CD",
		UserID:         42,
		ProductCode:    "1",
		ProductName:    "VIP channel",
		AmountExpected: 50234,
		Status:         models.OrderStatusPaid,
		CreatedAt:      time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		ExpiresAt:      time.Date(2025, 3, 1, 10, 15, 0, 0, time.UTC),
		PaidRef:        "TX1",
		PaidAt:         "2025-03-01 10:03:11",
		InviteLink:     "https://t.me/+vip",
	}
}

func TestKafkaNotifier_NotifyPaid(t *testing.T) {
	w := &fakeWriter{}
	n := notify.NewKafkaNotifier(w, slog.New(slog.NewTextHandler(os.Stdout, nil)))

	require.NoError(t, n.NotifyPaid(context.Background(), paidOrder()))
	require.Len(t, w.msgs, 1)
	assert.True(t, w.deadline)
	assert.Equal(t, "42", string(w.msgs[0].Key))

	var ev notify.OrderPaidEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, notify.EventOrderPaid, ev.Type)
	assert.Equal(t, "OK-1740823200-AB12CD", ev.OrderID)
	assert.Equal(t, int64(50234), ev.Amount)
	assert.Equal(t, "TX1", ev.PaidRef)
	assert.Equal(t, "https://t.me/+vip", ev.InviteLink)
	_, err := uuid.Parse(ev.EventID)
	assert.NoError(t, err)

	require.NoError(t, n.Close())
	assert.True(t, w.closed)
}

func TestKafkaNotifier_WriteError(t *testing.T) {
	brokerErr := errors.New("leader not available")
	n := notify.NewKafkaNotifier(&fakeWriter{err: brokerErr}, slog.New(slog.NewTextHandler(os.Stdout, nil)))

	err := n.NotifyPaid(context.Background(), paidOrder())
	assert.ErrorIs(t, err, brokerErr)
}

func TestNewOrderPaidEvent_UniqueIDs(t *testing.T) {
	now := time.Now()
	a := notify.NewOrderPaidEvent(paidOrder(), now)
	b := notify.NewOrderPaidEvent(paidOrder(), now)
	assert.NotEqual(t, a.EventID, b.EventID)
}

func TestLogNotifier(t *testing.T) {
	n := notify.NewLogNotifier(slog.New(slog.NewTextHandler(os.Stdout, nil)))
	assert.NoError(t, n.NotifyPaid(context.Background(), paidOrder()))
	assert.NoError(t, n.Close())
}
