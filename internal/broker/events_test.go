package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-backend/internal/models"
)

func paymentMessage(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: value}
}

func TestPaymentEventHandlerRoutesSucceeded(t *testing.T) {
	handler := NewPaymentEventHandler()

	var got *models.PaymentSucceededEvent
	handler.OnPaymentSucceeded(func(ctx context.Context, event *models.PaymentSucceededEvent) error {
		got = event
		return nil
	})

	msg := paymentMessage(t, &models.PaymentSucceededEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "e1",
			EventType: models.EventTypePaymentSucceeded,
			Timestamp: time.Now(),
		},
		OrderID: "order-1",
		Amount:  "278.74",
		TxID:    "tx-99",
	})

	require.NoError(t, handler.HandleMessage(context.Background(), msg))
	require.NotNil(t, got)
	assert.Equal(t, "order-1", got.OrderID)
	assert.Equal(t, "tx-99", got.TxID)
}

func TestPaymentEventHandlerRoutesFailed(t *testing.T) {
	handler := NewPaymentEventHandler()

	var got *models.PaymentFailedEvent
	handler.OnPaymentFailed(func(ctx context.Context, event *models.PaymentFailedEvent) error {
		got = event
		return nil
	})

	msg := paymentMessage(t, &models.PaymentFailedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "e2",
			EventType: models.EventTypePaymentFailed,
			Timestamp: time.Now(),
		},
		OrderID: "order-1",
		Reason:  "card declined",
	})

	require.NoError(t, handler.HandleMessage(context.Background(), msg))
	require.NotNil(t, got)
	assert.Equal(t, "card declined", got.Reason)
}

func TestPaymentEventHandlerIgnoresUnknownTypes(t *testing.T) {
	handler := NewPaymentEventHandler()
	handler.OnPaymentSucceeded(func(ctx context.Context, event *models.PaymentSucceededEvent) error {
		t.Fatal("should not be called")
		return nil
	})

	msg := paymentMessage(t, &models.BaseEvent{
		EventID:   "e3",
		EventType: "SOMETHING_ELSE",
		Timestamp: time.Now(),
	})

	assert.NoError(t, handler.HandleMessage(context.Background(), msg))
}

func TestPaymentEventHandlerRejectsGarbage(t *testing.T) {
	handler := NewPaymentEventHandler()

	err := handler.HandleMessage(context.Background(), kafka.Message{Value: []byte("{not json")})
	assert.Error(t, err)
}
