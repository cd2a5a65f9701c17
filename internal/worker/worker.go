package worker

import (
	"context"

	"go.uber.org/zap"

	"shop-backend/internal/broker"
	"shop-backend/internal/models"
	"shop-backend/internal/service"
	"shop-backend/internal/util"
)

// PaymentWorker consumes payment-provider events and applies them to
// orders through the status transition table.
type PaymentWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.PaymentEventHandler
	logger       *zap.Logger
}

// NewPaymentWorker creates a new payment worker
func NewPaymentWorker(consumer *broker.Consumer, orders *service.OrderService) *PaymentWorker {
	eventHandler := broker.NewPaymentEventHandler()

	eventHandler.OnPaymentSucceeded(func(ctx context.Context, event *models.PaymentSucceededEvent) error {
		return orders.HandlePaymentSucceeded(ctx, event.OrderID)
	})
	eventHandler.OnPaymentFailed(func(ctx context.Context, event *models.PaymentFailedEvent) error {
		return orders.HandlePaymentFailed(ctx, event.OrderID, event.Reason)
	})

	return &PaymentWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start starts the worker
func (w *PaymentWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting payment worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *PaymentWorker) Stop() error {
	w.logger.Info("Stopping payment worker")
	return w.consumer.Close()
}
