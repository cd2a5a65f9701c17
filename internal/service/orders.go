package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shop-backend/internal/models"
	"shop-backend/internal/store"
	"shop-backend/internal/util"
)

// OrderStore is the slice of the store the order lifecycle needs.
type OrderStore interface {
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID string) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, order *models.Order) error
}

// StatusChangedPublisher publishes accepted status transitions.
type StatusChangedPublisher interface {
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// OrderService reads orders and drives the post-creation status machine.
// It never touches totals or line items; those are frozen at checkout.
type OrderService struct {
	store     OrderStore
	publisher StatusChangedPublisher
	logger    *zap.Logger
}

// NewOrderService creates a new order service. publisher may be nil.
func NewOrderService(st OrderStore, publisher StatusChangedPublisher) *OrderService {
	return &OrderService{
		store:     st,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// ListUserOrders retrieves all of a user's orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := s.store.GetOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if len(orders) == 0 {
		return nil, notFound("orders not found")
	}
	return orders, nil
}

// GetUserOrder retrieves one order, enforcing ownership.
func (s *OrderService) GetUserOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("order not found")
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, forbidden("you are not authorized to perform this operation")
	}
	return order, nil
}

// UpdateStatus applies a fulfillment transition. Moves not in the
// transition table are rejected; the timestamp matching the entered state
// is set on first entry only.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, next models.OrderStatus) (*models.Order, error) {
	if !next.Valid() {
		return nil, invalidInput("unknown order status: %s", next)
	}

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("order not found")
		}
		return nil, err
	}

	from := order.Status
	if !from.CanTransitionTo(next) {
		return nil, conflict("cannot transition order from %s to %s", from, next)
	}

	now := time.Now()
	switch next {
	case models.OrderStatusPaid:
		if order.PaidAt == nil {
			order.PaidAt = &now
		}
	case models.OrderStatusShipped:
		if order.ShippedAt == nil {
			order.ShippedAt = &now
		}
	case models.OrderStatusDelivered:
		if order.DeliveredAt == nil {
			order.DeliveredAt = &now
		}
	}
	order.Status = next

	if err := s.store.UpdateOrderStatus(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.announceTransition(ctx, order.ID, from, next, now)

	return order, nil
}

// announceTransition records a persisted status change: metric, log line and
// the status-changed event. Best-effort; the transition is already durable.
func (s *OrderService) announceTransition(ctx context.Context, orderID string, from, to models.OrderStatus, at time.Time) {
	util.OrderStatusTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	s.logger.Info("Order status changed",
		zap.String("order_id", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))

	if s.publisher == nil {
		return
	}
	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderStatusChanged,
			Timestamp: at,
		},
		OrderID: orderID,
		From:    from,
		To:      to,
	}
	if err := s.publisher.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish status changed event",
			zap.String("order_id", orderID),
			zap.Error(err))
	}
}

// HandlePaymentSucceeded marks an order's payment as received and advances
// the fulfillment status to PAID. Invoked by the payment worker.
//
// Both dimensions go down in a single write. The consumer is at-least-once,
// so the handler must converge on replay from any partial state, including
// payment recorded but fulfillment not yet advanced.
func (s *OrderService) HandlePaymentSucceeded(ctx context.Context, orderID string) error {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}

	advance := order.Status.CanTransitionTo(models.OrderStatusPaid)
	if !order.PaymentStatus.CanTransitionTo(models.PaymentStatusPaid) && !advance {
		s.logger.Warn("Ignoring payment success for already paid order",
			zap.String("order_id", orderID))
		return nil
	}

	from := order.Status
	now := time.Now()
	order.PaymentStatus = models.PaymentStatusPaid
	if advance {
		order.Status = models.OrderStatusPaid
		if order.PaidAt == nil {
			order.PaidAt = &now
		}
	}

	if err := s.store.UpdateOrderStatus(ctx, order); err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}

	if advance {
		s.announceTransition(ctx, order.ID, from, order.Status, now)
	}
	return nil
}

// HandlePaymentFailed records a failed payment attempt. The order stays in
// its current fulfillment state so payment can be retried.
func (s *OrderService) HandlePaymentFailed(ctx context.Context, orderID, reason string) error {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !order.PaymentStatus.CanTransitionTo(models.PaymentStatusFailed) {
		return nil
	}
	order.PaymentStatus = models.PaymentStatusFailed

	s.logger.Warn("Payment failed",
		zap.String("order_id", orderID),
		zap.String("reason", reason))

	return s.store.UpdateOrderStatus(ctx, order)
}
