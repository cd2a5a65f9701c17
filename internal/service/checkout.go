package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shop-backend/config"
	"shop-backend/internal/models"
	"shop-backend/internal/store"
	"shop-backend/internal/util"
)

// CheckoutStore is the slice of the store the checkout coordinator needs:
// cart lines with live products, and the atomic order commit.
type CheckoutStore interface {
	GetCartItems(ctx context.Context, userID string) ([]models.CartItem, error)
	CreateOrderTx(ctx context.Context, order *models.Order, items []models.OrderItem) error
}

// ProductCacheInvalidator drops cached product reads after checkout
// mutates stock.
type ProductCacheInvalidator interface {
	InvalidateProduct(ctx context.Context, productID string) error
}

// OrderPlacedPublisher publishes the order-placed event after commit.
type OrderPlacedPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
}

// CheckoutService converts a user's cart into a durable order with
// line-item snapshots, adjusts inventory and clears the cart as one
// all-or-nothing unit.
type CheckoutService struct {
	store     CheckoutStore
	cache     ProductCacheInvalidator
	publisher OrderPlacedPublisher
	cfg       config.CheckoutConfig
	logger    *zap.Logger
}

// NewCheckoutService creates a new checkout service. cache and publisher
// may be nil; both are post-commit conveniences, not part of the
// consistency contract.
func NewCheckoutService(
	st CheckoutStore,
	cache ProductCacheInvalidator,
	publisher OrderPlacedPublisher,
	cfg config.CheckoutConfig,
) *CheckoutService {
	return &CheckoutService{
		store:     st,
		cache:     cache,
		publisher: publisher,
		cfg:       cfg,
		logger:    util.GetLogger(),
	}
}

// PlaceOrderRequest carries the shipping snapshot and payment label for a
// checkout. Discount, when present, is a pre-computed amount supplied by an
// external promotion mechanism.
type PlaceOrderRequest struct {
	ShippingName    string          `json:"shipping_name"`
	ShippingEmail   string          `json:"shipping_email"`
	ShippingPhone   string          `json:"shipping_phone"`
	ShippingAddress string          `json:"shipping_address"`
	ShippingCity    string          `json:"shipping_city"`
	ShippingState   string          `json:"shipping_state"`
	ShippingZip     string          `json:"shipping_zip"`
	ShippingCountry string          `json:"shipping_country"`
	PaymentMethod   string          `json:"payment_method"`
	CustomerNotes   string          `json:"customer_notes"`
	Discount        decimal.Decimal `json:"-"`
}

// PlaceOrder runs the checkout for userID's current cart.
//
// Stock is checked twice: once against the same read used for pricing, for
// a friendly early failure, and again inside the transaction via the
// conditional decrement, which is the authoritative guard against two
// concurrent checkouts overselling the same product.
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID string, req *PlaceOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.PlaceOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if err := validateShipping(req); err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("invalid_shipping").Inc()
		return nil, err
	}

	lines, err := s.store.GetCartItems(ctx, userID)
	if err != nil {
		util.CheckoutsFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(lines) == 0 {
		util.CheckoutsFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, notFound("cart is empty")
	}

	for _, line := range lines {
		if line.Product.Stock < line.Quantity {
			util.CheckoutsFailedTotal.WithLabelValues("insufficient_stock").Inc()
			return nil, conflict("insufficient stock for %s: available %d",
				line.Product.Name, line.Product.Stock)
		}
	}

	order, items := s.buildOrder(userID, req, lines)

	// The uniqueness constraint in the store is the real guarantee for the
	// order number; on a collision, regenerate and retry once.
	for attempt := 0; attempt < 2; attempt++ {
		order.OrderNumber = generateOrderNumber(time.Now())
		err = s.store.CreateOrderTx(ctx, order, items)
		if !errors.Is(err, store.ErrOrderNumberTaken) {
			break
		}
		s.logger.Warn("Order number collision, regenerating",
			zap.String("order_number", order.OrderNumber))
	}
	if err != nil {
		return nil, s.classifyCommitError(err, lines)
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID),
		zap.String("total", order.Total.StringFixed(2)))

	s.afterCommit(ctx, order)
	return order, nil
}

// buildOrder prices the cart and assembles the order row plus frozen
// line-item snapshots. Each line subtotal and every aggregate is rounded to
// 2 decimal places at its own boundary, never in between.
func (s *CheckoutService) buildOrder(userID string, req *PlaceOrderRequest, lines []models.CartItem) (*models.Order, []models.OrderItem) {
	items := make([]models.OrderItem, 0, len(lines))
	subtotal := decimal.Zero

	for _, line := range lines {
		lineSubtotal := line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		subtotal = subtotal.Add(lineSubtotal)

		items = append(items, models.OrderItem{
			ProductID:          line.ProductID,
			Quantity:           line.Quantity,
			Price:              line.Product.Price,
			Subtotal:           lineSubtotal,
			ProductName:        line.Product.Name,
			ProductDescription: line.Product.Description,
			ProductImageURL:    line.Product.ImageURL,
			ProductSKU:         line.Product.SKU,
		})
	}

	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(s.cfg.TaxRate).Round(2)
	discount := req.Discount.Round(2)
	total := subtotal.Add(tax).Add(s.cfg.ShippingCost).Sub(discount).Round(2)

	country := req.ShippingCountry
	if country == "" {
		country = s.cfg.DefaultCountry
	}

	return &models.Order{
		UserID:          userID,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		PaymentMethod:   req.PaymentMethod,
		Subtotal:        subtotal,
		Tax:             tax,
		ShippingCost:    s.cfg.ShippingCost,
		Discount:        discount,
		Total:           total,
		ShippingName:    req.ShippingName,
		ShippingEmail:   req.ShippingEmail,
		ShippingPhone:   req.ShippingPhone,
		ShippingAddress: req.ShippingAddress,
		ShippingCity:    req.ShippingCity,
		ShippingState:   req.ShippingState,
		ShippingZip:     req.ShippingZip,
		ShippingCountry: country,
		CustomerNotes:   req.CustomerNotes,
	}, items
}

// classifyCommitError translates transaction failures into the domain
// taxonomy. Anything unrecognized stays a plain persistence failure so the
// caller can tell "fix your input" from "retry later".
func (s *CheckoutService) classifyCommitError(err error, lines []models.CartItem) error {
	var stockErr *store.InsufficientStockError
	if errors.As(err, &stockErr) {
		util.CheckoutsFailedTotal.WithLabelValues("insufficient_stock").Inc()
		name := stockErr.ProductID
		for _, line := range lines {
			if line.ProductID == stockErr.ProductID {
				name = line.Product.Name
				break
			}
		}
		return conflict("insufficient stock for %s: available %d", name, stockErr.Available)
	}

	if errors.Is(err, store.ErrNotFound) {
		util.CheckoutsFailedTotal.WithLabelValues("product_missing").Inc()
		return &Error{Kind: KindNotFound, Message: "product no longer exists", Err: err}
	}

	util.CheckoutsFailedTotal.WithLabelValues("db_error").Inc()
	return fmt.Errorf("failed to place order: %w", err)
}

// afterCommit performs best-effort side work: cache invalidation for the
// decremented products and the order-placed event. Failures here never
// affect the committed order.
func (s *CheckoutService) afterCommit(ctx context.Context, order *models.Order) {
	if s.cache != nil {
		for _, item := range order.Items {
			if err := s.cache.InvalidateProduct(ctx, item.ProductID); err != nil {
				s.logger.Warn("Failed to invalidate product cache",
					zap.String("product_id", item.ProductID),
					zap.Error(err))
			}
		}
	}

	if s.publisher != nil {
		event := &models.OrderPlacedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderPlaced,
				Timestamp: time.Now(),
			},
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID,
			Total:       order.Total.StringFixed(2),
		}
		for _, item := range order.Items {
			event.Items = append(event.Items, models.OrderItemData{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     item.Price.StringFixed(2),
			})
		}

		if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
			s.logger.Error("Failed to publish order placed event",
				zap.String("order_id", order.ID),
				zap.Error(err))
		}
	}
}

func validateShipping(req *PlaceOrderRequest) error {
	required := []struct {
		field, value string
	}{
		{"shipping_name", req.ShippingName},
		{"shipping_email", req.ShippingEmail},
		{"shipping_address", req.ShippingAddress},
		{"shipping_city", req.ShippingCity},
		{"shipping_zip", req.ShippingZip},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return invalidInput("missing required shipping field: %s", f.field)
		}
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return invalidInput("missing required field: payment_method")
	}
	if req.Discount.IsNegative() {
		return invalidInput("discount must not be negative")
	}
	return nil
}

const orderNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// generateOrderNumber builds a human-legible token: base-36 millisecond
// timestamp plus 4 random base-36 characters, e.g. ORD-LZX2M81K-4QZD.
func generateOrderNumber(now time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))

	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = orderNumberAlphabet[rand.Intn(len(orderNumberAlphabet))]
	}

	return fmt.Sprintf("ORD-%s-%s", ts, suffix)
}
