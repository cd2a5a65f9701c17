package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"shop-backend/internal/models"
)

// InsufficientStockError is returned from CreateOrderTx when a conditional
// stock decrement touches zero rows: the product's stock changed between
// the coordinator's pre-check and the commit. Available is the stock read
// inside the same transaction.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available=%d, requested=%d",
		e.ProductID, e.Available, e.Requested)
}

// CreateOrderTx commits a checkout as one atomic unit:
//
//  1. decrement each product's stock, guarded by stock >= quantity
//  2. insert the order row
//  3. insert the snapshot line items
//  4. delete all of the user's cart lines
//
// Any failure rolls the whole transaction back, so either every effect is
// applied or none is. The conditional decrement is the authoritative
// oversell guard: of two concurrent checkouts whose combined demand exceeds
// stock, at most a stock-respecting subset commits.
func (s *Store) CreateOrderTx(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	return s.execTx(ctx, func(tx *sqlx.Tx) error {
		for i := range items {
			if err := decrementStock(ctx, tx, items[i].ProductID, items[i].Quantity); err != nil {
				return err
			}
		}

		query := `
			INSERT INTO orders (
				order_number, user_id, status, payment_status, payment_method,
				subtotal, tax, shipping_cost, discount, total,
				shipping_name, shipping_email, shipping_phone, shipping_address,
				shipping_city, shipping_state, shipping_zip, shipping_country,
				customer_notes
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
			RETURNING id, created_at, updated_at`

		err := tx.GetContext(ctx, order, query,
			order.OrderNumber, order.UserID, order.Status, order.PaymentStatus, order.PaymentMethod,
			order.Subtotal, order.Tax, order.ShippingCost, order.Discount, order.Total,
			order.ShippingName, order.ShippingEmail, order.ShippingPhone, order.ShippingAddress,
			order.ShippingCity, order.ShippingState, order.ShippingZip, order.ShippingCountry,
			order.CustomerNotes)
		if err != nil {
			if isUniqueViolation(err, "orders_order_number_key") {
				return ErrOrderNumberTaken
			}
			return fmt.Errorf("failed to insert order: %w", err)
		}

		itemQuery := `
			INSERT INTO order_items (
				order_id, product_id, quantity, price, subtotal,
				product_name, product_description, product_image_url, product_sku
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at`

		for i := range items {
			items[i].OrderID = order.ID
			row := tx.QueryRowxContext(ctx, itemQuery,
				items[i].OrderID, items[i].ProductID, items[i].Quantity,
				items[i].Price, items[i].Subtotal,
				items[i].ProductName, items[i].ProductDescription,
				items[i].ProductImageURL, items[i].ProductSKU)
			if err := row.Scan(&items[i].ID, &items[i].CreatedAt); err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM cart_items WHERE user_id = $1", order.UserID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		order.Items = items
		return nil
	})
}

// decrementStock applies the compare-and-decrement inside the checkout
// transaction. Zero affected rows means either insufficient stock or a
// vanished product; the follow-up read distinguishes the two.
func decrementStock(ctx context.Context, tx *sqlx.Tx, productID string, quantity int) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1",
		quantity, productID)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	var available int
	err = tx.GetContext(ctx, &available, "SELECT stock FROM products WHERE id = $1", productID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read stock: %w", err)
	}

	return &InsufficientStockError{ProductID: productID, Available: available, Requested: quantity}
}

// GetOrderByID retrieves an order with its items.
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err != nil {
		return nil, notFoundIfNoRows(err, "order", id)
	}

	items, err := s.GetOrderItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

// GetOrdersByUserID retrieves a user's orders, newest first, with items.
func (s *Store) GetOrdersByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := s.GetOrderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

// GetOrderItems retrieves all items for an order
func (s *Store) GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY created_at", orderID)
	return items, err
}

// UpdateOrderStatus persists the status fields and timestamps of an order
// after the service layer has validated the transition.
func (s *Store) UpdateOrderStatus(ctx context.Context, order *models.Order) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, payment_status = $2,
		    paid_at = $3, shipped_at = $4, delivered_at = $5, updated_at = NOW()
		WHERE id = $6`,
		order.Status, order.PaymentStatus,
		order.PaidAt, order.ShippedAt, order.DeliveredAt, order.ID)
	return err
}

// HasDeliveredOrderItem reports whether the user has a delivered order
// containing the product. Backs verified reviews.
func (s *Store) HasDeliveredOrderItem(ctx context.Context, userID, productID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1
			FROM order_items oi
			JOIN orders o ON o.id = oi.order_id
			WHERE o.user_id = $1 AND oi.product_id = $2 AND o.status = $3
		)`, userID, productID, models.OrderStatusDelivered)
	return exists, err
}
