package store

import (
	"context"
	"database/sql"
	"errors"

	"shop-backend/internal/models"
)

const cartItemColumns = `
	ci.id, ci.user_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
	p.id AS "product.id", p.category_id AS "product.category_id",
	p.name AS "product.name", p.description AS "product.description",
	p.image_url AS "product.image_url", p.sku AS "product.sku",
	p.price AS "product.price", p.stock AS "product.stock",
	p.created_at AS "product.created_at", p.updated_at AS "product.updated_at"`

// GetCartItems retrieves a user's cart lines with the live product joined in.
func (s *Store) GetCartItems(ctx context.Context, userID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := s.db.SelectContext(ctx, &items, `
		SELECT`+cartItemColumns+`
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at`, userID)
	return items, err
}

// GetCartItemByID retrieves one cart line with its product.
func (s *Store) GetCartItemByID(ctx context.Context, id string) (*models.CartItem, error) {
	var item models.CartItem
	err := s.db.GetContext(ctx, &item, `
		SELECT`+cartItemColumns+`
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.id = $1`, id)
	if err != nil {
		return nil, notFoundIfNoRows(err, "cart item", id)
	}
	return &item, nil
}

// GetCartItem retrieves the cart line for a (user, product) pair.
// Returns (nil, nil) when the product is not in the cart.
func (s *Store) GetCartItem(ctx context.Context, userID, productID string) (*models.CartItem, error) {
	var item models.CartItem
	err := s.db.GetContext(ctx, &item, `
		SELECT`+cartItemColumns+`
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1 AND ci.product_id = $2`, userID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateCartItem inserts a new cart line.
func (s *Store) CreateCartItem(ctx context.Context, item *models.CartItem) error {
	query := `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, item, query,
		item.UserID, item.ProductID, item.Quantity)
}

// UpdateCartItemQuantity sets the quantity of an existing cart line.
func (s *Store) UpdateCartItemQuantity(ctx context.Context, id string, quantity int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE cart_items SET quantity = $1, updated_at = NOW() WHERE id = $2",
		quantity, id)
	return err
}

// DeleteCartItem removes one cart line. Full-cart clearing happens only
// inside the checkout transaction (see CreateOrderTx).
func (s *Store) DeleteCartItem(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cart_items WHERE id = $1", id)
	return err
}
