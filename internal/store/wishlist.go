package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shop-backend/internal/models"
)

// GetWishlist retrieves a user's wishlist with products joined in.
func (s *Store) GetWishlist(ctx context.Context, userID string) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := s.db.SelectContext(ctx, &items, `
		SELECT
			w.id, w.user_id, w.product_id, w.created_at,
			p.id AS "product.id", p.category_id AS "product.category_id",
			p.name AS "product.name", p.description AS "product.description",
			p.image_url AS "product.image_url", p.sku AS "product.sku",
			p.price AS "product.price", p.stock AS "product.stock",
			p.created_at AS "product.created_at", p.updated_at AS "product.updated_at"
		FROM wishlist_items w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC`, userID)
	return items, err
}

// GetWishlistItem retrieves the wishlist entry for a (user, product) pair.
// Returns (nil, nil) when the product is not wishlisted.
func (s *Store) GetWishlistItem(ctx context.Context, userID, productID string) (*models.WishlistItem, error) {
	var item models.WishlistItem
	err := s.db.GetContext(ctx, &item, `
		SELECT id, user_id, product_id, created_at
		FROM wishlist_items
		WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateWishlistItem inserts a wishlist entry.
func (s *Store) CreateWishlistItem(ctx context.Context, item *models.WishlistItem) error {
	query := `
		INSERT INTO wishlist_items (user_id, product_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, item, query, item.UserID, item.ProductID)
}

// DeleteWishlistItem removes a wishlist entry.
func (s *Store) DeleteWishlistItem(ctx context.Context, userID, productID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2", userID, productID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("wishlist item %s: %w", productID, ErrNotFound)
	}
	return nil
}
