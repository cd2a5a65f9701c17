package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shop-backend/internal/models"
)

// GetProductReviews retrieves all reviews for a product, newest first.
func (s *Store) GetProductReviews(ctx context.Context, productID string) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.SelectContext(ctx, &reviews,
		"SELECT * FROM reviews WHERE product_id = $1 ORDER BY created_at DESC", productID)
	return reviews, err
}

// GetUserReviews retrieves all reviews written by a user.
func (s *Store) GetUserReviews(ctx context.Context, userID string) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.SelectContext(ctx, &reviews,
		"SELECT * FROM reviews WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return reviews, err
}

// GetReviewByID retrieves a review by ID
func (s *Store) GetReviewByID(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review
	err := s.db.GetContext(ctx, &review, "SELECT * FROM reviews WHERE id = $1", id)
	if err != nil {
		return nil, notFoundIfNoRows(err, "review", id)
	}
	return &review, nil
}

// FindUserProductReview retrieves the review a user wrote for a product.
// Returns (nil, nil) when none exists.
func (s *Store) FindUserProductReview(ctx context.Context, userID, productID string) (*models.Review, error) {
	var review models.Review
	err := s.db.GetContext(ctx, &review,
		"SELECT * FROM reviews WHERE user_id = $1 AND product_id = $2", userID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// CreateReview inserts a review and fills in the generated fields.
func (s *Store) CreateReview(ctx context.Context, r *models.Review) error {
	query := `
		INSERT INTO reviews (user_id, product_id, rating, title, comment, is_verified, is_approved)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, r, query,
		r.UserID, r.ProductID, r.Rating, r.Title, r.Comment, r.IsVerified, r.IsApproved)
}

// UpdateReview overwrites the user-editable fields of a review.
// An edited review loses approval until re-moderated.
func (s *Store) UpdateReview(ctx context.Context, r *models.Review) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE reviews
		SET rating = $1, title = $2, comment = $3, is_approved = FALSE, updated_at = NOW()
		WHERE id = $4`,
		r.Rating, r.Title, r.Comment, r.ID)
	return err
}

// DeleteReview removes a review
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = $1", id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("review %s: %w", id, ErrNotFound)
	}
	return nil
}

// ApproveReview marks a review as approved for public display.
func (s *Store) ApproveReview(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE reviews SET is_approved = TRUE, updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("review %s: %w", id, ErrNotFound)
	}
	return nil
}
