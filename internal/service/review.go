package service

import (
	"context"
	"errors"
	"fmt"

	"shop-backend/internal/models"
	"shop-backend/internal/store"
)

// ReviewStore is the slice of the store the review flows need.
type ReviewStore interface {
	GetProductReviews(ctx context.Context, productID string) ([]models.Review, error)
	GetUserReviews(ctx context.Context, userID string) ([]models.Review, error)
	GetReviewByID(ctx context.Context, id string) (*models.Review, error)
	FindUserProductReview(ctx context.Context, userID, productID string) (*models.Review, error)
	CreateReview(ctx context.Context, r *models.Review) error
	UpdateReview(ctx context.Context, r *models.Review) error
	DeleteReview(ctx context.Context, id string) error
	ApproveReview(ctx context.Context, id string) error
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	HasDeliveredOrderItem(ctx context.Context, userID, productID string) (bool, error)
}

// ReviewService manages product reviews: one per (user, product), verified
// when the reviewer has a delivered order containing the product, and held
// for moderation until approved.
type ReviewService struct {
	store ReviewStore
}

// NewReviewService creates a new review service
func NewReviewService(st ReviewStore) *ReviewService {
	return &ReviewService{store: st}
}

// ProductReviews bundles a product's reviews with their average rating.
type ProductReviews struct {
	Reviews       []models.Review `json:"reviews"`
	AverageRating float64         `json:"average_rating"`
}

// GetProductReviews retrieves a product's reviews and average rating.
func (s *ReviewService) GetProductReviews(ctx context.Context, productID string) (*ProductReviews, error) {
	reviews, err := s.store.GetProductReviews(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	if len(reviews) == 0 {
		return nil, notFound("no reviews found")
	}

	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}

	return &ProductReviews{
		Reviews:       reviews,
		AverageRating: float64(sum) / float64(len(reviews)),
	}, nil
}

// GetUserReviews retrieves all reviews written by the user.
func (s *ReviewService) GetUserReviews(ctx context.Context, userID string) ([]models.Review, error) {
	reviews, err := s.store.GetUserReviews(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	if len(reviews) == 0 {
		return nil, notFound("no reviews found")
	}
	return reviews, nil
}

// Create adds a review for a product the user has not reviewed yet.
func (s *ReviewService) Create(ctx context.Context, userID, productID string, rating int, title, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, invalidInput("rating must be between 1 and 5")
	}

	if _, err := s.store.GetProductByID(ctx, productID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("product not found")
		}
		return nil, err
	}

	existing, err := s.store.FindUserProductReview(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, alreadyExists("you have already reviewed this product")
	}

	verified, err := s.store.HasDeliveredOrderItem(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to check purchase history: %w", err)
	}

	review := &models.Review{
		UserID:     userID,
		ProductID:  productID,
		Rating:     rating,
		Title:      title,
		Comment:    comment,
		IsVerified: verified,
		IsApproved: false,
	}
	if err := s.store.CreateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return review, nil
}

// Update edits the user's own review.
func (s *ReviewService) Update(ctx context.Context, userID, reviewID string, rating int, title, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, invalidInput("rating must be between 1 and 5")
	}

	review, err := s.store.GetReviewByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("review not found")
		}
		return nil, err
	}
	if review.UserID != userID {
		return nil, forbidden("you are not authorized to perform this operation")
	}

	review.Rating = rating
	review.Title = title
	review.Comment = comment
	review.IsApproved = false

	if err := s.store.UpdateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	return review, nil
}

// Delete removes the user's own review.
func (s *ReviewService) Delete(ctx context.Context, userID, reviewID string) error {
	review, err := s.store.GetReviewByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("review not found")
		}
		return err
	}
	if review.UserID != userID {
		return forbidden("you are not authorized to perform this operation")
	}

	return s.store.DeleteReview(ctx, reviewID)
}

// Approve marks a review as publicly visible. Admin only; role enforcement
// happens in the API layer.
func (s *ReviewService) Approve(ctx context.Context, reviewID string) error {
	if err := s.store.ApproveReview(ctx, reviewID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("review not found")
		}
		return fmt.Errorf("failed to approve review: %w", err)
	}
	return nil
}
