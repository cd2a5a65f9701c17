package service

import (
	"context"
	"errors"
	"fmt"

	"shop-backend/internal/models"
	"shop-backend/internal/store"
)

// WishlistStore is the slice of the store the wishlist needs.
type WishlistStore interface {
	GetWishlist(ctx context.Context, userID string) ([]models.WishlistItem, error)
	GetWishlistItem(ctx context.Context, userID, productID string) (*models.WishlistItem, error)
	CreateWishlistItem(ctx context.Context, item *models.WishlistItem) error
	DeleteWishlistItem(ctx context.Context, userID, productID string) error
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
}

// WishlistService manages a user's saved products.
type WishlistService struct {
	store WishlistStore
}

// NewWishlistService creates a new wishlist service
func NewWishlistService(st WishlistStore) *WishlistService {
	return &WishlistService{store: st}
}

// List retrieves the user's wishlist.
func (s *WishlistService) List(ctx context.Context, userID string) ([]models.WishlistItem, error) {
	items, err := s.store.GetWishlist(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}
	if len(items) == 0 {
		return nil, notFound("no wishlist found")
	}
	return items, nil
}

// Add saves a product to the wishlist.
func (s *WishlistService) Add(ctx context.Context, userID, productID string) (*models.WishlistItem, error) {
	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("product not found")
		}
		return nil, err
	}

	existing, err := s.store.GetWishlistItem(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, alreadyExists("product already in wishlist")
	}

	item := &models.WishlistItem{UserID: userID, ProductID: productID}
	if err := s.store.CreateWishlistItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add wishlist item: %w", err)
	}
	item.Product = *product
	return item, nil
}

// Remove deletes a product from the wishlist.
func (s *WishlistService) Remove(ctx context.Context, userID, productID string) error {
	existing, err := s.store.GetWishlistItem(ctx, userID, productID)
	if err != nil {
		return err
	}
	if existing == nil {
		return notFound("product not in wishlist")
	}

	return s.store.DeleteWishlistItem(ctx, userID, productID)
}

// Contains reports whether the product is in the user's wishlist.
func (s *WishlistService) Contains(ctx context.Context, userID, productID string) (bool, error) {
	existing, err := s.store.GetWishlistItem(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}
