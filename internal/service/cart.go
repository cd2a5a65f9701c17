package service

import (
	"context"
	"errors"
	"fmt"

	"shop-backend/internal/models"
	"shop-backend/internal/store"
)

// CartStore is the slice of the store the cart operations need.
type CartStore interface {
	GetCartItems(ctx context.Context, userID string) ([]models.CartItem, error)
	GetCartItemByID(ctx context.Context, id string) (*models.CartItem, error)
	GetCartItem(ctx context.Context, userID, productID string) (*models.CartItem, error)
	CreateCartItem(ctx context.Context, item *models.CartItem) error
	UpdateCartItemQuantity(ctx context.Context, id string, quantity int) error
	DeleteCartItem(ctx context.Context, id string) error
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
}

// CartService manages a user's active cart. Stock checks here are advisory
// (they keep obviously unfillable carts out); the binding check happens in
// the checkout transaction.
type CartService struct {
	store CartStore
}

// NewCartService creates a new cart service
func NewCartService(st CartStore) *CartService {
	return &CartService{store: st}
}

// ListItems retrieves the user's cart lines with live products.
func (s *CartService) ListItems(ctx context.Context, userID string) ([]models.CartItem, error) {
	items, err := s.store.GetCartItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, notFound("no items in cart")
	}
	return items, nil
}

// AddItem puts quantity of a product in the cart, merging with an existing
// line for the same product.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, invalidInput("quantity must be positive")
	}

	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("product not found")
		}
		return nil, err
	}

	if product.Stock < quantity {
		return nil, conflict("insufficient stock for %s: available %d", product.Name, product.Stock)
	}

	existing, err := s.store.GetCartItem(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		newQuantity := existing.Quantity + quantity
		if product.Stock < newQuantity {
			return nil, conflict("insufficient stock for %s: available %d", product.Name, product.Stock)
		}
		if err := s.store.UpdateCartItemQuantity(ctx, existing.ID, newQuantity); err != nil {
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
		existing.Quantity = newQuantity
		return existing, nil
	}

	item := &models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.store.CreateCartItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}
	item.Product = *product
	return item, nil
}

// UpdateItem sets the quantity of an existing cart line, enforcing
// ownership.
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, invalidInput("quantity must be positive")
	}

	item, err := s.store.GetCartItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("cart item not found")
		}
		return nil, err
	}
	if item.UserID != userID {
		return nil, forbidden("you are not authorized to perform this operation")
	}

	if item.Product.Stock < quantity {
		return nil, conflict("insufficient stock for %s: available %d", item.Product.Name, item.Product.Stock)
	}

	if err := s.store.UpdateCartItemQuantity(ctx, itemID, quantity); err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	item.Quantity = quantity
	return item, nil
}

// RemoveItem deletes one cart line, enforcing ownership.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) error {
	item, err := s.store.GetCartItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("cart item not found")
		}
		return err
	}
	if item.UserID != userID {
		return forbidden("you are not authorized to perform this operation")
	}

	return s.store.DeleteCartItem(ctx, itemID)
}
