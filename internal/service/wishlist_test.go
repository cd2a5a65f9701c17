package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-backend/internal/models"
	"shop-backend/internal/store"
)

type fakeWishlistStore struct {
	products map[string]*models.Product
	items    map[string]*models.WishlistItem // userID|productID
	nextID   int
}

func newFakeWishlistStore(products ...*models.Product) *fakeWishlistStore {
	f := &fakeWishlistStore{
		products: make(map[string]*models.Product),
		items:    make(map[string]*models.WishlistItem),
	}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeWishlistStore) key(userID, productID string) string {
	return userID + "|" + productID
}

func (f *fakeWishlistStore) GetWishlist(ctx context.Context, userID string) ([]models.WishlistItem, error) {
	var out []models.WishlistItem
	for _, item := range f.items {
		if item.UserID == userID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeWishlistStore) GetWishlistItem(ctx context.Context, userID, productID string) (*models.WishlistItem, error) {
	item, ok := f.items[f.key(userID, productID)]
	if !ok {
		return nil, nil
	}
	clone := *item
	return &clone, nil
}

func (f *fakeWishlistStore) CreateWishlistItem(ctx context.Context, item *models.WishlistItem) error {
	f.nextID++
	item.ID = fmt.Sprintf("wish-%d", f.nextID)
	clone := *item
	f.items[f.key(item.UserID, item.ProductID)] = &clone
	return nil
}

func (f *fakeWishlistStore) DeleteWishlistItem(ctx context.Context, userID, productID string) error {
	delete(f.items, f.key(userID, productID))
	return nil
}

func (f *fakeWishlistStore) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, store.ErrNotFound)
	}
	clone := *p
	return &clone, nil
}

func TestWishlistAddAndRemove(t *testing.T) {
	st := newFakeWishlistStore(&models.Product{ID: "p1", Name: "Mug"})
	svc := NewWishlistService(st)

	item, err := svc.Add(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "Mug", item.Product.Name)

	ok, err := svc.Contains(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.Remove(context.Background(), "u1", "p1"))

	ok, err = svc.Contains(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWishlistAddDuplicate(t *testing.T) {
	st := newFakeWishlistStore(&models.Product{ID: "p1", Name: "Mug"})
	svc := NewWishlistService(st)

	_, err := svc.Add(context.Background(), "u1", "p1")
	require.NoError(t, err)

	_, err = svc.Add(context.Background(), "u1", "p1")
	require.Error(t, err)
	assert.Equal(t, KindAlreadyExists, KindOf(err))
}

func TestWishlistUnknownProduct(t *testing.T) {
	svc := NewWishlistService(newFakeWishlistStore())

	_, err := svc.Add(context.Background(), "u1", "missing")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestWishlistRemoveMissing(t *testing.T) {
	svc := NewWishlistService(newFakeWishlistStore(&models.Product{ID: "p1"}))

	err := svc.Remove(context.Background(), "u1", "p1")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}
