package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"shop-backend/internal/models"
	"shop-backend/internal/store"
	"shop-backend/internal/util"
)

// CatalogStore is the slice of the store the catalog needs.
type CatalogStore interface {
	GetProducts(ctx context.Context) ([]models.Product, error)
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
	GetCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id string) error
}

// ProductCache is a read-through cache for single-product lookups. All
// methods are best-effort: a cache failure falls back to the store.
type ProductCache interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	SetProduct(ctx context.Context, p *models.Product) error
	InvalidateProduct(ctx context.Context, id string) error
}

// CatalogService serves products and categories. Single-product reads go
// through Redis first with a DB fallback; every write invalidates.
type CatalogService struct {
	store  CatalogStore
	cache  ProductCache
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service. cache may be nil.
func NewCatalogService(st CatalogStore, cache ProductCache) *CatalogService {
	return &CatalogService{
		store:  st,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// ListProducts retrieves all products.
func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.store.GetProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if len(products) == 0 {
		return nil, notFound("products not found")
	}
	return products, nil
}

// GetProduct retrieves one product, cache first.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if s.cache != nil {
		cached, err := s.cache.GetProduct(ctx, id)
		if err != nil {
			s.logger.Warn("Product cache read failed, falling back to DB",
				zap.String("product_id", id),
				zap.Error(err))
		} else if cached != nil {
			util.ProductCacheHitsTotal.Inc()
			return cached, nil
		} else {
			util.ProductCacheMissesTotal.Inc()
		}
	}

	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("product not found")
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetProduct(ctx, product); err != nil {
			s.logger.Warn("Product cache write failed",
				zap.String("product_id", id),
				zap.Error(err))
		}
	}
	return product, nil
}

// CreateProduct adds a product to the catalog.
func (s *CatalogService) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	if p.Price.IsNegative() {
		return nil, invalidInput("price must not be negative")
	}
	if p.Stock < 0 {
		return nil, invalidInput("stock must not be negative")
	}

	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}

// UpdateProduct overwrites a product's catalog fields and invalidates the
// cache entry.
func (s *CatalogService) UpdateProduct(ctx context.Context, p *models.Product) error {
	if p.Price.IsNegative() {
		return invalidInput("price must not be negative")
	}
	if p.Stock < 0 {
		return invalidInput("stock must not be negative")
	}

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("product not found")
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	s.invalidate(ctx, p.ID)
	return nil
}

// DeleteProduct removes a product and invalidates the cache entry.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("product not found")
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.invalidate(ctx, id)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProduct(ctx, id); err != nil {
		s.logger.Warn("Failed to invalidate product cache",
			zap.String("product_id", id),
			zap.Error(err))
	}
}

// ListCategories retrieves all categories.
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.store.GetCategories(ctx)
}

// GetCategory retrieves a category by slug.
func (s *CatalogService) GetCategory(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.store.GetCategoryBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("category not found")
		}
		return nil, err
	}
	return category, nil
}

// CreateCategory adds a category, deriving its slug from the name.
func (s *CatalogService) CreateCategory(ctx context.Context, c *models.Category) (*models.Category, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, invalidInput("category name is required")
	}
	c.Slug = GenerateSlug(c.Name)

	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return c, nil
}

// UpdateCategory overwrites a category, re-deriving the slug when the name
// changed.
func (s *CatalogService) UpdateCategory(ctx context.Context, c *models.Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return invalidInput("category name is required")
	}
	c.Slug = GenerateSlug(c.Name)

	if err := s.store.UpdateCategory(ctx, c); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("category not found")
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

// DeleteCategory removes a category.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("category not found")
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSlug lower-cases a name and collapses every non-alphanumeric run
// into a single hyphen.
func GenerateSlug(name string) string {
	slug := slugCleaner.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
