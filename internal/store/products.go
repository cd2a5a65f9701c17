package store

import (
	"context"
	"fmt"

	"shop-backend/internal/models"
)

// GetProducts retrieves all products
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, "SELECT * FROM products ORDER BY created_at DESC")
	return products, err
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err != nil {
		return nil, notFoundIfNoRows(err, "product", id)
	}
	return &product, nil
}

// CreateProduct inserts a new product and fills in the generated fields.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (category_id, name, description, image_url, sku, price, stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, p, query,
		p.CategoryID, p.Name, p.Description, p.ImageURL, p.SKU, p.Price, p.Stock)
}

// UpdateProduct overwrites the mutable catalog fields of a product.
// Stock set here is an administrative correction; checkout decrements go
// through CreateOrderTx.
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET category_id = $1, name = $2, description = $3, image_url = $4,
		    sku = $5, price = $6, stock = $7, updated_at = NOW()
		WHERE id = $8`,
		p.CategoryID, p.Name, p.Description, p.ImageURL, p.SKU, p.Price, p.Stock, p.ID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("product %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

// DeleteProduct removes a product
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}
