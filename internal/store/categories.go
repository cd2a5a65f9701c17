package store

import (
	"context"
	"fmt"

	"shop-backend/internal/models"
)

// GetCategories retrieves all categories ordered for display.
func (s *Store) GetCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.SelectContext(ctx, &categories,
		"SELECT * FROM categories ORDER BY sort_order, name")
	return categories, err
}

// GetCategoryBySlug retrieves a category by slug
func (s *Store) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := s.db.GetContext(ctx, &category, "SELECT * FROM categories WHERE slug = $1", slug)
	if err != nil {
		return nil, notFoundIfNoRows(err, "category", slug)
	}
	return &category, nil
}

// CreateCategory inserts a new category and fills in the generated fields.
func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (name, slug, description, image_url, sort_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, c, query,
		c.Name, c.Slug, c.Description, c.ImageURL, c.SortOrder, c.IsActive)
}

// UpdateCategory overwrites the mutable fields of a category.
func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE categories
		SET name = $1, slug = $2, description = $3, image_url = $4,
		    sort_order = $5, is_active = $6, updated_at = NOW()
		WHERE id = $7`,
		c.Name, c.Slug, c.Description, c.ImageURL, c.SortOrder, c.IsActive, c.ID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("category %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

// DeleteCategory removes a category
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return nil
}
