package store

import (
	"context"
	"database/sql"
	"errors"

	"shop-backend/internal/models"
)

// CreateUser inserts a new user and fills in the generated fields.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password, name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, user, query,
		user.Email, user.Password, user.Name, user.Role)
}

// GetUserByEmail retrieves a user by email. Returns (nil, nil) when no user
// exists so callers can branch without unwrapping.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE email = $1", email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err != nil {
		return nil, notFoundIfNoRows(err, "user", id)
	}
	return &user, nil
}
