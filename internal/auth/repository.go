package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-events/backend/internal/models"
)

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, password_hash, full_name, created_at, updated_at`

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, email, passwordHash, fullName string) (*models.User, error) {
	const q = `INSERT INTO users (email, password_hash, full_name) VALUES ($1, $2, $3)
		RETURNING ` + userColumns
	var u models.User
	err := r.pool.QueryRow(ctx, q, email, passwordHash, fullName).
		Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
