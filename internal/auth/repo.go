package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/inventario/internal/platform/db"
	"github.com/odyssey-erp/inventario/internal/shared"
)

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	UpsertUser(ctx context.Context, username, passwordHash string) (*User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(q db.DBTX) *PGRepository {
	return &PGRepository{db: q}
}

// FindByUsername fetches a user by username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx, `SELECT id, username, password_hash, is_active, created_at FROM users WHERE username = $1`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	return &u, nil
}

// UpsertUser creates the user or resets its password.
func (r *PGRepository) UpsertUser(ctx context.Context, username, passwordHash string) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (username, password_hash) VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash, is_active = TRUE
		RETURNING id, username, password_hash, is_active, created_at`, username, passwordHash).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("auth: upsert user: %w", err)
	}
	return &u, nil
}

var _ Repository = (*PGRepository)(nil)
