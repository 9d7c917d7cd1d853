// Package users persists attendee and admin accounts.
package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/1Sidetechnology/webinaire-backend/internal/models"
	"github.com/1Sidetechnology/webinaire-backend/pkg/apperr"
)

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a user repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert finds a user by email or creates one. On conflict the name and
// company are refreshed; email and role never change through this path.
func (r *Repository) Upsert(ctx context.Context, u *models.User) error {
	if u.Role == "" {
		u.Role = models.RoleAttendee
	}
	const q = `INSERT INTO users (email, name, company, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (LOWER(email)) DO UPDATE
		SET name = EXCLUDED.name, company = EXCLUDED.company, updated_at = NOW()
		RETURNING id, email, role, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, strings.ToLower(u.Email), u.Name, u.Company, u.Role).
		Scan(&u.ID, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt)
}

// GetByEmail returns a user by email, case-insensitive.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT id, email, name, COALESCE(company, ''), role, COALESCE(password_hash, ''), created_at, updated_at
		FROM users WHERE LOWER(email) = LOWER($1)`
	var u models.User
	err := r.pool.QueryRow(ctx, q, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.Company, &u.Role, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const q = `SELECT id, email, name, COALESCE(company, ''), role, COALESCE(password_hash, ''), created_at, updated_at
		FROM users WHERE id = $1`
	var u models.User
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.Company, &u.Role, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetPassword stores a bcrypt hash for an admin account.
func (r *Repository) SetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	const q = `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, hash, id)
	return err
}
