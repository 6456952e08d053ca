package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/littlequestion/littlequestion/internal/model"
)

// ErrEmailExists is returned when a user with the same email already exists.
var ErrEmailExists = errors.New("email already exists")

const userColumns = `id, email, name, image, created_at, updated_at`

// CreateUser inserts a new user into the database.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, name, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if user.ID == "" {
		user.ID = newID()
	}
	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Image,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// UpsertOAuthUser records a successful provider sign-in.
// The user row is created on first sign-in (keyed by email) and its
// profile fields refreshed afterwards; the provider account link is
// created once. Both writes share one transaction.
func (r *Repository) UpsertOAuthUser(ctx context.Context, profile model.OAuthProfile) (*model.User, error) {
	var user *model.User

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		now := r.now()

		u, err := scanUser(tx.QueryRow(ctx, `
			INSERT INTO users (id, email, name, image, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			ON CONFLICT (email) DO UPDATE
			SET name = EXCLUDED.name, image = EXCLUDED.image, updated_at = EXCLUDED.updated_at
			RETURNING `+userColumns,
			newID(), profile.Email, profile.Name, profile.Image, now,
		))
		if err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO accounts (id, user_id, provider, provider_account_id, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (provider, provider_account_id) DO NOTHING
		`, newID(), u.ID, profile.Provider, profile.ProviderAccountID, now)
		if err != nil {
			return fmt.Errorf("link account: %w", err)
		}

		user = u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert oauth user: %w", err)
	}

	return user, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Image,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
