package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/poseflow/internal/models"
	"github.com/jackc/pgx/v5"
)

// EnsureUser finds or creates a user by login.
// Updates last_seen and display_name on each call.
func (db *DB) EnsureUser(ctx context.Context, login, displayName string) (*models.User, error) {
	var u models.User
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (login, display_name)
		VALUES ($1, $2)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = NOW(), display_name = COALESCE(NULLIF($2, ''), users.display_name)
		RETURNING id, login, display_name, created_at
	`, login, displayName).Scan(&u.ID, &u.Login, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upserting user: %w", err)
	}
	return &u, nil
}

// LookupUser returns the user with the given login, or models.ErrNotFound.
func (db *DB) LookupUser(ctx context.Context, login string) (*models.User, error) {
	var u models.User
	err := db.Pool.QueryRow(ctx,
		`SELECT id, login, display_name, created_at FROM users WHERE login = $1`,
		login).Scan(&u.ID, &u.Login, &u.DisplayName, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}
