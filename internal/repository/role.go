package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/storefront-api/internal/model"
)

type RoleRepository interface {
	// GetRole returns model.RoleUser when the user has no role row.
	GetRole(ctx context.Context, username string) (string, error)
	SetRole(ctx context.Context, username, role string) error
}

type pgRoleRepo struct{ pool *pgxpool.Pool }

func NewRoleRepository(pool *pgxpool.Pool) RoleRepository {
	return &pgRoleRepo{pool: pool}
}

func (r *pgRoleRepo) GetRole(ctx context.Context, username string) (string, error) {
	var role string
	err := r.pool.QueryRow(ctx, `SELECT role FROM user_roles WHERE username = $1`, username).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RoleUser, nil
		}
		return "", fmt.Errorf("get role: %w", err)
	}
	return role, nil
}

func (r *pgRoleRepo) SetRole(ctx context.Context, username, role string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_roles (username, role) VALUES ($1, $2)
		 ON CONFLICT (username) DO UPDATE SET role = EXCLUDED.role, updated_at = NOW()`,
		username, role,
	)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}
