package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/storefront-api/internal/model"
)

type UserRepository interface {
	// CreateWithCustomer inserts the user and its customer row atomically.
	CreateWithCustomer(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}

type pgUserRepo struct{ pool *pgxpool.Pool }

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepo{pool: pool}
}

func (r *pgUserRepo) CreateWithCustomer(ctx context.Context, user *model.User) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO users (username, password, accept_policy, accept_marketing)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			user.Username, user.PasswordHash, user.AcceptPolicy, user.AcceptMarketing,
		).Scan(&user.ID)
		if err != nil {
			return wrapInsert("create user", err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO customers (customer_id) VALUES ($1)`, user.Username); err != nil {
			return wrapInsert("create customer", err)
		}
		return nil
	})
}

const userColumns = `id, username, password, accept_policy, accept_marketing`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.AcceptPolicy, &u.AcceptMarketing); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (r *pgUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return user, nil
}

func (r *pgUserRepo) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	ct, err := r.pool.Exec(ctx, `UPDATE users SET password = $2 WHERE username = $1`, username, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
