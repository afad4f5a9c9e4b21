package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/storefront-api/internal/model"
)

type CartRepository interface {
	// SetQuantity upserts on (product, cart) and drops the cart's zero rows.
	// An anonymous row is claimed by a signed-in caller; a row owned by
	// someone else is left alone and ErrCartEntryOwned is returned.
	SetQuantity(ctx context.Context, entry model.CartEntry) error
	Lines(ctx context.Context, cartID string) ([]model.CartLine, error)

	ListByCartOrUser(ctx context.Context, tx pgx.Tx, cartID, username string) ([]model.CartEntry, error)
	DeleteByCartOrUser(ctx context.Context, tx pgx.Tx, cartID, username string) error
	Insert(ctx context.Context, tx pgx.Tx, entry model.CartEntry) error

	// OrderLines and Clear select rows of cartID that are anonymous or owned
	// by username; both use the same predicate.
	OrderLines(ctx context.Context, tx pgx.Tx, cartID, username string) ([]model.CartLine, error)
	Clear(ctx context.Context, tx pgx.Tx, cartID, username string) error
}

type pgCartRepo struct{ pool *pgxpool.Pool }

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{pool: pool}
}

func (r *pgCartRepo) SetQuantity(ctx context.Context, e model.CartEntry) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO cesta (product_id, cesta_id, username, cantidad)
			 VALUES ($1, $2, NULLIF($3, ''), $4)
			 ON CONFLICT (product_id, cesta_id) DO UPDATE SET
			   cantidad = EXCLUDED.cantidad,
			   username = COALESCE(EXCLUDED.username, cesta.username)
			 WHERE cesta.username IS NULL OR cesta.username = EXCLUDED.username`,
			e.ProductID, e.CartID, e.Username, e.Quantity,
		)
		if err != nil {
			return fmt.Errorf("upsert cart entry: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("upsert cart entry: %w", ErrCartEntryOwned)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM cesta WHERE cesta_id = $1 AND cantidad = 0`, e.CartID); err != nil {
			return fmt.Errorf("delete empty cart entries: %w", err)
		}
		return nil
	})
}

const cartLineSelect = `SELECT p.product_id, p.product_name, p.category_id, COALESCE(cat.category_name, ''),
	p.unit_price, p.units_in_stock, p.discontinued <> 0, c.cantidad
	FROM cesta c
	JOIN products p ON p.product_id = c.product_id
	LEFT JOIN categories cat ON cat.category_id = p.category_id`

func collectLines(rows pgx.Rows) ([]model.CartLine, error) {
	defer rows.Close()
	var lines []model.CartLine
	for rows.Next() {
		var l model.CartLine
		p := &l.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.CategoryID, &p.CategoryName,
			&p.UnitPrice, &p.UnitsInStock, &p.Discontinued, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *pgCartRepo) Lines(ctx context.Context, cartID string) ([]model.CartLine, error) {
	rows, err := r.pool.Query(ctx, cartLineSelect+` WHERE c.cesta_id = $1 ORDER BY p.product_id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("get cart lines: %w", err)
	}
	return collectLines(rows)
}

func (r *pgCartRepo) ListByCartOrUser(ctx context.Context, tx pgx.Tx, cartID, username string) ([]model.CartEntry, error) {
	rows, err := tx.Query(ctx,
		`SELECT product_id, cesta_id, COALESCE(username, ''), cantidad
		 FROM cesta WHERE username = $1 OR cesta_id = $2 ORDER BY product_id`,
		username, cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("list cart entries: %w", err)
	}
	defer rows.Close()

	var entries []model.CartEntry
	for rows.Next() {
		var e model.CartEntry
		if err := rows.Scan(&e.ProductID, &e.CartID, &e.Username, &e.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *pgCartRepo) DeleteByCartOrUser(ctx context.Context, tx pgx.Tx, cartID, username string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM cesta WHERE username = $1 OR cesta_id = $2`, username, cartID); err != nil {
		return fmt.Errorf("delete cart entries: %w", err)
	}
	return nil
}

func (r *pgCartRepo) Insert(ctx context.Context, tx pgx.Tx, e model.CartEntry) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO cesta (product_id, cesta_id, username, cantidad)
		 VALUES ($1, $2, NULLIF($3, ''), $4)
		 ON CONFLICT (product_id, cesta_id) DO UPDATE SET cantidad = EXCLUDED.cantidad, username = EXCLUDED.username`,
		e.ProductID, e.CartID, e.Username, e.Quantity,
	)
	if err != nil {
		return fmt.Errorf("insert cart entry: %w", err)
	}
	return nil
}

const orderableRows = `c.cesta_id = $1 AND (c.username IS NULL OR c.username = $2)`

func (r *pgCartRepo) OrderLines(ctx context.Context, tx pgx.Tx, cartID, username string) ([]model.CartLine, error) {
	rows, err := tx.Query(ctx, cartLineSelect+` WHERE `+orderableRows+` ORDER BY p.product_id`, cartID, username)
	if err != nil {
		return nil, fmt.Errorf("get order lines: %w", err)
	}
	return collectLines(rows)
}

func (r *pgCartRepo) Clear(ctx context.Context, tx pgx.Tx, cartID, username string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM cesta c WHERE `+orderableRows, cartID, username); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
