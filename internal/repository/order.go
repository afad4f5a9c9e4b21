package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/storefront-api/internal/model"
)

type OrderRepository interface {
	Insert(ctx context.Context, tx pgx.Tx, order *model.Order) error
	InsertDetails(ctx context.Context, tx pgx.Tx, details []model.OrderDetail) error
	GetByID(ctx context.Context, id int) (*model.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]model.OrderSummary, error)
	Recent(ctx context.Context, limit int) ([]model.OrderSummary, error)
	UpsertStatus(ctx context.Context, status *model.OrderStatus) error
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

func (r *pgOrderRepo) Insert(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	err := tx.QueryRow(ctx,
		`INSERT INTO orders (customer_id, order_date) VALUES ($1, $2) RETURNING order_id`,
		order.CustomerID, order.OrderDate,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) InsertDetails(ctx context.Context, tx pgx.Tx, details []model.OrderDetail) error {
	for _, d := range details {
		_, err := tx.Exec(ctx,
			`INSERT INTO order_details (order_id, product_id, unit_price, quantity, discount)
			 VALUES ($1, $2, $3, $4, $5)`,
			d.OrderID, d.ProductID, d.UnitPrice, d.Quantity, d.Discount.InexactFloat64(),
		)
		if err != nil {
			return fmt.Errorf("insert order detail: %w", err)
		}
	}
	return nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id int) (*model.Order, error) {
	order := &model.Order{}
	err := r.pool.QueryRow(ctx,
		`SELECT o.order_id, o.customer_id, o.order_date,
		        COALESCE(s.status, 'pending'),
		        CASE WHEN EXISTS (SELECT 1 FROM cobro WHERE order_id = o.order_id) THEN 'paid' ELSE 'pending' END
		 FROM orders o LEFT JOIN order_status s ON s.order_id = o.order_id
		 WHERE o.order_id = $1`, id,
	).Scan(&order.ID, &order.CustomerID, &order.OrderDate, &order.Status, &order.PaymentStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT od.product_id, p.product_name, od.unit_price, od.quantity, od.discount::numeric
		 FROM order_details od JOIN products p ON p.product_id = od.product_id
		 WHERE od.order_id = $1 ORDER BY od.product_id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("get order details: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		d := model.OrderDetail{OrderID: order.ID}
		if err := rows.Scan(&d.ProductID, &d.ProductName, &d.UnitPrice, &d.Quantity, &d.Discount); err != nil {
			return nil, fmt.Errorf("scan order detail: %w", err)
		}
		order.Details = append(order.Details, d)
	}
	return order, rows.Err()
}

const orderSummarySelect = `SELECT o.order_id, o.order_date, COALESCE(o.customer_id, ''),
	COALESCE(c.company_name, ''), COALESCE(c.contact_name, ''),
	COALESCE((SELECT SUM(od.unit_price * od.quantity * (1 - od.discount::numeric))
	          FROM order_details od WHERE od.order_id = o.order_id), 0)::numeric(12, 2),
	COALESCE(s.status, 'pending'),
	CASE WHEN EXISTS (SELECT 1 FROM cobro WHERE order_id = o.order_id) THEN 'paid' ELSE 'pending' END
	FROM orders o
	LEFT JOIN customers c ON c.customer_id = o.customer_id
	LEFT JOIN order_status s ON s.order_id = o.order_id`

func collectSummaries(rows pgx.Rows) ([]model.OrderSummary, error) {
	defer rows.Close()
	var out []model.OrderSummary
	for rows.Next() {
		var s model.OrderSummary
		if err := rows.Scan(&s.OrderID, &s.OrderDate, &s.CustomerID, &s.CompanyName, &s.ContactName,
			&s.Total, &s.Status, &s.PaymentStatus); err != nil {
			return nil, fmt.Errorf("scan order summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *pgOrderRepo) ListByCustomer(ctx context.Context, customerID string) ([]model.OrderSummary, error) {
	rows, err := r.pool.Query(ctx,
		orderSummarySelect+` WHERE o.customer_id = $1 ORDER BY o.order_date DESC, o.order_id DESC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return collectSummaries(rows)
}

func (r *pgOrderRepo) Recent(ctx context.Context, limit int) ([]model.OrderSummary, error) {
	rows, err := r.pool.Query(ctx,
		orderSummarySelect+` ORDER BY o.order_date DESC, o.order_id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent orders: %w", err)
	}
	return collectSummaries(rows)
}

func (r *pgOrderRepo) UpsertStatus(ctx context.Context, s *model.OrderStatus) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO order_status (order_id, status, updated_by, updated_at, notes)
		 VALUES ($1, $2, $3, NOW(), NULLIF($4, ''))
		 ON CONFLICT (order_id) DO UPDATE SET
		   status = EXCLUDED.status, updated_by = EXCLUDED.updated_by,
		   updated_at = EXCLUDED.updated_at, notes = EXCLUDED.notes
		 RETURNING updated_at`,
		s.OrderID, s.Status, s.UpdatedBy, s.Notes,
	).Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert order status: %w", err)
	}
	return nil
}
