package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/storefront-api/internal/model"
)

type PaymentRepository interface {
	// Create returns ErrOrderPaid when the order already has a payment and
	// ErrDuplicateKey when the authorization code is already recorded.
	Create(ctx context.Context, p *model.Payment) error
	ListByOrder(ctx context.Context, orderID int) ([]model.Payment, error)
}

const cobroOrderConstraint = "cobro_order_id_key"

type pgPaymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &pgPaymentRepo{pool: pool}
}

func (r *pgPaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO cobro (order_id, customer_id, amount, authorization_code)
		 VALUES ($1, $2, $3, $4) RETURNING id, fecha`,
		p.OrderID, p.CustomerID, p.Amount, p.AuthorizationCode,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if violatedConstraint(err) == cobroOrderConstraint {
			return fmt.Errorf("create payment: %w", ErrOrderPaid)
		}
		return wrapInsert("create payment", err)
	}
	return nil
}

func (r *pgPaymentRepo) ListByOrder(ctx context.Context, orderID int) ([]model.Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, customer_id, amount, authorization_code, fecha
		 FROM cobro WHERE order_id = $1 ORDER BY fecha`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.CustomerID, &p.Amount, &p.AuthorizationCode, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
