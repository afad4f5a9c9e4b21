package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/storefront-api/internal/model"
)

type CustomerRepository interface {
	GetByID(ctx context.Context, customerID string) (*model.Customer, error)
	// GetByIDTx reads inside an open transaction.
	GetByIDTx(ctx context.Context, tx pgx.Tx, customerID string) (*model.Customer, error)
	Update(ctx context.Context, customer *model.Customer) error
}

type pgCustomerRepo struct{ pool *pgxpool.Pool }

func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &pgCustomerRepo{pool: pool}
}

const customerColumns = `customer_id, company_name, contact_name, contact_title, address,
	city, region, postal_code, country, phone, fax`

func customerFields(c *model.Customer) []any {
	return []any{
		&c.CustomerID, &c.CompanyName, &c.ContactName, &c.ContactTitle, &c.Address,
		&c.City, &c.Region, &c.PostalCode, &c.Country, &c.Phone, &c.Fax,
	}
}

func getCustomer(row pgx.Row) (*model.Customer, error) {
	c := &model.Customer{}
	if err := row.Scan(customerFields(c)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (r *pgCustomerRepo) GetByID(ctx context.Context, customerID string) (*model.Customer, error) {
	return getCustomer(r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE customer_id = $1`, customerID))
}

func (r *pgCustomerRepo) GetByIDTx(ctx context.Context, tx pgx.Tx, customerID string) (*model.Customer, error) {
	return getCustomer(tx.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE customer_id = $1`, customerID))
}

func (r *pgCustomerRepo) Update(ctx context.Context, c *model.Customer) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE customers SET company_name = $2, contact_name = $3, contact_title = $4, address = $5,
		 city = $6, region = $7, postal_code = $8, country = $9, phone = $10, fax = $11
		 WHERE customer_id = $1`,
		c.CustomerID, c.CompanyName, c.ContactName, c.ContactTitle, c.Address,
		c.City, c.Region, c.PostalCode, c.Country, c.Phone, c.Fax,
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
