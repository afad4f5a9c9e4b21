package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/storefront-api/internal/model"
)

type ProductFilter struct {
	Limit      int
	Offset     int
	Search     string
	CategoryID *int
	Sort       string
	Order      string
}

// ProductRepository is read-only: the catalog is maintained outside this service.
type ProductRepository interface {
	GetByID(ctx context.Context, id int) (*model.Product, error)
	List(ctx context.Context, f ProductFilter) ([]model.Product, int, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

type pgProductRepo struct{ pool *pgxpool.Pool }

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &pgProductRepo{pool: pool}
}

const productSelect = `SELECT p.product_id, p.product_name, p.category_id, COALESCE(c.category_name, ''),
	p.unit_price, p.units_in_stock, p.discontinued <> 0
	FROM products p LEFT JOIN categories c ON c.category_id = p.category_id`

func scanProduct(row pgx.Row, p *model.Product) error {
	return row.Scan(&p.ID, &p.Name, &p.CategoryID, &p.CategoryName, &p.UnitPrice, &p.UnitsInStock, &p.Discontinued)
}

func (r *pgProductRepo) GetByID(ctx context.Context, id int) (*model.Product, error) {
	p := &model.Product{}
	if err := scanProduct(r.pool.QueryRow(ctx, productSelect+` WHERE p.product_id = $1`, id), p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

var productSorts = map[string]string{
	"name":  "p.product_name",
	"price": "p.unit_price",
	"id":    "p.product_id",
}

func (r *pgProductRepo) List(ctx context.Context, f ProductFilter) ([]model.Product, int, error) {
	sortCol, ok := productSorts[f.Sort]
	if !ok {
		sortCol = "p.product_id"
	}
	order := f.Order
	if order != "asc" && order != "desc" {
		order = "asc"
	}

	where := ` WHERE ($1 = '' OR p.product_name ILIKE '%' || $1 || '%') AND ($2::int IS NULL OR p.category_id = $2)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products p`+where, f.Search, f.CategoryID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`%s%s ORDER BY %s %s LIMIT $3 OFFSET $4`, productSelect, where, sortCol, order)
	rows, err := r.pool.Query(ctx, query, f.Search, f.CategoryID, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *pgProductRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT category_id, category_name, COALESCE(description, '') FROM categories ORDER BY category_name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
