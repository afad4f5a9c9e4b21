package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/storefront-api/internal/model"
)

// ReportRepository runs the read-only aggregates behind the admin panel.
type ReportRepository interface {
	SalesAnalytics(ctx context.Context, tf model.TimeFrame, categoryID *int) ([]model.SalesBucket, error)
	CustomerSummaries(ctx context.Context) ([]model.CustomerSummary, error)
}

type pgReportRepo struct{ pool *pgxpool.Pool }

func NewReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &pgReportRepo{pool: pool}
}

var periodExprs = map[model.TimeFrame]string{
	model.TimeFrameHour:    `to_char(o.order_date, 'YYYY-MM-DD"T"HH24:00')`,
	model.TimeFrameDay:     `to_char(o.order_date, 'YYYY-MM-DD')`,
	model.TimeFrameMonth:   `to_char(o.order_date, 'YYYY-MM')`,
	model.TimeFrameQuarter: `to_char(o.order_date, 'YYYY-"Q"Q')`,
	model.TimeFrameSemester: `to_char(o.order_date, 'YYYY') || '-S' ||
		CASE WHEN EXTRACT(MONTH FROM o.order_date) <= 6 THEN '1' ELSE '2' END`,
	model.TimeFrameYear: `to_char(o.order_date, 'YYYY')`,
}

func (r *pgReportRepo) SalesAnalytics(ctx context.Context, tf model.TimeFrame, categoryID *int) ([]model.SalesBucket, error) {
	period, ok := periodExprs[tf]
	if !ok {
		period = periodExprs[model.TimeFrameMonth]
	}

	query := fmt.Sprintf(`SELECT %[1]s AS period,
		COUNT(DISTINCT o.order_id),
		COALESCE(SUM(od.unit_price * od.quantity * (1 - od.discount::numeric)), 0)::numeric(14, 2),
		COUNT(DISTINCT o.customer_id),
		COALESCE(MAX(c.category_name), '')
		FROM orders o
		JOIN order_details od ON od.order_id = o.order_id
		JOIN products p ON p.product_id = od.product_id
		LEFT JOIN categories c ON c.category_id = p.category_id AND $1::int IS NOT NULL
		WHERE $1::int IS NULL OR p.category_id = $1
		GROUP BY period
		ORDER BY period`, period)

	rows, err := r.pool.Query(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("sales analytics: %w", err)
	}
	defer rows.Close()

	var buckets []model.SalesBucket
	for rows.Next() {
		var b model.SalesBucket
		if err := rows.Scan(&b.Period, &b.TotalOrders, &b.TotalRevenue, &b.UniqueCustomers, &b.CategoryName); err != nil {
			return nil, fmt.Errorf("scan sales bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

func (r *pgReportRepo) CustomerSummaries(ctx context.Context) ([]model.CustomerSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.customer_id, c.company_name, c.contact_name, c.contact_title, c.address,
		        c.city, c.region, c.postal_code, c.country, c.phone, c.fax,
		        COUNT(DISTINCT o.order_id),
		        COALESCE(SUM(od.unit_price * od.quantity * (1 - od.discount::numeric)), 0)::numeric(14, 2)
		 FROM customers c
		 LEFT JOIN orders o ON o.customer_id = c.customer_id
		 LEFT JOIN order_details od ON od.order_id = o.order_id
		 GROUP BY c.customer_id
		 ORDER BY c.customer_id`)
	if err != nil {
		return nil, fmt.Errorf("customer summaries: %w", err)
	}
	defer rows.Close()

	var out []model.CustomerSummary
	for rows.Next() {
		var s model.CustomerSummary
		fields := append(customerFields(&s.Customer), &s.TotalOrders, &s.TotalSpent)
		if err := rows.Scan(fields...); err != nil {
			return nil, fmt.Errorf("scan customer summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
