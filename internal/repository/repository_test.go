package repository

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/flicky/storefront-api/internal/storage"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		fmt.Println("TEST_DATABASE_URL not set, skipping integration tests")
		os.Exit(0)
	}

	if err := storage.MigrateUp(dsn); err != nil {
		fmt.Fprintf(os.Stderr, "failed to migrate test database: %v\n", err)
		os.Exit(1)
	}

	var err error
	testPool, err = storage.NewPool(context.Background(), dsn, 4)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to test database: %v\n", err)
		os.Exit(1)
	}
	defer testPool.Close()

	code := m.Run()
	os.Exit(code)
}

func cleanupTable(t *testing.T, tables ...string) {
	t.Helper()
	for _, table := range tables {
		_, err := testPool.Exec(context.Background(), fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Fatalf("failed to cleanup table %s: %v", table, err)
		}
	}
}

func cleanupAll(t *testing.T) {
	cleanupTable(t, "activity_logs", "user_roles", "cobro", "order_status", "order_details",
		"orders", "cesta", "products", "categories", "customers", "users")
}

func seedProduct(t *testing.T, name string, price string, categoryID *int) int {
	t.Helper()
	var id int
	err := testPool.QueryRow(context.Background(),
		`INSERT INTO products (product_name, category_id, unit_price, units_in_stock)
		 VALUES ($1, $2, $3, 10) RETURNING product_id`,
		name, categoryID, decimal.RequireFromString(price),
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedCategory(t *testing.T, name string) int {
	t.Helper()
	var id int
	err := testPool.QueryRow(context.Background(),
		`INSERT INTO categories (category_name) VALUES ($1) RETURNING category_id`, name).Scan(&id)
	require.NoError(t, err)
	return id
}
