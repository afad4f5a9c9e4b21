package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
	"github.com/flicky/storefront-api/internal/storage"
)

// The service tests get their own schema so they can run alongside the
// repository package's tests against the same database.
const integrationSchema = "service_it"

var (
	integrationOnce sync.Once
	integrationPool *pgxpool.Pool
	integrationErr  error
)

func withSearchPath(dsn, schema string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + schema
}

func openIntegrationDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	integrationOnce.Do(func() {
		ctx := context.Background()
		admin, err := storage.NewPool(ctx, dsn, 1)
		if err != nil {
			integrationErr = err
			return
		}
		_, err = admin.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+integrationSchema)
		admin.Close()
		if err != nil {
			integrationErr = fmt.Errorf("create schema: %w", err)
			return
		}

		scoped := withSearchPath(dsn, integrationSchema)
		if integrationErr = storage.MigrateUp(scoped); integrationErr != nil {
			return
		}
		integrationPool, integrationErr = storage.NewPool(ctx, scoped, 4)
	})
	require.NoError(t, integrationErr)

	for _, table := range []string{"activity_logs", "user_roles", "cobro", "order_status", "order_details",
		"orders", "cesta", "products", "categories", "customers", "users"} {
		_, err := integrationPool.Exec(context.Background(), "DELETE FROM "+table)
		require.NoError(t, err, "cleanup %s", table)
	}
	return integrationPool
}

type storefront struct {
	pool   *pgxpool.Pool
	carts  *CartService
	orders *OrderService
	cart   repository.CartRepository
}

func newStorefront(t *testing.T) *storefront {
	t.Helper()
	pool := openIntegrationDB(t)
	cartRepo := repository.NewCartRepository(pool)
	tx := repository.NewTransactor(pool)
	rec := NewDirectActivityRecorder(repository.NewActivityRepository(pool))
	return &storefront{
		pool:  pool,
		cart:  cartRepo,
		carts: NewCartService(cartRepo, repository.NewProductRepository(pool), tx, rec),
		orders: NewOrderService(tx, repository.NewCustomerRepository(pool), repository.NewOrderRepository(pool),
			repository.NewPaymentRepository(pool), cartRepo, repository.NewRoleRepository(pool), rec, false),
	}
}

func (s *storefront) addUser(t *testing.T, username string) {
	t.Helper()
	users := repository.NewUserRepository(s.pool)
	require.NoError(t, users.CreateWithCustomer(context.Background(),
		&model.User{Username: username, PasswordHash: "salt:digest", AcceptPolicy: true}))
}

func (s *storefront) addProduct(t *testing.T, id int, name, price string) {
	t.Helper()
	_, err := s.pool.Exec(context.Background(),
		`INSERT INTO products (product_id, product_name, unit_price, units_in_stock) VALUES ($1, $2, $3, 10)`,
		id, name, decimal.RequireFromString(price))
	require.NoError(t, err)
}

func (s *storefront) rowCount(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, s.pool.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}

func TestIntegration_MergeKeepsMaximumAndIsIdempotent(t *testing.T) {
	s := newStorefront(t)
	ctx := context.Background()
	s.addUser(t, "alice")
	s.addProduct(t, 11, "Queso Cabrales", "10.00")
	s.addProduct(t, 42, "Singaporean Hokkien", "25.50")

	require.NoError(t, s.carts.SetQuantity(ctx, model.CartEntry{ProductID: 11, CartID: "saved", Username: "alice", Quantity: 5}))
	require.NoError(t, s.carts.SetQuantity(ctx, model.CartEntry{ProductID: 11, CartID: "cart-A", Quantity: 2}))
	require.NoError(t, s.carts.SetQuantity(ctx, model.CartEntry{ProductID: 42, CartID: "cart-A", Quantity: 1}))

	for i := 0; i < 2; i++ {
		require.NoError(t, s.carts.MergeIntoUser(ctx, "cart-A", "alice"))

		cart, err := s.carts.GetCart(ctx, "cart-A")
		require.NoError(t, err)
		require.Len(t, cart.Lines, 2, "merge %d", i+1)
		assert.Equal(t, 11, cart.Lines[0].Product.ID)
		assert.Equal(t, 5, cart.Lines[0].Quantity)
		assert.Equal(t, 42, cart.Lines[1].Product.ID)
		assert.Equal(t, 1, cart.Lines[1].Quantity)

		assert.Zero(t, s.rowCount(t, `SELECT COUNT(*) FROM cesta WHERE cesta_id = 'saved'`))
		assert.Equal(t, 2, s.rowCount(t, `SELECT COUNT(*) FROM cesta WHERE username = 'alice'`))
	}
}

func TestIntegration_CreateOrderFromCart(t *testing.T) {
	s := newStorefront(t)
	ctx := context.Background()
	s.addUser(t, "alice")
	s.addProduct(t, 11, "Queso Cabrales", "10.00")
	s.addProduct(t, 42, "Singaporean Hokkien", "25.50")

	require.NoError(t, s.carts.SetQuantity(ctx, model.CartEntry{ProductID: 11, CartID: "cart-A", Username: "alice", Quantity: 3}))
	require.NoError(t, s.carts.SetQuantity(ctx, model.CartEntry{ProductID: 42, CartID: "cart-A", Username: "alice", Quantity: 1}))

	order, err := s.orders.CreateOrder(ctx, "alice", "cart-A")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("55.50").Equal(order.Total()))

	assert.Equal(t, 2, s.rowCount(t, `SELECT COUNT(*) FROM order_details WHERE order_id = $1`, order.ID))
	assert.Zero(t, s.rowCount(t, `SELECT COUNT(*) FROM cesta WHERE cesta_id = 'cart-A'`))

	stored, err := s.orders.GetByID(ctx, order.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.CustomerID)
	assert.True(t, decimal.RequireFromString("55.50").Equal(stored.Total()))
	assert.Equal(t, model.PaymentStatusPending, stored.PaymentStatus)
	assert.Empty(t, stored.Payments)
}

func TestIntegration_CreateOrderLeavesForeignRows(t *testing.T) {
	s := newStorefront(t)
	ctx := context.Background()
	s.addUser(t, "alice")
	s.addUser(t, "bob")
	s.addProduct(t, 11, "Queso Cabrales", "10.00")
	s.addProduct(t, 42, "Singaporean Hokkien", "25.50")
	s.addProduct(t, 77, "Original Frankfurter", "13.00")

	require.NoError(t, s.carts.SetQuantity(ctx, model.CartEntry{ProductID: 11, CartID: "cart-A", Username: "alice", Quantity: 3}))
	require.NoError(t, s.carts.SetQuantity(ctx, model.CartEntry{ProductID: 42, CartID: "cart-A", Quantity: 1}))
	require.NoError(t, s.carts.SetQuantity(ctx, model.CartEntry{ProductID: 77, CartID: "cart-A", Username: "bob", Quantity: 4}))

	order, err := s.orders.CreateOrder(ctx, "alice", "cart-A")
	require.NoError(t, err)
	require.Len(t, order.Details, 2)
	assert.True(t, decimal.RequireFromString("55.50").Equal(order.Total()))

	left, err := s.cart.Lines(ctx, "cart-A")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, 77, left[0].Product.ID)
	assert.Equal(t, 4, left[0].Quantity)
	assert.Equal(t, 1, s.rowCount(t, `SELECT COUNT(*) FROM cesta WHERE username = 'bob'`))
}

func TestIntegration_CreateOrderRollsBackWithoutCustomer(t *testing.T) {
	s := newStorefront(t)
	ctx := context.Background()
	s.addProduct(t, 11, "Queso Cabrales", "10.00")

	require.NoError(t, s.carts.SetQuantity(ctx, model.CartEntry{ProductID: 11, CartID: "cart-A", Quantity: 3}))

	_, err := s.orders.CreateOrder(ctx, "ghost", "cart-A")
	assert.ErrorIs(t, err, ErrCustomerNotFound)
	assert.Zero(t, s.rowCount(t, `SELECT COUNT(*) FROM orders`))
	assert.Equal(t, 1, s.rowCount(t, `SELECT COUNT(*) FROM cesta WHERE cesta_id = 'cart-A'`))
}
