package service

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
)

var errInjected = errors.New("injected failure")

// memDB is a shared in-memory store behind the mock repositories. Begin takes
// a snapshot that Rollback restores, so tests can observe atomicity.
type memDB struct {
	users      map[string]*model.User
	nextUserID int64
	customers  map[string]*model.Customer
	products   map[int]*model.Product
	cart       []model.CartEntry
	orders     map[int]model.Order
	nextOrder  int
	statuses   map[int]model.OrderStatus
	payments   []model.Payment
	roles      map[string]string
	activity   []model.ActivityLog

	failOn    map[string]error
	commits   int
	rollbacks int
}

func newMemDB() *memDB {
	return &memDB{
		users:     make(map[string]*model.User),
		customers: make(map[string]*model.Customer),
		products:  make(map[int]*model.Product),
		orders:    make(map[int]model.Order),
		statuses:  make(map[int]model.OrderStatus),
		roles:     make(map[string]string),
		failOn:    make(map[string]error),
	}
}

func (db *memDB) fail(op string) error {
	return db.failOn[op]
}

func (db *memDB) addProduct(id int, name, price string) {
	db.products[id] = &model.Product{ID: id, Name: name, UnitPrice: decimal.RequireFromString(price), UnitsInStock: 10}
}

func (db *memDB) addCustomer(id string) {
	db.customers[id] = &model.Customer{CustomerID: id}
}

func (db *memDB) addUser(username, passwordHash string) *model.User {
	db.nextUserID++
	u := &model.User{ID: db.nextUserID, Username: username, PasswordHash: passwordHash, AcceptPolicy: true}
	db.users[username] = u
	db.addCustomer(username)
	return u
}

type memSnapshot struct {
	cart      []model.CartEntry
	orders    map[int]model.Order
	nextOrder int
	statuses  map[int]model.OrderStatus
	payments  []model.Payment
}

func (db *memDB) snapshot() memSnapshot {
	orders := make(map[int]model.Order, len(db.orders))
	for id, o := range db.orders {
		o.Details = slices.Clone(o.Details)
		orders[id] = o
	}
	return memSnapshot{
		cart:      slices.Clone(db.cart),
		orders:    orders,
		nextOrder: db.nextOrder,
		statuses:  maps.Clone(db.statuses),
		payments:  slices.Clone(db.payments),
	}
}

func (db *memDB) restore(s memSnapshot) {
	db.cart = s.cart
	db.orders = s.orders
	db.nextOrder = s.nextOrder
	db.statuses = s.statuses
	db.payments = s.payments
}

func (db *memDB) BeginTx(_ context.Context) (pgx.Tx, error) {
	if err := db.fail("BeginTx"); err != nil {
		return nil, err
	}
	return &fakeTx{db: db, snap: db.snapshot()}, nil
}

type fakeTx struct {
	pgx.Tx
	db   *memDB
	snap memSnapshot
	done bool
}

func (t *fakeTx) Commit(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	if err := t.db.fail("Commit"); err != nil {
		t.done = true
		t.db.restore(t.snap)
		return err
	}
	t.done = true
	t.db.commits++
	return nil
}

func (t *fakeTx) Rollback(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.db.rollbacks++
	t.db.restore(t.snap)
	return nil
}

// --- users ---

type mockUserRepo struct{ db *memDB }

func (m *mockUserRepo) CreateWithCustomer(_ context.Context, user *model.User) error {
	if _, ok := m.db.users[user.Username]; ok {
		return repository.ErrDuplicateKey
	}
	if _, ok := m.db.customers[user.Username]; ok {
		return repository.ErrDuplicateKey
	}
	m.db.nextUserID++
	user.ID = m.db.nextUserID
	u := *user
	m.db.users[user.Username] = &u
	m.db.addCustomer(user.Username)
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	for _, u := range m.db.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	if err := m.db.fail("user.GetByUsername"); err != nil {
		return nil, err
	}
	u, ok := m.db.users[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, username, hash string) error {
	u, ok := m.db.users[username]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = hash
	return nil
}

// --- customers ---

type mockCustomerRepo struct{ db *memDB }

func (m *mockCustomerRepo) GetByID(_ context.Context, id string) (*model.Customer, error) {
	c, ok := m.db.customers[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *mockCustomerRepo) GetByIDTx(ctx context.Context, _ pgx.Tx, id string) (*model.Customer, error) {
	if err := m.db.fail("customer.GetByIDTx"); err != nil {
		return nil, err
	}
	return m.GetByID(ctx, id)
}

func (m *mockCustomerRepo) Update(_ context.Context, c *model.Customer) error {
	if _, ok := m.db.customers[c.CustomerID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *c
	m.db.customers[c.CustomerID] = &cp
	return nil
}

// --- products ---

type mockProductRepo struct{ db *memDB }

func (m *mockProductRepo) GetByID(_ context.Context, id int) (*model.Product, error) {
	p, ok := m.db.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) List(_ context.Context, f repository.ProductFilter) ([]model.Product, int, error) {
	var all []model.Product
	for _, p := range m.db.products {
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if f.Offset >= total {
		return nil, total, nil
	}
	end := min(f.Offset+f.Limit, total)
	return all[f.Offset:end], total, nil
}

func (m *mockProductRepo) ListCategories(_ context.Context) ([]model.Category, error) {
	return []model.Category{{ID: 1, Name: "Beverages"}}, nil
}

// --- cart ---

type mockCartRepo struct{ db *memDB }

func (m *mockCartRepo) SetQuantity(_ context.Context, e model.CartEntry) error {
	found := false
	for i := range m.db.cart {
		row := &m.db.cart[i]
		if row.ProductID != e.ProductID || row.CartID != e.CartID {
			continue
		}
		if row.Username != "" && row.Username != e.Username {
			return repository.ErrCartEntryOwned
		}
		row.Quantity = e.Quantity
		if e.Username != "" {
			row.Username = e.Username
		}
		found = true
	}
	if !found {
		m.db.cart = append(m.db.cart, e)
	}
	m.db.cart = slices.DeleteFunc(m.db.cart, func(c model.CartEntry) bool {
		return c.CartID == e.CartID && c.Quantity == 0
	})
	return nil
}

func (m *mockCartRepo) line(e model.CartEntry) (model.CartLine, bool) {
	p, ok := m.db.products[e.ProductID]
	if !ok {
		return model.CartLine{}, false
	}
	return model.CartLine{Product: *p, Quantity: e.Quantity}, true
}

func (m *mockCartRepo) Lines(_ context.Context, cartID string) ([]model.CartLine, error) {
	var lines []model.CartLine
	for _, e := range m.db.cart {
		if e.CartID != cartID {
			continue
		}
		if l, ok := m.line(e); ok {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

func matchesCartOrUser(e model.CartEntry, cartID, username string) bool {
	return e.CartID == cartID || (e.Username != "" && e.Username == username)
}

func (m *mockCartRepo) ListByCartOrUser(_ context.Context, _ pgx.Tx, cartID, username string) ([]model.CartEntry, error) {
	var out []model.CartEntry
	for _, e := range m.db.cart {
		if matchesCartOrUser(e, cartID, username) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockCartRepo) DeleteByCartOrUser(_ context.Context, _ pgx.Tx, cartID, username string) error {
	m.db.cart = slices.DeleteFunc(m.db.cart, func(e model.CartEntry) bool {
		return matchesCartOrUser(e, cartID, username)
	})
	return nil
}

func (m *mockCartRepo) Insert(_ context.Context, _ pgx.Tx, e model.CartEntry) error {
	if err := m.db.fail("cart.Insert"); err != nil {
		return err
	}
	for i := range m.db.cart {
		if m.db.cart[i].ProductID == e.ProductID && m.db.cart[i].CartID == e.CartID {
			m.db.cart[i] = e
			return nil
		}
	}
	m.db.cart = append(m.db.cart, e)
	return nil
}

func orderable(e model.CartEntry, cartID, username string) bool {
	return e.CartID == cartID && (e.Username == "" || e.Username == username)
}

func (m *mockCartRepo) OrderLines(_ context.Context, _ pgx.Tx, cartID, username string) ([]model.CartLine, error) {
	var lines []model.CartLine
	for _, e := range m.db.cart {
		if !orderable(e, cartID, username) {
			continue
		}
		if l, ok := m.line(e); ok {
			lines = append(lines, l)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Product.ID < lines[j].Product.ID })
	return lines, nil
}

func (m *mockCartRepo) Clear(_ context.Context, _ pgx.Tx, cartID, username string) error {
	if err := m.db.fail("cart.Clear"); err != nil {
		return err
	}
	m.db.cart = slices.DeleteFunc(m.db.cart, func(e model.CartEntry) bool {
		return orderable(e, cartID, username)
	})
	return nil
}

// --- orders ---

type mockOrderRepo struct{ db *memDB }

func (m *mockOrderRepo) Insert(_ context.Context, _ pgx.Tx, order *model.Order) error {
	m.db.nextOrder++
	order.ID = m.db.nextOrder
	m.db.orders[order.ID] = model.Order{ID: order.ID, CustomerID: order.CustomerID, OrderDate: order.OrderDate}
	return nil
}

func (m *mockOrderRepo) InsertDetails(_ context.Context, _ pgx.Tx, details []model.OrderDetail) error {
	if err := m.db.fail("order.InsertDetails"); err != nil {
		return err
	}
	for _, d := range details {
		o := m.db.orders[d.OrderID]
		o.Details = append(o.Details, d)
		m.db.orders[d.OrderID] = o
	}
	return nil
}

func (m *mockOrderRepo) paid(orderID int) bool {
	return slices.ContainsFunc(m.db.payments, func(p model.Payment) bool { return p.OrderID == orderID })
}

func (m *mockOrderRepo) view(o model.Order) *model.Order {
	o.Details = slices.Clone(o.Details)
	o.Status = model.OrderStatusPending
	if st, ok := m.db.statuses[o.ID]; ok {
		o.Status = st.Status
	}
	o.PaymentStatus = model.PaymentStatusPending
	if m.paid(o.ID) {
		o.PaymentStatus = model.PaymentStatusPaid
	}
	return &o
}

func (m *mockOrderRepo) GetByID(_ context.Context, id int) (*model.Order, error) {
	o, ok := m.db.orders[id]
	if !ok {
		return nil, nil
	}
	return m.view(o), nil
}

func (m *mockOrderRepo) summaries(keep func(model.Order) bool) []model.OrderSummary {
	var out []model.OrderSummary
	for _, o := range m.db.orders {
		if !keep(o) {
			continue
		}
		v := m.view(o)
		out = append(out, model.OrderSummary{
			OrderID: v.ID, OrderDate: v.OrderDate, CustomerID: v.CustomerID,
			Total: v.Total(), Status: v.Status, PaymentStatus: v.PaymentStatus,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID > out[j].OrderID })
	return out
}

func (m *mockOrderRepo) ListByCustomer(_ context.Context, customerID string) ([]model.OrderSummary, error) {
	return m.summaries(func(o model.Order) bool { return o.CustomerID == customerID }), nil
}

func (m *mockOrderRepo) Recent(_ context.Context, limit int) ([]model.OrderSummary, error) {
	out := m.summaries(func(model.Order) bool { return true })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockOrderRepo) UpsertStatus(_ context.Context, s *model.OrderStatus) error {
	s.UpdatedAt = time.Now()
	m.db.statuses[s.OrderID] = *s
	return nil
}

// --- payments ---

type mockPaymentRepo struct{ db *memDB }

func (m *mockPaymentRepo) Create(_ context.Context, p *model.Payment) error {
	for _, existing := range m.db.payments {
		if existing.OrderID == p.OrderID {
			return repository.ErrOrderPaid
		}
		if existing.AuthorizationCode == p.AuthorizationCode {
			return repository.ErrDuplicateKey
		}
	}
	p.ID = int64(len(m.db.payments) + 1)
	p.CreatedAt = time.Now()
	m.db.payments = append(m.db.payments, *p)
	return nil
}

func (m *mockPaymentRepo) ListByOrder(_ context.Context, orderID int) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range m.db.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

// --- roles ---

type mockRoleRepo struct{ db *memDB }

func (m *mockRoleRepo) GetRole(_ context.Context, username string) (string, error) {
	if r, ok := m.db.roles[username]; ok {
		return r, nil
	}
	return model.RoleUser, nil
}

func (m *mockRoleRepo) SetRole(_ context.Context, username, role string) error {
	m.db.roles[username] = role
	return nil
}

// --- activity & reports ---

type mockActivityRepo struct{ db *memDB }

func (m *mockActivityRepo) Append(_ context.Context, e *model.ActivityLog) error {
	if err := m.db.fail("activity.Append"); err != nil {
		return err
	}
	e.ID = int64(len(m.db.activity) + 1)
	e.CreatedAt = time.Now()
	m.db.activity = append(m.db.activity, *e)
	return nil
}

func (m *mockActivityRepo) List(_ context.Context, limit int) ([]model.ActivityLog, error) {
	out := slices.Clone(m.db.activity)
	slices.Reverse(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockReportRepo struct {
	db        *memDB
	lastFrame model.TimeFrame
	lastCatID *int
}

func (m *mockReportRepo) SalesAnalytics(_ context.Context, tf model.TimeFrame, categoryID *int) ([]model.SalesBucket, error) {
	m.lastFrame, m.lastCatID = tf, categoryID
	return []model.SalesBucket{{Period: "2024-01", TotalOrders: len(m.db.orders)}}, nil
}

func (m *mockReportRepo) CustomerSummaries(_ context.Context) ([]model.CustomerSummary, error) {
	var out []model.CustomerSummary
	for _, c := range m.db.customers {
		out = append(out, model.CustomerSummary{Customer: *c})
	}
	return out, nil
}

// fixture wires every service to one memDB.
type fixture struct {
	db       *memDB
	recorder *DirectActivityRecorder
	carts    *CartService
	orders   *OrderService
}

func newFixture() *fixture {
	db := newMemDB()
	rec := NewDirectActivityRecorder(&mockActivityRepo{db: db})
	f := &fixture{db: db, recorder: rec}
	f.carts = NewCartService(&mockCartRepo{db: db}, &mockProductRepo{db: db}, db, rec)
	f.orders = NewOrderService(db, &mockCustomerRepo{db: db}, &mockOrderRepo{db: db}, &mockPaymentRepo{db: db}, &mockCartRepo{db: db},
		&mockRoleRepo{db: db}, rec, false)
	return f
}
