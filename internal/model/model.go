package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID              int64
	Username        string
	PasswordHash    string
	AcceptPolicy    bool
	AcceptMarketing bool
}

// Customer shares its key with User.Username. Every field but the id is nullable.
type Customer struct {
	CustomerID   string
	CompanyName  *string
	ContactName  *string
	ContactTitle *string
	Address      *string
	City         *string
	Region       *string
	PostalCode   *string
	Country      *string
	Phone        *string
	Fax          *string
}

type Category struct {
	ID          int
	Name        string
	Description string
}

type Product struct {
	ID           int
	Name         string
	CategoryID   *int
	CategoryName string
	UnitPrice    decimal.Decimal
	UnitsInStock int
	Discontinued bool
}

// CartEntry is one row of the cesta table. An empty Username means the row
// belongs to an anonymous session.
type CartEntry struct {
	ProductID int
	CartID    string
	Username  string
	Quantity  int
}

// CartLine is a cart entry joined with the live catalog row.
type CartLine struct {
	Product  Product
	Quantity int
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Product.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	ID    string
	Lines []CartLine
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

type Order struct {
	ID            int
	CustomerID    string
	OrderDate     time.Time
	Details       []OrderDetail
	Status        string
	PaymentStatus string
	Payments      []Payment
}

// Total is always derived from the line items.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, d := range o.Details {
		total = total.Add(d.LineTotal())
	}
	return total
}

type OrderDetail struct {
	OrderID     int
	ProductID   int
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Discount    decimal.Decimal
}

func (d OrderDetail) LineTotal() decimal.Decimal {
	gross := d.UnitPrice.Mul(decimal.NewFromInt(int64(d.Quantity)))
	return gross.Mul(decimal.NewFromInt(1).Sub(d.Discount))
}

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"

	PaymentStatusPaid    = "paid"
	PaymentStatusPending = "pending"
)

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderStatus is the single current status of an order; updates overwrite it.
type OrderStatus struct {
	OrderID   int
	Status    string
	UpdatedBy string
	UpdatedAt time.Time
	Notes     string
}

// OrderSummary is a list row: the order header plus derived values.
type OrderSummary struct {
	OrderID       int
	OrderDate     time.Time
	CustomerID    string
	CompanyName   string
	ContactName   string
	Total         decimal.Decimal
	Status        string
	PaymentStatus string
}

// Payment is a cobro row.
type Payment struct {
	ID                int64
	OrderID           int
	CustomerID        string
	Amount            decimal.Decimal
	AuthorizationCode string
	CreatedAt         time.Time
}

type UserRole struct {
	Username  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	ActionLogin             = "login"
	ActionLogout            = "logout"
	ActionCreateOrder       = "create_order"
	ActionUpdateOrderStatus = "update_order_status"
	ActionPaymentSuccess    = "payment_success"
	ActionPaymentFailed     = "payment_failed"
	ActionProfileUpdate     = "profile_update"
	ActionAddToCart         = "add_to_cart"
	ActionRemoveFromCart    = "remove_from_cart"
)

type ActivityLog struct {
	ID        int64
	Username  string
	Action    string
	Details   string
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	Role      string
}

// ActivityMessage is the wire form of an activity entry on the broker.
type ActivityMessage struct {
	MessageID uuid.UUID `json:"message_id"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

type TimeFrame string

const (
	TimeFrameHour     TimeFrame = "hour"
	TimeFrameDay      TimeFrame = "day"
	TimeFrameMonth    TimeFrame = "month"
	TimeFrameQuarter  TimeFrame = "quarter"
	TimeFrameSemester TimeFrame = "semester"
	TimeFrameYear     TimeFrame = "year"
)

func (t TimeFrame) Valid() bool {
	switch t {
	case TimeFrameHour, TimeFrameDay, TimeFrameMonth, TimeFrameQuarter, TimeFrameSemester, TimeFrameYear:
		return true
	}
	return false
}

type SalesBucket struct {
	Period          string
	TotalOrders     int
	TotalRevenue    decimal.Decimal
	UniqueCustomers int
	CategoryName    string
}

type CustomerSummary struct {
	Customer
	TotalOrders int
	TotalSpent  decimal.Decimal
}
