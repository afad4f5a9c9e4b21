package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// --- Auth ---

type RegisterRequest struct {
	Username        string `json:"username" binding:"required"`
	Password        string `json:"password" binding:"required,min=8"`
	AcceptPolicy    bool   `json:"accept_policy"`
	AcceptMarketing bool   `json:"accept_marketing"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	CartID   string `json:"cart_id"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
	Role  string       `json:"role"`
}

type UserResponse struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	AcceptPolicy    bool   `json:"accept_policy"`
	AcceptMarketing bool   `json:"accept_marketing"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// --- Product ---

type ListProductsRequest struct {
	Page       int    `form:"page,default=1" binding:"min=1"`
	Limit      int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search     string `form:"search"`
	CategoryID *int   `form:"category_id"`
	Sort       string `form:"sort,default=id" binding:"oneof=id name price"`
	Order      string `form:"order,default=asc" binding:"oneof=asc desc"`
}

type ProductResponse struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	CategoryID   *int            `json:"category_id,omitempty"`
	CategoryName string          `json:"category_name,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	UnitsInStock int             `json:"units_in_stock"`
	Discontinued bool            `json:"discontinued"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

type CategoryResponse struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// --- Cart ---

type NewCartResponse struct {
	CartID string `json:"cart_id"`
}

type SetCartItemRequest struct {
	ProductID int    `json:"product_id" binding:"required"`
	CartID    string `json:"cart_id" binding:"required"`
	Quantity  *int   `json:"quantity" binding:"required"`
}

type CartResponse struct {
	CartID string             `json:"cart_id"`
	Items  []CartItemResponse `json:"items"`
	Total  decimal.Decimal    `json:"total"`
}

type CartItemResponse struct {
	Product  ProductResponse `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// --- Order ---

type CreateOrderRequest struct {
	CartID string `json:"cart_id" binding:"required"`
}

type CreateOrderResponse struct {
	OrderID     int             `json:"order_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type OrderResponse struct {
	ID            int                     `json:"id"`
	CustomerID    string                  `json:"customer_id"`
	OrderDate     time.Time               `json:"order_date"`
	Status        string                  `json:"status"`
	PaymentStatus string                  `json:"payment_status"`
	TotalAmount   decimal.Decimal         `json:"total_amount"`
	Items         []OrderDetailResponse   `json:"items"`
	Payments      []PaymentRecordResponse `json:"payments"`
}

type OrderDetailResponse struct {
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Discount    decimal.Decimal `json:"discount"`
}

type PaymentRecordResponse struct {
	ID                int64           `json:"id"`
	Amount            decimal.Decimal `json:"amount"`
	AuthorizationCode string          `json:"authorization_code"`
	CreatedAt         time.Time       `json:"created_at"`
}

type OrderSummaryResponse struct {
	OrderID       int             `json:"order_id"`
	OrderDate     time.Time       `json:"order_date"`
	CustomerID    string          `json:"customer_id"`
	CompanyName   string          `json:"company_name,omitempty"`
	ContactName   string          `json:"contact_name,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	OrderStatus   string          `json:"order_status"`
	PaymentStatus string          `json:"payment_status"`
}

type OrderListResponse struct {
	Orders []OrderSummaryResponse `json:"orders"`
	Total  int                    `json:"total"`
}

// --- Payment ---

type CardRequest struct {
	Number string `json:"number" binding:"required"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
	Holder string `json:"holder"`
}

type PaymentRequest struct {
	OrderID int             `json:"order_id" binding:"required"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
	Card    CardRequest     `json:"card" binding:"required"`
}

type PaymentResponse struct {
	Success           bool   `json:"success"`
	PaymentID         int64  `json:"payment_id,omitempty"`
	AuthorizationCode string `json:"authorization_code,omitempty"`
	Reason            string `json:"reason,omitempty"`
}

// --- Profile ---

type ProfileResponse struct {
	CustomerID   string  `json:"customer_id"`
	CompanyName  *string `json:"company_name"`
	ContactName  *string `json:"contact_name"`
	ContactTitle *string `json:"contact_title"`
	Address      *string `json:"address"`
	City         *string `json:"city"`
	Region       *string `json:"region"`
	PostalCode   *string `json:"postal_code"`
	Country      *string `json:"country"`
	Phone        *string `json:"phone"`
	Fax          *string `json:"fax"`
}

// UpdateProfileRequest leaves a field unchanged when it is omitted.
type UpdateProfileRequest struct {
	CompanyName  *string `json:"company_name"`
	ContactName  *string `json:"contact_name"`
	ContactTitle *string `json:"contact_title"`
	Address      *string `json:"address"`
	City         *string `json:"city"`
	Region       *string `json:"region"`
	PostalCode   *string `json:"postal_code"`
	Country      *string `json:"country"`
	Phone        *string `json:"phone"`
	Fax          *string `json:"fax"`
}

// --- Admin ---

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled"`
	Notes  string `json:"notes"`
}

type AnalyticsRequest struct {
	TimeFrame  string `form:"time_frame,default=month" binding:"oneof=hour day month quarter semester year"`
	CategoryID *int   `form:"category_id"`
}

type SalesBucketResponse struct {
	Period          string          `json:"period"`
	TotalOrders     int             `json:"total_orders"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	UniqueCustomers int             `json:"unique_customers"`
	CategoryName    string          `json:"category_name,omitempty"`
}

type CustomerSummaryResponse struct {
	ProfileResponse
	TotalOrders int             `json:"total_orders"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
}

type ActivityLogResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type LimitRequest struct {
	Limit int `form:"limit,default=50" binding:"min=1,max=500"`
}
