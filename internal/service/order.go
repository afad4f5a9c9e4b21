package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
)

type OrderService struct {
	tx           repository.Transactor
	customerRepo repository.CustomerRepository
	orderRepo    repository.OrderRepository
	paymentRepo  repository.PaymentRepository
	cartRepo     repository.CartRepository
	roleRepo     repository.RoleRepository
	activity     ActivityRecorder
	allowEmpty   bool
	now          func() time.Time
}

func NewOrderService(tx repository.Transactor, customerRepo repository.CustomerRepository,
	orderRepo repository.OrderRepository, paymentRepo repository.PaymentRepository,
	cartRepo repository.CartRepository, roleRepo repository.RoleRepository,
	activity ActivityRecorder, allowEmpty bool) *OrderService {
	return &OrderService{
		tx: tx, customerRepo: customerRepo, orderRepo: orderRepo, paymentRepo: paymentRepo, cartRepo: cartRepo,
		roleRepo: roleRepo, activity: activity, allowEmpty: allowEmpty, now: time.Now,
	}
}

// CreateOrder turns the cart into an order in one transaction. The cart rows
// read and deleted are those of cartID that are anonymous or owned by username.
func (s *OrderService) CreateOrder(ctx context.Context, username, cartID string) (order *model.Order, err error) {
	if username == "" || strings.TrimSpace(cartID) == "" {
		return nil, validationError("username and cart id are required")
	}

	tx, err := s.tx.BeginTx(ctx)
	if err != nil {
		return nil, storageError("create order", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				slog.Error("failed to roll back order", "username", username, "error", rbErr)
			}
		}
	}()

	customer, err := s.customerRepo.GetByIDTx(ctx, tx, username)
	if err != nil {
		return nil, storageError("get customer", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	order = &model.Order{CustomerID: customer.CustomerID, OrderDate: s.now(), Status: model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending}
	if err = s.orderRepo.Insert(ctx, tx, order); err != nil {
		return nil, storageError("insert order", err)
	}

	lines, err := s.cartRepo.OrderLines(ctx, tx, cartID, username)
	if err != nil {
		return nil, storageError("read cart", err)
	}
	if len(lines) == 0 && !s.allowEmpty {
		return nil, ErrEmptyCart
	}

	for _, l := range lines {
		order.Details = append(order.Details, model.OrderDetail{
			OrderID:     order.ID,
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			UnitPrice:   l.Product.UnitPrice,
			Quantity:    l.Quantity,
			Discount:    decimal.Zero,
		})
	}
	if len(order.Details) > 0 {
		if err = s.orderRepo.InsertDetails(ctx, tx, order.Details); err != nil {
			return nil, storageError("insert order details", err)
		}
	}

	if err = s.cartRepo.Clear(ctx, tx, cartID, username); err != nil {
		return nil, storageError("clear cart", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, storageError("commit order", err)
	}

	slog.Info("order created", "order_id", order.ID, "customer_id", order.CustomerID, "total", order.Total().StringFixed(2))
	record(ctx, s.activity, username, model.ActionCreateOrder,
		fmt.Sprintf("order %d total %s", order.ID, order.Total().StringFixed(2)))
	return order, nil
}

// GetByID returns the order with its recorded payments when actor owns it
// or is an admin.
func (s *OrderService) GetByID(ctx context.Context, orderID int, actor string) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, storageError("get order", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.CustomerID != actor {
		role, err := s.roleRepo.GetRole(ctx, actor)
		if err != nil {
			return nil, storageError("get role", err)
		}
		if role != model.RoleAdmin {
			return nil, ErrOrderAccessDenied
		}
	}

	order.Payments, err = s.paymentRepo.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, storageError("list payments", err)
	}
	return order, nil
}

func (s *OrderService) ListByCustomer(ctx context.Context, customerID string) ([]model.OrderSummary, error) {
	orders, err := s.orderRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, storageError("list orders", err)
	}
	return orders, nil
}
