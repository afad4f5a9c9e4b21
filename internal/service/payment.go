package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/payment"
	"github.com/flicky/storefront-api/internal/repository"
)

var errOrderAlreadyPaid = fmt.Errorf("%w: order already paid", ErrConflict)

type PaymentService struct {
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	gateway     payment.Gateway
	activity    ActivityRecorder
}

func NewPaymentService(orderRepo repository.OrderRepository, paymentRepo repository.PaymentRepository,
	gateway payment.Gateway, activity ActivityRecorder) *PaymentService {
	return &PaymentService{orderRepo: orderRepo, paymentRepo: paymentRepo, gateway: gateway, activity: activity}
}

// RecordPayment stores a captured payment. An order takes at most one
// payment and an authorization code is recorded once; either repeat fails
// with a conflict. The amount is not checked against the order here.
func (s *PaymentService) RecordPayment(ctx context.Context, customerID string, orderID int,
	amount decimal.Decimal, authCode string) (int64, error) {
	if authCode == "" {
		return 0, validationError("authorization code is required")
	}
	p := &model.Payment{OrderID: orderID, CustomerID: customerID, Amount: amount, AuthorizationCode: authCode}
	if err := s.paymentRepo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrOrderPaid) {
			return 0, errOrderAlreadyPaid
		}
		if errors.Is(err, repository.ErrDuplicateKey) {
			return 0, ErrDuplicateAuthorization
		}
		return 0, storageError("record payment", err)
	}
	return p.ID, nil
}

// ProcessPayment charges the card for the order's total and records the
// payment on approval. A declined card is not an error.
func (s *PaymentService) ProcessPayment(ctx context.Context, actor string, req dto.PaymentRequest) (*dto.PaymentResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, validationError("amount must be positive")
	}

	order, err := s.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, storageError("get order", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.CustomerID != actor {
		return nil, ErrOrderAccessDenied
	}
	if order.PaymentStatus == model.PaymentStatusPaid {
		return nil, errOrderAlreadyPaid
	}
	if !req.Amount.Round(2).Equal(order.Total().Round(2)) {
		return nil, ErrAmountMismatch
	}

	card := payment.Card{
		Number: strings.ReplaceAll(req.Card.Number, " ", ""),
		Expiry: req.Card.Expiry, CVV: req.Card.CVV, Holder: req.Card.Holder,
	}
	result, err := s.gateway.Capture(ctx, card, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("capture payment: %w", err)
	}
	if !result.Approved {
		slog.Info("payment declined", "order_id", order.ID, "customer_id", order.CustomerID)
		record(ctx, s.activity, actor, model.ActionPaymentFailed, fmt.Sprintf("order %d", order.ID))
		return &dto.PaymentResponse{Success: false, Reason: result.Reason}, nil
	}

	// The paid check above is advisory; the one-payment-per-order constraint
	// decides between concurrent captures.
	paymentID, err := s.RecordPayment(ctx, order.CustomerID, order.ID, req.Amount.Round(2), result.AuthorizationCode)
	if err != nil {
		if errors.Is(err, errOrderAlreadyPaid) {
			slog.Warn("captured payment for an order paid concurrently", "order_id", order.ID,
				"authorization_code", result.AuthorizationCode)
		}
		return nil, err
	}

	slog.Info("payment recorded", "order_id", order.ID, "payment_id", paymentID)
	record(ctx, s.activity, actor, model.ActionPaymentSuccess,
		fmt.Sprintf("order %d amount %s code %s", order.ID, req.Amount.StringFixed(2), result.AuthorizationCode))
	return &dto.PaymentResponse{Success: true, PaymentID: paymentID, AuthorizationCode: result.AuthorizationCode}, nil
}
