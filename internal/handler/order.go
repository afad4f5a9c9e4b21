package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/middleware"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/service"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), middleware.GetUsername(c), req.CartID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreateOrderResponse{OrderID: order.ID, TotalAmount: order.Total()})
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orderService.ListByCustomer(c.Request.Context(), middleware.GetUsername(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderListResponse(orders))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid order ID")
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), orderID, middleware.GetUsername(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

func toOrderResponse(order *model.Order) dto.OrderResponse {
	items := make([]dto.OrderDetailResponse, 0, len(order.Details))
	for _, d := range order.Details {
		items = append(items, dto.OrderDetailResponse{
			ProductID:   d.ProductID,
			ProductName: d.ProductName,
			UnitPrice:   d.UnitPrice,
			Quantity:    d.Quantity,
			Discount:    d.Discount,
		})
	}
	payments := make([]dto.PaymentRecordResponse, 0, len(order.Payments))
	for _, p := range order.Payments {
		payments = append(payments, dto.PaymentRecordResponse{
			ID:                p.ID,
			Amount:            p.Amount,
			AuthorizationCode: p.AuthorizationCode,
			CreatedAt:         p.CreatedAt,
		})
	}
	return dto.OrderResponse{
		ID:            order.ID,
		CustomerID:    order.CustomerID,
		OrderDate:     order.OrderDate,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		TotalAmount:   order.Total(),
		Items:         items,
		Payments:      payments,
	}
}

func toOrderListResponse(orders []model.OrderSummary) dto.OrderListResponse {
	items := make([]dto.OrderSummaryResponse, 0, len(orders))
	for _, o := range orders {
		items = append(items, dto.OrderSummaryResponse{
			OrderID:       o.OrderID,
			OrderDate:     o.OrderDate,
			CustomerID:    o.CustomerID,
			CompanyName:   o.CompanyName,
			ContactName:   o.ContactName,
			TotalAmount:   o.Total,
			OrderStatus:   o.Status,
			PaymentStatus: o.PaymentStatus,
		})
	}
	return dto.OrderListResponse{Orders: items, Total: len(items)}
}
