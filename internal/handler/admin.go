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

// AdminHandler leaves the role check to AdminService so that every
// operation is gated even when called outside HTTP.
type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) RecentOrders(c *gin.Context) {
	var req dto.LimitRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	orders, err := h.adminService.RecentOrders(c.Request.Context(), middleware.GetUsername(c), req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderListResponse(orders))
}

func (h *AdminHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid order ID")
		return
	}

	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	st, err := h.adminService.UpdateOrderStatus(c.Request.Context(), middleware.GetUsername(c), orderID, req.Status, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id": st.OrderID, "status": st.Status, "updated_by": st.UpdatedBy,
		"updated_at": st.UpdatedAt, "notes": st.Notes,
	})
}

func (h *AdminHandler) SalesAnalytics(c *gin.Context) {
	var req dto.AnalyticsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	buckets, err := h.adminService.SalesAnalytics(c.Request.Context(), middleware.GetUsername(c),
		model.TimeFrame(req.TimeFrame), req.CategoryID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]dto.SalesBucketResponse, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, dto.SalesBucketResponse{
			Period: b.Period, TotalOrders: b.TotalOrders, TotalRevenue: b.TotalRevenue,
			UniqueCustomers: b.UniqueCustomers, CategoryName: b.CategoryName,
		})
	}
	c.JSON(http.StatusOK, gin.H{"time_frame": req.TimeFrame, "buckets": out})
}

func (h *AdminHandler) Customers(c *gin.Context) {
	customers, err := h.adminService.Customers(c.Request.Context(), middleware.GetUsername(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]dto.CustomerSummaryResponse, 0, len(customers))
	for _, s := range customers {
		out = append(out, dto.CustomerSummaryResponse{
			ProfileResponse: toProfileResponse(&s.Customer),
			TotalOrders:     s.TotalOrders,
			TotalSpent:      s.TotalSpent,
		})
	}
	c.JSON(http.StatusOK, gin.H{"customers": out})
}

func (h *AdminHandler) CustomerOrders(c *gin.Context) {
	orders, err := h.adminService.CustomerOrders(c.Request.Context(), middleware.GetUsername(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderListResponse(orders))
}

func (h *AdminHandler) ActivityLogs(c *gin.Context) {
	var req dto.LimitRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	logs, err := h.adminService.ActivityLogs(c.Request.Context(), middleware.GetUsername(c), req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]dto.ActivityLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, dto.ActivityLogResponse{
			ID: l.ID, Username: l.Username, Role: l.Role, Action: l.Action, Details: l.Details,
			IPAddress: l.IPAddress, UserAgent: l.UserAgent, CreatedAt: l.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"activity": out})
}
