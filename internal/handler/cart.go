package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/middleware"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/service"
)

type CartHandler struct {
	svc *service.CartService
}

func NewCartHandler(svc *service.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

func (h *CartHandler) NewCart(c *gin.Context) {
	c.JSON(http.StatusCreated, dto.NewCartResponse{CartID: h.svc.NewCartID()})
}

func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.svc.GetCart(c.Request.Context(), c.Param("cartId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(cart))
}

// SetItem sets a product's quantity. A quantity of zero removes it. When the
// caller is signed in the row is tied to their username.
func (h *CartHandler) SetItem(c *gin.Context) {
	var req dto.SetCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	entry := model.CartEntry{
		ProductID: req.ProductID, CartID: req.CartID,
		Username: middleware.GetUsername(c), Quantity: *req.Quantity,
	}
	if err := h.svc.SetQuantity(c.Request.Context(), entry); err != nil {
		respondError(c, err)
		return
	}

	cart, err := h.svc.GetCart(c.Request.Context(), req.CartID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *CartHandler) Merge(c *gin.Context) {
	cartID := c.Param("cartId")
	if err := h.svc.MergeIntoUser(c.Request.Context(), cartID, middleware.GetUsername(c)); err != nil {
		respondError(c, err)
		return
	}

	cart, err := h.svc.GetCart(c.Request.Context(), cartID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(cart))
}

func toProductResponse(p model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID: p.ID, Name: p.Name, CategoryID: p.CategoryID, CategoryName: p.CategoryName,
		UnitPrice: p.UnitPrice, UnitsInStock: p.UnitsInStock, Discontinued: p.Discontinued,
	}
}

func toCartResponse(cart *model.Cart) dto.CartResponse {
	items := make([]dto.CartItemResponse, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		items = append(items, dto.CartItemResponse{
			Product:  toProductResponse(l.Product),
			Quantity: l.Quantity,
			Subtotal: l.Subtotal(),
		})
	}
	return dto.CartResponse{CartID: cart.ID, Items: items, Total: cart.Total()}
}
