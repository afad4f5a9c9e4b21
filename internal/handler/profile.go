package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/middleware"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/service"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	username := middleware.GetUsername(c)
	customer, err := h.profileService.Get(c.Request.Context(), username, username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfileResponse(customer))
}

func (h *ProfileHandler) Update(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	username := middleware.GetUsername(c)
	customer, err := h.profileService.Update(c.Request.Context(), username, username, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfileResponse(customer))
}

func toProfileResponse(c *model.Customer) dto.ProfileResponse {
	return dto.ProfileResponse{
		CustomerID: c.CustomerID, CompanyName: c.CompanyName, ContactName: c.ContactName,
		ContactTitle: c.ContactTitle, Address: c.Address, City: c.City, Region: c.Region,
		PostalCode: c.PostalCode, Country: c.Country, Phone: c.Phone, Fax: c.Fax,
	}
}
