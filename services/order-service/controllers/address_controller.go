package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yashrajoria/storefront/services/order-service/services"
)

type AddressController struct {
	addressService *services.AddressService
}

func NewAddressController(addressService *services.AddressService) *AddressController {
	return &AddressController{addressService: addressService}
}

// CreateAddress saves a shipping address for the shopper.
func (ac *AddressController) CreateAddress(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req services.AddressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address", "details": err.Error()})
		return
	}

	addr, svcErr := ac.addressService.CreateAddress(ctx.Request.Context(), userID, &req)
	if svcErr != nil {
		renderError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"message": "Address created successfully", "address": addr})
}

func (ac *AddressController) GetAddresses(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	addrs, svcErr := ac.addressService.ListAddresses(ctx.Request.Context(), userID)
	if svcErr != nil {
		renderError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"addresses": addrs})
}

func (ac *AddressController) SetDefaultAddress(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, ok := parseAddressID(ctx)
	if !ok {
		return
	}

	if svcErr := ac.addressService.SetDefault(ctx.Request.Context(), userID, id); svcErr != nil {
		renderError(ctx, svcErr)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (ac *AddressController) DeleteAddress(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, ok := parseAddressID(ctx)
	if !ok {
		return
	}

	if svcErr := ac.addressService.DeleteAddress(ctx.Request.Context(), userID, id); svcErr != nil {
		renderError(ctx, svcErr)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// SaveLead captures a storefront lead. It needs no shopper.
func (ac *AddressController) SaveLead(ctx *gin.Context) {
	var req services.LeadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lead", "details": err.Error()})
		return
	}

	lead, svcErr := ac.addressService.SaveLead(ctx.Request.Context(), &req)
	if svcErr != nil {
		renderError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"id": lead.ID})
}

func parseAddressID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address ID format"})
		return uuid.Nil, false
	}
	return id, true
}
