package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yashrajoria/storefront/services/common/middleware"
	"github.com/yashrajoria/storefront/services/order-service/services"
)

const (
	headerIdempotencyKey  = "Idempotency-Key"
	headerCartFingerprint = "X-Cart-Fingerprint"
)

type OrderController struct {
	orderService *services.OrderService
}

func NewOrderController(orderService *services.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

// CreateOrder handles order creation requests
func (oc *OrderController) CreateOrder(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req services.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	key := ctx.GetHeader(headerIdempotencyKey)
	if len(key) > 64 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Idempotency-Key too long"})
		return
	}

	order, svcErr := oc.orderService.CreateOrder(ctx.Request.Context(), userID, key, ctx.GetHeader(headerCartFingerprint), &req)
	if svcErr != nil {
		renderError(ctx, svcErr)
		return
	}

	status := http.StatusCreated
	if order.Replayed {
		status = http.StatusOK
	}
	ctx.JSON(status, order)
}

// GetOrders returns paginated orders for the authenticated user
func (oc *OrderController) GetOrders(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	page, limit := parsePaginationParams(ctx)

	result, svcErr := oc.orderService.GetUserOrders(ctx.Request.Context(), userID, page, limit)
	if svcErr != nil {
		renderError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// GetOrderByID returns a specific order for the authenticated user
func (oc *OrderController) GetOrderByID(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	orderUUID, ok := parseOrderID(ctx)
	if !ok {
		return
	}
	order, svcErr := oc.orderService.GetOrderByID(ctx.Request.Context(), userID, orderUUID)
	if svcErr != nil {
		renderError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// GetOrderInternal serves other services; it is not mounted behind user auth.
func (oc *OrderController) GetOrderInternal(ctx *gin.Context) {
	orderUUID, ok := parseOrderID(ctx)
	if !ok {
		return
	}

	order, svcErr := oc.orderService.GetOrder(ctx.Request.Context(), orderUUID)
	if svcErr != nil {
		renderError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, order)
}

func parseOrderID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID format"})
		return uuid.Nil, false
	}
	return id, true
}

func currentUser(ctx *gin.Context) (string, bool) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}

func renderError(ctx *gin.Context, svcErr *services.ServiceError) {
	ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
}

const (
	defaultLimit = 10
	maxLimit     = 100
)

// parsePaginationParams reads page and limit, falling back to defaults on
// bad input and capping limit.
func parsePaginationParams(ctx *gin.Context) (page, limit int) {
	page, limit = 1, defaultLimit
	if p, err := strconv.Atoi(ctx.Query("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(ctx.Query("limit")); err == nil && l > 0 {
		limit = min(l, maxLimit)
	}
	return page, limit
}
