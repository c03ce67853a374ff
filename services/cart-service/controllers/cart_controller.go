package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yashrajoria/storefront/services/cart-service/models"
	"github.com/yashrajoria/storefront/services/cart-service/store"
	"github.com/yashrajoria/storefront/services/cart-service/totals"
	apperrors "github.com/yashrajoria/storefront/services/common/errors"
	"github.com/yashrajoria/storefront/services/common/logger"
	"github.com/yashrajoria/storefront/services/common/middleware"
)

// CartResponse is the cart as rendered to the storefront, totals included.
type CartResponse struct {
	Items  []models.CartItem `json:"items"`
	Totals models.Totals     `json:"totals"`
}

type updateQtyRequest struct {
	Qty *int `json:"qty" binding:"required"`
}

type CartController struct {
	stores *store.Registry
	calc   totals.Calculator
}

func NewCartController(stores *store.Registry, calc totals.Calculator) *CartController {
	return &CartController{stores: stores, calc: calc}
}

func (cc *CartController) storeFor(c *gin.Context) (*store.CartStore, bool) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		_ = c.Error(apperrors.ErrUnauthorized.Wrap(err))
		return nil, false
	}
	return cc.stores.For(userID), true
}

func (cc *CartController) render(c *gin.Context, cart models.Cart) {
	items := cart.Items
	if items == nil {
		items = []models.CartItem{}
	}
	c.JSON(http.StatusOK, CartResponse{Items: items, Totals: cc.calc.Calculate(cart)})
}

func (cc *CartController) fail(c *gin.Context, op string, err error) {
	logger.Error(c.Request.Context(), "cart operation failed", err, zap.String("op", op))
	_ = c.Error(apperrors.ErrServiceUnavailable.Wrap(err))
}

// GetCart returns the current cart with its totals.
func (cc *CartController) GetCart(c *gin.Context) {
	s, ok := cc.storeFor(c)
	if !ok {
		return
	}
	cart, err := s.GetCart(c.Request.Context())
	if err != nil {
		cc.fail(c, "get", err)
		return
	}
	cc.render(c, cart)
}

// GetTotals returns only the derived totals.
func (cc *CartController) GetTotals(c *gin.Context) {
	s, ok := cc.storeFor(c)
	if !ok {
		return
	}
	cart, err := s.GetCart(c.Request.Context())
	if err != nil {
		cc.fail(c, "totals", err)
		return
	}
	c.JSON(http.StatusOK, cc.calc.Calculate(cart))
}

// AddItem appends an item or increases the quantity of an existing variant.
func (cc *CartController) AddItem(c *gin.Context) {
	s, ok := cc.storeFor(c)
	if !ok {
		return
	}

	var item models.CartItem
	if err := c.ShouldBindJSON(&item); err != nil {
		_ = c.Error(apperrors.ErrBadRequest.Wrap(err))
		return
	}

	cart, err := s.AddItem(c.Request.Context(), item)
	if errors.Is(err, store.ErrInvalidItem) {
		_ = c.Error(apperrors.ErrBadRequest.Wrap(err))
		return
	}
	if err != nil {
		cc.fail(c, "add", err)
		return
	}
	cc.render(c, cart)
}

// UpdateQty sets the quantity of a variant. Values below 1 become 1.
func (cc *CartController) UpdateQty(c *gin.Context) {
	s, ok := cc.storeFor(c)
	if !ok {
		return
	}
	variantID, ok := parseVariantID(c)
	if !ok {
		return
	}

	var req updateQtyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.ErrBadRequest.Wrap(err))
		return
	}

	cart, err := s.UpdateQty(c.Request.Context(), variantID, *req.Qty)
	if err != nil {
		cc.fail(c, "update", err)
		return
	}
	cc.render(c, cart)
}

// RemoveItem removes a variant if present.
func (cc *CartController) RemoveItem(c *gin.Context) {
	s, ok := cc.storeFor(c)
	if !ok {
		return
	}
	variantID, ok := parseVariantID(c)
	if !ok {
		return
	}

	cart, err := s.RemoveItem(c.Request.Context(), variantID)
	if err != nil {
		cc.fail(c, "remove", err)
		return
	}
	cc.render(c, cart)
}

// ClearCart removes all items.
func (cc *CartController) ClearCart(c *gin.Context) {
	s, ok := cc.storeFor(c)
	if !ok {
		return
	}
	if err := s.ClearCart(c.Request.Context()); err != nil {
		cc.fail(c, "clear", err)
		return
	}
	cc.render(c, models.Cart{})
}

func parseVariantID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("variant_id"), 10, 64)
	if err != nil || id <= 0 {
		_ = c.Error(apperrors.ErrBadRequest.Wrap(errors.New("invalid variant id")))
		return 0, false
	}
	return id, true
}
