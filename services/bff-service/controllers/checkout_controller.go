package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yashrajoria/storefront/services/bff-service/checkout"
	"github.com/yashrajoria/storefront/services/bff-service/gateway"
	"github.com/yashrajoria/storefront/services/common/logger"
	"github.com/yashrajoria/storefront/services/common/middleware"
)

const defaultCallbackWait = 30 * time.Second

type runResult struct {
	outcome *checkout.Outcome
	err     error
}

type widgetErrorRequest struct {
	Reason string `json:"reason"`
}

// CheckoutController exposes the checkout state machine to the storefront.
type CheckoutController struct {
	attempts *Attempts
	relay    *gateway.Relay

	// baseCtx outlives individual requests; attempts run under it. An attempt
	// awaiting payment has no deadline and ends only through the widget or
	// DELETE /bff/checkout.
	baseCtx      context.Context
	callbackWait time.Duration
}

func NewCheckoutController(baseCtx context.Context, attempts *Attempts, relay *gateway.Relay) *CheckoutController {
	return &CheckoutController{
		attempts:     attempts,
		relay:        relay,
		baseCtx:      baseCtx,
		callbackWait: defaultCallbackWait,
	}
}

// Start begins a checkout attempt and answers once the widget can be opened
// or the attempt has already ended.
func (cc *CheckoutController) Start(c *gin.Context) {
	owner, ok := ownerOf(c)
	if !ok {
		return
	}

	at := cc.attempts.forOwner(owner)
	at.startMu.Lock()
	defer at.startMu.Unlock()

	if at.orch.Running() {
		cc.renderError(c, checkout.ErrCheckoutInProgress, at.orch.Snapshot())
		return
	}

	before := at.orch.Snapshot().AttemptID
	runCtx, cancel := context.WithCancel(cc.baseCtx)
	done := make(chan runResult, 1)
	go func() {
		defer cancel()
		out, err := at.orch.Run(runCtx)
		done <- runResult{outcome: out, err: err}
	}()

	for {
		changed := at.changes()
		snap := at.orch.Snapshot()
		if snap.AttemptID != "" && snap.AttemptID != before {
			if snap.State == checkout.StateAwaitingPayment {
				c.JSON(http.StatusAccepted, gin.H{"checkout": snap, "widget": snap.Intent.Widget})
				return
			}
			if snap.State.IsTerminal() {
				cc.renderSnapshot(c, snap)
				return
			}
		}

		select {
		case <-changed:
		case res := <-done:
			if res.err != nil {
				cc.renderError(c, res.err, at.orch.Snapshot())
				return
			}
			cc.renderSnapshot(c, at.orch.Snapshot())
			return
		case <-c.Request.Context().Done():
			// The attempt keeps running; the shopper can poll GET /bff/checkout.
			return
		}
	}
}

// Status returns the current snapshot of the shopper's checkout.
func (cc *CheckoutController) Status(c *gin.Context) {
	owner, ok := ownerOf(c)
	if !ok {
		return
	}
	at, found := cc.attempts.get(owner)
	if !found {
		c.JSON(http.StatusOK, gin.H{"checkout": checkout.Snapshot{State: checkout.StateIdle}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkout": at.orch.Snapshot()})
}

// Abandon cancels the in-flight attempt. The cart is left untouched.
func (cc *CheckoutController) Abandon(c *gin.Context) {
	owner, ok := ownerOf(c)
	if !ok {
		return
	}
	at, found := cc.attempts.get(owner)
	if !found || !at.orch.Abandon() {
		c.JSON(http.StatusNotFound, gin.H{"error": "no checkout in progress"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), cc.callbackWait)
	defer cancel()
	snap, _ := at.wait(ctx, func(s checkout.Snapshot) bool { return s.State.IsTerminal() })
	c.JSON(http.StatusAccepted, gin.H{"checkout": snap})
}

// PaymentSuccess receives the widget's proof of payment.
func (cc *CheckoutController) PaymentSuccess(c *gin.Context) {
	var proof checkout.PaymentProof
	if err := c.ShouldBindJSON(&proof); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment proof"})
		return
	}
	cc.callback(c, func(owner, id string) error {
		return cc.relay.Success(id, owner, proof)
	})
}

// PaymentDismiss is called when the shopper closes the widget.
func (cc *CheckoutController) PaymentDismiss(c *gin.Context) {
	cc.callback(c, func(owner, id string) error {
		return cc.relay.Dismiss(id, owner)
	})
}

// PaymentError is called when the widget reports a failed payment.
func (cc *CheckoutController) PaymentError(c *gin.Context) {
	var req widgetErrorRequest
	_ = c.ShouldBindJSON(&req)
	cc.callback(c, func(owner, id string) error {
		return cc.relay.Fail(id, owner, req.Reason)
	})
}

func (cc *CheckoutController) callback(c *gin.Context, resolve func(owner, gatewayOrderID string) error) {
	owner, ok := ownerOf(c)
	if !ok {
		return
	}
	gatewayOrderID := c.Param("gateway_order_id")

	if err := resolve(owner, gatewayOrderID); err != nil {
		logger.Warn(c.Request.Context(), "Rejected payment widget callback",
			zap.String("gateway_order_id", gatewayOrderID), zap.Error(err))
		switch {
		case errors.Is(err, gateway.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, gateway.ErrAlreadyResolved):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	at, found := cc.attempts.get(owner)
	if !found {
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), cc.callbackWait)
	defer cancel()
	snap, settled := at.wait(ctx, func(s checkout.Snapshot) bool { return s.State.IsTerminal() })
	if !settled {
		c.JSON(http.StatusAccepted, gin.H{"checkout": snap})
		return
	}
	cc.renderSnapshot(c, snap)
}

func (cc *CheckoutController) renderSnapshot(c *gin.Context, snap checkout.Snapshot) {
	if err := snap.Err(); err != nil {
		cc.renderError(c, err, snap)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkout": snap})
}

func (cc *CheckoutController) renderError(c *gin.Context, err error, snap checkout.Snapshot) {
	kind := checkout.Kind(err)
	c.JSON(statusForKind(kind), gin.H{
		"error":    err.Error(),
		"kind":     kind,
		"checkout": snap,
	})
}

func statusForKind(kind string) int {
	switch kind {
	case checkout.KindEmptyCart:
		return http.StatusBadRequest
	case checkout.KindInProgress:
		return http.StatusConflict
	case checkout.KindOrderCreation, checkout.KindSignatureMismatch:
		return http.StatusUnprocessableEntity
	case checkout.KindUserCancelled, checkout.KindAbandoned:
		return http.StatusOK
	case checkout.KindGateway, checkout.KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func ownerOf(c *gin.Context) (string, bool) {
	owner, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return owner, true
}
