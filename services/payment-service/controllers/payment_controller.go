package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/storefront/services/payment-service/services"
)

type PaymentController struct {
	payments *services.PaymentService
}

func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

// CreatePaymentOrder opens a gateway order for an order's server total.
func (pc *PaymentController) CreatePaymentOrder(c *gin.Context) {
	var req services.CreatePaymentOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	resp, svcErr := pc.payments.CreatePaymentOrder(c.Request.Context(), c.GetHeader("X-User-ID"), &req)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// VerifyPayment checks a widget proof. A rejected proof answers 400 with
// success false.
func (pc *PaymentController) VerifyPayment(c *gin.Context) {
	var req services.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request"})
		return
	}

	result, svcErr := pc.payments.VerifyPayment(c.Request.Context(), &req)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	if !result.Success {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Payment verification failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}
