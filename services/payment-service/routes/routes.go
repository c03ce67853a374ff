package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/storefront/services/payment-service/controllers"
)

// RegisterPaymentRoutes mounts the payment API. The payment endpoints are
// called service-to-service by the bff; webhook is nil unless Stripe is the
// active provider.
func RegisterPaymentRoutes(r *gin.Engine, pc *controllers.PaymentController, webhook *controllers.WebhookController) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "payment-service"})
	})

	payments := r.Group("/payments")
	payments.POST("/order", pc.CreatePaymentOrder)
	payments.POST("/verify", pc.VerifyPayment)

	if webhook != nil {
		payments.POST("/stripe/webhook", webhook.StripeWebhook)
	}
}
