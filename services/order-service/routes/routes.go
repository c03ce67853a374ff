package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/storefront/services/common/middleware"
	"github.com/yashrajoria/storefront/services/order-service/controllers"
)

func RegisterOrderRoutes(r *gin.Engine, oc *controllers.OrderController) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "order-service"})
	})

	orderRoutes := r.Group("/orders")
	// The bff authenticates the shopper and forwards X-User-ID.
	orderRoutes.Use(middleware.RequireUser(nil))
	orderRoutes.POST("", oc.CreateOrder)
	orderRoutes.GET("", oc.GetOrders)
	orderRoutes.GET("/:id", oc.GetOrderByID)

	internal := r.Group("/internal")
	internal.GET("/orders/:id", oc.GetOrderInternal)
}

func RegisterAddressRoutes(r *gin.Engine, ac *controllers.AddressController) {
	addressRoutes := r.Group("/addresses")
	addressRoutes.Use(middleware.RequireUser(nil))
	addressRoutes.POST("", ac.CreateAddress)
	addressRoutes.GET("", ac.GetAddresses)
	addressRoutes.PATCH("/:id/default", ac.SetDefaultAddress)
	addressRoutes.DELETE("/:id", ac.DeleteAddress)

	r.POST("/leads", ac.SaveLead)
}
