package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/storefront/services/cart-service/controllers"
	"github.com/yashrajoria/storefront/services/common/middleware"
)

func RegisterCartRoutes(r *gin.Engine, controller *controllers.CartController) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "cart-service"})
	})

	// Reached only through the bff, which authenticates the shopper.
	api := r.Group("/cart")
	api.Use(middleware.RequireUser(nil))
	{
		api.GET("", controller.GetCart)
		api.GET("/totals", controller.GetTotals)
		api.POST("/items", controller.AddItem)
		api.PATCH("/items/:variant_id", controller.UpdateQty)
		api.DELETE("/items/:variant_id", controller.RemoveItem)
		api.DELETE("", controller.ClearCart)
	}
}
