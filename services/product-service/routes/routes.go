package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/storefront/services/product-service/controllers"
)

func RegisterRoutes(r *gin.Engine, pc *controllers.ProductController) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "product-service"})
	})

	productRoutes := r.Group("/products")
	{
		productRoutes.GET("", pc.GetProducts)
		productRoutes.GET("/:slug", pc.GetProduct)
	}

	internal := r.Group("/internal")
	internal.GET("/variants", pc.GetVariants)
}
