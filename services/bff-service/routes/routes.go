package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/storefront/services/bff-service/clients"
	"github.com/yashrajoria/storefront/services/bff-service/controllers"
	"github.com/yashrajoria/storefront/services/common/auth"
	"github.com/yashrajoria/storefront/services/common/middleware"
)

// Upstreams are the services the bff forwards page requests to.
type Upstreams struct {
	Cart     *clients.ServiceClient
	Orders   *clients.ServiceClient
	Products *clients.ServiceClient
}

func RegisterRoutes(r *gin.Engine, proxy *controllers.ProxyController, checkout *controllers.CheckoutController, up Upstreams, verifier *auth.TokenVerifier) {
	r.GET("/health", proxy.Health)

	// Public routes - no auth required
	public := r.Group("/bff")
	{
		public.GET("/products", proxy.Proxy(up.Products, http.MethodGet, controllers.Static("/products")))
		public.GET("/products/:slug", proxy.Proxy(up.Products, http.MethodGet, controllers.WithParam("/products/", "slug")))
		public.POST("/leads", proxy.Proxy(up.Orders, http.MethodPost, controllers.Static("/leads")))
	}

	// Protected routes - require a shopper
	protected := r.Group("/bff")
	protected.Use(middleware.RequireUser(verifier))
	{
		// Cart page
		protected.GET("/cart", proxy.Proxy(up.Cart, http.MethodGet, controllers.Static("/cart")))
		protected.POST("/cart/items", proxy.Proxy(up.Cart, http.MethodPost, controllers.Static("/cart/items")))
		protected.PATCH("/cart/items/:variant_id", proxy.Proxy(up.Cart, http.MethodPatch, controllers.WithParam("/cart/items/", "variant_id")))
		protected.DELETE("/cart/items/:variant_id", proxy.Proxy(up.Cart, http.MethodDelete, controllers.WithParam("/cart/items/", "variant_id")))
		protected.DELETE("/cart", proxy.Proxy(up.Cart, http.MethodDelete, controllers.Static("/cart")))

		// Orders page
		protected.GET("/orders", proxy.Proxy(up.Orders, http.MethodGet, controllers.Static("/orders")))
		protected.GET("/orders/:id", proxy.Proxy(up.Orders, http.MethodGet, controllers.WithParam("/orders/", "id")))

		// Shipping addresses, used by the next order
		protected.GET("/addresses", proxy.Proxy(up.Orders, http.MethodGet, controllers.Static("/addresses")))
		protected.POST("/addresses", proxy.Proxy(up.Orders, http.MethodPost, controllers.Static("/addresses")))
		protected.PATCH("/addresses/:id/default", proxy.Proxy(up.Orders, http.MethodPatch, func(c *gin.Context) string {
			return "/addresses/" + c.Param("id") + "/default"
		}))
		protected.DELETE("/addresses/:id", proxy.Proxy(up.Orders, http.MethodDelete, controllers.WithParam("/addresses/", "id")))

		// Checkout
		protected.POST("/checkout", checkout.Start)
		protected.GET("/checkout", checkout.Status)
		protected.DELETE("/checkout", checkout.Abandon)

		// Payment widget callbacks
		protected.POST("/checkout/payments/:gateway_order_id/success", checkout.PaymentSuccess)
		protected.POST("/checkout/payments/:gateway_order_id/dismiss", checkout.PaymentDismiss)
		protected.POST("/checkout/payments/:gateway_order_id/error", checkout.PaymentError)
	}
}
