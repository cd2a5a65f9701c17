package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shop-backend/internal/service"
	"shop-backend/internal/util"
)

// Handler contains HTTP handlers
type Handler struct {
	auth     *service.AuthService
	catalog  *service.CatalogService
	cart     *service.CartService
	checkout *service.CheckoutService
	orders   *service.OrderService
	reviews  *service.ReviewService
	wishlist *service.WishlistService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	auth *service.AuthService,
	catalog *service.CatalogService,
	cart *service.CartService,
	checkout *service.CheckoutService,
	orders *service.OrderService,
	reviews *service.ReviewService,
	wishlist *service.WishlistService,
) *Handler {
	return &Handler{
		auth:     auth,
		catalog:  catalog,
		cart:     cart,
		checkout: checkout,
		orders:   orders,
		reviews:  reviews,
		wishlist: wishlist,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/register", h.register)
		v1.POST("/auth/login", h.login)
		v1.GET("/auth/me", h.authenticate(), h.currentUser)

		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.GET("/products/:id/reviews", h.getProductReviews)
		v1.GET("/categories", h.listCategories)
		v1.GET("/categories/:slug", h.getCategory)

		authed := v1.Group("", h.authenticate())
		{
			authed.GET("/cart", h.listCartItems)
			authed.POST("/cart", h.addCartItem)
			authed.PUT("/cart/:id", h.updateCartItem)
			authed.DELETE("/cart/:id", h.removeCartItem)

			authed.POST("/orders/checkout", h.placeOrder)
			authed.GET("/orders", h.listOrders)
			authed.GET("/orders/:id", h.getOrder)

			authed.GET("/wishlist", h.listWishlist)
			authed.GET("/wishlist/check/:productId", h.checkWishlistItem)
			authed.POST("/wishlist/:productId", h.addWishlistItem)
			authed.DELETE("/wishlist/:productId", h.removeWishlistItem)

			authed.GET("/reviews/me", h.getMyReviews)
			authed.POST("/products/:id/reviews", h.createReview)
			authed.PUT("/reviews/:id", h.updateReview)
			authed.DELETE("/reviews/:id", h.deleteReview)
		}

		admin := v1.Group("", h.authenticate(), h.requireAdmin())
		{
			admin.POST("/products", h.createProduct)
			admin.PUT("/products/:id", h.updateProduct)
			admin.DELETE("/products/:id", h.deleteProduct)

			admin.POST("/categories", h.createCategory)
			admin.PUT("/categories/:slug", h.updateCategory)
			admin.DELETE("/categories/:slug", h.deleteCategory)

			admin.PATCH("/orders/:id/status", h.updateOrderStatus)
			admin.PATCH("/reviews/:id/approve", h.approveReview)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// respondError maps the domain error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch service.KindOf(err) {
	case service.KindInvalidInput:
		status = http.StatusBadRequest
		message = err.Error()
	case service.KindNotFound:
		status = http.StatusNotFound
		message = err.Error()
	case service.KindAlreadyExists:
		status = http.StatusConflict
		message = err.Error()
	case service.KindForbidden:
		status = http.StatusForbidden
		message = err.Error()
	case service.KindConflict:
		status = http.StatusConflict
		message = err.Error()
	}

	c.JSON(status, gin.H{"error": message})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
