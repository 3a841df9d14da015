package api

import (
	"net/http"
	"strconv"
	"time"

	"quickcart/internal/receipt"
	"quickcart/internal/service"
	"quickcart/internal/store"
	"quickcart/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	store          *store.Store
	sessionService *service.SessionService
	catalogService *service.CatalogService
	orderService   *service.OrderService
	archive        receipt.Archive
	logger         *zap.Logger
}

// NewHandler creates a new HTTP handler. archive may be nil, in which case
// receipts are always rendered on request.
func NewHandler(
	store *store.Store,
	sessionService *service.SessionService,
	catalogService *service.CatalogService,
	orderService *service.OrderService,
	archive receipt.Archive,
) *Handler {
	return &Handler{
		store:          store,
		sessionService: sessionService,
		catalogService: catalogService,
		orderService:   orderService,
		archive:        archive,
		logger:         util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/register", h.register)
		v1.POST("/auth/login", h.login)

		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.POST("/cart/quote", h.quoteCart)

		authed := v1.Group("", h.requireSession())
		{
			authed.POST("/auth/logout", h.logout)
			authed.GET("/auth/me", h.me)
			authed.PUT("/wishlist", h.updateWishlist)

			authed.POST("/orders", h.placeOrder)
			authed.GET("/orders", h.listOrders)
			authed.GET("/orders/:id", h.getOrder)
			authed.GET("/orders/:id/receipt", h.getReceipt)
		}

		admin := v1.Group("/admin", h.requireSession(), requireAdmin())
		{
			admin.GET("/stats", h.stats)
			admin.POST("/products", h.createProduct)
			admin.PUT("/products/:id", h.updateProduct)
			admin.DELETE("/products/:id", h.deleteProduct)
			admin.GET("/orders", h.listAllOrders)
			admin.PATCH("/orders/:id/status", h.updateOrderStatus)
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

// readinessCheck reports ready once the state document can be read
func (h *Handler) readinessCheck(c *gin.Context) {
	if _, err := h.store.Load(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
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
