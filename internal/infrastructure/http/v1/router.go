// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	corectx "ritel/internal/core/context"
	"ritel/internal/core/entity"
	"ritel/internal/core/tx"
	"ritel/internal/domain/auth"
	"ritel/internal/domain/catalogs/agent"
	"ritel/internal/domain/catalogs/customer"
	"ritel/internal/domain/catalogs/item"
	"ritel/internal/domain/catalogs/supplier"
	"ritel/internal/domain/documents/purchase"
	"ritel/internal/domain/documents/sale"
	"ritel/internal/domain/ledger"
	"ritel/internal/domain/trips"
	"ritel/internal/infrastructure/http/v1/handlers"
	"ritel/internal/infrastructure/http/v1/middleware"
	"ritel/internal/infrastructure/storage/postgres"
	"ritel/pkg/logger"
)

// RouterConfig holds the wired services the API serves.
type RouterConfig struct {
	Pool      *postgres.Pool
	TxManager tx.Manager
	Logger    *logger.Logger

	AuthService *auth.Service

	Items     *item.Service
	Suppliers *supplier.Service
	Customers *customer.Service
	Agents    *agent.Service

	Purchases *purchase.Service
	Sales     *sale.Service
	Trips     *trips.Service
	Ledger    *ledger.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	base := handlers.NewBaseHandler()

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	apiV1 := router.Group("/api/v1")

	// Public auth endpoints
	authHandler := handlers.NewAuthHandler(base, cfg.AuthService)
	apiV1.POST("/auth/login", authHandler.Login)

	// Everything else requires a valid token
	protected := apiV1.Group("")
	protected.Use(middleware.Auth(cfg.AuthService))

	registerCatalogRoutes(protected, base, cfg)
	registerDocumentRoutes(protected, base, cfg)
	registerTripRoutes(protected, base, cfg)

	return router
}

// registerCatalog wires the shared CRUD surface of one catalog.
// Deletes are soft and restricted to admins.
func registerCatalog[T entity.Validatable, C any, U any](
	rg *gin.RouterGroup,
	h *handlers.CatalogHandler[T, C, U],
) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", middleware.RequireRole(corectx.RoleAdmin), h.Delete)
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	stockHandler := handlers.NewStockHandler(base, cfg.Ledger, cfg.TxManager)
	saleHandler := handlers.NewSaleHandler(base, cfg.Sales)

	items := rg.Group("/items")
	registerCatalog(items, handlers.NewItemHandler(base, cfg.Items))
	items.GET("/:id/movements", stockHandler.Movements)
	items.POST("/:id/audit", stockHandler.Audit)
	items.POST("/:id/adjust-stock", middleware.RequireRole(corectx.RoleAdmin), stockHandler.AdjustStock)

	registerCatalog(rg.Group("/suppliers"), handlers.NewSupplierHandler(base, cfg.Suppliers))

	customers := rg.Group("/customers")
	registerCatalog(customers, handlers.NewCustomerHandler(base, cfg.Customers))
	customers.POST("/:id/reconcile-receivable", saleHandler.Reconcile)

	registerCatalog(rg.Group("/agents"), handlers.NewAgentHandler(base, cfg.Agents))
}

func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	purchaseHandler := handlers.NewPurchaseHandler(base, cfg.Purchases)
	purchases := rg.Group("/purchases")
	{
		purchases.GET("", purchaseHandler.List)
		purchases.POST("", purchaseHandler.Create)
		purchases.GET("/:id", purchaseHandler.Get)
		purchases.POST("/:id/items", purchaseHandler.AddItem)
		purchases.DELETE("/:id/items/:itemId", purchaseHandler.RemoveItem)
		purchases.POST("/:id/checkout", purchaseHandler.Checkout)
		purchases.POST("/:id/cancel", purchaseHandler.Cancel)
		purchases.GET("/:id/payments", purchaseHandler.Payments)
		purchases.POST("/:id/payments", purchaseHandler.Pay)
	}

	saleHandler := handlers.NewSaleHandler(base, cfg.Sales)
	sales := rg.Group("/sales")
	{
		sales.GET("", saleHandler.List)
		sales.POST("", saleHandler.Create)
		sales.GET("/:id", saleHandler.Get)
		sales.POST("/:id/items", saleHandler.AddItem)
		sales.DELETE("/:id/items/:itemId", saleHandler.RemoveItem)
		sales.POST("/:id/checkout", saleHandler.Checkout)
		sales.POST("/:id/cancel", saleHandler.Cancel)
		sales.GET("/:id/payments", saleHandler.Payments)
		sales.POST("/:id/payments", saleHandler.Pay)
		sales.POST("/:id/adjustments", saleHandler.Adjust)
	}

	stockHandler := handlers.NewStockHandler(base, cfg.Ledger, cfg.TxManager)
	rg.GET("/documents/:id/movements", stockHandler.DocumentMovements)
}

func registerTripRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	tripHandler := handlers.NewTripHandler(base, cfg.Trips)
	tripsGroup := rg.Group("/trips")
	{
		tripsGroup.GET("", tripHandler.List)
		tripsGroup.POST("", tripHandler.Create)
		tripsGroup.GET("/:id", tripHandler.Get)
		tripsGroup.POST("/:id/transition", tripHandler.Transition)
		tripsGroup.POST("/:id/sales", tripHandler.RecordSale)
		tripsGroup.POST("/:id/returns", tripHandler.RecordReturn)
		tripsGroup.GET("/:id/reconciliation", tripHandler.Reconcile)
	}
}
