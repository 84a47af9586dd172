package router

import (
	"backoffice/internal/config"
	"backoffice/internal/handler"
	"backoffice/internal/metrics"
	"backoffice/internal/middleware"
	"backoffice/internal/repository"
	"backoffice/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Permission modules and actions checked by the routes below.
const (
	ModInvoices  = "Invoices"
	ModPurchases = "Purchases"
	ModStock     = "Stock"
	ModGroups    = "Groups"
	ModUsers     = "Users"

	ActShow    = "Show"
	ActCreate  = "Create"
	ActEdit    = "Edit"
	ActCancel  = "Cancel"
	ActReceive = "Receive"
	ActAdjust  = "Adjust"
	ActDelete  = "Delete"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis.
// notifier receives low-stock alerts and may be nil; rdb may be nil.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, notifier service.LowStockNotifier) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	limit, err := middleware.RateLimiter(cfg.RateLimit)
	if err != nil {
		return nil, err
	}
	loginLimit, err := middleware.RateLimiter(middleware.LoginRate)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(metrics.Middleware())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())

	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	ledger := service.NewStockLedger(productRepo, movementRepo, notifier)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, productRepo, customerRepo, ledger, cfg.BusinessName)
	purchaseSvc := service.NewPurchaseService(purchaseRepo, productRepo, supplierRepo, ledger)
	permSvc := service.NewPermissionService(userRepo, groupRepo, rdb)
	authSvc := service.NewAuthService(userRepo, cfg)
	adminSvc := service.NewAdminService(groupRepo, userRepo, permSvc, cfg)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc, permSvc, cfg.AuthCookieName, cfg.CookieSecure)
	invoicesH := handler.NewInvoicesHandler(invoiceSvc)
	purchasesH := handler.NewPurchasesHandler(purchaseSvc)
	stockH := handler.NewStockHandler(ledger)
	adminH := handler.NewAdminHandler(adminSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.GET("/metrics", metrics.Handler())

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", loginLimit, authH.Login)
		auth.POST("/logout", authH.Logout)
	}

	v1 := r.Group("/v1", limit, middleware.Auth(authSvc, cfg.AuthCookieName))
	can := func(module, action string) gin.HandlerFunc {
		return middleware.RequirePermission(permSvc, module, action)
	}
	{
		v1.GET("/me", authH.Me)
		v1.GET("/me/permissions", authH.CheckPermission)

		inv := v1.Group("/invoices")
		{
			inv.POST("", can(ModInvoices, ActCreate), invoicesH.Create)
			inv.GET("", can(ModInvoices, ActShow), invoicesH.List)
			inv.GET("/:id", can(ModInvoices, ActShow), invoicesH.Get)
			inv.GET("/:id/pdf", can(ModInvoices, ActShow), invoicesH.PDF)
			inv.POST("/:id/payments", can(ModInvoices, ActEdit), invoicesH.RecordPayment)
			inv.POST("/:id/cancel", can(ModInvoices, ActCancel), invoicesH.Cancel)
		}

		pur := v1.Group("/purchases")
		{
			pur.POST("", can(ModPurchases, ActCreate), purchasesH.Create)
			pur.GET("", can(ModPurchases, ActShow), purchasesH.List)
			pur.GET("/:id", can(ModPurchases, ActShow), purchasesH.Get)
			pur.POST("/:id/receive", can(ModPurchases, ActReceive), purchasesH.Receive)
			pur.POST("/:id/cancel", can(ModPurchases, ActCancel), purchasesH.Cancel)
		}

		stock := v1.Group("/stock")
		{
			stock.GET("/movements", can(ModStock, ActShow), stockH.Movements)
			stock.GET("/alerts", can(ModStock, ActShow), stockH.Alerts)
			stock.GET("/products/:id/reconcile", can(ModStock, ActShow), stockH.Reconcile)
			stock.POST("/adjustments", can(ModStock, ActAdjust), stockH.Adjust)
		}

		groups := v1.Group("/groups")
		{
			groups.GET("", can(ModGroups, ActShow), adminH.ListGroups)
			groups.POST("", can(ModGroups, ActCreate), adminH.CreateGroup)
			groups.PUT("/:id/permissions", can(ModGroups, ActEdit), adminH.SetGroupPermissions)
		}

		users := v1.Group("/users")
		{
			users.GET("", can(ModUsers, ActShow), adminH.ListUsers)
			users.PUT("/:id/group", can(ModUsers, ActEdit), adminH.AssignGroup)
			users.DELETE("/:id", can(ModUsers, ActDelete), adminH.DisableUser)
		}
	}

	// Swagger UI, only outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, nil
}
