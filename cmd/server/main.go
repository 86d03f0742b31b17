package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cartapp "github.com/farmtohome/backend/internal/application/cart"
	catalogapp "github.com/farmtohome/backend/internal/application/catalog"
	identityapp "github.com/farmtohome/backend/internal/application/identity"
	orderapp "github.com/farmtohome/backend/internal/application/order"
	"github.com/farmtohome/backend/internal/domain/identity"
	"github.com/farmtohome/backend/internal/domain/shared/valueobject"
	"github.com/farmtohome/backend/internal/infrastructure/auth"
	"github.com/farmtohome/backend/internal/infrastructure/config"
	"github.com/farmtohome/backend/internal/infrastructure/event"
	"github.com/farmtohome/backend/internal/infrastructure/logger"
	"github.com/farmtohome/backend/internal/infrastructure/persistence"
	"github.com/farmtohome/backend/internal/infrastructure/storage"
	"github.com/farmtohome/backend/internal/infrastructure/telemetry"
	"github.com/farmtohome/backend/internal/interfaces/http/handler"
	"github.com/farmtohome/backend/internal/interfaces/http/middleware"
	"github.com/farmtohome/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Farm to Home Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := db.EnableTracing(cfg.Database.DBName); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}

	// Initialize repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	checkoutRepo := persistence.NewGormCheckoutRepository(db.DB)

	// Initialize auth infrastructure
	jwtService := auth.NewJWTService(cfg.JWT)
	passwordHasher := auth.NewBcryptHasher(0)

	var tokenBlacklist auth.TokenBlacklist
	redisBlacklist, err := auth.NewRedisTokenBlacklist(cfg.Redis)
	if err != nil {
		if cfg.App.Env == "production" {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		log.Warn("Redis unavailable, falling back to in-memory token blacklist", zap.Error(err))
		tokenBlacklist = auth.NewInMemoryTokenBlacklist()
	} else {
		tokenBlacklist = redisBlacklist
		log.Info("Redis token blacklist connected")
	}

	// Initialize object storage for product images
	imageStorage, err := storage.NewS3ImageStorage(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	if err := imageStorage.EnsureBucket(context.Background()); err != nil {
		log.Warn("Failed to ensure image bucket exists", zap.Error(err))
	}

	// Initialize event bus and subscribers
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))

	// Resolve pricing policy from configuration
	deliveryCharge, err := cfg.Pricing.DeliveryChargeAmount()
	if err != nil {
		log.Fatal("Invalid pricing configuration", zap.Error(err))
	}
	taxRate, err := cfg.Pricing.TaxRate()
	if err != nil {
		log.Fatal("Invalid pricing configuration", zap.Error(err))
	}
	pricing := orderapp.PricingPolicy{
		DeliveryCharge: valueobject.Rupees(deliveryCharge),
		TaxRatePercent: taxRate,
	}

	// Initialize application services
	authService := identityapp.NewAuthService(userRepo, passwordHasher, jwtService, tokenBlacklist)
	productService := catalogapp.NewProductService(productRepo, imageStorage)
	cartService := cartapp.NewCartService(cartRepo, productRepo)
	checkoutService := orderapp.NewCheckoutService(cartRepo, productRepo, checkoutRepo, pricing)
	orderService := orderapp.NewOrderService(orderRepo, checkoutRepo, cfg.Pricing.ReturnWindow)

	productService.SetEventPublisher(eventBus)
	checkoutService.SetEventPublisher(eventBus)
	orderService.SetEventPublisher(eventBus)

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService)
	productHandler := handler.NewProductHandler(productService)
	cartHandler := handler.NewCartHandler(cartService)
	orderHandler := handler.NewOrderHandler(checkoutService, orderService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. Tracing - OpenTelemetry spans (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes.
	// Registration, login, refresh and the public catalog skip it.
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		SkipPaths: []string{
			"/api/v1/auth/register",
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
		},
		SkipPathPrefixes: []string{
			"/api/v1/products",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddleware(jwtConfig))

	// Identity domain (registration, login, session)
	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/register", authHandler.Register)
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.Refresh)
	authRoutes.POST("/logout", authHandler.Logout)
	authRoutes.GET("/me", authHandler.Me)

	// Public catalog (approved, available listings only)
	productRoutes := router.NewDomainGroup("catalog", "/products")
	productRoutes.GET("", productHandler.List)
	productRoutes.GET("/:id", productHandler.GetByID)

	// Customer cart
	cartRoutes := router.NewDomainGroup("cart", "/cart")
	cartRoutes.Use(middleware.RequireRoles(identity.RoleCustomer))
	cartRoutes.GET("", cartHandler.Get)
	cartRoutes.DELETE("", cartHandler.Clear)
	cartRoutes.POST("/items", cartHandler.AddItem)
	cartRoutes.PUT("/items/:productId", cartHandler.UpdateItem)
	cartRoutes.DELETE("/items/:productId", cartHandler.RemoveItem)

	// Orders: checkout and the customer-facing lifecycle
	orderRoutes := router.NewDomainGroup("orders", "/orders")
	orderRoutes.POST("", orderHandler.Place)
	orderRoutes.GET("", orderHandler.ListMine)
	orderRoutes.GET("/:id", orderHandler.GetByID)
	orderRoutes.PATCH("/:id/status", orderHandler.UpdateStatus)
	orderRoutes.POST("/:id/cancel", orderHandler.Cancel)
	orderRoutes.POST("/:id/return", orderHandler.RequestReturn)

	// Farmer back office: own listings and incoming orders
	farmerRoutes := router.NewDomainGroup("farmer", "/farmer")
	farmerRoutes.Use(middleware.RequireRoles(identity.RoleFarmer))
	farmerRoutes.GET("/products", productHandler.ListMine)
	farmerRoutes.POST("/products", productHandler.Create)
	farmerRoutes.PUT("/products/:id", productHandler.Update)
	farmerRoutes.DELETE("/products/:id", productHandler.Delete)
	farmerRoutes.POST("/products/:id/image-upload-url", productHandler.GenerateImageUploadURL)
	farmerRoutes.GET("/orders", orderHandler.ListForFarmer)

	// Admin back office: listing approval and order oversight
	adminRoutes := router.NewDomainGroup("admin", "/admin")
	adminRoutes.Use(middleware.RequireRoles(identity.RoleAdmin))
	adminRoutes.GET("/products", productHandler.ListAll)
	adminRoutes.POST("/products/:id/approve", productHandler.Approve)
	adminRoutes.POST("/products/:id/revoke", productHandler.Revoke)
	adminRoutes.GET("/orders", orderHandler.ListAll)
	adminRoutes.POST("/orders/:id/resolve-return", orderHandler.ResolveReturn)

	r.Register(authRoutes).
		Register(productRoutes).
		Register(cartRoutes).
		Register(orderRoutes).
		Register(farmerRoutes).
		Register(adminRoutes)

	// Setup routes
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
